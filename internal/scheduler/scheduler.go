// Package scheduler runs the periodic jobs: the rule check cycle and the
// daily portfolio value snapshot.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"stockwatch/internal/ledger"
	"stockwatch/internal/model"
	"stockwatch/internal/notifier"
	"stockwatch/internal/portfolio"
	"stockwatch/internal/rules"
)

// SnapshotStore persists daily portfolio value points.
type SnapshotStore interface {
	RecordSnapshot(model.ValueSnapshot) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	cron      *cron.Cron
	ledger    *ledger.Service
	portfolio *portfolio.Service
	rules     *rules.Service
	snapshots SnapshotStore
	sinks     []notifier.Sink
	log       zerolog.Logger
}

// New creates a scheduler. Cron specs use the seconds-field format.
func New(led *ledger.Service, pf *portfolio.Service, rs *rules.Service, snapshots SnapshotStore, sinks []notifier.Sink, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		ledger:    led,
		portfolio: pf,
		rules:     rs,
		snapshots: snapshots,
		sinks:     sinks,
		log:       log.With().Str("module", "scheduler").Logger(),
	}
}

// RegisterAll registers the rule check cycle and the daily snapshot task.
func (s *Scheduler) RegisterAll(checkCron, snapshotCron string) error {
	if _, err := s.cron.AddFunc(checkCron, s.ruleCheckTask); err != nil {
		return fmt.Errorf("register rule check task: %w", err)
	}
	if _, err := s.cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}

// RunCheckNow executes the rule check cycle immediately (manual trigger).
func (s *Scheduler) RunCheckNow() {
	s.ruleCheckTask()
}

func (s *Scheduler) ruleCheckTask() {
	s.log.Debug().Msg("running rule check cycle")
	alerts, err := s.rules.CheckAll()
	if err != nil {
		s.log.Error().Err(err).Msg("rule check cycle failed")
		return
	}
	for _, alert := range alerts {
		notifier.Dispatch(alert, s.sinks, s.log)
	}
	if len(alerts) > 0 {
		s.log.Info().Int("fired", len(alerts)).Msg("rule check cycle done")
	}
}

func (s *Scheduler) snapshotTask() {
	s.log.Debug().Msg("running daily snapshot")
	holdings, err := s.ledger.Holdings()
	if err != nil {
		s.log.Error().Err(err).Msg("snapshot: load holdings")
		return
	}
	transactions, err := s.ledger.Transactions()
	if err != nil {
		s.log.Error().Err(err).Msg("snapshot: load transactions")
		return
	}

	valuation := s.portfolio.Value(holdings)
	metrics := s.portfolio.Metrics(holdings, transactions)

	snap := model.ValueSnapshot{
		Date:        time.Now(),
		Invested:    metrics.TotalInvested,
		MarketValue: valuation.Total,
		Return:      metrics.TotalReturn,
	}
	if metrics.TotalInvested > 0 {
		snap.ReturnPercent = snap.Return / metrics.TotalInvested * 100
	}
	if err := s.snapshots.RecordSnapshot(snap); err != nil {
		s.log.Error().Err(err).Msg("record snapshot")
		return
	}
	s.log.Info().Msg(notifier.FormatPortfolioStatus(metrics, valuation))
}
