package rules

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"stockwatch/internal/model"
)

// Store is the persistence surface the rule service needs. Rules are stored
// as a flat collection of records keyed by id, in creation order.
type Store interface {
	LoadRules() ([]model.RuleRecord, error)
	SaveRules([]model.RuleRecord) error
}

// ErrRuleNotFound is returned for lifecycle operations on unknown rule ids.
var ErrRuleNotFound = fmt.Errorf("rule not found")

// ValidationError carries the human-readable problems that kept a rule from
// being admitted.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid rule: " + strings.Join(e.Problems, "; ")
}

// Service owns the rule lifecycle: create, validate, toggle, delete, check.
type Service struct {
	store  Store
	engine *Engine
	log    zerolog.Logger
}

// NewService creates a rule service.
func NewService(store Store, engine *Engine, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		engine: engine,
		log:    log.With().Str("module", "rules").Logger(),
	}
}

// List returns all rules in creation order.
func (s *Service) List() ([]Rule, error) {
	records, err := s.store.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	out := make([]Rule, 0, len(records))
	for _, rec := range records {
		rule, err := FromRecord(rec)
		if err != nil {
			s.log.Warn().Err(err).Str("rule_id", rec.ID).Msg("skipping unreadable rule record")
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

// Create validates and admits a rule. A rule with validation errors is
// rejected with a *ValidationError and not persisted.
func (s *Service) Create(rule Rule) error {
	if problems := s.engine.Validate(rule); len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	records, err := s.store.LoadRules()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	records = append(records, ToRecord(rule))
	if err := s.store.SaveRules(records); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	s.log.Info().Str("rule_id", rule.ID()).Str("summary", rule.Summary()).Msg("rule created")
	return nil
}

// Toggle flips a rule's active flag, leaving every other field unchanged,
// and returns the updated rule.
func (s *Service) Toggle(id string) (Rule, error) {
	records, err := s.store.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		records[i].Active = !rec.Active
		if err := s.store.SaveRules(records); err != nil {
			return nil, fmt.Errorf("save rules: %w", err)
		}
		return FromRecord(records[i])
	}
	return nil, ErrRuleNotFound
}

// Delete removes a rule entirely.
func (s *Service) Delete(id string) error {
	records, err := s.store.LoadRules()
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}
	for i, rec := range records {
		if rec.ID != id {
			continue
		}
		records = append(records[:i], records[i+1:]...)
		if err := s.store.SaveRules(records); err != nil {
			return fmt.Errorf("save rules: %w", err)
		}
		s.log.Info().Str("rule_id", id).Msg("rule deleted")
		return nil
	}
	return ErrRuleNotFound
}

// CheckAll evaluates every stored rule and returns the alerts that fired.
func (s *Service) CheckAll() ([]model.Alert, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	return s.engine.EvaluateAll(all), nil
}
