package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"stockwatch/internal/model"
	"stockwatch/internal/portfolio"
	"stockwatch/internal/quotes"
	"stockwatch/internal/rules"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.ledger.Holdings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.portfolio.Value(holdings))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	holdings, transactions, err := s.ledgerState()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.portfolio.Metrics(holdings, transactions))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.ledger.Holdings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, s.analytics.Breakdown(holdings))
}

func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.ledger.Holdings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	breakdown := s.analytics.Breakdown(holdings)
	s.writeJSON(w, http.StatusOK, s.analytics.Risk(breakdown))
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	period := quotes.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = quotes.Period1M
	}
	holdings, err := s.ledger.Holdings()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	perf := s.portfolio.Performance(holdings, period)
	if perf == nil {
		s.writeError(w, http.StatusNotFound, "no performance data for period "+string(period))
		return
	}
	s.writeJSON(w, http.StatusOK, perf)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.store.LoadSnapshots()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleRebuildHistory(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.ledger.Transactions()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	snaps, err := s.history.Build(r.Context(), transactions, nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	symbol := model.NormalizeSymbol(chi.URLParam(r, "symbol"))
	holdings, transactions, err := s.ledgerState()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	detail, err := s.portfolio.PositionDetail(symbol, holdings, transactions)
	if err != nil {
		if errors.Is(err, portfolio.ErrNotHeld) {
			s.writeError(w, http.StatusNotFound, "position not held: "+symbol)
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := s.ledger.Transactions()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, transactions)
}

type transactionRequest struct {
	Symbol   string  `json:"symbol"`
	Kind     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
	Date     string  `json:"date"`
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = parseDate(req.Date)
		if err != nil {
			s.writeError(w, http.StatusUnprocessableEntity, "invalid date: "+req.Date)
			return
		}
	}

	tx, err := s.ledger.AddTransaction(req.Symbol, model.TransactionKind(req.Kind), req.Quantity, req.Price, date)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, tx)
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

type ruleResponse struct {
	model.RuleRecord
	Summary string `json:"summary"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	all, err := s.rules.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]ruleResponse, 0, len(all))
	for _, rule := range all {
		out = append(out, ruleResponse{RuleRecord: rules.ToRecord(rule), Summary: rule.Summary()})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type ruleRequest struct {
	Type                string  `json:"type"`
	Symbol              string  `json:"symbol"`
	TargetPrice         float64 `json:"target_price"`
	StopPrice           float64 `json:"stop_price"`
	AlertType           string  `json:"alert_type"`
	PercentageThreshold float64 `json:"percentage_threshold"`
	Direction           string  `json:"direction"`
	VolumeThreshold     float64 `json:"volume_threshold"`
	Comparison          string  `json:"comparison"`
	Quantity            float64 `json:"quantity"`
}

func buildRule(req ruleRequest) (rules.Rule, error) {
	switch rules.Kind(req.Type) {
	case rules.KindPriceAlert:
		return rules.NewPriceAlert(req.Symbol, req.TargetPrice, rules.Direction(req.AlertType)), nil
	case rules.KindStopLoss:
		return rules.NewStopLoss(req.Symbol, req.StopPrice, req.Quantity), nil
	case rules.KindTakeProfit:
		return rules.NewTakeProfit(req.Symbol, req.TargetPrice, req.Quantity), nil
	case rules.KindPercentageChange:
		return rules.NewPercentageChangeAlert(req.Symbol, req.PercentageThreshold, rules.Direction(req.Direction)), nil
	case rules.KindVolumeAlert:
		return rules.NewVolumeAlert(req.Symbol, req.VolumeThreshold, rules.Direction(req.Comparison)), nil
	default:
		return nil, errors.New("unknown rule type: " + req.Type)
	}
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rule, err := buildRule(req)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.rules.Create(rule); err != nil {
		var verr *rules.ValidationError
		if errors.As(err, &verr) {
			s.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":    "rule validation failed",
				"problems": verr.Problems,
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, ruleResponse{RuleRecord: rules.ToRecord(rule), Summary: rule.Summary()})
}

func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rule, err := s.rules.Toggle(id)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			s.writeError(w, http.StatusNotFound, "rule not found: "+id)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ruleResponse{RuleRecord: rules.ToRecord(rule), Summary: rule.Summary()})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.rules.Delete(id); err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			s.writeError(w, http.StatusNotFound, "rule not found: "+id)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.rules.CheckAll()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	symbols, err := s.store.Watchlist()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, symbols)
}

func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	symbol := model.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "symbol is required")
		return
	}
	if err := s.store.AddToWatchlist(symbol); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"symbol": symbol})
}

func (s *Server) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := model.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if err := s.store.RemoveFromWatchlist(symbol); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		s.writeError(w, http.StatusServiceUnavailable, "market overview not available")
		return
	}
	s.writeJSON(w, http.StatusOK, s.market.MarketOverview())
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.Backup()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAll(); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Warn().Msg("All stored data cleared")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ledgerState() (model.Holdings, []model.Transaction, error) {
	holdings, err := s.ledger.Holdings()
	if err != nil {
		return nil, nil, err
	}
	transactions, err := s.ledger.Transactions()
	if err != nil {
		return nil, nil, err
	}
	return holdings, transactions, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
