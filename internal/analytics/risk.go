package analytics

import (
	"gonum.org/v1/gonum/stat"

	"stockwatch/internal/model"
)

// Risk classifies portfolio risk from a breakdown. Beta is a position-weight
// average over the holdings that report a beta, renormalized over those.
func (s *Service) Risk(breakdown model.Breakdown) model.RiskProfile {
	profile := model.RiskProfile{
		NumPositions: len(breakdown.ByPosition),
		NumSectors:   len(breakdown.BySector),
	}

	for _, position := range breakdown.ByPosition {
		if position.Weight > profile.MaxWeight {
			profile.MaxWeight = position.Weight
		}
	}

	switch {
	case profile.MaxWeight > 30:
		profile.ConcentrationRisk = "High"
	case profile.MaxWeight > 20:
		profile.ConcentrationRisk = "Medium"
	default:
		profile.ConcentrationRisk = "Low"
	}

	switch {
	case profile.MaxWeight > 25:
		profile.SinglePositionRisk = "High"
	case profile.MaxWeight > 15:
		profile.SinglePositionRisk = "Medium"
	default:
		profile.SinglePositionRisk = "Low"
	}

	switch {
	case profile.NumSectors >= 5:
		profile.Diversification = "Good"
	case profile.NumSectors >= 3:
		profile.Diversification = "Fair"
	default:
		profile.Diversification = "Poor"
	}

	switch {
	case profile.NumPositions >= 20:
		profile.PortfolioSizeClass = "Large"
	case profile.NumPositions >= 10:
		profile.PortfolioSizeClass = "Medium"
	default:
		profile.PortfolioSizeClass = "Small"
	}

	if breakdown.TotalValue > 0 {
		var maxSector float64
		for _, value := range breakdown.BySector {
			if value > maxSector {
				maxSector = value
			}
		}
		profile.MaxSectorPercent = maxSector / breakdown.TotalValue * 100
	}
	switch {
	case profile.MaxSectorPercent > 40:
		profile.SectorRisk = "High"
	case profile.MaxSectorPercent > 25:
		profile.SectorRisk = "Medium"
	default:
		profile.SectorRisk = "Low"
	}

	profile.PortfolioBeta = s.portfolioBeta(breakdown)
	switch {
	case profile.PortfolioBeta > 1.3:
		profile.BetaRisk = "High"
	case profile.PortfolioBeta > 0.8:
		profile.BetaRisk = "Medium"
	default:
		profile.BetaRisk = "Low"
	}

	return profile
}

// portfolioBeta computes the position-weighted mean beta over holdings that
// have one. Symbols with a missing or zero beta are excluded and the weights
// renormalized over the rest.
func (s *Service) portfolioBeta(breakdown model.Breakdown) float64 {
	var betas, weights []float64
	for symbol, position := range breakdown.ByPosition {
		info, err := s.quotes.GetInfo(symbol)
		if err != nil || info.Beta == 0 {
			continue
		}
		betas = append(betas, info.Beta)
		weights = append(weights, position.Weight/100)
	}
	if len(betas) == 0 {
		return 0
	}
	return stat.Mean(betas, weights)
}
