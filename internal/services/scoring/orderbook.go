package scoring

import (
	"fmt"
	"math"

	"FlowSentry/internal/domain/models"
	domsvc "FlowSentry/internal/domain/service"
	"FlowSentry/internal/services/stats"
	"FlowSentry/pkg/config"
)

// OrderBookManipulationScorer detects fake walls, layering and bid/ask
// imbalance in a depth snapshot. ManipulationScore runs 0-100 with higher
// meaning more manipulation; the aggregator inverts it for the composite.
type OrderBookManipulationScorer struct {
	cfg config.EngineConfig
}

func NewOrderBookManipulationScorer(cfg config.EngineConfig) *OrderBookManipulationScorer {
	return &OrderBookManipulationScorer{cfg: cfg}
}

func (s *OrderBookManipulationScorer) Score(book *models.OrderBookSnapshot, trades []models.Trade) (models.DepthAnalysis, error) {
	var out models.DepthAnalysis

	if book == nil {
		return out, ErrInsufficientData
	}
	book, dropped := CleanBook(book)
	if dropped > 0 {
		out.Evidence = append(out.Evidence, fmt.Sprintf("dropped %d malformed levels", dropped))
	}
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		out.Evidence = append(out.Evidence, "one-sided or empty book")
		return out, ErrInsufficientData
	}
	trades, _ = CleanTrades(trades)

	score := 0.0

	if s.hasFakeWalls(book, &out) {
		out.FakeWalls = true
		score += 35
	}
	if s.hasLayering(book, trades, &out) {
		out.Layering = true
		score += 35
	}

	bidVol := book.BidVolume()
	askVol := book.AskVolume()
	out.Imbalance = stats.Ratio(math.Abs(bidVol-askVol), bidVol+askVol)
	if out.Imbalance > s.cfg.Depth.ImbalanceLimit {
		out.ImbalanceAbnormal = true
		score += 30
		out.Evidence = append(out.Evidence, fmt.Sprintf("bid/ask imbalance %.2f above %.2f", out.Imbalance, s.cfg.Depth.ImbalanceLimit))
	}

	out.ManipulationScore = stats.Clamp100(score)
	return out, nil
}

// hasFakeWalls flags resting orders bigger than the configured multiple of the
// mean size at comparable levels that have not been traded through.
func (s *OrderBookManipulationScorer) hasFakeWalls(book *models.OrderBookSnapshot, out *models.DepthAnalysis) bool {
	sides := [][]models.BookLevel{book.Bids, book.Asks}
	names := []string{"bid", "ask"}
	found := false
	for i, side := range sides {
		if len(side) < 3 {
			continue
		}
		mean := meanLevelSize(side)
		if mean == 0 {
			continue
		}
		for _, l := range side {
			if l.Quantity > s.cfg.Depth.WallMultiple*mean {
				found = true
				out.Evidence = append(out.Evidence, fmt.Sprintf("%s wall %.4f x%.1f mean size at %.4f", names[i], l.Quantity, l.Quantity/mean, l.Price))
			}
		}
	}
	return found
}

// hasLayering flags suspiciously uniform order sizes combined with resting
// depth far exceeding recently traded volume.
func (s *OrderBookManipulationScorer) hasLayering(book *models.OrderBookSnapshot, trades []models.Trade, out *models.DepthAnalysis) bool {
	sizes := make([]float64, 0, len(book.Bids)+len(book.Asks))
	for _, l := range book.Bids {
		sizes = append(sizes, l.Quantity)
	}
	for _, l := range book.Asks {
		sizes = append(sizes, l.Quantity)
	}
	if len(sizes) < 4 {
		return false
	}
	cv := stats.CV(sizes)
	if cv >= s.cfg.Depth.LayeringCV {
		return false
	}

	var tradedVol float64
	for _, t := range trades {
		tradedVol += t.Quantity
	}
	depth := book.BidVolume() + book.AskVolume()
	ratio := stats.Ratio(depth, tradedVol)
	if ratio <= s.cfg.Depth.DepthTradeRatio {
		return false
	}
	out.Evidence = append(out.Evidence, fmt.Sprintf("uniform order sizes (cv %.3f) with depth %.1fx traded volume", cv, ratio))
	return true
}

func meanLevelSize(levels []models.BookLevel) float64 {
	if len(levels) == 0 {
		return 0
	}
	var sum float64
	for _, l := range levels {
		sum += l.Quantity
	}
	return sum / float64(len(levels))
}

var _ domsvc.DepthScorer = (*OrderBookManipulationScorer)(nil)
