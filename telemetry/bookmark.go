package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstDelivery  BookmarkType = "first_delivery"
	BookmarkDeliverySurge  BookmarkType = "delivery_surge"
	BookmarkFoodDepleted   BookmarkType = "food_depleted"
	BookmarkTrailCollapse  BookmarkType = "trail_collapse"
	BookmarkSteadyForaging BookmarkType = "steady_foraging"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Epoch       int          `json:"epoch"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"epoch", b.Epoch,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	delivered         bool    // a drop has been seen
	recentTrailPeak   float64 // peak food trail mass since the last collapse
	steadyWindowCount int     // consecutive windows with a steady delivery rate
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady foraging detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkFirstDelivery(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Delivery surge: rate > 2x rolling average
		if b := bd.checkDeliverySurge(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Food depleted: every source drained
		if b := bd.checkFoodDepleted(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Trail collapse: food trail lost >50% from recent peak
		if b := bd.checkTrailCollapse(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Steady foraging: positive delivery rate with low variance over 5 windows
		if b := bd.checkSteadyForaging(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)

	if stats.FoodTrailMass > bd.recentTrailPeak {
		bd.recentTrailPeak = stats.FoodTrailMass
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkFirstDelivery(stats WindowStats) *Bookmark {
	if bd.delivered || stats.Drops == 0 {
		return nil
	}
	bd.delivered = true
	return &Bookmark{
		Type:        BookmarkFirstDelivery,
		Epoch:       stats.WindowEndEpoch,
		Description: fmt.Sprintf("First %d drops delivered %.1f food", stats.Drops, stats.Delivered),
	}
}

func (bd *BookmarkDetector) checkDeliverySurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.DeliveryRate
	}
	avgRate := total / float64(len(history))
	if avgRate == 0 {
		return nil
	}

	if stats.DeliveryRate > avgRate*2.0 && stats.Drops >= 3 {
		return &Bookmark{
			Type:        BookmarkDeliverySurge,
			Epoch:       stats.WindowEndEpoch,
			Description: fmt.Sprintf("Delivery rate %.2f is %.1fx average (%.2f)", stats.DeliveryRate, stats.DeliveryRate/avgRate, avgRate),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkFoodDepleted(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	prev := history[(bd.historyIdx+len(history)-1)%len(history)]
	if prev.FoodRemaining > 0 && stats.FoodRemaining == 0 && stats.FoodSources > 0 {
		return &Bookmark{
			Type:        BookmarkFoodDepleted,
			Epoch:       stats.WindowEndEpoch,
			Description: fmt.Sprintf("All %d food sources drained, %.1f delivered in total", stats.FoodSources, stats.DeliveredTotal),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkTrailCollapse(stats WindowStats) *Bookmark {
	if bd.recentTrailPeak == 0 {
		return nil
	}

	dropPercent := 1.0 - stats.FoodTrailMass/bd.recentTrailPeak
	if dropPercent > 0.50 {
		// Reset peak after collapse
		oldPeak := bd.recentTrailPeak
		bd.recentTrailPeak = stats.FoodTrailMass

		return &Bookmark{
			Type:        BookmarkTrailCollapse,
			Epoch:       stats.WindowEndEpoch,
			Description: fmt.Sprintf("Food trail fell %.0f%% from peak %.1f to %.1f", dropPercent*100, oldPeak, stats.FoodTrailMass),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSteadyForaging(stats WindowStats) *Bookmark {
	if stats.DeliveryRate <= 0 {
		bd.steadyWindowCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	// Variance over the latest four windows plus this one
	recent := make([]float64, 0, 5)
	for i := 1; i <= 4; i++ {
		recent = append(recent, history[(bd.historyIdx+len(history)-i)%len(history)].DeliveryRate)
	}
	recent = append(recent, stats.DeliveryRate)

	var sum float64
	for _, r := range recent {
		sum += r
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, r := range recent {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	if mean > 0 && variance/(mean*mean) < 0.04 { // CV^2 < 0.04 means CV < 0.2
		bd.steadyWindowCount++
	} else {
		bd.steadyWindowCount = 0
	}

	if bd.steadyWindowCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSteadyForaging,
			Epoch:       stats.WindowEndEpoch,
			Description: fmt.Sprintf("Steady delivery of %.2f per epoch over 5+ windows", mean),
		}
	}

	return nil
}
