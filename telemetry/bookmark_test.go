package telemetry

import (
	"testing"

	"github.com/pthm-cable/antsim/config"
)

func init() {
	config.MustInit("")
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstDelivery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{WindowEndEpoch: 100}); hasBookmark(got, BookmarkFirstDelivery) {
		t.Error("first_delivery triggered without drops")
	}

	got := bd.Check(WindowStats{WindowEndEpoch: 200, Drops: 2, Delivered: 40})
	if !hasBookmark(got, BookmarkFirstDelivery) {
		t.Error("expected first_delivery bookmark")
	}

	// Only once
	got = bd.Check(WindowStats{WindowEndEpoch: 300, Drops: 5, Delivered: 100})
	if hasBookmark(got, BookmarkFirstDelivery) {
		t.Error("first_delivery triggered twice")
	}
}

func TestBookmarkDetector_DeliverySurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// Add some history with a low delivery rate
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndEpoch: i * 100,
			Drops:          2,
			DeliveryRate:   0.4,
		})
	}

	// Now add a window with a high rate (>2x average)
	bookmarks := bd.Check(WindowStats{
		WindowEndEpoch: 500,
		Drops:          8,
		DeliveryRate:   1.6,
	})
	if !hasBookmark(bookmarks, BookmarkDeliverySurge) {
		t.Error("expected delivery_surge bookmark")
	}
}

func TestBookmarkDetector_FoodDepleted(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndEpoch: 100, FoodSources: 2, FoodRemaining: 30})
	bookmarks := bd.Check(WindowStats{WindowEndEpoch: 200, FoodSources: 2, FoodRemaining: 0})
	if !hasBookmark(bookmarks, BookmarkFoodDepleted) {
		t.Error("expected food_depleted bookmark")
	}

	// Already empty in the previous window
	bookmarks = bd.Check(WindowStats{WindowEndEpoch: 300, FoodSources: 2, FoodRemaining: 0})
	if hasBookmark(bookmarks, BookmarkFoodDepleted) {
		t.Error("food_depleted triggered for an already empty world")
	}
}

func TestBookmarkDetector_TrailCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndEpoch: i * 100, FoodTrailMass: 200})
	}

	bookmarks := bd.Check(WindowStats{WindowEndEpoch: 300, FoodTrailMass: 60})
	if !hasBookmark(bookmarks, BookmarkTrailCollapse) {
		t.Error("expected trail_collapse bookmark")
	}
}

func TestBookmarkDetector_SteadyForaging(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggered := 0
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndEpoch: i * 100,
			Drops:          10,
			DeliveryRate:   2.0,
		})
		if hasBookmark(bookmarks, BookmarkSteadyForaging) {
			triggered++
		}
	}
	if triggered != 1 {
		t.Errorf("steady_foraging triggered %d times, want 1", triggered)
	}
}
