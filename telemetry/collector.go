// Package telemetry provides foraging statistics, bookmarking, and snapshots.
package telemetry

// Collector accumulates foraging events within windows of epochs and
// produces WindowStats. A nil *Collector ignores every record call.
type Collector struct {
	windowEpochs     int
	windowStartEpoch int

	// Event counters for current window
	pickups     int
	drops       int
	pickedUp    float64
	delivered   float64
	relocations int

	// Delivered amount per colony ID for current window
	colonyDelivered map[uint32]float64
}

// NewCollector creates a new stats collector flushing every windowEpochs.
func NewCollector(windowEpochs int) *Collector {
	if windowEpochs < 1 {
		windowEpochs = 1
	}
	return &Collector{
		windowEpochs:    windowEpochs,
		colonyDelivered: make(map[uint32]float64),
	}
}

// RecordPickup records an ant loading food.
func (c *Collector) RecordPickup(amount float64) {
	if c == nil {
		return
	}
	c.pickups++
	c.pickedUp += amount
}

// RecordDrop records an ant delivering food to the colony with the given ID.
func (c *Collector) RecordDrop(colony uint32, amount float64) {
	if c == nil {
		return
	}
	c.drops++
	c.delivered += amount
	c.colonyDelivered[colony] += amount
}

// RecordRelocation records a food source moving and refilling.
func (c *Collector) RecordRelocation() {
	if c == nil {
		return
	}
	c.relocations++
}

// ForgetColony drops a removed colony's window deliveries so a recycled ID
// starts from zero.
func (c *Collector) ForgetColony(colony uint32) {
	if c == nil {
		return
	}
	delete(c.colonyDelivered, colony)
}

// Reset discards the current window and starts a new one at epoch.
func (c *Collector) Reset(epoch int) {
	if c == nil {
		return
	}
	c.windowStartEpoch = epoch
	c.pickups = 0
	c.drops = 0
	c.pickedUp = 0
	c.delivered = 0
	c.relocations = 0
	clear(c.colonyDelivered)
}

// ShouldFlush returns true if enough epochs have passed to flush the window.
func (c *Collector) ShouldFlush(epoch int) bool {
	if c == nil {
		return false
	}
	return epoch-c.windowStartEpoch >= c.windowEpochs
}

// WindowEpochs returns the number of epochs per window.
func (c *Collector) WindowEpochs() int {
	return c.windowEpochs
}

// ColonyCensus is one colony's state, sampled at flush time.
type ColonyCensus struct {
	ID              uint32
	Ants            int
	Returning       int
	Delivered       float64
	GridRows        int
	GridCols        int
	ColonyTrailMass float64
	FoodTrailMass   float64
	TrailCoverage   int
}

// Census is the world state sampled at flush time.
type Census struct {
	Colonies      []ColonyCensus
	FoodSources   int
	FoodRemaining float64
	FoodCarried   float64
	FoodInjected  float64
	Loads         []float64 // carried amount of each returning ant
}

// Flush produces the window's stats and resets counters for the next window.
func (c *Collector) Flush(epoch int, census Census) (WindowStats, []ColonyStats) {
	stats := WindowStats{
		WindowStartEpoch: c.windowStartEpoch,
		WindowEndEpoch:   epoch,
		Colonies:         len(census.Colonies),

		Pickups:     c.pickups,
		Drops:       c.drops,
		PickedUp:    c.pickedUp,
		Delivered:   c.delivered,
		Relocations: c.relocations,

		FoodSources:   census.FoodSources,
		FoodRemaining: census.FoodRemaining,
		FoodCarried:   census.FoodCarried,
		FoodInjected:  census.FoodInjected,
	}

	if span := epoch - c.windowStartEpoch; span > 0 {
		stats.DeliveryRate = c.delivered / float64(span)
	}

	colonies := make([]ColonyStats, len(census.Colonies))
	for i, cc := range census.Colonies {
		stats.Ants += cc.Ants
		stats.Returning += cc.Returning
		stats.DeliveredTotal += cc.Delivered
		stats.ColonyTrailMass += cc.ColonyTrailMass
		stats.FoodTrailMass += cc.FoodTrailMass
		stats.TrailCoverage += cc.TrailCoverage

		colonies[i] = ColonyStats{
			WindowEndEpoch:  epoch,
			Colony:          cc.ID,
			Ants:            cc.Ants,
			Returning:       cc.Returning,
			Delivered:       cc.Delivered,
			WindowDelivered: c.colonyDelivered[cc.ID],
			GridRows:        cc.GridRows,
			GridCols:        cc.GridCols,
			ColonyTrailMass: cc.ColonyTrailMass,
			FoodTrailMass:   cc.FoodTrailMass,
			TrailCoverage:   cc.TrailCoverage,
		}
	}
	stats.Seeking = stats.Ants - stats.Returning
	stats.LoadMean, stats.LoadStd, stats.LoadP50, stats.LoadP90 = ComputeLoadStats(census.Loads)

	c.Reset(epoch)
	return stats, colonies
}
