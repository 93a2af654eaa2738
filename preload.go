package gridgo

// PreloadPolicy selects how aggressively blocks around the visible
// center are fetched speculatively.
type PreloadPolicy uint8

const (
	// Conservative preloads one block ahead and none behind.
	Conservative PreloadPolicy = iota
	// Balanced preloads two blocks ahead and one behind.
	Balanced
	// Aggressive preloads five blocks ahead and two behind.
	Aggressive
)

// String implements fmt.Stringer.
func (p PreloadPolicy) String() string {
	switch p {
	case Conservative:
		return "conservative"
	case Balanced:
		return "balanced"
	case Aggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// base returns the policy's (ahead, behind) block counts.
func (p PreloadPolicy) base() (ahead, behind int) {
	switch p {
	case Conservative:
		return 1, 0
	case Aggressive:
		return 5, 2
	default:
		return 2, 1
	}
}

// Scroll-speed thresholds, in rows per second. Above fastScrollSpeed the
// effective preload counts are halved so speculative reads are not wasted
// on fast flicks; below slowScrollSpeed (and above zero) the policy base
// is restored.
const (
	fastScrollSpeed = 5000.0
	slowScrollSpeed = 500.0
)

// planner tracks the effective preload block counts for the active
// policy, adapted by the most recent scroll-speed sample.
type planner struct {
	policy PreloadPolicy
	ahead  int
	behind int
}

func newPlanner(policy PreloadPolicy) *planner {
	p := &planner{policy: policy}
	p.reset()
	return p
}

// reset restores the policy's base counts.
func (p *planner) reset() {
	p.ahead, p.behind = p.policy.base()
}

// setPolicy switches policies and restores that policy's base counts.
func (p *planner) setPolicy(policy PreloadPolicy) {
	p.policy = policy
	p.reset()
}

// observeSpeed adapts the effective counts to a scroll-speed sample.
// Repeated fast samples keep halving down to the (1, 0) floor.
func (p *planner) observeSpeed(rowsPerSecond float64) {
	switch {
	case rowsPerSecond > fastScrollSpeed:
		p.ahead = max(1, p.ahead/2)
		p.behind = max(0, p.behind/2)
	case rowsPerSecond > 0 && rowsPerSecond < slowScrollSpeed:
		p.reset()
	}
}

// rangeAround returns the preload block-index range around centerBlock,
// clamped to [0, totalBlocks-1]. ok is false when there are no blocks.
func (p *planner) rangeAround(centerBlock, totalBlocks int) (startBlock, endBlock int, ok bool) {
	if totalBlocks <= 0 {
		return 0, 0, false
	}
	startBlock = max(0, centerBlock-p.behind)
	endBlock = min(totalBlocks-1, centerBlock+p.ahead)
	return startBlock, endBlock, startBlock <= endBlock
}
