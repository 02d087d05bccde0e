package logic

// Phase durations in intersection ticks.
const (
	LongPhase  uint32 = 18
	ShortPhase uint32 = 2
)

// PhaseCount is the length of the phase cycle.
const PhaseCount = 8

// Phase is one step of the light cycle.
type Phase struct {
	Left     Action
	Right    Action
	Upper    Action
	Duration uint32
}

// Phases is a full cyclic phase table.
type Phases [PhaseCount]Phase

// DefaultPhases hands right of way around the three arms: each long phase
// is followed by a short yellow / red-yellow handoff.
var DefaultPhases = Phases{
	{Left: GreenTo(Right), Right: GreenTo(Right), Upper: GreenTo(Right), Duration: LongPhase},
	{Left: GreenTo(Right), Right: ActionYellow, Upper: GreenTo(Right), Duration: ShortPhase},

	{Left: GreenTo(Left), Right: ActionRed, Upper: GreenTo(Right), Duration: LongPhase},
	{Left: GreenTo(Left), Right: ActionRedYellow, Upper: ActionYellow, Duration: ShortPhase},

	{Left: GreenTo(Right), Right: GreenTo(Left), Upper: ActionRed, Duration: LongPhase},
	{Left: ActionYellow, Right: GreenTo(Left), Upper: ActionRedYellow, Duration: ShortPhase},

	{Left: ActionRed, Right: GreenTo(Right), Upper: GreenTo(Left), Duration: LongPhase},
	{Left: ActionRedYellow, Right: GreenTo(Right), Upper: GreenTo(Left), Duration: ShortPhase},
}

// CycleLength returns the number of ticks in one full cycle.
func (p *Phases) CycleLength() uint32 {
	var total uint32
	for _, ph := range p {
		total += ph.Duration
	}
	return total
}
