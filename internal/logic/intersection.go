package logic

// Arm is one approach to the intersection.
type Arm struct {
	Stopper *Stopper
	Light   *Light
	Servo   *Servo
}

// Arms holds the three approaches.
type Arms struct {
	Left  Arm
	Right Arm
	Upper Arm
}

// Intersection steps through a fixed cyclic phase table, one Tick at a time.
type Intersection struct {
	arms    Arms
	phases  Phases
	cursor  int
	counter uint32
	net     *Network
	guard   guard
}

// NewIntersection wires the arms and immediately executes the first
// transition, so the intersection starts in phase 0. net is only used for
// diagnostics and may be nil.
func NewIntersection(net *Network, arms Arms, phases Phases) *Intersection {
	named := [3]struct {
		name string
		arm  Arm
	}{{"left", arms.Left}, {"right", arms.Right}, {"upper", arms.Upper}}
	for _, n := range named {
		if n.arm.Stopper == nil || n.arm.Light == nil || n.arm.Servo == nil {
			configFault("intersection: %s arm incomplete", n.name)
		}
	}
	for i, ph := range phases {
		if ph.Duration == 0 {
			configFault("intersection: phase %d has zero duration", i)
		}
	}

	in := &Intersection{
		arms:   arms,
		phases: phases,
		cursor: PhaseCount - 1,
		net:    net,
	}
	in.execute(in.Advance())
	return in
}

// Tick counts one scheduler tick and moves to the next phase once the
// current one has run its duration.
func (in *Intersection) Tick() {
	defer in.guard.enter("intersection tick")()
	in.counter++
	if in.counter >= in.phases[in.cursor].Duration {
		in.counter = 0
		in.execute(in.Advance())
	}
}

// Advance moves the cursor to the next phase and returns it. It does not
// apply the phase.
func (in *Intersection) Advance() Phase {
	in.cursor = (in.cursor + 1) % PhaseCount
	return in.phases[in.cursor]
}

// Current returns the active phase.
func (in *Intersection) Current() Phase { return in.phases[in.cursor] }

// PhaseIndex returns the cursor position.
func (in *Intersection) PhaseIndex() int { return in.cursor }

// Elapsed returns the ticks spent in the current phase.
func (in *Intersection) Elapsed() uint32 { return in.counter }

// Arms returns the wired arms.
func (in *Intersection) Arms() Arms { return in.arms }

func (in *Intersection) execute(ph Phase) {
	steps := [3]struct {
		arm    Arm
		action Action
	}{
		{in.arms.Left, ph.Left},
		{in.arms.Right, ph.Right},
		{in.arms.Upper, ph.Upper},
	}

	for _, s := range steps {
		switch s.action.Signal {
		case Green:
			s.arm.Stopper.IntersectionRelease()
		case Yellow:
			s.arm.Stopper.IntersectionLock()
		}
	}

	for _, s := range steps {
		s.arm.Light.SetState(s.action)
	}

	for _, s := range steps {
		if s.action.Signal == Green {
			s.arm.Servo.SetDirection(s.action.Direction)
		}
	}

	in.net.notify(Event{Kind: EventPhaseChanged, Source: uint8(in.cursor), Value: int(ph.Duration)})
}
