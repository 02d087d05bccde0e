package logic

import "fmt"

// FaultKind classifies a fatal failure.
type FaultKind string

const (
	// FaultConfig is a wiring mistake caught during setup.
	FaultConfig FaultKind = "config"
	// FaultIO is a failed pin or bus access.
	FaultIO FaultKind = "io"
	// FaultReentry is a mutation of an entity that is already being mutated.
	FaultReentry FaultKind = "reentry"
)

// Fault is the value the core panics with. There is no recoverable error
// path for actuators or wiring: the caller is expected to halt.
type Fault struct {
	Kind FaultKind
	Op   string
	Err  error
}

func (f Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s fault: %s: %v", f.Kind, f.Op, f.Err)
	}
	return fmt.Sprintf("%s fault: %s", f.Kind, f.Op)
}

func (f Fault) Unwrap() error { return f.Err }

func configFault(format string, args ...any) {
	panic(Fault{Kind: FaultConfig, Op: fmt.Sprintf(format, args...)})
}

func ioFault(op string, err error) {
	panic(Fault{Kind: FaultIO, Op: op, Err: err})
}

// guard is a runtime exclusive-borrow flag. Entering twice panics rather
// than blocking.
type guard struct {
	busy bool
}

func (g *guard) enter(op string) func() {
	if g.busy {
		panic(Fault{Kind: FaultReentry, Op: op})
	}
	g.busy = true
	return g.exit
}

func (g *guard) exit() {
	g.busy = false
}
