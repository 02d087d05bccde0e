package logic

import "testing"

// recorder is an Observer that keeps every event.
type recorder struct {
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// expectFault runs fn and fails the test unless it panics with a Fault of kind.
func expectFault(t *testing.T, kind FaultKind, fn func()) Fault {
	t.Helper()
	var got Fault
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatalf("expected %s fault, got none", kind)
			}
			f, ok := r.(Fault)
			if !ok {
				t.Fatalf("expected Fault, got %T: %v", r, r)
			}
			got = f
		}()
		fn()
	}()
	if got.Kind != kind {
		t.Errorf("expected %s fault, got %s (%v)", kind, got.Kind, got)
	}
	return got
}
