package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/intersection-control/internal/clock"
	"github.com/sweeney/intersection-control/internal/gpio"
	"github.com/sweeney/intersection-control/internal/logic"
	"github.com/sweeney/intersection-control/internal/mqtt"
)

func testOptions() options {
	return options{
		layout:         "intersection",
		tick:           100 * time.Microsecond,
		servoInterval:  4 * time.Microsecond,
		sensorInterval: 5 * time.Millisecond,
		phaseInterval:  time.Second,
		ledInterval:    time.Second,
	}
}

type harness struct {
	c     *controller
	lines *gpio.FakeLines
	clk   *clock.Fake
	pub   *mqtt.FakePublisher
}

func newHarness(t *testing.T, layout string, o options, withBroker bool) *harness {
	t.Helper()
	cfg, err := loadConfig("", layout)
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}

	h := &harness{lines: gpio.NewFakeLines(), clk: clock.NewFake(0)}
	var pub mqtt.Publisher
	if withBroker {
		h.pub = mqtt.NewFakePublisher()
		h.pub.Connected = true
		pub = h.pub
	}

	h.c, err = newController(cfg, h.lines, nil, pub, h.clk, o)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return h
}

// advance steps the fake clock by step until total has passed, running one
// scheduler pass per step.
func (h *harness) advance(t *testing.T, total, step time.Duration) {
	t.Helper()
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		h.clk.Advance(uint64(step / time.Microsecond))
		if err := h.c.step(); err != nil {
			t.Fatalf("unexpected fault: %v", err)
		}
	}
}

func TestSignalName(t *testing.T) {
	tests := []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := signalName(tt.sig); got != tt.want {
			t.Errorf("signalName(%v): got %s, want %s", tt.sig, got, tt.want)
		}
	}
}

func TestOptionsValidate(t *testing.T) {
	o := testOptions()
	if err := o.validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	o.heartbeat = 2 * time.Hour
	o.sensorInterval = -time.Millisecond
	err := o.validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "heartbeat") || !strings.Contains(err.Error(), "sensor-interval") {
		t.Errorf("expected both bad intervals reported, got %v", err)
	}

	o = testOptions()
	o.tick = 0
	if err := o.validate(); err == nil {
		t.Error("expected error for zero tick")
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("", "sections")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Layout != "sections" {
		t.Errorf("got layout %q", cfg.Layout)
	}

	if _, err := loadConfig("", "nope"); err == nil {
		t.Error("expected error for unknown layout")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("layout: bad\nled: 1\n"), 0o644)
	if _, err := loadConfig(path, "intersection"); err == nil {
		t.Error("expected error for empty layout file")
	}
}

func TestControllerTasks(t *testing.T) {
	o := testOptions()
	o.heartbeat = time.Minute

	h := newHarness(t, "intersection", o, true)
	got := strings.Join(h.c.sched.Tasks(), ",")
	if got != "servos,sensors,led,intersection,heartbeat" {
		t.Errorf("unexpected task order: %s", got)
	}

	h = newHarness(t, "sections", o, false)
	got = strings.Join(h.c.sched.Tasks(), ",")
	if got != "sensors,led" {
		t.Errorf("unexpected task order without servos, intersection or broker: %s", got)
	}
}

func TestControllerPhaseCycle(t *testing.T) {
	h := newHarness(t, "intersection", testOptions(), false)
	in := h.c.track.Intersection

	if in.PhaseIndex() != 0 {
		t.Fatalf("expected phase 0 at start, got %d", in.PhaseIndex())
	}

	// 18 intersection ticks, each just over 1s apart
	h.advance(t, 18500*time.Millisecond, time.Millisecond)
	if in.PhaseIndex() != 1 {
		t.Errorf("expected phase 1 after ~18s, got %d", in.PhaseIndex())
	}

	// right arm went yellow: its stopper is overridden
	if !in.Arms().Right.Stopper.Blocking() {
		t.Error("right stopper should block on yellow")
	}
	if in.Arms().Left.Stopper.Blocking() {
		t.Error("left stopper should stay clear on green")
	}
}

func TestControllerServoPulses(t *testing.T) {
	h := newHarness(t, "intersection", testOptions(), false)

	h.advance(t, 100*time.Millisecond, 100*time.Microsecond)

	// left servo pulse on line 17: 5 frames of high then low
	writes := h.lines.Outputs[17].Writes
	if len(writes) < 8 {
		t.Fatalf("expected pulses on the servo line, got %v", writes)
	}
	for i := 1; i < len(writes); i++ {
		if writes[i] == writes[i-1] {
			t.Fatalf("pulse writes should alternate, got %v", writes)
		}
	}
}

func TestControllerSensorLocksSections(t *testing.T) {
	h := newHarness(t, "sections", testOptions(), true)

	// sensor 3 on line 22 enters sections 1 and 2
	h.lines.Inputs[22].Set(logic.SensorActiveLevel)
	h.advance(t, 6*time.Millisecond, time.Millisecond)

	for _, st := range h.c.track.Network.Stoppers() {
		want := st.ID() == 1 || st.ID() == 2
		if st.Blocking() != want {
			t.Errorf("stopper %d: blocking=%v, want %v", st.ID(), st.Blocking(), want)
		}
	}

	// still active: no retrigger inside the refractory window
	h.advance(t, 500*time.Millisecond, time.Millisecond)
	if got := h.c.track.Network.Sections()[0].Locks(); got != 1 {
		t.Errorf("expected section 1 locked once, got %d", got)
	}

	h.c.sink.Flush()
	kinds := map[logic.EventKind]int{}
	for _, e := range h.pub.Events {
		kinds[e.Kind]++
	}
	if kinds[logic.EventSensorTriggered] != 1 {
		t.Errorf("expected 1 trigger, got %d", kinds[logic.EventSensorTriggered])
	}
	if kinds[logic.EventSectionEntry] != 2 || kinds[logic.EventSectionExit] != 2 {
		t.Errorf("expected 2 entries and 2 exits, got %+v", kinds)
	}
	if kinds[logic.EventStopperBlocked] != 2 {
		t.Errorf("expected 2 stoppers blocked, got %d", kinds[logic.EventStopperBlocked])
	}

	snap := h.c.tracker.Snapshot()
	if snap.Counts[logic.EventSensorTriggered] != 1 {
		t.Errorf("tracker should count the trigger, got %+v", snap.Counts)
	}
}

func TestControllerLEDToggles(t *testing.T) {
	h := newHarness(t, "sections", testOptions(), false)

	h.advance(t, 3100*time.Millisecond, 10*time.Millisecond)

	writes := h.lines.Outputs[26].Writes
	if len(writes) != 3 {
		t.Fatalf("expected 3 LED writes in ~3s, got %v", writes)
	}
	if !writes[0] || writes[1] || !writes[2] {
		t.Errorf("LED should toggle on/off/on, got %v", writes)
	}
}

func TestControllerStartupAndShutdown(t *testing.T) {
	h := newHarness(t, "intersection", testOptions(), true)

	h.c.startup()
	h.c.shutdown("SIGTERM")

	if len(h.pub.SystemEvents) != 2 {
		t.Fatalf("expected 2 system events, got %d", len(h.pub.SystemEvents))
	}
	start, stop := h.pub.SystemEvents[0], h.pub.SystemEvents[1]
	if start.Event != "STARTUP" || !start.Retained {
		t.Errorf("unexpected startup event: %+v", start)
	}
	if stop.Event != "SHUTDOWN" || stop.Reason != "SIGTERM" || !stop.Retained {
		t.Errorf("unexpected shutdown event: %+v", stop)
	}
	if !strings.Contains(string(h.pub.SystemPayloads[1]), `"reason":"SIGTERM"`) {
		t.Errorf("shutdown payload should carry the reason: %s", h.pub.SystemPayloads[1])
	}
	if !strings.Contains(string(h.pub.SystemPayloads[0]), `"connected":true`) {
		t.Errorf("startup payload should report the broker connection: %s", h.pub.SystemPayloads[0])
	}
	// the first phase change happened during construction
	if len(h.pub.Events) != 1 || h.pub.Events[0].Kind != logic.EventPhaseChanged {
		t.Errorf("expected the initial PHASE_CHANGED, got %+v", h.pub.Events)
	}
}

func TestControllerHeartbeat(t *testing.T) {
	o := testOptions()
	o.heartbeat = 2 * time.Second
	h := newHarness(t, "sections", o, true)

	h.advance(t, 4500*time.Millisecond, 10*time.Millisecond)
	h.c.sink.Flush()

	beats := 0
	for _, e := range h.pub.SystemEvents {
		if e.Event == "HEARTBEAT" {
			beats++
			if e.Retained {
				t.Error("heartbeat should not be retained")
			}
		}
	}
	if beats != 2 {
		t.Errorf("expected 2 heartbeats, got %d", beats)
	}
}

func TestControllerWithoutBroker(t *testing.T) {
	h := newHarness(t, "sections", testOptions(), false)
	if h.c.sink != nil {
		t.Fatal("expected no sink without a broker")
	}
	h.c.startup()
	h.c.shutdown("SIGINT")
	h.advance(t, 10*time.Millisecond, time.Millisecond)
}

func TestControllerFaultHalts(t *testing.T) {
	h := newHarness(t, "sections", testOptions(), true)
	h.lines.Outputs[5].WriteError = errors.New("line gone")

	h.lines.Inputs[22].Set(logic.SensorActiveLevel)
	h.clk.Advance(6000)
	fault := h.c.step()
	if fault == nil {
		t.Fatal("expected a fault")
	}
	var f logic.Fault
	if !errors.As(fault, &f) || f.Kind != logic.FaultIO {
		t.Fatalf("expected io fault, got %v", fault)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.c.halt(ctx, fault)

	last := h.pub.SystemEvents[len(h.pub.SystemEvents)-1]
	if last.Event != "FAULT" || last.Reason != "io" || !last.Retained {
		t.Errorf("unexpected fault event: %+v", last)
	}
	if !strings.Contains(string(h.pub.SystemPayloads[len(h.pub.SystemPayloads)-1]), "write stopper pin") {
		t.Error("fault payload should describe the fault")
	}
	if h.c.tracker.Snapshot().Fault == "" {
		t.Error("tracker should record the fault")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	o := testOptions()
	cfg, err := loadConfig("", "intersection")
	if err != nil {
		t.Fatal(err)
	}
	clk := clock.New(clock.Config{Increment: 100})
	c, err := newController(cfg, gpio.NewFakeLines(), nil, nil, clk, o)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected fault: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestCatchRepanicsOtherValues(t *testing.T) {
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("expected the original panic, got %v", r)
		}
	}()
	catch(func() { panic("boom") })
	t.Error("catch should not swallow non-fault panics")
}
