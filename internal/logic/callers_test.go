package logic

import (
	"testing"

	"github.com/sweeney/intersection-control/internal/bus"
	"github.com/sweeney/intersection-control/internal/clock"
	"github.com/sweeney/intersection-control/internal/gpio"
)

func TestServoCallerFrames(t *testing.T) {
	outA := gpio.NewFakeOutput()
	outB := gpio.NewFakeOutput()
	a := NewServo(nil, ServoConfig{ID: 1, Pulse: outA, RightAngle: 0})   // 1000us
	b := NewServo(nil, ServoConfig{ID: 2, Pulse: outB, RightAngle: 180}) // 2000us
	busOnly := NewServo(bus.NewFakeBus(), ServoConfig{ID: 3})

	c := NewServoCaller(a, b, busOnly)
	if c.Len() != 2 {
		t.Fatalf("expected 2 pulse servos, got %d", c.Len())
	}

	steps := []struct {
		now     clock.Ticks
		wantA   bool
		wantB   bool
		comment string
	}{
		{20000, true, true, "first frame starts both pulses"},
		{20500, true, true, "inside both pulses"},
		{21000, false, true, "A ends at 1000us"},
		{21500, false, true, "B still high"},
		{22000, false, false, "B ends at 2000us"},
		{30000, false, false, "idle rest of frame"},
		{40000, true, true, "next frame"},
	}

	for _, s := range steps {
		c.Call(s.now)
		if a.Pulsing() != s.wantA || b.Pulsing() != s.wantB {
			t.Errorf("t=%d (%s): expected (%v,%v), got (%v,%v)",
				s.now, s.comment, s.wantA, s.wantB, a.Pulsing(), b.Pulsing())
		}
	}

	// pulse edges are written once each: 2 frames start, 1 frame end
	if len(outA.Writes) != 3 || len(outB.Writes) != 3 {
		t.Errorf("expected 3 edges per servo, got A=%v B=%v", outA.Writes, outB.Writes)
	}
}

func TestServoCallerAcrossWraparound(t *testing.T) {
	out := gpio.NewFakeOutput()
	s := NewServo(nil, ServoConfig{Pulse: out, RightAngle: 90}) // 1500us
	c := NewServoCaller(s)

	start := clock.Ticks(0xFFFFFFFF - 10000)
	c.Call(start) // first call always opens a frame
	if !s.Pulsing() {
		t.Fatal("expected pulse after first frame")
	}
	c.Call(start + 1500) // no wrap yet
	if s.Pulsing() {
		t.Error("expected pulse ended at 1500us")
	}
	c.Call(start + 20000) // wraps
	if !s.Pulsing() {
		t.Error("expected new frame across wraparound")
	}
}
