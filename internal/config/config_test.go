package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLayouts(t *testing.T) {
	got := Layouts()
	if len(got) != 2 || got[0] != "intersection" || got[1] != "sections" {
		t.Errorf("unexpected layouts: %v", got)
	}
}

func TestDefaultIntersection(t *testing.T) {
	cfg, err := Default("intersection")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Intersection == nil {
		t.Fatal("expected an intersection")
	}
	if len(cfg.Stoppers) != 3 {
		t.Errorf("expected 3 stoppers, got %d", len(cfg.Stoppers))
	}
	if len(cfg.Sections) != 0 {
		t.Errorf("expected no sections, got %d", len(cfg.Sections))
	}
	sv := cfg.Intersection.Left.Servo
	if sv.Right != 30 || sv.Left != 90 {
		t.Errorf("left servo angles: got right=%d left=%d", sv.Right, sv.Left)
	}
	if sv.Pulse == nil || *sv.Pulse != 17 {
		t.Errorf("left servo pulse: got %v", sv.Pulse)
	}
	if cfg.ServoBus.Address != 64 {
		t.Errorf("servo bus address: got %d", cfg.ServoBus.Address)
	}
}

func TestDefaultSections(t *testing.T) {
	cfg, err := Default("sections")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Sections) != 7 || len(cfg.Sensors) != 7 || len(cfg.Stoppers) != 7 {
		t.Fatalf("expected 7/7/7, got sections=%d sensors=%d stoppers=%d",
			len(cfg.Sections), len(cfg.Sensors), len(cfg.Stoppers))
	}
	s1 := cfg.Sections[0]
	if s1.Entry[0] != 3 || s1.Entry[1] != 2 || s1.Exit[0] != 5 || s1.Exit[1] != 6 {
		t.Errorf("section 1 wiring: %+v", s1)
	}
	if cfg.Intersection != nil {
		t.Error("expected no intersection")
	}
}

func TestDefaultUnknown(t *testing.T) {
	_, err := Default("roundabout")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "intersection, sections") {
		t.Errorf("error should list layouts: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.yaml")
	data := `
layout: single
led: 4
stoppers:
  - {id: 1, line: 5}
sensors:
  - {id: 1, line: 17}
  - {id: 2, line: 27}
sections:
  - {id: 1, stoppers: [1], entry: [1], exit: [2]}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Layout != "single" || len(cfg.Sections) != 1 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("layout: x\nled: 1\nwheels: 4\n"))
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestValidateReportsEverything(t *testing.T) {
	data := `
layout: broken
led: 5
stoppers:
  - {id: 1, line: 5}
  - {id: 1, line: 6}
sensors:
  - {id: 1, line: 17}
sections:
  - {id: 1, stoppers: [1, 2, 3], entry: [1, 9], exit: [1, 1, 1]}
`
	_, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"stopper 1: line 5 already used by led",
		"stopper 1: duplicate id",
		"section 1: 3 stoppers, at most 2",
		"section 1: 3 exit sensors, at most 2",
		"section 1: unknown stopper 2",
		"section 1: unknown entry sensor 9",
		"sensor 1: exit of 3 sections, at most 2",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestValidateSensorOwnerLimit(t *testing.T) {
	cfg := &Config{
		LED:      1,
		Stoppers: []Stopper{{ID: 1, Line: 2}},
		Sensors:  []Sensor{{ID: 1, Line: 3}},
		Sections: []Section{
			{ID: 1, Entry: []uint8{1}},
			{ID: 2, Entry: []uint8{1}},
			{ID: 3, Entry: []uint8{1}},
		},
	}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "sensor 1: entry of 3 sections") {
		t.Errorf("expected owner limit error, got %v", err)
	}
}

func TestValidateIntersection(t *testing.T) {
	cfg, err := Default("intersection")
	if err != nil {
		t.Fatal(err)
	}

	cfg.Intersection.Upper.Servo.Left = 200
	cfg.Intersection.Right.Stopper = 9
	cfg.Intersection.Right.Light.Red = cfg.Intersection.Left.Light.Red
	cfg.Intersection.Upper.Servo.Channel = 0

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"upper arm: servo angle must be between 0 and 180",
		"right arm: unknown stopper 9",
		"right arm red lamp: line 19 already used by left arm red lamp",
		"upper arm: duplicate servo channel 0",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestValidateServoNeedsPulseOrBus(t *testing.T) {
	cfg, err := Default("intersection")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Intersection.Left.Servo.Pulse = nil
	if err := cfg.Validate(); err != nil {
		t.Errorf("bus address alone should be enough: %v", err)
	}

	cfg.ServoBus.Address = 0
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "left arm: servo needs a pulse line") {
		t.Errorf("expected servo error, got %v", err)
	}
}

func TestValidateEmptyLayout(t *testing.T) {
	cfg := &Config{LED: 1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty layout")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg, err := Default("sections")
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), "layout: sections") {
		t.Errorf("unexpected yaml:\n%s", data)
	}

	back, err := Parse(data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(back.Sections) != 7 || back.Sections[6].Exit[1] != 1 {
		t.Errorf("unexpected re-parsed config: %+v", back.Sections)
	}
}
