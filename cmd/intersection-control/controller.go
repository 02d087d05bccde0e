package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"tinygo.org/x/drivers"

	"github.com/sweeney/intersection-control/internal/clock"
	"github.com/sweeney/intersection-control/internal/config"
	"github.com/sweeney/intersection-control/internal/gpio"
	"github.com/sweeney/intersection-control/internal/halt"
	"github.com/sweeney/intersection-control/internal/logic"
	"github.com/sweeney/intersection-control/internal/mqtt"
	"github.com/sweeney/intersection-control/internal/scheduler"
	"github.com/sweeney/intersection-control/internal/status"
	"github.com/sweeney/intersection-control/internal/topology"
)

// timeSource is the clock the control loop reads.
type timeSource interface {
	Micros() clock.Ticks
	Millis() clock.Ticks
}

// controller owns the wired track and everything around it.
type controller struct {
	track      *topology.Track
	clock      timeSource
	sched      *scheduler.Scheduler
	tracker    *status.Tracker
	sink       *mqtt.Sink            // nil without a broker
	mqttStatus mqtt.ConnectionStatus // nil without a broker
	now        func() time.Time
	led        bool
}

func newController(cfg *config.Config, lines gpio.Lines, i2c drivers.I2C, pub mqtt.Publisher, src timeSource, o options) (*controller, error) {
	c := &controller{
		clock: src,
		now:   time.Now,
		tracker: status.NewTracker(time.Now(), status.Config{
			Layout:          cfg.Layout,
			Broker:          o.broker,
			TickUs:          o.tick.Microseconds(),
			SensorMs:        o.sensorInterval.Milliseconds(),
			PhaseMs:         o.phaseInterval.Milliseconds(),
			HeartbeatMs:     o.heartbeat.Milliseconds(),
			ServoBusEnabled: i2c != nil,
		}),
	}
	if pub != nil {
		c.sink = mqtt.NewSink(pub, mqtt.DefaultSinkCapacity)
		if cs, ok := pub.(mqtt.ConnectionStatus); ok {
			c.mqttStatus = cs
		}
	}

	track, err := topology.Build(cfg, lines, i2c, logic.ObserverFunc(c.observe))
	if err != nil {
		return nil, fmt.Errorf("build track: %w", err)
	}
	c.track = track

	tasks := []scheduler.Task{
		{Name: "sensors", Interval: interval(o.sensorInterval), Run: c.pollSensors},
		{Name: "led", Interval: interval(o.ledInterval), Run: c.toggleLED},
	}
	if track.Servos.Len() > 0 {
		tasks = append(tasks, scheduler.Task{Name: "servos", Interval: interval(o.servoInterval), Run: c.pulseServos})
	}
	if track.Intersection != nil {
		tasks = append(tasks, scheduler.Task{Name: "intersection", Interval: interval(o.phaseInterval), Run: track.Intersection.Tick})
	}
	if c.sink != nil && o.heartbeat > 0 {
		tasks = append(tasks, scheduler.Task{Name: "heartbeat", Interval: interval(o.heartbeat), Run: c.heartbeat})
	}
	c.sched = scheduler.New(src, tasks...)
	c.tracker.Update(track.Network, track.Intersection)

	return c, nil
}

func interval(d time.Duration) clock.Ticks {
	return clock.Ticks(d / time.Microsecond)
}

// observe receives every diagnostic event from the core.
func (c *controller) observe(e logic.Event) {
	log.Printf("event: %s %s=%d value=%d", e.Kind, mqtt.Entity(e.Kind), e.Source, e.Value)
	c.tracker.Observe(e)
	if c.sink != nil {
		c.sink.Observe(e)
	}
}

func (c *controller) pollSensors() {
	c.track.Sensors.Call(c.clock.Millis())
}

func (c *controller) pulseServos() {
	c.track.Servos.Call(c.clock.Micros())
}

func (c *controller) toggleLED() {
	c.led = !c.led
	if err := c.track.LED.Write(c.led); err != nil {
		log.Printf("led write error: %v", err)
	}
	c.tracker.Update(c.track.Network, c.track.Intersection)
}

func (c *controller) heartbeat() {
	c.refresh()
	snap := c.tracker.Snapshot()
	log.Printf("heartbeat: uptime=%v phase=%d triggers=%d",
		snap.Uptime().Truncate(time.Second), snap.Phase, snap.Counts[logic.EventSensorTriggered])
	c.system("HEARTBEAT", "", false)
}

func (c *controller) refresh() {
	c.tracker.Update(c.track.Network, c.track.Intersection)
	if c.mqttStatus != nil {
		c.tracker.SetMQTTConnected(c.mqttStatus.IsConnected())
	}
}

// system queues a lifecycle event carrying a full status snapshot.
func (c *controller) system(event, reason string, retained bool) {
	if c.sink == nil {
		return
	}
	snap := c.tracker.Snapshot()
	c.sink.System(mqtt.SystemEvent{
		Timestamp:  c.now(),
		Event:      event,
		Reason:     reason,
		Retained:   retained,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	})
}

func (c *controller) startup() {
	c.refresh()
	c.system("STARTUP", "", true)
}

func (c *controller) shutdown(reason string) {
	c.refresh()
	c.system("SHUTDOWN", reason, true)
	if c.sink != nil {
		c.sink.Flush()
		log.Printf("published shutdown event")
	}
}

// step runs one scheduler pass and returns a core fault, if any.
func (c *controller) step() error {
	return catch(func() { c.sched.RunPending() })
}

// run drives the scheduler until ctx is done or the core faults.
func (c *controller) run(ctx context.Context) error {
	return catch(func() { c.sched.Run(ctx) })
}

// halt reports fault and blinks the status LED until ctx is done.
// The clock must already be disabled.
func (c *controller) halt(ctx context.Context, fault error) {
	log.Printf("fault: %v", fault)
	c.tracker.SetFault(fault)
	c.refresh()
	log.Printf("status at fault:\n%s", status.FormatJSON(c.tracker.Snapshot()))

	reason := ""
	if f, ok := fault.(logic.Fault); ok {
		reason = string(f.Kind)
	}
	c.system("FAULT", reason, true)
	if c.sink != nil {
		c.sink.Flush()
	}

	halt.Blink(ctx, c.track.LED, halt.BlinkPeriod)
}

// catch converts a core fault panic into an error. Anything else keeps
// panicking.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(logic.Fault)
			if !ok {
				panic(r)
			}
			err = f
		}
	}()
	fn()
	return nil
}
