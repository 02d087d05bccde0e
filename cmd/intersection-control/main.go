// Command intersection-control drives a model road intersection: stoppers,
// presence sensors, traffic lights and steering servos on GPIO, with
// optional diagnostics to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tinygo.org/x/drivers"

	"github.com/sweeney/intersection-control/internal/bus"
	"github.com/sweeney/intersection-control/internal/clock"
	"github.com/sweeney/intersection-control/internal/config"
	"github.com/sweeney/intersection-control/internal/gpio"
	"github.com/sweeney/intersection-control/internal/mqtt"
)

type options struct {
	configPath     string
	layout         string
	chip           string
	i2c            string
	broker         string
	tick           time.Duration
	servoInterval  time.Duration
	sensorInterval time.Duration
	phaseInterval  time.Duration
	ledInterval    time.Duration
	heartbeat      time.Duration
	printConfig    bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Layout file (empty uses the built-in -layout)")
	flag.StringVar(&o.layout, "layout", "intersection", "Built-in layout: intersection or sections")
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip")
	flag.StringVar(&o.i2c, "i2c", "", "I2C bus for the servo controller (empty to disable)")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address for diagnostics (empty to disable)")
	flag.DurationVar(&o.tick, "tick", clock.DefaultPeriod, "Clock tick period")
	flag.DurationVar(&o.servoInterval, "servo-interval", 4*time.Microsecond, "Servo pulse task interval")
	flag.DurationVar(&o.sensorInterval, "sensor-interval", 5*time.Millisecond, "Sensor polling interval")
	flag.DurationVar(&o.phaseInterval, "phase-interval", time.Second, "Intersection tick interval")
	flag.DurationVar(&o.ledInterval, "led-interval", time.Second, "Status LED toggle interval")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "MQTT heartbeat interval (0 to disable)")
	flag.BoolVar(&o.printConfig, "print-config", false, "Print the resolved layout and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	cfg, err := loadConfig(o.configPath, o.layout)
	if err != nil {
		return err
	}

	// Print config mode
	if o.printConfig {
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	if err := o.validate(); err != nil {
		return err
	}

	// Initialize GPIO
	chip, err := gpio.OpenChip(o.chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	// Initialize servo bus
	var i2c drivers.I2C
	if o.i2c != "" {
		b, err := bus.Open(o.i2c)
		if err != nil {
			return fmt.Errorf("init i2c: %w", err)
		}
		defer b.Close()
		i2c = b
	}

	// Initialize MQTT. Diagnostics are optional: control runs without them.
	var pub mqtt.Publisher
	if o.broker != "" {
		p, err := mqtt.NewRealPublisher(o.broker)
		if err != nil {
			log.Printf("mqtt disabled: %v", err)
		} else {
			defer p.Close()
			pub = p
		}
	}

	clk := clock.New(clock.Config{Increment: uint64(o.tick / time.Microsecond)})
	c, err := newController(cfg, chip, i2c, pub, clk, o)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	reason := make(chan string, 1)
	go func() {
		s := <-sigCh
		log.Printf("received %v, shutting down", s)
		reason <- signalName(s)
		cancel()
	}()

	sinkCtx, stopSink := context.WithCancel(context.Background())
	sinkDone := make(chan struct{})
	if c.sink != nil {
		go func() {
			c.sink.Run(sinkCtx)
			close(sinkDone)
		}()
	} else {
		close(sinkDone)
	}
	defer func() {
		stopSink()
		<-sinkDone
	}()

	go clk.Run(ctx, o.tick)

	c.startup()
	log.Printf("started: layout=%s tick=%v servo=%v sensor=%v phase=%v broker=%q i2c=%q",
		cfg.Layout, o.tick, o.servoInterval, o.sensorInterval, o.phaseInterval, o.broker, o.i2c)

	if fault := c.run(ctx); fault != nil {
		clk.Disable()
		c.halt(ctx, fault)
		return fmt.Errorf("halted: %w", fault)
	}

	name := "UNKNOWN"
	select {
	case name = <-reason:
	default:
	}
	c.shutdown(name)
	return nil
}

func loadConfig(path, layout string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Default(layout)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	return cfg, nil
}

// maxInterval keeps every task interval well inside half the range of the
// wrapping microsecond clock.
const maxInterval = time.Duration(1<<31) * time.Microsecond

func (o options) validate() error {
	if o.tick < time.Microsecond {
		return fmt.Errorf("tick must be at least 1µs, got %v", o.tick)
	}
	var errs []error
	for _, iv := range []struct {
		name string
		d    time.Duration
	}{
		{"servo-interval", o.servoInterval},
		{"sensor-interval", o.sensorInterval},
		{"phase-interval", o.phaseInterval},
		{"led-interval", o.ledInterval},
		{"heartbeat", o.heartbeat},
	} {
		if iv.d < 0 || iv.d >= maxInterval {
			errs = append(errs, fmt.Errorf("%s must be between 0 and %v, got %v", iv.name, maxInterval, iv.d))
		}
	}
	return errors.Join(errs...)
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}
