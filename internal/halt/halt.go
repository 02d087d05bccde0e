// Package halt is the end of the line after a fault: the status LED blinks
// until the process is stopped.
package halt

import (
	"context"
	"log"
	"time"

	"github.com/sweeney/intersection-control/internal/gpio"
)

// BlinkPeriod is the fault blink half-period.
const BlinkPeriod = 100 * time.Millisecond

// Blink toggles led every period until ctx is done. Write errors are logged
// once; the blinking carries on.
func Blink(ctx context.Context, led gpio.Output, period time.Duration) {
	if period <= 0 {
		period = BlinkPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	level, reported := false, false
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			level = !level
			if err := led.Write(level); err != nil && !reported {
				log.Printf("halt: led write error: %v", err)
				reported = true
			}
		}
	}
}
