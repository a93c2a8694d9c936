package panel

import (
	"context"

	kitlog "github.com/go-kit/kit/log"
)

const (
	// alertThreshold is the water level percentage below which an alert fires.
	alertThreshold = 10

	// resetThreshold is the level the tank must recover above before another
	// alert may fire. The gap between the two stops the alert flapping when
	// the level hovers around the trigger.
	resetThreshold = 15
)

// Notifier is the interface for anything that can deliver a low-water alert.
type Notifier interface {
	Alert(ctx context.Context, level float64) error
}

// Monitor implements single-shot low-water alerting with a recovery
// dead-band. State is process-local: a restart re-arms the monitor, which at
// worst repeats one alert for an ongoing excursion.
type Monitor struct {
	notifier Notifier
	logger   kitlog.Logger
	armed    bool
}

// NewMonitor returns a disarmed Monitor delivering through the given
// notifier.
func NewMonitor(notifier Notifier, logger kitlog.Logger) *Monitor {
	return &Monitor{
		notifier: notifier,
		logger:   kitlog.With(logger, "module", "monitor"),
	}
}

// Observe feeds one water level observation through the hysteresis logic.
// Delivery is fire-and-forget: a failed notification is logged and never
// retried, and never interrupts observation.
func (m *Monitor) Observe(ctx context.Context, percent float64) {
	if percent < alertThreshold {
		if m.armed {
			return
		}
		m.armed = true

		err := m.notifier.Alert(ctx, percent)
		if err != nil {
			m.logger.Log("msg", "failed to deliver low water alert", "level", percent, "err", err.Error())
		}

		return
	}

	if percent > resetThreshold {
		m.armed = false
	}
}

// Armed reports whether an alert is currently outstanding.
func (m *Monitor) Armed() bool {
	return m.armed
}
