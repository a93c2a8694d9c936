package device

import "fmt"

// Type identifies an actuator class addressed by a command.
type Type string

// The two fan devices plus the misting pump.
const (
	Exhaust Type = "exhaust"
	Intake  Type = "intake"
	Misting Type = "misting"
)

// FanType parses a fan device type from its wire representation, rejecting
// anything that is not a known fan.
func FanType(s string) (Type, error) {
	switch Type(s) {
	case Exhaust, Intake:
		return Type(s), nil
	default:
		return "", fmt.Errorf("invalid fan type: %q", s)
	}
}

// Speed is the semantic fan speed issued by operators and the controller.
type Speed string

// The supported semantic speeds.
const (
	Off    Speed = "off"
	Slow   Speed = "slow"
	Medium Speed = "medium"
	Fast   Speed = "fast"
)

// dutyTable is the fixed monotonic mapping from semantic speed to the PWM
// duty value the firmware expects. Duty values are never computed ad hoc.
var dutyTable = map[Speed]int{
	Off:    0,
	Slow:   85,
	Medium: 170,
	Fast:   255,
}

// ParseSpeed parses a semantic speed from its wire representation. An empty
// value defaults to off, matching the behaviour operators expect from a bare
// command.
func ParseSpeed(s string) (Speed, error) {
	if s == "" {
		return Off, nil
	}

	switch Speed(s) {
	case Off, Slow, Medium, Fast:
		return Speed(s), nil
	default:
		return "", fmt.Errorf("invalid fan speed: %q", s)
	}
}

// Duty returns the PWM duty value for the speed. Unknown speeds map to 0 so
// a bad value can never spin a fan up.
func (s Speed) Duty() int {
	return dutyTable[s]
}

// Mode records whether an actuator is system-driven or operator-pinned.
type Mode string

// The two control modes.
const (
	Auto   Mode = "auto"
	Manual Mode = "manual"
)

// ParseMode parses a control mode from its wire representation. An empty
// value defaults to manual as any explicit command is an operator action.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return Manual, nil
	}

	switch Mode(s) {
	case Auto, Manual:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode: %q", s)
	}
}
