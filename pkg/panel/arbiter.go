package panel

import "github.com/Ewixxx/PEMS/pkg/device"

// FanView is the panel's displayed state for a single fan, including the
// operator's override flag. The flag lives here, in the consumer process,
// never in the store.
type FanView struct {
	Speed          device.Speed
	Mode           device.Mode
	RPM            int
	Power          float64
	ManualOverride bool
}

// FanStatus is the displayed state for all fans keyed by device type.
type FanStatus map[device.Type]FanView

// NewFanStatus returns the default view before any fetch has completed:
// everything off, in auto, not overridden.
func NewFanStatus() FanStatus {
	return FanStatus{
		device.Exhaust: {Speed: device.Off, Mode: device.Auto},
		device.Intake:  {Speed: device.Off, Mode: device.Auto},
	}
}

// MergeFans arbitrates between the currently displayed state and a freshly
// fetched one. An actuator whose override flag is set keeps its pinned view
// untouched, discarding the fetched value; everything else takes the fetched
// value while keeping its (clear) override flag. The override set is carried
// by prev and only ever changed by explicit operator actions.
func MergeFans(prev, fetched FanStatus) FanStatus {
	merged := FanStatus{}

	for deviceType, view := range prev {
		if view.ManualOverride {
			merged[deviceType] = view
			continue
		}

		if update, ok := fetched[deviceType]; ok {
			update.ManualOverride = false
			merged[deviceType] = update
		} else {
			merged[deviceType] = view
		}
	}

	return merged
}
