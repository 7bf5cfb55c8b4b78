package sim

import (
	"math"

	"github.com/san-kum/ratectl/internal/dynamo"
	"github.com/san-kum/ratectl/internal/ratecontrol"
)

// Allocator stands in for the actuator allocation stage: it clips the torque
// command per axis and reports which axes hit a limit.
type Allocator struct {
	Limit ratecontrol.Vector3
}

// Allocate returns the applied torque and the positive/negative saturation
// flags to feed back into the controller. A NaN command is passed through
// unclipped and unflagged; the simulator aborts on the resulting state.
func (a Allocator) Allocate(cmd ratecontrol.Vector3) (dynamo.Control, ratecontrol.Bool3, ratecontrol.Bool3) {
	var pos, neg ratecontrol.Bool3
	u := make(dynamo.Control, 3)
	for i := 0; i < 3; i++ {
		u[i] = cmd[i]
		if math.IsNaN(cmd[i]) {
			continue
		}
		if cmd[i] >= a.Limit[i] {
			u[i] = a.Limit[i]
			pos[i] = true
		} else if cmd[i] <= -a.Limit[i] {
			u[i] = -a.Limit[i]
			neg[i] = true
		}
	}
	return u, pos, neg
}
