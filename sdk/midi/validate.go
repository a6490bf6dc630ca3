package midi

import (
	"math"
	"time"

	"github.com/leandrodaf/midiplayer/sdk/contracts"
)

type arg struct {
	name  string
	value int
	max   int
}

func channelArg(v int) arg  { return arg{"channel", v, contracts.MaxChannel} }
func noteArg(v int) arg     { return arg{"note", v, contracts.MaxNote} }
func velocityArg(v int) arg { return arg{"velocity", v, contracts.MaxVelocity} }

// validate checks every argument against [0, max] and delay against >= 0.
func validate(delay time.Duration, args ...arg) error {
	for _, a := range args {
		if a.value < 0 || a.value > a.max {
			return &contracts.RangeError{Param: a.name, Value: a.value, Min: 0, Max: a.max}
		}
	}
	if delay < 0 {
		return &contracts.RangeError{Param: "delay", Value: int(delay), Min: 0, Max: math.MaxInt}
	}
	return nil
}
