package trace

import (
	"math"

	"github.com/taigrr/photon/pkg/rt"
)

// toneMap applies the Reinhard-exp mapping from §4.6: c = 1 - exp(-exposure*c).
func toneMap(c rt.Float4, exposure float32) rt.Float4 {
	return rt.Float4{
		X: reinhardExp(c.X, exposure),
		Y: reinhardExp(c.Y, exposure),
		Z: reinhardExp(c.Z, exposure),
		W: c.W,
	}
}

func reinhardExp(v, exposure float32) float32 {
	return float32(1 - math.Exp(float64(-exposure*v)))
}
