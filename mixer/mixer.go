// Package mixer implements the Motor Mixer: inverting a commanded body
// torque and collective thrust into per-motor throttle values via iterative
// projection onto each motor's torque contribution vector.
//
// Grounded line-for-line in
// _examples/original_source/silkopter/brain/src/processor/Motor_Mixer.cpp:
// symmetry validation, MIN_THRUST, the per-motor max_torque/torque_dir
// precompute, the target_thrust>=0 dynamic-range branch, the STEP=0.9
// iterative projection loop with its stabilization/convergence/iteration
// bounds, and the throttle=sqrt(thrust/max) square-law conversion.
package mixer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/jeanleflambeur/silkopter/errcode"
)

// MinThrust is the floor thrust per motor, keeping rotors spinning even at
// zero commanded collective force.
const MinThrust = 0.01

const (
	step              = 0.9
	convergenceEps    = 0.01
	stabilizationEps  = 1e-6
	symmetryTolerance = 0.05
	warnIterations    = 5000
	maxIterations     = 50000
)

// ThrustAxis is the body-frame thrust direction every motor's thrust acts
// along. Exported so the simulator can apply the same convention when
// computing per-motor thrust force from commanded throttle.
var ThrustAxis = [3]float64{0, 0, 1}

// thrustAxis is kept as the unexported name used throughout this file.
var thrustAxis = ThrustAxis

// Motor is one rotor's fixed geometry.
type Motor struct {
	Position  [3]float64 // body-frame position, meters
	Clockwise bool       // rotation direction, determines reactive yaw sign
}

// Geometry is a multirotor's fixed motor layout plus the shared per-motor
// capability constants.
type Geometry struct {
	Motors       []Motor
	MotorThrust  float64 // max thrust per motor, N
	MotorZTorque float64 // reactive yaw torque coefficient per motor at full thrust
}

// Mixer holds a validated Geometry and the per-motor precomputed torque
// vectors derived from it.
type Mixer struct {
	geom       Geometry
	maxTorque [][3]float64 // per-motor torque vector at full thrust
	torqueDir [][3]float64 // normalize(maxTorque[i])
}

// New validates geom's symmetry and precomputes per-motor torque vectors.
// Fails with AsymmetricGeometry if the motor layout is not mass- and
// torque-centered within tolerance.
func New(geom Geometry) (*Mixer, error) {
	n := len(geom.Motors)
	if n == 0 {
		return nil, &errcode.E{C: errcode.AsymmetricGeometry, Op: "mixer.New", Msg: "geometry has no motors"}
	}

	posSum := [3]float64{}
	torqueSum := [3]float64{}
	for _, m := range geom.Motors {
		posSum = vadd(posSum, m.Position)
		sign := -1.0
		if m.Clockwise {
			sign = 1.0
		}
		torqueSum = vadd(torqueSum, vadd(cross(m.Position, thrustAxis), vscale(thrustAxis, geom.MotorZTorque*sign)))
	}
	if norm(posSum) > symmetryTolerance {
		return nil, &errcode.E{C: errcode.AsymmetricGeometry, Op: "mixer.New", Msg: fmt.Sprintf("motor positions not mass-centered: |sum|=%g", norm(posSum))}
	}
	if norm(torqueSum) > symmetryTolerance {
		return nil, &errcode.E{C: errcode.AsymmetricGeometry, Op: "mixer.New", Msg: fmt.Sprintf("motor torques not balanced: |sum|=%g", norm(torqueSum))}
	}

	maxTorque := make([][3]float64, n)
	torqueDir := make([][3]float64, n)
	for i, m := range geom.Motors {
		sign := -1.0
		if m.Clockwise {
			sign = 1.0
		}
		mt := vadd(vscale(cross(m.Position, thrustAxis), geom.MotorThrust), vscale(thrustAxis, geom.MotorZTorque*sign))
		maxTorque[i] = mt
		if nrm := norm(mt); nrm > 0 {
			torqueDir[i] = vscale(mt, 1/nrm)
		}
	}

	return &Mixer{geom: geom, maxTorque: maxTorque, torqueDir: torqueDir}, nil
}

// MotorCount reports how many motors this mixer was built for, used by
// callers to detect a GeometryChanged condition (a live reconfiguration
// that alters motor count without rebuilding the Mixer).
func (m *Mixer) MotorCount() int { return len(m.geom.Motors) }

// Result is the outcome of one Mix call.
type Result struct {
	Throttle   []float64 // per motor, in [0,1]
	Iterations int
	Converged  bool
	SlowToConverge bool // crossed warnIterations before stabilizing/converging
}

// Mix computes per-motor throttle for a commanded collective force and body
// torque in the body frame. geometryMotorCount is the caller's current live
// motor count; if it differs from the Mixer's geometry, Mix returns
// GeometryChanged and no throttle — callers must never emit uninitialized
// throttle on a geometry mismatch.
func (m *Mixer) Mix(force, torque [3]float64, geometryMotorCount int) (Result, error) {
	n := len(m.geom.Motors)
	if geometryMotorCount != n {
		return Result{}, &errcode.E{C: errcode.GeometryChanged, Op: "Mix", Msg: fmt.Sprintf("geometry has %d motors, mixer built for %d", geometryMotorCount, n)}
	}

	thrust := make([]float64, n)
	thrustMin := make([]float64, n)
	thrustMax := make([]float64, n)

	targetThrust := dot(force, thrustAxis)
	if targetThrust >= 0 {
		perMotor := clamp(targetThrust/float64(n), MinThrust, m.geom.MotorThrust)
		delta := 1.5 * math.Min(perMotor-MinThrust, m.geom.MotorThrust-perMotor)
		lo := math.Max(perMotor-delta, MinThrust)
		hi := math.Min(perMotor+delta, m.geom.MotorThrust)
		for i := range thrust {
			thrust[i] = perMotor
			thrustMin[i] = lo
			thrustMax[i] = hi
		}
	} else {
		for i := range thrust {
			thrust[i] = MinThrust
			thrustMin[i] = MinThrust
			thrustMax[i] = MinThrust
		}
	}

	var prevActual [3]float64
	iterations := 0
	converged := false
	slowToConverge := false
	for ; iterations < maxIterations; iterations++ {
		actual := [3]float64{}
		for i := range thrust {
			actual = vadd(actual, vscale(m.maxTorque[i], thrust[i]/m.geom.MotorThrust))
		}

		if iterations > 0 && norm(vsub(actual, prevActual)) < stabilizationEps {
			converged = true
			prevActual = actual
			break
		}
		if norm(vsub(actual, torque)) < convergenceEps {
			converged = true
			prevActual = actual
			break
		}

		diff := vscale(vsub(torque, actual), 1/float64(n))
		for i := range thrust {
			thrust[i] = clamp(thrust[i]+step*dot(m.torqueDir[i], diff), thrustMin[i], thrustMax[i])
		}
		prevActual = actual

		if iterations+1 == warnIterations {
			slowToConverge = true
		}
	}

	throttle := make([]float64, n)
	for i, th := range thrust {
		r := th / m.geom.MotorThrust
		if r < 0 {
			r = 0
		}
		throttle[i] = clamp(math.Sqrt(r), 0, 1)
	}

	return Result{Throttle: throttle, Iterations: iterations, Converged: converged, SlowToConverge: slowToConverge}, nil
}

// ThrustFromThrottle applies the square-law propeller model in the forward
// direction, used by the simulator to turn a commanded throttle back into a
// thrust magnitude.
func ThrustFromThrottle(throttle, motorThrust float64) float64 {
	return throttle * throttle * motorThrust
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func vadd(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func vsub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func vscale(a [3]float64, s float64) [3]float64 { return [3]float64{a[0] * s, a[1] * s, a[2] * s} }

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 {
	return floats.Dot(a[:], b[:])
}

func norm(a [3]float64) float64 {
	return math.Sqrt(dot(a, a))
}
