// Package simulator implements the multirotor reference plant used by the
// graph when real hardware is absent: rigid-body integration of motor
// thrust/torque, gravity, drag and ground contact, plus synthesis of noisy
// sensor samples at independently configurable rates.
//
// Grounded in
// _examples/original_source/silkopter/brain/src/simulator/Multirotor_Simulator.cpp.
// Orientation integration uses gonum.org/v1/gonum/num/quat, following the
// gonum-for-spatial-math convention the viam-family repos in the retrieval
// pack use; motor response reuses the teacher's x/ramp package, generalized
// from discrete PWM ramps to a continuous per-tick first-order response.
package simulator

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/num/quat"

	"github.com/jeanleflambeur/silkopter/mixer"
	"github.com/jeanleflambeur/silkopter/x/ramp"
)

// Config holds the plant's reconfigurable tunables. set_gravity_enabled /
// set_ground_enabled / set_drag_enabled / set_simulation_enabled in
// original_source are config fields here too (not constructor-only
// params), so reconfiguration can toggle plant effects without
// reinitializing geometry.
type Config struct {
	GravityEnabled    bool
	GroundEnabled     bool
	DragEnabled       bool
	SimulationEnabled bool

	MotorAccel float64 // throttle fraction per second, spin-up
	MotorDecel float64 // throttle fraction per second, spin-down

	Mass             float64
	InertiaDiag      [3]float64 // kg*m^2, per body axis
	DragLinear       float64
	DragQuadratic    float64

	Rates RatesConfig
	Noise NoiseConfig
}

// Plant is the rigid-body multirotor simulation.
type Plant struct {
	geom mixer.Geometry
	cfg  Config

	motorThrottle []float64 // current first-order-settled per-motor throttle

	orientation quat.Number // body -> ENU rotation
	angularVel  [3]float64  // body frame, rad/s
	posENU      [3]float64
	velENU      [3]float64

	specificForceBody [3]float64 // last proper (non-gravitational) acceleration, body frame

	rng *rand.Rand

	pacers map[SensorKind]*pacer
}

// New builds a Plant over geom with initial config cfg, at rest at the ENU
// origin with identity orientation.
func New(geom mixer.Geometry, cfg Config, seed int64) *Plant {
	p := &Plant{
		geom:          geom,
		cfg:           cfg,
		motorThrottle: make([]float64, len(geom.Motors)),
		orientation:   quat.Number{Real: 1},
		rng:           rand.New(rand.NewSource(seed)),
		pacers:        make(map[SensorKind]*pacer),
	}
	p.SetConfig(cfg)
	return p
}

// SetConfig applies new tunables/toggles in place; geometry and current
// dynamic state are untouched.
func (p *Plant) SetConfig(cfg Config) {
	p.cfg = cfg
	p.pacers = map[SensorKind]*pacer{
		SensorAngularVelocity: rateFor(cfg.Rates.AngularVelocity),
		SensorAcceleration:    rateFor(cfg.Rates.Acceleration),
		SensorMagneticField:   rateFor(cfg.Rates.MagneticField),
		SensorPressure:        rateFor(cfg.Rates.Pressure),
		SensorTemperature:     rateFor(cfg.Rates.Temperature),
		SensorSonarDistance:   rateFor(cfg.Rates.SonarDistance),
		SensorGPSInfo:         rateFor(cfg.Rates.GPSInfo),
		SensorECEFPosition:    rateFor(cfg.Rates.ECEFPosition),
		SensorECEFVelocity:    rateFor(cfg.Rates.ECEFVelocity),
	}
}

func rateFor(hz float64) *pacer {
	p := newPacer(hz)
	return &p
}

// Step advances the plant by dtSeconds given commanded per-motor throttle
// in [0,1], and returns every sensor sample due this step (a sensor whose
// period is shorter than dt may be due more than once; each due emission
// gets its own independently drawn noise).
//
// Steps under 1ms are skipped to avoid degenerate integration, matching
// original_source's minimum-dt guard.
func (p *Plant) Step(commandedThrottle []float64, dtSeconds float64) []SensorSample {
	if dtSeconds < 1e-3 {
		return nil
	}
	if p.cfg.SimulationEnabled {
		p.integrate(commandedThrottle, dtSeconds)
	}
	return p.emit(dtSeconds)
}

func (p *Plant) integrate(commandedThrottle []float64, dt float64) {
	n := len(p.geom.Motors)
	thrustBody := [3]float64{}
	torqueBody := [3]float64{}

	for i := 0; i < n; i++ {
		target := 0.0
		if i < len(commandedThrottle) {
			target = commandedThrottle[i]
		}
		p.motorThrottle[i] = ramp.TowardLinear(p.motorThrottle[i], target, p.cfg.MotorAccel, p.cfg.MotorDecel, dt)

		thrustMag := mixer.ThrustFromThrottle(p.motorThrottle[i], p.geom.MotorThrust)
		mThrust := vscale(mixer.ThrustAxis, thrustMag)
		thrustBody = vadd(thrustBody, mThrust)

		sign := -1.0
		if p.geom.Motors[i].Clockwise {
			sign = 1.0
		}
		reactiveYaw := p.geom.MotorZTorque * sign * p.motorThrottle[i] * p.motorThrottle[i]
		torqueBody = vadd(torqueBody, vadd(cross(p.geom.Motors[i].Position, mThrust), vscale(mixer.ThrustAxis, reactiveYaw)))
	}

	thrustENU := rotate(p.orientation, thrustBody)

	// Specific force: what an accelerometer actually measures (thrust +
	// drag, never gravity — a free-falling plant reads zero).
	specificForceENU := vscale(thrustENU, 1/p.cfg.Mass)
	if p.cfg.DragEnabled {
		speed := norm(p.velENU)
		drag := vscale(p.velENU, -(p.cfg.DragLinear + p.cfg.DragQuadratic*speed))
		specificForceENU = vadd(specificForceENU, drag)
	}
	p.specificForceBody = rotateInverse(p.orientation, specificForceENU)

	accelENU := specificForceENU
	if p.cfg.GravityEnabled {
		accelENU = vadd(accelENU, [3]float64{0, 0, -9.81})
	}

	p.velENU = vadd(p.velENU, vscale(accelENU, dt))
	p.posENU = vadd(p.posENU, vscale(p.velENU, dt))

	if p.cfg.GroundEnabled && p.posENU[2] < 0 {
		p.posENU[2] = 0
		if p.velENU[2] < 0 {
			p.velENU[2] = 0
		}
		p.velENU[0] *= 0.5
		p.velENU[1] *= 0.5
	}

	angularAccel := [3]float64{
		torqueBody[0] / p.cfg.InertiaDiag[0],
		torqueBody[1] / p.cfg.InertiaDiag[1],
		torqueBody[2] / p.cfg.InertiaDiag[2],
	}
	p.angularVel = vadd(p.angularVel, vscale(angularAccel, dt))

	omegaQ := quat.Number{Imag: p.angularVel[0], Jmag: p.angularVel[1], Kmag: p.angularVel[2]}
	dq := quat.Scale(0.5*dt, quat.Mul(p.orientation, omegaQ))
	p.orientation = quat.Number{
		Real: p.orientation.Real + dq.Real,
		Imag: p.orientation.Imag + dq.Imag,
		Jmag: p.orientation.Jmag + dq.Jmag,
		Kmag: p.orientation.Kmag + dq.Kmag,
	}
	if a := quat.Abs(p.orientation); a > 0 {
		p.orientation = quat.Scale(1/a, p.orientation)
	}
}

func (p *Plant) emit(dt float64) []SensorSample {
	var out []SensorSample
	push := func(k SensorKind, make func() SensorSample) {
		n := p.pacers[k].Due(dt)
		for i := 0; i < n; i++ {
			out = append(out, make())
		}
	}

	push(SensorAngularVelocity, func() SensorSample {
		return SensorSample{Kind: SensorAngularVelocity, Vector: addNoiseVec(p.rng, p.angularVel, p.cfg.Noise.AngularVelocity)}
	})
	push(SensorAcceleration, func() SensorSample {
		return SensorSample{Kind: SensorAcceleration, Vector: addNoiseVec(p.rng, p.specificForceBody, p.cfg.Noise.Acceleration)}
	})
	push(SensorMagneticField, func() SensorSample {
		// Earth's field approximated as a fixed ENU vector rotated into body frame.
		enuField := [3]float64{0.2, 0, -0.45}
		bodyField := rotateInverse(p.orientation, enuField)
		return SensorSample{Kind: SensorMagneticField, Vector: addNoiseVec(p.rng, bodyField, p.cfg.Noise.MagneticField)}
	})
	push(SensorPressure, func() SensorSample {
		alt := OriginAltM + p.posENU[2]
		pressure := 101325 * math.Pow(1-2.25577e-5*alt, 5.25588)
		return SensorSample{Kind: SensorPressure, Scalar: addNoiseScalar(p.rng, pressure, p.cfg.Noise.Pressure)}
	})
	push(SensorTemperature, func() SensorSample {
		return SensorSample{Kind: SensorTemperature, Scalar: addNoiseScalar(p.rng, 20, p.cfg.Noise.Temperature)}
	})
	push(SensorSonarDistance, func() SensorSample {
		return SensorSample{Kind: SensorSonarDistance, Scalar: addNoiseScalar(p.rng, math.Max(p.posENU[2], 0), p.cfg.Noise.SonarDistance)}
	})
	push(SensorGPSInfo, func() SensorSample {
		lla := enuOffsetToLLA(p.posENU, p.rng, p.cfg.Noise.GPSHorizontal)
		return SensorSample{Kind: SensorGPSInfo, GPS: lla}
	})
	push(SensorECEFPosition, func() SensorSample {
		ecef := enuToECEF(p.posENU)
		return SensorSample{Kind: SensorECEFPosition, Vector: addNoiseVec(p.rng, ecef, p.cfg.Noise.ECEFPosition)}
	})
	push(SensorECEFVelocity, func() SensorSample {
		ecef := enuVectorToECEF(p.velENU)
		return SensorSample{Kind: SensorECEFVelocity, Vector: addNoiseVec(p.rng, ecef, p.cfg.Noise.ECEFVelocity)}
	})

	return out
}

func enuOffsetToLLA(enu [3]float64, rng *rand.Rand, noise float64) GPSInfo {
	const metersPerDegLat = 111320.0
	dLat := enu[1] / metersPerDegLat
	dLon := enu[0] / (metersPerDegLat * math.Cos(OriginLatDeg*math.Pi/180))
	lat := OriginLatDeg + dLat + (rng.Float64()-0.5)*noise/metersPerDegLat
	lon := OriginLonDeg + dLon + (rng.Float64()-0.5)*noise/metersPerDegLat
	return GPSInfo{LatDeg: lat, LonDeg: lon, AltM: OriginAltM + enu[2], FixOK: true}
}

func addNoiseVec(rng *rand.Rand, v [3]float64, halfWidth float64) [3]float64 {
	return [3]float64{
		v[0] + (rng.Float64()-0.5)*halfWidth,
		v[1] + (rng.Float64()-0.5)*halfWidth,
		v[2] + (rng.Float64()-0.5)*halfWidth,
	}
}

func addNoiseScalar(rng *rand.Rand, v, halfWidth float64) float64 {
	return v + (rng.Float64()-0.5)*halfWidth
}

// Pose exposes the plant's current state for telemetry/debug taps.
func (p *Plant) Pose() (orientation quat.Number, posENU, velENU, angularVel [3]float64) {
	return p.orientation, p.posENU, p.velENU, p.angularVel
}

func vadd(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func vscale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func norm(a [3]float64) float64 {
	return math.Sqrt(a[0]*a[0] + a[1]*a[1] + a[2]*a[2])
}

// rotate applies q's rotation to body-frame vector v, yielding it in q's
// reference frame (here, body -> ENU).
func rotate(q quat.Number, v [3]float64) [3]float64 {
	qv := [3]float64{q.Imag, q.Jmag, q.Kmag}
	t := vscale(cross(qv, v), 2)
	return vadd(v, vadd(vscale(t, q.Real), cross(qv, t)))
}

// rotateInverse applies q's inverse rotation (ENU -> body).
func rotateInverse(q quat.Number, v [3]float64) [3]float64 {
	conj := quat.Conj(q)
	return rotate(conj, v)
}
