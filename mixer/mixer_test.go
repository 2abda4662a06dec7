package mixer

import "testing"

func quadXGeometry() Geometry {
	return Geometry{
		Motors: []Motor{
			{Position: [3]float64{0.25, 0.25, 0}, Clockwise: true},
			{Position: [3]float64{-0.25, -0.25, 0}, Clockwise: true},
			{Position: [3]float64{0.25, -0.25, 0}, Clockwise: false},
			{Position: [3]float64{-0.25, 0.25, 0}, Clockwise: false},
		},
		MotorThrust:  10,
		MotorZTorque: 0.2,
	}
}

func TestHoverAllThrottlesEqual(t *testing.T) {
	m, err := New(quadXGeometry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := m.Mix([3]float64{0, 0, 9.81}, [3]float64{0, 0, 0}, 4)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	want := 0.495
	for i, th := range res.Throttle {
		if diff := th - want; diff > 0.01 || diff < -0.01 {
			t.Errorf("motor %d throttle %g, want ~%g", i, th, want)
		}
	}
	for i := 1; i < len(res.Throttle); i++ {
		if diff := res.Throttle[i] - res.Throttle[0]; diff > 1e-6 || diff < -1e-6 {
			t.Errorf("hover throttles not equal: %v", res.Throttle)
		}
	}
}

func TestYawOnlyMeanUnchanged(t *testing.T) {
	m, err := New(quadXGeometry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hover, err := m.Mix([3]float64{0, 0, 9.81}, [3]float64{0, 0, 0}, 4)
	if err != nil {
		t.Fatalf("Mix hover: %v", err)
	}
	yaw, err := m.Mix([3]float64{0, 0, 9.81}, [3]float64{0, 0, 0.3}, 4)
	if err != nil {
		t.Fatalf("Mix yaw: %v", err)
	}
	if !yaw.Converged {
		t.Fatalf("expected convergence for yaw command")
	}
	if yaw.Iterations >= 5000 {
		t.Fatalf("expected convergence within 5000 iterations, got %d", yaw.Iterations)
	}

	meanHover, meanYaw := mean(hover.Throttle), mean(yaw.Throttle)
	if diff := (meanYaw - meanHover) / meanHover; diff > 0.01 || diff < -0.01 {
		t.Fatalf("mean throttle changed by more than 1%%: hover=%g yaw=%g", meanHover, meanYaw)
	}
	// clockwise motors (0,1) throttle up, counterclockwise (2,3) throttle down.
	if yaw.Throttle[0] <= hover.Throttle[0] || yaw.Throttle[1] <= hover.Throttle[1] {
		t.Fatalf("expected clockwise motors to throttle up: hover=%v yaw=%v", hover.Throttle, yaw.Throttle)
	}
	if yaw.Throttle[2] >= hover.Throttle[2] || yaw.Throttle[3] >= hover.Throttle[3] {
		t.Fatalf("expected counterclockwise motors to throttle down: hover=%v yaw=%v", hover.Throttle, yaw.Throttle)
	}
}

func TestAsymmetricGeometryRejected(t *testing.T) {
	geom := quadXGeometry()
	geom.Motors[0].Position = [3]float64{0.5, 0.25, 0}
	if _, err := New(geom); err == nil {
		t.Fatalf("expected AsymmetricGeometry for non-centered motor")
	}
}

func TestGeometryChangedSkipsTick(t *testing.T) {
	m, err := New(quadXGeometry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.Mix([3]float64{0, 0, 9.81}, [3]float64{}, 3); err == nil {
		t.Fatalf("expected GeometryChanged when live motor count differs")
	}
}

func TestThrottleAlwaysInRange(t *testing.T) {
	m, err := New(quadXGeometry())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := m.Mix([3]float64{0, 0, 40}, [3]float64{0, 0, 5}, 4)
	if err != nil {
		t.Fatalf("Mix: %v", err)
	}
	for _, th := range res.Throttle {
		if th < 0 || th > 1 {
			t.Fatalf("throttle out of range: %v", res.Throttle)
		}
	}
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
