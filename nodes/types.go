// Package nodes implements the concrete node kinds registered into a
// graph.Catalog: sensor sources (simulated and hardware-backed), the motor
// mixer processor, the multirotor simulator plant, the actuator sink, and
// the pilot stick input source.
//
// Grounded in the node taxonomy under
// _examples/original_source/silkopter/brain/src/node/ (source/, processor/,
// sink/, simulator/) and in the teacher's services/hal/devices/ concrete
// device wiring style for how a device handle becomes a catalog entry.
package nodes

import (
	"github.com/jeanleflambeur/silkopter/regtype"
)

// Types bundles the registered regtype.Type handles every node kind in
// this package shares, so a single registration pass wires them all
// consistently instead of each node redeclaring its own copy.
type Types struct {
	F64      *regtype.Type
	Bool     *regtype.Type
	Vec3     *regtype.Type
	Throttle *regtype.Type // sequence<f64>, one element per motor
	GPSInfo  *regtype.Type // record{lat_deg, lon_deg, alt_m, fix_ok}
}

// Register declares this package's shared types against reg. Safe to call
// once per registry.
func Register(reg *regtype.Registry) (*Types, error) {
	f64 := reg.Scalar(regtype.KindF64)
	boolT := reg.Scalar(regtype.KindBool)

	vec3, err := reg.Vector(3)
	if err != nil {
		return nil, err
	}

	throttle, err := reg.DeclareSequence("motor_throttle", f64)
	if err != nil {
		return nil, err
	}

	gpsInfo, err := reg.DeclareRecord("gps_info", []regtype.Field{
		{Name: "lat_deg", Type: f64},
		{Name: "lon_deg", Type: f64},
		{Name: "alt_m", Type: f64},
		{Name: "fix_ok", Type: boolT},
	}, regtype.Attrs{})
	if err != nil {
		return nil, err
	}

	return &Types{F64: f64, Bool: boolT, Vec3: vec3, Throttle: throttle, GPSInfo: gpsInfo}, nil
}
