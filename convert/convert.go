// Package convert maps source engine transforms (right handed, Z up,
// meters, w-first quaternions) to target engine transforms (centimeters,
// mirrored Y, pitch/yaw/roll in degrees).
package convert

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/atlas-foundry/levelport/scene"
)

// UnitScale converts source meters to target centimeters.
const UnitScale = 100.0

// Rotator is a target rotation in degrees.
type Rotator struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Transform is a placement in target conventions.
type Transform struct {
	Location mgl64.Vec3 `json:"location"`
	Rotation Rotator    `json:"rotation"`
	Scale    mgl64.Vec3 `json:"scale"`
}

// Position scales to centimeters and flips Y.
func Position(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		clean(p[0] * UnitScale),
		clean(-p[1] * UnitScale),
		clean(p[2] * UnitScale),
	}
}

// Scale is dimensionless and passes through unchanged.
func Scale(s mgl64.Vec3) mgl64.Vec3 {
	return s
}

// QuatToEuler returns roll (about X), pitch (about Y) and yaw (about Z) in
// degrees for a w-first quaternion. The input need not be unit length; the
// pitch term is clamped to ±90° instead of producing NaN. Components large
// enough to overflow the products are rescaled to unit length first.
func QuatToEuler(q mgl64.Quat) scene.Euler {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	if d := q.Dot(q); math.IsInf(d, 0) || math.IsNaN(d) {
		m := math.Max(math.Max(math.Abs(x), math.Abs(y)), math.Max(math.Abs(z), math.Abs(w)))
		x, y, z, w = x/m, y/m, z/m, w/m
		n := math.Sqrt(x*x + y*y + z*z + w*w)
		x, y, z, w = x/n, y/n, z/n, w/n
	}

	roll := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))

	var pitch float64
	sinp := 2 * (w*y - z*x)
	if math.Abs(sinp) >= 1 || math.IsNaN(sinp) {
		pitch = math.Copysign(math.Pi/2, sinp)
	} else {
		pitch = math.Asin(sinp)
	}

	yaw := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	return scene.Euler{
		Roll:  mgl64.RadToDeg(roll),
		Pitch: mgl64.RadToDeg(pitch),
		Yaw:   mgl64.RadToDeg(yaw),
	}
}

// Rotation converts a w-first source quaternion to a target rotator.
func Rotation(q mgl64.Quat) Rotator {
	return EulerRotation(QuatToEuler(q))
}

// EulerRotation applies the axis remap to source Euler angles:
// pitch takes the source roll, yaw the negated source pitch and roll the
// negated source yaw. Angles are wrapped into [-180, 180].
func EulerRotation(e scene.Euler) Rotator {
	return Rotator{
		Pitch: clean(wrap(e.Roll)),
		Yaw:   clean(wrap(-e.Pitch)),
		Roll:  clean(wrap(-e.Yaw)),
	}
}

func wrap(deg float64) float64 {
	return math.Remainder(deg, 360)
}

// RotationOf converts either form of a scene rotation.
func RotationOf(r scene.Rotation) Rotator {
	if r.Form == scene.RotationEuler {
		return EulerRotation(r.Euler)
	}
	return Rotation(r.Quat)
}

// FromScene converts a whole transform.
func FromScene(t scene.Transform) Transform {
	return Transform{
		Location: Position(t.Position),
		Rotation: RotationOf(t.Rotation),
		Scale:    Scale(t.Scale),
	}
}

// Vegetation converts one vegetation placement. Angle turns the instance
// about the vertical axis; with Y mirrored the turn reverses direction.
func Vegetation(inst scene.VegetationInstance) Transform {
	return Transform{
		Location: Position(inst.Position),
		Rotation: Rotator{Yaw: clean(-inst.Angle)},
		Scale:    mgl64.Vec3{inst.Scale, inst.Scale, inst.Scale},
	}
}

// SourceQuat rebuilds the w-first source quaternion a rotator came from.
func SourceQuat(r Rotator) mgl64.Quat {
	roll := mgl64.DegToRad(r.Pitch)
	pitch := mgl64.DegToRad(-r.Yaw)
	yaw := mgl64.DegToRad(-r.Roll)
	return mgl64.AnglesToQuat(yaw, pitch, roll, mgl64.ZYX)
}

// SourcePosition undoes Position.
func SourcePosition(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{p[0] / UnitScale, -p[1] / UnitScale, p[2] / UnitScale}
}

// ParsePosition converts a "x,y,z" attribute, defaulting to the origin.
func ParsePosition(s string) mgl64.Vec3 {
	p, err := scene.ParseVec3(s)
	if err != nil {
		return mgl64.Vec3{}
	}
	return Position(p)
}

// ParseRotation converts a "w,x,y,z" attribute, defaulting to identity.
func ParseRotation(s string) Rotator {
	q, err := scene.ParseQuat(s)
	if err != nil {
		return Rotator{}
	}
	return Rotation(q)
}

// ParseScale converts a "x,y,z" attribute, defaulting to unit scale.
func ParseScale(s string) mgl64.Vec3 {
	v, err := scene.ParseVec3(s)
	if err != nil {
		return mgl64.Vec3{1, 1, 1}
	}
	return Scale(v)
}

// clean folds negative zero into zero so equal transforms print the same.
func clean(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}
