package convert

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-foundry/levelport/scene"
)

const tolerance = 1e-3

func TestRotationFixture(t *testing.T) {
	r := ParseRotation("0.90630782,0.42261824,0,0")
	assert.InDelta(t, 50.0, r.Pitch, tolerance)
	assert.InDelta(t, 0.0, r.Yaw, tolerance)
	assert.InDelta(t, 0.0, r.Roll, tolerance)
}

func TestRotationAxisRemap(t *testing.T) {
	half := mgl64.DegToRad(30) / 2
	// 30° about source Y becomes -30° yaw.
	r := Rotation(mgl64.Quat{W: math.Cos(half), V: mgl64.Vec3{0, math.Sin(half), 0}})
	assert.InDelta(t, 0.0, r.Pitch, tolerance)
	assert.InDelta(t, -30.0, r.Yaw, tolerance)
	assert.InDelta(t, 0.0, r.Roll, tolerance)

	// 30° about source Z becomes -30° roll.
	r = Rotation(mgl64.Quat{W: math.Cos(half), V: mgl64.Vec3{0, 0, math.Sin(half)}})
	assert.InDelta(t, 0.0, r.Pitch, tolerance)
	assert.InDelta(t, 0.0, r.Yaw, tolerance)
	assert.InDelta(t, -30.0, r.Roll, tolerance)
}

func TestRotationIdentityHasNoNegativeZero(t *testing.T) {
	r := Rotation(mgl64.QuatIdent())
	require.Equal(t, Rotator{}, r)
	assert.False(t, math.Signbit(r.Yaw))
	assert.False(t, math.Signbit(r.Roll))
}

func TestRotationClampsPitch(t *testing.T) {
	// Non-unit input pushes sin(pitch) past 1.
	r := Rotation(mgl64.Quat{W: 2, V: mgl64.Vec3{0, 2, 0}})
	assert.False(t, math.IsNaN(r.Yaw))
	assert.InDelta(t, -90.0, r.Yaw, tolerance)

	r = Rotation(mgl64.Quat{W: 1, V: mgl64.Vec3{0, -1, 0}})
	assert.InDelta(t, 90.0, r.Yaw, tolerance)
}

func TestRotationFiniteAndInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		q := mgl64.Quat{W: rng.Float64()*20 - 10, V: mgl64.Vec3{rng.Float64()*20 - 10, rng.Float64()*20 - 10, rng.Float64()*20 - 10}}
		r := Rotation(q)
		for _, v := range []float64{r.Pitch, r.Yaw, r.Roll} {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite for %v: %+v", q, r)
			require.LessOrEqual(t, math.Abs(v), 180.0, "out of range for %v: %+v", q, r)
		}
	}
}

func TestRotationHugeComponents(t *testing.T) {
	for _, s := range []string{"1e200,1e200,1e200,1e200", "1e155,1e155,-1e155,1e155", "-1e300,0,1e300,0"} {
		q, err := scene.ParseQuat(s)
		require.NoError(t, err)
		r := Rotation(q)
		for _, v := range []float64{r.Pitch, r.Yaw, r.Roll} {
			require.False(t, math.IsNaN(v) || math.IsInf(v, 0), "non-finite for %s: %+v", s, r)
			require.LessOrEqual(t, math.Abs(v), 180.0, "out of range for %s: %+v", s, r)
		}
	}
	// Rescaling keeps the direction: a huge 50 degree X rotation still reads 50.
	q, err := scene.ParseQuat("0.90630782e200,0.42261824e200,0,0")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, Rotation(q).Pitch, 1e-3)
}

func TestEulerRotation(t *testing.T) {
	r := EulerRotation(scene.Euler{Roll: 10, Pitch: 20, Yaw: 30})
	assert.Equal(t, Rotator{Pitch: 10, Yaw: -20, Roll: -30}, r)
	assert.Equal(t, r, RotationOf(scene.EulerRotation(scene.Euler{Roll: 10, Pitch: 20, Yaw: 30})))

	wrapped := EulerRotation(scene.Euler{Roll: 370, Pitch: -200, Yaw: 540})
	assert.InDelta(t, 10.0, wrapped.Pitch, 1e-9)
	assert.InDelta(t, -160.0, wrapped.Yaw, 1e-9)
	assert.InDelta(t, 180.0, math.Abs(wrapped.Roll), 1e-9)
}

func TestPosition(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{100, -200, 300}, ParsePosition("1.0,2.0,3.0"))
	assert.Equal(t, mgl64.Vec3{}, ParsePosition("abc"))
	assert.False(t, math.Signbit(Position(mgl64.Vec3{0, 0, 0})[1]))
	assert.Equal(t, mgl64.Vec3{1, 2, 3}, SourcePosition(Position(mgl64.Vec3{1, 2, 3})))
}

func TestScale(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{2, 3, 4}, ParseScale("2,3,4"))
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, ParseScale("2,3"))
}

func TestFromScene(t *testing.T) {
	q, err := scene.ParseQuat("0.90630782,0.42261824,0,0")
	require.NoError(t, err)
	got := FromScene(scene.Transform{
		Position: mgl64.Vec3{1, 2, 3},
		Rotation: scene.QuatRotation(q),
		Scale:    mgl64.Vec3{1, 2, 1},
	})
	assert.Equal(t, mgl64.Vec3{100, -200, 300}, got.Location)
	assert.InDelta(t, 50.0, got.Rotation.Pitch, tolerance)
	assert.Equal(t, mgl64.Vec3{1, 2, 1}, got.Scale)
}

func TestVegetation(t *testing.T) {
	got := Vegetation(scene.VegetationInstance{Position: mgl64.Vec3{1, 1, 0}, Scale: 1.5, Angle: 45})
	assert.Equal(t, mgl64.Vec3{100, -100, 0}, got.Location)
	assert.Equal(t, Rotator{Yaw: -45}, got.Rotation)
	assert.Equal(t, mgl64.Vec3{1.5, 1.5, 1.5}, got.Scale)
	// Deterministic for identical input.
	assert.Equal(t, got, Vegetation(scene.VegetationInstance{Position: mgl64.Vec3{1, 1, 0}, Scale: 1.5, Angle: 45}))
}

func TestSourceQuatSingleAxis(t *testing.T) {
	for _, r := range []Rotator{{Pitch: 50}, {Yaw: -30}, {Roll: 75}} {
		back := Rotation(SourceQuat(r))
		assert.InDelta(t, r.Pitch, back.Pitch, tolerance, "%+v", r)
		assert.InDelta(t, r.Yaw, back.Yaw, tolerance, "%+v", r)
		assert.InDelta(t, r.Roll, back.Roll, tolerance, "%+v", r)
	}
	q := SourceQuat(Rotator{Pitch: 50})
	assert.InDelta(t, 0.90630782, q.W, tolerance)
	assert.InDelta(t, 0.42261824, q.V[0], tolerance)
}

func BenchmarkRotation(b *testing.B) {
	q := mgl64.Quat{W: 0.90630782, V: mgl64.Vec3{0.42261824, 0, 0}}
	for i := 0; i < b.N; i++ {
		_ = Rotation(q)
	}
}
