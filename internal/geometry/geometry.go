package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// Distance: евклидово расстояние между положениями объектов.
func Distance(a, b domain.Object) float64 {
	return r3.Norm(r3.Sub(a.Position(), b.Position()))
}

// AxisDistanceZ: расстояние по оси Z (|a.z - b.z|).
func AxisDistanceZ(a, b domain.Object) float64 {
	return math.Abs(a.Position().Z - b.Position().Z)
}

// Inverse возвращает обратный поворот.
// Для единичного кватерниона это сопряжение.
func Inverse(r r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Conj(quat.Number(r)))
}

// Compose возвращает поворот "сначала b, затем a".
func Compose(a, b r3.Rotation) r3.Rotation {
	return r3.Rotation(quat.Mul(quat.Number(a), quat.Number(b)))
}

// Yaw: поворот вокруг оси Z на угол heading.
func Yaw(heading float64) r3.Rotation {
	return r3.NewRotation(heading, r3.Vec{Z: 1})
}

// Pitch: поворот вокруг оси Y.
func Pitch(angle float64) r3.Rotation {
	return r3.NewRotation(angle, r3.Vec{Y: 1})
}

// Roll: поворот вокруг оси X.
func Roll(angle float64) r3.Rotation {
	return r3.NewRotation(angle, r3.Vec{X: 1})
}

// Components возвращает первые dims компонент вектора.
func Components(v r3.Vec, dims int) []float64 {
	if dims == 2 {
		return []float64{v.X, v.Y}
	}
	return []float64{v.X, v.Y, v.Z}
}

// VecFrom собирает вектор из 2 или 3 компонент; пустой срез: нулевой вектор.
func VecFrom(c []float64) (r3.Vec, error) {
	switch len(c) {
	case 0:
		return r3.Vec{}, nil
	case 2:
		return r3.Vec{X: c[0], Y: c[1]}, nil
	case 3:
		return r3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
	default:
		return r3.Vec{}, fmt.Errorf("%w: got %d", ErrInvalidVector, len(c))
	}
}
