package sphere

import "math"

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (a Vec3) Add(b Vec3) Vec3         { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3         { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3    { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64      { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) Length() float64         { return math.Sqrt(a.Dot(a)) }
func (a Vec3) Distance(b Vec3) float64 { return a.Sub(b).Length() }

// Cross returns a × b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// Normalize returns a unit vector, or the zero vector for zero input.
func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// Basis is an orthonormal frame. Axes are the local +X, +Y and +Z in world space.
type Basis struct {
	X Vec3 `json:"x"`
	Y Vec3 `json:"y"`
	Z Vec3 `json:"z"`
}

var worldUp = Vec3{0, 1, 0}

// lookAtBasis orients an object at pos so its +Z axis points at target.
// When the direction is parallel to up, a slightly perturbed direction is
// used to pick the X axis.
func lookAtBasis(pos, target, up Vec3) Basis {
	z := target.Sub(pos).Normalize()
	if z == (Vec3{}) {
		return Basis{X: Vec3{1, 0, 0}, Y: Vec3{0, 1, 0}, Z: Vec3{0, 0, 1}}
	}
	x := up.Cross(z)
	if x.Length() < 1e-9 {
		if math.Abs(up.Z) == 1 {
			z.X += 1e-4
		} else {
			z.Z += 1e-4
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return Basis{X: x, Y: y, Z: z}
}

// toLocal expresses world vector v in basis coordinates.
func (b Basis) toLocal(v Vec3) Vec3 {
	return Vec3{v.Dot(b.X), v.Dot(b.Y), v.Dot(b.Z)}
}
