package sphere

import "math"

// Camera defaults.
const (
	DefaultFOV      = 75.0
	DefaultNear     = 0.1
	DefaultFar      = 1000.0
	DefaultDistance = 3.5

	// Orbit distance limits.
	MinDistance = 1.5
	MaxDistance = 10.0
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	FOV      float64 `json:"fov"` // vertical, degrees
	Aspect   float64 `json:"aspect"`
	Near     float64 `json:"near"`
	Far      float64 `json:"far"`
	Position Vec3    `json:"position"`
	Target   Vec3    `json:"target"`
	Up       Vec3    `json:"up"`
}

// NewCamera returns the default camera at (0,0,3.5) looking at the origin.
// aspect <= 0 is treated as 1.
func NewCamera(aspect float64) Camera {
	if aspect <= 0 {
		aspect = 1
	}
	return Camera{
		FOV:      DefaultFOV,
		Aspect:   aspect,
		Near:     DefaultNear,
		Far:      DefaultFar,
		Position: Vec3{0, 0, DefaultDistance},
		Target:   Vec3{},
		Up:       worldUp,
	}
}

// Reset moves the camera back to its default position and target.
func (c *Camera) Reset() {
	c.Position = Vec3{0, 0, DefaultDistance}
	c.Target = Vec3{}
}

// SetPosition moves the camera, keeping its distance to Target within
// [MinDistance, MaxDistance].
func (c *Camera) SetPosition(p Vec3) {
	off := p.Sub(c.Target)
	d := off.Length()
	if d == 0 {
		off, d = Vec3{0, 0, 1}, 1
	}
	clamped := math.Max(MinDistance, math.Min(MaxDistance, d))
	c.Position = c.Target.Add(off.Scale(clamped / d))
}

// Ray is a half-line from Origin along unit Dir.
type Ray struct {
	Origin Vec3 `json:"origin"`
	Dir    Vec3 `json:"dir"`
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// frame returns the camera's forward, right and up unit vectors.
func (c Camera) frame() (forward, right, up Vec3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up)
	if right.Length() < 1e-9 {
		right = Vec3{1, 0, 0}
	}
	right = right.Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

// Ray returns the world ray through normalized device coordinates
// (x right, y up, both in [-1, 1]).
func (c Camera) Ray(ndcX, ndcY float64) Ray {
	forward, right, up := c.frame()

	tanHalf := math.Tan(c.FOV * math.Pi / 360)
	dir := forward.
		Add(right.Scale(ndcX * tanHalf * c.Aspect)).
		Add(up.Scale(ndcY * tanHalf))

	return Ray{Origin: c.Position, Dir: dir.Normalize()}
}

// Project maps a world point to normalized device coordinates. ok is false
// for points behind the camera.
func (c Camera) Project(p Vec3) (ndcX, ndcY float64, ok bool) {
	forward, right, up := c.frame()

	rel := p.Sub(c.Position)
	depth := rel.Dot(forward)
	if depth <= 0 {
		return 0, 0, false
	}
	tanHalf := math.Tan(c.FOV * math.Pi / 360)
	ndcX = rel.Dot(right) / (depth * tanHalf * c.Aspect)
	ndcY = rel.Dot(up) / (depth * tanHalf)
	return ndcX, ndcY, true
}
