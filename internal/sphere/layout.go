package sphere

import (
	"math"
)

// Layout constants.
const (
	SectorRadius = 2.0
	NicheRadius  = 1.5

	NicheSphereRadius = 0.08
)

// SectorBoxSize is the box extent of a sector (width, height, depth).
var SectorBoxSize = Vec3{0.4, 0.4, 0.15}

var goldenRatio = (1 + math.Sqrt(5)) / 2

// FibonacciPoint returns point i of n spread over a sphere of the given
// radius. Y is up; theta is measured from +Z towards +X.
func FibonacciPoint(i, n int, radius float64) Vec3 {
	phi := math.Acos(1 - 2*(float64(i)+0.5)/float64(n))
	theta := 2 * math.Pi * (float64(i) + 0.5) / goldenRatio
	return FromSpherical(radius, phi, theta)
}

// FromSpherical converts spherical coordinates (polar angle phi from +Y,
// azimuth theta) to cartesian.
func FromSpherical(radius, phi, theta float64) Vec3 {
	sinPhi := math.Sin(phi)
	return Vec3{
		X: radius * sinPhi * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Cos(theta),
	}
}

// SectorNode is a laid out sector box.
type SectorNode struct {
	Sector      Sector `json:"sector"`
	Position    Vec3   `json:"position"`
	Orientation Basis  `json:"orientation"`
	Size        Vec3   `json:"size"`
	Color       Color  `json:"color"`
	Active      int    `json:"active"`
	Total       int    `json:"total"`
}

// Tooltip is the hover text of the sector.
func (n SectorNode) Tooltip() string {
	return sectorTooltip(n.Sector.Name, n.Active, n.Total)
}

// Segment is a line between two points.
type Segment struct {
	From Vec3 `json:"from"`
	To   Vec3 `json:"to"`
}

// NicheNode is a laid out micro-niche sphere.
type NicheNode struct {
	Niche     MicroNiche `json:"niche"`
	Position  Vec3       `json:"position"`
	Radius    float64    `json:"radius"`
	Color     Color      `json:"color"`
	Connector Segment    `json:"connector"`
}

// Tooltip is the hover text of the niche.
func (n NicheNode) Tooltip() string {
	return nicheTooltip(n.Niche)
}

// LayoutSectors places one box per sector on the outer sphere, each facing
// the origin.
func LayoutSectors(data *MarketData) []SectorNode {
	if data == nil {
		return nil
	}
	n := len(data.Sectors)
	nodes := make([]SectorNode, 0, n)
	for i, s := range data.Sectors {
		pos := FibonacciPoint(i, n, SectorRadius)
		nodes = append(nodes, SectorNode{
			Sector:      s,
			Position:    pos,
			Orientation: lookAtBasis(pos, Vec3{}, worldUp),
			Size:        SectorBoxSize,
			Color:       SectorColor(s.MicroNiches),
			Active:      s.ActiveCount(),
			Total:       len(s.MicroNiches),
		})
	}
	return nodes
}

// LayoutNiches places one sphere per micro-niche of sector around the
// origin, each joined to it by a connector.
func LayoutNiches(sector Sector) []NicheNode {
	n := len(sector.MicroNiches)
	nodes := make([]NicheNode, 0, n)
	for i, m := range sector.MicroNiches {
		pos := FibonacciPoint(i, n, NicheRadius)
		nodes = append(nodes, NicheNode{
			Niche:     m,
			Position:  pos,
			Radius:    NicheSphereRadius,
			Color:     NicheColor(m),
			Connector: Segment{From: Vec3{}, To: pos},
		})
	}
	return nodes
}
