package sphere

import (
	"fmt"
	"math"
)

// HitKind tells what a pick hit.
type HitKind string

const (
	HitSector HitKind = "sector"
	HitNiche  HitKind = "niche"
)

// Hit is the nearest object under a ray.
type Hit struct {
	Kind     HitKind `json:"kind"`
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Point    Vec3    `json:"point"`
	Tooltip  string  `json:"tooltip"`
}

// same reports whether h and o refer to the same object.
func (h *Hit) same(o *Hit) bool {
	if h == nil || o == nil {
		return h == o
	}
	return h.Kind == o.Kind && h.ID == o.ID
}

func sectorTooltip(name string, active, total int) string {
	return fmt.Sprintf("%s\n%d/%d ativo(s)", name, active, total)
}

func nicheTooltip(m MicroNiche) string {
	return fmt.Sprintf("%s\nSigla: %s\nStatus: %s", m.Name, m.Sigla, m.Status)
}

// intersectBox returns the distance along r to an oriented box, using the
// slab method in the box's local frame.
func intersectBox(r Ray, center Vec3, basis Basis, size Vec3) (float64, bool) {
	o := basis.toLocal(r.Origin.Sub(center))
	d := basis.toLocal(r.Dir)
	half := size.Scale(0.5)

	tmin, tmax := math.Inf(-1), math.Inf(1)
	for _, ax := range [3][3]float64{
		{o.X, d.X, half.X},
		{o.Y, d.Y, half.Y},
		{o.Z, d.Z, half.Z},
	} {
		origin, dir, h := ax[0], ax[1], ax[2]
		if math.Abs(dir) < 1e-12 {
			if origin < -h || origin > h {
				return 0, false
			}
			continue
		}
		t1 := (-h - origin) / dir
		t2 := (h - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}

	switch {
	case tmin >= 0:
		return tmin, true
	case tmax >= 0:
		return tmax, true // origin inside the box
	default:
		return 0, false
	}
}

// intersectSphere returns the distance along r to a sphere.
func intersectSphere(r Ray, center Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Dir)
	c := oc.Dot(oc) - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	if t := -b - sq; t >= 0 {
		return t, true
	}
	if t := -b + sq; t >= 0 {
		return t, true
	}
	return 0, false
}

// pickSectors returns the nearest sector hit by r.
func pickSectors(r Ray, nodes []SectorNode) (*Hit, bool) {
	var best *Hit
	for _, n := range nodes {
		t, ok := intersectBox(r, n.Position, n.Orientation, n.Size)
		if !ok || (best != nil && t >= best.Distance) {
			continue
		}
		best = &Hit{
			Kind:     HitSector,
			ID:       n.Sector.ID,
			Name:     n.Sector.Name,
			Distance: t,
			Point:    r.At(t),
			Tooltip:  n.Tooltip(),
		}
	}
	return best, best != nil
}

// pickNiches returns the nearest niche hit by r. Connectors are not pickable.
func pickNiches(r Ray, nodes []NicheNode) (*Hit, bool) {
	var best *Hit
	for _, n := range nodes {
		t, ok := intersectSphere(r, n.Position, n.Radius)
		if !ok || (best != nil && t >= best.Distance) {
			continue
		}
		best = &Hit{
			Kind:     HitNiche,
			ID:       n.Niche.ID,
			Name:     n.Niche.Name,
			Distance: t,
			Point:    r.At(t),
			Tooltip:  n.Tooltip(),
		}
	}
	return best, best != nil
}
