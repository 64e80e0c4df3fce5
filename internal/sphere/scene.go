package sphere

import (
	"fmt"
	"sync"

	"sanctuary/internal/logging"
)

// View is the visible group of the scene.
type View string

const (
	ViewSectors View = "sectors"
	ViewNiches  View = "niches"
)

// HoverAction tells the client what to do with the tooltip after a move.
type HoverAction string

const (
	HoverNone   HoverAction = "none"   // nothing hovered before or now
	HoverShow   HoverAction = "show"   // entered an object from empty space
	HoverMove   HoverAction = "move"   // still over the same object
	HoverSwitch HoverAction = "switch" // moved directly onto another object
	HoverHide   HoverAction = "hide"   // left the object for empty space
)

// HoverEvent is the result of Hover or Leave.
type HoverEvent struct {
	Action   HoverAction `json:"action"`
	Hit      *Hit        `json:"hit,omitempty"`
	Previous *Hit        `json:"previous,omitempty"`
}

// Scene is the interactive market sphere. Exactly one of the sector group
// and the niche group is visible at a time.
type Scene struct {
	mu       sync.Mutex
	data     *MarketData
	camera   Camera
	view     View
	sectors  []SectorNode
	niches   []NicheNode
	selected string // sector shown in ViewNiches
	hovered  *Hit
}

// NewScene lays out data in ViewSectors.
func NewScene(data *MarketData, aspect float64) (*Scene, error) {
	s := &Scene{camera: NewCamera(aspect)}
	if err := s.Update(data); err != nil {
		return nil, err
	}
	return s, nil
}

// Update validates data, lays out its sectors and returns to ViewSectors.
func (s *Scene) Update(data *MarketData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	s.sectors = LayoutSectors(data)
	s.niches = nil
	s.showSectorsLocked()
	logging.Sphere("Scene updated with %d sectors", len(s.sectors))
	return nil
}

// View returns the visible group.
func (s *Scene) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Camera returns a copy of the camera.
func (s *Scene) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// SetAspect changes the viewport aspect ratio.
func (s *Scene) SetAspect(aspect float64) {
	if aspect <= 0 {
		return
	}
	s.mu.Lock()
	s.camera.Aspect = aspect
	s.mu.Unlock()
}

// MoveCamera orbits the camera to p, clamped to the orbit distance limits.
func (s *Scene) MoveCamera(p Vec3) {
	s.mu.Lock()
	s.camera.SetPosition(p)
	s.mu.Unlock()
}

// SelectedSector returns the sector shown in ViewNiches.
func (s *Scene) SelectedSector() (Sector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view != ViewNiches {
		return Sector{}, false
	}
	return s.data.Sector(s.selected)
}

// Sectors returns the sector layout.
func (s *Scene) Sectors() []SectorNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SectorNode(nil), s.sectors...)
}

// Niches returns the niche layout of the selected sector.
func (s *Scene) Niches() []NicheNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]NicheNode(nil), s.niches...)
}

// Pick returns the nearest object of the visible group hit by r.
func (s *Scene) Pick(r Ray) (*Hit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickLocked(r)
}

func (s *Scene) pickLocked(r Ray) (*Hit, bool) {
	if s.view == ViewNiches {
		return pickNiches(r, s.niches)
	}
	return pickSectors(r, s.sectors)
}

// PickAt picks through normalized device coordinates.
func (s *Scene) PickAt(ndcX, ndcY float64) (*Hit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pickLocked(s.camera.Ray(ndcX, ndcY))
}

// Hover picks at the pointer and reports the tooltip transition from the
// previously hovered object.
func (s *Scene) Hover(ndcX, ndcY float64) HoverEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	hit, _ := s.pickLocked(s.camera.Ray(ndcX, ndcY))
	prev := s.hovered
	s.hovered = hit

	ev := HoverEvent{Hit: hit, Previous: prev}
	switch {
	case hit == nil && prev == nil:
		ev.Action = HoverNone
	case hit == nil:
		ev.Action = HoverHide
	case prev == nil:
		ev.Action = HoverShow
	case hit.same(prev):
		ev.Action = HoverMove
	default:
		ev.Action = HoverSwitch
	}
	return ev
}

// Leave handles the pointer leaving the canvas.
func (s *Scene) Leave() HoverEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.hovered
	s.hovered = nil
	if prev == nil {
		return HoverEvent{Action: HoverNone}
	}
	return HoverEvent{Action: HoverHide, Previous: prev}
}

// Click selects the sector under the pointer and switches to ViewNiches.
// It does nothing in ViewNiches or when no sector is hit.
func (s *Scene) Click(ndcX, ndcY float64) (Sector, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view != ViewSectors {
		return Sector{}, false
	}
	hit, ok := pickSectors(s.camera.Ray(ndcX, ndcY), s.sectors)
	if !ok {
		return Sector{}, false
	}
	sector, _ := s.data.Sector(hit.ID)
	s.showNichesLocked(sector)
	return sector, true
}

// ShowSector switches to ViewNiches for the sector with the given id.
func (s *Scene) ShowSector(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sector, ok := s.data.Sector(id)
	if !ok {
		return fmt.Errorf("unknown sector: %q", id)
	}
	s.showNichesLocked(sector)
	return nil
}

// Back returns to ViewSectors.
func (s *Scene) Back() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showSectorsLocked()
}

func (s *Scene) showNichesLocked(sector Sector) {
	s.view = ViewNiches
	s.selected = sector.ID
	s.niches = LayoutNiches(sector)
	s.hovered = nil
	s.camera.Reset()
	logging.SphereDebug("Showing %d niches of sector %s", len(s.niches), sector.ID)
}

func (s *Scene) showSectorsLocked() {
	s.view = ViewSectors
	s.selected = ""
	s.hovered = nil
	s.camera.Reset()
}

// Snapshot is the serializable state of a scene.
type Snapshot struct {
	View           View         `json:"view"`
	SelectedSector string       `json:"selectedSector,omitempty"`
	Camera         Camera       `json:"camera"`
	Sectors        []SectorNode `json:"sectors"`
	Niches         []NicheNode  `json:"niches,omitempty"`
}

// Snapshot returns the current state.
func (s *Scene) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		View:    s.view,
		Camera:  s.camera,
		Sectors: append([]SectorNode(nil), s.sectors...),
	}
	if s.view == ViewNiches {
		snap.SelectedSector = s.selected
		snap.Niches = append([]NicheNode(nil), s.niches...)
	}
	return snap
}
