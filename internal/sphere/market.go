// Package sphere lays out the market sphere (sectors on a Fibonacci
// sphere, micro-niches around the selected sector) and resolves pointer
// picking against it.
package sphere

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Micro-niche statuses.
const (
	StatusActive   = "ativo"
	StatusInactive = "inativo"
)

// MicroNiche is a market micro-niche.
type MicroNiche struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Sigla  string `json:"sigla"`
	Status string `json:"status"`
}

// Active reports whether the niche is active.
func (m MicroNiche) Active() bool { return m.Status == StatusActive }

// Sector groups micro-niches.
type Sector struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	MicroNiches []MicroNiche `json:"micro_niches"`
}

// ActiveCount returns the number of active micro-niches.
func (s Sector) ActiveCount() int {
	n := 0
	for _, m := range s.MicroNiches {
		if m.Active() {
			n++
		}
	}
	return n
}

// MarketData is the input of the sphere.
type MarketData struct {
	Sectors []Sector `json:"sectors"`
}

// ErrInvalidData is returned for market data without sectors.
var ErrInvalidData = errors.New("invalid market data")

// Validate checks that d can be laid out.
func (d *MarketData) Validate() error {
	if d == nil || len(d.Sectors) == 0 {
		return fmt.Errorf("%w: no sectors", ErrInvalidData)
	}
	seen := make(map[string]bool, len(d.Sectors))
	for i, s := range d.Sectors {
		if s.ID == "" {
			return fmt.Errorf("%w: sector %d has no id", ErrInvalidData, i)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: duplicate sector id %q", ErrInvalidData, s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Sector returns the sector with the given id.
func (d *MarketData) Sector(id string) (Sector, bool) {
	for _, s := range d.Sectors {
		if s.ID == id {
			return s, true
		}
	}
	return Sector{}, false
}

// DefaultMarketData returns the built-in sectors shown on first load.
func DefaultMarketData() *MarketData {
	return &MarketData{Sectors: []Sector{
		{ID: "setor1", Name: "Saúde e Bem-Estar", MicroNiches: []MicroNiche{
			{ID: "mn1", Name: "Receitas Veganas sem Glúten para Atletas", Sigla: "RVSA", Status: StatusActive},
			{ID: "mn2", Name: "Meditação para Redução de Estresse em Profissionais", Sigla: "MRSP", Status: StatusInactive},
			{ID: "mn3", Name: "Exercícios de Baixo Impacto para Idosos", Sigla: "EBII", Status: StatusActive},
			{ID: "mn4", Name: "Suplementos Naturais para Foco Mental", Sigla: "SNFM", Status: StatusInactive},
			{ID: "mn5", Name: "Yoga para Iniciantes com Problemas de Coluna", Sigla: "YIPC", Status: StatusActive},
		}},
		{ID: "setor2", Name: "Tecnologia", MicroNiches: []MicroNiche{
			{ID: "mn6", Name: "Cursos de Programação para Crianças", Sigla: "CPPC", Status: StatusInactive},
			{ID: "mn7", Name: "Ferramentas de Automação para Pequenas Empresas", Sigla: "FAPE", Status: StatusActive},
			{ID: "mn8", Name: "Desenvolvimento de Apps Low-Code", Sigla: "DALC", Status: StatusActive},
		}},
		{ID: "setor3", Name: "Finanças Pessoais", MicroNiches: []MicroNiche{
			{ID: "mn9", Name: "Investimentos para Iniciantes", Sigla: "IFI", Status: StatusActive},
			{ID: "mn10", Name: "Gestão de Dívidas para Jovens Adultos", Sigla: "GDJA", Status: StatusInactive},
		}},
		{ID: "setor4", Name: "Marketing Digital", MicroNiches: []MicroNiche{
			{ID: "mn11", Name: "SEO Local para Pequenos Negócios", Sigla: "SLPN", Status: StatusActive},
			{ID: "mn12", Name: "Copywriting para E-commerce", Sigla: "CPEC", Status: StatusActive},
			{ID: "mn13", Name: "Automação de Marketing para Afiliados", Sigla: "AMPA", Status: StatusInactive},
		}},
	}}
}

// Color is a 0xRRGGBB colour.
type Color uint32

// Hex formats c as #rrggbb.
func (c Color) Hex() string { return fmt.Sprintf("#%06x", uint32(c)) }

// MarshalText encodes c as #rrggbb.
func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

// UnmarshalText parses #rrggbb.
func (c *Color) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(string(b), "#")
	if len(s) != 6 {
		return fmt.Errorf("invalid color %q", b)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", b, err)
	}
	*c = Color(v)
	return nil
}

// Sector palette.
const (
	SectorRed    Color = 0xe74c3c // no active niches
	SectorGreen  Color = 0x2ecc71 // some active
	SectorBlue   Color = 0x3498db // more than half active
	SectorPurple Color = 0x9b59b6 // all active
)

// Niche palette.
const (
	NicheActive   Color = 0x2ecc71
	NicheInactive Color = 0xe74c3c
)

// HighlyActiveThreshold is the active share above which a sector is blue.
const HighlyActiveThreshold = 0.5

// SectorColor colours a sector by its share of active niches.
func SectorColor(niches []MicroNiche) Color {
	total := len(niches)
	if total == 0 {
		return SectorRed
	}
	active := 0
	for _, m := range niches {
		if m.Active() {
			active++
		}
	}
	switch {
	case active == 0:
		return SectorRed
	case active == total:
		return SectorPurple
	case float64(active)/float64(total) > HighlyActiveThreshold:
		return SectorBlue
	default:
		return SectorGreen
	}
}

// NicheColor colours a micro-niche by status.
func NicheColor(m MicroNiche) Color {
	if m.Active() {
		return NicheActive
	}
	return NicheInactive
}
