// Package sections describes the dashboard's sections and tracks which
// one is active.
package sections

import (
	"fmt"
	"sync"
)

// Section is one dashboard view.
type Section struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Endpoints []string `json:"endpoints"`
}

// DefaultID is the section shown at start.
const DefaultID = "sanctuary"

var catalogue = []Section{
	{ID: "sanctuary", Title: "Santuário", Endpoints: []string{"/api/salvar-logica", "/api/carregar-logica"}},
	{ID: "seo", Title: "Análise SEO", Endpoints: []string{"/api/analisar-seo"}},
	{ID: "videos", Title: "Vídeos", Endpoints: []string{"/api/analisar-video", "/api/gerar-ideias-video"}},
	{ID: "mindmap", Title: "Mapas Mentais", Endpoints: []string{"/api/gerar-mapa-mental"}},
	{ID: "control-zone", Title: "Zona de Controle", Endpoints: []string{
		"/api/simular-codigo", "/api/control-zone/request",
		"/api/chat", "/api/chat/historico", "/api/chat/feedback",
	}},
	{ID: "market-sphere", Title: "Esfera do Mercado", Endpoints: []string{"/api/market-sphere", "/api/market-sphere/pick"}},
	{ID: "leo", Title: "Leão: Criação de Conteúdo", Endpoints: []string{"/api/gerar-conteudo"}},
	{ID: "gemini", Title: "Gêmeos: Planejamento de Workflow", Endpoints: []string{"/api/planejar-workflow"}},
	{ID: "virgo", Title: "Virgem: Análise de Dados", Endpoints: []string{"/api/analisar-dados", "/api/preparar-llm"}},
}

// All returns the sections in display order.
func All() []Section {
	out := make([]Section, len(catalogue))
	for i, s := range catalogue {
		s.Endpoints = append([]string(nil), s.Endpoints...)
		out[i] = s
	}
	return out
}

// Lookup finds a section by id.
func Lookup(id string) (Section, bool) {
	for _, s := range All() {
		if s.ID == id {
			return s, true
		}
	}
	return Section{}, false
}

// Selector holds the single active section.
type Selector struct {
	mu     sync.RWMutex
	active string
}

// NewSelector starts on DefaultID.
func NewSelector() *Selector {
	return &Selector{active: DefaultID}
}

// Active returns the active section.
func (s *Selector) Active() Section {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sec, _ := Lookup(s.active)
	return sec
}

// Activate makes id the only active section.
func (s *Selector) Activate(id string) (Section, error) {
	sec, ok := Lookup(id)
	if !ok {
		return Section{}, fmt.Errorf("unknown section: %q", id)
	}
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	return sec, nil
}

// IsActive reports whether id is the active section.
func (s *Selector) IsActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active == id
}
