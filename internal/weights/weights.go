// Package weights holds the influence weights ("lógica") that shape mind
// map scoring and the SEO and video factors, and persists them.
package weights

import (
	"context"
	"sort"
)

// DocumentName is the key the weights are stored under in every backend.
const DocumentName = "influence_weights"

// Group names.
const (
	GroupMindMapLevels = "mapa_mental_niveis"
	GroupSEOFactors    = "seo_factores"
	GroupVideoFactors  = "video_factores"
)

// MissingWeight is used for a level whose key is absent.
const MissingWeight = 0.1

// levelKeys maps mind map depth to its weight key. Deeper levels reuse the last key.
var levelKeys = []string{
	"nivel_0_principal",
	"nivel_1_filhos",
	"nivel_2_netos",
	"nivel_3_bisnetos",
}

// Weights is a nested map group -> key -> weight.
type Weights map[string]map[string]float64

// Defaults returns a fresh copy of the built-in weights.
func Defaults() Weights {
	return Weights{
		GroupMindMapLevels: {
			"nivel_0_principal": 1.0,
			"nivel_1_filhos":    0.7,
			"nivel_2_netos":     0.4,
			"nivel_3_bisnetos":  0.2,
		},
		GroupSEOFactors: {
			"relevancia_conteudo": 0.9,
			"qualidade_backlinks": 0.8,
			"velocidade_site":     0.6,
		},
		GroupVideoFactors: {
			"engajamento":             0.8,
			"retencao_audiencia":      0.9,
			"densidade_palavra_chave": 0.5,
		},
	}
}

// Clone returns a deep copy of w.
func (w Weights) Clone() Weights {
	if w == nil {
		return nil
	}
	out := make(Weights, len(w))
	for g, kv := range w {
		inner := make(map[string]float64, len(kv))
		for k, v := range kv {
			inner[k] = v
		}
		out[g] = inner
	}
	return out
}

// Merge overlays patch onto base group by group and returns the result.
// Keys absent from patch keep their base value. Neither input is mutated.
func Merge(base, patch Weights) Weights {
	out := base.Clone()
	if out == nil {
		out = Weights{}
	}
	for g, kv := range patch {
		inner, ok := out[g]
		if !ok {
			inner = make(map[string]float64, len(kv))
			out[g] = inner
		}
		for k, v := range kv {
			inner[k] = v
		}
	}
	return out
}

// LevelWeight returns the mind map weight for a node at depth level.
func (w Weights) LevelWeight(level int) float64 {
	if level < 0 {
		level = 0
	}
	if level >= len(levelKeys) {
		level = len(levelKeys) - 1
	}
	v, ok := w[GroupMindMapLevels][levelKeys[level]]
	if !ok {
		return MissingWeight
	}
	return v
}

// Factor returns w[group][key] and whether it is set.
func (w Weights) Factor(group, key string) (float64, bool) {
	v, ok := w[group][key]
	return v, ok
}

// Groups returns the group names in sorted order.
func (w Weights) Groups() []string {
	out := make([]string, 0, len(w))
	for g := range w {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Store persists weights.
type Store interface {
	// Load returns the stored weights. found is false when nothing was saved yet.
	Load(ctx context.Context) (w Weights, found bool, err error)

	// Save merges w into the stored document.
	Save(ctx context.Context, w Weights) error

	// Name identifies the backend in logs.
	Name() string
}
