// Package mindmap turns free text into a scored concept tree using the
// language model and the current influence weights.
package mindmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"sanctuary/internal/logging"
	"sanctuary/internal/perception"
	"sanctuary/internal/usage"
	"sanctuary/internal/weights"
)

// Influence score bounds.
const (
	MinInfluence = 0.05
	MaxInfluence = 1.0

	// DefaultRelevance stands in for a node without relevance_score.
	DefaultRelevance = 0.1

	rawPreviewRunes = 200

	// slowGeneration marks model calls worth a performance warning.
	slowGeneration = 20 * time.Second
)

var (
	// ErrEmptyContent is returned for blank input text.
	ErrEmptyContent = errors.New("conteúdo de texto para mapa mental não fornecido")

	// ErrLLM wraps failures of the model call.
	ErrLLM = errors.New("erro interno ao gerar mapa")

	// ErrNoContent wraps model replies without usable text.
	ErrNoContent = errors.New("LLM não retornou conteúdo válido")
)

// DecodeError reports model output that could not be parsed as a mind map.
type DecodeError struct {
	Raw string // at most 200 runes of the reply
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("erro ao processar JSON do LLM. Resposta bruta: '%s'...", e.Raw)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Score is a relevance score. Models sometimes quote numbers, so it
// decodes from a JSON number or a numeric string.
type Score float64

// UnmarshalJSON accepts 0.8 and "0.8".
func (s *Score) UnmarshalJSON(b []byte) error {
	text := strings.TrimSpace(string(b))
	if text == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid relevance_score %s", string(b))
	}
	*s = Score(v)
	return nil
}

// Node is one concept of the map.
type Node struct {
	Node           string  `json:"node"`
	RelevanceScore *Score  `json:"relevance_score,omitempty"`
	InfluenceScore float64 `json:"influence_score"`
	Children       []*Node `json:"children,omitempty"`
}

// Relevance returns the relevance score or DefaultRelevance when unset.
func (n *Node) Relevance() float64 {
	if n.RelevanceScore == nil {
		return DefaultRelevance
	}
	return float64(*n.RelevanceScore)
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// WeightSource supplies the current influence weights.
type WeightSource interface {
	Current() weights.Weights
}

// Generator builds mind maps.
type Generator struct {
	llm     perception.LLMClient
	weights WeightSource
}

// NewGenerator creates a generator.
func NewGenerator(llm perception.LLMClient, ws WeightSource) *Generator {
	return &Generator{llm: llm, weights: ws}
}

// Generate asks the model for a concept tree of content and scores it.
func (g *Generator) Generate(ctx context.Context, content string) (*Node, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if g.llm == nil {
		return nil, fmt.Errorf("%w: %w", ErrLLM, perception.ErrNoAPIKey)
	}

	timer := logging.StartTimer(logging.CategoryMindMap, "Generate")
	defer timer.StopWithThreshold(slowGeneration)

	raw, err := g.llm.Complete(usage.WithOperation(ctx, "mindmap"), BuildPrompt(content))
	if err != nil {
		logging.MindMapError("LLM call failed: %v", err)
		if errors.Is(err, perception.ErrNoCandidates) || errors.Is(err, perception.ErrNoContent) {
			return nil, fmt.Errorf("%w: %w", ErrNoContent, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrLLM, err)
	}

	var root Node
	if err := perception.ParseJSON(perception.ExtractJSON(raw), &root); err != nil {
		logging.MindMapError("JSON decode failed: %v (raw=%q)", err, raw)
		return nil, &DecodeError{Raw: truncateRunes(raw, rawPreviewRunes), Err: err}
	}
	if strings.TrimSpace(root.Node) == "" {
		return nil, &DecodeError{Raw: truncateRunes(raw, rawPreviewRunes), Err: errors.New("root node has no name")}
	}

	ApplyInfluence(&root, g.weights.Current())
	logging.MindMap("Generated mind map %q with %d nodes", root.Node, root.Count())
	return &root, nil
}

// ApplyInfluence sets InfluenceScore on every node of the tree:
// round2(relevance * level weight), clamped to [MinInfluence, MaxInfluence].
func ApplyInfluence(root *Node, w weights.Weights) {
	applyInfluence(root, w, 0)
}

func applyInfluence(n *Node, w weights.Weights, level int) {
	if n == nil {
		return
	}
	n.InfluenceScore = InfluenceScore(n.Relevance(), w.LevelWeight(level))
	for _, c := range n.Children {
		applyInfluence(c, w, level+1)
	}
}

// InfluenceScore combines a relevance and a level weight.
func InfluenceScore(relevance, levelWeight float64) float64 {
	s := math.Round(relevance*levelWeight*100) / 100
	return math.Max(MinInfluence, math.Min(MaxInfluence, s))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
