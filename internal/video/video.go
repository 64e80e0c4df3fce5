// Package video produces the simulated video analysis and content ideas
// shown by the Videos section.
package video

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"

	"sanctuary/internal/logging"
)

var (
	// ErrMissingInput is returned when neither a URL nor a transcription is given.
	ErrMissingInput = errors.New("URL do vídeo ou transcrição não fornecida para análise")

	// ErrEmptyTopic is returned for a blank idea topic.
	ErrEmptyTopic = errors.New("tópico não fornecido para gerar ideias")
)

// Request is the input of Analyze.
type Request struct {
	VideoURL      string `json:"videoUrl"`
	Transcription string `json:"transcription"`
}

// Analysis is the simulated analysis of a video.
type Analysis struct {
	Title         string   `json:"title"`
	Duration      string   `json:"duration"`
	KeyHighlights []string `json:"keyHighlights"`
	Sentiment     string   `json:"sentiment"`
	Keywords      []string `json:"keywords"`
}

// Analyze returns the simulated analysis for req.
func Analyze(req Request) (*Analysis, error) {
	if req.VideoURL == "" && req.Transcription == "" {
		return nil, ErrMissingInput
	}

	a := &Analysis{
		Title:    "Título do Vídeo (Simulado)",
		Duration: "5:30",
		KeyHighlights: []string{
			"Ponto Principal 1",
			"Ponto Principal 2 (based on transcription)",
			"Ponto Principal 3",
		},
		Sentiment: "Positivo (Simulado)",
		Keywords:  []string{"vídeo", "análise", "simulação"},
	}

	switch {
	case req.VideoURL != "":
		a.Title = fmt.Sprintf("Análise de Vídeo: %s...", prefix(req.VideoURL, 30))
	case req.Transcription != "":
		a.KeyHighlights = append(a.KeyHighlights,
			fmt.Sprintf("Início da Transcrição: %s...", prefix(req.Transcription, 50)))
	}

	logging.Video("Analyzed video (url=%t, transcription_chars=%d)", req.VideoURL != "", len(req.Transcription))
	return a, nil
}

var ideaTemplates = []string{
	`Tutorial completo sobre "%s" para iniciantes.`,
	`5 dicas avançadas para dominar "%s".`,
	`Os maiores erros ao lidar com "%s" e como evitá-los.`,
	`Entrevista com um especialista em "%s".`,
	`Desvendando os mitos sobre "%s".`,
}

// Idea count bounds.
const (
	MinIdeas = 2
	MaxIdeas = 4
)

// Ideas returns between MinIdeas and MaxIdeas video ideas for topic, in
// template order. rng picks the count; nil uses the global source.
func Ideas(topic string, rng *rand.Rand) ([]string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}

	span := MaxIdeas - MinIdeas + 1
	var n int
	if rng != nil {
		n = MinIdeas + rng.Intn(span)
	} else {
		n = MinIdeas + rand.Intn(span)
	}

	ideas := make([]string, n)
	for i := range ideas {
		ideas[i] = fmt.Sprintf(ideaTemplates[i], topic)
	}

	logging.Video("Generated %d ideas for topic %q", n, topic)
	return ideas, nil
}

func prefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
