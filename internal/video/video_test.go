package video

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	_, err := Analyze(Request{})
	assert.ErrorIs(t, err, ErrMissingInput)

	a, err := Analyze(Request{VideoURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, "Análise de Vídeo: https://www.youtube.com/watch?...", a.Title)
	assert.Len(t, a.KeyHighlights, 3)
	assert.Equal(t, "5:30", a.Duration)

	tr := strings.Repeat("ç", 60)
	a, err = Analyze(Request{Transcription: tr})
	require.NoError(t, err)
	assert.Equal(t, "Título do Vídeo (Simulado)", a.Title)
	require.Len(t, a.KeyHighlights, 4)
	assert.Equal(t, "Início da Transcrição: "+strings.Repeat("ç", 50)+"...", a.KeyHighlights[3])

	// URL wins: no transcription highlight.
	a, err = Analyze(Request{VideoURL: "u", Transcription: "t"})
	require.NoError(t, err)
	assert.Equal(t, "Análise de Vídeo: u...", a.Title)
	assert.Len(t, a.KeyHighlights, 3)
}

func TestIdeas(t *testing.T) {
	_, err := Ideas("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyTopic)

	seen := map[int]bool{}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		ideas, err := Ideas("SEO", rng)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(ideas), MinIdeas)
		require.LessOrEqual(t, len(ideas), MaxIdeas)
		assert.Equal(t, `Tutorial completo sobre "SEO" para iniciantes.`, ideas[0])
		assert.Equal(t, `5 dicas avançadas para dominar "SEO".`, ideas[1])
		seen[len(ideas)] = true
	}
	assert.Len(t, seen, 3, "every count between 2 and 4 occurs")

	ideas, err := Ideas(" vídeo ", nil)
	require.NoError(t, err)
	assert.Contains(t, ideas[0], `"vídeo"`)
}
