package server

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"sanctuary/internal/assistant"
	"sanctuary/internal/chat"
	"sanctuary/internal/embedding"
	"sanctuary/internal/mindmap"
	"sanctuary/internal/perception"
	"sanctuary/internal/seo"
	"sanctuary/internal/simulator"
	"sanctuary/internal/sphere"
	"sanctuary/internal/store"
	"sanctuary/internal/usage"
	"sanctuary/internal/weights"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type mockLLM struct {
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return m.CompleteFunc(ctx, prompt)
}

func (m *mockLLM) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.CompleteFunc(ctx, systemPrompt+"\n"+userPrompt)
}

type mockChat struct {
	ChatFunc func(ctx context.Context, system string, turns []perception.Turn) (string, error)
}

func (m *mockChat) Chat(ctx context.Context, system string, turns []perception.Turn) (string, error) {
	return m.ChatFunc(ctx, system, turns)
}

type memoryWeights struct {
	mu      sync.Mutex
	doc     weights.Weights
	saveErr error
	loadErr error
}

func (m *memoryWeights) Name() string { return "memory" }

func (m *memoryWeights) Load(ctx context.Context) (weights.Weights, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	if m.doc == nil {
		return nil, false, nil
	}
	return m.doc.Clone(), true, nil
}

func (m *memoryWeights) Save(ctx context.Context, w weights.Weights) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.doc = weights.Merge(m.doc, w)
	return nil
}

type fixture struct {
	srv     *Server
	store   *store.Store
	weights *memoryWeights
	llm     *mockLLM
	chat    *mockChat
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := store.Open(":memory:", embedding.NewHashEngine(64))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	ws := &memoryWeights{}
	reg := weights.NewRegistry(ws)
	llm := &mockLLM{CompleteFunc: func(ctx context.Context, prompt string) (string, error) {
		return "```json\n{\"node\": \"Raiz\", \"relevance_score\": 1.0, \"children\": [{\"node\": \"Filho\", \"relevance_score\": 0.5}]}\n```", nil
	}}

	chatLLM := &mockChat{ChatFunc: func(ctx context.Context, system string, turns []perception.Turn) (string, error) {
		return "IA responde: " + turns[len(turns)-1].Text, nil
	}}

	tracker, err := usage.NewTracker(t.TempDir())
	require.NoError(t, err)
	tracker.Track(context.Background(), "test-model", "gemini", 3, 4)

	srv, err := New(Options{
		MaxBodyBytes: 1 << 16,
		SEO:          seo.NewAnalyzer(st, 5),
		MindMap:      mindmap.NewGenerator(llm, reg),
		Weights:      reg,
		Status:       st,
		Backend:      simulator.NewMockBackend(0),
		Usage:        tracker,
		Chat:         chat.NewService(chatLLM, chat.NewSQLiteHistory(st), 10),
		Assistant:    assistant.New(llm),
		Rand:         rand.New(rand.NewSource(1)),
		Model:        "test-model",
	})
	require.NoError(t, err)
	return &fixture{srv: srv, store: st, weights: ws, llm: llm, chat: chatLLM}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
}

func TestRequestIDAndCORS(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	r := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	r.Header.Set(headerRequestID, "abc-123")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, r)
	assert.Equal(t, "abc-123", rec.Header().Get(headerRequestID))

	pre := f.do(t, http.MethodOptions, "/api/analisar-seo", "")
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	r := gin.New()
	r.Use(crossOrigin([]string{"http://localhost:5173/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.InsertDocument(context.Background(), "um documento")
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	decode(t, w, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["documents"])
	assert.Equal(t, "memory", body["weightsBackend"])
	assert.Equal(t, "test-model", body["model"])
	u, ok := body["usage"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), u["total"])
}

func TestAnalyzeSEO(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/analisar-seo", `{"content": "SEO para pequenos negócios"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report seo.Report
	decode(t, w, &report)
	assert.Equal(t, []string{"Doc ID 1"}, report.KeywordDistribution.Labels)
	assert.Equal(t, []float64{100}, report.KeywordDistribution.Datasets[0].Data)
	assert.Equal(t, "4", report.KeyMetrics[0].Value)

	n, err := f.store.CountDocuments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAnalyzeSEO_BadInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty content", `{"content": ""}`},
		{"missing body", ""},
		{"malformed json", `{"content": `},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/api/analisar-seo", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var body map[string]string
			decode(t, w, &body)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMaxBody(t *testing.T) {
	f := newFixture(t)
	big := `{"content": "` + strings.Repeat("a", 1<<17) + `"}`
	w := f.do(t, http.MethodPost, "/api/analisar-seo", big)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMindMap(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/gerar-mapa-mental", `{"content": "texto"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var root mindmap.Node
	decode(t, w, &root)
	assert.Equal(t, "Raiz", root.Node)
	assert.Equal(t, 1.0, root.InfluenceScore)
	require.Len(t, root.Children, 1)
	assert.Equal(t, 0.35, root.Children[0].InfluenceScore)
}

func TestMindMap_Errors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/gerar-mapa-mental", `{"content": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.llm.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "isto não é json", nil
	}
	w = f.do(t, http.MethodPost, "/api/gerar-mapa-mental", `{"content": "texto"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Contains(t, body["error"], "isto não é json")

	f.llm.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", perception.ErrNoCandidates
	}
	w = f.do(t, http.MethodPost, "/api/gerar-mapa-mental", `{"content": "texto"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	decode(t, w, &body)
	assert.Contains(t, body["error"], "LLM não retornou conteúdo válido")
}

func TestMindMap_UsesSavedWeights(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/salvar-logica", `{"logica": {"mapa_mental_niveis": {"nivel_1_filhos": 0.2}}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/gerar-mapa-mental", `{"content": "texto"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var root mindmap.Node
	decode(t, w, &root)
	assert.Equal(t, 0.1, root.Children[0].InfluenceScore)
}

func TestWeights(t *testing.T) {
	f := newFixture(t)

	// Nothing stored yet: defaults.
	w := f.do(t, http.MethodGet, "/api/carregar-logica", "")
	require.Equal(t, http.StatusOK, w.Code)
	var loaded struct {
		Status string          `json:"status"`
		Logica weights.Weights `json:"logica"`
	}
	decode(t, w, &loaded)
	assert.Equal(t, "sucesso", loaded.Status)
	if diff := cmp.Diff(weights.Defaults(), loaded.Logica); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}

	w = f.do(t, http.MethodPost, "/api/salvar-logica", `{"logica": {"seo": {"densidade": 0.4}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var saved map[string]string
	decode(t, w, &saved)
	assert.Equal(t, "sucesso", saved["status"])
	assert.NotEmpty(t, saved["mensagem"])

	w = f.do(t, http.MethodGet, "/api/carregar-logica", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &loaded)
	assert.Equal(t, weights.Weights{"seo": {"densidade": 0.4}}, loaded.Logica)
}

func TestWeights_Errors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/salvar-logica", `{"logica": {"seo": {"densidade": "alta"}}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	decode(t, w, &body)
	assert.Equal(t, "erro", body["status"])

	f.weights.saveErr = errors.New("disco cheio")
	w = f.do(t, http.MethodPost, "/api/salvar-logica", `{"logica": {"seo": {"densidade": 0.4}}}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	decode(t, w, &body)
	assert.Equal(t, "erro", body["status"])
	assert.Contains(t, body["mensagem"], "disco cheio")

	f.weights.loadErr = errors.New("offline")
	w = f.do(t, http.MethodGet, "/api/carregar-logica", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestVideo(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/analisar-video", `{"videoUrl": "https://youtu.be/abc"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var a map[string]interface{}
	decode(t, w, &a)
	assert.Equal(t, "Análise de Vídeo: https://youtu.be/abc...", a["title"])

	w = f.do(t, http.MethodPost, "/api/analisar-video", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/gerar-ideias-video", `{"topic": "Go"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var ideas struct {
		Ideas []string `json:"ideas"`
	}
	decode(t, w, &ideas)
	assert.GreaterOrEqual(t, len(ideas.Ideas), 2)
	assert.LessOrEqual(t, len(ideas.Ideas), 4)

	w = f.do(t, http.MethodPost, "/api/gerar-ideias-video", `{"topic": " "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulate(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/simular-codigo", `{"fileName": "app.py", "code": "from flask import Flask"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var out map[string]string
	decode(t, w, &out)
	assert.Equal(t, "Simulação: Flask rodando na porta 5000.", out["output"])

	w = f.do(t, http.MethodPost, "/api/simular-codigo", `{"code": "x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/control-zone/request", `{"method": "post", "endpoint": "/api/enviar", "body": {"a": 1}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp simulator.Response
	decode(t, w, &resp)
	assert.Equal(t, http.StatusCreated, resp.Status)
}

func TestSections(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/sections", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Sections []struct {
			ID string `json:"id"`
		} `json:"sections"`
		Active string `json:"active"`
	}
	decode(t, w, &body)
	assert.Len(t, body.Sections, 9)
	assert.Equal(t, "sanctuary", body.Active)

	w = f.do(t, http.MethodPost, "/api/sections/active", `{"id": "seo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/api/sections", "")
	decode(t, w, &body)
	assert.Equal(t, "seo", body.Active)

	w = f.do(t, http.MethodPost, "/api/sections/active", `{"id": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarketSphere(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/market-sphere", "")
	require.Equal(t, http.StatusOK, w.Code)
	var snap sphere.Snapshot
	decode(t, w, &snap)
	assert.Equal(t, sphere.ViewSectors, snap.View)
	assert.Len(t, snap.Sectors, len(sphere.DefaultMarketData().Sectors))

	id := sphere.DefaultMarketData().Sectors[0].ID
	w = f.do(t, http.MethodGet, "/api/market-sphere?sector="+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &snap)
	assert.Equal(t, sphere.ViewNiches, snap.View)
	assert.Equal(t, id, snap.SelectedSector)
	assert.NotEmpty(t, snap.Niches)

	w = f.do(t, http.MethodGet, "/api/market-sphere?sector=nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// frontSector returns the sector closest to the default camera and its
// screen position.
func frontSector(t *testing.T) (sphere.SectorNode, float64, float64) {
	t.Helper()
	scene, err := sphere.NewScene(sphere.DefaultMarketData(), 1)
	require.NoError(t, err)

	nodes := scene.Sectors()
	best := nodes[0]
	for _, n := range nodes[1:] {
		if n.Position.Z > best.Position.Z {
			best = n
		}
	}
	x, y, ok := scene.Camera().Project(best.Position)
	require.True(t, ok)
	return best, x, y
}

func TestPick(t *testing.T) {
	f := newFixture(t)
	node, x, y := frontSector(t)

	body, err := json.Marshal(map[string]interface{}{"x": x, "y": y, "aspect": 1})
	require.NoError(t, err)
	w := f.do(t, http.MethodPost, "/api/market-sphere/pick", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp pickResponse
	decode(t, w, &resp)
	require.NotNil(t, resp.Hit)
	assert.Equal(t, sphere.HitSector, resp.Hit.Kind)
	assert.Equal(t, node.Sector.ID, resp.Hit.ID)
	assert.Equal(t, node.Tooltip(), resp.Hit.Tooltip)
	assert.Equal(t, sphere.ViewSectors, resp.View)
	assert.Nil(t, resp.Snapshot)
}

func TestPick_ClickOpensNiches(t *testing.T) {
	f := newFixture(t)
	node, x, y := frontSector(t)

	body, err := json.Marshal(map[string]interface{}{"x": x, "y": y, "aspect": 1, "click": true})
	require.NoError(t, err)
	w := f.do(t, http.MethodPost, "/api/market-sphere/pick", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp pickResponse
	decode(t, w, &resp)
	assert.Equal(t, sphere.ViewNiches, resp.View)
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, node.Sector.ID, resp.Snapshot.SelectedSector)
	assert.Len(t, resp.Snapshot.Niches, len(node.Sector.MicroNiches))
}

func TestPick_EmptySpaceAndErrors(t *testing.T) {
	f := newFixture(t)

	// The corner of the viewport looks past the sphere.
	w := f.do(t, http.MethodPost, "/api/market-sphere/pick", `{"x": 0.99, "y": 0.99}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp pickResponse
	decode(t, w, &resp)
	assert.Nil(t, resp.Hit)

	w = f.do(t, http.MethodPost, "/api/market-sphere/pick", `{"x": 2, "y": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/market-sphere/pick", `{"view": "planetas"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/market-sphere/pick", `{"view": "niches", "sectorId": "nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, body := range []string{`{"view": "niches"}`, `{"view": "niches", "sectorId": "  "}`} {
		w = f.do(t, http.MethodPost, "/api/market-sphere/pick", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "sectorId")
	}
}

func TestPutMarketSphere(t *testing.T) {
	f := newFixture(t)

	data := `{"sectors": [{"id": "s1", "name": "Setor Único", "micro_niches": [{"id": "n1", "name": "Nicho", "sigla": "N", "status": "ativo"}]}]}`
	w := f.do(t, http.MethodPut, "/api/market-sphere", data)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/api/market-sphere", "")
	var snap sphere.Snapshot
	decode(t, w, &snap)
	require.Len(t, snap.Sectors, 1)
	assert.Equal(t, "s1", snap.Sectors[0].Sector.ID)

	w = f.do(t, http.MethodPut, "/api/market-sphere", `{"sectors": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetMarket(t *testing.T) {
	f := newFixture(t)
	f.srv.SetMarket(&sphere.MarketData{Sectors: []sphere.Sector{{ID: "x", Name: "X"}, {ID: "y", Name: "Y"}}})

	w := f.do(t, http.MethodGet, "/api/market-sphere", "")
	var snap sphere.Snapshot
	decode(t, w, &snap)
	require.Len(t, snap.Sectors, 2)
	assert.Equal(t, "x", snap.Sectors[0].Sector.ID)
}

func TestServe_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Post("http://"+ln.Addr().String()+"/api/simular-codigo", "application/json",
		bytes.NewBufferString(`{"fileName": "a.md"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
