package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sanctuary/internal/chat"
	"sanctuary/internal/perception"
)

func TestChat(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/chat", `{"session": "ana", "message": "olá"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var entry chat.Entry
	decode(t, w, &entry)
	assert.Equal(t, "ana", entry.Session)
	assert.Equal(t, "IA responde: olá", entry.AIResponse)

	var turns []perception.Turn
	f.chat.ChatFunc = func(ctx context.Context, system string, got []perception.Turn) (string, error) {
		turns = got
		return "segunda resposta", nil
	}
	w = f.do(t, http.MethodPost, "/api/chat", `{"session": "ana", "message": "e agora?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, turns, 3)
	assert.Equal(t, perception.RoleModel, turns[1].Role)

	w = f.do(t, http.MethodGet, "/api/chat/historico?session=ana", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Session string       `json:"session"`
		History []chat.Entry `json:"history"`
	}
	decode(t, w, &hist)
	assert.Equal(t, "ana", hist.Session)
	require.Len(t, hist.History, 2)
	assert.Equal(t, "e agora?", hist.History[1].UserMessage)

	w = f.do(t, http.MethodGet, "/api/chat/historico", "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &hist)
	assert.Equal(t, chat.DefaultSession, hist.Session)
	assert.Empty(t, hist.History)
	assert.Contains(t, w.Body.String(), `"history":[]`)
}

func TestChat_Errors(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/chat", `{"message": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/chat", `{"message": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.chat.ChatFunc = func(ctx context.Context, system string, turns []perception.Turn) (string, error) {
		return "", errors.New("quota")
	}
	w = f.do(t, http.MethodPost, "/api/chat", `{"message": "oi"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	f.chat.ChatFunc = func(ctx context.Context, system string, turns []perception.Turn) (string, error) {
		return "", perception.ErrNoCandidates
	}
	w = f.do(t, http.MethodPost, "/api/chat", `{"message": "oi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), chat.FallbackReply)

	f.srv.opts.Chat = nil
	for _, req := range []struct{ method, path, body string }{
		{http.MethodPost, "/api/chat", `{"message": "oi"}`},
		{http.MethodGet, "/api/chat/historico", ""},
		{http.MethodPost, "/api/chat/feedback", `{"aiResponse": "x", "feedbackType": "like"}`},
	} {
		w = f.do(t, req.method, req.path, req.body)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, req.path)
	}
}

func TestChatFeedback(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/chat/feedback",
		`{"session": "ana", "userMessage": "oi", "aiResponse": "olá", "feedbackType": "like"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var fb chat.Feedback
	decode(t, w, &fb)
	assert.Equal(t, "like", fb.FeedbackType)
	assert.False(t, fb.Timestamp.IsZero())

	stored, err := f.store.Feedback(context.Background(), "ana")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	w = f.do(t, http.MethodPost, "/api/chat/feedback", `{"aiResponse": "olá", "feedbackType": "love"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(t, http.MethodPost, "/api/chat/feedback", `{"feedbackType": "dislike"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentAndWorkflow(t *testing.T) {
	f := newFixture(t)
	var prompts []string
	f.llm.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "resultado", nil
	}

	w := f.do(t, http.MethodPost, "/api/gerar-conteudo", `{"topic": "café", "kind": "idea"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"text":"resultado"`)
	assert.Contains(t, prompts[0], `Gere um lista de ideias sobre "café".`)

	w = f.do(t, http.MethodPost, "/api/planejar-workflow", `{"objective": "abrir uma loja"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasSuffix(prompts[1], "Objetivo: abrir uma loja"))
	assert.Contains(t, prompts[1], "Módulo do Santuário AI")

	for _, tc := range []struct{ path, body string }{
		{"/api/gerar-conteudo", `{"topic": ""}`},
		{"/api/gerar-conteudo", `{"topic": "x", "kind": "poem"}`},
		{"/api/planejar-workflow", `{}`},
	} {
		w = f.do(t, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
	}

	f.llm.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("quota")
	}
	w = f.do(t, http.MethodPost, "/api/gerar-conteudo", `{"topic": "café"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	f.srv.opts.Assistant = nil
	w = f.do(t, http.MethodPost, "/api/planejar-workflow", `{"objective": "x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalyzeData(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/analisar-dados", `{"data": "um dois um", "dataType": "text"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Words       int      `json:"words"`
		UniqueWords int      `json:"uniqueWords"`
		Keys        []string `json:"keys"`
		Summary     string   `json:"summary"`
	}
	decode(t, w, &res)
	assert.Equal(t, 3, res.Words)
	assert.Equal(t, 2, res.UniqueWords)

	w = f.do(t, http.MethodPost, "/api/analisar-dados", `{"data": "{\"b\": 1, \"a\": 2}", "dataType": "json"}`)
	require.Equal(t, http.StatusOK, w.Code)
	res.Keys = nil
	decode(t, w, &res)
	assert.Equal(t, []string{"b", "a"}, res.Keys)

	for _, body := range []string{
		`{"data": "{", "dataType": "json"}`,
		`{"data": "", "dataType": "text"}`,
		`{"data": "x", "dataType": "csv"}`,
	} {
		w = f.do(t, http.MethodPost, "/api/analisar-dados", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestPrepareLLM(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/preparar-llm", `{"data": "texto bruto"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "[PROCESSADO PARA LLM]: texto bruto...")

	w = f.do(t, http.MethodPost, "/api/preparar-llm", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
