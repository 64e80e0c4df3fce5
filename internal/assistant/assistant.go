// Package assistant hosts the zodiac assistants of the dashboard: Leo writes
// content, Gemini plans workflows and Virgo inspects raw data.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sanctuary/internal/logging"
	"sanctuary/internal/perception"
	"sanctuary/internal/usage"
)

// Content kinds accepted by Content.
const (
	KindText   = "text"
	KindScript = "script"
	KindIdea   = "idea"
)

// WorkflowPrompt is the system instruction of the workflow planner.
const WorkflowPrompt = `Você é um assistente de IA focado em planejamento e workflow, inspirado na adaptabilidade e comunicação do signo de Gêmeos. Sua tarefa é analisar um objetivo fornecido pelo usuário e sugerir uma sequência lógica de passos, indicando qual "Módulo do Santuário AI" (Virgem para análise de dados, Leão para criação de conteúdo, Aquário para engenharia de sistemas, ou Gêmeos para interação/planejamento) seria mais adequado para cada passo. Seja conciso, use marcadores e foque em um plano de ação claro.

Exemplo de formato de saída:
- Passo 1: [Descrição do passo] (Módulo: [Nome do Módulo])
- Passo 2: [Descrição do passo] (Módulo: [Nome do Módulo])

Agora, por favor, me ajude a planejar o seguinte objetivo:`

const slowGeneration = 20 * time.Second

var (
	// ErrEmptyTopic is returned by Content for a blank topic.
	ErrEmptyTopic = errors.New("insira um tópico para gerar conteúdo")

	// ErrInvalidKind is returned by Content for an unknown kind.
	ErrInvalidKind = errors.New("tipo de conteúdo deve ser 'text', 'script' ou 'idea'")

	// ErrEmptyObjective is returned by Workflow for a blank objective.
	ErrEmptyObjective = errors.New("insira seu objetivo para que Gêmeos possa planejar o workflow")

	// ErrNoReply is returned when the model answered with nothing.
	ErrNoReply = errors.New("não foi possível gerar uma resposta")

	// ErrLLM wraps failures of the model call.
	ErrLLM = errors.New("erro ao consultar a IA")
)

var kindLabels = map[string]string{
	KindText:   "texto descritivo",
	KindScript: "roteiro curto",
	KindIdea:   "lista de ideias",
}

// Result is a generated reply.
type Result struct {
	Kind   string `json:"kind,omitempty"`
	Prompt string `json:"prompt"`
	Text   string `json:"text"`
}

// Assistant runs the model-backed assistants.
type Assistant struct {
	llm perception.LLMClient
}

// New creates an assistant. llm may be nil when no API key is configured.
func New(llm perception.LLMClient) *Assistant {
	return &Assistant{llm: llm}
}

// ContentPrompt builds the generation prompt for topic; kind defaults to text.
func ContentPrompt(topic, kind string) (string, error) {
	if kind == "" {
		kind = KindText
	}
	label, ok := kindLabels[kind]
	if !ok {
		return "", ErrInvalidKind
	}
	return fmt.Sprintf("Gere um %s sobre \"%s\".", label, strings.TrimSpace(topic)), nil
}

// Content generates a descriptive text, a short script or an idea list
// about topic.
func (a *Assistant) Content(ctx context.Context, topic, kind string) (*Result, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, ErrEmptyTopic
	}
	prompt, err := ContentPrompt(topic, kind)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		kind = KindText
	}
	text, err := a.complete(usage.WithOperation(ctx, "content"), "Content", "", prompt)
	if err != nil {
		return nil, err
	}
	logging.Assistant("Generated %s about %q (%d chars)", kind, topic, len(text))
	return &Result{Kind: kind, Prompt: prompt, Text: text}, nil
}

// Workflow plans the steps toward objective and names the module for each.
func (a *Assistant) Workflow(ctx context.Context, objective string) (*Result, error) {
	objective = strings.TrimSpace(objective)
	if objective == "" {
		return nil, ErrEmptyObjective
	}
	prompt := "Objetivo: " + objective
	text, err := a.complete(usage.WithOperation(ctx, "workflow"), "Workflow", WorkflowPrompt, prompt)
	if err != nil {
		return nil, err
	}
	logging.Assistant("Planned workflow for %q (%d chars)", objective, len(text))
	return &Result{Prompt: prompt, Text: text}, nil
}

func (a *Assistant) complete(ctx context.Context, op, system, prompt string) (string, error) {
	if a.llm == nil {
		return "", fmt.Errorf("%w: %w", ErrLLM, perception.ErrNoAPIKey)
	}
	timer := logging.StartTimer(logging.CategoryAssistant, op)
	defer timer.StopWithThreshold(slowGeneration)

	text, err := a.llm.CompleteWithSystem(ctx, system, prompt)
	if errors.Is(err, perception.ErrNoCandidates) || errors.Is(err, perception.ErrNoContent) {
		return "", ErrNoReply
	}
	if err != nil {
		logging.Get(logging.CategoryAssistant).Error("%s call failed: %v", op, err)
		return "", fmt.Errorf("%w: %w", ErrLLM, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoReply
	}
	return text, nil
}
