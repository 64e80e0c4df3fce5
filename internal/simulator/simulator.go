// Package simulator backs the Control Zone: it fakes running an edited file
// and answers requests aimed at a pretend Flask backend.
package simulator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sanctuary/internal/logging"
)

// SimulateCode returns the simulated run output for a file.
func SimulateCode(fileName, code string) string {
	var out string
	switch {
	case strings.HasSuffix(fileName, ".jsx") || strings.HasSuffix(fileName, ".js"):
		if strings.Contains(code, "return") {
			out = "Simulação: React componente renderizado com sucesso."
		} else {
			out = "Simulação: Código JavaScript/JSX analisado."
		}
	case strings.HasSuffix(fileName, ".py"):
		if strings.Contains(code, "Flask") {
			out = "Simulação: Flask rodando na porta 5000."
		} else {
			out = "Simulação: Código Python analisado."
		}
	case strings.HasSuffix(fileName, ".txt") || strings.HasSuffix(fileName, ".md"):
		out = "Simulação: Visualização do arquivo de texto."
	default:
		out = fmt.Sprintf("Simulação: Arquivo %s processado.", fileName)
	}

	logging.Simulator("SimulateCode(%s, %d bytes): %s", fileName, len(code), out)
	return out
}

// DefaultLatency is the artificial delay of MockBackend.
const DefaultLatency = 800 * time.Millisecond

// Response is a MockBackend reply. Data is a string or a JSON object.
type Response struct {
	Status int         `json:"status"`
	Data   interface{} `json:"data"`
}

// MockBackend is the pretend Flask backend of the Control Zone.
type MockBackend struct {
	latency time.Duration
}

// NewMockBackend creates a backend that waits latency before answering.
func NewMockBackend(latency time.Duration) *MockBackend {
	if latency < 0 {
		latency = 0
	}
	return &MockBackend{latency: latency}
}

// Do answers method endpoint after the configured latency, or returns the
// context error if ctx ends first.
func (b *MockBackend) Do(ctx context.Context, method, endpoint string, body interface{}) (*Response, error) {
	if b.latency > 0 {
		t := time.NewTimer(b.latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	method = strings.ToUpper(method)
	var resp *Response
	switch {
	case method == http.MethodGet && endpoint == "/api/status":
		resp = &Response{Status: http.StatusOK, Data: "Backend Flask rodando normalmente."}
	case method == http.MethodPost && endpoint == "/api/enviar":
		resp = &Response{Status: http.StatusCreated, Data: map[string]interface{}{
			"mensagem":  "Dados recebidos com sucesso.",
			"recebidos": body,
		}}
	default:
		resp = &Response{Status: http.StatusNotFound, Data: "Endpoint não encontrado no backend simulado."}
	}

	logging.Simulator("MockBackend %s %s -> %d", method, endpoint, resp.Status)
	return resp, nil
}
