package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateCode(t *testing.T) {
	tests := []struct {
		file, code, want string
	}{
		{"App.jsx", "function App() { return <div/> }", "Simulação: React componente renderizado com sucesso."},
		{"util.js", "const x = 1", "Simulação: Código JavaScript/JSX analisado."},
		{"main.py", "from flask import Flask", "Simulação: Flask rodando na porta 5000."},
		{"main.py", "print('oi')", "Simulação: Código Python analisado."},
		{"README.md", "# título", "Simulação: Visualização do arquivo de texto."},
		{"notas.txt", "", "Simulação: Visualização do arquivo de texto."},
		{"style.css", "body{}", "Simulação: Arquivo style.css processado."},
		{"Makefile", "", "Simulação: Arquivo Makefile processado."},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, SimulateCode(tt.file, tt.code))
		})
	}
}

func TestMockBackend_Routes(t *testing.T) {
	b := NewMockBackend(0)
	ctx := context.Background()

	resp, err := b.Do(ctx, "get", "/api/status", nil)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "Backend Flask rodando normalmente.", resp.Data)

	payload := map[string]interface{}{"nome": "teste"}
	resp, err = b.Do(ctx, "POST", "/api/enviar", payload)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Dados recebidos com sucesso.", data["mensagem"])
	assert.Equal(t, payload, data["recebidos"])

	resp, err = b.Do(ctx, "POST", "/api/status", nil)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.Status)
}

func TestMockBackend_Latency(t *testing.T) {
	b := NewMockBackend(20 * time.Millisecond)
	start := time.Now()
	_, err := b.Do(context.Background(), "GET", "/api/status", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMockBackend_Cancelled(t *testing.T) {
	b := NewMockBackend(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := b.Do(ctx, "GET", "/api/status", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	cancelled, cancel2 := context.WithCancel(context.Background())
	cancel2()
	_, err = NewMockBackend(0).Do(cancelled, "GET", "/api/status", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
