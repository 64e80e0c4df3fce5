package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"sanctuary/internal/weights"
)

type saveWeightsRequest struct {
	Logica weights.Weights `json:"logica"`
}

func (s *Server) postWeights(c *gin.Context) {
	var req saveWeightsRequest
	if err := bindJSON(c, &req); err != nil {
		respondEnvelopeError(c, http.StatusBadRequest, fmt.Sprintf("Erro ao salvar lógica/pesos: %v", err), err)
		return
	}
	if req.Logica == nil {
		req.Logica = weights.Weights{}
	}

	if err := s.opts.Weights.Save(c.Request.Context(), req.Logica); err != nil {
		respondEnvelopeError(c, http.StatusInternalServerError, fmt.Sprintf("Erro ao salvar lógica/pesos: %v", err), err)
		return
	}
	requestLogger(c).Info("Saved %d weight groups", len(req.Logica))
	c.JSON(http.StatusOK, gin.H{
		"status":   statusOK,
		"mensagem": fmt.Sprintf("Lógica/pesos salvos via %s.", s.opts.Weights.Backend()),
	})
}

func (s *Server) getWeights(c *gin.Context) {
	w, err := s.opts.Weights.Reload(c.Request.Context())
	if err != nil {
		respondEnvelopeError(c, http.StatusInternalServerError, fmt.Sprintf("Erro ao carregar lógica/pesos: %v", err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "logica": w})
}
