package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"sanctuary/internal/logging"
	"sanctuary/internal/sphere"
)

// getMarketSphere returns the sector layout, or the niche layout of the
// sector named by the "sector" query parameter.
func (s *Server) getMarketSphere(c *gin.Context) {
	scene, err := sphere.NewScene(s.currentMarket(), parseAspect(c.Query("aspect")))
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if id := c.Query("sector"); id != "" {
		if err := scene.ShowSector(id); err != nil {
			respondError(c, http.StatusNotFound, err)
			return
		}
	}
	c.JSON(http.StatusOK, scene.Snapshot())
}

// putMarketSphere replaces the market data shown by the sphere.
func (s *Server) putMarketSphere(c *gin.Context) {
	var data sphere.MarketData
	if err := bindJSON(c, &data); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	scene, err := sphere.NewScene(&data, 0)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	s.SetMarket(&data)
	c.JSON(http.StatusOK, scene.Snapshot())
}

// SetMarket replaces the market data shown by the sphere. data must be valid.
func (s *Server) SetMarket(data *sphere.MarketData) {
	s.marketMu.Lock()
	s.market = data
	s.marketMu.Unlock()
	logging.Sphere("Market data replaced: %d sectors", len(data.Sectors))
}

type pickRequest struct {
	View     sphere.View  `json:"view"`
	SectorID string       `json:"sectorId"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Aspect   float64      `json:"aspect"`
	Camera   *sphere.Vec3 `json:"camera,omitempty"`
	Click    bool         `json:"click"`
}

type pickResponse struct {
	View     sphere.View      `json:"view"`
	Hit      *sphere.Hit      `json:"hit"`
	Snapshot *sphere.Snapshot `json:"snapshot,omitempty"`
}

// postPick resolves the object under a pointer in normalized device
// coordinates. A click on a sector opens its niche view.
func (s *Server) postPick(c *gin.Context) {
	var req pickRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.X < -1 || req.X > 1 || req.Y < -1 || req.Y > 1 {
		respondError(c, http.StatusBadRequest, errors.New("coordenadas fora do intervalo [-1, 1]"))
		return
	}

	scene, err := sphere.NewScene(s.currentMarket(), req.Aspect)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	switch req.View {
	case "", sphere.ViewSectors:
	case sphere.ViewNiches:
		if strings.TrimSpace(req.SectorID) == "" {
			respondError(c, http.StatusBadRequest, errors.New("sectorId é obrigatório na visão de nichos"))
			return
		}
		if err := scene.ShowSector(req.SectorID); err != nil {
			respondError(c, http.StatusNotFound, err)
			return
		}
	default:
		respondError(c, http.StatusBadRequest, fmt.Errorf("visão desconhecida: %q", req.View))
		return
	}
	if req.Camera != nil {
		scene.MoveCamera(*req.Camera)
	}

	resp := pickResponse{}
	resp.Hit, _ = scene.PickAt(req.X, req.Y)
	if req.Click {
		if sector, ok := scene.Click(req.X, req.Y); ok {
			requestLogger(c).Info("Sector %s selected", sector.ID)
			logging.AuditWithRequest(requestLogger(c).RequestID()).SectorSelected(sector.ID, len(sector.MicroNiches))
			snap := scene.Snapshot()
			resp.Snapshot = &snap
		}
	}
	resp.View = scene.View()
	c.JSON(http.StatusOK, resp)
}

func parseAspect(s string) float64 {
	a, err := strconv.ParseFloat(s, 64)
	if err != nil || a <= 0 {
		return 0
	}
	return a
}
