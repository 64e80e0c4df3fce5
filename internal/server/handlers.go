package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sanctuary/internal/mindmap"
	"sanctuary/internal/sections"
	"sanctuary/internal/seo"
	"sanctuary/internal/simulator"
	"sanctuary/internal/video"
)

type contentRequest struct {
	Content string `json:"content"`
}

func (s *Server) postSEO(c *gin.Context) {
	var req contentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	report, err := s.opts.SEO.Analyze(c.Request.Context(), req.Content)
	if err != nil {
		if errors.Is(err, seo.ErrEmptyContent) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) postMindMap(c *gin.Context) {
	var req contentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	root, err := s.opts.MindMap.Generate(c.Request.Context(), req.Content)
	if err != nil {
		if errors.Is(err, mindmap.ErrEmptyContent) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		requestLogger(c).Error("Mind map generation failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, root)
}

func (s *Server) postVideo(c *gin.Context) {
	var req video.Request
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	analysis, err := video.Analyze(req)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

type ideasRequest struct {
	Topic string `json:"topic"`
}

func (s *Server) postVideoIdeas(c *gin.Context) {
	var req ideasRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	s.randMu.Lock()
	ideas, err := video.Ideas(req.Topic, s.rng)
	s.randMu.Unlock()
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}

type simulateRequest struct {
	FileName string `json:"fileName"`
	Code     string `json:"code"`
}

func (s *Server) postSimulate(c *gin.Context) {
	var req simulateRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		respondError(c, http.StatusBadRequest, errors.New("nome do arquivo não fornecido"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"output": simulator.SimulateCode(req.FileName, req.Code)})
}

type backendRequest struct {
	Method   string      `json:"method"`
	Endpoint string      `json:"endpoint"`
	Body     interface{} `json:"body"`
}

func (s *Server) postBackendRequest(c *gin.Context) {
	var req backendRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Endpoint == "" {
		respondError(c, http.StatusBadRequest, errors.New("endpoint não fornecido"))
		return
	}

	resp, err := s.opts.Backend.Do(c.Request.Context(), req.Method, req.Endpoint, req.Body)
	if err != nil {
		respondError(c, http.StatusGatewayTimeout, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getSections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sections": sections.All(),
		"active":   s.sections.Active().ID,
	})
}

type activeSectionRequest struct {
	ID string `json:"id"`
}

func (s *Server) postActiveSection(c *gin.Context) {
	var req activeSectionRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	sec, err := s.sections.Activate(req.ID)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": sec})
}

func (s *Server) getStatus(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"uptime":         time.Since(s.started).Round(time.Second).String(),
		"weightsBackend": s.opts.Weights.Backend(),
		"model":          s.opts.Model,
	}
	if s.opts.Usage != nil {
		body["usage"] = s.opts.Usage.Stats().Total
	}
	if s.opts.Chat != nil {
		body["chatBackend"] = s.opts.Chat.Backend()
	}

	if st := s.opts.Status; st != nil {
		ctx := c.Request.Context()
		if err := st.Ping(ctx); err != nil {
			_ = c.Error(err)
			body["status"] = "degraded"
			body["store"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		if n, err := st.CountDocuments(ctx); err == nil {
			body["documents"] = n
		}
		body["vectorExtension"] = st.VectorExtension()
	}
	c.JSON(http.StatusOK, body)
}
