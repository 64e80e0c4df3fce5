package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sanctuary/internal/assistant"
	"sanctuary/internal/chat"
)

// ChatService runs the Control Zone chat.
type ChatService interface {
	Send(ctx context.Context, session, message string) (*chat.Entry, error)
	History(ctx context.Context, session string) ([]chat.Entry, error)
	Rate(ctx context.Context, f chat.Feedback) (*chat.Feedback, error)
	Backend() string
}

// ContentAssistant generates content and workflow plans.
type ContentAssistant interface {
	Content(ctx context.Context, topic, kind string) (*assistant.Result, error)
	Workflow(ctx context.Context, objective string) (*assistant.Result, error)
}

var (
	errChatUnavailable      = errors.New("chat indisponível")
	errAssistantUnavailable = errors.New("assistente indisponível")
)

type chatRequest struct {
	Session string `json:"session"`
	Message string `json:"message"`
}

func (s *Server) postChat(c *gin.Context) {
	if s.opts.Chat == nil {
		respondError(c, http.StatusServiceUnavailable, errChatUnavailable)
		return
	}
	var req chatRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	entry, err := s.opts.Chat.Send(c.Request.Context(), req.Session, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		requestLogger(c).Error("Chat failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) getChatHistory(c *gin.Context) {
	if s.opts.Chat == nil {
		respondError(c, http.StatusServiceUnavailable, errChatUnavailable)
		return
	}
	session := c.Query("session")
	entries, err := s.opts.Chat.History(c.Request.Context(), session)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	if session == "" {
		session = chat.DefaultSession
	}
	c.JSON(http.StatusOK, gin.H{"session": session, "history": entries})
}

func (s *Server) postChatFeedback(c *gin.Context) {
	if s.opts.Chat == nil {
		respondError(c, http.StatusServiceUnavailable, errChatUnavailable)
		return
	}
	var req chat.Feedback
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	fb, err := s.opts.Chat.Rate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidFeedback) || errors.Is(err, chat.ErrMissingResponse) {
			respondError(c, http.StatusBadRequest, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

type contentGenRequest struct {
	Topic string `json:"topic"`
	Kind  string `json:"kind"`
}

func (s *Server) postContent(c *gin.Context) {
	if s.opts.Assistant == nil {
		respondError(c, http.StatusServiceUnavailable, errAssistantUnavailable)
		return
	}
	var req contentGenRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := s.opts.Assistant.Content(c.Request.Context(), req.Topic, req.Kind)
	s.respondAssistant(c, res, err)
}

type workflowRequest struct {
	Objective string `json:"objective"`
}

func (s *Server) postWorkflow(c *gin.Context) {
	if s.opts.Assistant == nil {
		respondError(c, http.StatusServiceUnavailable, errAssistantUnavailable)
		return
	}
	var req workflowRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := s.opts.Assistant.Workflow(c.Request.Context(), req.Objective)
	s.respondAssistant(c, res, err)
}

func (s *Server) respondAssistant(c *gin.Context, res *assistant.Result, err error) {
	switch {
	case err == nil:
		c.JSON(http.StatusOK, res)
	case errors.Is(err, assistant.ErrEmptyTopic),
		errors.Is(err, assistant.ErrInvalidKind),
		errors.Is(err, assistant.ErrEmptyObjective):
		respondError(c, http.StatusBadRequest, err)
	default:
		requestLogger(c).Error("Assistant failed: %v", err)
		respondError(c, http.StatusInternalServerError, err)
	}
}

type dataRequest struct {
	Data     string `json:"data"`
	DataType string `json:"dataType"`
}

func (s *Server) postAnalyzeData(c *gin.Context) {
	var req dataRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := assistant.Analyze(req.Data, req.DataType)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) postPrepareLLM(c *gin.Context) {
	var req dataRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	out, err := assistant.PrepareForLLM(req.Data)
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prepared": out})
}
