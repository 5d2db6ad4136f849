// Package api exposes the HTTP surface: conversation endpoints with
// background answer completion, and an ingestion trigger.
package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/aoleynikov/bobchat/config"
	"github.com/aoleynikov/bobchat/ingest"
	"github.com/aoleynikov/bobchat/rag"
	"github.com/aoleynikov/bobchat/store"
)

type Server struct {
	cfg          config.Config
	messages     store.MessageStore
	orchestrator *rag.Orchestrator
	pipeline     *ingest.Pipeline
	worker       *rag.Worker
	logger       *log.Logger
	engine       *gin.Engine
}

type messageRequest struct {
	Content     string `json:"content" binding:"required"`
	Participant string `json:"participant"`
}

type messageResponse struct {
	ID          int64  `json:"id"`
	Content     string `json:"content"`
	Participant string `json:"participant"`
	Timestamp   string `json:"timestamp"`
}

type ingestRequest struct {
	Dir string `json:"dir"`
}

type summaryResponse struct {
	FilesProcessed int `json:"filesProcessed"`
	ItemsExtracted int `json:"itemsExtracted"`
	ChunksCreated  int `json:"chunksCreated"`
	ChunksInserted int `json:"chunksInserted"`
}

func New(cfg config.Config, messages store.MessageStore, orchestrator *rag.Orchestrator, pipeline *ingest.Pipeline, worker *rag.Worker, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:          cfg,
		messages:     messages,
		orchestrator: orchestrator,
		pipeline:     pipeline,
		worker:       worker,
		logger:       logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/messages", s.handleListMessages)
	engine.POST("/messages", s.handlePostMessage)
	engine.POST("/ingest", s.handleIngest)

	return engine
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "BobChat API is running"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) handleListMessages(c *gin.Context) {
	messages, err := s.messages.ListAll(c.Request.Context())
	if err != nil {
		s.logger.Printf("list messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	out := make([]messageResponse, len(messages))
	for i, msg := range messages {
		out[i] = toResponse(msg)
	}
	c.JSON(http.StatusOK, out)
}

// handlePostMessage appends the message and hands answer generation to
// the background worker so the request returns immediately. A reader may
// observe the question before its answer appears.
func (s *Server) handlePostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	participant := strings.TrimSpace(req.Participant)
	if participant == "" {
		participant = "user"
	}

	msg, err := s.messages.Append(c.Request.Context(), req.Content, participant)
	if err != nil {
		s.logger.Printf("append message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	s.worker.Submit(s.completeAnswer)

	c.JSON(http.StatusCreated, toResponse(msg))
}

// completeAnswer runs one orchestration over the current history and
// appends the generated answer. Failures and rejections only log; no
// partial answer is ever persisted.
func (s *Server) completeAnswer(ctx context.Context) {
	history, err := s.messages.ListAll(ctx)
	if err != nil {
		s.logger.Printf("background answer: load history: %v", err)
		return
	}

	result, err := s.orchestrator.Answer(ctx, history)
	if err != nil {
		s.logger.Printf("background answer: %v", err)
		return
	}
	if result.Rejected {
		return
	}

	if _, err := s.messages.Append(ctx, result.Answer, "assistant"); err != nil {
		s.logger.Printf("background answer: append: %v", err)
	}
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dir := strings.TrimSpace(req.Dir)
	if dir == "" {
		dir = s.cfg.DataDir
	}

	summary, err := s.pipeline.IngestDirectory(c.Request.Context(), dir)
	if err != nil {
		s.logger.Printf("ingestion failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}

	c.JSON(http.StatusOK, summaryResponse{
		FilesProcessed: summary.FilesProcessed,
		ItemsExtracted: summary.ItemsExtracted,
		ChunksCreated:  summary.ChunksCreated,
		ChunksInserted: summary.ChunksInserted,
	})
}

func toResponse(msg store.Message) messageResponse {
	return messageResponse{
		ID:          msg.ID,
		Content:     msg.Content,
		Participant: msg.Participant,
		Timestamp:   msg.Timestamp.UTC().Format(time.RFC3339),
	}
}
