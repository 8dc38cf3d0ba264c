package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"yashubustudio/surveyencoder/encoder"
)

// EncodeRequest carries one or more raw survey responses.
type EncodeRequest struct {
	Responses []encoder.Response `json:"responses" binding:"required"`
}

// EncodeResponse is the encoded feature table of a request. Missing numeric
// cells are null.
type EncodeResponse struct {
	BatchID string         `json:"batchId"`
	Columns []string       `json:"columns"`
	Rows    [][]*float64   `json:"rows"`
	Report  encoder.Report `json:"report"`
}

// Handler handles HTTP requests
type Handler struct {
	svc    *encoder.Service
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc *encoder.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/:task")
	{
		api.GET("/schema", h.Schema)
		api.POST("/encode", h.Encode)
		api.POST("/predict", h.Predict)
	}

	r.GET("/health", h.HealthCheck)
}

// NewEngine builds a gin engine with the handler's routes.
func NewEngine(h *Handler, mode string) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	h.RegisterRoutes(r)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, engine *gin.Engine, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// HealthCheck reports liveness and which models are attached.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"models": gin.H{
			string(encoder.TaskClassification): h.svc.HasScorer(encoder.TaskClassification),
			string(encoder.TaskRegression):     h.svc.HasScorer(encoder.TaskRegression),
		},
	})
}

// Schema returns the feature columns of a task and, for fixed coding, the
// gender codes.
func (h *Handler) Schema(c *gin.Context) {
	enc, err := h.svc.Encoder(encoder.Task(c.Param("task")))
	if err != nil {
		h.fail(c, err)
		return
	}
	body := gin.H{
		"task":         enc.Task(),
		"features":     enc.Schema(),
		"genderCoding": enc.Options().GenderCoding,
	}
	// Batch coding derives codes per request; they are reported with each
	// encoded batch instead.
	if enc.Options().GenderCoding == encoder.GenderCodingFixed {
		body["genderCodes"] = encoder.FixedGenderCodes()
		body["genderCodesVersion"] = encoder.GenderCodesVersion
	}
	c.JSON(http.StatusOK, body)
}

// Encode handles feature encoding of a batch
func (h *Handler) Encode(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	table, report, err := h.svc.Encode(c.Request.Context(), encoder.Task(c.Param("task")), req.Responses)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, EncodeResponse{
		BatchID: report.BatchID,
		Columns: table.Columns,
		Rows:    encoder.NullableRows(table.Rows),
		Report:  report,
	})
}

// Predict handles encoding plus model scoring of a batch
func (h *Handler) Predict(c *gin.Context) {
	var req EncodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task := encoder.Task(c.Param("task"))
	if _, err := h.svc.Encoder(task); err != nil {
		h.fail(c, err)
		return
	}
	if !h.svc.HasScorer(task) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no model configured for " + string(task)})
		return
	}
	pred, err := h.svc.Predict(c.Request.Context(), task, req.Responses)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pred)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, encoder.ErrUnknownTask):
		return http.StatusNotFound
	case errors.Is(err, encoder.ErrUnrecognizedValue),
		errors.Is(err, encoder.ErrMissingField),
		errors.Is(err, encoder.ErrInvalidValue):
		return http.StatusUnprocessableEntity
	case errors.Is(err, encoder.ErrSchemaMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
