package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/observability"
	"github.com/insightdelivered/statement-analyzer/internal/service"
	"github.com/insightdelivered/statement-analyzer/internal/writer"
)

// AnalyzeResponse is the JSON response from the /api/analyze endpoint.
type AnalyzeResponse struct {
	Success      bool                   `json:"success"`
	Error        string                 `json:"error,omitempty"`
	ID           string                 `json:"id,omitempty"`
	Kind         models.DocumentKind    `json:"kind,omitempty"`
	Dialect      models.Dialect         `json:"dialect,omitempty"`
	Result       *models.AnalysisResult `json:"result,omitempty"`
	Transactions []models.Transaction   `json:"transactions"`
	Count        int                    `json:"count"`
	CSV          string                 `json:"csv,omitempty"`
	Version      string                 `json:"version,omitempty"`
	Diagnostics  *models.Diagnostics    `json:"diagnostics,omitempty"`
}

// HealthResponse is returned by /api/health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Engine  string                 `json:"engine"`
	Stored  int                    `json:"stored"`
	Stats   observability.Snapshot `json:"stats"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Service   *service.Analyzer
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Version   string
	StaticDir string

	// MaxUploadBytes caps the size of a single uploaded file.
	MaxUploadBytes int64
}

// NewApp creates a fiber app with the handler's routes and error handling.
func (h *Handler) NewApp() *fiber.App {
	limit := int(h.MaxUploadBytes)
	if limit <= 0 {
		limit = 32 << 20
	}
	app := fiber.New(fiber.Config{
		AppName:               "statement-analyzer",
		BodyLimit:             limit,
		DisableStartupMessage: true,
		ErrorHandler:          h.handleError,
	})
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(h.requestLogger)

	app.Post("/api/analyze", h.HandleAnalyze)
	app.Get("/api/analyses/:id", h.HandleGetAnalysis)
	app.Get("/api/health", h.HandleHealth)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	// Serve React static files
	if h.StaticDir != "" && staticExists(h.StaticDir) {
		app.Static("/", h.StaticDir)
		// For SPA: serve index.html for non-file routes
		app.Get("/*", func(c *fiber.Ctx) error {
			if strings.HasPrefix(c.Path(), "/api/") {
				return fiber.ErrNotFound
			}
			return c.SendFile(filepath.Join(h.StaticDir, "index.html"))
		})
	}
}

// HandleHealth reports liveness plus a summary of the counters.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.Version,
		Engine:  "fiber",
	}
	if h.Metrics != nil {
		resp.Stats = h.Metrics.Snapshot()
	}
	if h.Service != nil {
		resp.Stored = h.Service.StoredCount()
	}
	return c.JSON(resp)
}

// HandleAnalyze accepts a multipart upload in form field "file" or pasted
// statement text in form field "text". Optional fields: "kind" overrides the
// document kind, "header=false" drops CSV metadata rows and "debug=true"
// includes parse diagnostics.
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	up, err := h.readUpload(c)
	if err != nil {
		return err
	}
	debug := c.FormValue("debug") == "true"
	includeHeader := c.FormValue("header") != "false"

	stored, diag, err := h.Service.AnalyzeUpload(c.UserContext(), up)
	if err != nil {
		var none *models.ErrNoTransactions
		if errors.As(err, &none) && debug {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(AnalyzeResponse{
				Success:      false,
				Error:        err.Error(),
				Transactions: []models.Transaction{},
				Diagnostics:  diag,
			})
		}
		return err
	}

	// Ensure transactions is never nil (nil marshals to JSON null, not [])
	txns := stored.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := csvWriter.Write(&csvBuf, writer.Export{Dialect: stored.Dialect, Result: stored.Result, Transactions: txns}); err != nil {
		return fmt.Errorf("CSV generation failed: %w", err)
	}

	resp := AnalyzeResponse{
		Success:      true,
		ID:           stored.ID,
		Kind:         stored.Kind,
		Dialect:      stored.Dialect,
		Result:       stored.Result,
		Transactions: txns,
		Count:        len(txns),
		CSV:          csvBuf.String(),
		Version:      h.Version,
	}
	if debug {
		resp.Diagnostics = diag
	}
	return c.JSON(resp)
}

// HandleGetAnalysis returns a previously stored analysis.
func (h *Handler) HandleGetAnalysis(c *fiber.Ctx) error {
	stored, ok := h.Service.Get(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "analysis not found or expired")
	}
	return c.JSON(AnalyzeResponse{
		Success:      true,
		ID:           stored.ID,
		Kind:         stored.Kind,
		Dialect:      stored.Dialect,
		Result:       stored.Result,
		Transactions: stored.Transactions,
		Count:        len(stored.Transactions),
		Version:      h.Version,
	})
}

func (h *Handler) readUpload(c *fiber.Ctx) (service.Upload, error) {
	var up service.Upload
	if k := c.FormValue("kind"); k != "" {
		kind, ok := models.ParseKind(k)
		if !ok {
			return up, &models.ErrUnsupportedKind{Kind: models.DocumentKind(k)}
		}
		up.Kind = kind
	}

	if text := c.FormValue("text"); strings.TrimSpace(text) != "" {
		if up.Kind == "" {
			up.Kind = models.KindTabularDocument
		}
		up.Data = []byte(text)
		return up, nil
	}

	header, err := c.FormFile("file")
	if err != nil {
		return up, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file' or 'text'.")
	}
	if h.MaxUploadBytes > 0 && header.Size > h.MaxUploadBytes {
		return up, fiber.NewError(fiber.StatusRequestEntityTooLarge, "Uploaded file is too large.")
	}
	f, err := header.Open()
	if err != nil {
		return up, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return up, fmt.Errorf("read upload: %w", err)
	}
	up.Filename = header.Filename
	up.Data = data
	return up, nil
}

// handleError writes the JSON error response for err.
func (h *Handler) handleError(c *fiber.Ctx, err error) error {
	status, msg := statusOf(err)
	return c.Status(status).JSON(AnalyzeResponse{
		Success:      false,
		Error:        msg,
		Transactions: []models.Transaction{},
	})
}

// statusOf maps domain errors to an HTTP status and client message.
func statusOf(err error) (int, string) {
	var (
		fe          *fiber.Error
		unsupported *models.ErrUnsupportedKind
		empty       *models.ErrEmptyInput
		none        *models.ErrNoTransactions
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.As(err, &unsupported):
		return fiber.StatusBadRequest, err.Error()
	case errors.As(err, &empty), errors.As(err, &none), errors.Is(err, service.ErrUnreadable):
		return fiber.StatusUnprocessableEntity, err.Error()
	}
	return fiber.StatusInternalServerError, "Internal server error."
}

func (h *Handler) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status, _ = statusOf(err)
	}
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	}
	logger := h.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	switch {
	case status >= 500:
		logger.Error("request failed", append(fields, zap.Error(err))...)
	case status >= 400:
		logger.Warn("request rejected", append(fields, zap.Error(err))...)
	default:
		logger.Debug("request", fields...)
	}
	return err
}

// staticExists reports whether dir holds an index.html to serve.
func staticExists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil
}
