// Package api exposes the document ingest HTTP surface: a health probe and
// a synchronous single-document processing endpoint.
package api

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medrec/medrec/internal/domain/document"
	"github.com/medrec/medrec/internal/pipeline"
)

// Handler serves the ingest API. When a sink is configured, every processed
// record is also persisted; the response carries the record either way.
type Handler struct {
	orch   *pipeline.Orchestrator
	sink   pipeline.Sink
	logger zerolog.Logger
}

// NewHandler creates the ingest handler. sink may be nil.
func NewHandler(orch *pipeline.Orchestrator, sink pipeline.Sink, logger zerolog.Logger) *Handler {
	return &Handler{orch: orch, sink: sink, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group("/api/v1")
	api.POST("/documents/process", h.ProcessDocument)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// ProcessDocument accepts one document as a multipart "document" part or as
// the raw request body, runs the pipeline on it, and returns the resulting
// record. Processing outcomes are encoded in the record's status, not the
// HTTP status.
func (h *Handler) ProcessDocument(c echo.Context) error {
	name, data, err := h.readDocument(c)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "empty document")
	}

	rec := h.orch.Process(c.Request().Context(), document.New(name, data))

	if h.sink != nil {
		if err := h.sink.Write(c.Request().Context(), rec); err != nil {
			h.logger.Error().Err(err).Str("record", rec.ID.String()).Msg("persist failed")
		}
	}

	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) readDocument(c echo.Context) (string, []byte, error) {
	if fh, err := c.FormFile("document"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return "", nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable document part")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable document part")
		}
		return fh.Filename, data, nil
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return "", nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable request body")
	}
	name := c.Request().Header.Get("X-Document-Name")
	if name == "" {
		name = "upload"
	}
	return name, data, nil
}
