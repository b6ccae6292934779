// Package server exposes the validation pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/orcafacil/orcafacil/internal/model"
	"github.com/orcafacil/orcafacil/internal/pipeline"
	"github.com/orcafacil/orcafacil/internal/sheet"
	"github.com/orcafacil/orcafacil/internal/store"
	"github.com/orcafacil/orcafacil/internal/validate"
)

// MaxBodyBytes bounds uploaded sheets.
const MaxBodyBytes = 10 << 20

// Config wires a Server.
type Config struct {
	Options pipeline.Options
	// Store is optional; without it /v1/budgets/import answers 503.
	Store    store.Inserter
	Log      zerolog.Logger
	Registry *prometheus.Registry
}

// Server handles the HTTP API.
type Server struct {
	opts     pipeline.Options
	pipeline *pipeline.Pipeline
	store    store.Inserter
	log      zerolog.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	engine   *gin.Engine
}

// New builds a Server and its routes.
func New(cfg Config) *Server {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		opts:     cfg.Options,
		pipeline: pipeline.New(cfg.Options),
		store:    cfg.Store,
		log:      cfg.Log,
		metrics:  NewMetrics(reg),
		registry: reg,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	v1 := r.Group("/v1/budgets")
	{
		v1.POST("/validate", s.handleValidate)
		v1.POST("/import", s.handleImport)
		v1.POST("/export", s.handleExport)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "service": "orcafacil"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

// pipelineFor honours an optional ?strictness= override.
func (s *Server) pipelineFor(c *gin.Context) (*pipeline.Pipeline, bool) {
	q := c.Query("strictness")
	if q == "" {
		return s.pipeline, true
	}
	strictness, err := validate.ParseStrictness(q)
	if err != nil {
		failure(c, http.StatusBadRequest, "nível de rigor inválido", err.Error())
		return nil, false
	}
	opts := s.opts
	opts.Rules.Strictness = strictness
	return pipeline.New(opts), true
}

// readSheet accepts either a multipart "file" field or a raw text body.
func readSheet(c *gin.Context) (string, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("reading form file: %w", err)
		}
		f, err := fh.Open()
		if err != nil {
			return "", fmt.Errorf("opening form file: %w", err)
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("reading form file: %w", err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(data), nil
}

func (s *Server) validate(c *gin.Context) (model.Report, bool) {
	p, ok := s.pipelineFor(c)
	if !ok {
		return model.Report{}, false
	}
	raw, err := readSheet(c)
	if err != nil {
		failure(c, http.StatusBadRequest, "planilha não recebida", err.Error())
		return model.Report{}, false
	}

	start := time.Now()
	report := p.ValidateAndCorrect(raw)
	s.metrics.Observe(report, time.Since(start).Seconds())
	return report, true
}

func (s *Server) handleValidate(c *gin.Context) {
	report, ok := s.validate(c)
	if !ok {
		return
	}
	success(c, http.StatusOK, report)
}

// ImportResult is the payload of /v1/budgets/import.
type ImportResult struct {
	Report model.Report `json:"report"`
	Stored int          `json:"stored"`
}

func (s *Server) handleImport(c *gin.Context) {
	if s.store == nil {
		failure(c, http.StatusServiceUnavailable, "banco de dados não configurado")
		return
	}
	report, ok := s.validate(c)
	if !ok {
		return
	}

	res := ImportResult{Report: report}
	if len(report.Records) > 0 {
		n, err := s.store.InsertMany(c.Request.Context(), report.Records)
		if err != nil {
			s.log.Error().Err(err).Msg("storing budgets")
			failure(c, http.StatusBadGateway, "erro ao gravar os orçamentos", err.Error())
			return
		}
		res.Stored = n
		s.metrics.Stored.Add(float64(n))
	}
	success(c, http.StatusOK, res)
}

// ExportRequest is the body of /v1/budgets/export.
type ExportRequest struct {
	Records  []model.BudgetRecord `json:"records"`
	Findings []model.Finding      `json:"findings,omitempty"`
}

func (s *Server) handleExport(c *gin.Context) {
	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, "corpo inválido", err.Error())
		return
	}

	stamp := time.Now().Format("20060102_150405")
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=orcamentos_%s.csv", stamp))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(s.pipeline.ExportRecords(req.Records)))
	case "xlsx":
		var buf bytes.Buffer
		if err := sheet.WriteXLSX(&buf, req.Records, req.Findings); err != nil {
			failure(c, http.StatusInternalServerError, "erro ao gerar a planilha", err.Error())
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=orcamentos_%s.xlsx", stamp))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	default:
		failure(c, http.StatusBadRequest, "formato não suportado", c.Query("format"))
	}
}
