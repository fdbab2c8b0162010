package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/reyhansunduk/efatura-mcp-server/internal/logger"
	"github.com/reyhansunduk/efatura-mcp-server/internal/model"
	"github.com/reyhansunduk/efatura-mcp-server/internal/tools"
)

// Config holds server configuration
type Config struct {
	Address      string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CallTimeout  time.Duration
	Debug        bool
}

// Server exposes the tool registry over HTTP
type Server struct {
	config   *Config
	router   *gin.Engine
	registry *tools.Registry
	gatherer prometheus.Gatherer
	log      *zap.Logger
}

// Option configures the server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// WithGatherer serves the gatherer's metrics on /metrics
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a new API server
func NewServer(config *Config, registry *tools.Registry, opts ...Option) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 2 * time.Minute
	}

	s := &Server{
		config:   config,
		router:   gin.New(),
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(gin.Recovery())
	s.router.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		Logger:          s.log,
		ErrorClassifier: classify,
	}))

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	{
		// Tool endpoints
		v1.GET("/tools", s.handleListTools)
		v1.GET("/tools/:name", s.handleDescribeTool)
		v1.POST("/tools/:name", s.handleCallTool)

		// Invoice endpoints
		v1.GET("/invoices", s.handleListInvoices)
		v1.GET("/invoices/search", s.handleSearchInvoices)
		v1.GET("/invoices/:id", s.handleGetInvoice)
		v1.GET("/invoices/:id/xml", s.handleGetInvoiceXML)
		v1.POST("/invoices", s.handleCreateInvoice)
		v1.POST("/invoices/:id/cancel", s.handleCancelInvoice)

		v1.GET("/tax-numbers/:number", s.handleValidateTaxNumber)
	}
}

// Run starts the HTTP server and stops it when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Mode:    string(s.registry.Mode()),
		Version: s.config.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, ToolsResponse{Tools: s.registry.Tools()})
}

func (s *Server) handleDescribeTool(c *gin.Context) {
	tool, ok := s.registry.Lookup(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown tool: " + c.Param("name")})
		return
	}
	c.JSON(http.StatusOK, tool)
}

func (s *Server) handleCallTool(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(strings.TrimSpace(string(body))) > 0 && !json.Valid(body) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be a JSON object"})
		return
	}
	s.invoke(c, c.Param("name"), body)
}

func (s *Server) handleListInvoices(c *gin.Context) {
	args := map[string]interface{}{}
	for _, key := range []string{"start_date", "end_date"} {
		if v := c.Query(key); v != "" {
			args[key] = v
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
			return
		}
		args["limit"] = limit
	}
	s.invokeArgs(c, tools.ListInvoices, args)
}

func (s *Server) handleSearchInvoices(c *gin.Context) {
	args := map[string]interface{}{}
	for _, key := range []string{"customer_name", "supplier_name", "status"} {
		if v := c.Query(key); v != "" {
			args[key] = v
		}
	}
	for _, key := range []string{"min_amount", "max_amount"} {
		if v := c.Query(key); v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: key + " must be a number"})
				return
			}
			args[key] = d
		}
	}
	s.invokeArgs(c, tools.SearchInvoices, args)
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	s.invokeArgs(c, tools.GetInvoiceDetail, map[string]interface{}{"invoice_id": c.Param("id")})
}

func (s *Server) handleGetInvoiceXML(c *gin.Context) {
	s.invokeArgs(c, tools.GetInvoiceXML, map[string]interface{}{"invoice_id": c.Param("id")})
}

func (s *Server) handleCreateInvoice(c *gin.Context) {
	s.handleCallToolAs(c, tools.CreateInvoice)
}

func (s *Server) handleCancelInvoice(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be a JSON object", Details: err.Error()})
		return
	}
	s.invokeArgs(c, tools.CancelInvoice, map[string]interface{}{
		"invoice_id": c.Param("id"),
		"reason":     req.Reason,
	})
}

func (s *Server) handleValidateTaxNumber(c *gin.Context) {
	s.invokeArgs(c, tools.ValidateTaxNumber, map[string]interface{}{"tax_number": c.Param("number")})
}

func (s *Server) handleCallToolAs(c *gin.Context, name string) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}
	if len(body) == 0 || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "request body must be a JSON object"})
		return
	}
	s.invoke(c, name, body)
}

func (s *Server) invokeArgs(c *gin.Context, name string, args map[string]interface{}) {
	raw, err := json.Marshal(args)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to encode arguments"})
		return
	}
	s.invoke(c, name, raw)
}

func (s *Server) invoke(c *gin.Context, name string, args []byte) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.CallTimeout)
	defer cancel()

	res, err := s.registry.Call(ctx, name, args)
	if errors.Is(err, tools.ErrUnknownTool) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "unknown tool: " + name})
		return
	}
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if res.IsError() {
		_ = c.Error(&callError{kind: res.ErrorKind, message: res.Error})
		status = statusFor(res.ErrorKind)
	}
	c.JSON(status, CallResponse{
		Tool:      res.Tool,
		Mode:      string(s.registry.Mode()),
		Text:      res.Text,
		Data:      res.Data,
		IsError:   res.IsError(),
		ErrorKind: string(res.ErrorKind),
	})
}

// statusFor maps an error kind to the HTTP status returned with the result
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindState:
		return http.StatusConflict
	case model.KindNetwork:
		return http.StatusBadGateway
	case model.KindCredential:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type callError struct {
	kind    model.ErrorKind
	message string
}

func (e *callError) Error() string {
	return e.message
}

func classify(err error) string {
	var ce *callError
	if errors.As(err, &ce) {
		return string(ce.kind)
	}
	return string(model.KindOf(err))
}
