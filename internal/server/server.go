// Package server exposes the API Gateway handler over a long-running gin
// HTTP server for local development and container deployments.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// EventHandler is satisfied by handler.Handler.
type EventHandler interface {
	Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

type Options struct {
	Addr            string
	AllowedOrigins  []string
	RateLimitPerMin int
	Development     bool
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

func New(h EventHandler, opts Options) (*Server, error) {
	if h == nil {
		return nil, errors.New("server: handler must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	corsCfg := corsConfig(opts.AllowedOrigins)
	if err := corsCfg.Validate(); err != nil {
		return nil, fmt.Errorf("server: cors: %w", err)
	}
	if opts.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(recovery(logger))
	r.Use(cors.New(corsCfg))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Every other path is served by the event handler, which owns routing
	// and its own 404/405 responses.
	chain := []gin.HandlerFunc{}
	if opts.RateLimitPerMin > 0 {
		chain = append(chain, rateLimit(newLimiterStore(opts.RateLimitPerMin), logger))
	}
	chain = append(chain, serveEvent(h, logger))
	r.NoRoute(chain...)

	return &Server{
		engine: r,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Correlation-Id"}
	cfg.ExposeHeaders = []string{"X-Correlation-Id"}
	cfg.AllowAllOrigins = len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic serving request",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Internal server error",
			"code":    "INTERNAL_ERROR",
		})
	})
}

// serveEvent converts the gin request into an API Gateway proxy event and
// writes the handler's response back.
func serveEvent(h EventHandler, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := toEvent(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"message": "Request body too large",
				"code":    "INVALID_INPUT",
			})
			return
		}
		resp, err := h.Handle(c.Request.Context(), req)
		if err != nil {
			logger.Error("event handler failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Internal server error",
				"code":    "INTERNAL_ERROR",
			})
			return
		}
		writeEvent(c, resp)
	}
}

func toEvent(c *gin.Context) (events.APIGatewayProxyRequest, error) {
	var body []byte
	if c.Request.Body != nil {
		b, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			return events.APIGatewayProxyRequest{}, fmt.Errorf("server: read body: %w", err)
		}
		if len(b) > maxBodyBytes {
			return events.APIGatewayProxyRequest{}, errors.New("server: body too large")
		}
		body = b
	}

	headers := make(map[string]string, len(c.Request.Header))
	for k := range c.Request.Header {
		headers[k] = c.Request.Header.Get(k)
	}
	query := make(map[string]string)
	for k, v := range c.Request.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod:            c.Request.Method,
		Path:                  c.Request.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			Identity: events.APIGatewayRequestIdentity{SourceIP: c.ClientIP()},
		},
	}, nil
}

func writeEvent(c *gin.Context, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		c.Writer.Header().Set(k, v)
	}
	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		if decoded, err := base64.StdEncoding.DecodeString(resp.Body); err == nil {
			body = decoded
		}
	}
	c.Status(resp.StatusCode)
	if len(body) > 0 {
		_, _ = c.Writer.Write(body)
	}
}
