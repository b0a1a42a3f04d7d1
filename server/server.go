// Package server exposes portfolio valuations over a small JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/elisemercury/pmcalc"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Evaluator produces a fresh valuation. *pmcalc.Engine implements it.
type Evaluator interface {
	Evaluate(ctx context.Context) (*pmcalc.Snapshot, error)
}

// Server serves the latest valuation and runs new ones on demand.
type Server struct {
	evaluator Evaluator
	ledger    *pmcalc.Ledger
	holder    Holder
	logger    *zap.Logger
	router    *gin.Engine
}

// New returns a Server valuing ledger with evaluator.
func New(evaluator Evaluator, ledger *pmcalc.Ledger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		evaluator: evaluator,
		ledger:    ledger,
		logger:    logger,
	}

	r := gin.New()
	r.Use(requestLogger(logger))
	r.Use(errorHandler())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := r.Group("/api")
	api.GET("/ledger", s.getLedger)
	api.GET("/valuation", s.getValuation)
	api.POST("/valuation", s.postValuation)

	s.router = r
	return s
}

// Handler returns the http.Handler of the API, with CORS enabled.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(s.router)
}

// Refresh runs an evaluation and keeps its snapshot if it succeeds.
func (s *Server) Refresh(ctx context.Context) (*pmcalc.Snapshot, error) {
	snap, err := s.evaluator.Evaluate(ctx)
	if err != nil {
		s.holder.Fail(err, time.Now())
		return nil, err
	}
	s.holder.Store(snap)
	return snap, nil
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	}
}

func (s *Server) getLedger(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"currency": s.ledger.Currency(),
		"entries":  s.ledger.Entries(),
	})
}

func (s *Server) getValuation(c *gin.Context) {
	snap, lastErr := s.holder.Latest()
	if snap == nil {
		body := errorBody("NO_VALUATION", "no successful valuation yet, POST /api/valuation to run one")
		if lastErr != nil {
			body["last_error"] = lastErr.Error()
		}
		c.JSON(http.StatusNotFound, body)
		return
	}
	resp := gin.H{"valuation": snap}
	if lastErr != nil {
		// the snapshot is older than the latest, failed, attempt.
		resp["last_error"] = lastErr.Error()
		resp["last_attempt"] = s.holder.LastAttempt()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) postValuation(c *gin.Context) {
	snap, err := s.Refresh(c.Request.Context())
	if err != nil {
		body := errorBody("EVALUATION_FAILED", err.Error())
		var eerr *pmcalc.EvaluationError
		if errors.As(err, &eerr) {
			body["error"].(gin.H)["entry"] = eerr.Entry
		}
		c.JSON(http.StatusBadGateway, body)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valuation": snap})
}

func errorBody(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// errorHandler turns panics into a JSON 500.
func errorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		message := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			message = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", message))
	})
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
