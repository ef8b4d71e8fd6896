// Package api serves QR generation and scanning over HTTP.
package api

import (
	"context"
	stderrors "errors"
	"image"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"qrmaster/internal/config"
	"qrmaster/internal/models"
)

// Encoder turns text into a QR raster
type Encoder interface {
	Generate(text string) (*models.EncodedImage, error)
}

// Decoder finds a QR code in an image
type Decoder interface {
	Decode(img image.Image) (models.Detection, error)
}

// Fetcher downloads remote images
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Server is the HTTP front end
type Server struct {
	cfg         config.HTTPConfig
	previewSize int
	encoder     Encoder
	decoder     Decoder
	fetcher     Fetcher
	engine      *gin.Engine
	logger      *logrus.Logger
}

// NewServer creates the server and registers its routes
func NewServer(cfg config.HTTPConfig, previewSize int, encoder Encoder, decoder Decoder, fetcher Fetcher, logger *logrus.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		previewSize: previewSize,
		encoder:     encoder,
		decoder:     decoder,
		fetcher:     fetcher,
		logger:      logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	engine.GET("/healthz", s.health)
	group := engine.Group("/api")
	group.POST("/generate", s.generate)
	group.POST("/scan", s.scan)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("HTTP API listening on %s", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Info("HTTP request")
	}
}
