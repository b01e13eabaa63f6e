// Package server is the HTTP save endpoint the card manager page posts to.
// It also serves the data directory as static files.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skillsweb/cardgraph/internal/report"
	"skillsweb/cardgraph/internal/store"
)

// TimestampLayout formats the timestamp field of a save response.
const TimestampLayout = "2006-01-02 15:04:05"

// Options configures a Server.
type Options struct {
	Addr string
	// Dir is served as static files.
	Dir string
	// Targets maps the last path segment of /save/<name> to the file written.
	Targets map[string]string
	// DebugHTML is regenerated after every save when non-empty.
	DebugHTML string
	// CardsPath and RelationshipsPath feed the debug page.
	CardsPath         string
	RelationshipsPath string
	Logger            *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// SaveResponse is the body of a successful save.
type SaveResponse struct {
	Status    string `json:"status"`
	File      string `json:"file"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// Server wraps the gin router and the underlying http.Server.
type Server struct {
	opts   Options
	log    *zap.Logger
	router *gin.Engine
	srv    *http.Server
}

// New builds the router. Call ListenAndServe to start it.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{opts: opts, log: opts.Logger}

	router := gin.New()
	router.Use(ginLogger(s.log))
	router.Use(gin.Recovery())
	router.Use(cors())

	router.POST("/save/:name", s.handleSave)
	router.NoRoute(s.handleStatic)

	s.router = router
	s.srv = &http.Server{Addr: opts.Addr, Handler: router}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("Server started", zap.String("addr", s.opts.Addr), zap.String("dir", s.opts.Dir))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleSave(c *gin.Context) {
	name := c.Param("name")
	path, ok := s.opts.Targets[name]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := reindent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}

	if err := store.WriteFileAtomic(path, data); err != nil {
		s.log.Error("Failed to save snapshot", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	timestamp := s.opts.Now().Format(TimestampLayout)
	s.log.Info("Saved snapshot", zap.String("file", filepath.Base(path)), zap.String("timestamp", timestamp))

	if s.opts.DebugHTML != "" {
		if err := report.GenerateDebugHTML(s.opts.CardsPath, s.opts.RelationshipsPath, s.opts.DebugHTML); err != nil {
			s.log.Warn("Failed to regenerate debug page", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, SaveResponse{
		Status:    "success",
		File:      filepath.Base(path),
		Path:      abs,
		Timestamp: timestamp,
	})
}

func (s *Server) handleStatic(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
		return
	}
	http.FileServer(http.Dir(s.opts.Dir)).ServeHTTP(c.Writer, c.Request)
}

// reindent validates body as JSON and re-encodes it with a 2-space indent.
func reindent(body []byte) ([]byte, error) {
	var v json.RawMessage
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, v, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
