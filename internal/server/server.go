// Package server exposes the PDF check behind a small web page: a URL form,
// a file drop target and one shared status line.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/thywilljoshua/pdfcheck/internal/check"
	"github.com/thywilljoshua/pdfcheck/internal/source"
	"github.com/thywilljoshua/pdfcheck/internal/status"
)

//go:embed static/index.html
var indexHTML []byte

const maxUploadSize = "200M"

type Server struct {
	e       *echo.Echo
	cfg     check.Config
	timeout time.Duration
	display status.Display

	// ctx outlives requests: checks keep running after the 202 is sent.
	ctx context.Context
	wg  sync.WaitGroup
}

type checkRequest struct {
	URL string `json:"url" form:"url"`
}

type checkResponse struct {
	RequestID   string   `json:"request_id"`
	Invocations []uint64 `json:"invocations"`
}

// New builds the server. Checks started by requests run under ctx, bounded
// by timeout when it is positive.
func New(ctx context.Context, cfg check.Config, timeout time.Duration) *Server {
	s := &Server{cfg: cfg, timeout: timeout, ctx: ctx}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.BodyLimit(maxUploadSize))

	e.GET("/", s.index)
	api := e.Group("/api")
	api.POST("/check", s.checkURL)
	api.POST("/check/files", s.checkFiles)
	api.GET("/status", s.status)

	s.e = e
	return s
}

func (s *Server) Handler() http.Handler { return s.e }

// Listen opens addr, either host:port or unix:///path/to/socket.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	if path, ok := strings.CutPrefix(addr, "unix://"); ok {
		return lc.Listen(ctx, "unix", path)
	}
	return lc.Listen(ctx, "tcp", addr)
}

// Serve handles requests on ln until ctx is done, then waits for running
// checks.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.e, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.Serve(ln)
	s.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Wait blocks until every started check has finished.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.display.Snapshot())
}

func (s *Server) checkURL(c echo.Context) error {
	var req checkRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	u := strings.TrimSpace(req.URL)
	if u == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing url")
	}
	rid := requestID(c)
	id := s.start(rid, source.URL(u))
	return c.JSON(http.StatusAccepted, checkResponse{RequestID: rid, Invocations: []uint64{id}})
}

// checkFiles starts one check per uploaded file. The files are read into
// memory before responding since the multipart temp files do not outlive the
// request.
func (s *Server) checkFiles(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid upload: %v", err))
	}
	files := form.File["files"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no files")
	}

	refs := make([]source.Ref, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("opening %s: %v", fh.Filename, err))
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
		}
		refs = append(refs, source.Upload(fh.Filename, func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		}))
	}

	resp := checkResponse{RequestID: requestID(c), Invocations: make([]uint64, 0, len(refs))}
	for _, ref := range refs {
		resp.Invocations = append(resp.Invocations, s.start(resp.RequestID, ref))
	}
	return c.JSON(http.StatusAccepted, resp)
}

// requestID is the id the RequestID middleware put on the response, either
// the caller's X-Request-ID or a fresh UUID.
func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func (s *Server) start(rid string, ref source.Ref) uint64 {
	inv := s.display.Begin()
	slog.Debug("Starting PDF check", "request_id", rid, "invocation", inv.ID(), "input", ref.Label())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := s.ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		res := check.Run(ctx, ref, s.cfg, inv)
		slog.Info("PDF check finished", "request_id", rid, "invocation", inv.ID(), "input", res.Input, "state", res.State, "message", res.Message)
	}()
	return inv.ID()
}
