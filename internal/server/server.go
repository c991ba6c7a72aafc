package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/formulagrid/internal/api"
	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/engine"
	"github.com/vk/formulagrid/internal/normalize"
)

// Socket.io event names.
const (
	EventExecute = "execute_formula"
	EventResult  = "formula_result"
	EventError   = "formula_error"
)

const maxBodyBytes = 10 << 20

// Server serves formula batches.
type Server struct {
	ctx      context.Context
	executor *engine.Executor
	io       *socket.Server
	handler  http.Handler
}

// New wires the routes. ctx carries the logger and bounds every batch.
func New(ctx context.Context, executor *engine.Executor) *Server {
	s := &Server{ctx: ctx, executor: executor}

	routes := http.NewServeMux()
	routes.HandleFunc("GET /{$}", s.handleHome)
	routes.HandleFunc("GET /health", s.handleHealth)
	routes.HandleFunc("POST /api/execute-formula", s.handleExecute)

	s.io = socket.NewServer(nil, nil)
	s.io.On("connection", s.onConnection)

	root := http.NewServeMux()
	root.Handle("/socket.io/", s.io.ServeHandler(socket.DefaultServerOptions()))
	root.Handle("/", gzhttp.GzipHandler(routes))
	s.handler = root
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	logger := ctxlog.FromContext(ctx)
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Formula server starting", "address", "http://"+l.Addr().String())
		errCh <- srv.Serve(l)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down formula server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("formula server shutdown: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

// Execute runs one request through normalisation and the engine. It returns
// the HTTP status and the response body.
func (s *Server) Execute(ctx context.Context, req *api.ExecuteRequest) (int, any) {
	logger := ctxlog.FromContext(ctx)

	batch, err := req.ToBatch()
	if err == nil {
		batch, err = normalize.Batch(ctx, batch)
	}
	if err == nil {
		rs, execErr := s.executor.Execute(ctx, batch)
		if execErr == nil {
			return http.StatusOK, api.Success(rs)
		}
		err = execErr
	}

	status, body := api.Failure(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Batch failed.", "error", err)
	} else {
		logger.Debug("Batch rejected.", "kind", body.Kind, "error", err)
	}
	return status, body
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(s.ctx).Debug("Health check endpoint hit.", "remoteAddr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), ctxlog.FromContext(s.ctx).With("remoteAddr", r.RemoteAddr))

	req, err := api.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status, body := api.Failure(err)
		writeJSON(w, status, body)
		return
	}
	status, body := s.Execute(ctx, req)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Default().Debug("Writing response failed.", "error", err)
	}
}
