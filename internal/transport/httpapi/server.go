// Package httpapi is the stateless REST transport: one request per tool
// invocation, concurrent requests sharing only the read-only registry and
// handler map through the dispatcher.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"toolgate/internal/dispatch"
	"toolgate/internal/domain"
	"toolgate/internal/registry"
	"toolgate/internal/schema"
)

// ErrInvalidPort is returned when the configured port is not in 0..65535.
var ErrInvalidPort = errors.New("http port must be 0-65535")

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// projectHeader carries the optional tenant identifier. Attribution only;
// never consulted for authorization.
const projectHeader = "X-Project-ID"

// Server serves the REST surface. Port 0 picks a random port.
type Server struct {
	cfg        domain.HTTPConfig
	dispatcher *dispatch.Dispatcher
	reg        *registry.Registry
	log        zerolog.Logger

	server *http.Server

	addrMu   sync.RWMutex
	addr     string
	listener net.Listener
}

// NewServer builds the server. Routes: GET /tools for the catalog,
// POST /tools/{tool} for execution.
func NewServer(cfg domain.HTTPConfig, d *dispatch.Dispatcher, reg *registry.Registry, log zerolog.Logger) (*Server, error) {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, ErrInvalidPort
	}
	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		reg:        reg,
		log:        log.With().Str("transport", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /tools", s.handleList)
	mux.HandleFunc("POST /tools/{tool}", s.handleExecute)

	s.server = &http.Server{
		Handler:           BearerAuth(cfg.AuthToken)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler exposes the HTTP handler for tests that don't bind a port.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Addr returns the bound address after Run has started listening.
func (s *Server) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// Run listens and serves until shutdown closes, then drains gracefully.
func (s *Server) Run(shutdown <-chan struct{}) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(s.cfg.Port))
	if err != nil {
		return err
	}
	s.addrMu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()
	s.log.Info().Str("addr", s.addr).Msg("http transport listening")

	done := make(chan error, 1)
	go func() {
		done <- s.server.Serve(ln)
	}()

	<-shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	<-done
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	listing, err := schema.Catalog(s.reg.List())
	if err != nil {
		s.log.Error().Err(err).Msg("catalog rendering failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"error": domain.ErrorDescriptor{
				Kind:    domain.FaultInternalConfiguration,
				Message: "could not render tool catalog",
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "success",
		"tools":       listing,
		"total_tools": len(listing),
	})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	tool := r.PathValue("tool")

	args := domain.Args{}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, domain.Failure(
			domain.Faultf(domain.FaultInvalidArguments, "could not read request body")))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			writeEnvelope(w, http.StatusBadRequest, domain.Failure(
				domain.Faultf(domain.FaultInvalidArguments, "request body is not a JSON object")))
			return
		}
	}

	project := r.Header.Get(projectHeader)
	if project == "" {
		project = "default"
	}

	result := s.dispatcher.Dispatch(r.Context(), domain.InvocationRequest{
		Tool:      tool,
		Arguments: args,
		ProjectID: project,
	})
	writeEnvelope(w, statusFor(result), result)
}

// statusFor maps envelope outcomes to HTTP status codes. Catalog-level
// failures get protocol codes; a tool's own domain failure is still a
// successful protocol operation and stays 200 with status "error" in the
// body.
func statusFor(res domain.InvocationResult) int {
	if res.Status == domain.StatusSuccess || res.Error == nil {
		return http.StatusOK
	}
	switch res.Error.Kind {
	case domain.FaultToolNotFound:
		return http.StatusNotFound
	case domain.FaultMissingParameter, domain.FaultUnknownParameter, domain.FaultInvalidArguments:
		return http.StatusBadRequest
	case domain.FaultInternalConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func writeEnvelope(w http.ResponseWriter, code int, res domain.InvocationResult) {
	writeJSON(w, code, res)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
