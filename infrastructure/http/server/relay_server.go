package server

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/protocol"
	"chat-relay/sink"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxEnvelopeBytes = 64 << 10

// RelayServer exposes the relay over HTTP: one server-sent event stream per
// connection for delivery and one POST endpoint per session for inbound envelopes.
type RelayServer struct {
	log                  *slog.Logger
	relay                contract.IRelayService
	connectionBufferSize int
	keepAliveInterval    time.Duration
	streams              sync.Map
}

func NewRelayServer(log *slog.Logger, relay contract.IRelayService,
	connectionBufferSize int, keepAliveInterval time.Duration) *RelayServer {
	return &RelayServer{
		log:                  log,
		relay:                relay,
		connectionBufferSize: connectionBufferSize,
		keepAliveInterval:    keepAliveInterval,
	}
}

// Routes builds the router. No timeout middleware: event streams are long-lived.
func (s *RelayServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/events", s.handleEvents)
	r.Post("/sessions/{id}/events", s.handleInbound)
	r.Delete("/sessions/{id}", s.handleDisconnect)
	return r
}

func (s *RelayServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// handleEvents opens a session and streams its events until the client goes away
// or the session is deleted. The first event carries the session handle.
func (s *RelayServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sessionSink := sink.NewSessionSink(s.connectionBufferSize)
	sessionID, err := s.relay.Connect(ctx, sessionSink)
	if err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	s.streams.Store(sessionID, cancel)
	defer s.closeStream(sessionID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(s.keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("Stream closed", "session", sessionID)
			return
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case evt := <-sessionSink.Events:
			kind, data, err := protocol.Encode(evt)
			if err != nil {
				s.log.Error("Failed to encode event", "session", sessionID, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, data); err != nil {
				s.log.Debug("Failed to push event to stream", "session", sessionID, "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *RelayServer) closeStream(sessionID string) {
	s.streams.Delete(sessionID)
	s.relay.Disconnect(sessionID)
}

func (s *RelayServer) handleInbound(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, ok := s.streams.Load(sessionID); !ok {
		writeError(w, http.StatusNotFound, errors.ErrUnknownSession.Error())
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEnvelopeBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cmd, err := protocol.Decode(body)
	if err != nil {
		s.log.Debug("Malformed envelope", "session", sessionID, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.relay.Handle(r.Context(), sessionID, cmd); err != nil {
		writeError(w, errors.MapToHTTPStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleDisconnect ends the session stream; the stream itself queues the disconnect.
func (s *RelayServer) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	value, ok := s.streams.Load(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.ErrUnknownSession.Error())
		return
	}
	value.(context.CancelFunc)()
	w.WriteHeader(http.StatusAccepted)
}

func (s *RelayServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
