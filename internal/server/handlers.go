package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/store"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/rs/zerolog/log"
)

type runRequest struct {
	Source  string                 `json:"source"`
	Context map[string]interface{} `json:"context"`
}

type contextResponse struct {
	Name    string                 `json:"name,omitempty"`
	Context map[string]interface{} `json:"context"`
}

type parseResponse struct {
	Tree      *ast.DumpNode `json:"tree"`
	Formatted string        `json:"formatted"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Kind       string           `json:"kind"`
	Message    string           `json:"message"`
	Position   *minijs.Position `json:"position,omitempty"`
	Incomplete bool             `json:"incomplete,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// socketReply is sent for every frame received on a session websocket
type socketReply struct {
	Context map[string]interface{} `json:"context,omitempty"`
	Error   *ErrorBody             `json:"error,omitempty"`
}

// describeError maps err to an HTTP status and a response body
func describeError(err error) (int, ErrorBody) {
	body := ErrorBody{Kind: minijs.ErrorKind(err), Message: err.Error()}
	if pos, ok := minijs.ErrorPosition(err); ok {
		body.Position = &pos
	}
	body.Incomplete = minijs.IsIncomplete(err)

	switch body.Kind {
	case "LexError", "SyntaxError":
		return http.StatusBadRequest, body
	case "UndefinedNameError", "UndefinedPropertyError", "TypeError":
		return http.StatusUnprocessableEntity, body
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		body.Kind = "NotFound"
		return http.StatusNotFound, body
	case errors.Is(err, store.ErrInvalidName):
		body.Kind = "BadRequest"
		return http.StatusBadRequest, body
	default:
		body.Kind = "InternalError"
		return http.StatusInternalServerError, body
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := minijs.ErrorKind(err); kind != "" {
		return kind
	}
	return "error"
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, body := describeError(err)
	writeJSON(w, status, errorResponse{Error: body})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrorBody{Kind: "BadRequest", Message: message}})
}

// decodeBody reads a JSON request body into v. Integral numbers in
// contexts come back as ints.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := r.Body
	if s.config.MaxSourceBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.config.MaxSourceBytes)
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		writeBadRequest(w, fmt.Sprintf("Invalid JSON: %v", err))
		return false
	}
	return true
}

func normalizeContext(vars map[string]interface{}) map[string]interface{} {
	if vars == nil {
		return map[string]interface{}{}
	}
	for k, v := range vars {
		vars[k] = store.Normalize(v)
	}
	return vars
}

// runProgram runs a program against the context sent with it
func (s *Server) runProgram(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	out, err := minijs.Run(req.Source, normalizeContext(req.Context), minijs.WithCache(s.cache))
	s.metrics.observeRun("run", outcome(err), time.Since(start))

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{Context: out})
}

// parseProgram returns the tree of a program without running it
func (s *Server) parseProgram(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	program, ok := s.cache.Get(req.Source)
	if !ok {
		var err error
		program, err = minijs.Parse(req.Source)
		if err != nil {
			writeError(w, err)
			return
		}
		s.cache.Put(req.Source, program)
	}

	writeJSON(w, http.StatusOK, parseResponse{
		Tree:      ast.Dump(program),
		Formatted: ast.Format(program),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": infos})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	vars, err := s.store.Get(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{Name: name, Context: vars})
}

func (s *Server) putSession(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req runRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	vars := normalizeContext(req.Context)

	if err := s.store.Put(r.Context(), name, vars); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{Name: name, Context: vars})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), mux.Vars(r)["name"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runSession runs a program against a stored context and saves the result
func (s *Server) runSession(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req runRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	out, err := s.store.Run(r.Context(), name, req.Source, minijs.WithCache(s.cache))
	s.metrics.observeRun("session", outcome(err), time.Since(start))

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, contextResponse{Name: name, Context: out})
}

// sessionSocket is a REPL over a websocket: every text frame is a program
// run against the session, and every reply carries the updated context or
// the error.
func (s *Server) sessionSocket(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if _, err := s.store.Get(r.Context(), name); err != nil {
		writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s.metrics.activeSockets.Inc()
	defer s.metrics.activeSockets.Dec()

	log.Debug().Str("session", name).Msg("WebSocket session opened")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("session", name).Msg("WebSocket closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		start := time.Now()
		out, err := s.store.Run(r.Context(), name, string(data), minijs.WithCache(s.cache))
		s.metrics.observeRun("websocket", outcome(err), time.Since(start))

		reply := socketReply{Context: out}
		if err != nil {
			_, body := describeError(err)
			reply = socketReply{Error: &body}
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Error().Err(err).Str("session", name).Msg("WebSocket write failed")
			return
		}
	}
}

// healthCheck returns server health status
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     s.cache.Stats(),
		"timestamp": time.Now(),
	})
}
