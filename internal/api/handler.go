// Package api exposes the parse/generate/export pipeline over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/personaforge/internal/gemini"
	"github.com/kalambet/personaforge/internal/generator"
	"github.com/kalambet/personaforge/internal/persona"
	"github.com/kalambet/personaforge/internal/questionnaire"
	"github.com/kalambet/personaforge/internal/session"
)

const maxUploadSize = 10 << 20 // 10MB

// PersonaGenerator abstracts the generation pipeline for the API layer.
type PersonaGenerator interface {
	Generate(ctx context.Context, doc *questionnaire.Document) ([]persona.Persona, error)
}

// Deps holds what the HTTP handlers need.
type Deps struct {
	Sessions  *session.Manager
	Generator PersonaGenerator
}

// NewHandler returns the HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/sessions", handleCreateSession(deps))
	r.Get("/sessions/{id}", handleGetSession(deps))
	r.Post("/sessions/{id}/columns", handleSelectColumns(deps))
	r.Post("/sessions/{id}/generate", handleGenerate(deps))
	r.Get("/sessions/{id}/personas", handleListPersonas(deps))
	r.Get("/sessions/{id}/export", handleExport(deps))
	r.Delete("/sessions/{id}", handleDeleteSession(deps))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// sessionResponse is the session resource returned by every session route.
type sessionResponse struct {
	ID           string            `json:"id"`
	State        session.State     `json:"state"`
	Headers      []string          `json:"headers,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RecordCount  int               `json:"record_count"`
	PersonaCount int               `json:"persona_count"`
	FailKind     string            `json:"fail_kind,omitempty"`
	FailMsg      string            `json:"fail_msg,omitempty"`
}

func toSessionResponse(s session.Session) sessionResponse {
	resp := sessionResponse{
		ID:           s.ID,
		State:        s.State,
		PersonaCount: len(s.Personas),
		FailKind:     string(s.FailKind),
		FailMsg:      s.FailMsg,
	}
	if s.Doc != nil {
		resp.Headers = s.Doc.Headers
		resp.Metadata = s.Doc.Metadata
		resp.RecordCount = len(s.Doc.Records)
	}
	return resp
}

// handleCreateSession accepts a questionnaire CSV either as a multipart form
// (field "file") or as the raw request body, creates a session, and parses
// with the default column labels. A malformed upload still creates the
// session so the caller can retry with explicit column labels, but the
// response is a 422 carrying the failure.
func handleCreateSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		raw, err := readUpload(r)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading upload: %v", err)
			return
		}
		if strings.TrimSpace(raw) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "upload is empty")
			return
		}

		s := deps.Sessions.Create(raw)

		doc, err := questionnaire.Parse(raw, questionnaire.Columns{})
		if err != nil {
			failParse(deps, w, s.ID, raw, err)
			return
		}
		if err := deps.Sessions.SetParsed(s.ID, doc); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "updating session: %v", err)
			return
		}

		snap, err := deps.Sessions.Get(s.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		writeJSON(w, http.StatusCreated, toSessionResponse(snap))
	}
}

// readUpload extracts CSV text from a multipart "file" field or the body.
func readUpload(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", fmt.Errorf("missing multipart field %q: %w", "file", err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func handleGetSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := getSession(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(snap))
	}
}

type columnsRequest struct {
	Section  string `json:"section"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// handleSelectColumns re-parses the stored upload with user-selected column
// labels.
func handleSelectColumns(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := getSession(deps, w, r)
		if !ok {
			return
		}
		if snap.State == session.StateGenerating {
			httpError(w, http.StatusConflict, "invalid_state", "generation in progress")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		var req columnsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		cols := questionnaire.Columns{
			Section:  req.Section,
			Question: req.Question,
			Answer:   req.Answer,
		}
		doc, err := questionnaire.Parse(snap.RawCSV, cols)
		if err != nil {
			failParse(deps, w, snap.ID, snap.RawCSV, err)
			return
		}
		if err := deps.Sessions.SetColumns(snap.ID, cols, doc); err != nil {
			if errors.Is(err, session.ErrGenerationInProgress) {
				httpError(w, http.StatusConflict, "invalid_state", "generation in progress")
				return
			}
			httpError(w, http.StatusInternalServerError, "api_error", "updating session: %v", err)
			return
		}

		updated, err := deps.Sessions.Get(snap.ID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionResponse(updated))
	}
}

// handleGenerate runs the blocking generation call and maps failure into the
// error taxonomy: upstream timeout (504), upstream failure (502), and a
// reply that could not be parsed into any persona (502, distinct type).
func handleGenerate(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		snap, err := deps.Sessions.BeginGeneration(id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusConflict, "invalid_state", "%v", err)
			return
		}

		personas, err := deps.Generator.Generate(r.Context(), snap.Doc)
		if err != nil {
			kind, status, errType := classifyGenerationError(err)
			if failErr := deps.Sessions.Fail(id, kind, err.Error()); failErr != nil {
				slog.Error("recording generation failure", "session", id, "error", failErr)
			}
			httpError(w, status, errType, "%v", err)
			return
		}

		if err := deps.Sessions.CompleteGeneration(id, personas); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "updating session: %v", err)
			return
		}

		slog.Info("personas generated", "session", id, "count", len(personas))
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": id,
			"personas":   personas,
		})
	}
}

// classifyGenerationError maps a generation failure to the session failure
// kind, HTTP status, and error type.
func classifyGenerationError(err error) (session.FailureKind, int, string) {
	var ue *gemini.UpstreamError
	switch {
	case errors.As(err, &ue) && ue.Timeout:
		return session.FailUpstreamTimeout, http.StatusGatewayTimeout, "upstream_timeout"
	case errors.As(err, &ue):
		return session.FailUpstream, http.StatusBadGateway, "upstream_error"
	case errors.Is(err, generator.ErrUnparsableResponse), errors.Is(err, gemini.ErrEmptyReply):
		return session.FailUnparsableResponse, http.StatusBadGateway, "unparsable_response"
	default:
		return session.FailUpstream, http.StatusInternalServerError, "api_error"
	}
}

func handleListPersonas(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := getSession(deps, w, r)
		if !ok {
			return
		}
		if snap.State != session.StateGenerated {
			httpError(w, http.StatusConflict, "invalid_state", "no personas generated yet (state %q)", snap.State)
			return
		}
		writeJSON(w, http.StatusOK, snap.Personas)
	}
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := getSession(deps, w, r)
		if !ok {
			return
		}
		if snap.State != session.StateGenerated {
			httpError(w, http.StatusConflict, "invalid_state", "no personas generated yet (state %q)", snap.State)
			return
		}

		meta := persona.ExportMeta{}
		if snap.Doc != nil {
			meta.ClientName = snap.Doc.ClientName()
			meta.ProductName = snap.Doc.ProductName()
		}

		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "personas_"+snap.ID+".csv"))
		if err := persona.WriteCSV(w, snap.Personas, meta); err != nil {
			slog.Error("writing CSV export", "session", snap.ID, "error", err)
		}
	}
}

func handleDeleteSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := deps.Sessions.Delete(id)
		if errors.Is(err, session.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting session: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// failParse records a malformed-input failure on the session and responds
// with the session resource so the caller keeps the ID for a retry. When no
// columns were identified, the response carries best-effort header
// candidates so the caller can offer a column mapping.
func failParse(deps Deps, w http.ResponseWriter, id, raw string, parseErr error) {
	if err := deps.Sessions.Fail(id, session.FailMalformedInput, parseErr.Error()); err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "recording parse failure: %v", err)
		return
	}
	snap, err := deps.Sessions.Get(id)
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
		return
	}
	resp := toSessionResponse(snap)
	if errors.Is(parseErr, questionnaire.ErrNoColumns) && len(resp.Headers) == 0 {
		resp.Headers = questionnaire.HeaderCandidates(raw)
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func getSession(deps Deps, w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	id := chi.URLParam(r, "id")
	snap, err := deps.Sessions.Get(id)
	if errors.Is(err, session.ErrNotFound) {
		httpError(w, http.StatusNotFound, "not_found", "session not found")
		return session.Session{}, false
	}
	if err != nil {
		httpError(w, http.StatusInternalServerError, "api_error", "loading session: %v", err)
		return session.Session{}, false
	}
	return snap, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
