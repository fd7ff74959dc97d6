package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/limen-app/limen/internal/adapters/storage/localfile"
	"github.com/limen-app/limen/internal/app/flows"
	"github.com/limen-app/limen/internal/app/reflections"
	"github.com/limen-app/limen/internal/domain"
	"github.com/limen-app/limen/internal/observability"
)

const (
	headerAccount = "X-Limen-Account"
	headerDevice  = "X-Limen-Device"
)

type Server struct {
	flows       *flows.Service
	reflections *reflections.Service
}

func NewServer(flowSvc *flows.Service, reflectionSvc *reflections.Service) http.Handler {
	s := &Server{flows: flowSvc, reflections: reflectionSvc}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/moods", s.handleMoods)

	// /consent → GET: status, POST: grant, DELETE: revoke
	mux.HandleFunc("/consent", s.handleConsent)

	// /flows → create flow (POST)
	mux.HandleFunc("/flows", s.handleFlows)

	// /flows/{id}          → GET: snapshot, DELETE: close
	// /flows/{id}/{action} → POST: drive the flow
	mux.HandleFunc("/flows/", s.handleFlowWithID)

	// /reflections      → GET: history, DELETE: delete all
	// /reflections/{id} → DELETE: delete one
	mux.HandleFunc("/reflections", s.handleReflections)
	mux.HandleFunc("/reflections/", s.handleReflectionWithID)

	return chainMiddlewares(mux, withCORS, withLogging, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type flowResponse struct {
	ID              string  `json:"id"`
	Step            string  `json:"step"`
	Mood            string  `json:"mood,omitempty"`
	GuidingQuestion string  `json:"guiding_question,omitempty"`
	Text            string  `json:"text,omitempty"`
	AIResponse      *string `json:"ai_response,omitempty"`
	Busy            bool    `json:"busy"`
}

type moodRequest struct {
	Mood string `json:"mood"`
}

type textRequest struct {
	Text string `json:"text"`
}

type reflectionResponse struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Mood            string    `json:"mood"`
	GuidingQuestion string    `json:"guiding_question"`
	Text            string    `json:"text"`
	AIResponse      *string   `json:"ai_response,omitempty"`
}

type saveResponse struct {
	Flow       flowResponse       `json:"flow"`
	Reflection reflectionResponse `json:"reflection"`
}

type consentResponse struct {
	Consented bool `json:"consented"`
}

type conflictResponse struct {
	Error string       `json:"error"`
	Flow  flowResponse `json:"flow"`
}

type storageErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMoods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, domain.Descriptors())
}

// /consent
func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		s.flows.GrantConsent(r.Context(), owner)
	case http.MethodDelete:
		s.flows.RevokeConsent(r.Context(), owner)
	default:
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, consentResponse{Consented: s.flows.Consented(owner)})
}

// /flows
func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateFlow(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /flows/{id} or /flows/{id}/{action}
func (s *Server) handleFlowWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/flows/")
	parts := strings.Split(path, "/")
	id := parts[0]

	if id == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	f, err := s.flows.Get(r.Context(), domain.FlowID(id), owner)
	if err != nil {
		if errors.Is(err, flows.ErrNotFound) {
			notFound(w, "flow not found")
			return
		}
		internalError(w, err)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, toFlowResponse(f))
		case http.MethodDelete:
			if err := s.flows.Close(r.Context(), f.ID, owner); err != nil {
				internalError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.handleFlowAction(w, r, f, parts[1])
}

// /reflections
func (s *Server) handleReflections(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleListReflections(w, r, owner)
	case http.MethodDelete:
		if err := s.reflections.DeleteAll(r.Context(), owner); err != nil {
			storageFailure(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

// /reflections/{id}
func (s *Server) handleReflectionWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/reflections/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}

	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}
	if err := s.reflections.Delete(r.Context(), owner, domain.ReflectionID(id)); err != nil {
		storageFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateFlow(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFrom(w, r)
	if !ok {
		return
	}

	f, err := s.flows.Start(r.Context(), owner)
	if err != nil {
		storageFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFlowResponse(f))
}

func (s *Server) handleFlowAction(w http.ResponseWriter, r *http.Request, f *flows.Flow, action string) {
	ctx := r.Context()
	c := f.Controller

	var moved bool
	switch action {
	case "begin":
		if !s.flows.Consented(f.Owner) {
			writeJSON(w, http.StatusForbidden, conflictResponse{
				Error: "consent required",
				Flow:  toFlowResponse(f),
			})
			return
		}
		moved = c.Begin()
	case "mood":
		var req moodRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		mood, err := domain.ParseMood(req.Mood)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		moved = c.SelectMood(ctx, mood)
	case "text":
		var req textRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		moved = c.SetText(req.Text)
	case "submit":
		var req textRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "invalid JSON body")
			return
		}
		var done <-chan struct{}
		done, moved = c.SubmitText(ctx, req.Text)
		if moved && r.URL.Query().Get("wait") == "1" {
			select {
			case <-done:
			case <-ctx.Done():
			}
		}
	case "proceed":
		moved = c.Proceed()
	case "back":
		moved = c.Back()
	case "discard":
		moved = c.Discard()
	case "restart":
		moved = c.StartAgain()
	case "abandon":
		c.Abandon()
		moved = true
	case "save":
		s.handleSave(w, r, f)
		return
	default:
		notFound(w, "unknown action")
		return
	}

	if !moved {
		invalidTransition(w, f)
		return
	}
	writeJSON(w, http.StatusOK, toFlowResponse(f))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, f *flows.Flow) {
	saved, err := f.Controller.Save(r.Context())
	if err != nil {
		storageFailure(w, err)
		return
	}
	if saved == nil {
		invalidTransition(w, f)
		return
	}

	writeJSON(w, http.StatusOK, saveResponse{
		Flow:       toFlowResponse(f),
		Reflection: toReflectionResponse(*saved),
	})
}

func (s *Server) handleListReflections(w http.ResponseWriter, r *http.Request, owner domain.Owner) {
	var q reflections.Query

	if v := r.URL.Query().Get("mood"); v != "" {
		mood, err := domain.ParseMood(v)
		if err != nil {
			badRequest(w, err.Error())
			return
		}
		q.Mood = mood
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		q.Limit = n
	}

	list, err := s.reflections.List(r.Context(), owner, q)
	if err != nil {
		storageFailure(w, err)
		return
	}

	out := make([]reflectionResponse, 0, len(list))
	for _, refl := range list {
		out = append(out, toReflectionResponse(refl))
	}
	writeJSON(w, http.StatusOK, out)
}

// ─────────────────────────────────────────────
// Flow Helpers
// ─────────────────────────────────────────────

// ownerFrom reads the verified account id set by the gateway, or the
// device id of an anonymous client.
func ownerFrom(w http.ResponseWriter, r *http.Request) (domain.Owner, bool) {
	if account := strings.TrimSpace(r.Header.Get(headerAccount)); account != "" {
		return domain.Owner{Account: domain.AccountID(account)}, true
	}
	if device := strings.TrimSpace(r.Header.Get(headerDevice)); device != "" {
		return domain.Owner{Device: domain.DeviceID(device)}, true
	}
	badRequest(w, headerAccount+" or "+headerDevice+" header is required")
	return domain.Owner{}, false
}

func toFlowResponse(f *flows.Flow) flowResponse {
	snap := f.Controller.Snapshot()
	return flowResponse{
		ID:              string(f.ID),
		Step:            snap.Step.String(),
		Mood:            string(snap.Mood),
		GuidingQuestion: snap.GuidingQuestion,
		Text:            snap.WrittenText,
		AIResponse:      snap.GeneratedResponse,
		Busy:            f.Controller.Busy(),
	}
}

func toReflectionResponse(r domain.Reflection) reflectionResponse {
	return reflectionResponse{
		ID:              string(r.ID),
		CreatedAt:       r.CreatedAt,
		Mood:            string(r.Mood),
		GuidingQuestion: r.GuidingQuestion,
		Text:            r.WrittenText,
		AIResponse:      r.GeneratedResponse,
	}
}

func invalidTransition(w http.ResponseWriter, f *flows.Flow) {
	writeJSON(w, http.StatusConflict, conflictResponse{
		Error: "transition not allowed from step " + f.Controller.Snapshot().Step.String(),
		Flow:  toFlowResponse(f),
	})
}

// storageFailure maps store and resolver errors to a status the client
// can act on.
func storageFailure(w http.ResponseWriter, err error) {
	if se, ok := domain.AsStorageError(err); ok {
		writeJSON(w, http.StatusServiceUnavailable, storageErrorResponse{
			Error:     "remote storage unavailable",
			Kind:      string(se.Kind),
			Retryable: se.Retryable(),
		})
		return
	}

	switch {
	case errors.Is(err, localfile.ErrInvalidDevice):
		badRequest(w, err.Error())
	case errors.Is(err, domain.ErrNoRemoteStore):
		writeJSON(w, http.StatusServiceUnavailable, storageErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrLocalStorage):
		writeJSON(w, http.StatusInternalServerError, storageErrorResponse{
			Error:     "local storage unavailable",
			Retryable: true,
		})
	case errors.Is(err, domain.ErrEmptyText), errors.Is(err, domain.ErrMissingMood):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		internalError(w, err)
	}
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	observability.Logger().Error("unhandled error", "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
