package ptohandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ptoinfo/internal/domain/auth"
	"ptoinfo/internal/domain/leave"
	"ptoinfo/internal/domain/pto"
	"ptoinfo/internal/platform/metrics"
	"ptoinfo/internal/transport/http/api"
	"ptoinfo/internal/transport/http/middleware"
	"ptoinfo/internal/transport/http/shared"
)

// Backend is everything a hosted PTO view needs from the leave services of
// one tenant.
type Backend interface {
	pto.LeaveInfoSource
	pto.LeaveSummarySource
	SubmitRequest(ctx context.Context, input leave.RequestInput) (string, error)
}

type Handler struct {
	Backends    func(tenantID string) Backend
	Sessions    *pto.Registry
	Perms       middleware.PermissionStore
	Notify      NotificationSink
	Idempotency *middleware.IdempotencyStore
	Metrics     *metrics.Collector
	Audit       AuditRecorder
	LoadTimeout time.Duration
	Now         func() time.Time
}

func NewHandler(backends func(tenantID string) Backend, sessions *pto.Registry, perms middleware.PermissionStore, notify NotificationSink, idem *middleware.IdempotencyStore, collector *metrics.Collector, loadTimeout time.Duration) *Handler {
	return &Handler{
		Backends:    backends,
		Sessions:    sessions,
		Perms:       perms,
		Notify:      notify,
		Idempotency: idem,
		Metrics:     collector,
		LoadTimeout: loadTimeout,
		Now:         time.Now,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermLeaveRead, h.Perms)
	write := middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)

	r.Route("/pto/sessions", func(r chi.Router) {
		r.With(read).Post("/", h.handleCreateSession)
		r.With(read).Get("/{sessionID}", h.handleGetSession)
		r.With(read).Delete("/{sessionID}", h.handleDeleteSession)
		r.With(read).Put("/{sessionID}/employee", h.handleSetEmployee)
		r.With(read).Post("/{sessionID}/refresh", h.handleRefresh)
		r.With(read).Post("/{sessionID}/modal/open", h.handleOpenModal)
		r.With(read).Post("/{sessionID}/modal/close", h.handleCloseModal)
		r.With(write).Post("/{sessionID}/new-request", h.handleNewRequest)
		r.With(write).Post("/{sessionID}/requests", h.handleSubmitRequest)
		r.With(read).Get("/{sessionID}/statement.pdf", h.handleStatement)
	})
}

type employeeRequest struct {
	EmployeeID string `json:"employeeId"`
}

type navigationResponse struct {
	Reference pto.PageReference `json:"reference"`
	Link      string            `json:"link"`
}

type sessionResponse struct {
	SessionID  string              `json:"sessionId"`
	View       pto.View            `json:"view"`
	Navigation *navigationResponse `json:"navigation,omitempty"`
}

type submitResponse struct {
	LeaveRequestID string    `json:"leaveRequestId"`
	Toast          pto.Toast `json:"toast"`
	View           pto.View  `json:"view"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "is required")
	if validator.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	backend := h.Backends(user.TenantID)
	session := h.Sessions.Create(user.TenantID, user.UserID, func(nav pto.Navigator) *pto.Controller {
		return pto.NewController(backend, backend,
			pto.WithLoadTimeout(h.LoadTimeout),
			pto.WithNavigator(nav),
			pto.WithNotifier(h.notifierFor(user)),
			pto.WithLoadObserver(h.observeLoad),
		)
	})
	session.Controller.Initialize(r.Context(), payload.EmployeeID)
	h.wait(r.Context(), session)

	slog.InfoContext(r.Context(), "pto session created", "sessionId", session.ID, "tenantId", user.TenantID, "userId", user.UserID)
	api.Created(w, h.sessionResponse(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	api.Success(w, h.sessionResponse(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	h.Sessions.Delete(session.ID)
	api.Success(w, map[string]string{"status": "closed"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetEmployee(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	var payload employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	session.Controller.Initialize(r.Context(), payload.EmployeeID)
	h.wait(r.Context(), session)
	api.Success(w, h.sessionResponse(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	session.Controller.Refresh(r.Context())
	h.wait(r.Context(), session)
	api.Success(w, h.sessionResponse(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleOpenModal(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	session.Controller.OpenModal()
	api.Success(w, h.sessionResponse(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCloseModal(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	session.Controller.CloseModal()
	api.Success(w, h.sessionResponse(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleNewRequest(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	ref := session.Controller.SubmitNewLeaveRequest(r.Context())
	api.Success(w, navigationResponse{Reference: ref, Link: ref.Path()}, middleware.GetRequestID(r.Context()))
}

// handleSubmitRequest is the host form callback: it stores the request and
// then lets the controller close the modal, toast and refresh.
func (h *Handler) handleSubmitRequest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	employeeID := session.Controller.EmployeeID()
	if employeeID == "" {
		api.Fail(w, http.StatusConflict, "employee_required", "session has no employee", reqID)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	var payload shared.LeaveRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	input := payload.Input(validator, employeeID)
	if validator.Reject(w, reqID) {
		return
	}

	idem := middleware.IdempotencyKey{
		TenantID: session.TenantID,
		UserID:   session.UserID,
		Endpoint: "pto.sessions.requests:" + employeeID,
		Key:      r.Header.Get("Idempotency-Key"),
		Hash:     middleware.RequestHash(body),
	}
	stored, found, err := h.Idempotency.Lookup(r.Context(), idem)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", reqID)
		return
	}
	if err != nil {
		slog.WarnContext(r.Context(), "idempotency check failed", "err", err)
	}
	if found {
		api.WriteJSON(w, http.StatusCreated, api.Envelope{Success: true, Data: stored, RequestID: reqID})
		return
	}

	leaveRequestID, err := h.Backends(session.TenantID).SubmitRequest(r.Context(), input)
	if err != nil {
		slog.WarnContext(r.Context(), "leave request submission failed", "sessionId", session.ID, "employeeId", employeeID, "err", err)
		shared.FailSubmit(w, err, reqID)
		return
	}

	h.recordAudit(r, session, leaveRequestID, input)
	session.Controller.OnLeaveRequestSubmitted(r.Context())
	h.wait(r.Context(), session)

	resp := submitResponse{LeaveRequestID: leaveRequestID, Toast: pto.LeaveRequestCreatedToast, View: session.Controller.View()}
	if idem.Key != "" {
		if raw, err := json.Marshal(resp); err == nil {
			if err := h.Idempotency.Remember(r.Context(), idem, raw); err != nil {
				slog.WarnContext(r.Context(), "idempotency save failed", "err", err)
			}
		}
	}
	api.Created(w, resp, reqID)
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := pto.WriteStatement(&buf, session.Controller.View(), h.Now()); err != nil {
		slog.ErrorContext(r.Context(), "statement render failed", "sessionId", session.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "statement_error", "failed to render statement", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="pto-statement.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.WarnContext(r.Context(), "statement write failed", "err", err)
	}
}

// ownedSession resolves the session of the route. Sessions of other users
// are reported as missing.
func (h *Handler) ownedSession(w http.ResponseWriter, r *http.Request) (*pto.Session, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	session, found := h.Sessions.Get(chi.URLParam(r, "sessionID"))
	if !found || session.TenantID != user.TenantID || session.UserID != user.UserID {
		api.Fail(w, http.StatusNotFound, "not_found", "session not found", middleware.GetRequestID(r.Context()))
		return nil, false
	}
	return session, true
}

func (h *Handler) sessionResponse(session *pto.Session) sessionResponse {
	out := sessionResponse{SessionID: session.ID, View: session.Controller.View()}
	if ref, ok := session.LastNavigation(); ok {
		out.Navigation = &navigationResponse{Reference: ref, Link: ref.Path()}
	}
	return out
}

func (h *Handler) wait(ctx context.Context, session *pto.Session) {
	if err := session.Controller.Wait(ctx); err != nil {
		slog.WarnContext(ctx, "pto loads still running", "sessionId", session.ID, "err", err)
	}
}

func (h *Handler) observeLoad(source string, err error, elapsed time.Duration) {
	if h.Metrics != nil {
		h.Metrics.RecordLoad(source, err, elapsed)
	}
}
