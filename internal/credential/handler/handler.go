// Package handler exposes credential verification, selective disclosure and
// viewer sessions over HTTP.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service,Sessions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credo/internal/credential/disclosure"
	"credo/internal/credential/models"
	"credo/internal/credential/service"
	"credo/internal/credential/session"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/httputil"
	"credo/pkg/requestcontext"
)

// Service is the stateless credential API.
type Service interface {
	Enter(ctx context.Context, user, hash string) (*service.EntryResult, error)
	ListCredentials(ctx context.Context, account id.Account) ([]models.CredentialRecord, error)
	Verify(ctx context.Context, account id.Account, hash models.Digest) (models.Verification, error)
	Disclose(ctx context.Context, account id.Account, hash models.Digest) (disclosure.Disclosure, error)
	VerifyAll(ctx context.Context, account id.Account) ([]models.Verification, error)
	ListVerifications(ctx context.Context, filter models.LogFilter) ([]models.VerificationLogEntry, error)
}

// Sessions drives per-viewer state.
type Sessions interface {
	Create(ctx context.Context, user, hash string) (id.SessionID, session.Snapshot, error)
	Get(ctx context.Context, sessionID id.SessionID) (session.Snapshot, error)
	SetAddress(ctx context.Context, sessionID id.SessionID, user, hash string) (session.Snapshot, error)
	Verify(ctx context.Context, sessionID id.SessionID, index int) (session.Snapshot, error)
	Disclose(ctx context.Context, sessionID id.SessionID, index int) (session.Snapshot, error)
	Close(ctx context.Context, sessionID id.SessionID) error
}

type Handler struct {
	service  Service
	sessions Sessions
	logger   *slog.Logger
}

func New(svc Service, sessions Sessions, logger *slog.Logger) *Handler {
	return &Handler{service: svc, sessions: sessions, logger: logger}
}

// Register mounts the credential routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify", h.HandleEntry)

	r.Route("/v1/accounts/{account}", func(r chi.Router) {
		r.Get("/credentials", h.HandleListCredentials)
		r.Post("/credentials/{hash}/verify", h.HandleVerify)
		r.Post("/credentials/{hash}/disclose", h.HandleDisclose)
		r.Post("/verify-all", h.HandleVerifyAll)
	})

	r.Post("/v1/sessions", h.HandleCreateSession)
	r.Route("/v1/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Delete("/", h.HandleCloseSession)
		r.Put("/address", h.HandleSetSessionAddress)
		r.Post("/credentials/{index}/verify", h.HandleSessionVerify)
		r.Post("/credentials/{index}/disclose", h.HandleSessionDisclose)
	})
}

// RegisterLog mounts the verification log, which operators may guard separately.
func (h *Handler) RegisterLog(r chi.Router) {
	r.Get("/v1/verifications", h.HandleListVerifications)
}

// HandleEntry handles GET /verify?user=&hash=.
func (h *Handler) HandleEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	res, err := h.service.Enter(ctx, q.Get("user"), q.Get("hash"))
	if err != nil {
		h.fail(ctx, w, "failed to resolve verification link", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(res))
}

func (h *Handler) HandleListCredentials(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := parseAccountParam(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.service.ListCredentials(ctx, account)
	if err != nil {
		h.fail(ctx, w, "failed to list credentials", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CredentialListResponse{
		Account:     account.String(),
		Credentials: toCredentialResponses(records),
	})
}

// HandleVerify answers 200 for every outcome, including tampered and
// revoked; only lookup failures are HTTP errors.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, hash, ok := h.accountAndHash(w, r)
	if !ok {
		return
	}

	v, err := h.service.Verify(ctx, account, hash)
	if err != nil {
		h.fail(ctx, w, "failed to verify credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerificationResponse(v))
}

func (h *Handler) HandleDisclose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, hash, ok := h.accountAndHash(w, r)
	if !ok {
		return
	}

	d, err := h.service.Disclose(ctx, account, hash)
	if err != nil {
		h.writeDisclosureError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDisclosureResponse(d))
}

func (h *Handler) HandleVerifyAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := parseAccountParam(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	results, err := h.service.VerifyAll(ctx, account)
	if err != nil {
		h.fail(ctx, w, "failed to verify credentials", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerifyAllResponse(account, results))
}

func (h *Handler) HandleListVerifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseLogFilter(r.URL.Query())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.ListVerifications(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to read verification log", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLogResponse(entries))
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateSessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	sid, snap, err := h.sessions.Create(ctx, req.User, req.Hash)
	if err != nil {
		h.fail(ctx, w, "failed to open session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSessionResponse(sid, snap))
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	snap, err := h.sessions.Get(ctx, sid)
	if err != nil {
		h.fail(ctx, w, "failed to load session", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sid, snap))
}

func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	if err := h.sessions.Close(ctx, sid); err != nil {
		h.fail(ctx, w, "failed to close session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSetSessionAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	sid, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SetAddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	snap, err := h.sessions.SetAddress(ctx, sid, req.User, req.Hash)
	if err != nil {
		h.fail(ctx, w, "failed to switch session address", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sid, snap))
}

func (h *Handler) HandleSessionVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, index, ok := h.sessionAndIndex(w, r)
	if !ok {
		return
	}

	snap, err := h.sessions.Verify(ctx, sid, index)
	if err != nil {
		h.fail(ctx, w, "failed to verify session credential", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sid, snap))
}

func (h *Handler) HandleSessionDisclose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid, index, ok := h.sessionAndIndex(w, r)
	if !ok {
		return
	}

	snap, err := h.sessions.Disclose(ctx, sid, index)
	if err != nil {
		h.writeDisclosureError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(sid, snap))
}

func (h *Handler) accountAndHash(w http.ResponseWriter, r *http.Request) (id.Account, models.Digest, bool) {
	account, err := parseAccountParam(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", models.Digest{}, false
	}
	hash, err := parseHashParam(chi.URLParam(r, "hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", models.Digest{}, false
	}
	return account, hash, true
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (id.SessionID, bool) {
	sid, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SessionID{}, false
	}
	return sid, true
}

func (h *Handler) sessionAndIndex(w http.ResponseWriter, r *http.Request) (id.SessionID, int, bool) {
	sid, ok := h.sessionID(w, r)
	if !ok {
		return id.SessionID{}, 0, false
	}
	index, err := parseIndexParam(chi.URLParam(r, "index"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.SessionID{}, 0, false
	}
	return sid, index, true
}

// writeDisclosureError reports a failed projection with its failure kind
// so viewers can tell unreachable content from unreadable content.
func (h *Handler) writeDisclosureError(ctx context.Context, w http.ResponseWriter, err error) {
	var de *disclosure.Error
	if !errors.As(err, &de) {
		h.fail(ctx, w, "failed to disclose credential", err)
		return
	}
	h.logger.WarnContext(ctx, "credential content could not be disclosed",
		"request_id", requestcontext.RequestID(ctx),
		"failure", de.Failure,
		"error", err,
	)
	httputil.WriteJSON(w, http.StatusBadGateway, map[string]string{
		"error":             httputil.DomainCodeToHTTPCode(dErrors.CodeUnavailable),
		"error_description": models.OutcomeFetchFailed.Label(),
		"failure":           string(de.Failure),
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelError
	if dErrors.HasCode(err, dErrors.CodeNotFound) ||
		dErrors.HasCode(err, dErrors.CodeInvalidInput) ||
		dErrors.HasCode(err, dErrors.CodeBadRequest) {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

var (
	_ Service  = (*service.Service)(nil)
	_ Sessions = (*session.Manager)(nil)
)
