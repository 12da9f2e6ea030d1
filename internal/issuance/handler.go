package issuance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credo/internal/credential/models"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/platform/httputil"
	"credo/pkg/requestcontext"
	s "credo/pkg/string"
	"credo/pkg/validation"
)

type IssueRequest struct {
	Name      string `json:"name" validate:"required,notblank,max=200"`
	Type      string `json:"type" validate:"required,notblank,max=100"`
	Year      string `json:"year" validate:"required,notblank,max=20"`
	Recipient string `json:"recipient" validate:"max=64"`
}

func (r *IssueRequest) Sanitize() {
	s.TrimStrings(&r.Name, &r.Type, &r.Year, &r.Recipient)
}

func (r *IssueRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type ClaimRequest struct {
	Target string   `json:"target" validate:"required,eth_addr"`
	Fields []string `json:"fields" validate:"max=20,dive,notblank,max=64"`
	Reason string   `json:"reason" validate:"required,notblank,max=500"`
}

func (r *ClaimRequest) Sanitize() {
	s.TrimStrings(&r.Target, &r.Reason)
	r.Fields = s.CompactFields(r.Fields)
}

func (r *ClaimRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type AttestationRequest struct {
	Target string `json:"target" validate:"required,eth_addr"`
	Text   string `json:"text" validate:"required,notblank,max=1000"`
}

func (r *AttestationRequest) Sanitize() {
	s.TrimStrings(&r.Target, &r.Text)
}

func (r *AttestationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

type IssueResponse struct {
	CredentialHash string `json:"credential_hash"`
	IpfsCID        string `json:"ipfs_cid"`
	IssuedTo       string `json:"issued_to"`
	TxHash         string `json:"tx_hash"`
	BlockNumber    uint64 `json:"block_number"`
}

type TrustResponse struct {
	Account string `json:"account"`
	Trusted bool   `json:"trusted"`
}

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the public routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/issuers/{account}/trust", h.HandleTrust)
}

// RegisterProtected mounts routes that need an authenticated issuer.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Post("/v1/credentials", h.HandleIssue)
	r.Post("/v1/credentials/{hash}/revoke", h.HandleRevoke)
	r.Post("/v1/claim-requests", h.HandleClaimRequest)
	r.Post("/v1/attestations", h.HandleAttestation)
}

// requireSigner checks that the authenticated issuer is the signing account.
func (h *Handler) requireSigner(w http.ResponseWriter, r *http.Request) bool {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, err := httputil.RequireIssuer(ctx, h.logger, requestID)
	if err != nil {
		httputil.WriteError(w, err)
		return false
	}
	if caller != h.service.Issuer() {
		h.logger.WarnContext(ctx, "issuer token does not match signing account",
			"request_id", requestID,
			"caller", caller,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "token is not valid for this issuer"))
		return false
	}
	return true
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireSigner(w, r) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	issued, err := h.service.Issue(ctx, Draft{
		Name:      req.Name,
		Type:      req.Type,
		Year:      req.Year,
		Recipient: req.Recipient,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue credential",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		CredentialHash: issued.CredentialHash.Hex(),
		IpfsCID:        issued.IpfsCID,
		IssuedTo:       issued.IssuedTo.String(),
		TxHash:         issued.Receipt.TxHash,
		BlockNumber:    issued.Receipt.BlockNumber,
	})
}

func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.requireSigner(w, r) {
		return
	}
	hash, err := models.ParseDigest(chi.URLParam(r, "hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.service.Revoke(ctx, hash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

func (h *Handler) HandleTrust(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccount(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	trusted, err := h.service.IsTrusted(ctx, account)
	if err != nil {
		h.logger.ErrorContext(ctx, "trust lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"account", account,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, TrustResponse{Account: account.String(), Trusted: trusted})
}

func (h *Handler) HandleClaimRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireSigner(w, r) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[ClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := id.ParseAccount(req.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.service.RequestClaim(ctx, target, req.Fields, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) HandleAttestation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if !h.requireSigner(w, r) {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AttestationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	target, err := id.ParseAccount(req.Target)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	receipt, err := h.service.Attest(ctx, target, req.Text)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}
