package handler

import (
	"strconv"
	"strings"

	"credo/internal/credential/models"
	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	s "credo/pkg/string"
	"credo/pkg/validation"
)

// CreateSessionRequest opens a verification session. Both fields are
// optional; Hash is ignored when it is malformed or matches no record.
type CreateSessionRequest struct {
	User string `json:"user" validate:"omitempty,eth_addr"`
	Hash string `json:"hash" validate:"max=130"`
}

func (r *CreateSessionRequest) Sanitize() {
	s.TrimStrings(&r.User, &r.Hash)
}

func (r *CreateSessionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// SetAddressRequest switches a session to another holder.
type SetAddressRequest struct {
	User string `json:"user" validate:"required,eth_addr"`
	Hash string `json:"hash" validate:"max=130"`
}

func (r *SetAddressRequest) Sanitize() {
	s.TrimStrings(&r.User, &r.Hash)
}

func (r *SetAddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func parseAccountParam(raw string) (id.Account, error) {
	return id.ParseAccount(raw)
}

func parseHashParam(raw string) (models.Digest, error) {
	return models.ParseDigest(raw)
}

func parseIndexParam(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "index must be a non-negative integer")
	}
	return n, nil
}

const maxLogLimit = 500

// parseLogFilter reads ?credential_hash=&account=&outcome=&limit=.
func parseLogFilter(q map[string][]string) (models.LogFilter, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	var f models.LogFilter
	if raw := get("credential_hash"); raw != "" {
		d, err := models.ParseDigest(raw)
		if err != nil {
			return f, err
		}
		f.CredentialHash = &d
	}
	if raw := get("account"); raw != "" {
		acct, err := id.ParseAccount(raw)
		if err != nil {
			return f, err
		}
		f.Account = acct
	}
	if raw := get("outcome"); raw != "" {
		o, err := models.ParseOutcome(raw)
		if err != nil {
			return f, err
		}
		f.Outcome = o
	}
	if raw := get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxLogLimit {
			return f, dErrors.New(dErrors.CodeBadRequest, "limit must be between 1 and 500")
		}
		f.Limit = n
	}
	return f, nil
}
