package handler

import (
	"time"

	"credo/internal/credential/disclosure"
	"credo/internal/credential/models"
	"credo/internal/credential/service"
	"credo/internal/credential/session"
	id "credo/pkg/domain"
)

type CredentialResponse struct {
	CredentialHash string    `json:"credential_hash"`
	IpfsCID        string    `json:"ipfs_cid"`
	Issuer         string    `json:"issuer"`
	IsValid        bool      `json:"is_valid"`
	Status         string    `json:"status"`
	IssuedAt       time.Time `json:"issued_at"`
}

type VerificationResponse struct {
	CredentialHash string `json:"credential_hash"`
	IpfsCID        string `json:"ipfs_cid"`
	Outcome        string `json:"outcome"`
	Message        string `json:"message"`
	Failure        string `json:"failure,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Retryable      bool   `json:"retryable"`
	ComputedHash   string `json:"computed_hash,omitempty"`
	Scheme         string `json:"scheme,omitempty"`
}

type DisclosedEntry struct {
	Key     string `json:"key"`
	Display string `json:"display"`
}

type DisclosureResponse struct {
	CredentialHash string                 `json:"credential_hash"`
	Shape          string                 `json:"shape"`
	Summary        *models.StandardFields `json:"summary,omitempty"`
	Fields         models.DisclosedView   `json:"fields"`
	Entries        []DisclosedEntry       `json:"entries"`
}

type CredentialListResponse struct {
	Account     string               `json:"account"`
	Credentials []CredentialResponse `json:"credentials"`
}

type EntryResponse struct {
	Account      string                `json:"account"`
	Credentials  []CredentialResponse  `json:"credentials"`
	Verification *VerificationResponse `json:"verification,omitempty"`
}

type VerifyAllResponse struct {
	Account string                 `json:"account"`
	Results []VerificationResponse `json:"results"`
	Summary map[string]int         `json:"summary"`
}

type VerificationLogEntryResponse struct {
	ID             string    `json:"id"`
	CredentialHash string    `json:"credential_hash"`
	IpfsCID        string    `json:"ipfs_cid"`
	Account        string    `json:"account,omitempty"`
	Outcome        string    `json:"outcome"`
	Failure        string    `json:"failure,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Device         string    `json:"device,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	VerifiedAt     time.Time `json:"verified_at"`
}

type VerificationLogResponse struct {
	Entries []VerificationLogEntryResponse `json:"entries"`
}

type SessionVerification struct {
	CredentialHash string                `json:"credential_hash"`
	Pending        bool                  `json:"pending"`
	Result         *VerificationResponse `json:"result,omitempty"`
}

type SessionResponse struct {
	SessionID    string               `json:"session_id"`
	Address      string               `json:"address,omitempty"`
	Loading      bool                 `json:"loading"`
	Credentials  []CredentialResponse `json:"credentials"`
	Verification *SessionVerification `json:"verification,omitempty"`
	Disclosure   *DisclosureResponse  `json:"disclosure,omitempty"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

func toCredentialResponses(records []models.CredentialRecord) []CredentialResponse {
	out := make([]CredentialResponse, 0, len(records))
	for _, r := range records {
		out = append(out, CredentialResponse{
			CredentialHash: r.CredentialHash.Hex(),
			IpfsCID:        r.IpfsCID,
			Issuer:         r.Issuer.String(),
			IsValid:        r.IsValid,
			Status:         r.Status(),
			IssuedAt:       r.IssuedAt.UTC(),
		})
	}
	return out
}

func toVerificationResponse(v models.Verification) VerificationResponse {
	res := VerificationResponse{
		CredentialHash: v.Record.CredentialHash.Hex(),
		IpfsCID:        v.Record.IpfsCID,
		Outcome:        string(v.Outcome),
		Message:        v.Outcome.Label(),
		Failure:        string(v.Failure),
		Reason:         v.Reason,
		Retryable:      v.Failure.Retryable(),
		Scheme:         v.Scheme,
	}
	if v.Computed != nil {
		res.ComputedHash = v.Computed.Hex()
	}
	return res
}

func toDisclosureResponse(d disclosure.Disclosure) DisclosureResponse {
	entries := d.View.Entries()
	out := make([]DisclosedEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DisclosedEntry{Key: e.Key, Display: e.Display})
	}
	resp := DisclosureResponse{
		CredentialHash: d.Record.CredentialHash.Hex(),
		Shape:          d.Shape.String(),
		Fields:         d.View,
		Entries:        out,
	}
	if std, err := d.View.Standard(); err == nil && std != (models.StandardFields{}) {
		resp.Summary = &std
	}
	return resp
}

func toEntryResponse(res *service.EntryResult) EntryResponse {
	out := EntryResponse{
		Account:     res.Account.String(),
		Credentials: toCredentialResponses(res.Records),
	}
	if res.Verification != nil {
		v := toVerificationResponse(*res.Verification)
		out.Verification = &v
	}
	return out
}

func toVerifyAllResponse(account id.Account, results []models.Verification) VerifyAllResponse {
	out := VerifyAllResponse{
		Account: account.String(),
		Results: make([]VerificationResponse, 0, len(results)),
		Summary: map[string]int{},
	}
	for _, v := range results {
		out.Results = append(out.Results, toVerificationResponse(v))
		out.Summary[string(v.Outcome)]++
	}
	return out
}

func toLogResponse(entries []models.VerificationLogEntry) VerificationLogResponse {
	out := VerificationLogResponse{Entries: make([]VerificationLogEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, VerificationLogEntryResponse{
			ID:             e.ID.String(),
			CredentialHash: e.CredentialHash.Hex(),
			IpfsCID:        e.IpfsCID,
			Account:        e.Account.String(),
			Outcome:        string(e.Outcome),
			Failure:        string(e.Failure),
			Reason:         e.Reason,
			Device:         e.Device,
			RequestID:      e.RequestID,
			VerifiedAt:     e.VerifiedAt.UTC(),
		})
	}
	return out
}

func toSessionResponse(sessionID id.SessionID, snap session.Snapshot) SessionResponse {
	out := SessionResponse{
		SessionID:   sessionID.String(),
		Address:     snap.Address.String(),
		Loading:     snap.Loading,
		Credentials: toCredentialResponses(snap.Records),
		UpdatedAt:   snap.UpdatedAt,
	}
	if snap.Verification != nil {
		sv := &SessionVerification{
			CredentialHash: snap.Verification.CredentialHash.Hex(),
			Pending:        snap.Verification.Pending,
		}
		if !snap.Verification.Pending {
			v := toVerificationResponse(snap.Verification.Result)
			sv.Result = &v
		}
		out.Verification = sv
	}
	if snap.Disclosure != nil {
		d := toDisclosureResponse(*snap.Disclosure)
		out.Disclosure = &d
	}
	return out
}
