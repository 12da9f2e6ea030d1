package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"credo/internal/credential/models"
	id "credo/pkg/domain"
)

// PostgresStore persists the verification log in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, e models.VerificationLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_log
			(id, credential_hash, ipfs_cid, account, outcome, failure, reason, device, request_id, verified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(e.ID), e.CredentialHash[:], e.IpfsCID, string(e.Account), string(e.Outcome),
		string(e.Failure), e.Reason, e.Device, e.RequestID, e.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification log: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.LogFilter) ([]models.VerificationLogEntry, error) {
	var (
		where []string
		args  []any
	)
	if filter.CredentialHash != nil {
		args = append(args, filter.CredentialHash[:])
		where = append(where, fmt.Sprintf("credential_hash = $%d", len(args)))
	}
	if filter.Account != "" {
		args = append(args, string(filter.Account))
		where = append(where, fmt.Sprintf("account = $%d", len(args)))
	}
	if filter.Outcome != "" {
		args = append(args, string(filter.Outcome))
		where = append(where, fmt.Sprintf("outcome = $%d", len(args)))
	}

	query := `SELECT id, credential_hash, ipfs_cid, account, outcome, failure, reason, device, request_id, verified_at
		FROM verification_log`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, effectiveLimit(filter))
	query += fmt.Sprintf(" ORDER BY verified_at DESC LIMIT $%d", len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verification log: %w", err)
	}
	defer rows.Close()

	var out []models.VerificationLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification log: %w", err)
	}
	return out, nil
}

func scanEntry(rows *sql.Rows) (models.VerificationLogEntry, error) {
	var (
		e                         models.VerificationLogEntry
		entryID                   uuid.UUID
		hash                      []byte
		account, outcome, failure string
	)
	if err := rows.Scan(&entryID, &hash, &e.IpfsCID, &account, &outcome, &failure,
		&e.Reason, &e.Device, &e.RequestID, &e.VerifiedAt); err != nil {
		return e, fmt.Errorf("scan verification log: %w", err)
	}
	if len(hash) != len(e.CredentialHash) {
		return e, fmt.Errorf("scan verification log: credential hash has %d bytes", len(hash))
	}
	copy(e.CredentialHash[:], hash)
	e.ID = id.VerificationID(entryID)
	e.Account = id.Account(account)
	e.Outcome = models.Outcome(outcome)
	e.Failure = models.Failure(failure)
	e.VerifiedAt = e.VerifiedAt.UTC()
	return e, nil
}
