package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "credo/pkg/domain"
	dErrors "credo/pkg/domain-errors"
	"credo/pkg/requestcontext"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{dErrors.New(dErrors.CodeNotFound, "credential not found"), http.StatusNotFound, "not_found"},
		{dErrors.New(dErrors.CodeConflict, "credential already revoked"), http.StatusConflict, "conflict"},
		{dErrors.New(dErrors.CodeUnavailable, "ledger unreachable"), http.StatusBadGateway, "upstream_unavailable"},
		{dErrors.New(dErrors.CodeTimeout, "gateway timeout"), http.StatusGatewayTimeout, "upstream_timeout"},
		{dErrors.New(dErrors.CodeNotConfigured, "issuance disabled"), http.StatusNotImplemented, "not_configured"},
		{fmt.Errorf("wrapped: %w", dErrors.New(dErrors.CodeInvalidInput, "bad hash")), http.StatusBadRequest, "bad_request"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Contains(t, w.Body.String(), `"error":"`+tc.code+`"`)
		})
	}

	t.Run("internal errors do not leak details", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, errors.New("pq: password authentication failed"))
		assert.NotContains(t, w.Body.String(), "password")
	})
}

func TestRequireIssuer(t *testing.T) {
	t.Run("missing issuer is an internal error", func(t *testing.T) {
		_, err := RequireIssuer(context.Background(), nil, "req-1")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})

	t.Run("returns issuer from context", func(t *testing.T) {
		ctx := requestcontext.WithIssuer(context.Background(), id.Account("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
		acct, err := RequireIssuer(ctx, nil, "req-1")
		require.NoError(t, err)
		assert.Equal(t, id.Account("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"), acct)
	})
}
