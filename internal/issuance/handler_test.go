package issuance

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"credo/internal/contentstore"
	"credo/internal/ledger"
	id "credo/pkg/domain"
	"credo/pkg/requestcontext"
)

type HandlerSuite struct {
	suite.Suite
	ledger *ledger.MemoryLedger
	caller id.Account
	router http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ledger = ledger.NewMemoryLedger(issuer)
	s.caller = issuer
	svc, err := New(contentstore.NewMemoryStore(), s.ledger,
		WithTrustRegistry(s.ledger),
		WithInteractionHub(s.ledger),
	)
	s.Require().NoError(err)

	h := NewHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := req.Context()
				if s.caller != "" {
					ctx = requestcontext.WithIssuer(ctx, s.caller)
				}
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.RegisterProtected(r)
	})
	s.router = r
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) TestIssueThenRevoke() {
	rec := s.do(http.MethodPost, "/v1/credentials", `{"name":" Alice ","type":"Degree","year":"2020","recipient":"`+string(holder)+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var issued IssueResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &issued))
	s.Equal(string(holder), issued.IssuedTo)
	s.Len(issued.CredentialHash, 66)
	s.NotEmpty(issued.TxHash)

	records, err := s.ledger.ListCredentials(context.Background(), holder)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(issued.IpfsCID, records[0].IpfsCID)

	rec = s.do(http.MethodPost, "/v1/credentials/"+issued.CredentialHash+"/revoke", "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/v1/credentials/"+issued.CredentialHash+"/revoke", "")
	s.Equal(http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestIssueValidation() {
	rec := s.do(http.MethodPost, "/v1/credentials", `{"name":"   ","type":"Degree","year":"2020"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "name is required")
}

func (s *HandlerSuite) TestIssueRequiresMatchingIssuer() {
	s.caller = holder
	rec := s.do(http.MethodPost, "/v1/credentials", `{"name":"Alice","type":"Degree","year":"2020"}`)
	s.Equal(http.StatusForbidden, rec.Code)

	s.caller = ""
	rec = s.do(http.MethodPost, "/v1/credentials", `{"name":"Alice","type":"Degree","year":"2020"}`)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

func (s *HandlerSuite) TestTrustIsPublic() {
	s.ledger.Trust(issuer)
	rec := s.do(http.MethodGet, "/v1/issuers/"+strings.ToLower(string(issuer))+"/trust", "")
	s.Equal(http.StatusOK, rec.Code)

	var body TrustResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.True(body.Trusted)
	s.Equal(string(issuer), body.Account)
}

func (s *HandlerSuite) TestClaimRequestAndAttestation() {
	rec := s.do(http.MethodPost, "/v1/claim-requests", `{"target":"`+string(holder)+`","reason":"hiring"}`)
	s.Equal(http.StatusCreated, rec.Code)
	s.Equal([]string{"type", "year"}, s.ledger.ClaimRequests()[0].Fields)

	rec = s.do(http.MethodPost, "/v1/attestations", `{"target":"`+string(holder)+`","text":""}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/attestations", `{"target":"`+string(holder)+`","text":"verified employment"}`)
	s.Equal(http.StatusCreated, rec.Code)
	s.Len(s.ledger.Attestations(), 1)
}
