package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"credo/internal/extract/mocks"
)

func TestParseReply(t *testing.T) {
	want := Result{DocumentType: "School Marksheet", Name: "Alice", Year: "2020"}

	tests := []struct {
		name  string
		reply string
	}{
		{"bare json", `{"documentType":"School Marksheet","name":"Alice","year":"2020"}`},
		{"fenced json", "```json\n{\"documentType\":\"School Marksheet\",\"name\":\"Alice\",\"year\":\"2020\"}\n```"},
		{"plain fence with padding", "  ```\n{\"documentType\":\"School Marksheet\",\"name\":\"Alice\",\"year\":\"2020\"}```  "},
		{"numeric year", `{"documentType":"School Marksheet","name":"Alice","year":2020}`},
		{"extra members ignored", `{"documentType":"School Marksheet","name":"Alice","year":"2020","confidence":0.9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("prose is rejected", func(t *testing.T) {
		_, err := ParseReply("I could not read this document.")
		assert.ErrorIs(t, err, ErrUnparseable)
	})

	t.Run("array is rejected", func(t *testing.T) {
		_, err := ParseReply(`["Alice"]`)
		assert.ErrorIs(t, err, ErrUnparseable)
	})
}

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	model   *mocks.MockModel
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.model = mocks.NewMockModel(s.ctrl)
	s.model.EXPECT().Name().Return("gemini-test").AnyTimes()
	s.service = New(s.model)
}

func (s *ServiceSuite) TestExtractSendsDocumentWithPrompt() {
	doc := []byte("%PDF-1.7 ...")
	s.model.EXPECT().
		Generate(gomock.Any(), DefaultPrompt, doc, "application/pdf").
		Return("```json\n{\"documentType\":\"Driving License\",\"name\":\"Bob\",\"year\":\"2019\"}\n```", nil)

	res, err := s.service.Extract(context.Background(), doc, "")
	s.Require().NoError(err)
	s.Equal(Result{DocumentType: "Driving License", Name: "Bob", Year: "2019"}, res)
}

func (s *ServiceSuite) TestCustomPrompt() {
	svc := New(s.model, WithPrompt("classify"), WithPrompt("   "))
	s.model.EXPECT().Generate(gomock.Any(), "classify", gomock.Any(), "image/png").Return(`{}`, nil)

	res, err := svc.Extract(context.Background(), []byte{1}, "image/png")
	s.Require().NoError(err)
	s.Equal(Result{}, res)
}

func (s *ServiceSuite) TestModelError() {
	s.model.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("quota exceeded"))

	_, err := s.service.Extract(context.Background(), []byte{1}, "")
	s.ErrorContains(err, "quota exceeded")
}

func (s *ServiceSuite) TestUnparseableReply() {
	s.model.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("Sorry, I can't help with that.", nil)

	_, err := s.service.Extract(context.Background(), []byte{1}, "")
	s.ErrorIs(err, ErrUnparseable)
}

func TestExtractNotConfigured(t *testing.T) {
	svc := New(nil)
	assert.False(t, svc.Configured())
	_, err := svc.Extract(context.Background(), []byte{1}, "")
	assert.ErrorContains(t, err, "not configured")
}
