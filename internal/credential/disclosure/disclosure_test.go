package disclosure

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"credo/internal/contentstore"
	"credo/internal/contentstore/mocks"
	"credo/internal/credential/canonical"
	"credo/internal/credential/models"
)

const aliceDoc = `{"name":"Alice","type":"Degree","year":"2020","issuedTo":"0xabc","timestamp":"2024-01-01T00:00:00Z"}`

func TestProject(t *testing.T) {
	t.Run("flat payload drops internal fields and keeps order", func(t *testing.T) {
		view, shape, err := Project([]byte(aliceDoc))
		require.NoError(t, err)
		assert.Equal(t, models.ShapeFlat, shape)
		assert.Equal(t, []string{"name", "type", "year"}, view.Keys())

		out, err := json.Marshal(view)
		require.NoError(t, err)
		assert.Equal(t, `{"name":"Alice","type":"Degree","year":"2020"}`, string(out))
	})

	t.Run("enveloped payload is unwrapped", func(t *testing.T) {
		view, shape, err := Project([]byte(`{"credential":{"year":"2020","issuedTo":"0xabc","name":"Alice","timestamp":"t","honours":["first",null]}}`))
		require.NoError(t, err)
		assert.Equal(t, models.ShapeEnveloped, shape)
		assert.Equal(t, []string{"year", "name", "honours"}, view.Keys())
		assert.Equal(t, "first,", view.Entries()[2].Display)
	})

	t.Run("internal fields never survive in either shape", func(t *testing.T) {
		docs := []string{
			`{"issuedTo":"0x1","timestamp":"t"}`,
			`{"credential":{"timestamp":"t","issuedTo":"0x1","type":"Degree"}}`,
			`{"type":"Degree","nested":{"issuedTo":"kept inside nested values"},"issuedTo":"0x1"}`,
		}
		for _, doc := range docs {
			view, _, err := Project([]byte(doc))
			require.NoError(t, err, doc)
			for _, k := range view.Keys() {
				assert.NotContains(t, models.InternalFields, k, doc)
			}
		}
	})

	t.Run("values pass through unchanged", func(t *testing.T) {
		view, _, err := Project([]byte(`{"year":2020,"active":true,"meta":{"a":1}}`))
		require.NoError(t, err)
		year, ok := view.Get("year")
		require.True(t, ok)
		assert.Equal(t, float64(2020), year)
		meta, _ := view.Get("meta")
		assert.IsType(t, &canonical.Object{}, meta)
		assert.Equal(t, "[object Object]", view.Entries()[2].Display)
	})

	t.Run("non-object content is a parse failure", func(t *testing.T) {
		for _, doc := range []string{"", "not json", `["Alice"]`, `"Alice"`} {
			_, _, err := Project([]byte(doc))
			require.Error(t, err, doc)
			assert.Equal(t, models.FailureContentParse, FailureOf(err), doc)
		}
	})
}

func TestProjectorDisclose(t *testing.T) {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockFetcher(ctrl)
	record := models.CredentialRecord{IpfsCID: "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy", IsValid: false}
	ctx := context.Background()

	t.Run("revoked records can still be disclosed", func(t *testing.T) {
		fetcher.EXPECT().Fetch(gomock.Any(), record.IpfsCID).Return([]byte(aliceDoc), nil)

		d, err := New(fetcher).Disclose(ctx, record)
		require.NoError(t, err)
		assert.Equal(t, record, d.Record)
		assert.Equal(t, 3, d.View.Len())
	})

	t.Run("fetch failure carries the cause", func(t *testing.T) {
		cause := contentstore.NewFetchError(contentstore.ErrorNotFound, record.IpfsCID, "content not found", nil)
		fetcher.EXPECT().Fetch(gomock.Any(), record.IpfsCID).Return(nil, cause)

		_, err := New(fetcher).Disclose(ctx, record)
		require.Error(t, err)
		assert.Equal(t, models.FailureContentFetch, FailureOf(err))

		var fe *contentstore.FetchError
		assert.True(t, errors.As(err, &fe))
	})
}
