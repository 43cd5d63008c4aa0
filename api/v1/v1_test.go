package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	newserrs "github.com/harshitpdoshi/news-app/internal/errors"
)

func TestCreateFeedRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		detail string
	}{
		{name: "valid", url: "https://example.com/rss"},
		{name: "missing", url: "", detail: "url is required"},
		{name: "bad scheme", url: "gopher://example.com", detail: "url must be http(s) or a file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CreateFeedRequest{URL: tt.url}.Validate()
			if tt.detail == "" {
				assert.NoError(t, err)
				return
			}

			var e *newserrs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, newserrs.KindInvalid, e.Kind)
			require.Len(t, e.Details, 1)
			assert.Equal(t, "url", e.Details[0].Field)
			assert.Equal(t, tt.detail, e.Details[0].Error)
		})
	}
}
