package errors_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/errors"
)

func newResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Status:     http.StatusText(code),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		code        int
		body        string
		wantErr     bool
		wantMessage string
	}{
		{name: "ok is not an error", code: http.StatusOK, body: "fine"},
		{name: "no content is not an error", code: http.StatusNoContent},
		{name: "redirect left unfollowed is an error", code: http.StatusFound, body: "moved", wantErr: true, wantMessage: "moved"},
		{name: "json error field", code: http.StatusBadRequest, body: `{"error":"bad key"}`, wantErr: true, wantMessage: "bad key"},
		{name: "json message field", code: http.StatusForbidden, body: `{"message":"denied"}`, wantErr: true, wantMessage: "denied"},
		{name: "plain text body", code: http.StatusBadGateway, body: "upstream down\n", wantErr: true, wantMessage: "upstream down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := infraerrors.ParseHTTPError(newResponse(tt.code, tt.body))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var httpErr *infraerrors.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.code, httpErr.StatusCode)
			assert.Equal(t, tt.wantMessage, httpErr.Message)
		})
	}
}
