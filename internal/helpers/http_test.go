package helpers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/isometry/storefront-integrity/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestRespondHTTP(t *testing.T) {
	testCases := []struct {
		Name           string
		Response       models.Response
		ExpectedStatus int
		ExpectedHeader string
	}{
		{
			Name: "with_status_and_headers",
			Response: models.Response{
				StatusCode: http.StatusCreated,
				Body:       "Success",
				Headers:    map[string]string{"X-Test": "yes"},
			},
			ExpectedStatus: http.StatusCreated,
			ExpectedHeader: "yes",
		},
		{
			Name:           "empty_response_defaults_to_ok",
			Response:       models.Response{},
			ExpectedStatus: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rw := httptest.NewRecorder()
			helpers.RespondHTTP(tc.Response, rw, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tc.ExpectedStatus, rw.Code)
			assert.Equal(t, tc.ExpectedHeader, rw.Header().Get("X-Test"))
			assert.Equal(t, "application/json", rw.Header().Get("Content-Type"))

			var body envelope
			require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
			assert.Equal(t, tc.Response.Body, body.Message)
			assert.Nil(t, body.Error)
		})
	}
}

func TestRespondError(t *testing.T) {
	testCases := []struct {
		Name           string
		Error          error
		ExpectedStatus int
		ExpectedCode   string
	}{
		{
			Name:           "failure",
			Error:          models.NewRateLimited(),
			ExpectedStatus: http.StatusTooManyRequests,
			ExpectedCode:   models.CodeRateLimited,
		},
		{
			Name:           "wrapped_failure",
			Error:          errors.Wrap(models.NewCSRFTokenMissing(), "verify"),
			ExpectedStatus: http.StatusForbidden,
			ExpectedCode:   models.CodeCSRFTokenMissing,
		},
		{
			Name:           "opaque_error",
			Error:          errors.New("md5 exploded: secret=hunter2"),
			ExpectedStatus: http.StatusInternalServerError,
			ExpectedCode:   models.CodeInternal,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			rw := httptest.NewRecorder()
			helpers.RespondError(rw, httptest.NewRequest(http.MethodPost, "/", nil), tc.Error)

			assert.Equal(t, tc.ExpectedStatus, rw.Code)
			assert.NotContains(t, rw.Body.String(), "hunter2")

			var body envelope
			require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.ExpectedCode, body.Error.Code)
		})
	}
}

func TestRespondJSON(t *testing.T) {
	rw := httptest.NewRecorder()
	helpers.RespondJSON(rw, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, map[string]string{"token": "abc"})

	var body envelope
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	assert.JSONEq(t, `{"token":"abc"}`, string(body.Data))
}
