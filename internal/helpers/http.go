package helpers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/isometry/storefront-integrity/internal/models"
)

type httpResponse struct {
	Message   string     `json:"message,omitempty"`
	Data      any        `json:"data,omitempty"`
	Error     *httpError `json:"error,omitempty"`
	RequestID string     `json:"requestId,omitempty"`
}

type httpError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondHTTP writes a plain message response.
func RespondHTTP(response models.Response, rw http.ResponseWriter, r *http.Request) {
	write(rw, r, response.StatusCode, response.Headers, httpResponse{Message: response.Body})
}

// RespondJSON writes data wrapped in the standard envelope.
func RespondJSON(rw http.ResponseWriter, r *http.Request, statusCode int, data any) {
	write(rw, r, statusCode, nil, httpResponse{Data: data})
}

// RespondError writes err as a client-facing failure. Errors that are not *models.Failure are
// reported as opaque internal errors.
func RespondError(rw http.ResponseWriter, r *http.Request, err error) {
	var failure *models.Failure
	if !errors.As(err, &failure) {
		failure = models.NewInternal()
	}
	write(rw, r, failure.Status, nil, httpResponse{
		Error: &httpError{Code: failure.Code, Message: failure.Message},
	})
}

func write(rw http.ResponseWriter, r *http.Request, statusCode int, headers map[string]string, body httpResponse) {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	if r != nil {
		body.RequestID = chimiddleware.GetReqID(r.Context())
	}
	respBody, _ := json.Marshal(body)
	for k, v := range headers {
		rw.Header().Set(k, v)
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	_, _ = rw.Write(respBody)
}
