// Package runtime adapts the HTTP router to the service and Lambda execution modes.
package runtime

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/isometry/storefront-integrity/internal/helpers"
	"github.com/pkg/errors"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger instance for the runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// Runtime serves handler directly or from Lambda events.
type Runtime struct {
	handler http.Handler
	logger  *slog.Logger
}

// NewRuntime creates a new runtime instance.
func NewRuntime(handler http.Handler, opts ...Option) *Runtime {
	_inst := &Runtime{handler: handler}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// ServeHTTP is the HTTP handler for the runtime.
func (r *Runtime) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.logger.Debug("received HTTP request...", slog.String("requestor", req.RemoteAddr), slog.String("method", req.Method), slog.String("path", req.URL.Path))
	r.handler.ServeHTTP(w, req)
}

// Lambda handles an API Gateway v2 HTTP API event.
func (r *Runtime) Lambda(ctx context.Context, event events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	rc := event.RequestContext.HTTP
	req, err := r.newRequest(ctx, rc.Method, event.RawPath, event.RawQueryString, event.Headers, event.Cookies,
		event.Body, event.IsBase64Encoded, rc.SourceIP)
	if err != nil {
		r.logger.Warn("rejecting malformed API Gateway event", slog.Any("error", err))
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "bad request"}, nil
	}
	rec := r.record(req)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: rec.status,
		Headers:    rec.headers(),
		Cookies:    rec.cookies(),
		Body:       rec.body.String(),
	}, nil
}

// LambdaURL handles a Lambda function URL event.
func (r *Runtime) LambdaURL(ctx context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
	rc := event.RequestContext.HTTP
	req, err := r.newRequest(ctx, rc.Method, event.RawPath, event.RawQueryString, event.Headers, event.Cookies,
		event.Body, event.IsBase64Encoded, rc.SourceIP)
	if err != nil {
		r.logger.Warn("rejecting malformed function URL event", slog.Any("error", err))
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusBadRequest, Body: "bad request"}, nil
	}
	rec := r.record(req)
	return events.LambdaFunctionURLResponse{
		StatusCode: rec.status,
		Headers:    rec.headers(),
		Cookies:    rec.cookies(),
		Body:       rec.body.String(),
	}, nil
}

func (r *Runtime) newRequest(ctx context.Context, method, path, query string, headers map[string]string, cookies []string, body string, base64Encoded bool, sourceIP string) (*http.Request, error) {
	payload := []byte(body)
	if base64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode request body")
		}
		payload = decoded
	}
	if path == "" {
		path = "/"
	}
	u := &url.URL{Path: path, RawQuery: query}
	if unescaped, err := url.PathUnescape(path); err == nil {
		u.Path, u.RawPath = unescaped, path
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if len(cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(cookies, "; "))
	}
	req.Host = req.Header.Get("Host")
	req.RemoteAddr = sourceIP
	return req, nil
}

func (r *Runtime) record(req *http.Request) *recorder {
	rec := newRecorder()
	r.ServeHTTP(rec, req)
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec
}

type recorder struct {
	header http.Header
	body   bytes.Buffer
	status int
}

func newRecorder() *recorder {
	return &recorder{header: http.Header{}}
}

func (rec *recorder) Header() http.Header { return rec.header }

func (rec *recorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.body.Write(b)
}

func (rec *recorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
}

// headers flattens the response headers, leaving cookies to the dedicated field.
func (rec *recorder) headers() map[string]string {
	out := make(map[string]string, len(rec.header))
	for k, v := range rec.header {
		if k == "Set-Cookie" {
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

func (rec *recorder) cookies() []string {
	return rec.header.Values("Set-Cookie")
}
