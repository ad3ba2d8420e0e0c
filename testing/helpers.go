// Package testing provides test utilities and helpers: request builders,
// response assertions and containers for integration tests.
package testing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/consorcio/emissions/auth"
	apperrors "github.com/consorcio/emissions/errors"
)

// TestContextWithTimeout returns a context cancelled when the test ends.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// HTTPTestRequest builds a request against the API. Bodies are JSON unless
// set raw.
type HTTPTestRequest struct {
	Method  string
	Path    string
	Body    interface{}
	Raw     *string
	Headers map[string]string
}

// NewHTTPTestRequest creates a new HTTP test request.
func NewHTTPTestRequest(method, path string) *HTTPTestRequest {
	return &HTTPTestRequest{
		Method:  method,
		Path:    path,
		Headers: make(map[string]string),
	}
}

// WithBody sets a value to be sent as JSON.
func (r *HTTPTestRequest) WithBody(body interface{}) *HTTPTestRequest {
	r.Body = body
	return r
}

// WithRawBody sets a body sent as is, for malformed payloads.
func (r *HTTPTestRequest) WithRawBody(body string) *HTTPTestRequest {
	r.Raw = &body
	return r
}

// WithHeader adds a header to the request.
func (r *HTTPTestRequest) WithHeader(key, value string) *HTTPTestRequest {
	r.Headers[key] = value
	return r
}

// WithAuth adds an Authorization header with a Bearer token.
func (r *HTTPTestRequest) WithAuth(token string) *HTTPTestRequest {
	return r.WithHeader("Authorization", "Bearer "+token)
}

// WithContentType overrides the JSON content type.
func (r *HTTPTestRequest) WithContentType(contentType string) *HTTPTestRequest {
	return r.WithHeader("Content-Type", contentType)
}

// Build builds the HTTP request.
func (r *HTTPTestRequest) Build(t *testing.T) *http.Request {
	t.Helper()

	var body io.Reader
	switch {
	case r.Raw != nil:
		body = strings.NewReader(*r.Raw)
	case r.Body != nil:
		data, err := json.Marshal(r.Body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(r.Method, r.Path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range r.Headers {
		req.Header.Set(key, value)
	}
	return req
}

// HTTPTestResponse wraps httptest.ResponseRecorder with assertions.
type HTTPTestResponse struct {
	*httptest.ResponseRecorder
	t *testing.T
}

// ExecuteRequest serves req with handler and records the response.
func ExecuteRequest(t *testing.T, handler http.Handler, req *http.Request) *HTTPTestResponse {
	resp := &HTTPTestResponse{ResponseRecorder: httptest.NewRecorder(), t: t}
	handler.ServeHTTP(resp, req)
	return resp
}

// AssertStatus reports the body along with an unexpected status.
func (r *HTTPTestResponse) AssertStatus(expected int) *HTTPTestResponse {
	r.t.Helper()
	if r.Code != expected {
		r.t.Errorf("expected status %d, got %d: %s", expected, r.Code, strings.TrimSpace(r.Body.String()))
	}
	return r
}

func (r *HTTPTestResponse) AssertOK() *HTTPTestResponse {
	return r.AssertStatus(http.StatusOK)
}

func (r *HTTPTestResponse) AssertCreated() *HTTPTestResponse {
	return r.AssertStatus(http.StatusCreated)
}

func (r *HTTPTestResponse) AssertBadRequest() *HTTPTestResponse {
	return r.AssertStatus(http.StatusBadRequest)
}

func (r *HTTPTestResponse) AssertUnauthorized() *HTTPTestResponse {
	return r.AssertStatus(http.StatusUnauthorized)
}

func (r *HTTPTestResponse) AssertForbidden() *HTTPTestResponse {
	return r.AssertStatus(http.StatusForbidden)
}

func (r *HTTPTestResponse) AssertNotFound() *HTTPTestResponse {
	return r.AssertStatus(http.StatusNotFound)
}

// DecodeJSON decodes the response body as JSON.
func (r *HTTPTestResponse) DecodeJSON(v interface{}) *HTTPTestResponse {
	r.t.Helper()
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		r.t.Fatalf("failed to decode JSON %q: %v", r.Body.String(), err)
	}
	return r
}

// ErrorBody decodes the response as an error envelope.
func (r *HTTPTestResponse) ErrorBody() apperrors.ErrorResponse {
	r.t.Helper()
	var resp apperrors.ErrorResponse
	r.DecodeJSON(&resp)
	return resp
}

// AssertErrorCode asserts the error envelope carries code.
func (r *HTTPTestResponse) AssertErrorCode(code string) *HTTPTestResponse {
	r.t.Helper()
	if got := r.ErrorBody().Error; got.Code != code {
		r.t.Errorf("expected error code %s, got %s (%s)", code, got.Code, got.Message)
	}
	return r
}

// BearerToken mints an access token for the given roles.
func BearerToken(t *testing.T, manager *auth.JWTManager, subject, email string, roles ...string) string {
	t.Helper()

	token, err := manager.GenerateAccessToken(subject, email, roles)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}
