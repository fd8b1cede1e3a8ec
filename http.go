package automodeler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkghttp "github.com/jdziat/automodeler-go/pkg/http"
)

// httpClient handles HTTP requests to the AutoModeler backend.
// Each call issues exactly one request; nothing is retried.
type httpClient struct {
	client          *http.Client
	baseURL         string
	userAgent       string
	hook            pkghttp.HTTPHook
	maxResponseSize int64
}

// newHTTPClient copies cfg.HTTPClient and installs jar and a redirect policy
// on the copy. Redirects are not followed: the backend answers successful form
// posts with a redirect to the next page and unauthenticated calls with a
// redirect to the login page, and both are interpreted in doOnce.
func newHTTPClient(cfg *Config, jar http.CookieJar) *httpClient {
	hc := *cfg.HTTPClient
	hc.Jar = jar
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	if hc.Timeout == 0 {
		hc.Timeout = cfg.Timeout
	}

	hooks := make([]pkghttp.HTTPHook, 0, len(cfg.HTTPHooks)+1)
	hooks = append(hooks, pkghttp.LoggingHook(cfg.StructuredLogger))
	hooks = append(hooks, cfg.HTTPHooks...)

	return &httpClient{
		client:          &hc,
		baseURL:         cfg.BaseURL,
		userAgent:       cfg.UserAgent,
		hook:            pkghttp.CombineHooks(hooks),
		maxResponseSize: cfg.MaxResponseSize,
	}
}

// request represents an HTTP request to be made.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	result      any
	raw         bool
}

// doOnce executes a single HTTP request and returns the response body.
func (h *httpClient) doOnce(ctx context.Context, req *request) ([]byte, error) {
	u := h.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var bodyReader io.Reader
	if req.body != nil {
		bodyReader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("automodeler: failed to create request: %w", err)
	}

	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.raw {
		httpReq.Header.Set("Accept", "text/html, */*")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set("User-Agent", h.userAgent)
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")

	if h.hook != nil {
		if err := h.hook.BeforeRequest(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("automodeler: request hook: %w", err)
		}
	}

	start := time.Now()
	resp, err := h.client.Do(httpReq)
	if h.hook != nil {
		h.hook.AfterResponse(ctx, httpReq, resp, time.Since(start), err)
	}
	if err != nil {
		return nil, &NetworkError{Method: req.method, Path: req.path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, h.maxResponseSize+1))
	if err != nil {
		return nil, &NetworkError{Method: req.method, Path: req.path, Err: fmt.Errorf("read response body: %w", err)}
	}
	if int64(len(respBody)) > h.maxResponseSize {
		return nil, fmt.Errorf("automodeler: response from %s exceeds %d bytes", req.path, h.maxResponseSize)
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if isLoginRedirect(resp.Header.Get("Location")) {
			return nil, ErrNotAuthenticated
		}
		return nil, nil
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Path: req.path}
		if len(respBody) > 0 {
			_ = json.Unmarshal(respBody, apiErr)
		}
		return nil, apiErr
	}

	if req.raw {
		return respBody, nil
	}

	if semErr := semanticError(resp.StatusCode, req.path, respBody); semErr != nil {
		return nil, semErr
	}

	if req.result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, req.result); err != nil {
			return nil, fmt.Errorf("automodeler: failed to decode response from %s: %w", req.path, err)
		}
	}
	return respBody, nil
}

// isLoginRedirect reports whether a redirect target is the login page.
func isLoginRedirect(location string) bool {
	if location == "" {
		return false
	}
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	p := strings.TrimSuffix(u.Path, "/")
	return p == "" || p == "/login"
}

// envelope holds the fields the backend uses to report failure inside a
// success response.
type envelope struct {
	Success *bool  `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   any    `json:"error"`
}

// semanticError inspects a 2xx body for a failure payload.
func semanticError(status int, path string, body []byte) *SemanticError {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil
	}

	errText, _ := env.Error.(string)
	failed := false
	switch {
	case env.Success != nil && !*env.Success:
		failed = true
	case strings.EqualFold(env.Status, "error"):
		failed = true
	case env.Success == nil && errText != "":
		failed = true
	}
	if !failed {
		return nil
	}

	msg := errText
	if msg == "" {
		msg = env.Message
	}
	return &SemanticError{StatusCode: status, Message: msg, Path: path}
}

// Get performs a GET request.
func (h *httpClient) Get(ctx context.Context, path string, query url.Values, result any) error {
	_, err := h.doOnce(ctx, &request{
		method: http.MethodGet,
		path:   path,
		query:  query,
		result: result,
	})
	return err
}

// PostJSON performs a POST with a JSON body.
func (h *httpClient) PostJSON(ctx context.Context, path string, body, result any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("automodeler: failed to marshal request body: %w", err)
		}
	}
	_, err := h.doOnce(ctx, &request{
		method:      http.MethodPost,
		path:        path,
		body:        data,
		contentType: "application/json",
		result:      result,
	})
	return err
}

// PostForm performs a url-encoded form POST.
func (h *httpClient) PostForm(ctx context.Context, path string, form url.Values, result any) error {
	_, err := h.doOnce(ctx, &request{
		method:      http.MethodPost,
		path:        path,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		result:      result,
	})
	return err
}

// PostMultipart performs a multipart form POST.
func (h *httpClient) PostMultipart(ctx context.Context, path string, body *pkghttp.Multipart, result any) error {
	if body == nil {
		return ErrNilRequest
	}
	data, contentType, err := body.Encode()
	if err != nil {
		return err
	}
	_, err = h.doOnce(ctx, &request{
		method:      http.MethodPost,
		path:        path,
		body:        data,
		contentType: contentType,
		result:      result,
	})
	return err
}

// PostFormRaw performs a form POST and returns the undecoded body.
func (h *httpClient) PostFormRaw(ctx context.Context, path string, form url.Values) ([]byte, error) {
	return h.doOnce(ctx, &request{
		method:      http.MethodPost,
		path:        path,
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		raw:         true,
	})
}

// CloseIdleConnections closes keep-alive connections to the backend.
func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}

var _ pkghttp.Doer = (*httpClient)(nil)
