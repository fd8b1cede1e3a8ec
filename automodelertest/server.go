package automodelertest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// SessionCookieName is the cookie the mock backend issues on login.
const SessionCookieName = "session"

// MockServer is a test HTTP server that emulates the AutoModeler backend and
// records requests for verification.
//
// Every backend route answers with the JSON rendition the client expects.
// Individual routes can be replaced with Handle or RespondWith.
type MockServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []*RecordedRequest
	overrides map[string]http.HandlerFunc
	users     map[string]*user
	sessions  map[string]string
	nextToken int

	// RequireAuth makes run routes redirect to the login page without a
	// session cookie. It defaults to true.
	RequireAuth bool
}

// RecordedRequest represents a recorded HTTP request.
type RecordedRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header

	// Form holds url-encoded or multipart form values.
	Form url.Values

	// Files maps multipart file fields to the uploaded file names.
	Files map[string]string
}

// JSON decodes the recorded body into v.
func (r *RecordedRequest) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// NewMockServer creates a new mock backend for testing.
func NewMockServer() *MockServer {
	ms := &MockServer{
		overrides:   make(map[string]http.HandlerFunc),
		users:       make(map[string]*user),
		sessions:    make(map[string]string),
		RequireAuth: true,
	}
	ms.Server = httptest.NewServer(http.HandlerFunc(ms.serveHTTP))
	return ms
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (ms *MockServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	rec := record(r)

	ms.mu.Lock()
	ms.requests = append(ms.requests, rec)
	override := ms.overrides[routeKey(r.Method, r.URL.Path)]
	ms.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}
	ms.route(w, r)
}

// record captures the request and leaves its body readable for handlers.
func record(r *http.Request) *RecordedRequest {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		r.Body.Close()
	}
	rec := &RecordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.Query(),
		Body:        body,
		ContentType: r.Header.Get("Content-Type"),
		Header:      r.Header.Clone(),
		Form:        url.Values{},
		Files:       map[string]string{},
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	switch {
	case strings.HasPrefix(rec.ContentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(32 << 20); err == nil && r.MultipartForm != nil {
			for k, v := range r.MultipartForm.Value {
				rec.Form[k] = append([]string(nil), v...)
			}
			for field, files := range r.MultipartForm.File {
				if len(files) > 0 {
					rec.Files[field] = files[0].Filename
				}
			}
		}
	case strings.HasPrefix(rec.ContentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err == nil {
			for k, v := range r.PostForm {
				rec.Form[k] = append([]string(nil), v...)
			}
		}
	}
	return rec
}

// Handle replaces the handler of one route.
func (ms *MockServer) Handle(method, path string, h http.HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.overrides[routeKey(method, path)] = h
}

// RespondWith makes one route answer with a fixed status and JSON body.
func (ms *MockServer) RespondWith(method, path string, statusCode int, body any) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, statusCode, body)
	})
}

// RespondWithError makes one route answer with the backend's error envelope.
func (ms *MockServer) RespondWithError(method, path string, statusCode int, message string) {
	ms.RespondWith(method, path, statusCode, map[string]string{
		"status":  "error",
		"message": message,
		"error":   message,
	})
}

// RespondWithRedirect makes one route answer with a redirect.
func (ms *MockServer) RespondWithRedirect(method, path, location string) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, location, http.StatusFound)
	})
}

// ResetRoute restores the default handler of one route.
func (ms *MockServer) ResetRoute(method, path string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.overrides, routeKey(method, path))
}

// Requests returns all recorded requests.
func (ms *MockServer) Requests() []*RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]*RecordedRequest{}, ms.requests...)
}

// RequestCount returns the number of recorded requests.
func (ms *MockServer) RequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// Reset clears all recorded requests.
func (ms *MockServer) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.requests = nil
}

// LastRequest returns the most recent request, or nil if none.
func (ms *MockServer) LastRequest() *RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.requests) == 0 {
		return nil
	}
	return ms.requests[len(ms.requests)-1]
}

// HasRequestWithPath returns true if any request matched the given path.
func (ms *MockServer) HasRequestWithPath(path string) bool {
	return len(ms.RequestsWithPath(path)) > 0
}

// RequestsWithPath returns all requests that matched the given path.
func (ms *MockServer) RequestsWithPath(path string) []*RecordedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	var matched []*RecordedRequest
	for _, req := range ms.requests {
		if req.Path == path {
			matched = append(matched, req)
		}
	}
	return matched
}

// LastRequestWithPath returns the most recent request to path, or nil.
func (ms *MockServer) LastRequestWithPath(path string) *RecordedRequest {
	reqs := ms.RequestsWithPath(path)
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}
