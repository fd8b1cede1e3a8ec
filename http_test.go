package automodeler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient starts a server with handler and returns a client for it.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ConfigOption) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	client, err := New(server.URL, opts...)
	if err != nil {
		server.Close()
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestHTTPClient_Headers(t *testing.T) {
	var got http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		writeJSON(w, http.StatusOK, map[string]any{})
	}, WithUserAgent("test-agent"))

	if err := client.http.Get(context.Background(), "/anything", nil, nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ua := got.Get("User-Agent"); ua != "test-agent" {
		t.Errorf("User-Agent = %q, want test-agent", ua)
	}
	if xr := got.Get("X-Requested-With"); xr != "XMLHttpRequest" {
		t.Errorf("X-Requested-With = %q, want XMLHttpRequest", xr)
	}
	if accept := got.Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q, want application/json", accept)
	}
}

func TestHTTPClient_Redirects(t *testing.T) {
	tests := []struct {
		name     string
		location string
		wantErr  error
	}{
		{"login root", "/", ErrNotAuthenticated},
		{"login page", "/login?next=%2Fdashboard", ErrNotAuthenticated},
		{"absolute login", "http://example.com/", ErrNotAuthenticated},
		{"next step", "/select_features", nil},
		{"dashboard", "/dashboard", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.Header().Set("Location", tt.location)
				w.WriteHeader(http.StatusFound)
			})

			var result map[string]any
			err := client.http.PostForm(context.Background(), "/select_type", nil, &result)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PostForm() error = %v, want %v", err, tt.wantErr)
			}
			if hits.Load() != 1 {
				t.Errorf("server hit %d times, want 1 (redirects are not followed)", hits.Load())
			}
			if result != nil {
				t.Errorf("result = %v, want untouched", result)
			}
		})
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "Username already exists"})
	})

	err := client.http.PostJSON(context.Background(), "/register", map[string]string{}, nil)
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("error = %v, want ErrBadRequest", err)
	}
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatal("AsAPIError() = false")
	}
	if apiErr.Path != "/register" {
		t.Errorf("Path = %q, want /register", apiErr.Path)
	}
	if got := UserMessage(err); got != "Username already exists" {
		t.Errorf("UserMessage() = %q", got)
	}
	if IsRetryable(err) {
		t.Error("400 should not be retryable")
	}
}

func TestHTTPClient_ServerErrorUsesErrorField(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
	})

	err := client.http.Get(context.Background(), "/get_algorithm_doc", nil, nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.ServerMessage() != "boom" {
		t.Errorf("ServerMessage() = %q, want boom", apiErr.ServerMessage())
	}
	if !IsRetryable(err) {
		t.Error("500 should be retryable")
	}
}

func TestHTTPClient_NonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html>not found</html>"))
	})

	err := client.http.Get(context.Background(), "/nope", nil, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSemanticError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		wantMsg string
	}{
		{"success false", `{"success": false, "error": "Modèle non entraîné."}`, true, "Modèle non entraîné."},
		{"status error", `{"status": "error", "message": "Please enter a project name."}`, true, "Please enter a project name."},
		{"status ERROR", `{"status": "ERROR", "message": "x"}`, true, "x"},
		{"bare error", `{"error": "Algorithme non reconnu"}`, true, "Algorithme non reconnu"},
		{"misspelled success", `{"status": "sucess", "message": "Login successful"}`, false, ""},
		{"success true", `{"success": true, "model_info": {}}`, false, ""},
		{"success true with error", `{"success": true, "error": "ignored"}`, false, ""},
		{"array", `[1, 2]`, false, ""},
		{"empty", ``, false, ""},
		{"null error", `{"error": null}`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := semanticError(http.StatusOK, "/x", []byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("semanticError() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
		})
	}
}

func TestHTTPClient_SemanticErrorNotDecoded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "nope", "filename": "x.csv"})
	})

	var result struct {
		Filename string `json:"filename"`
	}
	err := client.http.Get(context.Background(), "/x", nil, &result)
	if _, ok := AsSemanticError(err); !ok {
		t.Fatalf("error = %v, want *SemanticError", err)
	}
	if result.Filename != "" {
		t.Errorf("result decoded despite semantic error: %+v", result)
	}
	if ErrorCodeOf(err) != ErrCodeSemantic {
		t.Errorf("ErrorCodeOf() = %v, want %v", ErrorCodeOf(err), ErrCodeSemantic)
	}
}

func TestHTTPClient_ResponseTooLarge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "` + strings.Repeat("x", 100) + `"}`))
	}, WithMaxResponseSize(32))

	err := client.http.Get(context.Background(), "/big", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("error = %v, want size limit error", err)
	}
}

func TestHTTPClient_DecodeError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"columns": 5}`))
	})

	var p Preview
	err := client.http.Get(context.Background(), "/api/dataset_preview", nil, &p)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Fatalf("error = %v, want decode error", err)
	}
}

func TestHTTPClient_Canceled(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := client.http.Get(ctx, "/slow", nil, nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled in chain", err)
	}
	if IsRetryable(err) {
		t.Error("canceled request should not be retryable")
	}
}

func TestHTTPClient_RawBody(t *testing.T) {
	var accept string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>{"status": "error"}</html>`))
	})

	body, err := client.http.PostFormRaw(context.Background(), "/preprocessing/save", nil)
	if err != nil {
		t.Fatalf("PostFormRaw() error = %v", err)
	}
	if !strings.HasPrefix(string(body), "<html>") {
		t.Errorf("body = %q", body)
	}
	if !strings.Contains(accept, "text/html") {
		t.Errorf("Accept = %q, want text/html", accept)
	}
}

func TestHTTPClient_Hooks(t *testing.T) {
	var before, after atomic.Int32
	var status atomic.Int32
	hook := HTTPHookFunc{
		Before: func(ctx context.Context, req *http.Request) error {
			before.Add(1)
			req.Header.Set("X-Test", "1")
			return nil
		},
		After: func(ctx context.Context, req *http.Request, resp *http.Response, d time.Duration, err error) {
			after.Add(1)
			if resp != nil {
				status.Store(int32(resp.StatusCode))
			}
		},
	}

	var header string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Test")
		writeJSON(w, http.StatusOK, map[string]any{})
	}, WithHTTPHooks(hook))

	if err := client.http.Get(context.Background(), "/", nil, nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if before.Load() != 1 || after.Load() != 1 {
		t.Errorf("before = %d, after = %d, want 1 and 1", before.Load(), after.Load())
	}
	if header != "1" {
		t.Errorf("X-Test = %q, want 1", header)
	}
	if status.Load() != http.StatusOK {
		t.Errorf("status seen by hook = %d", status.Load())
	}
}

func TestHTTPClient_HookAborts(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}, WithHTTPHooks(HTTPHookFunc{
		Before: func(ctx context.Context, req *http.Request) error {
			return errors.New("blocked")
		},
	}))

	err := client.http.Get(context.Background(), "/", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "blocked") {
		t.Fatalf("error = %v, want hook error", err)
	}
	if hits.Load() != 0 {
		t.Errorf("server hit %d times, want 0", hits.Load())
	}
}

func TestSessionCookies(t *testing.T) {
	var seen atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			writeJSON(w, http.StatusOK, map[string]string{"status": "sucess"})
			return
		}
		if ck, err := r.Cookie("session"); err == nil {
			seen.Store(ck.Value)
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": []any{}})
	})

	if client.HasSession() {
		t.Fatal("new client should have no session")
	}
	if _, err := client.Auth().Login(context.Background(), "u", "p"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	cookies := client.SessionCookies()
	if len(cookies) != 1 || cookies[0].Name != "session" || cookies[0].Value != "abc" {
		t.Fatalf("SessionCookies() = %+v", cookies)
	}

	other, err := New(client.BaseURL())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer other.Close()
	other.RestoreSession(cookies)
	if _, err := other.Projects().List(context.Background()); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if v, _ := seen.Load().(string); v != "abc" {
		t.Errorf("restored cookie sent = %q, want abc", v)
	}

	client.ClearSession()
	if client.HasSession() {
		t.Error("ClearSession() left cookies behind")
	}
}

func TestIsLoginRedirect(t *testing.T) {
	tests := map[string]bool{
		"":                  false,
		"/":                 true,
		"/login":            true,
		"/login/":           true,
		"/?next=/dashboard": true,
		"/dashboard":        false,
		"/select_type":      false,
		"http://h:5000/":    true,
	}
	for loc, want := range tests {
		if got := isLoginRedirect(loc); got != want {
			t.Errorf("isLoginRedirect(%q) = %v, want %v", loc, got, want)
		}
	}
}
