package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type recordingLogger struct {
	debug []string
	warn  []string
}

func (l *recordingLogger) Debug(msg string, args ...any) {
	l.debug = append(l.debug, msg+fmt.Sprint(args...))
}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warn = append(l.warn, msg+fmt.Sprint(args...))
}

func TestCombineHooks(t *testing.T) {
	if CombineHooks(nil) != nil {
		t.Error("CombineHooks(nil) should be nil")
	}
	if CombineHooks([]HTTPHook{nil, nil}) != nil {
		t.Error("CombineHooks of only nil hooks should be nil")
	}

	single := HeaderHook(map[string]string{"X-A": "1"})
	if got := CombineHooks([]HTTPHook{nil, single}); got == nil {
		t.Error("CombineHooks with one hook returned nil")
	}
}

func TestHookChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) HTTPHook {
		return HTTPHookFunc{
			Before: func(ctx context.Context, req *http.Request) error {
				order = append(order, "before-"+name)
				return nil
			},
			After: func(ctx context.Context, req *http.Request, resp *http.Response, d time.Duration, err error) {
				order = append(order, "after-"+name)
			},
		}
	}
	chain := CombineHooks([]HTTPHook{mk("a"), mk("b")})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if err := chain.BeforeRequest(context.Background(), req); err != nil {
		t.Fatalf("BeforeRequest failed: %v", err)
	}
	chain.AfterResponse(context.Background(), req, &http.Response{StatusCode: 200}, time.Millisecond, nil)

	want := []string{"before-a", "before-b", "after-b", "after-a"}
	if strings.Join(order, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestHookChainAbort(t *testing.T) {
	boom := errors.New("boom")
	called := false
	chain := CombineHooks([]HTTPHook{
		HTTPHookFunc{Before: func(ctx context.Context, req *http.Request) error { return boom }},
		HTTPHookFunc{Before: func(ctx context.Context, req *http.Request) error { called = true; return nil }},
	})
	err := chain.BeforeRequest(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, boom) {
		t.Errorf("BeforeRequest = %v, want boom", err)
	}
	if called {
		t.Error("second hook ran after the first aborted")
	}
}

func TestHeaderHook(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_ = HeaderHook(map[string]string{"X-Project": "iris"}).BeforeRequest(context.Background(), req)
	if got := req.Header.Get("X-Project"); got != "iris" {
		t.Errorf("X-Project = %q", got)
	}
}

func TestLoggingHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := LoggingHook(logger)
	req := httptest.NewRequest(http.MethodPost, "/select_type", nil)

	hook.AfterResponse(context.Background(), req, &http.Response{StatusCode: 302}, time.Millisecond, nil)
	hook.AfterResponse(context.Background(), req, nil, time.Millisecond, errors.New("connection refused"))

	if len(logger.debug) != 1 || !strings.Contains(logger.debug[0], "/select_type") {
		t.Errorf("debug log = %v", logger.debug)
	}
	if len(logger.warn) != 1 || !strings.Contains(logger.warn[0], "connection refused") {
		t.Errorf("warn log = %v", logger.warn)
	}
}

func TestMultipartEncode(t *testing.T) {
	m := NewMultipart()
	m.Set("project_name", "iris")
	m.Add("preprocessing_options[]", "normalization")
	m.Add("preprocessing_options[]", "encoding")
	m.AddFile("dataset", "iris.csv", strings.NewReader("a,b\n1,2\n"))

	body, contentType, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		t.Fatalf("content type = %q, %v", contentType, err)
	}

	r := multipart.NewReader(strings.NewReader(string(body)), params["boundary"])
	form, err := r.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm failed: %v", err)
	}
	defer form.RemoveAll()

	if got := form.Value["project_name"]; len(got) != 1 || got[0] != "iris" {
		t.Errorf("project_name = %v", got)
	}
	if got := form.Value["preprocessing_options[]"]; len(got) != 2 {
		t.Errorf("preprocessing_options[] = %v", got)
	}
	files := form.File["dataset"]
	if len(files) != 1 || files[0].Filename != "iris.csv" {
		t.Fatalf("dataset file = %v", files)
	}
	f, _ := files[0].Open()
	data, _ := io.ReadAll(f)
	f.Close()
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("file content = %q", data)
	}
}
