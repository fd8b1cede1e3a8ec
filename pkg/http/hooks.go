package http

import (
	"context"
	"net/http"
	"time"
)

// HTTPHook allows customizing HTTP request/response handling.
// Hooks are called in order during request processing.
//
// Use hooks for:
//   - Adding custom headers to all requests
//   - Logging request/response details
//   - Recording request durations
type HTTPHook interface {
	// BeforeRequest is called before sending the HTTP request.
	// It can modify the request (e.g., add headers) and return an error to abort.
	BeforeRequest(ctx context.Context, req *http.Request) error

	// AfterResponse is called after receiving the HTTP response.
	// It receives the response, duration, and any error from the request.
	AfterResponse(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error)
}

// HTTPHookFunc is a function adapter for simple hooks.
type HTTPHookFunc struct {
	Before func(ctx context.Context, req *http.Request) error
	After  func(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error)
}

// BeforeRequest implements HTTPHook.
func (f HTTPHookFunc) BeforeRequest(ctx context.Context, req *http.Request) error {
	if f.Before != nil {
		return f.Before(ctx, req)
	}
	return nil
}

// AfterResponse implements HTTPHook.
func (f HTTPHookFunc) AfterResponse(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error) {
	if f.After != nil {
		f.After(ctx, req, resp, duration, err)
	}
}

// hookChain combines multiple hooks into a single hook.
type hookChain struct {
	hooks []HTTPHook
}

// BeforeRequest calls all hooks in order.
func (c *hookChain) BeforeRequest(ctx context.Context, req *http.Request) error {
	for _, hook := range c.hooks {
		if err := hook.BeforeRequest(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// AfterResponse calls all hooks in reverse order (like a defer stack).
func (c *hookChain) AfterResponse(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		c.hooks[i].AfterResponse(ctx, req, resp, duration, err)
	}
}

// CombineHooks combines multiple hooks into a single hook.
// Nil hooks are skipped. If there are no hooks, returns nil. If there is one
// hook, returns it directly.
func CombineHooks(hooks []HTTPHook) HTTPHook {
	nonNil := make([]HTTPHook, 0, len(hooks))
	for _, h := range hooks {
		if h != nil {
			nonNil = append(nonNil, h)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return &hookChain{hooks: nonNil}
	}
}

// Logger is the leveled, key-value logger hooks write to.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// HeaderHook creates a hook that adds custom headers to all requests.
func HeaderHook(headers map[string]string) HTTPHook {
	return HTTPHookFunc{
		Before: func(ctx context.Context, req *http.Request) error {
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			return nil
		},
	}
}

// LoggingHook creates a hook that logs method, path, status and duration
// of every request. Transport failures are logged at warn level.
func LoggingHook(logger Logger) HTTPHook {
	return HTTPHookFunc{
		After: func(ctx context.Context, req *http.Request, resp *http.Response, duration time.Duration, err error) {
			if err != nil {
				logger.Warn("automodeler: request failed",
					"method", req.Method,
					"path", req.URL.Path,
					"duration", duration,
					"error", err,
				)
				return
			}
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			logger.Debug("automodeler: request completed",
				"method", req.Method,
				"path", req.URL.Path,
				"status", status,
				"duration", duration,
			)
		},
	}
}
