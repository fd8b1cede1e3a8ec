// Package http provides the transport seam between the AutoModeler client and
// its sub-clients: the Doer interface, request hooks and multipart encoding.
package http

import (
	"context"
	"net/url"
)

// Doer is an interface for making requests to the AutoModeler backend.
// Sub-clients depend on Doer rather than on the concrete client, which lets
// tests substitute a recording fake.
//
// Every method issues exactly one request. Implementations decode a JSON
// response into result when result is non-nil.
type Doer interface {
	// Get performs an HTTP GET request.
	Get(ctx context.Context, path string, query url.Values, result any) error

	// PostJSON performs a POST with a JSON-encoded body.
	PostJSON(ctx context.Context, path string, body, result any) error

	// PostForm performs a POST with an application/x-www-form-urlencoded body.
	PostForm(ctx context.Context, path string, form url.Values, result any) error

	// PostMultipart performs a POST with a multipart/form-data body.
	PostMultipart(ctx context.Context, path string, body *Multipart, result any) error

	// PostFormRaw performs a form POST and returns the raw response body.
	// It is used for endpoints that return documents rather than JSON.
	PostFormRaw(ctx context.Context, path string, form url.Values) ([]byte, error)
}
