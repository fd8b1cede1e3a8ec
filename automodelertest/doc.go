// Package automodelertest provides testing utilities for code using the
// automodeler-go client.
//
// # Mock Server
//
// MockServer emulates the AutoModeler backend: it keeps accounts, sessions
// and the per-user run state, and records every request:
//
//	server := automodelertest.NewMockServer()
//	defer server.Close()
//	server.AddUser("alice", "pw")
//
//	client, _ := automodeler.New(server.URL)
//	client.Auth().Login(ctx, "alice", "pw")
//	// ... use client ...
//
//	req := server.LastRequestWithPath("/project")
//	// assert on req.Form and req.Files
//
// Routes can be replaced for a test with Handle, RespondWith,
// RespondWithError or RespondWithRedirect.
//
// # Test Client
//
// NewTestClient returns a client already logged in to a fresh server:
//
//	func TestMyFeature(t *testing.T) {
//	    client, server := automodelertest.NewTestClient(t)
//	    // ...
//	}
package automodelertest
