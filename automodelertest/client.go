package automodelertest

import (
	"context"

	automodeler "github.com/jdziat/automodeler-go"
)

// TestingT is an interface that matches *testing.T and *testing.B.
type TestingT interface {
	Fatalf(format string, args ...any)
	Cleanup(func())
	Helper()
}

// TestUsername is the account NewTestClient logs in with.
const TestUsername = "tester"

// TestPassword is the password of TestUsername.
const TestPassword = "secret"

// NewTestClient creates a client logged in to a fresh mock backend.
// The server is closed when the test ends.
func NewTestClient(t TestingT, opts ...automodeler.ConfigOption) (*automodeler.Client, *MockServer) {
	t.Helper()

	client, server := NewAnonymousClient(t, opts...)
	if _, err := client.Auth().Login(context.Background(), TestUsername, TestPassword); err != nil {
		t.Fatalf("Failed to log in to mock server: %v", err)
	}
	return client, server
}

// NewAnonymousClient creates a client for a fresh mock backend without
// logging in. TestUsername is registered on the server.
func NewAnonymousClient(t TestingT, opts ...automodeler.ConfigOption) (*automodeler.Client, *MockServer) {
	t.Helper()

	server := NewMockServer()
	server.AddUser(TestUsername, TestPassword)

	client, err := automodeler.New(server.URL, opts...)
	if err != nil {
		server.Close()
		t.Fatalf("Failed to create test client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}
