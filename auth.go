package automodeler

import (
	"context"
	"errors"
	"strings"
)

// AuthClient handles login, registration and logout.
// The session itself is a cookie kept in the client's jar.
type AuthClient struct {
	client *Client
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the account creation payload.
type Registration struct {
	Fullname string `json:"fullname"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *Registration) validate() error {
	if r == nil {
		return ErrNilRequest
	}
	if strings.TrimSpace(r.Fullname) == "" {
		return NewValidationError("fullname", "full name is required")
	}
	if strings.TrimSpace(r.Username) == "" {
		return NewValidationError("username", "username is required")
	}
	if r.Password == "" {
		return NewValidationError("password", "password is required")
	}
	return nil
}

// Login checks credentials and stores the returned session cookie.
func (a *AuthClient) Login(ctx context.Context, username, password string) (*StatusResponse, error) {
	if strings.TrimSpace(username) == "" {
		return nil, NewValidationError("username", "username is required")
	}
	if password == "" {
		return nil, NewValidationError("password", "password is required")
	}

	var result StatusResponse
	err := a.client.http.PostJSON(ctx, "/", &Credentials{Username: username, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	a.client.logger.Info("automodeler: logged in", "username", username)
	return &result, nil
}

// Register creates an account. It does not log in.
func (a *AuthClient) Register(ctx context.Context, req *Registration) (*StatusResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	var result StatusResponse
	if err := a.client.http.PostJSON(ctx, "/register", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout invalidates the session on the backend and forgets the cookie
// locally. The local session is cleared even when the backend call fails,
// and an already expired session is not an error.
func (a *AuthClient) Logout(ctx context.Context) error {
	err := a.client.http.PostJSON(ctx, "/logout", nil, nil)
	a.client.ClearSession()
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrUnauthorized) {
		return nil
	}
	return err
}
