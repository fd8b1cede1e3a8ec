package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/pkg/carrier"
)

// Session is the identity context of the wizard. It owns the backend
// session cookie and the learning type of the current run.
type Session struct {
	mu     sync.Mutex
	client *automodeler.Client
	auth   *carrier.Carrier
	state  *carrier.Carrier
}

// NewSession returns a session storing its keys in store.
func NewSession(client *automodeler.Client, store carrier.Store) *Session {
	return &Session{
		client: client,
		auth:   carrier.New(store, AuthNamespace),
		state:  carrier.New(store, WizardNamespace),
	}
}

// Client returns the backend client.
func (s *Session) Client() *automodeler.Client {
	return s.client
}

// State returns the carrier holding the wizard run.
func (s *Session) State() *carrier.Carrier {
	return s.state
}

// Authenticated reports whether the client holds a session cookie.
func (s *Session) Authenticated() bool {
	return s.client.HasSession()
}

// Username returns the stored username, or "" when nobody is logged in.
func (s *Session) Username() string {
	name, _, _ := carrier.Lookup(s.auth, KeyUsername)
	return name
}

// Restore loads a stored session cookie into the client. It reports whether
// one was found.
func (s *Session) Restore() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cookies, ok, err := carrier.Lookup(s.auth, KeySessionCookies)
	if err != nil || !ok || len(cookies) == 0 {
		return false, err
	}
	s.client.RestoreSession(cookies)
	return true, nil
}

// Login authenticates and stores the session cookie.
func (s *Session) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.client.Auth().Login(ctx, username, password); err != nil {
		return err
	}
	if err := carrier.Put(s.auth, KeyUsername, username); err != nil {
		return err
	}
	return carrier.Put(s.auth, KeySessionCookies, s.client.SessionCookies())
}

// Logout ends the backend session and clears both the auth and wizard
// namespaces. The local state is cleared even when the backend call fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.client.Auth().Logout(ctx)
	if cerr := s.auth.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := s.state.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// LearningType returns the learning type of the current run.
func (s *Session) LearningType() (LearningType, bool, error) {
	return carrier.Lookup(s.state, KeyLearningType)
}

// StartRun clears the wizard namespace and locks lt as the run's learning
// type. The auth namespace is kept.
func (s *Session) StartRun(lt LearningType) error {
	if !lt.Valid() {
		return automodeler.NewValidationError("learning_type", fmt.Sprintf("unknown learning type %q", lt))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.state.Clear(); err != nil {
		return err
	}
	return carrier.Put(s.state, KeyLearningType, lt)
}

// LockLearningType sets the run's learning type, or checks it against the
// one already set.
func (s *Session) LockLearningType(lt LearningType) error {
	if !lt.Valid() {
		return automodeler.NewValidationError("learning_type", fmt.Sprintf("unknown learning type %q", lt))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := carrier.Get(s.state, KeyLearningType)
	switch {
	case errors.Is(err, carrier.ErrNotSet):
		return carrier.Put(s.state, KeyLearningType, lt)
	case err != nil:
		return err
	case current != lt:
		return fmt.Errorf("%w: run is %s, got %s", ErrLearningTypeLocked, current, lt)
	}
	return nil
}

// checkLearningType reports ErrLearningTypeLocked if the run already has a
// different learning type. It writes nothing.
func (s *Session) checkLearningType(lt LearningType) error {
	current, ok, err := s.LearningType()
	if err != nil {
		return err
	}
	if ok && current != lt {
		return fmt.Errorf("%w: run is %s, got %s", ErrLearningTypeLocked, current, lt)
	}
	return nil
}
