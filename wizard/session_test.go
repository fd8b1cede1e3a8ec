package wizard_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	automodeler "github.com/jdziat/automodeler-go"
	"github.com/jdziat/automodeler-go/automodelertest"
	"github.com/jdziat/automodeler-go/pkg/carrier"
	"github.com/jdziat/automodeler-go/wizard"
)

func TestSession_LoginRestoreLogout(t *testing.T) {
	client, server := automodelertest.NewAnonymousClient(t)
	store, err := carrier.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	session := wizard.NewSession(client, store)
	if session.Authenticated() {
		t.Fatal("fresh session is authenticated")
	}
	if err := session.Login(ctx, automodelertest.TestUsername, automodelertest.TestPassword); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Username() != automodelertest.TestUsername {
		t.Errorf("Username() = %q", session.Username())
	}

	// A second process sharing the store picks the session up.
	other, err := automodeler.New(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	restored := wizard.NewSession(other, store)
	ok, err := restored.Restore()
	if err != nil || !ok {
		t.Fatalf("Restore() = %v, %v", ok, err)
	}
	if !restored.Authenticated() {
		t.Fatal("restored session is not authenticated")
	}
	if _, err := other.Projects().List(ctx); err != nil {
		t.Errorf("List() with restored session error = %v", err)
	}

	if err := restored.StartRun(wizard.LearningSupervised); err != nil {
		t.Fatal(err)
	}
	if err := restored.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	for _, ns := range []string{wizard.AuthNamespace, wizard.WizardNamespace} {
		keys, err := carrier.New(store, ns).Keys()
		if err != nil || len(keys) != 0 {
			t.Errorf("%s keys after Logout = %v, %v", ns, keys, err)
		}
	}
	if ok, _ := wizard.NewSession(other, store).Restore(); ok {
		t.Error("Restore() found a session after Logout")
	}
}

func TestSession_LoginRejected(t *testing.T) {
	client, _ := automodelertest.NewAnonymousClient(t)
	session := wizard.NewSession(client, carrier.NewMemoryStore())

	err := session.Login(context.Background(), automodelertest.TestUsername, "nope")
	if !errors.Is(err, automodeler.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
	if session.Username() != "" {
		t.Errorf("Username() = %q after rejected login", session.Username())
	}
}

func TestSession_StartRun(t *testing.T) {
	session, _ := newSession(t)
	state := session.State()

	if err := carrier.Put(state, wizard.KeyProjectName, "old"); err != nil {
		t.Fatal(err)
	}
	if _, ok := automodeler.AsValidationError(session.StartRun("reinforcement")); !ok {
		t.Error("StartRun() accepted an unknown learning type")
	}
	if err := session.StartRun(wizard.LearningUnsupervised); err != nil {
		t.Fatal(err)
	}
	if ok, _ := state.Has(wizard.KeyProjectName.Name()); ok {
		t.Error("StartRun() kept the previous run")
	}
	lt, ok, err := session.LearningType()
	if err != nil || !ok || lt != wizard.LearningUnsupervised {
		t.Errorf("LearningType() = %s, %v, %v", lt, ok, err)
	}

	if err := session.LockLearningType(wizard.LearningUnsupervised); err != nil {
		t.Errorf("LockLearningType(same) error = %v", err)
	}
	if err := session.LockLearningType(wizard.LearningSupervised); !errors.Is(err, wizard.ErrLearningTypeLocked) {
		t.Errorf("LockLearningType(other) error = %v, want ErrLearningTypeLocked", err)
	}
}

func TestSession_RestoreWithoutCookies(t *testing.T) {
	client, _ := automodelertest.NewAnonymousClient(t)
	session := wizard.NewSession(client, carrier.NewMemoryStore())
	ok, err := session.Restore()
	if err != nil || ok {
		t.Errorf("Restore() = %v, %v, want false", ok, err)
	}
}
