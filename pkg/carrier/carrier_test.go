package carrier

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

type selection struct {
	Names  []string `json:"names"`
	Target string   `json:"target"`
}

// stores returns a fresh instance of every Store implementation.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "state", "wizard.json"))
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	sq, err := OpenSQLiteStore(filepath.Join(dir, "wizard.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"sqlite": sq,
	}
}

func TestCarrierRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := New(store, "wizard")
			key := NewKey[selection]("features")

			want := selection{Names: []string{"a", "b"}, Target: "y"}
			if err := Put(c, key, want); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			got, err := Get(c, key)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Get() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestCarrierNotSet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := New(store, "wizard")
			_, err := Get(c, NewKey[string]("filename"))
			if !errors.Is(err, ErrNotSet) {
				t.Errorf("Get(missing) = %v, want ErrNotSet", err)
			}

			_, ok, err := Lookup(c, NewKey[string]("filename"))
			if err != nil || ok {
				t.Errorf("Lookup(missing) = ok=%v err=%v", ok, err)
			}

			has, err := c.Has("filename")
			if err != nil || has {
				t.Errorf("Has(missing) = %v, %v", has, err)
			}
		})
	}
}

func TestCarrierLastWriteWins(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := New(store, "wizard")
			key := NewKey[string]("algorithm")
			for _, v := range []string{"SVC", "Ridge", "K-Means"} {
				if err := Put(c, key, v); err != nil {
					t.Fatalf("Put(%q) failed: %v", v, err)
				}
			}
			got, _ := Get(c, key)
			if got != "K-Means" {
				t.Errorf("Get() = %q, want K-Means", got)
			}
		})
	}
}

func TestCarrierNamespacesIsolated(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			auth := New(store, "auth")
			wiz := New(store, "wizard")

			_ = auth.Put("username", "ada")
			_ = wiz.Put("project_name", "iris")
			_ = wiz.Put("filename", "iris.csv")

			if err := wiz.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			keys, err := wiz.Keys()
			if err != nil {
				t.Fatalf("Keys failed: %v", err)
			}
			if len(keys) != 0 {
				t.Errorf("wizard keys after Clear = %v", keys)
			}

			var user string
			if err := auth.Get("username", &user); err != nil || user != "ada" {
				t.Errorf("auth namespace was affected by wizard Clear: %q, %v", user, err)
			}
		})
	}
}

func TestCarrierKeysSortedAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := New(store, "wizard")
			for _, k := range []string{"target", "filename", "algo"} {
				_ = c.Put(k, k)
			}
			if err := c.Delete("filename"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if err := c.Delete("never-set"); err != nil {
				t.Errorf("Delete(missing) = %v", err)
			}
			keys, _ := c.Keys()
			if want := []string{"algo", "target"}; !reflect.DeepEqual(keys, want) {
				t.Errorf("Keys() = %v, want %v", keys, want)
			}
		})
	}
}

func TestFileStoreSharedBetweenInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	a, _ := NewFileStore(path)
	b, _ := NewFileStore(path)

	if err := New(a, "wizard").Put("project_name", "digits"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	var got string
	if err := New(b, "wizard").Get("project_name", &got); err != nil {
		t.Fatalf("Get from second instance failed: %v", err)
	}
	if got != "digits" {
		t.Errorf("got %q, want digits", got)
	}
	assertNoTempFiles(t, path)
}

func TestFileStoreConcurrentInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	a, _ := NewFileStore(path)
	b, _ := NewFileStore(path)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i, fs := range []*FileStore{a, b} {
		wg.Add(1)
		go func(i int, fs *FileStore) {
			defer wg.Done()
			c := New(fs, "wizard")
			for j := 0; j < 20; j++ {
				errs <- c.Put("writer", i*100+j)
			}
		}(i, fs)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	var last int
	if err := New(a, "wizard").Get("writer", &last); err != nil {
		t.Fatalf("Get after concurrent writes failed: %v", err)
	}
	if last != 19 && last != 119 {
		t.Errorf("writer = %d, want the last value of one of the writers", last)
	}
	assertNoTempFiles(t, path)
}

func assertNoTempFiles(t *testing.T, path string) {
	t.Helper()
	leftovers, err := filepath.Glob(path + ".*.tmp")
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) > 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	fs, _ := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err := fs.Save("wizard", "k", []byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON value")
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs, _ := NewFileStore(path)
	_, err := fs.Load("wizard", "k")
	if err == nil || errors.Is(err, ErrNotSet) {
		t.Errorf("Load on corrupt file = %v, want parse error", err)
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	c := New(NewMemoryStore(), "wizard")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.Put("k", i)
			var v int
			_ = c.Get("k", &v)
		}(i)
	}
	wg.Wait()
	if has, _ := c.Has("k"); !has {
		t.Error("expected key to be set")
	}
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	m := NewMemoryStore()
	buf := []byte(`"a"`)
	_ = m.Save("ns", "k", buf)
	buf[1] = 'z'
	got, _ := m.Load("ns", "k")
	if string(got) != `"a"` {
		t.Errorf("stored value aliased caller buffer: %s", got)
	}
}
