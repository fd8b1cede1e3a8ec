package carrier

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// document is the on-disk layout of a FileStore.
type document struct {
	Namespaces map[string]map[string]json.RawMessage `json:"namespaces"`
}

// FileStore keeps all namespaces in a single JSON document. The file is
// re-read on every operation, so a process opening the path later sees what
// earlier ones wrote. Each write goes to its own temp file that is renamed
// over the document, so readers never see a partial file. Writers in
// separate processes are not coordinated: when two write at once the last
// rename wins.
//
// Values must be valid JSON, which is always the case for values written
// through a Carrier.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The parent directory is
// created if it does not exist; the file itself is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "carrier: create directory for %s", path)
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) read() (*document, error) {
	doc := &document{Namespaces: make(map[string]map[string]json.RawMessage)}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, errors.Wrapf(err, "carrier: read %s", f.path)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, errors.Wrapf(err, "carrier: parse %s", f.path)
	}
	if doc.Namespaces == nil {
		doc.Namespaces = make(map[string]map[string]json.RawMessage)
	}
	return doc, nil
}

func (f *FileStore) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "carrier: encode state document")
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "carrier: create temp file for %s", f.path)
	}
	name := tmp.Name()
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "carrier: write %s", name)
	}
	if err := os.Rename(name, f.path); err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "carrier: replace %s", f.path)
	}
	return nil
}

// Load implements Store.
func (f *FileStore) Load(namespace, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	v, ok := doc.Namespaces[namespace][key]
	if !ok {
		return nil, ErrNotSet
	}
	return []byte(v), nil
}

// Save implements Store.
func (f *FileStore) Save(namespace, key string, value []byte) error {
	if !json.Valid(value) {
		return errors.Newf("carrier: value for %s/%s is not valid JSON", namespace, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	ns, ok := doc.Namespaces[namespace]
	if !ok {
		ns = make(map[string]json.RawMessage)
		doc.Namespaces[namespace] = ns
	}
	ns[key] = append(json.RawMessage(nil), value...)
	return f.write(doc)
}

// Delete implements Store.
func (f *FileStore) Delete(namespace, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Namespaces[namespace][key]; !ok {
		return nil
	}
	delete(doc.Namespaces[namespace], key)
	return f.write(doc)
}

// Wipe implements Store.
func (f *FileStore) Wipe(namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Namespaces[namespace]; !ok {
		return nil
	}
	delete(doc.Namespaces, namespace)
	return f.write(doc)
}

// Keys implements Store.
func (f *FileStore) Keys(namespace string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Namespaces[namespace]))
	for k := range doc.Namespaces[namespace] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

var _ Store = (*FileStore)(nil)
