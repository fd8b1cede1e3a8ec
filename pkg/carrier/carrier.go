// Package carrier holds wizard state between independently driven steps.
//
// A Carrier is a namespaced key-value view over a Store. Values are JSON
// encoded, writes replace the whole key (last write wins) and no validation
// happens at write time. Reading a key that was never written returns
// ErrNotSet, which callers must treat as "the user skipped an earlier step"
// rather than as a failure of the store.
//
// Typed access goes through Key:
//
//	var filename = carrier.NewKey[string]("filename")
//
//	_ = carrier.Put(c, filename, "iris.csv")
//	name, err := carrier.Get(c, filename)
//	if errors.Is(err, carrier.ErrNotSet) {
//	    // redirect back to dataset intake
//	}
package carrier

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// ErrNotSet is returned when a key has no stored value.
var ErrNotSet = errors.New("carrier: value not set")

// Store is the durable backend of a Carrier. Implementations must be safe
// for concurrent use. Load returns ErrNotSet for missing keys.
type Store interface {
	Load(namespace, key string) ([]byte, error)
	Save(namespace, key string, value []byte) error
	Delete(namespace, key string) error
	Wipe(namespace string) error
	Keys(namespace string) ([]string, error)
}

// Carrier is a namespaced view over a Store.
type Carrier struct {
	store     Store
	namespace string
}

// New returns a carrier that reads and writes keys under namespace.
func New(store Store, namespace string) *Carrier {
	return &Carrier{store: store, namespace: namespace}
}

// Namespace returns the carrier's namespace.
func (c *Carrier) Namespace() string {
	return c.namespace
}

// Put stores value under key, replacing any previous value.
func (c *Carrier) Put(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "carrier: encode %s/%s", c.namespace, key)
	}
	if err := c.store.Save(c.namespace, key, data); err != nil {
		return errors.Wrapf(err, "carrier: save %s/%s", c.namespace, key)
	}
	return nil
}

// Get decodes the value stored under key into dst.
// It returns ErrNotSet if the key was never written.
func (c *Carrier) Get(key string, dst any) error {
	data, err := c.store.Load(c.namespace, key)
	if err != nil {
		if errors.Is(err, ErrNotSet) {
			return ErrNotSet
		}
		return errors.Wrapf(err, "carrier: load %s/%s", c.namespace, key)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Wrapf(err, "carrier: decode %s/%s", c.namespace, key)
	}
	return nil
}

// Has reports whether key holds a value.
func (c *Carrier) Has(key string) (bool, error) {
	_, err := c.store.Load(c.namespace, key)
	if errors.Is(err, ErrNotSet) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "carrier: load %s/%s", c.namespace, key)
	}
	return true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Carrier) Delete(key string) error {
	if err := c.store.Delete(c.namespace, key); err != nil {
		return errors.Wrapf(err, "carrier: delete %s/%s", c.namespace, key)
	}
	return nil
}

// Clear removes every key in the carrier's namespace.
func (c *Carrier) Clear() error {
	if err := c.store.Wipe(c.namespace); err != nil {
		return errors.Wrapf(err, "carrier: clear %s", c.namespace)
	}
	return nil
}

// Keys returns the keys currently set, sorted.
func (c *Carrier) Keys() ([]string, error) {
	keys, err := c.store.Keys(c.namespace)
	if err != nil {
		return nil, errors.Wrapf(err, "carrier: keys %s", c.namespace)
	}
	return keys, nil
}

// Key is a typed carrier key.
type Key[T any] struct {
	name string
}

// NewKey declares a typed key.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the storage key.
func (k Key[T]) Name() string {
	return k.name
}

// Put stores v under k.
func Put[T any](c *Carrier, k Key[T], v T) error {
	return c.Put(k.name, v)
}

// Get returns the value stored under k, or ErrNotSet.
func Get[T any](c *Carrier, k Key[T]) (T, error) {
	var v T
	err := c.Get(k.name, &v)
	return v, err
}

// Lookup is like Get but reports a missing key as ok=false instead of an error.
func Lookup[T any](c *Carrier, k Key[T]) (v T, ok bool, err error) {
	v, err = Get(c, k)
	if errors.Is(err, ErrNotSet) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	return v, true, nil
}
