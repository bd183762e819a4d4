// ABOUTME: Badger-backed settings client for tests
// ABOUTME: Opens a throwaway store under t.TempDir with sync disabled

package charm

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// badgerStore is a local kvStore with nothing to sync against.
type badgerStore struct {
	db *badger.DB
}

func (s badgerStore) Get(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

func (s badgerStore) Set(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error { return txn.Set(key, value) })
}

func (s badgerStore) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error { return txn.Delete(key) })
}

func (badgerStore) Sync() error { return nil }

// NewTestClient returns a settings client over a fresh badger store that is
// closed when t finishes.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLogger(nil))
	if err != nil {
		t.Fatalf("failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close badger: %v", err)
		}
	})

	return &Client{
		store:  badgerStore{db: db},
		config: &Config{Host: "localhost"},
		local:  true,
	}
}
