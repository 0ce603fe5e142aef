package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/imyousuf/contextfootprint/internal/cfcore/graph"
)

// Key prefixes for the two record kinds this store keeps, collapsed to a
// single cache namespace since the footprint engine has no branch concept.
const (
	prefixGraph = "graph:"
	prefixTotal = "total:"
)

// Store is a BadgerDB-backed cache of built Graphs and solver totals.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a cache database at dbPath.
func Open(dbPath string) (*Store, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// FileDigest pairs a relative path with a content hash, the unit the
// ContentKey below hashes over. Callers (the watcher, the CLI) compute one
// per source file the extractor consumed.
type FileDigest struct {
	Path string
	Hash string
}

// ContentKey derives a cache key from a project root and the digest of
// every file the extractor read, sorted by path for order independence.
// Any change to any file's content changes the key, so a stale entry is
// simply never looked up again rather than explicitly invalidated.
func ContentKey(projectRoot string, files []FileDigest) string {
	sorted := make([]FileDigest, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	h := sha256.New()
	h.Write([]byte(projectRoot))
	for _, f := range sorted {
		h.Write([]byte{0})
		h.Write([]byte(f.Path))
		h.Write([]byte{0})
		h.Write([]byte(f.Hash))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PutGraph stores g under key, tagging the entry with a fresh build id for
// diagnostics.
func (s *Store) PutGraph(key, projectRoot string, g *graph.Graph) error {
	snap := toSnapshot(uuid.NewString(), projectRoot, g)
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal graph snapshot: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixGraph+key), data)
	})
}

// GetGraph retrieves a previously cached Graph, reporting false if key is
// not present.
func (s *Store) GetGraph(key string) (*graph.Graph, bool, error) {
	var snap snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixGraph + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &snap)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read graph snapshot: %w", err)
	}
	return fromSnapshot(snap), true, nil
}

// PutTotal caches a compute_cf_total result for (graphKey, startSymbol).
func (s *Store) PutTotal(graphKey, startSymbol string, total int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefixTotal+graphKey+":"+startSymbol), []byte(fmt.Sprintf("%d", total)))
	})
}

// GetTotal retrieves a cached total, reporting false if absent.
func (s *Store) GetTotal(graphKey, startSymbol string) (int, bool, error) {
	var total int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixTotal + graphKey + ":" + startSymbol))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			_, scanErr := fmt.Sscanf(string(val), "%d", &total)
			return scanErr
		})
	})
	if err == badger.ErrKeyNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read total: %w", err)
	}
	return total, true, nil
}
