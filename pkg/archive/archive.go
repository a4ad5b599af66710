// Package archive persists solved targets so repeated requests skip the
// search entirely.
//
// Two backends are provided:
//   - memory: in-process storage for tests and single-shot CLI runs
//   - mongo: MongoDB-backed storage for shared deployments
//
// Records are keyed by (puzzle id, target key). Storing a record for an
// existing key replaces it.
package archive

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one archived solve.
type Record struct {
	ID        string        `json:"id" bson:"_id"`
	PuzzleID  string        `json:"puzzle_id" bson:"puzzle_id"`
	TargetKey string        `json:"target_key" bson:"target_key"`
	Notation  string        `json:"notation" bson:"notation"`
	Solutions []string      `json:"solutions,omitempty" bson:"solutions,omitempty"`
	Length    int           `json:"length" bson:"length"`
	Score     int           `json:"score" bson:"score"`
	Nodes     uint64        `json:"nodes" bson:"nodes"`
	Elapsed   time.Duration `json:"elapsed" bson:"elapsed"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// Store is the interface for archive backends.
type Store interface {
	// Find retrieves the record for a puzzle/target pair.
	// Returns nil, nil when no record exists.
	Find(ctx context.Context, puzzleID, targetKey string) (*Record, error)

	// Save stores a record, replacing any existing record for the same
	// puzzle/target pair. Fills ID and CreatedAt when unset.
	Save(ctx context.Context, rec *Record) error

	// List returns up to limit records for a puzzle, newest first.
	List(ctx context.Context, puzzleID string, limit int) ([]Record, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// stamp fills in the generated fields of a record before writing.
func stamp(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by puzzleID + "\x00" + targetKey
}

// NewMemoryStore creates an empty in-memory archive.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func memKey(puzzleID, targetKey string) string {
	return puzzleID + "\x00" + targetKey
}

// Find retrieves a record, or nil when absent.
func (s *MemoryStore) Find(ctx context.Context, puzzleID, targetKey string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[memKey(puzzleID, targetKey)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Save stores a record, replacing any previous one for the same pair.
func (s *MemoryStore) Save(ctx context.Context, rec *Record) error {
	stamp(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[memKey(rec.PuzzleID, rec.TargetKey)] = *rec
	return nil
}

// List returns up to limit records for a puzzle, newest first.
func (s *MemoryStore) List(ctx context.Context, puzzleID string, limit int) ([]Record, error) {
	s.mu.RLock()
	out := make([]Record, 0)
	for _, rec := range s.records {
		if rec.PuzzleID == puzzleID {
			out = append(out, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
