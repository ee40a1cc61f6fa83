package snapshot

import (
	"log/slog"
	"sync"
)

// Store holds the current snapshot of records and the indices derived from
// it. Ingest and Reset replace the state wholesale under an exclusive lock;
// all read accessors take a shared lock, so queries never observe a partially
// built index.
type Store struct {
	mu sync.RWMutex

	records []Record

	// roleIndex maps role -> record positions.
	roleIndex map[Role][]int
	// tokenIndex maps name/context token -> record positions (deduplicated
	// per record).
	tokenIndex map[string][]int
	// testIDIndex maps stable test id -> record position (1:1).
	testIDIndex map[string]int
	// idIndex maps record id -> position for O(1) GetRecord.
	idIndex map[uint32]int

	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore() *Store {
	s := &Store{logger: slog.Default()}
	s.resetLocked()
	return s
}

// Ingest replaces the current snapshot and rebuilds every index from
// scratch. The caller hands over ownership of records.
func (s *Store) Ingest(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.records = records

	for idx := range s.records {
		rec := &s.records[idx]

		s.roleIndex[rec.Role] = append(s.roleIndex[rec.Role], idx)
		s.idIndex[rec.ID] = idx

		tokens := Tokenize(rec.Name)
		for _, ctx := range rec.Context {
			tokens = append(tokens, Tokenize(ctx)...)
		}
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			s.tokenIndex[tok] = append(s.tokenIndex[tok], idx)
		}

		if testID, ok := rec.TestID(); ok {
			s.testIDIndex[testID] = idx
		}
	}

	s.logger.Debug("snapshot ingested",
		slog.Int("records", len(s.records)),
		slog.Int("tokens", len(s.tokenIndex)),
		slog.Int("test_ids", len(s.testIDIndex)))
}

// Reset clears all records and indices.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.records = nil
	s.roleIndex = make(map[Role][]int)
	s.tokenIndex = make(map[string][]int)
	s.testIDIndex = make(map[string]int)
	s.idIndex = make(map[uint32]int)
}

// Size returns the number of records in the current snapshot.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns the current snapshot. The returned slice is owned by the
// store and must not be mutated; it remains valid until the next Ingest.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records
}

// GetRecord returns the record with the given id, or nil if absent.
func (s *Store) GetRecord(id uint32) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.idIndex[id]
	if !ok {
		return nil
	}
	return &s.records[idx]
}

// View is a coherent read-only view of the store taken at one instant.
// The maps and slices are shared with the store and stay valid after a
// subsequent Ingest, which builds fresh ones instead of mutating in place.
type View struct {
	Records     []Record
	RoleIndex   map[Role][]int
	TokenIndex  map[string][]int
	TestIDIndex map[string]int
}

// Snapshot returns a coherent view of records and indices for query
// execution, so a query never mixes records from one ingest with indices
// from another.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return View{
		Records:     s.records,
		RoleIndex:   s.roleIndex,
		TokenIndex:  s.tokenIndex,
		TestIDIndex: s.testIDIndex,
	}
}

// PositionsByRole returns the index positions of all records with the role.
func (s *Store) PositionsByRole(role Role) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roleIndex[role]
}

// PositionsByToken returns the index positions of all records whose name or
// context contains the (lowercase) token.
func (s *Store) PositionsByToken(token string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenIndex[token]
}

// PositionByTestID returns the index position of the record carrying the
// stable test id.
func (s *Store) PositionByTestID(testID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.testIDIndex[testID]
	return idx, ok
}
