package registry

import (
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/split"
)

// MemStore is an in-memory implementation of Store for testing.
// Update works on a copy of the tables and swaps it in on success, so View
// keeps serving the committed tables while an update is in flight.
type MemStore struct {
	writer sync.Mutex // serializes Update
	mu     sync.RWMutex
	state  *memState
	closed bool
}

type memState struct {
	collections  map[ColID]CollectionRecord
	creators     map[ident.Identity][]ColID
	splitters    map[[2 * ident.Size]byte]split.Record
	splitterAddr map[ident.Identity][2 * ident.Size]byte
	types        map[uint8]TypeEntry
	access       AccessState
	height       uint64
	deployments  map[ident.Identity]Deployment
	logs         []LogEntry
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		collections:  make(map[ColID]CollectionRecord),
		creators:     make(map[ident.Identity][]ColID),
		splitters:    make(map[[2 * ident.Size]byte]split.Record),
		splitterAddr: make(map[ident.Identity][2 * ident.Size]byte),
		types:        make(map[uint8]TypeEntry),
		deployments:  make(map[ident.Identity]Deployment),
	}}
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

func (s *memState) clone() *memState {
	c := &memState{
		collections:  maps.Clone(s.collections),
		creators:     make(map[ident.Identity][]ColID, len(s.creators)),
		splitters:    maps.Clone(s.splitters),
		splitterAddr: maps.Clone(s.splitterAddr),
		types:        maps.Clone(s.types),
		access:       s.access,
		height:       s.height,
		deployments:  maps.Clone(s.deployments),
		logs:         s.logs[:len(s.logs):len(s.logs)],
	}
	for k, v := range s.creators {
		// Full slice expression so appends on the copy never touch the original.
		c.creators[k] = v[:len(v):len(v)]
	}
	return c
}

// View runs fn against the committed tables.
func (s *MemStore) View(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: fn", ErrNilParam)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return fn(&memTx{state: s.state})
}

// Update runs fn against a private copy and commits it if fn succeeds.
func (s *MemStore) Update(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: fn", ErrNilParam)
	}
	s.writer.Lock()
	defer s.writer.Unlock()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	staged := s.state.clone()
	s.mu.RUnlock()

	if err := fn(&memTx{state: staged, writable: true}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.state = staged
	return nil
}

// Close marks the store closed.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memTx struct {
	state    *memState
	writable bool
}

func (t *memTx) checkWritable() error {
	if !t.writable {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) Collection(id ColID) (CollectionRecord, error) {
	return t.state.collections[id], nil
}

func (t *memTx) PutCollection(id ColID, rec CollectionRecord) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, exists := t.state.collections[id]; exists {
		return fmt.Errorf("%w: %s", ErrCollectionExists, id)
	}
	t.state.collections[id] = rec
	return nil
}

func (t *memTx) AppendCreator(creator ident.Identity, id ColID) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.state.creators[creator] = append(t.state.creators[creator], id)
	return nil
}

func (t *memTx) CreatorLen(creator ident.Identity) (uint64, error) {
	return uint64(len(t.state.creators[creator])), nil
}

func (t *memTx) CreatorAt(creator ident.Identity, pos uint64) (ColID, error) {
	ids := t.state.creators[creator]
	if pos >= uint64(len(ids)) {
		return ColID{}, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, pos, len(ids))
	}
	return ids[pos], nil
}

func (t *memTx) Splitter(ambassador, project ident.Identity) (split.Record, error) {
	return t.state.splitters[pairKey(ambassador, project)], nil
}

func (t *memTx) SplitterByAddress(addr ident.Identity) (split.Record, error) {
	key, ok := t.state.splitterAddr[addr]
	if !ok {
		return split.Record{}, nil
	}
	return t.state.splitters[key], nil
}

func (t *memTx) PutSplitter(rec split.Record) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	key := pairKey(rec.Ambassador, rec.Project)
	if _, exists := t.state.splitters[key]; exists {
		return ErrSplitterExists
	}
	t.state.splitters[key] = rec
	t.state.splitterAddr[rec.Address] = key
	return nil
}

func (t *memTx) Type(index uint8) (TypeEntry, bool, error) {
	e, ok := t.state.types[index]
	return e, ok, nil
}

func (t *memTx) PutType(entry TypeEntry) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.state.types[entry.Index] = entry
	return nil
}

func (t *memTx) Types() ([]TypeEntry, error) {
	out := make([]TypeEntry, 0, len(t.state.types))
	for _, e := range t.state.types {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (t *memTx) Access() (AccessState, error) {
	return t.state.access, nil
}

func (t *memTx) PutAccess(state AccessState) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.state.access = state
	return nil
}

func (t *memTx) Height() (uint64, error) {
	return t.state.height, nil
}

func (t *memTx) SetHeight(h uint64) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.state.height = h
	return nil
}

func (t *memTx) Deployment(addr ident.Identity) (Deployment, bool, error) {
	d, ok := t.state.deployments[addr]
	return d, ok, nil
}

func (t *memTx) PutDeployment(d Deployment) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	if _, exists := t.state.deployments[d.Address]; exists {
		return fmt.Errorf("%w: %s", ErrAddressOccupied, d.Address)
	}
	t.state.deployments[d.Address] = d
	return nil
}

func (t *memTx) AppendLog(entry LogEntry) (uint64, error) {
	if err := t.checkWritable(); err != nil {
		return 0, err
	}
	entry.Seq = uint64(len(t.state.logs)) + 1
	t.state.logs = append(t.state.logs, entry)
	return entry.Seq, nil
}

func (t *memTx) Logs(from uint64, limit int) ([]LogEntry, error) {
	if from == 0 {
		from = 1
	}
	if from > uint64(len(t.state.logs)) {
		return nil, nil
	}
	out := t.state.logs[from-1:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	result := make([]LogEntry, len(out))
	copy(result, out)
	return result, nil
}
