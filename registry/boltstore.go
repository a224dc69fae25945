package registry

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/split"
)

var (
	bucketCollections  = []byte("collections")
	bucketCreatorIndex = []byte("creator_index")
	bucketCreatorLen   = []byte("creator_len")
	bucketSplitters    = []byte("splitters")
	bucketSplitterAddr = []byte("splitter_by_addr")
	bucketTypes        = []byte("types")
	bucketConfig       = []byte("config")
	bucketDeployments  = []byte("deployments")
	bucketEvents       = []byte("events")

	keyAccess = []byte("access")
	keyHeight = []byte("height")
)

// BoltStore persists the factory tables in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("registry: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("registry: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketCollections, bucketCreatorIndex, bucketCreatorLen,
			bucketSplitters, bucketSplitterAddr, bucketTypes,
			bucketConfig, bucketDeployments, bucketEvents,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("registry: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// View runs fn in a bbolt read transaction.
func (s *BoltStore) View(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: fn", ErrNilParam)
	}
	return translate(s.db.View(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	}))
}

// Update runs fn in a bbolt read-write transaction. bbolt rolls back every
// write if fn returns an error.
func (s *BoltStore) Update(fn func(Tx) error) error {
	if fn == nil {
		return fmt.Errorf("%w: fn", ErrNilParam)
	}
	return translate(s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	}))
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bbolt.ErrTxNotWritable):
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	case errors.Is(err, bbolt.ErrDatabaseNotOpen):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return err
}

// u64Key encodes n as an 8-byte big-endian key for sorted storage.
func u64Key(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// creatorKey is creator(20) || pos(8) for prefix scanning.
func creatorKey(creator ident.Identity, pos uint64) []byte {
	k := make([]byte, ident.Size+8)
	copy(k, creator[:])
	binary.BigEndian.PutUint64(k[ident.Size:], pos)
	return k
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) Collection(id ColID) (CollectionRecord, error) {
	var rec CollectionRecord
	data := t.tx.Bucket(bucketCollections).Get(id[:])
	if data == nil {
		return rec, nil
	}
	if err := decodeGob(data, &rec); err != nil {
		return rec, fmt.Errorf("boltstore: decode collection: %w", err)
	}
	return rec, nil
}

func (t *boltTx) PutCollection(id ColID, rec CollectionRecord) error {
	b := t.tx.Bucket(bucketCollections)
	if b.Get(id[:]) != nil {
		return fmt.Errorf("%w: %s", ErrCollectionExists, id)
	}
	data, err := encodeGob(rec)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := b.Put(id[:], data); err != nil {
		return fmt.Errorf("boltstore: put collection: %w", err)
	}
	return nil
}

func (t *boltTx) AppendCreator(creator ident.Identity, id ColID) error {
	n, err := t.CreatorLen(creator)
	if err != nil {
		return err
	}
	if err := t.tx.Bucket(bucketCreatorIndex).Put(creatorKey(creator, n), id[:]); err != nil {
		return fmt.Errorf("boltstore: put creator index: %w", err)
	}
	if err := t.tx.Bucket(bucketCreatorLen).Put(creator[:], u64Key(n+1)); err != nil {
		return fmt.Errorf("boltstore: put creator length: %w", err)
	}
	return nil
}

func (t *boltTx) CreatorLen(creator ident.Identity) (uint64, error) {
	v := t.tx.Bucket(bucketCreatorLen).Get(creator[:])
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("boltstore: creator length for %s is %d bytes", creator, len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (t *boltTx) CreatorAt(creator ident.Identity, pos uint64) (ColID, error) {
	var id ColID
	v := t.tx.Bucket(bucketCreatorIndex).Get(creatorKey(creator, pos))
	if v == nil {
		n, err := t.CreatorLen(creator)
		if err != nil {
			return id, err
		}
		return id, fmt.Errorf("%w: %d >= %d", ErrIndexOutOfRange, pos, n)
	}
	copy(id[:], v)
	return id, nil
}

func (t *boltTx) Splitter(ambassador, project ident.Identity) (split.Record, error) {
	key := pairKey(ambassador, project)
	return t.splitterAt(key[:])
}

func (t *boltTx) splitterAt(key []byte) (split.Record, error) {
	data := t.tx.Bucket(bucketSplitters).Get(key)
	if data == nil {
		return split.Record{}, nil
	}
	rec, err := split.DeserializeRecord(data)
	if err != nil {
		return split.Record{}, fmt.Errorf("boltstore: decode splitter: %w", err)
	}
	return *rec, nil
}

func (t *boltTx) SplitterByAddress(addr ident.Identity) (split.Record, error) {
	key := t.tx.Bucket(bucketSplitterAddr).Get(addr[:])
	if key == nil {
		return split.Record{}, nil
	}
	return t.splitterAt(key)
}

func (t *boltTx) PutSplitter(rec split.Record) error {
	key := pairKey(rec.Ambassador, rec.Project)
	b := t.tx.Bucket(bucketSplitters)
	if b.Get(key[:]) != nil {
		return ErrSplitterExists
	}
	if err := b.Put(key[:], split.SerializeRecord(&rec)); err != nil {
		return fmt.Errorf("boltstore: put splitter: %w", err)
	}
	if err := t.tx.Bucket(bucketSplitterAddr).Put(rec.Address[:], key[:]); err != nil {
		return fmt.Errorf("boltstore: put splitter address index: %w", err)
	}
	return nil
}

func (t *boltTx) Type(index uint8) (TypeEntry, bool, error) {
	v := t.tx.Bucket(bucketTypes).Get([]byte{index})
	if v == nil {
		return TypeEntry{}, false, nil
	}
	builder, err := ident.FromBytes(v)
	if err != nil {
		return TypeEntry{}, false, fmt.Errorf("boltstore: decode type %d: %w", index, err)
	}
	return TypeEntry{Index: index, Builder: builder}, true, nil
}

func (t *boltTx) PutType(entry TypeEntry) error {
	if err := t.tx.Bucket(bucketTypes).Put([]byte{entry.Index}, entry.Builder.Bytes()); err != nil {
		return fmt.Errorf("boltstore: put type: %w", err)
	}
	return nil
}

func (t *boltTx) Types() ([]TypeEntry, error) {
	var out []TypeEntry
	err := t.tx.Bucket(bucketTypes).ForEach(func(k, v []byte) error {
		if len(k) != 1 {
			return fmt.Errorf("boltstore: type key is %d bytes", len(k))
		}
		builder, err := ident.FromBytes(v)
		if err != nil {
			return fmt.Errorf("boltstore: decode type %d: %w", k[0], err)
		}
		out = append(out, TypeEntry{Index: k[0], Builder: builder})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *boltTx) Access() (AccessState, error) {
	var state AccessState
	data := t.tx.Bucket(bucketConfig).Get(keyAccess)
	if data == nil {
		return state, nil
	}
	if err := decodeGob(data, &state); err != nil {
		return state, fmt.Errorf("boltstore: decode access state: %w", err)
	}
	return state, nil
}

func (t *boltTx) PutAccess(state AccessState) error {
	data, err := encodeGob(state)
	if err != nil {
		return fmt.Errorf("encode access state: %w", err)
	}
	if err := t.tx.Bucket(bucketConfig).Put(keyAccess, data); err != nil {
		return fmt.Errorf("boltstore: put access state: %w", err)
	}
	return nil
}

func (t *boltTx) Height() (uint64, error) {
	v := t.tx.Bucket(bucketConfig).Get(keyHeight)
	if v == nil {
		return 0, nil
	}
	if len(v) != 8 {
		return 0, fmt.Errorf("boltstore: height is %d bytes", len(v))
	}
	return binary.BigEndian.Uint64(v), nil
}

func (t *boltTx) SetHeight(h uint64) error {
	if err := t.tx.Bucket(bucketConfig).Put(keyHeight, u64Key(h)); err != nil {
		return fmt.Errorf("boltstore: put height: %w", err)
	}
	return nil
}

func (t *boltTx) Deployment(addr ident.Identity) (Deployment, bool, error) {
	var d Deployment
	data := t.tx.Bucket(bucketDeployments).Get(addr[:])
	if data == nil {
		return d, false, nil
	}
	if err := decodeGob(data, &d); err != nil {
		return d, false, fmt.Errorf("boltstore: decode deployment: %w", err)
	}
	return d, true, nil
}

func (t *boltTx) PutDeployment(d Deployment) error {
	b := t.tx.Bucket(bucketDeployments)
	if b.Get(d.Address[:]) != nil {
		return fmt.Errorf("%w: %s", ErrAddressOccupied, d.Address)
	}
	data, err := encodeGob(d)
	if err != nil {
		return fmt.Errorf("encode deployment: %w", err)
	}
	if err := b.Put(d.Address[:], data); err != nil {
		return fmt.Errorf("boltstore: put deployment: %w", err)
	}
	return nil
}

func (t *boltTx) AppendLog(entry LogEntry) (uint64, error) {
	b := t.tx.Bucket(bucketEvents)
	seq, err := b.NextSequence()
	if err != nil {
		return 0, fmt.Errorf("boltstore: next event sequence: %w", err)
	}
	entry.Seq = seq
	data, err := encodeGob(entry)
	if err != nil {
		return 0, fmt.Errorf("encode event: %w", err)
	}
	if err := b.Put(u64Key(seq), data); err != nil {
		return 0, fmt.Errorf("boltstore: put event: %w", err)
	}
	return seq, nil
}

func (t *boltTx) Logs(from uint64, limit int) ([]LogEntry, error) {
	if from == 0 {
		from = 1
	}
	var out []LogEntry
	c := t.tx.Bucket(bucketEvents).Cursor()
	for k, v := c.Seek(u64Key(from)); k != nil; k, v = c.Next() {
		if limit > 0 && len(out) >= limit {
			break
		}
		var entry LogEntry
		if err := decodeGob(v, &entry); err != nil {
			return nil, fmt.Errorf("boltstore: decode event: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}
