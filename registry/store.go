package registry

import (
	"github.com/bitfsorg/libfactory-go/ident"
	"github.com/bitfsorg/libfactory-go/split"
)

// Store opens transactions over the factory tables.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(Tx) error) error

	// Update runs fn in a read-write transaction. If fn returns an error,
	// none of its writes become visible.
	Update(fn func(Tx) error) error

	// Close releases the store.
	Close() error
}

// Tx is the set of table operations available inside a transaction.
// Lookups of missing keys return zero values, not errors.
type Tx interface {
	// Collection returns the record stored under id, or the zero record.
	Collection(id ColID) (CollectionRecord, error)

	// PutCollection stores rec under id. Returns ErrCollectionExists if id
	// is already present.
	PutCollection(id ColID, rec CollectionRecord) error

	// AppendCreator appends id to the creator's ordered index.
	AppendCreator(creator ident.Identity, id ColID) error

	// CreatorLen returns the number of collections recorded for creator.
	CreatorLen(creator ident.Identity) (uint64, error)

	// CreatorAt returns the id at position pos of creator's index.
	// Returns ErrIndexOutOfRange past the end.
	CreatorAt(creator ident.Identity, pos uint64) (ColID, error)

	// Splitter returns the record for the ordered (ambassador, project) pair.
	Splitter(ambassador, project ident.Identity) (split.Record, error)

	// SplitterByAddress returns the record deployed at addr.
	SplitterByAddress(addr ident.Identity) (split.Record, error)

	// PutSplitter stores rec under its pair. Returns ErrSplitterExists if
	// the pair is already bound.
	PutSplitter(rec split.Record) error

	// Type returns the entry for index and whether it exists.
	Type(index uint8) (TypeEntry, bool, error)

	// PutType creates or replaces the entry for entry.Index.
	PutType(entry TypeEntry) error

	// Types lists entries in ascending index order.
	Types() ([]TypeEntry, error)

	// Access returns the role state.
	Access() (AccessState, error)

	// PutAccess replaces the role state.
	PutAccess(state AccessState) error

	// Height returns the last committed height.
	Height() (uint64, error)

	// SetHeight records the height of the transaction being committed.
	SetHeight(h uint64) error

	// Deployment returns the deployment at addr and whether it exists.
	Deployment(addr ident.Identity) (Deployment, bool, error)

	// PutDeployment marks d.Address as occupied. Returns ErrAddressOccupied
	// if it already is.
	PutDeployment(d Deployment) error

	// AppendLog appends an entry and returns its sequence number (from 1).
	AppendLog(entry LogEntry) (uint64, error)

	// Logs returns up to limit entries with Seq >= from.
	Logs(from uint64, limit int) ([]LogEntry, error)
}

// pairKey is the ordered (ambassador, project) splitter key.
func pairKey(ambassador, project ident.Identity) [2 * ident.Size]byte {
	var k [2 * ident.Size]byte
	copy(k[:ident.Size], ambassador[:])
	copy(k[ident.Size:], project[:])
	return k
}
