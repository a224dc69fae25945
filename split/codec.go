package split

import (
	"encoding/binary"
	"fmt"
)

// address(20) + salt(32) + ambassador(20) + project(20) + amb_share(8) +
// project_share(8) + creator(20) + height(8) + flags(1)
const recordSize = 137

const flagValid = 0x01

// SerializeRecord encodes a Record to its fixed-width binary form.
func SerializeRecord(r *Record) []byte {
	buf := make([]byte, recordSize)
	off := 0
	off += copy(buf[off:], r.Address[:])
	off += copy(buf[off:], r.Salt[:])
	off += copy(buf[off:], r.Ambassador[:])
	off += copy(buf[off:], r.Project[:])
	binary.BigEndian.PutUint64(buf[off:off+8], r.AmbassadorShare)
	off += 8
	binary.BigEndian.PutUint64(buf[off:off+8], r.ProjectShare)
	off += 8
	off += copy(buf[off:], r.Creator[:])
	binary.BigEndian.PutUint64(buf[off:off+8], r.CreatedAtHeight)
	off += 8
	if r.Valid {
		buf[off] = flagValid
	}
	return buf
}

// DeserializeRecord decodes binary data into a Record.
func DeserializeRecord(data []byte) (*Record, error) {
	if len(data) != recordSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidRecordData, recordSize, len(data))
	}
	r := &Record{}
	off := 0
	off += copy(r.Address[:], data[off:])
	off += copy(r.Salt[:], data[off:])
	off += copy(r.Ambassador[:], data[off:])
	off += copy(r.Project[:], data[off:])
	r.AmbassadorShare = binary.BigEndian.Uint64(data[off : off+8])
	off += 8
	r.ProjectShare = binary.BigEndian.Uint64(data[off : off+8])
	off += 8
	off += copy(r.Creator[:], data[off:])
	r.CreatedAtHeight = binary.BigEndian.Uint64(data[off : off+8])
	off += 8
	if data[off]&^flagValid != 0 {
		return nil, fmt.Errorf("%w: unknown flags 0x%02x", ErrInvalidRecordData, data[off])
	}
	r.Valid = data[off]&flagValid != 0
	return r, nil
}
