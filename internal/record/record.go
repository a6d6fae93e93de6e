// Package record implements the on-disk layout of a single Bitcask entry:
// a fixed 24-byte header (timestamp, key size, value size) followed by the
// raw key and value bytes. Encoding and decoding are pure — neither
// function mutates file state, and DecodeAt performs exactly one positioned
// read sized from the header it has already validated.
package record

import (
	"encoding/binary"
	"io"

	"github.com/ignitedb/ignite/pkg/errors"
)

// HeaderSize is the fixed number of bytes preceding the key and value: an
// int64 timestamp plus two uint64 size fields, all little-endian.
const HeaderSize = 8 + 8 + 8

// Record is a single decoded log entry. A Record with a zero-length Value
// is a tombstone: it records that Key was deleted, not that it was set to
// an empty value.
type Record struct {
	Timestamp int64
	Key       []byte
	Value     []byte
}

// IsTombstone reports whether this record represents a delete rather than
// a live value, per the spec's "value_size == 0 means tombstone" rule.
func (r *Record) IsTombstone() bool {
	return len(r.Value) == 0
}

// Size returns the total number of bytes this record occupies on disk.
func (r *Record) Size() int64 {
	return HeaderSize + int64(len(r.Key)) + int64(len(r.Value))
}

// Encode concatenates timestamp, key_size, value_size, key, value in the
// order the spec mandates. A tombstone is encoded by passing a nil or
// empty value.
func Encode(ts int64, key, value []byte) []byte {
	buf := make([]byte, HeaderSize+len(key)+len(value))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(ts))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(key)))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(len(value)))
	copy(buf[HeaderSize:], key)
	copy(buf[HeaderSize+len(key):], value)
	return buf
}

// DecodeAt performs a single positioned header read at offset, validates
// that the claimed key/value sizes fit inside fileSize, then reads the
// key and value in one further positioned read. It returns the decoded
// Record and the absolute offset immediately following it.
//
// A short header read (fewer than HeaderSize bytes, including io.EOF
// at the very end of the file) or a header whose sizes overrun fileSize
// both surface as errors wrapping errors.ErrCorruptRecord; callers doing
// sequential recovery scans treat that as "end of this segment's valid
// data" rather than a fatal error.
func DecodeAt(r io.ReaderAt, offset, fileSize int64) (*Record, int64, error) {
	header := make([]byte, HeaderSize)
	if _, err := readFullAt(r, header, offset); err != nil {
		return nil, offset, err
	}

	ts := int64(binary.LittleEndian.Uint64(header[0:8]))
	keySize := binary.LittleEndian.Uint64(header[8:16])
	valueSize := binary.LittleEndian.Uint64(header[16:24])

	payloadStart := offset + HeaderSize
	payloadLen := keySize + valueSize
	if payloadStart > fileSize || payloadLen > uint64(fileSize-payloadStart) {
		return nil, offset, errors.NewCorruptRecordError(0, offset)
	}

	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := readFullAt(r, payload, payloadStart); err != nil {
			return nil, offset, err
		}
	}

	rec := &Record{
		Timestamp: ts,
		Key:       payload[:keySize:keySize],
		Value:     payload[keySize:],
	}
	return rec, payloadStart + int64(payloadLen), nil
}

// readFullAt reads exactly len(buf) bytes at off, treating any short read
// (including a clean io.EOF) as record corruption: a well-formed record
// never has its promised bytes truncated mid-payload.
func readFullAt(r io.ReaderAt, buf []byte, off int64) (int, error) {
	n, err := r.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return n, err
	}
	if n < len(buf) {
		return n, errors.NewCorruptRecordError(0, off)
	}
	return n, nil
}
