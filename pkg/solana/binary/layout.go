// Package binary reads and writes the fixed-width little-endian layouts used
// by native programs such as the token program. Optional fields use the
// 4-byte COption tag.
package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// OptionSize is the width of a COption tag.
const OptionSize = 4

// Writer fills a preallocated buffer front to back. Writing past the end of
// the buffer panics, so callers size it from the layout constant.
type Writer struct {
	buf    []byte
	offset int
}

func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

func (w *Writer) Key(key ed25519.PublicKey) {
	copy(w.buf[w.offset:w.offset+ed25519.PublicKeySize], key)
	w.offset += ed25519.PublicKeySize
}

// OptionalKey writes a COption<Pubkey>. An empty key is None.
func (w *Writer) OptionalKey(key ed25519.PublicKey) {
	if len(key) > 0 {
		w.buf[w.offset] = 1
	}
	w.offset += OptionSize
	w.Key(key)
}

func (w *Writer) Uint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.offset:], v)
	w.offset += 8
}

// OptionalUint64 writes a COption<u64>. A nil value is None.
func (w *Writer) OptionalUint64(v *uint64) {
	if v != nil {
		w.buf[w.offset] = 1
		binary.LittleEndian.PutUint64(w.buf[w.offset+OptionSize:], *v)
	}
	w.offset += OptionSize + 8
}

func (w *Writer) Uint8(v uint8) {
	w.buf[w.offset] = v
	w.offset++
}

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

// Reader consumes a buffer front to back. Callers check the buffer length
// against the layout size before reading.
type Reader struct {
	buf    []byte
	offset int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Key() ed25519.PublicKey {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, r.buf[r.offset:])
	r.offset += ed25519.PublicKeySize
	return key
}

// OptionalKey reads a COption<Pubkey>, returning nil for None.
func (r *Reader) OptionalKey() ed25519.PublicKey {
	present := r.buf[r.offset] == 1
	r.offset += OptionSize

	key := r.Key()
	if !present {
		return nil
	}
	return key
}

func (r *Reader) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.offset:])
	r.offset += 8
	return v
}

// OptionalUint64 reads a COption<u64>, returning nil for None.
func (r *Reader) OptionalUint64() *uint64 {
	present := r.buf[r.offset] == 1
	r.offset += OptionSize

	v := r.Uint64()
	if !present {
		return nil
	}
	return &v
}

func (r *Reader) Uint8() uint8 {
	v := r.buf[r.offset]
	r.offset++
	return v
}

func (r *Reader) Bool() bool {
	return r.Uint8() == 1
}

// Offset is the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.offset
}
