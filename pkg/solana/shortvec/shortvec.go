// Package shortvec implements the compact-u16 length prefix of the
// transaction wire format: seven bits per byte, high bit set while more
// bytes follow, at most three bytes.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

const maxEncodedSize = 3

// ErrOverflow is returned for lengths that do not fit in a u16.
var ErrOverflow = errors.Errorf("length exceeds %d", math.MaxUint16)

// Size returns how many bytes the encoding of n takes.
func Size(n int) int {
	size := 1
	for n >>= 7; n > 0; n >>= 7 {
		size++
	}
	return size
}

// AppendLen appends the encoding of n to dst.
func AppendLen(dst []byte, n int) ([]byte, error) {
	if n < 0 || n > math.MaxUint16 {
		return dst, ErrOverflow
	}

	for n >= 0x80 {
		dst = append(dst, byte(n&0x7f)|0x80)
		n >>= 7
	}
	return append(dst, byte(n)), nil
}

// ReadLen decodes a length from r.
func ReadLen(r io.ByteReader) (int, error) {
	var n int
	for i := 0; i < maxEncodedSize; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}

		n |= int(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			if n > math.MaxUint16 {
				return 0, ErrOverflow
			}
			return n, nil
		}
	}
	return 0, errors.Errorf("length prefix longer than %d bytes", maxEncodedSize)
}
