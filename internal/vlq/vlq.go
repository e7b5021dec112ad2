// Package vlq implements the base64 variable-length quantities used by the
// "mappings" field of a source map.
//
// Each value is split into 5-bit groups, least significant first. The sign
// lives in the lowest bit of the first group and bit 6 of every digit marks
// a continuation.
package vlq

import (
	"errors"
	"fmt"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	baseShift       = 5
	base            = 1 << baseShift // 32
	baseMask        = base - 1
	continuationBit = base
)

var (
	// ErrInvalidDigit reports a byte outside the base64 alphabet.
	ErrInvalidDigit = errors.New("vlq: invalid base64 digit")
	// ErrUnexpectedEnd reports input ending while a continuation bit is set.
	ErrUnexpectedEnd = errors.New("vlq: unexpected end of input")
	// ErrOverflow reports a value that does not fit into 32 bits.
	ErrOverflow = errors.New("vlq: value overflows 32 bits")
)

var decodeTable = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = int8(i)
	}
	return t
}()

// EncodeDigit returns the base64 character for n in [0, 64).
func EncodeDigit(n int) (byte, bool) {
	if n < 0 || n >= len(alphabet) {
		return 0, false
	}
	return alphabet[n], true
}

// DecodeDigit returns the value of a base64 character.
func DecodeDigit(c byte) (int, bool) {
	v := decodeTable[c]
	if v < 0 {
		return 0, false
	}
	return int(v), true
}

// Append appends the VLQ encoding of v to dst.
func Append(dst []byte, v int32) []byte {
	// widen first so that math.MinInt32 survives the sign shift
	n := int64(v)
	var u uint64
	if n < 0 {
		u = uint64(-n)<<1 | 1
	} else {
		u = uint64(n) << 1
	}
	for {
		digit := u & baseMask
		u >>= baseShift
		if u > 0 {
			digit |= continuationBit
		}
		dst = append(dst, alphabet[digit])
		if u == 0 {
			return dst
		}
	}
}

// Encode returns the VLQ encoding of v.
func Encode(v int32) string {
	var buf [7]byte
	return string(Append(buf[:0], v))
}

// Decode reads one value from s starting at pos. It returns the value and
// the position right after its last digit.
func Decode(s string, pos int) (int32, int, error) {
	var (
		result uint64
		shift  uint
	)
	for {
		if pos >= len(s) {
			return 0, pos, ErrUnexpectedEnd
		}
		digit := decodeTable[s[pos]]
		if digit < 0 {
			return 0, pos, fmt.Errorf("%w %q at %d", ErrInvalidDigit, s[pos], pos)
		}
		pos++
		result |= uint64(digit&baseMask) << shift
		// 1<<32|1 is the largest encoding produced for math.MinInt32
		if result > 1<<32|1 {
			return 0, pos, ErrOverflow
		}
		if digit&continuationBit == 0 {
			break
		}
		shift += baseShift
		if shift > 32 {
			return 0, pos, ErrOverflow
		}
	}

	negative := result&1 == 1
	result >>= 1
	if negative {
		// "B" is a negative zero; it decodes to 0.
		return int32(-int64(result)), pos, nil
	}
	if result > 1<<31-1 {
		return 0, pos, ErrOverflow
	}
	return int32(result), pos, nil
}
