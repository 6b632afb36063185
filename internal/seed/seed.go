// Package seed provides random seed generation for simulation configs.
//
// Production runs draw from crypto/rand so every converted run gets an
// independent seed. Tests substitute a Fixed source.
package seed

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// Source produces 64-bit seeds.
type Source interface {
	Seed() (uint64, error)
}

// Crypto draws seeds from crypto/rand.
type Crypto struct{}

// Seed returns a uniformly distributed uint64.
func (Crypto) Seed() (uint64, error) {
	return FromReader(crand.Reader)
}

// FromReader reads eight bytes from r as a little-endian uint64.
func FromReader(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Fixed always returns the same seed.
type Fixed uint64

// Seed returns f.
func (f Fixed) Seed() (uint64, error) {
	return uint64(f), nil
}
