package seed

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestFromReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  uint64
	}{
		{"zero", make([]byte, 8), 0},
		{"one", []byte{1, 0, 0, 0, 0, 0, 0, 0}, 1},
		{"max", bytes.Repeat([]byte{0xff}, 8), ^uint64(0)},
		{"high bit", []byte{0, 0, 0, 0, 0, 0, 0, 0x80}, 1 << 63},
		{"extra bytes ignored", []byte{2, 0, 0, 0, 0, 0, 0, 0, 9, 9}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromReader(bytes.NewReader(tt.input))
			if err != nil {
				t.Fatalf("FromReader() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FromReader() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromReader_Short(t *testing.T) {
	_, err := FromReader(bytes.NewReader([]byte{1, 2, 3}))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("FromReader() error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestCrypto_Independent(t *testing.T) {
	var src Crypto
	seen := make(map[uint64]bool)
	for i := 0; i < 16; i++ {
		s, err := src.Seed()
		if err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
		if seen[s] {
			t.Fatalf("Seed() repeated value %d after %d draws", s, i)
		}
		seen[s] = true
	}
}

func TestFixed(t *testing.T) {
	var src Source = Fixed(18446744073709551557)
	for i := 0; i < 2; i++ {
		got, err := src.Seed()
		if err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
		if got != 18446744073709551557 {
			t.Errorf("Seed() = %d, want 18446744073709551557", got)
		}
	}
}
