// Package cache persists computed values next to the file they were derived
// from. Every cache file is an 8-byte little-endian uncompressed length
// followed by one zstd frame holding the CBOR encoding of the value.
package cache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// HeaderSize is the length of the uncompressed-size prefix.
const HeaderSize = 8

var (
	// ErrEncode is returned when a value cannot be serialized.
	ErrEncode = errors.New("cache encode")
	// ErrDecompress is returned for truncated or corrupt compressed data.
	ErrDecompress = errors.New("cache decompress")
	// ErrDecode is returned when decompressed bytes do not match the
	// expected schema.
	ErrDecode = errors.New("cache decode")
)

// One encoder and one decoder serve every call; both are safe for
// concurrent EncodeAll/DecodeAll use.
var (
	encoder = must(zstd.NewWriter(nil))
	decoder = must(zstd.NewReader(nil))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("cache: zstd setup: %v", err))
	}
	return v
}

// Encode serializes v and returns the framed, compressed bytes.
func Encode(v any) ([]byte, error) {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	out := make([]byte, HeaderSize, HeaderSize+len(raw)/2)
	binary.LittleEndian.PutUint64(out, uint64(len(raw)))
	return encoder.EncodeAll(raw, out), nil
}

// Decode reverses Encode into v, which must be a pointer.
func Decode(data []byte, v any) error {
	raw, err := decompress(data)
	if err != nil {
		return err
	}
	if err := cbor.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the length header", ErrDecompress, len(data))
	}
	want := binary.LittleEndian.Uint64(data)
	raw, err := decoder.DecodeAll(data[HeaderSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	if uint64(len(raw)) != want {
		return nil, fmt.Errorf("%w: header says %d bytes, frame holds %d", ErrDecompress, want, len(raw))
	}
	return raw, nil
}
