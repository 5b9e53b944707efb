// Package codec frames per-step series as checksummed Prometheus XOR chunks.
//
// Layout: [encoding byte][chunk bytes][crc32c of the preceding bytes, BE].
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/prometheus/prometheus/tsdb/chunkenc"
)

var (
	ErrInvalidChecksum = errors.New("checksum mismatch: data is corrupted")
	ErrTooSmall        = errors.New("data too small to be a valid chunk")
)

// maxSamplesPerChunk is the XOR chunk's sample counter limit.
const maxSamplesPerChunk = 1<<16 - 1

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Wrap frames c with its encoding and a checksum.
func Wrap(c chunkenc.Chunk) []byte {
	raw := c.Bytes()

	res := make([]byte, 1+len(raw)+4)

	res[0] = byte(c.Encoding())
	copy(res[1:], raw)

	checksum := crc32.Checksum(res[:1+len(raw)], castagnoli)
	binary.BigEndian.PutUint32(res[1+len(raw):], checksum)

	return res
}

// Unwrap validates the frame and returns the XOR chunk it carries.
func Unwrap(data []byte) (chunkenc.Chunk, error) {
	if len(data) < 5 {
		return nil, ErrTooSmall
	}

	payload := data[:len(data)-4]
	want := binary.BigEndian.Uint32(data[len(data)-4:])

	if got := crc32.Checksum(payload, castagnoli); got != want {
		return nil, ErrInvalidChecksum
	}

	encoding := chunkenc.Encoding(payload[0])
	if encoding != chunkenc.EncXOR {
		return nil, fmt.Errorf("unsupported encoding type: %d", encoding)
	}

	c := chunkenc.NewXORChunk()
	c.Reset(append([]byte(nil), payload[1:]...))

	return c, nil
}

// EncodeSeries stores values[i] at timestamp i+1.
func EncodeSeries(values []float64) ([]byte, error) {
	if len(values) > maxSamplesPerChunk {
		return nil, fmt.Errorf("series of %d samples exceeds chunk limit %d", len(values), maxSamplesPerChunk)
	}

	c := chunkenc.NewXORChunk()
	app, err := c.Appender()
	if err != nil {
		return nil, fmt.Errorf("open chunk appender: %w", err)
	}
	for i, v := range values {
		app.Append(int64(i)+1, v)
	}

	return Wrap(c), nil
}

// DecodeSeries is the inverse of EncodeSeries.
func DecodeSeries(data []byte) ([]float64, error) {
	c, err := Unwrap(data)
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, c.NumSamples())
	it := c.Iterator(nil)
	for it.Next() != chunkenc.ValNone {
		_, v := it.At()
		values = append(values, v)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunk: %w", err)
	}
	return values, nil
}
