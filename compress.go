package ghosttag

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// First byte of every payload embedded through GhostTag
const (
	formatRaw byte = iota
	formatZstd
)

func mustNewZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(
		nil,
		zstd.WithEncoderConcurrency(1),
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		// The payload already carries a checksum
		zstd.WithEncoderCRC(false),
		zstd.WithLowerEncoderMem(true),
	)
	if err != nil {
		panic(err)
	}
	return enc
}

func mustNewZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(
		nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		panic(err)
	}
	return dec
}

var zstdEncPool = sync.Pool{
	New: func() any {
		return mustNewZstdEncoder()
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		return mustNewZstdDecoder()
	},
}

func compress(data []byte) []byte {
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(data, nil)
	zstdEncPool.Put(enc)
	return out
}

func decompress(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(data, nil)
	zstdDecPool.Put(dec)
	return out, err
}

// pack prefixes message with its format, compressing it first if asked
func pack(message []byte, compressed bool) []byte {
	if compressed {
		return append([]byte{formatZstd}, compress(message)...)
	}
	return append([]byte{formatRaw}, message...)
}

// unpack reverses pack
func unpack(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrUnknownFormat
	}

	switch payload[0] {
	case formatRaw:
		return payload[1:], nil
	case formatZstd:
		out, err := decompress(payload[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %#02x", ErrUnknownFormat, payload[0])
	}
}
