package sqlite

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

const (
	// CompressionThreshold is the smallest forecast payload worth compressing.
	CompressionThreshold = 2048

	// MaxPayloadSize caps both the encoded and decoded forecast payload.
	MaxPayloadSize = 1 << 20
)

// Payload encodings stored in the forecast_encoding column.
const (
	EncodingIdentity = "identity"
	EncodingZstd     = "zstd"
)

var (
	// ErrPayloadTooLarge is returned when a payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("sqlite: payload exceeds maximum size")

	// ErrCorrupted is returned when a stored payload fails its digest check.
	ErrCorrupted = errors.New("sqlite: payload digest mismatch")
)

// codec compresses large forecast payloads with zstd and tags every payload
// with a BLAKE3 digest of its plain form.
type codec struct {
	mu      sync.RWMutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxPayloadSize))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &codec{encoder: enc, decoder: dec}, nil
}

func (c *codec) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.encoder != nil {
		_ = c.encoder.Close()
		c.encoder = nil
	}
	if c.decoder != nil {
		c.decoder.Close()
		c.decoder = nil
	}
}

// encode returns the stored form of data. Payloads under the threshold, or
// that zstd cannot shrink, are kept as is.
func (c *codec) encode(data []byte) (payload []byte, encoding, digest string, err error) {
	if len(data) > MaxPayloadSize {
		return nil, "", "", ErrPayloadTooLarge
	}
	digest = payloadDigest(data)
	if len(data) < CompressionThreshold {
		return data, EncodingIdentity, digest, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.encoder == nil {
		return data, EncodingIdentity, digest, nil
	}
	compressed := c.encoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return data, EncodingIdentity, digest, nil
	}
	return compressed, EncodingZstd, digest, nil
}

func (c *codec) decode(payload []byte, encoding, digest string) ([]byte, error) {
	var data []byte
	switch encoding {
	case EncodingIdentity, "":
		data = payload
	case EncodingZstd:
		c.mu.RLock()
		dec := c.decoder
		c.mu.RUnlock()
		if dec == nil {
			return nil, errors.New("sqlite: codec closed")
		}
		out, err := dec.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress forecast: %w", err)
		}
		if len(out) > MaxPayloadSize {
			return nil, ErrPayloadTooLarge
		}
		data = out
	default:
		return nil, fmt.Errorf("sqlite: unsupported encoding %q", encoding)
	}

	if digest != "" && payloadDigest(data) != digest {
		return nil, ErrCorrupted
	}
	return data, nil
}

func payloadDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
