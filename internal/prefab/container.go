package prefab

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Catalog containers wrap the encoded payload with an integrity header:
//
//	magic "BSLT", version:u16, payload_len:u32, blake2b-256 digest, payload
//
// The digest covers the payload only. A container that fails any header
// check is rejected before the payload is parsed.

const containerVersion = 1

var containerMagic = [4]byte{'B', 'S', 'L', 'T'}

const headerSize = 4 + 2 + 4 + blake2b.Size256

var (
	ErrBadMagic           = errors.New("container magic mismatch")
	ErrUnsupportedVersion = errors.New("unsupported container version")
	ErrDigestMismatch     = errors.New("container digest mismatch")
)

// Pack wraps an encoded catalog payload in the container header.
func Pack(payload []byte) []byte {
	out := make([]byte, 0, headerSize+len(payload))
	out = append(out, containerMagic[:]...)
	out = binary.LittleEndian.AppendUint16(out, containerVersion)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(payload)))
	digest := blake2b.Sum256(payload)
	out = append(out, digest[:]...)
	return append(out, payload...)
}

// Unpack validates the container header and returns the payload.
func Unpack(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("prefab: container too short (%d bytes)", len(data))
	}
	if !bytes.Equal(data[:4], containerMagic[:]) {
		return nil, fmt.Errorf("prefab: %w", ErrBadMagic)
	}
	version := binary.LittleEndian.Uint16(data[4:])
	if version != containerVersion {
		return nil, fmt.Errorf("prefab: %w: %d", ErrUnsupportedVersion, version)
	}
	payloadLen := int(binary.LittleEndian.Uint32(data[6:]))
	if headerSize+payloadLen != len(data) {
		return nil, fmt.Errorf("prefab: container declares %d payload bytes, has %d", payloadLen, len(data)-headerSize)
	}
	payload := data[headerSize:]
	digest := blake2b.Sum256(payload)
	if !bytes.Equal(digest[:], data[10:10+blake2b.Size256]) {
		return nil, fmt.Errorf("prefab: %w", ErrDigestMismatch)
	}
	return payload, nil
}

// WriteFile encodes a catalog and writes it as a container file.
func WriteFile(path string, c *Catalog) error {
	data := Pack(Encode(c))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("prefab: write container: %w", err)
	}
	return nil
}

// ReadFile loads, verifies and decodes a container file.
func ReadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prefab: read container: %w", err)
	}
	payload, err := Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c, err := Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
