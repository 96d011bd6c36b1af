package pack

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/minio/sha256-simd"
)

/** @brief A magic number indicating the file as a loadstone packed bundle. */
const PackMagic uint32 = 0xda7aba5e

/** @brief The container format version this build writes. */
const PackVersion uint8 = 1

/**
 * @brief The header data for a packed bundle file.
 */
type Header struct {
	/** @brief A magic number indicating the file as a loadstone packed bundle. */
	MagicNumber uint32
	/** @brief The format version this bundle uses. */
	Version uint8
	/** @brief The number of entries that follow the header. */
	EntryCount uint32
}

/** @brief One named payload inside a packed bundle. */
type Entry struct {
	Name string
	Data []byte
}

// Encode serializes entries into the packed bundle wire form: the header
// followed by length-prefixed (name, payload) pairs, little-endian.
func Encode(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	hdr := Header{
		MagicNumber: PackMagic,
		Version:     PackVersion,
		EntryCount:  uint32(len(entries)),
	}
	if err := binary.Write(&buf, binary.LittleEndian, hdr.MagicNumber); err != nil {
		return nil, err
	}
	buf.WriteByte(hdr.Version)
	if err := binary.Write(&buf, binary.LittleEndian, hdr.EntryCount); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if len(e.Name) > 0xffff {
			return nil, fmt.Errorf("entry name too long: %d bytes", len(e.Name))
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint16(len(e.Name))); err != nil {
			return nil, err
		}
		buf.WriteString(e.Name)
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(e.Data))); err != nil {
			return nil, err
		}
		buf.Write(e.Data)
	}
	return buf.Bytes(), nil
}

// Decode parses a packed bundle produced by Encode. Entry order is
// preserved.
func Decode(data []byte) ([]Entry, error) {
	r := bytes.NewReader(data)
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("truncated bundle header: %w", err)
	}
	if magic != PackMagic {
		return nil, fmt.Errorf("not a packed bundle: magic 0x%08x", magic)
	}
	version, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("truncated bundle header: %w", err)
	}
	if version != PackVersion {
		return nil, fmt.Errorf("unsupported bundle version %d", version)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("truncated bundle header: %w", err)
	}

	// The count is untrusted input; a corrupt header must not drive the
	// allocation. A bogus count fails at the first truncated entry.
	var entries []Entry
	for i := uint32(0); i < count; i++ {
		var nameLen uint16
		if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
			return nil, fmt.Errorf("truncated entry %d: %w", i, err)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("truncated entry %d: %w", i, err)
		}
		var dataLen uint32
		if err := binary.Read(r, binary.LittleEndian, &dataLen); err != nil {
			return nil, fmt.Errorf("truncated entry %d: %w", i, err)
		}
		payload := make([]byte, dataLen)
		if dataLen > 0 {
			if _, err := io.ReadFull(r, payload); err != nil {
				return nil, fmt.Errorf("truncated entry %d: %w", i, err)
			}
		}
		entries = append(entries, Entry{Name: string(name), Data: payload})
	}
	return entries, nil
}

// Digest returns the hex-encoded content hash used in manifests and for
// transfer verification.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
