package crypto

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Verdict is the result of inspecting a file for OpenPGP content.
type Verdict int

const (
	VerdictPlain Verdict = iota
	VerdictEncrypted
	VerdictUnknown
)

var armorHeader = []byte("-----BEGIN PGP")

// OpenPGP packet tags that start an encrypted or key-wrapped message.
var pgpMessageTags = map[byte]bool{
	1:  true, // public-key encrypted session key
	2:  true, // signature
	3:  true, // symmetric-key encrypted session key
	8:  true, // compressed data
	9:  true, // symmetrically encrypted data
	18: true, // encrypted and integrity protected data
}

// IsEncryptedPath reports whether the filename carries the encryption
// marker extension. This is the authoritative check for files this tool
// produced; SniffFile is the fallback for renamed or external files.
func IsEncryptedPath(path string) bool {
	return strings.HasSuffix(path, ".gpg")
}

// SniffFile inspects the file's leading bytes for an OpenPGP signature.
// Known plaintext archive magics (gzip, tar, SQL text) map to
// VerdictPlain; everything else that is not a recognizable OpenPGP packet
// is VerdictUnknown and the caller decides, usually by asking the operator.
func SniffFile(path string) (Verdict, error) {
	f, err := os.Open(path)
	if err != nil {
		return VerdictUnknown, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return VerdictUnknown, fmt.Errorf("failed to read %s: %w", path, err)
	}
	header = header[:n]

	if bytes.HasPrefix(header, armorHeader) {
		return VerdictEncrypted, nil
	}

	if len(header) >= 2 && header[0] == 0x1f && header[1] == 0x8b {
		return VerdictPlain, nil // gzip
	}
	if n >= 263 && bytes.Equal(header[257:262], []byte("ustar")) {
		return VerdictPlain, nil // tar
	}

	if len(header) > 0 && header[0]&0x80 != 0 {
		var tag byte
		if header[0]&0x40 != 0 {
			tag = header[0] & 0x3f // new format
		} else {
			tag = (header[0] >> 2) & 0x0f
		}
		if pgpMessageTags[tag] {
			return VerdictEncrypted, nil
		}
	}

	return VerdictUnknown, nil
}
