package patch

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Source is the in-memory artifact buffer for one run.
type Source struct {
	Path string
	Text string
	// Encoding is the canonical name of the encoding used to decode Text.
	Encoding string

	codec codec
	raw   []byte
	bom   []byte
	mode  os.FileMode
}

// Load reads the artifact at path and decodes it with the named encoding.
// Any failure is returned as a *LoadError.
func Load(path, encodingName string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errIsDir}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	c, err := resolveCodec(encodingName, raw)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	body, bom := c.splitBOM(raw)
	text, err := c.decode(body)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return &Source{
		Path:     path,
		Text:     text,
		Encoding: c.name,
		codec:    c,
		raw:      raw,
		bom:      bom,
		mode:     info.Mode().Perm(),
	}, nil
}

// NewSource wraps an in-memory UTF-8 buffer, for callers that manage I/O
// themselves.
func NewSource(path, text string) *Source {
	return &Source{
		Path:     path,
		Text:     text,
		Encoding: EncodingUTF8,
		codec:    codec{name: EncodingUTF8},
		raw:      []byte(text),
		mode:     0o644,
	}
}

// Raw returns the bytes as loaded.
func (s *Source) Raw() []byte { return s.raw }

// Encode converts text back into the artifact's encoding. A byte order
// mark is written only when the loaded artifact started with one.
func (s *Source) Encode(text string) ([]byte, error) {
	data, err := s.codec.encode(text)
	if err != nil || len(s.bom) == 0 {
		return data, err
	}
	return append(append(make([]byte, 0, len(s.bom)+len(data)), s.bom...), data...), nil
}

// Digest returns the hex SHA-256 of b.
func Digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
