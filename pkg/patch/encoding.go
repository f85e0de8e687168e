package patch

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Encoding names understood by Load besides WHATWG labels.
const (
	EncodingUTF8    = "utf-8"
	EncodingUTF8BOM = "utf-8-bom"
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
	EncodingAuto    = "auto"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// codec decodes artifact bytes into the buffer and back. A nil enc means
// plain UTF-8, which is validated but never transcoded. bom is the byte
// order mark the encoding may carry; it is stripped before decoding and
// only written back when the artifact had it.
type codec struct {
	name string
	enc  encoding.Encoding
	bom  []byte
}

// splitBOM separates a leading byte order mark from b.
func (c codec) splitBOM(b []byte) (body, bom []byte) {
	if len(c.bom) > 0 && bytes.HasPrefix(b, c.bom) {
		return b[len(c.bom):], c.bom
	}
	return b, nil
}

func (c codec) decode(b []byte) (string, error) {
	if c.enc == nil {
		if !utf8.Valid(b) {
			return "", fmt.Errorf("content is not valid %s", EncodingUTF8)
		}
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", c.name, err)
	}
	return string(out), nil
}

func (c codec) encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.name, err)
	}
	return out, nil
}

// resolveCodec maps an encoding name to a codec. "auto" inspects sample.
func resolveCodec(name string, sample []byte) (codec, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "", EncodingUTF8, "utf8":
		return codec{name: EncodingUTF8}, nil
	case EncodingUTF8BOM, "utf8-bom":
		return codec{name: EncodingUTF8BOM, bom: bomUTF8}, nil
	case EncodingUTF16LE:
		return codec{name: EncodingUTF16LE, enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), bom: bomUTF16LE}, nil
	case EncodingUTF16BE:
		return codec{name: EncodingUTF16BE, enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), bom: bomUTF16BE}, nil
	case EncodingAuto:
		return detectCodec(sample), nil
	default:
		enc, err := htmlindex.Get(n)
		if err != nil {
			return codec{}, fmt.Errorf("unknown encoding %q", name)
		}
		canonical, err := htmlindex.Name(enc)
		if err != nil {
			canonical = n
		}
		if canonical == EncodingUTF8 {
			return codec{name: EncodingUTF8}, nil
		}
		return codec{name: canonical, enc: enc}, nil
	}
}

// detectCodec guesses the encoding from byte-order marks, UTF-8 validity
// and finally chardet. Anything unrecognised falls back to UTF-8.
func detectCodec(sample []byte) codec {
	switch {
	case bytes.HasPrefix(sample, bomUTF8):
		c, _ := resolveCodec(EncodingUTF8BOM, nil)
		return c
	case bytes.HasPrefix(sample, bomUTF16LE):
		c, _ := resolveCodec(EncodingUTF16LE, nil)
		return c
	case bytes.HasPrefix(sample, bomUTF16BE):
		c, _ := resolveCodec(EncodingUTF16BE, nil)
		return c
	case utf8.Valid(sample):
		return codec{name: EncodingUTF8}
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil || result == nil {
		return codec{name: EncodingUTF8}
	}
	c, err := resolveCodec(result.Charset, nil)
	if err != nil {
		return codec{name: EncodingUTF8}
	}
	return c
}

// ValidEncoding reports whether name is accepted by Load.
func ValidEncoding(name string) bool {
	_, err := resolveCodec(name, nil)
	return err == nil
}
