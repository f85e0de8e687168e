package patch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func writeBytes(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.txt")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoad_Encodings(t *testing.T) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte("héllo"))
	require.NoError(t, err)
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().Bytes([]byte("hi\n"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		raw      []byte
		encoding string
		wantText string
		wantEnc  string
	}{
		{name: "default utf-8", raw: []byte("héllo"), wantText: "héllo", wantEnc: EncodingUTF8},
		{name: "latin1 label", raw: []byte{'c', 'a', 'f', 0xE9}, encoding: "latin1", wantText: "café", wantEnc: "windows-1252"},
		{name: "utf-16le", raw: utf16le, encoding: "utf-16le", wantText: "héllo", wantEnc: EncodingUTF16LE},
		{name: "auto with utf-8 bom", raw: append([]byte{0xEF, 0xBB, 0xBF}, "abc"...), encoding: "auto", wantText: "abc", wantEnc: EncodingUTF8BOM},
		{name: "utf-8-bom without a bom", raw: []byte("hello\n"), encoding: "utf-8-bom", wantText: "hello\n", wantEnc: EncodingUTF8BOM},
		{name: "utf-16be with bom", raw: append([]byte{0xFE, 0xFF}, utf16be...), encoding: "utf-16be", wantText: "hi\n", wantEnc: EncodingUTF16BE},
		{name: "auto plain utf-8", raw: []byte("plain ✓"), encoding: "auto", wantText: "plain ✓", wantEnc: EncodingUTF8},
		{name: "label is case insensitive", raw: []byte("x"), encoding: " UTF-8 ", wantText: "x", wantEnc: EncodingUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBytes(t, tt.raw)
			src, err := Load(path, tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, src.Text)
			assert.Equal(t, tt.wantEnc, src.Encoding)
			assert.Equal(t, tt.raw, src.Raw())

			encoded, err := src.Encode(src.Text)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, encoded, "round trip must reproduce the original bytes")
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Run("invalid utf-8", func(t *testing.T) {
		path := writeBytes(t, []byte{'a', 0xFF, 'b'})
		_, err := Load(path, "")
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, path, loadErr.Path)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		path := writeBytes(t, []byte("x"))
		_, err := Load(path, "klingon")
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Contains(t, err.Error(), "klingon")
	})

	t.Run("directory", func(t *testing.T) {
		_, err := Load(t.TempDir(), "")
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.ErrorIs(t, err, errIsDir)
	})
}

func TestLoad_Latin1RewritePreservesEncoding(t *testing.T) {
	path := writeBytes(t, []byte{'n', 'a', 'm', 'e', '=', 'J', 'o', 's', 0xE9})
	rule, err := NewRewrite("name", "José", true, "José Müller", "")
	require.NoError(t, err)

	report, err := NewEngine([]Rule{rule}).Run(t.Context(), path, RunOptions{Encoding: "iso-8859-1", Atomic: true})
	require.NoError(t, err)
	require.True(t, report.Written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("name=Jos\xe9 M\xfcller"), data)
}

func TestValidEncoding(t *testing.T) {
	for _, name := range []string{"", "utf-8", "utf8", "utf-8-bom", "utf-16le", "utf-16be", "auto", "latin1", "shift_jis", "windows-1251"} {
		assert.True(t, ValidEncoding(name), name)
	}
	for _, name := range []string{"nope", "utf-42"} {
		assert.False(t, ValidEncoding(name), name)
	}
}

func TestEngine_BOMPreservedAsLoaded(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		rules bool
		want  string
	}{
		{name: "no rules without bom", raw: "hello\n", want: "hello\n"},
		{name: "no rules with bom", raw: "\ufeffhello\n", want: "\ufeffhello\n"},
		{name: "rewrite without bom", raw: "hello\n", rules: true, want: "bye\n"},
		{name: "rewrite with bom", raw: "\ufeffhello\n", rules: true, want: "\ufeffbye\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeBytes(t, []byte(tt.raw))
			var rules []Rule
			if tt.rules {
				rule, err := NewRewrite("bye", "hello", true, "bye", "")
				require.NoError(t, err)
				rules = append(rules, rule)
			}

			report, err := NewEngine(rules).Run(t.Context(), path, RunOptions{Encoding: EncodingUTF8BOM, Atomic: true})
			require.NoError(t, err)
			assert.Equal(t, tt.rules, report.Written)
			assert.Equal(t, report.Changed, report.Written)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}
