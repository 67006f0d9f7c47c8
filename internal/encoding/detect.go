// Package encoding normalises uploaded text files to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

// Charset names as reported by Detect.
const (
	UTF8        = "UTF-8"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88599    = "ISO-8859-9"
	ISO885915   = "ISO-8859-15"
)

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

// decoders maps detected charsets to their decoder. Latin-1 is decoded as Windows-1252,
// its superset.
var decoders = map[string]xencoding.Encoding{
	UTF16LE:      unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	UTF16BE:      unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	Windows1252:  charmap.Windows1252,
	"ISO-8859-1": charmap.Windows1252,
	ISO88599:     charmap.ISO8859_9,
	ISO885915:    charmap.ISO8859_15,
}

// Detect guesses the charset of a sample: byte order mark first, then UTF-8 validity,
// then chardet, falling back to Windows-1252.
func Detect(sample []byte) string {
	for _, bom := range boms {
		if bytes.HasPrefix(sample, bom.prefix) {
			return bom.charset
		}
	}

	if utf8.Valid(sample) {
		return UTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err == nil {
		if _, ok := decoders[result.Charset]; ok || result.Charset == UTF8 {
			return result.Charset
		}
	}

	return Windows1252
}

// NewUTF8Reader returns a reader yielding r as UTF-8, together with the charset it detected.
// A UTF-8 byte order mark is dropped.
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	sample, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peeking input: %w", err)
	}

	charset := Detect(trimPartialRune(sample))

	if charset == UTF8 {
		if bytes.HasPrefix(sample, boms[0].prefix) {
			_, _ = br.Discard(len(boms[0].prefix))
		}

		return br, charset, nil
	}

	return transform.NewReader(br, decoders[charset].NewDecoder()), charset, nil
}

// trimPartialRune drops a multi-byte sequence cut off at the end of a sample.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}

			return b
		}
	}

	return b
}
