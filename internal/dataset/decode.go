package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncodings is the order tried when Options.Encodings is empty.
var DefaultEncodings = []string{"utf-8-sig", "utf-8", "cp949", "euc-kr", "latin-1"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decoded is a CSV buffer successfully decoded with one of the candidate encodings.
type Decoded struct {
	Encoding  string
	Delimiter rune
	Records   [][]string
}

// Attempt records why one candidate encoding was rejected.
type Attempt struct {
	Encoding string
	Err      error
}

// DecodeError is returned when no candidate encoding produced parseable CSV.
type DecodeError struct {
	Attempts []Attempt
}

func (e *DecodeError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrUndecodable.Error() + ": no encodings configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Encoding, a.Err))
	}
	return fmt.Sprintf("%s (tried %s)", ErrUndecodable.Error(), strings.Join(parts, "; "))
}

// Unwrap exposes ErrUndecodable and every attempt's cause to errors.Is/As.
func (e *DecodeError) Unwrap() []error {
	out := make([]error, 0, len(e.Attempts)+1)
	out = append(out, ErrUndecodable)
	for _, a := range e.Attempts {
		out = append(out, a.Err)
	}
	return out
}

// Decode transcodes data with each encoding in order and returns the first
// one whose text parses as CSV. A transcode that introduces replacement runes
// counts as a failure, so single-byte fallbacks only win when nothing stricter did.
func Decode(data []byte, opt Options) (*Decoded, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	names := opt.Encodings
	if len(names) == 0 {
		names = DefaultEncodings
	}
	derr := &DecodeError{}
	for _, name := range names {
		text, err := transcode(data, name)
		if err != nil {
			derr.Attempts = append(derr.Attempts, Attempt{Encoding: name, Err: err})
			continue
		}
		delim := opt.Delimiter
		if delim == 0 {
			delim = sniffDelimiter(opt.nameHint, text)
		}
		records, err := parseCSV(text, delim)
		if err != nil {
			derr.Attempts = append(derr.Attempts, Attempt{Encoding: name, Err: err})
			continue
		}
		return &Decoded{Encoding: canonicalName(name), Delimiter: delim, Records: records}, nil
	}
	return nil, derr
}

func transcode(data []byte, name string) (string, error) {
	switch canonicalName(name) {
	case "utf-8":
		if !utf8.Valid(data) {
			return "", errors.New("invalid utf-8 sequence")
		}
		return string(data), nil
	case "utf-8-sig":
		b := bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(b) {
			return "", errors.New("invalid utf-8 sequence")
		}
		return string(b), nil
	}
	enc, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("transcode: %w", err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errors.New("undefined byte sequence")
	}
	return string(out), nil
}

func canonicalName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	switch n {
	case "utf8", "utf-8":
		return "utf-8"
	case "utf8-sig", "utf-8-sig", "utf-8-bom":
		return "utf-8-sig"
	case "cp949", "ms949", "uhc", "windows-949":
		return "cp949"
	case "euc-kr", "euckr":
		return "euc-kr"
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return "latin-1"
	case "utf16", "utf-16":
		return "utf-16"
	}
	return n
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch canonicalName(name) {
	case "cp949", "euc-kr":
		// x/text's EUC-KR decoder covers the CP949 extensions.
		return korean.EUCKR, nil
	case "latin-1":
		return charmap.ISO8859_1, nil
	case "utf-16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q", name)
	}
	return enc, nil
}

func parseCSV(text string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	var out [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		out = append(out, rec)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// sniffDelimiter prefers the file extension, then whichever candidate shows
// up most often in the header line. Comma wins ties.
func sniffDelimiter(name, text string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	best, bestN := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
