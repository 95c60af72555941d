package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how a dataset file is read.
type Options struct {
	// Encodings lists text encodings to try in order. Empty means DefaultEncodings.
	Encodings []string
	// Delimiter for CSV. If 0, sniffed from the name and the header line.
	Delimiter rune
	// SheetName selects an XLSX sheet; SheetIndex (1-based) is used when empty.
	SheetName  string
	SheetIndex int
	// MaxRows limits data rows kept; 0 means unlimited.
	MaxRows int

	nameHint string
}

// DefaultOptions returns the options used by the dashboard and the CLI.
func DefaultOptions() Options {
	return Options{
		Encodings:  append([]string(nil), DefaultEncodings...),
		SheetIndex: 1,
	}
}

// Identity returns the content hash used to key cached tables.
func Identity(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Load reads a CSV, TSV or XLSX file from disk.
func Load(path string, opt Options) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Read(filepath.Base(path), data, opt)
}

// Read parses an in-memory upload. name picks the format by extension and
// becomes the table's display name.
func Read(name string, data []byte, opt Options) (*Table, error) {
	var (
		records  [][]string
		encoding string
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		recs, err := readXLSX(data, opt.SheetName, opt.SheetIndex)
		if err != nil {
			return nil, err
		}
		records, encoding = recs, "xlsx"
	case ".csv", ".tsv", ".txt", "":
		opt.nameHint = name
		dec, err := Decode(data, opt)
		if err != nil {
			return nil, err
		}
		records, encoding = dec.Records, dec.Encoding
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(name))
	}
	truncated := 0
	if opt.MaxRows > 0 && len(records)-1 > opt.MaxRows {
		truncated = len(records) - 1 - opt.MaxRows
		records = records[:opt.MaxRows+1]
	}
	t, err := NewTable(name, records)
	if err != nil {
		return nil, err
	}
	t.Encoding = encoding
	t.Identity = Identity(data)
	t.Truncated = truncated
	return t, nil
}
