package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/dataset"
	"github.com/KaramelBytes/rankboard/internal/rank"
)

// readFlags are the dataset reading flags shared by file commands.
type readFlags struct {
	encodings  []string
	delimiter  string
	sheetName  string
	sheetIndex int
	maxRows    int
	decimal    string
	thousands  string
}

func (f *readFlags) register(c *cobra.Command) {
	c.Flags().StringSliceVar(&f.encodings, "encoding", nil, "encodings to try in order (default from config)")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',', ';', 'tab' (default: sniffed)")
	c.Flags().StringVar(&f.sheetName, "sheet", "", "XLSX sheet name")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX sheet index (1-based), used when --sheet is empty")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "limit rows read (0 = all)")
	c.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator: '.' or 'comma' (default: auto)")
	c.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator: ',', '.', 'space' (default: auto)")
}

func (f *readFlags) options() (dataset.Options, dataset.NumberFormat, error) {
	opt := dataset.DefaultOptions()
	if cfg != nil {
		opt = cfg.DatasetOptions()
	}
	var nf dataset.NumberFormat
	if len(f.encodings) > 0 {
		opt.Encodings = f.encodings
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, nf, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	opt.SheetName = f.sheetName
	opt.SheetIndex = f.sheetIndex
	opt.MaxRows = f.maxRows
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		nf.Decimal = ','
	case ".", "dot":
		nf.Decimal = '.'
	case "":
	default:
		return opt, nf, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		nf.Thousands = ','
	case ".":
		nf.Thousands = '.'
	case "space", " ":
		nf.Thousands = ' '
	case "":
	default:
		return opt, nf, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	return opt, nf, nil
}

func (f *readFlags) load(path string) (*dataset.Table, dataset.NumberFormat, error) {
	opt, nf, err := f.options()
	if err != nil {
		return nil, nf, err
	}
	t, err := dataset.Load(path, opt)
	if err != nil {
		return nil, nf, err
	}
	return t, nf, nil
}

// selectFlags pick the ranked column and how it is ranked.
type selectFlags struct {
	column string
	label  string
	mode   string
	agg    string
	n      int
}

func (f *selectFlags) register(c *cobra.Command) {
	c.Flags().StringVar(&f.column, "column", "", "column to rank (default: first numeric column)")
	c.Flags().StringVar(&f.label, "label", "", "label column (default: first region, then category column)")
	c.Flags().StringVar(&f.mode, "mode", "auto", "ranking mode: auto|top|group|count")
	c.Flags().StringVar(&f.agg, "agg", "sum", "aggregate for group mode: sum|mean|count")
	c.Flags().IntVarP(&f.n, "top", "n", 0, "number of rows to show (default from config; negative = all)")
}

func (f *selectFlags) build(t *dataset.Table, nf dataset.NumberFormat) (*board.View, error) {
	mode, err := rank.ParseMode(f.mode)
	if err != nil {
		return nil, err
	}
	agg := rank.Agg(strings.ToLower(f.agg))
	switch agg {
	case rank.AggSum, rank.AggMean, rank.AggCount:
	default:
		return nil, fmt.Errorf("unsupported --agg: %s (use sum|mean|count)", f.agg)
	}
	opt := board.DefaultOptions()
	if cfg != nil {
		opt = cfg.BoardOptions()
	}
	opt.Number = nf
	return board.Build(t, board.Request{Column: f.column, Label: f.label, Mode: mode, Agg: agg, N: f.n}, opt)
}
