package classify

import (
	"github.com/KaramelBytes/rankboard/internal/analysis"
	"github.com/KaramelBytes/rankboard/internal/dataset"
)

// NumericColumns returns the columns whose non-empty cells are predominantly
// numeric, in column order.
func NumericColumns(t *dataset.Table, nf dataset.NumberFormat) ([]string, error) {
	opt := analysis.DefaultOptions()
	opt.SampleRows = 0
	opt.Outliers = false
	opt.Number = nf
	rep, err := analysis.Profile(t, opt)
	if err != nil {
		return nil, err
	}
	return rep.ColumnsOfKind(analysis.KindNumeric), nil
}
