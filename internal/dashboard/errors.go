package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/chart"
	"github.com/KaramelBytes/rankboard/internal/dataset"
)

var (
	errNoBundled  = errors.New("no bundled dataset configured; upload a file")
	errBadRequest = errors.New("bad request")
)

// userError reports whether err is caused by the data or the selection rather
// than by the server.
func userError(err error) bool {
	for _, target := range []error{
		dataset.ErrUndecodable,
		dataset.ErrEmpty,
		dataset.ErrUnsupported,
		board.ErrNoRoleColumns,
		board.ErrUnknownColumn,
		board.ErrNoOptions,
		chart.ErrNoData,
		errNoBundled,
		errBadRequest,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// userMessage turns err into the notice shown on the page.
func (s *Server) userMessage(err error) string {
	var de *dataset.DecodeError
	switch {
	case errors.As(err, &de):
		tried := make([]string, 0, len(de.Attempts))
		for _, a := range de.Attempts {
			tried = append(tried, a.Encoding)
		}
		return fmt.Sprintf("Could not read the file with any of the configured encodings (%s). Save it as UTF-8 CSV and try again.", strings.Join(tried, ", "))
	case errors.Is(err, dataset.ErrEmpty):
		return "The file has no header row."
	case errors.Is(err, dataset.ErrUnsupported):
		return "Unsupported file type. Upload a CSV, TSV or XLSX file."
	case errors.Is(err, board.ErrNoRoleColumns):
		var kw []string
		for _, r := range s.cfg.Board.Rules {
			kw = append(kw, r.Keywords...)
		}
		return fmt.Sprintf("No region or category column found. Name a column with one of: %s.", strings.Join(kw, ", "))
	case errors.Is(err, board.ErrUnknownColumn):
		return "The selected column is not in this dataset: " + strings.TrimPrefix(err.Error(), board.ErrUnknownColumn.Error()+": ")
	case errors.Is(err, board.ErrNoOptions):
		return "The dataset has no numeric or category column to rank."
	case errors.Is(err, chart.ErrNoData):
		return "The selected column has no numeric values to chart."
	case errors.Is(err, errNoBundled), errors.Is(err, errBadRequest):
		return err.Error()
	}
	return "Something went wrong while building the dashboard."
}
