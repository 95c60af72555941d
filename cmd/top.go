package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/utils"
)

var (
	topRead   readFlags
	topSelect selectFlags
	topFormat string
)

var topCmd = &cobra.Command{
	Use:   "top <file>",
	Short: "Print the top rows of a dataset ranked on one column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, nf, err := topRead.load(args[0])
		if err != nil {
			return err
		}
		v, err := topSelect.build(t, nf)
		if err != nil {
			return err
		}
		return renderView(cmd.OutOrStdout(), v, topFormat)
	},
}

func init() {
	rootCmd.AddCommand(topCmd)
	topRead.register(topCmd)
	topSelect.register(topCmd)
	topCmd.Flags().StringVar(&topFormat, "format", "table", "output format: table|markdown|json|csv")
}

func renderView(w io.Writer, v *board.View, format string) error {
	switch strings.ToLower(format) {
	case "json":
		b, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "csv":
		previewWriter(w, v).RenderCSV()
		return nil
	case "md", "markdown":
		fmt.Fprintf(w, "## %s\n\n", v.Title)
		previewWriter(w, v).RenderMarkdown()
		return nil
	case "table", "":
		fmt.Fprintln(w, v.Title)
		previewWriter(w, v).Render()
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("(%d of %d, %s, mode %s)", len(v.Preview)-1, v.Ranking.Total, v.Dataset, v.Mode)))
		return nil
	}
	return fmt.Errorf("unsupported --format: %s (use table|markdown|json|csv)", format)
}

func previewWriter(w io.Writer, v *board.View) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if len(v.Preview) == 0 {
		return t
	}
	header := make(table.Row, len(v.Preview[0]))
	for i, h := range v.Preview[0] {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, rec := range v.Preview[1:] {
		row := make(table.Row, len(rec))
		for i, c := range rec {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	return t
}
