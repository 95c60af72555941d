package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rankboard/internal/analysis"
	"github.com/KaramelBytes/rankboard/internal/classify"
)

var colRead readFlags

var columnsCmd = &cobra.Command{
	Use:   "columns <file>",
	Short: "Show how each column is classified and which ones can be ranked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, nf, err := colRead.load(args[0])
		if err != nil {
			return err
		}
		rules := classify.DefaultRules()
		if cfg != nil {
			rules = cfg.BoardOptions().Rules
		}
		b := classify.Classify(t.Columns(), rules)
		opt := analysis.DefaultOptions()
		opt.SampleRows = 0
		opt.Outliers = false
		opt.Number = nf
		rep, err := analysis.Profile(t, opt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d rows, encoding %s\n", t.Name, t.Len(), t.Encoding)
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.AppendHeader(table.Row{"#", "Column", "Role", "Kind", "Non-null"})
		for i, c := range rep.Cols {
			role, _ := b.RoleOf(c.Name)
			tw.AppendRow(table.Row{i + 1, c.Name, role, c.Kind, c.NonNull})
		}
		tw.Render()
		if !b.Matched() {
			warnf(cmd.ErrOrStderr(), "no column matched a region or category keyword; set label_column or pass --label")
		}
		if numeric := rep.ColumnsOfKind(analysis.KindNumeric); len(numeric) > 0 {
			okf(out, "rankable: %s", strings.Join(numeric, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(columnsCmd)
	colRead.register(columnsCmd)
}
