package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const maxCellRunes = 60

// Markdown renders the report as a markdown document: a column table with
// roles and statistics, the ranking the dashboard would open with, sample
// rows and notes.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", cell(r.Name))
	fmt.Fprintf(&b, "%d rows, %d columns", r.Rows, len(r.Cols))
	if r.Encoding != "" {
		fmt.Fprintf(&b, ", encoding %s", r.Encoding)
	}
	b.WriteString("\n\n## Columns\n\n")
	rows := make([][]string, len(r.Cols))
	for i, c := range r.Cols {
		role := c.Role
		if role == "" {
			role = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			c.title(),
			role,
			string(c.Kind),
			fmt.Sprintf("%d/%d", c.NonNull, c.NonNull+c.Missing),
			c.detail(),
		}
	}
	b.WriteString(MarkdownTable([]string{"#", "Column", "Role", "Kind", "Filled", "Detail"}, rows))

	b.WriteString("\n## Ranking\n\n")
	if r.Label != "" {
		fmt.Fprintf(&b, "- Label column: %s\n", r.Label)
	} else {
		b.WriteString("- Label column: none detected\n")
	}
	if len(r.Rankable) > 0 {
		fmt.Fprintf(&b, "- Rankable: %s\n", strings.Join(r.Rankable, ", "))
	} else {
		b.WriteString("- Rankable: none\n")
	}
	if r.Mode != "" && len(r.Rankable) > 0 {
		fmt.Fprintf(&b, "- Opens with: %s on %s\n", r.Mode, r.Rankable[0])
	}

	if len(r.Samples) > 0 {
		fmt.Fprintf(&b, "\n## Sample (first %d rows)\n\n", len(r.Samples))
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = c.Name
		}
		b.WriteString(MarkdownTable(names, r.Samples))
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func (c ColumnSummary) title() string {
	if c.Unit != "" && !strings.Contains(c.Name, c.Unit) {
		return c.Name + " [" + c.Unit + "]"
	}
	return c.Name
}

// detail is the one-line statistics summary shown next to a column.
func (c ColumnSummary) detail() string {
	var parts []string
	switch c.Kind {
	case KindNumeric:
		parts = append(parts, fmt.Sprintf("range %.4g..%.4g", c.Min, c.Max), fmt.Sprintf("mean %.4g", c.Mean))
		if c.Std > 0 {
			parts = append(parts, fmt.Sprintf("sd %.4g", c.Std))
		}
		if c.OutliersCount > 0 {
			parts = append(parts, fmt.Sprintf("outliers %d (robust z > %.1f)", c.OutliersCount, c.OutlierThreshold))
		}
	case KindCategorical:
		top := make([]string, len(c.TopValues))
		for i, kv := range c.TopValues {
			top[i] = fmt.Sprintf("%s %d", kv.Value, kv.Count)
		}
		parts = append(parts, fmt.Sprintf("%d distinct", c.Unique))
		if len(top) > 0 {
			parts = append(parts, "top "+strings.Join(top, ", "))
		}
	case KindText:
		parts = append(parts, "all distinct")
		if len(c.ExampleTexts) > 0 {
			parts = append(parts, "e.g. "+strings.Join(c.ExampleTexts, ", "))
		}
	}
	return strings.Join(parts, "; ")
}

// MarkdownTable renders a pipe table. Rows are padded or cut to the header
// width and long cells are shortened.
func MarkdownTable(header []string, rows [][]string) string {
	var b strings.Builder
	line := func(cells []string) {
		b.WriteString("|")
		for i := range header {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			b.WriteString(" " + cell(v) + " |")
		}
		b.WriteString("\n")
	}
	names := make([]string, len(header))
	for i, h := range header {
		if names[i] = strings.TrimSpace(h); names[i] == "" {
			names[i] = "(unnamed)"
		}
	}
	line(names)
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		line(row)
	}
	return b.String()
}

// cell flattens line breaks, escapes pipes and shortens s to maxCellRunes.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) > maxCellRunes {
		s = string([]rune(s)[:maxCellRunes-1]) + "…"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
