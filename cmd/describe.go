package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rankboard/internal/analysis"
	"github.com/KaramelBytes/rankboard/internal/board"
	"github.com/KaramelBytes/rankboard/internal/classify"
	"github.com/KaramelBytes/rankboard/internal/dataset"
	"github.com/KaramelBytes/rankboard/internal/utils"
)

var (
	descRead       readFlags
	descOutputPath string
	descOutputDir  string
	descSampleRows int
	descOutliers   bool
	descOutlierThr float64
	descTopValues  int
	descQuiet      bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <files...>",
	Short: "Profile CSV/TSV/XLSX datasets and print markdown summaries",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if descOutputPath != "" && len(files) > 1 {
			return fmt.Errorf("--output takes a single file; use --output-dir for %d inputs", len(files))
		}
		opt := analysis.DefaultOptions()
		if descSampleRows >= 0 {
			opt.SampleRows = descSampleRows
		}
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = descOutliers
		}
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		if descTopValues > 0 {
			opt.TopValues = descTopValues
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if total > 1 && !descQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, nf, err := descRead.load(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			opt.Number = nf
			hintErr := rankingHints(t, &opt)
			rep, err := analysis.Profile(t, opt)
			if err != nil {
				return err
			}
			if hintErr != nil {
				rep.Warnings = append(rep.Warnings, hintErr.Error())
			}
			md := rep.Markdown()

			switch {
			case descOutputPath != "":
				if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				okf(out, "Wrote summary to %s", descOutputPath)
			case descOutputDir != "":
				if err := utils.EnsureDir(descOutputDir); err != nil {
					return err
				}
				outFile, renamed := summaryPath(descOutputDir, path, descRead.sheetName)
				if renamed && !descQuiet {
					warnf(cmd.ErrOrStderr(), "summary exists, writing to %s to avoid overwrite", filepath.Base(outFile))
				}
				if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
					return fmt.Errorf("write summary: %w", err)
				}
				if !descQuiet {
					okf(out, "Wrote %s", outFile)
				}
			default:
				if _, err := fmt.Fprintln(out, md); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	descRead.register(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "write the summary to a file instead of stdout")
	describeCmd.Flags().StringVar(&descOutputDir, "output-dir", "", "write one <name>.summary.md per input into this directory")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of leading rows to include (0 disables samples)")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", true, "count robust outliers in numeric columns (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 0, "robust |z| threshold for outliers (default 3.5)")
	describeCmd.Flags().IntVar(&descTopValues, "top-values", 0, "max top values listed per categorical column")
	describeCmd.Flags().BoolVar(&descQuiet, "quiet", false, "suppress progress and non-essential output")
}

// rankingHints fills the role, label and rankable columns the dashboard
// would use for t. The error explains why no ranking can be built.
func rankingHints(t *dataset.Table, opt *analysis.Options) error {
	bopt := board.DefaultOptions()
	if cfg != nil {
		bopt = cfg.BoardOptions()
	}
	bopt.Number = opt.Number
	buckets := classify.Classify(t.Columns(), bopt.Rules)
	opt.Roles = map[string]string{}
	for _, c := range t.Columns() {
		if role, ok := buckets.RoleOf(c); ok && role != classify.RoleOther {
			opt.Roles[c] = string(role)
		}
	}
	opt.Label, opt.Rankable, opt.Mode = "", nil, ""
	v, err := board.Build(t, board.Request{}, bopt)
	if err != nil {
		return err
	}
	opt.Label, opt.Rankable, opt.Mode = v.Label, v.Options, string(v.Mode)
	return nil
}

// expandInputs resolves globs, keeps literal paths that exist and drops
// duplicates. The result is sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// summaryPath names the summary file for input inside dir. Existing files get
// a __N suffix; renamed reports whether that happened.
func summaryPath(dir, input, sheet string) (path string, renamed bool) {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if sheet != "" {
		stem += "__sheet-" + slug(sheet)
	}
	path = filepath.Join(dir, stem+".summary.md")
	if _, err := os.Stat(path); err != nil {
		return path, false
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", stem, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand, true
		}
	}
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else if r == ' ' || r == '-' || r == '_' {
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "sheet"
	}
	return out
}
