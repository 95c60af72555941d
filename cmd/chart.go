package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/rankboard/internal/chart"
	"github.com/KaramelBytes/rankboard/internal/utils"
)

var (
	chartRead   readFlags
	chartSelect selectFlags
	chartOut    string
	chartScheme string
)

var chartCmd = &cobra.Command{
	Use:   "chart <file>",
	Short: "Render the ranking as a PNG, SVG or Vega-Lite JSON chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if chartOut == "" {
			return fmt.Errorf("--output is required (.png, .svg or .json)")
		}
		t, nf, err := chartRead.load(args[0])
		if err != nil {
			return err
		}
		v, err := chartSelect.build(t, nf)
		if err != nil {
			return err
		}

		var data []byte
		ext := strings.ToLower(filepath.Ext(chartOut))
		if ext == ".json" {
			spec := v.Spec
			if chartScheme != "" {
				spec.Encoding.Color.Scale.Scheme = chartScheme
			}
			if data, err = utils.PrettyJSON(spec); err != nil {
				return err
			}
		} else {
			format, err := chart.ParseFormat(ext)
			if err != nil {
				return err
			}
			opt := chart.DefaultOptions()
			if cfg != nil {
				opt = cfg.BoardOptions().Chart
			}
			if chartScheme != "" {
				opt.Scheme = chartScheme
			}
			opt.Title = v.Title
			var buf bytes.Buffer
			if err := chart.Render(v.Ranking, opt, format, &buf); err != nil {
				return err
			}
			data = buf.Bytes()
		}
		if err := utils.SafeWriteFile(chartOut, data); err != nil {
			return err
		}
		okf(cmd.OutOrStdout(), "Wrote %s (%s)", chartOut, v.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartRead.register(chartCmd)
	chartSelect.register(chartCmd)
	chartCmd.Flags().StringVarP(&chartOut, "output", "o", "", "output file: .png, .svg or .json")
	chartCmd.Flags().StringVar(&chartScheme, "scheme", "", "color scheme (default from config)")
}
