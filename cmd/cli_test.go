package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/KaramelBytes/rankboard/internal/testutil"
)

// resetFlags puts every flag back to its default so state does not leak
// between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout and stderr.
func runCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

// isolate points HOME at a temp dir and writes the sample dataset there.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return testutil.WriteFile(t, home, "mbti.csv", []byte(testutil.MBTICSV))
}

func TestCLI_TopCSV(t *testing.T) {
	data := isolate(t)
	out := mustRun(t, "top", data, "--column", "INFP", "-n", "2", "--format", "csv")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || lines[1] != "Japan,0.09" || lines[2] != "Spain,0.07" {
		t.Fatalf("csv output:\n%s", out)
	}
}

func TestCLI_TopTableDefaultsToFirstNumericColumn(t *testing.T) {
	data := isolate(t)
	out := mustRun(t, "top", data)
	for _, s := range []string{"Country with the highest INFJ TOP 4", "Spain", "Korea", "(4 of 4, mbti.csv, mode top)"} {
		if !strings.Contains(out, s) {
			t.Fatalf("output missing %q:\n%s", s, out)
		}
	}
}

func TestCLI_TopJSON(t *testing.T) {
	data := isolate(t)
	out := mustRun(t, "top", data, "--column", "ENTJ", "--format", "json", "-n", "1")
	var v struct {
		Column  string     `json:"column"`
		Label   string     `json:"label"`
		Preview [][]string `json:"preview"`
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if v.Column != "ENTJ" || v.Label != "Country" {
		t.Fatalf("view = %+v", v)
	}
	if len(v.Preview) != 2 || v.Preview[1][0] != "Chile" {
		t.Fatalf("preview = %#v", v.Preview)
	}
}

func TestCLI_TopRejectsUnknownColumn(t *testing.T) {
	data := isolate(t)
	if _, _, err := runCmd(t, "top", data, "--column", "ISTP"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
	if _, _, err := runCmd(t, "top", data, "--format", "yaml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestCLI_Columns(t *testing.T) {
	data := isolate(t)
	out := mustRun(t, "columns", data)
	for _, s := range []string{"4 rows, encoding utf-8", "Country", "region", "rankable: INFJ, INFP, ENTJ"} {
		if !strings.Contains(out, s) {
			t.Fatalf("output missing %q:\n%s", s, out)
		}
	}
}

func TestCLI_ColumnsWarnsWithoutRoles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := testutil.WriteFile(t, home, "plain.csv", []byte("name,score\na,1\nb,2\n"))
	_, errOut, err := runCmd(t, "columns", data)
	if err != nil {
		t.Fatalf("columns: %v", err)
	}
	if !strings.Contains(errOut, "no column matched") {
		t.Fatalf("expected warning, got %q", errOut)
	}
}

func TestCLI_ChartOutputs(t *testing.T) {
	data := isolate(t)
	dir := filepath.Dir(data)

	png := filepath.Join(dir, "out", "top.png")
	mustRun(t, "chart", data, "--column", "INFP", "-o", png)
	b, err := os.ReadFile(png)
	if err != nil {
		t.Fatalf("read png: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatalf("not a png: % x", b[:8])
	}

	spec := filepath.Join(dir, "top.json")
	mustRun(t, "chart", data, "--column", "INFP", "-o", spec, "--scheme", "greens")
	raw, err := os.ReadFile(spec)
	if err != nil {
		t.Fatalf("read spec: %v", err)
	}
	if !strings.Contains(string(raw), `"scheme": "greens"`) || !strings.Contains(string(raw), `"Japan"`) {
		t.Fatalf("spec:\n%s", raw)
	}

	if _, _, err := runCmd(t, "chart", data, "-o", filepath.Join(dir, "top.gif")); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
	if _, _, err := runCmd(t, "chart", data); err == nil {
		t.Fatalf("expected error without --output")
	}
}

func TestCLI_DescribeBatch(t *testing.T) {
	data := isolate(t)
	dir := filepath.Dir(data)
	testutil.WriteFile(t, dir, "more.csv", []byte("Region,Sales\nNorth,10\nSouth,5\n"))
	outDir := filepath.Join(dir, "summaries")

	_, errOut, err := runCmd(t, "describe", filepath.Join(dir, "*.csv"), "--output-dir", outDir)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(errOut, "[1/2] Processing mbti.csv...") || !strings.Contains(errOut, "[2/2] Processing more.csv...") {
		t.Fatalf("progress lines missing:\n%s", errOut)
	}
	for _, name := range []string{"mbti.summary.md", "more.summary.md"} {
		b, err := os.ReadFile(filepath.Join(outDir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !strings.Contains(string(b), "## Columns") || !strings.Contains(string(b), "## Ranking") {
			t.Fatalf("%s missing sections:\n%s", name, b)
		}
	}

	// A second run must not overwrite the first summaries.
	mustRun(t, "describe", data, "--output-dir", outDir, "--quiet")
	if _, err := os.Stat(filepath.Join(outDir, "mbti__2.summary.md")); err != nil {
		t.Fatalf("expected collision-safe name: %v", err)
	}
}

func TestCLI_DescribeStdout(t *testing.T) {
	data := isolate(t)
	out := mustRun(t, "describe", data, "--sample-rows", "1")
	for _, want := range []string{
		"# mbti.csv",
		"| 1 | Country | region | text | 4/4 |",
		"- Label column: Country",
		"- Rankable: INFJ, INFP, ENTJ",
		"- Opens with: top on INFJ",
		"| Korea | 0.03 | 0.05 | 0.02 |",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("describe output missing %q:\n%s", want, out)
		}
	}
	if _, _, err := runCmd(t, "describe", filepath.Join(filepath.Dir(data), "nope*.csv")); err == nil {
		t.Fatalf("expected error when nothing matches")
	}
}

func TestCLI_DescribeNotesMissingRoles(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	data := testutil.WriteFile(t, home, "plain.csv", []byte("name,score\na,1\nb,2\n"))
	out := mustRun(t, "describe", data)
	for _, want := range []string{"- Label column: none detected", "- Rankable: score", "## Notes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("describe output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolate(t)
	mustRun(t, "config", "set", "top_n", "3")
	mustRun(t, "config", "set", "session_secret", "supersecretvalue")
	if _, _, err := runCmd(t, "config", "set", "chart_scheme", "rainbow"); err == nil {
		t.Fatalf("expected error for invalid scheme")
	}
	out := mustRun(t, "config", "show")
	if !strings.Contains(out, "top_n: 3\n") {
		t.Fatalf("top_n not persisted:\n%s", out)
	}
	if !strings.Contains(out, "session_secret: sup****lue\n") {
		t.Fatalf("secret not masked:\n%s", out)
	}
}

func TestCLI_ConfigTopNDrivesDefault(t *testing.T) {
	data := isolate(t)
	mustRun(t, "config", "set", "top_n", "2")
	out := mustRun(t, "top", data, "--column", "INFP", "--format", "csv")
	if lines := strings.Split(strings.TrimSpace(out), "\n"); len(lines) != 3 {
		t.Fatalf("expected header and 2 rows:\n%s", out)
	}
}
