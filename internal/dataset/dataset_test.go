package dataset

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"golang.org/x/text/encoding/korean"
)

func eucKR(t *testing.T, s string) []byte {
	t.Helper()
	b, err := korean.EUCKR.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode euc-kr: %v", err)
	}
	return b
}

func TestDecodeStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Country,INTJ\nKorea,0.1\n")...)
	dec, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Encoding != "utf-8-sig" {
		t.Fatalf("encoding = %q, want utf-8-sig", dec.Encoding)
	}
	if dec.Records[0][0] != "Country" {
		t.Fatalf("header[0] = %q, BOM not stripped", dec.Records[0][0])
	}
}

func TestDecodeFallsBackToCP949(t *testing.T) {
	data := eucKR(t, "지역,인구\n서울,9\n부산,3\n")
	dec, err := Decode(data, DefaultOptions())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Encoding != "cp949" {
		t.Fatalf("encoding = %q, want cp949", dec.Encoding)
	}
	want := [][]string{{"지역", "인구"}, {"서울", "9"}, {"부산", "3"}}
	if !reflect.DeepEqual(dec.Records, want) {
		t.Fatalf("records = %#v, want %#v", dec.Records, want)
	}
}

func TestDecodeFirstSuccessfulEncodingWins(t *testing.T) {
	opt := Options{Encodings: []string{"latin-1", "utf-8"}}
	dec, err := Decode([]byte("a,b\n1,2\n"), opt)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Encoding != "latin-1" {
		t.Fatalf("encoding = %q, want latin-1", dec.Encoding)
	}
}

func TestDecodeSkipsUnknownEncoding(t *testing.T) {
	opt := Options{Encodings: []string{"klingon", "utf-8"}}
	dec, err := Decode([]byte("a,b\n1,2\n"), opt)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dec.Encoding != "utf-8" {
		t.Fatalf("encoding = %q, want utf-8", dec.Encoding)
	}
}

func TestDecodeAllEncodingsFail(t *testing.T) {
	data := eucKR(t, "지역,인구\n서울,9\n")
	_, err := Decode(data, Options{Encodings: []string{"utf-8", "utf-8-sig"}})
	if !errors.Is(err, ErrUndecodable) {
		t.Fatalf("err = %v, want ErrUndecodable", err)
	}
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("err is not a *DecodeError: %T", err)
	}
	if len(derr.Attempts) != 2 || derr.Attempts[0].Encoding != "utf-8" || derr.Attempts[1].Encoding != "utf-8-sig" {
		t.Fatalf("attempts = %#v", derr.Attempts)
	}
}

func TestDecodeMalformedCSVFails(t *testing.T) {
	_, err := Decode([]byte("a,b\n\"unterminated,2\n"), Options{Encodings: []string{"utf-8"}})
	if !errors.Is(err, ErrUndecodable) {
		t.Fatalf("err = %v, want ErrUndecodable", err)
	}
}

func TestDecodeEmpty(t *testing.T) {
	if _, err := Decode([]byte("  \n"), DefaultOptions()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}

func TestSniffDelimiter(t *testing.T) {
	cases := []struct {
		name, text string
		want       rune
	}{
		{"data.csv", "a,b,c\n1,2,3", ','},
		{"data.csv", "a;b;c\n1,5;2;3", ';'},
		{"data.csv", "a\tb\tc\n", '\t'},
		{"data.tsv", "a,b\n", '\t'},
		{"data.csv", "single\n", ','},
	}
	for _, c := range cases {
		if got := sniffDelimiter(c.name, c.text); got != c.want {
			t.Errorf("sniffDelimiter(%q, %q) = %q, want %q", c.name, c.text, got, c.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.5", 12.5, true},
		{"0,5", 0.5, true},
		{"1,000", 1000, true},
		{"1.234,5", 1234.5, true},
		{"1,234.5", 1234.5, true},
		{"12.5%", 12.5, true},
		{" 3e2 ", 300, true},
		{"-4", -4, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"alpha", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in, NumberFormat{})
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseNumber(%q) = %v,%v want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
	if got, ok := ParseNumber("1.000", NumberFormat{Decimal: ',', Thousands: '.'}); !ok || got != 1000 {
		t.Errorf("explicit locale: got %v,%v want 1000,true", got, ok)
	}
}

func TestNewTableNormalizesHeaderAndRows(t *testing.T) {
	tbl, err := NewTable("mbti.csv", [][]string{
		{"Country", "INTJ", "INTJ", ""},
		{"Korea", "0.1"},
		{"Japan", "0.2", "0.3", "x", "extra"},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	wantCols := []string{"Country", "INTJ", "INTJ.1", "column_4"}
	if got := tbl.Columns(); !reflect.DeepEqual(got, wantCols) {
		t.Fatalf("columns = %#v, want %#v", got, wantCols)
	}
	if tbl.Len() != 2 {
		t.Fatalf("len = %d, want 2", tbl.Len())
	}
	col, err := tbl.Column("INTJ.1")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if !reflect.DeepEqual(col, []string{"", "0.3"}) {
		t.Fatalf("INTJ.1 = %#v", col)
	}
	rows, err := tbl.Rows([]int{1, 0}, []string{"Country", "INTJ"})
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := [][]string{{"Country", "INTJ"}, {"Japan", "0.2"}, {"Korea", "0.1"}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
	if _, err := tbl.Column("ENFP"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestNewTableKeepsMissingMarkersAsText(t *testing.T) {
	cells := []string{"NA", "NaN", "nan", "N/A", "null", "NULL", "na", "None", "<nil>", "", "Namibia"}
	records := [][]string{{"code"}}
	for _, c := range cells {
		records = append(records, []string{c})
	}
	tbl, err := NewTable("codes.csv", records)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	col, err := tbl.Column("code")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if !reflect.DeepEqual(col, cells) {
		t.Fatalf("column = %#v, want %#v", col, cells)
	}
	rows, err := tbl.Rows([]int{1, 0, 9}, nil)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	want := [][]string{{"code"}, {"NaN"}, {"NA"}, {""}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %#v, want %#v", rows, want)
	}
}

func TestNewTableHeaderOnly(t *testing.T) {
	tbl, err := NewTable("empty.csv", [][]string{{"a", "b"}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if tbl.Len() != 0 {
		t.Fatalf("len = %d", tbl.Len())
	}
	col, err := tbl.Column("a")
	if err != nil || len(col) != 0 {
		t.Fatalf("Column = %#v, %v", col, err)
	}
	head, err := tbl.Head(5)
	if err != nil || len(head) != 1 {
		t.Fatalf("Head = %#v, %v", head, err)
	}
}

func TestLoadCSVWithMaxRows(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "scores.csv")
	if err := os.WriteFile(p, []byte("name;score\na;1\nb;2\nc;3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	opt := DefaultOptions()
	opt.MaxRows = 2
	tbl, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tbl.Name != "scores.csv" || tbl.Len() != 2 || tbl.Truncated != 1 {
		t.Fatalf("table = %s len=%d truncated=%d", tbl.Name, tbl.Len(), tbl.Truncated)
	}
	if tbl.Identity != Identity([]byte("name;score\na;1\nb;2\nc;3\n")) {
		t.Fatalf("identity mismatch")
	}
}

func TestReadRejectsUnknownExtension(t *testing.T) {
	if _, err := Read("notes.docx", []byte("x"), DefaultOptions()); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("err = %v, want ErrUnsupported", err)
	}
}

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	files := map[string]string{
		"xl/workbook.xml": `<workbook xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>` +
			`<sheet name="Notes" sheetId="1" r:id="rId1"/><sheet name="Data" sheetId="2" r:id="rId2"/></sheets></workbook>`,
		"xl/_rels/workbook.xml.rels": `<Relationships><Relationship Id="rId1" Target="worksheets/sheet1.xml"/>` +
			`<Relationship Id="rId2" Target="/xl/worksheets/sheet2.xml"/></Relationships>`,
		"xl/sharedStrings.xml":     `<sst><si><t>Region</t></si><si><t>Sales</t></si><si><t>North</t></si><si><r><t>So</t></r><r><t>uth</t></r></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>hello</t></is></c></row></sheetData></worksheet>`,
		"xl/worksheets/sheet2.xml": `<worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>` +
			`<row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>10</v></c></row>` +
			`<row r="3"><c r="A3" t="s"><v>3</v></c><c r="C3"><v>7</v></c></row>` +
			`</sheetData></worksheet>`,
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func TestReadXLSXSheetSelection(t *testing.T) {
	data := buildWorkbook(t)

	opt := DefaultOptions()
	opt.SheetName = "data"
	tbl, err := Read("sales.xlsx", data, opt)
	if err != nil {
		t.Fatalf("Read by name: %v", err)
	}
	if tbl.Encoding != "xlsx" {
		t.Fatalf("encoding = %q", tbl.Encoding)
	}
	if got := tbl.Columns(); !reflect.DeepEqual(got, []string{"Region", "Sales"}) {
		t.Fatalf("columns = %#v", got)
	}
	region, _ := tbl.Column("Region")
	sales, _ := tbl.Column("Sales")
	if !reflect.DeepEqual(region, []string{"North", "South"}) || !reflect.DeepEqual(sales, []string{"10", ""}) {
		t.Fatalf("region=%#v sales=%#v", region, sales)
	}

	opt = DefaultOptions()
	opt.SheetIndex = 1
	first, err := Read("sales.xlsx", data, opt)
	if err != nil {
		t.Fatalf("Read by index: %v", err)
	}
	if got := first.Columns(); !reflect.DeepEqual(got, []string{"hello"}) {
		t.Fatalf("sheet1 columns = %#v", got)
	}

	opt.SheetName = "missing"
	if _, err := Read("sales.xlsx", data, opt); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
}

func TestColumnIndex(t *testing.T) {
	cases := map[string]int{"A1": 0, "C12": 2, "Z3": 25, "AA1": 26, "ab9": 27, "": -1, "12": -1}
	for ref, want := range cases {
		if got := columnIndex(ref); got != want {
			t.Errorf("columnIndex(%q) = %d, want %d", ref, got, want)
		}
	}
}
