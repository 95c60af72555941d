package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

type sheetRef struct {
	Name string
	ID   int
	RID  string
}

// readXLSX returns every row of one worksheet as records. If sheetName is
// empty the 1-based sheetIndex picks the sheet (default 1).
func readXLSX(data []byte, sheetName string, sheetIndex int) ([][]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets := parseWorkbookSheets(zipEntry(zr, "xl/workbook.xml"))
	rels := parseWorkbookRels(zipEntry(zr, "xl/_rels/workbook.xml.rels"))
	shared := parseSharedStrings(zipEntry(zr, "xl/sharedStrings.xml"))

	target := ""
	if sheetName != "" {
		names := make([]string, 0, len(sheets))
		for _, s := range sheets {
			names = append(names, s.Name)
			if strings.EqualFold(s.Name, sheetName) {
				target = sheetPath(rels[s.RID])
			}
		}
		if target == "" {
			return nil, fmt.Errorf("sheet %q not found (available: %s)", sheetName, strings.Join(names, ", "))
		}
	} else {
		idx := max(sheetIndex, 1)
		for _, s := range sheets {
			if s.ID == idx {
				target = sheetPath(rels[s.RID])
				break
			}
		}
		if target == "" {
			target = fmt.Sprintf("xl/worksheets/sheet%d.xml", idx)
		}
	}
	sheet := zipEntry(zr, target)
	if sheet == nil {
		return nil, fmt.Errorf("xlsx: worksheet %s missing", target)
	}
	rr := &sheetRows{dec: xml.NewDecoder(bytes.NewReader(sheet)), shared: shared}
	var out [][]string
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// sheetPath turns a relationship target into a zip entry name.
func sheetPath(rel string) string {
	if rel == "" {
		return ""
	}
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func zipEntry(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

func xmlTokens(data []byte, fn func(xml.Token)) {
	if len(data) == 0 {
		return
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return
		}
		fn(tok)
	}
}

func parseWorkbookSheets(data []byte) []sheetRef {
	var out []sheetRef
	xmlTokens(data, func(tok xml.Token) {
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			return
		}
		var s sheetRef
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.ID, _ = strconv.Atoi(a.Value)
			case "id":
				s.RID = a.Value
			}
		}
		out = append(out, s)
	})
	return out
}

func parseWorkbookRels(data []byte) map[string]string {
	out := map[string]string{}
	xmlTokens(data, func(tok xml.Token) {
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			return
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	})
	return out
}

func parseSharedStrings(data []byte) []string {
	var (
		out []string
		buf strings.Builder
		inT bool
	)
	xmlTokens(data, func(tok xml.Token) {
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inT {
				buf.Write(se)
			}
		}
	})
	return out
}

// sheetRows streams <row> elements of a worksheet.
type sheetRows struct {
	dec    *xml.Decoder
	shared []string
}

func (r *sheetRows) next() ([]string, bool) {
	var row []string
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow = true
				row = nil
			case inRow && se.Name.Local == "c":
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := len(row)
				if c := columnIndex(ref); c >= 0 {
					col = c
				}
				if col >= len(row) {
					grown := make([]string, col+1)
					copy(grown, row)
					row = grown
				}
				row[col] = r.cellValue(typ)
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

func (r *sheetRows) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					tk, err := r.dec.Token()
					if err != nil {
						break
					}
					if ed, ok := tk.(xml.EndElement); ok && (ed.Name.Local == "v" || ed.Name.Local == "t") {
						break
					}
					if ch, ok := tk.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			if typ == "s" {
				i, err := strconv.Atoi(strings.TrimSpace(val))
				if err != nil || i < 0 || i >= len(r.shared) {
					return ""
				}
				return r.shared[i]
			}
			return val
		}
	}
}

// columnIndex maps a cell reference like "C12" to its 0-based column.
func columnIndex(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}
