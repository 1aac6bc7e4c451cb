// Package xlsx reads the small slice of the OOXML spreadsheet format
// the network parameter tables use: sheets of typed cell values, with
// shared and inline strings resolved. Styles, formulas and everything
// else are ignored.
package xlsx

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Workbook is a parsed spreadsheet.
type Workbook struct {
	sheets map[string]*Sheet
	order  []string
}

// Sheet holds one worksheet as dense rows. Cells are string, int64,
// float64, bool or nil for gaps.
type Sheet struct {
	Name string
	Rows [][]any
}

// Cell returns the value at 0-based column and row, nil when the cell
// is empty or out of range.
func (s *Sheet) Cell(col, row int) any {
	if row < 0 || row >= len(s.Rows) {
		return nil
	}
	cells := s.Rows[row]
	if col < 0 || col >= len(cells) {
		return nil
	}
	return cells[col]
}

// SheetNames returns the sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return append([]string{}, w.order...)
}

// Sheet returns the named worksheet.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	s, ok := w.sheets[name]
	return s, ok
}

// First returns the first worksheet of the workbook.
func (w *Workbook) First() (*Sheet, error) {
	if len(w.order) == 0 {
		return nil, goerr.New("workbook has no sheets")
	}
	return w.sheets[w.order[0]], nil
}

// Open reads a workbook from an .xlsx file.
func Open(filePath string) (*Workbook, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open workbook", goerr.V("path", filePath))
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to stat workbook", goerr.V("path", filePath))
	}
	wb, err := OpenReader(f, st.Size())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read workbook", goerr.V("path", filePath))
	}
	return wb, nil
}

// OpenReader reads a workbook from an in-memory or seekable source.
func OpenReader(r io.ReaderAt, size int64) (*Workbook, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, goerr.Wrap(err, "not a ZIP archive")
	}

	var book xmlWorkbook
	if err := readXML(zr, "xl/workbook.xml", &book); err != nil {
		return nil, err
	}

	var rels xmlRelationships
	if err := readXML(zr, "xl/_rels/workbook.xml.rels", &rels); err != nil {
		return nil, err
	}
	targets := make(map[string]string, len(rels.Items))
	for _, rel := range rels.Items {
		targets[rel.ID] = rel.Target
	}

	shared, err := readSharedStrings(zr)
	if err != nil {
		return nil, err
	}

	wb := &Workbook{sheets: make(map[string]*Sheet, len(book.Sheets))}
	for _, ref := range book.Sheets {
		target, ok := targets[ref.RID]
		if !ok {
			return nil, goerr.New("workbook sheet has no relationship target",
				goerr.V("sheet", ref.Name), goerr.V("rid", ref.RID))
		}
		if !strings.HasPrefix(target, "/") {
			target = path.Join("xl", target)
		} else {
			target = strings.TrimPrefix(target, "/")
		}

		var ws xmlWorksheet
		if err := readXML(zr, target, &ws); err != nil {
			return nil, err
		}
		sheet, err := buildSheet(ref.Name, &ws, shared)
		if err != nil {
			return nil, err
		}
		wb.sheets[ref.Name] = sheet
		wb.order = append(wb.order, ref.Name)
	}
	return wb, nil
}

func readXML(zr *zip.Reader, name string, dst any) error {
	f, err := zr.Open(name)
	if err != nil {
		return goerr.Wrap(err, "archive part not found", goerr.V("part", name))
	}
	defer f.Close()

	if err := xml.NewDecoder(f).Decode(dst); err != nil {
		return goerr.Wrap(err, "failed to decode archive part", goerr.V("part", name))
	}
	return nil
}

func readSharedStrings(zr *zip.Reader) ([]string, error) {
	if _, err := fs.Stat(zr, "xl/sharedStrings.xml"); err != nil {
		return nil, nil // workbooks without string cells omit the part
	}

	var sst xmlSharedStrings
	if err := readXML(zr, "xl/sharedStrings.xml", &sst); err != nil {
		return nil, err
	}

	out := make([]string, len(sst.Items))
	for i, si := range sst.Items {
		var sb strings.Builder
		if si.T != nil {
			sb.WriteString(*si.T)
		}
		for _, run := range si.Runs {
			sb.WriteString(run.T) // rich-text runs flatten to plain text
		}
		out[i] = sb.String()
	}
	return out, nil
}

func buildSheet(name string, ws *xmlWorksheet, shared []string) (*Sheet, error) {
	maxRow := len(ws.Rows)
	for _, row := range ws.Rows {
		if row.R > maxRow {
			maxRow = row.R
		}
	}

	rows := make([][]any, maxRow)
	next := 0
	for i := range ws.Rows {
		xr := &ws.Rows[i]
		idx := next
		if xr.R > 0 {
			idx = xr.R - 1
		}
		next = idx + 1

		width := rowWidth(xr)
		cells := make([]any, width)
		for j := range xr.Cells {
			xc := &xr.Cells[j]
			col, _, err := ParseCellRef(xc.Ref)
			if err != nil {
				return nil, goerr.Wrap(err, "bad cell reference", goerr.V("sheet", name))
			}
			v, err := cellValue(xc, shared)
			if err != nil {
				return nil, goerr.Wrap(err, "bad cell value",
					goerr.V("sheet", name), goerr.V("cell", xc.Ref))
			}
			if col >= len(cells) {
				grown := make([]any, col+1)
				copy(grown, cells)
				cells = grown
			}
			cells[col] = v
		}
		rows[idx] = cells
	}

	for i := range rows {
		if rows[i] == nil {
			rows[i] = []any{}
		}
	}
	return &Sheet{Name: name, Rows: rows}, nil
}

// rowWidth prefers the spans attribute ("1:12") and falls back to the
// rightmost cell reference when a writer omitted it.
func rowWidth(xr *xmlRow) int {
	if parts := strings.SplitN(xr.Spans, ":", 2); len(parts) == 2 {
		if hi, err := strconv.Atoi(parts[1]); err == nil && hi > 0 {
			return hi
		}
	}
	width := 0
	for i := range xr.Cells {
		if col, _, err := ParseCellRef(xr.Cells[i].Ref); err == nil && col+1 > width {
			width = col + 1
		}
	}
	return width
}

func cellValue(xc *xmlCell, shared []string) (any, error) {
	switch xc.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(xc.Value))
		if err != nil || idx < 0 || idx >= len(shared) {
			return nil, goerr.New("shared string index out of range",
				goerr.V("index", xc.Value), goerr.V("table", len(shared)))
		}
		return shared[idx], nil

	case "inlineStr":
		if xc.Inline == nil {
			return "", nil
		}
		return xc.Inline.T, nil

	case "str":
		return xc.Value, nil

	case "b":
		return strings.TrimSpace(xc.Value) == "1", nil

	default: // numeric or general
		v := strings.TrimSpace(xc.Value)
		if v == "" {
			return nil, nil
		}
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
		return v, nil
	}
}

// ParseCellRef splits an A1-style reference into 0-based column and
// row indexes.
func ParseCellRef(ref string) (col, row int, err error) {
	split := 0
	for split < len(ref) {
		c := ref[split]
		if c < 'A' || c > 'Z' {
			break
		}
		split++
	}
	if split == 0 || split == len(ref) {
		return 0, 0, goerr.New("malformed cell reference", goerr.V("ref", ref))
	}

	for i := 0; i < split; i++ {
		col = col*26 + int(ref[i]-'A') + 1
	}
	n, err := strconv.Atoi(ref[split:])
	if err != nil || n < 1 {
		return 0, 0, goerr.New("malformed cell reference", goerr.V("ref", ref))
	}
	return col - 1, n - 1, nil
}

// CellName renders 0-based column and row indexes as an A1-style
// reference for error messages.
func CellName(col, row int) string {
	return ColumnName(col) + strconv.Itoa(row+1)
}

// ColumnName renders a 0-based column index as spreadsheet letters
// (0 → A, 25 → Z, 26 → AA).
func ColumnName(col int) string {
	name := make([]byte, 0, 3)
	for col >= 0 {
		name = append(name, byte('A'+col%26))
		col = col/26 - 1
	}
	for i, j := 0, len(name)-1; i < j; i, j = i+1, j-1 {
		name[i], name[j] = name[j], name[i]
	}
	return string(name)
}

type xmlWorkbook struct {
	Sheets []xmlSheetRef `xml:"sheets>sheet"`
}

type xmlSheetRef struct {
	Name string `xml:"name,attr"`
	RID  string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
}

type xmlRelationships struct {
	Items []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Target string `xml:"Target,attr"`
}

type xmlSharedStrings struct {
	Items []xmlStringItem `xml:"si"`
}

type xmlStringItem struct {
	T    *string      `xml:"t"`
	Runs []xmlRichRun `xml:"r"`
}

type xmlRichRun struct {
	T string `xml:"t"`
}

type xmlWorksheet struct {
	Rows []xmlRow `xml:"sheetData>row"`
}

type xmlRow struct {
	R     int       `xml:"r,attr"`
	Spans string    `xml:"spans,attr"`
	Cells []xmlCell `xml:"c"`
}

type xmlCell struct {
	Ref    string     `xml:"r,attr"`
	Type   string     `xml:"t,attr"`
	Value  string     `xml:"v"`
	Inline *xmlInline `xml:"is"`
}

type xmlInline struct {
	T string `xml:"t"`
}
