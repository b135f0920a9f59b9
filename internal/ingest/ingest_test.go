package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

func TestParseCSVTrimsAndDropsBlankRows(t *testing.T) {
	in := "region , sales,\n East ,100,x\n,,\nWest,50,\nEast,30,\n"
	ds, err := ParseBytes("sales.csv", []byte(in), DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := strings.Join(ds.Columns, "|"); got != "region|sales" {
		t.Fatalf("columns = %q", got)
	}
	if ds.Len() != 3 {
		t.Fatalf("rows = %d, want 3", ds.Len())
	}
	if v := ds.Rows[0].Get("region").String(); v != "East" {
		t.Fatalf("region = %q", v)
	}
	if f, ok := ds.Rows[0].Get("sales").Float(); !ok || f != 100 {
		t.Fatalf("sales = %v %v", f, ok)
	}
	if ds.Name != "sales.csv" {
		t.Fatalf("name = %q", ds.Name)
	}
}

func TestParseCSVSniffsSemicolon(t *testing.T) {
	in := "a;b\n1;2\n3;4\n"
	ds, err := ParseBytes("x.csv", []byte(in), DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ds.Columns) != 2 || ds.Rows[1].Get("b").FloatOrZero() != 4 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
}

func TestParseTSV(t *testing.T) {
	in := "name\tscore; note\nann\t7; ok\n"
	ds, err := ParseBytes("x.tsv", []byte(in), DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := strings.Join(ds.Columns, "|"); got != "name|score; note" {
		t.Fatalf("columns = %q", got)
	}
}

func TestParseCSVMaxRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 50; i++ {
		b.WriteString("1\n")
	}
	ds, err := ParseBytes("n.csv", []byte(b.String()), Options{MaxRows: 10})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Len() != 10 {
		t.Fatalf("rows = %d, want 10", ds.Len())
	}
}

func TestParseNoData(t *testing.T) {
	for _, in := range []string{"", "\n\n", "a,b\n", "a,b\n,\n"} {
		if _, err := ParseBytes("e.csv", []byte(in), DefaultOptions()); !errors.Is(err, ErrNoData) {
			t.Fatalf("input %q: err = %v, want ErrNoData", in, err)
		}
	}
}

func TestParseUnsupported(t *testing.T) {
	for _, name := range []string{"doc.pdf", "notes.txt"} {
		if _, err := ParseBytes(name, []byte("x"), DefaultOptions()); !errors.Is(err, ErrUnsupported) {
			t.Fatalf("%s: err = %v, want ErrUnsupported", name, err)
		}
	}
	if !Supported("A.XLSX") || !Supported("legacy.xls") || Supported("a.txt") {
		t.Fatalf("Supported mismatch")
	}
}

func TestParseCSVDuplicateHeaders(t *testing.T) {
	ds, err := ParseBytes("d.csv", []byte("a,a,a_2,a\n1,2,3,4\n"), DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := strings.Join(ds.Columns, "|"); got != "a|a_2|a_2_2|a_3" {
		t.Fatalf("columns = %q", got)
	}
	for i, c := range ds.Columns {
		if v := ds.Rows[0].Get(c).FloatOrZero(); v != float64(i+1) {
			t.Fatalf("%s = %v, want %d", c, v, i+1)
		}
	}
}

func TestParseTooLarge(t *testing.T) {
	big := make([]byte, MaxUploadBytes+1)
	if _, err := ParseBytes("big.csv", big, DefaultOptions()); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func writeWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Region", "", "Sale Date", "Units"},
		{"East", "skip", 45000.5, 10},
		{nil, nil, nil, nil},
		{"West", "skip", 45000, 4},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if _, err := f.NewSheet("Other"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if err := f.SetSheetRow("Other", "A1", &[]any{"k", "v"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SetSheetRow("Other", "A2", &[]any{"a", 1}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := writeWorkbook(t)
	ds, err := ParseBytes("book.xlsx", data, DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Sheet != "Sheet1" {
		t.Fatalf("sheet = %q", ds.Sheet)
	}
	if got := strings.Join(ds.Columns, "|"); got != "Region|Sale Date|Units" {
		t.Fatalf("columns = %q", got)
	}
	if ds.Len() != 2 {
		t.Fatalf("rows = %d, want 2", ds.Len())
	}
	if got := ds.Rows[0].Get("Sale Date"); got.Kind() != table.KindText || got.String() != "2023-03-15" {
		t.Fatalf("date cell = %v (%s)", got, got.Kind())
	}
	if got := ds.Rows[1].Get("Sale Date"); !got.IsNumber() {
		t.Fatalf("whole serial should stay numeric, got %s", got.Kind())
	}
	if ds.Rows[1].Get("Units").FloatOrZero() != 4 {
		t.Fatalf("units = %v", ds.Rows[1].Get("Units"))
	}
}

func TestParseXLSXSheetSelection(t *testing.T) {
	data := writeWorkbook(t)
	for _, opt := range []Options{{SheetName: "other"}, {SheetIndex: 2}} {
		ds, err := ParseBytes("book.xlsx", data, opt)
		if err != nil {
			t.Fatalf("parse %+v: %v", opt, err)
		}
		if ds.Sheet != "Other" || ds.Len() != 1 {
			t.Fatalf("opt %+v: sheet=%q rows=%d", opt, ds.Sheet, ds.Len())
		}
	}
	if _, err := ParseBytes("book.xlsx", data, Options{SheetName: "missing"}); err == nil {
		t.Fatalf("expected error for missing sheet")
	}
	if _, err := ParseBytes("book.xlsx", data, Options{SheetIndex: 9}); err == nil {
		t.Fatalf("expected error for out of range index")
	}
}

func TestParseFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.csv")
	if err := os.WriteFile(p, []byte("x,y\n1,2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ds, err := ParseFile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Name != "a.csv" || ds.Len() != 1 {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

// memBook is an in-memory workbook.
type memBook struct {
	names  []string
	sheets [][][]string
}

func (b memBook) SheetNames() []string { return b.names }

func (b memBook) Records(i int) ([][]string, error) {
	if i < 0 || i >= len(b.sheets) {
		return nil, errors.New("no such sheet")
	}
	return b.sheets[i], nil
}

func TestParseWorkbook(t *testing.T) {
	book := memBook{
		names: []string{"Summary", "Ventas"},
		sheets: [][][]string{
			{{"note"}, {"see next sheet"}},
			{nil, {"Region", "Fecha", "Total"}, {"East", "45000.25", "10"}, {}, {"West", "", "4"}},
		},
	}
	ds, err := parseWorkbook(book, Options{SheetName: "ventas"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ds.Sheet != "Ventas" || ds.Len() != 2 {
		t.Fatalf("sheet=%q rows=%d", ds.Sheet, ds.Len())
	}
	if got := ds.Rows[0].Get("Fecha").String(); got != "2023-03-15" {
		t.Fatalf("serial date = %q", got)
	}
	if ds.Rows[1].Get("Total").FloatOrZero() != 4 {
		t.Fatalf("total = %v", ds.Rows[1].Get("Total"))
	}
	ds, err = parseWorkbook(book, Options{SheetIndex: 1})
	if err != nil || ds.Sheet != "Summary" {
		t.Fatalf("first sheet: %v %+v", err, ds)
	}
	if _, err := parseWorkbook(memBook{}, DefaultOptions()); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty workbook: err = %v, want ErrNoData", err)
	}
}

func TestParseXLSMalformed(t *testing.T) {
	_, err := ParseBytes("legacy.xls", []byte("not a workbook"), DefaultOptions())
	if err == nil {
		t.Fatalf("expected error for malformed xls")
	}
	if errors.Is(err, ErrUnsupported) {
		t.Fatalf(".xls should be parsed, got %v", err)
	}
}
