package ingest

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// dateKeywords mark header names whose fractional numbers are Excel serial dates.
var dateKeywords = []string{"date", "fecha", "time", "tiempo", "created", "updated", "shipped", "sale"}

// workbook is the part of a spreadsheet file the parsers read: sheet names
// in workbook order and the raw cell text of one sheet.
type workbook interface {
	SheetNames() []string
	Records(sheet int) ([][]string, error)
}

type excelizeBook struct{ f *excelize.File }

func (b excelizeBook) SheetNames() []string { return b.f.GetSheetList() }

func (b excelizeBook) Records(sheet int) ([][]string, error) {
	return b.f.GetRows(b.f.GetSheetList()[sheet], excelize.Options{RawCellValue: true})
}

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxParser) Parse(content []byte, opt Options) (*table.Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return parseWorkbook(excelizeBook{f}, opt)
}

// parseWorkbook selects a sheet per opt and builds the dataset from it.
func parseWorkbook(book workbook, opt Options) (*table.Dataset, error) {
	names := book.SheetNames()
	sheet, err := pickSheet(names, opt)
	if err != nil {
		return nil, err
	}
	records, err := book.Records(slices.Index(names, sheet))
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	ds, err := build(records, opt, excelCell)
	if err != nil {
		return nil, err
	}
	ds.Sheet = sheet
	return ds, nil
}

func pickSheet(sheets []string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", ErrNoData
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", opt.SheetName, strings.Join(sheets, ", "))
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(sheets))
	}
	return sheets[idx-1], nil
}

func excelCell(header, raw string) table.Cell {
	c := table.Infer(raw)
	v, ok := c.Float()
	if !ok || !isDateColumn(header) || !isSerialDate(v) {
		return c
	}
	t, err := excelize.ExcelDateToTime(v, false)
	if err != nil {
		return c
	}
	return table.Text(t.Format("2006-01-02"))
}

func isDateColumn(header string) bool {
	h := strings.ToLower(header)
	for _, k := range dateKeywords {
		if strings.Contains(h, k) {
			return true
		}
	}
	return false
}

// isSerialDate accepts values inside Excel's date range that carry a time
// fraction.
func isSerialDate(v float64) bool {
	return v > 1 && v < 2958465 && v != math.Trunc(v)
}
