package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/extrame/xls"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

// xlsParser reads legacy BIFF (.xls) workbooks.
type xlsParser struct{}

func (xlsParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xls")
}

func (xlsParser) Parse(content []byte, opt Options) (ds *table.Dataset, err error) {
	// The BIFF reader panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			ds, err = nil, fmt.Errorf("open xls: malformed workbook: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	return parseWorkbook(biffBook{wb}, opt)
}

type biffBook struct{ wb *xls.WorkBook }

func (b biffBook) SheetNames() []string {
	n := b.wb.NumSheets()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := ""
		if s := b.wb.GetSheet(i); s != nil {
			name = s.Name
		}
		names = append(names, name)
	}
	return names
}

func (b biffBook) Records(sheet int) ([][]string, error) {
	s := b.wb.GetSheet(sheet)
	if s == nil {
		return nil, fmt.Errorf("sheet %d not readable", sheet+1)
	}
	records := make([][]string, 0, int(s.MaxRow)+1)
	for i := 0; i <= int(s.MaxRow); i++ {
		row := s.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		rec := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			rec[c] = row.Col(c)
		}
		records = append(records, rec)
	}
	return records, nil
}
