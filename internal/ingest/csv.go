package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/KaramelBytes/insightify-cli/internal/table"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}

func (p csvParser) Parse(content []byte, opt Options) (*table.Dataset, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.Comma = opt.Delimiter
	if r.Comma == 0 {
		r.Comma = sniffDelimiter(content)
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return build(records, opt, inferCell)
}

// tsvParser shares CSV parsing with a fixed tab delimiter.
type tsvParser struct{ csvParser }

func (tsvParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".tsv")
}

func (p tsvParser) Parse(content []byte, opt Options) (*table.Dataset, error) {
	opt.Delimiter = '\t'
	return p.csvParser.Parse(content, opt)
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the first
// non-empty line.
func sniffDelimiter(content []byte) rune {
	line := ""
	for _, l := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	best, bestN := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}
