// Package render writes chart payloads as HTML, PNG, terminal bars or JSON.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/insightify-cli/internal/chart"
	"github.com/KaramelBytes/insightify-cli/internal/utils"
)

// Format selects an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPNG  Format = "png"
	FormatText Format = "text"
)

var (
	// ErrEmptyChart is returned by image renderers when there is nothing to draw.
	ErrEmptyChart = errors.New("chart has no data")
	// ErrMismatchedSeries is returned when a series length differs from the label count.
	ErrMismatchedSeries = errors.New("chart series do not match its labels")
)

func validate(ch *chart.Chart) error {
	if ch == nil {
		return ErrEmptyChart
	}
	if !ch.Payload.Valid() {
		return ErrMismatchedSeries
	}
	return nil
}

// ParseFormat maps a flag value or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "text", "txt", "term":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "html", "htm":
		return FormatHTML, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json, html, png or text)", s)
	}
}

// Write renders ch in format f.
func Write(w io.Writer, f Format, ch *chart.Chart) error {
	switch f {
	case FormatJSON:
		return JSON(w, ch)
	case FormatHTML:
		return HTML(w, ch)
	case FormatPNG:
		return PNG(w, ch)
	case FormatText:
		return Text(w, ch, 40)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// JSON writes the chart as indented JSON.
func JSON(w io.Writer, ch *chart.Chart) error {
	b, err := utils.PrettyJSON(ch)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func title(ch *chart.Chart) string {
	if t := strings.TrimSpace(ch.Title); t != "" {
		return t
	}
	return ch.Case.Description()
}
