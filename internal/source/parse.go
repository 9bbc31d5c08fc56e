package source

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Kind string

const (
	KindAuto Kind = "auto"
	KindJSON Kind = "json"
	KindCSV  Kind = "csv"
	KindHTML Kind = "html"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindJSON, KindCSV, KindHTML:
		return k, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// DetectKind guesses the sheet format from a published URL.
func DetectKind(rawURL string) Kind {
	u := strings.ToLower(rawURL)
	switch {
	case strings.Contains(u, "output=csv"), strings.Contains(u, "format=csv"), strings.HasSuffix(u, ".csv"):
		return KindCSV
	case strings.Contains(u, "pubhtml"), strings.HasSuffix(u, ".html"), strings.HasSuffix(u, ".htm"):
		return KindHTML
	default:
		return KindJSON
	}
}

var ErrNoTable = errors.New("no table found")

// Parse decodes a sheet body of the given kind into rows.
func Parse(kind Kind, r io.Reader) ([]Row, error) {
	switch kind {
	case KindJSON:
		return ParseJSON(r)
	case KindCSV:
		return ParseCSV(r)
	case KindHTML:
		return ParseHTML(r)
	default:
		return nil, fmt.Errorf("parse: unsupported kind %q", kind)
	}
}

// ParseJSON decodes an array of header-keyed objects, as served by an
// Apps Script web app.
func ParseJSON(r io.Reader) ([]Row, error) {
	var raw []map[string]any
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json rows: %w", err)
	}
	return RowsFromObjects(raw), nil
}

// RowsFromObjects stringifies decoded JSON cells.
func RowsFromObjects(raw []map[string]any) []Row {
	rows := make([]Row, 0, len(raw))
	for _, obj := range raw {
		row := make(Row, len(obj))
		for k, v := range obj {
			row[strings.TrimSpace(k)] = cellString(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// ParseCSV reads a sheet published as CSV; the first record is the header.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return rowsFromGrid(records[0], records[1:]), nil
}

// ParseHTML reads the first table of a sheet published as a web page. A
// row of th cells is the header unless it only holds column letters (the
// published-sheet layout), in which case the first data row is. Row-number
// th cells are ignored.
func ParseHTML(r io.Reader) ([]Row, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrNoTable
	}

	var header []string
	var grid [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		tds := cellTexts(tr.Find("td"))
		if len(tds) > 0 {
			if !allEmpty(tds) {
				grid = append(grid, tds)
			}
			return
		}
		ths := cellTexts(tr.Find("th"))
		if header == nil && len(grid) == 0 && !allEmpty(ths) && !columnLetters(ths) {
			header = ths
		}
	})
	if header == nil {
		if len(grid) == 0 {
			return nil, nil
		}
		header, grid = grid[0], grid[1:]
	}
	return rowsFromGrid(header, grid), nil
}

func cellTexts(sel *goquery.Selection) []string {
	return sel.Map(func(_ int, c *goquery.Selection) string {
		return strings.TrimSpace(c.Text())
	})
}

func columnLetters(cells []string) bool {
	for _, c := range cells {
		if len(c) > 2 {
			return false
		}
		for _, ch := range c {
			if ch < 'A' || ch > 'Z' {
				return false
			}
		}
	}
	return true
}

func rowsFromGrid(header []string, body [][]string) []Row {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	rows := make([]Row, 0, len(body))
	for _, rec := range body {
		row := make(Row, len(keys))
		for i, k := range keys {
			if k == "" || i >= len(rec) {
				continue
			}
			row[k] = rec[i]
		}
		rows = append(rows, row)
	}
	return rows
}

func allEmpty(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
