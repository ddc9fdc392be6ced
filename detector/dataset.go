package detector

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DatasetOptions allows callers to choose which columns hold text and label.
// Values are header names or 1-based "#N" indices.
type DatasetOptions struct {
	TextColumn  string
	LabelColumn string
}

// Dataset is a parsed training file.
type Dataset struct {
	Examples    []LabeledExample
	Skipped     int
	TextColumn  string
	LabelColumn string
}

// Positives counts the examples labeled as AI.
func (d Dataset) Positives() int {
	n := 0
	for _, ex := range d.Examples {
		if ex.Label == LabelAI {
			n++
		}
	}
	return n
}

// ParseLabel maps a label cell to a class: "ai", "generated" and "bot"
// (case-insensitive) are AI, anything else is human.
func ParseLabel(value string) Label {
	switch strings.ToLower(cleanCell(value)) {
	case "ai", "generated", "bot":
		return LabelAI
	default:
		return LabelHuman
	}
}

// LoadDataset reads a CSV, TSV or XLSX file with a header row containing the
// text and label columns. Rows with empty text are skipped.
func LoadDataset(path string, opts DatasetOptions) (Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Dataset{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return Dataset{}, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return Dataset{}, fmt.Errorf("%w: %s is a directory", ErrUnsupportedFormat, path)
	}
	rows, err := readTable(path)
	if err != nil {
		return Dataset{}, err
	}
	return examplesFromRows(rows, opts)
}

type tableFormat int

const (
	formatCSV tableFormat = iota
	formatTSV
	formatXLSX
)

func detectFormat(path string) (tableFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV, nil
	case ".tsv", ".tab":
		return formatTSV, nil
	case ".xlsx":
		return formatXLSX, nil
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return 0, fmt.Errorf("detect dataset format: %w", err)
	}
	switch {
	case mt.Is(xlsxMIME):
		return formatXLSX, nil
	case mt.Is("text/tab-separated-values"):
		return formatTSV, nil
	case mt.Is("text/csv"), mt.Is("text/plain"):
		return formatCSV, nil
	}
	return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filepath.Base(path), mt.String())
}

func readTable(path string) ([][]string, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatXLSX:
		return readWorkbook(path)
	case formatTSV:
		return readDelimited(path, '\t')
	default:
		return readDelimited(path, ',')
	}
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(skipBOM(bufio.NewReader(f)))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// skipBOM drops a leading UTF-8 byte-order mark so quoted header cells parse.
func skipBOM(r *bufio.Reader) *bufio.Reader {
	if head, err := r.Peek(3); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = r.Discard(3)
	}
	return r
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrUnsupportedFormat, filepath.Base(path))
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func examplesFromRows(rows [][]string, opts DatasetOptions) (Dataset, error) {
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	candidates := getColumnCandidates()
	textCol, err := pickColumn(header, opts.TextColumn, candidates.Text)
	if err != nil {
		return Dataset{}, err
	}
	if textCol < 0 {
		return Dataset{}, fmt.Errorf("%w: text (header %v)", ErrMissingColumn, header)
	}
	labelCol, err := pickColumn(header, opts.LabelColumn, candidates.Label)
	if err != nil {
		return Dataset{}, err
	}
	if labelCol < 0 {
		return Dataset{}, fmt.Errorf("%w: label (header %v)", ErrMissingColumn, header)
	}

	ds := Dataset{
		Examples:    make([]LabeledExample, 0, len(rows)-1),
		TextColumn:  headerNameForIndex(header, textCol),
		LabelColumn: headerNameForIndex(header, labelCol),
	}
	for _, row := range rows[1:] {
		var text, label string
		if textCol < len(row) {
			text = cleanCell(row[textCol])
		}
		if labelCol < len(row) {
			label = row[labelCol]
		}
		if text == "" {
			ds.Skipped++
			continue
		}
		ds.Examples = append(ds.Examples, LabeledExample{Text: text, Label: ParseLabel(label)})
	}
	return ds, nil
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}

func pickColumn(header []string, explicit string, candidates []string) (int, error) {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return matchExplicitColumn(header, trimmed)
	}
	for i, col := range header {
		for _, cand := range candidates {
			if strings.EqualFold(col, cand) {
				return i, nil
			}
		}
	}
	return -1, nil
}

func matchExplicitColumn(header []string, explicit string) (int, error) {
	for i, col := range header {
		if strings.EqualFold(col, explicit) {
			return i, nil
		}
	}
	if strings.HasPrefix(explicit, "#") {
		idx, err := parseColumnIndex(explicit)
		if err != nil {
			return -1, err
		}
		if idx >= len(header) {
			return -1, fmt.Errorf("column index %s is out of range", explicit)
		}
		return idx, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrMissingColumn, explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}

func headerNameForIndex(header []string, idx int) string {
	if idx >= 0 && idx < len(header) && header[idx] != "" {
		return header[idx]
	}
	return fmt.Sprintf("#%d", idx+1)
}
