package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordquest/pkg/models"
)

// WordStore is the part of the word repository the importer needs
type WordStore interface {
	GetByWord(ctx context.Context, surface string) (*models.Word, error)
	Create(ctx context.Context, word *models.Word) error
	Update(ctx context.Context, word *models.Word) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	WordColumn          string // Column with the word
	DefinitionColumn    string // Column with the definition
	YearGroupColumn     string // Column with the year group
	LearningPointColumn string // Column with the learning point
	ExampleColumn       string // Column with the example sentence
	SynonymsColumn      string // Column with synonyms separated by ; or ,
	AntonymsColumn      string // Column with antonyms separated by ; or ,
	SheetName           string // Sheet to import; empty means the first sheet
	StartRow            int    // The row to start importing from (1-based index)
	// Year group used when a row leaves it empty
	DefaultYearGroup models.YearGroup
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:          "A",
		DefinitionColumn:    "B",
		YearGroupColumn:     "C",
		LearningPointColumn: "D",
		ExampleColumn:       "E",
		SynonymsColumn:      "F",
		AntonymsColumn:      "G",
		StartRow:            2, // By default, start from the second row (skip header)
		DefaultYearGroup:    models.Year3,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int      `json:"total_processed"`
	Created        int      `json:"created"`
	Updated        int      `json:"updated"`
	Skipped        int      `json:"skipped"`
	Errors         []string `json:"errors"`
}

// Importer loads word-bank rows from .xlsx or .csv files
type Importer struct {
	words  WordStore
	config ImportConfig
}

// NewImporter creates an importer writing into words
func NewImporter(words WordStore, config ImportConfig) *Importer {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	if !config.DefaultYearGroup.Valid() {
		config.DefaultYearGroup = models.Year3
	}
	return &Importer{words: words, config: config}
}

// ImportFile imports words from an Excel or CSV file on disk
func (im *Importer) ImportFile(ctx context.Context, path string) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return im.Import(ctx, f, filepath.Base(path))
}

// Import imports words from r; filename decides between CSV and Excel
func (im *Importer) Import(ctx context.Context, r io.Reader, filename string) (*ImportResult, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx", ".xlsm":
		rows, err = im.readExcel(r)
	default:
		return nil, fmt.Errorf("unsupported file type %q, expected .xlsx or .csv", filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < im.config.StartRow-1 {
			continue
		}
		if blank(row) {
			continue
		}
		result.TotalProcessed++

		if err := im.processRow(ctx, row, result); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

func (im *Importer) readExcel(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := im.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}
	return rows, nil
}

// processRow creates the word or updates the existing entry with the same surface form
func (im *Importer) processRow(ctx context.Context, row []string, result *ImportResult) error {
	cfg := im.config
	word := cleanWord(cell(row, cfg.WordColumn))
	if word == "" {
		return fmt.Errorf("word cannot be empty")
	}

	yearGroup := cfg.DefaultYearGroup
	if raw := cell(row, cfg.YearGroupColumn); raw != "" {
		yg, ok := models.ParseYearGroup(raw)
		if !ok {
			return fmt.Errorf("unknown year group %q", raw)
		}
		yearGroup = yg
	}

	existing, err := im.words.GetByWord(ctx, word)
	if err != nil {
		return fmt.Errorf("failed to look up %q: %w", word, err)
	}

	if existing != nil {
		mergeRow(existing, row, cfg)
		existing.YearGroup = yearGroup
		if err := im.words.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update word: %w", err)
		}
		result.Updated++
		return nil
	}

	newWord := &models.Word{Word: word, YearGroup: yearGroup}
	mergeRow(newWord, row, cfg)
	if err := im.words.Create(ctx, newWord); err != nil {
		return fmt.Errorf("failed to create word: %w", err)
	}
	result.Created++
	return nil
}

// mergeRow copies the non-empty optional cells of row onto w
func mergeRow(w *models.Word, row []string, cfg ImportConfig) {
	if v := cell(row, cfg.DefinitionColumn); v != "" {
		w.Definition = v
	}
	if v := cell(row, cfg.LearningPointColumn); v != "" {
		w.LearningPoint = v
	}
	if v := cell(row, cfg.ExampleColumn); v != "" {
		w.Example = v
	}
	if v := splitList(cell(row, cfg.SynonymsColumn)); len(v) > 0 {
		w.Synonyms = v
	}
	if v := splitList(cell(row, cfg.AntonymsColumn)); len(v) > 0 {
		w.Antonyms = v
	}
}

// cell returns the trimmed value of column (e.g. "C") in row, or "" if out of range
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	n, err := excelize.ColumnNameToNumber(column)
	if err != nil || n > len(row) {
		return ""
	}
	return strings.TrimSpace(row[n-1])
}

// cleanWord drops trailing notes in brackets, e.g. "run (ran, run)"
func cleanWord(word string) string {
	if i := strings.Index(word, "("); i > 0 {
		return strings.TrimSpace(word[:i])
	}
	return strings.TrimSpace(word)
}

func splitList(s string) models.StringList {
	if s == "" {
		return nil
	}
	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	}
	var out models.StringList
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// SheetText flattens every sheet of a workbook into tab-separated lines, one
// block per sheet, for feeding spreadsheet contents to a text model.
func SheetText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to get rows of %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Fprintf(&b, "# %s\n", sheet)
		for _, row := range rows {
			if blank(row) {
				continue
			}
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
