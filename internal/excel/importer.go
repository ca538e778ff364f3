// Package excel imports course concept lists from Excel or CSV files.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/masterybot/internal/summary"
	"github.com/example/masterybot/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath      string // Path to the Excel or CSV file
	CourseColumn  string // Column with the course id
	ConceptColumn string // Column with the concept id
	LabelColumn   string // Column with the display label
	LessonColumn  string // Column with the lesson id, optional
	SheetName     string // Name of the sheet to import; empty means the first sheet
	StartRow      int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		CourseColumn:  "A",
		ConceptColumn: "B",
		LabelColumn:   "C",
		LessonColumn:  "D",
		StartRow:      2, // skip header
	}
}

// Initializer is satisfied by *engine.Engine.
type Initializer interface {
	InitializeConcepts(ctx context.Context, learnerID, courseID string, specs []models.ConceptSpec) (*summary.CourseSummary, error)
}

// CourseResult reports one course after import.
type CourseResult struct {
	CourseID      string
	Submitted     int // rows sent for this course
	TotalConcepts int // concepts in the course record afterwards
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Skipped        int
	Courses        []CourseResult
	Errors         []string
}

// Row is one parsed concept row.
type Row struct {
	Line     int
	CourseID string
	Spec     models.ConceptSpec
}

// ImportConcepts reads config.FilePath and initializes every listed concept
// for learnerID, one InitializeConcepts call per course in file order.
func ImportConcepts(ctx context.Context, init Initializer, learnerID string, config ImportConfig) (*ImportResult, error) {
	rows, err := ReadRows(config)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var order []string
	byCourse := make(map[string][]models.ConceptSpec)
	seen := make(map[string]bool)

	for _, row := range rows {
		result.TotalProcessed++
		if err := validateRow(row); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", row.Line, err))
			continue
		}
		key := row.CourseID + "\x00" + row.Spec.ConceptID
		if seen[key] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: duplicate concept %s in course %s", row.Line, row.Spec.ConceptID, row.CourseID))
			continue
		}
		seen[key] = true
		if _, ok := byCourse[row.CourseID]; !ok {
			order = append(order, row.CourseID)
		}
		byCourse[row.CourseID] = append(byCourse[row.CourseID], row.Spec)
	}

	for _, courseID := range order {
		specs := byCourse[courseID]
		cs, err := init.InitializeConcepts(ctx, learnerID, courseID, specs)
		if err != nil {
			return result, fmt.Errorf("failed to initialize course %s: %w", courseID, err)
		}
		result.Courses = append(result.Courses, CourseResult{
			CourseID:      courseID,
			Submitted:     len(specs),
			TotalConcepts: cs.TotalConcepts,
		})
	}
	return result, nil
}

// ReadRows parses the file without touching any store.
func ReadRows(config ImportConfig) ([]Row, error) {
	if config.StartRow < 1 {
		config.StartRow = 1
	}
	var (
		raw [][]string
		err error
	)
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		raw, err = readCSV(config.FilePath)
	} else {
		raw, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(raw))
	for i, cells := range raw {
		line := i + 1
		if line < config.StartRow || blank(cells) {
			continue
		}
		rows = append(rows, Row{
			Line:     line,
			CourseID: cell(cells, config.CourseColumn),
			Spec: models.ConceptSpec{
				ConceptID: cell(cells, config.ConceptColumn),
				Label:     cell(cells, config.LabelColumn),
				LessonID:  cell(cells, config.LessonColumn),
			},
		})
	}
	return rows, nil
}

func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func validateRow(r Row) error {
	switch {
	case r.CourseID == "":
		return fmt.Errorf("course cannot be empty")
	case r.Spec.ConceptID == "":
		return fmt.Errorf("concept id cannot be empty")
	}
	return nil
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
