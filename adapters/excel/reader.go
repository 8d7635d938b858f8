// Package excel loads test summaries and the chemistry reference table from
// xlsx workbooks or csv files.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cellfade/internal"
	"cellfade/internal/errors"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.With("excel"),
	}
}

// WithLogger replaces the reader's logger
func (r *DataReader) WithLogger(l *internal.Logger) *DataReader {
	r.logger = l
	return r
}

// IsWorkbook reports whether the reader targets an xlsx file
func (r *DataReader) IsWorkbook() bool {
	return r.fileType == "xlsx"
}

// ReadTable reads sheet from a workbook, or the whole file for csv
func (r *DataReader) ReadTable(sheet string) (*Table, error) {
	if _, err := os.Stat(r.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
		}
		return nil, errors.Wrapf(err, "stat %s", r.filePath)
	}

	start := time.Now()
	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	default:
		rows, err = r.readSheet(sheet)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("read %s (%d rows) in %.2fms", r.filePath, len(rows), float64(time.Since(start).Nanoseconds())/1e6)

	if len(rows) < 1 {
		return nil, errors.InvalidArgument("%s: missing header row", r.filePath)
	}
	return processRows(rows), nil
}

func (r *DataReader) readSheet(sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", r.filePath)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, errors.NotFound(fmt.Sprintf("sheet %q in %s", sheet, r.filePath))
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	return rows, nil
}

func (r *DataReader) readCSV() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "open csv %s", r.filePath)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "read csv %s", r.filePath)
	}
	return rows, nil
}

// processRows keys each data row by normalized header, skipping blank rows
func processRows(rows [][]string) *Table {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizeHeader(h)
	}

	t := &Table{Headers: headers}
	for i := 1; i < len(rows); i++ {
		row := make(RawRow, len(headers))
		blank := true
		for j, cell := range rows[i] {
			if j >= len(headers) || headers[j] == "" {
				continue
			}
			v := strings.TrimSpace(cell)
			if v != "" {
				blank = false
			}
			row[headers[j]] = v
		}
		if blank {
			continue
		}
		t.Rows = append(t.Rows, row)
		t.Lines = append(t.Lines, i+1)
	}
	return t
}
