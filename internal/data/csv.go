package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ReadCSV parses a CSV stream whose first record is the header. Column names
// are lower-cased and trimmed; short records are padded with empty values.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := make([]string, len(records[0]))
	for i, name := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// LoadDir reads <dir>/<table>.csv for every known table. Missing files are
// treated as empty tables.
func LoadDir(dir string, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tables := make(map[string][]Row, len(Tables))
	for _, table := range Tables {
		path := filepath.Join(dir, table+".csv")
		file, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("data table not found, treating as empty",
					zap.String("table", table),
					zap.String("path", path),
				)
				continue
			}
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}

		rows, err := ReadCSV(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		tables[table] = rows

		logger.Debug("loaded data table",
			zap.String("table", table),
			zap.Int("rows", len(rows)),
		)
	}

	return NewDatabase(tables), nil
}
