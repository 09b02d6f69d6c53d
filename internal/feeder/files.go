package feeder

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

func openCSV(path string) (*Feeder, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("feed %s: need a header row and at least one data row", path)
	}

	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("feed %s: row %d has %d fields, header has %d", path, i+2, len(row), len(header))
		}
		record := make(Record, len(header))
		for j, field := range header {
			record[field] = row[j]
		}
		records = append(records, record)
	}
	return newFeeder(records), nil
}

func openJSON(path string) (*Feeder, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("feed %s: expected an array of objects: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("feed %s: no records", path)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		record := make(Record, len(row))
		for field, value := range row {
			switch v := value.(type) {
			case string:
				record[field] = v
			case nil:
				record[field] = ""
			default:
				record[field] = fmt.Sprint(v)
			}
		}
		records = append(records, record)
	}
	return newFeeder(records), nil
}
