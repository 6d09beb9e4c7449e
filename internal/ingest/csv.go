package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// ReadCSV parses a property CSV with a header row. Latitude and longitude
// columns are required; the rest are optional.
func ReadCSV(r io.Reader) ([]models.Property, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	props := []models.Property{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		p, err := newRecord(header, row).property(nil)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		props = append(props, p)
	}
	return props, nil
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string) ([]models.Property, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}
