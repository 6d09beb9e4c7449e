package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stwalsh4118/wealthmap/internal/models"
)

// CSVHeader is the column order of exported selections.
var CSVHeader = []string{
	"id", "address", "price", "beds", "baths", "sqft",
	"county", "region", "zip", "latitude", "longitude",
}

// WriteCSV writes a header row and one row per property. Every field is
// double-quoted and embedded quotes are doubled, so spreadsheet tools never
// reinterpret addresses or zip codes.
func WriteCSV(w io.Writer, props []models.Property) error {
	bw := bufio.NewWriter(w)

	if err := writeRow(bw, CSVHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for i := range props {
		p := &props[i]
		row := []string{
			p.ID,
			p.Address,
			formatFloat(p.Price),
			strconv.Itoa(p.Beds),
			formatFloat(p.Baths),
			formatFloat(p.LivingSpace),
			p.County,
			p.Region,
			p.Zip,
			formatFloat(p.Latitude),
			formatFloat(p.Longitude),
		}
		if err := writeRow(bw, row); err != nil {
			return fmt.Errorf("csv: write row %s: %w", p.ID, err)
		}
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
