package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/stwalsh4118/wealthmap/internal/logger"
	"github.com/stwalsh4118/wealthmap/internal/models"
	"golang.org/x/sync/errgroup"
)

// Composer builds PDF reports. Charts render concurrently, each under its own timeout.
type Composer struct {
	log     *logger.Logger
	charts  []Chart
	timeout time.Duration
}

// NewComposer creates a composer. With no charts given it uses DefaultCharts.
func NewComposer(timeout time.Duration, log *logger.Logger, charts ...Chart) *Composer {
	if len(charts) == 0 {
		charts = DefaultCharts()
	}
	return &Composer{log: log, charts: charts, timeout: timeout}
}

type renderedChart struct {
	err   error
	chart Chart
	png   []byte
}

// render draws every chart. A chart that fails or times out keeps its error
// and no image; only cancellation of ctx fails the whole render.
func (c *Composer) render(ctx context.Context, props []models.Property) ([]renderedChart, error) {
	out := make([]renderedChart, len(c.charts))
	g, gctx := errgroup.WithContext(ctx)

	for i, ch := range c.charts {
		i, ch := i, ch
		g.Go(func() error {
			png, err := c.renderOne(gctx, ch, props)
			out[i] = renderedChart{chart: ch, png: png, err: err}
			if err != nil {
				c.log.Error("Chart render failed", err, map[string]interface{}{
					"chart": ch.Name,
				})
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Composer) renderOne(ctx context.Context, ch Chart, props []models.Property) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		err error
		png []byte
	}
	done := make(chan result, 1)

	go func() {
		var buf bytes.Buffer
		err := ch.Render(props, &buf)
		done <- result{png: buf.Bytes(), err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("render %s: %w", ch.Name, r.err)
		}
		return r.png, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("render %s: %w", ch.Name, ctx.Err())
	}
}

// PDF renders the stats page followed by one page per chart.
func (c *Composer) PDF(ctx context.Context, props []models.Property) ([]byte, error) {
	charts, err := c.render(ctx, props)
	if err != nil {
		return nil, err
	}

	summary := Summarize(props)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Property report", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Property report")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		fmt.Sprintf("Properties: %d", summary.Count),
		fmt.Sprintf("Mean price: $%.0f", summary.MeanPrice),
		fmt.Sprintf("Mean beds: %.1f", summary.MeanBeds),
		fmt.Sprintf("Mean baths: %.1f", summary.MeanBaths),
		fmt.Sprintf("Mean living space: %.0f sqft", summary.MeanLivingSpace),
		fmt.Sprintf("Mean price per sqft: $%.0f", summary.MeanPricePerSqft),
	} {
		pdf.Cell(0, 7, line)
		pdf.Ln(7)
	}

	if len(summary.Counties) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(90, 8, "County", "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, "Count", "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 8, "Mean price", "1", 1, "R", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, cs := range summary.Counties {
			name := cs.County
			if name == "" {
				name = "(unknown)"
			}
			pdf.CellFormat(90, 7, tr(name), "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%d", cs.Count), "1", 0, "R", false, 0, "")
			pdf.CellFormat(50, 7, fmt.Sprintf("$%.0f", cs.MeanPrice), "1", 1, "R", false, 0, "")
		}
	}

	imageOpts := fpdf.ImageOptions{ImageType: "PNG"}
	for _, rc := range charts {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 14)
		pdf.Cell(0, 10, tr(rc.chart.Title))
		pdf.Ln(14)

		if rc.err != nil || len(rc.png) == 0 {
			pdf.SetFont("Helvetica", "I", 11)
			pdf.Cell(0, 8, "Chart unavailable")
			continue
		}
		pdf.RegisterImageOptionsReader(rc.chart.Name, imageOpts, bytes.NewReader(rc.png))
		pdf.ImageOptions(rc.chart.Name, 15, 30, 180, 0, false, imageOpts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
