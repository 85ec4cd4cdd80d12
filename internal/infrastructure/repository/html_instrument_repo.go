package repository

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trade-ingestor-go/internal/models"
)

// ParseInstrumentTable reads the first table of an HTML page. Columns are
// symbol, then optionally price base and price range.
func ParseInstrumentTable(html io.Reader) ([]models.Instrument, error) {
	doc, err := goquery.NewDocumentFromReader(html)
	if err != nil {
		return nil, err
	}

	var (
		instruments []models.Instrument
		rowErr      error
	)

	doc.Find("table").First().Find("tbody tr").EachWithBreak(func(i int, s *goquery.Selection) bool {
		cols := s.Find("td")
		if cols.Length() == 0 {
			return true
		}

		cells := make([]string, 0, cols.Length())
		cols.Each(func(_ int, col *goquery.Selection) {
			cells = append(cells, strings.TrimSpace(col.Text()))
		})

		inst, err := instrumentFromCells(cells)
		if err != nil {
			rowErr = fmt.Errorf("table row %d: %w", i+1, err)
			return false
		}
		if inst.Symbol != "" {
			instruments = append(instruments, inst)
		}
		return true
	})

	if rowErr != nil {
		return nil, rowErr
	}
	if len(instruments) == 0 {
		return nil, ErrEmptyCatalog
	}
	return instruments, nil
}
