package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"trade-ingestor-go/internal/models"
	"trade-ingestor-go/internal/utils"
)

var (
	ErrEmptyCatalog       = errors.New("instrument catalog is empty")
	ErrUnsupportedCatalog = errors.New("unsupported catalog format")
	ErrMalformedRow       = errors.New("malformed catalog row")
)

// CsvInstrumentRepository reads instrument catalogs under Dir.
// Rows are symbol[,price_base,price_range]; a leading "symbol" header is skipped.
type CsvInstrumentRepository struct {
	Dir string
}

func NewCsvInstrumentRepository(dir string) *CsvInstrumentRepository {
	return &CsvInstrumentRepository{Dir: dir}
}

func (r *CsvInstrumentRepository) ReadInstruments(filename string) ([]models.Instrument, error) {
	file, err := os.Open(filepath.Join(r.Dir, filename))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseInstrumentCsv(file)
}

func ParseInstrumentCsv(in io.Reader) ([]models.Instrument, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "symbol") {
		records = records[1:]
	}

	instruments := make([]models.Instrument, 0, len(records))
	for i, record := range records {
		inst, err := instrumentFromCells(record)
		if err != nil {
			return nil, fmt.Errorf("catalog row %d: %w", i+1, err)
		}
		if inst.Symbol == "" {
			continue
		}
		instruments = append(instruments, inst)
	}

	if len(instruments) == 0 {
		return nil, ErrEmptyCatalog
	}
	return instruments, nil
}

// instrumentFromCells reads symbol[,price_base,price_range]. The price pair is
// all or nothing: both empty keeps the default band, one without the other is
// an error, and the base must be positive with a non-negative range.
func instrumentFromCells(cells []string) (models.Instrument, error) {
	inst := models.Instrument{Symbol: strings.TrimSpace(cells[0])}

	var baseCell, rangeCell string
	if len(cells) > 1 {
		baseCell = strings.TrimSpace(cells[1])
	}
	if len(cells) > 2 {
		rangeCell = strings.TrimSpace(cells[2])
	}

	switch {
	case baseCell == "" && rangeCell == "":
		return inst, nil
	case baseCell == "":
		return inst, fmt.Errorf("%w: price range %q without price base", ErrMalformedRow, rangeCell)
	case rangeCell == "":
		return inst, fmt.Errorf("%w: price base %q without price range", ErrMalformedRow, baseCell)
	}

	base, err := utils.ParseDecimal(baseCell)
	if err != nil {
		return inst, fmt.Errorf("price base %q: %w", baseCell, err)
	}
	if !base.IsPositive() {
		return inst, fmt.Errorf("%w: price base %s is not positive", ErrMalformedRow, base)
	}
	span, err := utils.ParseDecimal(rangeCell)
	if err != nil {
		return inst, fmt.Errorf("price range %q: %w", rangeCell, err)
	}
	if span.IsNegative() {
		return inst, fmt.Errorf("%w: price range %s is negative", ErrMalformedRow, span)
	}

	inst.PriceBase = base.InexactFloat64()
	inst.PriceRange = span.InexactFloat64()
	return inst, nil
}

// LoadInstruments reads a catalog file, choosing the parser by extension.
func LoadInstruments(path string) ([]models.Instrument, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCsvInstrumentRepository(filepath.Dir(path)).ReadInstruments(filepath.Base(path))
	case ".html", ".htm":
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return ParseInstrumentTable(file)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCatalog, path)
	}
}
