package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoadCSV reads a daily bar series from a CSV file with columns
// date,open,high,low,close,volume. A header row is detected and skipped.
// The resulting series is validated before it is returned.
func LoadCSV(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses bars from r. See LoadCSV for the expected format.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var bars Series
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market: csv line %d: %w", line+1, err)
		}
		line++

		// Header row
		if line == 1 && strings.EqualFold(rec[0], "date") {
			continue
		}

		b, err := parseBar(rec)
		if err != nil {
			return nil, fmt.Errorf("market: csv line %d: %w", line, err)
		}
		bars = append(bars, b)
	}

	if err := bars.Validate(); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseBar(rec []string) (Bar, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(rec[0]))
	if err != nil {
		return Bar{}, fmt.Errorf("bad date %q: %w", rec[0], err)
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad field %q: %w", rec[i+1], err)
		}
		vals[i] = v
	}

	return Bar{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// DirSource serves bars from a directory of CSV files, one per symbol
// (AAPL -> AAPL.csv). It implements BarSource and QuoteSource and is the
// offline market-data collaborator used by the CLI and backtests.
type DirSource struct {
	Dir string
}

func (d DirSource) Bars(ctx context.Context, symbol string) (Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadCSV(filepath.Join(d.Dir, symbol+".csv"))
}

func (d DirSource) Quote(ctx context.Context, symbol string) (Quote, error) {
	bars, err := d.Bars(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if len(bars) == 0 {
		return Quote{}, fmt.Errorf("market: %s: empty series", symbol)
	}
	return bars.LastQuote(), nil
}
