package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"fxReversalBot/internal/domain"
)

var csvHeader = []string{"time", "symbol", "open", "high", "low", "close"}

// WriteCandlesToCSV writes candles to a CSV file with a header row.
func WriteCandlesToCSV(candles []domain.Candle, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write(csvHeader)

	for _, c := range candles {
		writer.Write([]string{
			c.Time.Format(time.RFC3339),
			c.Symbol,
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadCandlesFromCSV reads candles from a CSV file written by
// WriteCandlesToCSV. Rows keep their file order.
func ReadCandlesFromCSV(filename string) ([]domain.Candle, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	candles := make([]domain.Candle, 0, len(records)-1)
	for i, rec := range records[1:] { // skip header
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("row %d of %s has %d fields, want %d", i+2, filename, len(rec), len(csvHeader))
		}
		t, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: bad time '%s': %w", i+2, filename, rec[0], err)
		}
		open, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: bad open '%s': %w", i+2, filename, rec[2], err)
		}
		high, err := strconv.ParseFloat(rec[3], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: bad high '%s': %w", i+2, filename, rec[3], err)
		}
		low, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: bad low '%s': %w", i+2, filename, rec[4], err)
		}
		cls, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: bad close '%s': %w", i+2, filename, rec[5], err)
		}
		candles = append(candles, domain.Candle{
			Time:   t,
			Symbol: rec[1],
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
		})
	}
	return candles, nil
}
