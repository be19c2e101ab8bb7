package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"

	"grid_go/backtest"
	"grid_go/internal/app"
	"grid_go/internal/domain"
	"grid_go/internal/infra/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	csvPath := flag.String("import", "", "CSV file of candles to import before running")
	fromTs := flag.Int64("from", 0, "start of replay range (unix milliseconds)")
	toTs := flag.Int64("to", math.MaxInt64, "end of replay range (unix milliseconds)")
	balance := flag.Float64("balance", 100000, "initial quote balance")
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config

	if *csvPath != "" {
		n, err := importCSV(bootstrap.Storage, cfg.Grid.Symbol, *csvPath)
		if err != nil {
			slog.Error("CSV import failed", slog.Any("error", err))
			os.Exit(1)
		}
		slog.Info("Candles imported", slog.Int("count", n))
	}

	replayer, err := backtest.NewReplayer(bootstrap.Storage, cfg.Grid, *balance)
	if err != nil {
		slog.Error("Replayer initialization failed", slog.Any("error", err))
		os.Exit(1)
	}

	report, err := replayer.Run(context.Background(), cfg.Grid.Symbol, *fromTs, *toTs)
	if err != nil {
		slog.Error("Replay failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Println(report.String())
}

// importCSV loads candles from a file with rows of
// ts,open,high,low,close,volume (ts in unix milliseconds). A header row
// is skipped when the first field does not parse as a number.
func importCSV(store *storage.Storage, symbol, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 6

	var bars []domain.BarRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			if len(bars) == 0 {
				continue // header
			}
			return 0, fmt.Errorf("bad timestamp %q", row[0])
		}

		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return 0, fmt.Errorf("bad value %q in row ts=%d", row[i+1], ts)
			}
			vals[i] = v
		}

		bars = append(bars, domain.BarRecord{
			Symbol: symbol,
			Ts:     ts,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}

	if err := store.SaveBars(bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}
