// Command seed loads ticker definitions into the market database. The
// pricing engine never writes tickers itself; this tool is the seeding
// collaborator.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/buzzcap/buzzmarket/internal/domain"
	"github.com/buzzcap/buzzmarket/internal/storage/sqlite"
)

// defaultTickers is the stock market lineup.
func defaultTickers() []domain.Ticker {
	d := decimal.RequireFromString
	return []domain.Ticker{
		{
			Symbol:    "$AI",
			Keywords:  []string{"ai", "artificial intelligence", "machine learning", "neural", "gpt", "openai"},
			Category:  "Technology",
			BasePrice: d("150.00"),
		},
		{
			Symbol:    "$TRUMP",
			Keywords:  []string{"trump", "donald trump", "maga", "republican"},
			Category:  "Politics",
			BasePrice: d("120.00"),
		},
		{
			Symbol:    "$ELON",
			Keywords:  []string{"elon", "musk", "tesla", "spacex", "twitter", "x corp"},
			Category:  "Business",
			BasePrice: d("180.00"),
		},
		{
			Symbol:    "$WAR",
			Keywords:  []string{"war", "conflict", "military", "ukraine", "russia", "gaza"},
			Category:  "Geopolitics",
			BasePrice: d("95.00"),
		},
	}
}

type tickerFile struct {
	Tickers []struct {
		Symbol    string   `yaml:"symbol"`
		Keywords  []string `yaml:"keywords"`
		Category  string   `yaml:"category"`
		BasePrice string   `yaml:"basePrice"`
	} `yaml:"tickers"`
}

func loadTickerFile(path string) ([]domain.Ticker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f tickerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	out := make([]domain.Ticker, 0, len(f.Tickers))
	for _, t := range f.Tickers {
		base, err := decimal.NewFromString(t.BasePrice)
		if err != nil {
			return nil, fmt.Errorf("ticker %s: bad base price %q: %w", t.Symbol, t.BasePrice, err)
		}
		out = append(out, domain.Ticker{
			Symbol:    t.Symbol,
			Keywords:  t.Keywords,
			Category:  t.Category,
			BasePrice: base,
		})
	}
	return out, nil
}

func main() {
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	var (
		dbPath      = flag.String("db", getenv("BUZZMARKET_DB", "data/market.db"), "SQLite db file path")
		tickersPath = flag.String("tickers", "", "YAML file of tickers (default: built-in lineup)")
	)
	flag.Parse()

	tickers := defaultTickers()
	if *tickersPath != "" {
		var err error
		tickers, err = loadTickerFile(*tickersPath)
		if err != nil {
			log.Fatalf("load tickers failed: %v", err)
		}
	}

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		log.Fatalf("open store failed: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, t := range tickers {
		if err := store.UpsertTicker(ctx, t); err != nil {
			log.Fatalf("seed %s failed: %v", t.Symbol, err)
		}
		// Give brand-new symbols an opening observation at base price so
		// the first tick has a previous value to move from.
		if _, ok, err := store.LatestPrice(ctx, t.Symbol); err != nil {
			log.Fatalf("check %s history failed: %v", t.Symbol, err)
		} else if !ok {
			if _, err := store.InsertPrice(ctx, t.Symbol, t.BasePrice); err != nil {
				log.Fatalf("opening price for %s failed: %v", t.Symbol, err)
			}
		}
		fmt.Printf("seeded %s (%s) at %s\n", t.Symbol, t.Category, t.BasePrice)
	}
}
