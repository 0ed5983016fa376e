package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ForceField/internal/domain/models"
	xhttp "ForceField/pkg/http"
)

// Client backfills historical klines over the Binance REST API so the
// snapshot store has enough depth for a first detection pass before the
// live stream contributes anything.
type Client struct {
	baseURL  string
	symbol   string
	interval string
	http     *xhttp.Client
}

func NewClient(baseURL, symbol, interval string, http *xhttp.Client) *Client {
	return &Client{
		baseURL:  baseURL,
		symbol:   symbol,
		interval: interval,
		http:     http,
	}
}

// Backfill fetches the most recent n closed klines, oldest first.
func (c *Client) Backfill(ctx context.Context, n int) ([]models.PricePoint, error) {
	var raw [][]interface{}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {c.symbol},
			"interval": {c.interval},
			"limit":    {strconv.Itoa(n)},
		},
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	points := make([]models.PricePoint, 0, len(raw))
	for i, k := range raw {
		p, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("binance kline %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// kline layout: [openTime, open, high, low, close, volume, closeTime, ...]
// with prices and volume as strings.
func parseKline(k []interface{}) (models.PricePoint, error) {
	if len(k) < 6 {
		return models.PricePoint{}, fmt.Errorf("short kline: %d fields", len(k))
	}
	ms, ok := k[0].(float64)
	if !ok {
		return models.PricePoint{}, fmt.Errorf("open time is %T", k[0])
	}
	vals := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := k[i].(string)
		if !ok {
			return models.PricePoint{}, fmt.Errorf("field %d is %T", i, k[i])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.PricePoint{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i-1] = v
	}
	return models.PricePoint{
		Timestamp: time.UnixMilli(int64(ms)).UTC(),
		Open:      vals[0],
		High:      vals[1],
		Low:       vals[2],
		Close:     vals[3],
		Volume:    vals[4],
	}, nil
}
