package ibgw

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/redis"
)

// historyResponse is the gateway's historical-data payload.
type historyResponse struct {
	Symbol string         `json:"symbol"`
	Points []historyPoint `json:"data"`
}

type historyPoint struct {
	Timestamp int64   `json:"t"` // epoch millis
	Close     float64 `json:"c"`
}

// FetchDailyBars fetches up to lookbackDays of daily closes for the
// instrument's continuous series, oldest first. Bars are cached per
// trading day so repeated cycle evaluations hit the gateway once.
// An empty response is a *DataUnavailableError, never an empty series.
func (c *Client) FetchDailyBars(ctx context.Context, inst contracts.Instrument, lookbackDays int) (*contracts.PriceSeries, error) {
	cacheKey := redis.BarsKey(inst.Symbol, time.Now().Format("20060102"))

	var cached contracts.PriceSeries
	if found, _ := c.cache.Get(ctx, cacheKey, &cached); found && cached.Len() > 0 {
		return &cached, nil
	}

	if err := c.EnsureSession(ctx); err != nil {
		return nil, &contracts.DataUnavailableError{Symbol: inst.Symbol, Err: err}
	}

	contract, err := c.ResolveTradable(ctx, inst, time.Now())
	if err != nil {
		return nil, &contracts.DataUnavailableError{Symbol: inst.Symbol, Err: err}
	}

	path := fmt.Sprintf("/hmds/history?conid=%s&period=%dd&bar=1d&outsideRth=false",
		contract.ContractID, lookbackDays)

	var result historyResponse
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, &contracts.DataUnavailableError{Symbol: inst.Symbol, Err: err}
	}

	if len(result.Points) == 0 {
		return nil, &contracts.DataUnavailableError{
			Symbol: inst.Symbol,
			Err:    fmt.Errorf("gateway returned no bars"),
		}
	}

	bars := make([]contracts.Bar, 0, len(result.Points))
	for _, p := range result.Points {
		bars = append(bars, contracts.Bar{
			Date:  time.UnixMilli(p.Timestamp).UTC().Truncate(24 * time.Hour),
			Close: p.Close,
		})
	}

	// The gateway does not guarantee order
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	series := &contracts.PriceSeries{
		Symbol: inst.Symbol,
		Bars:   bars,
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": inst.Symbol,
		"bars":   series.Len(),
	}).Debug("Fetched daily bars")

	if err := c.cache.Set(ctx, cacheKey, series, redis.TTLDaily); err != nil {
		c.logger.WithError(err).Warn("Failed to cache daily bars")
	}

	return series, nil
}
