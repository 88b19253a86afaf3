package ibgw

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/jdowell/mlmbot/internal/contracts"
	"github.com/jdowell/mlmbot/pkg/redis"
)

// futuresChainEntry is one dated contract in the gateway's futures
// chain response.
type futuresChainEntry struct {
	Symbol         string `json:"symbol"`
	ConID          int64  `json:"conid"`
	ExpirationDate int    `json:"expirationDate"` // YYYYMMDD
	UnderlyingCon  int64  `json:"underlyingConid"`
}

// ResolveTradable resolves the front-month contract for an instrument:
// the dated contract with the earliest expiry on or after asOf. The
// result is cached for the trading day.
func (c *Client) ResolveTradable(ctx context.Context, inst contracts.Instrument, asOf time.Time) (*contracts.ResolvedContract, error) {
	cacheKey := redis.ContractKey(inst.Symbol, asOf.Format("20060102"))

	var cached contracts.ResolvedContract
	if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
		return &cached, nil
	}

	if err := c.EnsureSession(ctx); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", inst.Symbol, err)
	}

	path := fmt.Sprintf("/trsrv/futures?symbols=%s&exchange=%s",
		url.QueryEscape(inst.Symbol), url.QueryEscape(inst.Exchange))

	var result map[string][]futuresChainEntry
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("futures chain for %s: %w", inst.Symbol, err)
	}

	chain := result[inst.Symbol]
	if len(chain) == 0 {
		return nil, &contracts.NoTradableContractError{Symbol: inst.Symbol}
	}

	// Earliest expiry on or after the evaluation date wins
	cutoff := dateInt(asOf)
	sort.Slice(chain, func(i, j int) bool {
		return chain[i].ExpirationDate < chain[j].ExpirationDate
	})

	var front *futuresChainEntry
	for i := range chain {
		if chain[i].ExpirationDate >= cutoff && chain[i].ConID > 0 {
			front = &chain[i]
			break
		}
	}
	if front == nil {
		return nil, &contracts.NoTradableContractError{Symbol: inst.Symbol}
	}

	resolved := &contracts.ResolvedContract{
		Symbol:     inst.Symbol,
		ContractID: fmt.Sprintf("%d", front.ConID),
		Expiry:     fmt.Sprintf("%d", front.ExpirationDate),
		Exchange:   inst.Exchange,
		ResolvedAt: time.Now(),
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": inst.Symbol,
		"conid":  resolved.ContractID,
		"expiry": resolved.Expiry,
	}).Debug("Resolved front-month contract")

	if err := c.cache.Set(ctx, cacheKey, resolved, redis.TTLLong); err != nil {
		c.logger.WithError(err).Warn("Failed to cache resolved contract")
	}

	return resolved, nil
}

// dateInt renders a date as the YYYYMMDD integer the chain uses.
func dateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
