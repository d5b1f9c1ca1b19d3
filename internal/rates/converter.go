package rates

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Converter caches the rate table keyed by currency directory id,
// stamped with the calendar day it was built. The cache is replaced
// wholesale on day rollover, never merged.
type Converter struct {
	source            Source
	now               func() time.Time
	logger            *logrus.Logger
	reportingCurrency string

	mu        sync.RWMutex
	ratesByID map[string]decimal.Decimal
	stamp     string
}

func NewConverter(source Source, reportingCurrency string, logger *logrus.Logger, now func() time.Time) *Converter {
	if now == nil {
		now = time.Now
	}
	return &Converter{
		source:            source,
		now:               now,
		logger:            logger,
		reportingCurrency: reportingCurrency,
	}
}

// Convert returns the amount in reporting-currency minor units. An
// unknown currency id converts to zero so one unmapped account cannot
// fail a whole aggregation; the miss is logged because the total will
// understate.
func (c *Converter) Convert(ctx context.Context, amountMinor int64, currencyID string) (int64, error) {
	if err := c.Refresh(ctx); err != nil {
		c.mu.RLock()
		empty := len(c.ratesByID) == 0
		c.mu.RUnlock()
		if empty {
			return 0, err
		}
		c.logger.WithError(err).Warn("rate refresh failed, converting with stale rates")
	}
	c.mu.RLock()
	rate, ok := c.ratesByID[currencyID]
	c.mu.RUnlock()
	if !ok {
		c.logger.WithField("currency_id", currencyID).Warn("no rate for currency, counting as zero")
		return 0, nil
	}
	return decimal.NewFromInt(amountMinor).Mul(rate).RoundBank(0).IntPart(), nil
}

// Refresh rebuilds the cache if it is empty or stale. Concurrent reads
// of a fresh cache share the read lock; only a stale cache takes the
// write lock, and the rebuild runs at most once per day.
func (c *Converter) Refresh(ctx context.Context) error {
	c.mu.RLock()
	fresh := len(c.ratesByID) > 0 && c.stamp == c.today()
	c.mu.RUnlock()
	if fresh {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensureFreshLocked(ctx)
}

func (c *Converter) ensureFreshLocked(ctx context.Context) error {
	today := c.today()
	if len(c.ratesByID) > 0 && c.stamp == today {
		return nil
	}

	ids, err := c.source.FetchCurrencyIDs(ctx)
	if err != nil {
		return err
	}
	byCode, err := c.source.FetchRates(ctx)
	if err != nil {
		return err
	}

	// The reporting currency converts to itself at par even when the
	// feed omits it.
	byCode[c.reportingCurrency] = decimal.NewFromInt(1)

	rebuilt := make(map[string]decimal.Decimal, len(ids))
	for code, id := range ids {
		if rate, ok := byCode[code]; ok {
			rebuilt[id] = rate
		}
	}
	c.ratesByID = rebuilt
	c.stamp = today
	c.logger.WithFields(logrus.Fields{"rates": len(rebuilt), "day": today}).Info("rate cache rebuilt")
	return nil
}

func (c *Converter) today() string {
	return c.now().Format("2006-01-02")
}
