package rates

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	rates     map[string]decimal.Decimal
	ids       map[string]string
	ratesErr  error
	idsErr    error
	rateCalls int
	idCalls   int
}

func (s *fakeSource) FetchRates(context.Context) (map[string]decimal.Decimal, error) {
	s.rateCalls++
	if s.ratesErr != nil {
		return nil, s.ratesErr
	}
	copied := make(map[string]decimal.Decimal, len(s.rates))
	for code, rate := range s.rates {
		copied[code] = rate
	}
	return copied, nil
}

func (s *fakeSource) FetchCurrencyIDs(context.Context) (map[string]string, error) {
	s.idCalls++
	if s.idsErr != nil {
		return nil, s.idsErr
	}
	return s.ids, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestSource() *fakeSource {
	return &fakeSource{
		rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromFloat(90.5),
			"EUR": decimal.NewFromFloat(98.25),
		},
		ids: map[string]string{
			"USD": "cur-usd",
			"EUR": "cur-eur",
			"RUB": "cur-rub",
		},
	}
}

func TestConvertFetchesOncePerDay(t *testing.T) {
	source := newTestSource()
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	converter := NewConverter(source, "RUB", quietLogger(), func() time.Time { return day })

	first, err := converter.Convert(context.Background(), 10000, "cur-usd")
	require.NoError(t, err)
	second, err := converter.Convert(context.Background(), 10000, "cur-usd")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(905000), first)
	assert.Equal(t, 1, source.rateCalls, "same-day conversions must not refetch")
}

func TestConvertRefreshesOnDayRollover(t *testing.T) {
	source := newTestSource()
	current := time.Date(2025, 3, 10, 23, 0, 0, 0, time.UTC)
	converter := NewConverter(source, "RUB", quietLogger(), func() time.Time { return current })

	_, err := converter.Convert(context.Background(), 100, "cur-usd")
	require.NoError(t, err)
	require.Equal(t, 1, source.rateCalls)

	current = current.Add(2 * time.Hour) // past midnight
	_, err = converter.Convert(context.Background(), 100, "cur-usd")
	require.NoError(t, err)
	assert.Equal(t, 2, source.rateCalls, "day rollover triggers exactly one refresh")

	_, err = converter.Convert(context.Background(), 100, "cur-eur")
	require.NoError(t, err)
	assert.Equal(t, 2, source.rateCalls)
}

func TestConvertReportingCurrencyAtPar(t *testing.T) {
	converter := NewConverter(newTestSource(), "RUB", quietLogger(), nil)
	got, err := converter.Convert(context.Background(), 12345, "cur-rub")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), got)
}

func TestConvertUnknownCurrencyIsZero(t *testing.T) {
	converter := NewConverter(newTestSource(), "RUB", quietLogger(), nil)
	got, err := converter.Convert(context.Background(), 99999, "cur-missing")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestConvertKeepsStaleCacheWhenRefreshFails(t *testing.T) {
	source := newTestSource()
	current := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	converter := NewConverter(source, "RUB", quietLogger(), func() time.Time { return current })

	fresh, err := converter.Convert(context.Background(), 10000, "cur-usd")
	require.NoError(t, err)

	current = current.Add(24 * time.Hour)
	source.ratesErr = errors.New("feed down")

	stale, err := converter.Convert(context.Background(), 10000, "cur-usd")
	require.NoError(t, err, "a populated cache degrades to stale rates")
	assert.Equal(t, fresh, stale)
}

func TestConvertConcurrentReadsShareCache(t *testing.T) {
	source := newTestSource()
	converter := NewConverter(source, "RUB", quietLogger(), nil)
	require.NoError(t, converter.Refresh(context.Background()))

	var wg sync.WaitGroup
	results := make([]int64, 16)
	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			got, err := converter.Convert(context.Background(), 10000, "cur-usd")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[slot] = got
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, int64(905000), got)
	}
	assert.Equal(t, 1, source.rateCalls, "warm cache must serve all readers")
}

func TestRefreshSurfacesFetchErrorOnEmptyCache(t *testing.T) {
	source := newTestSource()
	source.ratesErr = errors.New("feed down")
	converter := NewConverter(source, "RUB", quietLogger(), nil)

	require.Error(t, converter.Refresh(context.Background()))
	_, err := converter.Convert(context.Background(), 100, "cur-usd")
	require.Error(t, err, "nothing to fall back to")
}
