// Package rates normalizes account balances into the reporting
// currency. The rate table comes from an external daily feed and the
// currency directory from the directories service; both are cached for
// one calendar day.
package rates

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Source is the external collaborator feeding the converter.
type Source interface {
	// FetchRates returns currency char code -> value of one unit in the
	// reporting currency.
	FetchRates(ctx context.Context) (map[string]decimal.Decimal, error)
	// FetchCurrencyIDs returns currency char code -> directory id.
	FetchCurrencyIDs(ctx context.Context) (map[string]string, error)
}

type valute struct {
	ID       string          `json:"ID"`
	NumCode  string          `json:"NumCode"`
	CharCode string          `json:"CharCode"`
	Nominal  int             `json:"Nominal"`
	Name     string          `json:"Name"`
	Value    decimal.Decimal `json:"Value"`
}

type rateTable struct {
	Date   string            `json:"Date"`
	Valute map[string]valute `json:"Valute"`
}

type currencyEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

type Client struct {
	httpClient     *http.Client
	rateTableURL   string
	currencyDirURL string
}

func NewClient(httpClient *http.Client, rateTableURL, currencyDirURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport}
	}
	return &Client{
		httpClient:     httpClient,
		rateTableURL:   rateTableURL,
		currencyDirURL: currencyDirURL,
	}
}

func (c *Client) FetchRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	var table rateTable
	if err := c.getJSON(ctx, c.rateTableURL, &table); err != nil {
		return nil, errors.Wrap(err, "failed to fetch rate table")
	}
	rates := make(map[string]decimal.Decimal, len(table.Valute))
	for code, entry := range table.Valute {
		value := entry.Value
		if entry.Nominal > 1 {
			value = value.Div(decimal.NewFromInt(int64(entry.Nominal)))
		}
		rates[code] = value
	}
	return rates, nil
}

func (c *Client) FetchCurrencyIDs(ctx context.Context) (map[string]string, error) {
	var entries []currencyEntry
	if err := c.getJSON(ctx, c.currencyDirURL, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to fetch currency directory")
	}
	ids := make(map[string]string, len(entries))
	for _, entry := range entries {
		ids[entry.Code] = entry.ID
	}
	return ids, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return errors.Errorf("unexpected status %d from %s", res.StatusCode, url)
	}
	return json.NewDecoder(res.Body).Decode(dest)
}
