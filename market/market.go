package market

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// BaseURL is the Alpha Vantage endpoint.
const BaseURL = "https://www.alphavantage.co"

// ErrQuoteUnavailable is returned when the upstream response lacks the
// expected quote fields (unknown ticker, rate limit, outage).
var ErrQuoteUnavailable = errors.New("market: quote unavailable")

// Quote is a point-in-time price and change percentage for a ticker.
type Quote struct {
	Price         decimal.Decimal
	ChangePercent decimal.Decimal
}

type globalQuoteResponse struct {
	GlobalQuote struct {
		Price         string `json:"05. price"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// Client fetches quotes from the Alpha Vantage GLOBAL_QUOTE API.
type Client struct {
	http   *resty.Client
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetTimeout(30 * time.Second),
		apiKey: apiKey,
	}
}

// Quote fetches the latest price and change percentage for ticker.
func (c *Client) Quote(ticker string) (Quote, error) {
	var out globalQuoteResponse
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   ticker,
			"apikey":   c.apiKey,
		}).
		SetResult(&out).
		Get("/query")
	if err != nil {
		return Quote{}, errors.Wrapf(err, "market: fetch quote for %s", ticker)
	}
	if resp.IsError() {
		return Quote{}, errors.Wrapf(ErrQuoteUnavailable, "ticker %s: status %d", ticker, resp.StatusCode())
	}

	// Alpha Vantage answers 200 with an empty "Global Quote" for unknown
	// tickers and with a different body entirely when rate limited.
	price := strings.TrimSpace(out.GlobalQuote.Price)
	change := strings.TrimSuffix(strings.TrimSpace(out.GlobalQuote.ChangePercent), "%")
	if price == "" || change == "" {
		return Quote{}, errors.Wrapf(ErrQuoteUnavailable, "ticker %s: missing quote fields", ticker)
	}

	p, err := decimal.NewFromString(price)
	if err != nil {
		return Quote{}, errors.Wrapf(ErrQuoteUnavailable, "ticker %s: bad price %q", ticker, price)
	}
	cp, err := decimal.NewFromString(change)
	if err != nil {
		return Quote{}, errors.Wrapf(ErrQuoteUnavailable, "ticker %s: bad change %q", ticker, change)
	}
	return Quote{Price: p, ChangePercent: cp}, nil
}
