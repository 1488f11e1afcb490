package bot

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocks-bot/market"
	"stocks-bot/models"
)

type addCall struct {
	email, ticker, quantity string
}

type fakeStore struct {
	createUserCalls int
	createUserErr   error
	addCalls        []addCall
	addRef          models.Ref
	addErr          error
	stocks          []models.StockView
	stocksErr       error
	getCalls        int
}

func (f *fakeStore) CreateUser(email string) (*models.User, error) {
	f.createUserCalls++
	if f.createUserErr != nil {
		return nil, f.createUserErr
	}
	return &models.User{Email: email, Portfolio: "portfolios/p1"}, nil
}

func (f *fakeStore) AddStockToPortfolio(email, ticker, quantity string, _ time.Time) (models.Ref, error) {
	f.addCalls = append(f.addCalls, addCall{email, ticker, quantity})
	return f.addRef, f.addErr
}

func (f *fakeStore) GetAllStocksForUser(string) ([]models.StockView, error) {
	f.getCalls++
	return f.stocks, f.stocksErr
}

type fakeQuoter struct {
	quotes map[string]market.Quote
	err    error
	calls  []string
}

func (f *fakeQuoter) Quote(ticker string) (market.Quote, error) {
	f.calls = append(f.calls, ticker)
	if f.err != nil {
		return market.Quote{}, f.err
	}
	return f.quotes[ticker], nil
}

type sent struct {
	to, text string
}

type fakeGateway struct {
	sent []sent
	err  error
}

func (f *fakeGateway) SendMarkdown(to, text string) error {
	f.sent = append(f.sent, sent{to, text})
	return f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func quote(price, change string) market.Quote {
	return market.Quote{
		Price:         decimal.RequireFromString(price),
		ChangePercent: decimal.RequireFromString(change),
	}
}

func process(t *testing.T, store *fakeStore, quotes *fakeQuoter, gw *fakeGateway, text string) string {
	t.Helper()
	p := NewProcessor(store, quotes, gw, quietLogger())
	if err := p.Process(Inbound{PersonEmail: "alice@example.com", Text: text}); err != nil {
		t.Fatalf("process %q: %v", text, err)
	}
	if len(gw.sent) != 1 {
		t.Fatalf("expected exactly one reply, got %d", len(gw.sent))
	}
	if gw.sent[0].to != "alice@example.com" {
		t.Fatalf("reply should go to the sender, got %q", gw.sent[0].to)
	}
	return gw.sent[0].text
}

func TestUnsupportedCommand(t *testing.T) {
	store := &fakeStore{}
	quotes := &fakeQuoter{}

	reply := process(t, store, quotes, &fakeGateway{}, "flibbertigibbet")
	if reply != unsupportedReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if store.createUserCalls != 0 || store.getCalls != 0 || len(store.addCalls) != 0 {
		t.Fatal("unsupported command must not touch the store")
	}
	if len(quotes.calls) != 0 {
		t.Fatal("unsupported command must not fetch quotes")
	}
}

func TestShowTicker(t *testing.T) {
	quotes := &fakeQuoter{quotes: map[string]market.Quote{"msft": quote("123.456", "1.234")}}

	reply := process(t, &fakeStore{}, quotes, &fakeGateway{}, "show msft")
	if reply != "The current price for msft is 123.46, up 1.23% today.\n" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestShowTickerDown(t *testing.T) {
	quotes := &fakeQuoter{quotes: map[string]market.Quote{"IBM": quote("200", "-0.5")}}

	reply := process(t, &fakeStore{}, quotes, &fakeGateway{}, "show IBM")
	if !strings.Contains(reply, "down 0.50% today") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestShowTickerQuoteFailure(t *testing.T) {
	quotes := &fakeQuoter{err: market.ErrQuoteUnavailable}

	reply := process(t, &fakeStore{}, quotes, &fakeGateway{}, "show msft")
	if !strings.Contains(reply, "could not be fetched") {
		t.Fatalf("expected a failure reply, got %q", reply)
	}
}

func TestShowPortfolio(t *testing.T) {
	store := &fakeStore{stocks: []models.StockView{
		{Ticker: "aapl", Quantity: "10", AddedOn: "07 April 2022, 09:30 AM"},
	}}
	quotes := &fakeQuoter{quotes: map[string]market.Quote{"aapl": quote("150.00", "-2.5")}}

	reply := process(t, store, quotes, &fakeGateway{}, "show portfolio")
	if !strings.HasPrefix(reply, "Here are the details of the portfolio for alice@example.com\n") {
		t.Fatalf("missing header: %q", reply)
	}
	if !strings.Contains(reply, "AAPL - qty. 10 added on 07 April 2022, 09:30 AM, worth 1500.00, down 2.50% today.\n") {
		t.Fatalf("unexpected stock line: %q", reply)
	}
}

func TestShowPortfolioEmpty(t *testing.T) {
	store := &fakeStore{stocks: []models.StockView{}}

	reply := process(t, store, &fakeQuoter{}, &fakeGateway{}, "show portfolio")
	if reply != "Here are the details of the portfolio for alice@example.com\n" {
		t.Fatalf("expected a header with zero stock lines, got %q", reply)
	}
}

func TestShowPortfolioStoreFailure(t *testing.T) {
	store := &fakeStore{stocks: nil}

	reply := process(t, store, &fakeQuoter{}, &fakeGateway{}, "show portfolio")
	if reply != portfolioFailReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestShowPortfolioQuoteFailure(t *testing.T) {
	store := &fakeStore{stocks: []models.StockView{{Ticker: "aapl", Quantity: "10"}}}
	quotes := &fakeQuoter{err: market.ErrQuoteUnavailable}

	reply := process(t, store, quotes, &fakeGateway{}, "show portfolio")
	if reply != portfolioFailReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestShowPortfolioKeywordIsCaseInsensitive(t *testing.T) {
	store := &fakeStore{stocks: []models.StockView{}}
	quotes := &fakeQuoter{}

	reply := process(t, store, quotes, &fakeGateway{}, "SHOW Portfolio")
	if !strings.HasPrefix(reply, "Here are the details of the portfolio") {
		t.Fatalf("expected the portfolio branch, got %q", reply)
	}
	if len(quotes.calls) != 0 {
		t.Fatal("portfolio branch must not treat 'Portfolio' as a ticker")
	}
}

func TestAddStock(t *testing.T) {
	store := &fakeStore{addRef: "stocks/s1"}

	reply := process(t, store, &fakeQuoter{}, &fakeGateway{}, "add aapl 5")
	if reply != "Added to portfolio 5 of AAPL\n" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if store.createUserCalls != 1 {
		t.Fatalf("expected one CreateUser call, got %d", store.createUserCalls)
	}
	if len(store.addCalls) != 1 {
		t.Fatalf("expected one AddStockToPortfolio call, got %d", len(store.addCalls))
	}
	call := store.addCalls[0]
	if call.email != "alice@example.com" || call.ticker != "aapl" || call.quantity != "5" {
		t.Fatalf("unexpected add call: %+v", call)
	}
}

func TestAddStockStoreRejects(t *testing.T) {
	store := &fakeStore{addRef: ""}

	reply := process(t, store, &fakeQuoter{}, &fakeGateway{}, "add aapl 5")
	if reply != addFailReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestAddStockCreateUserFails(t *testing.T) {
	store := &fakeStore{createUserErr: errors.New("store down")}

	reply := process(t, store, &fakeQuoter{}, &fakeGateway{}, "add aapl 5")
	if reply != addFailReply {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(store.addCalls) != 0 {
		t.Fatal("should not attempt the insert when user creation fails")
	}
}

func TestSendFailureIsReturned(t *testing.T) {
	gw := &fakeGateway{err: errors.New("gateway down")}
	p := NewProcessor(&fakeStore{}, &fakeQuoter{}, gw, quietLogger())

	err := p.Process(Inbound{PersonEmail: "alice@example.com", Text: "flibbertigibbet"})
	if err == nil {
		t.Fatal("expected send failure to propagate")
	}
}

func TestWrongTokenCounts(t *testing.T) {
	store := &fakeStore{}
	quotes := &fakeQuoter{}

	for _, text := range []string{"show", "show a b", "add aapl", "add aapl 5 now", ""} {
		gw := &fakeGateway{}
		reply := process(t, store, quotes, gw, text)
		if reply != unsupportedReply {
			t.Fatalf("%q: unexpected reply %q", text, reply)
		}
	}
}
