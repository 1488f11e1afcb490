// Package bot turns an inbound chat message into portfolio actions and a
// single reply. Commands are fixed two/three-token shapes:
//
//	show portfolio
//	show <ticker>
//	add <ticker> <quantity>
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stocks-bot/market"
	"stocks-bot/models"
)

const (
	unsupportedReply   = "This operation is not supported. Refer to the docs on how to use this bot.\n"
	portfolioFailReply = "An error occurred. The stocks could not be fetched. Try again later.\n"
	addFailReply       = "An error occurred. The stock could not be added to your portfolio. Try again later.\n"
)

// Inbound is a message event delivered by the chat gateway.
type Inbound struct {
	PersonEmail string
	Text        string
}

// Store is the portfolio persistence the processor needs.
type Store interface {
	CreateUser(email string) (*models.User, error)
	AddStockToPortfolio(email, ticker, quantity string, ts time.Time) (models.Ref, error)
	GetAllStocksForUser(email string) ([]models.StockView, error)
}

// Quoter fetches live market data.
type Quoter interface {
	Quote(ticker string) (market.Quote, error)
}

// Gateway carries replies back to the chat room.
type Gateway interface {
	SendMarkdown(toEmail, markdown string) error
}

// Processor interprets one message at a time; it holds no state of its own
// beyond its collaborators.
type Processor struct {
	store   Store
	quotes  Quoter
	gateway Gateway
	log     *logrus.Logger
}

func NewProcessor(store Store, quotes Quoter, gateway Gateway, log *logrus.Logger) *Processor {
	return &Processor{store: store, quotes: quotes, gateway: gateway, log: log}
}

// Process interprets msg and sends exactly one reply to the sender. A failed
// send is logged and returned; it is not retried.
func (p *Processor) Process(msg Inbound) error {
	tokens := strings.Split(msg.Text, " ")
	keyword := strings.ToLower(tokens[0])

	var reply string
	switch {
	case keyword == "show" && len(tokens) == 2:
		if strings.ToLower(tokens[1]) == "portfolio" {
			reply = p.showPortfolio(msg.PersonEmail)
		} else {
			reply = p.showTicker(tokens[1])
		}
	case keyword == "add" && len(tokens) == 3:
		reply = p.addStock(msg.PersonEmail, tokens[1], tokens[2])
	default:
		reply = unsupportedReply
	}

	if err := p.gateway.SendMarkdown(msg.PersonEmail, reply); err != nil {
		p.log.WithError(err).WithField("to", msg.PersonEmail).Error("failed to send reply")
		return err
	}
	return nil
}

func (p *Processor) showPortfolio(email string) string {
	stocks, err := p.store.GetAllStocksForUser(email)
	if err != nil || stocks == nil {
		if err != nil {
			p.log.WithError(err).WithField("user", email).Error("portfolio lookup failed")
		}
		return portfolioFailReply
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the details of the portfolio for %s\n", email)
	for _, stock := range stocks {
		quote, err := p.quotes.Quote(stock.Ticker)
		if err != nil {
			p.log.WithError(err).WithField("ticker", stock.Ticker).Error("quote lookup failed")
			return portfolioFailReply
		}
		qty, err := decimal.NewFromString(stock.Quantity)
		if err != nil {
			p.log.WithField("quantity", stock.Quantity).Warn("stored quantity is not numeric")
			return portfolioFailReply
		}
		value := quote.Price.Mul(qty)
		fmt.Fprintf(&b, "%s - qty. %s added on %s, worth %s, %s %s%% today.\n",
			strings.ToUpper(stock.Ticker), stock.Quantity, stock.AddedOn,
			value.StringFixed(2), direction(quote), quote.ChangePercent.Abs().StringFixed(2))
	}
	return b.String()
}

func (p *Processor) showTicker(ticker string) string {
	quote, err := p.quotes.Quote(ticker)
	if err != nil {
		p.log.WithError(err).WithField("ticker", ticker).Error("quote lookup failed")
		return fmt.Sprintf("An error occurred. The price for %s could not be fetched. Try again later.\n", ticker)
	}
	// The direction word carries the sign, so the percentage is shown
	// without it.
	return fmt.Sprintf("The current price for %s is %s, %s %s%% today.\n",
		ticker, quote.Price.StringFixed(2), direction(quote), quote.ChangePercent.Abs().StringFixed(2))
}

func (p *Processor) addStock(email, ticker, quantity string) string {
	ts := time.Now()

	// Idempotent: a pre-existing user is left untouched.
	if _, err := p.store.CreateUser(email); err != nil {
		p.log.WithError(err).WithField("user", email).Error("user creation failed")
		return addFailReply
	}
	ref, err := p.store.AddStockToPortfolio(email, ticker, quantity, ts)
	if err != nil || ref == "" {
		if err != nil {
			p.log.WithError(err).WithField("user", email).Error("stock insert failed")
		}
		return addFailReply
	}
	return fmt.Sprintf("Added to portfolio %s of %s\n", quantity, strings.ToUpper(ticker))
}

func direction(q market.Quote) string {
	if q.ChangePercent.Sign() > 0 {
		return "up"
	}
	return "down"
}
