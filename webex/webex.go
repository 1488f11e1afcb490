// Package webex is a minimal Webex messaging client covering what the bot
// needs: reading a message delivered by a webhook, replying point-to-point,
// and keeping exactly one webhook registered for the current public URL.
package webex

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// BaseURL is the Webex REST API endpoint.
const BaseURL = "https://webexapis.com"

// Message is an inbound chat message.
type Message struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	PersonEmail string `json:"personEmail"`
	Text        string `json:"text"`
}

// Webhook is a registered message-event callback.
type Webhook struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TargetURL string `json:"targetUrl"`
	Resource  string `json:"resource"`
	Event     string `json:"event"`
}

type webhookList struct {
	Items []Webhook `json:"items"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetAuthToken(token).
			SetTimeout(30 * time.Second),
	}
}

// GetMessage dereferences the message id carried by a webhook payload into
// the full message (sender email and text).
func (c *Client) GetMessage(id string) (Message, error) {
	var msg Message
	resp, err := c.http.R().
		SetResult(&msg).
		SetPathParam("id", id).
		Get("/v1/messages/{id}")
	if err != nil {
		return Message{}, errors.Wrap(err, "webex: get message")
	}
	if resp.IsError() {
		return Message{}, errors.Errorf("webex: get message: status %d", resp.StatusCode())
	}
	return msg, nil
}

// SendMarkdown delivers a direct (point-to-point) markdown reply.
func (c *Client) SendMarkdown(toEmail, markdown string) error {
	resp, err := c.http.R().
		SetBody(map[string]string{
			"toPersonEmail": toEmail,
			"markdown":      markdown,
		}).
		Post("/v1/messages")
	if err != nil {
		return errors.Wrap(err, "webex: send message")
	}
	if resp.IsError() {
		return errors.Errorf("webex: send message: status %d", resp.StatusCode())
	}
	return nil
}

func (c *Client) ListWebhooks() ([]Webhook, error) {
	var list webhookList
	resp, err := c.http.R().
		SetResult(&list).
		Get("/v1/webhooks")
	if err != nil {
		return nil, errors.Wrap(err, "webex: list webhooks")
	}
	if resp.IsError() {
		return nil, errors.Errorf("webex: list webhooks: status %d", resp.StatusCode())
	}
	return list.Items, nil
}

func (c *Client) CreateWebhook(name, targetURL string) (Webhook, error) {
	var wh Webhook
	resp, err := c.http.R().
		SetBody(map[string]string{
			"name":      name,
			"targetUrl": targetURL,
			"resource":  "messages",
			"event":     "created",
		}).
		SetResult(&wh).
		Post("/v1/webhooks")
	if err != nil {
		return Webhook{}, errors.Wrap(err, "webex: create webhook")
	}
	if resp.IsError() {
		return Webhook{}, errors.Errorf("webex: create webhook: status %d", resp.StatusCode())
	}
	return wh, nil
}

func (c *Client) DeleteWebhook(id string) error {
	resp, err := c.http.R().
		SetPathParam("id", id).
		Delete("/v1/webhooks/{id}")
	if err != nil {
		return errors.Wrap(err, "webex: delete webhook")
	}
	if resp.IsError() {
		return errors.Errorf("webex: delete webhook: status %d", resp.StatusCode())
	}
	return nil
}

// EnsureWebhook reconciles registered webhooks against targetURL: webhooks
// pointing elsewhere are removed, and one is created when none matches.
func (c *Client) EnsureWebhook(name, targetURL string) error {
	hooks, err := c.ListWebhooks()
	if err != nil {
		return err
	}
	matched := false
	for _, wh := range hooks {
		if wh.TargetURL == targetURL {
			matched = true
			continue
		}
		if err := c.DeleteWebhook(wh.ID); err != nil {
			return err
		}
	}
	if matched {
		return nil
	}
	_, err = c.CreateWebhook(name, targetURL)
	return err
}
