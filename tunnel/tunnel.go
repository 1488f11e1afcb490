// Package tunnel discovers the public URL of a locally running ngrok tunnel
// through its local inspection API.
package tunnel

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// DefaultAPI is where ngrok serves its local inspection API.
const DefaultAPI = "http://127.0.0.1:4040"

type tunnelList struct {
	Tunnels []struct {
		PublicURL string `json:"public_url"`
	} `json:"tunnels"`
}

// PublicURL returns the public https URL of the first active tunnel.
func PublicURL(apiURL string) (string, error) {
	var list tunnelList
	resp, err := resty.New().
		SetTimeout(5 * time.Second).
		R().
		SetResult(&list).
		Get(strings.TrimSuffix(apiURL, "/") + "/api/tunnels")
	if err != nil {
		return "", errors.Wrap(err, "tunnel: is ngrok running?")
	}
	if resp.IsError() || len(list.Tunnels) == 0 {
		return "", errors.New("tunnel: no active ngrok tunnel")
	}
	url := list.Tunnels[0].PublicURL
	// Webex requires an https target.
	if strings.HasPrefix(url, "http://") {
		url = "https://" + strings.TrimPrefix(url, "http://")
	}
	return url, nil
}
