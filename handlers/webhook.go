package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"stocks-bot/bot"
	"stocks-bot/webex"
)

// MessageSource resolves a webhook's message id into the full message.
type MessageSource interface {
	GetMessage(id string) (webex.Message, error)
}

// Processor handles one inbound chat message.
type Processor interface {
	Process(msg bot.Inbound) error
}

type webhookPayload struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Webhook receives Webex message-created events. The payload only carries
// the message id, so the message itself is fetched back from the API before
// being handed to the processor. The bot's own outbound messages trigger the
// webhook too and are ignored.
func Webhook(source MessageSource, proc Processor, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload webhookPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			log.WithError(err).Error("invalid webhook payload")
			c.JSON(http.StatusBadRequest, gin.H{"success": false})
			return
		}

		msg, err := source.GetMessage(payload.Data.ID)
		if err != nil {
			log.WithError(err).Error("failed to fetch webhook message")
			c.JSON(http.StatusBadGateway, gin.H{"success": false})
			return
		}
		if strings.Contains(msg.PersonEmail, "@webex.bot") {
			c.JSON(http.StatusOK, gin.H{"success": true})
			return
		}

		log.WithFields(logrus.Fields{"from": msg.PersonEmail, "text": msg.Text}).Info("message received")
		if err := proc.Process(bot.Inbound{PersonEmail: msg.PersonEmail, Text: msg.Text}); err != nil {
			c.JSON(http.StatusOK, gin.H{"success": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
