package main

import (
	"github.com/gin-gonic/gin"

	"stocks-bot/bot"
	"stocks-bot/config"
	"stocks-bot/database"
	"stocks-bot/handlers"
	"stocks-bot/logger"
	"stocks-bot/market"
	"stocks-bot/tunnel"
	"stocks-bot/webex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(logger.Config{}).Fatal(err)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
	})

	store, err := database.Open(cfg.StorePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open document store")
	}
	defer store.Close()

	wx := webex.NewClient(webex.BaseURL, cfg.BotToken)
	quotes := market.NewClient(market.BaseURL, cfg.VantageAPIKey)

	// The webhook target is wherever ngrok is currently exposing us.
	publicURL, err := tunnel.PublicURL(cfg.NgrokAPI)
	if err != nil {
		log.WithError(err).Fatalf("no ngrok tunnel found, start 'ngrok http %s' first", cfg.Port)
	}
	if err := wx.EnsureWebhook("stocks-bot webhook", publicURL); err != nil {
		log.WithError(err).Fatal("failed to reconcile webhooks")
	}
	log.WithField("url", publicURL).Info("webhook registered")

	proc := bot.NewProcessor(store, quotes, wx, log)

	router := gin.Default()
	router.POST("/", handlers.Webhook(wx, proc, log))

	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("webhook server stopped")
	}
}
