// Command set-webhook points the Telegram bot at this deployment.
package main

import (
	"fmt"
	"log"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/urfave/cli/v2"

	"github.com/brainmetric/quiz-service/internal/config"
)

func main() {
	app := &cli.App{
		Name:  "set-webhook",
		Usage: "register {domain}/webhook/telegram with the Telegram Bot API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "domain", Usage: "public domain, defaults to PUBLIC_URL"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"TELEGRAM_TOKEN"}, Usage: "bot token"},
			&cli.StringFlag{Name: "secret", EnvVars: []string{"TELEGRAM_WEBHOOK_SECRET"}, Usage: "secret token echoed back in every update"},
			&cli.BoolFlag{Name: "delete", Usage: "remove the webhook instead"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	token := c.String("token")
	if token == "" {
		return cli.Exit("TELEGRAM_TOKEN is not set", 2)
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}

	if c.Bool("delete") {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			return fmt.Errorf("failed to delete webhook: %w", err)
		}
		fmt.Fprintln(c.App.Writer, "Webhook removed")
		return nil
	}

	domain := c.String("domain")
	if domain == "" {
		domain = os.Getenv("PUBLIC_URL")
	}
	if domain == "" {
		return cli.Exit("no domain given and PUBLIC_URL is not set", 2)
	}
	url := config.WebhookURL(domain)

	// WebhookConfig has no secret_token field in this client version
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", c.String("secret"))
	if _, err := bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	info, err := bot.GetWebhookInfo()
	if err != nil {
		return fmt.Errorf("failed to read webhook info: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Webhook set to %s (pending updates: %d)\n", info.URL, info.PendingUpdateCount)
	return nil
}
