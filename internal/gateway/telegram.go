package gateway

import (
	"context"
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/arvind/yantra/internal/agent"
)

type TelegramGateway struct {
	Bot   *tgbotapi.BotAPI
	Brain agent.Brain
}

func NewTelegramGateway(token string, brain agent.Brain) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Printf("Telegram gateway authorized as %s", bot.Self.UserName)

	return &TelegramGateway{Bot: bot, Brain: brain}, nil
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || update.Message.Text == "" {
			continue
		}

		log.Printf("[telegram:%s] %s", update.Message.From.UserName, update.Message.Text)

		chatID := strconv.FormatInt(update.Message.Chat.ID, 10)
		response, err := tg.Brain.Think(context.Background(), chatID, update.Message.Text)
		if err != nil {
			log.Printf("Error thinking: %v", err)
			if response == "" {
				response = "I'm having trouble thinking right now..."
			}
		}

		msg := tgbotapi.NewMessage(update.Message.Chat.ID, response)
		if _, err := tg.Bot.Send(msg); err != nil {
			log.Printf("Error sending telegram reply: %v", err)
		}
	}
	return nil
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = "Markdown"
	_, err = tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.Bot.StopReceivingUpdates()
	return nil
}
