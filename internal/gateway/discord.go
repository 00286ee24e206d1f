package gateway

import (
	"context"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/arvind/yantra/internal/agent"
)

// DiscordGateway routes channel messages through the brain. The
// channel ID doubles as the conversation key so each channel keeps its
// own history.
type DiscordGateway struct {
	Session *discordgo.Session
	Brain   agent.Brain
}

func NewDiscordGateway(token string, brain agent.Brain) (*DiscordGateway, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

	dg := &DiscordGateway{Session: session, Brain: brain}
	session.AddHandler(dg.onMessage)
	return dg, nil
}

func (dg *DiscordGateway) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Never respond to ourselves or other bots.
	if m.Author.ID == s.State.User.ID || m.Author.Bot || m.Content == "" {
		return
	}

	log.Printf("[discord:%s] %s", m.Author.Username, m.Content)

	response, err := dg.Brain.Think(context.Background(), m.ChannelID, m.Content)
	if err != nil {
		log.Printf("Error thinking: %v", err)
		if response == "" {
			response = "I'm having trouble thinking right now..."
		}
	}

	if _, err := s.ChannelMessageSend(m.ChannelID, response); err != nil {
		log.Printf("Error sending discord reply: %v", err)
	}
}

func (dg *DiscordGateway) Start() error {
	if err := dg.Session.Open(); err != nil {
		return err
	}
	log.Printf("Discord gateway connected as %s", dg.Session.State.User.Username)
	// discordgo handles events on its own goroutines; block forever so
	// Start matches the Messenger contract.
	select {}
}

func (dg *DiscordGateway) Send(chatID string, text string) error {
	_, err := dg.Session.ChannelMessageSend(chatID, text)
	return err
}

func (dg *DiscordGateway) Stop() error {
	return dg.Session.Close()
}
