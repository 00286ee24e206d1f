package gateway

// Messenger is a chat surface the orchestrator can receive input from
// and deliver output to (Telegram, Discord, ...).
type Messenger interface {
	// Start begins the message listening loop and blocks until Stop.
	Start() error
	// Send delivers a message to a specific chat.
	Send(chatID string, text string) error
	// Stop gracefully shuts down the gateway.
	Stop() error
}
