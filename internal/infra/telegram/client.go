package telegram

import (
	"fmt"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the telegram.Client interface on top of a telebot bot.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage delivers plain text to a private chat. Staff notifications go to
// the staff account's own chat, whose ID equals the user ID.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{DisableWebPagePreview: true}
	}

	recipient := &telebot.User{ID: recipientChatID}
	if _, err := tba.bot.Send(recipient, text, options); err != nil {
		return fmt.Errorf("error sending message to chat %d: %w", recipientChatID, err)
	}
	return nil
}
