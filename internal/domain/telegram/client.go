package telegram

import "gopkg.in/telebot.v3"

// Client sends outbound messages to staff, e.g. the scheduled overdue report.
type Client interface {
	SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error
}
