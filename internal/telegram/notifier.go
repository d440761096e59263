package telegram

import "context"

// Notifier sends reports to a fixed chat.
type Notifier struct {
	client Client
	chatID int64
}

func NewNotifier(client Client, chatID int64) Notifier {
	return Notifier{client: client, chatID: chatID}
}

func (n Notifier) Notify(ctx context.Context, text string) error {
	return n.client.SendMessage(ctx, n.chatID, text)
}
