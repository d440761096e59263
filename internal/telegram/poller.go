package telegram

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"pricewatch/internal/commands"
	"pricewatch/internal/components/assert"
	"pricewatch/internal/components/telemetry"
	"pricewatch/pkg/htmlutil"

	"go.opentelemetry.io/otel/attribute"
)

const (
	report_poller_poll     = "poller.poll"
	report_poller_dispatch = "poller.dispatch"
	report_poller_reply    = "poller.reply"
)

// Poller receives commands through getUpdates and replies to the chat
// they came from.
type Poller struct {
	client   Client
	registry *commands.Registry
	// allowedChats restricts who may run commands, empty allows everyone.
	allowedChats []int64
	// retryDelay is waited after a failed poll.
	retryDelay time.Duration
	tel        telemetry.API
}

func NewPoller(client Client, registry *commands.Registry, allowedChats []int64, tel telemetry.API) Poller {
	assert.NotNil(registry)
	assert.NotNil(tel)
	return Poller{
		client:       client,
		registry:     registry,
		allowedChats: allowedChats,
		retryDelay:   time.Second * 5,
		tel:          telemetry.NewScopedAPI("telegram", tel),
	}
}

// Run polls until the context is cancelled. Each command is handled in its
// own goroutine so a long cycle does not hold up other chats, Run returns
// once the handlers in flight have finished.
func (p Poller) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			p.tel.ReportWarning(report_poller_poll, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryDelay):
			}
			continue
		}

		for _, update := range updates {
			offset = max(offset, update.UpdateID+1)
			if update.Message == nil {
				continue
			}
			msg := *update.Message
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Handle(ctx, msg)
			}()
		}
	}
}

// Handle runs the command in a message and sends the reply. Messages that
// are not commands or come from a chat that is not allowed are ignored.
func (p Poller) Handle(ctx context.Context, msg Message) {
	name, args, ok := commands.Parse(msg.Text)
	if !ok {
		return
	}
	if len(p.allowedChats) > 0 && !slices.Contains(p.allowedChats, msg.Chat.ID) {
		p.tel.ReportDebug("ignored command from chat", msg.Chat.ID, name)
		return
	}

	ctx, span := tracer.Start(ctx, "HandleCommand")
	defer span.End()
	span.SetAttributes(attribute.String("command", name))

	res, err := p.registry.Dispatch(ctx, name, commands.Request{ChatID: msg.Chat.ID, Args: args})
	switch {
	case errors.Is(err, commands.ErrUnknownCommand):
		res = commands.UnknownResponse(name)
	case err != nil:
		span.RecordError(err)
		p.tel.ReportBroken(report_poller_dispatch, err, name)
		res = commands.Response{Text: fmt.Sprintf("❌ Error: %s", htmlutil.Escape(err.Error()).String())}
	}

	err = p.client.SendMessage(ctx, msg.Chat.ID, res.Text)
	if err != nil {
		p.tel.ReportBroken(report_poller_reply, err, msg.Chat.ID)
	}
}
