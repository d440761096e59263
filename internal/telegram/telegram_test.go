package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"pricewatch/internal/commands"
	"pricewatch/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const testToken = "123:secret"

type sentMessage struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type fakeBotAPI struct {
	mutex   sync.Mutex
	sent    []sentMessage
	updates []Update
	fail    bool
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		return
	}

	switch r.URL.Path {
	case "/bot" + testToken + "/sendMessage":
		var msg sentMessage
		json.NewDecoder(r.Body).Decode(&msg)
		f.sent = append(f.sent, msg)
		w.Write([]byte(`{"ok":true,"result":{"message_id":1,"chat":{"id":1},"text":""}}`))
	case "/bot" + testToken + "/getUpdates":
		body, _ := json.Marshal(map[string]any{"ok": true, "result": f.updates})
		f.updates = nil
		w.Write(body)
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found"}`))
	}
}

func (f *fakeBotAPI) messages() []sentMessage {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func newTestClient(t *testing.T, api *fakeBotAPI, tel telemetry.API) Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)
	return NewClient(ClientOptions{
		Token:       testToken,
		BaseURL:     server.URL,
		Timeout:     time.Second * 5,
		PollTimeout: time.Second,
	}, tel)
}

func TestSendMessage(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api, telemetry.NewTestAPI())

	err := NewNotifier(client, 42).Notify(context.Background(), "<b>hola</b>")
	require.NoError(t, err)
	require.Equal(t, []sentMessage{{ChatID: 42, Text: "<b>hola</b>", ParseMode: "HTML"}}, api.messages())
}

func TestSendMessageSplitsLongText(t *testing.T) {
	api := &fakeBotAPI{}
	client := newTestClient(t, api, telemetry.NewTestAPI())

	line := strings.Repeat("x", 100)
	var lines []string
	for i := 0; i < 50; i++ {
		lines = append(lines, line)
	}
	err := client.SendMessage(context.Background(), 1, strings.Join(lines, "\n"))
	require.NoError(t, err)
	require.Len(t, api.messages(), 2)
}

func TestSendMessageAPIError(t *testing.T) {
	api := &fakeBotAPI{fail: true}
	tel := telemetry.NewTestAPI()
	client := newTestClient(t, api, tel)

	err := client.SendMessage(context.Background(), 1, "hola")
	require.ErrorIs(t, err, ErrAPI)
	require.ErrorContains(t, err, "chat not found")
	require.Len(t, tel.Reports("broken", report_client_send_message), 1)
}

func TestGetUpdates(t *testing.T) {
	api := &fakeBotAPI{updates: []Update{
		{UpdateID: 7, Message: &Message{MessageID: 1, Chat: Chat{ID: 5}, Text: "/precios"}},
	}}
	client := newTestClient(t, api, telemetry.NewTestAPI())

	updates, err := client.GetUpdates(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, int64(7), updates[0].UpdateID)
	require.Equal(t, "/precios", updates[0].Message.Text)
}

func newTestRegistry() *commands.Registry {
	registry := commands.NewRegistry()
	registry.Register(commands.Command{
		Name: "eco",
		Handler: func(ctx context.Context, req commands.Request) (commands.Response, error) {
			return commands.Response{Text: "eco: " + req.Args}, nil
		},
	})
	registry.Register(commands.Command{
		Name: "falla",
		Handler: func(ctx context.Context, req commands.Request) (commands.Response, error) {
			return commands.Response{}, errors.New("<boom>")
		},
	})
	return registry
}

func TestPollerHandle(t *testing.T) {
	api := &fakeBotAPI{}
	tel := telemetry.NewTestAPI()
	poller := NewPoller(newTestClient(t, api, tel), newTestRegistry(), []int64{5}, tel)
	ctx := context.Background()

	poller.Handle(ctx, Message{Chat: Chat{ID: 5}, Text: "/eco@pricewatch_bot hola"})
	poller.Handle(ctx, Message{Chat: Chat{ID: 5}, Text: "/desconocido"})
	poller.Handle(ctx, Message{Chat: Chat{ID: 5}, Text: "/falla"})
	poller.Handle(ctx, Message{Chat: Chat{ID: 5}, Text: "no es un comando"})
	poller.Handle(ctx, Message{Chat: Chat{ID: 9}, Text: "/eco intruso"})

	sent := api.messages()
	require.Len(t, sent, 3)
	require.Equal(t, "eco: hola", sent[0].Text)
	require.Contains(t, sent[1].Text, "/help")
	require.Equal(t, "❌ Error: &lt;boom&gt;", sent[2].Text)
	for _, msg := range sent {
		require.Equal(t, int64(5), msg.ChatID)
	}
	require.Len(t, tel.Reports("broken", report_poller_dispatch), 1)
}

func TestPollerRun(t *testing.T) {
	api := &fakeBotAPI{updates: []Update{
		{UpdateID: 1, Message: &Message{Chat: Chat{ID: 3}, Text: "/eco uno"}},
		{UpdateID: 2},
	}}
	poller := NewPoller(newTestClient(t, api, telemetry.NewTestAPI()), newTestRegistry(), nil, telemetry.NewTestAPI())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(api.messages()) == 1
	}, time.Second*5, time.Millisecond*20)
	cancel()
	<-done

	require.Equal(t, "eco: uno", api.messages()[0].Text)
}

func TestPollerRunDoesNotBlockOnSlowCommand(t *testing.T) {
	release := make(chan struct{})
	registry := newTestRegistry()
	registry.Register(commands.Command{
		Name: "lento",
		Handler: func(ctx context.Context, req commands.Request) (commands.Response, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return commands.Response{Text: "listo"}, nil
		},
	})

	api := &fakeBotAPI{updates: []Update{
		{UpdateID: 1, Message: &Message{Chat: Chat{ID: 3}, Text: "/lento"}},
		{UpdateID: 2, Message: &Message{Chat: Chat{ID: 4}, Text: "/eco dos"}},
	}}
	poller := NewPoller(newTestClient(t, api, telemetry.NewTestAPI()), registry, nil, telemetry.NewTestAPI())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(api.messages()) == 1
	}, time.Second*5, time.Millisecond*20)
	require.Equal(t, "eco: dos", api.messages()[0].Text)

	close(release)
	require.Eventually(t, func() bool {
		return len(api.messages()) == 2
	}, time.Second*5, time.Millisecond*20)
	cancel()
	<-done

	require.Equal(t, "listo", api.messages()[1].Text)
}
