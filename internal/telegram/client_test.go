package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"botdesk/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Method string
	Token  string
	Form   map[string]string
}

type fakeBotAPI struct {
	mu       sync.Mutex
	calls    []recordedCall
	handlers map[string]func(w http.ResponseWriter)
}

func newFakeBotAPI(t *testing.T) (*fakeBotAPI, *Client) {
	t.Helper()
	f := &fakeBotAPI{handlers: map[string]func(w http.ResponseWriter){}}
	ts := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(ts.Close)

	client := NewClient(config.TelegramConfig{
		APIEndpoint:    ts.URL + "/bot%s/%s",
		RequestTimeout: 2 * time.Second,
	}, nil, nil)
	return f, client
}

func (f *fakeBotAPI) serve(w http.ResponseWriter, r *http.Request) {
	// path: /bot<token>/<method>
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/bot"), "/", 2)
	_ = r.ParseForm()
	form := map[string]string{}
	for k := range r.PostForm {
		form[k] = r.PostForm.Get(k)
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Token: parts[0], Method: parts[1], Form: form})
	h := f.handlers[parts[1]]
	f.mu.Unlock()

	if h == nil {
		writeOK(w, true)
		return
	}
	h(w)
}

func (f *fakeBotAPI) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func writeOK(w http.ResponseWriter, result any) {
	raw, _ := json.Marshal(result)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": json.RawMessage(raw)})
}

func writeAPIError(w http.ResponseWriter, code int, description string) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": code, "description": description})
}

func TestGetMe(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f, client := newFakeBotAPI(t)
		f.handlers["getMe"] = func(w http.ResponseWriter) {
			writeOK(w, map[string]any{"id": 77, "is_bot": true, "first_name": "Shop", "username": "shop_bot"})
		}

		me, err := client.GetMe(context.Background(), "123:abc")
		require.NoError(t, err)
		assert.Equal(t, int64(77), me.ID)
		assert.Equal(t, "shop_bot", me.Username)
		assert.True(t, me.IsBot)
		assert.Equal(t, "123:abc", f.last().Token)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		f, client := newFakeBotAPI(t)
		f.handlers["getMe"] = func(w http.ResponseWriter) { writeAPIError(w, http.StatusUnauthorized, "Unauthorized") }

		_, err := client.GetMe(context.Background(), "123:bad")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("ServerError", func(t *testing.T) {
		f, client := newFakeBotAPI(t)
		f.handlers["getMe"] = func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}

		_, err := client.GetMe(context.Background(), "123:abc")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("Unreachable", func(t *testing.T) {
		client := NewClient(config.TelegramConfig{
			APIEndpoint:    "http://127.0.0.1:1/bot%s/%s",
			RequestTimeout: time.Second,
		}, nil, nil)

		_, err := client.GetMe(context.Background(), "123:abc")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestSetWebhook(t *testing.T) {
	f, client := newFakeBotAPI(t)

	ok := client.SetWebhook(context.Background(), "123:abc", WebhookOptions{
		URL:                "https://example.com/webhook/hash",
		SecretToken:        "s3cret",
		DropPendingUpdates: true,
	})
	require.True(t, ok)

	call := f.last()
	assert.Equal(t, "setWebhook", call.Method)
	assert.Equal(t, "https://example.com/webhook/hash", call.Form["url"])
	assert.Equal(t, "s3cret", call.Form["secret_token"])
	assert.Equal(t, "true", call.Form["drop_pending_updates"])
	assert.JSONEq(t, `["message","edited_message","callback_query"]`, call.Form["allowed_updates"])

	f.handlers["setWebhook"] = func(w http.ResponseWriter) { writeAPIError(w, http.StatusBadRequest, "bad url") }
	assert.False(t, client.SetWebhook(context.Background(), "123:abc", WebhookOptions{URL: "ftp://x"}))
}

func TestDeleteWebhook(t *testing.T) {
	f, client := newFakeBotAPI(t)
	assert.True(t, client.DeleteWebhook(context.Background(), "123:abc", true))
	assert.Equal(t, "deleteWebhook", f.last().Method)
	assert.Equal(t, "true", f.last().Form["drop_pending_updates"])

	f.handlers["deleteWebhook"] = func(w http.ResponseWriter) { writeAPIError(w, http.StatusUnauthorized, "Unauthorized") }
	assert.False(t, client.DeleteWebhook(context.Background(), "123:abc", false))
}

func TestSendMessage(t *testing.T) {
	f, client := newFakeBotAPI(t)
	f.handlers["sendMessage"] = func(w http.ResponseWriter) {
		writeOK(w, map[string]any{"message_id": 9, "date": 1700000000, "chat": map[string]any{"id": 555, "type": "private"}})
	}

	sent := client.SendMessage(context.Background(), "123:abc", OutgoingMessage{
		ChatID:                555,
		Text:                  "hello",
		ReplyToMessageID:      42,
		DisableWebPagePreview: true,
	})
	require.NotNil(t, sent)
	assert.Equal(t, 9, sent.MessageID)

	call := f.last()
	assert.Equal(t, "sendMessage", call.Method)
	assert.Equal(t, "555", call.Form["chat_id"])
	assert.Equal(t, "hello", call.Form["text"])
	assert.Equal(t, "42", call.Form["reply_to_message_id"])
	assert.Equal(t, "true", call.Form["disable_web_page_preview"])

	f.handlers["sendMessage"] = func(w http.ResponseWriter) { writeAPIError(w, http.StatusForbidden, "bot was blocked by the user") }
	assert.Nil(t, client.SendMessage(context.Background(), "123:abc", OutgoingMessage{ChatID: 555, Text: "x"}))
}

func TestSetMyCommands(t *testing.T) {
	f, client := newFakeBotAPI(t)
	ok := client.SetMyCommands(context.Background(), "123:abc", []Command{{Command: "start", Description: "Start the bot"}})
	require.True(t, ok)

	call := f.last()
	assert.Equal(t, "setMyCommands", call.Method)
	assert.JSONEq(t, `[{"command":"start","description":"Start the bot"}]`, call.Form["commands"])
}

func TestCanceledContext(t *testing.T) {
	_, client := newFakeBotAPI(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetMe(ctx, "123:abc")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestTransportErrorsDoNotLeakToken(t *testing.T) {
	const token = "123456:SECRET-TOKEN-abcdef"

	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL + "/bot%s/%s"
	ts.Close()

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	client := NewClient(config.TelegramConfig{APIEndpoint: endpoint, RequestTimeout: time.Second}, nil, &logger)
	ctx := context.Background()

	_, err := client.GetMe(ctx, token)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.NotContains(t, err.Error(), token)
	assert.Contains(t, err.Error(), "getMe")

	assert.Nil(t, client.SendMessage(ctx, token, OutgoingMessage{ChatID: 1, Text: "hi"}))
	assert.False(t, client.SetWebhook(ctx, token, WebhookOptions{URL: "https://hooks.example.com/webhook/h"}))
	assert.False(t, client.DeleteWebhook(ctx, token, false))
	assert.False(t, client.SetMyCommands(ctx, token, []Command{{Command: "start", Description: "Start"}}))

	assert.Contains(t, buf.String(), "sendMessage failed")
	assert.NotContains(t, buf.String(), "SECRET-TOKEN")
}
