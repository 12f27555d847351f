package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		Token:   "test-token",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})
}

func TestSendMessage(t *testing.T) {
	var captured map[string]interface{}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 12, "chat": map[string]interface{}{"id": 1001}},
		})
	})

	msg, err := client.SendHTML(context.Background(), 1001, "<b>hi</b>")
	require.NoError(t, err)
	require.Equal(t, int64(12), msg.MessageID)

	require.Equal(t, float64(1001), captured["chat_id"])
	require.Equal(t, "<b>hi</b>", captured["text"])
	require.Equal(t, "HTML", captured["parse_mode"])
}

func TestCallReturnsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok":          false,
			"error_code":  400,
			"description": "Bad Request: chat not found",
		})
	})

	_, err := client.SendHTML(context.Background(), 42, "hello")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 400, apiErr.Code)
	require.Contains(t, apiErr.Description, "chat not found")
}

func TestGetUpdatesDecodesBatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]interface{}{
				{
					"update_id": 7,
					"message": map[string]interface{}{
						"message_id": 1,
						"chat":       map[string]interface{}{"id": 1001, "type": "private"},
						"text":       "/start",
						"entities":   []map[string]interface{}{{"type": "bot_command", "offset": 0, "length": 6}},
					},
				},
			},
		})
	})

	updates, err := client.GetUpdates(context.Background(), 0, 100, 30)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, int64(7), updates[0].UpdateID)
	require.Equal(t, "start", Command(updates[0].Message))
}

func TestCommandParsing(t *testing.T) {
	cases := []struct {
		name string
		msg  Message
		cmd  string
		args string
	}{
		{
			name: "plain command",
			msg:  Message{Text: "/courses", Entities: []MessageEntity{{Type: "bot_command", Offset: 0, Length: 8}}},
			cmd:  "courses",
		},
		{
			name: "command with bot mention",
			msg:  Message{Text: "/start@lumen_bot", Entities: []MessageEntity{{Type: "bot_command", Offset: 0, Length: 16}}},
			cmd:  "start",
		},
		{
			name: "command with args",
			msg:  Message{Text: "/course 42", Entities: []MessageEntity{{Type: "bot_command", Offset: 0, Length: 7}}},
			cmd:  "course",
			args: "42",
		},
		{
			name: "not a command",
			msg:  Message{Text: "print('hello')"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.cmd, Command(&tc.msg))
			require.Equal(t, tc.args, CommandArgs(&tc.msg))
		})
	}
}
