package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"storefront/internal/config"
	"storefront/internal/services"
)

// fakeCompletions answers like an OpenAI-compatible endpoint and records
// how many messages each request carried.
func fakeCompletions(t *testing.T, status int) (*httptest.Server, func() []int) {
	t.Helper()
	var mu sync.Mutex
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []services.ChatMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		sizes = append(sizes, len(body.Messages))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Try the Oak Coffee Table (ID 1)."}}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), sizes...)
	}
}

func TestChatSessionKeepsHistory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	srv, sizes := fakeCompletions(t, http.StatusOK)
	ai := services.NewAIService(db, config.AIConfig{APIKey: "k", URL: srv.URL, Model: "m", Timeout: time.Second})
	ai.Now = func() time.Time { return fixedNow }

	sess, err := ai.CreateSession(ctx, alice, services.SessionInput{})
	require.NoError(t, err)
	require.Equal(t, "New chat", sess.Title)
	require.NotEmpty(t, sess.Token)

	turn, err := ai.Converse(ctx, alice, sess.Token, services.TurnInput{Content: "Which coffee table do you recommend for a small flat?"})
	require.NoError(t, err)
	require.NoError(t, turn.Fallback)
	require.Equal(t, "assistant", turn.Reply.Role)
	require.Equal(t, "Try the Oak Coffee Table (ID 1).", turn.Reply.Content)

	_, err = ai.Converse(ctx, alice, sess.Token, services.TurnInput{Content: "Is it in stock?"})
	require.NoError(t, err)
	// system prompt + history: 1 user, then 2 user + 1 assistant
	require.Equal(t, []int{2, 4}, sizes())

	msgs, err := ai.Messages(ctx, alice, sess.Token)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "assistant", msgs[3].Role)

	list, err := ai.Sessions(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Which coffee table do you reco", list[0].Title)

	// sessions are private to their owner
	_, err = ai.Messages(ctx, adminID, sess.Token)
	requireKind(t, err, services.KindNotFound)
	_, err = ai.Converse(ctx, adminID, sess.Token, services.TurnInput{Content: "hi"})
	requireKind(t, err, services.KindNotFound)
	requireKind(t, ai.DeleteSession(ctx, adminID, sess.Token), services.KindNotFound)

	require.NoError(t, ai.DeleteSession(ctx, alice, sess.Token))
	_, err = ai.Messages(ctx, alice, sess.Token)
	requireKind(t, err, services.KindNotFound)
	list, err = ai.Sessions(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestChatSessionStoresApologyOnUpstreamFailure(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	srv, _ := fakeCompletions(t, http.StatusBadGateway)
	ai := services.NewAIService(db, config.AIConfig{APIKey: "k", URL: srv.URL, Model: "m", Timeout: time.Second})

	sess, err := ai.CreateSession(ctx, alice, services.SessionInput{Title: "Beds"})
	require.NoError(t, err)
	turn, err := ai.Converse(ctx, alice, sess.Token, services.TurnInput{Content: "Do you have king size beds?"})
	require.NoError(t, err)
	require.Error(t, turn.Fallback)
	require.Contains(t, turn.Reply.Content, "Sorry")

	msgs, err := ai.Messages(ctx, alice, sess.Token)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	list, err := ai.Sessions(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "Beds", list[0].Title)
}
