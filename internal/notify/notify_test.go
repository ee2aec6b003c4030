package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatnil/compliancehub/internal/domain"
)

type recordingSender struct {
	name   string
	err    error
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.titles = append(r.titles, title)
	return r.err
}

func (r *recordingSender) Name() string { return r.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_FiltersEvents(t *testing.T) {
	s := &recordingSender{name: "rec"}
	n := NewNotifier([]Sender{s}, []string{EventDeadlineOverdue, " "}, discardLogger())

	require.NoError(t, n.Notify(context.Background(), EventSnapshotArchived, "skip", ""))
	require.NoError(t, n.Notify(context.Background(), EventDeadlineOverdue, "send", ""))

	assert.Equal(t, []string{"send"}, s.titles)
	assert.True(t, n.Enabled())
}

func TestNotifier_EmptyFilterAllowsAll(t *testing.T) {
	n := NewNotifier(nil, nil, discardLogger())
	assert.True(t, n.Allows(EventJobFailed))
	assert.False(t, n.Enabled())
}

func TestNotifier_ContinuesAfterFailure(t *testing.T) {
	bad := &recordingSender{name: "bad", err: errors.New("down")}
	good := &recordingSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discardLogger())

	err := n.Notify(context.Background(), EventDeadlineOverdue, "t", "m")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad: down")
	assert.Len(t, good.titles, 1)
}

func TestDiscordSender(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "Overdue", "body")

	require.NoError(t, err)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Overdue", got.Embeds[0].Title)
	assert.Equal(t, "body", got.Embeds[0].Description)
}

func TestDiscordSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestTelegramSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	err := NewTelegramSender("TOKEN", "42").WithAPIBase(srv.URL+"/").Send(context.Background(), "A & B", "<x>")

	require.NoError(t, err)
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "<b>A &amp; B</b>\n&lt;x&gt;", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestOverdueDigest(t *testing.T) {
	due := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	title, msg := OverdueDigest("State U", domain.Deadlines{
		Overdue: 7,
		Today:   2,
		OverdueItems: []domain.DeadlineItem{
			{AthleteName: "Ava Chen", DealName: "Nike", Amount: 1500, Deadline: due},
		},
	})

	assert.Equal(t, "State U: 7 overdue NIL disclosure(s)", title)
	assert.Equal(t, "- Ava Chen / Nike ($1500.00), due 2025-03-10\n...and 6 more\n2 more due today", msg)
}
