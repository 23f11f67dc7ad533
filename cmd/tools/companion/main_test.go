package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/manasbridge/backend/internal/app"
	"github.com/zhouzirui/manasbridge/backend/internal/model/chat"
	"github.com/zhouzirui/manasbridge/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/manasbridge/backend/internal/service/chat"
	moodservice "github.com/zhouzirui/manasbridge/backend/internal/service/mood"
	"github.com/zhouzirui/manasbridge/backend/internal/storage/memory"
)

type fixedStreamer []string

func (f fixedStreamer) StreamResponse(context.Context, persona.ID, []chat.Message, string) (*schema.StreamReader[string], error) {
	return schema.StreamReaderFromArray([]string(f)), nil
}

// memoryOpener shares one in-memory app across invocations.
func memoryOpener(t *testing.T, reply ...string) openFunc {
	t.Helper()
	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	moods := moodservice.NewService(store, nil)
	a := &app.App{
		Store: store,
		Mood:  moods,
		Chat:  chatservice.NewService(store, fixedStreamer(reply), nil, moods, nil),
	}
	return func(context.Context, string, string) (*app.App, func(), error) {
		return a, func() {}, nil
	}
}

func run(t *testing.T, open openFunc, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	return out.String()
}

func TestMoodCommands(t *testing.T) {
	open := memoryOpener(t)

	assert.Contains(t, run(t, open, "mood", "record", "happy", "--note", "sunny walk"), "Recorded")
	run(t, open, "mood", "record", "Stressed")

	list := run(t, open, "mood", "list", "--limit", "1")
	assert.Contains(t, list, "Stressed")
	assert.NotContains(t, list, "Happy")

	chart := run(t, open, "mood", "chart")
	assert.Less(t, bytes.Index([]byte(chart), []byte("Happy")), bytes.Index([]byte(chart), []byte("Stressed")))
}

func TestMoodRecordRejectsUnknown(t *testing.T) {
	cmd := newRootCmd(memoryOpener(t))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"mood", "record", "bored"})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestChatStreamsAndHidesMarker(t *testing.T) {
	open := memoryOpener(t, "Glad you shared. ", "[SUGG", "EST_MOOD_LOG]")

	out := run(t, open, "chat", "I", "feel", "happy", "today")
	assert.Contains(t, out, "Glad you shared.")
	assert.NotContains(t, out, "SUGG")
	assert.Contains(t, out, "companion chat mood-log Happy")

	history := run(t, open, "history")
	assert.Contains(t, history, "user: I feel happy today")
}

func TestChatMoodLogCompletesOffer(t *testing.T) {
	open := memoryOpener(t, "Glad you shared. ", "[SUGGEST_MOOD_LOG]")
	run(t, open, "chat", "I", "feel", "happy", "today")

	out := run(t, open, "chat", "mood-log", "happy")
	assert.Contains(t, out, "Recorded")
	assert.Contains(t, out, `From chat: "I feel happy today"`)

	a, _, err := open(context.Background(), "", "")
	require.NoError(t, err)
	history, err := a.Chat.History(context.Background())
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.True(t, last.OffersMoodLog())
	assert.True(t, last.MoodLogCompleted)

	list := run(t, open, "mood", "list")
	assert.Contains(t, list, `From chat: "I feel happy today"`)
}

func TestChatCrisisPrintsContacts(t *testing.T) {
	out := run(t, memoryOpener(t, "unused"), "chat", "I want to end my life")
	assert.Contains(t, out, "AASRA")
	assert.NotContains(t, out, "unused")
}

func TestVisible(t *testing.T) {
	assert.Equal(t, "Hi ", visible("Hi [SUG"))
	assert.Equal(t, "Hi  there", visible("Hi [SUGGEST_MOOD_LOG] there"))
	assert.Equal(t, "Plain [note]", visible("Plain [note]"))
}
