package history

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestEmptyStore(t *testing.T) {
	ctx := context.Background()
	_, q := newFixture(t)

	sessions, err := q.ListRecentSessions(ctx, "user", "my_agent", 10)
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)

	_, err = q.GetSessionTranscript(ctx, "missing", "user", "my_agent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.SessionID)

	hits, err := q.SearchSessionsByContent(ctx, "hello", "user", "my_agent", 5)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestListRecentSessions(t *testing.T) {
	ctx := context.Background()
	r, q := newFixture(t)

	tokyo := mustSession(t, r, "tokyo", "user", t0)
	say(t, r, tokyo, "user", "What time is it in Tokyo?", t0.Add(time.Minute))
	say(t, r, tokyo, "root_agent", "It is 6pm in Tokyo.", t0.Add(2*time.Minute))
	say(t, r, tokyo, "user", "And London?", t0.Add(3*time.Minute))

	silent := mustSession(t, r, "silent", "user", t0.Add(time.Hour))
	say(t, r, silent, "root_agent", "Hello! Ask me for the time anywhere.", t0.Add(time.Hour+time.Minute))

	latest := mustSession(t, r, "latest", "user", t0.Add(2*time.Hour))
	say(t, r, latest, "user", "Time in Sydney?", t0.Add(2*time.Hour+time.Minute))

	// Same session id under another user must not leak into counts.
	alien := mustSession(t, r, "tokyo", "alice", t0)
	say(t, r, alien, "user", "Alice asks about Tokyo", t0.Add(5*time.Hour))

	all, err := q.ListRecentSessions(ctx, "user", "my_agent", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "latest", all[0].SessionID)
	assert.Equal(t, "silent", all[1].SessionID)
	assert.Equal(t, "tokyo", all[2].SessionID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].UpdateTime.After(all[i-1].UpdateTime))
	}

	assert.Equal(t, 3, all[2].EventCount)
	assert.Equal(t, str("What time is it in Tokyo?"), all[2].FirstMessage)
	assert.Equal(t, str("And London?"), all[2].LastMessage)
	assert.Equal(t, t0, all[2].CreateTime)
	assert.Equal(t, t0.Add(3*time.Minute), all[2].UpdateTime)

	assert.Equal(t, 1, all[1].EventCount)
	assert.Nil(t, all[1].FirstMessage)
	assert.Nil(t, all[1].LastMessage)

	limited, err := q.ListRecentSessions(ctx, "user", "my_agent", 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "latest", limited[0].SessionID)

	defaulted, err := q.ListRecentSessions(ctx, "user", "my_agent", 0)
	require.NoError(t, err)
	assert.Len(t, defaulted, 3)

	other, err := q.ListRecentSessions(ctx, "user", "other_app", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListRecentSessions_ToleratesBadContent(t *testing.T) {
	ctx := context.Background()
	r, q := newFixture(t)

	s := mustSession(t, r, "s1", "user", t0)
	insertRawEvent(t, r, s, "e1", "user", "{not json", nil, t0.Add(time.Minute))
	appendPart(t, r, s, "user", &genai.Part{FunctionResponse: &genai.FunctionResponse{Name: "get_current_time"}}, t0.Add(2*time.Minute))

	empty := mustSession(t, r, "s2", "user", t0.Add(-time.Hour))
	insertRawEvent(t, r, empty, "e2", "user", nil, nil, t0.Add(-time.Hour))

	all, err := q.ListRecentSessions(ctx, "user", "my_agent", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)

	assert.Nil(t, all[0].FirstMessage)
	assert.Equal(t, str(""), all[0].LastMessage)
	assert.Equal(t, 2, all[0].EventCount)

	assert.Nil(t, all[1].FirstMessage)
	assert.Nil(t, all[1].LastMessage)
}

func TestGetSessionTranscript(t *testing.T) {
	ctx := context.Background()
	r, q := newFixture(t)

	s := mustSession(t, r, "s1", "user", t0)
	say(t, r, s, "user", "What time is it in Tokyo?", t0.Add(time.Minute))
	appendPart(t, r, s, "root_agent", &genai.Part{FunctionCall: &genai.FunctionCall{
		Name: "get_current_time", Args: map[string]any{"timezone": "Asia/Tokyo"},
	}}, t0.Add(2*time.Minute))
	appendPart(t, r, s, "root_agent", &genai.Part{FunctionResponse: &genai.FunctionResponse{
		Name: "get_current_time", Response: map[string]any{"abbreviation": "JST"},
	}}, t0.Add(3*time.Minute))
	// Stored out of order on purpose.
	insertRawEvent(t, r, s, "late", "root_agent", `{"parts":[{"text":"It is 6pm."}]}`, `{"state_delta":{"city":"Tokyo"}}`, t0.Add(5*time.Minute))
	insertRawEvent(t, r, s, "garbled", "root_agent", "<<binary>>", "{not json", t0.Add(4*time.Minute))

	tr, err := q.GetSessionTranscript(ctx, "s1", "user", "my_agent")
	require.NoError(t, err)
	assert.Equal(t, "s1", tr.SessionID)
	assert.Equal(t, t0, tr.CreateTime)
	require.Len(t, tr.Events, 5)

	for i := 1; i < len(tr.Events); i++ {
		assert.False(t, tr.Events[i].Timestamp.Before(tr.Events[i-1].Timestamp))
	}

	assert.Equal(t, TextPayload{Text: "What time is it in Tokyo?"}, tr.Events[0].Payload)
	assert.Equal(t, "user", tr.Events[0].Author)
	assert.IsType(t, FunctionCallPayload{}, tr.Events[1].Payload)
	assert.IsType(t, FunctionResponsePayload{}, tr.Events[2].Payload)
	assert.Equal(t, RawPayload{Raw: "<<binary>>"}, tr.Events[3].Payload)
	assert.Nil(t, tr.Events[3].Actions)
	assert.Equal(t, "late", tr.Events[4].EventID)
	assert.Equal(t, map[string]any{"state_delta": map[string]any{"city": "Tokyo"}}, tr.Events[4].Actions)

	_, err = q.GetSessionTranscript(ctx, "s1", "alice", "my_agent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTranscriptEventJSON(t *testing.T) {
	cases := []struct {
		payload Payload
		key     string
	}{
		{TextPayload{Text: "hi"}, "text"},
		{FunctionCallPayload{Call: json.RawMessage(`{"name":"f"}`)}, "function_call"},
		{FunctionResponsePayload{Response: json.RawMessage(`{"name":"f"}`)}, "function_response"},
		{RawPayload{Raw: "??"}, "content"},
	}
	payloadKeys := []string{"text", "function_call", "function_response", "content"}

	for _, c := range cases {
		b, err := json.Marshal(TranscriptEvent{EventID: "e", Author: "user", Timestamp: t0, Payload: c.payload})
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		for _, k := range payloadKeys {
			_, present := m[k]
			assert.Equal(t, k == c.key, present, "key %s in %s", k, b)
		}
		assert.NotContains(t, m, "actions")
		assert.Equal(t, "e", m["event_id"])
	}

	b, err := json.Marshal(TranscriptEvent{EventID: "e", Actions: map[string]any{"escalate": true}})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"actions":{"escalate":true}`)
}

func TestSearchSessionsByContent(t *testing.T) {
	ctx := context.Background()
	r, q := newFixture(t)

	a := mustSession(t, r, "a", "user", t0)
	say(t, r, a, "user", "hello from Tokyo", t0.Add(time.Minute))
	say(t, r, a, "root_agent", "hello there", t0.Add(2*time.Minute))

	b := mustSession(t, r, "b", "user", t0.Add(time.Hour))
	say(t, r, b, "user", "Hello with a capital", t0.Add(time.Hour+time.Minute))
	say(t, r, b, "user", "say hello again", t0.Add(time.Hour+2*time.Minute))

	c := mustSession(t, r, "c", "user", t0.Add(2*time.Hour))
	insertRawEvent(t, r, c, "raw", "user", "hello but not json", nil, t0.Add(2*time.Hour+time.Minute))

	other := mustSession(t, r, "o", "alice", t0)
	say(t, r, other, "user", "hello from alice", t0.Add(3*time.Hour))

	hits, err := q.SearchSessionsByContent(ctx, "hello", "user", "my_agent", 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "c", hits[0].SessionID)
	assert.Nil(t, hits[0].MatchingMessage)
	assert.Equal(t, "b", hits[1].SessionID)
	assert.Equal(t, str("say hello again"), hits[1].MatchingMessage)
	assert.Equal(t, t0.Add(time.Hour), hits[1].CreateTime)
	assert.Equal(t, t0.Add(time.Hour+2*time.Minute), hits[1].Timestamp)
	assert.Equal(t, "a", hits[2].SessionID)
	assert.Equal(t, str("hello from Tokyo"), hits[2].MatchingMessage)

	limited, err := q.SearchSessionsByContent(ctx, "hello", "user", "my_agent", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].SessionID)

	upper, err := q.SearchSessionsByContent(ctx, "Hello", "user", "my_agent", 10)
	require.NoError(t, err)
	require.Len(t, upper, 1)
	assert.Equal(t, str("Hello with a capital"), upper[0].MatchingMessage)

	wild, err := q.SearchSessionsByContent(ctx, "%", "user", "my_agent", 10)
	require.NoError(t, err)
	assert.Empty(t, wild)
}

func TestLoadSession(t *testing.T) {
	ctx := context.Background()
	r, q := newFixture(t)

	s := mustSession(t, r, "s1", "user", t0)
	say(t, r, s, "user", "What time is it in Tokyo?", t0.Add(time.Minute))
	appendPart(t, r, s, "root_agent", &genai.Part{FunctionCall: &genai.FunctionCall{Name: "get_current_time"}}, t0.Add(2*time.Minute))
	insertRawEvent(t, r, s, "bad", "root_agent", "{oops", `{"a":1}`, t0.Add(3*time.Minute))

	got, err := q.LoadSession(ctx, "s1", "user", "my_agent")
	require.NoError(t, err)
	assert.Equal(t, "my_agent", got.AppName)
	assert.Equal(t, "user", got.UserID)
	require.Len(t, got.Events, 3)
	assert.Equal(t, []string{"What time is it in Tokyo?"}, got.Events[0].Texts())
	assert.Equal(t, s.Events[0].ID, got.Events[0].ID)
	require.NotNil(t, got.Events[1].Content)
	assert.Equal(t, "get_current_time", got.Events[1].Content.Parts[0].FunctionCall.Name)
	assert.Nil(t, got.Events[2].Content)
	assert.JSONEq(t, `{"a":1}`, string(got.Events[2].Actions))

	_, err = q.LoadSession(ctx, "nope", "user", "my_agent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuerierDoesNotCreateMissingDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "absent.db")
	q := NewQuerier(path)

	_, err := q.ListRecentSessions(ctx, "user", "my_agent", 10)
	require.Error(t, err)
	_, err = q.GetSessionTranscript(ctx, "s1", "user", "my_agent")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	_, err = q.SearchSessionsByContent(ctx, "hello", "user", "my_agent", 5)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
