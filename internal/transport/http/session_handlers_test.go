package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/sessionchat/internal/proto"
	"github.com/vovakirdan/sessionchat/internal/store"
)

func getJSON(t *testing.T, env *testEnv, path, token string, out any) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := env.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func seedSession(t *testing.T, st store.Store, owner string, contents ...string) *store.Session {
	t.Helper()
	ctx := context.Background()

	session, err := st.CreateSession(ctx, owner, "seeded")
	require.NoError(t, err)
	ids := make([]int64, 0, len(contents))
	for _, content := range contents {
		sender := owner
		msg, err := st.CreateMessage(ctx, &store.Message{SessionID: session.ID, SenderUserID: &sender, Content: content})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}
	require.NoError(t, st.ConnectMessages(ctx, session.ID, ids...))
	return session
}

func TestListSessionsEndpoint(t *testing.T) {
	env := startTestServer(t, testConfig())
	seedSession(t, env.store, "1", "a", "b")
	seedSession(t, env.store, "2")

	var sessions []proto.Session
	require.Equal(t, http.StatusOK, getJSON(t, env, "/api/sessions?userId=1", "", &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, "1", sessions[0].OwnerUserID)
	require.Len(t, sessions[0].Messages, 2)

	require.Equal(t, http.StatusBadRequest, getJSON(t, env, "/api/sessions", "", nil))
}

func TestGetSessionEndpoint(t *testing.T) {
	env := startTestServer(t, testConfig())
	session := seedSession(t, env.store, "1", "first", "second")

	var got proto.Session
	require.Equal(t, http.StatusOK, getJSON(t, env, "/api/sessions/"+formatID(session.ID), "", &got))
	require.Equal(t, formatID(session.ID), got.ID)
	require.Len(t, got.Messages, 2)
	require.Equal(t, "first", got.Messages[0].Content)
	require.Equal(t, "second", got.Messages[1].Content)

	require.Equal(t, http.StatusBadRequest, getJSON(t, env, "/api/sessions/abc", "", nil))
	require.Equal(t, http.StatusNotFound, getJSON(t, env, "/api/sessions/999", "", nil))
}
