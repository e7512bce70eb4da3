package playground

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"recipegen/internal/generation"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialSession(t *testing.T, server *PlaygroundServer) (*websocket.Conn, string) {
	t.Helper()
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()

	var session string
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			session = c.Value
		}
	}
	require.NotEmpty(t, session)

	header := http.Header{}
	header.Set("Cookie", SessionCookie+"="+session)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, session
}

func readUpdate(t *testing.T, conn *websocket.Conn) Update {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var u Update
	require.NoError(t, conn.ReadJSON(&u))
	return u
}

func TestWebSocketGenerate(t *testing.T) {
	gen := newGateGenerator(recipe("Shakshuka"))
	server, store, _ := newTestServer(t, gen)
	conn, session := dialSession(t, server)

	first := readUpdate(t, conn)
	assert.False(t, first.State.Loading)
	assert.Contains(t, first.HTML, "Generate Recipes")

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageGenerate, Ingredients: "eggs, tomatoes"}))
	loading := readUpdate(t, conn)
	assert.True(t, loading.State.Loading)
	assert.Equal(t, "eggs, tomatoes", loading.State.Ingredients)
	assert.Contains(t, loading.HTML, "The AI chef is thinking...")

	gen.release <- struct{}{}
	done := readUpdate(t, conn)
	assert.False(t, done.State.Loading)
	require.Len(t, done.State.Recipes, 1)
	assert.Contains(t, done.HTML, "Shakshuka")

	sh, ok := store.Get(session)
	require.True(t, ok)
	assert.Equal(t, "Shakshuka", sh.Snapshot().Recipes[0].RecipeName)
}

func TestWebSocketEditAndBlank(t *testing.T) {
	server, _, _ := newTestServer(t, newGateGenerator())
	conn, _ := dialSession(t, server)
	readUpdate(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageEdit, Ingredients: "tofu"}))
	edited := readUpdate(t, conn)
	assert.Equal(t, "tofu", edited.State.Ingredients)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageGenerate, Ingredients: ""}))
	blank := readUpdate(t, conn)
	assert.False(t, blank.State.Loading)
	assert.Equal(t, "Please enter some ingredients.", blank.State.Error)
	assert.Contains(t, blank.HTML, "Please enter some ingredients.")
}

func TestWebSocketCancel(t *testing.T) {
	server, _, _ := newTestServer(t, newGateGenerator())
	conn, _ := dialSession(t, server)
	readUpdate(t, conn)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageGenerate, Ingredients: "lentils"}))
	assert.True(t, readUpdate(t, conn).State.Loading)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageCancel}))
	cancelled := readUpdate(t, conn)
	assert.False(t, cancelled.State.Loading)
	assert.Equal(t, generation.KindCancelled.Message(), cancelled.State.Error)
}
