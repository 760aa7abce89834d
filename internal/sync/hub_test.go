package sync

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipehub/pkg/models"
)

func startServer(t *testing.T, hub *Hub) net.Addr {
	t.Helper()
	srv := NewServer("127.0.0.1:0", hub)
	done := make(chan error, 1)
	go func() { done <- srv.Run() }()
	t.Cleanup(func() {
		_ = srv.Close()
		<-done
	})

	require.Eventually(t, func() bool { return srv.ListenAddr() != nil }, time.Second, 5*time.Millisecond)
	return srv.ListenAddr()
}

func TestTCPSubscriberReceivesRecipeEvent(t *testing.T) {
	hub := NewHub(nil)
	addr := startServer(t, hub)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	r := bufio.NewReader(conn)
	welcome, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, `"type":"welcome"`)

	hub.BroadcastJSON(NewRecipeEvent(models.Recipe{ID: 3, Name: "Soup", Diets: []string{"vegetarian"}}))

	line, err := r.ReadString('\n')
	require.NoError(t, err)

	var ev RecipeEvent
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, EventRecipeCreated, ev.Type)
	assert.Equal(t, int64(3), ev.RecipeID)
	assert.Equal(t, []string{"vegetarian"}, ev.Diets)
}

func TestWebSocketSubscriberReceivesTaxonomyEvent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	router := gin.New()
	router.GET("/ws", WSHandler(hub, "http://localhost:3000"))
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, welcome, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(welcome), "websocket")
	require.Eventually(t, func() bool { return hub.Stats().WSClients == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastJSON(NewTaxonomyEvent([]string{"ketogenic", "vegetarian"}))

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	var ev TaxonomyEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventTaxonomyReconciled, ev.Type)
	assert.Equal(t, []string{"ketogenic", "vegetarian"}, ev.Labels)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	router := gin.New()
	router.GET("/ws", WSHandler(hub, "http://localhost:3000"))
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	header := map[string][]string{"Origin": {"http://evil.example"}}
	_, _, err := websocket.DefaultDialer.Dial(url, header)
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Stats().WSClients)
}

func TestBroadcastDropsDeadClients(t *testing.T) {
	hub := NewHub(nil)
	client, server := net.Pipe()
	hub.Add(server)
	_ = client.Close()

	hub.BroadcastJSON(NewTaxonomyEvent(nil))
	assert.Equal(t, 0, hub.Stats().TCPClients)
}
