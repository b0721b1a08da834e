package handlers

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outsourceats/hirex/internal/config"
)

func TestActivityWebSocketReleasesGoroutinesOnDisconnect(t *testing.T) {
	prev := cfg
	cfg = &config.Config{
		AllowedOrigins:  []string{"http://hirex.test"},
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
	defer func() { cfg = prev }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/activity", ActivityWebSocket)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/activity"
	header := http.Header{"Origin": []string{"http://hirex.test"}}

	baseline := runtime.NumGoroutine()

	for i := 0; i < 10; i++ {
		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		require.NoError(t, err)
		if resp != nil {
			resp.Body.Close()
		}

		var welcome ActivityEvent
		require.NoError(t, conn.ReadJSON(&welcome))
		assert.Equal(t, "connected", welcome.Type)

		require.NoError(t, conn.Close())
	}

	// Each connection spawns a ping goroutine that must exit with the
	// read loop instead of blocking on the stopped ticker.
	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= baseline+3
	}, 2*time.Second, 50*time.Millisecond)
}

func TestActivityWebSocketRejectsUnknownOrigin(t *testing.T) {
	prev := cfg
	cfg = &config.Config{
		AllowedOrigins:  []string{"http://hirex.test"},
		DefaultPageSize: 20,
		MaxPageSize:     100,
	}
	defer func() { cfg = prev }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/activity", ActivityWebSocket)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/activity"
	header := http.Header{"Origin": []string{"http://evil.test"}}

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		resp.Body.Close()
	}
	if conn != nil {
		conn.Close()
	}
}
