package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/freight-backend/internal/domain/event"
	"github.com/ignatzorin/freight-backend/internal/domain/valueobject"
	"github.com/ignatzorin/freight-backend/internal/interface/http/handler"
	"github.com/ignatzorin/freight-backend/internal/logger"
	"github.com/ignatzorin/freight-backend/internal/service"
	"github.com/ignatzorin/freight-backend/internal/ws"
)

var _ event.Publisher = (*ws.Hub)(nil)

func startServer(t *testing.T) (*ws.Hub, *service.TokenManager, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := ws.NewHub()
	go hub.Run(ctx)

	tokens := service.NewTokenManager("ws-secret", time.Minute)
	r := gin.New()
	r.GET("/ws", handler.NewWSHandler(hub, tokens, nil).Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return hub, tokens, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestHub_DeliversOnlyToAddressee(t *testing.T) {
	hub, tokens, url := startServer(t)

	carrierID := uuid.New()
	token, _, err := tokens.IssueAccess(carrierID, valueobject.RoleCarrier)
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Событие чужому пользователю не приходит.
	hub.Publish(uuid.New(), event.QuoteAccepted, map[string]string{"quote_id": "other"})

	// Регистрация асинхронна: публикуем, пока клиент не получит сообщение.
	received := make(chan ws.Envelope, 1)
	go func() {
		var env ws.Envelope
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		if err := conn.ReadJSON(&env); err == nil {
			received <- env
		}
	}()

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case env := <-received:
			assert.Equal(t, event.QuoteAccepted, env.Type)
			data, err := json.Marshal(env.Data)
			require.NoError(t, err)
			assert.JSONEq(t, `{"quote_id":"mine"}`, string(data))
			return
		case <-tick.C:
			hub.Publish(carrierID, event.QuoteAccepted, map[string]string{"quote_id": "mine"})
		case <-deadline:
			t.Fatal("событие не доставлено")
		}
	}
}

func TestWSHandler_RequiresToken(t *testing.T) {
	_, _, url := startServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=bad", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	logger.Discard()
	hub := ws.NewHub()

	// Хаб не запущен: очередь заполняется, лишние события отбрасываются.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(uuid.New(), event.BookingStatusChanged, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish заблокировался")
	}
}
