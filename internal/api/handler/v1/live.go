package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/greathunt/game-engine/internal/api/handler/v1/response"
	"github.com/greathunt/game-engine/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	sendBuffer = 16
)

// Scoreboard is the public player list pushed to live clients.
type Scoreboard struct {
	Type    string                `json:"type"`
	GameID  string                `json:"game_id"`
	Players []domain.PublicPlayer `json:"players"`
}

type ScoreboardService interface {
	ViewAllPublicPlayers(ctx context.Context, gameID string) ([]domain.PublicPlayer, error)
}

// Publisher is notified after anything that changes a game's scoreboard.
type Publisher interface {
	Publish(ctx context.Context, gameID string)
}

type liveClient struct {
	conn   *websocket.Conn
	send   chan []byte
	gameID string
}

type liveMessage struct {
	gameID string
	data   []byte
}

// LiveHandler fans scoreboards out to websocket clients grouped by game. Rooms are only touched by
// the Run goroutine.
type LiveHandler struct {
	svc        ScoreboardService
	upgrader   websocket.Upgrader
	rooms      map[string]map[*liveClient]bool
	broadcast  chan liveMessage
	register   chan *liveClient
	unregister chan *liveClient
	done       chan struct{}
}

func NewLiveHandler(svc ScoreboardService, allowedOrigins []string) *LiveHandler {
	return &LiveHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
		rooms:      make(map[string]map[*liveClient]bool),
		broadcast:  make(chan liveMessage, sendBuffer),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		done:       make(chan struct{}),
	}
}

// Run serves the rooms until ctx is done, then closes every client.
func (h *LiveHandler) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, room := range h.rooms {
				for client := range room {
					close(client.send)
				}
			}
			h.rooms = make(map[string]map[*liveClient]bool)
			return

		case client := <-h.register:
			room, ok := h.rooms[client.gameID]
			if !ok {
				room = make(map[*liveClient]bool)
				h.rooms[client.gameID] = room
			}
			room[client] = true

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			for client := range h.rooms[message.gameID] {
				select {
				case client.send <- message.data:
				default:
					// Slow clients are dropped rather than blocking the room.
					h.drop(client)
				}
			}
		}
	}
}

func (h *LiveHandler) drop(client *liveClient) {
	room := h.rooms[client.gameID]
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	close(client.send)
	if len(room) == 0 {
		delete(h.rooms, client.gameID)
	}
}

// Publish sends the current scoreboard of gameID to its live clients. Failures are logged and
// never surface to the request that triggered them.
func (h *LiveHandler) Publish(ctx context.Context, gameID string) {
	data, err := h.scoreboard(ctx, gameID)
	if err != nil {
		zap.L().Warn("scoreboard unavailable", zap.String("game_id", gameID), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- liveMessage{gameID: gameID, data: data}:
	case <-ctx.Done():
	case <-h.done:
	}
}

func (h *LiveHandler) scoreboard(ctx context.Context, gameID string) ([]byte, error) {
	players, err := h.svc.ViewAllPublicPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Scoreboard{
		Type:    "scoreboard",
		GameID:  gameID,
		Players: players,
	})
}

// HandleLive godoc
// @Summary      Live scoreboard
// @Description  Upgrades to a websocket that receives the public scoreboard on connect and after every join, leave and submission.
// @Tags         games
// @Param        gameID  path      string true "Game ID"
// @Success      101     {object}  v1.Scoreboard
// @Failure      400     {object}  response.Err
// @Failure      404     {object}  response.Err
// @Router       /games/{gameID}/live [get]
func (h *LiveHandler) HandleLive(ctx *gin.Context) {
	ids, respErr := pathIDs(ctx, "gameID")
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	snapshot, err := h.scoreboard(ctx.Request.Context(), ids[0])
	if err != nil {
		response.RenderErr(ctx, response.FromError(err))
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		// The upgrader has already written an error response.
		zap.L().Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &liveClient{
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		gameID: ids[0],
	}
	client.send <- snapshot

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

func (c *liveClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the connection closing; clients never send anything meaningful.
func (c *liveClient) readPump(h *LiveHandler) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("live connection closed", zap.String("game_id", c.gameID), zap.Error(err))
			}
			return
		}
	}
}
