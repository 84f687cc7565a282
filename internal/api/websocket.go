package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/rthmn/signal-engine/internal/ingest"
	"github.com/rthmn/signal-engine/pkg/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// boxUpdateData is the payload of a boxUpdate ingress message.
type boxUpdateData struct {
	Boxes     []models.Box `msgpack:"boxes"`
	Price     float64      `msgpack:"price"`
	Timestamp string       `msgpack:"timestamp"`
}

// wsMessage is the generic envelope for every ingress frame. The
// authentication envelope itself (what "auth" actually validates) is
// out of scope for this engine — any auth frame is accepted, matching
// the upstream box engine's trusted-origin deployment.
type wsMessage struct {
	Type  string         `msgpack:"type"`
	Token string         `msgpack:"token,omitempty"`
	Pair  string         `msgpack:"pair,omitempty"`
	Data  *boxUpdateData `msgpack:"data,omitempty"`
}

func encodeFrame(msgType string) []byte {
	data, _ := msgpack.Marshal(wsMessage{Type: msgType})
	return data
}

// HandleIngress upgrades the connection and drives the
// authRequired → auth → welcome handshake, then dispatches boxUpdate
// and ignores heartbeat frames until the client disconnects.
func (h *Handler) HandleIngress(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, encodeFrame("authRequired")); err != nil {
		return
	}

	authenticated := false
	log.Println("[WS] ingress client connected")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] read error: %v", err)
			}
			break
		}
		if msgType != websocket.BinaryMessage {
			continue
		}

		var msg wsMessage
		if err := msgpack.Unmarshal(data, &msg); err != nil {
			// input-malformed: drop silently per the error-handling design.
			continue
		}

		switch msg.Type {
		case "auth":
			authenticated = true
			if err := conn.WriteMessage(websocket.BinaryMessage, encodeFrame("welcome")); err != nil {
				return
			}
			log.Println("[WS] ingress client authenticated")
		case "boxUpdate":
			if !authenticated || msg.Pair == "" || msg.Data == nil || len(msg.Data.Boxes) == 0 {
				continue
			}
			update := ingest.BoxUpdate{
				Pair:  msg.Pair,
				Boxes: msg.Data.Boxes,
				Price: msg.Data.Price,
			}
			go h.Dispatcher.Dispatch(context.Background(), update)
		case "heartbeat":
			// ignored, per spec.
		}
	}

	log.Println("[WS] ingress client disconnected")
}
