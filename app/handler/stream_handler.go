package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/eventbus"
	"shiftboard/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxTopics  = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// assignmentReader resolves whether the caller may watch an assignment
type assignmentReader interface {
	Get(ctx context.Context, actorID, assignmentID string) (*model.AssignmentDetail, error)
}

type offerReader interface {
	Get(ctx context.Context, offerID string) (*model.Offer, error)
}

// StreamHandler pushes committed events to websocket subscribers
type StreamHandler struct {
	bus         *eventbus.Bus
	offers      offerReader
	assignments assignmentReader
}

// NewStreamHandler creates stream handler
func NewStreamHandler(bus *eventbus.Bus, offers offerReader, assignments assignmentReader) *StreamHandler {
	return &StreamHandler{bus: bus, offers: offers, assignments: assignments}
}

// Subscribe opens a websocket feed for the requested topics
// @Summary Event stream
// @Tags stream
// @Param topic query []string true "offer:{id}, assignment:{id} or worker:{id}"
// @Router /api/v1/stream [get]
func (h *StreamHandler) Subscribe(c *gin.Context) {
	topics, err := h.authorizeTopics(c, c.QueryArray("topic"))
	if err != nil {
		writeError(c, err)
		return
	}
	if len(topics) == 0 {
		badRequest(c, "at least one topic is required")
		return
	}

	// subscribe before the handshake completes so no event after it is missed
	sub := h.bus.Subscribe(topics...)
	defer sub.Close()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to upgrade to websocket: %v", err)
		return
	}
	defer ws.Close()

	logger.DebugCtx(c.Request.Context(), "stream opened for %s, topics: %v", actor(c), topics)

	done := make(chan struct{})
	go readPump(ws, done)
	writePump(ws, sub, done)
}

// authorizeTopics rejects unknown topics and any feed the caller is not party to
func (h *StreamHandler) authorizeTopics(c *gin.Context, raw []string) ([]string, error) {
	me := actor(c)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		for _, topic := range strings.Split(t, ",") {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				continue
			}
			if !eventbus.ValidTopic(topic) {
				return nil, validationErr("unknown topic " + topic)
			}
			switch {
			case strings.HasPrefix(topic, "worker:"):
				if topic != eventbus.WorkerTopic(me) {
					return nil, forbiddenErr("you may only subscribe to your own worker feed")
				}
			case strings.HasPrefix(topic, "offer:"):
				o, err := h.offers.Get(c.Request.Context(), strings.TrimPrefix(topic, "offer:"))
				if err != nil {
					return nil, err
				}
				if me != o.PosterID && (o.AcceptedBy == nil || me != *o.AcceptedBy) {
					return nil, forbiddenErr("only the poster or the accepting worker may follow this offer")
				}
			case strings.HasPrefix(topic, "assignment:"):
				if _, err := h.assignments.Get(c.Request.Context(), me, strings.TrimPrefix(topic, "assignment:")); err != nil {
					return nil, err
				}
			}
			out = append(out, topic)
		}
	}
	if len(out) > maxTopics {
		return nil, validationErr("too many topics")
	}
	return out, nil
}

// readPump drains client frames so pongs and close frames are processed
func readPump(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ws *websocket.Conn, sub *eventbus.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt, ok := <-sub.C():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := ws.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
