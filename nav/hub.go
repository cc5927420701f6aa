package nav

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"wander/directions"
	"wander/journeyctx"
	"wander/middleware"
	"wander/models"
	"wander/utils"
)

// Client is one connected device on a user's navigation feed.
type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

type feedMsg struct {
	UserID string
	Data   []byte
}

// Hub fans navigation events out to every device a user has connected.
type Hub struct {
	feeds      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan feedMsg
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		feeds:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan feedMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.feeds[client.UserID] == nil {
				h.feeds[client.UserID] = make(map[*Client]bool)
			}
			h.feeds[client.UserID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if feed, ok := h.feeds[client.UserID]; ok {
				if _, ok := feed[client]; ok {
					delete(feed, client)
					close(client.Send)
					if len(feed) == 0 {
						delete(h.feeds, client.UserID)
					}
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.feeds[msg.UserID] {
				select {
				case client.Send <- msg.Data:
				default:
					close(client.Send)
					delete(h.feeds[msg.UserID], client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Emit pushes an event onto the user's feed. Delivery is best effort: a
// device that cannot keep up is dropped, never waited on.
func (h *Hub) Emit(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Println("[Nav] marshal event:", err)
		return
	}
	h.broadcast <- feedMsg{UserID: userID, Data: data}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type inboundPayload struct {
	Action  string   `json:"action"`
	Lon     float64  `json:"lon"`
	Lat     float64  `json:"lat"`
	Heading *float64 `json:"heading"`
	StopID  string   `json:"stopid"`
	Query   string   `json:"query"`
}

// WebSocketHandler upgrades a device connection onto the user's navigation
// feed. Each connection gets its own engine and geocode coalescer; both are
// torn down with the connection.
func WebSocketHandler(hub *Hub, manager *journeyctx.Manager, dir *directions.Client) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			// Browsers cannot set headers on WS upgrades; accept the token
			// as a query parameter instead.
			claims, err := middleware.ValidateJWT("Bearer " + r.URL.Query().Get("token"))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			userID = claims.UserID
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("[Nav] upgrade failed:", err)
			return
		}

		client := &Client{Conn: conn, Send: make(chan []byte, 256), UserID: userID}
		session := manager.Session(userID)

		engine := NewEngine(session, func(ev Event) { hub.Emit(userID, ev) })

		coalescer := directions.NewCoalescer(
			func(ctx context.Context, q string) ([]directions.Place, error) {
				return dir.Geocode(ctx, q, 5)
			},
			func(q string, places []directions.Place) {
				data, err := json.Marshal(Event{Type: "suggestions", Query: q, Suggestions: places})
				if err != nil {
					return
				}
				select {
				case client.Send <- data:
				default:
				}
			},
			directions.GeocodeDebounce,
		)

		unsubscribe := session.SubscribeLive(func(j *models.Journey) {
			engine.Reset()
			var stops []models.Coordinates
			if j != nil {
				stops = make([]models.Coordinates, len(j.Stops))
				for i, s := range j.Stops {
					stops[i] = s.Coordinates
				}
			}
			// Mode reads the session, so it has to leave the mutating
			// goroutine. The route lookup rides along.
			go func() {
				hub.Emit(userID, Event{Type: "mode", Mode: session.Mode()})
				if len(stops) < 2 {
					return
				}
				route, err := dir.Route(context.Background(), stops)
				if err != nil {
					log.Println("[Nav] route lookup failed:", err)
					return
				}
				if route != nil {
					hub.Emit(userID, Event{Type: "route", Route: route})
				}
			}()
		})

		hub.register <- client
		go writePump(client)
		go readPump(client, hub, engine, coalescer, unsubscribe)
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func readPump(c *Client, hub *Hub, engine *Engine, coalescer *directions.Coalescer, unsubscribe func()) {
	defer func() {
		unsubscribe()
		coalescer.Stop()
		engine.Reset()
		hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		var in inboundPayload
		if err := json.Unmarshal(raw, &in); err != nil {
			log.Println("[Nav] invalid payload:", err)
			continue
		}
		switch in.Action {
		case "location":
			heading := math.NaN()
			if in.Heading != nil {
				heading = *in.Heading
			}
			engine.HandleLocation(context.Background(), in.Lon, in.Lat, heading)
		case "focus":
			engine.HandleFocus(in.StopID)
		case "geocode":
			coalescer.Query(context.Background(), in.Query)
		default:
			log.Println("[Nav] unknown action:", in.Action)
		}
	}
}
