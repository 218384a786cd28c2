package changefeed

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"thangd/middleware"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; tighten for production deployments.
		return true
	},
}

// WSHandler exposes the two subscribe operations over WebSocket.
type WSHandler struct {
	feeds *Feeds
}

func NewWSHandler(feeds *Feeds) *WSHandler {
	return &WSHandler{feeds: feeds}
}

// BookingChanges streams filtered booking events for one thang. Optional
// from/to query params (epoch ms) narrow delivery to intersecting windows.
// An unknown thang id is not an error; the stream just stays quiet.
func (h *WSHandler) BookingChanges(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	thangID := ps.ByName("thangid")
	from := queryInstant(r, "from")
	to := queryInstant(r, "to")

	sub, err := h.feeds.Bookings.Subscribe(BookingsOnThang(thangID, from, to))
	if err != nil {
		http.Error(w, "change feed unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		return
	}
	h.pump(conn, sub)
}

// ThangChanges streams events for one thang, or for every thang the caller
// owns when the target is "mine" (token required for that form).
func (h *WSHandler) ThangChanges(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	target := ps.ByName("target")

	var pred Predicate
	if target == "mine" {
		claims, err := middleware.ValidateJWT("Bearer " + r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		pred = ThangsOwnedBy(claims.UserID)
	} else {
		pred = ThangByID(target)
	}

	sub, err := h.feeds.Thangs.Subscribe(pred)
	if err != nil {
		http.Error(w, "change feed unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		return
	}
	h.pump(conn, sub)
}

// pump writes the subscription's events to the socket until either side
// goes away. The reader goroutine exists only to notice client disconnects.
func (h *WSHandler) pump(conn *websocket.Conn, sub *Subscription) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	defer sub.Cancel()
	for {
		select {
		case c, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := conn.WriteJSON(c); err != nil {
				log.Printf("changefeed: ws write: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}

func queryInstant(r *http.Request, key string) *int64 {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &ms
}
