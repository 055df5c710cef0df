package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yndd/dinesync/collection"
)

// Snapshot is the websocket frame sent for every change of a collection.
type Snapshot struct {
	Key  string                `json:"key"`
	Data collection.Collection `json:"data"`
}

// watch streams the collection of key: the current snapshot first, then one
// frame per change. Snapshots that pile up behind a slow client collapse
// into the latest one.
func (s *Server) watch(w http.ResponseWriter, r *http.Request) {
	k, ok := key(w, r)
	if !ok {
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "key", k, "error", err)
		return
	}
	defer ws.Close()
	log := s.logger.WithValues("key", k, "remote", r.RemoteAddr)

	latest := make(chan collection.Collection, 1)
	push := func(c collection.Collection) {
		for {
			select {
			case latest <- c:
				return
			default:
			}
			select {
			case <-latest:
			default:
			}
		}
	}
	unsub := s.m.Subscribe(k, push)
	defer unsub()

	initial, ok := s.m.GetData(k)
	if !ok {
		initial = collection.Collection{}
	}
	push(initial)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(s.PingInterval)
	defer ping.Stop()
	log.Debug("watch started")
	for {
		select {
		case <-closed:
			log.Debug("watch closed")
			return
		case c := <-latest:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(Snapshot{Key: k, Data: c}); err != nil {
				log.Debug("watch write failed", "error", err)
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("watch ping failed", "error", err)
				return
			}
		}
	}
}
