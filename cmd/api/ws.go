package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"autobesa/pkg/badge"
	"autobesa/pkg/catalog"
	"autobesa/pkg/otel"
	"autobesa/pkg/storefront"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsRequest is a client message. Search messages carry the raw search box
// value and an optional sort key.
type wsRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Sort  string `json:"sort,omitempty"`
}

type wsEvent struct {
	Type    string                `json:"type"`
	Badges  map[string]badge.View `json:"badges,omitempty"`
	Listing *storefront.Listing   `json:"listing,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// wsHandler pushes badge updates to the page and runs debounced searches.
// @Summary Live badges and search
// @Description Upgrades to a WebSocket. The server sends {"type":"badges"} on every count change; clients send {"type":"search","value":"..."} and receive {"type":"results"} once typing pauses.
// @Router /ws [get]
func wsHandler(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(otel.InjectTracing(context.Background(), tracer))
	defer cancel()

	out := make(chan wsEvent, 16)
	send := func(e wsEvent) {
		select {
		case out <- e:
		default:
			log.Warn(ctx, "websocket client too slow, dropping event", "profile", s.Profile, "type", e.Type)
		}
	}

	unsubscribe := s.WatchBadges(ctx, func(c badge.Counts) {
		send(wsEvent{Type: "badges", Badges: c.Views()})
	})
	defer unsubscribe()

	debounce := catalog.NewDebouncer(searchDebounce)
	defer debounce.Stop()

	go func() {
		defer cancel()
		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if req.Type != "search" {
				continue
			}
			debounce.Trigger(func() {
				if e, ok := search(ctx, s, req); ok {
					send(e)
				}
			})
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}
	}
}

// search applies the saved criteria with a new search text. It does nothing
// once the connection is gone.
func search(ctx context.Context, s *storefront.Session, req wsRequest) (wsEvent, bool) {
	if ctx.Err() != nil {
		return wsEvent{}, false
	}
	ctx, span := otel.AddSpan(ctx, "search")
	defer span.End()

	sort, err := catalog.ParseSortKey(req.Sort)
	if err != nil {
		return wsEvent{Type: "error", Error: err.Error()}, true
	}
	c, err := s.Filters.Load(ctx)
	if err != nil {
		log.Error(ctx, "load filters", "error", err)
		return wsEvent{Type: "error", Error: "internal error"}, true
	}
	c.Search = req.Value
	l, err := s.ApplyFilters(ctx, c, sort)
	if err != nil {
		log.Error(ctx, "apply filters", "error", err)
		return wsEvent{Type: "error", Error: "internal error"}, true
	}
	return wsEvent{Type: "results", Listing: &l}, true
}
