package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/banilabs/banitrack/internal/app"
)

// writeTimeout bounds a single websocket frame write.
const writeTimeout = 5 * time.Second

// wsEvent is one frame on the event stream.
type wsEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// subtitlePayload is the JSON shape of a subtitle update.
type subtitlePayload struct {
	Text   string `json:"text"`
	Phrase string `json:"phrase,omitempty"`
}

// noSpeechPayload is the JSON shape of a no-speech counter update.
type noSpeechPayload struct {
	Count     int  `json:"count"`
	Exhausted bool `json:"exhausted"`
}

// handleEvents streams session events over a websocket. The connection is
// write-only from the server side; a slow client loses events rather than
// stalling the bus.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // caption overlays are served cross-origin
	})
	if err != nil {
		s.log.Warn("websocket accept failed", slog.Any("error", err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	m := s.app.Metrics()
	m.ActiveStreams.Add(r.Context(), 1)
	defer m.ActiveStreams.Add(r.Context(), -1)

	// CloseRead pumps incoming frames (we expect none) and cancels the
	// context when the client goes away.
	ctx := conn.CloseRead(r.Context())

	events := make(chan wsEvent, 32)
	send := func(ev wsEvent) {
		select {
		case events <- ev:
		default:
		}
	}

	onSubtitle := func(e app.SubtitleEvent) {
		send(wsEvent{Type: "subtitle", Data: subtitlePayload{Text: e.Text, Phrase: e.Phrase}})
	}
	onAlignment := func(e app.AlignmentEvent) {
		send(wsEvent{Type: "alignment", Data: toPositionPayload(e.Position)})
	}
	onState := func(e app.StateEvent) {
		send(wsEvent{Type: "speech_state", Data: map[string]string{"state": e.State.String()}})
	}
	onNoSpeech := func(e app.NoSpeechEvent) {
		send(wsEvent{Type: "no_speech", Data: noSpeechPayload{Count: e.Count, Exhausted: e.Exhausted}})
	}
	onError := func(err error) {
		send(wsEvent{Type: "speech_error", Data: map[string]string{"error": err.Error()}})
	}

	bus := s.app.Bus()
	subscriptions := []struct {
		topic   string
		handler any
	}{
		{app.TopicSubtitle, onSubtitle},
		{app.TopicAlignment, onAlignment},
		{app.TopicSpeechState, onState},
		{app.TopicNoSpeech, onNoSpeech},
		{app.TopicSpeechError, onError},
	}
	for _, sub := range subscriptions {
		if err := bus.Subscribe(sub.topic, sub.handler); err != nil {
			s.log.Error("event subscription failed", slog.String("topic", sub.topic), slog.Any("error", err))
			return
		}
	}
	defer func() {
		for _, sub := range subscriptions {
			if err := bus.Unsubscribe(sub.topic, sub.handler); err != nil {
				s.log.Warn("event unsubscribe failed", slog.String("topic", sub.topic), slog.Any("error", err))
			}
		}
	}()

	// Prime the client with the current state so late joiners render
	// immediately.
	send(wsEvent{Type: "snapshot", Data: s.alignmentSnapshot()})

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev := <-events:
			data, err := json.Marshal(ev)
			if err != nil {
				s.log.Error("event encoding failed", slog.String("type", ev.Type), slog.Any("error", err))
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
