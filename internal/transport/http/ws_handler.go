package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var errUnsupportedIntent = errors.New("unsupported message type")

// WSHandler is the browser-facing view: it starts one session per
// connection, forwards intents into it and streams change events back.
type WSHandler struct {
	service     *app.QuizService
	defaultQuiz string
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, defaultQuiz string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service:     service,
		defaultQuiz: defaultQuiz,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type intentPayload struct {
	Index   *int `json:"index"`
	Option  int  `json:"option"`
	Guessed bool `json:"guessed"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a quiz session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		quizID = h.defaultQuiz
	}
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	session, err := h.service.Start(r.Context(), quizID)
	if err != nil {
		h.log.Warn().Err(err).Str("quiz", quizID).Msg("session start failed")
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Close(context.Background(), session.ID())

	events, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: string(evt.Type), Payload: evt}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := dispatch(session, inbound); err != nil {
			reply(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// reply queues msg for the writer unless the writer has already exited.
func reply(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

// dispatch applies one view intent. Resulting state reaches the client as a
// session event.
func dispatch(session *app.Session, msg inboundMessage) error {
	var p intentPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid payload")
		}
	}
	index := session.Current()
	if p.Index != nil {
		index = *p.Index
	}

	switch msg.Type {
	case "select":
		return session.SelectOption(index, domain.Option(p.Option))
	case "guess":
		return session.SetGuessed(index, p.Guessed)
	case "navigate":
		if p.Index == nil {
			return errors.New("navigate requires an index")
		}
		_, err := session.LoadQuestion(index)
		return err
	case "next":
		_, err := session.Next()
		return err
	case "prev":
		_, err := session.Prev()
		return err
	case "pause":
		return session.Pause()
	case "resume":
		return session.Resume()
	case "togglePause":
		_, err := session.TogglePause()
		return err
	case "submit":
		session.Submit()
		return nil
	default:
		return errUnsupportedIntent
	}
}
