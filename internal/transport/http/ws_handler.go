package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"trivia-contest-service/internal/app"
	"trivia-contest-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service        *app.ContestService
	presenceWindow time.Duration
	upgrader       websocket.Upgrader
}

func NewWSHandler(service *app.ContestService, presenceWindow time.Duration) *WSHandler {
	return &WSHandler{
		service:        service,
		presenceWindow: presenceWindow,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type ackPayload struct {
	Op string `json:"op"`
}

type syncPayload struct {
	Versions []int64 `json:"versions"`
}

type syncResult struct {
	ChangedRounds []domain.Round `json:"changedRounds"`
	CurrentRound  int            `json:"currentRound"`
	Users         []string       `json:"users"`
}

type proposePayload struct {
	QNumber    int    `json:"qNumber"`
	Text       string `json:"text"`
	Submitter  string `json:"submitter"`
	Confidence int    `json:"confidence"`
}

type proposedResult struct {
	QueueIndex int `json:"queueIndex"`
}

type queuePayload struct {
	QueueIndex int    `json:"queueIndex"`
	Caller     string `json:"caller"`
	Operator   string `json:"operator"`
}

type questionPayload struct {
	QNumber    int    `json:"qNumber"`
	Value      int    `json:"value"`
	Text       string `json:"text"`
	AnswerText string `json:"answerText"`
	Submitter  string `json:"submitter"`
	Operator   string `json:"operator"`
}

type remapPayload struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type speedPayload struct {
	On bool `json:"on"`
}

type roundPayload struct {
	Round int    `json:"round"`
	Score int    `json:"score"`
	Place int    `json:"place"`
	Text  string `json:"text"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// contest use cases. Clients drive the sync protocol themselves: they send a
// "sync" message carrying their per-round version vector on their own poll
// timer, and never read server state outside that cycle.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan any, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, user, inbound, send)
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, user string, inbound inboundMessage, send chan<- any) {
	ctx := r.Context()

	fail := func(err error) {
		send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
	ack := func() {
		send <- outboundMessage[ackPayload]{Type: "ack", Payload: ackPayload{Op: inbound.Type}}
	}
	decode := func(into any) bool {
		if err := json.Unmarshal(inbound.Payload, into); err != nil {
			send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid " + inbound.Type + " payload"}}
			return false
		}
		return true
	}

	switch inbound.Type {
	case "sync":
		var payload syncPayload
		if !decode(&payload) {
			return
		}
		changed, err := h.service.GetChangedRounds(ctx, payload.Versions)
		if err != nil {
			fail(err)
			return
		}
		users, err := h.service.UserList(ctx, h.presenceWindow)
		if err != nil {
			log.Printf("user list unavailable: %v", err)
		}
		send <- outboundMessage[syncResult]{Type: "syncResult", Payload: syncResult{
			ChangedRounds: changed,
			CurrentRound:  h.service.CurrentRound(),
			Users:         users,
		}}
	case "propose":
		var payload proposePayload
		if !decode(&payload) {
			return
		}
		submitter := payload.Submitter
		if submitter == "" {
			submitter = user
		}
		queueIndex, err := h.service.ProposeAnswer(ctx, user, payload.QNumber, payload.Text, submitter, payload.Confidence)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[proposedResult]{Type: "proposed", Payload: proposedResult{QueueIndex: queueIndex}}
	case "callIn":
		var payload queuePayload
		if !decode(&payload) {
			return
		}
		if err := h.service.CallIn(ctx, user, payload.QueueIndex, payload.Caller); err != nil {
			fail(err)
			return
		}
		ack()
	case "markIncorrect":
		var payload queuePayload
		if !decode(&payload) {
			return
		}
		if err := h.service.MarkIncorrect(ctx, user, payload.QueueIndex, payload.Caller); err != nil {
			fail(err)
			return
		}
		ack()
	case "markPartial":
		var payload queuePayload
		if !decode(&payload) {
			return
		}
		if err := h.service.MarkPartial(ctx, user, payload.QueueIndex, payload.Caller); err != nil {
			fail(err)
			return
		}
		ack()
	case "markCorrect":
		var payload queuePayload
		if !decode(&payload) {
			return
		}
		if err := h.service.MarkCorrect(ctx, user, payload.QueueIndex, payload.Caller, payload.Operator); err != nil {
			fail(err)
			return
		}
		ack()
	case "markUncalled":
		var payload queuePayload
		if !decode(&payload) {
			return
		}
		if err := h.service.MarkUncalled(ctx, user, payload.QueueIndex); err != nil {
			fail(err)
			return
		}
		ack()
	case "openQuestion":
		var payload questionPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.OpenQuestion(ctx, user, payload.QNumber, payload.Value, payload.Text); err != nil {
			fail(err)
			return
		}
		ack()
	case "closeQuestion":
		var payload questionPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.CloseQuestion(ctx, user, payload.QNumber, payload.AnswerText); err != nil {
			fail(err)
			return
		}
		ack()
	case "markQuestionCorrect":
		var payload questionPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.MarkQuestionCorrect(ctx, user, payload.QNumber, payload.AnswerText, payload.Submitter, payload.Operator); err != nil {
			fail(err)
			return
		}
		ack()
	case "markQuestionIncorrect":
		var payload questionPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.MarkQuestionIncorrect(ctx, user, payload.QNumber); err != nil {
			fail(err)
			return
		}
		ack()
	case "editQuestion":
		var payload questionPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.EditQuestion(ctx, user, payload.QNumber, payload.Value, payload.Text); err != nil {
			fail(err)
			return
		}
		ack()
	case "resetQuestion":
		var payload questionPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.ResetQuestion(ctx, user, payload.QNumber); err != nil {
			fail(err)
			return
		}
		ack()
	case "remapQuestion":
		var payload remapPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.RemapQuestion(ctx, user, payload.From, payload.To); err != nil {
			fail(err)
			return
		}
		ack()
	case "setSpeed":
		var payload speedPayload
		if !decode(&payload) {
			return
		}
		var err error
		if payload.On {
			err = h.service.SetSpeed(ctx, user)
		} else {
			err = h.service.UnsetSpeed(ctx, user)
		}
		if err != nil {
			fail(err)
			return
		}
		ack()
	case "newRound":
		h.service.NewRound(ctx, user)
		ack()
	case "setAnnounced":
		var payload roundPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.SetAnnounced(ctx, user, payload.Round, payload.Score, payload.Place); err != nil {
			fail(err)
			return
		}
		ack()
	case "setDiscrepancy":
		var payload roundPayload
		if !decode(&payload) {
			return
		}
		if err := h.service.SetDiscrepancyText(ctx, user, payload.Round, payload.Text); err != nil {
			fail(err)
			return
		}
		ack()
	default:
		send <- outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
	}
}
