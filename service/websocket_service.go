package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arqlabs/voice-rag-be/types"
)

// WebSocketService is the gateway the voice frontend talks to: it receives
// transcribed questions as JSON frames and pushes grounded answers back on
// the same connection.
type WebSocketService struct {
	rag      *RAGService
	upgrader websocket.Upgrader
}

func NewWebSocketService(rag *RAGService) *WebSocketService {
	return &WebSocketService{
		rag: rag,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleVoice(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.writeError(conn, "invalid message")
			continue
		}
		payloadBytes, err := json.Marshal(req.Payload)
		if err != nil {
			s.writeError(conn, "invalid payload")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketQuestion:
			var payload types.WebsocketQuestionPayload
			if err := json.Unmarshal(payloadBytes, &payload); err != nil {
				s.writeError(conn, "invalid question payload")
				continue
			}

			resp, err := s.rag.Ask(ctx, payload.Text, 0)
			if err != nil {
				log.Println("Ask error:", err)
				s.writeError(conn, askErrorMessage(err))
				continue
			}

			answer := types.WebsocketResponse{
				Type: types.TypeWebsocketAnswer,
				Payload: types.WebsocketAnswerPayload{
					Text:    resp.Answer,
					Sources: resp.Sources,
				},
			}
			if err := conn.WriteJSON(answer); err != nil {
				log.Println("Write error:", err)
				continue
			}

		case types.TypeWebsocketPing:
			pong := types.WebsocketResponse{
				Type:    types.TypeWebsocketPong,
				Payload: nil,
			}
			if err := conn.WriteJSON(pong); err != nil {
				log.Println("Write error:", err)
			}

		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

func (s *WebSocketService) writeError(conn *websocket.Conn, message string) {
	res := types.WebsocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebsocketErrorPayload{Message: message},
	}
	if err := conn.WriteJSON(res); err != nil {
		log.Println("Write error:", err)
	}
}

func askErrorMessage(err error) string {
	switch {
	case errors.Is(err, types.ErrNotReady):
		return "knowledge base is not built yet"
	case errors.Is(err, types.ErrInvalidQuery):
		return "question is empty"
	case errors.Is(err, types.ErrEmbeddingUnavailable):
		return "embedding service unavailable"
	case errors.Is(err, types.ErrGenerationBackend):
		return "answer generation failed"
	default:
		return "internal error"
	}
}

func (s *WebSocketService) Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
