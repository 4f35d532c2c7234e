package assistant

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/casefind/casefind/internal/threads"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	ThreadID string `json:"thread_id"` // empty for new threads
	Message  string `json:"message"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type     string `json:"type"` // "response" or "error"
	ThreadID string `json:"thread_id,omitempty"`
	Result
}

func handleWebSocket(orch *Orchestrator, threadStore *threads.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("assistant: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("assistant: websocket read: %v", err)
				}
				return
			}

			var req wsRequest
			if err := json.Unmarshal(msg, &req); err != nil {
				sendError(conn, "", "invalid message format")
				continue
			}
			if req.Message == "" {
				sendError(conn, req.ThreadID, "message is required")
				continue
			}

			threadID, err := resolveThread(r.Context(), threadStore, req.ThreadID, req.Message, "")
			if err != nil {
				sendError(conn, req.ThreadID, err.Error())
				continue
			}

			result, err := orch.Answer(r.Context(), req.Message, threadID)
			if err != nil {
				sendError(conn, threadID, err.Error())
				continue
			}

			send(conn, wsResponse{Type: "response", ThreadID: threadID, Result: *result})
		}
	}
}

func send(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("assistant: websocket write: %v", err)
	}
}

func sendError(conn *websocket.Conn, threadID, message string) {
	resp := wsResponse{
		Type:     "error",
		ThreadID: threadID,
		Result:   Result{Answer: message},
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("assistant: websocket write error: %v", err)
	}
}
