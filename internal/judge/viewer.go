package judge

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"judgecore/internal/metrics"
)

var viewerUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenValidator authenticates a bearer token and returns the subject it
// was issued for.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// Viewer is the Live Viewer Gateway: it authenticates a caller, sends
// whatever status snapshot already exists for a submission, then forwards
// every subsequent Status Channel event until the submission reaches a
// terminal state.
type Viewer struct {
	status  *StatusChannel
	auth    TokenValidator
	metrics *metrics.ApplicationMetrics
}

// NewViewer builds a Live Viewer Gateway.
func NewViewer(status *StatusChannel, auth TokenValidator) *Viewer {
	return &Viewer{status: status, auth: auth, metrics: metrics.NewApplicationMetrics()}
}

// ServeHTTP handles GET /ws/submissions/{id}?token=....
func (v *Viewer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid submission id", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")
	if _, err := v.auth.ValidateToken(token); err != nil {
		// Authenticate before upgrading: an invalid token never gets a
		// websocket handshake, only a plain HTTP rejection.
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := viewerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("viewer: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	v.metrics.IncViewerConnections()
	defer v.metrics.DecViewerConnections()

	ctx := r.Context()
	go pingViewerConnections(ctx, conn)

	if snapshot, ok, err := v.status.Snapshot(ctx, submissionID); err == nil && ok {
		if conn.WriteMessage(websocket.TextMessage, snapshot) != nil {
			return
		}
		if isTerminalPayload(snapshot) {
			return
		}
	}

	sub := v.status.Subscribe(ctx, submissionID)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return
			}
			if isTerminalPayload([]byte(msg.Payload)) {
				return
			}
		}
	}
}

func isTerminalPayload(payload []byte) bool {
	var event struct {
		Type   string `json:"type"`
		Status Status `json:"status"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return false
	}
	return event.Type == "final" || event.Status.Terminal()
}

// pingViewerConnections keeps idle websocket connections from being reaped
// by intermediate proxies while a submission is still running.
func pingViewerConnections(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if conn.WriteMessage(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}
