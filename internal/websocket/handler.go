package websocket

import (
	"context"
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/ladle/internal/auth"
	"github.com/dukerupert/ladle/internal/rtdb"
)

// Memberships answers whether a user belongs to a group.
type Memberships interface {
	IsMember(ctx context.Context, groupID, uid string) (bool, error)
}

// HandleList returns an HTTP handler that authenticates the caller,
// checks group membership, and upgrades the connection to a snapshot
// stream for one list. Credentials travel as query parameters because
// browser WebSocket clients cannot set headers.
func HandleList(hub *Hub, store *rtdb.Store, verifier auth.TokenVerifier, groups Memberships, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("id")
		groupID := r.URL.Query().Get("groupId")
		token := r.URL.Query().Get("token")

		if listID == "" || groupID == "" {
			http.Error(w, "Missing list or group ID", http.StatusBadRequest)
			return
		}
		if token == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		uid, err := verifier.Verify(token)
		if err != nil {
			http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
			return
		}

		member, err := groups.IsMember(r.Context(), groupID, uid)
		if err != nil {
			http.Error(w, "Membership check failed", http.StatusInternalServerError)
			return
		}
		if !member {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // App origin varies per deployment
		})
		if err != nil {
			logger.Warn("websocket accept failed", "error", err)
			return
		}

		client := NewClient(hub, conn, store, Viewer{UID: uid, GroupID: groupID, ListID: listID})
		if err := client.Run(r.Context()); err != nil {
			logger.Warn("websocket session failed", "uid", uid, "list", listID, "error", err)
			conn.Close(ws.StatusInternalError, "subscription failed")
			return
		}
		conn.Close(ws.StatusNormalClosure, "")
	}
}
