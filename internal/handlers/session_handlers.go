package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"collabiora-client/internal/engine/actors"
	"collabiora-client/internal/middleware"
	"collabiora-client/internal/models"

	"github.com/google/uuid"
)

// LoginRequest carries the credentials the UI obtained from the platform's
// own sign-in flow: the user id and the platform bearer token.
type LoginRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

// LoginResponse returns the bridge's locally issued session token.
type LoginResponse struct {
	UserID       string `json:"userId"`
	SessionToken string `json:"sessionToken"`
}

// HandleLogin records the signed-in user, issues the bridge session token,
// and kicks off the initial relations load.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			http.Error(w, "Invalid user ID format", http.StatusBadRequest)
			return
		}
		if req.Token == "" {
			http.Error(w, "Platform token is required", http.StatusBadRequest)
			return
		}

		s.Session.Authenticate(userID, req.Token)

		sessionToken, err := middleware.GenerateToken(userID)
		if err != nil {
			http.Error(w, "Failed to issue session token", http.StatusInternalServerError)
			return
		}

		// Warm the favorites and follow sets for the new session.
		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.ReloadRelationsMsg{})
		if !ok {
			return
		}
		if _, isStatus := result.(*models.StatusResponse); !isStatus {
			s.respond(w, result)
			return
		}

		s.respond(w, &LoginResponse{UserID: userID.String(), SessionToken: sessionToken})
	}
}

// HandleLogout clears the session. In-flight sync results from before the
// logout are dropped by the actors via the session epoch.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Session.Logout()
		s.respond(w, &models.StatusResponse{Success: true, Message: "signed out"})
	}
}

// HandleNotifications exposes the rolling toast window to the UI.
func (s *Server) HandleNotifications() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, s.Notifier.Recent())
	}
}

// HandleHealth reports engine liveness plus the metrics snapshot.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		future := s.Context.RequestFuture(s.Engine.GetForumActor(), &actors.GetCountsMsg{}, s.RequestTimeout)
		result, err := future.Result()
		if err != nil {
			http.Error(w, "Failed to get forum counts", http.StatusInternalServerError)
			return
		}
		counts := result.(*actors.ForumCounts)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":        "healthy",
			"authenticated": s.Session.IsAuthenticated(),
			"forum":         counts,
			"metrics":       s.Metrics.Snapshot(),
			"server_time":   time.Now(),
		})
	}
}
