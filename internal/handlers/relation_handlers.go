package handlers

import (
	"net/http"

	"collabiora-client/internal/engine/actors"
	"collabiora-client/internal/models"
	"collabiora-client/internal/utils"

	"github.com/go-chi/chi/v5"
)

// ToggleFavoriteRequest carries the full entity payload so the engine can
// resolve its identity regardless of which id fields it carries.
type ToggleFavoriteRequest struct {
	Type       models.EntityType      `json:"type"`
	Item       map[string]interface{} `json:"item"`
	FallbackID string                 `json:"fallbackId,omitempty"`
}

// ToggleFollowRequest identifies the profile or community to (un)follow.
type ToggleFollowRequest struct {
	TargetID   string `json:"targetId"`
	TargetRole string `json:"targetRole"`
}

// HandleToggleFavorite flips favorite membership for the posted entity. The
// response reflects the optimistic state; reconciliation continues in the
// background.
func (s *Server) HandleToggleFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleFavoriteRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.ToggleFavoriteMsg{
			Entity:     models.Entity{Type: req.Type, Fields: req.Item},
			FallbackID: req.FallbackID,
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleToggleFollow flips follow membership for the posted target.
func (s *Server) HandleToggleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleFollowRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.ToggleFollowMsg{
			TargetID:   req.TargetID,
			TargetRole: req.TargetRole,
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleGetFavorites returns the current favorites set, optimistic entries
// included.
func (s *Server) HandleGetFavorites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.GetFavoritesMsg{})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleGetFollowing returns the current follow set.
func (s *Server) HandleGetFollowing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.GetFollowingMsg{})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleIsFollowingCommunity answers whether the signed-in user follows the
// community in the path.
func (s *Server) HandleIsFollowingCommunity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.IsFollowingCommunityMsg{
			CommunityID: chi.URLParam(r, "communityID"),
		})
		if !ok {
			return
		}
		if _, isErr := result.(*utils.AppError); isErr {
			s.respond(w, result)
			return
		}
		s.respond(w, map[string]interface{}{"following": result})
	}
}

// HandleIsFavorite answers the membership question the UI asks when
// rendering a favorite toggle: ?type=publication&id=12345.
func (s *Server) HandleIsFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entityType := models.EntityType(r.URL.Query().Get("type"))
		id := r.URL.Query().Get("id")
		if !models.ValidType(entityType) || id == "" {
			http.Error(w, "type and id query parameters are required", http.StatusBadRequest)
			return
		}

		result, ok := s.ask(w, s.Engine.GetRelationsActor(), &actors.IsFavoriteMsg{
			Entity:     models.Entity{Type: entityType, Fields: map[string]interface{}{"id": id}},
			FallbackID: id,
		})
		if !ok {
			return
		}

		s.respond(w, map[string]interface{}{"favorite": result})
	}
}
