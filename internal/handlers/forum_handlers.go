package handlers

import (
	stdctx "context"
	"net/http"

	"collabiora-client/internal/engine/actors"
	"collabiora-client/internal/models"
	"collabiora-client/internal/tags"
	"collabiora-client/internal/utils"

	"github.com/go-chi/chi/v5"
)

// PostReplyRequest is a new reply; ParentReplyID nil means top level.
type PostReplyRequest struct {
	ParentReplyID *string `json:"parentReplyId,omitempty"`
	Body          string  `json:"body"`
}

// VoteRequest is a vote on a thread or reply.
type VoteRequest struct {
	NodeID    string                 `json:"nodeId"`
	Kind      models.VoteContentType `json:"kind"`
	Direction models.VoteDirection   `json:"direction"`
	ThreadID  string                 `json:"threadId,omitempty"`
}

// CreateSubcategoryRequest names a new subcategory within a community.
type CreateSubcategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ThreadListResponse pairs the filtered threads with the loading
// presentation the UI should have shown for this fetch.
type ThreadListResponse struct {
	Threads      []*models.ThreadNode `json:"threads"`
	Presentation string               `json:"presentation"`
}

// HandleGetThreads loads the thread list through the loading scheduler, so
// the response also tells the UI which loading treatment fit the fetch.
func (s *Server) HandleGetThreads() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := &actors.LoadThreadsMsg{
			CommunityID: r.URL.Query().Get("communityId"),
			Sort:        r.URL.Query().Get("sort"),
			Tag:         r.URL.Query().Get("tag"),
		}

		data, presentation, err := s.Scheduler.Run(r.Context(), "load_threads", func(ctx stdctx.Context) (interface{}, error) {
			future := s.Context.RequestFuture(s.Engine.GetForumActor(), msg, s.RequestTimeout)
			result, err := future.Result()
			if err != nil {
				return nil, utils.NewAppError(utils.ErrActorTimeout, "engine did not respond", err)
			}
			if appErr, ok := result.(*utils.AppError); ok {
				return nil, appErr
			}
			return result, nil
		})
		if err != nil {
			s.Metrics.IncrementErrors()
			if appErr, ok := err.(*utils.AppError); ok {
				http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		s.respond(w, &ThreadListResponse{
			Threads:      data.([]*models.ThreadNode),
			Presentation: string(presentation),
		})
	}
}

// HandleGetThreadTree returns the nested reply tree for one thread.
// ?force=true bypasses the cache.
func (s *Server) HandleGetThreadTree() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.LoadThreadMsg{
			ThreadID:    chi.URLParam(r, "threadID"),
			ForceReload: r.URL.Query().Get("force") == "true",
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleToggleExpand flips the thread's expansion state. The UI issues the
// tree fetch itself when the response says NeedsLoad.
func (s *Server) HandleToggleExpand() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.ToggleExpandMsg{
			ThreadID: chi.URLParam(r, "threadID"),
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleVote records a vote and returns the server's authoritative score.
func (s *Server) HandleVote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VoteRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.VoteMsg{
			NodeID:    req.NodeID,
			Kind:      req.Kind,
			Direction: req.Direction,
			ThreadID:  req.ThreadID,
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandlePostReply posts a reply into the thread at the given nesting point.
func (s *Server) HandlePostReply() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PostReplyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.PostReplyMsg{
			ThreadID:      chi.URLParam(r, "threadID"),
			ParentReplyID: req.ParentReplyID,
			Body:          req.Body,
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleCreateThread validates and submits a new thread draft.
func (s *Server) HandleCreateThread() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var draft tags.ThreadDraft
		if !decodeJSON(w, r, &draft) {
			return
		}

		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.CreateThreadMsg{Draft: &draft})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleGetTags returns the filter vocabulary for the community (or the
// global forum when communityId is absent).
func (s *Server) HandleGetTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.BuildVocabularyMsg{
			CommunityID: r.URL.Query().Get("communityId"),
		})
		if !ok {
			return
		}
		s.respond(w, map[string]interface{}{"tags": result})
	}
}

// HandleGetSubcategories lists a community's subcategories.
func (s *Server) HandleGetSubcategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.GetSubcategoriesMsg{
			CommunityID: chi.URLParam(r, "communityID"),
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}

// HandleCreateSubcategory creates a subcategory within a community.
func (s *Server) HandleCreateSubcategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSubcategoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		result, ok := s.ask(w, s.Engine.GetForumActor(), &actors.CreateSubcategoryMsg{
			CommunityID: chi.URLParam(r, "communityID"),
			Name:        req.Name,
			Description: req.Description,
		})
		if !ok {
			return
		}
		s.respond(w, result)
	}
}
