package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"collabiora-client/internal/engine"
	"collabiora-client/internal/loadsched"
	"collabiora-client/internal/middleware"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
)

// Server holds the bridge dependencies: the actor system, the engine that
// owns the state-holding actors, and the per-process session.
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Session        *session.Session
	Notifier       *notify.Hub
	Scheduler      *loadsched.Scheduler
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	sess *session.Session,
	notifier *notify.Hub,
	scheduler *loadsched.Scheduler,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		Session:        sess,
		Notifier:       notifier,
		Scheduler:      scheduler,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// Routes builds the bridge router. Reads are open; mutations sit behind the
// bridge session token so a stray local process cannot act as the user.
func (s *Server) Routes(corsConfig *middleware.CORSConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(corsConfig))

	r.Get("/health", s.HandleHealth())
	r.Post("/session", s.HandleLogin())
	r.Get("/notifications", s.HandleNotifications())

	r.Get("/favorites", s.HandleGetFavorites())
	r.Get("/favorites/contains", s.HandleIsFavorite())
	r.Get("/following", s.HandleGetFollowing())
	r.Get("/communities/{communityID}/following", s.HandleIsFollowingCommunity())

	r.Get("/threads", s.HandleGetThreads())
	r.Get("/threads/{threadID}/tree", s.HandleGetThreadTree())
	r.Get("/tags", s.HandleGetTags())
	r.Get("/communities/{communityID}/subcategories", s.HandleGetSubcategories())

	// Mutations require the locally issued session token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)

		r.Delete("/session", s.HandleLogout())
		r.Post("/favorites/toggle", s.HandleToggleFavorite())
		r.Post("/follow/toggle", s.HandleToggleFollow())
		r.Post("/threads", s.HandleCreateThread())
		r.Post("/threads/{threadID}/expand", s.HandleToggleExpand())
		r.Post("/threads/{threadID}/replies", s.HandlePostReply())
		r.Post("/votes", s.HandleVote())
		r.Post("/communities/{communityID}/subcategories", s.HandleCreateSubcategory())
	})

	return r
}

// ask sends a message to an actor and waits for the reply, translating
// transport failures into a gateway-timeout response. The second return is
// false when the response has already been written.
func (s *Server) ask(w http.ResponseWriter, pid *actor.PID, msg interface{}) (interface{}, bool) {
	s.Metrics.IncrementRequests()
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		s.Metrics.IncrementErrors()
		http.Error(w, fmt.Sprintf("engine did not respond: %v", err), http.StatusGatewayTimeout)
		return nil, false
	}
	return result, true
}

// respond writes the actor's answer: AppErrors map to their HTTP status,
// anything else is encoded as JSON.
func (s *Server) respond(w http.ResponseWriter, result interface{}) {
	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors()
		http.Error(w, appErr.Error(), utils.AppErrorToHTTPStatus(appErr.Code))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}
