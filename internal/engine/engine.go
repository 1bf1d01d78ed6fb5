package engine

import (
	"collabiora-client/internal/engine/actors"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/platform"
	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine spawns and coordinates the state-owning actors. Each shared
// collection (favorites, follow set, thread cache) lives inside exactly one
// actor, so no concurrent writer ever touches a collection directly.
type Engine struct {
	relationsActor *actor.PID
	forumActor     *actor.PID
}

func NewEngine(system *actor.ActorSystem, api platform.API, sess *session.Session, notifier *notify.Hub, metrics *utils.MetricsCollector) *Engine {
	context := system.Root

	relationsProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewRelationsActor(api, sess, notifier, metrics)
	})
	relationsPID := context.Spawn(relationsProps)

	forumProps := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewForumActor(api, sess, notifier, metrics)
	})
	forumPID := context.Spawn(forumProps)

	return &Engine{
		relationsActor: relationsPID,
		forumActor:     forumPID,
	}
}

// GetRelationsActor returns the PID of the relations actor
func (e *Engine) GetRelationsActor() *actor.PID {
	return e.relationsActor
}

// GetForumActor returns the PID of the forum actor
func (e *Engine) GetForumActor() *actor.PID {
	return e.forumActor
}
