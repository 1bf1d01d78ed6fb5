package actors

import (
	stdctx "context"
	"log"
	"time"

	"collabiora-client/internal/identity"
	"collabiora-client/internal/models"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/platform"
	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
)

// Message types for RelationsActor
type (
	// ToggleFavoriteMsg adds or removes a favorite depending on current
	// membership. FallbackID covers entities with none of their candidate
	// identity fields present.
	ToggleFavoriteMsg struct {
		Entity     models.Entity `json:"entity"`
		FallbackID string        `json:"fallbackId,omitempty"`
	}

	// ToggleFollowMsg follows or unfollows the target profile/community.
	ToggleFollowMsg struct {
		TargetID   string `json:"targetId"`
		TargetRole string `json:"targetRole"`
	}

	GetFavoritesMsg struct{}

	GetFollowingMsg struct{}

	IsFavoriteMsg struct {
		Entity     models.Entity `json:"entity"`
		FallbackID string        `json:"fallbackId,omitempty"`
	}

	// IsFollowingCommunityMsg answers community membership: the local follow
	// set first, the backend's existence check when the set says no.
	IsFollowingCommunityMsg struct {
		CommunityID string `json:"communityId"`
	}

	// ReloadRelationsMsg refetches both relation sets, e.g. after sign-in.
	ReloadRelationsMsg struct{}

	// favoriteSyncResultMsg carries the outcome of the background favorite
	// request back onto the actor's mailbox.
	favoriteSyncResultMsg struct {
		guardKey  string
		snapshot  []models.FavoriteRecord
		refreshed []models.FavoriteRecord
		err       error
		epoch     uint64
	}

	followSyncResultMsg struct {
		guardKey  string
		snapshot  []models.FollowRelation
		refreshed []models.FollowRelation
		err       error
		epoch     uint64
	}

	// followStatusResultMsg carries a backend follow-status answer back to
	// the requester via the mailbox.
	followStatusResultMsg struct {
		following bool
		err       error
		requester *actor.PID
	}
)

// ToggleResult is the immediate (optimistic) answer to a toggle request.
type ToggleResult struct {
	Applied bool   `json:"applied"` // false when dropped by the in-flight guard
	Active  bool   `json:"active"`  // membership after the toggle
	Pending bool   `json:"pending"` // server reconciliation still outstanding
	Message string `json:"message,omitempty"`
}

// RelationsActor owns the favorites and follow sets. Both collections are
// replaced wholesale on every change, never edited in place, so a failed
// mutation rolls back by restoring the snapshot pointer. The actor mailbox
// serializes all state access; network requests run off-mailbox and report
// back via sync-result messages.
type RelationsActor struct {
	favorites []models.FavoriteRecord
	following []models.FollowRelation

	// Guard against duplicate concurrent mutation of the same key. Keyed
	// by kind-prefixed canonical key.
	inflight map[string]bool

	api      platform.API
	session  *session.Session
	notifier *notify.Hub
	metrics  *utils.MetricsCollector
	timeout  time.Duration
}

func NewRelationsActor(api platform.API, sess *session.Session, notifier *notify.Hub, metrics *utils.MetricsCollector) actor.Actor {
	return &RelationsActor{
		favorites: make([]models.FavoriteRecord, 0),
		following: make([]models.FollowRelation, 0),
		inflight:  make(map[string]bool),
		api:       api,
		session:   sess,
		notifier:  notifier,
		metrics:   metrics,
		timeout:   10 * time.Second,
	}
}

func (a *RelationsActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("RelationsActor started with PID: %v", context.Self())
		if a.session.IsAuthenticated() {
			a.handleReload()
		}

	case *ReloadRelationsMsg:
		a.handleReload()
		context.Respond(&models.StatusResponse{Success: true})

	case *ToggleFavoriteMsg:
		a.handleToggleFavorite(context, msg)

	case *ToggleFollowMsg:
		a.handleToggleFollow(context, msg)

	case *GetFavoritesMsg:
		out := make([]models.FavoriteRecord, len(a.favorites))
		copy(out, a.favorites)
		context.Respond(out)

	case *GetFollowingMsg:
		out := make([]models.FollowRelation, len(a.following))
		copy(out, a.following)
		context.Respond(out)

	case *IsFavoriteMsg:
		_, member := a.findFavorite(msg.Entity, msg.FallbackID)
		context.Respond(member)

	case *IsFollowingCommunityMsg:
		a.handleIsFollowingCommunity(context, msg)

	case *favoriteSyncResultMsg:
		a.handleFavoriteSyncResult(msg)

	case *followSyncResultMsg:
		a.handleFollowSyncResult(msg)

	case *followStatusResultMsg:
		if msg.requester != nil {
			if msg.err != nil {
				context.Send(msg.requester, utils.NewNetworkFailureError("failed to check follow status", msg.err))
			} else {
				context.Send(msg.requester, msg.following)
			}
		}

	default:
		log.Printf("RelationsActor: Unknown message type %T", msg)
	}
}

// handleReload replaces both sets with server truth. Blocking here is fine:
// it only runs at sign-in, before any interactive traffic.
func (a *RelationsActor) handleReload() {
	userID, ok := a.session.UserID()
	if !ok {
		return
	}
	ctx, cancel := stdctx.WithTimeout(stdctx.Background(), a.timeout)
	defer cancel()

	favorites, err := a.api.GetFavorites(ctx, userID)
	if err != nil {
		log.Printf("RelationsActor: failed to load favorites: %v", err)
	} else {
		a.favorites = favorites
	}

	following, err := a.api.GetFollowing(ctx, userID)
	if err != nil {
		log.Printf("RelationsActor: failed to load follow set: %v", err)
	} else {
		a.following = following
	}
	log.Printf("RelationsActor: loaded %d favorites, %d follows", len(a.favorites), len(a.following))
}

// findFavorite scans by canonical key first, then falls back to a title
// match for legacy records stored without any stable id.
func (a *RelationsActor) findFavorite(entity models.Entity, fallbackID string) (int, bool) {
	key := identity.ResolveKey(entity.Type, entity, fallbackID)
	for i, record := range a.favorites {
		if record.Type != entity.Type {
			continue
		}
		if identity.ResolveEntityKey(record.Entity(), "") == key {
			return i, true
		}
	}
	for i, record := range a.favorites {
		if record.Type != entity.Type {
			continue
		}
		if identity.MatchesTitle(record.Entity(), entity) {
			return i, true
		}
	}
	return -1, false
}

func (a *RelationsActor) handleToggleFavorite(context actor.Context, msg *ToggleFavoriteMsg) {
	userID, ok := a.session.UserID()
	if !ok {
		context.Respond(utils.NewUnauthenticatedError("favorite"))
		return
	}
	if !models.ValidType(msg.Entity.Type) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "unknown entity type", nil))
		return
	}

	key := identity.ResolveKey(msg.Entity.Type, msg.Entity, msg.FallbackID)
	guardKey := "favorite:" + string(key)
	if a.inflight[guardKey] {
		a.metrics.RecordInFlightRejection()
		context.Respond(&ToggleResult{Applied: false, Pending: true, Message: "mutation already in flight"})
		return
	}

	index, member := a.findFavorite(msg.Entity, msg.FallbackID)

	// Snapshot, then replace the collection atomically with the inverse of
	// current membership. The UI sees the change with zero latency.
	snapshot := a.favorites
	if member {
		next := make([]models.FavoriteRecord, 0, len(a.favorites)-1)
		next = append(next, a.favorites[:index]...)
		next = append(next, a.favorites[index+1:]...)
		a.favorites = next
	} else {
		next := make([]models.FavoriteRecord, len(a.favorites), len(a.favorites)+1)
		copy(next, a.favorites)
		next = append(next, models.FavoriteRecord{
			Type:    msg.Entity.Type,
			Item:    msg.Entity.Fields,
			SavedAt: time.Now(),
		})
		a.favorites = next
	}

	a.inflight[guardKey] = true
	context.Respond(&ToggleResult{Applied: true, Active: !member, Pending: true})

	removedID := identity.ResolveRawID(msg.Entity.Type, msg.Entity, msg.FallbackID)
	entity := msg.Entity
	epoch := a.session.Epoch()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		var err error
		if member {
			err = api.RemoveFavorite(ctx, userID, entity.Type, removedID)
			// Target already gone server-side: the user's intent holds.
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				err = nil
			}
		} else {
			_, err = api.AddFavorite(ctx, userID, models.FavoriteRecord{Type: entity.Type, Item: entity.Fields})
		}

		result := &favoriteSyncResultMsg{guardKey: guardKey, snapshot: snapshot, epoch: epoch, err: err}
		if err == nil {
			// Eventual consistency over optimistic approximation: take the
			// server's version of the whole set.
			refreshed, refetchErr := api.GetFavorites(ctx, userID)
			if refetchErr != nil {
				log.Printf("RelationsActor: favorites refetch failed, keeping optimistic state: %v", refetchErr)
			} else {
				result.refreshed = refreshed
			}
		}
		system.Root.Send(self, result)
	}()
}

func (a *RelationsActor) handleFavoriteSyncResult(msg *favoriteSyncResultMsg) {
	// Always clear the in-flight marker, regardless of outcome.
	delete(a.inflight, msg.guardKey)

	if msg.epoch != a.session.Epoch() {
		log.Printf("RelationsActor: dropping favorite sync result from a previous session")
		return
	}

	if msg.err != nil {
		a.favorites = msg.snapshot
		a.metrics.RecordRollback()
		a.notifier.Error("Could not update your favorites. Please try again.")
		log.Printf("RelationsActor: favorite mutation failed, rolled back: %v", msg.err)
		return
	}

	if msg.refreshed != nil {
		a.favorites = msg.refreshed
	}
}

// handleIsFollowingCommunity is a read: the local set answers positives
// immediately, negatives are confirmed against the backend so a follow made
// from another device still shows up.
func (a *RelationsActor) handleIsFollowingCommunity(context actor.Context, msg *IsFollowingCommunityMsg) {
	if msg.CommunityID == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "communityId is required", nil))
		return
	}
	if _, member := a.findFollow(msg.CommunityID); member {
		context.Respond(true)
		return
	}
	userID, ok := a.session.UserID()
	if !ok {
		context.Respond(false)
		return
	}

	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	communityID := msg.CommunityID

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		following, err := api.IsFollowingCommunity(ctx, communityID, userID)
		system.Root.Send(self, &followStatusResultMsg{
			following: following,
			err:       err,
			requester: requester,
		})
	}()
}

func (a *RelationsActor) findFollow(targetID string) (int, bool) {
	for i, relation := range a.following {
		if relation.FollowingID == targetID {
			return i, true
		}
	}
	return -1, false
}

func (a *RelationsActor) handleToggleFollow(context actor.Context, msg *ToggleFollowMsg) {
	userID, ok := a.session.UserID()
	if !ok {
		context.Respond(utils.NewUnauthenticatedError("follow"))
		return
	}
	if msg.TargetID == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "targetId is required", nil))
		return
	}

	guardKey := "follow:" + msg.TargetID
	if a.inflight[guardKey] {
		a.metrics.RecordInFlightRejection()
		context.Respond(&ToggleResult{Applied: false, Pending: true, Message: "mutation already in flight"})
		return
	}

	index, member := a.findFollow(msg.TargetID)
	relation := models.FollowRelation{
		FollowerID:    userID,
		FollowingID:   msg.TargetID,
		FollowingRole: msg.TargetRole,
	}

	snapshot := a.following
	if member {
		relation = a.following[index]
		next := make([]models.FollowRelation, 0, len(a.following)-1)
		next = append(next, a.following[:index]...)
		next = append(next, a.following[index+1:]...)
		a.following = next
	} else {
		next := make([]models.FollowRelation, len(a.following), len(a.following)+1)
		copy(next, a.following)
		next = append(next, relation)
		a.following = next
	}

	a.inflight[guardKey] = true
	context.Respond(&ToggleResult{Applied: true, Active: !member, Pending: true})

	epoch := a.session.Epoch()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		var err error
		if member {
			err = api.Unfollow(ctx, relation, "patient")
			if utils.IsErrorCode(err, utils.ErrNotFound) {
				err = nil
			}
		} else {
			err = api.Follow(ctx, relation, "patient")
		}

		result := &followSyncResultMsg{guardKey: guardKey, snapshot: snapshot, epoch: epoch, err: err}
		if err == nil {
			refreshed, refetchErr := api.GetFollowing(ctx, userID)
			if refetchErr != nil {
				log.Printf("RelationsActor: follow refetch failed, keeping optimistic state: %v", refetchErr)
			} else {
				result.refreshed = refreshed
			}
		}
		system.Root.Send(self, result)
	}()
}

func (a *RelationsActor) handleFollowSyncResult(msg *followSyncResultMsg) {
	delete(a.inflight, msg.guardKey)

	if msg.epoch != a.session.Epoch() {
		log.Printf("RelationsActor: dropping follow sync result from a previous session")
		return
	}

	if msg.err != nil {
		a.following = msg.snapshot
		a.metrics.RecordRollback()
		a.notifier.Error("Could not update who you follow. Please try again.")
		log.Printf("RelationsActor: follow mutation failed, rolled back: %v", msg.err)
		return
	}

	if msg.refreshed != nil {
		a.following = msg.refreshed
	}
}
