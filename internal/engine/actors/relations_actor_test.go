package actors

import (
	"testing"
	"time"

	"collabiora-client/internal/models"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requestTimeout = 5 * time.Second

func spawnRelations(t *testing.T, api *fakeAPI, sess *session.Session) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewRelationsActor(api, sess, notify.NewHub(), utils.NewMetricsCollector())
	})
	pid := system.Root.Spawn(props)
	t.Cleanup(func() { system.Root.Stop(pid) })
	return system, pid
}

func getFavorites(t *testing.T, system *actor.ActorSystem, pid *actor.PID) []models.FavoriteRecord {
	t.Helper()
	future := system.Root.RequestFuture(pid, &GetFavoritesMsg{}, requestTimeout)
	result, err := future.Result()
	require.NoError(t, err)
	return result.([]models.FavoriteRecord)
}

func publicationEntity(pmid, title string) models.Entity {
	return models.Entity{
		Type:   models.EntityPublication,
		Fields: map[string]any{"pmid": pmid, "title": title},
	}
}

func TestToggleFavoriteRequiresAuthentication(t *testing.T) {
	api := newFakeAPI()
	system, pid := spawnRelations(t, api, session.New())

	future := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: publicationEntity("123", "Long Study")}, requestTimeout)
	result, err := future.Result()
	require.NoError(t, err)

	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUnauthenticated, appErr.Code)

	// No network request was attempted.
	add, remove, _, _, _, _ := api.counts()
	assert.Zero(t, add)
	assert.Zero(t, remove)
}

func TestToggleFavoriteOptimisticAddThenServerReconcile(t *testing.T) {
	api := newFakeAPI()
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	future := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: publicationEntity("123", "Long Study")}, requestTimeout)
	result, err := future.Result()
	require.NoError(t, err)

	toggle := result.(*ToggleResult)
	assert.True(t, toggle.Applied)
	assert.True(t, toggle.Active)
	assert.True(t, toggle.Pending)

	// The optimistic copy is visible immediately.
	favorites := getFavorites(t, system, pid)
	require.Len(t, favorites, 1)
	assert.Equal(t, models.EntityPublication, favorites[0].Type)

	// After reconciliation the record carries the server id.
	assert.Eventually(t, func() bool {
		favorites := getFavorites(t, system, pid)
		return len(favorites) == 1 && favorites[0].ServerID != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleFavoriteRollsBackOnFailure(t *testing.T) {
	api := newFakeAPI()
	api.failMutations = true
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	future := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: publicationEntity("123", "Long Study")}, requestTimeout)
	result, err := future.Result()
	require.NoError(t, err)
	assert.True(t, result.(*ToggleResult).Active)

	// The optimistic entry shows up, then the failure reverts it.
	assert.Eventually(t, func() bool {
		return len(getFavorites(t, system, pid)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleFavoriteRoundTripRestoresSet(t *testing.T) {
	api := newFakeAPI()
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	entity := publicationEntity("123", "Long Study")

	// Favorite.
	_, err := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: entity}, requestTimeout).Result()
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		favorites := getFavorites(t, system, pid)
		return len(favorites) == 1 && favorites[0].ServerID != ""
	}, 2*time.Second, 10*time.Millisecond)

	// Unfavorite the same entity.
	_, err = system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: entity}, requestTimeout).Result()
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return len(getFavorites(t, system, pid)) == 0
	}, 2*time.Second, 10*time.Millisecond)

	add, remove, _, _, _, _ := api.counts()
	assert.Equal(t, 1, add)
	assert.Equal(t, 1, remove)
}

func TestToggleFavoriteInFlightGuardDropsDuplicate(t *testing.T) {
	api := newFakeAPI()
	api.addGate = make(chan struct{})
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	entity := publicationEntity("123", "Long Study")

	first, err := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: entity}, requestTimeout).Result()
	require.NoError(t, err)
	assert.True(t, first.(*ToggleResult).Applied)

	// Second click while the first request is still held open.
	second, err := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: entity}, requestTimeout).Result()
	require.NoError(t, err)
	assert.False(t, second.(*ToggleResult).Applied)

	close(api.addGate)

	assert.Eventually(t, func() bool {
		add, _, _, _, _, _ := api.counts()
		return add == 1
	}, 2*time.Second, 10*time.Millisecond)

	// No double-toggle: exactly one favorite remains.
	assert.Eventually(t, func() bool {
		favorites := getFavorites(t, system, pid)
		return len(favorites) == 1 && favorites[0].ServerID != ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestToggleFavoriteMatchesLegacyRecordByTitle(t *testing.T) {
	api := newFakeAPI()
	// A stored favorite from before stable ids: no pmid, only a title.
	api.favorites = []models.FavoriteRecord{
		{Type: models.EntityPublication, Item: map[string]any{"title": "Long Study"}, ServerID: "legacy"},
	}
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	// Wait for the initial load.
	assert.Eventually(t, func() bool {
		return len(getFavorites(t, system, pid)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Toggling an entity with an id but the same title unfavorites the
	// legacy record instead of adding a duplicate.
	result, err := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: publicationEntity("123", "long study")}, requestTimeout).Result()
	require.NoError(t, err)
	assert.False(t, result.(*ToggleResult).Active)
}

func TestToggleFollowLifecycle(t *testing.T) {
	api := newFakeAPI()
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	result, err := system.Root.RequestFuture(pid, &ToggleFollowMsg{TargetID: "expert-9", TargetRole: "researcher"}, requestTimeout).Result()
	require.NoError(t, err)
	assert.True(t, result.(*ToggleResult).Active)

	assert.Eventually(t, func() bool {
		following, err := api.GetFollowing(nil, uuid.Nil)
		return err == nil && len(following) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Toggle again to unfollow.
	result, err = system.Root.RequestFuture(pid, &ToggleFollowMsg{TargetID: "expert-9", TargetRole: "researcher"}, requestTimeout).Result()
	require.NoError(t, err)
	assert.False(t, result.(*ToggleResult).Active)

	assert.Eventually(t, func() bool {
		future := system.Root.RequestFuture(pid, &GetFollowingMsg{}, requestTimeout)
		got, err := future.Result()
		return err == nil && len(got.([]models.FollowRelation)) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIsFollowingCommunityChecksLocalThenServer(t *testing.T) {
	api := newFakeAPI()
	api.following = []models.FollowRelation{{FollowingID: "community-7", FollowingRole: "community"}}
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	// Wait for the initial load so the local set is warm.
	assert.Eventually(t, func() bool {
		future := system.Root.RequestFuture(pid, &GetFollowingMsg{}, requestTimeout)
		got, err := future.Result()
		return err == nil && len(got.([]models.FollowRelation)) == 1
	}, 2*time.Second, 10*time.Millisecond)

	result, err := system.Root.RequestFuture(pid, &IsFollowingCommunityMsg{CommunityID: "community-7"}, requestTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, true, result)

	result, err = system.Root.RequestFuture(pid, &IsFollowingCommunityMsg{CommunityID: "community-8"}, requestTimeout).Result()
	require.NoError(t, err)
	assert.Equal(t, false, result)
}

func TestFollowStatusCheckDoesNotBlockMailbox(t *testing.T) {
	api := newFakeAPI()
	api.followStatusGate = make(chan struct{})
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	// The backend check is held open; reads behind it must still resolve
	// because the check runs off the mailbox.
	statusFuture := system.Root.RequestFuture(pid, &IsFollowingCommunityMsg{CommunityID: "community-8"}, requestTimeout)

	result, err := system.Root.RequestFuture(pid, &GetFavoritesMsg{}, 500*time.Millisecond).Result()
	require.NoError(t, err)
	assert.Empty(t, result.([]models.FavoriteRecord))

	close(api.followStatusGate)
	status, err := statusFuture.Result()
	require.NoError(t, err)
	assert.Equal(t, false, status)
}

func TestSyncResultAfterLogoutIsDropped(t *testing.T) {
	api := newFakeAPI()
	api.addGate = make(chan struct{})
	sess := session.New()
	sess.Authenticate(uuid.New(), "token")
	system, pid := spawnRelations(t, api, sess)

	_, err := system.Root.RequestFuture(pid, &ToggleFavoriteMsg{Entity: publicationEntity("123", "Long Study")}, requestTimeout).Result()
	require.NoError(t, err)

	sess.Logout()
	close(api.addGate)

	// The late result must not resurrect state into the new session; the
	// optimistic entry from the old epoch stays as-is rather than being
	// replaced by a refetch.
	time.Sleep(100 * time.Millisecond)
	favorites := getFavorites(t, system, pid)
	for _, record := range favorites {
		assert.Empty(t, record.ServerID)
	}
}
