package actors

import (
	"context"
	"sync"

	"collabiora-client/internal/models"
	"collabiora-client/internal/tags"
	"collabiora-client/internal/utils"

	"github.com/google/uuid"
)

// fakeAPI is an in-memory stand-in for the platform backend. Failure modes
// and call gating are switchable per test.
type fakeAPI struct {
	mu sync.Mutex

	favorites []models.FavoriteRecord
	following []models.FollowRelation
	threads   []*models.ThreadNode
	replies   map[string][]*models.ReplyNode
	scores    map[string]int

	failMutations bool
	addCalls      int
	removeCalls   int
	followCalls   int
	replyCalls    int
	treeCalls     int
	createCalls   int

	// When set, AddFavorite blocks until the channel is closed; used to
	// hold a mutation in flight.
	addGate chan struct{}

	// When set, GetThreads blocks until the channel is closed; used to
	// hold a list fetch in flight.
	threadsGate chan struct{}

	// When set, IsFollowingCommunity blocks until the channel is closed.
	followStatusGate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		replies: make(map[string][]*models.ReplyNode),
		scores:  make(map[string]int),
	}
}

func (f *fakeAPI) GetFavorites(ctx context.Context, userID uuid.UUID) ([]models.FavoriteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.FavoriteRecord, len(f.favorites))
	copy(out, f.favorites)
	return out, nil
}

func (f *fakeAPI) AddFavorite(ctx context.Context, userID uuid.UUID, record models.FavoriteRecord) (*models.FavoriteRecord, error) {
	f.mu.Lock()
	gate := f.addGate
	f.addCalls++
	fail := f.failMutations
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		return nil, utils.NewNetworkFailureError("simulated outage", nil)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	record.ServerID = uuid.NewString()
	f.favorites = append(f.favorites, record)
	return &record, nil
}

func (f *fakeAPI) RemoveFavorite(ctx context.Context, userID uuid.UUID, entityType models.EntityType, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.failMutations {
		return utils.NewNetworkFailureError("simulated outage", nil)
	}
	next := f.favorites[:0]
	for _, record := range f.favorites {
		entity := record.Entity()
		if record.Type == entityType {
			if raw, ok := entity.StringField("pmid"); ok && raw == id {
				continue
			}
			if raw, ok := entity.StringField("id"); ok && raw == id {
				continue
			}
			if raw, ok := entity.StringField("name"); ok && raw == id {
				continue
			}
		}
		next = append(next, record)
	}
	f.favorites = next
	return nil
}

func (f *fakeAPI) Follow(ctx context.Context, relation models.FollowRelation, followerRole string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followCalls++
	if f.failMutations {
		return utils.NewNetworkFailureError("simulated outage", nil)
	}
	f.following = append(f.following, relation)
	return nil
}

func (f *fakeAPI) Unfollow(ctx context.Context, relation models.FollowRelation, followerRole string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followCalls++
	if f.failMutations {
		return utils.NewNetworkFailureError("simulated outage", nil)
	}
	next := f.following[:0]
	for _, existing := range f.following {
		if existing.FollowingID != relation.FollowingID {
			next = append(next, existing)
		}
	}
	f.following = next
	return nil
}

func (f *fakeAPI) GetFollowing(ctx context.Context, userID uuid.UUID) ([]models.FollowRelation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.FollowRelation, len(f.following))
	copy(out, f.following)
	return out, nil
}

func (f *fakeAPI) IsFollowingCommunity(ctx context.Context, communityID string, userID uuid.UUID) (bool, error) {
	f.mu.Lock()
	gate := f.followStatusGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, relation := range f.following {
		if relation.FollowingID == communityID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAPI) GetThreads(ctx context.Context) ([]*models.ThreadNode, error) {
	f.mu.Lock()
	gate := f.threadsGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threads, nil
}

func (f *fakeAPI) GetCommunityThreads(ctx context.Context, communityID, sort string) ([]*models.ThreadNode, error) {
	return f.GetThreads(ctx)
}

func (f *fakeAPI) GetThreadReplies(ctx context.Context, threadID string) ([]*models.ReplyNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeCalls++
	replies := f.replies[threadID]
	// Hand out copies: BuildTree mutates Children.
	out := make([]*models.ReplyNode, len(replies))
	for i, reply := range replies {
		clone := *reply
		out[i] = &clone
	}
	return out, nil
}

func (f *fakeAPI) CreateThread(ctx context.Context, authorID uuid.UUID, draft *tags.ThreadDraft) (*models.ThreadNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.failMutations {
		return nil, utils.NewNetworkFailureError("simulated outage", nil)
	}
	thread := &models.ThreadNode{
		ID:    uuid.NewString(),
		Title: draft.Title,
		Body:  draft.Body,
		Tags:  draft.Tags,
	}
	f.threads = append(f.threads, thread)
	return thread, nil
}

func (f *fakeAPI) PostReply(ctx context.Context, threadID string, parentReplyID *string, body string) (*models.ReplyNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replyCalls++
	if f.failMutations {
		return nil, utils.NewNetworkFailureError("simulated outage", nil)
	}
	reply := &models.ReplyNode{ID: uuid.NewString(), ParentReplyID: parentReplyID, Body: body}
	f.replies[threadID] = append(f.replies[threadID], reply)
	return reply, nil
}

func (f *fakeAPI) VoteThread(ctx context.Context, threadID string, direction models.VoteDirection) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMutations {
		return 0, utils.NewNetworkFailureError("simulated outage", nil)
	}
	if direction == models.VoteUp {
		f.scores[threadID]++
	} else {
		f.scores[threadID]--
	}
	return f.scores[threadID], nil
}

func (f *fakeAPI) VoteReply(ctx context.Context, replyID string, direction models.VoteDirection) (int, error) {
	return f.VoteThread(ctx, replyID, direction)
}

func (f *fakeAPI) GetCommunity(ctx context.Context, communityID string) (*models.Community, error) {
	return &models.Community{ID: communityID, Name: "Test Community"}, nil
}

func (f *fakeAPI) GetSubcategories(ctx context.Context, communityID string) ([]models.Subcategory, error) {
	return []models.Subcategory{{ID: "s1", CommunityID: communityID, Name: "General"}}, nil
}

func (f *fakeAPI) CreateSubcategory(ctx context.Context, communityID, name, description string) (*models.Subcategory, error) {
	return &models.Subcategory{ID: uuid.NewString(), CommunityID: communityID, Name: name, Description: description}, nil
}

func (f *fakeAPI) counts() (add, remove, follow, tree, reply, create int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCalls, f.removeCalls, f.followCalls, f.treeCalls, f.replyCalls, f.createCalls
}
