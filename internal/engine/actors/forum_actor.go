package actors

import (
	stdctx "context"
	"log"
	"time"

	"collabiora-client/internal/forums"
	"collabiora-client/internal/models"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/platform"
	"collabiora-client/internal/session"
	"collabiora-client/internal/tags"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Message types for ForumActor
type (
	// LoadThreadsMsg fetches the thread list (global forum or one
	// community) and applies the selected tag filter client-side.
	LoadThreadsMsg struct {
		CommunityID string `json:"communityId,omitempty"`
		Sort        string `json:"sort,omitempty"`
		Tag         string `json:"tag,omitempty"`
	}

	// LoadThreadMsg returns the thread's reply tree, from cache when
	// possible. A forced reload always issues a fresh request.
	LoadThreadMsg struct {
		ThreadID    string `json:"threadId"`
		ForceReload bool   `json:"forceReload"`
	}

	// ToggleExpandMsg flips the thread's expansion state. A pure toggle:
	// it never fetches by itself.
	ToggleExpandMsg struct {
		ThreadID string `json:"threadId"`
	}

	VoteMsg struct {
		NodeID    string                 `json:"nodeId"`
		Kind      models.VoteContentType `json:"kind"`
		Direction models.VoteDirection   `json:"direction"`
		// ThreadID locates the cached tree when voting on a reply.
		ThreadID string `json:"threadId,omitempty"`
	}

	PostReplyMsg struct {
		ThreadID      string  `json:"threadId"`
		ParentReplyID *string `json:"parentReplyId,omitempty"`
		Body          string  `json:"body"`
	}

	CreateThreadMsg struct {
		Draft *tags.ThreadDraft `json:"draft"`
	}

	BuildVocabularyMsg struct {
		CommunityID string `json:"communityId,omitempty"`
	}

	GetSubcategoriesMsg struct {
		CommunityID string `json:"communityId"`
	}

	CreateSubcategoryMsg struct {
		CommunityID string `json:"communityId"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	GetCountsMsg struct{}

	// Internal completion messages for off-mailbox requests.
	threadListResultMsg struct {
		threads   []*models.ThreadNode
		tag       string
		started   time.Time
		err       error
		requester *actor.PID
	}

	threadTreeResultMsg struct {
		threadID  string
		seq       uint64
		roots     []*models.ReplyNode
		err       error
		requester *actor.PID
	}

	voteResultMsg struct {
		nodeID    string
		kind      models.VoteContentType
		threadID  string
		score     int
		err       error
		epoch     uint64
		requester *actor.PID
	}

	replyResultMsg struct {
		threadID  string
		reply     *models.ReplyNode
		err       error
		epoch     uint64
		requester *actor.PID
	}

	threadCreatedMsg struct {
		thread    *models.ThreadNode
		err       error
		epoch     uint64
		requester *actor.PID
	}

	communityResultMsg struct {
		communityID string
		community   *models.Community
		err         error
		requester   *actor.PID
	}

	subcategoriesResultMsg struct {
		subcategories []models.Subcategory
		err           error
		requester     *actor.PID
	}

	subcategoryCreatedMsg struct {
		subcategory *models.Subcategory
		err         error
		epoch       uint64
		requester   *actor.PID
	}
)

// TreeResponse is what tree loads resolve with: the nested roots plus the
// flattened render order.
type TreeResponse struct {
	ThreadID  string              `json:"threadId"`
	Roots     []*models.ReplyNode `json:"roots"`
	Flat      []forums.FlatReply  `json:"flat"`
	FromCache bool                `json:"fromCache"`
}

// ExpandState is the answer to a ToggleExpandMsg.
type ExpandState struct {
	ThreadID  string `json:"threadId"`
	Expanded  bool   `json:"expanded"`
	NeedsLoad bool   `json:"needsLoad"` // expanded but never loaded
}

// VoteResult carries the server's authoritative score back to the UI.
type VoteResult struct {
	NodeID    string `json:"nodeId"`
	VoteScore int    `json:"voteScore"`
}

// ForumCounts feeds the health endpoint.
type ForumCounts struct {
	Threads     int `json:"threads"`
	CachedTrees int `json:"cachedTrees"`
	Expanded    int `json:"expanded"`
}

// ForumActor owns the thread list, the reply-tree cache, the expansion set,
// and vote reconciliation. Votes are never optimistic: the displayed score
// is only ever the last value the server returned.
type ForumActor struct {
	threads   []*models.ThreadNode
	treeCache *lru.Cache[string, []*models.ReplyNode]
	loading   map[string]bool
	expanded  map[string]bool

	// Monotonic sequencing per thread id guards forced reloads against
	// stale overwrites: a response whose sequence is below the last applied
	// one is discarded.
	nextSeq    uint64
	appliedSeq map[string]uint64

	communities map[string]*models.Community

	api      platform.API
	session  *session.Session
	notifier *notify.Hub
	metrics  *utils.MetricsCollector
	timeout  time.Duration
}

func NewForumActor(api platform.API, sess *session.Session, notifier *notify.Hub, metrics *utils.MetricsCollector) actor.Actor {
	cache, err := lru.New[string, []*models.ReplyNode](256)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &ForumActor{
		treeCache:   cache,
		loading:     make(map[string]bool),
		expanded:    make(map[string]bool),
		appliedSeq:  make(map[string]uint64),
		communities: make(map[string]*models.Community),
		api:         api,
		session:     sess,
		notifier:    notifier,
		metrics:     metrics,
		timeout:     10 * time.Second,
	}
}

func (a *ForumActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ForumActor started with PID: %v", context.Self())

	case *LoadThreadsMsg:
		a.handleLoadThreads(context, msg)

	case *LoadThreadMsg:
		a.handleLoadThread(context, msg, context.Sender())

	case *ToggleExpandMsg:
		a.handleToggleExpand(context, msg)

	case *VoteMsg:
		a.handleVote(context, msg)

	case *PostReplyMsg:
		a.handlePostReply(context, msg)

	case *CreateThreadMsg:
		a.handleCreateThread(context, msg)

	case *BuildVocabularyMsg:
		a.handleBuildVocabulary(context, msg)

	case *GetSubcategoriesMsg:
		a.handleGetSubcategories(context, msg)

	case *CreateSubcategoryMsg:
		a.handleCreateSubcategory(context, msg)

	case *GetCountsMsg:
		context.Respond(&ForumCounts{
			Threads:     len(a.threads),
			CachedTrees: a.treeCache.Len(),
			Expanded:    len(a.expanded),
		})

	case *threadListResultMsg:
		a.handleThreadListResult(context, msg)

	case *threadTreeResultMsg:
		a.handleTreeResult(context, msg)

	case *voteResultMsg:
		a.handleVoteResult(context, msg)

	case *replyResultMsg:
		a.handleReplyResult(context, msg)

	case *threadCreatedMsg:
		a.handleThreadCreated(context, msg)

	case *communityResultMsg:
		a.handleCommunityResult(context, msg)

	case *subcategoriesResultMsg:
		a.handleSubcategoriesResult(context, msg)

	case *subcategoryCreatedMsg:
		a.handleSubcategoryCreated(context, msg)

	default:
		log.Printf("ForumActor: Unknown message type %T", msg)
	}
}

// handleLoadThreads fetches off-mailbox so tree loads and toggles are not
// queued behind a slow list request. The fetched list is installed in
// handleThreadListResult, back on the mailbox.
func (a *ForumActor) handleLoadThreads(context actor.Context, msg *LoadThreadsMsg) {
	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	load := *msg

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		started := time.Now()
		var (
			threads []*models.ThreadNode
			err     error
		)
		if load.CommunityID != "" {
			threads, err = api.GetCommunityThreads(ctx, load.CommunityID, load.Sort)
		} else {
			threads, err = api.GetThreads(ctx)
		}
		system.Root.Send(self, &threadListResultMsg{
			threads:   threads,
			tag:       load.Tag,
			started:   started,
			err:       err,
			requester: requester,
		})
	}()
}

func (a *ForumActor) handleThreadListResult(context actor.Context, msg *threadListResultMsg) {
	if msg.err != nil {
		// Read-only fetch: prior state stays untouched, no rollback needed.
		a.notifier.Error("Could not load discussions. Please try again.")
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewNetworkFailureError("failed to load threads", msg.err))
		}
		return
	}

	a.threads = msg.threads
	a.metrics.AddOperationLatency("load_threads", time.Since(msg.started))

	if msg.requester != nil {
		context.Send(msg.requester, cloneThreads(tags.FilterThreads(msg.threads, msg.tag)))
	}
}

// cloneThreads detaches a rendered list from the actor's own copy, which
// later vote and reply results patch in place.
func cloneThreads(threads []*models.ThreadNode) []*models.ThreadNode {
	out := make([]*models.ThreadNode, len(threads))
	for i, thread := range threads {
		out[i] = thread.Clone()
	}
	return out
}

// detachedTree builds the response for a tree load from a clone, so cached
// nodes the actor keeps patching are never shared with a requester.
func detachedTree(threadID string, roots []*models.ReplyNode, fromCache bool) *TreeResponse {
	clone := forums.CloneTree(roots)
	return &TreeResponse{
		ThreadID:  threadID,
		Roots:     clone,
		Flat:      forums.Flatten(clone),
		FromCache: fromCache,
	}
}

func (a *ForumActor) handleLoadThread(context actor.Context, msg *LoadThreadMsg, requester *actor.PID) {
	if cached, ok := a.treeCache.Get(msg.ThreadID); ok && !msg.ForceReload {
		a.metrics.RecordCacheHit()
		context.Respond(detachedTree(msg.ThreadID, cached, true))
		return
	}

	a.metrics.RecordCacheMiss()
	a.loading[msg.ThreadID] = true

	a.nextSeq++
	seq := a.nextSeq
	threadID := msg.ThreadID
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		replies, err := api.GetThreadReplies(ctx, threadID)
		result := &threadTreeResultMsg{threadID: threadID, seq: seq, err: err, requester: requester}
		if err == nil {
			result.roots = forums.BuildTree(replies)
		}
		system.Root.Send(self, result)
	}()
}

func (a *ForumActor) handleTreeResult(context actor.Context, msg *threadTreeResultMsg) {
	delete(a.loading, msg.threadID)

	if msg.err != nil {
		a.notifier.Error("Could not load replies for this thread.")
		log.Printf("ForumActor: tree load failed for %s: %v", msg.threadID, msg.err)
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewNetworkFailureError("failed to load replies", msg.err))
		}
		return
	}

	if msg.seq < a.appliedSeq[msg.threadID] {
		// A newer load already landed; this response is stale.
		log.Printf("ForumActor: discarding stale tree for %s (seq %d < %d)", msg.threadID, msg.seq, a.appliedSeq[msg.threadID])
		if msg.requester != nil {
			if current, ok := a.treeCache.Get(msg.threadID); ok {
				context.Send(msg.requester, detachedTree(msg.threadID, current, true))
			}
		}
		return
	}

	a.appliedSeq[msg.threadID] = msg.seq
	a.treeCache.Add(msg.threadID, msg.roots)

	if msg.requester != nil {
		context.Send(msg.requester, detachedTree(msg.threadID, msg.roots, false))
	}
}

func (a *ForumActor) handleToggleExpand(context actor.Context, msg *ToggleExpandMsg) {
	if a.expanded[msg.ThreadID] {
		delete(a.expanded, msg.ThreadID)
		context.Respond(&ExpandState{ThreadID: msg.ThreadID, Expanded: false})
		return
	}
	a.expanded[msg.ThreadID] = true
	_, loaded := a.treeCache.Get(msg.ThreadID)
	context.Respond(&ExpandState{
		ThreadID:  msg.ThreadID,
		Expanded:  true,
		NeedsLoad: !loaded && !a.loading[msg.ThreadID],
	})
}

func (a *ForumActor) handleVote(context actor.Context, msg *VoteMsg) {
	if !a.session.IsAuthenticated() {
		context.Respond(utils.NewUnauthenticatedError("vote"))
		return
	}
	if !models.ValidVoteDirection(msg.Direction) || !models.ValidVoteContentType(msg.Kind) {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid vote", nil))
		return
	}

	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	epoch := a.session.Epoch()
	vote := *msg

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		var (
			score int
			err   error
		)
		if vote.Kind == models.ThreadVote {
			score, err = api.VoteThread(ctx, vote.NodeID, vote.Direction)
		} else {
			score, err = api.VoteReply(ctx, vote.NodeID, vote.Direction)
		}
		system.Root.Send(self, &voteResultMsg{
			nodeID:    vote.NodeID,
			kind:      vote.Kind,
			threadID:  vote.ThreadID,
			score:     score,
			err:       err,
			epoch:     epoch,
			requester: requester,
		})
	}()
}

// handleVoteResult applies the server-returned score to whichever rendered
// structure holds the node, touching nothing else.
func (a *ForumActor) handleVoteResult(context actor.Context, msg *voteResultMsg) {
	if msg.err != nil {
		a.notifier.Error("Your vote could not be recorded.")
		log.Printf("ForumActor: vote failed for %s: %v", msg.nodeID, msg.err)
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewNetworkFailureError("vote failed", msg.err))
		}
		return
	}

	if msg.epoch != a.session.Epoch() {
		log.Printf("ForumActor: dropping vote result from a previous session")
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewUnauthenticatedError("vote"))
		}
		return
	}

	switch msg.kind {
	case models.ThreadVote:
		for _, thread := range a.threads {
			if thread.ID == msg.nodeID {
				thread.VoteScore = msg.score
				break
			}
		}
	case models.ReplyVote:
		if msg.threadID != "" {
			if roots, ok := a.treeCache.Get(msg.threadID); ok {
				forums.PatchVoteScore(roots, msg.nodeID, msg.score)
			}
		} else {
			// No thread hint: scan every cached tree.
			for _, threadID := range a.treeCache.Keys() {
				if roots, ok := a.treeCache.Get(threadID); ok {
					if forums.PatchVoteScore(roots, msg.nodeID, msg.score) {
						break
					}
				}
			}
		}
	}

	if msg.requester != nil {
		context.Send(msg.requester, &VoteResult{NodeID: msg.nodeID, VoteScore: msg.score})
	}
}

func (a *ForumActor) handlePostReply(context actor.Context, msg *PostReplyMsg) {
	if !a.session.IsAuthenticated() {
		context.Respond(utils.NewUnauthenticatedError("reply"))
		return
	}
	if msg.Body == "" {
		context.Respond(utils.NewValidationFailureError("reply body is required"))
		return
	}

	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	epoch := a.session.Epoch()
	post := *msg

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		reply, err := api.PostReply(ctx, post.ThreadID, post.ParentReplyID, post.Body)
		system.Root.Send(self, &replyResultMsg{
			threadID:  post.ThreadID,
			reply:     reply,
			err:       err,
			epoch:     epoch,
			requester: requester,
		})
	}()
}

func (a *ForumActor) handleReplyResult(context actor.Context, msg *replyResultMsg) {
	if msg.err != nil {
		a.notifier.Error("Your reply could not be posted.")
		log.Printf("ForumActor: reply post failed for thread %s: %v", msg.threadID, msg.err)
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewNetworkFailureError("failed to post reply", msg.err))
		}
		return
	}

	if msg.epoch != a.session.Epoch() {
		log.Printf("ForumActor: dropping reply result from a previous session")
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewUnauthenticatedError("reply"))
		}
		return
	}

	for _, thread := range a.threads {
		if thread.ID == msg.threadID {
			thread.ReplyCount++
			break
		}
	}

	if msg.requester != nil {
		context.Send(msg.requester, msg.reply)
	}

	// Invalidate and reload so the new node appears in the expanded view.
	a.handleLoadThread(context, &LoadThreadMsg{ThreadID: msg.threadID, ForceReload: true}, nil)
}

func (a *ForumActor) handleCreateThread(context actor.Context, msg *CreateThreadMsg) {
	userID, ok := a.session.UserID()
	if !ok {
		context.Respond(utils.NewUnauthenticatedError("create thread"))
		return
	}

	// The mandatory-tag invariant runs before any network request.
	if err := tags.ValidateDraft(msg.Draft); err != nil {
		context.Respond(err)
		return
	}

	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	epoch := a.session.Epoch()
	draft := msg.Draft

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		created, err := api.CreateThread(ctx, userID, draft)
		system.Root.Send(self, &threadCreatedMsg{
			thread:    created,
			err:       err,
			epoch:     epoch,
			requester: requester,
		})
	}()
}

func (a *ForumActor) handleThreadCreated(context actor.Context, msg *threadCreatedMsg) {
	if msg.err != nil {
		a.notifier.Error("Could not create your thread.")
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewNetworkFailureError("failed to create thread", msg.err))
		}
		return
	}

	if msg.epoch != a.session.Epoch() {
		log.Printf("ForumActor: dropping thread creation from a previous session")
		if msg.requester != nil {
			context.Send(msg.requester, utils.NewUnauthenticatedError("create thread"))
		}
		return
	}

	next := make([]*models.ThreadNode, 0, len(a.threads)+1)
	next = append(next, msg.thread)
	next = append(next, a.threads...)
	a.threads = next

	if msg.requester != nil {
		context.Send(msg.requester, msg.thread.Clone())
	}
}

func (a *ForumActor) handleBuildVocabulary(context actor.Context, msg *BuildVocabularyMsg) {
	if msg.CommunityID == "" {
		context.Respond(tags.BuildVocabulary(nil, a.threads))
		return
	}
	if cached, ok := a.communities[msg.CommunityID]; ok {
		context.Respond(tags.BuildVocabulary(cached, a.threads))
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

		community, err := api.GetCommunity(ctx, communityID)
		system.Root.Send(self, &communityResultMsg{
			communityID: communityID,
			community:   community,
			err:         err,
			requester:   requester,
		})
	}()
}

func (a *ForumActor) handleCommunityResult(context actor.Context, msg *communityResultMsg) {
	var community *models.Community
	if msg.err != nil {
		// Fall back to the generic defaults rather than failing the
		// filter bar outright.
		log.Printf("ForumActor: community fetch failed for %s: %v", msg.communityID, msg.err)
	} else {
		a.communities[msg.communityID] = msg.community
		community = msg.community
	}

	if msg.requester != nil {
		context.Send(msg.requester, tags.BuildVocabulary(community, a.threads))
	}
}

func (a *ForumActor) handleGetSubcategories(context actor.Context, msg *GetSubcategoriesMsg) {
	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	communityID := msg.CommunityID

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		subcategories, err := api.GetSubcategories(ctx, communityID)
		system.Root.Send(self, &subcategoriesResultMsg{
			subcategories: subcategories,
			err:           err,
			requester:     requester,
		})
	}()
}

func (a *ForumActor) handleSubcategoriesResult(context actor.Context, msg *subcategoriesResultMsg) {
	if msg.requester == nil {
		return
	}
	if msg.err != nil {
		context.Send(msg.requester, utils.NewNetworkFailureError("failed to load subcategories", msg.err))
		return
	}
	context.Send(msg.requester, msg.subcategories)
}

func (a *ForumActor) handleCreateSubcategory(context actor.Context, msg *CreateSubcategoryMsg) {
	if !a.session.IsAuthenticated() {
		context.Respond(utils.NewUnauthenticatedError("create subcategory"))
		return
	}
	if msg.Name == "" {
		context.Respond(utils.NewValidationFailureError("subcategory name is required"))
		return
	}

	requester := context.Sender()
	system := context.ActorSystem()
	self := context.Self()
	api := a.api
	timeout := a.timeout
	epoch := a.session.Epoch()
	create := *msg

	go func() {
		ctx, cancel := stdctx.WithTimeout(stdctx.Background(), timeout)
		defer cancel()

		created, err := api.CreateSubcategory(ctx, create.CommunityID, create.Name, create.Description)
		system.Root.Send(self, &subcategoryCreatedMsg{
			subcategory: created,
			err:         err,
			epoch:       epoch,
			requester:   requester,
		})
	}()
}

func (a *ForumActor) handleSubcategoryCreated(context actor.Context, msg *subcategoryCreatedMsg) {
	if msg.requester == nil {
		return
	}
	if msg.err != nil {
		context.Send(msg.requester, utils.NewNetworkFailureError("failed to create subcategory", msg.err))
		return
	}
	if msg.epoch != a.session.Epoch() {
		log.Printf("ForumActor: dropping subcategory creation from a previous session")
		context.Send(msg.requester, utils.NewUnauthenticatedError("create subcategory"))
		return
	}
	context.Send(msg.requester, msg.subcategory)
}
