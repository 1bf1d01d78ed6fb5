package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"collabiora-client/internal/engine"
	"collabiora-client/internal/handlers"
	"collabiora-client/internal/loadsched"
	"collabiora-client/internal/middleware"
	"collabiora-client/internal/models"
	"collabiora-client/internal/notify"
	"collabiora-client/internal/platform"
	"collabiora-client/internal/session"
	"collabiora-client/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is a minimal in-memory platform server covering the endpoints
// the bridge exercises during the flow test.
type fakeBackend struct {
	mu        sync.Mutex
	favorites []models.FavoriteRecord
	following []models.FollowRelation
	threads   []*models.ThreadNode
	replies   map[string][]*models.ReplyNode
	scores    map[string]int
}

func newFakeBackend() *fakeBackend {
	parent := "r1"
	return &fakeBackend{
		threads: []*models.ThreadNode{
			{ID: "t1", Title: "Managing enzyme infusion side effects", Tags: []string{"Treatment"}, VoteScore: 5},
		},
		replies: map[string][]*models.ReplyNode{
			"t1": {
				{ID: "r1", Body: "My experience so far"},
				{ID: "r2", ParentReplyID: &parent, Body: "Same here"},
			},
		},
		scores: map[string]int{"t1": 5},
	}
}

func (b *fakeBackend) router() http.Handler {
	r := chi.NewRouter()

	r.Get("/favorites/{userID}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"items": b.favorites})
	})
	r.Post("/favorites/{userID}", func(w http.ResponseWriter, req *http.Request) {
		var record models.FavoriteRecord
		json.NewDecoder(req.Body).Decode(&record)
		record.ServerID = uuid.NewString()
		record.SavedAt = time.Now()
		b.mu.Lock()
		b.favorites = append(b.favorites, record)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(record)
	})
	r.Delete("/favorites/{userID}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.favorites = nil
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/follow/{userID}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"items": b.following})
	})
	r.Post("/follow", func(w http.ResponseWriter, req *http.Request) {
		var relation models.FollowRelation
		json.NewDecoder(req.Body).Decode(&relation)
		b.mu.Lock()
		b.following = append(b.following, relation)
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	r.Delete("/follow", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		b.following = nil
		b.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/forums/threads", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"threads": b.threads})
	})
	r.Get("/forums/threads/{threadID}", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]interface{}{"replies": b.replies[chi.URLParam(req, "threadID")]})
	})
	r.Post("/forums/threads/{threadID}/vote", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		id := chi.URLParam(req, "threadID")
		b.scores[id]++
		json.NewEncoder(w).Encode(map[string]int{"voteScore": b.scores[id]})
	})
	r.Post("/forums/replies", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ThreadID      string  `json:"threadId"`
			ParentReplyID *string `json:"parentReplyId"`
			Body          string  `json:"body"`
		}
		json.NewDecoder(req.Body).Decode(&body)
		reply := &models.ReplyNode{ID: uuid.NewString(), ParentReplyID: body.ParentReplyID, Body: body.Body}
		b.mu.Lock()
		b.replies[body.ThreadID] = append(b.replies[body.ThreadID], reply)
		b.mu.Unlock()
		json.NewEncoder(w).Encode(reply)
	})

	return r
}

// newTestBridge wires the full stack against the fake backend and returns
// the bridge router.
func newTestBridge(t *testing.T, backendURL string) http.Handler {
	t.Helper()

	metrics := utils.NewMetricsCollector()
	notifier := notify.NewHub()
	sess := session.New()
	api := platform.NewClient(backendURL, 5*time.Second, sess)

	system := actor.NewActorSystem()
	clientEngine := engine.NewEngine(system, api, sess, notifier, metrics)

	// Loopback latencies always classify as cache hits, so no padding.
	scheduler := loadsched.NewScheduler(loadsched.Thresholds{
		CacheHit:      time.Second,
		FirstMissMin:  time.Second,
		FirstMissMax:  time.Second,
		RepeatMissMin: time.Second,
		RepeatMissMax: time.Second,
	}, sess, metrics)

	server := handlers.NewServer(system, clientEngine, metrics, sess, notifier, scheduler)
	return server.Routes(middleware.DefaultCORSConfig(nil))
}

func doRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIntegrationFlow(t *testing.T) {
	backend := httptest.NewServer(newFakeBackend().router())
	defer backend.Close()

	router := newTestBridge(t, backend.URL)
	userID := uuid.New()

	// Step 1: mutations are rejected before sign-in.
	w := doRequest(t, router, "POST", "/favorites/toggle", "", map[string]interface{}{
		"type": "publication",
		"item": map[string]interface{}{"pmid": "100", "title": "Enzyme study"},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Step 2: sign in and obtain the bridge session token.
	w = doRequest(t, router, "POST", "/session", "", map[string]string{
		"userId": userID.String(),
		"token":  "platform-token",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		SessionToken string `json:"sessionToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.SessionToken)
	token := login.SessionToken

	// Step 3: load the dashboard thread list.
	w = doRequest(t, router, "GET", "/threads", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var threadList struct {
		Threads      []*models.ThreadNode `json:"threads"`
		Presentation string               `json:"presentation"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &threadList))
	require.Len(t, threadList.Threads, 1)
	assert.Equal(t, "instant", threadList.Presentation)

	// Step 4: favorite a publication; optimistic response, then server id.
	w = doRequest(t, router, "POST", "/favorites/toggle", token, map[string]interface{}{
		"type": "publication",
		"item": map[string]interface{}{"pmid": "100", "title": "Enzyme study"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var toggle struct {
		Applied bool `json:"applied"`
		Active  bool `json:"active"`
		Pending bool `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toggle))
	assert.True(t, toggle.Applied)
	assert.True(t, toggle.Active)
	assert.True(t, toggle.Pending)

	assert.Eventually(t, func() bool {
		w := doRequest(t, router, "GET", "/favorites", "", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var favorites []models.FavoriteRecord
		if err := json.Unmarshal(w.Body.Bytes(), &favorites); err != nil {
			return false
		}
		return len(favorites) == 1 && favorites[0].ServerID != ""
	}, 3*time.Second, 20*time.Millisecond)

	// Step 5: expand the thread and fetch its reply tree.
	w = doRequest(t, router, "POST", "/threads/t1/expand", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var expand struct {
		Expanded  bool `json:"expanded"`
		NeedsLoad bool `json:"needsLoad"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &expand))
	assert.True(t, expand.Expanded)
	assert.True(t, expand.NeedsLoad)

	w = doRequest(t, router, "GET", "/threads/t1/tree", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tree struct {
		Roots []*models.ReplyNode `json:"roots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Len(t, tree.Roots, 1)
	require.Len(t, tree.Roots[0].Children, 1)
	assert.Equal(t, "r2", tree.Roots[0].Children[0].ID)

	// Step 6: upvote the thread; the score is the server's answer.
	w = doRequest(t, router, "POST", "/votes", token, map[string]string{
		"nodeId":    "t1",
		"kind":      "thread",
		"direction": "upvote",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var vote struct {
		VoteScore int `json:"voteScore"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vote))
	assert.Equal(t, 6, vote.VoteScore)

	// Step 7: post a reply; the tree reloads to include it.
	w = doRequest(t, router, "POST", "/threads/t1/replies", token, map[string]string{
		"body": "Thank you for sharing",
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Eventually(t, func() bool {
		w := doRequest(t, router, "GET", "/threads/t1/tree", "", nil)
		if w.Code != http.StatusOK {
			return false
		}
		var tree struct {
			Flat []struct {
				Depth int `json:"depth"`
			} `json:"flat"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &tree); err != nil {
			return false
		}
		return len(tree.Flat) == 3
	}, 3*time.Second, 20*time.Millisecond)

	// Step 8: sign out. Logout itself needs the session token; without one
	// the bridge refuses it like any other guarded mutation.
	w = doRequest(t, router, "DELETE", "/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(t, router, "DELETE", "/session", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "POST", "/votes", token, map[string]string{
		"nodeId":    "t1",
		"kind":      "thread",
		"direction": "upvote",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
