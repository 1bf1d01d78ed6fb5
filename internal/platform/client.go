package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"collabiora-client/internal/models"
	"collabiora-client/internal/session"
	"collabiora-client/internal/tags"
	"collabiora-client/internal/utils"

	"github.com/google/uuid"
)

// API is the adapter for the platform backend. The engine only ever talks to
// the backend through this interface, which keeps actors testable against a
// fake.
type API interface {
	// Favorites
	GetFavorites(ctx context.Context, userID uuid.UUID) ([]models.FavoriteRecord, error)
	AddFavorite(ctx context.Context, userID uuid.UUID, record models.FavoriteRecord) (*models.FavoriteRecord, error)
	RemoveFavorite(ctx context.Context, userID uuid.UUID, entityType models.EntityType, id string) error

	// Follows
	Follow(ctx context.Context, relation models.FollowRelation, followerRole string) error
	Unfollow(ctx context.Context, relation models.FollowRelation, followerRole string) error
	GetFollowing(ctx context.Context, userID uuid.UUID) ([]models.FollowRelation, error)
	IsFollowingCommunity(ctx context.Context, communityID string, userID uuid.UUID) (bool, error)

	// Forums
	GetThreads(ctx context.Context) ([]*models.ThreadNode, error)
	GetCommunityThreads(ctx context.Context, communityID, sort string) ([]*models.ThreadNode, error)
	GetThreadReplies(ctx context.Context, threadID string) ([]*models.ReplyNode, error)
	CreateThread(ctx context.Context, authorID uuid.UUID, draft *tags.ThreadDraft) (*models.ThreadNode, error)
	PostReply(ctx context.Context, threadID string, parentReplyID *string, body string) (*models.ReplyNode, error)
	VoteThread(ctx context.Context, threadID string, direction models.VoteDirection) (int, error)
	VoteReply(ctx context.Context, replyID string, direction models.VoteDirection) (int, error)

	// Communities
	GetCommunity(ctx context.Context, communityID string) (*models.Community, error)
	GetSubcategories(ctx context.Context, communityID string) ([]models.Subcategory, error)
	CreateSubcategory(ctx context.Context, communityID, name, description string) (*models.Subcategory, error)
}

// Client is the HTTP implementation of API against the platform's REST
// backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
}

func NewClient(baseURL string, timeout time.Duration, sess *session.Session) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
	}
}

// errorBody is the optional {error} payload on non-2xx responses.
type errorBody struct {
	Error string `json:"error"`
}

// doJSON issues one request and decodes the response into out (when out is
// non-nil). Non-2xx statuses map onto the engine's error taxonomy: 404 is
// NotFound, everything else NetworkFailure carrying the backend's message.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return utils.NewAppError(utils.ErrInvalidInput, "failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return utils.NewNetworkFailureError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.NewNetworkFailureError(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var backendErr errorBody
		_ = json.NewDecoder(resp.Body).Decode(&backendErr)
		message := backendErr.Error
		if message == "" {
			message = fmt.Sprintf("%s %s returned %d", method, path, resp.StatusCode)
		}
		log.Printf("platform: %s %s -> %d (%s)", method, path, resp.StatusCode, message)
		if resp.StatusCode == http.StatusNotFound {
			return utils.NewAppError(utils.ErrNotFound, message, nil)
		}
		return utils.NewNetworkFailureError(message, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return utils.NewNetworkFailureError("failed to decode response", err)
	}
	return nil
}
