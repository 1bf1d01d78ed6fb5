package platform

import (
	"context"
	"net/http"
	"net/url"

	"collabiora-client/internal/models"
	"collabiora-client/internal/tags"

	"github.com/google/uuid"
)

type threadsResponse struct {
	Threads []*models.ThreadNode `json:"threads"`
}

// GetThreads fetches the global forum thread list.
func (c *Client) GetThreads(ctx context.Context) ([]*models.ThreadNode, error) {
	var resp threadsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/forums/threads", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Threads == nil {
		resp.Threads = make([]*models.ThreadNode, 0)
	}
	return resp.Threads, nil
}

// GetCommunityThreads fetches one community's threads, optionally sorted
// ("recent", "top", "active").
func (c *Client) GetCommunityThreads(ctx context.Context, communityID, sort string) ([]*models.ThreadNode, error) {
	path := "/communities/" + communityID + "/threads"
	if sort != "" {
		query := url.Values{}
		query.Set("sort", sort)
		path += "?" + query.Encode()
	}
	var resp threadsResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Threads == nil {
		resp.Threads = make([]*models.ThreadNode, 0)
	}
	return resp.Threads, nil
}

type repliesResponse struct {
	Replies []*models.ReplyNode `json:"replies"`
}

// GetThreadReplies fetches the full (flat) reply list for a thread. Tree
// assembly happens client-side in the forums package.
func (c *Client) GetThreadReplies(ctx context.Context, threadID string) ([]*models.ReplyNode, error) {
	var resp repliesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/forums/threads/"+threadID, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Replies == nil {
		resp.Replies = make([]*models.ReplyNode, 0)
	}
	return resp.Replies, nil
}

type createThreadRequest struct {
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Tags          []string `json:"tags"`
	Conditions    []string `json:"conditions,omitempty"`
	CommunityID   string   `json:"communityId,omitempty"`
	SubcategoryID string   `json:"subcategoryId,omitempty"`
	AuthorID      string   `json:"authorId"`
}

// CreateThread submits a validated draft. Callers run tags.ValidateDraft
// first; the backend re-validates regardless.
func (c *Client) CreateThread(ctx context.Context, authorID uuid.UUID, draft *tags.ThreadDraft) (*models.ThreadNode, error) {
	req := createThreadRequest{
		Title:         draft.Title,
		Body:          draft.Body,
		Tags:          draft.Tags,
		Conditions:    draft.Conditions,
		CommunityID:   draft.CommunityID,
		SubcategoryID: draft.SubcategoryID,
		AuthorID:      authorID.String(),
	}
	var created models.ThreadNode
	if err := c.doJSON(ctx, http.MethodPost, "/forums/threads", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

type postReplyRequest struct {
	ThreadID      string  `json:"threadId"`
	ParentReplyID *string `json:"parentReplyId,omitempty"`
	Body          string  `json:"body"`
}

// PostReply creates a reply under the thread, nested when parentReplyID is
// set.
func (c *Client) PostReply(ctx context.Context, threadID string, parentReplyID *string, body string) (*models.ReplyNode, error) {
	req := postReplyRequest{ThreadID: threadID, ParentReplyID: parentReplyID, Body: body}
	var created models.ReplyNode
	if err := c.doJSON(ctx, http.MethodPost, "/forums/replies", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

type voteRequest struct {
	VoteType models.VoteDirection `json:"voteType"`
}

type voteResponse struct {
	VoteScore int `json:"voteScore"`
}

// VoteThread submits a thread vote and returns the server's new score.
func (c *Client) VoteThread(ctx context.Context, threadID string, direction models.VoteDirection) (int, error) {
	var resp voteResponse
	err := c.doJSON(ctx, http.MethodPost, "/forums/threads/"+threadID+"/vote", voteRequest{VoteType: direction}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.VoteScore, nil
}

// VoteReply submits a reply vote and returns the server's new score.
func (c *Client) VoteReply(ctx context.Context, replyID string, direction models.VoteDirection) (int, error) {
	var resp voteResponse
	err := c.doJSON(ctx, http.MethodPost, "/forums/replies/"+replyID+"/vote", voteRequest{VoteType: direction}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.VoteScore, nil
}
