package models

import "time"

// ThreadNode is a discussion thread as rendered in a list. Immutable once
// fetched except VoteScore (patched after a vote) and ReplyCount (bumped
// after a reply post).
type ThreadNode struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	Tags          []string  `json:"tags"`
	Conditions    []string  `json:"conditions"`
	VoteScore     int       `json:"voteScore"`
	ReplyCount    int       `json:"replyCount"`
	ViewCount     int       `json:"viewCount"`
	CommunityID   string    `json:"communityId,omitempty"`
	SubcategoryID string    `json:"subcategoryId,omitempty"`
	AuthorID      string    `json:"authorId"`
	AuthorName    string    `json:"authorName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Clone returns a detached copy. The forum actor patches VoteScore and
// ReplyCount on its own copy in place, so anything handed outside the actor
// must be cloned first.
func (t *ThreadNode) Clone() *ThreadNode {
	clone := *t
	clone.Tags = append([]string(nil), t.Tags...)
	clone.Conditions = append([]string(nil), t.Conditions...)
	return &clone
}

// ReplyNode forms the reply tree rooted at a thread. Depth is unbounded;
// the server is trusted to keep it sane. Invariant: every child's
// ParentReplyID equals its parent's ID.
type ReplyNode struct {
	ID            string       `json:"id"`
	ParentReplyID *string      `json:"parentReplyId,omitempty"`
	Body          string       `json:"body"`
	VoteScore     int          `json:"voteScore"`
	AuthorID      string       `json:"authorId"`
	AuthorName    string       `json:"authorName,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	Children      []*ReplyNode `json:"children"`
}

// Community groups threads; each community owns zero or more subcategories.
type Community struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	DefaultTags []string `json:"defaultTags,omitempty"`
	MemberCount int      `json:"memberCount,omitempty"`
}

// Subcategory is a second-level grouping inside one community.
type Subcategory struct {
	ID          string `json:"id"`
	CommunityID string `json:"communityId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StatusResponse is the generic success/failure envelope used by the bridge.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
