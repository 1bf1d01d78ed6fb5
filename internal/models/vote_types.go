package models

// VoteContentType represents the kind of node being voted on.
type VoteContentType string

const (
	ThreadVote VoteContentType = "thread"
	ReplyVote  VoteContentType = "reply"
)

// VoteDirection represents the direction of a vote.
type VoteDirection string

const (
	VoteUp   VoteDirection = "upvote"
	VoteDown VoteDirection = "downvote"
)

// ValidVoteDirection reports whether d is a direction the backend accepts.
func ValidVoteDirection(d VoteDirection) bool {
	return d == VoteUp || d == VoteDown
}

// ValidVoteContentType reports whether t names a votable node kind.
func ValidVoteContentType(t VoteContentType) bool {
	return t == ThreadVote || t == ReplyVote
}
