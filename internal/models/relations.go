package models

import (
	"time"

	"github.com/google/uuid"
)

// FavoriteRecord is a denormalized copy of an entity taken at the moment the
// user favorited it. ServerID is assigned by the backend; a record created
// optimistically carries an empty ServerID until the authoritative refetch
// replaces it.
type FavoriteRecord struct {
	Type     EntityType     `json:"type"`
	Item     map[string]any `json:"item"`
	ServerID string         `json:"serverId,omitempty"`
	SavedAt  time.Time      `json:"savedAt,omitempty"`
}

// Entity rebuilds the Entity view of the stored copy.
func (f FavoriteRecord) Entity() Entity {
	return Entity{Type: f.Type, Fields: f.Item}
}

// FollowRelation is boolean presence: the user either follows the target or
// does not. Toggled, never versioned.
type FollowRelation struct {
	FollowerID    uuid.UUID `json:"followerId"`
	FollowingID   string    `json:"followingId"`
	FollowingRole string    `json:"followingRole"`
}
