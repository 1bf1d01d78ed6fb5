package platform

import (
	"context"
	"net/http"

	"collabiora-client/internal/models"

	"github.com/google/uuid"
)

type followRequest struct {
	FollowerID    string `json:"followerId"`
	FollowingID   string `json:"followingId"`
	FollowerRole  string `json:"followerRole"`
	FollowingRole string `json:"followingRole"`
}

// Follow creates the follow relation.
func (c *Client) Follow(ctx context.Context, relation models.FollowRelation, followerRole string) error {
	req := followRequest{
		FollowerID:    relation.FollowerID.String(),
		FollowingID:   relation.FollowingID,
		FollowerRole:  followerRole,
		FollowingRole: relation.FollowingRole,
	}
	return c.doJSON(ctx, http.MethodPost, "/follow", req, nil)
}

// Unfollow removes the follow relation.
func (c *Client) Unfollow(ctx context.Context, relation models.FollowRelation, followerRole string) error {
	req := followRequest{
		FollowerID:    relation.FollowerID.String(),
		FollowingID:   relation.FollowingID,
		FollowerRole:  followerRole,
		FollowingRole: relation.FollowingRole,
	}
	return c.doJSON(ctx, http.MethodDelete, "/follow", req, nil)
}

type followingResponse struct {
	Items []models.FollowRelation `json:"items"`
}

// GetFollowing fetches the authoritative follow set for the user.
func (c *Client) GetFollowing(ctx context.Context, userID uuid.UUID) ([]models.FollowRelation, error) {
	var resp followingResponse
	if err := c.doJSON(ctx, http.MethodGet, "/follow/"+userID.String(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = make([]models.FollowRelation, 0)
	}
	return resp.Items, nil
}

type isFollowingResponse struct {
	IsFollowing bool `json:"isFollowing"`
}

// IsFollowingCommunity is the existence check for community membership.
func (c *Client) IsFollowingCommunity(ctx context.Context, communityID string, userID uuid.UUID) (bool, error) {
	var resp isFollowingResponse
	err := c.doJSON(ctx, http.MethodGet, "/communities/"+communityID+"/following/"+userID.String(), nil, &resp)
	if err != nil {
		return false, err
	}
	return resp.IsFollowing, nil
}
