package platform

import (
	"context"
	"net/http"
	"net/url"

	"collabiora-client/internal/models"

	"github.com/google/uuid"
)

type favoritesResponse struct {
	Items []models.FavoriteRecord `json:"items"`
}

// GetFavorites fetches the authoritative favorites set for the user.
func (c *Client) GetFavorites(ctx context.Context, userID uuid.UUID) ([]models.FavoriteRecord, error) {
	var resp favoritesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/favorites/"+userID.String(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Items == nil {
		resp.Items = make([]models.FavoriteRecord, 0)
	}
	return resp.Items, nil
}

type addFavoriteRequest struct {
	Type models.EntityType `json:"type"`
	Item map[string]any    `json:"item"`
}

// AddFavorite stores a denormalized copy of the entity server-side and
// returns the created record, including its server id.
func (c *Client) AddFavorite(ctx context.Context, userID uuid.UUID, record models.FavoriteRecord) (*models.FavoriteRecord, error) {
	req := addFavoriteRequest{Type: record.Type, Item: record.Item}
	var created models.FavoriteRecord
	if err := c.doJSON(ctx, http.MethodPost, "/favorites/"+userID.String(), req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RemoveFavorite deletes the favorite identified by type and id.
func (c *Client) RemoveFavorite(ctx context.Context, userID uuid.UUID, entityType models.EntityType, id string) error {
	query := url.Values{}
	query.Set("type", string(entityType))
	query.Set("id", id)
	return c.doJSON(ctx, http.MethodDelete, "/favorites/"+userID.String()+"?"+query.Encode(), nil, nil)
}
