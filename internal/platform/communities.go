package platform

import (
	"context"
	"net/http"

	"collabiora-client/internal/models"
)

// GetCommunity fetches one community, including its curated default tags.
func (c *Client) GetCommunity(ctx context.Context, communityID string) (*models.Community, error) {
	var community models.Community
	if err := c.doJSON(ctx, http.MethodGet, "/communities/"+communityID, nil, &community); err != nil {
		return nil, err
	}
	return &community, nil
}

type subcategoriesResponse struct {
	Subcategories []models.Subcategory `json:"subcategories"`
}

// GetSubcategories lists a community's subcategories.
func (c *Client) GetSubcategories(ctx context.Context, communityID string) ([]models.Subcategory, error) {
	var resp subcategoriesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/communities/"+communityID+"/subcategories", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Subcategories == nil {
		resp.Subcategories = make([]models.Subcategory, 0)
	}
	return resp.Subcategories, nil
}

type createSubcategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateSubcategory adds a subcategory under the community.
func (c *Client) CreateSubcategory(ctx context.Context, communityID, name, description string) (*models.Subcategory, error) {
	req := createSubcategoryRequest{Name: name, Description: description}
	var created models.Subcategory
	if err := c.doJSON(ctx, http.MethodPost, "/communities/"+communityID+"/subcategories", req, &created); err != nil {
		return nil, err
	}
	return &created, nil
}
