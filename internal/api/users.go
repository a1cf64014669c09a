package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/j-veylop/aximo-tui/internal/models"
)

// ListUsers fetches every registered user. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser fetches a user by email.
func (c *Client) GetUser(ctx context.Context, email string) (models.User, error) {
	var u models.User
	if email == "" {
		return u, fmt.Errorf("email is empty")
	}
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(email), nil, nil, &u)
	return u, err
}

// RegisterUser creates the user record for a newly signed-up account.
func (c *Client) RegisterUser(ctx context.Context, u models.User) error {
	if u.Email == "" {
		return fmt.Errorf("email is empty")
	}
	return c.do(ctx, http.MethodPost, "/users", nil, u, nil)
}

// DeleteUser removes a user. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("user id is empty")
	}
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil, nil)
}

// AdminStats fetches the site-wide totals. Admin only.
func (c *Client) AdminStats(ctx context.Context) (models.AdminStats, error) {
	var stats models.AdminStats
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, nil, &stats)
	return stats, err
}
