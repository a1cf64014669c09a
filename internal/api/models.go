package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/j-veylop/aximo-tui/internal/models"
)

// ListModels fetches the whole catalog in backend order.
func (c *Client) ListModels(ctx context.Context) ([]models.ModelRecord, error) {
	return c.getModels(ctx, "/models", nil)
}

// RecentModels fetches the backend's short list of newest models.
func (c *Client) RecentModels(ctx context.Context) ([]models.ModelRecord, error) {
	return c.getModels(ctx, "/models/recent", nil)
}

// MyModels fetches the models added by email.
func (c *Client) MyModels(ctx context.Context, email string) ([]models.ModelRecord, error) {
	return c.getModels(ctx, "/my-models", url.Values{"email": {email}})
}

func (c *Client) getModels(ctx context.Context, path string, query url.Values) ([]models.ModelRecord, error) {
	var raw []models.RawModelRecord
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	records := make([]models.ModelRecord, len(raw))
	for i := range raw {
		records[i] = raw[i].ToRecord()
	}
	return records, nil
}

// GetModel fetches one model. Results are memoized until the model is
// updated, deleted or purchased through this client.
func (c *Client) GetModel(ctx context.Context, id string) (models.ModelRecord, error) {
	if id == "" {
		return models.ModelRecord{}, fmt.Errorf("model id is empty")
	}
	if rec, ok := c.details.Get(id); ok {
		return rec, nil
	}

	var raw models.RawModelRecord
	if err := c.do(ctx, http.MethodGet, "/models/"+url.PathEscape(id), nil, nil, &raw); err != nil {
		return models.ModelRecord{}, err
	}
	rec := raw.ToRecord()
	c.details.Add(id, rec)
	return rec, nil
}

type modelPayload struct {
	models.NewModelInput
	CreatedBy string    `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	Purchased *int      `json:"purchased,omitempty"`
}

type insertResult struct {
	InsertedID models.ObjectID `json:"insertedId"`
}

// AddModel creates a model owned by createdBy and returns its ID.
func (c *Client) AddModel(ctx context.Context, in models.NewModelInput, createdBy string) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	zero := 0
	body := modelPayload{
		NewModelInput: in,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
		Purchased:     &zero,
	}

	var res insertResult
	if err := c.do(ctx, http.MethodPost, "/models", nil, body, &res); err != nil {
		return "", err
	}
	return res.InsertedID.String(), nil
}

// UpdateModel replaces the editable fields of a model.
func (c *Client) UpdateModel(ctx context.Context, id string, in models.NewModelInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	defer c.details.Remove(id)
	return c.do(ctx, http.MethodPut, "/models/"+url.PathEscape(id), nil, modelPayload{NewModelInput: in}, nil)
}

// DeleteModel removes a model.
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	defer c.details.Remove(id)
	return c.do(ctx, http.MethodDelete, "/models/"+url.PathEscape(id), nil, nil, nil)
}

// PurchaseModel records a purchase of model id.
func (c *Client) PurchaseModel(ctx context.Context, id string, p models.Purchase) error {
	if p.BuyerEmail == "" {
		return fmt.Errorf("purchase requires a buyer email")
	}
	p.ModelID = id
	if p.PurchasedAt.IsZero() {
		p.PurchasedAt = time.Now().UTC()
	}
	defer c.details.Remove(id)
	return c.do(ctx, http.MethodPost, "/models/"+url.PathEscape(id)+"/purchase", nil, p, nil)
}

// MyPurchases fetches the purchases made by email.
func (c *Client) MyPurchases(ctx context.Context, email string) ([]models.Purchase, error) {
	var purchases []models.Purchase
	if err := c.do(ctx, http.MethodGet, "/my-purchases", url.Values{"email": {email}}, nil, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}
