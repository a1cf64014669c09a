// Package models defines data structures and domain types.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ModelRecord is one catalog entry describing an AI model's metadata.
// A zero CreatedAt means the backend did not report one.
type ModelRecord struct {
	CreatedAt      time.Time `json:"createdAt"`
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Framework      string    `json:"framework"`
	UseCase        string    `json:"useCase"`
	Dataset        string    `json:"dataset"`
	Description    string    `json:"description,omitempty"`
	ImageURL       string    `json:"image,omitempty"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	Price          float64   `json:"price,omitempty"`
	PurchasedCount int       `json:"purchased"`
}

// HasCreatedAt reports whether the record carries a creation timestamp.
func (r *ModelRecord) HasCreatedAt() bool {
	return !r.CreatedAt.IsZero()
}

// OwnedBy reports whether the record was added by the given user.
func (r *ModelRecord) OwnedBy(email string) bool {
	return email != "" && strings.EqualFold(r.CreatedBy, email)
}

// RawModelRecord is the wire shape of a model as the backend and snapshot
// files emit it. Several fields come in more than one encoding.
type RawModelRecord struct {
	ID             ObjectID        `json:"_id"`
	Name           string          `json:"name"`
	Framework      string          `json:"framework"`
	UseCase        string          `json:"useCase"`
	Dataset        string          `json:"dataset"`
	Description    string          `json:"description"`
	Image          string          `json:"image"`
	ImageURL       string          `json:"imageUrl"`
	CreatedBy      string          `json:"createdBy"`
	CreatedAt      json.RawMessage `json:"createdAt,omitempty"`
	Price          json.RawMessage `json:"price,omitempty"`
	Purchased      json.RawMessage `json:"purchased,omitempty"`
	PurchasedCount json.RawMessage `json:"purchasedCount,omitempty"`
}

// ToRecord converts the wire shape into a ModelRecord.
func (r *RawModelRecord) ToRecord() ModelRecord {
	rec := ModelRecord{
		ID:          string(r.ID),
		Name:        r.Name,
		Framework:   r.Framework,
		UseCase:     r.UseCase,
		Dataset:     r.Dataset,
		Description: r.Description,
		ImageURL:    r.Image,
		CreatedBy:   r.CreatedBy,
	}
	if rec.ImageURL == "" {
		rec.ImageURL = r.ImageURL
	}

	if len(r.CreatedAt) > 0 {
		rec.CreatedAt = parseTimeField(r.CreatedAt)
	}
	if len(r.Price) > 0 {
		rec.Price = parseNumberField(r.Price)
	}

	count := r.Purchased
	if len(count) == 0 {
		count = r.PurchasedCount
	}
	if len(count) > 0 {
		rec.PurchasedCount = max(int(parseNumberField(count)), 0)
	}

	return rec
}

// DecodeModelRecords parses a JSON array of raw records.
func DecodeModelRecords(data []byte) ([]ModelRecord, error) {
	var raw []RawModelRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}
	records := make([]ModelRecord, len(raw))
	for i := range raw {
		records[i] = raw[i].ToRecord()
	}
	return records, nil
}

// NewModelInput holds the fields a user supplies when adding or editing a model.
type NewModelInput struct {
	Name        string `json:"name"`
	Framework   string `json:"framework"`
	UseCase     string `json:"useCase"`
	Dataset     string `json:"dataset"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// ErrValidation is wrapped by every error reporting invalid model input.
var ErrValidation = errors.New("invalid model input")

// Validate returns an error naming every blank field.
func (in NewModelInput) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", in.Name},
		{"framework", in.Framework},
		{"useCase", in.UseCase},
		{"dataset", in.Dataset},
		{"description", in.Description},
		{"image", in.Image},
	}

	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required fields: %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// InputFromRecord pre-fills an edit form from an existing record.
func InputFromRecord(r ModelRecord) NewModelInput {
	return NewModelInput{
		Name:        r.Name,
		Framework:   r.Framework,
		UseCase:     r.UseCase,
		Dataset:     r.Dataset,
		Description: r.Description,
		Image:       r.ImageURL,
	}
}
