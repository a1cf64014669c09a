package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRawModelRecord_ToRecord(t *testing.T) {
	data := `{
		"_id": {"$oid": "65a1f0c2e4b0a1b2c3d4e5f6"},
		"name": "ResNet-50",
		"framework": "PyTorch",
		"useCase": "Vision",
		"dataset": "ImageNet",
		"description": "Residual network",
		"image": "https://img.example.com/resnet.png",
		"createdAt": "2024-03-01T10:00:00Z",
		"createdBy": "alice@example.com",
		"price": "19.5",
		"purchased": 7
	}`

	var raw RawModelRecord
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	rec := raw.ToRecord()

	if rec.ID != "65a1f0c2e4b0a1b2c3d4e5f6" {
		t.Errorf("ID = %q", rec.ID)
	}
	if rec.ImageURL != "https://img.example.com/resnet.png" {
		t.Errorf("ImageURL = %q", rec.ImageURL)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, want)
	}
	if rec.Price != 19.5 {
		t.Errorf("Price = %v, want 19.5", rec.Price)
	}
	if rec.PurchasedCount != 7 {
		t.Errorf("PurchasedCount = %d, want 7", rec.PurchasedCount)
	}
}

func TestRawModelRecord_MissingFields(t *testing.T) {
	var raw RawModelRecord
	if err := json.Unmarshal([]byte(`{"_id": "abc", "name": "Bare"}`), &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	rec := raw.ToRecord()

	if rec.HasCreatedAt() {
		t.Error("record without createdAt should report no timestamp")
	}
	if rec.PurchasedCount != 0 {
		t.Errorf("PurchasedCount = %d, want 0", rec.PurchasedCount)
	}
	if rec.Framework != "" {
		t.Errorf("Framework = %q, want empty", rec.Framework)
	}
}

func TestRawModelRecord_PurchasedCountAlias(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int
	}{
		{"Purchased", `{"purchased": 3}`, 3},
		{"PurchasedCount", `{"purchasedCount": 4}`, 4},
		{"PurchasedWins", `{"purchased": 2, "purchasedCount": 9}`, 2},
		{"Negative", `{"purchased": -5}`, 0},
		{"String", `{"purchased": "12"}`, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw RawModelRecord
			if err := json.Unmarshal([]byte(tt.json), &raw); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got := raw.ToRecord().PurchasedCount; got != tt.want {
				t.Errorf("PurchasedCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseTimeField(t *testing.T) {
	tests := []struct {
		name string
		data string
		want time.Time
	}{
		{"RFC3339", `"2024-01-01T00:00:00Z"`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"Millis", `"2024-01-01T00:00:00.000Z"`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"DateOnly", `"2024-02-01"`, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"UnixSeconds", `1704067200`, time.Unix(1704067200, 0)},
		{"UnixMillis", `1704067200000`, time.UnixMilli(1704067200000)},
		{"DateWrapper", `{"$date": "2024-01-01T00:00:00Z"}`, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"Garbage", `"yesterday"`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTimeField(json.RawMessage(tt.data))
			if !got.Equal(tt.want) {
				t.Errorf("parseTimeField(%s) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

func TestDecodeModelRecords(t *testing.T) {
	records, err := DecodeModelRecords([]byte(`[{"_id":"1","name":"A"},{"_id":"2","name":"B"}]`))
	if err != nil {
		t.Fatalf("DecodeModelRecords failed: %v", err)
	}
	if len(records) != 2 || records[0].Name != "A" || records[1].ID != "2" {
		t.Errorf("unexpected records: %+v", records)
	}

	if _, err := DecodeModelRecords([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("expected error for non-array input")
	}
}

func TestNewModelInput_Validate(t *testing.T) {
	full := NewModelInput{
		Name: "BERT", Framework: "TensorFlow", UseCase: "NLP",
		Dataset: "Wikipedia", Description: "Encoder", Image: "https://x/y.png",
	}
	if err := full.Validate(); err != nil {
		t.Errorf("Validate() on complete input = %v", err)
	}

	partial := full
	partial.Dataset = "  "
	partial.Image = ""
	err := partial.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "dataset") || !strings.Contains(err.Error(), "image") {
		t.Errorf("error should name missing fields, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("errors.Is(%v, ErrValidation) = false", err)
	}
}

func TestModelRecord_OwnedBy(t *testing.T) {
	rec := ModelRecord{CreatedBy: "Alice@Example.com"}
	if !rec.OwnedBy("alice@example.com") {
		t.Error("OwnedBy should compare emails case-insensitively")
	}
	if rec.OwnedBy("") {
		t.Error("empty email should never own a record")
	}
}

func TestObjectID_Unmarshal(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"_id":{"$oid":"u1"},"email":"a@b.c"}`), &u); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if u.ID.String() != "u1" {
		t.Errorf("ID = %q, want u1", u.ID)
	}
}
