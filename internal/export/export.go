// Package export writes catalog records to JSON, CSV or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/j-veylop/aximo-tui/internal/logger"
	"github.com/j-veylop/aximo-tui/internal/models"
)

// Format is an export file format.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

var csvHeader = []string{
	"id", "name", "framework", "useCase", "dataset", "description",
	"image", "createdBy", "createdAt", "price", "purchased",
}

// row is the flat, format-neutral shape of an exported record.
type row struct {
	ID          string  `json:"_id" yaml:"_id"`
	Name        string  `json:"name" yaml:"name"`
	Framework   string  `json:"framework" yaml:"framework"`
	UseCase     string  `json:"useCase" yaml:"useCase"`
	Dataset     string  `json:"dataset" yaml:"dataset"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Image       string  `json:"image,omitempty" yaml:"image,omitempty"`
	CreatedBy   string  `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	Price       float64 `json:"price" yaml:"price"`
	Purchased   int     `json:"purchased" yaml:"purchased"`
}

func toRow(r *models.ModelRecord) row {
	out := row{
		ID:          r.ID,
		Name:        r.Name,
		Framework:   r.Framework,
		UseCase:     r.UseCase,
		Dataset:     r.Dataset,
		Description: r.Description,
		Image:       r.ImageURL,
		CreatedBy:   r.CreatedBy,
		Price:       r.Price,
		Purchased:   r.PurchasedCount,
	}
	if r.HasCreatedAt() {
		out.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// ParseFormat resolves a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Write encodes records to w in the given format, preserving order.
func Write(w io.Writer, records []models.ModelRecord, format Format) error {
	rows := make([]row, len(records))
	for i := range records {
		rows[i] = toRow(&records[i])
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
		return nil

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		return enc.Close()

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write csv: %w", err)
		}
		for _, r := range rows {
			record := []string{
				r.ID, r.Name, r.Framework, r.UseCase, r.Dataset, r.Description,
				r.Image, r.CreatedBy, r.CreatedAt,
				strconv.FormatFloat(r.Price, 'f', -1, 64),
				strconv.Itoa(r.Purchased),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write csv: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	}

	return fmt.Errorf("unsupported export format %q", format)
}

// ToFile writes records to path, choosing the format from its extension.
// The file is written to a temporary name first and renamed into place.
func ToFile(path string, records []models.ModelRecord) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	tmpFile := path + ".tmp"
	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	writeErr := Write(f, records, format)
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return writeErr
	}

	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
