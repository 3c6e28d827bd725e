package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/accident-risk-service/internal/domain"
)

// FileSource reads the accident dataset from a JSON file. It accepts either
// the API envelope ({"status", "count", "data"}) or a bare array of records.
type FileSource struct {
	Path string
}

// FetchAccidents implements domain.AccidentSource.
func (s FileSource) FetchAccidents(_ context.Context) (domain.Dataset, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read accidents file: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []domain.AccidentRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return domain.Dataset{}, fmt.Errorf("decode %s: %w", s.Path, err)
		}
		return domain.Dataset{Records: records}, nil
	}

	var envelope struct {
		Count int                     `json:"count"`
		Data  []domain.AccidentRecord `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return domain.Dataset{}, fmt.Errorf("decode %s: %w", s.Path, err)
	}
	return domain.Dataset{Records: envelope.Data, Count: envelope.Count}, nil
}
