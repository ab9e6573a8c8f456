package esapi

import (
	"encoding/json"
	"fmt"
)

// SortField marshals to the engine's clause shape {"field":{"order":"asc"}}.
type SortField struct {
	Field string
	Order string
}

func (f SortField) MarshalJSON() ([]byte, error) {
	if f.Field == "" {
		return nil, fmt.Errorf("sort clause requires a field name")
	}
	order := f.Order
	if order == "" {
		order = SortAsc
	}
	return json.Marshal(map[string]map[string]string{f.Field: {"order": order}})
}

func (f *SortField) UnmarshalJSON(data []byte) error {
	var clause map[string]struct {
		Order string `json:"order"`
	}
	if err := json.Unmarshal(data, &clause); err != nil {
		return err
	}
	if len(clause) != 1 {
		return fmt.Errorf("sort clause must name exactly one field, got %d", len(clause))
	}
	for field, spec := range clause {
		f.Field = field
		f.Order = spec.Order
	}
	return nil
}
