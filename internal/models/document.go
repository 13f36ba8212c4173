package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Document — непрозрачный структурированный документ (данные холста, шаблона, события истории).
// Ядро не интерпретирует содержимое, только хранит и передаёт рендереру.
type Document map[string]any

// Value сериализует документ в JSON для колонки jsonb. nil сохраняется как NULL.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("models.Document.Value: %w", err)
	}
	return b, nil
}

// Scan читает документ из колонки jsonb.
func (d *Document) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models.Document.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*d = nil
		return nil
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("models.Document.Scan: %w", err)
	}
	*d = out
	return nil
}

// Clone возвращает глубокую копию документа, чтобы копии проектов не делили вложенные значения.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Document:
		return Document(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return t
	}
}
