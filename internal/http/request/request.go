// Package request разбирает тело и параметры запросов для обработчиков.
package request

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// DecodeJSON читает JSON-тело запроса в dst. Пустое или битое тело — ошибка ввода.
func DecodeJSON(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		if errors.Is(err, io.EOF) {
			return models.InvalidInput("request body is empty")
		}
		return models.InvalidInput("failed to decode request body")
	}
	return nil
}

// Pagination читает page и page_size. Значения по умолчанию подставляет Normalize.
func Pagination(q url.Values) (models.Pagination, error) {
	page, err := Int(q, "page", 0)
	if err != nil {
		return models.Pagination{}, err
	}
	size, err := Int(q, "page_size", 0)
	if err != nil {
		return models.Pagination{}, err
	}
	return models.Pagination{Page: page, PageSize: size}, nil
}

// Int читает целый параметр. Отсутствующий параметр даёт def.
func Int(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.InvalidInput("%s must be an integer", key)
	}
	return n, nil
}

// Bool читает необязательный логический параметр.
func Bool(q url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, models.InvalidInput("%s must be a boolean", key)
	}
	return &b, nil
}

// Time читает необязательную метку времени в RFC 3339.
func Time(q url.Values, key string) (*time.Time, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, models.InvalidInput("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// String возвращает указатель на непустое значение параметра.
func String(q url.Values, key string) *string {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	return &raw
}

// Sort читает sort_by и sort_order. Поле приводится к нижнему регистру.
func Sort(q url.Values) (by string, desc bool, err error) {
	by = strings.ToLower(strings.TrimSpace(q.Get("sort_by")))
	switch strings.ToLower(strings.TrimSpace(q.Get("sort_order"))) {
	case "", "asc":
		return by, false, nil
	case "desc":
		return by, true, nil
	default:
		return "", false, models.InvalidInput("sort_order must be asc or desc")
	}
}
