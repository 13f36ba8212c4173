// Package render — HTTP-клиент внешнего рендерера, превращающего описание холста в изображение.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// ErrEmptyOutput возвращается, когда рендерер ответил успехом, но без данных.
var ErrEmptyOutput = errors.New("renderer returned empty output")

// Request — тело запроса к рендереру.
type Request struct {
	CanvasData models.Document `json:"canvas_data"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
	Format     string          `json:"format"`
	Quality    int             `json:"quality"`
}

// Client обращается к рендереру по HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент рендерера.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Render отправляет холст на отрисовку и возвращает закодированные байты изображения.
func (c *Client) Render(ctx context.Context, canvas models.Document, width, height int,
	format models.ExportFormat, quality int) ([]byte, error) {
	const op = "render.Render"

	if canvas == nil {
		canvas = models.Document{}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(Request{
		CanvasData: canvas,
		Width:      width,
		Height:     height,
		Format:     string(format),
		Quality:    quality,
	}); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", format.ContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyOutput)
	}
	return data, nil
}
