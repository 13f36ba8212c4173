// Package blobstore — HTTP-клиент объектного хранилища с REST API в стиле Supabase Storage.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/content-generator/internal/config"
)

// Client загружает файлы в bucket и выдаёт на них ссылки.
type Client struct {
	baseURL    string
	publicURL  string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент хранилища.
func NewClient(cfg config.BlobStore) *Client {
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.URL
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		publicURL:  strings.TrimRight(publicURL, "/"),
		bucket:     cfg.Bucket,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("apikey", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Upload сохраняет данные под именем name и возвращает публичную ссылку.
func (c *Client) Upload(ctx context.Context, data []byte, name, contentType string) (string, error) {
	const op = "blobstore.Upload"

	req, err := c.newRequest(ctx, http.MethodPost, "/object/"+c.bucket+"/"+escapePath(name), data, contentType)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("x-upsert", "false")
	if err := c.do(req, nil); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return c.PublicURL(name), nil
}

// PublicURL возвращает публичную ссылку на объект.
func (c *Client) PublicURL(name string) string {
	return c.publicURL + "/object/public/" + c.bucket + "/" + escapePath(name)
}

// ObjectName извлекает имя объекта из публичной ссылки. Ссылки на чужие bucket не распознаются.
func (c *Client) ObjectName(publicURL string) (string, bool) {
	prefix := c.publicURL + "/object/public/" + c.bucket + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

// Delete удаляет объект по его публичной ссылке. Возвращает false, если ссылка не принадлежит
// хранилищу или удаление не удалось.
func (c *Client) Delete(ctx context.Context, publicURL string) (bool, error) {
	const op = "blobstore.Delete"

	name, ok := c.ObjectName(publicURL)
	if !ok {
		return false, nil
	}
	body, err := json.Marshal(map[string][]string{"prefixes": {name}})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	req, err := c.newRequest(ctx, http.MethodDelete, "/object/"+c.bucket, body, "application/json")
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

type signRequest struct {
	ExpiresIn int `json:"expiresIn"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

// SignedURL выдаёт временную ссылку на объект path, действующую expiry.
func (c *Client) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	const op = "blobstore.SignedURL"

	body, err := json.Marshal(signRequest{ExpiresIn: int(expiry.Seconds())})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/object/sign/"+c.bucket+"/"+escapePath(path), body, "application/json")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var resp signResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if resp.SignedURL == "" {
		return "", fmt.Errorf("%s: empty signed url", op)
	}
	if strings.HasPrefix(resp.SignedURL, "http://") || strings.HasPrefix(resp.SignedURL, "https://") {
		return resp.SignedURL, nil
	}
	return c.publicURL + "/" + strings.TrimLeft(resp.SignedURL, "/"), nil
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
