package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

func TestClient_Render(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []byte
		wantErr error
	}{
		{
			name: "returns image bytes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/render", r.URL.Path)
				assert.Equal(t, "image/png", r.Header.Get("Accept"))

				var req Request
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, 1080, req.Width)
				assert.Equal(t, 720, req.Height)
				assert.Equal(t, "png", req.Format)
				assert.Equal(t, 150, req.Quality)
				assert.Equal(t, "#000", req.CanvasData["background"])

				w.Header().Set("Content-Type", "image/png")
				_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
			},
			want: []byte{0x89, 'P', 'N', 'G'},
		},
		{
			name: "empty body is an error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantErr: ErrEmptyOutput,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL+"/", time.Second)
			got, err := c.Render(context.Background(), models.Document{"background": "#000"}, 1080, 720, models.FormatPNG, 150)

			if tt.want != nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClient_RenderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond)
	_, err := c.Render(context.Background(), nil, 100, 100, models.FormatJPG, 72)
	require.Error(t, err)
}
