package history

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

const userID = "7a1c1f0e-3c55-4d9c-9a55-3f1f0a6f8b11"

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Query(ctx context.Context, userID string, f models.HistoryFilter) (*models.Page[models.HistoryEntry], error) {
	args := m.Called(ctx, userID, f)
	p, _ := args.Get(0).(*models.Page[models.HistoryEntry])
	return p, args.Error(1)
}

func (m *ServiceMock) Recent(ctx context.Context, userID string, count int) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, userID, count)
	e, _ := args.Get(0).([]models.HistoryEntry)
	return e, args.Error(1)
}

func (m *ServiceMock) Clear(ctx context.Context, userID string, olderThan *time.Time) (int, error) {
	args := m.Called(ctx, userID, olderThan)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func do(svc Service, method, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/history", New(newNoopLogger(), svc).Routes)

	req := httptest.NewRequest(method, target, nil)
	req = req.WithContext(middlewarectx.WithActor(req.Context(), models.Actor{UserID: userID, Role: models.RoleUser}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestQuery(t *testing.T) {
	exported := models.ActionProjectExported
	projectID := "1b4e28ba-2fa1-11d2-883f-0016d3cca427"

	tests := []struct {
		name       string
		target     string
		want       *models.HistoryFilter
		err        error
		wantStatus int
	}{
		{
			name:   "filters",
			target: "/history?action_type=ProjectExported&project_id=" + projectID + "&sort_by=actionType&page=2",
			want: &models.HistoryFilter{
				ActionType: &exported,
				ProjectID:  &projectID,
				SortBy:     "actiontype",
				Pagination: models.Pagination{Page: 2},
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown action type",
			target:     "/history?action_type=Deleted",
			err:        models.InvalidInput("unknown action type %q", "Deleted"),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad date",
			target:     "/history?from=01.05.2026",
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			switch {
			case tt.want != nil:
				svc.On("Query", mock.Anything, userID, *tt.want).
					Return(models.NewPage[models.HistoryEntry](nil, 0, models.Pagination{Page: 2, PageSize: 20}), nil)
			case tt.err != nil:
				svc.On("Query", mock.Anything, userID, mock.Anything).Return(nil, tt.err)
			}

			rec := do(svc, http.MethodGet, tt.target)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestRecent(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Recent", mock.Anything, userID, 0).Return([]models.HistoryEntry{}, nil)

	rec := do(svc, http.MethodGet, "/history/recent")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","data":[]}`, rec.Body.String())
}

func TestClear(t *testing.T) {
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	svc := new(ServiceMock)
	svc.On("Clear", mock.Anything, userID, (*time.Time)(nil)).Return(4, nil).Once()
	svc.On("Clear", mock.Anything, userID, &cutoff).Return(1, nil).Once()

	rec := do(svc, http.MethodDelete, "/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data["removed"])

	rec = do(svc, http.MethodDelete, "/history?older_than=2026-01-01T00:00:00Z")
	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
