package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) AppendHistory(ctx context.Context, e models.HistoryEntry) (*models.HistoryEntry, error) {
	args := m.Called(ctx, e)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HistoryEntry), args.Error(1)
}

func (m *RepoMock) ListHistory(ctx context.Context, userID string, f models.HistoryFilter) ([]models.HistoryEntry, int, error) {
	args := m.Called(ctx, userID, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.HistoryEntry), args.Int(1), args.Error(2)
}

func (m *RepoMock) RecentHistory(ctx context.Context, userID string, count int) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryEntry), args.Error(1)
}

func (m *RepoMock) DeleteHistory(ctx context.Context, userID string, olderThan *time.Time) (int, error) {
	args := m.Called(ctx, userID, olderThan)
	return args.Int(0), args.Error(1)
}

type MetricsMock struct{ mock.Mock }

func (m *MetricsMock) RecordAuditFailure(actionType string) { m.Called(actionType) }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Append(t *testing.T) {
	projectID := "p-1"

	tests := []struct {
		name       string
		action     models.ActionType
		setupMocks func(r *RepoMock, m *MetricsMock)
		wantKind   models.Kind
	}{
		{
			name:   "success",
			action: models.ActionProjectExported,
			setupMocks: func(r *RepoMock, _ *MetricsMock) {
				r.On("AppendHistory", mock.Anything, mock.MatchedBy(func(e models.HistoryEntry) bool {
					return e.UserID == "u-1" && e.ActionType == models.ActionProjectExported &&
						*e.ProjectID == projectID && e.ActionData["format"] == "png"
				})).Return(&models.HistoryEntry{ID: "h-1"}, nil).Once()
			},
		},
		{
			name:       "unknown action type",
			action:     models.ActionType("ProjectShared"),
			setupMocks: func(_ *RepoMock, _ *MetricsMock) {},
			wantKind:   models.KindInvalidInput,
		},
		{
			name:   "storage failure is counted",
			action: models.ActionProjectExported,
			setupMocks: func(r *RepoMock, m *MetricsMock) {
				r.On("AppendHistory", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()
				m.On("RecordAuditFailure", "ProjectExported").Once()
			},
			wantKind: models.KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			metrics := new(MetricsMock)
			tt.setupMocks(repo, metrics)
			s := New(repo, metrics, newNoopLogger())

			err := s.Append(context.Background(), "u-1", tt.action, &projectID, models.Document{"format": "png"})
			if tt.wantKind == "" {
				require.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantKind, models.KindOf(err))
			}
			repo.AssertExpectations(t)
			metrics.AssertExpectations(t)
		})
	}
}

func TestService_AppendSurvivesCanceledContext(t *testing.T) {
	repo := new(RepoMock)
	repo.On("AppendHistory", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(&models.HistoryEntry{ID: "h-1"}, nil).Once()
	s := New(repo, new(MetricsMock), newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Append(ctx, "u-1", models.ActionProjectCreated, nil, nil))
	repo.AssertExpectations(t)
}

func TestService_Query(t *testing.T) {
	repo := new(RepoMock)
	s := New(repo, new(MetricsMock), newNoopLogger())
	entries := []models.HistoryEntry{{ID: "h-1"}, {ID: "h-2"}}

	repo.On("ListHistory", mock.Anything, "u-1", mock.MatchedBy(func(f models.HistoryFilter) bool {
		return f.Page == 1 && f.PageSize == models.DefaultPageSize && f.SortBy == "actiontype"
	})).Return(entries, 7, nil).Once()

	page, err := s.Query(context.Background(), "u-1", models.HistoryFilter{SortBy: "actiontype"})
	require.NoError(t, err)
	assert.Equal(t, 7, page.TotalCount)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.Page)

	bad := models.ActionType("Nope")
	_, err = s.Query(context.Background(), "u-1", models.HistoryFilter{ActionType: &bad})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err = s.Query(context.Background(), "u-1", models.HistoryFilter{From: &from, To: &to})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	repo.AssertExpectations(t)
}

func TestService_Recent(t *testing.T) {
	tests := []struct {
		name      string
		count     int
		wantCount int
	}{
		{"default count", 0, 10},
		{"explicit count", 3, 3},
		{"clamped count", 1000, models.MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("RecentHistory", mock.Anything, "u-1", tt.wantCount).Return(nil, nil).Once()
			s := New(repo, new(MetricsMock), newNoopLogger())

			got, err := s.Recent(context.Background(), "u-1", tt.count)
			require.NoError(t, err)
			assert.NotNil(t, got)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Clear(t *testing.T) {
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	repo := new(RepoMock)
	repo.On("DeleteHistory", mock.Anything, "u-1", &cutoff).Return(4, nil).Once()
	repo.On("DeleteHistory", mock.Anything, "u-2", (*time.Time)(nil)).Return(0, errors.New("db down")).Once()
	s := New(repo, new(MetricsMock), newNoopLogger())

	n, err := s.Clear(context.Background(), "u-1", &cutoff)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = s.Clear(context.Background(), "u-2", nil)
	assert.Equal(t, models.KindInternal, models.KindOf(err))
	repo.AssertExpectations(t)
}
