package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKindAndReason(t *testing.T) {
	render := RenderFailed(errors.New("timeout"))

	assert.ErrorIs(t, render, ErrDependencyFailure)
	assert.ErrorIs(t, render, ErrRenderFailed)
	assert.NotErrorIs(t, render, ErrUploadFailed)
	assert.NotErrorIs(t, render, ErrNotFound)

	wrapped := fmt.Errorf("export: %w", NotFound("project not found"))
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "project not found", PublicMessage(wrapped))
}

func TestKindOfAndPublicMessage(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("pq: connection reset")))
	assert.Equal(t, "internal error", PublicMessage(errors.New("pq: connection reset")))
	assert.Equal(t, "internal error", PublicMessage(&Error{Kind: KindConflict}))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "x"))

	raw := errors.New("driver failure")
	err := Wrap(raw, "failed to load project")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "failed to load project", PublicMessage(err))
	assert.ErrorIs(t, err, raw)

	typed := QuotaExceeded("limit reached")
	assert.Same(t, typed, Wrap(typed, "other").(*Error))

	bare := Wrap(&Error{Kind: KindConflict}, "project was modified")
	assert.ErrorIs(t, bare, ErrConflict)
	assert.Equal(t, "project was modified", PublicMessage(bare))
}

func TestDocument_ValueScanClone(t *testing.T) {
	var nilDoc Document
	v, err := nilDoc.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	doc := Document{"layers": []any{map[string]any{"type": "text"}}, "w": 10.0}
	v, err = doc.Value()
	require.NoError(t, err)

	var scanned Document
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, doc, scanned)

	require.NoError(t, scanned.Scan(`{"a":1}`))
	assert.Equal(t, 1.0, scanned["a"])
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
	assert.Error(t, scanned.Scan(42))

	clone := doc.Clone()
	clone["layers"].([]any)[0].(map[string]any)["type"] = "image"
	assert.Equal(t, "text", doc["layers"].([]any)[0].(map[string]any)["type"])
}

func TestPagination_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Pagination
		want Pagination
	}{
		{"defaults", Pagination{}, Pagination{Page: 1, PageSize: DefaultPageSize}},
		{"negative page", Pagination{Page: -3, PageSize: 5}, Pagination{Page: 1, PageSize: 5}},
		{"clamped size", Pagination{Page: 2, PageSize: 1000}, Pagination{Page: 2, PageSize: MaxPageSize}},
		{"huge page", Pagination{Page: 1 << 62, PageSize: 20}, Pagination{Page: MaxOffset/20 + 1, PageSize: 20}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
	assert.Equal(t, 40, Pagination{Page: 3, PageSize: 20}.Offset())

	for _, size := range []int{0, 1, 7, 20, MaxPageSize, 1000} {
		offset := Pagination{Page: 1 << 62, PageSize: size}.Normalize().Offset()
		assert.GreaterOrEqual(t, offset, 0, size)
		assert.LessOrEqual(t, offset, MaxOffset, size)
	}

	page := NewPage[int](nil, 0, Pagination{Page: 1, PageSize: 20})
	assert.NotNil(t, page.Items)
}

func TestUserQuotaAndTier(t *testing.T) {
	u := &User{Tier: TierFree, MonthlyExportsUsed: 4, MonthlyExportsLimit: 5}
	assert.True(t, u.CanExport())
	assert.False(t, u.CanUsePremium())
	u.MonthlyExportsUsed = 5
	assert.False(t, u.CanExport())

	assert.Less(t, TierFree.Rank(), TierPro.Rank())
	assert.Less(t, TierPro.Rank(), TierAgency.Rank())
	assert.False(t, Tier("Gold").Valid())

	limits := TierLimits{Free: 5, Pro: 100, Agency: 1000}
	assert.Equal(t, 100, limits.For(TierPro))
	assert.Equal(t, 5, limits.For(Tier("unknown")))
}

func TestExportFormat(t *testing.T) {
	f, ok := ParseExportFormat(" PNG ")
	assert.True(t, ok)
	assert.Equal(t, FormatPNG, f)
	assert.Equal(t, "image/jpeg", FormatJPG.ContentType())
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
	_, ok = ParseExportFormat("gif")
	assert.False(t, ok)
}

func TestProjectPatch_Fields(t *testing.T) {
	name := "x"
	w := 200
	p := ProjectPatch{Name: &name, Width: &w, CanvasData: Document{}}
	assert.Equal(t, []string{"Name", "CanvasData", "Width"}, p.Fields())
	assert.Empty(t, ProjectPatch{}.Fields())
}

func TestValidate(t *testing.T) {
	ok := CreateProjectInput{Name: "Poster", Width: 100, Height: 5000}
	assert.NoError(t, Validate(ok))

	tests := []struct {
		name string
		in   any
		msg  string
	}{
		{"missing name", CreateProjectInput{Width: 100, Height: 100}, "name is required"},
		{"width too small", CreateProjectInput{Name: "a", Width: 99, Height: 100}, "width must be at least 100"},
		{"height too large", CreateProjectInput{Name: "a", Width: 100, Height: 5001}, "height must be at most 5000"},
		{"quality too high", ExportRequest{ProjectID: "6f1c2a4e-3b1d-4c7a-9f0e-2d5b8a1c3e47", Format: "png", Quality: 301}, "quality must be at most 300"},
		{"bad format", ExportRequest{ProjectID: "6f1c2a4e-3b1d-4c7a-9f0e-2d5b8a1c3e47", Format: "gif", Quality: 100}, "format must be one of: png jpg pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, tt.msg, PublicMessage(err))
		})
	}

	exp := time.Now()
	assert.NoError(t, Validate(SubscriptionUpdate{Tier: TierPro, ExpiresAt: &exp}))
	assert.ErrorIs(t, Validate(SubscriptionUpdate{Tier: "Gold"}), ErrInvalidInput)
}
