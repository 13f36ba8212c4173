package models

import "time"

// ProjectStatus — состояние проекта. Других состояний, кроме Draft и Completed, нет.
type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "Draft"
	ProjectStatusCompleted ProjectStatus = "Completed"
)

// Valid сообщает, входит ли статус в закрытый список.
func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusDraft || s == ProjectStatusCompleted
}

// Границы размеров холста, включительно.
const (
	MinDimension = 100
	MaxDimension = 5000
	MaxNameLen   = 100
)

// Project — проект пользователя. Владелец задаётся при создании и больше не меняется.
type Project struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	TemplateID   *string       `json:"template_id,omitempty"`
	Name         string        `json:"name"`
	CanvasData   Document      `json:"canvas_data"`
	ThumbnailURL *string       `json:"thumbnail_url,omitempty"`
	Width        int           `json:"width"`
	Height       int           `json:"height"`
	Status       ProjectStatus `json:"status"`
	ExportedAt   *time.Time    `json:"exported_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CreateProjectInput — данные для создания проекта.
type CreateProjectInput struct {
	Name       string   `json:"name" validate:"required,min=1,max=100"`
	TemplateID *string  `json:"template_id,omitempty"`
	CanvasData Document `json:"canvas_data,omitempty"`
	Width      int      `json:"width" validate:"required,min=100,max=5000"`
	Height     int      `json:"height" validate:"required,min=100,max=5000"`
}

// ProjectPatch — частичное обновление проекта. Непереданное поле (nil) не изменяется.
type ProjectPatch struct {
	Name         *string        `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	CanvasData   Document       `json:"canvas_data,omitempty"`
	ThumbnailURL *string        `json:"thumbnail_url,omitempty"`
	Width        *int           `json:"width,omitempty" validate:"omitempty,min=100,max=5000"`
	Height       *int           `json:"height,omitempty" validate:"omitempty,min=100,max=5000"`
	Status       *ProjectStatus `json:"status,omitempty"`
}

// Fields возвращает имена переданных полей в порядке объявления.
func (p ProjectPatch) Fields() []string {
	var fields []string
	if p.Name != nil {
		fields = append(fields, "Name")
	}
	if p.CanvasData != nil {
		fields = append(fields, "CanvasData")
	}
	if p.ThumbnailURL != nil {
		fields = append(fields, "ThumbnailUrl")
	}
	if p.Width != nil {
		fields = append(fields, "Width")
	}
	if p.Height != nil {
		fields = append(fields, "Height")
	}
	if p.Status != nil {
		fields = append(fields, "Status")
	}
	return fields
}

// ProjectFilter — параметры постраничного списка проектов пользователя.
type ProjectFilter struct {
	Status      *ProjectStatus
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string // name, status, createdat, exportedat, updatedat
	SortDesc    bool
	Pagination
}
