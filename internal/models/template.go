package models

import "time"

// Category — категория шаблона. Хранится строковым токеном.
type Category string

const (
	CategorySocialMedia  Category = "SocialMedia"
	CategoryMarketing    Category = "Marketing"
	CategoryPresentation Category = "Presentation"
	CategoryPrint        Category = "Print"
	CategoryWeb          Category = "Web"
	CategoryOther        Category = "Other"
)

// Valid сообщает, входит ли категория в закрытый список.
func (c Category) Valid() bool {
	switch c {
	case CategorySocialMedia, CategoryMarketing, CategoryPresentation, CategoryPrint, CategoryWeb, CategoryOther:
		return true
	}
	return false
}

// Template — многоразовая заготовка холста.
// Удаляется только мягко (IsActive=false), чтобы ссылающиеся проекты не теряли связь.
type Template struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Category     Category  `json:"category"`
	ThumbnailURL string    `json:"thumbnail_url"`
	TemplateData Document  `json:"template_data,omitempty"`
	IsPremium    bool      `json:"is_premium"`
	IsActive     bool      `json:"is_active"`
	CreatedByID  *string   `json:"created_by_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TemplateInput — данные для создания шаблона.
type TemplateInput struct {
	Name         string   `json:"name" validate:"required,min=1,max=100"`
	Description  string   `json:"description,omitempty"`
	Category     Category `json:"category" validate:"required"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"required"`
	TemplateData Document `json:"template_data" validate:"required"`
	IsPremium    bool     `json:"is_premium"`
}

// TemplatePatch — частичное обновление шаблона: nil означает «поле не передано».
type TemplatePatch struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string   `json:"description,omitempty"`
	Category     *Category `json:"category,omitempty"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	TemplateData Document  `json:"template_data,omitempty"`
	IsPremium    *bool     `json:"is_premium,omitempty"`
	IsActive     *bool     `json:"is_active,omitempty"`
}

// TemplateFilter — параметры постраничного списка шаблонов.
type TemplateFilter struct {
	Category  *Category
	IsPremium *bool
	// IsActive по умолчанию (nil) означает «только активные».
	IsActive *bool
	Search   string
	SortBy   string // name, category, ispremium, createdat
	SortDesc bool
	Pagination
}
