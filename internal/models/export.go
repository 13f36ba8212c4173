package models

import (
	"strings"
	"time"
)

// ExportFormat — формат экспортируемого файла.
type ExportFormat string

const (
	FormatPNG ExportFormat = "png"
	FormatJPG ExportFormat = "jpg"
	FormatPDF ExportFormat = "pdf"
)

// Границы качества экспорта (DPI), включительно.
const (
	MinQuality = 72
	MaxQuality = 300
)

// ParseExportFormat приводит строку к формату экспорта без учёта регистра.
func ParseExportFormat(s string) (ExportFormat, bool) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatJPG, FormatPDF:
		return f, true
	}
	return "", false
}

// ContentType возвращает MIME-тип файла.
func (f ExportFormat) ContentType() string {
	switch f {
	case FormatJPG:
		return "image/jpeg"
	case FormatPDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// ExportRequest — запрос на экспорт проекта.
type ExportRequest struct {
	ProjectID string `json:"project_id" validate:"required"`
	Format    string `json:"format" validate:"required,oneof=png jpg pdf"`
	Quality   int    `json:"quality" validate:"required,min=72,max=300"`
}

// ExportResult — итог успешного экспорта.
type ExportResult struct {
	URL        string    `json:"url"`
	FileName   string    `json:"file_name"`
	ExportedAt time.Time `json:"exported_at"`
}

// ExportEvent публикуется в очередь после фиксации экспорта и используется для уведомления владельца.
type ExportEvent struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Format      string    `json:"format"`
	URL         string    `json:"url"`
	ExportedAt  time.Time `json:"exported_at"`
}
