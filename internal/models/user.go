// Package models содержит доменные структуры сервиса: пользователя с месячной квотой экспортов,
// шаблоны, проекты, записи журнала действий, а также фильтры, страницы и типизированные ошибки.
package models

import "time"

// Tier — тариф пользователя. Хранится строковым токеном.
type Tier string

const (
	TierFree   Tier = "Free"
	TierPro    Tier = "Pro"
	TierAgency Tier = "Agency"
)

// Valid сообщает, входит ли тариф в закрытый список.
func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierAgency:
		return true
	}
	return false
}

// Rank возвращает порядок тарифа для определения повышения или понижения.
func (t Tier) Rank() int {
	switch t {
	case TierPro:
		return 1
	case TierAgency:
		return 2
	default:
		return 0
	}
}

// Role — роль вызывающего, выдаётся внешним провайдером идентичности.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor — проверенная внешним провайдером личность вызывающего.
type Actor struct {
	UserID string
	Role   Role
}

// IsAdmin сообщает, обладает ли вызывающий повышенными привилегиями.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// User представляет владельца проектов вместе с месячным счётчиком экспортов.
type User struct {
	ID                    string     `json:"id"`
	Email                 string     `json:"email"`
	Username              string     `json:"username"`
	Tier                  Tier       `json:"subscription_tier"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`
	MonthlyExportsUsed    int        `json:"monthly_exports_used"`
	MonthlyExportsLimit   int        `json:"monthly_exports_limit"`
	IsActive              bool       `json:"is_active"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// CanExport сообщает, остался ли у пользователя хотя бы один экспорт в текущем месяце.
// Проверка неблокирующая: окончательное решение принимает атомарная фиксация экспорта.
func (u *User) CanExport() bool {
	return u.MonthlyExportsUsed < u.MonthlyExportsLimit
}

// CanUsePremium сообщает, доступны ли пользователю премиальные шаблоны.
func (u *User) CanUsePremium() bool {
	return u.Tier != TierFree
}

// TierLimits задаёт месячный лимит экспортов по умолчанию для каждого тарифа.
type TierLimits struct {
	Free   int
	Pro    int
	Agency int
}

// For возвращает лимит для тарифа.
func (l TierLimits) For(t Tier) int {
	switch t {
	case TierPro:
		return l.Pro
	case TierAgency:
		return l.Agency
	default:
		return l.Free
	}
}

// SubscriptionUpdate описывает смену тарифа. Если ExportsLimit не задан, берётся лимит тарифа.
type SubscriptionUpdate struct {
	Tier         Tier       `json:"tier" validate:"required,oneof=Free Pro Agency"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	ExportsLimit *int       `json:"monthly_exports_limit,omitempty" validate:"omitempty,gte=0"`
}

// QuotaUsage — состояние месячной квоты экспортов.
type QuotaUsage struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}
