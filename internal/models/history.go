package models

import "time"

// ActionType — вид действия в журнале. Закрытый список, хранится строковым токеном.
type ActionType string

const (
	ActionUserRegistered         ActionType = "UserRegistered"
	ActionProjectCreated         ActionType = "ProjectCreated"
	ActionProjectUpdated         ActionType = "ProjectUpdated"
	ActionProjectExported        ActionType = "ProjectExported"
	ActionTemplateUsed           ActionType = "TemplateUsed"
	ActionSubscriptionUpgraded   ActionType = "SubscriptionUpgraded"
	ActionSubscriptionDowngraded ActionType = "SubscriptionDowngraded"
	ActionSubscriptionCanceled   ActionType = "SubscriptionCanceled"
)

// Valid сообщает, входит ли вид действия в закрытый список.
func (a ActionType) Valid() bool {
	switch a {
	case ActionUserRegistered, ActionProjectCreated, ActionProjectUpdated, ActionProjectExported,
		ActionTemplateUsed, ActionSubscriptionUpgraded, ActionSubscriptionDowngraded, ActionSubscriptionCanceled:
		return true
	}
	return false
}

// HistoryEntry — неизменяемая запись журнала действий. Времени обновления у неё нет.
type HistoryEntry struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ProjectID  *string    `json:"project_id,omitempty"`
	ActionType ActionType `json:"action_type"`
	ActionData Document   `json:"action_data,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// HistoryFilter — параметры постраничного просмотра журнала пользователя.
type HistoryFilter struct {
	ActionType *ActionType
	ProjectID  *string
	From       *time.Time
	To         *time.Time
	SortBy     string // createdat, actiontype
	SortDesc   bool
	Pagination
}
