package repository

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/content-generator/internal/migrations"
	"github.com/magabrotheeeer/content-generator/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя с заданной квотой
func (f *TestDataFactory) CreateUser(t *testing.T, username string, tier models.Tier, used, limit int) *models.User {
	t.Helper()
	u, err := f.storage.CreateUser(context.Background(), models.User{
		Email:               username + "@example.com",
		Username:            username,
		Tier:                tier,
		MonthlyExportsUsed:  used,
		MonthlyExportsLimit: limit,
		IsActive:            true,
	})
	require.NoError(t, err)
	return u
}

// CreateTemplate создает тестовый шаблон
func (f *TestDataFactory) CreateTemplate(t *testing.T, name string, category models.Category, premium, active bool) *models.Template {
	t.Helper()
	tpl, err := f.storage.CreateTemplate(context.Background(), models.Template{
		Name:         name,
		Description:  name + " description",
		Category:     category,
		ThumbnailURL: "https://cdn.example.com/" + name + ".png",
		TemplateData: models.Document{"layers": []any{}},
		IsPremium:    premium,
		IsActive:     active,
	})
	require.NoError(t, err)
	return tpl
}

// CreateProject создает тестовый проект пользователя
func (f *TestDataFactory) CreateProject(t *testing.T, userID, name string) *models.Project {
	t.Helper()
	p, err := f.storage.CreateProject(context.Background(), models.Project{
		UserID:     userID,
		Name:       name,
		CanvasData: models.Document{"background": "#fff"},
		Width:      1080,
		Height:     1080,
		Status:     models.ProjectStatusDraft,
	})
	require.NoError(t, err)
	return p
}

// CreateHistoryAt вставляет запись журнала с заданным временем создания
func (f *TestDataFactory) CreateHistoryAt(t *testing.T, userID string, action models.ActionType, createdAt time.Time) string {
	t.Helper()
	var id string
	err := f.storage.DB.QueryRow(`INSERT INTO history (user_id, action_type, created_at)
		VALUES ($1, $2, $3) RETURNING id`, userID, string(action), createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// ExportsUsed возвращает текущий счетчик экспортов пользователя
func (v *TestVerification) ExportsUsed(t *testing.T, userID string) int {
	t.Helper()
	var used int
	err := v.storage.DB.QueryRow("SELECT monthly_exports_used FROM users WHERE id = $1", userID).Scan(&used)
	require.NoError(t, err)
	return used
}

// HistoryCount возвращает количество записей журнала пользователя
func (v *TestVerification) HistoryCount(t *testing.T, userID string) int {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM history WHERE user_id = $1", userID).Scan(&count)
	require.NoError(t, err)
	return count
}

func migrationsPath(t *testing.T) string {
	t.Helper()
	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	return filepath.Join(root, "migrations")
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL и применяет миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pgPort := nat.Port("5432/tcp")

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{string(pgPort)},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(pgPort),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3 * time.Minute),
	}

	postgresContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start container")

	host, err := postgresContainer.Host(ctx)
	require.NoError(t, err)
	port, err := postgresContainer.MappedPort(ctx, pgPort)
	require.NoError(t, err, "failed to get port")

	connStr := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	var storage *Storage
	for i := 0; i < 10; i++ {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, err, "failed to connect to database")
	_, err = migrations.Run(storage.DB, migrationsPath(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NoError(t, CheckDatabaseReady(storage))

	cleanup := func() {
		_ = storage.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}
