package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/config"
	"github.com/noah-isme/gema-contest-api/internal/handler"
	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/lock"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/models"
	"github.com/noah-isme/gema-contest-api/internal/repository"
	"github.com/noah-isme/gema-contest-api/internal/router"
	"github.com/noah-isme/gema-contest-api/internal/service"
)

const testSecret = "handler-secret"

var contestStart = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type settableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *settableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *settableClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type apiFixture struct {
	app      *fiber.App
	db       *gorm.DB
	clock    *settableClock
	activity models.Activity
	students []models.Student
	problems []models.Problem
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Problem{}, &models.Activity{}, &models.ActivityProblem{}, &models.Submission{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	problems := []models.Problem{
		{Title: "Arrays", Difficulty: models.DifficultyEasy, OwnerID: 500},
		{Title: "Trees", Difficulty: models.DifficultyMedium, OwnerID: 500},
	}
	require.NoError(t, db.Create(&problems).Error)

	students := []models.Student{
		{Name: "Ayu", Email: "ayu@campus.edu", RegNumber: "21-001"},
		{Name: "Budi", Email: "budi@campus.edu", RegNumber: "21-002"},
		{Name: "Citra", Email: "citra@campus.edu", RegNumber: "21-003"},
	}
	require.NoError(t, db.Create(&students).Error)

	activities := repository.NewActivityRepository(db)
	start := contestStart
	activity := models.Activity{
		Kind:            models.ActivityKindContest,
		Title:           "Campus Cup",
		OwnerID:         500,
		StartTime:       &start,
		DurationMinutes: 60,
		Problems: []models.ActivityProblem{
			{ProblemID: problems[0].ID, Points: 100},
			{ProblemID: problems[1].ID, Points: 250},
		},
	}
	require.NoError(t, activities.Create(context.Background(), &activity))

	clock := &settableClock{now: contestStart.Add(5 * time.Minute)}
	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	submissions := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	submissionService := service.NewSubmissionService(activities, submissions, lock.NewLocalLocker(), nil, validate, clock, service.SubmissionOptions{}, logger)
	leaderboardService := service.NewLeaderboardService(activities, submissions, studentRepo, leaderboard.DefaultOptions(), clock, logger)
	activityService := service.NewActivityService(activities, repository.NewProblemRepository(db), validate, logger)

	cfg := config.Config{AppName: "Test", AppEnv: "test", JWTSecret: testSecret, SubmitRateLimit: 100}

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: logger})
	router.Register(app, cfg, router.Dependencies{
		ActivityHandler:    handler.NewActivityHandler(activityService, logger),
		SubmissionHandler:  handler.NewSubmissionHandler(submissionService, logger),
		LeaderboardHandler: handler.NewLeaderboardHandler(leaderboardService, logger),
	})

	return &apiFixture{app: app, db: db, clock: clock, activity: activity, students: students, problems: problems}
}

func bearer(t *testing.T, userID uint, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  fmt.Sprintf("%d", userID),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
