package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/lock"
	"github.com/noah-isme/gema-contest-api/internal/models"
	"github.com/noah-isme/gema-contest-api/internal/repository"
)

var fixtureStart = time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type recordingJudge struct {
	mu    sync.Mutex
	tasks []models.Submission
	err   error
}

func (j *recordingJudge) PublishPending(_ context.Context, submission models.Submission) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.tasks = append(j.tasks, submission)
	return j.err
}

func (j *recordingJudge) count() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.tasks)
}

type testEnv struct {
	db          *gorm.DB
	clock       *fakeClock
	judge       *recordingJudge
	activities  repository.ActivityRepository
	submissions repository.SubmissionRepository
	students    repository.StudentRepository
	problems    []models.Problem
	submit      SubmissionService
	board       LeaderboardService
	admin       ActivityService
}

func newTestEnv(t *testing.T, opts leaderboard.Options) *testEnv {
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
		{Title: "Warmup", Difficulty: models.DifficultyEasy, OwnerID: 900},
		{Title: "Graphs", Difficulty: models.DifficultyMedium, OwnerID: 900},
		{Title: "DP", Difficulty: models.DifficultyHard, OwnerID: 900},
	}
	require.NoError(t, db.Create(&problems).Error)

	env := &testEnv{
		db:          db,
		clock:       &fakeClock{now: fixtureStart.Add(time.Minute)},
		judge:       &recordingJudge{},
		activities:  repository.NewActivityRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		students:    repository.NewStudentRepository(db),
		problems:    problems,
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.Nop()

	env.submit = NewSubmissionService(env.activities, env.submissions, lock.NewLocalLocker(), env.judge, validate, env.clock, SubmissionOptions{MaxCodeBytes: 1024}, logger)
	env.board = NewLeaderboardService(env.activities, env.submissions, env.students, opts, env.clock, logger)
	env.admin = NewActivityService(env.activities, repository.NewProblemRepository(db), validate, logger)

	return env
}

// contest creates a 60 minute contest owned by faculty 900 with 100/200/300 point problems.
func (e *testEnv) contest(t *testing.T) models.Activity {
	t.Helper()

	start := fixtureStart
	activity := models.Activity{
		Kind:            models.ActivityKindContest,
		Title:           "Regional Round",
		OwnerID:         900,
		StartTime:       &start,
		DurationMinutes: 60,
		Problems: []models.ActivityProblem{
			{ProblemID: e.problems[0].ID, Points: 100},
			{ProblemID: e.problems[1].ID, Points: 200},
			{ProblemID: e.problems[2].ID, Points: 300},
		},
	}
	require.NoError(t, e.activities.Create(context.Background(), &activity))
	return activity
}

func (e *testEnv) enrol(t *testing.T, names ...string) []models.Student {
	t.Helper()

	created := make([]models.Student, 0, len(names))
	for _, name := range names {
		student := models.Student{Name: name, Email: name + "@campus.edu", RegNumber: "REG-" + name}
		require.NoError(t, e.db.Create(&student).Error)
		created = append(created, student)
	}
	return created
}
