package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/models"
)

func TestActivityServiceCreateAndUpdate(t *testing.T) {
	env := newTestEnv(t, leaderboard.DefaultOptions())
	ctx := context.Background()
	start := fixtureStart.Add(24 * time.Hour)

	created, err := env.admin.Create(ctx, 900, dto.ActivityRequest{
		Kind:            string(models.ActivityKindContest),
		Title:           "Friday Sprint",
		StartTime:       &start,
		DurationMinutes: 90,
		Problems: []dto.ActivityProblemRequest{
			{ProblemID: env.problems[2].ID, Points: 300},
			{ProblemID: env.problems[0].ID, Points: 100},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Equal(t, uint(900), created.OwnerID)
	require.Len(t, created.Problems, 2)
	require.Equal(t, "DP", created.Problems[0].Title)
	require.Equal(t, start.Add(90*time.Minute), *created.EndTime)

	due := fixtureStart.Add(72 * time.Hour)
	update := dto.ActivityRequest{
		Kind:     string(models.ActivityKindAssignment),
		Title:    "Friday Sprint (take-home)",
		DueDate:  &due,
		Problems: []dto.ActivityProblemRequest{{ProblemID: env.problems[1].ID, Points: 50}},
	}

	_, err = env.admin.Update(ctx, created.ID, Viewer{ID: 901}, update)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := env.admin.Update(ctx, created.ID, Viewer{ID: 900}, update)
	require.NoError(t, err)
	require.Equal(t, models.ActivityKindAssignment, updated.Kind)
	require.Nil(t, updated.StartTime)
	require.Nil(t, updated.EndTime)
	require.Len(t, updated.Problems, 1)
	require.Equal(t, 50, updated.Problems[0].Points)
}

func TestActivityServiceValidation(t *testing.T) {
	env := newTestEnv(t, leaderboard.DefaultOptions())
	ctx := context.Background()
	due := fixtureStart

	_, err := env.admin.Create(ctx, 900, dto.ActivityRequest{
		Kind:     string(models.ActivityKindAssignment),
		Title:    "Ghost problems",
		DueDate:  &due,
		Problems: []dto.ActivityProblemRequest{{ProblemID: 4040, Points: 10}},
	})
	require.ErrorIs(t, err, ErrUnknownProblem)

	_, err = env.admin.Create(ctx, 900, dto.ActivityRequest{
		Kind:  string(models.ActivityKindContest),
		Title: "No start",
		Problems: []dto.ActivityProblemRequest{
			{ProblemID: env.problems[0].ID, Points: 10},
		},
	})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)

	_, err = env.admin.Create(ctx, 900, dto.ActivityRequest{
		Kind:    string(models.ActivityKindAssignment),
		Title:   "Twice",
		DueDate: &due,
		Problems: []dto.ActivityProblemRequest{
			{ProblemID: env.problems[0].ID, Points: 10},
			{ProblemID: env.problems[0].ID, Points: 20},
		},
	})
	require.ErrorIs(t, err, ErrUnknownProblem)

	_, err = env.admin.Get(ctx, 12345)
	require.ErrorIs(t, err, ErrActivityNotFound)
}
