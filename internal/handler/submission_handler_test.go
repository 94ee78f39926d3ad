package handler_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/models"
)

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Data    T      `json:"data"`
}

func submitPath(activityID uint) string {
	return fmt.Sprintf("/api/v2/activities/%d/submissions", activityID)
}

func TestSubmitCreatesThenReplaces(t *testing.T) {
	api := setupAPI(t)
	student := api.students[0]
	token := bearer(t, student.ID, middleware.RoleStudent)
	body := map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"code":       "package main\n\nfunc main() {}\n",
		"language":   "go",
	}

	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var first envelope[dto.SubmitAck]
	decode(t, resp, &first)
	require.True(t, first.Success)
	require.Equal(t, models.SubmissionStatusPending, first.Data.Status)
	require.Equal(t, "created", first.Data.Outcome)

	api.clock.Set(contestStart.Add(10 * time.Minute))
	resp = api.do(t, http.MethodPost, submitPath(api.activity.ID), token, body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second envelope[dto.SubmitAck]
	decode(t, resp, &second)
	require.Equal(t, first.Data.SubmissionID, second.Data.SubmissionID)

	var count int64
	require.NoError(t, api.db.Model(&models.Submission{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestSubmitAfterCloseIsConflict(t *testing.T) {
	api := setupAPI(t)
	api.clock.Set(contestStart.Add(61 * time.Minute))

	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), bearer(t, api.students[0].ID, middleware.RoleStudent), map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"code":       "print('late')",
		"language":   "python",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var failure envelope[interface{}]
	decode(t, resp, &failure)
	require.False(t, failure.Success)
	require.Equal(t, "deadline_passed", failure.Code)

	var count int64
	require.NoError(t, api.db.Model(&models.Submission{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestSubmitRejectsBadInput(t *testing.T) {
	api := setupAPI(t)
	token := bearer(t, api.students[0].ID, middleware.RoleStudent)

	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), token, map[string]interface{}{
		"problem_id": 9999,
		"code":       "int main() { return 0; }",
		"language":   "c",
	})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = api.do(t, http.MethodPost, submitPath(api.activity.ID), token, map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"language":   "c",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do(t, http.MethodPost, submitPath(404), token, map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"code":       "int main() { return 0; }",
		"language":   "c",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitRequiresStudentToken(t *testing.T) {
	api := setupAPI(t)
	body := map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"code":       "x = 1",
		"language":   "python",
	}

	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), "", body)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = api.do(t, http.MethodPost, submitPath(api.activity.ID), bearer(t, 500, "teacher"), body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestVerdictRouteRoles(t *testing.T) {
	api := setupAPI(t)
	student := api.students[1]
	studentToken := bearer(t, student.ID, middleware.RoleStudent)

	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), studentToken, map[string]interface{}{
		"problem_id": api.problems[1].ID,
		"code":       "fn main() {}",
		"language":   "rust",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var ack envelope[dto.SubmitAck]
	decode(t, resp, &ack)

	verdictPath := fmt.Sprintf("/api/v2/activities/%d/verdicts", api.activity.ID)
	verdict := map[string]interface{}{
		"student_id":        student.ID,
		"problem_id":        api.problems[1].ID,
		"submitted_at":      ack.Data.SubmittedAt,
		"status":            "Accepted",
		"execution_time_ms": 42,
	}

	resp = api.do(t, http.MethodPost, verdictPath, studentToken, verdict)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = api.do(t, http.MethodPost, verdictPath, bearer(t, 999, middleware.RoleFaculty), verdict)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	var denied envelope[interface{}]
	decode(t, resp, &denied)
	require.Equal(t, "forbidden", denied.Code)

	resp = api.do(t, http.MethodGet, leaderboardPath(api.activity.ID), studentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board envelope[dto.LeaderboardResponse]
	decode(t, resp, &board)
	require.Equal(t, student.ID, board.Data.Rows[0].Student.ID)
	require.Zero(t, board.Data.Rows[0].TotalPoints)

	resp = api.do(t, http.MethodPost, verdictPath, bearer(t, 1, middleware.RoleJudge), verdict)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var judged envelope[dto.SubmissionResponse]
	decode(t, resp, &judged)
	require.Equal(t, models.SubmissionStatusAccepted, judged.Data.Status)
	require.EqualValues(t, 42, judged.Data.ExecutionTimeMs)

	verdict["submitted_at"] = ack.Data.SubmittedAt.Add(-time.Minute)
	resp = api.do(t, http.MethodPost, verdictPath, bearer(t, 1, middleware.RoleJudge), verdict)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestHistoryAccess(t *testing.T) {
	api := setupAPI(t)
	owner := api.students[0]
	other := api.students[2]

	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), bearer(t, owner.ID, middleware.RoleStudent), map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"code":       "console.log(1)",
		"language":   "javascript",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	historyPath := fmt.Sprintf("/api/v2/activities/%d/students/%d/submissions", api.activity.ID, owner.ID)

	resp = api.do(t, http.MethodGet, historyPath, bearer(t, other.ID, middleware.RoleStudent), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	api.clock.Set(contestStart.Add(3 * time.Hour))
	resp = api.do(t, http.MethodGet, historyPath, bearer(t, owner.ID, middleware.RoleStudent), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history envelope[[]dto.SubmissionResponse]
	decode(t, resp, &history)
	require.Len(t, history.Data, 1)
	require.Equal(t, "console.log(1)", history.Data[0].Code)

	resp = api.do(t, http.MethodGet, historyPath, bearer(t, 500, middleware.RoleFaculty), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSubmissionReports(t *testing.T) {
	api := setupAPI(t)
	for _, student := range api.students[:2] {
		resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), bearer(t, student.ID, middleware.RoleStudent), map[string]interface{}{
			"problem_id": api.problems[0].ID,
			"code":       "print(42)",
			"language":   "python",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := api.do(t, http.MethodGet, "/api/v2/submissions/stats", bearer(t, api.students[0].ID, middleware.RoleStudent), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	faculty := bearer(t, 500, middleware.RoleFaculty)
	resp = api.do(t, http.MethodGet, "/api/v2/submissions/stats", faculty, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats envelope[[]dto.StatusCountResponse]
	decode(t, resp, &stats)
	require.Len(t, stats.Data, 1)
	require.EqualValues(t, 2, stats.Data[0].Count)

	resp = api.do(t, http.MethodGet, "/api/v2/submissions/recent?limit=1", faculty, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var recent envelope[[]dto.SubmissionResponse]
	decode(t, resp, &recent)
	require.Len(t, recent.Data, 1)

	resp = api.do(t, http.MethodGet, "/api/v2/submissions/recent?limit=abc", faculty, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMineReturnsCallerSubmissions(t *testing.T) {
	api := setupAPI(t)
	owner := api.students[0]
	ownerToken := bearer(t, owner.ID, middleware.RoleStudent)

	for idx, problem := range api.problems {
		api.clock.Set(contestStart.Add(time.Duration(idx+1) * time.Minute))
		resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), ownerToken, map[string]interface{}{
			"problem_id": problem.ID,
			"code":       fmt.Sprintf("print(%d)", idx),
			"language":   "python",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}
	resp := api.do(t, http.MethodPost, submitPath(api.activity.ID), bearer(t, api.students[1].ID, middleware.RoleStudent), map[string]interface{}{
		"problem_id": api.problems[0].ID,
		"code":       "print('someone else')",
		"language":   "python",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = api.do(t, http.MethodGet, "/api/v2/submissions/mine", ownerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine envelope[[]dto.SubmissionResponse]
	decode(t, resp, &mine)
	require.Len(t, mine.Data, 2)
	require.Equal(t, api.problems[1].ID, mine.Data[0].ProblemID)
	require.Equal(t, "print(1)", mine.Data[0].Code)
	for _, submission := range mine.Data {
		require.Equal(t, owner.ID, submission.StudentID)
	}

	resp = api.do(t, http.MethodGet, "/api/v2/submissions/mine", bearer(t, 500, middleware.RoleFaculty), nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}
