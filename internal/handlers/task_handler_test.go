package handlers

import (
	"net/http"
	"testing"
	"time"

	"kyc-review-api/internal/models"

	"github.com/stretchr/testify/require"
)

type taskList struct {
	Tasks []models.Task `json:"tasks"`
	Count int           `json:"count"`
}

func TestGetReviewerTasks_OldestFirstAndOwnOnly(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	other := env.seed("other", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	s2 := env.seed("s2", models.RoleUser)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	newer, _ := env.seedVerification(rev, s1, base.Add(time.Hour))
	older, _ := env.seedVerification(rev, s2, base)
	env.seedVerification(other, s1, base)

	w := env.do(http.MethodGet, "/api/tasks-for-reviewer", rev, nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[taskList](t, w)
	require.Equal(t, 2, got.Count)
	require.Equal(t, older.ID, got.Tasks[0].ID)
	require.Equal(t, newer.ID, got.Tasks[1].ID)
	require.Equal(t, "Review KYC documents for user ID: 5", got.Tasks[0].Description)
}

func TestGetReviewerTasks_StatusFilter(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	task, _ := env.seedVerification(rev, s1, time.Now())

	w := env.do(http.MethodGet, "/api/tasks-for-reviewer?status=completed", rev, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 0, decode[taskList](t, w).Count)

	w = env.do(http.MethodGet, "/api/tasks-for-reviewer?status=pending", rev, nil)
	require.Equal(t, task.ID, decode[taskList](t, w).Tasks[0].ID)

	w = env.do(http.MethodGet, "/api/tasks-for-reviewer?status=done", rev, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskByID_Visibility(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	other := env.seed("other", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	task, _ := env.seedVerification(rev, s1, time.Now())

	path := "/api/tasks/" + uintStr(task.ID)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, path, rev, nil).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodGet, path, env.admin, nil).Code)
	require.Equal(t, http.StatusNotFound, env.do(http.MethodGet, path, other, nil).Code)
	require.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/tasks/999", rev, nil).Code)
	require.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/tasks/abc", rev, nil).Code)
}

func TestUpdateTaskStatus_ApproveSettlesSubmission(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	task, sub := env.seedVerification(rev, s1, time.Now())
	path := "/api/tasks/" + uintStr(task.ID)

	w := env.do(http.MethodPatch, path, rev, map[string]string{
		"status":          "completed",
		"kycAction":       "approve",
		"rejectionReason": "ignored",
	})
	require.Equal(t, http.StatusOK, w.Code)

	updated := decode[models.Task](t, w)
	require.Equal(t, models.StatusCompleted, updated.Status)
	require.Equal(t, models.ActionApprove, updated.KYCAction)
	require.Empty(t, updated.RejectionReason)
	require.NotNil(t, updated.CompletedAt)

	var stored models.KYCSubmission
	require.NoError(t, env.db.First(&stored, sub.ID).Error)
	require.Equal(t, models.KYCStatusApproved, stored.Status)

	// completed is terminal
	w = env.do(http.MethodPatch, path, rev, map[string]string{"status": "completed", "kycAction": "reject", "rejectionReason": "late"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.NoError(t, env.db.First(&stored, sub.ID).Error)
	require.Equal(t, models.KYCStatusApproved, stored.Status)
}

func TestUpdateTaskStatus_Reject(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	task, sub := env.seedVerification(rev, s1, time.Now())
	path := "/api/tasks/" + uintStr(task.ID)

	w := env.do(http.MethodPut, path, rev, map[string]string{"status": "completed", "kycAction": "reject", "rejectionReason": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, path, rev, map[string]string{"status": "completed", "kycAction": "reject", "rejectionReason": "  Blurry photo "})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Blurry photo", decode[models.Task](t, w).RejectionReason)

	var stored models.KYCSubmission
	require.NoError(t, env.db.First(&stored, sub.ID).Error)
	require.Equal(t, models.KYCStatusRejected, stored.Status)
	require.Equal(t, "Blurry photo", stored.RejectionReason)
}

func TestUpdateTaskStatus_Validation(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	other := env.seed("other", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	task, _ := env.seedVerification(rev, s1, time.Now())
	path := "/api/tasks/" + uintStr(task.ID)

	cases := []struct {
		name string
		as   models.User
		body map[string]string
		want int
	}{
		{"missing status", rev, map[string]string{"kycAction": "approve"}, http.StatusBadRequest},
		{"unknown status", rev, map[string]string{"status": "done"}, http.StatusBadRequest},
		{"unknown action", rev, map[string]string{"status": "completed", "kycAction": "maybe"}, http.StatusBadRequest},
		{"action without completion", rev, map[string]string{"status": "in-progress", "kycAction": "approve"}, http.StatusBadRequest},
		{"verification completed without action", rev, map[string]string{"status": "completed"}, http.StatusBadRequest},
		{"not the assignee", other, map[string]string{"status": "in-progress"}, http.StatusNotFound},
		{"in progress", rev, map[string]string{"status": "in-progress"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPatch, path, tc.as, tc.body)
			require.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestGetStatsByUser(t *testing.T) {
	env := newTestEnv(t)
	rev := env.seed("rev", models.RoleReviewer)
	other := env.seed("other", models.RoleReviewer)
	s1 := env.seed("s1", models.RoleUser)
	s2 := env.seed("s2", models.RoleUser)
	done, _ := env.seedVerification(rev, s1, time.Now())
	env.seedVerification(rev, s2, time.Now())
	require.NoError(t, env.db.Model(&done).Update("status", models.StatusCompleted).Error)

	path := "/api/stats/" + uintStr(rev.ID)
	w := env.do(http.MethodGet, path, rev, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"pending":1,"inProgress":0,"completed":1,"total":2}`, w.Body.String())

	require.Equal(t, http.StatusOK, env.do(http.MethodGet, path, env.admin, nil).Code)
	require.Equal(t, http.StatusForbidden, env.do(http.MethodGet, path, other, nil).Code)
}
