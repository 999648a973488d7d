package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"kyc-review-api/internal/database"
	"kyc-review-api/internal/middleware"
	"kyc-review-api/internal/models"
	"kyc-review-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv is an in-memory database with the protected routes mounted and an
// admin already seeded as user 1.
type testEnv struct {
	t     *testing.T
	db    *gorm.DB
	r     *gin.Engine
	admin models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	admin, err := testutil.SeedUser(db, "root", models.RoleAdmin)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.JWTAuthMiddleware())
	api.GET("/tasks-for-reviewer", GetReviewerTasks)
	api.GET("/tasks/:id", GetTaskByID)
	api.PATCH("/tasks/:id", UpdateTaskStatus)
	api.PUT("/tasks/:id", UpdateTaskStatus)
	api.GET("/stats/:userid", GetStatsByUser)
	api.POST("/kyc-submissions", SubmitKYC)
	api.GET("/kyc-submissions/me", GetMyKYCStatus)
	api.GET("/kyc-record/:userId", GetKYCRecord)

	adminOnly := api.Group("")
	adminOnly.Use(middleware.RequireRole(models.RoleAdmin))
	adminOnly.GET("/users", GetAllUsers)
	adminOnly.PATCH("/users/:id/role", UpdateUserRole)

	return &testEnv{t: t, db: db, r: r, admin: admin}
}

func (e *testEnv) seed(username string, role models.Role) models.User {
	e.t.Helper()
	u, err := testutil.SeedUser(e.db, username, role)
	require.NoError(e.t, err)
	return u
}

// do sends body as JSON on behalf of as.
func (e *testEnv) do(method, path string, as models.User, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	bearer, err := testutil.BearerFor(as)
	require.NoError(e.t, err)
	req.Header.Set("Authorization", bearer)

	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// seedVerification stores a pending submission for subject and the task that
// reviews it, assigned to reviewer.
func (e *testEnv) seedVerification(reviewer, subject models.User, createdAt time.Time) (models.Task, models.KYCSubmission) {
	e.t.Helper()
	sub := models.KYCSubmission{
		UserID:       subject.ID,
		FullName:     "Full " + subject.Username,
		Country:      "NL",
		DocumentType: "passport",
		DocumentID:   "X123",
		FrontImage:   "front.jpg",
		SelfieImage:  "https://cdn.example/selfie.jpg",
		Status:       models.KYCStatusPending,
		SubmittedAt:  createdAt,
	}
	require.NoError(e.t, e.db.Create(&sub).Error)

	task := models.Task{
		Title:         verificationTitle(subject.Username),
		Description:   verificationDescription(subject.ID),
		Status:        models.StatusPending,
		Priority:      models.PriorityMedium,
		AssignedTo:    reviewer.ID,
		SubjectUserID: subject.ID,
		CreatedAt:     createdAt,
	}
	require.NoError(e.t, e.db.Create(&task).Error)
	require.NoError(e.t, e.db.Model(&sub).Update("task_id", task.ID).Error)
	sub.TaskID = task.ID
	return task, sub
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func uintStr(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
