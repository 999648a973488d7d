package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"kyc-review-api/internal/database"
	"kyc-review-api/internal/models"
	"kyc-review-api/internal/realtime"
	"kyc-review-api/internal/reviewclient"
	"kyc-review-api/internal/testutil"
	"kyc-review-api/internal/verification"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, uploadDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db
	return SetupRoutes(uploadDir)
}

func TestHealth(t *testing.T) {
	r := newEngine(t, "")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestUsersRequiresAdmin(t *testing.T) {
	r := newEngine(t, "")
	user, err := testutil.SeedUser(database.DB, "alice", models.RoleUser)
	require.NoError(t, err)
	bearer, err := testutil.BearerFor(user)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", bearer)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestServesUploads(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "front.jpg"), []byte("jpeg"), 0o600))
	r := newEngine(t, dir)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/kyc/front.jpg", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "jpeg", w.Body.String())
}

func TestList(t *testing.T) {
	r := newEngine(t, "")
	routes := List(r)
	require.Contains(t, routes, Route{Method: http.MethodGet, Path: "/api/tasks-for-reviewer"})
	require.Contains(t, routes, Route{Method: http.MethodPatch, Path: "/api/tasks/:id"})
	require.Contains(t, routes, Route{Method: http.MethodGet, Path: "/api/kyc-record/:userId"})
}

// TestReviewFlow runs a submission through the real server and settles it
// with a reviewer session talking to it over HTTP.
func TestReviewFlow(t *testing.T) {
	srv := httptest.NewServer(newEngine(t, ""))
	defer srv.Close()
	ctx := context.Background()

	root := reviewclient.New(srv.URL, nil)
	require.NoError(t, root.Register(ctx, "root", "secret"))
	reviewer := reviewclient.New(srv.URL, nil)
	require.NoError(t, reviewer.Register(ctx, "rev", "secret"))
	subject := reviewclient.New(srv.URL, nil)
	require.NoError(t, subject.Register(ctx, "sam", "secret"))

	_, err := reviewer.Login(ctx, "rev", "secret")
	require.NoError(t, err)
	_, err = subject.Login(ctx, "sam", "secret")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(reviewer.WebSocketURL(), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return realtime.GetHub().Connected(2) > 0 }, 2*time.Second, 10*time.Millisecond)

	created, err := subject.SubmitKYC(ctx, reviewclient.Submission{
		FullName:     "Sam Subject",
		Country:      "FR",
		DocumentType: "id_card",
		DocumentID:   "ID-7",
		FrontImage:   "front.jpg",
		BackImage:    "back.jpg",
		SelfieImage:  "https://cdn.example/selfie.jpg",
	})
	require.NoError(t, err)
	require.Equal(t, uint(2), created.AssignedTo)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt realtime.Event
	require.NoError(t, json.Unmarshal(frame, &evt))
	require.Equal(t, realtime.EventTaskAssigned, evt.Type)
	require.Equal(t, created.ID, evt.TaskID)

	fetcher, err := verification.NewFetcher(reviewer, nil, time.Second)
	require.NoError(t, err)
	session, err := verification.NewSession(reviewer, fetcher, verification.Options{})
	require.NoError(t, err)

	pending, err := session.PendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	rec, err := session.ViewDocuments(ctx, pending[0])
	require.NoError(t, err)
	require.Equal(t, "sam", rec.Username)
	require.Equal(t, "/uploads/kyc/front.jpg", rec.FrontImageURL)
	require.Equal(t, "/uploads/kyc/back.jpg", rec.BackImageURL)
	require.Equal(t, "https://cdn.example/selfie.jpg", rec.SelfieImageURL)

	done, err := session.DecideForRecord(ctx, rec, models.ActionReject, "Document expired")
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, done.Status)
	require.Equal(t, "Document expired", done.RejectionReason)
	_, open := session.Active()
	require.False(t, open)

	pending, err = session.PendingTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	// the server keeps completed tasks terminal even without the client-side check
	_, err = reviewer.UpdateTaskStatus(ctx, created.ID, models.TaskStatusUpdate{Status: models.StatusCompleted, KYCAction: models.ActionApprove})
	var apiErr *reviewclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
}
