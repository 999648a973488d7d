package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"kyc-review-api/internal/database"
	"kyc-review-api/internal/logging"
	"kyc-review-api/internal/models"
	"kyc-review-api/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// canSeeTask reports whether the caller may read or act on t.
func canSeeTask(t models.Task, userID uint, role models.Role) bool {
	return t.AssignedTo == userID || role == models.RoleAdmin
}

/*
GetReviewerTasks handles GET /api/tasks-for-reviewer
Returns the tasks assigned to the caller, oldest first.
Optional query param: status to keep only one status.
*/
func GetReviewerTasks(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	query := database.GetDB().Model(&models.Task{}).Where("assigned_to = ?", userID)
	if status := models.TaskStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("status = ?", status)
	}

	tasks := make([]models.Task, 0)
	if err := query.Order("created_at asc, id asc").Find(&tasks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to fetch tasks",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTaskByID handles GET /api/tasks/:id
// Returns a single task assigned to the caller (any task for admins)
func GetTaskByID(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var task models.Task
	if err := database.GetDB().First(&task, taskID).Error; err != nil || !canSeeTask(task, userID, role) {
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch task"})
		}
		return
	}

	c.JSON(http.StatusOK, task)
}

// validateStatusUpdate checks the payload on its own, before the task is loaded.
func validateStatusUpdate(req *models.TaskStatusUpdate) string {
	if !req.Status.Valid() {
		return "Invalid status"
	}
	if req.KYCAction == "" {
		if req.RejectionReason != "" {
			return "rejectionReason is only allowed with kycAction reject"
		}
		return ""
	}
	if !req.KYCAction.Valid() {
		return "kycAction must be approve or reject"
	}
	if req.Status != models.StatusCompleted {
		return "kycAction requires status completed"
	}
	req.RejectionReason = strings.TrimSpace(req.RejectionReason)
	if req.KYCAction == models.ActionReject && req.RejectionReason == "" {
		return "rejectionReason is required to reject"
	}
	if req.KYCAction == models.ActionApprove {
		req.RejectionReason = ""
	}
	return ""
}

/*
UpdateTaskStatus handles PATCH and PUT /api/tasks/:id
Moves a task to a new status. Completing a verification task requires a
kycAction and also settles the linked KYC submission. Completed is terminal.
*/
func UpdateTaskStatus(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req models.TaskStatusUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := validateStatusUpdate(&req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	var task models.Task
	var submission models.KYCSubmission
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}
		if !canSeeTask(task, userID, role) {
			return gorm.ErrRecordNotFound
		}
		if task.Completed() {
			return errTaskCompleted
		}
		if task.SubjectUserID != 0 && req.Status == models.StatusCompleted && req.KYCAction == "" {
			return errMissingAction
		}

		updates := map[string]any{"status": req.Status}
		if req.Status == models.StatusCompleted {
			now := time.Now()
			updates["completed_at"] = &now
			updates["kyc_action"] = req.KYCAction
			updates["rejection_reason"] = req.RejectionReason
		}
		if err := tx.Model(&task).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}

		if req.KYCAction == "" {
			return nil
		}
		err := tx.Where("task_id = ?", task.ID).First(&submission).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		status := models.KYCStatusApproved
		if req.KYCAction == models.ActionReject {
			status = models.KYCStatusRejected
		}
		return tx.Model(&submission).Updates(map[string]any{
			"status":           status,
			"rejection_reason": req.RejectionReason,
		}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		case errors.Is(err, errTaskCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": "Task is already completed"})
		case errors.Is(err, errMissingAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": "kycAction is required to complete a verification task"})
		default:
			logging.Logger.WithError(err).WithField("task_id", taskID).Error("task status update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		}
		return
	}

	logging.Logger.WithFields(logrus.Fields{
		"task_id":    task.ID,
		"status":     task.Status,
		"kyc_action": task.KYCAction,
		"by":         userID,
	}).Info("task status updated")

	hub := realtime.GetHub()
	if task.Completed() {
		hub.Publish(task.AssignedTo, realtime.NewEvent(realtime.EventTaskCompleted, task.ID, task.AssignedTo, string(task.Status)))
	}
	if submission.ID != 0 {
		hub.Publish(submission.UserID, realtime.NewEvent(realtime.EventKYCDecided, 0, submission.UserID, string(submission.Status)))
	}

	c.JSON(http.StatusOK, task)
}

// GetStatsByUser handles GET /api/stats/:userid
// Returns counts of tasks assigned to :userid by status. Callers see their own stats; admins see anyone's.
func GetStatsByUser(c *gin.Context) {
	authUserID, role, ok := currentUser(c)
	if !ok {
		return
	}
	targetUserID, ok := parseIDParam(c, "userid")
	if !ok {
		return
	}
	if targetUserID != authUserID && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	if err := database.GetDB().Model(&models.Task{}).
		Select("status, COUNT(*) as count").
		Where("assigned_to = ?", targetUserID).
		Group("status").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	counts := map[string]int64{
		string(models.StatusPending):    0,
		string(models.StatusInProgress): 0,
		string(models.StatusCompleted):  0,
	}
	var total int64
	for _, r := range rows {
		counts[r.Status] = r.Count
		total += r.Count
	}

	c.JSON(http.StatusOK, gin.H{
		"pending":    counts[string(models.StatusPending)],
		"inProgress": counts[string(models.StatusInProgress)],
		"completed":  counts[string(models.StatusCompleted)],
		"total":      total,
	})
}
