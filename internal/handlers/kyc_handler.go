package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kyc-review-api/internal/database"
	"kyc-review-api/internal/logging"
	"kyc-review-api/internal/models"
	"kyc-review-api/internal/realtime"
	"kyc-review-api/internal/verification"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ReviewWindow is how long a reviewer has to settle a verification task.
const ReviewWindow = 72 * time.Hour

// KYCSubmissionRequest is the body of POST /api/kyc-submissions.
// Image fields carry references: a URL, a rooted path, or a filename already
// placed in the upload dir.
type KYCSubmissionRequest struct {
	FullName     string `json:"fullName" binding:"required"`
	Country      string `json:"country" binding:"required"`
	DocumentType string `json:"documentType" binding:"required"`
	DocumentID   string `json:"documentId" binding:"required"`
	FrontImage   string `json:"frontImage" binding:"required"`
	BackImage    string `json:"backImage"`
	SelfieImage  string `json:"selfieImage" binding:"required"`
}

// verificationTitle and verificationDescription keep the task text the
// review client parses.
func verificationTitle(username string) string {
	return fmt.Sprintf("%s — %s", verification.TitleMarker, username)
}

func verificationDescription(subjectID uint) string {
	return fmt.Sprintf("Review KYC documents for user ID: %d", subjectID)
}

// pickReviewer returns the non-admin user, other than the subject, with the
// fewest open tasks. Ties go to the lowest id.
func pickReviewer(tx *gorm.DB, subjectID uint) (models.User, error) {
	var reviewer models.User
	err := tx.Model(&models.User{}).
		Select("users.*, (SELECT COUNT(*) FROM tasks WHERE tasks.assigned_to = users.id AND tasks.status <> ?) AS open_tasks", models.StatusCompleted).
		Where("users.role <> ? AND users.id <> ?", models.RoleAdmin, subjectID).
		Order("open_tasks asc, users.id asc").
		Take(&reviewer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reviewer, errNoReviewer
	}
	return reviewer, err
}

/*
SubmitKYC handles POST /api/kyc-submissions
Stores the caller's identity submission and opens a peer verification task
for it. Nothing is stored when no reviewer is available.
*/
func SubmitKYC(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req KYCSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var submission models.KYCSubmission
	var task models.Task
	err := database.GetDB().Transaction(func(tx *gorm.DB) error {
		var subject models.User
		if err := tx.First(&subject, userID).Error; err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&models.KYCSubmission{}).
			Where("user_id = ? AND status = ?", userID, models.KYCStatusPending).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return errPendingKYCExists
		}

		reviewer, err := pickReviewer(tx, userID)
		if err != nil {
			return err
		}

		now := time.Now()
		submission = models.KYCSubmission{
			UserID:       userID,
			FullName:     strings.TrimSpace(req.FullName),
			Country:      strings.TrimSpace(req.Country),
			DocumentType: strings.TrimSpace(req.DocumentType),
			DocumentID:   strings.TrimSpace(req.DocumentID),
			FrontImage:   strings.TrimSpace(req.FrontImage),
			BackImage:    strings.TrimSpace(req.BackImage),
			SelfieImage:  strings.TrimSpace(req.SelfieImage),
			Status:       models.KYCStatusPending,
			SubmittedAt:  now,
		}
		if err := tx.Create(&submission).Error; err != nil {
			return err
		}

		due := now.Add(ReviewWindow)
		task = models.Task{
			Title:         verificationTitle(subject.Username),
			Description:   verificationDescription(userID),
			Status:        models.StatusPending,
			Priority:      models.PriorityMedium,
			AssignedTo:    reviewer.ID,
			SubjectUserID: userID,
			DueDate:       &due,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		submission.TaskID = task.ID
		return tx.Model(&submission).Update("task_id", task.ID).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, errPendingKYCExists):
			c.JSON(http.StatusConflict, gin.H{"error": "A KYC submission is already pending review"})
		case errors.Is(err, errNoReviewer):
			c.JSON(http.StatusConflict, gin.H{"error": "No reviewer available"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		default:
			logging.Logger.WithError(err).WithField("user_id", userID).Error("kyc submission failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store submission"})
		}
		return
	}

	logging.Logger.WithFields(logrus.Fields{
		"kyc_id":   submission.ID,
		"user_id":  userID,
		"task_id":  task.ID,
		"reviewer": task.AssignedTo,
	}).Info("kyc submission stored")

	hub := realtime.GetHub()
	hub.Publish(task.AssignedTo, realtime.NewEvent(realtime.EventTaskAssigned, task.ID, task.AssignedTo, string(task.Status)))
	hub.Publish(userID, realtime.NewEvent(realtime.EventKYCSubmitted, 0, userID, string(submission.Status)))

	c.JSON(http.StatusCreated, gin.H{
		"submission": submission,
		"task":       task,
	})
}

// latestSubmission loads the newest submission of a user.
func latestSubmission(db *gorm.DB, userID uint) (models.KYCSubmission, error) {
	var s models.KYCSubmission
	err := db.Where("user_id = ?", userID).Order("submitted_at desc, id desc").First(&s).Error
	return s, err
}

/*
GetKYCRecord handles GET /api/kyc-record/:userId
Returns the latest submission of :userId in the reviewer's record shape.
Image references are returned as stored; clients normalize them.
Visible to the subject, the reviewer assigned to it, and admins.
*/
func GetKYCRecord(c *gin.Context) {
	callerID, role, ok := currentUser(c)
	if !ok {
		return
	}
	subjectID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}

	db := database.GetDB()
	submission, err := latestSubmission(db, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "KYC record not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch KYC record"})
		}
		return
	}

	allowed := callerID == subjectID || role == models.RoleAdmin
	if !allowed && submission.TaskID != 0 {
		var task models.Task
		if err := db.Select("id", "assigned_to").First(&task, submission.TaskID).Error; err == nil {
			allowed = task.AssignedTo == callerID
		}
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	var subject models.User
	if err := db.Select("id", "username").First(&subject, subjectID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, verification.Record{
		KYCID:          submission.ID,
		UserID:         submission.UserID,
		Username:       subject.Username,
		FullName:       submission.FullName,
		Country:        submission.Country,
		DocumentType:   submission.DocumentType,
		DocumentID:     submission.DocumentID,
		SubmissionDate: submission.SubmittedAt,
		FrontImageURL:  submission.FrontImage,
		BackImageURL:   submission.BackImage,
		SelfieImageURL: submission.SelfieImage,
		TaskID:         submission.TaskID,
	})
}

// GetMyKYCStatus handles GET /api/kyc-submissions/me
// Returns the caller's latest submission with its review status
func GetMyKYCStatus(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	submission, err := latestSubmission(database.GetDB(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No KYC submission"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch KYC submission"})
		}
		return
	}

	c.JSON(http.StatusOK, submission)
}
