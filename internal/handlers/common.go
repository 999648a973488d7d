package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"kyc-review-api/internal/middleware"
	"kyc-review-api/internal/models"

	"github.com/gin-gonic/gin"
)

var (
	errUsernameTaken    = errors.New("username taken")
	errNoReviewer       = errors.New("no eligible reviewer")
	errPendingKYCExists = errors.New("pending submission exists")
	errTaskCompleted    = errors.New("task already completed")
	errMissingAction    = errors.New("verification task completed without kycAction")
)

// currentUser reads the caller set by the JWT middleware. It writes a 401 and
// returns false when the token carried no user.
func currentUser(c *gin.Context) (uint, models.Role, bool) {
	userID := c.GetUint(middleware.KeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return 0, "", false
	}
	return userID, models.Role(c.GetString(middleware.KeyRole)), true
}

// parseIDParam parses a positive integer path parameter or writes a 400.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, strconv.IntSize)
	if err != nil || n == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(n), true
}
