package verification

import (
	"strings"
	"time"
)

// UploadRoot is where bare image filenames are served from.
const UploadRoot = "/uploads/kyc/"

// Placeholder values shown when a record cannot be loaded.
const (
	UnknownUsername = "Unknown"
	ErrorFullName   = "Error loading data"
)

// Record is the reviewer's view of one subject's KYC submission.
type Record struct {
	KYCID          uint      `json:"kycId"`
	UserID         uint      `json:"userId"`
	Username       string    `json:"username"`
	FullName       string    `json:"fullName"`
	Country        string    `json:"country"`
	DocumentType   string    `json:"documentType"`
	DocumentID     string    `json:"documentId"`
	SubmissionDate time.Time `json:"submissionDate"`
	FrontImageURL  string    `json:"frontImageUrl"`
	BackImageURL   string    `json:"backImageUrl"`
	SelfieImageURL string    `json:"selfieImageUrl"`
	TaskID         uint      `json:"taskId"`
}

// Images returns the front, back and selfie references in that order.
func (r Record) Images() []string {
	return []string{r.FrontImageURL, r.BackImageURL, r.SelfieImageURL}
}

// Placeholder is the record handed out when the real one could not be read.
func Placeholder(userID uint) Record {
	return Record{
		UserID:   userID,
		Username: UnknownUsername,
		FullName: ErrorFullName,
	}
}

// IsPlaceholder reports whether r came from Placeholder.
func (r Record) IsPlaceholder() bool {
	return r.KYCID == 0 && r.Username == UnknownUsername && r.FullName == ErrorFullName
}

// NormalizeImagePath makes an image reference absolute or rooted.
// URLs and rooted paths pass through; bare filenames go under UploadRoot;
// blank input becomes "".
func NormalizeImagePath(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "/"):
		return ref
	default:
		return UploadRoot + ref
	}
}

func (r Record) normalized() Record {
	r.FrontImageURL = NormalizeImagePath(r.FrontImageURL)
	r.BackImageURL = NormalizeImagePath(r.BackImageURL)
	r.SelfieImageURL = NormalizeImagePath(r.SelfieImageURL)
	return r
}
