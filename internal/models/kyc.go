package models

import (
	"time"
)

// KYCStatus is the review state of an identity submission
type KYCStatus string

const (
	KYCStatusPending  KYCStatus = "pending"
	KYCStatusApproved KYCStatus = "approved"
	KYCStatusRejected KYCStatus = "rejected"
)

// KYCSubmission holds the identity fields and document images a user submitted.
// Image columns store whatever reference the uploader sent: a URL, a rooted
// path, or a bare filename under the upload dir.
type KYCSubmission struct {
	ID              uint      `json:"kycId" gorm:"primaryKey"`
	UserID          uint      `json:"userId" gorm:"column:user_id;not null;index"`
	FullName        string    `json:"fullName" gorm:"column:full_name;not null"`
	Country         string    `json:"country"`
	DocumentType    string    `json:"documentType" gorm:"column:document_type"`
	DocumentID      string    `json:"documentId" gorm:"column:document_id"`
	FrontImage      string    `json:"frontImage" gorm:"column:front_image"`
	BackImage       string    `json:"backImage" gorm:"column:back_image"`
	SelfieImage     string    `json:"selfieImage" gorm:"column:selfie_image"`
	Status          KYCStatus `json:"status" gorm:"not null;default:'pending'"`
	RejectionReason string    `json:"rejectionReason,omitempty" gorm:"column:rejection_reason"`
	TaskID          uint      `json:"taskId" gorm:"column:task_id;index"`
	SubmittedAt     time.Time `json:"submissionDate" gorm:"column:submitted_at"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName specifies the table name for KYCSubmission Model
func (KYCSubmission) TableName() string {
	return "kyc_submissions"
}
