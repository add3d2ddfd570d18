package models

import "time"

// Workflow statuses. Values match the submissions.status column exactly.
const (
	StatusSubmitted           = "Submitted"
	StatusAuthentication      = "Authentication in Progress"
	StatusConditionInspection = "Condition Inspection"
	StatusGradingAssigned     = "Grading Assigned"
	StatusSlabbing            = "Slabbing"
	StatusReadyForReturn      = "Ready for Return"
	StatusShipped             = "Shipped"
	StatusDelivered           = "Delivered"
	StatusReadyForPickup      = "Ready for Pickup"
	StatusCompleted           = "Completed"
	StatusRejectedCounterfeit = "Rejected - Counterfeit"
)

// Return methods. Set once on the way out of Ready for Return (or already
// at encapsulation), immutable afterwards.
const (
	ReturnMethodPickup   = "pickup"
	ReturnMethodDelivery = "delivery"
)

// Authentication results accepted while a submission is in
// Authentication in Progress.
const (
	AuthResultAuthentic = "Authentic"
	AuthResultFake      = "Fake"
)

// Submission is one physical card tracked from intake to return.
type Submission struct {
	SubmissionID int `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	UID          int `gorm:"column:uid" json:"uid"`
	UserID       int `gorm:"column:user_id" json:"user_id"`

	CardName     string  `gorm:"column:card_name" json:"card_name"`
	CardSet      *string `gorm:"column:card_set" json:"card_set,omitempty"`
	CardYear     *int    `gorm:"column:card_year" json:"card_year,omitempty"`
	SerialNumber *string `gorm:"column:serial_number" json:"serial_number,omitempty"`

	Status       string  `gorm:"column:status" json:"status"`
	ReturnMethod *string `gorm:"column:return_method" json:"return_method,omitempty"`

	// Grading scores, written exactly once during Grading Assigned -> Slabbing.
	Grade          *float64 `gorm:"column:grade" json:"grade,omitempty"`
	GradeCorners   *float64 `gorm:"column:grade_corners" json:"grade_corners,omitempty"`
	GradeEdges     *float64 `gorm:"column:grade_edges" json:"grade_edges,omitempty"`
	GradeSurface   *float64 `gorm:"column:grade_surface" json:"grade_surface,omitempty"`
	GradeCentering *float64 `gorm:"column:grade_centering" json:"grade_centering,omitempty"`

	SlabbingProofImage *string `gorm:"column:slabbing_proof_image" json:"slabbing_proof_image,omitempty"`
	TrackingProvider   *string `gorm:"column:tracking_provider" json:"tracking_provider,omitempty"`
	TrackingNumber     *string `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	DeliveryAddress    *string `gorm:"column:delivery_address" json:"delivery_address,omitempty"`

	TxHash *string `gorm:"column:tx_hash" json:"tx_hash,omitempty"`

	SubmittedAt time.Time `gorm:"column:submitted_at" json:"submitted_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Owner User `gorm:"foreignKey:UserID" json:"owner,omitempty"`
}

// TableName specifies the table for Submission.
func (Submission) TableName() string {
	return "submissions"
}

// IsTerminal reports whether the submission sits in an absorbing state.
func (s *Submission) IsTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusRejectedCounterfeit
}
