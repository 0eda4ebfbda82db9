package domain

import "time"

// Submission is a snapshot of a selection handed over for processing.
type Submission struct {
	ID          string     `json:"id" bson:"_id"`
	UserID      string     `json:"-" bson:"user_id"`
	Items       []LineItem `json:"-" bson:"items"`
	Labels      []Label    `json:"-" bson:"labels"`
	TotalItems  int        `json:"totalItems" bson:"total_items"`
	TotalRooms  int        `json:"totalRooms" bson:"total_rooms"`
	GrandTotal  float64    `json:"grandTotal" bson:"grand_total"`
	Status      string     `json:"status" bson:"status"`
	SubmittedAt time.Time  `json:"submittedAt" bson:"submitted_at"`
}

// SubmissionStatusPending is the initial status of every new submission.
const SubmissionStatusPending = "pending"
