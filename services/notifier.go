package services

import (
	"fmt"
	"log"

	"card-grading-api/config"
	"card-grading-api/models"
	"card-grading-api/utils"

	"gorm.io/gorm"
)

// Notifier emails the submission owner when the card reaches a stage the
// customer acts on. Best effort: a mail failure is logged, never surfaced to
// the transition caller.
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

var notifiedStatuses = map[string]string{
	models.StatusShipped:        "Your card is on its way",
	models.StatusReadyForPickup: "Your card is ready for pickup",
	models.StatusCompleted:      "Your grading submission is complete",
}

// NotifyStatusChange sends the stage email for sub's current status, if that
// status has one.
func (n *Notifier) NotifyStatusChange(sub *models.Submission) {
	subject, ok := notifiedStatuses[sub.Status]
	if !ok {
		return
	}

	var owner models.User
	if err := n.db.Where("user_id = ? AND delete_at IS NULL", sub.UserID).First(&owner).Error; err != nil {
		log.Printf("notify: owner lookup failed for submission %d: %v", sub.SubmissionID, err)
		return
	}

	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Your submission <b>%s</b> (%s) is now <b>%s</b>.</p>",
		owner.FullName(), utils.FormatUID(sub.UID), sub.CardName, sub.Status,
	)
	if sub.Status == models.StatusShipped && sub.TrackingNumber != nil {
		provider := ""
		if sub.TrackingProvider != nil {
			provider = *sub.TrackingProvider + " "
		}
		body += fmt.Sprintf("<p>Tracking: %s%s</p>", provider, *sub.TrackingNumber)
	}
	if sub.Status == models.StatusCompleted && sub.Grade != nil {
		body += fmt.Sprintf("<p>Final grade: <b>%.1f</b></p>", *sub.Grade)
	}

	if err := config.SendMail([]string{owner.Email}, subject, body); err != nil {
		log.Printf("notify: mail failed for submission %d: %v", sub.SubmissionID, err)
	}
}
