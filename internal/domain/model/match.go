package model

import "time"

// MatchRecord is the persisted outcome of one successful selection.
type MatchRecord struct {
	ID             string    `json:"id"`
	SeekerEmail    string    `json:"seeker"`
	CandidateEmail string    `json:"candidate"`
	Score          float64   `json:"score"`
	CreatedAt      time.Time `json:"created_at"`
}

// Percent renders a score the way end users see it: truncated whole percent.
func Percent(score float64) int {
	return int(score * 100)
}

// NotificationKind names the mails the service sends.
type NotificationKind string

// Notification kinds.
const (
	NotifySeekerMatch    NotificationKind = "seeker_match"
	NotifyCandidateMatch NotificationKind = "candidate_match"
	NotifyWelcome        NotificationKind = "welcome"
)

// Notification is a delivery job handed to the notification workers.
// Recipient is the party being informed; Counterpart is the other side of
// the match (zero for welcome mails).
type Notification struct {
	ID          string
	Kind        NotificationKind
	Recipient   Profile
	Counterpart Profile
	Score       float64
}
