package domain

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusInactive  SessionStatus = "INACTIVE"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// Session is a capacity-limited study group that other users join via its
// join code. The join code is assigned once at creation and is unique among
// sessions that are not COMPLETED.
type Session struct {
	ID               string        `json:"id"`
	OwnerID          int32         `json:"owner_id"`
	JoinCode         string        `json:"join_code"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Department       string        `json:"department"`
	CourseCode       string        `json:"course_code"`
	Topic            string        `json:"topic"`
	Location         string        `json:"location"`
	Capacity         int32         `json:"capacity"`
	RequiresApproval bool          `json:"requires_approval"`
	Status           SessionStatus `json:"status"`
	ScheduledEnd     *string       `json:"scheduled_end,omitempty"`
	CreatedOn        string        `json:"created_on"`
}
