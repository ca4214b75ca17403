package domain

type MembershipState string

const (
	MembershipStatePending  MembershipState = "PENDING"
	MembershipStateApproved MembershipState = "APPROVED"
	MembershipStateRejected MembershipState = "REJECTED"
)

// Membership ties one user to one session. There is at most one row per
// (session, user) pair. JoinedOn records when the join was requested and is
// never updated; DecidedOn records the approve/reject moment.
type Membership struct {
	SessionID string          `json:"session_id"`
	UserID    int32           `json:"user_id"`
	State     MembershipState `json:"state"`
	JoinedOn  string          `json:"joined_on"`
	DecidedOn *string         `json:"decided_on,omitempty"`
}
