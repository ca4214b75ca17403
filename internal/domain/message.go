package domain

// Message is one line of a session's chat transcript. Transcripts are
// append-only; delivery is plain request/response, there is no push channel.
type Message struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	UserID    int32  `json:"user_id"`
	Body      string `json:"body"`
	SentOn    string `json:"sent_on"`
}

// AttendanceEntry records the moment a member was admitted to a session.
type AttendanceEntry struct {
	SessionID  string `json:"session_id"`
	UserID     int32  `json:"user_id"`
	AdmittedOn string `json:"admitted_on"`
}
