package queue

// CoinHistoryJobPayload is the payload for an append_coin_history job.
// History appends are best-effort: the credit that produced them has already
// committed by the time this runs.
type CoinHistoryJobPayload struct {
	FirebaseUID string `json:"firebase_uid"`
	CandidateID string `json:"candidate_id,omitempty"`
	JobID       string `json:"job_id,omitempty"`
	CoinValue   int64  `json:"coin_value"`
	Reduction   int64  `json:"reduction"`
	Reason      string `json:"reason"`
}

// NotificationJobPayload is the payload for a send_notification job.
// Channel selects the dispatcher; "all" fans out to every configured one.
type NotificationJobPayload struct {
	Phone    string            `json:"phone"`
	Channel  string            `json:"channel"` // rcs, whatsapp or all
	Template string            `json:"template"`
	Params   map[string]string `json:"params,omitempty"`
}
