package domain

type ReviewStatus string

const (
	ReviewStatusPending       ReviewStatus = "pending"
	ReviewStatusPendingUpdate ReviewStatus = "pending_update"
	ReviewStatusApproved      ReviewStatus = "approved"
	ReviewStatusRejected      ReviewStatus = "rejected"
)

// IsActive reports whether the item still awaits an admin decision.
func (s ReviewStatus) IsActive() bool {
	return s == ReviewStatusPending || s == ReviewStatusPendingUpdate
}

// IsTerminal reports whether no further transition is allowed.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusApproved || s == ReviewStatusRejected
}

// ActiveReviewStatuses lists the statuses covered by the one-active-item-per-alumni rule.
var ActiveReviewStatuses = []ReviewStatus{ReviewStatusPending, ReviewStatusPendingUpdate}

type ReviewItem struct {
	ID        int32        `json:"id"`
	AlumniID  string       `json:"alumni_id"`
	Email     string       `json:"email"`
	Status    ReviewStatus `json:"status"`
	CreatedOn string       `json:"created_on"`
	UpdatedOn string       `json:"updated_on"`
	DecidedOn *string      `json:"decided_on,omitempty"`
	DecidedBy *int32       `json:"decided_by,omitempty"`

	// Populated by listings that join the alumni and school rows.
	FullName   string `json:"full_name,omitempty"`
	SchoolName string `json:"school_name,omitempty"`
}

// ReviewFilter narrows a review queue scan. Empty fields are ignored.
type ReviewFilter struct {
	Statuses []ReviewStatus
	AlumniID string
	Email    string
	Search   string
	Limit    int32
	Offset   int32
}

// ReviewStats holds the exact counts shown on the admin dashboard.
type ReviewStats struct {
	Pending       int32 `json:"pending"`
	PendingUpdate int32 `json:"pending_update"`
	Approved      int32 `json:"approved"`
	Rejected      int32 `json:"rejected"`
	Alumni        int32 `json:"alumni"`
	Schools       int32 `json:"schools"`
}
