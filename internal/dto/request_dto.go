package dto

// CreateAttemptRequest starts a practice attempt against a simulation case.
// The student identity comes from the auth middleware, not the body.
type CreateAttemptRequest struct {
	CaseID uint    `json:"case_id" binding:"required"`
	Voice  *string `json:"voice"` // optional voice/style preference forwarded to the orchestrator
}

// ListAttemptsQuery carries the optional filters for attempt listing.
type ListAttemptsQuery struct {
	StudentID        *uint   `form:"student_id"`
	CaseID           *uint   `form:"case_id"`
	CorrelationToken *string `form:"correlation_token"`
	Completed        *bool   `form:"completed"`
	Limit            int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	Offset           int     `form:"offset,default=0" binding:"omitempty,min=0"`
}

// SetCreditsRequest is the administrative balance override.
type SetCreditsRequest struct {
	Credits *int `json:"credits" binding:"required,gte=0"`
}
