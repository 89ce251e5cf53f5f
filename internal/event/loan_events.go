package event

import "time"

type LoanEventPayload struct {
	LoanID   int64     `json:"loanId"`
	BookID   int64     `json:"bookId"`
	ISBN     string    `json:"isbn"`
	Customer string    `json:"customer"`
	LoanDate time.Time `json:"loanDate"`
	Returned *bool     `json:"returned,omitempty"`
}

type LoanCreatedEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Payload   LoanEventPayload `json:"payload"`
}

type LoanReturnedEvent struct {
	Timestamp time.Time        `json:"timestamp"`
	Payload   LoanEventPayload `json:"payload"`
}
