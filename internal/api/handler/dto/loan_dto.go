package dto

import (
	"time"

	"library-service/internal/domain/loan"
)

type CreateLoanRequest struct {
	ISBN     string `json:"isbn" validate:"required"`
	Customer string `json:"customer" validate:"required"`
}

func (r *CreateLoanRequest) Validate() []string {
	return validationMessages(validate.Struct(r))
}

type ReturnLoanRequest struct {
	Returned *bool `json:"returned" validate:"required"`
}

func (r *ReturnLoanRequest) Validate() []string {
	return validationMessages(validate.Struct(r))
}

type LoanResponse struct {
	ID        int64        `json:"id"`
	Book      BookResponse `json:"book"`
	Customer  string       `json:"customer"`
	LoanDate  string       `json:"loanDate"`
	Returned  *bool        `json:"returned"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	if l == nil {
		return LoanResponse{}
	}
	return LoanResponse{
		ID:        l.ID,
		Book:      NewBookResponse(l.Book),
		Customer:  l.Customer,
		LoanDate:  l.LoanDate.Format(time.DateOnly),
		Returned:  l.Returned,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func NewLoanPageResponse(loans []*loan.Loan, totalElements int64, totalPages, number, size int) PageResponse[LoanResponse] {
	content := make([]LoanResponse, len(loans))
	for i, l := range loans {
		content[i] = NewLoanResponse(l)
	}
	return PageResponse[LoanResponse]{
		Content:       content,
		TotalElements: totalElements,
		TotalPages:    totalPages,
		Number:        number,
		Size:          size,
	}
}
