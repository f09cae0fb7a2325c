package model

import (
	"time"
)

type BookStatus string

const (
	BookAvailable        BookStatus = "AVAILABLE"
	BookCheckedOut       BookStatus = "CHECKED_OUT"
	BookReserved         BookStatus = "RESERVED"
	BookUnderMaintenance BookStatus = "UNDER_MAINTENANCE"
	BookLost             BookStatus = "LOST"
)

type LoanStatus string

const (
	LoanActive    LoanStatus = "ACTIVE"
	LoanCompleted LoanStatus = "COMPLETED"
	LoanOverdue   LoanStatus = "OVERDUE"
	LoanCancelled LoanStatus = "CANCELLED"
)

type LoanKind string

const (
	KindIssue       LoanKind = "ISSUE"
	KindReservation LoanKind = "RESERVATION"
	KindRenewal     LoanKind = "RENEWAL"
)

type Book struct {
	ID              int        `json:"-" db:"id"`
	BookUid         string     `json:"bookUid" db:"book_uid"`
	ISBN            string     `json:"isbn" db:"isbn"`
	Name            string     `json:"name" db:"name"`
	Author          string     `json:"author" db:"author"`
	Genre           string     `json:"genre" db:"genre"`
	TotalCopies     int        `json:"totalCopies" db:"total_copies"`
	AvailableCopies int        `json:"availableCopies" db:"available_copies"`
	Status          BookStatus `json:"status" db:"status"`
}

type Member struct {
	ID           int    `json:"-" db:"id"`
	MemberUid    string `json:"memberUid" db:"member_uid"`
	Username     string `json:"username" db:"username"`
	FullName     string `json:"fullName" db:"full_name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	Points       int    `json:"points" db:"points"`
}

type Loan struct {
	ID           int        `json:"-" db:"id"`
	LoanUid      string     `json:"loanUid" db:"loan_uid"`
	BookUid      string     `json:"bookUid" db:"book_uid"`
	MemberUid    string     `json:"memberUid" db:"member_uid"`
	Kind         LoanKind   `json:"kind" db:"kind"`
	IssuedAt     time.Time  `json:"issuedAt" db:"issued_at"`
	DueAt        time.Time  `json:"dueAt" db:"due_at"`
	ReturnedAt   *time.Time `json:"returnedAt,omitempty" db:"returned_at"`
	Status       LoanStatus `json:"status" db:"status"`
	FineAmount   int        `json:"fineAmount" db:"fine_amount"`
	FinePaid     bool       `json:"finePaid" db:"fine_paid"`
	RenewalCount int        `json:"renewalCount" db:"renewal_count"`
}

// LoanView is a Loan plus the fine a member would owe if the book came
// back right now. Used by active-loan listings.
type LoanView struct {
	Loan        `json:",inline"`
	FinePreview int `json:"finePreview"`
}

type MemberProfile struct {
	Member       `json:",inline"`
	ActiveLoans  []string `json:"activeLoans"`
	HistoryLoans []string `json:"historyLoans"`
}

type Paging struct {
	Page          int `json:"page"`
	PageSize      int `json:"pageSize"`
	TotalElements int `json:"totalElements"`
}

type ListBooks struct {
	Paging `json:",inline"`
	Items  []Book
}

type CreateBookRequest struct {
	ISBN        string `json:"isbn" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       string `json:"genre"`
	TotalCopies int    `json:"totalCopies" validate:"required,min=1"`
}

type UpdateBookStatusRequest struct {
	Status BookStatus `json:"status" validate:"required,oneof=AVAILABLE CHECKED_OUT RESERVED UNDER_MAINTENANCE LOST"`
}

type IssueLoanRequest struct {
	BookUid  string `json:"bookUid" validate:"required,uuid"`
	LoanDays int    `json:"loanDays" validate:"omitempty,min=1,max=60"`
	UserName string `json:"-" validate:"required"`
}

type RenewLoanRequest struct {
	ExtraDays int `json:"extraDays" validate:"omitempty,min=1,max=30"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	FullName string `json:"fullName" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type LoanEventType string

const (
	EventLoanIssued   LoanEventType = "LOAN_ISSUED"
	EventLoanReturned LoanEventType = "LOAN_RETURNED"
	EventLoanRenewed  LoanEventType = "LOAN_RENEWED"
	EventFineCharged  LoanEventType = "FINE_CHARGED"
)

// LoanEvent is published to kafka after a committed workflow transition.
type LoanEvent struct {
	Type       LoanEventType `json:"type"`
	LoanUid    string        `json:"loanUid"`
	BookUid    string        `json:"bookUid"`
	MemberUid  string        `json:"memberUid"`
	DueAt      time.Time     `json:"dueAt"`
	FineAmount int           `json:"fineAmount"`
	At         time.Time     `json:"at"`
}

type Notification struct {
	ID        int       `json:"-" db:"id"`
	MemberUid string    `json:"memberUid" db:"member_uid"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
