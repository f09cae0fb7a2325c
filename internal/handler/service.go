package handler

import (
	"context"

	"github.com/urveshtaral/library-management-system/internal/model"
	"github.com/urveshtaral/library-management-system/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type LendingService interface {
	IssueBook(ctx context.Context, req model.IssueLoanRequest) (model.Loan, error)
	ReturnBook(ctx context.Context, loanUid string) (model.Loan, error)
	RenewBook(ctx context.Context, loanUid string, extraDays int) (model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.LoanView, error)
	ListActiveLoans(ctx context.Context, username string) ([]model.LoanView, error)

	CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
	UpdateBookStatus(ctx context.Context, bookUid string, status model.BookStatus) (model.Book, error)

	Register(ctx context.Context, req model.RegisterRequest) (model.Member, error)
	Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error)
	GetMemberProfile(ctx context.Context, username string) (model.MemberProfile, error)
	ListNotifications(ctx context.Context, username string) ([]model.Notification, error)
}

var _ LendingService = (*service.Service)(nil)
