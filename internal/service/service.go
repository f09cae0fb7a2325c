package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/config"
	"github.com/urveshtaral/library-management-system/internal/errs"
	"github.com/urveshtaral/library-management-system/internal/model"
	"github.com/urveshtaral/library-management-system/internal/repository"
	"github.com/urveshtaral/library-management-system/pkg/auth"
)

// Publisher delivers loan events to interested parties. Delivery is
// fire-and-forget: a failed publish never fails the workflow operation.
type Publisher interface {
	Publish(event model.LoanEvent)
}

type Service struct {
	log     *zap.Logger
	repo    repository.Repository
	events  Publisher
	policy  config.Policy
	authCfg config.Auth
	now     func() time.Time
}

func NewService(repo repository.Repository, events Publisher, policy config.Policy, authCfg config.Auth, log *zap.Logger) *Service {
	return &Service{
		log:     log,
		repo:    repo,
		events:  events,
		policy:  policy,
		authCfg: authCfg,
		now:     time.Now,
	}
}

// OverdueFine is the fine for a loan due at dueAt and settled at asOf:
// ratePerDay per started day past the due date, zero when on time.
func OverdueFine(dueAt, asOf time.Time, ratePerDay int) int {
	if !asOf.After(dueAt) {
		return 0
	}
	late := asOf.Sub(dueAt)
	daysLate := int(late / (24 * time.Hour))
	if late%(24*time.Hour) != 0 {
		daysLate++
	}
	return daysLate * ratePerDay
}

func (s *Service) IssueBook(ctx context.Context, req model.IssueLoanRequest) (model.Loan, error) {
	days := req.LoanDays
	if days == 0 {
		days = s.policy.DefaultLoanDays
	}
	now := s.now().UTC()
	loan := model.Loan{
		LoanUid:  uuid.New().String(),
		Kind:     model.KindIssue,
		IssuedAt: now,
		DueAt:    now.AddDate(0, 0, days),
		Status:   model.LoanActive,
	}

	loan, err := s.repo.IssueLoan(ctx, req.BookUid, req.UserName, loan)
	if err != nil {
		return model.Loan{}, err
	}

	s.events.Publish(model.LoanEvent{
		Type:      model.EventLoanIssued,
		LoanUid:   loan.LoanUid,
		BookUid:   loan.BookUid,
		MemberUid: loan.MemberUid,
		DueAt:     loan.DueAt,
		At:        now,
	})
	return loan, nil
}

func (s *Service) ReturnBook(ctx context.Context, loanUid string) (model.Loan, error) {
	now := s.now().UTC()
	loan, err := s.repo.CompleteLoan(ctx, loanUid, now, func(dueAt time.Time) (int, int) {
		fine := OverdueFine(dueAt, now, s.policy.FinePerDay)
		points := 0
		if fine == 0 {
			points = 1 // on-time return
		}
		return fine, points
	})
	if err != nil {
		return model.Loan{}, err
	}

	s.events.Publish(model.LoanEvent{
		Type:       model.EventLoanReturned,
		LoanUid:    loan.LoanUid,
		BookUid:    loan.BookUid,
		MemberUid:  loan.MemberUid,
		DueAt:      loan.DueAt,
		FineAmount: loan.FineAmount,
		At:         now,
	})
	if loan.FineAmount > 0 {
		s.events.Publish(model.LoanEvent{
			Type:       model.EventFineCharged,
			LoanUid:    loan.LoanUid,
			BookUid:    loan.BookUid,
			MemberUid:  loan.MemberUid,
			DueAt:      loan.DueAt,
			FineAmount: loan.FineAmount,
			At:         now,
		})
	}
	return loan, nil
}

func (s *Service) RenewBook(ctx context.Context, loanUid string, extraDays int) (model.Loan, error) {
	if extraDays == 0 {
		extraDays = s.policy.RenewalDays
	}
	loan, err := s.repo.RenewLoan(ctx, loanUid, extraDays, s.policy.MaxRenewals)
	if err != nil {
		return model.Loan{}, err
	}

	s.events.Publish(model.LoanEvent{
		Type:      model.EventLoanRenewed,
		LoanUid:   loan.LoanUid,
		BookUid:   loan.BookUid,
		MemberUid: loan.MemberUid,
		DueAt:     loan.DueAt,
		At:        s.now().UTC(),
	})
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, loanUid string) (model.LoanView, error) {
	loan, err := s.repo.GetLoan(ctx, loanUid)
	if err != nil {
		return model.LoanView{}, err
	}
	return s.withPreview(loan), nil
}

func (s *Service) ListActiveLoans(ctx context.Context, username string) ([]model.LoanView, error) {
	loans, err := s.repo.ListActiveLoans(ctx, username)
	if err != nil {
		return nil, err
	}
	views := make([]model.LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, s.withPreview(loan))
	}
	return views, nil
}

func (s *Service) withPreview(loan model.Loan) model.LoanView {
	view := model.LoanView{Loan: loan}
	if loan.Status == model.LoanActive {
		view.FinePreview = OverdueFine(loan.DueAt, s.now().UTC(), s.policy.FinePerDay)
	}
	return view
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, model.Book{
		BookUid:         uuid.New().String(),
		ISBN:            req.ISBN,
		Name:            req.Name,
		Author:          req.Author,
		Genre:           req.Genre,
		TotalCopies:     req.TotalCopies,
		AvailableCopies: req.TotalCopies,
		Status:          model.BookAvailable,
	})
}

func (s *Service) GetBook(ctx context.Context, bookUid string) (model.Book, error) {
	return s.repo.GetBook(ctx, bookUid)
}

func (s *Service) ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error) {
	return s.repo.ListBooks(ctx, showAll, page, size)
}

func (s *Service) UpdateBookStatus(ctx context.Context, bookUid string, status model.BookStatus) (model.Book, error) {
	return s.repo.UpdateBookStatus(ctx, bookUid, status)
}

func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (model.Member, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return model.Member{}, err
	}
	return s.repo.CreateMember(ctx, model.Member{
		MemberUid:    uuid.New().String(),
		Username:     req.Username,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         auth.RoleUser,
	})
}

func (s *Service) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	member, err := s.repo.GetMemberByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.TokenResponse{}, errs.ErrBadLogin
		}
		return model.TokenResponse{}, err
	}
	if !auth.CheckPassword(member.PasswordHash, req.Password) {
		return model.TokenResponse{}, errs.ErrBadLogin
	}
	token, err := auth.NewToken(member.Username, member.Role, s.authCfg.TokenTTL)
	if err != nil {
		return model.TokenResponse{}, err
	}
	return model.TokenResponse{Token: token}, nil
}

func (s *Service) GetMemberProfile(ctx context.Context, username string) (model.MemberProfile, error) {
	return s.repo.GetMemberProfile(ctx, username)
}

func (s *Service) ListNotifications(ctx context.Context, username string) ([]model.Notification, error) {
	return s.repo.ListNotifications(ctx, username)
}

func (s *Service) CreateNotification(ctx context.Context, memberUid, message string) error {
	return s.repo.CreateNotification(ctx, memberUid, message)
}
