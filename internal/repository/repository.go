package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/internal/model"
)

type Repository interface {
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	GetBook(ctx context.Context, bookUid string) (model.Book, error)
	ListBooks(ctx context.Context, showAll bool, page, size int) (model.ListBooks, error)
	UpdateBookStatus(ctx context.Context, bookUid string, status model.BookStatus) (model.Book, error)

	CreateMember(ctx context.Context, member model.Member) (model.Member, error)
	GetMemberByUsername(ctx context.Context, username string) (model.Member, error)
	GetMemberProfile(ctx context.Context, username string) (model.MemberProfile, error)

	IssueLoan(ctx context.Context, bookUid, username string, loan model.Loan) (model.Loan, error)
	GetLoan(ctx context.Context, loanUid string) (model.Loan, error)
	ListActiveLoans(ctx context.Context, username string) ([]model.Loan, error)
	CompleteLoan(ctx context.Context, loanUid string, returnedAt time.Time, settle SettleFunc) (model.Loan, error)
	RenewLoan(ctx context.Context, loanUid string, extraDays, maxRenewals int) (model.Loan, error)

	CreateNotification(ctx context.Context, memberUid, message string) error
	ListNotifications(ctx context.Context, username string) ([]model.Notification, error)
}

// SettleFunc computes the fine and the points delta for a loan being
// returned, given its due date. Runs inside the return transaction while
// the loan row is locked, so the workflow keeps ownership of the policy
// arithmetic without giving up atomicity.
type SettleFunc func(dueAt time.Time) (fine int, points int)

type repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewRepository(db *sqlx.DB, log *zap.Logger) (*repository, error) {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

const (
	booksTableName         = `books`
	membersTableName       = `members`
	notificationsTableName = `notifications`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
