package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/internal/errs"
	"github.com/urveshtaral/library-management-system/internal/model"
)

const loanSelect = `
	select l.id, l.loan_uid, b.book_uid, m.member_uid, l.kind, l.issued_at, l.due_at,
	       l.returned_at, l.status, l.fine_amount, l.fine_paid, l.renewal_count
	from loans l
	join books b on b.id = l.book_id
	join members m on m.id = l.member_id`

// lockedLoan carries the row ids a workflow transaction needs besides the
// public loan fields.
type lockedLoan struct {
	model.Loan
	BookID   int `db:"book_id"`
	MemberID int `db:"member_id"`
}

func (r *repository) lockLoan(ctx context.Context, tx *sqlx.Tx, loanUid string) (lockedLoan, error) {
	q := `
	select l.id, l.loan_uid, b.book_uid, m.member_uid, l.kind, l.issued_at, l.due_at,
	       l.returned_at, l.status, l.fine_amount, l.fine_paid, l.renewal_count,
	       l.book_id, l.member_id
	from loans l
	join books b on b.id = l.book_id
	join members m on m.id = l.member_id
	where l.loan_uid = $1
	for update of l`

	var loan lockedLoan
	if err := tx.GetContext(ctx, &loan, q, loanUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lockedLoan{}, errs.ErrNotFound
		}
		return lockedLoan{}, err
	}
	return loan, nil
}

// IssueLoan performs the whole issue workflow in one transaction: a
// conditional availability decrement, the loan insert and the member's
// active-list append. The decrement guards against overselling the last
// copy under concurrent issues.
func (r *repository) IssueLoan(ctx context.Context, bookUid, username string, loan model.Loan) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var bookID int
	if err := tx.GetContext(ctx, &bookID,
		fmt.Sprintf(`select id from %s where book_uid = $1`, booksTableName), bookUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}

	var member struct {
		ID        int    `db:"id"`
		MemberUid string `db:"member_uid"`
	}
	if err := tx.GetContext(ctx, &member,
		fmt.Sprintf(`select id, member_uid from %s where username = $1`, membersTableName), username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}

	res, err := tx.ExecContext(ctx, `
	update books
	set available_copies = available_copies - 1,
	    status = case when available_copies - 1 = 0 then 'CHECKED_OUT' else status end
	where id = $1 and available_copies > 0`, bookID)
	if err != nil {
		return model.Loan{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return model.Loan{}, err
	} else if n == 0 {
		return model.Loan{}, errs.ErrUnavailable
	}

	var loanID int
	if err := tx.GetContext(ctx, &loanID, `
	insert into loans (loan_uid, book_id, member_id, kind, issued_at, due_at, status)
	values ($1, $2, $3, $4, $5, $6, $7)
	returning id`,
		loan.LoanUid, bookID, member.ID, loan.Kind, loan.IssuedAt, loan.DueAt, loan.Status); err != nil {
		r.log.Error("IssueLoan insert", zap.String("loanUid", loan.LoanUid), zap.Error(err))
		return model.Loan{}, err
	}

	if _, err := tx.ExecContext(ctx, `
	insert into member_loans (member_id, loan_id, list)
	values ($1, $2, 'ACTIVE')`, member.ID, loanID); err != nil {
		return model.Loan{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Loan{}, err
	}

	loan.ID = loanID
	loan.BookUid = bookUid
	loan.MemberUid = member.MemberUid
	return loan, nil
}

// CompleteLoan settles an active loan: only an ACTIVE loan can be
// returned, so a second return of the same loan fails with
// ErrInvalidState instead of crediting the book counter twice.
func (r *repository) CompleteLoan(ctx context.Context, loanUid string, returnedAt time.Time, settle SettleFunc) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	loan, err := r.lockLoan(ctx, tx, loanUid)
	if err != nil {
		return model.Loan{}, err
	}
	if loan.Status != model.LoanActive {
		return model.Loan{}, errs.ErrInvalidState
	}

	fine, points := settle(loan.DueAt)

	if _, err := tx.ExecContext(ctx, `
	update loans
	set returned_at = $2, status = 'COMPLETED', fine_amount = $3
	where id = $1`, loan.ID, returnedAt, fine); err != nil {
		return model.Loan{}, err
	}

	if _, err := tx.ExecContext(ctx, `
	update books
	set available_copies = available_copies + 1,
	    status = case when status = 'CHECKED_OUT' then 'AVAILABLE' else status end
	where id = $1`, loan.BookID); err != nil {
		return model.Loan{}, err
	}

	if _, err := tx.ExecContext(ctx, `
	update member_loans set list = 'HISTORY'
	where member_id = $1 and loan_id = $2`, loan.MemberID, loan.ID); err != nil {
		return model.Loan{}, err
	}

	if points != 0 {
		if _, err := tx.ExecContext(ctx, `
	update members set points = points + $2 where id = $1`, loan.MemberID, points); err != nil {
			return model.Loan{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Loan{}, err
	}

	loan.ReturnedAt = &returnedAt
	loan.Status = model.LoanCompleted
	loan.FineAmount = fine
	return loan.Loan, nil
}

func (r *repository) RenewLoan(ctx context.Context, loanUid string, extraDays, maxRenewals int) (model.Loan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Loan{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	loan, err := r.lockLoan(ctx, tx, loanUid)
	if err != nil {
		return model.Loan{}, err
	}
	if loan.Status != model.LoanActive {
		return model.Loan{}, errs.ErrInvalidState
	}
	if loan.RenewalCount >= maxRenewals {
		return model.Loan{}, errs.ErrRenewalLimit
	}

	var (
		dueAt        time.Time
		renewalCount int
	)
	if err := tx.QueryRowContext(ctx, `
	update loans
	set due_at = due_at + make_interval(days => $2), renewal_count = renewal_count + 1
	where id = $1
	returning due_at, renewal_count`, loan.ID, extraDays).Scan(&dueAt, &renewalCount); err != nil {
		return model.Loan{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Loan{}, err
	}

	loan.DueAt = dueAt
	loan.RenewalCount = renewalCount
	return loan.Loan, nil
}

func (r *repository) GetLoan(ctx context.Context, loanUid string) (model.Loan, error) {
	q := loanSelect + `
	where l.loan_uid = $1`

	var loan model.Loan
	if err := r.db.GetContext(ctx, &loan, q, loanUid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Loan{}, errs.ErrNotFound
		}
		return model.Loan{}, err
	}
	return loan, nil
}

func (r *repository) ListActiveLoans(ctx context.Context, username string) ([]model.Loan, error) {
	q := loanSelect + `
	where m.username = $1 and l.status = 'ACTIVE'
	order by l.issued_at`

	loans := []model.Loan{}
	if err := r.db.SelectContext(ctx, &loans, q, username); err != nil {
		return nil, err
	}
	return loans, nil
}
