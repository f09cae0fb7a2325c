package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/internal/errs"
	"github.com/urveshtaral/library-management-system/internal/model"
)

var memberColumns = []string{"id", "member_uid", "username", "full_name", "password_hash", "role", "points"}

func (r *repository) CreateMember(ctx context.Context, member model.Member) (model.Member, error) {
	q, args, err := qb.Insert(membersTableName).
		Columns("member_uid", "username", "full_name", "password_hash", "role").
		Values(member.MemberUid, member.Username, member.FullName, member.PasswordHash, member.Role).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	var res model.Member
	if err := r.db.GetContext(ctx, &res, q, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return model.Member{}, errs.ErrAlreadyTaken
		}
		r.log.Error("CreateMember", zap.String("q", q), zap.String("username", member.Username))
		return model.Member{}, err
	}
	return res, nil
}

func (r *repository) GetMemberByUsername(ctx context.Context, username string) (model.Member, error) {
	q, args, err := qb.Select(memberColumns...).
		From(membersTableName).
		Where(sq.Eq{"username": username}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Member{}, err
	}
	var member model.Member
	if err := r.db.GetContext(ctx, &member, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Member{}, errs.ErrNotFound
		}
		return model.Member{}, err
	}
	return member, nil
}

// GetMemberProfile returns the member with the ordered active and history
// loan lists from member_loans.
func (r *repository) GetMemberProfile(ctx context.Context, username string) (model.MemberProfile, error) {
	member, err := r.GetMemberByUsername(ctx, username)
	if err != nil {
		return model.MemberProfile{}, err
	}

	q := `
	select l.loan_uid, ml.list
	from member_loans ml
	join loans l on l.id = ml.loan_id
	where ml.member_id = $1
	order by ml.position`

	rows, err := r.db.QueryContext(ctx, q, member.ID)
	if err != nil {
		return model.MemberProfile{}, err
	}
	defer rows.Close() //nolint:errcheck

	profile := model.MemberProfile{
		Member:       member,
		ActiveLoans:  []string{},
		HistoryLoans: []string{},
	}
	for rows.Next() {
		var loanUid, list string
		if err := rows.Scan(&loanUid, &list); err != nil {
			return model.MemberProfile{}, err
		}
		if list == "ACTIVE" {
			profile.ActiveLoans = append(profile.ActiveLoans, loanUid)
		} else {
			profile.HistoryLoans = append(profile.HistoryLoans, loanUid)
		}
	}
	if err := rows.Err(); err != nil {
		return model.MemberProfile{}, err
	}
	return profile, nil
}

func (r *repository) CreateNotification(ctx context.Context, memberUid, message string) error {
	q, args, err := qb.Insert(notificationsTableName).
		Columns("member_uid", "message").
		Values(memberUid, message).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		r.log.Error("CreateNotification", zap.String("memberUid", memberUid), zap.Error(err))
		return err
	}
	return nil
}

func (r *repository) ListNotifications(ctx context.Context, username string) ([]model.Notification, error) {
	q := `
	select n.id, n.member_uid, n.message, n.created_at
	from notifications n
	join members m on m.member_uid = n.member_uid
	where m.username = $1
	order by n.created_at desc`

	items := []model.Notification{}
	if err := r.db.SelectContext(ctx, &items, q, username); err != nil {
		return nil, err
	}
	return items, nil
}
