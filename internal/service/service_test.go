package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/urveshtaral/library-management-system/config"
	"github.com/urveshtaral/library-management-system/internal/errs"
	"github.com/urveshtaral/library-management-system/internal/model"
	"github.com/urveshtaral/library-management-system/internal/repository"
)

func TestOverdueFine(t *testing.T) {
	t.Parallel()
	due := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		asOf time.Time
		want int
	}{
		{name: "returned early", asOf: due.AddDate(0, 0, -2), want: 0},
		{name: "returned exactly on time", asOf: due, want: 0},
		{name: "one hour late counts as a day", asOf: due.Add(time.Hour), want: 5},
		{name: "three days late", asOf: due.AddDate(0, 0, 3), want: 15},
		{name: "three days and an hour late", asOf: due.AddDate(0, 0, 3).Add(time.Hour), want: 20},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, OverdueFine(due, tt.asOf, 5))
		})
	}
}

// fakeStore is an in-memory Repository with the same transactional
// semantics as the SQL implementation: the availability check and
// decrement happen under one lock, so it reproduces the
// no-oversell guarantee the workflow relies on.
type fakeStore struct {
	repository.Repository // unimplemented methods panic if reached

	mu      sync.Mutex
	book    model.Book
	member  model.Member
	loans   map[string]*model.Loan
	active  []string
	history []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		book: model.Book{
			BookUid:         "b-1",
			ISBN:            "978-0135957059",
			Name:            "The Pragmatic Programmer",
			Author:          "Hunt, Thomas",
			TotalCopies:     1,
			AvailableCopies: 1,
			Status:          model.BookAvailable,
		},
		member: model.Member{MemberUid: "m-1", Username: "alice", FullName: "Alice A."},
		loans:  map[string]*model.Loan{},
	}
}

func (f *fakeStore) IssueLoan(_ context.Context, bookUid, username string, loan model.Loan) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bookUid != f.book.BookUid || username != f.member.Username {
		return model.Loan{}, errs.ErrNotFound
	}
	if f.book.AvailableCopies == 0 {
		return model.Loan{}, errs.ErrUnavailable
	}
	f.book.AvailableCopies--
	if f.book.AvailableCopies == 0 {
		f.book.Status = model.BookCheckedOut
	}
	loan.BookUid = bookUid
	loan.MemberUid = f.member.MemberUid
	f.loans[loan.LoanUid] = &loan
	f.active = append(f.active, loan.LoanUid)
	return loan, nil
}

func (f *fakeStore) CompleteLoan(_ context.Context, loanUid string, returnedAt time.Time, settle repository.SettleFunc) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan, ok := f.loans[loanUid]
	if !ok {
		return model.Loan{}, errs.ErrNotFound
	}
	if loan.Status != model.LoanActive {
		return model.Loan{}, errs.ErrInvalidState
	}
	fine, points := settle(loan.DueAt)
	loan.ReturnedAt = &returnedAt
	loan.Status = model.LoanCompleted
	loan.FineAmount = fine
	f.book.AvailableCopies++
	if f.book.Status == model.BookCheckedOut {
		f.book.Status = model.BookAvailable
	}
	for i, uid := range f.active {
		if uid == loanUid {
			f.active = append(f.active[:i], f.active[i+1:]...)
			break
		}
	}
	f.history = append(f.history, loanUid)
	f.member.Points += points
	return *loan, nil
}

func (f *fakeStore) RenewLoan(_ context.Context, loanUid string, extraDays, maxRenewals int) (model.Loan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	loan, ok := f.loans[loanUid]
	if !ok {
		return model.Loan{}, errs.ErrNotFound
	}
	if loan.Status != model.LoanActive {
		return model.Loan{}, errs.ErrInvalidState
	}
	if loan.RenewalCount >= maxRenewals {
		return model.Loan{}, errs.ErrRenewalLimit
	}
	loan.DueAt = loan.DueAt.AddDate(0, 0, extraDays)
	loan.RenewalCount++
	return *loan, nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []model.LoanEvent
}

func (p *capturingPublisher) Publish(event model.LoanEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturingPublisher) types() []model.LoanEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]model.LoanEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

func newTestService(store *fakeStore, pub Publisher) *Service {
	return NewService(store, pub,
		config.Policy{FinePerDay: 5, MaxRenewals: 2, DefaultLoanDays: 14, RenewalDays: 7},
		config.Auth{TokenTTL: time.Hour},
		zap.NewExample().Named("test"))
}

func TestService_IssueReturnRoundTrip(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	pub := &capturingPublisher{}
	svc := newTestService(store, pub)

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	svc.now = func() time.Time { return now }

	loan, err := svc.IssueBook(context.Background(), model.IssueLoanRequest{
		BookUid:  "b-1",
		UserName: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, model.LoanActive, loan.Status)
	require.Equal(t, start.AddDate(0, 0, 14), loan.DueAt)
	require.Equal(t, 0, store.book.AvailableCopies)
	require.Equal(t, model.BookCheckedOut, store.book.Status)
	require.Equal(t, []string{loan.LoanUid}, store.active)

	// 17 days later: 3 days past the 14-day due date
	now = start.AddDate(0, 0, 17)

	returned, err := svc.ReturnBook(context.Background(), loan.LoanUid)
	require.NoError(t, err)
	require.Equal(t, model.LoanCompleted, returned.Status)
	require.Equal(t, 15, returned.FineAmount)
	require.NotNil(t, returned.ReturnedAt)
	require.Equal(t, 1, store.book.AvailableCopies)
	require.Equal(t, model.BookAvailable, store.book.Status)
	require.Empty(t, store.active)
	require.Equal(t, []string{loan.LoanUid}, store.history)
	require.Equal(t, 0, store.member.Points) // late return earns nothing

	require.Equal(t,
		[]model.LoanEventType{model.EventLoanIssued, model.EventLoanReturned, model.EventFineCharged},
		pub.types())

	// the loan is settled, a second return must not re-credit the book
	_, err = svc.ReturnBook(context.Background(), loan.LoanUid)
	require.ErrorIs(t, err, errs.ErrInvalidState)
	require.Equal(t, 1, store.book.AvailableCopies)
}

func TestService_OnTimeReturnEarnsPoint(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, &capturingPublisher{})

	loan, err := svc.IssueBook(context.Background(), model.IssueLoanRequest{
		BookUid:  "b-1",
		UserName: "alice",
	})
	require.NoError(t, err)

	returned, err := svc.ReturnBook(context.Background(), loan.LoanUid)
	require.NoError(t, err)
	require.Equal(t, 0, returned.FineAmount)
	require.Equal(t, 1, store.member.Points)
}

func TestService_RenewalLimit(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, &capturingPublisher{})

	loan, err := svc.IssueBook(context.Background(), model.IssueLoanRequest{
		BookUid:  "b-1",
		UserName: "alice",
	})
	require.NoError(t, err)
	due := loan.DueAt

	// extraDays 0 falls back to the policy's 7 days
	renewed, err := svc.RenewBook(context.Background(), loan.LoanUid, 0)
	require.NoError(t, err)
	require.Equal(t, due.AddDate(0, 0, 7), renewed.DueAt)
	require.Equal(t, 1, renewed.RenewalCount)

	renewed, err = svc.RenewBook(context.Background(), loan.LoanUid, 3)
	require.NoError(t, err)
	require.Equal(t, 2, renewed.RenewalCount)

	_, err = svc.RenewBook(context.Background(), loan.LoanUid, 3)
	require.ErrorIs(t, err, errs.ErrRenewalLimit)
	require.Equal(t, 2, store.loans[loan.LoanUid].RenewalCount)

	// a settled loan cannot be renewed either
	_, err = svc.ReturnBook(context.Background(), loan.LoanUid)
	require.NoError(t, err)
	_, err = svc.RenewBook(context.Background(), loan.LoanUid, 3)
	require.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestService_ConcurrentIssueSingleCopy(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	svc := newTestService(store, &capturingPublisher{})

	const attempts = 8
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.IssueBook(context.Background(), model.IssueLoanRequest{
				BookUid:  "b-1",
				UserName: "alice",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var issued, unavailable int
	for err := range results {
		switch {
		case err == nil:
			issued++
		default:
			require.ErrorIs(t, err, errs.ErrUnavailable)
			unavailable++
		}
	}
	require.Equal(t, 1, issued)
	require.Equal(t, attempts-1, unavailable)
	require.Equal(t, 0, store.book.AvailableCopies)
	require.Len(t, store.active, 1)
}

func TestService_IssueUnknownBook(t *testing.T) {
	t.Parallel()
	svc := newTestService(newFakeStore(), &capturingPublisher{})

	_, err := svc.IssueBook(context.Background(), model.IssueLoanRequest{
		BookUid:  "no-such-book",
		UserName: "alice",
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}
