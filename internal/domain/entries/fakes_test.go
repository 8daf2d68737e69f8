package entries

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"timebank-go/internal/domain/identity"
	"timebank-go/internal/domain/ledger"
	"timebank-go/internal/domain/tasks"
	"timebank-go/internal/domain/user"
	"timebank-go/pkg/logger"
)

var (
	admin = identity.Principal{ID: 1, Role: identity.RoleAdmin}
	kid   = identity.Principal{ID: 10, Role: identity.RoleUser}
	other = identity.Principal{ID: 11, Role: identity.RoleUser}
)

type fakeEntriesRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	entries     map[int64]*Entry
	balances    map[int64]decimal.Decimal
	adjustments []ledger.Adjustment
	nextID      int64

	loseNextTransition bool
}

func newFakeEntriesRepo() *fakeEntriesRepo {
	return &fakeEntriesRepo{
		entries:  make(map[int64]*Entry),
		balances: make(map[int64]decimal.Decimal),
	}
}

// Transaction serializes callers and restores the previous state when fn fails.
func (r *fakeEntriesRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	r.mu.Lock()
	entries := make(map[int64]*Entry, len(r.entries))
	for id, entry := range r.entries {
		copied := *entry
		entries[id] = &copied
	}
	balances := make(map[int64]decimal.Decimal, len(r.balances))
	for id, balance := range r.balances {
		balances[id] = balance
	}
	adjustments := append([]ledger.Adjustment(nil), r.adjustments...)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.entries = entries
		r.balances = balances
		r.adjustments = adjustments
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *fakeEntriesRepo) CreateEntry(ctx context.Context, entry *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *fakeEntriesRepo) GetEntryView(ctx context.Context, entryID int64) (*EntryView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return &EntryView{Entry: *entry}, nil
}

func (r *fakeEntriesRepo) LockEntry(ctx context.Context, entryID int64) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[entryID]
	if !ok {
		return nil, ErrEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeEntriesRepo) ListEntriesByUser(ctx context.Context, userID int64, filter ListFilter) ([]EntryView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]EntryView, 0)
	for _, entry := range r.entries {
		if entry.UserID != userID {
			continue
		}
		if filter.Status != nil && entry.Status != *filter.Status {
			continue
		}
		result = append(result, EntryView{Entry: *entry})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fakeEntriesRepo) ListPendingEntries(ctx context.Context) ([]EntryView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]EntryView, 0)
	for _, entry := range r.entries {
		if entry.Status == StatusPending {
			result = append(result, EntryView{Entry: *entry})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *fakeEntriesRepo) TransitionStatus(ctx context.Context, entryID int64, from, to Status, adminID int64, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loseNextTransition {
		r.loseNextTransition = false
		return false, nil
	}
	entry, ok := r.entries[entryID]
	if !ok || entry.Status != from {
		return false, nil
	}
	entry.Status = to
	entry.ApprovedBy = &adminID
	entry.ApprovedAt = &at
	return true, nil
}

func (r *fakeEntriesRepo) SetApprovedHours(ctx context.Context, entryID int64, hours decimal.Decimal, adminID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[entryID]
	if !ok {
		return ErrEntryNotFound
	}
	entry.Hours = hours
	entry.Status = StatusApproved
	entry.ApprovedBy = &adminID
	entry.ApprovedAt = &at
	return nil
}

func (r *fakeEntriesRepo) DeleteEntry(ctx context.Context, entryID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entryID]; !ok {
		return false, nil
	}
	delete(r.entries, entryID)
	return true, nil
}

func (r *fakeEntriesRepo) ListUserIDsWithEntriesBefore(ctx context.Context, cutoff time.Time, statuses []Status) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[int64]struct{})
	result := make([]int64, 0)
	for _, entry := range r.entries {
		if !entry.CreatedAt.Before(cutoff) || !containsStatus(statuses, entry.Status) {
			continue
		}
		if _, ok := seen[entry.UserID]; ok {
			continue
		}
		seen[entry.UserID] = struct{}{}
		result = append(result, entry.UserID)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}

func (r *fakeEntriesRepo) LockEntriesBefore(ctx context.Context, userID int64, cutoff time.Time, statuses []Status) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Entry, 0)
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.CreatedAt.Before(cutoff) && containsStatus(statuses, entry.Status) {
			result = append(result, *entry)
		}
	}
	return result, nil
}

func (r *fakeEntriesRepo) DeleteEntriesByIDs(ctx context.Context, entryIDs []int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, id := range entryIDs {
		if _, ok := r.entries[id]; ok {
			delete(r.entries, id)
			count++
		}
	}
	return count, nil
}

func (r *fakeEntriesRepo) AdjustBalance(ctx context.Context, userID int64, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[userID] = r.balances[userID].Add(delta)
	return nil
}

func (r *fakeEntriesRepo) RecordAdjustment(ctx context.Context, adjustment *ledger.Adjustment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjustments = append(r.adjustments, *adjustment)
	return nil
}

func (r *fakeEntriesRepo) seedEntry(entry Entry) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	entry.ID = r.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	r.entries[entry.ID] = &entry
	return &entry
}

func (r *fakeEntriesRepo) balance(userID int64) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balances[userID]
}

func containsStatus(statuses []Status, status Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeTasks struct {
	tasks map[int64]*tasks.Task
}

func (f *fakeTasks) Get(ctx context.Context, taskID int64) (*tasks.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, tasks.ErrTaskNotFound
	}
	return task, nil
}

type fakeDirectory struct {
	contacts map[int64]user.Contact
	adminErr error
}

func (f *fakeDirectory) Contact(ctx context.Context, userID int64) (*user.Contact, error) {
	contact, ok := f.contacts[userID]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &contact, nil
}

func (f *fakeDirectory) AdminContacts(ctx context.Context) ([]user.Contact, error) {
	if f.adminErr != nil {
		return nil, f.adminErr
	}
	return []user.Contact{f.contacts[admin.ID]}, nil
}

type sentMessage struct {
	recipient string
	subject   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(ctx context.Context, recipient, subject, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{recipient: recipient, subject: subject})
}

func (n *recordingNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]string, 0, len(n.sent))
	for _, msg := range n.sent {
		result = append(result, msg.recipient)
	}
	return result
}

type testEnv struct {
	repo     *fakeEntriesRepo
	tasks    *fakeTasks
	users    *fakeDirectory
	notifier *recordingNotifier
	svc      *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo: newFakeEntriesRepo(),
		tasks: &fakeTasks{tasks: map[int64]*tasks.Task{
			1: {ID: 1, Name: "Dishes", WeightFactor: decimal.RequireFromString("1.20"), IsActive: true},
			2: {ID: 2, Name: "Gaming", WeightFactor: decimal.RequireFromString("1.00"), IsActive: true},
			3: {ID: 3, Name: "Old chore", WeightFactor: decimal.RequireFromString("1.00"), IsActive: false},
		}},
		users: &fakeDirectory{contacts: map[int64]user.Contact{
			admin.ID: {UserID: admin.ID, Email: "parent@example.com", Name: "Parent"},
			kid.ID:   {UserID: kid.ID, Email: "kid@example.com", Name: "Kid"},
		}},
		notifier: &recordingNotifier{},
	}
	log := logger.New(io.Discard, slog.LevelDebug, "text")
	env.svc = NewService(env.repo, env.tasks, env.users, env.notifier, log)
	return env
}

func ptr[T any](value T) *T {
	return &value
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

var errLookupDown = errors.New("directory unavailable")
