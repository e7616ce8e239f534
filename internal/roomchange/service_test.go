package roomchange

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hosteldesk/internal/account"
	"hosteldesk/internal/apperr"
)

// fakeDirectory resolves student accounts; fakeStore mutates its rooms on
// approve, mirroring how the Postgres repo updates the accounts table.
type fakeDirectory struct {
	students map[string]*account.Account
}

func (d *fakeDirectory) Get(_ context.Context, id string) (account.Account, error) {
	if a, ok := d.students[id]; ok {
		return *a, nil
	}
	return account.Account{}, apperr.NotFound("account not found")
}

type fakeStore struct {
	reqs     map[string]*Request
	students map[string]*account.Account
	seq      int
	clock    time.Time
}

func newFixture() (*fakeStore, *Service) {
	dir := &fakeDirectory{students: map[string]*account.Account{
		"s1": {ID: "s1", RegNo: "21CSE001", Name: "Asha", RoomNo: "101", Role: account.RoleStudent},
		"s2": {ID: "s2", RegNo: "21CSE002", Name: "Ravi", RoomNo: "202", Role: account.RoleStudent},
	}}
	fs := &fakeStore{
		reqs:     make(map[string]*Request),
		students: dir.students,
		clock:    time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC),
	}
	return fs, NewService(fs, dir)
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) Create(_ context.Context, req Request) (Request, error) {
	// mirror the uniq_room_change_pending index
	for _, existing := range f.reqs {
		if existing.StudentID == req.StudentID && existing.Status == StatusPending {
			return Request{}, apperr.Conflict("room change request already pending")
		}
	}
	f.seq++
	req.ID = fmt.Sprintf("req-%d", f.seq)
	req.Status = StatusPending
	req.CreatedAt = f.tick()
	req.UpdatedAt = req.CreatedAt
	f.reqs[req.ID] = &req
	return req, nil
}

func (f *fakeStore) get(id string) *Request {
	return f.reqs[id]
}

func (f *fakeStore) Get(ctx context.Context, id string) (*Request, error) {
	if req, ok := f.reqs[id]; ok {
		cp := *req
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) PendingFor(_ context.Context, studentID string) (*Request, error) {
	var latest *Request
	for _, req := range f.reqs {
		if req.StudentID == studentID && req.Status == StatusPending {
			if latest == nil || req.CreatedAt.After(latest.CreatedAt) {
				latest = req
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) LatestTerminalFor(_ context.Context, studentID string) (*Request, error) {
	var latest *Request
	for _, req := range f.reqs {
		if req.StudentID == studentID && req.Status != StatusPending {
			if latest == nil || req.UpdatedAt.After(latest.UpdatedAt) {
				latest = req
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) DeleteTerminalFor(_ context.Context, studentID string) (int, error) {
	n := 0
	for id, req := range f.reqs {
		if req.StudentID == studentID && req.Status != StatusPending {
			delete(f.reqs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) List(_ context.Context, status string) ([]ListItem, error) {
	var items []ListItem
	for _, req := range f.reqs {
		if status != "" && req.Status != status {
			continue
		}
		st := f.students[req.StudentID]
		items = append(items, ListItem{
			ID: req.ID, RegNo: st.RegNo, Name: st.Name, Dept: st.Dept,
			CurrentRoom: st.RoomNo, NewRoom: req.NewRoom, Status: req.Status,
			RequestedAt: req.CreatedAt,
		})
	}
	return items, nil
}

func (f *fakeStore) Approve(_ context.Context, id string) (*Request, error) {
	req, ok := f.reqs[id]
	if !ok || req.Status != StatusPending {
		return nil, nil
	}
	req.Status = StatusApproved
	req.UpdatedAt = f.tick()
	f.students[req.StudentID].RoomNo = req.NewRoom
	cp := *req
	return &cp, nil
}

func (f *fakeStore) Reject(_ context.Context, id string) (*Request, error) {
	req, ok := f.reqs[id]
	if !ok || req.Status != StatusPending {
		return nil, nil
	}
	req.Status = StatusRejected
	req.UpdatedAt = f.tick()
	cp := *req
	return &cp, nil
}

func TestSubmitValidation(t *testing.T) {
	_, svc := newFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "s1", "   ")
	assert.True(t, apperr.IsValidation(err))

	_, err = svc.Submit(ctx, "s1", "101")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "already in this room", err.Error())

	_, err = svc.Submit(ctx, "missing", "102")
	assert.True(t, apperr.IsNotFound(err))
}

func TestSubmitRejectsSecondPending(t *testing.T) {
	_, svc := newFixture()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)

	// conflict regardless of the requested room
	for _, room := range []string{"102", "303"} {
		_, err = svc.Submit(ctx, "s1", room)
		require.Error(t, err)
		assert.True(t, apperr.IsConflict(err), "room %s", room)
	}
}

// racingStore hides the pending row from the pre-insert check, as happens
// when two submissions interleave, leaving the unique index as the last line.
type racingStore struct {
	*fakeStore
}

func (r *racingStore) PendingFor(context.Context, string) (*Request, error) {
	return nil, nil
}

func TestSubmitRaceFallsBackToUniqueIndex(t *testing.T) {
	fs, _ := newFixture()
	dir := &fakeDirectory{students: fs.students}
	svc := NewService(&racingStore{fs}, dir)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "s1", "303")
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, "room change request already pending", err.Error())
	assert.Len(t, fs.reqs, 1)
}

func TestApproveMovesStudentAtomically(t *testing.T) {
	fs, svc := newFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)

	out, err := svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, out.Status)
	assert.Equal(t, "102", fs.students["s1"].RoomNo)
}

func TestApproveNonPendingConflicts(t *testing.T) {
	fs, svc := newFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, "request already processed", err.Error())

	_, err = svc.Reject(ctx, req.ID)
	assert.True(t, apperr.IsConflict(err))
	// no double mutation
	assert.Equal(t, "102", fs.students["s1"].RoomNo)
	assert.Equal(t, StatusApproved, fs.get(req.ID).Status)
}

func TestApproveUnknownIDNotFound(t *testing.T) {
	_, svc := newFixture()
	_, err := svc.Approve(context.Background(), "nope")
	assert.True(t, apperr.IsNotFound(err))
}

func TestRejectLeavesRoomUntouched(t *testing.T) {
	fs, svc := newFixture()
	ctx := context.Background()

	req, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)

	out, err := svc.Reject(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, out.Status)
	assert.Equal(t, "101", fs.students["s1"].RoomNo)
}

func TestNotificationLifecycle(t *testing.T) {
	fs, svc := newFixture()
	ctx := context.Background()

	// nothing pending, nothing decided
	st, err := svc.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, st.Pending)
	n, err := svc.Notification(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, n.HasNotification)

	req, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)

	st, err = svc.Pending(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, st.Pending)
	require.NotNil(t, st.NewRoom)
	assert.Equal(t, "102", *st.NewRoom)

	_, err = svc.Approve(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "102", fs.students["s1"].RoomNo)

	// notification survives repeated polls until cleared
	for i := 0; i < 3; i++ {
		n, err = svc.Notification(ctx, "s1")
		require.NoError(t, err)
		assert.True(t, n.HasNotification)
		assert.Equal(t, StatusApproved, n.Status)
		assert.Equal(t, "102", n.NewRoom)
	}

	require.NoError(t, svc.ClearNotifications(ctx, "s1"))
	n, err = svc.Notification(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, n.HasNotification)

	// a new request is allowed immediately after clearing
	_, err = svc.Submit(ctx, "s1", "103")
	assert.NoError(t, err)
}

func TestNotificationSurfacesMostRecentDecision(t *testing.T) {
	_, svc := newFixture()
	ctx := context.Background()

	first, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, first.ID)
	require.NoError(t, err)

	second, err := svc.Submit(ctx, "s1", "103")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, second.ID)
	require.NoError(t, err)

	n, err := svc.Notification(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, n.HasNotification)
	assert.Equal(t, StatusApproved, n.Status)
	assert.Equal(t, "103", n.NewRoom)
}

func TestListStatusFilter(t *testing.T) {
	_, svc := newFixture()
	ctx := context.Background()

	r1, err := svc.Submit(ctx, "s1", "102")
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "s2", "303")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, r1.ID)
	require.NoError(t, err)

	pending, err := svc.List(ctx, StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "21CSE002", pending[0].RegNo)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, "bogus")
	assert.True(t, apperr.IsValidation(err))
}
