package service_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"studyhub-backend/internal/domain"
	"studyhub-backend/internal/joincode"
	"studyhub-backend/internal/repository"
	"studyhub-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAdmissionMocks() (*MockSessionRepo, *MockMembershipRepo, *MockAttendanceRepo, *MockUserRepo, *MockEmailService) {
	return new(MockSessionRepo), new(MockMembershipRepo), new(MockAttendanceRepo), new(MockUserRepo), new(MockEmailService)
}

func TestAdmissionService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(nil).Once()

		sess := &domain.Session{Title: "Algorithms revision", Capacity: 5}
		err := svc.CreateSession(ctx, 7, sess)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.ID)
		assert.Len(t, sess.JoinCode, 6)
		assert.Equal(t, int32(7), sess.OwnerID)
		assert.Equal(t, domain.SessionStatusActive, sess.Status)
	})

	t.Run("Retries On Code Collision", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(repository.ErrCodeTaken).Twice()
		sessRepo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(nil).Once()

		sess := &domain.Session{Title: "DBMS lab prep", Capacity: 3}
		err := svc.CreateSession(ctx, 2, sess)
		require.NoError(t, err)
		sessRepo.AssertNumberOfCalls(t, "Create", 3)
	})

	t.Run("Code Space Exhausted", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 4)

		sessRepo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(repository.ErrCodeTaken)

		sess := &domain.Session{Title: "Crowded topic", Capacity: 3}
		err := svc.CreateSession(ctx, 2, sess)
		assert.ErrorIs(t, err, service.ErrCodeSpaceExhausted)
		sessRepo.AssertNumberOfCalls(t, "Create", 4)
	})

	t.Run("Rejects Missing Title", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		err := svc.CreateSession(ctx, 2, &domain.Session{Capacity: 3})
		assert.ErrorIs(t, err, service.ErrValidation)
		sessRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Rejects Non Positive Capacity", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		err := svc.CreateSession(ctx, 2, &domain.Session{Title: "x", Capacity: 0})
		assert.ErrorIs(t, err, service.ErrValidation)
		sessRepo.AssertNotCalled(t, "Create")
	})
}

func TestAdmissionService_JoinByCode(t *testing.T) {
	ctx := context.Background()
	openSession := func() *domain.Session {
		return &domain.Session{
			ID:       "sess-1",
			OwnerID:  1,
			JoinCode: "AB12CD",
			Title:    "OS study group",
			Capacity: 2,
			Status:   domain.SessionStatusActive,
		}
	}

	t.Run("Unknown Code", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByCode", ctx, "ZZZZZZ").Return(nil, sql.ErrNoRows)

		result, err := svc.JoinByCode(ctx, "ZZZZZZ", 5)
		assert.ErrorIs(t, err, service.ErrNotFound)
		assert.Nil(t, result)
	})

	t.Run("Owner Is Implicitly Approved", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByCode", ctx, "AB12CD").Return(openSession(), nil)

		result, err := svc.JoinByCode(ctx, "AB12CD", 1)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipStateApproved, result.State)
		assert.True(t, result.AlreadyMember)
		memRepo.AssertNotCalled(t, "Get")
		memRepo.AssertNotCalled(t, "CreateApproved")
	})

	t.Run("Open Session Admits Directly", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByCode", ctx, "AB12CD").Return(openSession(), nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(nil, sql.ErrNoRows)
		memRepo.On("CreateApproved", ctx, mock.AnythingOfType("*domain.Membership")).Return(nil)
		attRepo.On("Record", ctx, mock.AnythingOfType("*domain.AttendanceEntry")).Return(nil)

		result, err := svc.JoinByCode(ctx, "AB12CD", 5)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipStateApproved, result.State)
		assert.False(t, result.AlreadyMember)
		attRepo.AssertCalled(t, "Record", ctx, mock.AnythingOfType("*domain.AttendanceEntry"))
	})

	t.Run("Full Session", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByCode", ctx, "AB12CD").Return(openSession(), nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(nil, sql.ErrNoRows)
		memRepo.On("CreateApproved", ctx, mock.AnythingOfType("*domain.Membership")).Return(repository.ErrCapacityFull)

		result, err := svc.JoinByCode(ctx, "AB12CD", 5)
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)
		assert.Nil(t, result)
		attRepo.AssertNotCalled(t, "Record")
	})

	t.Run("Moderated Session Queues Pending", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sess := openSession()
		sess.RequiresApproval = true
		sessRepo.On("GetByCode", ctx, "AB12CD").Return(sess, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(nil, sql.ErrNoRows)
		memRepo.On("CreatePending", ctx, mock.AnythingOfType("*domain.Membership")).Return(nil)
		userRepo.On("GetByID", ctx, int32(1)).Return(&domain.User{ID: 1, FullName: "Owner", Email: "owner@test.edu"}, nil)
		userRepo.On("GetByID", ctx, int32(5)).Return(&domain.User{ID: 5, FullName: "Applicant", Email: "applicant@test.edu"}, nil)
		emailSvc.On("SendJoinRequestNotification", ctx, "owner@test.edu", "Applicant", "OS study group").Return(nil)

		result, err := svc.JoinByCode(ctx, "AB12CD", 5)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipStatePending, result.State)
		emailSvc.AssertExpectations(t)
		memRepo.AssertNotCalled(t, "CreateApproved")
	})

	t.Run("Repeat Join Reports Existing State", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByCode", ctx, "AB12CD").Return(openSession(), nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(&domain.Membership{
			SessionID: "sess-1", UserID: 5, State: domain.MembershipStatePending,
		}, nil)

		result, err := svc.JoinByCode(ctx, "AB12CD", 5)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipStatePending, result.State)
		assert.True(t, result.AlreadyMember)
		memRepo.AssertNotCalled(t, "CreatePending")
		memRepo.AssertNotCalled(t, "CreateApproved")
	})

	t.Run("Rejected Join Is Terminal", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByCode", ctx, "AB12CD").Return(openSession(), nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(&domain.Membership{
			SessionID: "sess-1", UserID: 5, State: domain.MembershipStateRejected,
		}, nil)

		result, err := svc.JoinByCode(ctx, "AB12CD", 5)
		assert.ErrorIs(t, err, service.ErrAlreadyRejected)
		assert.Nil(t, result)
		memRepo.AssertNotCalled(t, "CreatePending")
		memRepo.AssertNotCalled(t, "CreateApproved")
	})
}

func TestAdmissionService_Approve(t *testing.T) {
	ctx := context.Background()
	session := &domain.Session{ID: "sess-1", OwnerID: 1, Title: "OS study group", Capacity: 2}
	pending := func() *domain.Membership {
		return &domain.Membership{SessionID: "sess-1", UserID: 5, State: domain.MembershipStatePending}
	}

	t.Run("Success", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(pending(), nil)
		memRepo.On("Approve", ctx, "sess-1", int32(5)).Return(nil)
		attRepo.On("Record", ctx, mock.AnythingOfType("*domain.AttendanceEntry")).Return(nil)
		userRepo.On("GetByID", ctx, int32(5)).Return(&domain.User{ID: 5, FullName: "Applicant", Email: "applicant@test.edu"}, nil)
		emailSvc.On("SendAdmissionDecision", ctx, "applicant@test.edu", "Applicant", "OS study group", true).Return(nil)

		state, err := svc.Approve(ctx, "sess-1", 5, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipStateApproved, state)
	})

	t.Run("Second Approve Fails", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(&domain.Membership{
			SessionID: "sess-1", UserID: 5, State: domain.MembershipStateApproved,
		}, nil)

		state, err := svc.Approve(ctx, "sess-1", 5, 1)
		assert.ErrorIs(t, err, service.ErrInvalidState)
		assert.Equal(t, domain.MembershipStateApproved, state)
		memRepo.AssertNotCalled(t, "Approve")
	})

	t.Run("Capacity Filled While Pending", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(pending(), nil)
		memRepo.On("Approve", ctx, "sess-1", int32(5)).Return(repository.ErrCapacityFull)

		state, err := svc.Approve(ctx, "sess-1", 5, 1)
		assert.ErrorIs(t, err, service.ErrCapacityExceeded)
		assert.Equal(t, domain.MembershipStatePending, state)
		attRepo.AssertNotCalled(t, "Record")
	})

	t.Run("Non Owner Cannot Approve", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)

		_, err := svc.Approve(ctx, "sess-1", 5, 9)
		assert.ErrorIs(t, err, service.ErrUnauthorized)
		memRepo.AssertNotCalled(t, "Get")
		memRepo.AssertNotCalled(t, "Approve")
	})

	t.Run("Unknown Session", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "missing").Return(nil, sql.ErrNoRows)

		_, err := svc.Approve(ctx, "missing", 5, 1)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})

	t.Run("Unknown Membership", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(nil, sql.ErrNoRows)

		_, err := svc.Approve(ctx, "sess-1", 5, 1)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestAdmissionService_Reject(t *testing.T) {
	ctx := context.Background()
	session := &domain.Session{ID: "sess-1", OwnerID: 1, Title: "OS study group", Capacity: 2}

	t.Run("Success", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(&domain.Membership{
			SessionID: "sess-1", UserID: 5, State: domain.MembershipStatePending,
		}, nil)
		memRepo.On("Reject", ctx, "sess-1", int32(5)).Return(nil)
		userRepo.On("GetByID", ctx, int32(5)).Return(&domain.User{ID: 5, FullName: "Applicant", Email: "applicant@test.edu"}, nil)
		emailSvc.On("SendAdmissionDecision", ctx, "applicant@test.edu", "Applicant", "OS study group", false).Return(nil)

		state, err := svc.Reject(ctx, "sess-1", 5, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.MembershipStateRejected, state)
	})

	t.Run("Already Decided", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)
		memRepo.On("Get", ctx, "sess-1", int32(5)).Return(&domain.Membership{
			SessionID: "sess-1", UserID: 5, State: domain.MembershipStateApproved,
		}, nil)

		state, err := svc.Reject(ctx, "sess-1", 5, 1)
		assert.ErrorIs(t, err, service.ErrInvalidState)
		assert.Equal(t, domain.MembershipStateApproved, state)
		memRepo.AssertNotCalled(t, "Reject")
	})

	t.Run("Non Owner Cannot Reject", func(t *testing.T) {
		sessRepo, memRepo, attRepo, userRepo, emailSvc := newAdmissionMocks()
		svc := service.NewAdmissionService(sessRepo, memRepo, attRepo, userRepo, emailSvc, joincode.New(6), 10)

		sessRepo.On("GetByID", ctx, "sess-1").Return(session, nil)

		_, err := svc.Reject(ctx, "sess-1", 5, 9)
		assert.ErrorIs(t, err, service.ErrUnauthorized)
		memRepo.AssertNotCalled(t, "Reject")
	})
}

// newFakeAdmission wires the service over the in-memory store so join and
// approve races run through the real orchestration logic.
func newFakeAdmission(store *fakeStore) (service.AdmissionService, *fakeAttendance) {
	att := &fakeAttendance{}
	svc := service.NewAdmissionService(store, store, att, fakeUsers{}, nopEmail{}, joincode.New(6), 10)
	return svc, att
}

func TestAdmissionService_ConcurrentJoins(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _ := newFakeAdmission(store)

	sess := &domain.Session{Title: "Crowded session", Capacity: 2}
	require.NoError(t, svc.CreateSession(ctx, 1, sess))

	joiners := []int32{10, 11, 12}
	results := make([]*service.JoinResult, len(joiners))
	errs := make([]error, len(joiners))

	var wg sync.WaitGroup
	for i, userID := range joiners {
		wg.Add(1)
		go func(i int, userID int32) {
			defer wg.Done()
			results[i], errs[i] = svc.JoinByCode(ctx, sess.JoinCode, userID)
		}(i, userID)
	}
	wg.Wait()

	var approved, full int
	for i := range joiners {
		switch {
		case errs[i] == nil && results[i].State == domain.MembershipStateApproved:
			approved++
		case errors.Is(errs[i], service.ErrCapacityExceeded):
			full++
		default:
			t.Fatalf("unexpected outcome for joiner %d: result=%+v err=%v", joiners[i], results[i], errs[i])
		}
	}
	assert.Equal(t, 2, approved)
	assert.Equal(t, 1, full)

	count, err := store.CountApproved(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), count)
}

func TestAdmissionService_ApproveStopsAtCapacity(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _ := newFakeAdmission(store)

	sess := &domain.Session{Title: "Single seat", Capacity: 1, RequiresApproval: true}
	require.NoError(t, svc.CreateSession(ctx, 1, sess))

	for _, userID := range []int32{10, 11} {
		result, err := svc.JoinByCode(ctx, sess.JoinCode, userID)
		require.NoError(t, err)
		require.Equal(t, domain.MembershipStatePending, result.State)
	}

	state, err := svc.Approve(ctx, sess.ID, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipStateApproved, state)

	state, err = svc.Approve(ctx, sess.ID, 11, 1)
	assert.ErrorIs(t, err, service.ErrCapacityExceeded)
	assert.Equal(t, domain.MembershipStatePending, state)

	m, err := store.Get(ctx, sess.ID, 11)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipStatePending, m.State)
}

func TestAdmissionService_RejectedJoinStaysRejected(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _ := newFakeAdmission(store)

	sess := &domain.Session{Title: "Moderated", Capacity: 5, RequiresApproval: true}
	require.NoError(t, svc.CreateSession(ctx, 1, sess))

	result, err := svc.JoinByCode(ctx, sess.JoinCode, 10)
	require.NoError(t, err)
	require.Equal(t, domain.MembershipStatePending, result.State)

	state, err := svc.Reject(ctx, sess.ID, 10, 1)
	require.NoError(t, err)
	require.Equal(t, domain.MembershipStateRejected, state)

	for i := 0; i < 3; i++ {
		_, err = svc.JoinByCode(ctx, sess.JoinCode, 10)
		assert.ErrorIs(t, err, service.ErrAlreadyRejected)
	}

	m, err := store.Get(ctx, sess.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipStateRejected, m.State)
}

func TestAdmissionService_UniqueCodesUnderLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc, _ := newFakeAdmission(store)

	const n = 10000
	errs := make([]error, n)
	sessions := make([]*domain.Session, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = &domain.Session{Title: "Load session", Capacity: 4}
			errs[i] = svc.CreateSession(ctx, int32(i+1), sessions[i])
		}(i)
	}
	wg.Wait()

	codes := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		codes[sessions[i].JoinCode] = true
	}
	assert.Len(t, codes, n)
}
