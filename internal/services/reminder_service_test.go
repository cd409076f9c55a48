package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/chainfly/tenderapi/internal/models"
	"github.com/chainfly/tenderapi/internal/scheduler"
	"github.com/chainfly/tenderapi/internal/utils"
	"github.com/sirupsen/logrus"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordedJob struct {
	at time.Time
	fn func()
}

type fakeRegistry struct {
	mu   sync.Mutex
	jobs []recordedJob
}

func (f *fakeRegistry) RegisterAt(t time.Time, fn func()) *scheduler.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, recordedJob{at: t, fn: fn})
	return &scheduler.Registration{}
}

func (f *fakeRegistry) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

func (f *fakeRegistry) Stop() {}

type fakeReminderRepo struct {
	nextID uint
	rows   map[uint]models.Reminder
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{rows: map[uint]models.Reminder{}}
}

func (r *fakeReminderRepo) Insert(_ context.Context, rem *models.Reminder) error {
	r.nextID++
	rem.ID = r.nextID
	r.rows[rem.ID] = *rem
	return nil
}

func (r *fakeReminderRepo) GetByID(_ context.Context, id uint) (*models.Reminder, error) {
	row, ok := r.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &row, nil
}

func (r *fakeReminderRepo) List(_ context.Context) ([]models.Reminder, error) {
	out := make([]models.Reminder, 0, len(r.rows))
	for _, row := range r.rows {
		out = append(out, row)
	}
	return out, nil
}

func (r *fakeReminderRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
	calls int
}

func (n *fakeNotifier) Notify(to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, to+"|"+subject+"|"+body)
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestReminderService(now time.Time) (ReminderService, *fakeRegistry, *fakeReminderRepo, *fakeNotifier) {
	reg := &fakeRegistry{}
	repo := newFakeReminderRepo()
	notifier := &fakeNotifier{}
	svc := NewReminderService(repo, reg, notifier, fixedClock{now: now}, nil, quietLogger())
	return svc, reg, repo, notifier
}

func TestCreate_ProductionOffsetWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		dueIn    time.Duration
		wantJobs int
	}{
		{"more than 15 days out", 20 * 24 * time.Hour, 3},
		{"between 6 and 15 days", 10 * 24 * time.Hour, 2},
		{"between 1 and 6 days", 3 * 24 * time.Hour, 1},
		{"less than 1 day", 12 * time.Hour, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, reg, _, _ := newTestReminderService(now)

			_, jobs, err := svc.Create(context.Background(),
				"T1", "deadline", now.Add(tc.dueIn), "buyer@example.com", false)
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if jobs != tc.wantJobs {
				t.Errorf("jobs registered = %d, want %d", jobs, tc.wantJobs)
			}
			if reg.Len() != tc.wantJobs {
				t.Errorf("registry has %d jobs, want %d", reg.Len(), tc.wantJobs)
			}
		})
	}
}

func TestCreate_ProductionFireTimes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, _ := newTestReminderService(now)

	// due in 20 days: offsets 15/6/1 days before land at now+5d/14d/19d
	_, jobs, err := svc.Create(context.Background(),
		"T1", "deadline", now.Add(20*24*time.Hour), "buyer@example.com", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if jobs != 3 {
		t.Fatalf("jobs = %d, want 3", jobs)
	}

	want := []time.Time{
		now.Add(5 * 24 * time.Hour),
		now.Add(14 * 24 * time.Hour),
		now.Add(19 * 24 * time.Hour),
	}
	for i, w := range want {
		if !reg.jobs[i].at.Equal(w) {
			t.Errorf("job %d fire time = %v, want %v", i, reg.jobs[i].at, w)
		}
	}
}

func TestCreate_ProductionDropsPastOffsets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, _ := newTestReminderService(now)

	// due in 3 days: 15-day and 6-day offsets are already past
	_, jobs, err := svc.Create(context.Background(),
		"T2", "deadline", now.Add(3*24*time.Hour), "buyer@example.com", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if jobs != 1 {
		t.Fatalf("jobs = %d, want 1", jobs)
	}
	if want := now.Add(2 * 24 * time.Hour); !reg.jobs[0].at.Equal(want) {
		t.Errorf("fire time = %v, want %v", reg.jobs[0].at, want)
	}
}

func TestCreate_TestModeOffsetsFromNow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, _ := newTestReminderService(now)

	// test mode computes from now, not from the due date
	_, jobs, err := svc.Create(context.Background(),
		"T3", "deadline", now.Add(90*24*time.Hour), "buyer@example.com", true)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if jobs != 3 {
		t.Fatalf("jobs = %d, want 3", jobs)
	}

	for i, mins := range []int{1, 2, 3} {
		want := now.Add(time.Duration(mins) * time.Minute)
		if !reg.jobs[i].at.Equal(want) {
			t.Errorf("job %d fire time = %v, want %v", i, reg.jobs[i].at, want)
		}
	}
}

func TestJobCallback_SendsEmail(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, notifier := newTestReminderService(now)

	due := now.Add(3 * 24 * time.Hour)
	_, _, err := svc.Create(context.Background(),
		"T1", "deadline", due, "buyer@example.com", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	reg.jobs[0].fn()

	if len(notifier.sent) != 1 {
		t.Fatalf("notifications sent = %d, want 1", len(notifier.sent))
	}
	want := "buyer@example.com|Chainfly Tender Reminder|This is a reminder for tender T1 (deadline). Due date: " +
		due.Format("2006-01-02 15:04") + "."
	if notifier.sent[0] != want {
		t.Errorf("notification = %q, want %q", notifier.sent[0], want)
	}
}

func TestJobCallback_SwallowsNotifierFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, notifier := newTestReminderService(now)
	notifier.fail = true

	_, _, err := svc.Create(context.Background(),
		"T1", "deadline", now.Add(3*24*time.Hour), "buyer@example.com", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// must not panic and must not retry
	reg.jobs[0].fn()
	if notifier.calls != 1 {
		t.Errorf("notifier calls = %d, want 1 (no retry)", notifier.calls)
	}
}

func TestDelete_DoesNotCancelRegisteredJobs(t *testing.T) {
	// documents current behavior: deleting the reminder row leaves
	// already-registered jobs in place
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, _ := newTestReminderService(now)

	row, jobs, err := svc.Create(context.Background(),
		"T1", "deadline", now.Add(20*24*time.Hour), "buyer@example.com", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if jobs != 3 {
		t.Fatalf("jobs = %d, want 3", jobs)
	}

	if err := svc.Delete(context.Background(), row.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if reg.Len() != 3 {
		t.Errorf("registry has %d jobs after delete, want 3", reg.Len())
	}
}

func TestDelete_NotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newTestReminderService(now)

	err := svc.Delete(context.Background(), 42)
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, reg, _, _ := newTestReminderService(now)

	_, _, err := svc.Create(context.Background(), "", "deadline", now.Add(time.Hour), "a@b.c", false)
	if !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("err = %v, want INVALID_ARGUMENT", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry has %d jobs after rejected create, want 0", reg.Len())
	}
}
