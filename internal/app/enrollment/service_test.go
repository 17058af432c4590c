package enrollment_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/courseportal/internal/app/enrollment"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type harness struct {
	svc      *enrollment.Service
	courses  *memCourses
	students *memStudents
	users    memUsers
	metrics  *memRecorder
	audit    *memAuditor
}

func newHarness(t *testing.T, courses ...models.Course) *harness {
	t.Helper()
	h := &harness{
		courses:  newMemCourses(courses...),
		students: newMemStudents(),
		users:    memUsers{},
		metrics:  &memRecorder{},
		audit:    &memAuditor{},
	}
	h.svc = enrollment.New(enrollment.Deps{
		Courses:  h.courses,
		Students: h.students,
		Users:    h.users,
		Counters: &memCounters{},
		Metrics:  h.metrics,
		Audit:    h.audit,
		Now:      func() time.Time { return time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC) },
	})
	return h
}

func (h *harness) user(name string) primitive.ObjectID {
	id := primitive.NewObjectID()
	h.users[id] = models.User{ID: id, Name: name, Email: id.Hex() + "@example.com", Role: models.RoleStudent, IsActive: true}
	return id
}

func course(capacity, enrolled int) models.Course {
	return models.Course{
		ID:         primitive.NewObjectID(),
		CourseCode: "CS101",
		Title:      "Intro",
		Capacity:   capacity,
		Enrolled:   enrolled,
		IsActive:   true,
	}
}

func TestEnroll_LastSeatThenFull(t *testing.T) {
	c := course(50, 49)
	h := newHarness(t, c)
	ctx := context.Background()

	first := h.user("Ada Lovelace")
	view, err := h.svc.Enroll(ctx, first, c.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if got := h.courses.enrolled(c.ID); got != 50 {
		t.Errorf("enrolled = %d, want 50", got)
	}
	if len(view.EnrolledCourses) != 1 {
		t.Fatalf("entries = %d, want 1", len(view.EnrolledCourses))
	}
	e := view.EnrolledCourses[0]
	if e.Status != models.EnrollmentEnrolled || e.Course == nil || e.Course.ID != c.ID {
		t.Errorf("entry = %+v", e)
	}

	second := h.user("Grace Hopper")
	if _, err := h.svc.Enroll(ctx, second, c.ID); !errors.Is(err, enrollment.ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if got := h.courses.enrolled(c.ID); got != 50 {
		t.Errorf("enrolled after full = %d, want 50", got)
	}

	if h.metrics.count(enrollment.OpEnroll, "ok") != 1 || h.metrics.count(enrollment.OpEnroll, "capacity_exceeded") != 1 {
		t.Errorf("metrics = %+v", h.metrics.obs)
	}
	if h.audit.enrolled != 1 {
		t.Errorf("audited enrollments = %d, want 1", h.audit.enrolled)
	}
}

func TestEnroll_Twice(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Alan Turing")

	if _, err := h.svc.Enroll(ctx, u, c.ID); err != nil {
		t.Fatalf("first Enroll failed: %v", err)
	}
	if _, err := h.svc.Enroll(ctx, u, c.ID); !errors.Is(err, enrollment.ErrAlreadyEnrolled) {
		t.Errorf("expected ErrAlreadyEnrolled, got %v", err)
	}
	if got := h.courses.enrolled(c.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1", got)
	}
}

func TestEnroll_MissingOrInactiveCourse(t *testing.T) {
	inactive := course(10, 0)
	inactive.IsActive = false
	h := newHarness(t, inactive)
	ctx := context.Background()
	u := h.user("Someone")

	if _, err := h.svc.Enroll(ctx, u, primitive.NewObjectID()); !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
	if _, err := h.svc.Enroll(ctx, u, inactive.ID); !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("inactive: expected ErrNotFound, got %v", err)
	}
	if h.students.creates != 0 {
		t.Errorf("expected no student provisioned, got %d creates", h.students.creates)
	}
}

func TestEnroll_UnknownUser(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)

	_, err := h.svc.Enroll(context.Background(), primitive.NewObjectID(), c.ID)
	if !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if got := h.courses.enrolled(c.ID); got != 0 {
		t.Errorf("enrolled = %d, want 0", got)
	}
}

func TestEnroll_ProvisionsStudent(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()

	tests := []struct {
		name      string
		wantFirst string
		wantLast  string
	}{
		{"Mary Jane Watson", "Mary", "Jane Watson"},
		{"Cher", "Cher", ""},
		{"   ", "", ""},
	}
	idPattern := regexp.MustCompile(`^STU25\d{4}$`)
	seen := map[string]bool{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := h.user(tt.name)
			view, err := h.svc.Enroll(ctx, u, c.ID)
			if err != nil {
				t.Fatalf("Enroll failed: %v", err)
			}
			st := view.Student
			if !idPattern.MatchString(st.StudentID) {
				t.Errorf("StudentID = %q, want STU25NNNN", st.StudentID)
			}
			if seen[st.StudentID] {
				t.Errorf("StudentID %q reused", st.StudentID)
			}
			seen[st.StudentID] = true
			if st.PersonalInfo.FirstName != tt.wantFirst || st.PersonalInfo.LastName != tt.wantLast {
				t.Errorf("name = (%q, %q), want (%q, %q)",
					st.PersonalInfo.FirstName, st.PersonalInfo.LastName, tt.wantFirst, tt.wantLast)
			}
			if st.AcademicInfo.Department != models.DepartmentOther {
				t.Errorf("Department = %q, want Other", st.AcademicInfo.Department)
			}
		})
	}
}

func TestEnroll_SkipsTakenStudentID(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	h.students.takenIDs["STU250001"] = true

	view, err := h.svc.Enroll(context.Background(), h.user("New Person"), c.ID)
	if err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if view.StudentID != "STU250002" {
		t.Errorf("StudentID = %q, want STU250002", view.StudentID)
	}
}

func TestEnroll_CompensatesWhenEntryWriteFails(t *testing.T) {
	c := course(10, 3)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Unlucky")

	if _, err := h.svc.Profile(ctx, u); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	h.students.addErr = errBoom

	_, err := h.svc.Enroll(ctx, u, c.ID)
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped errBoom, got %v", err)
	}
	if got := h.courses.enrolled(c.ID); got != 3 {
		t.Errorf("enrolled = %d, want 3 (seat released)", got)
	}
	if h.metrics.count(enrollment.OpEnroll, "error") != 1 {
		t.Errorf("metrics = %+v", h.metrics.obs)
	}
	if h.audit.enrolled != 0 {
		t.Error("failed enrollment must not be audited")
	}
}

func TestEnroll_CourseDeactivatedBeforeWrite(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Late")

	// Deactivation lands between the first read and the seat write.
	deactivated := c
	deactivated.IsActive = false
	stale := &staleCourses{memCourses: h.courses, first: c}
	h.courses.set(deactivated)

	svc := enrollment.New(enrollment.Deps{
		Courses:  stale,
		Students: h.students,
		Users:    h.users,
		Counters: &memCounters{},
	})
	if _, err := svc.Enroll(ctx, u, c.ID); !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// staleCourses returns a cached copy on the first GetByID only.
type staleCourses struct {
	*memCourses
	first  models.Course
	served bool
}

func (s *staleCourses) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	if !s.served {
		s.served = true
		return s.first, nil
	}
	return s.memCourses.GetByID(ctx, id)
}

func TestEnroll_ConcurrentLastSeat(t *testing.T) {
	c := course(1, 0)
	h := newHarness(t, c)
	ctx := context.Background()

	const n = 20
	users := make([]primitive.ObjectID, n)
	for i := range users {
		users[i] = h.user("Racer")
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		full int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u primitive.ObjectID) {
			defer wg.Done()
			_, err := h.svc.Enroll(ctx, u, c.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, enrollment.ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	if ok != 1 || full != n-1 {
		t.Errorf("ok=%d full=%d, want 1 and %d", ok, full, n-1)
	}
	if got := h.courses.enrolled(c.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1", got)
	}
}

func TestEnroll_ConcurrentSameUser(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Double Click")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Enroll(ctx, u, c.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, enrollment.ErrAlreadyEnrolled):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful enrollments = %d, want 1", ok)
	}
	if got := h.courses.enrolled(c.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1", got)
	}
	st, _ := h.students.GetByUserID(ctx, u)
	if len(st.EnrolledCourses) != 1 {
		t.Errorf("entries = %d, want 1", len(st.EnrolledCourses))
	}
}

func TestDrop(t *testing.T) {
	keep := course(10, 0)
	drop := course(10, 0)
	h := newHarness(t, keep, drop)
	ctx := context.Background()
	u := h.user("Dropper")

	for _, c := range []models.Course{keep, drop} {
		if _, err := h.svc.Enroll(ctx, u, c.ID); err != nil {
			t.Fatalf("Enroll failed: %v", err)
		}
	}

	remaining, err := h.svc.Drop(ctx, u, drop.ID)
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].CourseID != keep.ID {
		t.Errorf("remaining = %+v", remaining)
	}
	if got := h.courses.enrolled(drop.ID); got != 0 {
		t.Errorf("enrolled = %d, want 0", got)
	}
	if _, err := h.svc.Drop(ctx, u, drop.ID); !errors.Is(err, enrollment.ErrNotEnrolled) {
		t.Errorf("second drop: expected ErrNotEnrolled, got %v", err)
	}
	if h.audit.dropped != 1 {
		t.Errorf("audited drops = %d, want 1", h.audit.dropped)
	}
}

func TestDrop_NotEnrolledLeavesCounter(t *testing.T) {
	held := course(10, 0)
	other := course(10, 0)
	h := newHarness(t, held, other)
	ctx := context.Background()

	holder := h.user("Seat Holder")
	if _, err := h.svc.Enroll(ctx, holder, held.ID); err != nil {
		t.Fatalf("Enroll holder: %v", err)
	}
	outsider := h.user("Outsider")
	if _, err := h.svc.Enroll(ctx, outsider, other.ID); err != nil {
		t.Fatalf("Enroll outsider: %v", err)
	}

	if _, err := h.svc.Drop(ctx, outsider, held.ID); !errors.Is(err, enrollment.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if got := h.courses.enrolled(held.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1 (unchanged)", got)
	}

	// A repeated drop by the same student must not release a second seat.
	second := h.user("Second Holder")
	if _, err := h.svc.Enroll(ctx, second, held.ID); err != nil {
		t.Fatalf("Enroll second: %v", err)
	}
	if _, err := h.svc.Drop(ctx, second, held.ID); err != nil {
		t.Fatalf("Drop second: %v", err)
	}
	if _, err := h.svc.Drop(ctx, second, held.ID); !errors.Is(err, enrollment.ErrNotEnrolled) {
		t.Fatalf("repeat drop: expected ErrNotEnrolled, got %v", err)
	}
	if got := h.courses.enrolled(held.ID); got != 1 {
		t.Errorf("enrolled after repeat drop = %d, want 1", got)
	}
	if n := h.metrics.count(enrollment.OpDrop, "not_enrolled"); n != 2 {
		t.Errorf("not_enrolled drops observed = %d, want 2", n)
	}
}

func TestDrop_ConcurrentSameUser(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()

	holder := h.user("Seat Holder")
	u := h.user("Double Click")
	for _, id := range []primitive.ObjectID{holder, u} {
		if _, err := h.svc.Enroll(ctx, id, c.ID); err != nil {
			t.Fatalf("Enroll: %v", err)
		}
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Drop(ctx, u, c.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, enrollment.ErrNotEnrolled):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful drops = %d, want 1", ok)
	}
	if got := h.courses.enrolled(c.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1", got)
	}
	if h.audit.dropped != 1 {
		t.Errorf("audited drops = %d, want 1", h.audit.dropped)
	}
}

func TestDrop_NoStudent(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)

	if _, err := h.svc.Drop(context.Background(), h.user("Nobody"), c.ID); !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDrop_ThenReenroll(t *testing.T) {
	c := course(1, 0)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Back Again")

	if _, err := h.svc.Enroll(ctx, u, c.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	if _, err := h.svc.Drop(ctx, u, c.ID); err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if _, err := h.svc.Enroll(ctx, u, c.ID); err != nil {
		t.Fatalf("re-Enroll failed: %v", err)
	}
	if got := h.courses.enrolled(c.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1", got)
	}
}

func TestDrop_RestoresEntryWhenReleaseFails(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Stuck")

	if _, err := h.svc.Enroll(ctx, u, c.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	h.courses.releaseErr = errBoom

	if _, err := h.svc.Drop(ctx, u, c.ID); !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped errBoom, got %v", err)
	}
	st, _ := h.students.GetByUserID(ctx, u)
	if _, ok := st.Entry(c.ID); !ok {
		t.Error("expected entry restored after failed release")
	}
	if got := h.courses.enrolled(c.ID); got != 1 {
		t.Errorf("enrolled = %d, want 1", got)
	}
}

func TestDrop_CourseDeleted(t *testing.T) {
	c := course(10, 0)
	h := newHarness(t, c)
	ctx := context.Background()
	u := h.user("Orphan")

	if _, err := h.svc.Enroll(ctx, u, c.ID); err != nil {
		t.Fatalf("Enroll failed: %v", err)
	}
	h.courses.mu.Lock()
	delete(h.courses.byID, c.ID)
	h.courses.mu.Unlock()

	remaining, err := h.svc.Drop(ctx, u, c.ID)
	if err != nil {
		t.Fatalf("Drop failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("remaining = %d, want 0", len(remaining))
	}
}

func TestDashboardAndEntries(t *testing.T) {
	a, b, gone := course(10, 0), course(10, 0), primitive.NewObjectID()
	h := newHarness(t, a, b)
	ctx := context.Background()
	u := h.user("Counter")

	empty, err := h.svc.Dashboard(ctx, u)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if empty.TotalCourses != 0 || empty.EnrolledCourses == nil || empty.Student != nil {
		t.Errorf("empty dashboard = %+v", empty)
	}
	entries, _ := h.svc.Entries(ctx, u)
	if entries == nil || len(entries) != 0 {
		t.Errorf("entries without student = %v, want empty", entries)
	}

	view, err := h.svc.Profile(ctx, u)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	h.students.mu.Lock()
	st := h.students.byUser[u]
	st.EnrolledCourses = []models.EnrollmentEntry{
		{CourseID: a.ID, Status: models.EnrollmentEnrolled},
		{CourseID: b.ID, Status: models.EnrollmentCompleted},
		{CourseID: gone, Status: models.EnrollmentInProgress},
	}
	h.students.byUser[u] = st
	h.students.mu.Unlock()

	d, err := h.svc.Dashboard(ctx, u)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if d.TotalCourses != 3 || d.ActiveCourses != 2 || d.CompletedCourses != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", d.TotalCourses, d.ActiveCourses, d.CompletedCourses)
	}
	if d.Student == nil || d.Student.StudentID != view.StudentID {
		t.Error("expected dashboard to carry the student")
	}
	if d.EnrolledCourses[2].Course != nil {
		t.Error("expected nil course for a deleted course")
	}
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user("Profile Owner")

	if _, err := h.svc.UpdateProfile(ctx, u, models.PersonalInfo{}, models.AcademicInfo{}); !errors.Is(err, enrollment.ErrNotFound) {
		t.Errorf("expected ErrNotFound before provisioning, got %v", err)
	}
	if _, err := h.svc.Profile(ctx, u); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	view, err := h.svc.UpdateProfile(ctx, u,
		models.PersonalInfo{FirstName: "Pat", LastName: "Owner", Phone: "555"},
		models.AcademicInfo{Department: models.DepartmentCivil})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if view.PersonalInfo.Phone != "555" || view.AcademicInfo.Department != models.DepartmentCivil {
		t.Errorf("view = %+v", view.Student)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{enrollment.ErrNotFound, "not_found"},
		{enrollment.ErrAlreadyEnrolled, "already_enrolled"},
		{enrollment.ErrNotEnrolled, "not_enrolled"},
		{enrollment.ErrCapacityExceeded, "capacity_exceeded"},
		{context.DeadlineExceeded, "canceled"},
		{errBoom, "error"},
	}
	for _, tt := range tests {
		if got := enrollment.Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestStudentIDFormat(t *testing.T) {
	if got := enrollment.FormatStudentID(25, 7); got != "STU250007" {
		t.Errorf("FormatStudentID = %q", got)
	}
	if got := enrollment.StudentIDKey(5); got != "student_id:05" {
		t.Errorf("StudentIDKey = %q", got)
	}
}
