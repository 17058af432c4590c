package enrollment_test

import (
	"context"
	"errors"
	"sync"
	"time"

	coursestore "github.com/dalemusser/courseportal/internal/app/store/courses"
	studentstore "github.com/dalemusser/courseportal/internal/app/store/students"
	userstore "github.com/dalemusser/courseportal/internal/app/store/users"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memCourses mirrors coursestore's conditional updates under a mutex.
type memCourses struct {
	mu         sync.Mutex
	byID       map[primitive.ObjectID]models.Course
	releaseErr error
}

func newMemCourses(cs ...models.Course) *memCourses {
	m := &memCourses{byID: map[primitive.ObjectID]models.Course{}}
	for _, c := range cs {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCourses) GetByID(_ context.Context, id primitive.ObjectID) (models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return models.Course{}, coursestore.ErrNotFound
	}
	return c, nil
}

func (m *memCourses) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Course
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCourses) ReserveSeat(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || !c.IsActive || c.Enrolled >= c.Capacity {
		return coursestore.ErrNoSeat
	}
	c.Enrolled++
	m.byID[id] = c
	return nil
}

func (m *memCourses) ReleaseSeat(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.releaseErr != nil {
		return m.releaseErr
	}
	c, ok := m.byID[id]
	if ok && c.Enrolled > 0 {
		c.Enrolled--
		m.byID[id] = c
	}
	return nil
}

func (m *memCourses) enrolled(id primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Enrolled
}

func (m *memCourses) set(c models.Course) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[c.ID] = c
}

// memStudents mirrors studentstore's guarded $push/$pull semantics.
type memStudents struct {
	mu       sync.Mutex
	byUser   map[primitive.ObjectID]models.Student
	ids      map[string]bool
	addErr   error
	creates  int
	takenIDs map[string]bool
}

func newMemStudents() *memStudents {
	return &memStudents{
		byUser:   map[primitive.ObjectID]models.Student{},
		ids:      map[string]bool{},
		takenIDs: map[string]bool{},
	}
}

func (m *memStudents) GetByUserID(_ context.Context, userID primitive.ObjectID) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.byUser[userID]
	if !ok {
		return models.Student{}, studentstore.ErrNotFound
	}
	st.EnrolledCourses = append([]models.EnrollmentEntry(nil), st.EnrolledCourses...)
	return st, nil
}

func (m *memStudents) Create(_ context.Context, st models.Student) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if _, ok := m.byUser[st.UserID]; ok {
		return models.Student{}, studentstore.ErrDuplicateStudent
	}
	if m.ids[st.StudentID] || m.takenIDs[st.StudentID] {
		return models.Student{}, studentstore.ErrDuplicateID
	}
	st.ID = primitive.NewObjectID()
	if st.EnrolledCourses == nil {
		st.EnrolledCourses = []models.EnrollmentEntry{}
	}
	st.IsActive = true
	st.CreatedAt = time.Now().UTC()
	m.byUser[st.UserID] = st
	m.ids[st.StudentID] = true
	return st, nil
}

func (m *memStudents) find(studentID primitive.ObjectID) (models.Student, bool) {
	for _, st := range m.byUser {
		if st.ID == studentID {
			return st, true
		}
	}
	return models.Student{}, false
}

func (m *memStudents) AddEnrollment(_ context.Context, studentID primitive.ObjectID, entry models.EnrollmentEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	st, ok := m.find(studentID)
	if !ok {
		return studentstore.ErrNotFound
	}
	if _, dup := st.Entry(entry.CourseID); dup {
		return studentstore.ErrAlreadyEnrolled
	}
	st.EnrolledCourses = append(st.EnrolledCourses, entry)
	m.byUser[st.UserID] = st
	return nil
}

func (m *memStudents) RemoveEnrollment(_ context.Context, studentID, courseID primitive.ObjectID) (models.EnrollmentEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.find(studentID)
	if !ok {
		return models.EnrollmentEntry{}, studentstore.ErrNotEnrolled
	}
	kept := st.EnrolledCourses[:0:0]
	var removed *models.EnrollmentEntry
	for _, e := range st.EnrolledCourses {
		if e.CourseID == courseID && removed == nil {
			e := e
			removed = &e
			continue
		}
		kept = append(kept, e)
	}
	if removed == nil {
		return models.EnrollmentEntry{}, studentstore.ErrNotEnrolled
	}
	st.EnrolledCourses = kept
	m.byUser[st.UserID] = st
	return *removed, nil
}

func (m *memStudents) RestoreEnrollment(ctx context.Context, studentID primitive.ObjectID, entry models.EnrollmentEntry) error {
	m.mu.Lock()
	st, ok := m.find(studentID)
	if ok {
		if _, dup := st.Entry(entry.CourseID); !dup {
			st.EnrolledCourses = append(st.EnrolledCourses, entry)
			m.byUser[st.UserID] = st
		}
	}
	m.mu.Unlock()
	if !ok {
		return studentstore.ErrNotFound
	}
	return nil
}

func (m *memStudents) UpdateProfile(_ context.Context, studentID primitive.ObjectID, personal models.PersonalInfo, academic models.AcademicInfo) (models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.find(studentID)
	if !ok {
		return models.Student{}, studentstore.ErrNotFound
	}
	if academic.Department == "" {
		academic.Department = models.DefaultDepartment
	}
	st.PersonalInfo = personal
	st.AcademicInfo = academic
	m.byUser[st.UserID] = st
	return st, nil
}

type memUsers map[primitive.ObjectID]models.User

func (m memUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	u, ok := m[id]
	if !ok {
		return models.User{}, userstore.ErrNotFound
	}
	return u, nil
}

type memCounters struct {
	mu  sync.Mutex
	seq map[string]int64
}

func (m *memCounters) Next(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seq == nil {
		m.seq = map[string]int64{}
	}
	m.seq[key]++
	return m.seq[key], nil
}

type observation struct{ op, outcome string }

type memRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (m *memRecorder) Observe(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.obs = append(m.obs, observation{op, outcome})
}

func (m *memRecorder) count(op, outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.obs {
		if o.op == op && o.outcome == outcome {
			n++
		}
	}
	return n
}

type memAuditor struct {
	mu       sync.Mutex
	enrolled int
	dropped  int
}

func (m *memAuditor) Enrolled(context.Context, primitive.ObjectID, primitive.ObjectID, string) {
	m.mu.Lock()
	m.enrolled++
	m.mu.Unlock()
}

func (m *memAuditor) Dropped(context.Context, primitive.ObjectID, primitive.ObjectID, string) {
	m.mu.Lock()
	m.dropped++
	m.mu.Unlock()
}

var errBoom = errors.New("boom")
