// internal/app/store/students/studentstore.go
package studentstore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/courseportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound         = errors.New("student not found")
	ErrDuplicateStudent = errors.New("a student record already exists for this user")
	ErrDuplicateID      = errors.New("student id already in use")
	ErrAlreadyEnrolled  = errors.New("student already has an entry for this course")
	ErrNotEnrolled      = errors.New("student has no entry for this course")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("students")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Student, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.Student, error) {
	return s.findOne(ctx, bson.M{"user_id": userID})
}

func (s *Store) findOne(ctx context.Context, q bson.M) (models.Student, error) {
	var st models.Student
	err := s.c.FindOne(ctx, q).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, err
	}
	return st, nil
}

// Create inserts a student record. A second record for the same user fails
// with ErrDuplicateStudent; a clashing student id with ErrDuplicateID.
func (s *Store) Create(ctx context.Context, st models.Student) (models.Student, error) {
	now := time.Now().UTC()
	if st.ID.IsZero() {
		st.ID = primitive.NewObjectID()
	}
	if st.EnrolledCourses == nil {
		st.EnrolledCourses = []models.EnrollmentEntry{}
	}
	if st.AcademicInfo.Department == "" {
		st.AcademicInfo.Department = models.DefaultDepartment
	}
	st.IsActive = true
	st.CreatedAt = now
	st.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, st); err != nil {
		if wafflemongo.IsDup(err) {
			if exists, _ := s.exists(ctx, bson.M{"user_id": st.UserID}); exists {
				return models.Student{}, ErrDuplicateStudent
			}
			return models.Student{}, ErrDuplicateID
		}
		return models.Student{}, err
	}
	return st, nil
}

func (s *Store) exists(ctx context.Context, q bson.M) (bool, error) {
	err := s.c.FindOne(ctx, q, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return err == nil, err
}

// AddEnrollment appends entry only if the student has no entry for the same
// course, in one conditional update.
func (s *Store) AddEnrollment(ctx context.Context, studentID primitive.ObjectID, entry models.EnrollmentEntry) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": studentID, "enrolled_courses.course_id": bson.M{"$ne": entry.CourseID}},
		bson.M{
			"$push": bson.M{"enrolled_courses": entry},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if ok, _ := s.exists(ctx, bson.M{"_id": studentID}); !ok {
			return ErrNotFound
		}
		return ErrAlreadyEnrolled
	}
	return nil
}

// RemoveEnrollment deletes the entry for courseID and returns it. Two
// concurrent removals cannot both succeed: the loser sees ErrNotEnrolled.
func (s *Store) RemoveEnrollment(ctx context.Context, studentID, courseID primitive.ObjectID) (models.EnrollmentEntry, error) {
	var before models.Student
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": studentID, "enrolled_courses.course_id": courseID},
		bson.M{
			"$pull": bson.M{"enrolled_courses": bson.M{"course_id": courseID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&before)
	if err == mongo.ErrNoDocuments {
		return models.EnrollmentEntry{}, ErrNotEnrolled
	}
	if err != nil {
		return models.EnrollmentEntry{}, err
	}
	entry, _ := before.Entry(courseID)
	return entry, nil
}

// RestoreEnrollment puts back an entry removed by RemoveEnrollment.
func (s *Store) RestoreEnrollment(ctx context.Context, studentID primitive.ObjectID, entry models.EnrollmentEntry) error {
	err := s.AddEnrollment(ctx, studentID, entry)
	if errors.Is(err, ErrAlreadyEnrolled) {
		return nil
	}
	return err
}

// UpdateProfile replaces personal and academic details. Enrollments and
// identity fields are never touched here.
func (s *Store) UpdateProfile(ctx context.Context, studentID primitive.ObjectID, personal models.PersonalInfo, academic models.AcademicInfo) (models.Student, error) {
	if academic.Department == "" {
		academic.Department = models.DefaultDepartment
	}
	var out models.Student
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": studentID},
		bson.M{"$set": bson.M{
			"personal_info": personal,
			"academic_info": academic,
			"updated_at":    time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, err
	}
	return out, nil
}

// SetActive flips the student's active flag.
func (s *Store) SetActive(ctx context.Context, studentID primitive.ObjectID, active bool) (models.Student, error) {
	var out models.Student
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": studentID},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.Student{}, ErrNotFound
	}
	if err != nil {
		return models.Student{}, err
	}
	return out, nil
}

// Filter narrows admin student lists.
type Filter struct {
	Department string // academic department
	Status     string // students holding at least one entry with this status
	Search     string // case-insensitive match on first name, last name or student id
	Active     *bool
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Department != "" {
		q["academic_info.department"] = f.Department
	}
	if f.Status != "" {
		q["enrolled_courses.status"] = f.Status
	}
	if f.Active != nil {
		q["is_active"] = *f.Active
	}
	if f.Search != "" {
		pat := bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
		q["$or"] = bson.A{
			bson.M{"personal_info.first_name": pat},
			bson.M{"personal_info.last_name": pat},
			bson.M{"student_id": pat},
		}
	}
	return q
}

// Find returns one page of matching students, newest first.
func (s *Store) Find(ctx context.Context, f Filter, skip, limit int64) ([]models.Student, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Student{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of students matching f.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// FindAll returns every student sorted by student id, for exports.
func (s *Store) FindAll(ctx context.Context) ([]models.Student, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "student_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Student{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindEnrolledIn returns the students holding an entry for courseID.
func (s *Store) FindEnrolledIn(ctx context.Context, courseID primitive.ObjectID) ([]models.Student, error) {
	cur, err := s.c.Find(ctx, bson.M{"enrolled_courses.course_id": courseID},
		options.Find().SetSort(bson.D{{Key: "student_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Student{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
