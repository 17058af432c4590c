// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/dalemusser/courseportal/internal/app/system/normalize"
	"github.com/dalemusser/courseportal/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound              = errors.New("course not found")
	ErrDuplicateCode         = errors.New("a course with this code already exists")
	ErrNoSeat                = errors.New("course is full or not available")
	ErrCapacityBelowEnrolled = errors.New("capacity cannot be lower than the current enrollment")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

// Filter narrows catalog queries. Empty fields are ignored; all set fields
// must match.
type Filter struct {
	Department      string
	Category        string
	Level           string
	Search          string // case-insensitive substring of title, description or code
	IncludeInactive bool
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if !f.IncludeInactive {
		q["is_active"] = true
	}
	if f.Department != "" {
		q["department"] = f.Department
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Level != "" {
		q["level"] = f.Level
	}
	if f.Search != "" {
		pat := regexp.QuoteMeta(f.Search)
		q["$or"] = bson.A{
			bson.M{"title_ci": bson.M{"$regex": regexp.QuoteMeta(text.Fold(f.Search))}},
			bson.M{"description": bson.M{"$regex": pat, "$options": "i"}},
			bson.M{"course_code": bson.M{"$regex": pat, "$options": "i"}},
		}
	}
	return q
}

// Find returns matching courses, newest first.
func (s *Store) Find(ctx context.Context, f Filter) ([]models.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Course{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of courses matching f.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// DistinctDepartments lists the departments that have active courses.
func (s *Store) DistinctDepartments(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "department", Filter{})
}

// DistinctCategories lists the categories of active courses, optionally
// limited to one department.
func (s *Store) DistinctCategories(ctx context.Context, department string) ([]string, error) {
	return s.distinct(ctx, "category", Filter{Department: department})
}

func (s *Store) distinct(ctx context.Context, field string, f Filter) ([]string, error) {
	vals, err := s.c.Distinct(ctx, field, f.query())
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if str, ok := v.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	var c models.Course
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Course{}, ErrNotFound
	}
	if err != nil {
		return models.Course{}, err
	}
	return c, nil
}

// GetByIDs loads multiple courses by id (inactive ones included). Missing
// ids are skipped.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Course
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (models.Course, error) {
	var c models.Course
	err := s.c.FindOne(ctx, bson.M{"course_code": normalize.CourseCode(code)}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return models.Course{}, ErrNotFound
	}
	if err != nil {
		return models.Course{}, err
	}
	return c, nil
}

// Create inserts a new course. Enrolled always starts at zero.
func (s *Store) Create(ctx context.Context, c models.Course) (models.Course, error) {
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.CourseCode = normalize.CourseCode(c.CourseCode)
	c.TitleCI = text.Fold(c.Title)
	if c.Capacity <= 0 {
		c.Capacity = models.DefaultCapacity
	}
	if c.Schedule.Mode == "" {
		c.Schedule.Mode = models.ModeOnline
	}
	c.Enrolled = 0
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Course{}, ErrDuplicateCode
		}
		return models.Course{}, err
	}
	return c, nil
}

// Update replaces the editable fields of a course. Enrolled is never
// written here, and capacity may not drop below the current enrollment.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, c models.Course) (models.Course, error) {
	if c.Capacity <= 0 {
		c.Capacity = models.DefaultCapacity
	}
	if c.Schedule.Mode == "" {
		c.Schedule.Mode = models.ModeOnline
	}
	set := bson.M{
		"course_code":   normalize.CourseCode(c.CourseCode),
		"title":         c.Title,
		"title_ci":      text.Fold(c.Title),
		"description":   c.Description,
		"department":    c.Department,
		"category":      c.Category,
		"credits":       c.Credits,
		"duration":      c.Duration,
		"level":         c.Level,
		"prerequisites": c.Prerequisites,
		"instructor":    c.Instructor,
		"schedule":      c.Schedule,
		"capacity":      c.Capacity,
		"fees":          c.Fees,
		"is_active":     c.IsActive,
		"syllabus":      c.Syllabus,
		"resources":     c.Resources,
		"updated_at":    time.Now().UTC(),
	}

	var out models.Course
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "enrolled": bson.M{"$lte": c.Capacity}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	switch {
	case err == nil:
		return out, nil
	case wafflemongo.IsDup(err):
		return models.Course{}, ErrDuplicateCode
	case err == mongo.ErrNoDocuments:
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return models.Course{}, getErr
		}
		return models.Course{}, ErrCapacityBelowEnrolled
	}
	return models.Course{}, err
}

// Deactivate hides a course from the catalog. Existing enrollments are kept.
func (s *Store) Deactivate(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	var out models.Course
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return models.Course{}, ErrNotFound
	}
	if err != nil {
		return models.Course{}, err
	}
	return out, nil
}

// ReserveSeat takes one seat in a single conditional update: the course must
// be active and have enrolled < capacity at the moment of the write.
// ErrNoSeat covers full, inactive and missing courses.
func (s *Store) ReserveSeat(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":       id,
			"is_active": true,
			"$expr":     bson.M{"$lt": bson.A{"$enrolled", "$capacity"}},
		},
		bson.M{
			"$inc": bson.M{"enrolled": 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoSeat
	}
	return nil
}

// ReleaseSeat gives one seat back. The counter never goes below zero; a
// missing course or a counter already at zero is not an error.
func (s *Store) ReleaseSeat(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "enrolled": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"enrolled": -1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	return err
}

// FindAll returns every course (active or not) sorted by code, for exports.
func (s *Store) FindAll(ctx context.Context) ([]models.Course, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "course_code", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Course{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
