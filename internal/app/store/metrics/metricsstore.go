package metricsstore

import (
	"context"
	"sort"

	"github.com/dalemusser/courseportal/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counts is the set of totals shown on the admin dashboard.
type Counts struct {
	Students int64 `json:"totalStudents"` // active students
	Courses  int64 `json:"totalCourses"`  // active courses
	Users    int64 `json:"totalUsers"`    // active users

	EnrollmentStats []StatusCount     `json:"enrollmentStats"`
	DepartmentStats []DepartmentCount `json:"departmentStats"`
}

// StatusCount is the number of enrollment entries with one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// DepartmentCount is the number of students in one academic department.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int64  `json:"count"`
}

// FetchDashboardCounts returns the high-level counts used by the admin
// dashboard. Intentionally tolerant: on error it returns 0 for that counter.
//
// Entry and department distributions are tallied in Go from a projection of
// every student, in entry-status order and by descending count respectively.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) Counts {
	out := Counts{
		EnrollmentStats: []StatusCount{},
		DepartmentStats: []DepartmentCount{},
	}

	if n, err := db.Collection("students").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.Students = n
	}
	if n, err := db.Collection("courses").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.Courses = n
	}
	if n, err := db.Collection("users").CountDocuments(ctx, bson.M{"is_active": true}); err == nil {
		out.Users = n
	}

	byStatus, byDept, err := tally(ctx, db)
	if err != nil {
		return out
	}
	for _, s := range models.EnrollmentStatuses {
		if n := byStatus[s]; n > 0 {
			out.EnrollmentStats = append(out.EnrollmentStats, StatusCount{Status: s, Count: n})
		}
	}
	for d, n := range byDept {
		out.DepartmentStats = append(out.DepartmentStats, DepartmentCount{Department: d, Count: n})
	}
	sort.Slice(out.DepartmentStats, func(i, j int) bool {
		a, b := out.DepartmentStats[i], out.DepartmentStats[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Department < b.Department
	})
	return out
}

type studentTally struct {
	AcademicInfo struct {
		Department string `bson:"department"`
	} `bson:"academic_info"`
	EnrolledCourses []struct {
		Status string `bson:"status"`
	} `bson:"enrolled_courses"`
}

func tally(ctx context.Context, db *mongo.Database) (map[string]int64, map[string]int64, error) {
	proj := bson.M{"academic_info.department": 1, "enrolled_courses.status": 1}
	cur, err := db.Collection("students").Find(ctx, bson.M{}, options.Find().SetProjection(proj))
	if err != nil {
		return nil, nil, err
	}
	defer cur.Close(ctx)

	byStatus := map[string]int64{}
	byDept := map[string]int64{}
	for cur.Next(ctx) {
		var st studentTally
		if err := cur.Decode(&st); err != nil {
			return nil, nil, err
		}
		dept := st.AcademicInfo.Department
		if dept == "" {
			dept = models.DefaultDepartment
		}
		byDept[dept]++
		for _, e := range st.EnrolledCourses {
			byStatus[e.Status]++
		}
	}
	return byStatus, byDept, cur.Err()
}
