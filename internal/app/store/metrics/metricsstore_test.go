package metricsstore_test

import (
	"testing"

	metricsstore "github.com/dalemusser/courseportal/internal/app/store/metrics"
	"github.com/dalemusser/courseportal/internal/domain/models"
	"github.com/dalemusser/courseportal/internal/testutil"
)

func TestFetchDashboardCounts_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	counts := metricsstore.FetchDashboardCounts(ctx, db)

	if counts.Students != 0 || counts.Courses != 0 || counts.Users != 0 {
		t.Errorf("got %+v, want all zero", counts)
	}
	if counts.EnrollmentStats == nil || counts.DepartmentStats == nil {
		t.Error("stats should be empty slices, not nil")
	}
}

func TestFetchDashboardCounts_WithData(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c1 := fixtures.CreateCourse(ctx, "One", 10, 2)
	c2 := fixtures.CreateCourse(ctx, "Two", 10, 1)
	fixtures.CreateCourse(ctx, "Retired", 10, 0, func(c *models.Course) { c.IsActive = false })

	u1 := fixtures.CreateStudentUser(ctx, "Ada", "ada@example.com")
	u2 := fixtures.CreateStudentUser(ctx, "Alan", "alan@example.com")
	fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")

	fixtures.CreateStudent(ctx, u1,
		testutil.Entry(c1.ID, models.EnrollmentEnrolled),
		testutil.Entry(c2.ID, models.EnrollmentCompleted),
	)
	fixtures.CreateStudent(ctx, u2, testutil.Entry(c1.ID, models.EnrollmentEnrolled))

	counts := metricsstore.FetchDashboardCounts(ctx, db)

	if counts.Students != 2 {
		t.Errorf("Students: got %d, want 2", counts.Students)
	}
	if counts.Courses != 2 {
		t.Errorf("Courses: got %d, want 2", counts.Courses)
	}
	if counts.Users != 3 {
		t.Errorf("Users: got %d, want 3", counts.Users)
	}

	want := []metricsstore.StatusCount{
		{Status: models.EnrollmentEnrolled, Count: 2},
		{Status: models.EnrollmentCompleted, Count: 1},
	}
	if len(counts.EnrollmentStats) != len(want) {
		t.Fatalf("EnrollmentStats: got %+v, want %+v", counts.EnrollmentStats, want)
	}
	for i := range want {
		if counts.EnrollmentStats[i] != want[i] {
			t.Errorf("EnrollmentStats[%d]: got %+v, want %+v", i, counts.EnrollmentStats[i], want[i])
		}
	}

	if len(counts.DepartmentStats) != 1 || counts.DepartmentStats[0].Count != 2 ||
		counts.DepartmentStats[0].Department != models.DefaultDepartment {
		t.Errorf("DepartmentStats: got %+v", counts.DepartmentStats)
	}
}
