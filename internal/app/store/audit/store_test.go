package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/courseportal/internal/app/store/audit"
	"github.com/dalemusser/courseportal/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestLogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := primitive.NewObjectID()
	course := primitive.NewObjectID()
	base := time.Now().UTC().Add(-time.Hour)

	events := []audit.Event{
		{Category: audit.CategoryAuth, EventType: audit.EventLoginSuccess, UserID: &user, Success: true, CreatedAt: base},
		{Category: audit.CategoryEnrollment, EventType: audit.EventEnrolled, UserID: &user, CourseID: &course, Success: true, CreatedAt: base.Add(time.Minute)},
		{Category: audit.CategoryEnrollment, EventType: audit.EventDropped, UserID: &user, CourseID: &course, Success: true, CreatedAt: base.Add(2 * time.Minute)},
		{Category: audit.CategoryAdmin, EventType: audit.EventCourseCreated, ActorID: &user, Success: true},
	}
	for _, e := range events {
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	since := base.Add(30 * time.Second)
	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"all", audit.QueryFilter{}, 4},
		{"by user", audit.QueryFilter{UserID: &user}, 3},
		{"by actor", audit.QueryFilter{ActorID: &user}, 1},
		{"by course", audit.QueryFilter{CourseID: &course}, 2},
		{"by category", audit.QueryFilter{Category: audit.CategoryEnrollment}, 2},
		{"by type", audit.QueryFilter{EventType: audit.EventDropped}, 1},
		{"since", audit.QueryFilter{Since: &since}, 3},
		{"limit", audit.QueryFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d events, want %d", len(got), tt.want)
			}
		})
	}

	list, _ := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryEnrollment})
	if list[0].EventType != audit.EventDropped {
		t.Errorf("expected newest first, got %q", list[0].EventType)
	}

	n, err := store.Count(ctx, audit.QueryFilter{UserID: &user})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}
