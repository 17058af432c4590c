package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestEnrollment_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewEnrollment(reg)
	if err != nil {
		t.Fatalf("NewEnrollment: %v", err)
	}

	m.Observe("enroll", "ok", 10*time.Millisecond)
	m.Observe("enroll", "ok", 10*time.Millisecond)
	m.Observe("enroll", "capacity_exceeded", time.Millisecond)

	if got := testutil.ToFloat64(m.ops.WithLabelValues("enroll", "ok")); got != 2 {
		t.Errorf("enroll/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ops.WithLabelValues("enroll", "capacity_exceeded")); got != 1 {
		t.Errorf("enroll/capacity_exceeded = %v, want 1", got)
	}
}

func TestEnrollment_DoubleRegisterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewEnrollment(reg); err != nil {
		t.Fatalf("first NewEnrollment: %v", err)
	}
	if _, err := NewEnrollment(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestEnrollment_NilIsNoop(t *testing.T) {
	var m *Enrollment
	m.Observe("drop", "ok", time.Second)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, _ := NewEnrollment(reg)
	m.Observe("drop", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "courseportal_enrollment_operations_total") {
		t.Errorf("expected counter in exposition, got:\n%s", rec.Body.String())
	}
}
