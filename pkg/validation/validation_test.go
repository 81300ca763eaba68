package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestNewReport(t *testing.T) {
	r := NewReport()
	if !r.Valid {
		t.Error("new report should be valid")
	}
	if len(r.Errors) != 0 || len(r.Warnings) != 0 || len(r.Info) != 0 {
		t.Error("new report should have empty slices")
	}
	if r.Summary != "0 errors, 0 warnings, 0 info" {
		t.Errorf("unexpected summary: %s", r.Summary)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestSeverities(t *testing.T) {
	r := NewReport()
	r.AddWarning(Result{Level: LevelAnalytical, Message: "negative inflow", Year: 2031})
	r.AddInfo(Result{Level: LevelSchema, Message: "no register"})
	if !r.Valid {
		t.Error("warnings and info should not invalidate report")
	}
	if r.Warnings[0].Severity != SeverityWarning || r.Info[0].Severity != SeverityInfo {
		t.Errorf("severities = %q/%q", r.Warnings[0].Severity, r.Info[0].Severity)
	}

	r.AddError(Result{Level: LevelSchema, Message: "bad value", Path: "lifetime.future"})
	if r.Valid {
		t.Error("report with error should be invalid")
	}
	if r.Errors[0].Severity != SeverityError {
		t.Error("AddError should set severity to error")
	}
	if r.Summary != "1 errors, 1 warnings, 1 info" {
		t.Errorf("unexpected summary: %s", r.Summary)
	}
}

func TestMerge(t *testing.T) {
	r1 := NewReport()
	r1.AddWarning(Result{Level: LevelSchema, Message: "warn1"})

	r2 := NewReport()
	r2.AddError(Result{Level: LevelAnalytical, Message: "err1"})
	r2.AddWarning(Result{Level: LevelAnalytical, Message: "warn2"})
	r2.AddInfo(Result{Level: LevelAnalytical, Message: "info1"})

	r1.Merge(r2)
	r1.Merge(nil)

	if r1.Valid {
		t.Error("merged report should be invalid when other has errors")
	}
	if r1.Summary != "1 errors, 2 warnings, 1 info" {
		t.Errorf("unexpected summary: %s", r1.Summary)
	}
}

func TestErrListsFirstErrors(t *testing.T) {
	r := NewReport()
	for _, p := range []string{"a", "b", "c", "d", "e"} {
		r.AddError(Result{Level: LevelSchema, Message: "broken", Path: p})
	}
	err := r.Err()
	if !errors.Is(err, ErrInvalidProject) {
		t.Fatalf("Err() = %v, want ErrInvalidProject", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "a: broken") || !strings.Contains(msg, "and 2 more") {
		t.Errorf("unexpected message: %s", msg)
	}
	if strings.Contains(msg, "d: broken") {
		t.Errorf("message lists too many errors: %s", msg)
	}
}
