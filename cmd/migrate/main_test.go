package main

import (
	"io"
	"strings"
	"testing"
)

func TestRunRequiresDatabaseFlag(t *testing.T) {
	err := run([]string{"up"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "-database flag is required") {
		t.Fatalf("expected missing database error, got %v", err)
	}
}

func TestRunRequiresCommand(t *testing.T) {
	err := run([]string{"-database", "postgres://ignored"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "command required") {
		t.Fatalf("expected missing command error, got %v", err)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	err := run([]string{"-database", "postgres://ignored", "sideways"}, io.Discard)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestDownStepsDefaultsToOne(t *testing.T) {
	steps, err := downSteps(nil)
	if err != nil {
		t.Fatalf("downSteps returned error: %v", err)
	}
	if steps != 1 {
		t.Fatalf("expected 1 step, got %d", steps)
	}
}

func TestDownStepsRejectsGarbage(t *testing.T) {
	if _, err := downSteps([]string{"three"}); err == nil {
		t.Fatal("expected parse error for non-numeric steps")
	}
}
