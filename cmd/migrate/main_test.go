package main

import (
	"testing"

	migrate "github.com/rubenv/sql-migrate"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		direction migrate.MigrationDirection
		max       int
	}{
		{"default applies everything", nil, migrate.Up, 0},
		{"up with limit", []string{"-steps", "2"}, migrate.Up, 2},
		{"down rolls back one", []string{"-down"}, migrate.Down, 1},
		{"down with limit", []string{"-down", "-steps", "3"}, migrate.Down, 3},
		{"down everything", []string{"-down", "-steps", "0"}, migrate.Down, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parsePlan(tt.args)
			if err != nil {
				t.Fatalf("parsePlan: %v", err)
			}
			if p.direction != tt.direction || p.max != tt.max {
				t.Errorf("plan = %+v, want direction %v max %d", p, tt.direction, tt.max)
			}
		})
	}
}

func TestParsePlan_RejectsNegativeSteps(t *testing.T) {
	if _, err := parsePlan([]string{"-steps", "-5"}); err == nil {
		t.Error("expected an error for negative steps")
	}
}
