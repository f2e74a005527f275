package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckerRegistry(t *testing.T) {
	ok := NewFuncChecker("ok", func(context.Context) error { return nil })
	slow := NewFuncChecker("slow", func(context.Context) error { return &Degraded{Err: errors.New("breaker open")} })
	down := NewFuncChecker("down", func(context.Context) error { return errors.New("unreachable") })

	tests := []struct {
		name     string
		checkers []Checker
		want     Status
	}{
		{name: "no checks", want: StatusHealthy},
		{name: "all healthy", checkers: []Checker{ok}, want: StatusHealthy},
		{name: "degraded", checkers: []Checker{ok, slow}, want: StatusDegraded},
		{name: "unhealthy wins", checkers: []Checker{slow, down}, want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCheckerRegistry()
			for _, c := range tt.checkers {
				r.Register(c)
			}
			h := r.Check(context.Background())
			assert.Equal(t, tt.want, h.Status)
			assert.Len(t, h.Checks, len(tt.checkers))
		})
	}
}
