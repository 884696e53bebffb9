package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestCheckHealthy(t *testing.T) {
	s := New(fakePinger{})
	r := s.Check(context.Background())
	if r.Status != Healthy {
		t.Fatalf("expected healthy, got %v", r.Status)
	}
}

func TestCheckUnhealthyOnStoreFailure(t *testing.T) {
	s := New(fakePinger{err: errors.New("boom")})
	r := s.Check(context.Background())
	if r.Status != Unhealthy {
		t.Fatalf("expected unhealthy, got %v", r.Status)
	}
	if r.Checks["store"] != CheckError {
		t.Fatalf("expected store check error, got %v", r.Checks["store"])
	}
}
