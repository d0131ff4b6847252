package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var pingOK = pingFunc(func(context.Context) error { return nil })

func TestCompositeHealthChecker_AllPass(t *testing.T) {
	c := NewCompositeHealthChecker("v1", 0, DatabaseProbe(pingOK), CacheProbe(pingOK))

	status := c.Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "All checks passed", status.Message)
	assert.Equal(t, "v1", status.Version)
	assert.Equal(t, "OK", status.Checks["database"].Message)
	assert.True(t, status.Checks["redis"].Optional)
}

func TestCompositeHealthChecker_DatabaseDown(t *testing.T) {
	c := NewCompositeHealthChecker("v1", 0, DatabaseProbe(pingFunc(func(context.Context) error {
		return errors.New("connection refused")
	})))

	status := c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Equal(t, "Some checks failed: database", status.Message)
	assert.Equal(t, "connection refused", status.Checks["database"].Message)
}

func TestCompositeHealthChecker_CacheDownIsDegraded(t *testing.T) {
	c := NewCompositeHealthChecker("v1", 0,
		DatabaseProbe(pingOK),
		CacheProbe(pingFunc(func(context.Context) error { return errors.New("redis: connection refused") })),
	)

	status := c.Check(context.Background())
	assert.False(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "Some checks failed: redis", status.Message)
}

func TestCompositeHealthChecker_Timeout(t *testing.T) {
	slow := Probe{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	c := NewCompositeHealthChecker("v1", 10*time.Millisecond, slow)

	status := c.Check(context.Background())
	assert.False(t, status.Ready)
	assert.Contains(t, status.Checks["slow"].Message, "deadline exceeded")
}

func TestCompositeHealthChecker_NoProbes(t *testing.T) {
	status := NewCompositeHealthChecker("v1", 0).Check(context.Background())
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, "No health checks registered", status.Message)
}
