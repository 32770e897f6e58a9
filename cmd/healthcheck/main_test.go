package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qs3c/revastra_server/internal/healthcheck"
)

func TestReport_ExitCode(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 0, report(&out, []healthcheck.Result{{Name: "database"}, {Name: "redis"}}))
	assert.Contains(t, out.String(), "[PASS] database")

	out.Reset()
	code := report(&out, []healthcheck.Result{{Name: "database"}, {Name: "smtp", Err: errors.New("dial tcp: i/o timeout")}})
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "[FAIL] smtp")
}

func TestFailedProbe(t *testing.T) {
	boom := errors.New("redis: connection refused")
	p := failed("redis", boom)
	assert.Equal(t, "redis", p.Name)
	assert.ErrorIs(t, p.Check(context.Background()), boom)
}
