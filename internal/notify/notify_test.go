package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecorder_Drain(t *testing.T) {
	r := NewRecorder()
	assert.Empty(t, r.Drain())

	Success(r, "Saved", "")
	Error(r, "Oops", "try again")

	got := r.Drain()
	assert.Equal(t, []Notification{
		{Level: LevelSuccess, Title: "Saved"},
		{Level: LevelError, Title: "Oops", Message: "try again"},
	}, got)
	assert.Empty(t, r.Drain())
}

func TestLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := NewRecorder()
	n := Logged(r, zap.New(core))

	Info(n, "Heads up", "")
	Error(n, "Failed", "db down")

	assert.Len(t, r.Drain(), 2)
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("user notification").FilterField(zap.String("title", "Failed")).Len())
}
