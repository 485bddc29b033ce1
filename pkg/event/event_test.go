package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	before := time.Now()

	auth := NewAuthAttempt(ServiceSSH, "203.0.113.7", 50211, "root", "123456")
	assert.Equal(t, KindAuthAttempt, auth.Kind)
	assert.Equal(t, ServiceSSH, auth.Service)
	assert.Equal(t, "203.0.113.7", auth.SourceIP)
	assert.Equal(t, 50211, auth.SourcePort)
	assert.Equal(t, "root", auth.Username)
	assert.Equal(t, "123456", auth.Password)
	assert.False(t, auth.Timestamp.Before(before))

	visit := NewWebVisit("203.0.113.8", "/", "curl/8.0")
	assert.Equal(t, KindWebVisit, visit.Kind)
	assert.Equal(t, ServiceWeb, visit.Service)
	assert.Equal(t, "/", visit.Path)
	assert.Equal(t, "curl/8.0", visit.UserAgent)

	cmd := NewFTPCommand("203.0.113.9", 41000, "SYST")
	assert.Equal(t, KindFTPCommand, cmd.Kind)
	assert.Equal(t, ServiceFTP, cmd.Service)
	assert.Equal(t, "SYST", cmd.Command)
}

func TestInferKind(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want Kind
	}{
		{"credential pair", Event{Username: "bob", Password: "hunter2"}, KindAuthAttempt},
		{"username only", Event{Username: "bob"}, KindAuthAttempt},
		{"password without user", Event{Password: "hunter2"}, KindAuthAttempt},
		{"ftp command", Event{Command: "LIST"}, KindFTPCommand},
		{"web visit", Event{Path: "/", UserAgent: "curl"}, KindWebVisit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InferKind(tt.ev))
		})
	}
}

func TestStreamFor(t *testing.T) {
	assert.Equal(t, StreamAuthAttempts, StreamFor(KindAuthAttempt))
	assert.Equal(t, StreamWebVisits, StreamFor(KindWebVisit))
	assert.Equal(t, StreamFTPCommands, StreamFor(KindFTPCommand))
}

func TestJSONShape(t *testing.T) {
	ev := NewAuthAttempt(ServiceTelnet, "198.51.100.4", 40001, "admin", "password123")
	data, err := json.Marshal(ev)
	assert.NoError(t, err)

	var m map[string]any
	assert.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "auth_attempt", m["kind"])
	assert.Equal(t, "telnet", m["service"])
	assert.Equal(t, "admin", m["username"])
	// Fields that do not apply to this kind stay off the wire.
	assert.NotContains(t, m, "command")
	assert.NotContains(t, m, "path")
	assert.NotContains(t, m, "user_agent")
}
