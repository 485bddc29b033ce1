package ftppot

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

type session struct {
	conn   net.Conn
	reader *bufio.Reader
	done   chan struct{}
}

func startSession(t *testing.T, st store.Store) *session {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	h := New(st, 0, zerolog.Nop())
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer server.Close()
		h.Handle(context.Background(), server)
	}()

	return &session{conn: client, reader: bufio.NewReader(client), done: done}
}

func (s *session) send(t *testing.T, line string) {
	t.Helper()
	_, err := s.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

func (s *session) expect(t *testing.T, want string) {
	t.Helper()
	s.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := s.reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func (s *session) close(t *testing.T) {
	t.Helper()
	s.conn.Close()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after close")
	}
}

func newStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestLoginDialogue(t *testing.T) {
	st := newStore(t)
	s := startSession(t, st)

	s.expect(t, "220 FTP Server Ready\r\n")
	s.send(t, "USER bob")
	s.expect(t, "331 Password required\r\n")
	s.send(t, "PASS hunter2")
	s.expect(t, "530 Login incorrect\r\n")
	s.close(t)

	commands, err := st.ReadAll(event.StreamFTPCommands)
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "USER bob", commands[0].Command)
	assert.Equal(t, "PASS hunter2", commands[1].Command)

	attempts, err := st.ReadAll(event.StreamAuthAttempts)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, event.ServiceFTP, attempts[0].Service)
	assert.Equal(t, "bob", attempts[0].Username)
	assert.Equal(t, "hunter2", attempts[0].Password)
}

func TestPassWithoutUserEmitsNoAttempt(t *testing.T) {
	st := newStore(t)
	s := startSession(t, st)

	s.expect(t, "220 FTP Server Ready\r\n")
	s.send(t, "PASS hunter2")
	s.expect(t, "530 Login incorrect\r\n")
	s.close(t)

	attempts, err := st.ReadAll(event.StreamAuthAttempts)
	require.NoError(t, err)
	assert.Empty(t, attempts)

	// The line is still recorded as activity.
	commands, err := st.ReadAll(event.StreamFTPCommands)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "PASS hunter2", commands[0].Command)
}

func TestUsernamePersistsAcrossAttempts(t *testing.T) {
	st := newStore(t)
	s := startSession(t, st)

	s.expect(t, "220 FTP Server Ready\r\n")
	s.send(t, "USER bob")
	s.expect(t, "331 Password required\r\n")
	s.send(t, "PASS first")
	s.expect(t, "530 Login incorrect\r\n")
	s.send(t, "PASS second")
	s.expect(t, "530 Login incorrect\r\n")
	s.close(t)

	attempts, err := st.ReadAll(event.StreamAuthAttempts)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "bob", attempts[0].Username)
	assert.Equal(t, "first", attempts[0].Password)
	assert.Equal(t, "bob", attempts[1].Username)
	assert.Equal(t, "second", attempts[1].Password)
}

func TestUnknownCommand(t *testing.T) {
	st := newStore(t)
	s := startSession(t, st)

	s.expect(t, "220 FTP Server Ready\r\n")
	s.send(t, "SYST")
	s.expect(t, "530 Please login with USER and PASS\r\n")
	s.close(t)

	commands, err := st.ReadAll(event.StreamFTPCommands)
	require.NoError(t, err)
	require.Len(t, commands, 1)
	assert.Equal(t, "SYST", commands[0].Command)
}

func TestArgument(t *testing.T) {
	assert.Equal(t, "bob", argument("USER bob"))
	assert.Equal(t, "", argument("USER"))
	assert.Equal(t, "", argument("PASS "))
	assert.Equal(t, "with spaces", argument("PASS with spaces"))
}
