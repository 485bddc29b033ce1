package webpot

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucid-vigil/decoynet/pkg/event"
	"github.com/lucid-vigil/decoynet/pkg/store"
)

func newStore(t *testing.T) *store.FileStore {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func startServer(t *testing.T, st store.Store) string {
	t.Helper()
	s := New("127.0.0.1:0", st, zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { s.Shutdown(time.Second) })
	return "http://" + s.Addr().String()
}

func TestIndexServesFormAndRecordsVisit(t *testing.T) {
	st := newStore(t)
	base := startServer(t, st)

	req, err := http.NewRequest(http.MethodGet, base+"/", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "curl/8.0")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Admin Login")
	assert.Contains(t, string(body), `action="/login"`)
	assert.NotContains(t, string(body), "Invalid username or password")

	visits, err := st.ReadAll(event.StreamWebVisits)
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, event.ServiceWeb, visits[0].Service)
	assert.Equal(t, "/", visits[0].Path)
	assert.Equal(t, "curl/8.0", visits[0].UserAgent)
	assert.Equal(t, "127.0.0.1", visits[0].SourceIP)
}

func TestLoginAlwaysFailsAndRecordsAttempt(t *testing.T) {
	st := newStore(t)
	base := startServer(t, st)

	form := url.Values{"username": {"root"}, "password": {"toor"}}
	resp, err := http.PostForm(base+"/login", form)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Invalid username or password")

	attempts, err := st.ReadAll(event.StreamAuthAttempts)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, event.ServiceWebLogin, attempts[0].Service)
	assert.Equal(t, "root", attempts[0].Username)
	assert.Equal(t, "toor", attempts[0].Password)
}

func TestLoginRequiresPost(t *testing.T) {
	st := newStore(t)
	base := startServer(t, st)

	resp, err := http.Get(base + "/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	attempts, err := st.ReadAll(event.StreamAuthAttempts)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}

func TestEmptyCredentialsAreRecordedLiterally(t *testing.T) {
	st := newStore(t)
	base := startServer(t, st)

	resp, err := http.Post(base+"/login", "application/x-www-form-urlencoded", strings.NewReader(""))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	attempts, err := st.ReadAll(event.StreamAuthAttempts)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Empty(t, attempts[0].Username)
	assert.Empty(t, attempts[0].Password)
}
