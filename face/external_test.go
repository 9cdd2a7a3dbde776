package face

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests shell out to /bin/sh")
	}
}

func TestExternalCompareMatch(t *testing.T) {
	requireShell(t)
	c := NewExternalComparer(5*time.Second, "/bin/sh", "-c", "cat >/dev/null; echo True")

	ok, err := c.Compare(context.Background(), "ref", "cand")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExternalCompareTrailingNewlineAccepted(t *testing.T) {
	requireShell(t)
	c := NewExternalComparer(5*time.Second, "/bin/sh", "-c", "cat >/dev/null; printf 'True\\n'")

	ok, err := c.Compare(context.Background(), "ref", "cand")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestExternalCompareNoMatch(t *testing.T) {
	requireShell(t)
	c := NewExternalComparer(5*time.Second, "/bin/sh", "-c", "cat >/dev/null; echo False")

	ok, err := c.Compare(context.Background(), "ref", "cand")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExternalCompareFailureIsNoMatch(t *testing.T) {
	requireShell(t)
	c := NewExternalComparer(5*time.Second, "/bin/sh", "-c", "cat >/dev/null; exit 3")

	ok, err := c.Compare(context.Background(), "ref", "cand")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExternalCompareTimeoutIsNoMatch(t *testing.T) {
	requireShell(t)
	c := NewExternalComparer(100*time.Millisecond, "/bin/sh", "-c", "sleep 5; echo True")

	start := time.Now()
	ok, err := c.Compare(context.Background(), "ref", "cand")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestExternalCompareReceivesJSONPayload(t *testing.T) {
	requireShell(t)
	// Match only when stdin carries the expected JSON fields.
	script := `payload=$(cat); case "$payload" in *'"stored":"ref-image"'*'"input":"cand-image"'*) echo True;; *) echo False;; esac`
	c := NewExternalComparer(5*time.Second, "/bin/sh", "-c", script)

	ok, err := c.Compare(context.Background(), "ref-image", "cand-image")
	require.NoError(t, err)
	assert.True(t, ok)
}
