package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/inkwell/pkg/core"
)

func openTestStore(t *testing.T, ns string) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "state", "session.db"), Namespace: ns})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDefaultsWhenEmpty(t *testing.T) {
	s := openTestStore(t, "")

	cfg, sess, err := core.LoadState(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, core.DefaultConfig(), cfg)
	assert.Equal(t, core.SessionState{Mode: core.ModeHome}, sess)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "")

	require.NoError(t, core.SaveSession(ctx, s, core.SessionState{Mode: core.ModeTextEditor, EditingPath: "/notes.txt"}))

	_, sess, err := core.LoadState(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, core.ModeTextEditor, sess.Mode)
	assert.Equal(t, "/notes.txt", sess.EditingPath)
}

func TestConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "")

	cfg := core.DefaultConfig()
	cfg.IdleTimeoutSeconds = 30
	cfg.RestoreAppOnBoot = true
	cfg.DisplayBrightness = 10
	require.NoError(t, core.SaveConfig(ctx, s, cfg))

	got, _, err := core.LoadState(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 9)
	for _, e := range entries {
		if e.Key == core.KeyIdleTimeoutSeconds {
			assert.Equal(t, core.KindInt, e.Kind)
			assert.Equal(t, "30", e.Value)
		}
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "")
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx core.SessionWriter) error {
		require.NoError(t, tx.PutInt(core.KeyIdleTimeoutSeconds, 5))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cfg, _, err := core.LoadState(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.IdleTimeoutSeconds)
}

func TestUpdateReadsOwnWrites(t *testing.T) {
	s := openTestStore(t, "")

	err := s.Update(context.Background(), func(tx core.SessionWriter) error {
		if err := tx.PutString(core.KeyLastEditingPath, "/a.txt"); err != nil {
			return err
		}
		assert.Equal(t, "/a.txt", tx.String(core.KeyLastEditingPath, ""))
		return nil
	})
	require.NoError(t, err)
}

func TestInvalidValuesFallBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, "")

	require.NoError(t, s.Update(ctx, func(tx core.SessionWriter) error {
		if err := tx.PutString(core.KeyIdleTimeoutSeconds, "soon"); err != nil {
			return err
		}
		return tx.PutInt(core.KeyLastApplicationMode, 42)
	}))

	cfg, sess, err := core.LoadState(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.IdleTimeoutSeconds)
	assert.Equal(t, core.ModeHome, sess.Mode)
}

func TestNamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	a, err := Open(Config{Path: path, Namespace: "a"})
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(Config{Path: path, Namespace: "b"})
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, core.SaveSession(ctx, a, core.SessionState{Mode: core.ModeJournal}))

	_, sess, err := core.LoadState(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, core.ModeHome, sess.Mode)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, core.SaveSession(ctx, s, core.SessionState{Mode: core.ModeTasks, EditingPath: "/todo.txt"}))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()
	_, sess, err := core.LoadState(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, core.SessionState{Mode: core.ModeTasks, EditingPath: "/todo.txt"}, sess)
}
