package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/ecommerce-checkout/internal/coordinator/txlog"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "checkout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSaveAndGetLatest(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	started := txlog.NewEntry(ctx, "chk-1", txlog.StatusStarted, "", `{"lines":[]}`, nil)
	require.NoError(t, repo.Save(ctx, started))

	done := txlog.NewEntry(ctx, "chk-1", txlog.StatusStepDone, "Validate_Cart_Step", "", nil)
	done.UpdatedAt = started.UpdatedAt.Add(time.Millisecond)
	require.NoError(t, repo.Save(ctx, done))

	latest, err := repo.GetLatest(ctx, "chk-1")
	require.NoError(t, err)
	assert.Equal(t, txlog.StatusStepDone, latest.Status)
	assert.Equal(t, "Validate_Cart_Step", latest.Step)
	assert.Equal(t, "", latest.Payload)
	assert.Equal(t, "[]", latest.Errors)
	assert.False(t, latest.Terminal())
	assert.WithinDuration(t, done.UpdatedAt, latest.UpdatedAt, time.Microsecond)

	history, err := repo.History(ctx, "chk-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, txlog.StatusStarted, history[0].Status)
	assert.Equal(t, `{"lines":[]}`, history[0].Payload)
}

func TestGetLatestMissing(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	_, err := repo.GetLatest(ctx, "nope")
	assert.ErrorIs(t, err, txlog.ErrNotFound)

	_, err = repo.History(ctx, "nope")
	assert.ErrorIs(t, err, txlog.ErrNotFound)
}

func TestSaveFailedEntryKeepsErrors(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	entry := txlog.NewEntry(ctx, "chk-2", txlog.StatusFailed, "Charge_Customer_Step", "", []string{"insufficient balance"})
	require.NoError(t, repo.Save(ctx, entry))

	latest, err := repo.GetLatest(ctx, "chk-2")
	require.NoError(t, err)
	assert.True(t, latest.Terminal())
	assert.JSONEq(t, `["insufficient balance"]`, latest.Errors)
}
