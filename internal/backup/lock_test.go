package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpLockExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()

	first := NewOpLock(dir)
	require.NoError(t, first.Acquire())

	second := NewOpLock(dir)
	err := second.Acquire()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another operation is in progress")

	require.NoError(t, first.Release())
	assert.NoError(t, second.Acquire())
	assert.NoError(t, second.Release())
}

func TestOpLockReleaseIsIdempotent(t *testing.T) {
	lock := NewOpLock(t.TempDir())
	require.NoError(t, lock.Acquire())
	require.NoError(t, lock.Release())
	assert.NoError(t, lock.Release())
}
