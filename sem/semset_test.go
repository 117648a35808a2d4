package sem_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maandree/shr/sem"
)

func Test_CreateSet_InitializesTokens(t *testing.T) {
	t.Parallel()

	name, id, err := sem.CreateSet(3, 0600)
	require.NoError(t, err)
	defer sem.Destroy(id)

	set, err := sem.Attach(name, 3)
	require.NoError(t, err)

	// Every slot starts idle, owned by the writer: writable=1, readable=0.
	for i := uint32(0); i < 3; i++ {
		require.NoError(t, set.Acquire(sem.WriteToken(i)))
		require.ErrorIs(t, set.TryAcquire(sem.ReadToken(i)), sem.ErrWouldBlock)
		require.NoError(t, set.Release(sem.WriteToken(i)))
	}
}

func Test_TryAcquire_WouldBlockOnEmptyCounter(t *testing.T) {
	t.Parallel()

	name, id, err := sem.CreateSet(1, 0600)
	require.NoError(t, err)
	defer sem.Destroy(id)

	set, err := sem.Attach(name, 1)
	require.NoError(t, err)

	require.NoError(t, set.TryAcquire(sem.WriteToken(0)))
	require.ErrorIs(t, set.TryAcquire(sem.WriteToken(0)), sem.ErrWouldBlock)

	require.NoError(t, set.Release(sem.WriteToken(0)))
	require.NoError(t, set.TryAcquire(sem.WriteToken(0)))
}

func Test_AcquireTimed_TimesOutWithoutStateChange(t *testing.T) {
	t.Parallel()

	name, id, err := sem.CreateSet(1, 0600)
	require.NoError(t, err)
	defer sem.Destroy(id)

	set, err := sem.Attach(name, 1)
	require.NoError(t, err)

	// ReadToken(0) starts at 0 (the writer owns slot 0 until it writes), so
	// a timed acquire against it blocks until it expires.
	start := time.Now()
	err = set.AcquireTimed(sem.ReadToken(0), 100*time.Millisecond)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, sem.ErrWouldBlock)
	require.GreaterOrEqual(t, elapsed, 90*time.Millisecond)

	// Unblocked once released.
	require.NoError(t, set.Release(sem.ReadToken(0)))
	require.NoError(t, set.Acquire(sem.ReadToken(0)))
}

func Test_Chmod_Stat(t *testing.T) {
	t.Parallel()

	name, id, err := sem.CreateSet(1, 0600)
	require.NoError(t, err)
	defer sem.Destroy(id)

	set, err := sem.Attach(name, 1)
	require.NoError(t, err)

	require.NoError(t, set.Chmod(0660))

	_, _, perm, err := set.Stat()
	require.NoError(t, err)
	require.EqualValues(t, 0660, perm&0777)
}
