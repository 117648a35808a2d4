package shm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maandree/shr/shm"
)

func Test_NewLayout_RejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	_, err := shm.NewLayout(16, 0)
	require.ErrorIs(t, err, shm.ErrInvalidArgument)

	_, err = shm.NewLayout(0, 3)
	require.ErrorIs(t, err, shm.ErrInvalidArgument)
}

func Test_NewLayout_Offsets(t *testing.T) {
	t.Parallel()

	l, err := shm.NewLayout(16, 3)
	require.NoError(t, err)

	require.EqualValues(t, 0, l.MarkerOffset())
	require.EqualValues(t, 8, l.SlotOffset(0))
	require.EqualValues(t, 24, l.LengthOffset(0))
	require.EqualValues(t, 32, l.SlotOffset(1))
	require.EqualValues(t, 8+3*(16+8), l.Total)
}

func Test_CreateAttachDestroySegment_RoundTrip(t *testing.T) {
	t.Parallel()

	layout, err := shm.NewLayout(16, 3)
	require.NoError(t, err)

	name, id, err := shm.CreateSegment(layout, 0600)
	require.NoError(t, err)
	require.NotZero(t, name)

	writer, err := shm.Attach(name, layout, shm.Write)
	require.NoError(t, err)
	require.Equal(t, uint64(0), writer.LoadMarker())

	writer.StoreMarker(42)

	reader, err := shm.Attach(name, layout, shm.Read)
	require.NoError(t, err)
	require.Equal(t, uint64(42), reader.LoadMarker())

	require.NoError(t, shm.Detach(reader))
	require.NoError(t, shm.Detach(writer))
	require.NoError(t, shm.Destroy(id))

	// Destroying twice, or destroying by name after the id is already
	// gone, must not error.
	require.NoError(t, shm.Destroy(id))
	require.NoError(t, shm.DestroyByName(name))
}

func Test_DestroyByName_IgnoresPrivateName(t *testing.T) {
	t.Parallel()

	require.NoError(t, shm.DestroyByName(0))
}
