package ring_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maandree/shr/key"
	"github.com/maandree/shr/ring"
)

func Test_RoundTrip_SingleSlot(t *testing.T) {
	t.Parallel()

	k, err := ring.Create(16, 3, 0600)
	require.NoError(t, err)
	defer ring.RemoveByKey(k)

	writer, err := ring.Open(k, ring.Write)
	require.NoError(t, err)

	reader, err := ring.Open(k, ring.Read)
	require.NoError(t, err)

	require.NoError(t, writer.WriteRecord([]byte("hello")))
	require.NoError(t, writer.Close())

	buf, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf))

	eof, err := reader.ReadDone()
	require.NoError(t, err)
	require.True(t, eof)

	require.NoError(t, ring.Remove(reader))
}

func Test_WrapAround(t *testing.T) {
	t.Parallel()

	k, err := ring.Create(4, 3, 0600)
	require.NoError(t, err)
	defer ring.RemoveByKey(k)

	writer, err := ring.Open(k, ring.Write)
	require.NoError(t, err)
	reader, err := ring.Open(k, ring.Read)
	require.NoError(t, err)

	records := []string{"AAAA", "BBBB", "CCCC", "DDDD", "EEEE"}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, r := range records {
			require.NoError(t, writer.WriteRecord([]byte(r)))
		}
		require.NoError(t, writer.Close())
	}()

	for i, want := range records {
		buf, eof, rerr := reader.ReadRecord()
		require.NoError(t, rerr)
		require.Equal(t, want, string(buf))
		require.Equal(t, i == len(records)-1, eof)
	}

	wg.Wait()
	require.NoError(t, ring.Remove(reader))
}

func Test_Backpressure_TryVariants(t *testing.T) {
	t.Parallel()

	k, err := ring.Create(8, 2, 0600)
	require.NoError(t, err)
	defer ring.RemoveByKey(k)

	writer, err := ring.Open(k, ring.Write)
	require.NoError(t, err)
	reader, err := ring.Open(k, ring.Read)
	require.NoError(t, err)

	require.NoError(t, writer.WriteRecord([]byte("aaaaaaaa")))
	require.NoError(t, writer.WriteRecord([]byte("bbbbbbbb")))

	_, err = writer.WriteTry()
	require.ErrorIs(t, err, ring.ErrWouldBlock)

	buf, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, "aaaaaaaa", string(buf))
	_, err = reader.ReadDone()
	require.NoError(t, err)

	_, err = writer.WriteTry()
	require.NoError(t, err)
	require.NoError(t, writer.WriteDone(8))

	require.NoError(t, writer.Close())
	require.NoError(t, ring.Remove(reader))
}

func Test_TimedWait(t *testing.T) {
	t.Parallel()

	k, err := ring.Create(8, 1, 0600)
	require.NoError(t, err)
	defer ring.RemoveByKey(k)

	writer, err := ring.Open(k, ring.Write)
	require.NoError(t, err)
	reader, err := ring.Open(k, ring.Read)
	require.NoError(t, err)

	start := time.Now()
	_, err = reader.ReadTimed(200 * time.Millisecond)
	require.ErrorIs(t, err, ring.ErrWouldBlock)
	require.GreaterOrEqual(t, time.Since(start), 180*time.Millisecond)

	require.NoError(t, writer.WriteRecord([]byte("xy")))

	buf, err := reader.ReadTimed(time.Second)
	require.NoError(t, err)
	require.Equal(t, "xy", string(buf))
	_, err = reader.ReadDone()
	require.NoError(t, err)

	require.NoError(t, writer.Close())
	require.NoError(t, ring.Remove(reader))
}

func Test_PrivateRing_ReverseDup(t *testing.T) {
	t.Parallel()

	k := key.MakePrivate(16, 3)
	writer, err := ring.Open(k, ring.Write)
	require.NoError(t, err)
	require.False(t, writer.Key().IsPrivate())

	reader, err := writer.ReverseDup()
	require.NoError(t, err)
	require.Equal(t, ring.Read, reader.Direction())

	_, err = writer.ReverseDup()
	require.ErrorIs(t, err, ring.ErrAlreadyReversed)

	require.NoError(t, writer.WriteRecord([]byte("private")))
	require.NoError(t, writer.Close())

	buf, err := reader.Read()
	require.NoError(t, err)
	require.Equal(t, "private", string(buf))
	eof, err := reader.ReadDone()
	require.NoError(t, err)
	require.True(t, eof)

	require.NoError(t, ring.Remove(reader))
}

func Test_Create_RejectsInvalidArguments(t *testing.T) {
	t.Parallel()

	_, err := ring.Create(16, 0, 0600)
	require.ErrorIs(t, err, ring.ErrInvalidArgument)

	_, err = ring.Create(0, 3, 0600)
	require.ErrorIs(t, err, ring.ErrInvalidArgument)
}

func Test_WriteRecord_RejectsOversizedRecord(t *testing.T) {
	t.Parallel()

	k, err := ring.Create(4, 2, 0600)
	require.NoError(t, err)
	defer ring.RemoveByKey(k)

	writer, err := ring.Open(k, ring.Write)
	require.NoError(t, err)

	err = writer.WriteRecord([]byte("too long"))
	require.ErrorIs(t, err, ring.ErrInvalidArgument)

	// The rejected write must not have consumed a slot.
	require.NoError(t, writer.WriteRecord([]byte("ok")))
	require.NoError(t, writer.Close())
}
