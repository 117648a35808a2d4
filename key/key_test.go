package key_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/maandree/shr/key"
)

func Test_ToText_FromText_RoundTrip(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		k    key.Key
	}{
		{
			name: "Typical",
			k:    key.Key{ShmName: 123, SemName: 456, SlotSize: 1024, SlotCount: 3},
		},
		{
			name: "Zeroes",
			k:    key.Key{},
		},
		{
			name: "LargeFields",
			k:    key.Key{ShmName: 2147483647, SemName: 2147483647, SlotSize: 4294967295, SlotCount: 4294967295},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			text := key.ToText(tc.k)
			got := key.FromText(text)

			if diff := cmp.Diff(tc.k, got); diff != "" {
				t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_ToText_ExactFormat(t *testing.T) {
	t.Parallel()

	k := key.Key{ShmName: 123, SemName: 456, SlotSize: 1024, SlotCount: 3}
	require.Equal(t, "123.456.1024.3", key.ToText(k))
}

func Test_MakePrivate_IsPrivate(t *testing.T) {
	t.Parallel()

	k := key.MakePrivate(16, 3)
	require.True(t, k.IsPrivate())
	require.Equal(t, uint32(16), k.SlotSize)
	require.Equal(t, uint32(3), k.SlotCount)
}

func Test_String_UsesCodec(t *testing.T) {
	t.Parallel()

	k := key.Key{ShmName: 1, SemName: 2, SlotSize: 3, SlotCount: 4}
	require.Equal(t, key.ToText(k), k.String())
}
