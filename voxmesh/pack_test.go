package voxmesh

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPackRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(21))
	var pack Pack
	pack.Add("a.voxv", randomVolume(t, r, [3]int{4, 4, 4}, 0.3, 5))
	pack.Add("b.voxv", solid(t, 2, 5, 1, 8))
	pack.Add("c.voxv", randomVolume(t, r, [3]int{9, 1, 3}, 0.7, 2))

	for _, comp := range []PackCompression{PackCompNone, PackCompZlib, PackCompZstd} {
		data, err := pack.Marshal(comp)
		require.NoError(t, err)
		got, gotComp, err := UnmarshalPack(data)
		require.NoError(t, err)
		require.Equal(t, comp, gotComp)
		require.Equal(t, pack.Entries, got.Entries)

		vol, err := got.Volume(1)
		require.NoError(t, err)
		require.True(t, solid(t, 2, 5, 1, 8).Equal(vol))
	}
}

func TestPackDedup(t *testing.T) {
	var pack Pack
	pack.Add("x.voxv", solid(t, 3, 3, 3, 1))
	pack.Add("y.voxv", solid(t, 4, 4, 4, 2))
	pack.Add("z.voxv", solid(t, 3, 3, 3, 1))

	blobs, refs := dedup(pack.Entries)
	require.Len(t, blobs, 2)
	require.Equal(t, []uint32{0, 1, 0}, refs)

	single := Pack{Entries: pack.Entries[:2]}
	withDup, err := pack.Marshal(PackCompNone)
	require.NoError(t, err)
	without, err := single.Marshal(PackCompNone)
	require.NoError(t, err)
	// the duplicate costs only its name and reference
	require.Equal(t, len(without)+2+len("z.voxv")+4, len(withDup))

	got, _, err := UnmarshalPack(withDup)
	require.NoError(t, err)
	require.Equal(t, "z.voxv", got.Entries[2].Name)
	require.Equal(t, pack.Entries[0].Data, got.Entries[2].Data)
}

func TestPackRejectsBadInput(t *testing.T) {
	_, _, err := UnmarshalPack([]byte("VOXV"))
	require.ErrorIs(t, err, ErrPackFormat)

	var pack Pack
	pack.Add("a", solid(t, 1, 1, 1, 1))
	data, err := pack.Marshal(PackCompNone)
	require.NoError(t, err)

	bad := append([]byte(nil), data...)
	bad[len(packMagic)+1] = 7
	_, _, err = UnmarshalPack(bad)
	require.ErrorIs(t, err, ErrPackFormat)

	_, _, err = UnmarshalPack(data[:len(data)-2])
	require.Error(t, err)

	_, err = (&Pack{Entries: []PackEntry{{Name: "x", Data: []byte("junk")}}}).Volume(0)
	require.ErrorIs(t, err, ErrFormat)

	_, err = pack.Marshal(PackCompression(9))
	require.Error(t, err)
}

func TestPackContentLimit(t *testing.T) {
	old := maxPackContent
	maxPackContent = 64
	t.Cleanup(func() { maxPackContent = old })

	var pack Pack
	pack.Add("noise.voxv", randomVolume(t, rand.New(rand.NewSource(3)), [3]int{8, 8, 8}, 0.5, 200))

	tests := []struct {
		comp    PackCompression
		wantErr bool
	}{
		{PackCompNone, false},
		{PackCompZlib, true},
		{PackCompZstd, true},
	}
	for _, tt := range tests {
		data, err := pack.Marshal(tt.comp)
		require.NoError(t, err)
		_, _, err = UnmarshalPack(data)
		if tt.wantErr {
			require.Error(t, err, "compression %d", tt.comp)
		} else {
			require.NoError(t, err, "compression %d", tt.comp)
		}
	}
}

func TestPackRejectsDuplicateNames(t *testing.T) {
	vol := solid(t, 1, 1, 1, 1)
	tests := []struct {
		name  string
		names []string
	}{
		{"same name", []string{"x.voxv", "x.voxv"}},
		{"same base name", []string{"a/x.voxv", "b/x.voxv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pack Pack
			for _, n := range tt.names {
				pack.Add(n, vol)
			}
			_, err := pack.Marshal(PackCompNone)
			require.ErrorIs(t, err, ErrDuplicateEntry)
		})
	}

	// a stream written by hand still cannot smuggle in a collision
	var ok Pack
	ok.Add("one.voxv", vol)
	ok.Add("two.voxv", vol)
	data, err := ok.Marshal(PackCompNone)
	require.NoError(t, err)
	data = bytes.Replace(data, []byte("two.voxv"), []byte("one.voxv"), 1)
	_, _, err = UnmarshalPack(data)
	require.ErrorIs(t, err, ErrDuplicateEntry)

	require.NoError(t, CheckNames([]string{"a.voxv", "b.voxv", "dir/c.voxv"}))
}
