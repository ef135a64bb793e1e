package prefab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerRoundTrip(t *testing.T) {
	payload := Encode(twoNodeCatalog())
	got, err := Unpack(Pack(payload))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestUnpackRejectsBadMagic(t *testing.T) {
	data := Pack([]byte{1, 2, 3})
	data[0] = 'X'
	_, err := Unpack(data)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestUnpackRejectsUnknownVersion(t *testing.T) {
	data := Pack([]byte{1, 2, 3})
	data[4] = 99
	_, err := Unpack(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestUnpackRejectsTamperedPayload(t *testing.T) {
	data := Pack(Encode(twoNodeCatalog()))
	data[len(data)-1] ^= 0x1 // flip a payload bit
	_, err := Unpack(data)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestUnpackRejectsLengthMismatch(t *testing.T) {
	data := Pack([]byte{1, 2, 3})
	_, err := Unpack(data[:len(data)-1])
	assert.ErrorContains(t, err, "payload bytes")

	_, err = Unpack([]byte{'B', 'S'})
	assert.ErrorContains(t, err, "too short")
}

func TestWriteReadFile(t *testing.T) {
	c := twoNodeCatalog()
	c.Graphics = map[string]Graphic{
		"player_idle": {Tiles: []byte{1, 2, 3}, Palette: []byte{4}, Size: Size16x16},
	}
	path := filepath.Join(t.TempDir(), "prefabs.bslt")

	require.NoError(t, WriteFile(path, c))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(c, got, cmpopts.EquateEmpty()))
}

func TestReadFileRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefabs.bslt")
	require.NoError(t, WriteFile(path, twoNodeCatalog()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-3] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = ReadFile(path)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.bslt"))
	assert.Error(t, err)
}
