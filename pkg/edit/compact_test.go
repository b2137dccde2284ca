package edit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nwtools/wadtools/pkg/wad"
)

// slackArchive returns a 1000-byte archive whose three entries reference
// the first 400 bytes of the file; the directory sits at the very end.
func slackArchive() []byte {
	data := make([]byte, 1000)
	h := wad.NewHeader(wad.MagicPWAD, 3, 1000-3*wad.EntrySize)
	h.EncodeTo(data)
	for i := wad.HeaderSize; i < 400; i++ {
		data[i] = byte(i)
	}
	for i := 400; i < 952; i++ {
		data[i] = 0xee
	}
	copy(data[952:], wad.MarshalEntries([]wad.Entry{
		wad.NewEntry("ONE", 12, 200),
		wad.NewEntry("TWO", 312, 88),
		wad.NewEntry("THREE", 212, 100),
	}))
	return data
}

func TestCompact(t *testing.T) {
	log, hook := quietLogger()

	t.Run("KeepsFileMode", func(t *testing.T) {
		hook.Reset()
		path := filepath.Join(t.TempDir(), "slack.wad")
		require.NoError(t, os.WriteFile(path, slackArchive(), 0600))
		require.NoError(t, os.Chmod(path, 0600))

		_, err := Compact(path, WithLogger(log))
		require.NoError(t, err)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		for _, e := range hook.AllEntries() {
			assert.NotEqual(t, logrus.WarnLevel, e.Level, e.Message)
		}
	})

	t.Run("ReclaimsSlack", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "slack.wad")
		original := slackArchive()
		require.NoError(t, os.WriteFile(path, original, 0644))

		res, err := Compact(path, WithLogger(log), WithChunkSize(7))
		require.NoError(t, err)
		assert.True(t, res.Compacted)
		assert.Equal(t, int64(552), res.Waste)
		assert.Equal(t, int64(1000), res.SizeBefore)
		assert.Equal(t, int64(448), res.SizeAfter)

		a, data := readArchive(t, path)
		assert.Len(t, data, 448)
		assert.Equal(t, uint32(400), a.Header.DirOffset)
		assert.Equal(t, []string{"ONE", "TWO", "THREE"}, names(a.Entries))

		// Payloads follow directory order, not their old file order.
		assert.Equal(t, uint32(12), a.Entries[0].Start)
		assert.Equal(t, uint32(212), a.Entries[1].Start)
		assert.Equal(t, uint32(300), a.Entries[2].Start)
		assert.Equal(t, original[312:400], payloadOf(t, a, data, "TWO"))
		assert.Equal(t, original[212:312], payloadOf(t, a, data, "THREE"))
		assert.Empty(t, tempFiles(t, dir))
	})

	t.Run("Idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "slack.wad")
		require.NoError(t, os.WriteFile(path, slackArchive(), 0644))

		_, err := Compact(path, WithLogger(log))
		require.NoError(t, err)
		once, err := os.ReadFile(path)
		require.NoError(t, err)

		res, err := Compact(path, WithLogger(log))
		require.NoError(t, err)
		assert.False(t, res.Compacted)
		assert.Zero(t, res.Waste)

		twice, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(once, twice))
	})

	t.Run("TightArchiveUntouched", func(t *testing.T) {
		dir := t.TempDir()
		path := writeArchive(t, dir, "tight.wad", wad.MagicIWAD,
			payload("PLAYPAL", 1, 30),
			marker("S_START"),
			marker("S_END"),
		)
		before, _ := os.ReadFile(path)

		res, err := Compact(path, WithLogger(log))
		require.NoError(t, err)
		assert.False(t, res.Compacted)
		assert.Zero(t, res.Waste)

		after, _ := os.ReadFile(path)
		assert.Equal(t, before, after)
	})

	t.Run("MarkersGetCursor", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "markers.wad")
		data := buildArchive(wad.MagicPWAD, payload("A", 1, 10), marker("S_START"), payload("B", 2, 5))
		data = append(data, make([]byte, 64)...)
		require.NoError(t, os.WriteFile(path, data, 0644))

		_, err := Compact(path, WithLogger(log))
		require.NoError(t, err)

		a, _ := readArchive(t, path)
		assert.Equal(t, uint32(22), a.Entries[1].Start)
		assert.Equal(t, uint32(22), a.Entries[2].Start)
	})

	t.Run("RefusesMergedArchive", func(t *testing.T) {
		path := writeArchive(t, t.TempDir(), "merged.wad", wad.MagicIWAD,
			payload("PLAYPAL", 1, 30),
			payload("NWT", 0, 16),
		)
		_, err := Compact(path, WithLogger(log))
		require.Error(t, err)
		assert.True(t, wad.ErrAlreadyMerged.Is(err))
	})

	t.Run("TruncatedPayload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.wad")
		data := slackArchive()
		copy(data[952:], wad.MarshalEntries([]wad.Entry{wad.NewEntry("ONE", 900, 500)}))
		require.NoError(t, os.WriteFile(path, data, 0644))

		_, err := Compact(path, WithLogger(log))
		require.Error(t, err)
		assert.True(t, wad.ErrTruncatedArchive.Is(err))

		after, _ := os.ReadFile(path)
		assert.Equal(t, data, after)
	})

	t.Run("BadMagic", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.wad")
		require.NoError(t, os.WriteFile(path, []byte("XWAD\x00\x00\x00\x00\x0c\x00\x00\x00"), 0644))

		_, err := Compact(path, WithLogger(log))
		assert.True(t, wad.ErrFormat.Is(err))
	})
}
