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

func primaryLumps() []lump {
	return []lump{
		payload("PLAYPAL", 1, 10),
		marker("S_START"),
		payload("TROOA1", 2, 64),
		marker("S_END"),
		marker("F_START"),
		payload("FLOOR0_1", 3, 32),
		marker("F_END"),
	}
}

func secondaryLumps() []lump {
	return []lump{
		marker("S_START"),
		payload("TROOA1", 9, 70),
		marker("S_END"),
		marker("MAP01"),
		payload("THINGS", 8, 20),
		payload("DEMO1", 7, 15),
	}
}

// primaryDirectoryNotLast lays out the primary archive with PLAYPAL's
// payload after the directory.
func primaryDirectoryNotLast() []byte {
	lumps := primaryLumps()
	entries := make([]wad.Entry, len(lumps))
	var body []byte
	for i, l := range lumps[1:] {
		entries[i+1] = wad.NewEntry(l.name, 0, uint32(len(l.data)))
		if len(l.data) > 0 {
			entries[i+1].Start = uint32(wad.HeaderSize + len(body))
		}
		body = append(body, l.data...)
	}
	dirOffset := wad.HeaderSize + len(body)
	playpal := lumps[0]
	entries[0] = wad.NewEntry(playpal.name, uint32(dirOffset+len(entries)*wad.EntrySize), uint32(len(playpal.data)))

	out, _ := wad.NewHeader(wad.MagicIWAD, uint32(len(entries)), uint32(dirOffset)).MarshalBinary()
	out = append(out, body...)
	out = append(out, wad.MarshalEntries(entries)...)
	return append(out, playpal.data...)
}

func TestMerge(t *testing.T) {
	log, hook := quietLogger()

	for _, inPlace := range []bool{false, true} {
		name := "Rename"
		if inPlace {
			name = "InPlace"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
			secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)
			before, _ := readArchive(t, primary)

			res, err := Merge(primary, secondary, WithLogger(log), WithInPlace(inPlace), WithChunkSize(16))
			require.NoError(t, err)
			assert.Equal(t, 1, res.Spliced)
			assert.Equal(t, 3, res.Appended)
			assert.Equal(t, 13, res.Entries)

			a, data := readArchive(t, primary)
			assert.True(t, a.Header.IsIWAD())
			assert.Equal(t, []string{
				"PLAYPAL", "S_START", "TROOA1", "S_END", "F_START", "FLOOR0_1", "F_END",
				"NWT", "MAP01", "THINGS", "DEMO1", "S_END", "F_END",
			}, names(a.Entries))
			assert.Equal(t, int64(a.Header.DirOffset), res.DirOffset)

			troo := a.Entries[2]
			assert.Equal(t, uint32(70), troo.Length)
			assert.Equal(t, byte(9), data[troo.Start])

			backup := a.Entries[7]
			assert.Equal(t, before.Header.DirOffset, backup.Start)
			assert.Equal(t, uint32(7*wad.EntrySize), backup.Length)
			snapshot, err := wad.UnmarshalEntries(data[backup.Start:backup.End()])
			require.NoError(t, err)
			assert.Equal(t, before.Entries, snapshot)

			assert.Equal(t, byte(8), payloadOf(t, a, data, "THINGS")[0])
			assert.Len(t, payloadOf(t, a, data, "DEMO1"), 15)
			assert.NoError(t, a.CheckBounds())
			assert.True(t, a.DirectoryIsLast())
			assert.Empty(t, tempFiles(t, dir))
		})
	}

	t.Run("WarnsInPlace", func(t *testing.T) {
		hook.Reset()
		dir := t.TempDir()
		primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
		secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)

		_, err := Merge(primary, secondary, WithLogger(log), WithInPlace(true))
		require.NoError(t, err)

		var warned bool
		for _, e := range hook.AllEntries() {
			warned = warned || e.Level == logrus.WarnLevel
		}
		assert.True(t, warned)
	})

	t.Run("AlreadyMerged", func(t *testing.T) {
		dir := t.TempDir()
		primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
		secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)

		_, err := Merge(primary, secondary, WithLogger(log))
		require.NoError(t, err)
		merged, _ := os.ReadFile(primary)

		_, err = Merge(primary, secondary, WithLogger(log))
		require.Error(t, err)
		assert.True(t, wad.ErrAlreadyMerged.Is(err))

		after, _ := os.ReadFile(primary)
		assert.Equal(t, merged, after)
	})

	t.Run("MissingFlats", func(t *testing.T) {
		dir := t.TempDir()
		primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()[:4]...)
		secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)
		original, _ := os.ReadFile(primary)

		_, err := Merge(primary, secondary, WithLogger(log))
		require.Error(t, err)
		assert.True(t, wad.ErrNamespaceNotFound.Is(err))

		after, _ := os.ReadFile(primary)
		assert.Equal(t, original, after)
		assert.Empty(t, tempFiles(t, dir))
	})

	t.Run("KeepsNonMarkerPrefixes", func(t *testing.T) {
		dir := t.TempDir()
		primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
		secondary := writeArchive(t, dir, "sky.wad", wad.MagicPWAD,
			marker("F_START"),
			payload("F_SKY1", 4, 8),
			marker("F_END"),
		)

		res, err := Merge(primary, secondary, WithLogger(log))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Appended)

		a, _ := readArchive(t, primary)
		assert.Equal(t, "F_SKY1", a.Entries[8].Name.String())
	})
}

func TestRestore(t *testing.T) {
	log, _ := quietLogger()

	for _, inPlace := range []bool{false, true} {
		name := "MergeInverse"
		if inPlace {
			name = "MergeInverseInPlace"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
			secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)
			original, err := os.ReadFile(primary)
			require.NoError(t, err)
			before, _ := readArchive(t, primary)

			_, err = Merge(primary, secondary, WithLogger(log), WithInPlace(inPlace))
			require.NoError(t, err)

			res, err := Restore(primary, WithLogger(log), WithInPlace(inPlace))
			require.NoError(t, err)
			assert.Equal(t, 7, res.Entries)
			assert.Equal(t, 1, res.Patched)
			assert.Equal(t, 6, res.Dropped)
			assert.Equal(t, int64(before.Header.DirOffset), res.DirOffset)

			a, data := readArchive(t, primary)
			assert.Equal(t, before.Header, a.Header)
			assert.Equal(t, before.Entries, a.Entries)

			// The merge only appended, so the pre-merge file is a prefix.
			require.GreaterOrEqual(t, len(data), len(original))
			assert.Equal(t, original, data[:len(original)])

			// A second pass finds no backup and changes nothing.
			_, err = Restore(primary, WithLogger(log))
			require.Error(t, err)
			assert.True(t, wad.ErrNoBackupFound.Is(err))
			again, _ := os.ReadFile(primary)
			assert.Equal(t, data, again)
		})
	}

	for _, inPlace := range []bool{false, true} {
		name := "DirectoryNotLast"
		if inPlace {
			name = "DirectoryNotLastInPlace"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			primary := filepath.Join(dir, "DOOM2.WAD")
			require.NoError(t, os.WriteFile(primary, primaryDirectoryNotLast(), 0644))
			secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)
			before, _ := readArchive(t, primary)

			_, err := Merge(primary, secondary, WithLogger(log), WithInPlace(inPlace))
			require.NoError(t, err)
			merged, mergedData := readArchive(t, primary)
			mergedDir := mergedData[merged.Header.DirOffset:merged.Header.DirEnd()]

			res, err := Restore(primary, WithLogger(log), WithInPlace(inPlace))
			require.NoError(t, err)
			assert.Equal(t, int64(len(mergedData)), res.DirOffset)

			a, data := readArchive(t, primary)
			assert.Equal(t, before.Entries, a.Entries)
			assert.Equal(t, uint32(len(mergedData)), a.Header.DirOffset)
			assert.Equal(t, bytes.Repeat([]byte{1}, 10), payloadOf(t, a, data, "PLAYPAL"))

			// The merged directory is left intact; only the header moved on.
			assert.Equal(t, mergedDir, data[merged.Header.DirOffset:merged.Header.DirEnd()])
			assert.Equal(t, mergedData[wad.HeaderSize:], data[wad.HeaderSize:len(mergedData)])
		})
	}

	t.Run("NeverMerged", func(t *testing.T) {
		primary := writeArchive(t, t.TempDir(), "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
		_, err := Restore(primary, WithLogger(log))
		require.Error(t, err)
		assert.True(t, wad.ErrNoBackupFound.Is(err))
	})

	t.Run("MalformedBackup", func(t *testing.T) {
		primary := writeArchive(t, t.TempDir(), "DOOM2.WAD", wad.MagicIWAD,
			payload("PLAYPAL", 1, 10),
			payload("NWT", 0, 20),
		)
		_, err := Restore(primary, WithLogger(log))
		require.Error(t, err)
		assert.True(t, wad.ErrFormat.Is(err))
	})

	t.Run("CompactAfterRestore", func(t *testing.T) {
		dir := t.TempDir()
		primary := writeArchive(t, dir, "DOOM2.WAD", wad.MagicIWAD, primaryLumps()...)
		secondary := writeArchive(t, dir, "mod.wad", wad.MagicPWAD, secondaryLumps()...)
		original, _ := os.ReadFile(primary)

		_, err := Merge(primary, secondary, WithLogger(log))
		require.NoError(t, err)
		_, err = Restore(primary, WithLogger(log))
		require.NoError(t, err)

		res, err := Compact(primary, WithLogger(log))
		require.NoError(t, err)
		assert.True(t, res.Compacted)
		assert.Equal(t, int64(len(original)), res.SizeAfter)

		want, wantData := readArchive(t, writeArchive(t, t.TempDir(), "ref.wad", wad.MagicIWAD, primaryLumps()...))
		a, data := readArchive(t, primary)
		assert.Equal(t, names(want.Entries), names(a.Entries))
		for _, name := range []string{"PLAYPAL", "TROOA1", "FLOOR0_1"} {
			assert.Equal(t, payloadOf(t, want, wantData, name), payloadOf(t, a, data, name))
		}
	})
}
