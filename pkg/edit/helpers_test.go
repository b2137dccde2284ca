package edit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/nwtools/wadtools/pkg/wad"
)

type lump struct {
	name string
	data []byte
}

func marker(name string) lump {
	return lump{name: name}
}

func payload(name string, fill byte, size int) lump {
	return lump{name, bytes.Repeat([]byte{fill}, size)}
}

// buildArchive lays out payloads after the header and appends the directory.
func buildArchive(magic [4]byte, lumps ...lump) []byte {
	var data bytes.Buffer
	entries := make([]wad.Entry, len(lumps))
	for i, l := range lumps {
		entries[i] = wad.NewEntry(l.name, 0, uint32(len(l.data)))
		if len(l.data) > 0 {
			entries[i].Start = uint32(wad.HeaderSize + data.Len())
		}
		data.Write(l.data)
	}

	h := wad.NewHeader(magic, uint32(len(entries)), uint32(wad.HeaderSize+data.Len()))
	out, _ := h.MarshalBinary()
	out = append(out, data.Bytes()...)
	return append(out, wad.MarshalEntries(entries)...)
}

func writeArchive(t *testing.T, dir, name string, magic [4]byte, lumps ...lump) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buildArchive(magic, lumps...), 0644))
	return path
}

func readArchive(t *testing.T, path string) (*wad.Archive, []byte) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	a, err := wad.ReadArchive(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return a, data
}

// payloadOf returns the bytes of the last entry named name.
func payloadOf(t *testing.T, a *wad.Archive, data []byte, name string) []byte {
	t.Helper()
	i := a.LastIndex(name)
	require.GreaterOrEqual(t, i, 0, "entry %s not found", name)
	e := a.Entries[i]
	return data[e.Start:e.End()]
}

func names(entries []wad.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name.String()
	}
	return out
}

func quietLogger() (logrus.FieldLogger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// tempFiles lists leftover build files in dir.
func tempFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	return matches
}
