package main

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/nwtools/wadtools/pkg/backup"
	"github.com/nwtools/wadtools/pkg/edit"
	"github.com/nwtools/wadtools/pkg/lump"
)

func (c *cli) registerLumps() {
	extract := c.app.Command("extract", "Export every entry's payload to a directory.")
	extractPath := extract.Arg("archive", "Archive to export.").Required().ExistingFile()
	extractDir := extract.Arg("dir", "Output directory.").Required().String()
	extractFlat := extract.Flag("no-prefix", "Name files by entry name only, keeping the last of each name.").Bool()
	extractWorkers := extract.Flag("workers", "Payloads written concurrently.").Default("4").Int()
	c.handle(extract, func() error {
		n, err := lump.Extract(*extractPath, *extractDir,
			lump.WithIndexPrefix(!*extractFlat),
			lump.WithWorkers(*extractWorkers),
			lump.WithLogger(c.log))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Extracted %d files to %s\n", n, *extractDir)
		return nil
	})

	build := c.app.Command("build", "Create an archive from a directory of exported payloads.")
	buildPath := build.Arg("archive", "Archive to create.").Required().String()
	buildDir := build.Arg("dir", "Directory of payload files.").Required().ExistingDir()
	buildType := build.Flag("type", "Archive type.").Default("pwad").Enum("pwad", "iwad")
	c.handle(build, func() error {
		return c.build(*buildPath, *buildDir, *buildType)
	})

	unpack := c.app.Command("unpack-backup", "Decompress a snapshot saved by clean --backup.")
	unpackSrc := unpack.Arg("snapshot", "Snapshot file.").Required().ExistingFile()
	unpackDst := unpack.Arg("archive", "Output archive.").Required().String()
	c.handle(unpack, func() error {
		h, err := backup.ReadFile(*unpackSrc, *unpackDst)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Unpacked %s (%s, %s)\n", *unpackDst, h.Codec(), humanize.IBytes(h.Length))
		return nil
	})
}

func (c *cli) build(path, dir, typ string) error {
	files, err := lump.ScanDir(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no %s files in %s", lump.Ext, dir)
	}
	return withLocks(func() error {
		a, err := lump.Build(path, files, parseType(typ),
			edit.WithLogger(c.log), edit.WithChunkSize(c.cfg.ChunkSize))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Built %s: %d entries, %s\n", path, len(a.Entries), humanize.IBytes(uint64(a.Size)))
		return nil
	}, path)
}
