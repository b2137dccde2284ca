package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/nwtools/wadtools/pkg/lump"
	"github.com/nwtools/wadtools/pkg/wad"
)

func (c *cli) registerInspect() {
	info := c.app.Command("info", "Summarize an archive.")
	infoPath := info.Arg("archive", "Archive to inspect.").Required().ExistingFile()
	c.handle(info, func() error {
		return c.info(*infoPath)
	})

	list := c.app.Command("list", "List directory entries.")
	listPath := list.Arg("archive", "Archive to list.").Required().ExistingFile()
	listHash := list.Flag("hash", "Show a fingerprint of every payload.").Bool()
	c.handle(list, func() error {
		return c.list(*listPath, *listHash)
	})

	diff := c.app.Command("diff", "Compare two archives entry by entry.")
	diffA := diff.Arg("old", "First archive.").Required().ExistingFile()
	diffB := diff.Arg("new", "Second archive.").Required().ExistingFile()
	c.handle(diff, func() error {
		return c.diff(*diffA, *diffB)
	})
}

func (c *cli) info(path string) error {
	f, err := wad.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(c.out, "File:       %s\n", path)
	fmt.Fprintf(c.out, "Type:       %s\n", f.Header.Magic[:])
	fmt.Fprintf(c.out, "Entries:    %s\n", humanize.Comma(int64(len(f.Entries))))
	fmt.Fprintf(c.out, "Directory:  offset %d", f.Header.DirOffset)
	if !f.DirectoryIsLast() {
		fmt.Fprint(c.out, " (not last)")
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Size:       %s\n", humanize.IBytes(uint64(f.Size)))
	fmt.Fprintf(c.out, "Junk bytes: %s\n", humanize.Comma(f.Waste()))

	if i, ok := f.Backup(); ok {
		fmt.Fprintf(c.out, "Merged:     yes (backup entry %d, %d entries)\n", i, f.Entries[i].Length/wad.EntrySize)
	}
	for _, ns := range []wad.Namespace{wad.Sprites, wad.Flats} {
		if r := f.FindNamespace(ns); r.Found() {
			fmt.Fprintf(c.out, "%-11s %d entries\n", ns.String()+":", r.Len())
		}
	}
	return nil
}

func (c *cli) list(path string, hash bool) error {
	f, err := wad.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for i, e := range f.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d", i, e.Name, e.Start, e.Length)
		if hash {
			sum, err := lump.Digest(f, e)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "\t%016x", sum)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func (c *cli) diff(oldPath, newPath string) error {
	a, err := wad.Open(oldPath)
	if err != nil {
		return err
	}
	defer a.Close()

	b, err := wad.Open(newPath)
	if err != nil {
		return err
	}
	defer b.Close()

	diffs, err := lump.Diff(a.Archive, a, b.Archive, b)
	if err != nil {
		return err
	}
	for _, d := range diffs {
		switch d.Change {
		case lump.Added:
			fmt.Fprintf(c.out, "%d\t+ %s\n", d.Index, d.New.Name)
		case lump.Removed:
			fmt.Fprintf(c.out, "%d\t- %s\n", d.Index, d.Old.Name)
		case lump.Renamed:
			fmt.Fprintf(c.out, "%d\t~ %s -> %s\n", d.Index, d.Old.Name, d.New.Name)
		default:
			fmt.Fprintf(c.out, "%d\t* %s (%d -> %d bytes)\n", d.Index, d.New.Name, d.Old.Length, d.New.Length)
		}
	}
	if len(diffs) == 0 {
		fmt.Fprintln(c.out, "Archives are identical")
	}
	return nil
}
