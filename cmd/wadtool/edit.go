package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/nwtools/wadtools/pkg/edit"
	"github.com/nwtools/wadtools/pkg/wad"
)

func (c *cli) registerEdit() {
	create := c.app.Command("create", "Create an empty archive.")
	createPath := create.Arg("archive", "Archive to create.").Required().String()
	createType := create.Flag("type", "Archive type.").Default("pwad").Enum("pwad", "iwad")
	c.handle(create, func() error {
		return c.create(*createPath, *createType)
	})

	add := c.app.Command("add", "Add a file to an archive as a new entry.")
	addPath := add.Arg("archive", "Archive to modify.").Required().ExistingFile()
	addName := add.Arg("name", "Entry name.").Required().String()
	addFile := add.Arg("file", "File holding the payload; empty adds a marker.").ExistingFile()
	addBefore := add.Flag("before", "Insert before this entry index or name instead of appending.").String()
	addReplace := add.Flag("replace", "Replace the payload of the last entry with this name.").Bool()
	c.handle(add, func() error {
		return c.add(*addPath, *addName, *addFile, *addBefore, *addReplace)
	})

	rm := c.app.Command("rm", "Remove entries from an archive.")
	rmPath := rm.Arg("archive", "Archive to modify.").Required().ExistingFile()
	rmRefs := rm.Arg("entries", "Entry indexes or names.").Required().Strings()
	c.handle(rm, func() error {
		return c.remove(*rmPath, *rmRefs)
	})

	rename := c.app.Command("rename", "Rename an entry.")
	renamePath := rename.Arg("archive", "Archive to modify.").Required().ExistingFile()
	renameRef := rename.Arg("entry", "Entry index or name.").Required().String()
	renameTo := rename.Arg("name", "New name.").Required().String()
	c.handle(rename, func() error {
		return c.rename(*renamePath, *renameRef, *renameTo)
	})
}

func parseType(s string) [4]byte {
	if s == "iwad" {
		return wad.MagicIWAD
	}
	return wad.MagicPWAD
}

// resolve returns the index ref names in d: a decimal index, or the last
// entry with that name.
func resolve(d *edit.Draft, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if i < 0 || i >= d.Len() {
			return 0, fmt.Errorf("entry index %d out of range [0, %d)", i, d.Len())
		}
		return i, nil
	}
	name := wad.NormalizeName(ref)
	entries := d.Entries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Is(name) {
			return i, nil
		}
	}
	return 0, wad.ErrNoSuchEntry.New(name)
}

func (c *cli) create(path, typ string) error {
	return withLocks(func() error {
		return edit.Create(path, parseType(typ), edit.WithLogger(c.log))
	}, path)
}

func (c *cli) add(path, name, file, before string, replace bool) error {
	var data []byte
	if file != "" {
		var err error
		if data, err = os.ReadFile(file); err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
	}
	name = wad.NormalizeName(name)

	return withLocks(func() error {
		res, err := edit.Update(path, func(d *edit.Draft) error {
			switch {
			case replace:
				i, err := resolve(d, name)
				if err != nil {
					return err
				}
				return d.Replace(i, data)
			case before != "":
				i, err := resolve(d, before)
				if err != nil {
					return err
				}
				return d.Insert(i, name, data)
			default:
				d.Append(name, data)
				return nil
			}
		}, c.editOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Wrote %s to %s (%d entries)\n", name, path, res.Entries)
		c.log.Debugf("Appended %s of payload", humanize.IBytes(uint64(res.Written)))
		return nil
	}, path)
}

func (c *cli) remove(path string, refs []string) error {
	removed := 0
	return withLocks(func() error {
		res, err := edit.Update(path, func(d *edit.Draft) error {
			// Resolve every reference before deleting so indexes stay valid.
			marked := make(map[int]bool, len(refs))
			for _, ref := range refs {
				i, err := resolve(d, ref)
				if err != nil {
					return err
				}
				marked[i] = true
			}
			removed = len(marked)
			for i := d.Len() - 1; i >= 0; i-- {
				if marked[i] {
					if err := d.Delete(i); err != nil {
						return err
					}
				}
			}
			return nil
		}, c.editOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Removed %d entries from %s (%d left)\n", removed, path, res.Entries)
		return nil
	}, path)
}

func (c *cli) rename(path, ref, to string) error {
	to = wad.NormalizeName(to)
	return withLocks(func() error {
		_, err := edit.Update(path, func(d *edit.Draft) error {
			i, err := resolve(d, ref)
			if err != nil {
				return err
			}
			return d.Rename(i, to)
		}, c.editOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Renamed %s to %s\n", ref, to)
		return nil
	}, path)
}
