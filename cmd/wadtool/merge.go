package main

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/nwtools/wadtools/pkg/backup"
	"github.com/nwtools/wadtools/pkg/edit"
	"github.com/nwtools/wadtools/pkg/wad"
)

func (c *cli) registerMerge() {
	merge := c.app.Command("merge", "Merge a patch archive into the primary archive.")
	mergePath := merge.Arg("pwad", "Patch archive to merge.").Required().ExistingFile()
	c.handle(merge, func() error {
		return c.merge(*mergePath)
	})

	restore := c.app.Command("restore", "Undo a merge of the primary archive.")
	c.handle(restore, c.restore)

	join := c.app.Command("join", "Append every entry of a patch archive to the primary archive.")
	joinPath := join.Arg("pwad", "Patch archive to join.").Required().ExistingFile()
	joinKeep := join.Flag("keep", "Which side wins when both archives hold a name.").Enum("primary", "secondary")
	c.handle(join, func() error {
		return c.join(*joinPath, *joinKeep)
	})

	for _, ns := range []wad.Namespace{wad.Sprites, wad.Flats} {
		cmd := c.app.Command("add-"+ns.String(), fmt.Sprintf("Splice the primary archive's %s into a patch archive.", ns))
		path := cmd.Arg("pwad", "Patch archive to splice into.").Required().ExistingFile()
		output := cmd.Flag("output", "Write the result here instead of replacing the patch.").Short('o').String()
		c.handle(cmd, func() error {
			return c.splice(*path, *output, ns)
		})
	}

	clean := c.app.Command("clean", "Compact an archive, reclaiming unreferenced bytes.")
	cleanPath := clean.Arg("archive", "Archive to compact.").Required().ExistingFile()
	cleanBackup := clean.Flag("backup", "Save a compressed snapshot before compacting.").Bool()
	c.handle(clean, func() error {
		return c.clean(*cleanPath, *cleanBackup)
	})
}

func (c *cli) merge(pwad string) error {
	iwad, err := c.primary()
	if err != nil {
		return err
	}
	return withLocks(func() error {
		res, err := edit.Merge(iwad, pwad, c.editOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Merged %s into %s: %d replaced, %d appended, %d entries\n",
			pwad, iwad, res.Spliced, res.Appended, res.Entries)
		return nil
	}, iwad)
}

func (c *cli) restore() error {
	iwad, err := c.primary()
	if err != nil {
		return err
	}
	return withLocks(func() error {
		res, err := edit.Restore(iwad, c.editOptions()...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Restored %s: %d entries, %d removed\n", iwad, res.Entries, res.Dropped)
		return nil
	}, iwad)
}

func (c *cli) join(pwad, keep string) error {
	policy, err := edit.ParsePolicy(keep)
	if err != nil {
		return err
	}
	iwad, err := c.primary()
	if err != nil {
		return err
	}
	return withLocks(func() error {
		res, err := edit.JoinFiles(iwad, pwad, policy, c.editOptions()...)
		if err != nil {
			if wad.ErrCollisionUnresolved.Is(err) {
				return fmt.Errorf("%w (rerun with --keep=primary or --keep=secondary)", err)
			}
			return err
		}
		fmt.Fprintf(c.out, "Joined %s into %s: %d appended, %d collisions, %d dropped\n",
			pwad, iwad, res.Appended, res.Collisions, res.Dropped)
		return nil
	}, iwad)
}

func (c *cli) splice(pwad, output string, ns wad.Namespace) error {
	iwad, err := c.primary()
	if err != nil {
		return err
	}
	target := pwad
	if output != "" {
		target = output
	}
	return withLocks(func() error {
		opts := append(c.editOptions(), edit.WithOutput(output))
		res, err := edit.Splice(iwad, pwad, ns, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Wrote %s: %d %s replaced, %d added, %d entries\n",
			target, res.Superseded, ns, res.Added, res.Entries)
		return nil
	}, pwad, target)
}

func (c *cli) clean(path string, snapshot bool) error {
	return withLocks(func() error {
		if snapshot {
			if err := c.snapshot(path); err != nil {
				return err
			}
		}
		res, err := edit.Compact(path, c.editOptions()...)
		if err != nil {
			return err
		}
		if !res.Compacted {
			fmt.Fprintf(c.out, "%s is already compact\n", path)
			return nil
		}
		fmt.Fprintf(c.out, "Compacted %s: %s -> %s (%s reclaimed)\n", path,
			humanize.IBytes(uint64(res.SizeBefore)),
			humanize.IBytes(uint64(res.SizeAfter)),
			humanize.IBytes(uint64(res.Waste)))
		return nil
	}, path)
}

// snapshot saves a compressed copy of path beside it.
func (c *cli) snapshot(path string) error {
	codec, err := backup.ParseCodec(c.cfg.Backup.Codec)
	if err != nil {
		return err
	}
	dst := path + codec.Ext()
	h, err := backup.WriteFile(dst, path, backup.WithCodec(codec), backup.WithLevel(c.cfg.Backup.Level))
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	c.log.WithField("snapshot", dst).Infof("Saved backup (%s -> %s)",
		humanize.IBytes(h.Length), humanize.IBytes(h.CompressedLength))
	return nil
}
