package initcmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
)

type runner struct {
	fs FS
	o  Opt
	t  template
}

func (r *runner) run() error {
	if err := r.ensureDir(); err != nil {
		return err
	}
	ops, err := r.plan()
	if err != nil {
		return err
	}
	for _, op := range ops {
		if err := r.apply(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) ensureDir() error {
	info, err := r.fs.Stat(r.o.Dir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("init: %s is not a directory", r.o.Dir)
	case err == nil:
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("init: stat %s: %w", r.o.Dir, err)
	case r.o.DryRun:
		return nil
	}
	if err := r.fs.MkdirAll(r.o.Dir, dirPerm); err != nil {
		return fmt.Errorf("init: create %s: %w", r.o.Dir, err)
	}
	return nil
}

// plan resolves every template file and refuses to touch existing files
// unless Force is set. Nothing is written when a conflict is found.
func (r *runner) plan() ([]op, error) {
	ops := make([]op, 0, len(r.t.Files))
	var conflicts []string
	for _, f := range r.t.Files {
		abs, err := safeJoin(r.o.Dir, f.Path)
		if err != nil {
			return nil, err
		}
		rel := filepath.FromSlash(f.Path)

		act := ActionCreate
		info, err := r.fs.Stat(abs)
		switch {
		case err == nil && info.IsDir():
			conflicts = append(conflicts, rel+" (dir)")
			continue
		case err == nil && !r.o.Force:
			conflicts = append(conflicts, rel)
			continue
		case err == nil:
			act = ActionOverwrite
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("init: stat %s: %w", rel, err)
		}
		ops = append(ops, op{Action: act, Path: rel, Abs: abs, Mode: f.Mode, Data: f.Data})
	}
	if len(conflicts) > 0 {
		return nil, fmt.Errorf("init: files already exist: %s (use -force to overwrite)", strings.Join(conflicts, ", "))
	}
	return ops, nil
}

func (r *runner) apply(o op) error {
	if !r.o.DryRun {
		if err := r.fs.MkdirAll(filepath.Dir(o.Abs), dirPerm); err != nil {
			return fmt.Errorf("init: create dir for %s: %w", o.Path, err)
		}
		if err := r.writeAtomic(o.Abs, o.Mode, o.Data); err != nil {
			return fmt.Errorf("init: write %s: %w", o.Path, err)
		}
	}
	return r.report(o.Action, o.Path)
}

// writeAtomic writes through a temp file in the target directory and renames
// it into place.
func (r *runner) writeAtomic(p string, m fs.FileMode, data string) (err error) {
	f, err := r.fs.CreateTemp(filepath.Dir(p), ".nethop-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		_ = f.Close()
		if err != nil {
			_ = r.fs.Remove(tmp)
		}
	}()
	if err = f.Chmod(m); err != nil {
		return err
	}
	if _, err = io.WriteString(f, data); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if !r.o.Force {
		if _, statErr := r.fs.Stat(p); statErr == nil {
			return fs.ErrExist
		}
	}
	if err = r.fs.Rename(tmp, p); err == nil || !r.o.Force || !errors.Is(err, fs.ErrExist) {
		return err
	}
	if err = r.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return r.fs.Rename(tmp, p)
}

func (r *runner) report(act Action, path string) error {
	if r.o.Out == nil {
		return nil
	}
	prefix := ""
	if r.o.DryRun {
		prefix = "dry-run: "
	}
	if _, err := fmt.Fprintf(r.o.Out, "%s%s %s\n", prefix, act, path); err != nil {
		return fmt.Errorf("init: report %s %s: %w", act, path, err)
	}
	return nil
}
