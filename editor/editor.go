package editor

// Editor facade: load -> edit -> validate -> write.
//
// The facade owns one Save at a time and tracks which leagues have been
// touched.  Writing goes through a temp-file-and-rename so that a failed
// write can never leave a truncated save behind - the worst case is that
// the old file survives untouched.

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fzero/sram"
)

const (
	ST_UNLOADED = iota
	ST_CLEAN
	ST_DIRTY
	ST_SAVED
)

func State_name(s int) string {
	return []string{"unloaded", "loaded (clean)", "loaded (dirty)", "saved"}[s]
}

type Editor struct {
	path  string
	save  *sram.Save
	state int
	dirty map[int]bool
}

func New() *Editor {
	return &Editor{state: ST_UNLOADED, dirty: map[int]bool{}}
}

// Resume rebuilds an editor around already-parsed savedata, as retrieved
// from the stash between CLI invocations.
func Resume(path string, save *sram.Save) *Editor {
	return &Editor{path: path, save: save, state: ST_CLEAN, dirty: map[int]bool{}}
}

func (e *Editor) Load(path string, strict bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	save, err := sram.Read_save(data, strict)
	if err != nil {
		return err
	}
	e.path = path
	e.save = save
	e.state = ST_CLEAN
	e.dirty = map[int]bool{}
	return nil
}

func (e *Editor) Path() string {
	return e.path
}

func (e *Editor) State() int {
	return e.state
}

func (e *Editor) Savedata() *sram.Save {
	return e.save
}

// Dirty lists the leagues touched since load, in order.
func (e *Editor) Dirty() []int {
	out := []int{}
	for l := 0; l < sram.LEAGUES; l += 1 {
		if e.dirty[l] {
			out = append(out, l)
		}
	}
	return out
}

func (e *Editor) Record(league, track, rank int) (sram.Record, error) {
	if e.state == ST_UNLOADED {
		return sram.Record{}, errors.New("nothing loaded")
	}
	rec, err := e.save.Record(league, track, rank)
	if err != nil {
		return sram.Record{}, err
	}
	return *rec, nil
}

// edit validates-then-mutates one record.  The mutation runs on a copy and
// is only written back once it still encodes, so a failed edit leaves the
// save untouched.
func (e *Editor) edit(league, track, rank int, change func(*sram.Record)) error {
	if e.state == ST_UNLOADED {
		return errors.New("nothing loaded")
	}
	rec, err := e.save.Record(league, track, rank)
	if err != nil {
		return err
	}
	candidate := *rec
	change(&candidate)
	if _, err := candidate.Encode(); err != nil {
		return err
	}
	*rec = candidate
	e.dirty[league] = true
	e.state = ST_DIRTY
	return nil
}

func (e *Editor) Set_time(league, track, rank int, t sram.Time) error {
	return e.edit(league, track, rank, func(r *sram.Record) {
		r.Minutes = t.Minutes
		r.Seconds = t.Seconds
		r.Cents = t.Cents
	})
}

func (e *Editor) Set_car(league, track, rank int, car int) error {
	return e.edit(league, track, rank, func(r *sram.Record) {
		r.Car = uint8(car)
	})
}

func (e *Editor) Set_mode(league, track, rank int, mode int) error {
	return e.edit(league, track, rank, func(r *sram.Record) {
		r.Mode = uint8(mode)
	})
}

func (e *Editor) Set_display(league, track, rank int, on bool) error {
	return e.edit(league, track, rank, func(r *sram.Record) {
		r.Display = on
	})
}

func (e *Editor) Set_unlock(league int, on bool) error {
	if e.state == ST_UNLOADED {
		return errors.New("nothing loaded")
	}
	if league < 0 || league >= sram.LEAGUES {
		return &sram.LookupError{Kind: "league", Name: fmt.Sprint(league)}
	}
	e.save.Unlocks[league] = on
	e.dirty[league] = true
	e.state = ST_DIRTY
	return nil
}

// Verify re-reads the file on disk and reports its problems.
func (e *Editor) Verify() ([]string, error) {
	if e.state == ST_UNLOADED {
		return nil, errors.New("nothing loaded")
	}
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}
	return sram.Verify_image(data), nil
}

// Save_file writes the image back to the path it was loaded from.
// On success the editor is clean again; on failure it stays dirty and the
// file on disk is whatever it was before.
func (e *Editor) Save_file() error {
	if e.state == ST_UNLOADED {
		return errors.New("nothing loaded")
	}
	err := Write_atomic(e.path, e.save)
	if err != nil {
		return err
	}
	e.state = ST_SAVED
	e.dirty = map[int]bool{}
	return nil
}

// backup_name swaps the extension for .old, e.g. FZERO.srm -> FZERO.old
func backup_name(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".old"
}

// Write_atomic serializes a save next to its destination, syncs, backs up
// any existing file to *.old, then renames into place.  Serialization also
// recomputes every league checksum, so the written image always verifies.
func Write_atomic(path string, save *sram.Save) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".fzero-*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	w := bufio.NewWriter(f)
	err = save.Write(w)
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = f.Sync()
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	// Back up the old file.  Since this is a tool capable of completely
	// trashing savefiles, that's probably a good idea.
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, backup_name(path)); err != nil {
			os.Remove(tmp)
			return err
		}
	}

	err = os.Rename(tmp, path)
	if err != nil {
		os.Remove(tmp)
	}
	return err
}
