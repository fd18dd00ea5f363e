package watch

// Save-directory watcher.
//
// Emulators rewrite the .srm file whenever SRAM changes, so watching the
// save directory gives a live view of record times and catches corruption
// the moment it lands on disk.

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgryski/go-farm"
	"github.com/fsnotify/fsnotify"

	"fzero/sram"
	"fzero/tables"
)

// How long to wait after a write event before reading the file.
// Emulators flush SRAM in one go, so this doesn't need to be generous.
var settle_delay = time.Second

type Report struct {
	File  string
	Ok    bool
	Lines []string
}

type Watcher interface {
	Start_watching(reports chan<- *Report) error
	Stop_watching()
}

func New_watcher(dir string) Watcher {
	return &dir_watcher{dir: dir, seen: map[string]uint64{}}
}

type dir_watcher struct {
	dir     string
	watcher *fsnotify.Watcher
	seen    map[string]uint64
}

func is_save_file(name string) bool {
	upper := strings.ToUpper(name)
	return strings.HasSuffix(upper, ".SRM") || strings.HasSuffix(upper, ".SAV")
}

func (dw *dir_watcher) Start_watching(reports chan<- *Report) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dw.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) && is_save_file(event.Name) {
					dw.handle_file(event.Name, reports)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fmt.Println(err)
			}
		}
	}()

	err = dw.watcher.Add(dw.dir)
	if err != nil {
		dw.watcher.Close()
	}

	return err
}

func (dw *dir_watcher) Stop_watching() {
	dw.watcher.Close()
}

func (dw *dir_watcher) handle_file(filename string, out chan<- *Report) {
	// Wait for the emulator to finish with the file
	time.Sleep(settle_delay)

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Println("Failed to load file", filename, "-", err)
		return
	}
	if dw.is_dup(filename, data) {
		return
	}

	out <- check(filename, data)
}

// is_dup fingerprints the content so that the several write events a single
// emulator flush produces only get reported once.
func (dw *dir_watcher) is_dup(filename string, data []byte) bool {
	fp := farm.Hash64(data)
	if dw.seen[filename] == fp {
		return true
	}
	dw.seen[filename] = fp
	return false
}

// check builds the report for one image: any problems Verify_image finds,
// or a per-league checksum and best-time summary when the image is sound.
func check(filename string, data []byte) *Report {
	report := Report{File: filename}

	report.Lines = sram.Verify_image(data)
	if len(report.Lines) > 0 {
		return &report
	}
	report.Ok = true

	save, err := sram.Read_save(data, true)
	if err != nil {
		// Verify_image just passed, so this shouldn't happen
		report.Ok = false
		report.Lines = []string{err.Error()}
		return &report
	}

	for l := range save.Leagues {
		checksum, _ := save.League_checksum(l)
		report.Lines = append(report.Lines, fmt.Sprintf("%v league: checksum 0x%04X OK", save.Leagues[l].Name, checksum))
		for t := range tables.Tracks[l] {
			best, _ := save.Record(l, t, 1)
			if best.Display {
				report.Lines = append(report.Lines, fmt.Sprintf("   %v: %v", tables.Tracks[l][t], best.Pretty()))
			}
		}
	}

	return &report
}
