package main

// savefile reader/editor for F-Zero (SNES) battery saves
//
// example usage:
//
// fzero new FZERO.srm
// fzero load FZERO.srm
// fzero set time knight:mute:1 1:59.99
// fzero set car knight:mute:1 golden
// fzero set mode knight:mute:1 practice
// fzero set display knight:mute:1 on
// fzero set unlock king on
// fzero dump
// fzero save

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/ini.v1"

	"fzero/editor"
	"fzero/sram"
	"fzero/tables"
	"fzero/watch"
)

func get_dir() string {
	// dir from command line
	if len(os.Args) > 2 && os.Args[1] == "--dir" {
		dir := os.Args[2]
		os.Args = append(os.Args[:1], os.Args[3:]...)
		return dir
	}

	//dir from ini file
	cfg, err := ini.Load("fzero.ini")
	if err == nil {
		// Classic read of values, default section can be represented as empty string
		dir := cfg.Section("").Key("dir").String()
		if dir != "" {
			return dir
		}
	}

	wd, _ := os.Getwd()
	return wd
}

// smash smashes "funny characters" (which includes anything that's remotely tricky to type into a command line) in a string into the '_' character
func smash(in string) string {
	out := ""
	for _, c := range in {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			out += string(c)
		} else {
			out += "_"
		}
	}
	return out
}

// string matching functions, in strictly increasing order of desperation
var fuzzy = []func(input string, candidate string) bool{
	func(i string, c string) bool { return i == c },
	func(i string, c string) bool { return strings.ToUpper(i) == strings.ToUpper(c) },
	func(i string, c string) bool { return smash(strings.ToUpper(i)) == smash(strings.ToUpper(c)) },
	func(i string, c string) bool {
		return strings.HasPrefix(smash(strings.ToUpper(c)), smash(strings.ToUpper(i)))
	},
	func(i string, c string) bool {
		return strings.Contains(smash(strings.ToUpper(c)), smash(strings.ToUpper(i)))
	},
}

// fuzzy_reverse_lookup looks up "backwards" in a translation map
//
// trans: map to be looked up in
// to: map value
// what: type of thing to be looked up, as a human-readable string
//
// Returns: K: lookup result key, string: lookup result value (not necessarily equal to "to" due to fuzzy matching)
func fuzzy_reverse_lookup[K comparable](trans map[K]string, to string, what string) (K, string, error) {
	var K0 K

	for _, match := range fuzzy {
		matches := []K{}
		names := []string{}
		for k, v := range trans {
			if match(to, v) {
				matches = append(matches, k)
				names = append(names, v)
			}
		}
		if len(matches) == 0 {
			continue
		}
		if len(matches) > 1 {
			return K0, "", errors.New(fmt.Sprint("Ambiguous argument:", to, " could be anything from {", strings.Join(names, ", "), "}"))
		}

		return matches[0], names[0], nil
	}

	return K0, "", errors.New(to + " could not be matched to a valid value for " + what)
}

var rank_names = map[int]string{sram.RANK_BEST_LAP: "lap"}

// parse_target resolves "league:track:rank" with fuzzy names, e.g.
// "knight:mute:1", "q:white_land_2:lap".  Rank is 1-10 or "lap".
func parse_target(target string) (int, int, int, string, error) {
	bits := strings.Split(target, ":")
	if len(bits) != 3 {
		return 0, 0, 0, "", errors.New("Expected target is \"league:track:rank\", e.g. knight:mute:1")
	}

	league, lname, err := fuzzy_reverse_lookup(tables.League_map(), bits[0], "league")
	if err != nil {
		return 0, 0, 0, "", err
	}

	track, tname, err := fuzzy_reverse_lookup(tables.Track_map(league), bits[1], "track")
	if err != nil {
		return 0, 0, 0, "", err
	}

	rank, err := strconv.Atoi(bits[2])
	rname := bits[2]
	if err != nil {
		rank, rname, err = fuzzy_reverse_lookup(rank_names, bits[2], "rank")
		if err != nil {
			return 0, 0, 0, "", err
		}
	}
	if rank < 1 || rank > sram.RECORDS {
		return 0, 0, 0, "", &sram.LookupError{Kind: "rank", Name: bits[2]}
	}

	return league, track, rank, lname + ":" + tname + ":" + rname, nil
}

// parse_time accepts "m:ss.cc" and close relatives ("1:23.45", "1'23\"45").
func parse_time(s string) (sram.Time, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if len(fields) != 3 {
		return sram.Time{}, errors.New("Expected time format is m:ss.cc, e.g. 1:23.45")
	}
	numbers := []int{}
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return sram.Time{}, err
		}
		numbers = append(numbers, n)
	}
	return sram.Time{Minutes: numbers[0], Seconds: numbers[1], Cents: numbers[2]}, nil
}

var onoff = map[int]string{0: "off", 1: "on"}

func parse_onoff(s string) (bool, string, error) {
	v, matched, err := fuzzy_reverse_lookup(onoff, s, "flag")
	return v != 0, matched, err
}

// Everything that can be set-ted or get-ted.
type settable struct {
	usage string
	get   func(ed *editor.Editor, target string) (string, error)
	set   func(ed *editor.Editor, target string, to string) (string, error)
}

var settables = map[string]*settable{
	"time":    &settable{"time league:track:rank m:ss.cc", get_time, set_time},
	"car":     &settable{"car league:track:rank car_name", get_car, set_car},
	"mode":    &settable{"mode league:track:rank gp|practice", get_mode, set_mode},
	"display": &settable{"display league:track:rank on|off", get_display, set_display},
	"unlock":  &settable{"unlock league on|off", get_unlock, set_unlock},
	"record":  &settable{"record league:track:rank (get only)", get_record, nil},
}

func list_settables() string {
	ret := ""
	for _, s := range settables {
		ret = ret + "   " + s.usage + "\n"
	}
	return ret
}

func target_record(ed *editor.Editor, target string) (sram.Record, string, error) {
	league, track, rank, pretty, err := parse_target(target)
	if err != nil {
		return sram.Record{}, "", err
	}
	rec, err := ed.Record(league, track, rank)
	return rec, pretty, err
}

func get_time(ed *editor.Editor, target string) (string, error) {
	rec, _, err := target_record(ed, target)
	if err != nil {
		return "", err
	}
	return rec.Time().String(), nil
}

func set_time(ed *editor.Editor, target string, to string) (string, error) {
	league, track, rank, pretty, err := parse_target(target)
	if err != nil {
		return "", err
	}
	t, err := parse_time(to)
	if err != nil {
		return "", err
	}
	err = ed.Set_time(league, track, rank, t)
	if err != nil {
		return "", err
	}
	return pretty + " = " + t.String(), nil
}

func get_car(ed *editor.Editor, target string) (string, error) {
	rec, _, err := target_record(ed, target)
	if err != nil {
		return "", err
	}
	return tables.Cars[int(rec.Car)], nil
}

func set_car(ed *editor.Editor, target string, to string) (string, error) {
	league, track, rank, pretty, err := parse_target(target)
	if err != nil {
		return "", err
	}
	car, matched, err := fuzzy_reverse_lookup(tables.Cars, to, "car")
	if err != nil {
		return "", err
	}
	err = ed.Set_car(league, track, rank, car)
	if err != nil {
		return "", err
	}
	return pretty + " = " + matched, nil
}

func get_mode(ed *editor.Editor, target string) (string, error) {
	rec, _, err := target_record(ed, target)
	if err != nil {
		return "", err
	}
	return tables.Modes[int(rec.Mode)], nil
}

func set_mode(ed *editor.Editor, target string, to string) (string, error) {
	league, track, rank, pretty, err := parse_target(target)
	if err != nil {
		return "", err
	}
	mode, matched, err := fuzzy_reverse_lookup(tables.Modes, to, "mode")
	if err != nil {
		return "", err
	}
	err = ed.Set_mode(league, track, rank, mode)
	if err != nil {
		return "", err
	}
	return pretty + " = " + matched, nil
}

func get_display(ed *editor.Editor, target string) (string, error) {
	rec, _, err := target_record(ed, target)
	if err != nil {
		return "", err
	}
	return onoff[b2i(rec.Display)], nil
}

func set_display(ed *editor.Editor, target string, to string) (string, error) {
	league, track, rank, pretty, err := parse_target(target)
	if err != nil {
		return "", err
	}
	on, matched, err := parse_onoff(to)
	if err != nil {
		return "", err
	}
	err = ed.Set_display(league, track, rank, on)
	if err != nil {
		return "", err
	}
	return pretty + " = " + matched, nil
}

func get_unlock(ed *editor.Editor, target string) (string, error) {
	league, _, err := fuzzy_reverse_lookup(tables.League_map(), target, "league")
	if err != nil {
		return "", err
	}
	if ed.Savedata().Unlocks[league] {
		return "Master difficulty unlocked", nil
	}
	return "locked", nil
}

func set_unlock(ed *editor.Editor, target string, to string) (string, error) {
	league, matched, err := fuzzy_reverse_lookup(tables.League_map(), target, "league")
	if err != nil {
		return "", err
	}
	on, monoff, err := parse_onoff(to)
	if err != nil {
		return "", err
	}
	err = ed.Set_unlock(league, on)
	if err != nil {
		return "", err
	}
	return matched + " = " + monoff, nil
}

func get_record(ed *editor.Editor, target string) (string, error) {
	rec, pretty, err := target_record(ed, target)
	if err != nil {
		return "", err
	}
	str := fmt.Sprintf("%v: %v, %v, %v", pretty, rec.Time(), tables.Cars[int(rec.Car)], tables.Modes[int(rec.Mode)])
	if !rec.Display {
		str += " (hidden)"
	}
	return str, nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func rank_label(rank int) string {
	if rank == sram.RANK_BEST_LAP {
		return "Lap"
	}
	return strconv.Itoa(rank)
}

// dump_save lists every league, track and record, plus unlocks.
func dump_save(save *sram.Save) []string {
	out := []string{}
	for l := range save.Leagues {
		checksum, _ := save.League_checksum(l)
		out = append(out, fmt.Sprintf("%v League (checksum 0x%04X)", save.Leagues[l].Name, checksum))
		for t := range tables.Tracks[l] {
			out = append(out, "   "+tables.Tracks[l][t])
			for rank := 1; rank <= sram.RECORDS; rank += 1 {
				rec, _ := save.Record(l, t, rank)
				out = append(out, fmt.Sprintf("      %3v: %v", rank_label(rank), rec.Pretty()))
			}
		}
		out = append(out, "")
	}

	unlocked := []string{}
	for l, on := range save.Unlocks {
		if on {
			unlocked = append(unlocked, tables.Leagues[l])
		}
	}
	out = append(out, "Master difficulty unlocked for leagues: "+strings.Join(unlocked, ", "))
	return out
}

func main() {
	err := main2()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func main2() error {

	dir := get_dir()

	arg := "help"
	if len(os.Args) < 2 {
		fmt.Println("No args detected - falling back to \"help\", since you clearly need it...")
	} else {
		arg = os.Args[1]
	}

	switch arg {
	case "help":
		help_text := []string{
			"F-Zero Battery Save Editor",
			"",
			"Commands:",
			"help: display this text",
			"new (filename): create a pristine save file in the save location",
			"load (filename): load a file from the save location",
			"dump: list all records and unlocks",
			"get (what) (target): display current status of something",
			"set (what) (target) (to): set status of something",
			"verify [filename]: check signatures and checksums",
			"save: write the loaded file back",
			"watch: monitor the save location and report changes",
			"",
			"Things that can be set-ted or get-ted are:",
		}
		help_text = append(help_text, strings.Split(list_settables(), "\n")...)
		help_text = append(help_text, []string{
			"Fields stored per record: " + strings.Join(sram.Field_names(), ", "),
			"",
			"Notes:",
			"   The save location comes from --dir, else the \"dir\" key in fzero.ini,",
			"else the working directory.",
			"   It is usually not necessary to type the full name of something,",
			"e.g. \"fire_s\" will be recognized as \"Fire Stingray\".",
			"   Rank 11 of a track is its best lap; \"lap\" also works.",
		}...)

		for _, ht := range help_text {
			fmt.Println(ht)
		}

	case "new":
		if len(os.Args) < 3 {
			return errors.New("Create what?  Filename expected.")
		}

		full_filename := dir + "/" + os.Args[2]
		err := editor.Write_atomic(full_filename, sram.New_save())
		if err != nil {
			return err
		}
		fmt.Println("Pristine save written to", full_filename)

	case "load":
		if len(os.Args) < 3 {
			return errors.New("Load what?  Filename expected.")
		}

		full_filename := dir + "/" + os.Args[2]
		ed := editor.New()
		err := ed.Load(full_filename, false)
		if err != nil {
			return err
		}
		fmt.Println("Loaded", full_filename)

		return stash(full_filename, ed.Savedata())

	case "save":
		filename, savedata, err := retrieve()
		if err != nil {
			return err
		}

		ed := editor.Resume(filename, savedata)
		fmt.Println("Resuming", filename, "-", editor.State_name(ed.State()))
		for l := range savedata.Leagues {
			checksum, err := savedata.League_checksum(l)
			if err != nil {
				return err
			}
			fmt.Println(fmt.Sprintf("%v league checksum: 0x%04X", savedata.Leagues[l].Name, checksum))
		}

		err = ed.Save_file()
		if err != nil {
			return err
		}
		fmt.Println("New file written to", filename)

		err = os.Remove(g_stash_filename)
		if err != nil {
			return err
		}
		fmt.Println("Temporary data cleaned up")

	case "get":
		if len(os.Args) < 3 {
			return errors.New("Get what?  Gettables are:\n" + list_settables())
		}
		what := os.Args[2]

		s, ok := settables[what]
		if !ok {
			return errors.New(what + " is not gettable.  Gettables are:\n" + list_settables())
		}
		if len(os.Args) < 4 {
			return errors.New("Usage: fzero get " + s.usage)
		}

		filename, savedata, err := retrieve()
		if err != nil {
			return err
		}

		str, err := s.get(editor.Resume(filename, savedata), os.Args[3])
		if err != nil {
			return err
		}
		fmt.Println(str)

	case "set":
		if len(os.Args) < 3 {
			return errors.New("Set what?  Settables are:\n" + list_settables())
		}
		what := os.Args[2]

		s, ok := settables[what]
		if !ok || s.set == nil {
			return errors.New(what + " is not settable.  Settables are:\n" + list_settables())
		}
		if len(os.Args) < 5 {
			return errors.New("Usage: fzero set " + s.usage)
		}

		filename, savedata, err := retrieve()
		if err != nil {
			return err
		}

		matched, err := s.set(editor.Resume(filename, savedata), os.Args[3], os.Args[4])
		if err != nil {
			return err
		}

		fmt.Println(what, "set to", matched)
		return stash(filename, savedata)

	case "dump":
		_, savedata, err := retrieve()
		if err != nil {
			return err
		}

		for _, line := range dump_save(savedata) {
			fmt.Println(line)
		}

	case "verify":
		filename := ""
		if len(os.Args) > 2 {
			filename = dir + "/" + os.Args[2]
		} else {
			f, _, err := retrieve()
			if err != nil {
				return errors.New("Verify what?  Give a filename or load a file first.")
			}
			filename = f
		}

		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		problems := sram.Verify_image(data)
		if len(problems) == 0 {
			fmt.Println(filename, "verifies OK")
			return nil
		}
		for _, p := range problems {
			fmt.Println(p)
		}
		return errors.New(fmt.Sprintf("%v problems found", len(problems)))

	case "watch":
		reports := make(chan *watch.Report)
		watcher := watch.New_watcher(dir)
		go func() {
			for report := range reports {
				fmt.Println(report.File)
				for _, line := range report.Lines {
					fmt.Println("   " + line)
				}
				if !report.Ok {
					fmt.Println("   (the game will treat this save as corrupted)")
				}
				fmt.Println()
			}
		}()

		err := watcher.Start_watching(reports)
		if err != nil {
			return err
		}

		fmt.Println("Watching...", dir)
		fmt.Println()

		// Wait forever!
		<-make(chan bool)

	default:
		return errors.New("Unknown command " + arg + " - try \"help\"")
	}

	return nil
}
