package sram

// F-Zero battery save (SRAM) image model.
//
// Image layout (offsets in bytes):
//
//   0-4     "FZERO" header signature
//   5-171   Knight league block
//   172-338 Queen league block
//   339-505 King league block
//   506     Master difficulty unlocks (mirrored nibble)
//   507-511 "FZERO" footer signature
//   512-2047 zero padding
//
// A league block is 55 records of 3 bytes (5 tracks x 11 records: the 10
// best race times plus the best lap) followed by a 16-bit little-endian
// additive checksum of those 165 bytes.

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"fzero/tables"
)

const (
	SRAM_SIZE      = 2048
	DATA_SIZE      = 512 // meaningful bytes; the rest is padding
	SIGNATURE      = "FZERO"
	SIGNATURE_SIZE = len(SIGNATURE)

	LEAGUES     = 3
	TRACKS      = 5  // per league
	RECORDS     = 11 // per track, 10 best races + 1 best lap
	RECORD_SIZE = 3

	CHECKSUM_SIZE    = 2
	LEAGUE_DATA_SIZE = TRACKS * RECORDS * RECORD_SIZE       // 165
	LEAGUE_SIZE      = LEAGUE_DATA_SIZE + CHECKSUM_SIZE     // 167
	UNLOCKS_OFFSET   = SIGNATURE_SIZE + LEAGUES*LEAGUE_SIZE // 506
	FOOTER_OFFSET    = UNLOCKS_OFFSET + 1                   // 507

	// rank 11 of a track is its best lap rather than a race time
	RANK_BEST_LAP = RECORDS
)

const (
	CAR_BLUE_FALCON = iota
	CAR_WILD_GOOSE
	CAR_GOLDEN_FOX
	CAR_FIRE_STINGRAY
)

const (
	MODE_GRAND_PRIX = iota
	MODE_PRACTICE
)

func League_offset(league int) int {
	return SIGNATURE_SIZE + league*LEAGUE_SIZE
}

type Time struct {
	Minutes int
	Seconds int
	Cents   int
}

// Centis is the total time in centiseconds, for comparisons.
func (t Time) Centis() int {
	return 100*(60*t.Minutes+t.Seconds) + t.Cents
}

func (t Time) String() string {
	return fmt.Sprintf("%d:%02d.%02d", t.Minutes, t.Seconds, t.Cents)
}

// Pretty renders a time the way the in-game record table does.
func (t Time) Pretty() string {
	return fmt.Sprintf("%d’%02d”%02d", t.Minutes, t.Seconds, t.Cents)
}

type Record struct {
	Minutes int
	Seconds int
	Cents   int
	Car     uint8
	Mode    uint8
	Display bool
}

// Default_record is what the game writes for an unset table entry:
// the maximum time, hidden from display.
func Default_record() Record {
	return Record{Minutes: 9, Seconds: 59, Cents: 99, Car: CAR_BLUE_FALCON, Mode: MODE_GRAND_PRIX}
}

func (r Record) Time() Time {
	return Time{r.Minutes, r.Seconds, r.Cents}
}

func (r Record) Pretty() string {
	if !r.Display {
		return "-"
	}
	marker := " "
	if r.Mode == MODE_PRACTICE {
		marker = "*"
	}
	return fmt.Sprintf("%v %v %v", r.Time().Pretty(), marker, tables.Cars[int(r.Car)])
}

type League struct {
	Name    string
	Records []Record
}

// Savedata for one SRAM image.
type Save struct {
	Leagues []League
	Unlocks []bool
}

// New_save builds a pristine image: every record at the default maximum
// time, nothing unlocked.  Writing it produces a file the game loads as a
// fresh cartridge.
func New_save() *Save {
	out := Save{Unlocks: make([]bool, LEAGUES)}
	for l := 0; l < LEAGUES; l += 1 {
		league := League{Name: tables.Leagues[l]}
		for i := 0; i < TRACKS*RECORDS; i += 1 {
			league.Records = append(league.Records, Default_record())
		}
		out.Leagues = append(out.Leagues, league)
	}
	return &out
}

func check_signature(data []byte, offset int) error {
	got := string(data[offset : offset+SIGNATURE_SIZE])
	if got != SIGNATURE {
		return &FormatError{fmt.Sprintf("signature at 0x%04X is %q, want %q", offset, got, SIGNATURE)}
	}
	return nil
}

// Read_save parses a full SRAM image.
// Accepted lengths are the full 2048-byte SRAM and the bare 512-byte data
// area (some emulators trim the padding); anything else is a FormatError.
// In strict mode, bad BCD digits and checksum mismatches are errors;
// otherwise they are warnings on stdout, like the rest of the tool.
func Read_save(data []byte, strict bool) (*Save, error) {
	if len(data) != SRAM_SIZE && len(data) != DATA_SIZE {
		return nil, &FormatError{fmt.Sprintf("file is %v bytes, want %v (or %v without padding)", len(data), SRAM_SIZE, DATA_SIZE)}
	}

	err := check_signature(data, 0)
	if err != nil {
		return nil, err
	}
	err = check_signature(data, FOOTER_OFFSET)
	if err != nil {
		return nil, err
	}

	out := Save{}
	for l := 0; l < LEAGUES; l += 1 {
		base := League_offset(l)
		league := League{Name: tables.Leagues[l]}
		for i := 0; i < TRACKS*RECORDS; i += 1 {
			rec, err := Decode_record(data[base+i*RECORD_SIZE:base+(i+1)*RECORD_SIZE], strict)
			if err != nil {
				return nil, &DecodeError{
					fmt.Sprintf("%v league, %v, record %v", league.Name, tables.Tracks[l][i/RECORDS], i%RECORDS+1),
					err.Error(),
				}
			}
			league.Records = append(league.Records, rec)
		}

		stored := binary.LittleEndian.Uint16(data[base+LEAGUE_DATA_SIZE:])
		if !Verify(data[base:base+LEAGUE_DATA_SIZE], stored) {
			computed := Checksum(data[base : base+LEAGUE_DATA_SIZE])
			if strict {
				return nil, &DecodeError{
					league.Name + " league",
					fmt.Sprintf("checksum is 0x%04X, records sum to 0x%04X", stored, computed),
				}
			}
			fmt.Println(fmt.Sprintf("Warning: %v league checksum is 0x%04X but records sum to 0x%04X", league.Name, stored, computed))
		}

		out.Leagues = append(out.Leagues, league)
	}

	unlocks, ok := parse_unlocks(data[UNLOCKS_OFFSET])
	if !ok {
		if strict {
			return nil, &DecodeError{"master unlocks", fmt.Sprintf("0x%02X has a bad mirror nibble", data[UNLOCKS_OFFSET])}
		}
		fmt.Println(fmt.Sprintf("Warning: master unlocks byte 0x%02X has a bad mirror nibble - treating as all locked", data[UNLOCKS_OFFSET]))
	}
	out.Unlocks = unlocks

	return &out, nil
}

// The unlocks byte holds 4 flags in its low nibble (LSB first, only 3 are
// used) with an identical copy in the high nibble.
func parse_unlocks(b byte) ([]bool, bool) {
	unlocks := make([]bool, LEAGUES)
	low := b & 0xF
	ok := low == b>>4 && low&0x8 == 0
	if !ok {
		return unlocks, false
	}
	for i := 0; i < LEAGUES; i += 1 {
		unlocks[i] = low&(1<<i) != 0
	}
	return unlocks, true
}

func pack_unlocks(unlocks []bool) byte {
	low := byte(0)
	for i := 0; i < len(unlocks) && i < LEAGUES; i += 1 {
		if unlocks[i] {
			low |= 1 << i
		}
	}
	return low | low<<4
}

// Record returns a pointer into the save, so the caller may edit it.
// rank runs 1-11; rank 11 is the best lap.
func (s *Save) Record(league, track, rank int) (*Record, error) {
	if league < 0 || league >= len(s.Leagues) {
		return nil, &LookupError{"league", strconv.Itoa(league)}
	}
	if track < 0 || track >= TRACKS {
		return nil, &LookupError{"track", strconv.Itoa(track)}
	}
	if rank < 1 || rank > RECORDS {
		return nil, &LookupError{"rank", strconv.Itoa(rank)}
	}
	return &s.Leagues[league].Records[track*RECORDS+rank-1], nil
}

// League_bytes encodes a league's 165 record bytes (no checksum).
func (s *Save) League_bytes(league int) ([]byte, error) {
	if league < 0 || league >= len(s.Leagues) {
		return nil, &LookupError{"league", strconv.Itoa(league)}
	}
	out := []byte{}
	for i, rec := range s.Leagues[league].Records {
		enc, err := rec.Encode()
		if err != nil {
			return nil, fmt.Errorf("%v league record %v: %w", s.Leagues[league].Name, i, err)
		}
		out = append(out, enc...)
	}
	return out, nil
}

// League_checksum computes the checksum the image will carry for a league.
func (s *Save) League_checksum(league int) (uint16, error) {
	data, err := s.League_bytes(league)
	if err != nil {
		return 0, err
	}
	return Checksum(data), nil
}

// Write serializes the full 2048-byte image, recomputing every league
// checksum from the current records.
func (s *Save) Write(w io.Writer) error {
	if len(s.Leagues) != LEAGUES {
		return fmt.Errorf("save has %v leagues, want %v", len(s.Leagues), LEAGUES)
	}

	data := make([]byte, SRAM_SIZE)
	copy(data, SIGNATURE)
	for l := 0; l < LEAGUES; l += 1 {
		if len(s.Leagues[l].Records) != TRACKS*RECORDS {
			return fmt.Errorf("%v league has %v records, want %v", s.Leagues[l].Name, len(s.Leagues[l].Records), TRACKS*RECORDS)
		}
		league, err := s.League_bytes(l)
		if err != nil {
			return err
		}
		base := League_offset(l)
		copy(data[base:], league)
		binary.LittleEndian.PutUint16(data[base+LEAGUE_DATA_SIZE:], Checksum(league))
	}
	data[UNLOCKS_OFFSET] = pack_unlocks(s.Unlocks)
	copy(data[FOOTER_OFFSET:], SIGNATURE)

	_, err := w.Write(data)
	return err
}

// Verify_image checks an image without building a Save: length, both
// signatures, every league checksum, strict-decodability of every record,
// and the unlocks mirror.  Returns one line per problem.
func Verify_image(data []byte) []string {
	problems := []string{}

	if len(data) != SRAM_SIZE && len(data) != DATA_SIZE {
		return append(problems, fmt.Sprintf("file is %v bytes, want %v (or %v without padding)", len(data), SRAM_SIZE, DATA_SIZE))
	}
	for _, offset := range []int{0, FOOTER_OFFSET} {
		if err := check_signature(data, offset); err != nil {
			problems = append(problems, err.Error())
		}
	}

	for l := 0; l < LEAGUES; l += 1 {
		base := League_offset(l)
		stored := binary.LittleEndian.Uint16(data[base+LEAGUE_DATA_SIZE:])
		if !Verify(data[base:base+LEAGUE_DATA_SIZE], stored) {
			problems = append(problems, fmt.Sprintf("%v league: checksum is 0x%04X, records sum to 0x%04X",
				tables.Leagues[l], stored, Checksum(data[base:base+LEAGUE_DATA_SIZE])))
		}
		for i := 0; i < TRACKS*RECORDS; i += 1 {
			_, err := Decode_record(data[base+i*RECORD_SIZE:base+(i+1)*RECORD_SIZE], true)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%v league, %v, record %v: %v",
					tables.Leagues[l], tables.Tracks[l][i/RECORDS], i%RECORDS+1, err))
			}
		}
	}

	if _, ok := parse_unlocks(data[UNLOCKS_OFFSET]); !ok {
		problems = append(problems, fmt.Sprintf("master unlocks byte 0x%02X has a bad mirror nibble", data[UNLOCKS_OFFSET]))
	}

	return problems
}
