package sram

import (
	"fmt"
)

// Record codec.
//
// A record is 3 bytes, treated as a 24-bit big-endian word and packed
// LSB-first:
//
//   bits  0-7  cents   (BCD, 0-99)
//   bits  8-15 seconds (BCD, 0-59)
//   bits 16-19 minutes (BCD, 0-9)
//   bits 20-21 car     (see Cars in tables.go)
//   bit  22    mode    (0: Grand Prix, 1: Practice)
//   bit  23    display (0 hides the record from the in-game table)
//
// Encode and decode are pure functions over these descriptors; nothing in
// here knows about files.

type Field struct {
	Name  string
	Shift uint
	Bits  uint
	Bcd   bool
	Max   int
}

var record_fields = []Field{
	{"cents", 0, 8, true, 99},
	{"seconds", 8, 8, true, 59},
	{"minutes", 16, 4, true, 9},
	{"car", 20, 2, false, 3},
	{"mode", 22, 1, false, 1},
	{"display", 23, 1, false, 1},
}

func Field_by_name(name string) (Field, error) {
	for _, f := range record_fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field{}, &LookupError{"field", name}
}

func Field_names() []string {
	names := []string{}
	for _, f := range record_fields {
		names = append(names, f.Name)
	}
	return names
}

func record_word(rec []byte) uint32 {
	return uint32(rec[0])<<16 | uint32(rec[1])<<8 | uint32(rec[2])
}

func put_record_word(rec []byte, word uint32) {
	rec[0] = uint8(word >> 16)
	rec[1] = uint8((word >> 8) & 0xFF)
	rec[2] = uint8(word & 0xFF)
}

// from_bcd converts up to 2 BCD digits to an int.  0x59 means fifty-nine.
func from_bcd(raw uint32) (int, bool) {
	hi := int(raw >> 4)
	lo := int(raw & 0xF)
	return hi*10 + lo, hi <= 9 && lo <= 9
}

func to_bcd(n int) uint32 {
	return uint32((n/10)<<4 | n%10)
}

// Get_field extracts one field from a 3-byte record.
// In strict mode a non-BCD nibble is a DecodeError; otherwise the nibbles
// are read as if they were decimal, so a dump can still show something.
func Get_field(rec []byte, f Field, strict bool) (int, error) {
	raw := (record_word(rec) >> f.Shift) & ((1 << f.Bits) - 1)
	if !f.Bcd {
		return int(raw), nil
	}
	v, ok := from_bcd(raw)
	if !ok && strict {
		return 0, &DecodeError{f.Name, fmt.Sprintf("stored value 0x%02X is not valid BCD", raw)}
	}
	return v, nil
}

// Set_field writes one field of a 3-byte record in place.
// An out-of-range value is an EncodeError; the record is untouched on failure.
func Set_field(rec []byte, f Field, value int) error {
	if value < 0 || value > f.Max {
		return &EncodeError{f.Name, value, f.Max}
	}
	raw := uint32(value)
	if f.Bcd {
		raw = to_bcd(value)
	}
	mask := uint32((1<<f.Bits)-1) << f.Shift
	put_record_word(rec, (record_word(rec)&^mask)|(raw<<f.Shift))
	return nil
}

// Decode_record decodes all fields of a 3-byte record.
func Decode_record(rec []byte, strict bool) (Record, error) {
	out := Record{}
	values := map[string]int{}
	for _, f := range record_fields {
		v, err := Get_field(rec, f, strict)
		if err != nil {
			return out, err
		}
		values[f.Name] = v
	}
	out.Cents = values["cents"]
	out.Seconds = values["seconds"]
	out.Minutes = values["minutes"]
	out.Car = uint8(values["car"])
	out.Mode = uint8(values["mode"])
	out.Display = values["display"] != 0
	return out, nil
}

// Encode produces the exact 3 bytes for a record.
// Any field outside its legal domain is an EncodeError.
func (r Record) Encode() ([]byte, error) {
	rec := make([]byte, RECORD_SIZE)
	display := 0
	if r.Display {
		display = 1
	}
	values := map[string]int{
		"cents":   r.Cents,
		"seconds": r.Seconds,
		"minutes": r.Minutes,
		"car":     int(r.Car),
		"mode":    int(r.Mode),
		"display": display,
	}
	for _, f := range record_fields {
		if err := Set_field(rec, f, values[f.Name]); err != nil {
			return nil, err
		}
	}
	return rec, nil
}
