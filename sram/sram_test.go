package sram

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image_of(t *testing.T, save *Save) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, save.Write(buf))
	return buf.Bytes()
}

func TestNewSaveImage(t *testing.T) {
	data := image_of(t, New_save())

	require.Len(t, data, SRAM_SIZE)
	assert.Equal(t, SIGNATURE, string(data[:SIGNATURE_SIZE]))
	assert.Equal(t, SIGNATURE, string(data[FOOTER_OFFSET:FOOTER_OFFSET+SIGNATURE_SIZE]))
	assert.Equal(t, byte(0), data[UNLOCKS_OFFSET])
	for _, b := range data[DATA_SIZE:] {
		require.Equal(t, byte(0), b, "padding must be zero")
	}
	assert.Empty(t, Verify_image(data))
}

func TestWriteReadRoundTrip(t *testing.T) {
	save := New_save()
	rec, err := save.Record(1, 2, 3)
	require.NoError(t, err)
	*rec = Record{Minutes: 2, Seconds: 5, Cents: 17, Car: CAR_WILD_GOOSE, Mode: MODE_GRAND_PRIX, Display: true}
	lap, err := save.Record(1, 2, RANK_BEST_LAP)
	require.NoError(t, err)
	*lap = Record{Seconds: 24, Cents: 33, Car: CAR_FIRE_STINGRAY, Mode: MODE_PRACTICE, Display: true}
	save.Unlocks[0] = true
	save.Unlocks[2] = true

	data := image_of(t, save)
	assert.Empty(t, Verify_image(data))
	assert.Equal(t, byte(0x55), data[UNLOCKS_OFFSET]) // 0101 mirrored

	back, err := Read_save(data, true)
	require.NoError(t, err)
	assert.Equal(t, save, back)

	// Writing what we read must reproduce the image byte for byte.
	assert.Equal(t, data, image_of(t, back))
}

func TestReadSaveBareDataArea(t *testing.T) {
	data := image_of(t, New_save())
	_, err := Read_save(data[:DATA_SIZE], true)
	assert.NoError(t, err)
}

func TestReadSaveWrongLength(t *testing.T) {
	data := image_of(t, New_save())
	for _, n := range []int{0, 100, DATA_SIZE - 1, DATA_SIZE + 1, SRAM_SIZE - 1, SRAM_SIZE + 1} {
		var fe *FormatError
		trimmed := make([]byte, n)
		copy(trimmed, data)
		save, err := Read_save(trimmed[:n], false)
		require.ErrorAs(t, err, &fe, "length %v", n)
		assert.Nil(t, save)
	}
}

func TestReadSaveBadSignature(t *testing.T) {
	for _, offset := range []int{0, FOOTER_OFFSET} {
		data := image_of(t, New_save())
		data[offset] = 'X'
		var fe *FormatError
		_, err := Read_save(data, false)
		require.ErrorAs(t, err, &fe, "signature at %v", offset)
	}
}

func TestReadSaveChecksumMismatch(t *testing.T) {
	data := image_of(t, New_save())
	data[League_offset(1)] ^= 0xFF // clobber a Queen league record byte

	var de *DecodeError
	_, err := Read_save(data, true)
	require.ErrorAs(t, err, &de)

	// Non-strict load warns but succeeds.
	save, err := Read_save(data, false)
	require.NoError(t, err)
	require.NotNil(t, save)

	problems := Verify_image(data)
	require.NotEmpty(t, problems)
	assert.Contains(t, problems[0], "Queen league")
}

func TestReadSaveBadBcdStrict(t *testing.T) {
	data := image_of(t, New_save())
	base := League_offset(0)
	data[base+2] = 0xAB // cents of the first Knight record
	// keep the checksum honest so only the BCD is at fault
	fix_checksum(data, 0)

	_, err := Read_save(data, true)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	_, err = Read_save(data, false)
	assert.NoError(t, err)
}

func TestUnlocksMirror(t *testing.T) {
	data := image_of(t, New_save())
	data[UNLOCKS_OFFSET] = 0x13 // low nibble 3, high nibble 1: bad mirror

	var de *DecodeError
	_, err := Read_save(data, true)
	require.ErrorAs(t, err, &de)

	save, err := Read_save(data, false)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, false}, save.Unlocks)

	data[UNLOCKS_OFFSET] = 0x33
	save, err = Read_save(data, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, false}, save.Unlocks)
}

func TestRecordLookupErrors(t *testing.T) {
	save := New_save()
	cases := []struct{ league, track, rank int }{
		{-1, 0, 1}, {LEAGUES, 0, 1},
		{0, -1, 1}, {0, TRACKS, 1},
		{0, 0, 0}, {0, 0, RECORDS + 1},
	}
	for _, c := range cases {
		var le *LookupError
		_, err := save.Record(c.league, c.track, c.rank)
		require.ErrorAs(t, err, &le, "%v", c)
	}
}

func TestLeagueChecksumMatchesImage(t *testing.T) {
	save := New_save()
	rec, err := save.Record(2, 4, 1)
	require.NoError(t, err)
	rec.Minutes, rec.Seconds, rec.Cents, rec.Display = 3, 14, 15, true

	checksum, err := save.League_checksum(2)
	require.NoError(t, err)

	data := image_of(t, save)
	base := League_offset(2)
	stored := uint16(data[base+LEAGUE_DATA_SIZE]) | uint16(data[base+LEAGUE_DATA_SIZE+1])<<8
	assert.Equal(t, checksum, stored)
	assert.True(t, Verify(data[base:base+LEAGUE_DATA_SIZE], stored))
}

func fix_checksum(data []byte, league int) {
	base := League_offset(league)
	sum := Checksum(data[base : base+LEAGUE_DATA_SIZE])
	data[base+LEAGUE_DATA_SIZE] = byte(sum & 0xFF)
	data[base+LEAGUE_DATA_SIZE+1] = byte(sum >> 8)
}
