package watch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fzero/sram"
)

func test_image(t *testing.T) []byte {
	t.Helper()
	save := sram.New_save()
	rec, err := save.Record(0, 0, 1)
	require.NoError(t, err)
	*rec = sram.Record{Minutes: 1, Seconds: 59, Cents: 99, Car: sram.CAR_BLUE_FALCON, Display: true}

	buf := &bytes.Buffer{}
	require.NoError(t, save.Write(buf))
	return buf.Bytes()
}

func TestCheckValidImage(t *testing.T) {
	report := check("FZERO.srm", test_image(t))
	assert.True(t, report.Ok)
	assert.Equal(t, "FZERO.srm", report.File)
	require.NotEmpty(t, report.Lines)
	assert.Contains(t, report.Lines[0], "Knight league")
	assert.Contains(t, report.Lines[0], "OK")
	assert.Contains(t, report.Lines[1], "Mute City I")
	assert.Contains(t, report.Lines[1], "1’59”99")
}

func TestCheckCorruptImage(t *testing.T) {
	data := test_image(t)
	data[sram.League_offset(0)] ^= 0xFF

	report := check("FZERO.srm", data)
	assert.False(t, report.Ok)
	require.NotEmpty(t, report.Lines)
	assert.Contains(t, report.Lines[0], "checksum")
}

func TestCheckWrongSize(t *testing.T) {
	report := check("FZERO.srm", make([]byte, 123))
	assert.False(t, report.Ok)
}

func TestIsDup(t *testing.T) {
	dw := &dir_watcher{seen: map[string]uint64{}}
	data := test_image(t)

	assert.False(t, dw.is_dup("a.srm", data), "first sighting is not a dup")
	assert.True(t, dw.is_dup("a.srm", data), "same content again is a dup")
	assert.False(t, dw.is_dup("b.srm", data), "same content under another name is not")

	data[sram.League_offset(0)] ^= 0xFF
	assert.False(t, dw.is_dup("a.srm", data), "changed content is not a dup")
}

func TestIsSaveFile(t *testing.T) {
	assert.True(t, is_save_file("FZERO.srm"))
	assert.True(t, is_save_file("fzero.SAV"))
	assert.False(t, is_save_file("fzero.old"))
	assert.False(t, is_save_file("fzero.tmp"))
}
