package sram

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every field must round-trip over its entire legal domain.
func TestFieldRoundTrip(t *testing.T) {
	for _, f := range record_fields {
		for v := 0; v <= f.Max; v += 1 {
			rec := make([]byte, RECORD_SIZE)
			require.NoError(t, Set_field(rec, f, v), "field %v value %v", f.Name, v)
			got, err := Get_field(rec, f, true)
			require.NoError(t, err, "field %v value %v", f.Name, v)
			require.Equal(t, v, got, "field %v", f.Name)
		}
	}
}

// Setting one field must not disturb its neighbours.
func TestSetFieldIsolation(t *testing.T) {
	rec := []byte{0x09, 0x59, 0x99} // the default record
	seconds, err := Field_by_name("seconds")
	require.NoError(t, err)
	require.NoError(t, Set_field(rec, seconds, 12))
	assert.Equal(t, []byte{0x09, 0x12, 0x99}, rec)
}

func TestSetFieldOutOfRange(t *testing.T) {
	for _, f := range record_fields {
		for _, v := range []int{-1, f.Max + 1} {
			rec := []byte{0x09, 0x59, 0x99}
			err := Set_field(rec, f, v)

			var ee *EncodeError
			require.ErrorAs(t, err, &ee, "field %v value %v", f.Name, v)
			assert.Equal(t, f.Name, ee.Field)
			assert.Equal(t, []byte{0x09, 0x59, 0x99}, rec, "record mutated on failed encode")
		}
	}
}

func TestGetFieldBadBcd(t *testing.T) {
	rec := []byte{0x09, 0x5A, 0x99} // 0x5A is not a BCD second count
	seconds, err := Field_by_name("seconds")
	require.NoError(t, err)

	_, err = Get_field(rec, seconds, true)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	// Non-strict reads the nibbles as if they were decimal.
	v, err := Get_field(rec, seconds, false)
	require.NoError(t, err)
	assert.Equal(t, 60, v)
}

func TestFieldNames(t *testing.T) {
	assert.Equal(t, []string{"cents", "seconds", "minutes", "car", "mode", "display"}, Field_names())
}

func TestFieldByNameUnknown(t *testing.T) {
	_, err := Field_by_name("wings")
	var le *LookupError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "field", le.Kind)
}

func TestRecordEncodeDecode(t *testing.T) {
	rec := Record{Minutes: 1, Seconds: 23, Cents: 45, Car: CAR_GOLDEN_FOX, Mode: MODE_PRACTICE, Display: true}
	enc, err := rec.Encode()
	require.NoError(t, err)

	// display(1) mode(1) car(10) minutes(0001) = 0xE1, then BCD seconds and cents
	assert.Equal(t, []byte{0xE1, 0x23, 0x45}, enc)

	back, err := Decode_record(enc, true)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
}

func TestDefaultRecordEncoding(t *testing.T) {
	enc, err := Default_record().Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x09, 0x59, 0x99}, enc)
}

func TestRecordEncodeOutOfRange(t *testing.T) {
	rec := Default_record()
	rec.Seconds = 75
	_, err := rec.Encode()
	var ee *EncodeError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "seconds", ee.Field)
}

func TestDecodeRecordStrict(t *testing.T) {
	_, err := Decode_record([]byte{0x09, 0x59, 0x9F}, true)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	_, err = Decode_record([]byte{0x09, 0x59, 0x9F}, false)
	assert.NoError(t, err)
}

func TestTimeCentis(t *testing.T) {
	assert.Equal(t, 0, Time{}.Centis())
	assert.Equal(t, 8345, Time{Minutes: 1, Seconds: 23, Cents: 45}.Centis())
	assert.Equal(t, 59999, Time{Minutes: 9, Seconds: 59, Cents: 99}.Centis())
}

func TestErrorsAreDistinct(t *testing.T) {
	// A LookupError must not satisfy errors.As for the other kinds.
	err := error(&LookupError{"field", "wings"})
	var de *DecodeError
	var ee *EncodeError
	assert.False(t, errors.As(err, &de))
	assert.False(t, errors.As(err, &ee))
}
