package main

// load, set and save are separate invocations, so the parsed image and its
// source filename live in a stash file in between.  Structure goes through
// gob; the result is lz4 block-compressed with a raw/compressed size header
// so retrieve knows how much to expect.

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"os"

	"github.com/pierrec/lz4"

	"fzero/sram"
)

// Evil global variables
var g_stash_filename = "fzero.tmp"

// More than enough for a gob of one parsed save.  Anything bigger in the
// header means the stash is not ours.
const max_stash_size = 1 << 20

func stash(filename string, savedata *sram.Save) error {
	buf := &bytes.Buffer{}
	encoder := gob.NewEncoder(buf)
	err := encoder.Encode(filename)
	if err != nil {
		return err
	}
	err = encoder.Encode(savedata)
	if err != nil {
		return err
	}

	raw := buf.Bytes()
	compressed := make([]byte, len(raw))
	n, err := lz4.CompressBlock(raw, compressed, make([]int, 1<<16))
	if err != nil {
		return err
	}
	if n == 0 || n >= len(raw) {
		// lz4.CompressBlock returns 0 if the data is not compressible.
		n = len(raw)
		compressed = raw
	}

	out := &bytes.Buffer{}
	binary.Write(out, binary.LittleEndian, int32(len(raw)))
	binary.Write(out, binary.LittleEndian, int32(n))
	out.Write(compressed[:n])

	return os.WriteFile(g_stash_filename, out.Bytes(), 0644)
}

func retrieve() (string, *sram.Save, error) {
	data, err := os.ReadFile(g_stash_filename)
	if err != nil {
		return "", nil, err
	}
	if len(data) < 8 {
		return "", nil, errors.New("stash file is truncated")
	}

	size_raw := int32(binary.LittleEndian.Uint32(data))
	size_com := int32(binary.LittleEndian.Uint32(data[4:]))
	if size_raw <= 0 || size_com <= 0 || size_raw > max_stash_size {
		return "", nil, errors.New("stash file is corrupt")
	}
	body := data[8:]
	if int(size_com) != len(body) {
		return "", nil, errors.New("stash file is truncated")
	}

	raw := body
	if size_com != size_raw {
		raw = make([]byte, size_raw)
		n, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return "", nil, err
		}
		if int32(n) != size_raw {
			return "", nil, errors.New("stash file is truncated")
		}
	}

	decoder := gob.NewDecoder(bytes.NewReader(raw))
	var filename string
	savedata := sram.Save{}
	err = decoder.Decode(&filename)
	if err != nil {
		return "", nil, err
	}
	err = decoder.Decode(&savedata)
	if err != nil {
		return "", nil, err
	}

	return filename, &savedata, nil
}
