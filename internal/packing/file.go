package packing

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"packview/internal/layout"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// FileSource reads a saved check-shipment response from disk, plain or
// zstd-compressed. It satisfies Fetcher so the viewer can run offline; the
// shipment id argument is ignored.
type FileSource struct {
	Path string
}

var _ Fetcher = FileSource{}

// ShipmentID names the layout after its file.
func (f FileSource) ShipmentID() string {
	base := filepath.Base(f.Path)
	for _, ext := range []string{".zst", ".json"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// FetchLayout reads and decodes the file.
func (f FileSource) FetchLayout(ctx context.Context, _ string) (*layout.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadLayoutFile(f.Path)
}

// ReadLayoutFile decodes a layout file, detecting zstd by magic number.
func ReadLayoutFile(path string) (*layout.Grid, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, &FetchError{ShipmentID: path, Message: err.Error(), Err: err}
	}
	defer fh.Close()

	br := bufio.NewReaderSize(fh, 256*1024)
	head, _ := br.Peek(len(zstdMagic))

	var r io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open zstd layout %s: %w", path, err)
		}
		defer dec.Close()
		r = dec
	}
	return layout.Decode(r)
}

// WriteLayoutFile stores g in check-shipment format, zstd-compressed when
// path ends in ".zst".
func WriteLayoutFile(path string, g *layout.Grid) (err error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, ".zst") {
		return layout.Encode(fh, g)
	}
	enc, err := zstd.NewWriter(fh, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := layout.Encode(enc, g); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
