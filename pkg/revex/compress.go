package revex

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

type encodingType = int8

const (
	encodingNone encodingType = 0
	encodingGzip encodingType = 1
	encodingZstd encodingType = 2
	encodingBr   encodingType = 3
)

var encodingLookupMap = map[string]encodingType{
	"":         encodingNone,
	"identity": encodingNone,
	"gzip":     encodingGzip,
	"zstd":     encodingZstd,
	"br":       encodingBr,
}

// decodeBody reverses the Content-Encoding applied to a response body.
func decodeBody(data []byte, contentEncoding string) ([]byte, error) {
	enc, ok := encodingLookupMap[contentEncoding]
	if !ok {
		return nil, fmt.Errorf("%s encoding not supported", contentEncoding)
	}

	switch enc {
	case encodingGzip:
		z, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer func() { _ = z.Close() }()
		return io.ReadAll(z)
	case encodingZstd:
		d, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return io.ReadAll(d.IOReadCloser())
	case encodingBr:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}
