package util

import (
	"bytes"
	"encoding/json"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// EncodeAll and DecodeAll are safe for concurrent use, so one encoder and one
// decoder serve every record payload.
var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
)

// Marshal encodes v as JSON without HTML escaping, zstd-compressed when
// compress is set.
func Marshal(v any, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	je := json.NewEncoder(&buf)
	je.SetEscapeHTML(false)
	if err := je.Encode(v); err != nil {
		return nil, errors.Wrap(err, "json encode")
	}
	bs := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if !compress {
		return bs, nil
	}
	return encoder.EncodeAll(bs, make([]byte, 0, len(bs))), nil
}

func Unmarshal(data []byte, compress bool, v any) error {
	if compress {
		bs, err := decoder.DecodeAll(data, nil)
		if err != nil {
			return errors.Wrap(err, "zstd decode")
		}
		data = bs
	}

	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "json unmarshal")
	}
	return nil
}
