// Optional compaction-payload compression.
//
// Grounded on folio's compress.go, which wrapped every record with
// zstd; holodoc narrows that to an opt-in whole-file compression of the
// compacted datafile, since NDJSON replay needs to see plain-text lines
// for the per-line corruption tolerance in persistence.go to work at
// all before decompression.
package holodoc

import (
	"github.com/klauspost/compress/zstd"
)

const zstdMagic = "\x28\xb5\x2f\xfd"

func hasZstdMagic(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == zstdMagic
}

func compressPayload(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func decompressPayload(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	return out, nil
}
