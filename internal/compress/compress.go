package compress

import "fmt"

// Compress encodes document content for storage.
type Compress interface {
	// Name identifies the codec in the version row.
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// FromName returns the codec that wrote content under the given name. An
// empty name maps to the nop codec so rows written before a codec was
// configured still decode.
func FromName(name string) (Compress, error) {
	switch name {
	case "", "nop":
		return NewNop(), nil
	case "gzip":
		return NewGZip(), nil
	case "brotli":
		return NewBrotli(), nil
	}

	return nil, fmt.Errorf("unknown compression codec: %s", name)
}
