package persist

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
)

var (
	// ErrUnknownExtension is returned when no codec matches a file name or codec name.
	ErrUnknownExtension = errors.New("unknown coverage data extension")
	// ErrCorruptData is returned when a decoded data file holds inconsistent probe hits.
	ErrCorruptData = errors.New("corrupt coverage data")
)

// Codec names accepted by CodecFor.
const (
	CodecJSON    = "json"
	CodecGob     = "gob"
	CodecJSONLZ4 = "json.lz4"
	CodecGobLZ4  = "gob.lz4"
)

// CodecFor returns the codec registered under name.
func CodecFor(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case CodecJSON:
		return NewJSONCodec(), nil
	case CodecGob:
		return NewGobCodec(), nil
	case CodecJSONLZ4:
		return NewLZ4Codec(&JSONCodec{}), nil
	case CodecGobLZ4:
		return NewLZ4Codec(NewGobCodec()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, name)
	}
}

// CodecForPath picks the codec matching the extension of path.
// Compound extensions are checked before plain ones.
func CodecForPath(path string) (Codec, error) {
	lower := strings.ToLower(path)

	for _, name := range []string{CodecJSONLZ4, CodecGobLZ4, CodecJSON, CodecGob} {
		if strings.HasSuffix(lower, "."+name) {
			return CodecFor(name)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownExtension, path)
}

// Save writes state to path with codec.
func Save(path string, codec Codec, state any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	err = codec.Encode(file, state)
	if err != nil {
		file.Close()

		return fmt.Errorf("encode state %s: %w", path, err)
	}

	closeErr := file.Close()
	if closeErr != nil {
		return fmt.Errorf("close state file %s: %w", path, closeErr)
	}

	return nil
}

// Load reads state from path with codec. The state parameter must be a pointer.
func Load(path string, codec Codec, state any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state %s: %w", path, err)
	}

	return nil
}

// SaveData writes coverage data to path. A nil codec is chosen from the extension.
func SaveData(path string, codec Codec, data *covdata.CoverageData) error {
	if codec == nil {
		var err error

		codec, err = CodecForPath(path)
		if err != nil {
			return err
		}
	}

	return Save(path, codec, data)
}

// LoadData reads coverage data from path, choosing the codec from its extension.
func LoadData(path string) (*covdata.CoverageData, error) {
	codec, err := CodecForPath(path)
	if err != nil {
		return nil, err
	}

	data := &covdata.CoverageData{}

	err = Load(path, codec, data)
	if err != nil {
		return nil, err
	}

	if data.ProbeHits == nil {
		data.ProbeHits = make(map[uint64]*covdata.ProbeHit)
	}

	err = checkProbeHits(data.ProbeHits)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptData, path, err)
	}

	return data, nil
}

// checkProbeHits verifies every entry is present, keyed by its own probe id
// and of a known kind.
func checkProbeHits(hits map[uint64]*covdata.ProbeHit) error {
	for id, hit := range hits {
		switch {
		case hit == nil:
			return fmt.Errorf("probe %d: missing hit", id)
		case hit.ProbeID != id:
			return fmt.Errorf("probe %d: keyed as %d", hit.ProbeID, id)
		case !hit.Kind.Valid():
			return fmt.Errorf("probe %d: invalid kind %d", id, hit.Kind)
		}
	}

	return nil
}

// LoadAll reads and merges every data file in paths, in order.
func LoadAll(paths []string) (*covdata.CoverageData, error) {
	parts := make([]*covdata.CoverageData, 0, len(paths))

	for _, path := range paths {
		data, err := LoadData(path)
		if err != nil {
			return nil, err
		}

		parts = append(parts, data)
	}

	return covdata.MergeAll(parts...), nil
}
