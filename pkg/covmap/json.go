package covmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrParse is returned for malformed coverage map input.
var ErrParse = errors.New("failed to parse coverage map")

// mapJSON is the wire shape of a Map, minus the ordered probes object.
type mapJSON struct {
	Probes      json.RawMessage `json:"probes"`
	Functions   []FunctionInfo  `json:"functions"`
	File        string          `json:"file"`
	TotalProbes int             `json:"total_probes"`
}

// MarshalJSON writes the map with probes in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var probes bytes.Buffer

	probes.WriteByte('{')

	for i, id := range m.order {
		if i > 0 {
			probes.WriteByte(',')
		}

		loc, err := json.Marshal(m.probes[id])
		if err != nil {
			return nil, fmt.Errorf("marshal probe %d: %w", id, err)
		}

		probes.WriteString(strconv.Quote(strconv.FormatUint(id, 10)))
		probes.WriteByte(':')
		probes.Write(loc)
	}

	probes.WriteByte('}')

	functions := m.Functions
	if functions == nil {
		functions = []FunctionInfo{}
	}

	out, err := json.Marshal(mapJSON{
		Probes:      probes.Bytes(),
		Functions:   functions,
		File:        m.File,
		TotalProbes: m.TotalProbes(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal coverage map: %w", err)
	}

	return out, nil
}

// UnmarshalJSON reads a map, keeping the document order of the probes object.
// The total_probes field is recomputed from the probes.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw mapJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	decoded := New(raw.File)
	decoded.Functions = raw.Functions

	if len(raw.Probes) > 0 && !isNull(raw.Probes) {
		probesErr := decodeProbes(raw.Probes, decoded)
		if probesErr != nil {
			return probesErr
		}
	}

	*m = *decoded

	return nil
}

func decodeProbes(data []byte, m *Map) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	open, err := dec.Token()
	if err != nil {
		return fmt.Errorf("probes: %w", err)
	}

	if delim, ok := open.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("probes: expected object, got %v", open)
	}

	for dec.More() {
		keyTok, keyErr := dec.Token()
		if keyErr != nil {
			return fmt.Errorf("probes: %w", keyErr)
		}

		key, _ := keyTok.(string)

		id, parseErr := strconv.ParseUint(key, 10, 64)
		if parseErr != nil {
			return fmt.Errorf("probes: invalid probe id %q: %w", key, parseErr)
		}

		var loc ProbeLocation

		decodeErr := dec.Decode(&loc)
		if decodeErr != nil {
			return fmt.Errorf("probe %d: %w", id, decodeErr)
		}

		if !loc.Kind.Valid() {
			return fmt.Errorf("%w: probe %d: invalid kind %d", ErrParse, id, loc.Kind)
		}

		m.AddProbe(id, loc)
	}

	_, err = dec.Token()
	if err != nil {
		return fmt.Errorf("probes: %w", err)
	}

	return nil
}

// ToJSON serializes the map with two-space indentation.
func (m *Map) ToJSON() ([]byte, error) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode coverage map: %w", err)
	}

	return out, nil
}

// FromJSON parses a single coverage map object.
func FromJSON(data []byte) (*Map, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: map is null", ErrParse)
	}

	var m Map

	err := json.Unmarshal(data, &m)
	if errors.Is(err, ErrParse) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	return &m, nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// FromJSONArray parses an array of coverage map objects.
func FromJSONArray(data []byte) ([]*Map, error) {
	if isNull(data) {
		return nil, fmt.Errorf("%w: map array is null", ErrParse)
	}

	var maps []*Map

	err := json.Unmarshal(data, &maps)
	if errors.Is(err, ErrParse) {
		return nil, err
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	for i, m := range maps {
		if m == nil {
			return nil, fmt.Errorf("%w: element %d is null", ErrParse, i)
		}
	}

	return maps, nil
}

// Parse accepts either a single map object or an array of them.
func Parse(data []byte) ([]*Map, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	if trimmed[0] == '[' {
		return FromJSONArray(trimmed)
	}

	m, err := FromJSON(trimmed)
	if err != nil {
		return nil, err
	}

	return []*Map{m}, nil
}
