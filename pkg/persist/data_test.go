package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/covprobe/pkg/covdata"
	"github.com/Sumatoshi-tech/covprobe/pkg/probe"
)

func sampleData() *covdata.CoverageData {
	data := covdata.FromProbeHits([]covdata.ProbeHit{
		{ProbeID: 1, Kind: probe.KindLine, Count: 3},
		{ProbeID: 20, Kind: probe.KindBranchTrue, Count: 1},
	})
	data.StartTime = 1000
	data.EndTime = 2000

	return data
}

func TestCodecFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
	}{
		{name: "json", extension: ".json"},
		{name: "gob", extension: ".gob"},
		{name: "json.lz4", extension: ".json.lz4"},
		{name: "GOB.LZ4", extension: ".gob.lz4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			codec, err := CodecFor(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.extension, codec.Extension())
		})
	}

	_, err := CodecFor("xml")
	require.ErrorIs(t, err, ErrUnknownExtension)
}

func TestCodecForPath(t *testing.T) {
	t.Parallel()

	codec, err := CodecForPath("/tmp/run.json.lz4")
	require.NoError(t, err)
	assert.Equal(t, ".json.lz4", codec.Extension())

	codec, err = CodecForPath("run.GOB")
	require.NoError(t, err)
	assert.Equal(t, ".gob", codec.Extension())

	_, err = CodecForPath("run.txt")
	require.ErrorIs(t, err, ErrUnknownExtension)
}

func TestSaveLoadData_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"data.json", "data.gob", "data.json.lz4", "data.gob.lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			original := sampleData()

			require.NoError(t, SaveData(path, nil, original))

			loaded, err := LoadData(path)
			require.NoError(t, err)

			assert.Equal(t, original.Hits(), loaded.Hits())
			assert.Equal(t, original.StartTime, loaded.StartTime)
			assert.Equal(t, original.EndTime, loaded.EndTime)
		})
	}
}

func TestSaveData_ExplicitCodec(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data.json")

	require.NoError(t, SaveData(path, &JSONCodec{}, sampleData()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"probe_hits"`)
}

func TestSaveData_UnknownExtension(t *testing.T) {
	t.Parallel()

	err := SaveData(filepath.Join(t.TempDir(), "data.bin"), nil, sampleData())
	require.ErrorIs(t, err, ErrUnknownExtension)
}

func TestSaveData_InvalidDirectory(t *testing.T) {
	t.Parallel()

	err := SaveData("/nonexistent/path/that/does/not/exist/data.json", nil, sampleData())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create")
}

func TestLoadData_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadData(filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open")
}

func TestLoadData_DecodeError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corrupt.json")

	require.NoError(t, os.WriteFile(path, []byte("not json{{{"), 0o600))

	_, err := LoadData(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestLoadData_EmptyObject(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.json")

	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	data, err := LoadData(path)
	require.NoError(t, err)
	assert.NotNil(t, data.ProbeHits)
	assert.Equal(t, uint64(0), data.HitCount(1))
}

func TestLoadData_CorruptHits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		message string
	}{
		{"null entry", `{"probe_hits":{"1":null}}`, "probe 1: missing hit"},
		{"key mismatch", `{"probe_hits":{"1":{"probe_id":2,"kind":0,"count":4}}}`, "probe 2: keyed as 1"},
		{"unknown kind", `{"probe_hits":{"7":{"probe_id":7,"kind":9,"count":1}}}`, "probe 7: invalid kind 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "run.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := LoadData(path)
			require.ErrorIs(t, err, ErrCorruptData)
			assert.Contains(t, err.Error(), path)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadAll_RejectsNullHit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")

	require.NoError(t, SaveData(good, nil, sampleData()))
	require.NoError(t, os.WriteFile(bad, []byte(`{"probe_hits":{"1":null}}`), 0o600))

	require.NotPanics(t, func() {
		merged, err := LoadAll([]string{good, bad})
		assert.ErrorIs(t, err, ErrCorruptData)
		assert.Nil(t, merged)
	})
}

func TestLoadAll_Merges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.gob.lz4")

	require.NoError(t, SaveData(first, nil, sampleData()))

	other := covdata.FromProbeHits([]covdata.ProbeHit{{ProbeID: 1, Kind: probe.KindLine, Count: 2}})
	other.StartTime = 500
	other.EndTime = 2500

	require.NoError(t, SaveData(second, nil, other))

	merged, err := LoadAll([]string{first, second})
	require.NoError(t, err)

	assert.Equal(t, uint64(5), merged.HitCount(1))
	assert.Equal(t, uint64(1), merged.HitCount(20))
	assert.Equal(t, uint64(500), merged.StartTime)
	assert.Equal(t, uint64(2500), merged.EndTime)
}
