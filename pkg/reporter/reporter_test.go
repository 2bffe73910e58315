package reporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
)

func testReport() *report.Report {
	r := report.New("src/main.rsx")
	r.Lines = []report.LineCoverage{
		{Line: 10, HitCount: 5, Covered: true},
		{Line: 11, HitCount: 0, Covered: false},
	}
	r.Functions = []report.FunctionCoverage{
		{Name: "main", StartLine: 10, EndLine: 20, HitCount: 1, Covered: true},
	}
	r.Branches = []report.BranchCoverage{
		{Line: 15, BranchIndex: 0, TrueCount: 3, FalseCount: 0},
	}
	r.Summary = report.Summary{
		TotalLines:       2,
		CoveredLines:     1,
		TotalFunctions:   1,
		CoveredFunctions: 1,
		TotalBranches:    1,
	}

	return r
}

func secondReport() *report.Report {
	r := report.New("src/util.rsx")
	r.Lines = []report.LineCoverage{{Line: 1, HitCount: 2, Covered: true}}
	r.Summary = report.Summary{TotalLines: 2, CoveredLines: 2}

	return r
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "75.0%", FormatPercent(75))
	assert.Equal(t, "100.0%", FormatPercent(100))
	assert.Equal(t, "33.3%", FormatPercent(33.333))
}

func TestColorClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		percent float64
		want    string
	}{
		{100, "high"},
		{80, "high"},
		{79.9, "medium"},
		{50, "medium"},
		{49.9, "low"},
		{0, "low"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ColorClass(tt.percent), "percent %v", tt.percent)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	for _, name := range Formats() {
		r, err := Lookup(name, Options{})
		require.NoError(t, err)
		assert.Equal(t, name, r.FormatName())
		assert.True(t, strings.HasPrefix(r.Extension(), "."))
	}

	r, err := Lookup(" LCOV ", Options{TestName: "unit"})
	require.NoError(t, err)
	assert.Equal(t, &LCOVReporter{TestName: "unit"}, r)

	_, err = Lookup("pdf", Options{})
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLCOVReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rep := &LCOVReporter{TestName: "test"}
	require.NoError(t, rep.Report(&buf, []*report.Report{testReport()}))

	want := strings.Join([]string{
		"TN:test",
		"SF:src/main.rsx",
		"FN:10,main",
		"FNDA:1,main",
		"FNF:1",
		"FNH:1",
		"BRDA:15,0,0,3",
		"BRDA:15,0,1,-",
		"BRF:2",
		"BRH:1",
		"DA:10,5",
		"DA:11,0",
		"LF:2",
		"LH:1",
		"end_of_record",
		"",
	}, "\n")

	assert.Equal(t, want, buf.String())
	assert.Equal(t, ".info", rep.Extension())
	assert.Equal(t, "lcov", rep.FormatName())
}

func TestLCOVReporter_NoTestNameAndMultipleFiles(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&LCOVReporter{}).Report(&buf, []*report.Report{testReport(), nil, secondReport()}))

	out := buf.String()
	assert.NotContains(t, out, "TN:")
	assert.Equal(t, 2, strings.Count(out, "end_of_record"))
	assert.Contains(t, out, "SF:src/util.rsx\n")
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&JSONReporter{}).Report(&buf, []*report.Report{testReport(), secondReport()}))

	var doc struct {
		Summary map[string]uint32 `json:"summary"`
		Files   []map[string]any  `json:"files"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, uint32(4), doc.Summary["total_lines"])
	assert.Equal(t, uint32(3), doc.Summary["covered_lines"])
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "src/main.rsx", doc.Files[0]["file"])
	assert.Contains(t, doc.Files[0], "lines")
	assert.Contains(t, doc.Files[0], "branches")
}

func TestJSONReporter_PrettyAndEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&JSONReporter{Pretty: true}).Report(&buf, nil))

	assert.Contains(t, buf.String(), "\n  \"summary\"")
	assert.Contains(t, buf.String(), `"files": []`)
}

func TestYAMLReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&YAMLReporter{}).Report(&buf, []*report.Report{testReport()}))

	var doc Document

	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, uint32(2), doc.Summary.TotalLines)
	require.Len(t, doc.Files, 1)
	assert.Equal(t, testReport(), doc.Files[0])
}

func TestTableReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&TableReporter{NoColor: true}).Report(&buf, []*report.Report{testReport(), secondReport()}))

	out := buf.String()
	assert.Contains(t, out, "src/main.rsx")
	assert.Contains(t, out, "src/util.rsx")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "3/4")
	assert.Contains(t, out, "75.0%")
	assert.NotContains(t, out, "\x1b[")
}

func TestTableReporter_LargeCountsUseSeparators(t *testing.T) {
	t.Parallel()

	r := report.New("big.rsx")
	r.Summary = report.Summary{TotalLines: 12000, CoveredLines: 9000}

	var buf bytes.Buffer

	require.NoError(t, (&TableReporter{NoColor: true}).Report(&buf, []*report.Report{r}))

	assert.Contains(t, buf.String(), "9,000/12,000")
}

func TestHTMLReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rep := &HTMLReporter{Title: "Nightly <coverage>"}
	require.NoError(t, rep.Report(&buf, []*report.Report{testReport(), secondReport()}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "Nightly &lt;coverage&gt;")
	assert.Contains(t, out, "echarts.min.js")
	assert.Contains(t, out, "src/util.rsx")
	assert.Contains(t, out, `<div class="metric-value medium">75.0%</div>`)
	assert.Contains(t, out, "<td>11</td>")
	assert.Equal(t, ".html", rep.Extension())
}

func TestPromReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, (&PromReporter{}).Report(&buf, []*report.Report{testReport(), secondReport()}))

	out := buf.String()
	assert.Contains(t, out, "# TYPE covprobe_lines_total gauge")
	assert.Contains(t, out, `covprobe_lines_total{file="src/main.rsx"} 2`)
	assert.Contains(t, out, `covprobe_lines_covered{file="src/util.rsx"} 2`)
	assert.Contains(t, out, `covprobe_functions_covered{file="src/main.rsx"} 1`)
	assert.Contains(t, out, `covprobe_branches_covered{file="src/main.rsx"} 0`)
}

func TestWriteToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "coverage.info")

	require.NoError(t, WriteToFile(&LCOVReporter{}, []*report.Report{testReport()}, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SF:src/main.rsx")
}

func TestWriteToFile_Error(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")

	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := WriteToFile(&LCOVReporter{}, nil, filepath.Join(blocker, "coverage.info"))
	require.ErrorIs(t, err, ErrWrite)
	assert.Contains(t, err.Error(), blocker)
}

func sourceOf(files map[string]string) func(string) ([]byte, error) {
	return func(file string) ([]byte, error) {
		src, ok := files[file]
		if !ok {
			return nil, os.ErrNotExist
		}

		return []byte(src), nil
	}
}

func TestFilePageName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "src_main.rsx.html", FilePageName("src/main.rsx"))
	assert.Equal(t, "C:_src_util.rsx.html", FilePageName(`C:\src\util.rsx`))
	assert.Equal(t, "main.rsx.html", FilePageName("main.rsx"))
}

func TestHTMLReporter_WriteToDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	mainSrc := strings.Repeat("// header\n", 9) + "if a < b {\n    return\n"

	rep := &HTMLReporter{Title: "Nightly"}
	require.NoError(t, rep.WriteToDirectory([]*report.Report{testReport(), secondReport()}, dir, sourceOf(map[string]string{
		"src/main.rsx": mainSrc,
		"src/util.rsx": "fn util() {}\n",
	})))

	index, err := os.ReadFile(filepath.Join(dir, HTMLIndexPage))
	require.NoError(t, err)
	assert.Contains(t, string(index), `<a href="src_main.rsx.html">src/main.rsx</a>`)
	assert.Contains(t, string(index), `<a href="src_util.rsx.html">src/util.rsx</a>`)

	page, err := os.ReadFile(filepath.Join(dir, "src_main.rsx.html"))
	require.NoError(t, err)

	out := string(page)
	assert.Contains(t, out, `<a href="index.html">Nightly</a>`)
	assert.Contains(t, out, `<tr><td class="num">1</td><td class="hits"></td><td class="src">// header</td></tr>`)
	assert.Contains(t, out,
		`<tr class="covered"><td class="num">10</td><td class="hits">5</td><td class="src">if a &lt; b {</td></tr>`)
	assert.Contains(t, out,
		`<tr class="uncovered"><td class="num">11</td><td class="hits">0</td><td class="src">    return</td></tr>`)
	assert.NotContains(t, out, `<td class="num">12</td>`)
}

func TestHTMLReporter_WriteToDirectoryEscapesSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	r := report.New(`lib/<x>.rsx`)
	r.Lines = []report.LineCoverage{{Line: 1, HitCount: 1, Covered: true}, {Line: 3, HitCount: 0}}
	r.Summary = report.Summary{TotalLines: 2, CoveredLines: 1}

	rep := &HTMLReporter{}
	require.NoError(t, rep.WriteToDirectory([]*report.Report{r}, dir, sourceOf(map[string]string{
		`lib/<x>.rsx`: "<script>alert(\"x\")</script> & more\r\n",
	})))

	page, err := os.ReadFile(filepath.Join(dir, FilePageName(`lib/<x>.rsx`)))
	require.NoError(t, err)

	out := string(page)
	assert.NotContains(t, out, "<script>alert")
	assert.Contains(t, out, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt; &amp; more</td>")
	assert.Contains(t, out, "<h1>lib/&lt;x&gt;.rsx</h1>")
	// Line 3 is instrumented but beyond the source.
	assert.Contains(t, out, `<tr class="uncovered"><td class="num">3</td><td class="hits">0</td><td class="src"></td></tr>`)
	assert.NotContains(t, out, `<td class="num">2</td>`)
}

func TestHTMLReporter_WriteToDirectorySourceError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	err := (&HTMLReporter{}).WriteToDirectory([]*report.Report{testReport()}, dir, sourceOf(nil))
	require.ErrorIs(t, err, ErrSourceFile)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "src/main.rsx")

	_, statErr := os.Stat(filepath.Join(dir, HTMLIndexPage))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
