package reporter

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/covprobe/pkg/report"
	"github.com/Sumatoshi-tech/covprobe/pkg/safeconv"
)

const (
	defaultHTMLTitle = "Coverage Report"
	chartHeight      = "420px"
	xAxisRotate      = 30
	maxPercentAxis   = 100

	colorLines     = "#28a745"
	colorFunctions = "#007bff"
	colorBranches  = "#ffc107"

	// HTMLIndexPage is the summary page written by WriteToDirectory.
	HTMLIndexPage = "index.html"
)

// HTMLReporter writes a standalone HTML page with summary cards, a per-file
// bar chart and a file table.
type HTMLReporter struct {
	Title string
}

type htmlMetric struct {
	Label   string
	Percent string
	Class   string
	Detail  string
}

type htmlFile struct {
	File           string
	Page           string
	Lines          string
	LineClass      string
	Functions      string
	FunctionClass  string
	Branches       string
	BranchClass    string
	UncoveredLines string
}

type htmlPage struct {
	Title   string
	Metrics []htmlMetric
	Chart   template.HTML
	Files   []htmlFile
}

var pageTemplate = template.Must(template.New("coverage").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://go-echarts.github.io/go-echarts-assets/assets/echarts.min.js"></script>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; padding: 20px; background: #f8f9fa; color: #212529; }
.container { max-width: 1200px; margin: 0 auto; }
.summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; margin-bottom: 20px; }
.metric { background: white; border-radius: 8px; padding: 20px; text-align: center; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
.metric-value { font-size: 2em; font-weight: bold; }
.metric-label { color: #6c757d; font-size: 0.9em; }
.high { color: #28a745; } .medium { color: #c69500; } .low { color: #dc3545; }
table { width: 100%; border-collapse: collapse; background: white; }
th, td { padding: 8px 12px; border-bottom: 1px solid #dee2e6; text-align: left; }
</style>
</head>
<body>
<div class="container">
<h1>{{.Title}}</h1>
<div class="summary-grid">
{{- range .Metrics}}
<div class="metric"><div class="metric-value {{.Class}}">{{.Percent}}</div><div class="metric-label">{{.Label}} ({{.Detail}})</div></div>
{{- end}}
</div>
{{.Chart}}
<table>
<thead><tr><th>File</th><th>Lines</th><th>Functions</th><th>Branches</th><th>Uncovered lines</th></tr></thead>
<tbody>
{{- range .Files}}
<tr><td>{{if .Page}}<a href="{{.Page}}">{{.File}}</a>{{else}}{{.File}}{{end}}</td><td class="{{.LineClass}}">{{.Lines}}</td><td class="{{.FunctionClass}}">{{.Functions}}</td><td class="{{.BranchClass}}">{{.Branches}}</td><td>{{.UncoveredLines}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
</body>
</html>
`))

// Report implements Reporter.
func (h *HTMLReporter) Report(w io.Writer, reports []*report.Report) error {
	return h.renderIndex(w, reports, nil)
}

// WriteToDirectory writes HTMLIndexPage and one annotated source page per
// report into dir. The index links each file to its page. readSource loads
// the source of a report's file; nil reads it from disk.
func (h *HTMLReporter) WriteToDirectory(
	reports []*report.Report,
	dir string,
	readSource func(file string) ([]byte, error),
) error {
	if readSource == nil {
		readSource = os.ReadFile
	}

	pages := make(map[string]string, len(reports))

	for _, r := range reports {
		if r == nil {
			continue
		}

		src, err := readSource(r.File)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSourceFile, r.File, err)
		}

		name := FilePageName(r.File)

		err = writeRendered(filepath.Join(dir, name), func(w io.Writer) error {
			return h.renderFile(w, r, src)
		})
		if err != nil {
			return err
		}

		pages[r.File] = name
	}

	return writeRendered(filepath.Join(dir, HTMLIndexPage), func(w io.Writer) error {
		return h.renderIndex(w, reports, pages)
	})
}

// FilePageName is the page name of a source file: path separators become
// underscores and ".html" is appended.
func FilePageName(file string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(file) + ".html"
}

func (h *HTMLReporter) title() string {
	if h.Title == "" {
		return defaultHTMLTitle
	}

	return h.Title
}

func (h *HTMLReporter) renderIndex(w io.Writer, reports []*report.Report, pages map[string]string) error {
	total := report.AggregateSummaries(reports)

	chart, err := renderBarChart(reports)
	if err != nil {
		return err
	}

	page := htmlPage{
		Title: h.title(),
		Metrics: []htmlMetric{
			metricCard("Lines", total.LinePercent(), total.CoveredLines, total.TotalLines),
			metricCard("Functions", total.FunctionPercent(), total.CoveredFunctions, total.TotalFunctions),
			metricCard("Branches", total.BranchPercent(), total.CoveredBranches, total.TotalBranches),
		},
		Chart: chart,
	}

	for _, r := range reports {
		if r == nil {
			continue
		}

		page.Files = append(page.Files, htmlFile{
			File:           r.File,
			Page:           pages[r.File],
			Lines:          FormatPercent(r.Summary.LinePercent()),
			LineClass:      ColorClass(r.Summary.LinePercent()),
			Functions:      FormatPercent(r.Summary.FunctionPercent()),
			FunctionClass:  ColorClass(r.Summary.FunctionPercent()),
			Branches:       FormatPercent(r.Summary.BranchPercent()),
			BranchClass:    ColorClass(r.Summary.BranchPercent()),
			UncoveredLines: joinLines(r.UncoveredLines()),
		})
	}

	err = pageTemplate.Execute(w, page)
	if err != nil {
		return fmt.Errorf("html: %w", err)
	}

	return nil
}

type htmlSourceLine struct {
	Number uint32
	Hits   string
	Class  string
	Text   string
}

type htmlFilePage struct {
	Title   string
	File    string
	Index   string
	Summary []htmlMetric
	Lines   []htmlSourceLine
}

var filePageTemplate = template.Must(template.New("file").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.File}} - {{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; padding: 20px; background: #f8f9fa; color: #212529; }
.container { max-width: 1200px; margin: 0 auto; }
.summary span { margin-right: 20px; }
.high { color: #28a745; } .medium { color: #c69500; } .low { color: #dc3545; }
table { width: 100%; border-collapse: collapse; background: white; font-family: SFMono-Regular, Menlo, Consolas, monospace; font-size: 13px; }
td { padding: 0 8px; vertical-align: top; }
td.num, td.hits { text-align: right; color: #6c757d; user-select: none; }
td.src { white-space: pre; }
tr.covered td.src { background: #e6ffed; }
tr.uncovered td.src { background: #ffeef0; }
</style>
</head>
<body>
<div class="container">
<p><a href="{{.Index}}">{{.Title}}</a></p>
<h1>{{.File}}</h1>
<p class="summary">
{{- range .Summary}}
<span>{{.Label}}: <b class="{{.Class}}">{{.Percent}}</b> ({{.Detail}})</span>
{{- end}}
</p>
<table>
<tbody>
{{- range .Lines}}
<tr{{if .Class}} class="{{.Class}}"{{end}}><td class="num">{{.Number}}</td><td class="hits">{{.Hits}}</td><td class="src">{{.Text}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
</body>
</html>
`))

func (h *HTMLReporter) renderFile(w io.Writer, r *report.Report, src []byte) error {
	page := htmlFilePage{
		Title: h.title(),
		File:  r.File,
		Index: HTMLIndexPage,
		Summary: []htmlMetric{
			metricCard("Lines", r.Summary.LinePercent(), r.Summary.CoveredLines, r.Summary.TotalLines),
			metricCard("Functions", r.Summary.FunctionPercent(), r.Summary.CoveredFunctions, r.Summary.TotalFunctions),
			metricCard("Branches", r.Summary.BranchPercent(), r.Summary.CoveredBranches, r.Summary.TotalBranches),
		},
		Lines: annotateSource(src, r.Lines),
	}

	err := filePageTemplate.Execute(w, page)
	if err != nil {
		return fmt.Errorf("html: %s: %w", r.File, err)
	}

	return nil
}

// annotateSource pairs every source line with its coverage. Lines without
// probes carry no hit count; instrumented lines past the end of src are
// appended without text.
func annotateSource(src []byte, lines []report.LineCoverage) []htmlSourceLine {
	text := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	if len(text) > 0 && text[len(text)-1] == "" {
		text = text[:len(text)-1]
	}

	last := safeconv.MustIntToUint32(len(text))

	coverage := make(map[uint32]report.LineCoverage, len(lines))
	for _, lc := range lines {
		coverage[lc.Line] = lc
	}

	out := make([]htmlSourceLine, 0, len(text))

	for i, line := range text {
		n := safeconv.MustIntToUint32(i + 1)
		out = append(out, annotateLine(n, line, coverage))
	}

	for _, lc := range lines {
		if lc.Line > last {
			out = append(out, annotateLine(lc.Line, "", coverage))
		}
	}

	return out
}

func annotateLine(n uint32, text string, coverage map[uint32]report.LineCoverage) htmlSourceLine {
	row := htmlSourceLine{Number: n, Text: text}

	lc, ok := coverage[n]
	if !ok {
		return row
	}

	row.Hits = fmt.Sprint(lc.HitCount)
	row.Class = "uncovered"

	if lc.Covered {
		row.Class = "covered"
	}

	return row
}

func metricCard(label string, percent float64, covered, total uint32) htmlMetric {
	return htmlMetric{
		Label:   label,
		Percent: FormatPercent(percent),
		Class:   ColorClass(percent),
		Detail:  fmt.Sprintf("%d/%d", covered, total),
	}
}

func joinLines(lines []uint32) string {
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = fmt.Sprint(line)
	}

	return strings.Join(parts, ", ")
}

func renderBarChart(reports []*report.Report) (template.HTML, error) {
	var (
		files     []string
		lines     []opts.BarData
		functions []opts.BarData
		branches  []opts.BarData
	)

	for _, r := range reports {
		if r == nil {
			continue
		}

		files = append(files, r.File)
		lines = append(lines, opts.BarData{Value: roundPercent(r.Summary.LinePercent())})
		functions = append(functions, opts.BarData{Value: roundPercent(r.Summary.FunctionPercent())})
		branches = append(branches, opts.BarData{Value: roundPercent(r.Summary.BranchPercent())})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: "Coverage by file"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"}}),
		charts.WithYAxisOpts(opts.YAxis{Name: "%", Max: maxPercentAxis}),
	)
	bar.SetXAxis(files).
		AddSeries("Lines", lines, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorLines})).
		AddSeries("Functions", functions, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorFunctions})).
		AddSeries("Branches", branches, charts.WithItemStyleOpts(opts.ItemStyle{Color: colorBranches}))

	var buf bytes.Buffer

	err := bar.Render(&buf)
	if err != nil {
		return "", fmt.Errorf("rendering chart: %w", err)
	}

	//nolint:gosec // markup generated by go-echarts.
	return template.HTML(extractChartContent(buf.String())), nil
}

// extractChartContent keeps the chart div and script of a full go-echarts page.
func extractChartContent(page string) string {
	start := strings.Index(page, `<div class="container">`)
	if start == -1 {
		return page
	}

	end := strings.Index(page, `</body>`)
	if end == -1 {
		return page
	}

	content := page[start:end]
	content = strings.ReplaceAll(content, `class="container"`, `class="echart-box"`)

	return content
}

func roundPercent(value float64) float64 {
	const scale = 10

	return float64(int(value*scale+0.5)) / scale
}

// Extension implements Reporter.
func (h *HTMLReporter) Extension() string { return ".html" }

// FormatName implements Reporter.
func (h *HTMLReporter) FormatName() string { return FormatHTML }
