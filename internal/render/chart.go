package render

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/polairhq/polair/internal/airdata"
)

const (
	chartWidth   = 800
	chartHeight  = 400
	chartPadding = 50
)

var chartTemplate = template.Must(template.New("chart").Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}" viewBox="0 0 {{.Width}} {{.Height}}">
<rect width="100%" height="100%" fill="white"/>
<text x="{{.TitleX}}" y="24" text-anchor="middle" font-family="sans-serif" font-size="16">{{.Title}}</text>
<polyline points="{{.Points}}" fill="none" stroke="steelblue" stroke-width="2"/>
{{range .Labels}}<text x="{{.X}}" y="{{.Y}}" font-family="sans-serif" font-size="10" fill="#555">{{.Text}}</text>
{{end}}</svg>
`))

type chartLabel struct {
	X, Y int
	Text string
}

type chartData struct {
	Width  int
	Height int
	TitleX int
	Title  string
	Points string
	Labels []chartLabel
}

// WriteChart renders a measurement series as a standalone SVG line chart at
// path. Measurements without a value are ignored.
func WriteChart(ms []airdata.Measurement, title, path string) error {
	filt := make([]airdata.Measurement, 0, len(ms))
	for _, m := range ms {
		if m.Value != nil {
			filt = append(filt, m)
		}
	}
	if len(filt) == 0 {
		return fmt.Errorf("chart %q: no plottable values", title)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	data := chartData{
		Width:  chartWidth,
		Height: chartHeight,
		TitleX: chartWidth / 2,
		Title:  title,
		Points: polylinePoints(filt),
		Labels: axisLabels(filt),
	}
	if err := chartTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// polylinePoints scales the series into the drawable area. Time maps to x,
// value to y (inverted, SVG y grows downward).
func polylinePoints(ms []airdata.Measurement) string {
	minV, maxV := *ms[0].Value, *ms[0].Value
	for _, m := range ms {
		if *m.Value < minV {
			minV = *m.Value
		}
		if *m.Value > maxV {
			maxV = *m.Value
		}
	}

	t0 := ms[0].At
	span := ms[len(ms)-1].At.Sub(t0).Seconds()
	vspan := maxV - minV

	drawW := float64(chartWidth - 2*chartPadding)
	drawH := float64(chartHeight - 2*chartPadding)

	var b strings.Builder
	for i, m := range ms {
		xfrac := 0.5
		if span > 0 {
			xfrac = m.At.Sub(t0).Seconds() / span
		}
		yfrac := 0.5
		if vspan > 0 {
			yfrac = (*m.Value - minV) / vspan
		}
		x := chartPadding + xfrac*drawW
		y := float64(chartHeight-chartPadding) - yfrac*drawH
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}
	return b.String()
}

func axisLabels(ms []airdata.Measurement) []chartLabel {
	first := ms[0]
	last := ms[len(ms)-1]
	return []chartLabel{
		{X: chartPadding, Y: chartHeight - chartPadding/2, Text: first.At.Format(airdata.TimestampLayout)},
		{X: chartWidth - 3*chartPadding, Y: chartHeight - chartPadding/2, Text: last.At.Format(airdata.TimestampLayout)},
	}
}
