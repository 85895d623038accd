package report

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Trace is one drawable series of a figure. Reference traces (ideal and
// guide responses) draw dashed so they read apart from measured signals.
type Trace struct {
	Label     string
	T         []float64
	Y         []float64
	Reference bool
}

var traceColors = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
}

// FigurePNG renders one figure's traces to a PNG.
func FigurePNG(fig Figure, traces []Trace) ([]byte, error) {
	if len(traces) == 0 {
		return nil, fmt.Errorf("figure %q: no traces to plot", fig.Title)
	}

	p := plot.New()
	p.Title.Text = fig.Title
	p.X.Label.Text = "Time[s]"
	p.Y.Label.Text = "[" + fig.Units + "]"
	p.Add(plotter.NewGrid())

	for i, trace := range traces {
		if len(trace.T) != len(trace.Y) {
			return nil, fmt.Errorf("figure %q, trace %q: time and value lengths differ", fig.Title, trace.Label)
		}
		pts := make(plotter.XYs, len(trace.T))
		for j := range trace.T {
			pts[j] = plotter.XY{X: trace.T[j], Y: trace.Y[j]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("figure %q, trace %q: %v", fig.Title, trace.Label, err)
		}
		line.Color = traceColors[i%len(traceColors)]
		line.LineStyle.Width = vg.Points(1.5)
		if trace.Reference {
			line.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		}
		p.Add(line)
		p.Legend.Add(trace.Label, line)
	}

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(10)

	writer, err := p.WriterTo(vg.Points(800), vg.Points(400), "png")
	if err != nil {
		return nil, fmt.Errorf("figure %q: failed to create plot writer: %v", fig.Title, err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("figure %q: failed to write plot: %v", fig.Title, err)
	}
	return buf.Bytes(), nil
}
