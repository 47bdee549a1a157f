package importance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Render writes the table as an aligned text grid.
func (t Table) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Feature", "Importance"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, e := range t {
		table.Append([]string{
			strconv.Itoa(i + 1),
			e.Feature,
			strconv.FormatFloat(e.Importance, 'f', 6, 64),
		})
	}
	table.Render()
}

// WriteCSV writes feature,importance rows under a header.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"feature", "importance"}); err != nil {
		return err
	}
	for _, e := range t {
		if err := cw.Write([]string{e.Feature, strconv.FormatFloat(e.Importance, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Plot saves a horizontal bar chart of the table to filename. The image
// format follows the file extension.
func (t Table) Plot(filename, title string) error {
	if len(t) == 0 {
		return errors.New("importance: nothing to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Importance"

	// Bars are drawn bottom-up; reverse so the top feature sits on top.
	n := len(t)
	values := make(plotter.Values, n)
	names := make([]string, n)
	for i, e := range t {
		values[n-1-i] = e.Importance
		names[n-1-i] = e.Feature
	}
	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return fmt.Errorf("importance: bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = color.RGBA{R: 50, G: 110, B: 200, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalY(names...)

	height := vg.Points(float64(20*n + 80))
	if err := p.Save(8*vg.Inch, height, filename); err != nil {
		return fmt.Errorf("importance: save %s: %w", filename, err)
	}
	return nil
}

// PlotPredictions saves a predicted-versus-actual scatter with the identity
// line, so misfit rows stand out as distance from the diagonal.
func PlotPredictions(filename, title string, yTrue, yPred []float64) error {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return errors.New("importance: need matching non-empty targets and predictions")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual"
	p.Y.Label.Text = "Predicted"

	lo, hi := math.Inf(1), math.Inf(-1)
	pts := make(plotter.XYs, len(yTrue))
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
		lo = math.Min(lo, math.Min(yTrue[i], yPred[i]))
		hi = math.Max(hi, math.Max(yTrue[i], yPred[i]))
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("importance: scatter: %w", err)
	}
	s.Color = color.RGBA{B: 255, A: 255, R: 50, G: 50}
	s.Shape = draw.CircleGlyph{}
	s.Radius = vg.Points(2)
	p.Add(s)

	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return fmt.Errorf("importance: identity line: %w", err)
	}
	l.Color = color.RGBA{R: 255, A: 255}
	l.LineStyle.Width = vg.Points(1)
	p.Add(l)

	if err := p.Save(6*vg.Inch, 6*vg.Inch, filename); err != nil {
		return fmt.Errorf("importance: save %s: %w", filename, err)
	}
	return nil
}
