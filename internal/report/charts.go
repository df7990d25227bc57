package report

import (
	"fmt"
	"image/color"

	"market-map/internal/region"
	"market-map/internal/strategy"
	"market-map/internal/trend"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	ChartWidth  = 12 * vg.Inch
	ChartHeight = 8 * vg.Inch
)

// hexColor parses "#rrggbb"; anything else is grey.
func hexColor(s string) color.RGBA {
	c := color.RGBA{R: 0x63, G: 0x6e, B: 0x72, A: 0xff}
	var r, g, b uint8
	if n, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil && n == 3 {
		c = color.RGBA{R: r, G: g, B: b, A: 0xff}
	}
	return c
}

// ScatterPlot: restaurants (x) against visitors in 만 명 (y), one series per quadrant in marker
// colours. The selected region is drawn larger and labelled.
func ScatterPlot(set *region.Set, selected string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Supply vs demand"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "restaurants"
	p.Y.Label.Text = "visitors (10k)"
	p.Add(plotter.NewGrid())

	groups := set.ByQuadrant()
	for _, q := range region.Quadrants {
		list := groups[q]
		if len(list) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(list))
		for i, r := range list {
			pts[i].X = float64(r.Restaurant)
			pts[i].Y = float64(r.Visitor) / 10000
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = hexColor(strategy.StyleOf(q).MarkerColor)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add(string(q), sc)
	}

	if r, ok := set.ByName(selected); ok {
		pt := plotter.XYs{{X: float64(r.Restaurant), Y: float64(r.Visitor) / 10000}}
		sc, err := plotter.NewScatter(pt)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = hexColor(strategy.StyleOf(r.Quadrant).MarkerColor)
		sc.GlyphStyle.Shape = draw.RingGlyph{}
		sc.GlyphStyle.Radius = vg.Points(10)
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: pt, Labels: []string{r.ShortName()}})
		if err != nil {
			return nil, err
		}
		p.Add(sc, lbl)
	}
	p.Legend.Top = true
	return p, nil
}

// TrendPlot: line chart of one series, labels on the x axis.
func TrendPlot(s trend.Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = s.Title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Y.Label.Text = "search index"
	p.Y.Min = 0
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(s.Values))
	for i, v := range s.Values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, dots, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 0xF3, G: 0x70, B: 0x21, A: 0xff}
	line.Width = vg.Points(2)
	dots.Shape = draw.CircleGlyph{}
	dots.Color = line.Color
	p.Add(line, dots)
	p.NominalX(s.Labels...)
	return p, nil
}

// SaveScatter writes ScatterPlot to path; the extension picks the format (png, svg, pdf).
func SaveScatter(path string, set *region.Set, selected string) error {
	p, err := ScatterPlot(set, selected)
	if err != nil {
		return err
	}
	return p.Save(ChartWidth, ChartHeight, path)
}

func SaveTrend(path string, s trend.Series) error {
	p, err := TrendPlot(s)
	if err != nil {
		return err
	}
	return p.Save(ChartWidth, ChartHeight, path)
}
