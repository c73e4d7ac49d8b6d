package export

import (
	"fmt"
	"io"
	"sort"

	"packview/internal/palette"
	"packview/internal/session"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTMLOptions configures the chart page.
type HTMLOptions struct {
	Theme      string // echarts theme, e.g. "dark" or "white"
	AssetsHost string // optional override for the echarts script host
}

// layerChart builds one scatter chart for a layer. Each display id is its own
// series so the legend can toggle boxes; points sit at (x, z) so the chart
// reads like the terminal view, depth growing upwards.
func layerChart(f session.Frame, o HTMLOptions) *charts.Scatter {
	type series struct {
		name  string
		color palette.Color
		data  []opts.ScatterData
	}
	byID := map[int]*series{}
	for _, row := range f.Rows {
		for _, cell := range row {
			s, ok := byID[cell.DisplayID]
			if !ok {
				name := "empty"
				if !cell.Style.Empty {
					name = fmt.Sprintf("%s (%d)", cell.Box, cell.DisplayID)
				}
				s = &series{name: name, color: cell.Style.Base}
				byID[cell.DisplayID] = s
			}
			s.data = append(s.data, opts.ScatterData{
				Name:   string(cell.Box),
				Value:  []interface{}{cell.X, cell.Z, string(cell.Box)},
				Symbol: "rect",
			})
		}
	}

	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	initOpts := opts.Initialization{
		PageTitle: fmt.Sprintf("Shipment %s", f.ShipmentID),
		Theme:     o.Theme,
		Width:     "720px",
		Height:    "720px",
	}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Layer %d of %d", f.Layer+1, f.Dims.Height),
			Subtitle: fmt.Sprintf("Container Size: %s", f.Dims),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -1, Max: f.Dims.Width, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -1, Max: f.Dims.Depth, Name: "z", NameLocation: "middle", NameGap: 30}),
	)

	symbol := 600 / max(f.Dims.Width, f.Dims.Depth, 1)
	for _, id := range ids {
		s := byID[id]
		scatter.AddSeries(s.name, s.data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: symbol}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: string(s.color)}),
		)
	}
	return scatter
}

// WriteHTML renders one chart per layer onto a single page.
func WriteHTML(w io.Writer, frames []session.Frame, o HTMLOptions) error {
	if len(frames) == 0 {
		return fmt.Errorf("nothing to export")
	}
	page := components.NewPage()
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	for _, f := range frames {
		page.AddCharts(layerChart(f, o))
	}
	return page.Render(w)
}
