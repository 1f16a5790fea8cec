package debug

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Charts 曲线绘制
type Charts struct {
	Record
}

// newLine 创建时间曲线
func newLine(title, subtitle string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			SplitNumber: 20,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(false),
	)
	return line
}

// setSeries 按列写入曲线，rows 每行对应一个时间点
func setSeries(line *charts.Line, time []float64, names []string, rows [][]float64) {
	line.SetXAxis(time)
	items := make([][]opts.LineData, len(names))
	series := make([]charts.SingleSeries, len(names))
	for i, name := range names {
		items[i] = make([]opts.LineData, len(rows))
		series[i] = charts.SingleSeries{
			Name: name,
			Data: items[i],
			Type: types.ChartLine,
		}
		series[i].InitSeriesDefaultOpts(line.BaseConfiguration)
	}
	for x, row := range rows {
		for i, v := range row {
			if i < len(items) {
				items[i][x].Value = v
			}
		}
	}
	line.MultiSeries = series
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	// 初始化界面
	graph := charts.NewGraph()
	graph.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "气路节点信息",
			Subtitle: "元件与节点连接网络图",
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
	)
	graph.SetSeriesOptions(
		charts.WithEmphasisOpts(opts.Emphasis{
			Label: &opts.Label{
				Show:     opts.Bool(true),
				Color:    "black",
				Position: "left",
			},
		}),
		charts.WithLineStyleOpts(opts.LineStyle{
			Curveness: 0.3,
		}),
	)
	// 元件与节点
	graphNodes := make([]opts.GraphNode, 0, len(c.Elements)+len(c.NodeNames))
	for _, n := range c.Elements {
		graphNodes = append(graphNodes, opts.GraphNode{
			Name:     n,
			Category: 0,
			Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
		})
	}
	graphLink := make([]opts.GraphLink, 0)
	for i, name := range c.NodeNames {
		graphNodes = append(graphNodes, opts.GraphNode{
			Name:     name,
			Category: 1,
			Tooltip:  &opts.Tooltip{Show: opts.Bool(true)},
		})
		for _, y := range c.Nodes[i] {
			graphLink = append(graphLink, opts.GraphLink{
				Source: c.Elements[y[0]],
				Target: name,
				Value:  float32(y[1] + 1),
			})
		}
	}
	graph.AddSeries("气路列表", graphNodes, graphLink,
		charts.WithGraphChartOpts(opts.GraphChart{
			Categories: []*opts.GraphCategory{
				{Name: "元件", ItemStyle: &opts.ItemStyle{Color: "#c71979b7"}},
				{Name: "节点", ItemStyle: &opts.ItemStyle{Color: "#1987c7b7"}},
			},
			Roam:               opts.Bool(true),
			Force:              &opts.GraphForce{Repulsion: 80},
			EdgeLabel:          &opts.EdgeLabel{Show: opts.Bool(true)},
			FocusNodeAdjacency: opts.Bool(true),
		}))

	lineP := newLine("压力曲线", "节点压力随时间变化曲线 bar")
	setSeries(lineP, c.Time, c.NodeNames, c.Pressure)
	lineV := newLine("元件曲线", "阀门开度、EPU 目标与容积压力")
	setSeries(lineV, c.Time, c.Elements, c.Value)
	lineI := newLine("迭代次数", "节点求解迭代次数")
	setSeries(lineI, c.Time, c.NodeNames, c.Iterations)

	// 构建界面
	page := components.NewPage()
	page.AddCharts(
		graph,
		lineP,
		lineV,
		lineI,
	)
	return page.Render(w)
}
