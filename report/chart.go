package report

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"pneumatic/element"
	"pneumatic/model"
)

// 结果图尺寸
const (
	chartWidth      = 12 * vg.Inch
	mainChartHeight = 6 * vg.Inch
	valveRowHeight  = 0.4 * vg.Inch
	valveBaseHeight = 0.6 * vg.Inch
	valveSpacing    = 1.5 // 阀门状态轨道之间的间距
)

// ErrNoData 结果文件没有数据
var ErrNoData = errors.New("没有可绘制的数据")

// chartSeries 可见元件按阀门与压力元件分组
func chartSeries(m *model.Model) (pressures, valves []string) {
	for _, ele := range m.Elements {
		node := ele.Base()
		if !node.Visible {
			continue
		}
		if ele.Config().Control == element.ControlState {
			valves = append(valves, node.Name)
		} else {
			pressures = append(pressures, node.Name)
		}
	}
	return pressures, valves
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(18)
	p.X.Label.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)
	p.X.Tick.Label.Font.Size = vg.Points(11)
	p.Y.Tick.Label.Font.Size = vg.Points(11)
	p.Add(plotter.NewGrid())
}

// xys 组合时间列与数据列
func xys(time, values []float64, transform func(float64) float64) plotter.XYs {
	pts := make(plotter.XYs, len(time))
	for i := range time {
		pts[i].X = time[i]
		pts[i].Y = transform(values[i])
	}
	return pts
}

// pressurePlot 可见压力元件的压力曲线
func pressurePlot(h *History, names []string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Pressure Distribution"
	p.Y.Label.Text = "Pressure [bar]"
	p.Legend.Top = true
	stylePlot(p)
	for i, name := range names {
		values, ok := h.Series[name]
		if !ok {
			continue
		}
		line, err := plotter.NewLine(xys(h.Time, values, func(v float64) float64 { return v }))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	return p, nil
}

// valvePlot 阀门开关状态，每个阀门一条 0/1 轨道
func valvePlot(h *History, names []string) (*plot.Plot, error) {
	p := plot.New()
	p.X.Label.Text = "Time [s]"
	stylePlot(p)
	ticks := make([]plot.Tick, 0, len(names))
	for i, name := range names {
		offset := float64(i) * valveSpacing
		ticks = append(ticks, plot.Tick{Value: offset + 0.5, Label: name})
		values, ok := h.Series[name]
		if !ok {
			continue
		}
		line, err := plotter.NewLine(xys(h.Time, values, func(v float64) float64 {
			if v > 0.5 {
				return offset + 1
			}
			return offset
		}))
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(2)
		line.LineStyle.Color = plotutil.Color(i)
		p.Add(line)
	}
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Min, p.Y.Max = -1, float64(len(names))*valveSpacing
	return p, nil
}

// SaveChart 绘制结果图：上方为可见压力元件的压力曲线，
// 有可见阀门时在下方叠加阀门开关状态，两图共用时间轴范围。
func SaveChart(path string, h *History, m *model.Model) error {
	if len(h.Time) == 0 {
		return ErrNoData
	}
	pressures, valves := chartSeries(m)
	top, err := pressurePlot(h, pressures)
	if err != nil {
		return err
	}
	tMin, tMax := floats.Min(h.Time), floats.Max(h.Time)

	height := mainChartHeight
	var valve *plot.Plot
	valveHeight := vg.Length(0)
	if len(valves) > 0 {
		if valve, err = valvePlot(h, valves); err != nil {
			return err
		}
		valveHeight = max(valveBaseHeight+valveRowHeight*vg.Length(len(valves)), 1.5*vg.Inch)
		height += valveHeight
		top.X.Min, top.X.Max = tMin, tMax
		valve.X.Min, valve.X.Max = tMin, tMax
	} else {
		top.X.Label.Text = "Time [s]"
	}

	c := vgimg.New(chartWidth, height)
	dc := draw.New(c)
	top.Draw(draw.Crop(dc, 0, 0, valveHeight, 0))
	if valve != nil {
		valve.Draw(draw.Crop(dc, 0, 0, 0, -mainChartHeight))
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建结果图 %s: %w", path, err)
	}
	defer file.Close()
	bw := bufio.NewWriter(file)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("写入结果图失败: %w", err)
	}
	return bw.Flush()
}
