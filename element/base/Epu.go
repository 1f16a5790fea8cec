package base

import (
	"log"

	"pneumatic/control"
	"pneumatic/element"
	"pneumatic/maths"
	"pneumatic/utils"
)

// EPU 数据索引
const (
	epuPressure     = 0 // 初始压力 bar
	epuTimeConstant = 1 // PT1 时间常数 s
	epuMaxDpDt      = 2 // PT1 最大变化率 bar/s
	epuFrequency    = 3 // PT2 固有频率
	epuDamping      = 4 // PT2 阻尼比
	epuUsePt2       = 5 // 使用 PT2 模型
	epuTarget       = 6 // 目标压力 bar
	epuVelocity     = 7 // PT2 速度状态
)

// EPU 动态模型默认参数
const (
	DefaultTimeConstant     = 0.1
	DefaultMaxDpDt          = 25.0
	DefaultNaturalFrequency = 20.0
	DefaultDampingRatio     = 0.7
)

// EpuType 定义元件
var EpuType element.NodeType = element.AddElement(8, &Epu{
	&element.Config{
		Name: "epu",
		Pin:  element.SetPin(element.PinPneumatic, "out"),
		ValueInit: []any{
			utils.Pressure(0),                // 0: 初始压力 bar
			float64(DefaultTimeConstant),     // 1: 时间常数 s
			float64(DefaultMaxDpDt),          // 2: 最大变化率 bar/s
			float64(DefaultNaturalFrequency), // 3: 固有频率
			float64(DefaultDampingRatio),     // 4: 阻尼比
			true,                             // 5: 使用 PT2
			float64(0),                       // 6: 目标压力
			float64(0),                       // 7: 速度
		},
		ValueName: []string{"pressure", "timeConstant", "maxDpDt", "naturalFrequency", "dampingRatio", "usePt2Model"},
		Source:    true,
		Control:   element.ControlPressure,
	},
})

// Epu 电子比例调压单元，压力按 PT1 或 PT2 模型跟踪目标压力
type Epu struct{ *element.Config }

// CirLoad 加载参数，无效的动态参数回退到默认值
func (e Epu) CirLoad(node element.NodeFace, params utils.Params) error {
	if err := e.Config.CirLoad(node, params); err != nil {
		return err
	}
	name := node.Base().Name
	if _, err := control.NewPT1(node.GetFloat64(epuTimeConstant), node.GetFloat64(epuMaxDpDt)); err != nil {
		log.Printf("EPU '%s': %s，使用默认 PT1 参数", name, err)
		node.SetFloat64(epuTimeConstant, DefaultTimeConstant)
		node.SetFloat64(epuMaxDpDt, DefaultMaxDpDt)
	}
	if _, err := control.NewPT2(node.GetFloat64(epuFrequency), node.GetFloat64(epuDamping)); err != nil {
		log.Printf("EPU '%s': %s，使用默认 PT2 参数", name, err)
		node.SetFloat64(epuFrequency, DefaultNaturalFrequency)
		node.SetFloat64(epuDamping, DefaultDampingRatio)
	}
	return nil
}

// Reset 目标压力从初始压力开始
func (Epu) Reset(value element.NodeFace) {
	port := value.Port(0)
	port.Pressure = value.GetFloat64(epuPressure)
	port.Volume = 0
	value.SetFloat64(epuTarget, port.Pressure)
	value.SetFloat64(epuVelocity, 0)
}

// UpdateInternalState 目标压力取时间表中最后一个已生效的条目，之前保持初始压力
func (Epu) UpdateInternalState(ctx element.Context, value element.NodeFace) {
	schedule := value.Base().Schedule
	if ctx.Interactive() || len(schedule) == 0 {
		return
	}
	target := value.GetFloat64(epuPressure)
	if e, ok := element.ActiveEvent(schedule, ctx.CurrentTime()); ok {
		target = e.Value
	}
	value.SetFloat64(epuTarget, target)
}

// CalcPressure 压力由动态模型决定，不使用电荷累加器
// 气源的压力变化不计入稳态判断，返回0
func (Epu) CalcPressure(ctx element.Context, value element.NodeFace) (float64, error) {
	port := value.Port(0)
	dt := ctx.DeltaT()
	target := value.GetFloat64(epuTarget)
	var p float64
	if value.GetBool(epuUsePt2) {
		pt2 := &control.PT2{
			NaturalFrequency: value.GetFloat64(epuFrequency),
			DampingRatio:     value.GetFloat64(epuDamping),
			Velocity:         value.GetFloat64(epuVelocity),
		}
		p = pt2.Update(port.Pressure, target, dt)
		value.SetFloat64(epuVelocity, pt2.Velocity)
	} else {
		pt1 := &control.PT1{
			TimeConstant: value.GetFloat64(epuTimeConstant),
			MaxRate:      value.GetFloat64(epuMaxDpDt),
		}
		p = pt1.Update(port.Pressure, target, dt)
	}
	if !maths.IsFinite(p) {
		return 0, element.InvalidPressure(ctx, value.Base(), 0, p)
	}
	port.Pressure = max(p, 0)
	return 0, nil
}

// LoggableValue 可见时记录目标压力，否则记录实际压力
func (Epu) LoggableValue(value element.NodeFace) float64 {
	if value.Base().Visible {
		return value.GetFloat64(epuTarget)
	}
	return value.Base().Pressure()
}

func (Epu) SetControlValue(ctx element.Context, value element.NodeFace, v float64) bool {
	value.SetFloat64(epuTarget, max(v, 0))
	return true
}
