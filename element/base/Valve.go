package base

import (
	"math"

	"pneumatic/element"
	"pneumatic/maths"
	"pneumatic/physics"
	"pneumatic/utils"
)

// 阀门专用数据索引
const (
	slotTransition = 5 // 开关过渡时间 ms
	slotCommanded  = 6 // 目标状态 0/1
	slotStart      = 7 // 过渡开始时的开度
	slotAnchor     = 8 // 过渡开始时间 s，-1 表示尚未动作
)

// commandTolerance 判断控制量是否变化的阈值
const commandTolerance = 1e-6

// ValveType 定义元件
var ValveType element.NodeType = element.AddElement(4, &Valve{
	&element.Config{
		Name: "valve",
		Pin:  element.SetPin(element.PinPneumatic, "in", "out"),
		ValueInit: []any{
			utils.Length(DefaultPortLength),      // 0: 端口长度 m
			utils.Pressure(0),                    // 1: 初始压力 bar
			float64(0),                           // 2: 开度
			float64(0),                           // 3: 内部流量滤波状态
			float64(0),                           // 4: 导通截面
			float64(physics.DefaultTransitionMs), // 5: 过渡时间 ms
			float64(0),                           // 6: 目标状态
			float64(0),                           // 7: 过渡起点开度
			float64(-1),                          // 8: 过渡开始时间
		},
		ValueName: []string{"length", "pressure", "", "", "", "transitionTime"},
		OrigValue: []int{slotOpening, slotLastFlow, slotFlowArea, slotCommanded, slotStart, slotAnchor},
		Control:   element.ControlState,
	},
})

// Valve 开关阀，开度沿 S 曲线在 0 与 1 之间过渡
type Valve struct{ *element.Config }

func (Valve) Reset(value element.NodeFace) { resetTwoPort(value) }

// UpdateInternalState 读取时间表中的目标状态，并按过渡曲线计算开度
// 交互模式下目标状态只由 SetControlValue 设置
func (Valve) UpdateInternalState(ctx element.Context, value element.NodeFace) {
	now := ctx.CurrentTime()
	if !ctx.Interactive() {
		target, at := 0.0, now
		if e, ok := element.ActiveEvent(value.Base().Schedule, now); ok {
			target, at = e.Value, e.Time
		}
		if math.Abs(target-value.GetFloat64(slotCommanded)) > commandTolerance {
			commandValve(value, target, at)
		}
	}
	updateOpening(value, now)
}

func (Valve) CalculateInternalFlow(ctx element.Context, value element.NodeFace) {
	gateByOpening(ctx, value)
}

func (Valve) InternalFlow(ctx element.Context, value element.NodeFace, p1, p2 float64) float64 {
	return internalFlow(ctx, value, p1, p2, false)
}

func (Valve) TransferCharge(ctx element.Context, value element.NodeFace) float64 {
	return transferCharge(ctx, value, false)
}

func (Valve) LoggableValue(value element.NodeFace) float64 {
	return value.GetFloat64(slotOpening)
}

func (Valve) SetControlValue(ctx element.Context, value element.NodeFace, v float64) bool {
	if math.Abs(v-value.GetFloat64(slotCommanded)) > commandTolerance {
		commandValve(value, v, ctx.CurrentTime())
	}
	return true
}

// commandValve 从当前开度开始一次新的过渡。
func commandValve(value element.NodeFace, target, at float64) {
	value.SetFloat64(slotStart, value.GetFloat64(slotOpening))
	value.SetFloat64(slotCommanded, maths.Clamp(target, 0, 1))
	value.SetFloat64(slotAnchor, at)
}

// updateOpening 开度 = 起点 + (目标 - 起点)·alpha(t - 过渡开始时间)。
func updateOpening(value element.NodeFace, now float64) {
	anchor := value.GetFloat64(slotAnchor)
	if anchor < 0 {
		return
	}
	alpha := physics.ValveTransitionAlpha((now-anchor)*1000, value.GetFloat64(slotTransition))
	value.SetFloat64(slotOpening, maths.Lerp(value.GetFloat64(slotStart), value.GetFloat64(slotCommanded), alpha))
}
