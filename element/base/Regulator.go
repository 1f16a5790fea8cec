package base

import (
	"pneumatic/control"
	"pneumatic/element"
	"pneumatic/utils"
)

// 减压阀专用数据索引
const (
	slotTarget   = 5 // 目标压力 bar
	slotKp       = 6 // 比例系数
	slotKi       = 7 // 积分系数
	slotLag      = 8 // 阀芯时间常数 s
	slotIntegral = 9 // 积分状态
)

// DefaultRegulatorLag 减压阀阀芯跟随控制输出的时间常数 s
const DefaultRegulatorLag = 0.02

// RegulatorType 定义元件
var RegulatorType element.NodeType = element.AddElement(7, &Regulator{
	&element.Config{
		Name: "regulator",
		Pin:  element.SetPin(element.PinPneumatic, "in", "out"),
		ValueInit: []any{
			utils.Length(DefaultPortLength), // 0: 端口长度 m
			utils.Pressure(0),               // 1: 初始压力 bar
			float64(0),                      // 2: 开度
			float64(0),                      // 3: 内部流量滤波状态
			float64(0),                      // 4: 导通截面
			utils.Pressure(0),               // 5: 目标压力 bar
			float64(0.5),                    // 6: Kp
			float64(5),                      // 7: Ki
			float64(DefaultRegulatorLag),    // 8: 阀芯时间常数 s
			float64(0),                      // 9: 积分状态
		},
		ValueName: []string{"length", "initialPressure", "", "", "", "pressure", "kp", "ki", "lag"},
		OrigValue: []int{slotOpening, slotLastFlow, slotFlowArea, slotIntegral},
	},
})

// Regulator 减压阀，PI 控制出口节点压力，阀芯以一阶惯性跟随控制输出
type Regulator struct{ *element.Config }

func (Regulator) Reset(value element.NodeFace) { resetTwoPort(value) }

// UpdateInternalState 由出口节点压力误差计算开度
func (Regulator) UpdateInternalState(ctx element.Context, value element.NodeFace) {
	pOut, ok := ctx.JunctionPressure(value.Base().Ports[1].Junction)
	if !ok {
		value.SetFloat64(slotOpening, 0)
		return
	}
	pi := control.PI{
		Kp:       value.GetFloat64(slotKp),
		Ki:       value.GetFloat64(slotKi),
		Integral: value.GetFloat64(slotIntegral),
	}
	command := pi.Update(value.GetFloat64(slotTarget)-pOut, ctx.DeltaT())
	value.SetFloat64(slotIntegral, pi.Integral)
	value.SetFloat64(slotOpening, control.Lag(value.GetFloat64(slotOpening), command, value.GetFloat64(slotLag), ctx.DeltaT()))
}

// CalculateInternalFlow 入口压力不高于出口压力时本步阻断，不允许回流
func (Regulator) CalculateInternalFlow(ctx element.Context, value element.NodeFace) {
	pIn, pOut, ok := junctionPressures(ctx, value.Base())
	setFlowArea(value, value.GetFloat64(slotOpening), ok && pIn > pOut)
}

func (Regulator) InternalFlow(ctx element.Context, value element.NodeFace, p1, p2 float64) float64 {
	return internalFlow(ctx, value, p1, p2, true)
}

func (Regulator) TransferCharge(ctx element.Context, value element.NodeFace) float64 {
	return transferCharge(ctx, value, true)
}

func (Regulator) LoggableValue(value element.NodeFace) float64 {
	return value.GetFloat64(slotOpening)
}
