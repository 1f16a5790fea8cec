package base

import (
	"pneumatic/element"
	"pneumatic/utils"
)

// ThrottleType 定义元件
var ThrottleType element.NodeType = element.AddElement(5, &Throttle{
	&element.Config{
		Name: "throttle",
		Pin:  element.SetPin(element.PinPneumatic, "in", "out"),
		ValueInit: []any{
			utils.Length(DefaultPortLength), // 0: 端口长度 m
			utils.Pressure(0),               // 1: 初始压力 bar
			float64(1),                      // 2: 开度，始终为1
			float64(0),                      // 3: 内部流量滤波状态
			float64(0),                      // 4: 导通截面
		},
		ValueName: []string{"length", "pressure"},
		OrigValue: []int{slotLastFlow, slotFlowArea},
	},
})

// Throttle 节流阀，固定开度，流量由通径决定
type Throttle struct{ *element.Config }

func (Throttle) Reset(value element.NodeFace) { resetTwoPort(value) }

func (Throttle) CalculateInternalFlow(ctx element.Context, value element.NodeFace) {
	gateByOpening(ctx, value)
}

func (Throttle) InternalFlow(ctx element.Context, value element.NodeFace, p1, p2 float64) float64 {
	return internalFlow(ctx, value, p1, p2, false)
}

func (Throttle) TransferCharge(ctx element.Context, value element.NodeFace) float64 {
	return transferCharge(ctx, value, false)
}

func (Throttle) LoggableValue(value element.NodeFace) float64 {
	return value.GetFloat64(slotOpening)
}
