package base

import (
	"pneumatic/element"
	"pneumatic/utils"
)

// slotOpeningDelta 单向阀开启压差 bar
const slotOpeningDelta = 5

// CheckValveType 定义元件
var CheckValveType element.NodeType = element.AddElement(6, &CheckValve{
	&element.Config{
		Name: "checkvalve",
		Pin:  element.SetPin(element.PinPneumatic, "in", "out"),
		ValueInit: []any{
			utils.Length(DefaultPortLength), // 0: 端口长度 m
			utils.Pressure(0),               // 1: 初始压力 bar
			float64(1),                      // 2: 开度
			float64(0),                      // 3: 内部流量滤波状态
			float64(0),                      // 4: 导通截面
			utils.Pressure(0.05),            // 5: 开启压差 bar
		},
		ValueName: []string{"length", "pressure", "", "", "", "openingDeltaP"},
		OrigValue: []int{slotLastFlow, slotFlowArea},
	},
})

// CheckValve 单向阀，只允许从端口1流向端口2
type CheckValve struct{ *element.Config }

func (CheckValve) Reset(value element.NodeFace) { resetTwoPort(value) }

// CalculateInternalFlow 入口节点压力超过出口节点压力加开启压差时本步导通
func (CheckValve) CalculateInternalFlow(ctx element.Context, value element.NodeFace) {
	p1, p2, ok := junctionPressures(ctx, value.Base())
	setFlowArea(value, value.GetFloat64(slotOpening), ok && p1 > p2+value.GetFloat64(slotOpeningDelta))
}

func (CheckValve) InternalFlow(ctx element.Context, value element.NodeFace, p1, p2 float64) float64 {
	return internalFlow(ctx, value, p1, p2, true)
}

func (CheckValve) TransferCharge(ctx element.Context, value element.NodeFace) float64 {
	return transferCharge(ctx, value, true)
}

func (CheckValve) LoggableValue(value element.NodeFace) float64 {
	return value.GetFloat64(slotOpening)
}
