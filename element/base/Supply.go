package base

import (
	"pneumatic/element"
	"pneumatic/utils"
)

// SupplyType 定义元件
var SupplyType element.NodeType = element.AddElement(0, &Supply{
	&element.Config{
		Name:      "supply",                                    // 元件名称，模型文件中使用的类型
		Pin:       element.SetPin(element.PinPneumatic, "out"), // 气源只有一个端口
		ValueInit: []any{utils.Pressure(0)},                    // 0: 供气压力 bar
		ValueName: []string{"pressure"},
		Source:    true,
	},
})

// Supply 气源，压力恒定
type Supply struct{ *element.Config }

func (Supply) Reset(value element.NodeFace) {
	port := value.Port(0)
	port.Pressure = value.GetFloat64(0)
	port.Volume = 0
}

// CalcPressure 压力固定，不计入稳态判断
func (Supply) CalcPressure(ctx element.Context, value element.NodeFace) (float64, error) {
	return 0, nil
}

// ExhaustType 定义元件
var ExhaustType element.NodeType = element.AddElement(1, &Exhaust{
	&element.Config{
		Name:   "exhaust",
		Pin:    element.SetPin(element.PinPneumatic, "in"),
		Source: true,
	},
})

// Exhaust 排气口，压力固定为0
type Exhaust struct{ *element.Config }

func (Exhaust) Reset(value element.NodeFace) {
	port := value.Port(0)
	port.Pressure = 0
	port.Volume = 0
}

func (Exhaust) CalcPressure(ctx element.Context, value element.NodeFace) (float64, error) {
	return 0, nil
}
