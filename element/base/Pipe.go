package base

import (
	"pneumatic/element"
	"pneumatic/utils"
)

// PipeType 定义元件
var PipeType element.NodeType = element.AddElement(3, &Pipe{
	&element.Config{
		Name: "pipe",
		Pin:  element.SetPin(element.PinPneumatic, "p"),
		ValueInit: []any{
			utils.Pressure(0),               // 0: 初始压力 bar
			utils.Length(DefaultPipeLength), // 1: 长度 m
		},
		ValueName: []string{"pressure", "length"},
	},
})

// Pipe 管道，容积为截面积乘长度
type Pipe struct{ *element.Config }

func (Pipe) Reset(value element.NodeFace) {
	node := value.Base()
	node.Ports[0].Pressure = value.GetFloat64(0)
	node.Ports[0].Volume = portVolume(node, value.GetFloat64(1))
}
