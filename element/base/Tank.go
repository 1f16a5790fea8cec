package base

import (
	"math"

	"pneumatic/element"
	"pneumatic/utils"
)

// TankType 定义元件
var TankType element.NodeType = element.AddElement(2, &Tank{
	&element.Config{
		Name: "tank",
		Pin:  element.SetPin(element.PinPneumatic, "p"),
		ValueInit: []any{
			utils.Pressure(0),               // 0: 初始压力 bar
			utils.Volume(DefaultTankVolume), // 1: 容积 m³
		},
		ValueName: []string{"pressure", "volume"},
	},
})

// Tank 气罐，单一容积
type Tank struct{ *element.Config }

func (Tank) Reset(value element.NodeFace) {
	port := value.Port(0)
	port.Pressure = value.GetFloat64(0)
	port.Volume = math.Max(value.GetFloat64(1), element.VolumeFloor)
}
