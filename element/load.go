package element

import (
	"fmt"
	"log"
	"strings"

	"pneumatic/physics"
	"pneumatic/utils"
)

// NewElement 根据元件类型名称创建新的元件实例。
// 参数:
//
//	id: 元件序号。
//	typeName: 元件类型名称，忽略大小写。
//	name: 元件名称。
//	params: 元件参数。
//
// 返回:
//
//	NodeFace: 新创建的元件节点接口。
//	error: 类型未注册或参数格式错误。
func NewElement(id int, typeName, name string, params utils.Params) (NodeFace, error) {
	nodeType, ok := ElementListName[strings.ToLower(strings.TrimSpace(typeName))]
	if !ok {
		return nil, fmt.Errorf("元件 '%s': 未知的元件类型 '%s'", name, typeName)
	}
	eleFace := ElementList[nodeType]
	config := eleFace.GetConfig()
	node := &Node{
		ConfigPtr:       config,
		NodeType:        nodeType,
		ID:              id,
		Name:            name,
		FlowCoefficient: 1.0,
		Ports:           make([]Port, config.PinNum()),
		NodeValue:       make([]any, config.ValueNum()),
		OrigValue:       make(map[int]any),
	}
	for i := range node.Ports {
		node.Ports[i].Charge = -1
		node.Ports[i].Junction = -1
	}
	// 初始化参数。
	for i, v := range config.ValueInit {
		node.NodeValue[i] = normalizeValue(v)
	}
	// 通径。
	diameter, err := params.ParseLength("diameter", DefaultDiameter)
	if err != nil {
		return nil, fmt.Errorf("元件 '%s': %w", name, err)
	}
	if diameter <= 0 {
		log.Printf("元件 '%s' 通径 %v 无效，使用默认值 %v m", name, diameter, DefaultDiameter)
		diameter = DefaultDiameter
	}
	node.Diameter = diameter
	node.Area = physics.PortArea(diameter)
	// 加载参数。
	if err := eleFace.CirLoad(node, params); err != nil {
		return nil, fmt.Errorf("元件 '%s': %w", name, err)
	}
	// 备份元件数据。
	for _, n := range config.OrigValue {
		node.OrigValue[n] = node.NodeValue[n]
	}
	// 元件初始化。
	eleFace.Reset(node)
	return node, nil
}

// normalizeValue 单位类型统一保存为float64。
func normalizeValue(v any) any {
	switch val := v.(type) {
	case utils.Pressure:
		return float64(val)
	case utils.Length:
		return float64(val)
	case utils.Volume:
		return float64(val)
	}
	return v
}

// Reset 恢复元件到加载后的初始状态。
func Reset(value NodeFace) {
	value.Rollback()
	ElementList[value.Type()].Reset(value)
}
