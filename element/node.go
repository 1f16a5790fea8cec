package element

// Port 元件端口，保存该端口的压力状态与电荷累加器索引。
type Port struct {
	Pressure float64 // 压力 bar
	Volume   float64 // 容积 m³，气源类端口为0
	Charge   int     // 电荷累加器索引
	Junction int     // 所连接的节点ID，未连接为-1
}

// Node 元件节点结构体，存储元件的动态数据和连接信息。
type Node struct {
	ConfigPtr       *Config     // 配置项指针。
	NodeType        NodeType    // 元件类型标识。
	ID              int         // 元件序号。
	Name            string      // 元件名称。
	Description     string      // 描述。
	Comment         string      // 备注。
	Visible         bool        // 是否在结果图中显示。
	FlowCoefficient float64     // 流量系数 Cd。
	Diameter        float64     // 通径 m。
	Area            float64     // 截面积 m²。
	Ports           []Port      // 端口列表。
	Schedule        []Event     // 已排序的时间表。
	NodeValue       []any       // 元件当前数据。
	OrigValue       map[int]any // 元件数据备份，用于复位。
}

// Base 获取元件的底层节点结构体指针。
func (node *Node) Base() *Node {
	return node
}

// Config 获取元件配置信息。
func (node *Node) Config() *Config {
	return node.ConfigPtr
}

// Type 获取元件的类型标识。
func (node *Node) Type() NodeType {
	return node.NodeType
}

// Port 获取指定端口，索引无效时返回nil。
func (node *Node) Port(i int) *Port {
	if i >= 0 && i < len(node.Ports) {
		return &node.Ports[i]
	}
	return nil
}

// Pressure 端口0压力。
func (node *Node) Pressure() float64 {
	if len(node.Ports) == 0 {
		return 0
	}
	return node.Ports[0].Pressure
}

// Rollback 回溯操作，将备份的参数值恢复到当前值。
func (node *Node) Rollback() {
	for i := range node.OrigValue {
		node.NodeValue[i] = node.OrigValue[i]
	}
}

// GetBool 获取指定索引处的逻辑值参数。
func (node *Node) GetBool(i int) bool {
	if i >= 0 && i < len(node.NodeValue) {
		return node.NodeValue[i].(bool)
	}
	return false
}

// GetFloat64 获取指定索引处的浮点数值参数。
func (node *Node) GetFloat64(i int) float64 {
	if i >= 0 && i < len(node.NodeValue) {
		return node.NodeValue[i].(float64)
	}
	return 0
}

// SetBool 设置指定索引处的逻辑值参数。
func (node *Node) SetBool(i int, v bool) {
	if i >= 0 && i < len(node.NodeValue) {
		node.NodeValue[i] = v
	}
}

// SetFloat64 设置指定索引处的浮点数值参数。
func (node *Node) SetFloat64(i int, v float64) {
	if i >= 0 && i < len(node.NodeValue) {
		node.NodeValue[i] = v
	}
}
