package element

import (
	"log"
	"strings"

	"pneumatic/utils"
)

// PinType 引脚类型
type PinType uint8

const (
	PinPneumatic PinType = (1 << iota) // 气路引脚
)

// ControlKind 元件可接受的控制量类型
type ControlKind uint8

const (
	ControlNone     ControlKind = iota // 不可控制
	ControlState                       // 开关状态 0/1（阀门时间线）
	ControlPressure                    // 目标压力 bar（EPU 时间线）
)

// elementFace 元件接口，组合了配置接口和元件实现接口
type elementFace interface {
	ConfigFace  // 元件配置接口，提供元件的静态配置信息
	ElementFace // 元件实现接口，提供元件的动态行为实现
}

// ElementList 元件类型注册表
var ElementList = map[NodeType]elementFace{}

// ElementListName 元件名称到类型的映射，键为小写名称
var ElementListName = map[string]NodeType{}

// AddElement 注册元件类型到全局元件列表
// 注意：如果元件类型或名称已注册，会触发致命错误并终止程序
func AddElement(eleType NodeType, face elementFace) NodeType {
	if _, ok := ElementList[eleType]; ok {
		log.Fatalf("元件重复注册: %d", eleType)
	}
	name := strings.ToLower(face.GetConfig().Name)
	if _, ok := ElementListName[name]; ok {
		log.Fatalf("元件名称重复注册: %s", name)
	}
	ElementList[eleType] = face
	ElementListName[name] = eleType
	return eleType
}

// NodeType 元件类型标识
type NodeType uint

// Config 获取指定元件类型的配置信息
// 返回：指向元件配置结构体的指针，如果类型未注册则返回nil
func (t NodeType) Config() *Config {
	if node, ok := ElementList[t]; ok {
		return node.GetConfig()
	}
	return nil
}

// String 元件类型名称
func (t NodeType) String() string {
	if config := t.Config(); config != nil {
		return config.Name
	}
	return "unknown"
}

// PinNum 获取指定元件类型的端口数量
func (t NodeType) PinNum() int {
	if node, ok := ElementList[t]; ok {
		return node.PinNum()
	}
	return 0
}

// NodeFace 元件节点接口，提供对元件动态数据的访问和操作
type NodeFace interface {
	Type() NodeType              // 获取元件类型标识
	Base() *Node                 // 获取底层节点结构体指针
	Config() *Config             // 获取元件配置
	Rollback()                   // 回溯操作：将备份值恢复到当前值
	Port(i int) *Port            // 获取第i个端口
	GetFloat64(i int) float64    // 获取第i个浮点数值参数
	GetBool(i int) bool          // 获取第i个逻辑值参数
	SetFloat64(i int, v float64) // 设置第i个浮点数值参数
	SetBool(i int, v bool)       // 设置第i个逻辑值参数
}

// ConfigFace 元件配置接口，提供元件的静态配置信息
type ConfigFace interface {
	GetConfig() *Config                   // 获取元件配置结构体指针
	PinNum() int                          // 获取端口数量
	ValueNum() int                        // 获取元件参数数量
	Reset(value NodeFace)                 // 由参数恢复端口初始压力与容积
	CirLoad(NodeFace, utils.Params) error // 从模型参数加载元件值
	CirExport(NodeFace) utils.Params      // 导出元件参数
	LoggableValue(value NodeFace) float64 // 记录到结果中的值
}

// ElementFace 元件实现接口，定义元件在每个仿真步中的行为
type ElementFace interface {
	UpdateInternalState(ctx Context, value NodeFace)                  // 时间表与控制量更新
	CalculateInternalFlow(ctx Context, value NodeFace)                // 由上一步节点压力确定内部通路的导通截面
	InternalFlow(ctx Context, value NodeFace, p1, p2 float64) float64 // 节点压力为 p1、p2 时端口1流向端口2的电荷流量
	TransferCharge(ctx Context, value NodeFace) float64               // 按本步节点压力在两端口之间转移电荷，返回体积流量
	CalcPressure(ctx Context, value NodeFace) (float64, error)        // 积分电荷得到新压力，返回最大压力变化
	SetControlValue(ctx Context, value NodeFace, v float64) bool      // 交互模式下直接设置控制量
}
