package base

import (
	"math"

	"pneumatic/element"
	"pneumatic/maths"
	"pneumatic/physics"
)

// 两端口元件（阀门、节流阀、单向阀、减压阀）共用的数据索引
const (
	slotLength   = 0 // 端口长度 m
	slotPressure = 1 // 初始压力 bar
	slotOpening  = 2 // 当前开度 0..1
	slotLastFlow = 3 // 内部流量滤波状态 m³/s
	slotFlowArea = 4 // 本步导通截面 m²，0 表示阻断
)

const (
	DefaultPipeLength = 0.1   // 管道默认长度 m
	DefaultPortLength = 0.03  // 阀门端口默认长度 m
	DefaultTankVolume = 0.001 // 气罐默认容积 m³
)

// portVolume 截面积乘长度，下限为 element.VolumeFloor。
func portVolume(node *element.Node, length float64) float64 {
	return math.Max(node.Area*length, element.VolumeFloor)
}

// resetTwoPort 两个端口使用相同的初始压力与容积。
func resetTwoPort(value element.NodeFace) {
	node := value.Base()
	volume := portVolume(node, value.GetFloat64(slotLength))
	for i := range node.Ports {
		node.Ports[i].Pressure = value.GetFloat64(slotPressure)
		node.Ports[i].Volume = volume
	}
}

// junctionPressures 两个端口所连节点的压力。
func junctionPressures(ctx element.Context, node *element.Node) (p1, p2 float64, ok bool) {
	p1, ok1 := ctx.JunctionPressure(node.Ports[0].Junction)
	p2, ok2 := ctx.JunctionPressure(node.Ports[1].Junction)
	return p1, p2, ok1 && ok2
}

// setFlowArea 设置本步导通截面，阻断时清除滤波状态。
func setFlowArea(value element.NodeFace, opening float64, open bool) {
	area := value.Base().Area * opening
	if !open || maths.IsZero(opening) || area <= maths.Epsilon {
		value.SetFloat64(slotFlowArea, 0)
		value.SetFloat64(slotLastFlow, 0)
		return
	}
	value.SetFloat64(slotFlowArea, area)
}

// gateByOpening 节点都已连接时按开度导通。
func gateByOpening(ctx element.Context, value element.NodeFace) {
	_, _, ok := junctionPressures(ctx, value.Base())
	setFlowArea(value, value.GetFloat64(slotOpening), ok)
}

// smoothedFlow 节点压力为 p1、p2 时的滤波体积流量。
// 参数forward: 只允许从端口1流向端口2。
func smoothedFlow(ctx element.Context, value element.NodeFace, p1, p2 float64, forward bool) float64 {
	area := value.GetFloat64(slotFlowArea)
	if area <= 0 {
		return 0
	}
	q := ctx.Physics().SmoothedFlow(p1, p2, area, value.Base().FlowCoefficient, value.GetFloat64(slotLastFlow), ctx.DeltaT())
	if forward && q < 0 {
		return 0
	}
	return q
}

// internalFlow 端口1流向端口2的电荷流量。
func internalFlow(ctx element.Context, value element.NodeFace, p1, p2 float64, forward bool) float64 {
	q := smoothedFlow(ctx, value, p1, p2, forward)
	return physics.ChargeFlow(q, physics.SourcePressure(q, p1, p2))
}

// transferCharge 按本步节点压力计算内部流量，
// 从端口1取出电荷并等量加到端口2，返回体积流量。
func transferCharge(ctx element.Context, value element.NodeFace, forward bool) float64 {
	node := value.Base()
	p1, p2, ok := junctionPressures(ctx, node)
	if !ok || value.GetFloat64(slotFlowArea) <= 0 {
		value.SetFloat64(slotLastFlow, 0)
		return 0
	}
	q := smoothedFlow(ctx, value, p1, p2, forward)
	value.SetFloat64(slotLastFlow, q)
	charge := physics.ChargeFlow(q, physics.SourcePressure(q, p1, p2)) * ctx.DeltaT()
	ctx.AddCharge(node.Ports[0].Charge, -charge)
	ctx.AddCharge(node.Ports[1].Charge, charge)
	return q
}
