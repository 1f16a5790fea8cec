package graph

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"pneumatic/element"
	"pneumatic/maths"
	"pneumatic/physics"
)

// 节点求解参数
const (
	MaxIterations        = 10    // 阻尼迭代的最大次数
	ConvergenceTolerance = 1e-6  // 净电荷流量收敛阈值
	MinDamping           = 0.005 // 压差很小时的阻尼
	MaxDamping           = 0.1   // 压差很大时的阻尼
	ReferenceDelta       = 1.0   // 压差参考值 bar

	refineIterations = 100   // 试位法最大次数
	refineWidth      = 1e-12 // 试位法区间宽度下限 bar
	bracketSteps     = 60    // 扩展求根区间的最大次数
)

// Connection 元件端口与节点的连接。
type Connection struct {
	Element  int     // 元件在模型元件列表中的索引
	Port     int     // 端口索引
	LastFlow float64 // 流量滤波状态 m³/s
}

// Junction 零容积节点，每步求解使净电荷流量为零的压力。
//
// 单端口元件（气罐、管道、气源）经端口孔口与节点交换电荷；
// 两端口元件的端口与节点同压，其内部流量直接计入所连两个节点的平衡。
type Junction struct {
	ID          int
	Name        string
	Connections []Connection
	Pressure    float64 // 节点压力 bar
	Residual    float64 // 最后一次计算的净电荷流量
	Iterations  int     // 本步计算净电荷流量的累计次数
}

// port 连接对应的元件与端口。
func (j *Junction) port(elements []element.NodeFace, i int) (*element.Node, *element.Port) {
	conn := j.Connections[i]
	node := elements[conn.Element].Base()
	return node, &node.Ports[conn.Port]
}

// isLink 两端口元件的端口。
func isLink(node *element.Node) bool { return len(node.Ports) == 2 }

// PortPressures 所连接端口的当前压力。
func (j *Junction) PortPressures(elements []element.NodeFace) []float64 {
	pressures := make([]float64, len(j.Connections))
	for i := range j.Connections {
		_, port := j.port(elements, i)
		pressures[i] = port.Pressure
	}
	return pressures
}

// Init 节点压力取端口压力的平均值。
func (j *Junction) Init(elements []element.NodeFace) {
	j.Residual, j.Iterations = 0, 0
	if len(j.Connections) == 0 {
		j.Pressure = 0
		return
	}
	pressures := j.PortPressures(elements)
	j.Pressure = floats.Sum(pressures) / float64(len(pressures))
}

// Damping 由端口最大压差得到自适应阻尼系数，范围 [MinDamping, MaxDamping]。
func Damping(spread float64) float64 {
	t := math.Min(1, spread/ReferenceDelta)
	return MinDamping + (MaxDamping-MinDamping)*t
}

// portFlow 有限容积或气源端口在节点压力 p 下流入节点的电荷流量，返回电荷流量与体积流量。
// 有限容积端口一步内的交换量不超过使其与节点压力相等所需的电荷。
func portFlow(ctx element.Context, node *element.Node, port *element.Port, lastFlow, p float64) (float64, float64) {
	dt := ctx.DeltaT()
	q := ctx.Physics().SmoothedFlow(port.Pressure, p, node.Area, node.FlowCoefficient, lastFlow, dt)
	c := physics.ChargeFlow(q, physics.SourcePressure(q, port.Pressure, p))
	if !node.ConfigPtr.Source {
		limit := port.Volume * math.Abs(port.Pressure-p) / dt
		c = maths.Clamp(c, -limit, limit)
	}
	return c, q
}

// linkFlow 两端口元件经该端口流入节点的电荷流量，另一端取对侧节点的当前压力。
func linkFlow(ctx element.Context, ele element.NodeFace, port int, p float64) float64 {
	node := ele.Base()
	other, ok := ctx.JunctionPressure(node.Ports[1-port].Junction)
	if !ok {
		return 0
	}
	face := element.ElementList[ele.Type()]
	if port == 0 {
		return -face.InternalFlow(ctx, ele, p, other)
	}
	return face.InternalFlow(ctx, ele, other, p)
}

// netChargeFlow 在压力 p 下流入节点的电荷流量之和。
// 两端口元件的端口容积并入节点，压力从端口当前值变到 p 所需的电荷计为流出。
func (j *Junction) netChargeFlow(ctx element.Context, elements []element.NodeFace, p float64) float64 {
	j.Iterations++
	sum := 0.0
	for i, conn := range j.Connections {
		node, port := j.port(elements, i)
		if isLink(node) {
			sum += linkFlow(ctx, elements[conn.Element], conn.Port, p)
			sum -= port.Volume * (p - port.Pressure) / ctx.DeltaT()
			continue
		}
		c, _ := portFlow(ctx, node, port, conn.LastFlow, p)
		sum += c
	}
	return sum
}

// bounds 所连端口与对侧节点压力的范围。
func (j *Junction) bounds(ctx element.Context, elements []element.NodeFace) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	add := func(p float64) {
		lo, hi = math.Min(lo, p), math.Max(hi, p)
	}
	for i, conn := range j.Connections {
		node, port := j.port(elements, i)
		add(port.Pressure)
		if isLink(node) {
			if other, ok := ctx.JunctionPressure(node.Ports[1-conn.Port].Junction); ok {
				add(other)
			}
		}
	}
	return lo, hi
}

// Solve 求解节点压力。
// 先从上一次的估计值做自适应阻尼迭代；未收敛时在端口压力范围内用试位法求根，
// 流量滤波使根落在范围外时先扩展区间。结果下限为0。
func (j *Junction) Solve(ctx element.Context, elements []element.NodeFace) float64 {
	j.Residual = 0
	switch len(j.Connections) {
	case 0:
		return j.Pressure
	case 1:
		_, port := j.port(elements, 0)
		j.Pressure = port.Pressure
		return j.Pressure
	}
	f := func(p float64) float64 { return j.netChargeFlow(ctx, elements, p) }
	lo, hi := j.bounds(ctx, elements)
	damping := Damping(hi - lo)
	p := j.Pressure
	for n := 0; n < MaxIterations; n++ {
		j.Residual = f(p)
		if math.Abs(j.Residual) < ConvergenceTolerance {
			j.Pressure = p
			return p
		}
		p = math.Max(p+j.Residual*damping, 0)
	}

	flo, fhi := f(lo), f(hi)
	for n := 0; flo < 0 && lo > 0 && n < bracketSteps; n++ {
		lo = math.Max(0, lo-(hi-lo)-1)
		flo = f(lo)
	}
	if flo < 0 {
		// 压力为0时仍净流出
		j.Pressure, j.Residual = 0, flo
		return 0
	}
	for n := 0; fhi > 0 && n < bracketSteps; n++ {
		hi += hi - lo + 1
		fhi = f(hi)
	}
	p, _ = maths.FalsePosition(f, lo, hi, flo, fhi, ConvergenceTolerance, refineWidth, refineIterations)
	j.Pressure = math.Max(p, 0)
	j.Residual = f(j.Pressure)
	return j.Pressure
}

// Exchange 按节点压力结算各端口本步的电荷，必须在所有两端口元件转移电荷之后调用。
//
// 有限容积与气源端口按孔口流量交换电荷；两端口元件端口上的内部转移量交给节点，
// 并从节点取得使端口压力等于节点压力的电荷。结算余量由气源吸收，
// 没有气源时按容积分给有限容积端口，都没有时分给两端口元件的端口。
func (j *Junction) Exchange(ctx element.Context, elements []element.NodeFace) {
	if len(j.Connections) < 2 {
		return
	}
	dt, p := ctx.DeltaT(), j.Pressure
	held := 0.0
	source := -1
	var storage, links []int
	for i := range j.Connections {
		conn := &j.Connections[i]
		node, port := j.port(elements, i)
		var give float64
		switch {
		case isLink(node):
			give = ctx.GetCharge(port.Charge) - port.Volume*(p-port.Pressure)
			links = append(links, i)
		default:
			c, q := portFlow(ctx, node, port, conn.LastFlow, p)
			conn.LastFlow = q
			give = c * dt
			if node.ConfigPtr.Source {
				if source < 0 {
					source = i
				}
			} else {
				storage = append(storage, i)
			}
		}
		ctx.AddCharge(port.Charge, -give)
		held += give
	}
	if held == 0 {
		return
	}
	switch {
	case source >= 0:
		_, port := j.port(elements, source)
		ctx.AddCharge(port.Charge, held)
	case len(storage) > 0:
		j.share(ctx, elements, storage, held)
	default:
		j.share(ctx, elements, links, held)
	}
}

// share 按容积分配电荷。
func (j *Junction) share(ctx element.Context, elements []element.NodeFace, members []int, charge float64) {
	total := 0.0
	for _, i := range members {
		_, port := j.port(elements, i)
		total += port.Volume
	}
	if total <= 0 {
		return
	}
	for _, i := range members {
		_, port := j.port(elements, i)
		ctx.AddCharge(port.Charge, charge*port.Volume/total)
	}
}

// Members 连接列表，格式为 "元件.端口"，端口从1开始。
func (j *Junction) Members(elements []element.NodeFace) []string {
	members := make([]string, len(j.Connections))
	for i, conn := range j.Connections {
		members[i] = fmt.Sprintf("%s.%d", elements[conn.Element].Base().Name, conn.Port+1)
	}
	return members
}

// Describe 节点描述。
func (j *Junction) Describe(elements []element.NodeFace) string {
	return fmt.Sprintf("Node #%d: %s", j.ID, strings.Join(j.Members(elements), ", "))
}
