package graph

import (
	"math"

	"pneumatic/element"
	"pneumatic/maths"
)

// 网络求解参数
const (
	MaxSweeps      = 50   // 逐节点求解的最大轮数
	SweepTolerance = 1e-9 // 一轮内节点压力最大变化的收敛阈值 bar
)

// SolveNetwork 逐节点轮流求解压力，直到一轮内的最大变化小于 SweepTolerance。
// 两端口元件把相邻节点耦合在一起，每个节点求解时使用对侧节点的最新压力。
// 返回执行的轮数。
func SolveNetwork(ctx element.Context, elements []element.NodeFace, junctions []*Junction) int {
	for _, j := range junctions {
		j.Iterations = 0
	}
	for sweep := 1; sweep <= MaxSweeps; sweep++ {
		change := 0.0
		for _, j := range junctions {
			old := j.Pressure
			p := j.Solve(ctx, elements)
			if !maths.IsFinite(p) {
				// 由压力积分报告无效压力
				return sweep
			}
			change = math.Max(change, math.Abs(p-old))
		}
		if change < SweepTolerance {
			return sweep
		}
	}
	return MaxSweeps
}

// Transfer 按求解后的节点压力转移两端口元件的内部电荷，再结算各节点。
func Transfer(ctx element.Context, elements []element.NodeFace, junctions []*Junction) {
	for _, ele := range elements {
		element.ElementList[ele.Type()].TransferCharge(ctx, ele)
	}
	for _, j := range junctions {
		j.Exchange(ctx, elements)
	}
}
