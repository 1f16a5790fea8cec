package element

import (
	"sort"

	"pneumatic/physics"
)

// Context 仿真步上下文，由模型实现。
type Context interface {
	CurrentTime() float64                    // 当前仿真时间 s
	DeltaT() float64                         // 固定步长 s
	Physics() physics.Constants              // 物理常量
	Interactive() bool                       // 是否处于交互模式
	JunctionPressure(id int) (float64, bool) // 节点压力（求解前为上一步结果）
	AddCharge(index int, charge float64)     // 累加电荷
	GetCharge(index int) float64             // 读取电荷
}

// Event 时间表条目。
type Event struct {
	Time  float64 // 生效时间 s
	Value float64 // 阀门状态 0/1 或目标压力 bar
}

// SortEvents 按时间稳定排序。
func SortEvents(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return sorted
}

// ActiveEvent 查找时间不晚于 t 的最后一个条目。
// 时间表需已排序；没有条目生效时 ok 为 false。
func ActiveEvent(events []Event, t float64) (event Event, ok bool) {
	for _, e := range events {
		if e.Time > t {
			break
		}
		event, ok = e, true
	}
	return event, ok
}
