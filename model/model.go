package model

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"pneumatic/element"
	"pneumatic/graph"
	"pneumatic/load"
	"pneumatic/physics"
)

// ErrNotReset 模型在复位之前不能推进
var ErrNotReset = errors.New("模型未复位")

// Debug 调试接口，在复位、每步结束与出错时调用。
type Debug interface {
	Init(m *Model)
	Update(m *Model)
	Error(err error)
}

// Model 仿真模型，持有元件、节点与电荷累加器，按固定步长推进。
type Model struct {
	Name                 string
	Description          string
	Elements             []element.NodeFace      // 按ID排列的元件
	Junctions            map[int]*graph.Junction // 节点ID到节点
	JunctionList         []*graph.Junction       // 按ID排序的节点
	Charges              []float64               // 每个端口一个电荷累加器
	Time                 float64                 // 当前仿真时间 s
	TimeStep             float64                 // 固定步长 s
	IsInteractive        bool                    // 交互模式，忽略时间表
	LastMaxPressureDelta float64                 // 上一步的最大压力变化 bar
	Sweeps               int                     // 上一步网络求解的轮数
	Debug                Debug                   // 调试接口
	physics              physics.Constants       // 物理常量
	byName               map[string]element.NodeFace
	ready                bool
}

// FromDto 由模型定义创建元件与节点，并分配电荷累加器索引。
func FromDto(dto *load.Model) (*Model, error) {
	warnings, err := dto.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		log.Printf("警告: %s", w)
	}
	m := &Model{
		Name:        dto.ModelName,
		Description: dto.Description,
		Junctions:   map[int]*graph.Junction{},
		TimeStep:    load.DefaultTimeStep,
		physics:     physics.DefaultConstants(),
		byName:      map[string]element.NodeFace{},
	}
	charges := 0
	for id, e := range dto.Elements {
		ele, err := element.NewElement(id, e.Type, e.Name, e.Parameters)
		if err != nil {
			return nil, err
		}
		node := ele.Base()
		node.Description = e.Description
		node.Comment = e.Comment
		visible, err := e.Parameters.ParseBool("visible", false)
		if err != nil {
			return nil, fmt.Errorf("元件 '%s': %w", e.Name, err)
		}
		node.Visible = e.Visible || visible
		if e.FlowCoefficient > 0 {
			node.FlowCoefficient = e.FlowCoefficient
		}
		for i := range node.Ports {
			node.Ports[i].Charge = charges
			charges++
		}
		m.Elements = append(m.Elements, ele)
		m.byName[e.Name] = ele
	}
	m.Charges = make([]float64, charges)

	junctions, err := graph.Build(m.Elements, dto.Connections)
	if err != nil {
		return nil, err
	}
	m.JunctionList = junctions
	for _, j := range junctions {
		m.Junctions[j.ID] = j
	}
	return m, nil
}

// SetPhysics 设置物理常量，必须在复位之前调用。
func (m *Model) SetPhysics(c physics.Constants) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.physics = c
	return nil
}

// Element 按名称查找元件。
func (m *Model) Element(name string) (element.NodeFace, bool) {
	ele, ok := m.byName[name]
	return ele, ok
}

// Reset 恢复所有元件与节点的初始状态，时间归零。
func (m *Model) Reset(dt float64) error {
	if dt <= 0 {
		return fmt.Errorf("步长必须大于0: %v", dt)
	}
	m.TimeStep = dt
	m.Time = 0
	m.LastMaxPressureDelta = 0
	m.Sweeps = 0
	clear(m.Charges)
	for _, ele := range m.Elements {
		element.Reset(ele)
	}
	for _, j := range m.JunctionList {
		j.Init(m.Elements)
		for i := range j.Connections {
			j.Connections[i].LastFlow = 0
		}
	}
	m.ready = true
	if m.Debug != nil {
		m.Debug.Init(m)
	}
	return nil
}

// Step 推进一个固定步长。
// 顺序：清零电荷 → 更新内部状态 → 内部通路 → 网络求解 → 电荷转移与结算 → 压力积分 → 时间推进。
func (m *Model) Step() error {
	if !m.ready {
		return ErrNotReset
	}
	clear(m.Charges)
	for _, ele := range m.Elements {
		element.ElementList[ele.Type()].UpdateInternalState(m, ele)
	}
	for _, ele := range m.Elements {
		element.ElementList[ele.Type()].CalculateInternalFlow(m, ele)
	}
	m.Sweeps = graph.SolveNetwork(m, m.Elements, m.JunctionList)
	graph.Transfer(m, m.Elements, m.JunctionList)
	maxDelta := 0.0
	for _, ele := range m.Elements {
		delta, err := element.ElementList[ele.Type()].CalcPressure(m, ele)
		if err != nil {
			if m.Debug != nil {
				m.Debug.Error(err)
			}
			return err
		}
		maxDelta = max(maxDelta, delta)
	}
	m.LastMaxPressureDelta = maxDelta
	m.Time += m.TimeStep
	if m.Debug != nil {
		m.Debug.Update(m)
	}
	return nil
}

// SetControlValue 交互模式下直接设置阀门状态或 EPU 目标压力。
func (m *Model) SetControlValue(name string, v float64) error {
	ele, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("未知元件 '%s'", name)
	}
	if !element.ElementList[ele.Type()].SetControlValue(m, ele, v) {
		return fmt.Errorf("元件 '%s' (%s) 不可控制", name, ele.Type())
	}
	return nil
}

// ApplyProfile 安装时间线与物理参数，返回最短运行时间。
// 时间线引用未知元件为错误；元件不接受该类时间线时只给出警告。
func (m *Model) ApplyProfile(p *load.Profile) (float64, error) {
	if err := m.SetPhysics(p.PhysicsParameters.Constants()); err != nil {
		return 0, err
	}
	m.TimeStep = p.TimeStepSeconds
	for _, name := range sortedKeys(p.ValveTimelines) {
		events := make([]element.Event, len(p.ValveTimelines[name]))
		for i, e := range p.ValveTimelines[name] {
			events[i] = element.Event{Time: e.TimeSeconds, Value: e.State}
		}
		if err := m.setSchedule(name, element.ControlState, events); err != nil {
			return 0, err
		}
	}
	for _, name := range sortedKeys(p.EpuTimelines) {
		events := make([]element.Event, len(p.EpuTimelines[name]))
		for i, e := range p.EpuTimelines[name] {
			events[i] = element.Event{Time: e.TimeSeconds, Value: e.TargetPressure}
		}
		if err := m.setSchedule(name, element.ControlPressure, events); err != nil {
			return 0, err
		}
	}
	return p.MinRunTime(), nil
}

// setSchedule 为元件安装排序后的时间表。
func (m *Model) setSchedule(name string, kind element.ControlKind, events []element.Event) error {
	ele, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("时间线引用了未知元件 '%s'", name)
	}
	if ele.Config().Control != kind {
		log.Printf("警告: 元件 '%s' (%s) 不接受该时间线，已忽略", name, ele.Type())
		return nil
	}
	ele.Base().Schedule = element.SortEvents(events)
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoggableValues 每个元件的记录值，按元件ID排列。
func (m *Model) LoggableValues() []float64 {
	values := make([]float64, len(m.Elements))
	for i, ele := range m.Elements {
		values[i] = element.ElementList[ele.Type()].LoggableValue(ele)
	}
	return values
}

// JunctionPressures 节点压力，按节点ID排列。
func (m *Model) JunctionPressures() []float64 {
	pressures := make([]float64, len(m.JunctionList))
	for i, j := range m.JunctionList {
		pressures[i] = j.Pressure
	}
	return pressures
}

// 以下方法实现 element.Context。

// CurrentTime 当前仿真时间。
func (m *Model) CurrentTime() float64 { return m.Time }

// DeltaT 固定步长。
func (m *Model) DeltaT() float64 { return m.TimeStep }

// Physics 物理常量。
func (m *Model) Physics() physics.Constants { return m.physics }

// Interactive 是否处于交互模式。
func (m *Model) Interactive() bool { return m.IsInteractive }

// JunctionPressure 节点压力。
func (m *Model) JunctionPressure(id int) (float64, bool) {
	j, ok := m.Junctions[id]
	if !ok {
		return 0, false
	}
	return j.Pressure, true
}

// AddCharge 累加电荷，索引无效时忽略。
func (m *Model) AddCharge(index int, charge float64) {
	if index >= 0 && index < len(m.Charges) {
		m.Charges[index] += charge
	}
}

// GetCharge 读取电荷。
func (m *Model) GetCharge(index int) float64 {
	if index >= 0 && index < len(m.Charges) {
		return m.Charges[index]
	}
	return 0
}
