package base

import (
	"math"
	"testing"

	"pneumatic/element"
	"pneumatic/physics"
	"pneumatic/utils"
)

// stepContext 测试用上下文：节点压力固定，电荷按端口索引累加
type stepContext struct {
	time        float64
	dt          float64
	interactive bool
	junctions   map[int]float64
	charges     []float64
}

func newStepContext(ports int, junctions map[int]float64) *stepContext {
	return &stepContext{dt: 0.001, junctions: junctions, charges: make([]float64, ports)}
}

func (c *stepContext) CurrentTime() float64       { return c.time }
func (c *stepContext) DeltaT() float64            { return c.dt }
func (c *stepContext) Physics() physics.Constants { return physics.DefaultConstants() }
func (c *stepContext) Interactive() bool          { return c.interactive }
func (c *stepContext) JunctionPressure(id int) (float64, bool) {
	p, ok := c.junctions[id]
	return p, ok
}
func (c *stepContext) AddCharge(i int, v float64) { c.charges[i] += v }
func (c *stepContext) GetCharge(i int) float64    { return c.charges[i] }

// newTwoPort 创建两端口元件，端口1接节点0，端口2接节点1
func newTwoPort(t *testing.T, typeName string, params utils.Params) element.NodeFace {
	t.Helper()
	ele, err := element.NewElement(0, typeName, typeName+"1", params)
	if err != nil {
		t.Fatalf("创建元件失败: %s", err)
	}
	for i := range ele.Base().Ports {
		ele.Base().Ports[i].Charge = i
		ele.Base().Ports[i].Junction = i
	}
	return ele
}

func TestSourceElements(t *testing.T) {
	supply, err := element.NewElement(0, "supply", "s", utils.Params{"pressure": "6"})
	if err != nil {
		t.Fatalf("创建气源失败: %s", err)
	}
	exhaust, _ := element.NewElement(1, "exhaust", "e", utils.Params{"pressure": "3"})
	ctx := newStepContext(1, nil)
	ctx.charges[0] = 100
	for _, ele := range []element.NodeFace{supply, exhaust} {
		ele.Base().Ports[0].Charge = 0
		old := ele.Base().Pressure()
		delta, err := element.ElementList[ele.Type()].CalcPressure(ctx, ele)
		if err != nil || delta != 0 || ele.Base().Pressure() != old {
			t.Errorf("%s 压力应保持不变: %v -> %v (%v)", ele.Base().Name, old, ele.Base().Pressure(), err)
		}
	}
	if supply.Base().Pressure() != 6 || exhaust.Base().Pressure() != 0 {
		t.Errorf("气源压力错误: %v %v", supply.Base().Pressure(), exhaust.Base().Pressure())
	}
}

func TestTankAndPipe(t *testing.T) {
	tank, err := element.NewElement(0, "tank", "t", utils.Params{"pressure": "1", "volume": "10 l"})
	if err != nil {
		t.Fatalf("创建气罐失败: %s", err)
	}
	if math.Abs(tank.Base().Ports[0].Volume-0.01) > 1e-15 {
		t.Errorf("气罐容积错误: %v", tank.Base().Ports[0].Volume)
	}
	pipe, _ := element.NewElement(1, "pipe", "p", utils.Params{"diameter": "10mm", "length": "50cm"})
	expected := physics.PortArea(0.01) * 0.5
	if math.Abs(pipe.Base().Ports[0].Volume-expected) > 1e-15 {
		t.Errorf("管道容积错误: 期望 %v, 实际 %v", expected, pipe.Base().Ports[0].Volume)
	}

	tank.Base().Ports[0].Charge = 0
	ctx := newStepContext(1, nil)
	ctx.charges[0] = 0.02 // 0.02 bar·m³ 进入 0.01 m³
	delta, err := element.ElementList[tank.Type()].CalcPressure(ctx, tank)
	if err != nil {
		t.Fatalf("积分失败: %s", err)
	}
	if math.Abs(tank.Base().Pressure()-3) > 1e-12 || math.Abs(delta-2) > 1e-12 {
		t.Errorf("气罐积分错误: p=%v delta=%v", tank.Base().Pressure(), delta)
	}
}

func TestValveConservation(t *testing.T) {
	valve := newTwoPort(t, "valve", utils.Params{"pressure": "0"})
	valve.SetFloat64(slotOpening, 1)
	face := element.ElementList[ValveType]

	ctx := newStepContext(2, map[int]float64{0: 5, 1: 1})
	face.CalculateInternalFlow(ctx, valve)
	if area := valve.GetFloat64(slotFlowArea); math.Abs(area-valve.Base().Area) > 1e-18 {
		t.Fatalf("全开时导通截面应为端口截面: %v", area)
	}
	expected := face.InternalFlow(ctx, valve, 5, 1)
	q := face.TransferCharge(ctx, valve)
	if q <= 0 || expected <= 0 {
		t.Fatalf("应从端口1流向端口2: q=%v c=%v", q, expected)
	}
	if ctx.charges[0] != -ctx.charges[1] {
		t.Errorf("电荷不守恒: %v != %v", -ctx.charges[0], ctx.charges[1])
	}
	if math.Abs(ctx.charges[1]-expected*ctx.dt) > 1e-18 {
		t.Errorf("转移电荷应等于内部流量乘步长: %v != %v", ctx.charges[1], expected*ctx.dt)
	}
	if valve.GetFloat64(slotLastFlow) != q {
		t.Errorf("滤波状态应为本步流量: %v", valve.GetFloat64(slotLastFlow))
	}

	// 关闭时无流量
	valve.SetFloat64(slotOpening, 0)
	ctx = newStepContext(2, map[int]float64{0: 5, 1: 1})
	face.CalculateInternalFlow(ctx, valve)
	if c := face.InternalFlow(ctx, valve, 5, 1); c != 0 {
		t.Errorf("关闭的阀门不应有流量: %v", c)
	}
	face.TransferCharge(ctx, valve)
	if ctx.charges[0] != 0 || ctx.charges[1] != 0 || valve.GetFloat64(slotLastFlow) != 0 {
		t.Errorf("关闭的阀门不应转移电荷: %v", ctx.charges)
	}
}

func TestValveFlowArea(t *testing.T) {
	face := element.ElementList[ValveType]
	ctx := newStepContext(2, map[int]float64{0: 5, 1: 1})
	flow := func(opening, cd float64) float64 {
		valve := newTwoPort(t, "valve", nil)
		valve.Base().FlowCoefficient = cd
		valve.SetFloat64(slotOpening, opening)
		face.CalculateInternalFlow(ctx, valve)
		return face.InternalFlow(ctx, valve, 5, 1)
	}
	// 流量随开度与流量系数增大
	if a, b := flow(0.5, 0.8), flow(1, 0.8); a <= 0 || b <= a {
		t.Errorf("流量应随开度增大: %v %v", a, b)
	}
	if a, b := flow(1, 0.2), flow(1, 0.8); a <= 0 || b <= a {
		t.Errorf("流量应随流量系数增大: %v %v", a, b)
	}
	// 反向压差时反向流动
	valve := newTwoPort(t, "valve", nil)
	valve.SetFloat64(slotOpening, 1)
	face.CalculateInternalFlow(ctx, valve)
	if c := face.InternalFlow(ctx, valve, 1, 3); c >= 0 {
		t.Errorf("阀门应允许反向流动: %v", c)
	}
	// 节点未连接时阻断
	ctx = newStepContext(2, map[int]float64{0: 5})
	face.CalculateInternalFlow(ctx, valve)
	if valve.GetFloat64(slotFlowArea) != 0 {
		t.Errorf("节点未连接时不应导通")
	}
}

func TestValveSchedule(t *testing.T) {
	valve := newTwoPort(t, "valve", utils.Params{"transitionTime": "20"})
	valve.Base().Schedule = element.SortEvents([]element.Event{{Time: 0.1, Value: 1}, {Time: 0.5, Value: 0}})
	face := element.ElementList[ValveType]
	ctx := newStepContext(2, map[int]float64{0: 0, 1: 0})

	check := func(time, expected float64) {
		t.Helper()
		ctx.time = time
		face.UpdateInternalState(ctx, valve)
		if got := face.LoggableValue(valve); math.Abs(got-expected) > 1e-9 {
			t.Errorf("t=%v 开度错误: 期望 %v, 实际 %v", time, expected, got)
		}
	}
	check(0, 0)
	check(0.1, 0)
	check(0.11, 0.5)
	check(0.12, 1)
	check(0.4, 1)
	check(0.5, 1)
	check(0.51, 0.5)
	check(0.6, 0)

	element.Reset(valve)
	if valve.GetFloat64(slotOpening) != 0 || valve.GetFloat64(slotAnchor) != -1 {
		t.Errorf("复位后阀门应关闭")
	}
}

func TestValveInteractive(t *testing.T) {
	valve := newTwoPort(t, "valve", nil)
	valve.Base().Schedule = []element.Event{{Time: 0, Value: 1}}
	face := element.ElementList[ValveType]
	ctx := newStepContext(2, map[int]float64{0: 0, 1: 0})
	ctx.interactive = true
	ctx.time = 1

	face.UpdateInternalState(ctx, valve)
	if valve.GetFloat64(slotOpening) != 0 {
		t.Errorf("交互模式应忽略时间表")
	}
	if !face.SetControlValue(ctx, valve, 1) {
		t.Fatalf("阀门应接受控制量")
	}
	ctx.time = 1.1
	face.UpdateInternalState(ctx, valve)
	if valve.GetFloat64(slotOpening) != 1 {
		t.Errorf("打开后开度应为1, 实际 %v", valve.GetFloat64(slotOpening))
	}
}

func TestCheckValveDirection(t *testing.T) {
	const eps = 1e-3
	face := element.ElementList[CheckValveType]
	for _, tt := range []struct {
		p1   float64
		flow bool
	}{
		{2 + 0.05 - eps, false},
		{2 + 0.05 + eps, true},
		{1, false},
	} {
		cv := newTwoPort(t, "checkvalve", nil)
		ctx := newStepContext(2, map[int]float64{0: tt.p1, 1: 2})
		face.CalculateInternalFlow(ctx, cv)
		q := face.TransferCharge(ctx, cv)
		if !tt.flow && (q != 0 || ctx.charges[1] != 0) {
			t.Errorf("p1=%v 不应导通: q=%v", tt.p1, q)
		}
		if tt.flow && (q <= 0 || ctx.charges[1] <= 0 || ctx.charges[0] != -ctx.charges[1]) {
			t.Errorf("p1=%v 应从端口1流向端口2: q=%v charges=%v", tt.p1, q, ctx.charges)
		}
	}
}

// 开启条件只看节点压力，端口压力相等时仍然导通
func TestCheckValveEqualPorts(t *testing.T) {
	face := element.ElementList[CheckValveType]
	cv := newTwoPort(t, "checkvalve", utils.Params{"pressure": "3"})
	ctx := newStepContext(2, map[int]float64{0: 4, 1: 3})
	face.CalculateInternalFlow(ctx, cv)
	if q := face.TransferCharge(ctx, cv); q <= 0 || ctx.charges[1] <= 0 {
		t.Errorf("节点压差超过开启压差时应导通: q=%v charges=%v", q, ctx.charges)
	}
	// 导通后出口压力升高也不回流
	if c := face.InternalFlow(ctx, cv, 3, 4); c != 0 {
		t.Errorf("单向阀不应回流: %v", c)
	}
}

func TestRegulator(t *testing.T) {
	reg := newTwoPort(t, "regulator", utils.Params{"pressure": "3", "kp": "0.5", "ki": "5"})
	face := element.ElementList[RegulatorType]
	ctx := newStepContext(2, map[int]float64{0: 6, 1: 2.8})

	face.UpdateInternalState(ctx, reg)
	// 误差 0.2：控制输出 0.5*0.2 + 5*0.0002 = 0.101，阀芯按时间常数跟随
	expected := 0.101 * (1 - math.Exp(-ctx.dt/DefaultRegulatorLag))
	if open := face.LoggableValue(reg); math.Abs(open-expected) > 1e-12 {
		t.Errorf("开度错误: 期望 %v, 实际 %v", expected, open)
	}
	face.CalculateInternalFlow(ctx, reg)
	face.TransferCharge(ctx, reg)
	if ctx.charges[1] <= 0 {
		t.Errorf("正向压差应有流量: %v", ctx.charges)
	}

	// 时间常数为0时开度等于控制输出
	fast := newTwoPort(t, "regulator", utils.Params{"pressure": "3", "lag": "0"})
	face.UpdateInternalState(ctx, fast)
	if open := face.LoggableValue(fast); math.Abs(open-0.101) > 1e-12 {
		t.Errorf("开度错误: 期望 0.101, 实际 %v", open)
	}

	// 入口压力不高于出口压力时阻断
	ctx = newStepContext(2, map[int]float64{0: 2, 1: 2.5})
	reg.SetFloat64(slotOpening, 1)
	face.CalculateInternalFlow(ctx, reg)
	face.TransferCharge(ctx, reg)
	if ctx.charges[0] != 0 || reg.GetFloat64(slotLastFlow) != 0 {
		t.Errorf("减压阀不应回流: %v", ctx.charges)
	}

	// 出口未连接时关闭
	ctx = newStepContext(2, map[int]float64{0: 6})
	face.UpdateInternalState(ctx, reg)
	if reg.GetFloat64(slotOpening) != 0 {
		t.Errorf("出口未连接时开度应为0")
	}
}

func TestEpuPT1(t *testing.T) {
	epu, err := element.NewElement(0, "epu", "epu1", utils.Params{"pressure": "1", "usePt2Model": "false", "maxDpDt": "1000"})
	if err != nil {
		t.Fatalf("创建EPU失败: %s", err)
	}
	epu.Base().Schedule = []element.Event{{Time: 0.5, Value: 4}}
	face := element.ElementList[EpuType]
	ctx := newStepContext(1, nil)

	face.UpdateInternalState(ctx, epu)
	if epu.GetFloat64(epuTarget) != 1 {
		t.Errorf("首个条目之前目标应为初始压力, 实际 %v", epu.GetFloat64(epuTarget))
	}
	prev := epu.Base().Pressure()
	for i := 0; i < 3000; i++ {
		ctx.time = float64(i) * ctx.dt
		face.UpdateInternalState(ctx, epu)
		delta, err := face.CalcPressure(ctx, epu)
		if err != nil || delta != 0 {
			t.Fatalf("EPU 积分错误: %v %v", delta, err)
		}
		p := epu.Base().Pressure()
		if p < prev || p > 4 {
			t.Fatalf("t=%v PT1 应单调且不超调: %v -> %v", ctx.time, prev, p)
		}
		prev = p
	}
	if math.Abs(prev-4) > 1e-3 {
		t.Errorf("PT1 未收敛: %v", prev)
	}
}

func TestEpuPT2AndControl(t *testing.T) {
	epu, err := element.NewElement(0, "epu", "epu1", utils.Params{"naturalFrequency": "-1", "visible": "1"})
	if err != nil {
		t.Fatalf("创建EPU失败: %s", err)
	}
	if epu.GetFloat64(epuFrequency) != DefaultNaturalFrequency {
		t.Errorf("无效固有频率应回退到默认值, 实际 %v", epu.GetFloat64(epuFrequency))
	}
	face := element.ElementList[EpuType]
	ctx := newStepContext(1, nil)
	ctx.interactive = true
	if !face.SetControlValue(ctx, epu, 2) {
		t.Fatalf("EPU 应接受控制量")
	}
	for i := 0; i < 3000; i++ {
		face.UpdateInternalState(ctx, epu)
		if _, err := face.CalcPressure(ctx, epu); err != nil {
			t.Fatalf("EPU 积分错误: %s", err)
		}
	}
	if math.Abs(epu.Base().Pressure()-2) > 1e-3 {
		t.Errorf("PT2 未收敛: %v", epu.Base().Pressure())
	}
	epu.Base().Visible = true
	if face.LoggableValue(epu) != 2 {
		t.Errorf("可见 EPU 应记录目标压力")
	}

	epu.SetFloat64(epuTarget, math.Inf(1))
	if _, err := face.CalcPressure(ctx, epu); err == nil {
		t.Errorf("无穷大压力应报错")
	}
}
