package element

import (
	"errors"
	"math"
	"testing"

	"pneumatic/physics"
	"pneumatic/utils"
)

// testVolume 测试用单端口容积元件
type testVolume struct{ *Config }

func (testVolume) Reset(value NodeFace) {
	node := value.Base()
	node.Ports[0].Pressure = value.GetFloat64(0)
	node.Ports[0].Volume = value.GetFloat64(1)
}

var testVolumeType = AddElement(100, &testVolume{
	&Config{
		Name:      "testvolume",
		Pin:       SetPin(PinPneumatic, "p"),
		ValueInit: []any{utils.Pressure(0), utils.Volume(0.001), float64(0)},
		ValueName: []string{"pressure", "volume", ""},
		OrigValue: []int{2},
	},
})

// testContext 固定电荷的上下文
type testContext struct {
	charges []float64
}

func (c *testContext) CurrentTime() float64                { return 1.5 }
func (c *testContext) DeltaT() float64                     { return 0.001 }
func (c *testContext) Physics() physics.Constants          { return physics.DefaultConstants() }
func (c *testContext) Interactive() bool                   { return false }
func (c *testContext) JunctionPressure(int) (float64, bool) { return 0, false }
func (c *testContext) AddCharge(i int, v float64)          { c.charges[i] += v }
func (c *testContext) GetCharge(i int) float64 {
	if i < 0 || i >= len(c.charges) {
		return 0
	}
	return c.charges[i]
}

func TestNewElement(t *testing.T) {
	ele, err := NewElement(3, "TestVolume", "t1", utils.Params{"pressure": "2bar", "volume": "2 l", "diameter": "8mm"})
	if err != nil {
		t.Fatalf("创建元件失败: %s", err)
	}
	node := ele.Base()
	if node.ID != 3 || node.Name != "t1" || ele.Type() != testVolumeType {
		t.Errorf("元件标识错误: %+v", node)
	}
	if math.Abs(node.Ports[0].Pressure-2) > 1e-12 || math.Abs(node.Ports[0].Volume-0.002) > 1e-12 {
		t.Errorf("端口初始化错误: %+v", node.Ports[0])
	}
	if math.Abs(node.Diameter-0.008) > 1e-12 || math.Abs(node.Area-physics.PortArea(0.008)) > 1e-15 {
		t.Errorf("通径错误: %v %v", node.Diameter, node.Area)
	}
	if node.Ports[0].Junction != -1 || node.FlowCoefficient != 1 {
		t.Errorf("默认连接或流量系数错误")
	}
}

func TestNewElementErrors(t *testing.T) {
	if _, err := NewElement(0, "nozzle", "n1", nil); err == nil {
		t.Errorf("未知类型应失败")
	}
	_, err := NewElement(0, "testvolume", "t1", utils.Params{"volume": "2 gallons"})
	if !errors.Is(err, utils.ErrParam) {
		t.Errorf("未知单位应返回参数错误, 实际 %v", err)
	}
	// 非正容积回退到默认值
	ele, err := NewElement(0, "testvolume", "t2", utils.Params{"volume": "0", "diameter": "-1"})
	if err != nil {
		t.Fatalf("非正几何尺寸不应失败: %s", err)
	}
	if ele.Base().Ports[0].Volume != 0.001 || ele.Base().Diameter != DefaultDiameter {
		t.Errorf("默认值回退错误: %+v", ele.Base())
	}
}

func TestIntegratePorts(t *testing.T) {
	ele, _ := NewElement(0, "testvolume", "t1", utils.Params{"pressure": "1", "volume": "0.001"})
	ele.Base().Ports[0].Charge = 0
	ctx := &testContext{charges: []float64{0.001}}
	delta, err := ElementList[ele.Type()].CalcPressure(ctx, ele)
	if err != nil {
		t.Fatalf("积分失败: %s", err)
	}
	if math.Abs(ele.Base().Pressure()-2) > 1e-12 || math.Abs(delta-1) > 1e-12 {
		t.Errorf("积分错误: p=%v delta=%v", ele.Base().Pressure(), delta)
	}

	// 压力不为负
	ctx.charges[0] = -1
	if _, err := IntegratePorts(ctx, ele); err != nil {
		t.Fatalf("积分失败: %s", err)
	}
	if ele.Base().Pressure() != 0 {
		t.Errorf("压力应限制为0, 实际 %v", ele.Base().Pressure())
	}

	ctx.charges[0] = math.NaN()
	if _, err := IntegratePorts(ctx, ele); !errors.Is(err, ErrInvalidPressure) {
		t.Errorf("NaN 应返回压力无效错误, 实际 %v", err)
	}
}

func TestResetRollback(t *testing.T) {
	ele, _ := NewElement(0, "testvolume", "t1", utils.Params{"pressure": "4"})
	ele.SetFloat64(2, 9)
	ele.Base().Ports[0].Pressure = 1
	Reset(ele)
	if ele.GetFloat64(2) != 0 || ele.Base().Pressure() != 4 {
		t.Errorf("复位错误: state=%v p=%v", ele.GetFloat64(2), ele.Base().Pressure())
	}
}

func TestActiveEvent(t *testing.T) {
	events := SortEvents([]Event{{Time: 2, Value: 0}, {Time: 0.5, Value: 1}, {Time: 3, Value: 1}})
	if events[0].Time != 0.5 || events[2].Time != 3 {
		t.Fatalf("排序错误: %v", events)
	}
	if _, ok := ActiveEvent(events, 0.1); ok {
		t.Errorf("首个条目之前不应有生效值")
	}
	if e, ok := ActiveEvent(events, 2); !ok || e.Value != 0 || e.Time != 2 {
		t.Errorf("t=2 生效值错误: %v", e)
	}
	if e, _ := ActiveEvent(events, 10); e.Time != 3 {
		t.Errorf("t=10 生效值错误: %v", e)
	}
}
