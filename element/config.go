package element

import (
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"pneumatic/maths"
	"pneumatic/utils"
)

// ErrInvalidPressure 压力计算结果为NaN或无穷大
var ErrInvalidPressure = errors.New("压力无效")

const (
	VolumeFloor     = 1e-9 // 最小容积 m³
	DefaultDiameter = 0.01 // 默认通径 m
)

// Pin 端口。
type Pin struct {
	Name string  // 端口名称。
	Type PinType // 端口类型。
}

// SetPin 设置端口。
func SetPin(pinType PinType, pin ...string) (pins []Pin) {
	pins = make([]Pin, len(pin))
	for i, n := range pin {
		pins[i].Name = n
		pins[i].Type = pinType
	}
	return pins
}

// Config 元件配置结构体，存储元件的静态配置信息。
// 这些配置在元件类型注册时确定，所有同类元件共享。
type Config struct {
	Name      string      // 元件类型名称（如 "tank"）。
	Pin       []Pin       // 端口列表。
	ValueInit []any       // 初始化数据，存储元件参数与内部状态的初始值。
	ValueName []string    // 参数名称，空名称为内部状态。
	OrigValue []int       // 数据备份索引，复位时恢复这些位置的值。
	Source    bool        // 压力由元件自身给定（气源、排气、EPU）。
	Control   ControlKind // 可接受的时间线类型。
}

// GetConfig 获取元件配置的指针。
func (config *Config) GetConfig() *Config { return config }

// GetName 元件名称。
func (config *Config) GetName() string { return strings.ToLower(config.Name) }

// PinNum 获取元件的端口数量。
func (config *Config) PinNum() int { return len(config.Pin) }

// ValueNum 获取元件的参数数量。
func (config *Config) ValueNum() int { return len(config.ValueInit) }

// Reset 由参数恢复端口状态（空实现）。
func (Config) Reset(value NodeFace) {}

// CirLoad 按参数名称加载元件值。
// 带单位的参数换算到基本单位；负的压力与非正的几何尺寸回退到默认值。
func (config *Config) CirLoad(node NodeFace, params utils.Params) (err error) {
	base := node.Base()
	for i, name := range config.ValueName {
		if name == "" || i >= len(config.ValueInit) {
			continue
		}
		switch v := config.ValueInit[i].(type) {
		case utils.Pressure:
			base.NodeValue[i], err = loadUnit(params.ParsePressure, name, float64(v), false)
		case utils.Length:
			base.NodeValue[i], err = loadUnit(params.ParseLength, name, float64(v), true)
		case utils.Volume:
			base.NodeValue[i], err = loadUnit(params.ParseVolume, name, float64(v), true)
		case float64:
			base.NodeValue[i], err = params.ParseFloat64(name, v)
		case int:
			base.NodeValue[i], err = params.ParseInt(name, v)
		case bool:
			base.NodeValue[i], err = params.ParseBool(name, v)
		case time.Duration:
			base.NodeValue[i], err = params.ParseDuration(name, v)
		case string:
			base.NodeValue[i] = params.ParseString(name, v)
		default:
			base.NodeValue[i] = params.ParseString(name, fmt.Sprint(v))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// loadUnit 解析带单位的参数，非法取值回退到默认值。
func loadUnit(parse func(string, float64) (float64, error), name string, def float64, positive bool) (float64, error) {
	v, err := parse(name, def)
	if err != nil {
		return def, err
	}
	if v < 0 || (positive && v == 0) || !maths.IsFinite(v) {
		log.Printf("参数 '%s' 取值 %v 无效，使用默认值 %v", name, v, def)
		return def, nil
	}
	return v, nil
}

// CirExport 导出元件参数。
func (config *Config) CirExport(node NodeFace) utils.Params {
	base := node.Base()
	params := utils.FromValues(config.ValueName, base.NodeValue)
	params["diameter"] = strconv.FormatFloat(base.Diameter, 'g', -1, 64)
	return params
}

// LoggableValue 默认记录端口0压力。
func (Config) LoggableValue(value NodeFace) float64 {
	return value.Base().Pressure()
}

// 以下为默认实现，具体元件类型可以通过重写这些方法来实现自定义行为。

// UpdateInternalState 时间表与控制量更新（空实现）。
func (Config) UpdateInternalState(ctx Context, value NodeFace) {}

// CalculateInternalFlow 内部通路（空实现）。
func (Config) CalculateInternalFlow(ctx Context, value NodeFace) {}

// InternalFlow 单端口元件没有内部流量。
func (Config) InternalFlow(ctx Context, value NodeFace, p1, p2 float64) float64 { return 0 }

// TransferCharge 单端口元件不转移电荷。
func (Config) TransferCharge(ctx Context, value NodeFace) float64 { return 0 }

// CalcPressure 积分所有端口的电荷。
func (Config) CalcPressure(ctx Context, value NodeFace) (float64, error) {
	return IntegratePorts(ctx, value)
}

// SetControlValue 不可控制的元件返回false。
func (Config) SetControlValue(ctx Context, value NodeFace, v float64) bool { return false }

// IntegratePorts 将本步累加的电荷积分到各端口压力：p = (p_old·V + charge)/V，下限为0。
// 返回各端口压力变化的最大值。
func IntegratePorts(ctx Context, value NodeFace) (float64, error) {
	node := value.Base()
	maxDelta := 0.0
	for i := range node.Ports {
		port := &node.Ports[i]
		if port.Volume < VolumeFloor {
			continue
		}
		old := port.Pressure
		p := (old*port.Volume + ctx.GetCharge(port.Charge)) / port.Volume
		if !maths.IsFinite(p) {
			return 0, InvalidPressure(ctx, node, i, p)
		}
		if p < 0 {
			p = 0
		}
		port.Pressure = p
		maxDelta = math.Max(maxDelta, math.Abs(p-old))
	}
	return maxDelta, nil
}

// InvalidPressure 生成包含元件、端口与时间的数值错误。
func InvalidPressure(ctx Context, node *Node, port int, p float64) error {
	return fmt.Errorf("%w: 元件 '%s' 端口 %d 在 T=%.4fs 压力为 %v，仿真中止",
		ErrInvalidPressure, node.Name, port+1, ctx.CurrentTime(), p)
}
