package physics

import (
	"fmt"
	"math"

	"pneumatic/maths"
)

const (
	BarToPascal         = 100000.0 // 1 bar 对应的帕斯卡
	SonicVelocity       = 340.0    // 声速限制 m/s
	DefaultTransitionMs = 20.0     // 阀门默认开关过渡时间 ms
	equilibriumDelta    = 1e-9     // 视为平衡的压差 bar
)

// Constants 流体物理常量。
// 在仿真开始前确定，之后不再修改，按值传递给需要的计算。
type Constants struct {
	Density               float64 // 空气密度 kg/m³
	SmoothingTimeConstant float64 // 流量平滑时间常数 s
	CriticalPressureDelta float64 // 临界开启压差 bar
}

// DefaultConstants 默认物理常量。
func DefaultConstants() Constants {
	return Constants{
		Density:               1.2,
		SmoothingTimeConstant: 0.0001,
		CriticalPressureDelta: 0.5,
	}
}

// Merge 用非正值回退到默认值，返回合并后的常量。
func (c Constants) Merge(def Constants) Constants {
	if c.Density <= 0 {
		c.Density = def.Density
	}
	if c.SmoothingTimeConstant <= 0 {
		c.SmoothingTimeConstant = def.SmoothingTimeConstant
	}
	if c.CriticalPressureDelta <= 0 {
		c.CriticalPressureDelta = def.CriticalPressureDelta
	}
	return c
}

// Validate 检查常量是否可用于计算。
func (c Constants) Validate() error {
	if c.Density <= 0 || !maths.IsFinite(c.Density) {
		return fmt.Errorf("空气密度必须为正数: %v", c.Density)
	}
	if c.SmoothingTimeConstant <= 0 || !maths.IsFinite(c.SmoothingTimeConstant) {
		return fmt.Errorf("平滑时间常数必须为正数: %v", c.SmoothingTimeConstant)
	}
	return nil
}

// String 常量描述。
func (c Constants) String() string {
	return fmt.Sprintf("rho=%g kg/m³ tau=%g s dpCrit=%g bar", c.Density, c.SmoothingTimeConstant, c.CriticalPressureDelta)
}

// OrificeFlow 孔口体积流量 m³/s。
// 压差单位为 bar，正值表示从 pUp 流向 pDown。
func (c Constants) OrificeFlow(pUp, pDown, area, cd float64) float64 {
	dp := pUp - pDown
	if math.Abs(dp) < equilibriumDelta || area <= 0 {
		return 0
	}
	velocity := math.Sqrt(2 * math.Abs(dp) * BarToPascal / c.Density)
	velocity = math.Min(velocity, SonicVelocity)
	return maths.Sign(dp) * area * velocity * cd
}

// SmoothingAlpha 一阶低通滤波系数。
func (c Constants) SmoothingAlpha(dt float64) float64 {
	if c.SmoothingTimeConstant <= 0 {
		return 1
	}
	return 1 - math.Exp(-dt/c.SmoothingTimeConstant)
}

// SmoothedFlow 经低通滤波的孔口流量。
// 参数lastFlow: 上一步的滤波输出。
func (c Constants) SmoothedFlow(pUp, pDown, area, cd, lastFlow, dt float64) float64 {
	raw := c.OrificeFlow(pUp, pDown, area, cd)
	alpha := c.SmoothingAlpha(dt)
	return alpha*raw + (1-alpha)*lastFlow
}

// ChargeFlow 体积流量换算为电荷流量（压力×体积/时间）。
func ChargeFlow(volumeFlow, sourcePressure float64) float64 {
	return volumeFlow * sourcePressure
}

// SourcePressure 按流向选取来源侧压力。
func SourcePressure(flow, pUp, pDown float64) float64 {
	if flow > 0 {
		return pUp
	}
	return pDown
}

// ValveTransitionAlpha 阀门开关 S 曲线，返回 0..1。
func ValveTransitionAlpha(elapsedMs, transitionMs float64) float64 {
	if elapsedMs <= 0 {
		return 0
	}
	if elapsedMs >= transitionMs {
		return 1
	}
	return 0.5 * (1 - math.Cos(math.Pi*elapsedMs/transitionMs))
}

// PortArea 由直径计算圆形截面积。
func PortArea(diameter float64) float64 {
	return math.Pi * (diameter / 2) * (diameter / 2)
}
