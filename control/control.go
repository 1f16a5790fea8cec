package control

import (
	"fmt"
	"math"

	"pneumatic/maths"
)

// PT1 一阶惯性加变化率限制的压力执行器模型。
type PT1 struct {
	TimeConstant float64 // 时间常数 s
	MaxRate      float64 // 最大变化率 bar/s
}

// NewPT1 创建一阶模型。
func NewPT1(timeConstant, maxRate float64) (*PT1, error) {
	if timeConstant <= 0 {
		return nil, fmt.Errorf("PT1 时间常数必须大于0: %v", timeConstant)
	}
	if maxRate <= 0 {
		return nil, fmt.Errorf("PT1 最大变化率必须大于0: %v", maxRate)
	}
	return &PT1{TimeConstant: timeConstant, MaxRate: maxRate}, nil
}

// Update 推进一个步长，返回新的压力。
func (p *PT1) Update(current, setpoint, dt float64) float64 {
	if dt <= 0 {
		return current
	}
	target := current + (dt/p.TimeConstant)*(setpoint-current)
	maxStep := p.MaxRate * dt
	return current + maths.Clamp(target-current, -maxStep, maxStep)
}

// PT2 二阶弹簧阻尼执行器模型，保存速度状态。
type PT2 struct {
	NaturalFrequency float64 // 固有频率 ωn
	DampingRatio     float64 // 阻尼比 ζ
	Velocity         float64 // 当前变化速度
}

// NewPT2 创建二阶模型。
func NewPT2(naturalFrequency, dampingRatio float64) (*PT2, error) {
	if naturalFrequency <= 0 {
		return nil, fmt.Errorf("PT2 固有频率必须大于0: %v", naturalFrequency)
	}
	if dampingRatio < 0 {
		return nil, fmt.Errorf("PT2 阻尼比不能为负: %v", dampingRatio)
	}
	return &PT2{NaturalFrequency: naturalFrequency, DampingRatio: dampingRatio}, nil
}

// Update 显式欧拉推进一个步长，先更新速度再更新值。
func (p *PT2) Update(current, target, dt float64) float64 {
	wn := p.NaturalFrequency
	acceleration := wn*wn*(target-current) - 2*p.DampingRatio*wn*p.Velocity
	p.Velocity += acceleration * dt
	return current + p.Velocity*dt
}

// Reset 清除速度状态。
func (p *PT2) Reset() { p.Velocity = 0 }

// IntegralLimit 积分抗饱和限幅
const IntegralLimit = 1.0

// PI 比例积分控制器，输出开度 0..1。
type PI struct {
	Kp       float64
	Ki       float64
	Integral float64
}

// Update 根据误差计算开度。
func (c *PI) Update(err, dt float64) float64 {
	c.Integral = maths.Clamp(c.Integral+err*dt, -IntegralLimit, IntegralLimit)
	return maths.Clamp(c.Kp*err+c.Ki*c.Integral, 0, 1)
}

// Reset 清除积分。
func (c *PI) Reset() { c.Integral = 0 }

// Lag 一阶惯性的精确离散形式，任意步长下都不超调。
// 时间常数不大于0时直接返回目标值。
func Lag(current, target, timeConstant, dt float64) float64 {
	if timeConstant <= 0 {
		return target
	}
	return current + (target-current)*(1-math.Exp(-dt/timeConstant))
}
