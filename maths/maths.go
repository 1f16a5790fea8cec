package maths

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Epsilon 数值判零阈值
const Epsilon = 1e-9

// Clamp 将值限制在 [lo, hi] 区间内。
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sign 返回符号，正数为1，负数为-1，零为0。
func Sign[T constraints.Float](v T) T {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Lerp 线性插值。
// 参数t: 插值系数，0 返回a，1 返回b。
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// IsZero 判断值是否接近零。
func IsZero[T constraints.Float](v T) bool {
	return math.Abs(float64(v)) < Epsilon
}

// FalsePosition 试位法（Illinois 修正）求 f 在 [a, b] 内的根。
// fa、fb 为两端函数值，必须异号或其一为零。
// |f| 小于 tol 或区间宽度小于 width 时结束，返回根与计算 f 的次数。
func FalsePosition(f func(float64) float64, a, b, fa, fb, tol, width float64, maxIter int) (float64, int) {
	switch {
	case math.Abs(fa) < tol:
		return a, 0
	case math.Abs(fb) < tol:
		return b, 0
	}
	c, side := a, 0
	for n := 1; n <= maxIter; n++ {
		c = (a*fb - b*fa) / (fb - fa)
		fc := f(c)
		if math.Abs(fc) < tol || math.Abs(b-a) < width {
			return c, n
		}
		if fc*fb > 0 {
			b, fb = c, fc
			if side == -1 {
				fa /= 2
			}
			side = -1
		} else {
			a, fa = c, fc
			if side == 1 {
				fb /= 2
			}
			side = 1
		}
	}
	return c, maxIter
}

// IsFinite 判断值既不是NaN也不是无穷大。
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
