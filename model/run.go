package model

// RunConfig 运行参数。
type RunConfig struct {
	TimeStep      float64 // 固定步长 s
	Tolerance     float64 // 稳态判据 bar
	HardTimeLimit float64 // 最长运行时间 s
	MinRunTime    float64 // 最短运行时间 s
}

// Result 运行结果。
type Result struct {
	Time     float64 // 结束时间 s
	Steps    int     // 步数
	Steady   bool    // 是否达到稳态
	MaxDelta float64 // 最后一步的最大压力变化
}

// Run 复位模型并推进，直到超过最短运行时间且达到稳态，或达到最长运行时间。
// 参数call: 每步结束后调用，可为nil。
func Run(m *Model, cfg RunConfig, call func(m *Model)) (Result, error) {
	var res Result
	if err := m.Reset(cfg.TimeStep); err != nil {
		return res, err
	}
	steady := false
	for (!steady && m.Time < cfg.HardTimeLimit) || m.Time < cfg.MinRunTime {
		if err := m.Step(); err != nil {
			res.Time, res.MaxDelta = m.Time, m.LastMaxPressureDelta
			return res, err
		}
		res.Steps++
		steady = m.LastMaxPressureDelta < cfg.Tolerance
		if call != nil {
			call(m)
		}
		if steady && m.Time > cfg.MinRunTime {
			break
		}
	}
	res.Time, res.Steady, res.MaxDelta = m.Time, steady, m.LastMaxPressureDelta
	return res, nil
}
