package load

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"pneumatic/graph"
	"pneumatic/physics"
	"pneumatic/utils"
)

// ErrModel 模型文件内容错误
var ErrModel = errors.New("模型配置无效")

// 运行配置默认值
const (
	DefaultTimeStep      = 0.001 // s
	DefaultTolerance     = 1e-5  // bar
	DefaultHardTimeLimit = 30.0  // s
	MinRunMargin         = 0.1   // 最后一个事件之后至少运行的时间 s
)

// Element 元件定义。
type Element struct {
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	Description     string       `json:"description,omitempty"`
	Comment         string       `json:"comment,omitempty"`
	Visible         bool         `json:"visible"`
	FlowCoefficient float64      `json:"flowCoefficient,omitempty"`
	Parameters      utils.Params `json:"parameters,omitempty"`
}

// Model 模型文件：元件列表与节点连接表。
type Model struct {
	ModelName   string              `json:"modelName"`
	Description string              `json:"description,omitempty"`
	Elements    []Element           `json:"elements"`
	Connections map[string][]string `json:"connections"`
}

// ValveEvent 阀门时间线条目。
type ValveEvent struct {
	TimeSeconds float64 `json:"timeSeconds"`
	State       float64 `json:"state"`
}

// EpuEvent EPU 时间线条目。
type EpuEvent struct {
	TimeSeconds    float64 `json:"timeSeconds"`
	TargetPressure float64 `json:"targetPressure"`
}

// Physics 物理参数覆盖值，缺失或非正的字段使用默认值。
type Physics struct {
	SmoothingTimeConstant float64 `json:"smoothingTimeConstant"`
	AirDensityRho         float64 `json:"airDensityRho"`
	CriticalPressureDelta float64 `json:"criticalPressureDelta"`
}

// Constants 转换为物理常量。
func (p *Physics) Constants() physics.Constants {
	def := physics.DefaultConstants()
	if p == nil {
		return def
	}
	return physics.Constants{
		Density:               p.AirDensityRho,
		SmoothingTimeConstant: p.SmoothingTimeConstant,
		CriticalPressureDelta: p.CriticalPressureDelta,
	}.Merge(def)
}

// Profile 执行配置：步长、稳态判据、时间线与物理参数。
type Profile struct {
	TimeStepSeconds   float64                 `json:"timeStepSeconds"`
	SteadyTolerance   float64                 `json:"steadyTolerance"`
	HardTimeLimit     float64                 `json:"hardTimeLimit"`
	ValveTimelines    map[string][]ValveEvent `json:"valveTimelines"`
	EpuTimelines      map[string][]EpuEvent   `json:"epuTimelines"`
	PhysicsParameters *Physics                `json:"physicsParameters,omitempty"`
}

// SetDefaults 非正的运行参数使用默认值。
func (p *Profile) SetDefaults() {
	if p.TimeStepSeconds <= 0 {
		p.TimeStepSeconds = DefaultTimeStep
	}
	if p.SteadyTolerance <= 0 {
		p.SteadyTolerance = DefaultTolerance
	}
	if p.HardTimeLimit <= 0 {
		p.HardTimeLimit = DefaultHardTimeLimit
	}
}

// LastEventTime 所有时间线中最晚的事件时间。
func (p *Profile) LastEventTime() float64 {
	last := 0.0
	for _, timeline := range p.ValveTimelines {
		for _, e := range timeline {
			last = max(last, e.TimeSeconds)
		}
	}
	for _, timeline := range p.EpuTimelines {
		for _, e := range timeline {
			last = max(last, e.TimeSeconds)
		}
	}
	return last
}

// MinRunTime 最短运行时间：最后一个事件之后再运行 MinRunMargin。
func (p *Profile) MinRunTime() float64 {
	return p.LastEventTime() + MinRunMargin
}

// ParseModel 从 JSON 读取模型。
func ParseModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("解析模型失败: %w", err)
	}
	return &m, nil
}

// LoadModel 从文件读取模型。
func LoadModel(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开模型文件 %s: %w", path, err)
	}
	defer file.Close()
	return ParseModel(file)
}

// ParseProfile 从 JSON 读取执行配置并补全默认值。
func ParseProfile(r io.Reader) (*Profile, error) {
	var p Profile
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("解析执行配置失败: %w", err)
	}
	p.SetDefaults()
	return &p, nil
}

// LoadProfile 从文件读取执行配置。
func LoadProfile(path string) (*Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开执行配置文件 %s: %w", path, err)
	}
	defer file.Close()
	return ParseProfile(file)
}

// Validate 检查模型完整性。
// 连接中引用未定义的元件、空节点、重复或空的元件名称为错误；
// 定义但未使用的元件作为警告返回。
func (m *Model) Validate() (warnings []string, err error) {
	var errs []error
	defined := make(map[string]bool, len(m.Elements))
	for i, e := range m.Elements {
		if strings.TrimSpace(e.Name) == "" {
			errs = append(errs, fmt.Errorf("第 %d 个元件没有名称", i+1))
			continue
		}
		if defined[e.Name] {
			errs = append(errs, fmt.Errorf("元件名称 '%s' 重复", e.Name))
		}
		defined[e.Name] = true
	}

	keys := make([]string, 0, len(m.Connections))
	for key := range m.Connections {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	used := map[string]bool{}
	for _, key := range keys {
		members := m.Connections[key]
		if len(members) == 0 {
			errs = append(errs, fmt.Errorf("节点 '%s' 为空", key))
			continue
		}
		for _, member := range members {
			if strings.TrimSpace(member) == "" {
				continue
			}
			name, _, perr := graph.ParsePort(member)
			if perr != nil {
				errs = append(errs, fmt.Errorf("节点 '%s': %w", key, perr))
				continue
			}
			used[name] = true
			if !defined[name] {
				errs = append(errs, fmt.Errorf("节点 '%s' 中的元件 '%s' 未在元件列表中定义", key, name))
			}
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrModel, errors.Join(errs...))
	}

	for _, e := range m.Elements {
		if !used[e.Name] {
			warnings = append(warnings, fmt.Sprintf("元件 '%s' 已定义但未连接", e.Name))
		}
	}
	return warnings, nil
}
