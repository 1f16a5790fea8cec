package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrParam 参数格式错误
var ErrParam = errors.New("参数格式错误")

// Pressure 压力参数，单位 bar。
type Pressure float64

// Length 长度参数，单位 m。
type Length float64

// Volume 体积参数，单位 m³。
type Volume float64

// 单位换算表，键为小写单位名。
var (
	pressureUnits = map[string]float64{"": 1, "bar": 1, "mbar": 1e-3, "pa": 1e-5, "kpa": 1e-2, "mpa": 10}
	lengthUnits   = map[string]float64{"": 1, "m": 1, "cm": 1e-2, "mm": 1e-3}
	volumeUnits   = map[string]float64{"": 1, "m3": 1, "m³": 1, "l": 1e-3, "dm3": 1e-3, "ml": 1e-6, "cm3": 1e-6}
)

var valueUnitRegexp = regexp.MustCompile(`^([-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?)\s*([a-zA-Z³0-9]*)$`)

// Params 元件参数表，键为参数名，值为原始字符串。
type Params map[string]string

// UnmarshalJSON 允许参数值为字符串、数字或布尔。
func (value *Params) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*value = make(Params, len(raw))
	for k, v := range raw {
		(*value)[k] = anyToString(v)
	}
	return nil
}

// Get 查找参数，忽略键的大小写。
func (value Params) Get(key string) (string, bool) {
	if s, ok := value[key]; ok {
		return strings.TrimSpace(s), true
	}
	for k, s := range value {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// Keys 排序后的参数名。
func (value Params) Keys() []string {
	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String 按键排序输出 "k=v" 列表。
func (value Params) String() string {
	parts := make([]string, 0, len(value))
	for _, k := range value.Keys() {
		parts = append(parts, k+"="+value[k])
	}
	return strings.Join(parts, " ")
}

// SplitValueUnit 拆分 "10mm" 形式的数值与单位。
func SplitValueUnit(s string) (float64, string, error) {
	match := valueUnitRegexp.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return 0, "", fmt.Errorf("%w: 无法解析数值 '%s'", ErrParam, s)
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %s", ErrParam, err)
	}
	return v, strings.ToLower(match[2]), nil
}

// parseUnit 解析带单位的数值并换算到基本单位。
func (value Params) parseUnit(key string, defaultValue float64, units map[string]float64) (float64, error) {
	s, ok := value.Get(key)
	if !ok || s == "" {
		return defaultValue, nil
	}
	v, unit, err := SplitValueUnit(s)
	if err != nil {
		return defaultValue, fmt.Errorf("参数 '%s': %w", key, err)
	}
	scale, ok := units[unit]
	if !ok {
		return defaultValue, fmt.Errorf("参数 '%s': %w: 未知单位 '%s'", key, ErrParam, unit)
	}
	return v * scale, nil
}

// ParsePressure 解析压力，返回 bar。
func (value Params) ParsePressure(key string, defaultValue float64) (float64, error) {
	return value.parseUnit(key, defaultValue, pressureUnits)
}

// ParseLength 解析长度，返回 m。
func (value Params) ParseLength(key string, defaultValue float64) (float64, error) {
	return value.parseUnit(key, defaultValue, lengthUnits)
}

// ParseVolume 解析体积，返回 m³。
func (value Params) ParseVolume(key string, defaultValue float64) (float64, error) {
	return value.parseUnit(key, defaultValue, volumeUnits)
}

// ParseFloat64 解析无单位浮点数。
func (value Params) ParseFloat64(key string, defaultValue float64) (float64, error) {
	s, ok := value.Get(key)
	if !ok || s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("参数 '%s': %w: '%s'", key, ErrParam, s)
	}
	return v, nil
}

// ParseInt 解析整数。
func (value Params) ParseInt(key string, defaultValue int) (int, error) {
	s, ok := value.Get(key)
	if !ok || s == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue, fmt.Errorf("参数 '%s': %w: '%s'", key, ErrParam, s)
	}
	return v, nil
}

// ParseBool 解析布尔值，支持 0/1。
func (value Params) ParseBool(key string, defaultValue bool) (bool, error) {
	s, ok := value.Get(key)
	if !ok || s == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return defaultValue, fmt.Errorf("参数 '%s': %w: '%s'", key, ErrParam, s)
	}
	return v, nil
}

// ParseString 读取字符串。
func (value Params) ParseString(key string, defaultValue string) string {
	if s, ok := value.Get(key); ok {
		return s
	}
	return defaultValue
}

// ParseDuration 解析时间间隔。
func (value Params) ParseDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	s, ok := value.Get(key)
	if !ok || s == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue, fmt.Errorf("参数 '%s': %w: '%s'", key, ErrParam, s)
	}
	return v, nil
}

// FromValues 将名称与值列表组合为参数表，跳过空名称。
func FromValues(names []string, values []any) Params {
	params := make(Params, len(names))
	for i, name := range names {
		if name == "" || i >= len(values) {
			continue
		}
		params[name] = anyToString(values[i])
	}
	return params
}

// anyToString 将任意基础类型转换为字符串
func anyToString(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case Pressure:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Length:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Volume:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case time.Duration:
		return val.String()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(v)
	}
}
