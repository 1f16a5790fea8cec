package plc

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/template"
	"time"

	"pneumatic/element"
	"pneumatic/element/base"
	"pneumatic/graph"
	"pneumatic/load"
	"pneumatic/utils"
)

// DefaultOutput 默认输出文件
const DefaultOutput = "F_InitializeModel.TcPOU"

const source = `(*====================================================================
    FUNCTION F_InitializeModel
    Generated from: {{.Source}}
    Date: {{.Date}}
====================================================================*)
FUNCTION F_InitializeModel : BOOL
VAR
    // No local vars needed
END_VAR

// 1. Reset Arrays
MEMSET(ADR(GVL.g_arElementConfigs), 0, SIZEOF(GVL.g_arElementConfigs));
MEMSET(ADR(GVL.g_arConnections), 0, SIZEOF(GVL.g_arConnections));

{{range .Elements -}}
// Element {{.Index}}: {{.Name}} ({{.Type}})
{{$prefix := printf "GVL.g_arElementConfigs[%d]" .Index -}}
{{$prefix}}.sName := '{{.Name}}';
{{range .Fields -}}
{{if .Comment}} // {{.Comment}}{{else}}{{$prefix}}.{{.Name}} := {{.Value}};{{end}}
{{end}}
{{end -}}
// --- CONNECTIONS ---
// Mapping JSON Junctions (Nodes) to PLC Pairs
{{range .Connections -}}
{{if .Skipped -}}
// Junction {{.Junction}}: Skipped (Single or Empty connection)
{{else -}}
// Connection {{.Index}}: Junction {{.Junction}} ({{.NameA}} <-> {{.NameB}})
GVL.g_arConnections[{{.Index}}].iElementA := {{.A}};
GVL.g_arConnections[{{.Index}}].iElementB := {{.B}};
{{end -}}
{{end -}}
F_InitializeModel := TRUE;
`

var tmpl = template.Must(template.New("F_InitializeModel").Parse(source))

// Field 结构体成员赋值，Comment 非空时输出注释行
type Field struct {
	Name    string
	Value   string
	Comment string
}

// Element 元件配置
type Element struct {
	Index  int
	Name   string
	Type   string
	Fields []Field
}

// Connection 一对相连的元件
type Connection struct {
	Index    int
	Junction string
	NameA    string
	NameB    string
	A, B     int
	Skipped  bool
}

type view struct {
	Source      string
	Date        string
	Elements    []Element
	Connections []Connection
}

func f4(v float64) string { return fmt.Sprintf("%.4f", v) }
func f2(v float64) string { return fmt.Sprintf("%.2f", v) }
func e6(v float64) string { return fmt.Sprintf("%.6E", v) }

// area 由直径计算截面积
func area(p utils.Params, key string) (float64, error) {
	d, err := p.ParseLength(key, element.DefaultDiameter)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		d = element.DefaultDiameter
	}
	return math.Pi * math.Pow(d/2, 2), nil
}

// fields 按元件类型生成结构体成员
func fields(e load.Element) ([]Field, error) {
	p := e.Parameters
	a, err := area(p, "diameter")
	if err != nil {
		return nil, err
	}
	cd := e.FlowCoefficient
	if cd <= 0 {
		cd = 1
	}
	switch strings.ToLower(e.Type) {
	case "supply":
		pressure, err := p.ParsePressure("pressure", 0)
		if err != nil {
			return nil, err
		}
		return []Field{
			{Name: "eType", Value: "E_ElementType.Supply"},
			{Name: "fInitialPressure", Value: f4(pressure)},
		}, nil
	case "exhaust":
		return []Field{
			{Name: "eType", Value: "E_ElementType.Exhaust"},
			{Name: "fInitialPressure", Value: "0.0"},
		}, nil
	case "pipe":
		length, err := p.ParseLength("length", base.DefaultPipeLength)
		if err != nil {
			return nil, err
		}
		return []Field{
			{Name: "eType", Value: "E_ElementType.Pipe"},
			{Name: "fVolume", Value: e6(a * length)},
			{Name: "fConnectionArea", Value: e6(a)},
		}, nil
	case "tank":
		volume, err := p.ParseVolume("volume", base.DefaultTankVolume)
		if err != nil {
			return nil, err
		}
		pressure, err := p.ParsePressure("pressure", 0)
		if err != nil {
			return nil, err
		}
		if _, ok := p.Get("portDiameter"); ok {
			if a, err = area(p, "portDiameter"); err != nil {
				return nil, err
			}
		}
		return []Field{
			{Name: "eType", Value: "E_ElementType.Tank"},
			{Name: "fVolume", Value: e6(volume)},
			{Name: "fInitialPressure", Value: f4(pressure)},
			{Name: "fConnectionArea", Value: e6(a)},
		}, nil
	case "valve", "throttle", "checkvalve":
		kind := map[string]string{"valve": "Valve", "throttle": "Throttle", "checkvalve": "CheckValve"}[strings.ToLower(e.Type)]
		return []Field{
			{Name: "eType", Value: "E_ElementType." + kind},
			{Name: "fConnectionArea", Value: e6(a)},
			{Name: "fFlowCoefficient", Value: f2(cd)},
		}, nil
	case "regulator":
		target, err := p.ParsePressure("pressure", 0)
		if err != nil {
			return nil, err
		}
		kp, err := p.ParseFloat64("kp", 0.5)
		if err != nil {
			return nil, err
		}
		ki, err := p.ParseFloat64("ki", 5)
		if err != nil {
			return nil, err
		}
		return []Field{
			{Name: "eType", Value: "E_ElementType.Regulator"},
			{Name: "fConnectionArea", Value: e6(a)},
			{Name: "stRegulatorParams.fTargetPressure", Value: f2(target)},
			{Name: "stRegulatorParams.fKp", Value: f2(kp)},
			{Name: "stRegulatorParams.fKi", Value: f2(ki)},
		}, nil
	case "epu":
		values := make([]float64, 4)
		for i, def := range []struct {
			key string
			v   float64
		}{
			{"maxDpDt", base.DefaultMaxDpDt},
			{"timeConstant", base.DefaultTimeConstant},
			{"naturalFrequency", base.DefaultNaturalFrequency},
			{"dampingRatio", base.DefaultDampingRatio},
		} {
			if values[i], err = p.ParseFloat64(def.key, def.v); err != nil {
				return nil, err
			}
		}
		return []Field{
			{Name: "eType", Value: "E_ElementType.EPU"},
			{Name: "fConnectionArea", Value: e6(a)},
			{Name: "stEpuParams.fMaxDpDt", Value: fmt.Sprintf("%.1f", values[0])},
			{Name: "stEpuParams.fTimeConstant", Value: fmt.Sprintf("%.3f", values[1])},
			{Name: "stEpuParams.fNaturalFrequency", Value: fmt.Sprintf("%.1f", values[2])},
			{Name: "stEpuParams.fDampingRatio", Value: f2(values[3])},
		}, nil
	}
	return []Field{{Comment: fmt.Sprintf("WARNING: Unknown Element Type '%s' for element '%s'", e.Type, e.Name)}}, nil
}

// connections 每个节点的元件按顺序两两相连：A-B, B-C ...
func connections(dto *load.Model, index map[string]int) ([]Connection, error) {
	keys, err := graph.JunctionKeys(dto.Connections)
	if err != nil {
		return nil, err
	}
	var list []Connection
	next := 1
	for _, key := range keys {
		var names []string
		seen := map[string]bool{}
		for _, member := range dto.Connections[key] {
			name, _, err := graph.ParsePort(member)
			if err != nil || seen[name] {
				continue
			}
			if _, ok := index[name]; !ok {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
		if len(names) < 2 {
			list = append(list, Connection{Junction: key, Skipped: true})
			continue
		}
		for i := 0; i+1 < len(names); i++ {
			list = append(list, Connection{
				Index:    next,
				Junction: key,
				NameA:    names[i],
				NameB:    names[i+1],
				A:        index[names[i]],
				B:        index[names[i+1]],
			})
			next++
		}
	}
	return list, nil
}

// Generate 生成 PLC 初始化函数 F_InitializeModel。
// 元件在 GVL.g_arElementConfigs 中的索引从1开始，按模型文件中的顺序。
func Generate(w io.Writer, dto *load.Model, sourceName string, now time.Time) error {
	v := view{Source: sourceName, Date: now.Format("2006-01-02 15:04:05")}
	index := make(map[string]int, len(dto.Elements))
	for i, e := range dto.Elements {
		index[e.Name] = i + 1
		f, err := fields(e)
		if err != nil {
			return fmt.Errorf("元件 '%s': %w", e.Name, err)
		}
		v.Elements = append(v.Elements, Element{Index: i + 1, Name: e.Name, Type: e.Type, Fields: f})
	}
	conns, err := connections(dto, index)
	if err != nil {
		return err
	}
	v.Connections = conns
	return tmpl.Execute(w, v)
}

// GenerateFile 读取模型文件并写入 PLC 代码。
func GenerateFile(modelPath, outputPath string) error {
	dto, err := load.LoadModel(modelPath)
	if err != nil {
		return err
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("无法创建输出文件 %s: %w", outputPath, err)
	}
	defer file.Close()
	return Generate(file, dto, modelPath, time.Now())
}
