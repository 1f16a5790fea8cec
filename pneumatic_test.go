package pneumatic

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pneumatic/load"
	"pneumatic/model"
)

const testModel = `{
	"modelName": "sim/test",
	"elements": [
		{"name": "S", "type": "Supply", "parameters": {"pressure": "6"}},
		{"name": "V", "type": "Valve", "visible": true},
		{"name": "T", "type": "Tank", "visible": true, "parameters": {"volume": "1 l"}}
	],
	"connections": {
		"1": ["S", "V.in"],
		"2": ["V.out", "T"]
	}
}`

const testProfile = `{
	"timeStepSeconds": 0.001,
	"steadyTolerance": 1e-5,
	"hardTimeLimit": 0.5,
	"valveTimelines": {"V": [{"timeSeconds": 0.2, "state": 1}]}
}`

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	profilePath := filepath.Join(dir, "executionProfile.json")
	if err := os.WriteFile(modelPath, []byte(testModel), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(profilePath, []byte(testProfile), 0o644); err != nil {
		t.Fatal(err)
	}
	return modelPath, profilePath
}

func TestSimulation(t *testing.T) {
	modelPath, profilePath := writeInputs(t)
	out := t.TempDir()
	s, err := NewSimulation(modelPath, profilePath, Options{OutDir: out, Excel: true, HTML: true, Debug: true})
	if err != nil {
		t.Fatal(err)
	}
	var console bytes.Buffer
	s.Out = &console
	if s.Dir != filepath.Join(out, "sim_test") {
		t.Errorf("输出目录错误: %s", s.Dir)
	}
	if err := s.Prepare(); err != nil {
		t.Fatal(err)
	}
	res, err := s.Run()
	if err != nil {
		t.Fatal(err)
	}
	// 阀门在 0.2 s 打开，至少运行到最后事件之后 0.1 s
	if res.Time < 0.3 {
		t.Errorf("运行时间过短: %g", res.Time)
	}
	if !strings.Contains(console.String(), "Time: ") {
		t.Errorf("缺少进度输出: %q", console.String())
	}
	for _, name := range []string{
		"model.json",
		"executionProfile.json",
		ResultFile,
		"sim_test" + SchemaSuffix,
		"sim_test" + ChartSuffix,
		"sim_test" + ExcelSuffix,
		"sim_test" + ReportSuffix,
		"sim_test" + DebugSuffix,
	} {
		if _, err := os.Stat(filepath.Join(s.Dir, name)); err != nil {
			t.Errorf("缺少输出文件 %s: %s", name, err)
		}
	}
	v, _ := s.Model.Element("T")
	if p := v.Base().Ports[0].Pressure; p <= 0 || p > 6+1e-6 {
		t.Errorf("气罐压力错误: %g", p)
	}
}

func TestSimulationMissingFile(t *testing.T) {
	modelPath, _ := writeInputs(t)
	if _, err := NewSimulation(modelPath, filepath.Join(t.TempDir(), "none.json"), Options{}); err == nil {
		t.Errorf("执行配置不存在时应返回错误")
	}
}

func newModel(t *testing.T) *model.Model {
	t.Helper()
	dto, err := load.ParseModel(strings.NewReader(testModel))
	if err != nil {
		t.Fatal(err)
	}
	m, err := model.FromDto(dto)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestInteractive(t *testing.T) {
	m := newModel(t)
	in := strings.NewReader("status\nV 1\nBoiler 1\nrun x\nrun 100\n\nstatus\nquit\nrun 100\n")
	var out bytes.Buffer
	if err := Interactive(m, 0, in, &out); err != nil {
		t.Fatal(err)
	}
	text := out.String()
	for _, s := range []string{
		"--- INTERACTIVE MODE: sim/test ---",
		"  T         : 0.0000 bar",
		"Set V to 1",
		"未知元件 'Boiler'",
		"无效的步数: x",
		"Ran 100 steps. T=0.100s",
	} {
		if !strings.Contains(text, s) {
			t.Errorf("输出缺少 %q:\n%s", s, text)
		}
	}
	// quit 之后的命令不再执行
	if m.Time > 0.1+1e-9 {
		t.Errorf("quit 之后仍在运行: T=%g", m.Time)
	}
	v, _ := m.Element("T")
	if v.Base().Ports[0].Pressure <= 0 {
		t.Errorf("阀门打开后气罐压力应上升")
	}
}

func TestInteractiveEOF(t *testing.T) {
	m := newModel(t)
	var out bytes.Buffer
	if err := Interactive(m, 0.002, strings.NewReader("run 5"), &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "T=0.010s") {
		t.Errorf("步长设置错误:\n%s", out.String())
	}
}
