package pneumatic

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"

	_ "pneumatic/element/base"
	"pneumatic/load"
	"pneumatic/model"
	"pneumatic/model/debug"
	"pneumatic/report"
	"pneumatic/utils"
)

// 输出文件名
const (
	ResultFile     = "simulation_result.csv"
	ChartSuffix    = "_chart.png"
	SchemaSuffix   = "_schema.dot"
	ExcelSuffix    = "_result.xlsx"
	ReportSuffix   = "_report.html"
	DebugSuffix    = "_debug.json"
	DefaultOutDir  = "output"
	DefaultIconDir = "schema_icons"
	progressEvery  = 10 // 每隔多少步刷新一次控制台进度
	recordEvery    = 10 // 调试记录间隔步数
)

// Options 运行选项
type Options struct {
	OutDir   string  // 输出根目录
	TimeStep float64 // 大于0时覆盖执行配置中的步长
	Excel    bool    // 输出 Excel 文件
	HTML     bool    // 输出 echarts 网页报告
	Debug    bool    // 输出逐步记录 JSON
	IconDir  string  // 原理图图标目录
}

// Simulation 按执行配置运行一个模型
type Simulation struct {
	ModelPath   string
	ProfilePath string
	Dto         *load.Model
	Profile     *load.Profile
	Model       *model.Model
	Options     Options
	Dir         string    // 本次输出目录
	Out         io.Writer // 控制台输出
}

// NewSimulation 读取模型与执行配置并创建模型
func NewSimulation(modelPath, profilePath string, opt Options) (*Simulation, error) {
	dto, err := load.LoadModel(modelPath)
	if err != nil {
		return nil, err
	}
	profile, err := load.LoadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	if opt.TimeStep > 0 {
		profile.TimeStepSeconds = opt.TimeStep
	}
	if opt.OutDir == "" {
		opt.OutDir = DefaultOutDir
	}
	m, err := model.FromDto(dto)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		ModelPath:   modelPath,
		ProfilePath: profilePath,
		Dto:         dto,
		Profile:     profile,
		Model:       m,
		Options:     opt,
		Dir:         filepath.Join(opt.OutDir, utils.SanitizeFileName(dto.ModelName, '_')),
		Out:         os.Stdout,
	}, nil
}

// path 输出目录中以模型名称开头的文件
func (s *Simulation) path(suffix string) string {
	return filepath.Join(s.Dir, utils.SanitizeFileName(s.Dto.ModelName, '_')+suffix)
}

// copyFile 复制输入文件到输出目录
func copyFile(src, dir string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(filepath.Join(dir, filepath.Base(src)))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Prepare 创建输出目录，复制输入文件并写入原理图
func (s *Simulation) Prepare() error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	for _, src := range []string{s.ModelPath, s.ProfilePath} {
		if err := copyFile(src, s.Dir); err != nil {
			return fmt.Errorf("复制文件 %s 失败: %w", src, err)
		}
	}
	return report.SaveDot(s.path(SchemaSuffix), s.Model, s.Options.IconDir)
}

// Run 运行仿真并写入结果文件、结果图与可选的报告
func (s *Simulation) Run() (model.Result, error) {
	var res model.Result
	minRun, err := s.Model.ApplyProfile(s.Profile)
	if err != nil {
		return res, err
	}
	var charts *debug.Charts
	if s.Options.HTML || s.Options.Debug {
		charts = &debug.Charts{Record: debug.Record{Every: recordEvery}}
		s.Model.Debug = charts
	}

	logger, err := report.CreateLogger(filepath.Join(s.Dir, ResultFile), s.Model)
	if err != nil {
		return res, err
	}
	p := s.Profile
	fmt.Fprintf(s.Out, "\n开始仿真 (dt=%gs, End=%gs, %s)...\n", p.TimeStepSeconds, p.HardTimeLimit, s.Model.Physics())
	var logErr error
	res, err = model.Run(s.Model, model.RunConfig{
		TimeStep:      p.TimeStepSeconds,
		Tolerance:     p.SteadyTolerance,
		HardTimeLimit: p.HardTimeLimit,
		MinRunTime:    minRun,
	}, func(m *model.Model) {
		if err := logger.Log(m); err != nil && logErr == nil {
			logErr = err
		}
		if int(math.Round(m.Time/m.TimeStep))%progressEvery == 0 {
			fmt.Fprintf(s.Out, "\rTime: %.4fs | Max dP: %.6f", m.Time, m.LastMaxPressureDelta)
		}
	})
	if cerr := logger.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = logErr
	}
	if err != nil {
		return res, err
	}
	if res.Steady {
		fmt.Fprintf(s.Out, "\n稳态 T=%.2fs (DeltaP: %.2E)", res.Time, res.MaxDelta)
	}
	fmt.Fprintf(s.Out, "\n仿真结束，结果保存在 %s\n", s.Dir)
	return res, s.outputs(charts)
}

// outputs 由结果文件生成结果图与可选的 Excel、网页与调试记录
func (s *Simulation) outputs(charts *debug.Charts) error {
	h, err := report.LoadCSV(filepath.Join(s.Dir, ResultFile))
	if err != nil {
		return err
	}
	if err := report.SaveChart(s.path(ChartSuffix), h, s.Model); err != nil {
		log.Printf("结果图生成失败: %s", err)
	}
	if s.Options.Excel {
		if err := report.SaveExcel(s.path(ExcelSuffix), h, s.Model); err != nil {
			return err
		}
	}
	if charts == nil {
		return nil
	}
	if s.Options.HTML {
		if err := writeFile(s.path(ReportSuffix), charts.Render); err != nil {
			return err
		}
	}
	if s.Options.Debug {
		if err := writeFile(s.path(DebugSuffix), charts.Record.Render); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, render func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
