package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"pneumatic"
	"pneumatic/load"
	"pneumatic/model"
	"pneumatic/plc"
)

func main() {
	modelPath := flag.String("model", "model.json", "模型文件")
	profilePath := flag.String("profile", "executionProfile.json", "执行配置文件")
	outDir := flag.String("out", pneumatic.DefaultOutDir, "输出目录")
	iconDir := flag.String("icons", pneumatic.DefaultIconDir, "原理图图标目录")
	interactive := flag.Bool("interactive", false, "交互模式")
	dt := flag.Float64("dt", 0, "步长 s，0 使用执行配置或交互模式默认值")
	generatePLC := flag.Bool("generate-plc", false, "只生成 PLC 初始化代码")
	plcOut := flag.String("plc-out", plc.DefaultOutput, "PLC 代码输出文件")
	xlsx := flag.Bool("xlsx", false, "输出 Excel 结果")
	html := flag.Bool("html", false, "输出网页报告")
	debug := flag.Bool("debug", false, "输出逐步记录")
	flag.Parse()

	if *generatePLC {
		if err := plc.GenerateFile(*modelPath, *plcOut); err != nil {
			log.Fatalf("PLC 代码生成失败: %s", err)
		}
		fmt.Printf("PLC 代码已写入 %s\n", *plcOut)
		return
	}

	if *interactive {
		dto, err := load.LoadModel(*modelPath)
		if err != nil {
			log.Fatal(err)
		}
		m, err := model.FromDto(dto)
		if err != nil {
			log.Fatal(err)
		}
		if err := pneumatic.Interactive(m, *dt, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}

	s, err := pneumatic.NewSimulation(*modelPath, *profilePath, pneumatic.Options{
		OutDir:   *outDir,
		TimeStep: *dt,
		Excel:    *xlsx,
		HTML:     *html,
		Debug:    *debug,
		IconDir:  *iconDir,
	})
	if err != nil {
		log.Fatal(err)
	}
	if err := s.Prepare(); err != nil {
		log.Fatal(err)
	}
	if _, err := s.Run(); err != nil {
		log.Fatal(err)
	}
}
