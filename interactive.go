package pneumatic

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pneumatic/model"
)

// DefaultInteractiveStep 交互模式默认步长 s
const DefaultInteractiveStep = 0.001

const help = `Commands:
  <ElementName> <Value>  : Set value (e.g. 'V1 1' or 'EPU_1 5.5')
  run <steps>            : Run N steps
  status                 : Show status
  quit                   : Exit
`

// Status 输出所有需记录元件的压力
func Status(w io.Writer, m *model.Model) {
	fmt.Fprintf(w, "Time: %.4fs\n", m.Time)
	for _, ele := range m.Elements {
		node := ele.Base()
		if node.Visible {
			fmt.Fprintf(w, "  %-10s: %.4f bar\n", node.Name, node.Ports[0].Pressure)
		}
	}
}

// Interactive 交互模式：从 in 读取命令并推进模型，时间表被忽略。
// 仿真出错时返回错误，读到 quit 或输入结束时正常返回。
func Interactive(m *model.Model, dt float64, in io.Reader, out io.Writer) error {
	if dt <= 0 {
		dt = DefaultInteractiveStep
	}
	m.IsInteractive = true
	if err := m.Reset(dt); err != nil {
		return err
	}
	fmt.Fprintf(out, "--- INTERACTIVE MODE: %s ---\n", m.Name)
	io.WriteString(out, help)

	scanner := bufio.NewScanner(in)
	for {
		io.WriteString(out, "> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		switch strings.ToLower(args[0]) {
		case "quit", "exit":
			return nil
		case "status":
			Status(out, m)
		case "run":
			steps := 1
			if len(args) > 1 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					fmt.Fprintf(out, "无效的步数: %s\n", args[1])
					continue
				}
				steps = n
			}
			for i := 0; i < steps; i++ {
				if err := m.Step(); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Ran %d steps. T=%.3fs\n", steps, m.Time)
		default:
			if len(args) < 2 {
				fmt.Fprintf(out, "未知命令: %s\n", args[0])
				continue
			}
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				fmt.Fprintf(out, "无效的数值: %s\n", args[1])
				continue
			}
			if err := m.SetControlValue(args[0], v); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			fmt.Fprintf(out, "Set %s to %g\n", args[0], v)
		}
	}
	return scanner.Err()
}
