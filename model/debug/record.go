package debug

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"pneumatic/model"
)

// Record 记录历史状态
type Record struct {
	Nodes      [][][2]int  // 节点连接信息 [元件, 端口]
	NodeNames  []string    // 节点名称
	Elements   []string    // 元件列表
	Pressure   [][]float64 // 节点压力列
	Value      [][]float64 // 元件记录值列
	Iterations [][]float64 // 节点迭代次数列
	Time       []float64   // 时间列
	Every      int         // 每隔多少步记录一次，0 表示每步记录
	steps      int
}

// Init 初始化
func (list *Record) Init(m *model.Model) {
	list.Elements = make([]string, len(m.Elements))
	for i, ele := range m.Elements {
		list.Elements[i] = fmt.Sprintf("%s(%s)", ele.Base().Name, ele.Type())
	}
	list.Nodes = make([][][2]int, len(m.JunctionList))
	list.NodeNames = make([]string, len(m.JunctionList))
	for i, j := range m.JunctionList {
		list.NodeNames[i] = fmt.Sprintf("Node(%d)", j.ID)
		for _, conn := range j.Connections {
			list.Nodes[i] = append(list.Nodes[i], [2]int{conn.Element, conn.Port})
		}
	}
	list.Pressure, list.Value, list.Iterations, list.Time = nil, nil, nil, nil
	list.steps = 0
	list.Update(m)
}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(list) }

// Update 记录数据
func (list *Record) Update(m *model.Model) {
	list.steps++
	if list.Every > 1 && (list.steps-1)%list.Every != 0 {
		return
	}
	list.Time = append(list.Time, m.Time)
	list.Pressure = append(list.Pressure, m.JunctionPressures())
	list.Value = append(list.Value, m.LoggableValues())
	iterations := make([]float64, len(m.JunctionList))
	for i, j := range m.JunctionList {
		iterations[i] = float64(j.Iterations)
	}
	list.Iterations = append(list.Iterations, iterations)
}

func (list *Record) Error(err error) { log.Println(err) }
