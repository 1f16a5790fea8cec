package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"pneumatic/element"
	"pneumatic/model"
)

// 元件在原理图中的角色
var (
	sinkTypes   = map[string]bool{"tank": true, "exhaust": true}
	sourceTypes = map[string]bool{"supply": true, "epu": true}
)

// junctionDistances 以气源所在节点为起点，经两端口元件到各节点的最少跳数。
func junctionDistances(m *model.Model) map[int]int {
	g := simple.NewUndirectedGraph()
	for _, j := range m.JunctionList {
		if g.Node(int64(j.ID)) == nil {
			g.AddNode(simple.Node(j.ID))
		}
	}
	for _, ele := range m.Elements {
		ports := ele.Base().Ports
		if len(ports) != 2 || ports[0].Junction < 0 || ports[1].Junction < 0 || ports[0].Junction == ports[1].Junction {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(ports[0].Junction), simple.Node(ports[1].Junction)))
	}
	distances := map[int]int{}
	for _, ele := range m.Elements {
		start := ele.Base().Ports[0].Junction
		if !sourceTypes[ele.Type().String()] || start < 0 {
			continue
		}
		var bf traverse.BreadthFirst
		bf.Walk(g, simple.Node(start), func(n graph.Node, d int) bool {
			id := int(n.ID())
			if old, ok := distances[id]; !ok || d < old {
				distances[id] = d
			}
			return false
		})
	}
	return distances
}

// reversed 单向阀出口比入口更靠近气源时视为反向安装
func reversed(ele element.NodeFace, distances map[int]int) bool {
	ports := ele.Base().Ports
	d1, ok1 := distances[ports[0].Junction]
	d2, ok2 := distances[ports[1].Junction]
	return ok1 && ok2 && d2 < d1
}

// WriteDot 以 Graphviz DOT 格式输出原理图。
// 每个节点选择一个中心元件：优先选择气罐或排气口，其他元件指向它；
// 否则选择气源，由它指向其他元件；都没有时取第一个元件。
// 参数iconDir: 元件图标目录，存在 <类型>.png 时作为节点图片，可为空。
func WriteDot(w io.Writer, m *model.Model, iconDir string) error {
	var sb strings.Builder
	sb.WriteString("digraph PneumaticSchema {\n")
	sb.WriteString("    rankdir=LR;\n")
	sb.WriteString("    node [shape=box, fixedsize=true, width=1, height=1, labelloc=b];\n")

	distances := junctionDistances(m)
	for _, ele := range m.Elements {
		name := ele.Base().Name
		icon := ele.Type().String()
		if icon == "checkvalve" && reversed(ele, distances) {
			icon = "checkvalve_reversed"
		}
		path := ""
		if iconDir != "" {
			if p, err := filepath.Abs(filepath.Join(iconDir, icon+".png")); err == nil {
				if _, err := os.Stat(p); err == nil {
					path = p
				}
			}
		}
		if path == "" {
			fmt.Fprintf(&sb, "    %q [label=%q];\n", name, name)
		} else {
			fmt.Fprintf(&sb, "    %q [label=%q, image=%q, labelloc=b];\n", name, name, path)
		}
	}

	for _, j := range m.JunctionList {
		var members []element.NodeFace
		seen := map[int]bool{}
		for _, conn := range j.Connections {
			if !seen[conn.Element] {
				seen[conn.Element] = true
				members = append(members, m.Elements[conn.Element])
			}
		}
		if len(members) < 2 {
			continue
		}
		hub, out := members[0], true
		if sink := findType(members, sinkTypes); sink != nil {
			hub, out = sink, false
		} else if source := findType(members, sourceTypes); source != nil {
			hub = source
		}
		for _, ele := range members {
			if ele == hub {
				continue
			}
			if out {
				fmt.Fprintf(&sb, "    %q -> %q;\n", hub.Base().Name, ele.Base().Name)
			} else {
				fmt.Fprintf(&sb, "    %q -> %q;\n", ele.Base().Name, hub.Base().Name)
			}
		}
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func findType(members []element.NodeFace, types map[string]bool) element.NodeFace {
	for _, ele := range members {
		if types[ele.Type().String()] {
			return ele
		}
	}
	return nil
}

// SaveDot 写入 DOT 文件，图片由外部 Graphviz 工具生成。
func SaveDot(path string, m *model.Model, iconDir string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建原理图文件 %s: %w", path, err)
	}
	if err := WriteDot(file, m, iconDir); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
