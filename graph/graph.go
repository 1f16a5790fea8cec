package graph

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pneumatic/element"
)

// ErrTopology 连接配置错误
var ErrTopology = errors.New("连接配置错误")

// ParsePort 解析 "元件"、"元件.1"、"元件.2"、"元件.in"、"元件.out" 形式的端口。
// 返回的端口索引从0开始；后缀不是端口编号时整个字符串视为元件名称。
func ParsePort(s string) (name string, port int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", 0, fmt.Errorf("%w: 空端口名称", ErrTopology)
	}
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return s, 0, nil
	}
	name, suffix := s[:i], strings.ToLower(s[i+1:])
	switch suffix {
	case "in":
		return name, 0, nil
	case "out":
		return name, 1, nil
	}
	n, convErr := strconv.Atoi(suffix)
	if convErr != nil {
		return s, 0, nil
	}
	if name == "" || n < 1 {
		return "", 0, fmt.Errorf("%w: 端口 '%s' 无效", ErrTopology, s)
	}
	return name, n - 1, nil
}

// junctionIDs 为连接键分配节点ID：数字键直接使用，其余键按字母顺序接在最大ID之后。
func junctionIDs(connections map[string][]string) (map[string]int, error) {
	ids := make(map[string]int, len(connections))
	used := map[int]string{}
	var named []string
	next := 0
	for key := range connections {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			named = append(named, key)
			continue
		}
		if other, ok := used[id]; ok {
			return nil, fmt.Errorf("%w: 节点 '%s' 与 '%s' 编号重复", ErrTopology, key, other)
		}
		used[id] = key
		ids[key] = id
		if id >= next {
			next = id + 1
		}
	}
	sort.Strings(named)
	for _, key := range named {
		ids[key] = next
		next++
	}
	return ids, nil
}

func sortedKeys(connections map[string][]string, ids map[string]int) []string {
	keys := make([]string, 0, len(connections))
	for key := range connections {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool { return ids[keys[a]] < ids[keys[b]] })
	return keys
}

// JunctionKeys 连接键按节点ID排序。
func JunctionKeys(connections map[string][]string) ([]string, error) {
	ids, err := junctionIDs(connections)
	if err != nil {
		return nil, err
	}
	return sortedKeys(connections, ids), nil
}

// Build 由连接表建立节点，并写入各元件端口的节点ID。
// 返回按ID排序的节点列表。
func Build(elements []element.NodeFace, connections map[string][]string) ([]*Junction, error) {
	byName := make(map[string]int, len(elements))
	for i, ele := range elements {
		byName[ele.Base().Name] = i
	}
	ids, err := junctionIDs(connections)
	if err != nil {
		return nil, err
	}
	keys := sortedKeys(connections, ids)
	junctions := make([]*Junction, 0, len(keys))
	for _, key := range keys {
		members := connections[key]
		j := &Junction{ID: ids[key], Name: key}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: 节点 '%s' 没有连接", ErrTopology, key)
		}
		if len(members) < 2 {
			return nil, fmt.Errorf("%w: 节点 '%s' 至少需要2个连接", ErrTopology, key)
		}
		seen := map[int]bool{}
		for _, member := range members {
			name, port, err := ParsePort(member)
			if err != nil {
				return nil, fmt.Errorf("节点 '%s': %w", key, err)
			}
			idx, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: 节点 '%s' 引用了未定义的元件 '%s'", ErrTopology, key, name)
			}
			if seen[idx] {
				return nil, fmt.Errorf("%w: 节点 '%s' 重复连接元件 '%s'", ErrTopology, key, name)
			}
			seen[idx] = true
			p := elements[idx].Port(port)
			if p == nil {
				return nil, fmt.Errorf("%w: 元件 '%s' 没有端口 %d", ErrTopology, name, port+1)
			}
			if p.Junction >= 0 {
				return nil, fmt.Errorf("%w: 元件 '%s' 端口 %d 已连接到节点 %d", ErrTopology, name, port+1, p.Junction)
			}
			p.Junction = j.ID
			j.Connections = append(j.Connections, Connection{Element: idx, Port: port})
		}
		junctions = append(junctions, j)
	}
	return junctions, nil
}
