package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"pneumatic/element"
	"pneumatic/model"
)

const (
	TimeHeader  = "Time[s]"
	StateSuffix = "_State"  // 阀类元件记录开度
	PressSuffix = "_P[bar]" // 其他元件记录压力
	Separator   = ';'

	// MinLogInterval 两条记录之间的最小仿真时间 s
	MinLogInterval = 0.001
)

// Header 结果文件表头，元件按ID排列。
func Header(m *model.Model) []string {
	header := make([]string, 0, len(m.Elements)+1)
	header = append(header, TimeHeader)
	for _, ele := range m.Elements {
		suffix := PressSuffix
		if ele.Config().PinNum() == 2 {
			suffix = StateSuffix
		}
		header = append(header, ele.Base().Name+suffix)
	}
	return header
}

// Logger 以分号分隔写入每步的元件记录值。
type Logger struct {
	writer   *csv.Writer
	file     io.Closer
	Interval float64 // 最小记录间隔 s
	last     float64
	row      []string
}

// NewLogger 写入表头并返回记录器。
func NewLogger(w io.Writer, m *model.Model) (*Logger, error) {
	writer := csv.NewWriter(w)
	writer.Comma = Separator
	if err := writer.Write(Header(m)); err != nil {
		return nil, err
	}
	return &Logger{
		writer:   writer,
		Interval: MinLogInterval,
		last:     -1,
		row:      make([]string, len(m.Elements)+1),
	}, nil
}

// CreateLogger 创建结果文件。
func CreateLogger(path string, m *model.Model) (*Logger, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("无法创建结果文件 %s: %w", path, err)
	}
	l, err := NewLogger(file, m)
	if err != nil {
		file.Close()
		return nil, err
	}
	l.file = file
	return l, nil
}

// Log 记录当前时间的元件值。
// 第一条总是写入，之后与上一条相隔不足 Interval 的时间点被跳过。
func (l *Logger) Log(m *model.Model) error {
	if l.last >= 0 && m.Time < l.last+l.Interval-1e-9 {
		return nil
	}
	l.last = m.Time
	l.row[0] = strconv.FormatFloat(m.Time, 'f', 4, 64)
	for i, ele := range m.Elements {
		v := element.ElementList[ele.Type()].LoggableValue(ele)
		l.row[i+1] = strconv.FormatFloat(v, 'f', 4, 64)
	}
	return l.writer.Write(l.row)
}

// Close 刷新缓冲并关闭文件。
func (l *Logger) Close() error {
	l.writer.Flush()
	err := l.writer.Error()
	if l.file != nil {
		if cerr := l.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// History 结果文件内容
type History struct {
	Header []string             // 原始表头
	Names  []string             // 去掉单位后缀的列名，不含时间列
	Time   []float64            // 时间列
	Series map[string][]float64 // 列名到数据
}

// seriesName 去掉最后一个下划线之后的单位后缀。
func seriesName(header string) string {
	if i := strings.LastIndex(header, "_"); i > 0 {
		return header[:i]
	}
	return header
}

// ReadCSV 读取结果文件，列数不符或时间无法解析的行被跳过。
func ReadCSV(r io.Reader) (*History, error) {
	reader := csv.NewReader(r)
	reader.Comma = Separator
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("读取结果文件失败: %w", err)
	}
	h := &History{Series: map[string][]float64{}}
	if len(records) == 0 {
		return h, nil
	}
	h.Header = records[0]
	for _, col := range h.Header[1:] {
		name := seriesName(col)
		h.Names = append(h.Names, name)
		h.Series[name] = nil
	}
	for _, record := range records[1:] {
		if len(record) != len(h.Header) {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		h.Time = append(h.Time, t)
		for i, name := range h.Names {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				v = 0
			}
			h.Series[name] = append(h.Series[name], v)
		}
	}
	return h, nil
}

// LoadCSV 从文件读取结果。
func LoadCSV(path string) (*History, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}
