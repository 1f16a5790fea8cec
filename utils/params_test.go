package utils

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParamsUnits(t *testing.T) {
	Convey("给定带单位的元件参数", t, func() {
		p := Params{
			"diameter": "10mm",
			"length":   "3 cm",
			"volume":   "0.5 l",
			"pressure": "500mbar",
			"Kp":       "0.8",
			"visible":  "1",
		}

		Convey("长度换算为米", func() {
			d, err := p.ParseLength("diameter", 0)
			So(err, ShouldBeNil)
			So(d, ShouldAlmostEqual, 0.01, 1e-12)
			l, err := p.ParseLength("length", 0)
			So(err, ShouldBeNil)
			So(l, ShouldAlmostEqual, 0.03, 1e-12)
		})

		Convey("体积换算为立方米", func() {
			v, err := p.ParseVolume("volume", 0)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0.0005, 1e-12)
		})

		Convey("毫巴换算为巴", func() {
			v, err := p.ParsePressure("pressure", 0)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 0.5, 1e-12)
		})

		Convey("键名忽略大小写", func() {
			v, err := p.ParseFloat64("kp", 0.5)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0.8)
			b, err := p.ParseBool("VISIBLE", false)
			So(err, ShouldBeNil)
			So(b, ShouldBeTrue)
		})

		Convey("缺失参数使用默认值", func() {
			v, err := p.ParseFloat64("ki", 5)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 5)
		})
	})

	Convey("给定格式错误的参数", t, func() {
		p := Params{"diameter": "10 furlong", "volume": "abc", "kp": "x1"}

		Convey("未知单位返回参数错误", func() {
			_, err := p.ParseLength("diameter", 0.01)
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrParam), ShouldBeTrue)
		})

		Convey("非数字返回参数错误", func() {
			_, err := p.ParseVolume("volume", 0.001)
			So(errors.Is(err, ErrParam), ShouldBeTrue)
			_, err = p.ParseFloat64("kp", 0.5)
			So(errors.Is(err, ErrParam), ShouldBeTrue)
		})
	})
}

func TestParamsJSON(t *testing.T) {
	var p Params
	if err := json.Unmarshal([]byte(`{"pressure": 6, "visible": true, "diameter": "8mm"}`), &p); err != nil {
		t.Fatalf("解析参数失败: %s", err)
	}
	v, err := p.ParsePressure("pressure", 0)
	if err != nil || v != 6 {
		t.Errorf("数字参数解析错误: %v %v", v, err)
	}
	d, err := p.ParseLength("diameter", 0)
	if err != nil || math.Abs(d-0.008) > 1e-12 {
		t.Errorf("字符串参数解析错误: %v %v", d, err)
	}
	if b, _ := p.ParseBool("visible", false); !b {
		t.Errorf("布尔参数解析错误")
	}
}

func TestSplitValueUnit(t *testing.T) {
	tests := []struct {
		in   string
		v    float64
		unit string
		ok   bool
	}{
		{"10", 10, "", true},
		{"1e-3", 1e-3, "", true},
		{"-2.5bar", -2.5, "bar", true},
		{".5 L", 0.5, "l", true},
		{"3m3", 3, "m3", true},
		{"bar", 0, "", false},
		{"", 0, "", false},
	}
	for _, tt := range tests {
		v, unit, err := SplitValueUnit(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("%q: 期望成功=%v, 错误 %v", tt.in, tt.ok, err)
			continue
		}
		if tt.ok && (math.Abs(v-tt.v) > 1e-15 || unit != tt.unit) {
			t.Errorf("%q: 期望 %v %q, 实际 %v %q", tt.in, tt.v, tt.unit, v, unit)
		}
	}
}

func TestFromValues(t *testing.T) {
	p := FromValues([]string{"length", "", "pressure"}, []any{0.03, 1.0, Pressure(6)})
	if len(p) != 2 || p["length"] != "0.03" || p["pressure"] != "6" {
		t.Errorf("参数导出错误: %v", p)
	}
	if p.String() != "length=0.03 pressure=6" {
		t.Errorf("参数字符串错误: %s", p.String())
	}
}
