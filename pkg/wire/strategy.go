package wire

import (
	"reflect"
	"sync"

	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// 策略表：按 reflect.Type 解析读写策略的进程级注册表。
//
// 解析顺序：显式注册的策略 > 类工厂（按类型标签实例化）>
// 枚举编解码 > 自行实现 Marshaler/Unmarshaler 的类型 >
// 内建反射派发（标量、序列、映射、记录、引用单元、any）。

// Strategy 是某个具体类型的读写策略。
type Strategy interface {
	Write(out ValueOut, v reflect.Value) error
	Read(in ValueIn, v reflect.Value) error
}

var strategies sync.Map // reflect.Type -> Strategy

// RegisterStrategy 为类型 t 注册读写策略，覆盖内建派发。
func RegisterStrategy(t reflect.Type, s Strategy) {
	strategies.Store(t, s)
}

func lookupStrategy(t reflect.Type) (Strategy, bool) {
	s, ok := strategies.Load(t)
	if !ok {
		return nil, false
	}
	return s.(Strategy), true
}

// 类工厂：any-object 读取遇到 `!Tag` 时按标签实例化具体类型。
var classes sync.Map // string -> func() any

// RegisterClass 注册类型标签到工厂的映射。
// 工厂返回的值应当是指针，读取策略会原位填充它。
func RegisterClass(name string, factory func() any) {
	classes.Store(name, factory)
}

func lookupClass(name string) (func() any, bool) {
	f, ok := classes.Load(name)
	if !ok {
		return nil, false
	}
	return f.(func() any), true
}

// 枚举编解码：具名整数/字符串类型以 String/Parse 成对注册，
// 线上形态是其字符串名。
type enumCodec struct {
	format func(v reflect.Value) string
	parse  func(s string) (any, error)
}

var enums sync.Map // reflect.Type -> enumCodec

// RegisterEnum 注册一个枚举类型：sample 提供类型，
// format 给出线上名，parse 从线上名恢复值。
func RegisterEnum(sample any, format func(v any) string, parse func(s string) (any, error)) {
	t := reflect.TypeOf(sample)
	enums.Store(t, enumCodec{
		format: func(v reflect.Value) string { return format(v.Interface()) },
		parse:  parse,
	})
}

func lookupEnum(t reflect.Type) (enumCodec, bool) {
	c, ok := enums.Load(t)
	if !ok {
		return enumCodec{}, false
	}
	return c.(enumCodec), true
}

func writeEnum(out ValueOut, c enumCodec, v reflect.Value) error {
	return out.Text(c.format(v))
}

func readEnum(in ValueIn, c enumCodec, v reflect.Value) error {
	s, err := in.Text()
	if err != nil {
		return err
	}
	parsed, err := c.parse(s)
	if err != nil {
		return werr.WrapErrTypeMismatch(s, v.Type().String(), -1)
	}
	pv := reflect.ValueOf(parsed)
	if !pv.Type().AssignableTo(v.Type()) {
		if !pv.Type().ConvertibleTo(v.Type()) {
			return werr.WrapErrTypeMismatch(s, v.Type().String(), -1)
		}
		pv = pv.Convert(v.Type())
	}
	v.Set(pv)
	return nil
}
