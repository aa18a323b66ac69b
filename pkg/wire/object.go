package wire

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// Object 派发：写出侧按运行时类型选最窄的写出方法，
// 读取侧按 dst 的声明类型选读取策略。
// 标量直达对应方法；序列/数组走 Sequence；映射与 struct 走 Record；
// 其余交给策略表。

var (
	localTimeType     = reflect.TypeOf(LocalTime{})
	localDateType     = reflect.TypeOf(LocalDate{})
	localDateTimeType = reflect.TypeOf(LocalDateTime{})
	stdTimeType       = reflect.TypeOf(time.Time{})
	uuidType          = reflect.TypeOf(uuid.UUID{})
	typeNameType      = reflect.TypeOf(TypeName(""))
	bytesType         = reflect.TypeOf([]byte(nil))
	int32RefType      = reflect.TypeOf((*Int32Ref)(nil))
	int64RefType      = reflect.TypeOf((*Int64Ref)(nil))
	int64ArrayRefType = reflect.TypeOf((*Int64ArrayRef)(nil))
)

func writeObject(out ValueOut, v any) error {
	switch x := v.(type) {
	case nil:
		return out.Null()
	case bool:
		return out.Bool(x)
	case int8:
		return out.Int8(x)
	case uint8:
		return out.Uint8(x)
	case int16:
		return out.Int16(x)
	case uint16:
		return out.Uint16(x)
	case int32:
		return out.Int32(x)
	case uint32:
		return out.Uint32(x)
	case int:
		return out.Int64(int64(x))
	case int64:
		return out.Int64(x)
	case uint:
		return out.Uint64(uint64(x))
	case uint64:
		return out.Uint64(x)
	case float32:
		return out.Float32(x)
	case float64:
		return out.Float64(x)
	case string:
		return out.Text(x)
	case []byte:
		return out.Bytes(x)
	case LocalTime:
		return out.Time(x)
	case LocalDate:
		return out.Date(x)
	case LocalDateTime:
		return out.DateTime(x)
	case time.Time:
		return out.ZonedDateTime(x)
	case uuid.UUID:
		return out.UUID(x)
	case TypeName:
		return out.TypeLiteral(x)
	case *Int32Ref:
		return writeInt32RefObject(out, x)
	case *Int64Ref:
		return writeInt64RefObject(out, x)
	case Marshaler:
		return out.Marshallable(x)
	case error:
		return writeErrorValue(out, x)
	}
	return writeReflect(out, reflect.ValueOf(v))
}

// writeReflect 处理 writeObject 的非直达类型：
// 具名标量、序列、映射、struct、指针与接口。
func writeReflect(out ValueOut, v reflect.Value) error {
	if !v.IsValid() {
		return out.Null()
	}
	t := v.Type()
	if s, ok := lookupStrategy(t); ok {
		return s.Write(out, v)
	}
	if c, ok := lookupEnum(t); ok {
		return writeEnum(out, c, v)
	}
	switch t {
	case localTimeType:
		return out.Time(v.Interface().(LocalTime))
	case localDateType:
		return out.Date(v.Interface().(LocalDate))
	case localDateTimeType:
		return out.DateTime(v.Interface().(LocalDateTime))
	case stdTimeType:
		return out.ZonedDateTime(v.Interface().(time.Time))
	case uuidType:
		return out.UUID(v.Interface().(uuid.UUID))
	}
	if v.CanInterface() {
		if m, ok := v.Interface().(Marshaler); ok {
			return out.Marshallable(m)
		}
	}
	switch v.Kind() {
	case reflect.Bool:
		return out.Bool(v.Bool())
	case reflect.Int8:
		return out.Int8(int8(v.Int()))
	case reflect.Int16:
		return out.Int16(int16(v.Int()))
	case reflect.Int32:
		return out.Int32(int32(v.Int()))
	case reflect.Int, reflect.Int64:
		return out.Int64(v.Int())
	case reflect.Uint8:
		return out.Uint8(uint8(v.Uint()))
	case reflect.Uint16:
		return out.Uint16(uint16(v.Uint()))
	case reflect.Uint32:
		return out.Uint32(uint32(v.Uint()))
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return out.Uint64(v.Uint())
	case reflect.Float32:
		return out.Float32(float32(v.Float()))
	case reflect.Float64:
		return out.Float64(v.Float())
	case reflect.String:
		return out.Text(v.String())
	case reflect.Slice:
		if v.IsNil() {
			return out.Null()
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return out.Bytes(v.Bytes())
		}
		return writeSequenceReflect(out, v)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return out.Bytes(b)
		}
		return writeSequenceReflect(out, v)
	case reflect.Map:
		if v.IsNil() {
			return out.Null()
		}
		return writeMapReflect(out, v)
	case reflect.Struct:
		return descriptorOf(t).writeRecord(out, v)
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return out.Null()
		}
		return writeReflect(out, v.Elem())
	}
	return errors.Newf("wire: unsupported object type %s", t)
}

func writeSequenceReflect(out ValueOut, v reflect.Value) error {
	return out.Sequence(func(item ValueOut) error {
		for i := 0; i < v.Len(); i++ {
			if err := writeReflect(item, v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeMapReflect 以排序后的键序写出映射，保证输出确定。
func writeMapReflect(out ValueOut, v reflect.Value) error {
	keys := make([]string, 0, v.Len())
	byName := make(map[string]reflect.Value, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		name := keyString(iter.Key())
		keys = append(keys, name)
		byName[name] = iter.Value()
	}
	sort.Strings(keys)
	return out.Record(func(w WireOut) error {
		for _, name := range keys {
			if err := writeReflect(w.Write(name), byName[name]); err != nil {
				return err
			}
		}
		return nil
	})
}

// keyString 把映射键格式化为字段名。整数键写成十进制字面量。
func keyString(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	default:
		return fmt.Sprint(k.Interface())
	}
}

func parseKey(name string, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(name).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(name, 10, 64)
		if err != nil {
			return reflect.Value{}, werr.WrapErrTypeMismatch(name, t.String(), -1)
		}
		return reflect.ValueOf(v).Convert(t), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			return reflect.Value{}, werr.WrapErrTypeMismatch(name, t.String(), -1)
		}
		return reflect.ValueOf(v).Convert(t), nil
	}
	return reflect.Value{}, werr.WrapErrTypeMismatch(name, t.String(), -1)
}

// 错误值按可抛出对象的惯例写成 { message, stackTrace } 记录。
func writeErrorValue(out ValueOut, err error) error {
	if wErr := out.TypePrefix("error"); wErr != nil {
		return wErr
	}
	return out.Record(func(w WireOut) error {
		if e := w.Write("message").Text(err.Error()); e != nil {
			return e
		}
		return w.Write("stackTrace").Text(fmt.Sprintf("%+v", err))
	})
}

func writeInt32RefObject(out ValueOut, r *Int32Ref) error {
	var cur int32
	if r != nil {
		v, err := r.Get()
		if err != nil {
			return err
		}
		cur = v
	}
	_, err := out.Int32Ref(cur)
	return err
}

func writeInt64RefObject(out ValueOut, r *Int64Ref) error {
	var cur int64
	if r != nil {
		v, err := r.Get()
		if err != nil {
			return err
		}
		cur = v
	}
	_, err := out.Int64Ref(cur)
	return err
}

func readObject(in ValueIn, dst any) error {
	switch p := dst.(type) {
	case nil:
		return errors.New("wire: nil destination")
	case *bool:
		v, err := in.Bool()
		*p = v
		return err
	case *int8:
		v, err := in.Int8()
		*p = v
		return err
	case *uint8:
		v, err := in.Uint8()
		*p = v
		return err
	case *int16:
		v, err := in.Int16()
		*p = v
		return err
	case *uint16:
		v, err := in.Uint16()
		*p = v
		return err
	case *int32:
		v, err := in.Int32()
		*p = v
		return err
	case *uint32:
		v, err := in.Uint32()
		*p = v
		return err
	case *int:
		v, err := in.Int64()
		*p = int(v)
		return err
	case *int64:
		v, err := in.Int64()
		*p = v
		return err
	case *uint:
		v, err := in.Uint64()
		*p = uint(v)
		return err
	case *uint64:
		v, err := in.Uint64()
		*p = v
		return err
	case *float32:
		v, err := in.Float32()
		*p = v
		return err
	case *float64:
		v, err := in.Float64()
		*p = v
		return err
	case *string:
		v, err := in.Text()
		*p = v
		return err
	case *[]byte:
		v, err := in.Bytes()
		*p = v
		return err
	case *LocalTime:
		v, err := in.Time()
		*p = v
		return err
	case *LocalDate:
		v, err := in.Date()
		*p = v
		return err
	case *LocalDateTime:
		v, err := in.DateTime()
		*p = v
		return err
	case *time.Time:
		v, err := in.ZonedDateTime()
		*p = v
		return err
	case *uuid.UUID:
		v, err := in.UUID()
		*p = v
		return err
	case *TypeName:
		v, err := in.TypeLiteral()
		*p = v
		return err
	case **Int32Ref:
		v, err := in.Int32Ref()
		*p = v
		return err
	case **Int64Ref:
		v, err := in.Int64Ref()
		*p = v
		return err
	case **Int64ArrayRef:
		v, err := in.Int64ArrayRef()
		*p = v
		return err
	case *any:
		v, err := in.ObjectAny()
		*p = v
		return err
	case *error:
		return readErrorValue(in, p)
	case Unmarshaler:
		return in.Marshallable(p)
	}
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Newf("wire: destination must be a non-nil pointer, got %T", dst)
	}
	return readReflect(in, rv.Elem())
}

// readReflect 把下一个值读入可寻址的 v。
func readReflect(in ValueIn, v reflect.Value) error {
	t := v.Type()
	if s, ok := lookupStrategy(t); ok {
		return s.Read(in, v)
	}
	if c, ok := lookupEnum(t); ok {
		return readEnum(in, c, v)
	}
	switch t {
	case localTimeType, localDateType, localDateTimeType, stdTimeType, uuidType, typeNameType:
		return readObject(in, v.Addr().Interface())
	case int32RefType, int64RefType, int64ArrayRefType:
		return readObject(in, v.Addr().Interface())
	}
	if v.CanAddr() {
		if u, ok := v.Addr().Interface().(Unmarshaler); ok {
			return in.Marshallable(u)
		}
	}
	switch v.Kind() {
	case reflect.Bool:
		b, err := in.Bool()
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int, reflect.Int64:
		n, err := readIntoInt(in, v.Kind())
		if err != nil {
			return err
		}
		v.SetInt(n)
		return nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint, reflect.Uint64, reflect.Uintptr:
		n, err := readIntoUint(in, v.Kind())
		if err != nil {
			return err
		}
		v.SetUint(n)
		return nil
	case reflect.Float32:
		f, err := in.Float32()
		if err != nil {
			return err
		}
		v.SetFloat(float64(f))
		return nil
	case reflect.Float64:
		f, err := in.Float64()
		if err != nil {
			return err
		}
		v.SetFloat(f)
		return nil
	case reflect.String:
		s, err := in.Text()
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := in.Bytes()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		return readSliceReflect(in, v)
	case reflect.Array:
		return readArrayReflect(in, v)
	case reflect.Map:
		return readMapReflect(in, v)
	case reflect.Struct:
		return in.Record(func(r WireIn) error {
			return descriptorOf(t).readRecord(r, v, false)
		})
	case reflect.Ptr:
		if null, err := in.IsNull(); err != nil {
			return err
		} else if null {
			v.Set(reflect.Zero(t))
			return nil
		}
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return readReflect(in, v.Elem())
	case reflect.Interface:
		if t.NumMethod() == 0 {
			obj, err := in.ObjectAny()
			if err != nil {
				return err
			}
			if obj == nil {
				v.Set(reflect.Zero(t))
				return nil
			}
			ov := reflect.ValueOf(obj)
			if !ov.Type().AssignableTo(t) {
				return werr.WrapErrTypeMismatch(ov.Type().String(), t.String(), -1)
			}
			v.Set(ov)
			return nil
		}
	}
	return errors.Newf("wire: unsupported destination type %s", t)
}

func readIntoInt(in ValueIn, k reflect.Kind) (int64, error) {
	switch k {
	case reflect.Int8:
		v, err := in.Int8()
		return int64(v), err
	case reflect.Int16:
		v, err := in.Int16()
		return int64(v), err
	case reflect.Int32:
		v, err := in.Int32()
		return int64(v), err
	default:
		return in.Int64()
	}
}

func readIntoUint(in ValueIn, k reflect.Kind) (uint64, error) {
	switch k {
	case reflect.Uint8:
		v, err := in.Uint8()
		return uint64(v), err
	case reflect.Uint16:
		v, err := in.Uint16()
		return uint64(v), err
	case reflect.Uint32:
		v, err := in.Uint32()
		return uint64(v), err
	default:
		return in.Uint64()
	}
}

func readSliceReflect(in ValueIn, v reflect.Value) error {
	if null, err := in.IsNull(); err != nil {
		return err
	} else if null {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	et := v.Type().Elem()
	out := reflect.MakeSlice(v.Type(), 0, 4)
	err := in.Sequence(func(item ValueIn) error {
		for item.HasNext() {
			elem := reflect.New(et).Elem()
			if err := readReflect(item, elem); err != nil {
				return err
			}
			out = reflect.Append(out, elem)
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.Set(out)
	return nil
}

func readArrayReflect(in ValueIn, v reflect.Value) error {
	i := 0
	return in.Sequence(func(item ValueIn) error {
		for item.HasNext() {
			if i >= v.Len() {
				return werr.WrapErrRangeViolation(i, v.Type().String(), -1)
			}
			if err := readReflect(item, v.Index(i)); err != nil {
				return err
			}
			i++
		}
		return nil
	})
}

func readMapReflect(in ValueIn, v reflect.Value) error {
	if null, err := in.IsNull(); err != nil {
		return err
	} else if null {
		v.Set(reflect.Zero(v.Type()))
		return nil
	}
	t := v.Type()
	out := reflect.MakeMap(t)
	err := in.Record(func(r WireIn) error {
		for r.GetValueIn().HasNext() {
			name, ev, err := r.ReadEvent()
			if err != nil {
				return err
			}
			key, err := parseKey(name, t.Key())
			if err != nil {
				return err
			}
			val := reflect.New(t.Elem()).Elem()
			if err := readReflect(ev, val); err != nil {
				return err
			}
			out.SetMapIndex(key, val)
		}
		return nil
	})
	if err != nil {
		return err
	}
	v.Set(out)
	return nil
}

func readErrorValue(in ValueIn, dst *error) error {
	if _, _, err := in.TypePrefix(); err != nil {
		return err
	}
	var message string
	err := in.Record(func(r WireIn) error {
		m, err := r.Read("message").Text()
		if err != nil {
			return err
		}
		message = m
		return nil
	})
	if err != nil {
		return err
	}
	*dst = errors.New(message)
	return nil
}

// copyValue 把 in 的下一个值逐项翻译到 out，用于跨编码流拷贝。
// 值先落到最自然的内存表示，再按该表示的最窄写法写出。
func copyValue(in ValueIn, out ValueOut) error {
	if !in.Present() {
		return out.Null()
	}
	v, err := in.ObjectAny()
	if err != nil {
		return err
	}
	return writeObject(out, v)
}
