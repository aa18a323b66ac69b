package wire

import (
	"bytes"
	"reflect"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/wire-garden-go/internal/pool/bufferpool"
	"github.com/lk2023060901/wire-garden-go/pkg/util/typeutil"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// 反射 marshaller：按 reflect.Type 缓存的字段描述符，
// 把任意 struct 映射为命名字段记录。
//
// 约定：
//   - 字段顺序为内嵌 struct 的字段在前、自身字段在后（组合规则）；
//   - 未导出字段与 `wire:"-"` 跳过，`wire:"name"` 改写线上字段名；
//   - 覆盖读取把流内缺席的字段清零，合并读取保留原值；
//   - 流内多出的未知字段被跳过，不报错。

type fieldDescriptor struct {
	name  string
	index []int
}

type descriptor struct {
	typ    reflect.Type
	fields []fieldDescriptor
}

var descriptorCache sync.Map // reflect.Type -> *descriptor

func descriptorOf(t reflect.Type) *descriptor {
	if d, ok := descriptorCache.Load(t); ok {
		return d.(*descriptor)
	}
	d := buildDescriptor(t)
	actual, _ := descriptorCache.LoadOrStore(t, d)
	return actual.(*descriptor)
}

func buildDescriptor(t reflect.Type) *descriptor {
	var embedded, own []fieldDescriptor
	ownNames := typeutil.NewFieldSet()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		tag := f.Tag.Get("wire")
		if tag == "-" {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && tag == "" {
			sub := buildDescriptor(f.Type)
			for _, sf := range sub.fields {
				idx := append([]int{i}, sf.index...)
				embedded = append(embedded, fieldDescriptor{name: sf.name, index: idx})
			}
			continue
		}
		name := f.Name
		if tag != "" {
			name = tag
		}
		ownNames.Insert(name)
		own = append(own, fieldDescriptor{name: name, index: []int{i}})
	}
	// 自身字段遮蔽内嵌 struct 提升出来的同名字段。
	fields := make([]fieldDescriptor, 0, len(embedded)+len(own))
	for _, f := range embedded {
		if ownNames.Contain(f.name) {
			continue
		}
		fields = append(fields, f)
	}
	fields = append(fields, own...)
	return &descriptor{typ: t, fields: fields}
}

func (d *descriptor) writeRecord(out ValueOut, v reflect.Value) error {
	return out.Record(func(w WireOut) error {
		return d.writeFields(w, v)
	})
}

func (d *descriptor) writeFields(w WireOut, v reflect.Value) error {
	for _, f := range d.fields {
		fv := v.FieldByIndex(f.index)
		if err := writeReflect(w.Write(f.name), fv); err != nil {
			return err
		}
	}
	return nil
}

func (d *descriptor) readRecord(r WireIn, v reflect.Value, merge bool) error {
	for _, f := range d.fields {
		in := r.Read(f.name)
		fv := v.FieldByIndex(f.index)
		if !in.Present() {
			if !merge {
				fv.Set(reflect.Zero(fv.Type()))
			}
			continue
		}
		if null, err := in.IsNull(); err != nil {
			return err
		} else if null {
			fv.Set(reflect.Zero(fv.Type()))
			continue
		}
		if err := readReflect(in, fv); err != nil {
			return err
		}
	}
	return nil
}

// Marshal 把 v 的字段逐个写入 w。v 是 struct 或指向 struct 的指针。
func Marshal(w WireOut, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errors.New("wire: marshal of nil pointer")
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errors.Newf("wire: marshal expects a struct, got %s", rv.Type())
	}
	return descriptorOf(rv.Type()).writeFields(w, rv)
}

// Unmarshal 以覆盖语义从 r 读入 dst：流内缺席的字段被清零。
func Unmarshal(r WireIn, dst any) error {
	return readStructInto(r, dst, false)
}

// Merge 以合并语义从 r 读入 dst：流内缺席的字段保留原值。
func Merge(r WireIn, dst any) error {
	return readStructInto(r, dst, true)
}

func readStructInto(r WireIn, dst any, merge bool) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Newf("wire: unmarshal destination must be a non-nil pointer, got %T", dst)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return errors.Newf("wire: unmarshal expects a struct destination, got %s", rv.Type())
	}
	return descriptorOf(rv.Type()).readRecord(r, rv, merge)
}

// DeepCopy 经由池化缓冲区上的二进制往返把 src 深拷贝到 dst。
// dst 是指针，src 是与其指向类型兼容的值。
func DeepCopy(dst, src any) error {
	buf := bufferpool.Get()
	defer bufferpool.Put(buf)
	w := NewBinaryWire(buf)
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.GetValueOut().Object(src)
	})
	if err != nil {
		return err
	}
	present, err := w.ReadDocument(nil, func(r WireIn) error {
		return r.GetValueIn().Object(dst)
	})
	if err != nil {
		return err
	}
	if !present {
		return werr.ErrDocumentNotPresent
	}
	return nil
}

// Equal 报告 a 与 b 的二进制编码是否逐字节相等。
// 描述符保证字段序确定，映射按键排序，编码相等即值相等。
func Equal(a, b any) bool {
	ab, err := encodeForCompare(a)
	if err != nil {
		return false
	}
	bb, err := encodeForCompare(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// HashCode 返回 v 的二进制编码的 64 位哈希。
func HashCode(v any) (uint64, error) {
	enc, err := encodeForCompare(v)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(enc), nil
}

func encodeForCompare(v any) ([]byte, error) {
	buf := bufferpool.Get()
	defer bufferpool.Put(buf)
	w := NewBinaryWire(buf)
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.GetValueOut().Object(v)
	})
	if err != nil {
		return nil, err
	}
	payload, err := buf.Slice(HeaderSize, buf.WritePosition()-HeaderSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}
