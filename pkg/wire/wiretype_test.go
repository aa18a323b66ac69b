package wire

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type WireTypeSuite struct {
	suite.Suite
}

func (s *WireTypeSuite) TestParseTypeRoundTrip() {
	for _, t := range []Type{
		TypeText, TypeBinary, TypeFieldlessBinary, TypeCompressedBinary,
		TypeRaw, TypeJSON, TypeCSV, TypeReadAny,
	} {
		parsed, err := ParseType(t.String())
		s.NoError(err)
		s.Equal(t, parsed)
	}

	_, err := ParseType("bogus")
	s.Error(err)
	s.Equal("unknown", Type(99).String())
}

func (s *WireTypeSuite) TestApply() {
	cases := map[Type]Type{
		TypeText:             TypeText,
		TypeBinary:           TypeBinary,
		TypeFieldlessBinary:  TypeFieldlessBinary,
		TypeCompressedBinary: TypeCompressedBinary,
		TypeRaw:              TypeRaw,
		TypeJSON:             TypeJSON,
		TypeCSV:              TypeCSV,
	}
	for apply, want := range cases {
		w := apply.Apply(elastic.New(64))
		s.Equal(want, w.Type())
	}
}

func (s *WireTypeSuite) TestSniffText() {
	buf := elastic.New(256)
	w := NewTextWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("kind").Text("yaml-ish")
	}))
	s.Equal(TypeText, SniffType(buf))
}

func (s *WireTypeSuite) TestSniffBinary() {
	buf := elastic.New(256)
	w := NewBinaryWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("kind").Int64(1)
	}))
	s.Equal(TypeBinary, SniffType(buf))
}

func (s *WireTypeSuite) TestSniffJSON() {
	buf := elastic.New(256)
	w := NewJSONWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("kind").Text("json")
	}))
	s.Equal(TypeJSON, SniffType(buf))
}

func (s *WireTypeSuite) TestSniffEmptyDefaultsToText() {
	s.Equal(TypeText, SniffType(elastic.New(16)))
}

// read-any 只用于读取：先嗅探实际编码再委派。
func (s *WireTypeSuite) TestReadAnyDelegates() {
	buf := elastic.New(256)
	w := NewBinaryWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("n").Int64(123)
	}))

	r := TypeReadAny.Apply(buf)
	s.Equal(TypeBinary, r.Type())
	present, err := r.ReadDocument(nil, func(in WireIn) error {
		n, err := in.Read("n").Int64()
		s.NoError(err)
		s.EqualValues(123, n)
		return nil
	})
	s.NoError(err)
	s.True(present)
}

type AliasSuite struct {
	suite.Suite
}

func (s *AliasSuite) TestAddShortenResolve() {
	r := NewAliasRegistry()
	r.Add("Str", "java.lang.String")

	s.Equal("Str", r.Shorten("java.lang.String"))
	s.Equal("untouched", r.Shorten("untouched"))

	full, ok := r.Resolve("Str")
	s.True(ok)
	s.Equal("java.lang.String", full)

	tag, ok := r.Resolve("Unknown")
	s.False(ok)
	s.Equal("Unknown", tag)
}

func (s *AliasSuite) TestLastRegistrationWins() {
	r := NewAliasRegistry()
	r.Add("T", "first.Type")
	r.Add("T", "second.Type")
	full, ok := r.Resolve("T")
	s.True(ok)
	s.Equal("second.Type", full)
}

// 写出侧经 Shorten 缩短，读入侧经 Resolve 还原。
func (s *AliasSuite) TestTypePrefixUsesAliases() {
	reg := NewAliasRegistry()
	reg.Add("Circle", "com.example.shapes.Circle")
	opts := DefaultOptions()
	opts.Aliases = reg

	buf := elastic.New(256)
	w := NewTextWireWithOptions(buf, opts)
	err := w.WriteDocument(false, func(out WireOut) error {
		v := out.Write("shape")
		if err := v.TypePrefix("com.example.shapes.Circle"); err != nil {
			return err
		}
		return v.Text("r=1")
	})
	s.NoError(err)
	s.Contains(documentBody(s.T(), buf), "!Circle ")
}

func TestWireType(t *testing.T) {
	suite.Run(t, new(WireTypeSuite))
}

func TestAlias(t *testing.T) {
	suite.Run(t, new(AliasSuite))
}
