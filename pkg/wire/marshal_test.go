package wire

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type station struct {
	Name     string  `wire:"name"`
	Line     int     `wire:"line"`
	Lat      float64 `wire:"lat"`
	Stepless bool    `wire:"stepless"`
	Internal string  `wire:"-"`
}

type Identified struct {
	ID   int64  `wire:"id"`
	Name string `wire:"name"`
}

type rider struct {
	Identified
	Name  string `wire:"name"`
	Score int    `wire:"score"`
}

type inventory struct {
	Items []string       `wire:"items"`
	Stock map[string]int `wire:"stock"`
}

type MarshalSuite struct {
	suite.Suite
}

func (s *MarshalSuite) roundTrip(w Wire, in, out any) {
	s.T().Helper()
	err := w.WriteDocument(false, func(o WireOut) error {
		return Marshal(o, in)
	})
	s.Require().NoError(err)
	present, err := w.ReadDocument(nil, func(r WireIn) error {
		return Unmarshal(r, out)
	})
	s.Require().NoError(err)
	s.Require().True(present)
}

func (s *MarshalSuite) TestRoundTripBothEncodings() {
	in := station{Name: "people's square", Line: 2, Lat: 31.2336, Stepless: true, Internal: "never"}
	for _, w := range []Wire{
		NewTextWire(elastic.New(256)),
		NewBinaryWire(elastic.New(256)),
	} {
		var got station
		s.roundTrip(w, in, &got)
		s.Equal(in.Name, got.Name)
		s.Equal(in.Line, got.Line)
		s.Equal(in.Lat, got.Lat)
		s.Equal(in.Stepless, got.Stepless)
		// `wire:"-"` 字段不落线。
		s.Equal("", got.Internal)
	}
}

func (s *MarshalSuite) TestTagSkippedOnWire() {
	buf := elastic.New(256)
	w := NewTextWire(buf)
	err := w.WriteDocument(false, func(o WireOut) error {
		return Marshal(o, station{Name: "n", Internal: "secret"})
	})
	s.NoError(err)
	s.NotContains(documentBody(s.T(), buf), "secret")
}

func (s *MarshalSuite) TestEmbeddedShadowing() {
	in := rider{
		Identified: Identified{ID: 99, Name: "inner"},
		Name:       "outer",
		Score:      7,
	}
	w := NewBinaryWire(elastic.New(256))
	var got rider
	s.roundTrip(w, in, &got)
	s.EqualValues(99, got.ID)
	s.Equal("outer", got.Name)
	s.Equal(7, got.Score)
	// 外层 name 遮蔽了内嵌的同名字段，内嵌侧不再落线。
	s.Equal("", got.Identified.Name)
}

func (s *MarshalSuite) TestUnmarshalOverwrites() {
	w := NewTextWire(elastic.New(256))
	err := w.WriteDocument(false, func(o WireOut) error {
		return o.Write("name").Text("only-name")
	})
	s.NoError(err)

	dst := station{Name: "old", Line: 9, Lat: 1.0, Stepless: true}
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		return Unmarshal(r, &dst)
	})
	s.NoError(err)
	s.Equal("only-name", dst.Name)
	s.Equal(0, dst.Line)
	s.Equal(0.0, dst.Lat)
	s.False(dst.Stepless)
}

func (s *MarshalSuite) TestMergeKeeps() {
	w := NewTextWire(elastic.New(256))
	err := w.WriteDocument(false, func(o WireOut) error {
		return o.Write("name").Text("only-name")
	})
	s.NoError(err)

	dst := station{Name: "old", Line: 9, Lat: 1.0, Stepless: true}
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		return Merge(r, &dst)
	})
	s.NoError(err)
	s.Equal("only-name", dst.Name)
	s.Equal(9, dst.Line)
	s.Equal(1.0, dst.Lat)
	s.True(dst.Stepless)
}

func (s *MarshalSuite) TestCollections() {
	in := inventory{
		Items: []string{"bolt", "nut", "washer"},
		Stock: map[string]int{"bolt": 3, "nut": 12},
	}
	for _, w := range []Wire{
		NewTextWire(elastic.New(256)),
		NewBinaryWire(elastic.New(256)),
	} {
		var got inventory
		s.roundTrip(w, in, &got)
		s.Equal(in.Items, got.Items)
		s.Equal(in.Stock, got.Stock)
	}
}

func (s *MarshalSuite) TestDeepCopy() {
	src := inventory{
		Items: []string{"a", "b"},
		Stock: map[string]int{"a": 1},
	}
	var dst inventory
	s.NoError(DeepCopy(&dst, src))
	s.Equal(src, dst)

	// 深拷贝后两边互不影响。
	dst.Items[0] = "changed"
	dst.Stock["a"] = 100
	s.Equal("a", src.Items[0])
	s.Equal(1, src.Stock["a"])
}

func (s *MarshalSuite) TestEqualAndHashCode() {
	a := station{Name: "n", Line: 1, Lat: 2.5}
	b := station{Name: "n", Line: 1, Lat: 2.5}
	c := station{Name: "n", Line: 2, Lat: 2.5}

	s.True(Equal(a, b))
	s.False(Equal(a, c))

	ha, err := HashCode(a)
	s.NoError(err)
	hb, err := HashCode(b)
	s.NoError(err)
	hc, err := HashCode(c)
	s.NoError(err)
	s.Equal(ha, hb)
	s.NotEqual(ha, hc)
}

func (s *MarshalSuite) TestMarshalRejectsNonStruct() {
	w := NewTextWire(elastic.New(64))
	err := w.WriteDocument(false, func(o WireOut) error {
		return Marshal(o, 42)
	})
	s.Error(err)
}

func (s *MarshalSuite) TestUnmarshalRejectsNonPointer() {
	w := NewTextWire(elastic.New(64))
	s.NoError(w.WriteDocument(false, func(o WireOut) error {
		return o.Write("name").Text("x")
	}))
	_, err := w.ReadDocument(nil, func(r WireIn) error {
		return Unmarshal(r, station{})
	})
	s.Error(err)
}

func TestMarshal(t *testing.T) {
	suite.Run(t, new(MarshalSuite))
}
