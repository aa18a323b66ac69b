package wire

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type CSVWireSuite struct {
	suite.Suite
}

func (s *CSVWireSuite) TestRowRoundTrip() {
	buf := elastic.New(256)
	w := NewCSVWire(buf)
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("city").Text("hangzhou, west lake"))
		s.NoError(out.Write("line").Int64(19))
		s.NoError(out.Write("ratio").Float64(0.75))
		s.NoError(out.Write("open").Bool(true))
		return nil
	})
	s.NoError(err)

	present, err := w.ReadDocument(nil, func(r WireIn) error {
		// CSV 侧写按位置匹配，字段名被忽略。
		city, err := r.Read("").Text()
		s.NoError(err)
		s.Equal("hangzhou, west lake", city)
		line, err := r.Read("").Int64()
		s.NoError(err)
		s.EqualValues(19, line)
		ratio, err := r.Read("").Float64()
		s.NoError(err)
		s.EqualValues(0.75, ratio)
		open, err := r.Read("").Bool()
		s.NoError(err)
		s.True(open)
		return nil
	})
	s.NoError(err)
	s.True(present)
}

// 一条记录一行，一行一个文档。
func (s *CSVWireSuite) TestOneDocumentPerRow() {
	buf := elastic.New(512)
	w := NewCSVWire(buf)
	for i := 0; i < 3; i++ {
		s.NoError(w.WriteDocument(false, func(out WireOut) error {
			return out.Write("seq").Int64(int64(i))
		}))
	}

	var got []int64
	for {
		present, err := w.ReadDocument(nil, func(r WireIn) error {
			n, err := r.GetValueIn().Int64()
			if err != nil {
				return err
			}
			got = append(got, n)
			return nil
		})
		s.NoError(err)
		if !present {
			break
		}
	}
	s.Equal([]int64{0, 1, 2}, got)
}

func (s *CSVWireSuite) TestQuotedCells() {
	buf := elastic.New(256)
	w := NewCSVWire(buf)
	cases := []string{`contains "quotes"`, "multi\nline", "comma, separated", "plain"}
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		for _, c := range cases {
			if err := out.Write("").Text(c); err != nil {
				return err
			}
		}
		return nil
	}))

	_, err := w.ReadDocument(nil, func(r WireIn) error {
		for _, want := range cases {
			got, err := r.Read("").Text()
			s.NoError(err)
			s.Equal(want, got)
		}
		return nil
	})
	s.NoError(err)
}

func (s *CSVWireSuite) TestBytesCell() {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	buf := elastic.New(256)
	w := NewCSVWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("blob").Bytes(payload)
	}))

	_, err := w.ReadDocument(nil, func(r WireIn) error {
		got, err := r.Read("").Bytes()
		s.NoError(err)
		s.Equal(payload, got)
		return nil
	})
	s.NoError(err)
}

func (s *CSVWireSuite) TestCellTypeMismatch() {
	buf := elastic.New(256)
	w := NewCSVWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("word").Text("not-a-number")
	}))

	_, err := w.ReadDocument(nil, func(r WireIn) error {
		in := r.Read("")
		_, err := in.Int64()
		s.Error(err)
		// 失败的拉取不消费单元格。
		word, err := in.Text()
		s.NoError(err)
		s.Equal("not-a-number", word)
		return nil
	})
	s.NoError(err)
}

func (s *CSVWireSuite) TestMarshallerOverCSV() {
	buf := elastic.New(256)
	w := NewCSVWire(buf)
	in := station{Name: "xujiahui", Line: 9, Lat: 31.19, Stepless: false}
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return Marshal(out, in)
	}))

	_, err := w.ReadDocument(nil, func(r WireIn) error {
		name, err := r.Read("").Text()
		s.NoError(err)
		s.Equal("xujiahui", name)
		line, err := r.Read("").Int64()
		s.NoError(err)
		s.EqualValues(9, line)
		lat, err := r.Read("").Float64()
		s.NoError(err)
		s.EqualValues(31.19, lat)
		stepless, err := r.Read("").Bool()
		s.NoError(err)
		s.False(stepless)
		return nil
	})
	s.NoError(err)
}

func TestCSVWire(t *testing.T) {
	suite.Run(t, new(CSVWireSuite))
}
