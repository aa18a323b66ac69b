package wire

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/internal/json"
	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type JSONWireSuite struct {
	suite.Suite
}

func (s *JSONWireSuite) newWire() (*JSONWire, *elastic.Buffer) {
	buf := elastic.New(256)
	return NewJSONWire(buf), buf
}

func (s *JSONWireSuite) TestScalarRoundTrip() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("name").Text("hello"))
		s.NoError(out.Write("count").Int64(42))
		s.NoError(out.Write("ratio").Float64(0.5))
		s.NoError(out.Write("enabled").Bool(true))
		return nil
	})
	s.NoError(err)

	present, err := w.ReadDocument(nil, func(r WireIn) error {
		name, err := r.Read("name").Text()
		s.NoError(err)
		s.Equal("hello", name)
		count, err := r.Read("count").Int64()
		s.NoError(err)
		s.EqualValues(42, count)
		ratio, err := r.Read("ratio").Float64()
		s.NoError(err)
		s.EqualValues(0.5, ratio)
		enabled, err := r.Read("enabled").Bool()
		s.NoError(err)
		s.True(enabled)
		return nil
	})
	s.NoError(err)
	s.True(present)
}

func (s *JSONWireSuite) TestNestedRoundTrip() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		if err := out.Write("tags").Sequence(func(item ValueOut) error {
			if err := item.Text("a"); err != nil {
				return err
			}
			return item.Text("b")
		}); err != nil {
			return err
		}
		return out.Write("addr").Record(func(rec WireOut) error {
			return rec.Write("city").Text("wuhan")
		})
	})
	s.NoError(err)

	var tags []string
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		if err := r.Read("tags").Sequence(func(item ValueIn) error {
			for item.HasNext() {
				t, err := item.Text()
				if err != nil {
					return err
				}
				tags = append(tags, t)
			}
			return nil
		}); err != nil {
			return err
		}
		return r.Read("addr").Record(func(rec WireIn) error {
			city, err := rec.Read("city").Text()
			s.NoError(err)
			s.Equal("wuhan", city)
			return nil
		})
	})
	s.NoError(err)
	s.Equal([]string{"a", "b"}, tags)
}

// JSON 侧写的文档体必须是严格合法的 JSON：用 sonic 交叉校验。
func (s *JSONWireSuite) TestBodyIsValidJSON() {
	w, buf := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("name").Text("x"))
		s.NoError(out.Write("n").Int64(3))
		return out.Write("inner").Record(func(rec WireOut) error {
			return rec.Write("ok").Bool(false)
		})
	})
	s.NoError(err)

	body := documentBody(s.T(), buf)
	// 字符串与字段名一律带引号。
	s.Contains(body, `"name"`)

	var m map[string]any
	s.NoError(json.Unmarshal([]byte(body), &m))
	s.Equal("x", m["name"])
	s.EqualValues(3, m["n"])
	inner, ok := m["inner"].(map[string]any)
	s.True(ok)
	s.Equal(false, inner["ok"])
}

func (s *JSONWireSuite) TestMarshallerOverJSON() {
	w, _ := s.newWire()
	in := station{Name: "jingan temple", Line: 7, Lat: 31.22, Stepless: true}
	err := w.WriteDocument(false, func(out WireOut) error {
		return Marshal(out, in)
	})
	s.NoError(err)

	var got station
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		return Unmarshal(r, &got)
	})
	s.NoError(err)
	s.Equal(in.Name, got.Name)
	s.Equal(in.Line, got.Line)
	s.Equal(in.Lat, got.Lat)
	s.Equal(in.Stepless, got.Stepless)
}

func (s *JSONWireSuite) TestNull() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("gone").Null()
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		null, err := r.Read("gone").IsNull()
		s.NoError(err)
		s.True(null)
		return nil
	})
	s.NoError(err)
}

func TestJSONWire(t *testing.T) {
	suite.Run(t, new(JSONWireSuite))
}
