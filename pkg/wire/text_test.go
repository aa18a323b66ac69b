package wire

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

// documentBody 取出缓冲区中首条文档的载荷文本（不含头字）。
func documentBody(t *testing.T, buf *elastic.Buffer) string {
	t.Helper()
	raw, err := buf.Slice(HeaderSize, buf.WritePosition()-HeaderSize)
	if err != nil {
		t.Fatalf("slice document body: %v", err)
	}
	return string(raw)
}

type TextWireSuite struct {
	suite.Suite
}

func (s *TextWireSuite) newWire() (*TextWire, *elastic.Buffer) {
	buf := elastic.New(256)
	return NewTextWire(buf), buf
}

func (s *TextWireSuite) TestScalarRoundTrip() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("flag").Bool(true))
		s.NoError(out.Write("small").Int8(-7))
		s.NoError(out.Write("word").Uint16(65535))
		s.NoError(out.Write("count").Int32(123456))
		s.NoError(out.Write("big").Int64(-1 << 40))
		s.NoError(out.Write("ratio").Float64(0.25))
		s.NoError(out.Write("name").Text("hello"))
		return nil
	})
	s.NoError(err)

	present, err := w.ReadDocument(nil, func(r WireIn) error {
		flag, err := r.Read("flag").Bool()
		s.NoError(err)
		s.True(flag)
		small, err := r.Read("small").Int8()
		s.NoError(err)
		s.EqualValues(-7, small)
		word, err := r.Read("word").Uint16()
		s.NoError(err)
		s.EqualValues(65535, word)
		count, err := r.Read("count").Int32()
		s.NoError(err)
		s.EqualValues(123456, count)
		big, err := r.Read("big").Int64()
		s.NoError(err)
		s.EqualValues(-1<<40, big)
		ratio, err := r.Read("ratio").Float64()
		s.NoError(err)
		s.EqualValues(0.25, ratio)
		name, err := r.Read("name").Text()
		s.NoError(err)
		s.Equal("hello", name)
		return nil
	})
	s.NoError(err)
	s.True(present)
}

func (s *TextWireSuite) TestOutOfOrderRead() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("a").Int64(1))
		s.NoError(out.Write("b").Int64(2))
		s.NoError(out.Write("c").Int64(3))
		return nil
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		c, err := r.Read("c").Int64()
		s.NoError(err)
		s.EqualValues(3, c)
		a, err := r.Read("a").Int64()
		s.NoError(err)
		s.EqualValues(1, a)
		b, err := r.Read("b").Int64()
		s.NoError(err)
		s.EqualValues(2, b)
		return nil
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestMissingField() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("present").Text("yes")
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		in := r.Read("absent")
		s.False(in.Present())
		v, err := in.Text()
		s.NoError(err)
		s.Equal("", v)

		got := r.Read("present")
		s.True(got.Present())
		text, err := got.Text()
		s.NoError(err)
		s.Equal("yes", text)
		return nil
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestNull() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("nothing").Null()
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		isNull, err := r.Read("nothing").IsNull()
		s.NoError(err)
		s.True(isNull)
		return nil
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestSequenceLeaf() {
	w, buf := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		v := out.Write("tags")
		v.Leaf(true)
		return v.Sequence(func(item ValueOut) error {
			for _, t := range []string{"alpha", "beta", "gamma"} {
				if err := item.Text(t); err != nil {
					return err
				}
			}
			return nil
		})
	})
	s.NoError(err)
	s.Contains(documentBody(s.T(), buf), "[ alpha, beta, gamma ]")

	var got []string
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		return r.Read("tags").Sequence(func(item ValueIn) error {
			for item.HasNext() {
				t, err := item.Text()
				if err != nil {
					return err
				}
				got = append(got, t)
			}
			return nil
		})
	})
	s.NoError(err)
	s.Equal([]string{"alpha", "beta", "gamma"}, got)
}

func (s *TextWireSuite) TestNestedRecord() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("addr").Record(func(rec WireOut) error {
			if err := rec.Write("city").Text("shanghai"); err != nil {
				return err
			}
			return rec.Write("zip").Int32(200000)
		})
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		return r.Read("addr").Record(func(rec WireIn) error {
			city, err := rec.Read("city").Text()
			s.NoError(err)
			s.Equal("shanghai", city)
			zip, err := rec.Read("zip").Int32()
			s.NoError(err)
			s.EqualValues(200000, zip)
			return nil
		})
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestTypePrefix() {
	w, buf := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		v := out.Write("shape")
		if err := v.TypePrefix("Circle"); err != nil {
			return err
		}
		return v.Record(func(rec WireOut) error {
			return rec.Write("radius").Float64(2.5)
		})
	})
	s.NoError(err)
	s.Contains(documentBody(s.T(), buf), "!Circle ")

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		in := r.Read("shape")
		tag, ok, err := in.TypePrefix()
		s.NoError(err)
		s.True(ok)
		s.Equal("Circle", tag)
		return in.Record(func(rec WireIn) error {
			radius, err := rec.Read("radius").Float64()
			s.NoError(err)
			s.EqualValues(2.5, radius)
			return nil
		})
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestComment() {
	w, buf := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		if err := out.WriteComment("generated"); err != nil {
			return err
		}
		return out.Write("v").Int64(1)
	})
	s.NoError(err)
	s.Contains(documentBody(s.T(), buf), "# generated")

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		v, err := r.Read("v").Int64()
		s.NoError(err)
		s.EqualValues(1, v)
		return nil
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestQuoting() {
	cases := []string{
		"",
		"plain",
		"hello, world",
		`with "quotes" inside`,
		"123",
		"line\nbreak",
		"trailing ",
		"key: value",
	}
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		for _, c := range cases {
			if err := out.Write("s").Text(c); err != nil {
				return err
			}
		}
		return nil
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		for _, want := range cases {
			_, in, err := r.ReadEvent()
			s.NoError(err)
			got, err := in.Text()
			s.NoError(err)
			s.Equal(want, got)
		}
		return nil
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestBytesRoundTrip() {
	payload := []byte{0x00, 0x01, 0xFE, 0xFF, 'a', 'b'}
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("blob").Bytes(payload)
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		got, err := r.Read("blob").Bytes()
		s.NoError(err)
		s.Equal(payload, got)
		return nil
	})
	s.NoError(err)
}

func (s *TextWireSuite) TestMetaDocumentDispatch() {
	w, _ := s.newWire()
	s.NoError(w.WriteDocument(true, func(out WireOut) error {
		return out.Write("header").Text("meta")
	}))
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("payload").Text("data")
	}))

	var metaSeen, dataSeen bool
	for {
		present, err := w.ReadDocument(
			func(r WireIn) error {
				metaSeen = true
				v, err := r.Read("header").Text()
				s.NoError(err)
				s.Equal("meta", v)
				return nil
			},
			func(r WireIn) error {
				dataSeen = true
				v, err := r.Read("payload").Text()
				s.NoError(err)
				s.Equal("data", v)
				return nil
			})
		s.NoError(err)
		if !present {
			break
		}
	}
	s.True(metaSeen)
	s.True(dataSeen)
}

// 文本方言应当是合法的 YAML：用 yaml.v3 交叉校验文档体。
func (s *TextWireSuite) TestYAMLCompatibility() {
	w, buf := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("name").Text("people's square"))
		s.NoError(out.Write("count").Int64(42))
		s.NoError(out.Write("ratio").Float64(0.5))
		s.NoError(out.Write("enabled").Bool(true))
		tags := out.Write("tags")
		tags.Leaf(true)
		s.NoError(tags.Sequence(func(item ValueOut) error {
			if err := item.Text("red"); err != nil {
				return err
			}
			return item.Text("green")
		}))
		return out.Write("addr").Record(func(rec WireOut) error {
			if err := rec.Write("city").Text("beijing"); err != nil {
				return err
			}
			return rec.Write("zip").Int64(100000)
		})
	})
	s.NoError(err)

	var m map[string]any
	s.NoError(yaml.Unmarshal([]byte(documentBody(s.T(), buf)), &m))
	s.Equal("people's square", m["name"])
	s.EqualValues(42, m["count"])
	s.EqualValues(0.5, m["ratio"])
	s.Equal(true, m["enabled"])
	s.Equal([]any{"red", "green"}, m["tags"])
	addr, ok := m["addr"].(map[string]any)
	s.True(ok)
	s.Equal("beijing", addr["city"])
	s.EqualValues(100000, addr["zip"])
}

func (s *TextWireSuite) TestDump() {
	w, buf := s.newWire()
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("greeting").Text("hi")
	}))
	s.NoError(w.WriteDocument(true, func(out WireOut) error {
		return out.Write("kind").Text("directory")
	}))

	dump := FromSizePrefixedBlobs(buf)
	s.Contains(dump, "--- !!data")
	s.Contains(dump, "--- !!meta-data")
	s.Contains(dump, "greeting: hi")
	// 转储不应移动调用方的游标。
	s.Equal(0, buf.ReadPosition())
}

func (s *TextWireSuite) TestAbandonedDocumentInvisible() {
	w, buf := s.newWire()
	boom := errors.New("boom")
	err := w.WriteDocument(false, func(out WireOut) error {
		_ = out.Write("partial").Text("junk")
		return boom
	})
	s.ErrorIs(err, boom)
	s.Equal(0, buf.WritePosition())

	present, err := w.ReadDocument(nil, nil)
	s.NoError(err)
	s.False(present)

	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("v").Int64(9)
	}))
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		v, err := r.Read("v").Int64()
		s.NoError(err)
		s.EqualValues(9, v)
		return nil
	})
	s.NoError(err)
}

func TestTextWire(t *testing.T) {
	suite.Run(t, new(TextWireSuite))
}
