package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type BinaryWireSuite struct {
	suite.Suite
}

func (s *BinaryWireSuite) newWire() (*BinaryWire, *elastic.Buffer) {
	buf := elastic.New(256)
	return NewBinaryWire(buf), buf
}

func (s *BinaryWireSuite) TestScalarRoundTrip() {
	w, _ := s.newWire()
	zoned := time.Date(2026, 8, 6, 10, 30, 0, 123456789, time.FixedZone("CST", 8*3600))
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("flag").Bool(false))
		s.NoError(out.Write("tiny").Int64(42))
		s.NoError(out.Write("big").Uint64(1<<63 + 1))
		s.NoError(out.Write("ratio").Float32(1.5))
		s.NoError(out.Write("name").Text("wire"))
		s.NoError(out.Write("blob").Bytes([]byte{0, 1, 2, 255}))
		s.NoError(out.Write("when").Time(LocalTime{Hour: 10, Minute: 30, Second: 15, Nanos: 500}))
		s.NoError(out.Write("day").Date(LocalDate{Year: 2026, Month: time.August, Day: 6}))
		s.NoError(out.Write("zoned").ZonedDateTime(zoned))
		s.NoError(out.Write("id").UUID(id))
		return nil
	})
	s.NoError(err)

	present, err := w.ReadDocument(nil, func(r WireIn) error {
		flag, err := r.Read("flag").Bool()
		s.NoError(err)
		s.False(flag)
		tiny, err := r.Read("tiny").Int64()
		s.NoError(err)
		s.EqualValues(42, tiny)
		big, err := r.Read("big").Uint64()
		s.NoError(err)
		s.EqualValues(uint64(1<<63+1), big)
		ratio, err := r.Read("ratio").Float32()
		s.NoError(err)
		s.EqualValues(1.5, ratio)
		name, err := r.Read("name").Text()
		s.NoError(err)
		s.Equal("wire", name)
		blob, err := r.Read("blob").Bytes()
		s.NoError(err)
		s.Equal([]byte{0, 1, 2, 255}, blob)
		when, err := r.Read("when").Time()
		s.NoError(err)
		s.Equal(LocalTime{Hour: 10, Minute: 30, Second: 15, Nanos: 500}, when)
		day, err := r.Read("day").Date()
		s.NoError(err)
		s.Equal(LocalDate{Year: 2026, Month: time.August, Day: 6}, day)
		got, err := r.Read("zoned").ZonedDateTime()
		s.NoError(err)
		s.True(zoned.Equal(got))
		gotID, err := r.Read("id").UUID()
		s.NoError(err)
		s.Equal(id, gotID)
		return nil
	})
	s.NoError(err)
	s.True(present)
}

func (s *BinaryWireSuite) TestOutOfOrderRead() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("x").Int64(10))
		s.NoError(out.Write("y").Int64(20))
		return nil
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		y, err := r.Read("y").Int64()
		s.NoError(err)
		s.EqualValues(20, y)
		x, err := r.Read("x").Int64()
		s.NoError(err)
		s.EqualValues(10, x)
		s.False(r.Read("z").Present())
		return nil
	})
	s.NoError(err)
}

func (s *BinaryWireSuite) TestSequenceAndRecord() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		if err := out.Write("nums").Sequence(func(item ValueOut) error {
			for _, n := range []int64{1, 127, 128, -5} {
				if err := item.Int64(n); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
		return out.Write("inner").Record(func(rec WireOut) error {
			return rec.Write("deep").Text("value")
		})
	})
	s.NoError(err)

	var nums []int64
	_, err = w.ReadDocument(nil, func(r WireIn) error {
		if err := r.Read("nums").Sequence(func(item ValueIn) error {
			for item.HasNext() {
				n, err := item.Int64()
				if err != nil {
					return err
				}
				nums = append(nums, n)
			}
			return nil
		}); err != nil {
			return err
		}
		return r.Read("inner").Record(func(rec WireIn) error {
			deep, err := rec.Read("deep").Text()
			s.NoError(err)
			s.Equal("value", deep)
			return nil
		})
	})
	s.NoError(err)
	s.Equal([]int64{1, 127, 128, -5}, nums)
}

func (s *BinaryWireSuite) TestFieldLess() {
	buf := elastic.New(256)
	opts := DefaultOptions()
	opts.FieldLess = true
	w := NewBinaryWireWithOptions(buf, opts)

	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("ignored").Int64(7))
		s.NoError(out.Write("also-ignored").Text("positional"))
		return nil
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		n, err := r.Read("whatever").Int64()
		s.NoError(err)
		s.EqualValues(7, n)
		t, err := r.Read("whatever").Text()
		s.NoError(err)
		s.Equal("positional", t)
		return nil
	})
	s.NoError(err)
}

func (s *BinaryWireSuite) TestCompressRoundTrip() {
	for _, codec := range []string{"lzw", "gzip", "snappy", "zstd"} {
		w, _ := s.newWire()
		data := bytes.Repeat([]byte("the quick brown fox "), 64)
		err := w.WriteDocument(false, func(out WireOut) error {
			return out.Write("payload").Compress(codec, data)
		})
		s.NoError(err, codec)

		_, err = w.ReadDocument(nil, func(r WireIn) error {
			got, err := r.Read("payload").Bytes()
			s.NoError(err, codec)
			s.Equal(data, got, codec)
			return nil
		})
		s.NoError(err, codec)
	}
}

func (s *BinaryWireSuite) TestCompressBelowThreshold() {
	w, buf := s.newWire()
	small := []byte("tiny")
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("payload").Compress("zstd", small)
	})
	s.NoError(err)
	// 阈值以下按普通字节序列落线，不出现压缩码。
	s.Equal(-1, bytes.IndexByte(buf.Bytes()[:buf.WritePosition()], codeCompressed))

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		got, err := r.Read("payload").Bytes()
		s.NoError(err)
		s.Equal(small, got)
		return nil
	})
	s.NoError(err)
}

func (s *BinaryWireSuite) TestRangeViolation() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		return out.Write("n").Int64(300)
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		in := r.Read("n")
		_, err := in.Int8()
		s.Error(err)
		// 拉取失败不前进游标，换更宽的拉取仍可读出。
		n, err := in.Int64()
		s.NoError(err)
		s.EqualValues(300, n)
		return nil
	})
	s.NoError(err)
}

func (s *BinaryWireSuite) TestSkipAndReadLength() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		s.NoError(out.Write("a").Text("skip me"))
		s.NoError(out.Write("b").Int64(11))
		return nil
	})
	s.NoError(err)

	_, err = w.ReadDocument(nil, func(r WireIn) error {
		name, in, err := r.ReadEvent()
		s.NoError(err)
		s.Equal("a", name)
		n, err := in.ReadLength()
		s.NoError(err)
		s.Greater(n, 0)
		s.NoError(in.Skip())

		name, in, err = r.ReadEvent()
		s.NoError(err)
		s.Equal("b", name)
		v, err := in.Int64()
		s.NoError(err)
		s.EqualValues(11, v)
		return nil
	})
	s.NoError(err)
}

func (s *BinaryWireSuite) TestTranscodeToText() {
	w, _ := s.newWire()
	err := w.WriteDocument(false, func(out WireOut) error {
		if err := out.Write("greeting").Text("hi"); err != nil {
			return err
		}
		return out.Write("n").Int64(5)
	})
	s.NoError(err)

	body, err := AsText(w)
	s.NoError(err)
	s.Contains(body, "greeting: hi")
	s.Contains(body, "n: 5")
}

func (s *BinaryWireSuite) TestDumpMarksBinary() {
	w, buf := s.newWire()
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("k").Int64(1)
	}))
	dump := FromSizePrefixedBlobs(buf)
	s.Contains(dump, "--- !!data #binary")
	s.Contains(dump, "k: 1")
}

func (s *BinaryWireSuite) TestCopyOneAcrossEncodings() {
	bw, _ := s.newWire()
	s.NoError(bw.WriteDocument(false, func(out WireOut) error {
		return out.Write("city").Text("chengdu")
	}))

	textBuf := elastic.New(256)
	tw := NewTextWire(textBuf)
	_, err := bw.ReadDocument(nil, func(r WireIn) error {
		return tw.WriteDocument(false, func(out WireOut) error {
			name, in, err := r.ReadEvent()
			if err != nil {
				return err
			}
			return CopyTo(in, out.Write(name))
		})
	})
	s.NoError(err)

	_, err = tw.ReadDocument(nil, func(r WireIn) error {
		city, err := r.Read("city").Text()
		s.NoError(err)
		s.Equal("chengdu", city)
		return nil
	})
	s.NoError(err)
}

func TestBinaryWire(t *testing.T) {
	suite.Run(t, new(BinaryWireSuite))
}
