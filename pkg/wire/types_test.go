package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type TimeTypesSuite struct {
	suite.Suite
}

func (s *TimeTypesSuite) TestLocalTimeNanosRoundTrip() {
	cases := []LocalTime{
		{},
		{Hour: 23, Minute: 59, Second: 59, Nanos: 999999999},
		{Hour: 10, Minute: 30, Second: 15, Nanos: 500},
	}
	for _, c := range cases {
		s.Equal(c, LocalTimeOfNanos(c.NanosOfDay()))
	}
}

func (s *TimeTypesSuite) TestLocalTimeText() {
	t := LocalTime{Hour: 9, Minute: 5, Second: 7}
	s.Equal("09:05:07", t.String())

	withNanos := LocalTime{Hour: 9, Minute: 5, Second: 7, Nanos: 123}
	s.Equal("09:05:07.000000123", withNanos.String())

	parsed, err := ParseLocalTime("09:05:07.000000123")
	s.NoError(err)
	s.Equal(withNanos, parsed)

	parsed, err = ParseLocalTime("09:05")
	s.NoError(err)
	s.Equal(LocalTime{Hour: 9, Minute: 5}, parsed)

	_, err = ParseLocalTime("not-a-time")
	s.Error(err)
}

func (s *TimeTypesSuite) TestLocalDateEpochRoundTrip() {
	cases := []LocalDate{
		{Year: 1970, Month: time.January, Day: 1},
		{Year: 2026, Month: time.August, Day: 6},
		{Year: 1969, Month: time.December, Day: 31},
	}
	for _, c := range cases {
		s.Equal(c, LocalDateOfEpochDay(c.EpochDay()))
	}
	s.EqualValues(0, LocalDate{Year: 1970, Month: time.January, Day: 1}.EpochDay())
}

func (s *TimeTypesSuite) TestLocalDateText() {
	d := LocalDate{Year: 2026, Month: time.August, Day: 6}
	s.Equal("2026-08-06", d.String())

	parsed, err := ParseLocalDate("2026-08-06")
	s.NoError(err)
	s.Equal(d, parsed)

	_, err = ParseLocalDate("08/06/2026")
	s.Error(err)
}

func (s *TimeTypesSuite) TestLocalDateTimeText() {
	dt := LocalDateTime{
		Date: LocalDate{Year: 2026, Month: time.August, Day: 6},
		Time: LocalTime{Hour: 12, Minute: 0, Second: 1},
	}
	s.Equal("2026-08-06T12:00:01", dt.String())

	parsed, err := ParseLocalDateTime(dt.String())
	s.NoError(err)
	s.Equal(dt, parsed)
}

func (s *TimeTypesSuite) TestZonedRoundTrip() {
	z := time.Date(2026, 8, 6, 10, 30, 0, 123456789, time.FixedZone("CST", 8*3600))
	parsed, err := ParseZoned(FormatZoned(z))
	s.NoError(err)
	s.True(z.Equal(parsed))

	_, err = ParseZoned("yesterday")
	s.Error(err)
}

func TestTimeTypes(t *testing.T) {
	suite.Run(t, new(TimeTypesSuite))
}
