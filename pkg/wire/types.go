// Package wire 的值域辅助类型：不带时区的时间/日期/日期时间，
// 以及类型字面量的名字包装。
package wire

import (
	"fmt"
	"time"

	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// TypeName 是类型字面量值携带的类型名。
//
// 类型字面量在文本编码下形如 `!type Name`，在二进制编码下有独立的前导码。
type TypeName string

func (n TypeName) String() string { return string(n) }

// LocalTime 表示不带时区的一天内时刻，精确到纳秒。
//
// 文本编码按 ISO-8601 局部时间（HH:MM:SS[.fffffffff]）排版，
// 二进制编码为自午夜起的纳秒数。
type LocalTime struct {
	Hour   int
	Minute int
	Second int
	Nanos  int
}

// NanosOfDay 返回自午夜起的纳秒数。
func (t LocalTime) NanosOfDay() int64 {
	return int64(t.Hour)*int64(time.Hour) +
		int64(t.Minute)*int64(time.Minute) +
		int64(t.Second)*int64(time.Second) +
		int64(t.Nanos)
}

// LocalTimeOfNanos 将自午夜起的纳秒数还原为 LocalTime。
func LocalTimeOfNanos(nanos int64) LocalTime {
	return LocalTime{
		Hour:   int(nanos / int64(time.Hour)),
		Minute: int(nanos % int64(time.Hour) / int64(time.Minute)),
		Second: int(nanos % int64(time.Minute) / int64(time.Second)),
		Nanos:  int(nanos % int64(time.Second)),
	}
}

// String 按 ISO-8601 局部时间排版；纳秒为 0 时省略小数部分。
func (t LocalTime) String() string {
	if t.Nanos == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%09d", t.Hour, t.Minute, t.Second, t.Nanos)
}

// ParseLocalTime 解析 ISO-8601 局部时间文本。
func ParseLocalTime(s string) (LocalTime, error) {
	var t LocalTime
	layouts := []string{"15:04:05.999999999", "15:04:05", "15:04"}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Hour = parsed.Hour()
			t.Minute = parsed.Minute()
			t.Second = parsed.Second()
			t.Nanos = parsed.Nanosecond()
			return t, nil
		}
	}
	return t, werr.WrapErrTypeMismatch(s, "local-time", -1)
}

// LocalDate 表示不带时区的日历日期。
//
// 文本编码按 ISO-8601 日期（YYYY-MM-DD）排版，
// 二进制编码为自 1970-01-01 起的天数。
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// EpochDay 返回自 1970-01-01 起的天数。
func (d LocalDate) EpochDay() int64 {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return t.Unix() / 86400
}

// LocalDateOfEpochDay 将自 1970-01-01 起的天数还原为 LocalDate。
func LocalDateOfEpochDay(days int64) LocalDate {
	t := time.Unix(days*86400, 0).UTC()
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// String 按 ISO-8601 日期排版。
func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// ParseLocalDate 解析 ISO-8601 日期文本。
func ParseLocalDate(s string) (LocalDate, error) {
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, werr.WrapErrTypeMismatch(s, "local-date", -1)
	}
	return LocalDate{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()}, nil
}

// LocalDateTime 表示不带时区的日期时间。
//
// 文本编码按 ISO-8601（YYYY-MM-DDTHH:MM:SS[.fffffffff]）排版，
// 二进制编码为日期天数与日内纳秒两段。
type LocalDateTime struct {
	Date LocalDate
	Time LocalTime
}

// String 按 ISO-8601 日期时间排版。
func (dt LocalDateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}

// ParseLocalDateTime 解析 ISO-8601 日期时间文本。
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	layouts := []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02T15:04"}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return LocalDateTime{
				Date: LocalDate{Year: parsed.Year(), Month: parsed.Month(), Day: parsed.Day()},
				Time: LocalTime{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second(), Nanos: parsed.Nanosecond()},
			}, nil
		}
	}
	return LocalDateTime{}, werr.WrapErrTypeMismatch(s, "local-date-time", -1)
}

// zonedLayout 是带时区时间的文本排版格式（ISO-8601，含区域偏移）。
const zonedLayout = "2006-01-02T15:04:05.999999999Z07:00"

// FormatZoned 将带时区时间排版为 ISO-8601 文本。
func FormatZoned(t time.Time) string {
	return t.Format(zonedLayout)
}

// ParseZoned 解析 ISO-8601 带时区时间文本。
func ParseZoned(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, werr.WrapErrTypeMismatch(s, "zoned-date-time", -1)
	}
	return t, nil
}
