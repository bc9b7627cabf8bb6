package naming

import (
	"fmt"
	"strings"
	"time"
)

// Period is the calendar granularity used to group archives. It picks both
// the backup directory and the incremental-state file, so every run inside
// one period extends the same incremental chain.
type Period int

const (
	Monthly Period = iota
	Yearly
	Daily
)

var periodLayouts = map[Period]struct {
	name string
	dir  string
	tag  string
}{
	Yearly:  {name: "yearly", dir: "2006", tag: "2006"},
	Monthly: {name: "monthly", dir: "2006-01", tag: "200601"},
	Daily:   {name: "daily", dir: "2006-01-02", tag: "20060102"},
}

// ParsePeriod accepts yearly/monthly/daily and the short forms year/month/day.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yearly", "year":
		return Yearly, nil
	case "", "monthly", "month":
		return Monthly, nil
	case "daily", "day":
		return Daily, nil
	}
	return Monthly, fmt.Errorf("unknown grouping period %q", s)
}

func (p Period) String() string {
	if l, ok := periodLayouts[p]; ok {
		return l.name
	}
	return fmt.Sprintf("Period(%d)", int(p))
}

// Dir is the human readable directory name for t, e.g. 2024-03.
func (p Period) Dir(t time.Time) string {
	return t.Format(periodLayouts[p].dir)
}

// Tag is the compact form used in file names, e.g. 202403.
func (p Period) Tag(t time.Time) string {
	return t.Format(periodLayouts[p].tag)
}

func (p Period) MarshalText() ([]byte, error) {
	if _, ok := periodLayouts[p]; !ok {
		return nil, fmt.Errorf("invalid grouping period %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Period) UnmarshalText(text []byte) error {
	parsed, err := ParsePeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
