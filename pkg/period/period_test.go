package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func loveParkBoundary(t *testing.T) Boundary {
	t.Helper()
	b, err := NewBoundary(date("2016-02-01"), date("2018-05-31"))
	require.NoError(t, err)
	return b
}

func TestClassifyExamples(t *testing.T) {
	b := loveParkBoundary(t)

	tests := []struct {
		date string
		want Period
	}{
		{"2016-01-15", Pre},
		{"2016-02-15", BorderStartMonth},
		{"2017-06-01", During},
		{"2018-05-20", BorderEndMonth},
		{"2019-01-01", Post},
		{"2016-01-31", Pre},
		{"2016-03-01", During},
		{"2018-04-30", During},
		{"2018-06-01", Post},
		{"2016-02-01", BorderStartMonth},
		{"2018-05-31", BorderEndMonth},
	}

	for _, tc := range tests {
		t.Run(tc.date, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(date(tc.date), b))
		})
	}
}

func TestClassifyMissingDate(t *testing.T) {
	b := loveParkBoundary(t)
	assert.Equal(t, MissingDate, Classify(time.Time{}, b))
	assert.Equal(t, MissingDate, Classify(time.Time{}, Boundary{}))
	assert.Equal(t, MissingDate, ClassifyString("not a date", b))
	assert.Equal(t, MissingDate, ClassifyString("", b))
	assert.Equal(t, MissingDate, ClassifyString("NaT", b))
}

func TestClassifyInclusive(t *testing.T) {
	b := loveParkBoundary(t)
	tests := map[string]Period{
		"2016-01-31": Pre,
		"2016-02-01": During,
		"2016-02-15": During,
		"2018-05-31": During,
		"2018-06-01": Post,
	}
	for in, want := range tests {
		assert.Equal(t, want, ClassifyInclusive(date(in), b), in)
	}
	assert.Equal(t, MissingDate, ClassifyInclusive(time.Time{}, b))
}

func TestClassifyIgnoresTimeOfDayAndZone(t *testing.T) {
	b := loveParkBoundary(t)

	// Late on Jan 31 in New York is Feb 1 in UTC; the written date wins.
	ny := time.FixedZone("EST", -5*3600)
	assert.Equal(t, Pre, Classify(time.Date(2016, 1, 31, 23, 0, 0, 0, ny), b))
	assert.Equal(t, Post, Classify(time.Date(2018, 6, 1, 0, 30, 0, 0, time.FixedZone("CEST", 2*3600)), b))
}

func TestClassifyTotalOverRange(t *testing.T) {
	b := loveParkBoundary(t)

	for d := date("2014-01-01"); d.Before(date("2021-01-01")); d = d.AddDate(0, 0, 1) {
		p := Classify(d, b)
		require.True(t, p.Valid(), "date %s classified as %q", d.Format("2006-01-02"), p)

		inStartMonth := d.Year() == 2016 && d.Month() == time.February
		inEndMonth := d.Year() == 2018 && d.Month() == time.May
		switch {
		case inStartMonth:
			require.Equal(t, BorderStartMonth, p, d)
		case inEndMonth:
			require.Equal(t, BorderEndMonth, p, d)
		case d.Before(b.Start):
			require.Equal(t, Pre, p, d)
		case d.After(b.End):
			require.Equal(t, Post, p, d)
		default:
			require.Equal(t, During, p, d)
		}
	}
}

func TestClassifyBoundariesInSameMonth(t *testing.T) {
	b, err := NewBoundary(date("2020-03-02"), date("2020-03-20"))
	require.NoError(t, err)

	assert.Equal(t, BorderStartMonth, Classify(date("2020-03-10"), b))
	assert.Equal(t, BorderStartMonth, Classify(date("2020-03-25"), b))
	assert.Equal(t, Pre, Classify(date("2020-02-28"), b))
	assert.Equal(t, Post, Classify(date("2020-04-01"), b))
}

func TestBoundaryValidate(t *testing.T) {
	_, err := NewBoundary(date("2018-05-31"), date("2016-02-01"))
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = NewBoundary(date("2018-05-31"), date("2018-05-31"))
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	_, err = NewBoundary(time.Time{}, date("2018-05-31"))
	assert.ErrorIs(t, err, ErrInvalidBoundary)

	b, err := ParseBoundary("2016-02-01", "2018-05-31")
	require.NoError(t, err)
	assert.Equal(t, "2016-02-01..2018-05-31", b.String())

	_, err = ParseBoundary("someday", "2018-05-31")
	assert.Error(t, err)
}

func TestParsePeriod(t *testing.T) {
	for _, p := range Order {
		got, err := ParsePeriod(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePeriod("Pre_Construction")
	require.NoError(t, err)
	assert.Equal(t, Pre, got)

	got, err = ParsePeriod("border_feb2016")
	require.NoError(t, err)
	assert.Equal(t, BorderStartMonth, got)
	got, err = ParsePeriod("BORDER_MAY2018")
	require.NoError(t, err)
	assert.Equal(t, BorderEndMonth, got)

	_, err = ParsePeriod("border_jan2020")
	assert.Error(t, err)
	_, err = ParsePeriod("unclassified")
	assert.Error(t, err)
}

func TestPeriodLabels(t *testing.T) {
	assert.Equal(t, "Pre-Construction", Pre.Label())
	assert.Equal(t, "During Construction", During.Label())
	assert.Equal(t, "Post-Construction", Post.Label())
	assert.True(t, BorderEndMonth.IsBorder())
	assert.False(t, During.IsBorder())
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2017-06-01", "2017-06-01", true},
		{"2017-06-01 00:00:00", "2017-06-01", true},
		{"2017-06-01T10:11:12Z", "2017-06-01", true},
		{"June 2017", "2017-06-01", true},
		{"Jun 2017", "2017-06-01", true},
		{"06/15/2017", "2017-06-15", true},
		{"1497484800", "2017-06-15", true},
		{"1497484800000", "2017-06-15", true},
		{"20160215", "2016-02-15", true},
		{"20161315", "", false},
		{"5", "", false},
		{"12345", "", false},
		{"-1497484800", "", false},
		{"", "", false},
		{"NaT", "", false},
		{"yesterday", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseDate(tc.in)
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got.Format("2006-01-02"))
			}
		})
	}
}
