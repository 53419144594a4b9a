// Copyright 2026 Peter Edge
//
// All rights reserved.

package xtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDateStringAndIn(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		date     Date
		wantStr  string
		wantTime time.Time
	}{
		{
			date:     Date{2014, 7, 29},
			wantStr:  "2014-07-29",
			wantTime: time.Date(2014, time.July, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			date:     TimeToDate(time.Date(2014, 8, 20, 15, 8, 43, 1, time.UTC)),
			wantStr:  "2014-08-20",
			wantTime: time.Date(2014, 8, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			date:     Date{999, time.January, 26},
			wantStr:  "0999-01-26",
			wantTime: time.Date(999, 1, 26, 0, 0, 0, 0, time.UTC),
		},
	} {
		require.Equal(t, test.wantStr, test.date.String())
		require.True(t, test.date.In(time.UTC).Equal(test.wantTime), "%v.In(UTC)", test.date)
	}
}

func TestDateIsValid(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		date Date
		want bool
	}{
		{Date{2014, 7, 29}, true},
		{Date{2000, 2, 29}, true},
		{Date{2001, 2, 29}, false},
		{Date{1, 0, 1}, false},
		{Date{2016, 1, 32}, false},
		{Date{2016, 13, 1}, false},
	} {
		require.Equal(t, test.want, test.date.IsValid(), "%#v", test.date)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()
	date, err := ParseDate("2016-12-31")
	require.NoError(t, err)
	require.Equal(t, Date{2016, 12, 31}, date)
	for _, bad := range []string{"999-01-26", "", "2016-01-02x", "20160102"} {
		_, err := ParseDate(bad)
		require.Error(t, err, bad)
	}
}

func TestParseCompactDate(t *testing.T) {
	t.Parallel()
	date, err := ParseCompactDate("20240105")
	require.NoError(t, err)
	require.Equal(t, Date{2024, 1, 5}, date)
	require.Equal(t, "20240105", date.CompactString())
	for _, bad := range []string{"2024-01-05", "2024010", "20241301"} {
		_, err := ParseCompactDate(bad)
		require.Error(t, err, bad)
	}
}

func TestDateArithmetic(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		desc  string
		start Date
		end   Date
		days  int
	}{
		{"zero days noop", Date{2014, 5, 9}, Date{2014, 5, 9}, 0},
		{"crossing a year boundary", Date{2014, 12, 31}, Date{2015, 1, 1}, 1},
		{"negative number of days", Date{2015, 1, 1}, Date{2014, 12, 31}, -1},
		{"full leap year", Date{2004, 1, 1}, Date{2005, 1, 1}, 366},
		{"full non-leap year", Date{2001, 1, 1}, Date{2002, 1, 1}, 365},
	} {
		require.Equal(t, test.end, test.start.AddDays(test.days), test.desc)
		require.Equal(t, test.days, test.end.DaysSince(test.start), test.desc)
	}
}

func TestDateAddMonths(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		desc   string
		start  Date
		months int
		want   Date
	}{
		{"same day exists", Date{2024, 1, 15}, 2, Date{2024, 3, 15}},
		{"clamp to leap february", Date{2023, 12, 31}, 2, Date{2024, 2, 29}},
		{"clamp to february", Date{2022, 12, 31}, 2, Date{2023, 2, 28}},
		{"clamp to thirty days", Date{2024, 1, 31}, 3, Date{2024, 4, 30}},
		{"crossing a year boundary", Date{2024, 11, 30}, 2, Date{2025, 1, 30}},
		{"negative months", Date{2024, 3, 31}, -1, Date{2024, 2, 29}},
		{"zero months", Date{2024, 3, 31}, 0, Date{2024, 3, 31}},
	} {
		require.Equal(t, test.want, test.start.AddMonths(test.months), test.desc)
	}
}

func TestDateComparisons(t *testing.T) {
	t.Parallel()
	for _, test := range []struct {
		d1, d2                             Date
		before, equalOrBefore, after, eqOA bool
		compare                            int
	}{
		{Date{2016, 12, 31}, Date{2017, 1, 1}, true, true, false, false, -1},
		{Date{2016, 1, 1}, Date{2016, 1, 1}, false, true, false, true, 0},
		{Date{2016, 12, 31}, Date{2016, 12, 30}, false, false, true, true, +1},
	} {
		require.Equal(t, test.before, test.d1.Before(test.d2))
		require.Equal(t, test.equalOrBefore, test.d1.EqualOrBefore(test.d2))
		require.Equal(t, test.after, test.d1.After(test.d2))
		require.Equal(t, test.eqOA, test.d1.EqualOrAfter(test.d2))
		require.Equal(t, test.compare, test.d1.Compare(test.d2))
	}
}

func TestDateIsZero(t *testing.T) {
	t.Parallel()
	require.True(t, Date{}.IsZero())
	require.False(t, Date{-1, 0, 0}.IsZero())
	require.False(t, Date{2000, 2, 29}.IsZero())
}

func TestDateJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(Date{1987, 4, 15})
	require.NoError(t, err)
	require.Equal(t, `"1987-04-15"`, string(data))
	var date Date
	require.NoError(t, json.Unmarshal([]byte(`"1987-04-15"`), &date))
	if diff := cmp.Diff(Date{1987, 4, 15}, date); diff != "" {
		t.Errorf("unexpected date (-want +got):\n%s", diff)
	}
	for _, bad := range []string{"", `""`, `"bad"`, `"1987-04-15x"`, `19870415`} {
		require.Error(t, json.Unmarshal([]byte(bad), &date), bad)
	}
}
