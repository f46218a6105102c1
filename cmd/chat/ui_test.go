package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAge(t *testing.T) {
	cases := []struct {
		secs int64
		want string
	}{
		{0, "0s"},
		{1, "1s"},
		{59, "59s"},
		{60, "1m00s"},
		{90, "1m30s"},
		{3599, "59m59s"},
		{3600, "1h00m"},
		{3661, "1h01m"},
		{7322, "2h02m"},
		{-5, "0s"}, // negative clamped to zero
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, formatAge(tc.secs), "secs=%d", tc.secs)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 0, ""},
		{"hi", 5, "hi"},
		{"hello", 5, "hello"},
		{"hello world", 5, "he..."},
		{"hello world", 3, "hel"}, // n<=3: no ellipsis
		{"hello world", 8, "hello..."},
		{"", 5, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, truncate(tc.s, tc.n), "truncate(%q, %d)", tc.s, tc.n)
	}
}

func TestJoinedAge(t *testing.T) {
	assert.Equal(t, "", joinedAge(nil), "non-string input yields empty")
	assert.Equal(t, "", joinedAge(""), "empty string yields empty")
	assert.Equal(t, "", joinedAge("not-a-timestamp"), "unparseable timestamp yields empty")

	recent := time.Now().UTC().Add(-90 * time.Second).Format(joinedAtLayout)
	assert.Equal(t, "1m30s", joinedAge(recent))
}
