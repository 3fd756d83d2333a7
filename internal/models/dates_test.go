package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"iso passthrough", "1985-03-12", "1985-03-12"},
		{"us slash", "03/12/1985", "1985-03-12"},
		{"day first when over twelve", "25/03/1985", "1985-03-25"},
		{"year first", "1985-3-12", "1985-03-12"},
		{"dots", "12.03.1985", "1985-12-03"},
		{"two digit year past pivot", "03/12/85", "1985-03-12"},
		{"two digit year recent", "03/12/09", "2009-03-12"},
		{"textual month", "12 Mar 1985", "1985-03-12"},
		{"textual month long", "March 12, 1985", "1985-03-12"},
		{"split bilingual month", "12 MAR/MAR 85", "1985-03-12"},
		{"empty", "", ""},
		{"garbage unchanged", "not a date", "not a date"},
		{"invalid day unchanged", "13/32/1985", "13/32/1985"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeDate(tc.in))
		})
	}
}

func TestNormalizeSex(t *testing.T) {
	assert.Equal(t, SexMale, NormalizeSex("M"))
	assert.Equal(t, SexMale, NormalizeSex("male"))
	assert.Equal(t, SexFemale, NormalizeSex("f"))
	assert.Equal(t, SexFemale, NormalizeSex("Female"))
	assert.Equal(t, "", NormalizeSex("<"))
	assert.Equal(t, "", NormalizeSex(""))
}
