package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIDMatchesBrowserClients(t *testing.T) {
	cases := map[string]int32{
		"":                   0,
		"a":                  97,
		"abc123":             -1424436592,
		"xyz789":             -744033985,
		"hello world":        1794106052,
		"日本語":                25921943,
		"user_2nXyZ9q8Lk3mP": 1854731776,
	}
	for id, want := range cases {
		assert.Equal(t, want, HashID(id), id)
	}
}

func TestColor(t *testing.T) {
	cases := map[string]string{
		"":             "#FF6B6B",
		"a":            "#4ECDC4",
		"abc123":       "#FF6B6B",
		"xyz789":       "#4ECDC4",
		"user_2abcDEF": "#4ECDC4",
		"hello world":  "#98D8C8",
		"日本語":          "#85C1E9",
	}
	for id, want := range cases {
		assert.Equal(t, want, Color(id), id)
	}
}

func TestColorIsStable(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, Color("user_2nXyZ9q8Lk3mP"), Color("user_2nXyZ9q8Lk3mP"))
	}
}
