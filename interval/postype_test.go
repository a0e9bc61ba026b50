package interval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaolab/aletsch-core/interval"
)

func TestSearchPosTypes(t *testing.T) {
	a := []interval.PosType{10, 20, 30, 40}

	assert.Equal(t, 0, interval.SearchPosTypes(a, 5))
	assert.Equal(t, 0, interval.SearchPosTypes(a, 10))
	assert.Equal(t, 1, interval.SearchPosTypes(a, 11))
	assert.Equal(t, 3, interval.SearchPosTypes(a, 40))
	assert.Equal(t, 4, interval.SearchPosTypes(a, 41))
	assert.Equal(t, 0, interval.SearchPosTypes(nil, 10))
}

func TestExpsearchPosTypesMatchesPlainSearch(t *testing.T) {
	a := []interval.PosType{10, 20, 30, 40, 50, 60, 70, 80, 90}

	for _, x := range []interval.PosType{5, 10, 35, 60, 95} {
		want := interval.SearchPosTypes(a, x)
		for idx := 0; idx <= want; idx++ {
			assert.Equal(t, want, interval.ExpsearchPosTypes(a, x, idx),
				"x=%d starting at %d", x, idx)
		}
	}
}
