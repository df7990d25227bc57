package trend

import (
	"testing"
	"time"

	"market-map/internal/region"
	"market-map/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "서울 용산구", KeyFor(region.Region{Name: "서울 용산구", NaverRegion: "서울 용산구"}))
	assert.Equal(t, "수원시", KeyFor(region.Region{Name: "경기도 수원시 장안구", NaverRegion: "수원시"}))
	assert.Equal(t, "춘천시", KeyFor(region.Region{Name: "강원특별자치도 춘천시"}))
	assert.Equal(t, "장안구", DisplayName(region.Region{Name: "경기도 수원시 장안구"}))
}

func TestShape(t *testing.T) {
	pts := []store.TrendPoint{
		{Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), SearchIndex: 10},
		{Date: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), SearchIndex: 88.5},
	}
	s := Shape("춘천시", "춘천시", pts)
	assert.Equal(t, "'춘천시 맛집' 검색량", s.Title)
	assert.Equal(t, []string{"1/5", "12/25"}, s.Labels)
	assert.Equal(t, []float64{10, 88.5}, s.Values)
	assert.False(t, s.Empty)
}

func TestShape_Empty(t *testing.T) {
	s := Shape(National, National, nil)
	assert.Equal(t, []string{"데이터 없음"}, s.Labels)
	assert.Equal(t, []float64{0}, s.Values)
	assert.True(t, s.Empty)
	assert.Equal(t, "'전국 맛집' 검색량", s.Title)
}
