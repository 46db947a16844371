package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commonapp/common-backend/internal/models"
)

func TestDistanceKm_Symmetric(t *testing.T) {
	// Moscow and Saint Petersburg.
	d1 := DistanceKm(55.7558, 37.6173, 59.9311, 30.3609)
	d2 := DistanceKm(59.9311, 30.3609, 55.7558, 37.6173)

	assert.Equal(t, d1, d2)
	assert.InDelta(t, 634, d1, 5)
}

func TestDistanceKm_IdenticalPoints(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(40.7128, -74.0060, 40.7128, -74.0060))
}

func TestFormatDistance(t *testing.T) {
	assert.Equal(t, "nearby", FormatDistance(0))
	// 0.1 mi boundary: 0.1 / 0.621371 ≈ 0.1609 km.
	assert.Equal(t, "nearby", FormatDistance(0.16))
	assert.Equal(t, "0.1 mi", FormatDistance(0.17))
	assert.Equal(t, "1.9 mi", FormatDistance(3))
	assert.Equal(t, "9.9 mi", FormatDistance(16))
	assert.Equal(t, "12 mi", FormatDistance(20))
}

func coordPost(title string, lat, lon float64) models.Post {
	return models.Post{Title: title, Latitude: &lat, Longitude: &lon}
}

func TestRankByDistance_AscendingWithCoordinatelessLast(t *testing.T) {
	posts := []models.Post{
		coordPost("far", 41.0, -74.0),
		{Title: "no-coords-1"},
		coordPost("near", 40.72, -74.0),
		{Title: "no-coords-2"},
		coordPost("here", 40.7128, -74.0060),
	}

	ranked := RankByDistance(posts, 40.7128, -74.0060)

	assert.Len(t, ranked, 5)
	assert.Equal(t, "here", ranked[0].Title)
	assert.Equal(t, "near", ranked[1].Title)
	assert.Equal(t, "far", ranked[2].Title)
	// Coordinate-less posts keep their incoming order at the tail.
	assert.Equal(t, "no-coords-1", ranked[3].Title)
	assert.Equal(t, "no-coords-2", ranked[4].Title)
	assert.Nil(t, ranked[3].DistanceKm)
	assert.Nil(t, ranked[4].DistanceKm)
}

func TestRankByDistance_AnnotatesDistanceText(t *testing.T) {
	posts := []models.Post{coordPost("here", 40.7128, -74.0060)}

	ranked := RankByDistance(posts, 40.7128, -74.0060)

	assert.NotNil(t, ranked[0].DistanceKm)
	assert.Equal(t, "nearby", ranked[0].DistanceText)
}
