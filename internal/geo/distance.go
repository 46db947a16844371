package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/commonapp/common-backend/internal/models"
)

const (
	earthRadiusKm = 6371.0
	kmToMiles     = 0.621371
)

// DistanceKm returns the great-circle distance between two points
// via the Haversine formula.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// FormatDistance renders a distance in km as a miles string:
// "nearby" under 0.1 mi, one decimal under 10 mi, whole miles above.
func FormatDistance(km float64) string {
	miles := km * kmToMiles
	switch {
	case miles < 0.1:
		return "nearby"
	case miles < 10:
		return fmt.Sprintf("%.1f mi", miles)
	default:
		return fmt.Sprintf("%d mi", int(math.Round(miles)))
	}
}

// RankByDistance sorts posts ascending by distance from the viewer.
// Posts missing either coordinate sort after all posts that have both,
// keeping their incoming relative order (stable sort, no secondary
// key).
func RankByDistance(posts []models.Post, userLat, userLon float64) []models.RankedPost {
	ranked := make([]models.RankedPost, 0, len(posts))
	for _, p := range posts {
		rp := models.RankedPost{Post: p}
		if p.HasCoordinates() {
			d := DistanceKm(userLat, userLon, *p.Latitude, *p.Longitude)
			rp.DistanceKm = &d
			rp.DistanceText = FormatDistance(d)
		}
		ranked = append(ranked, rp)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		di, dj := ranked[i].DistanceKm, ranked[j].DistanceKm
		if di == nil {
			return false
		}
		if dj == nil {
			return true
		}
		return *di < *dj
	})

	return ranked
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
