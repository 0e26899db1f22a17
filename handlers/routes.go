package handlers

import "github.com/go-chi/chi/v5"

// Mount registers the map API routes on r
func Mount(r chi.Router, cities *CityHandler, health *HealthHandler) {
	r.Get("/health", health.GetHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/regions", cities.GetRegions)
		r.Get("/stations", cities.GetStations)
		r.Get("/cities", cities.GetCities)
		r.Get("/cities/markers", cities.GetMarkers)
		r.Get("/cities/geojson", cities.GetGeoJSON)
		r.Get("/legend", cities.GetLegend)
		r.Post("/refresh", cities.Refresh)
	})
}
