package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"restaurant-match-backend/internal/catalog"
	"restaurant-match-backend/internal/middleware"
	"restaurant-match-backend/internal/services"
	"restaurant-match-backend/internal/validation"
)

// DiscoveryHandler serves the discovery feed
type DiscoveryHandler struct {
	discoveryService *services.DiscoveryService
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(discoveryService *services.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{
		discoveryService: discoveryService,
	}
}

// Feed handles GET /api/v1/restaurants
func (h *DiscoveryHandler) Feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params, err := parseSearchParams(r.URL.Query())
	if err == nil {
		err = validation.Struct(params)
	}
	if err != nil {
		respondServiceError(w, r, err, "Invalid request")
		return
	}

	page, err := h.discoveryService.Feed(ctx, middleware.GetUserID(ctx), params)
	if err != nil {
		respondServiceError(w, r, err, "Failed to load restaurants")
		return
	}

	respondJSON(w, http.StatusOK, page)
}

func parseSearchParams(q url.Values) (catalog.SearchParams, error) {
	p := catalog.SearchParams{
		Location: q.Get("location"),
		Cuisine:  q.Get("cuisine"),
		Price:    q.Get("price"),
	}
	if dietary := q.Get("dietary"); dietary != "" {
		for _, d := range strings.Split(dietary, ",") {
			if d = strings.TrimSpace(d); d != "" {
				p.Dietary = append(p.Dietary, d)
			}
		}
	}

	var err error
	if p.Latitude, err = floatParam(q, "lat"); err != nil {
		return p, err
	}
	if p.Longitude, err = floatParam(q, "lng"); err != nil {
		return p, err
	}
	if p.MinRating, err = floatParam(q, "min_rating"); err != nil {
		return p, err
	}
	if p.Radius, err = intParam(q, "radius"); err != nil {
		return p, err
	}
	if p.Page, err = intParam(q, "page"); err != nil {
		return p, err
	}
	if p.PageSize, err = intParam(q, "page_size"); err != nil {
		return p, err
	}
	if v := q.Get("open_now"); v != "" {
		if p.OpenNow, err = strconv.ParseBool(v); err != nil {
			return p, fmt.Errorf("%w: open_now must be a boolean", services.ErrInvalidInput)
		}
	}
	return p, nil
}

func floatParam(q url.Values, name string) (float64, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", services.ErrInvalidInput, name)
	}
	return f, nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", services.ErrInvalidInput, name)
	}
	return n, nil
}
