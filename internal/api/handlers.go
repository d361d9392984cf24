package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fuzzymenu/internal/database"
	"fuzzymenu/internal/fuzzy"
	"fuzzymenu/internal/models"
	"fuzzymenu/internal/recommender"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 20

// RatingsRequest is the body of a recommendation request. Every field is
// required; zero is a valid rating.
type RatingsRequest struct {
	Sweetness *float64 `json:"sweetness" binding:"required"`
	Saltiness *float64 `json:"saltiness" binding:"required"`
	Budget    *float64 `json:"budget" binding:"required"`
	Hunger    *float64 `json:"hunger" binding:"required"`
}

// Ratings converts the request, failing on a missing field.
func (r RatingsRequest) Ratings() (models.Ratings, error) {
	for name, v := range map[string]*float64{
		"sweetness": r.Sweetness,
		"saltiness": r.Saltiness,
		"budget":    r.Budget,
		"hunger":    r.Hunger,
	} {
		if v == nil {
			return models.Ratings{}, fmt.Errorf("missing rating %q", name)
		}
	}
	return models.Ratings{
		Sweetness: *r.Sweetness,
		Saltiness: *r.Saltiness,
		Budget:    *r.Budget,
		Hunger:    *r.Hunger,
	}, nil
}

// MenuResponse lists the dishes and the interval ratings must lie in.
type MenuResponse struct {
	Dishes []models.MenuItem `json:"dishes"`
	Lo     float64           `json:"lo"`
	Hi     float64           `json:"hi"`
}

func (s *Server) bindRatings(c *gin.Context) (models.Ratings, bool) {
	var req RatingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Ratings{}, false
	}
	r, err := req.Ratings()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Ratings{}, false
	}
	return r, true
}

func (s *Server) handleRecommend(c *gin.Context) {
	r, ok := s.bindRatings(c)
	if !ok {
		return
	}
	rec, err := s.svc.Recommend(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) handleExplain(c *gin.Context) {
	r, ok := s.bindRatings(c)
	if !ok {
		return
	}
	exp, err := s.svc.Explain(c.Request.Context(), r)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if q := c.Query("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	recs, err := s.svc.History(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) handleGet(c *gin.Context) {
	rec, err := s.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDishCounts(c *gin.Context) {
	counts, err := s.svc.DishCounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (s *Server) handleMenu(c *gin.Context) {
	u := s.svc.Preset().Universe
	c.JSON(http.StatusOK, MenuResponse{
		Dishes: s.svc.Menu().Items(),
		Lo:     u.Lo,
		Hi:     u.Hi,
	})
}

func (s *Server) handlePreset(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Preset())
}

func (s *Server) handleMetrics(c *gin.Context) {
	if s.monitor == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}

// writeError maps service errors onto status codes.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fuzzy.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, recommender.ErrHistoryDisabled):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
