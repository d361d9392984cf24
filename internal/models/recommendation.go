package models

import (
	"time"
)

// Ratings are the four crisp user ratings, each on the 0-10 scale.
type Ratings struct {
	Sweetness float64 `json:"sweetness" yaml:"sweetness"`
	Saltiness float64 `json:"saltiness" yaml:"saltiness"`
	Budget    float64 `json:"budget" yaml:"budget"`
	Hunger    float64 `json:"hunger" yaml:"hunger"`
}

// Recommendation is one answered request, as stored in the history table.
type Recommendation struct {
	ID            string    `gorm:"primary_key;column:id" json:"id"`
	Preset        string    `gorm:"index" json:"preset"`
	Sweetness     float64   `json:"sweetness"`
	Saltiness     float64   `json:"saltiness"`
	Budget        float64   `json:"budget"`
	Hunger        float64   `json:"hunger"`
	DesiredTaste  float64   `json:"desiredTaste"`
	DishIntensity float64   `json:"dishIntensity"`
	DishIndex     float64   `json:"dishIndex"`
	DishItem      int       `json:"dishItem"`
	DishName      string    `gorm:"index" json:"dishName"`
	Narration     string    `gorm:"type:text" json:"narration,omitempty"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// TableName sets the table name for Recommendation
func (Recommendation) TableName() string {
	return "recommendations"
}

// RecommendationStatus records how a recommendation was produced.
type RecommendationStatus string

const (
	RecommendationStatusComputed RecommendationStatus = "computed"
	RecommendationStatusCached   RecommendationStatus = "cached"
)

// Ratings returns the inputs that produced r.
func (r *Recommendation) Ratings() Ratings {
	return Ratings{
		Sweetness: r.Sweetness,
		Saltiness: r.Saltiness,
		Budget:    r.Budget,
		Hunger:    r.Hunger,
	}
}
