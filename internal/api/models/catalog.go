package models

import "github.com/cragcast/cragcast/internal/catalog"

// LocationList is the response for GET /v1/locations.
type LocationList struct {
	Items []catalog.Location `json:"items"`
	Total int                `json:"total"`
}

// SpotView is a spot with its grade shown in the requested system.
type SpotView struct {
	catalog.Spot
	DisplayGrade string `json:"displayGrade"`
}

// SpotList is the response for GET /v1/locations/{locationId}/spots.
type SpotList struct {
	LocationID string     `json:"locationId"`
	GradeType  string     `json:"gradeType"`
	Items      []SpotView `json:"items"`
	Total      int        `json:"total"`
}

// GradeConversion is the response for GET /v1/grades/convert.
type GradeConversion struct {
	Font string `json:"font"`
	V    string `json:"v"`
}
