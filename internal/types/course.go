package types

import (
	"time"

	"github.com/google/uuid"
)

// CoursePreferences is what a user asks for when requesting a course.
type CoursePreferences struct {
	FoodStyles     []string `json:"foodStyles"`
	Transportation string   `json:"transportation"`
	Condition      string   `json:"condition,omitempty"`
	Duration       string   `json:"duration"`
	Regions        []string `json:"regions"`
	Save           bool     `json:"save,omitempty"`
}

// RecommendationRequest is the bounded input handed to the AI stage.
type RecommendationRequest struct {
	FoodStyles     []string
	Transportation string
	Condition      string
	Duration       string
	Region         string
	MaxStops       int
	Candidates     []EnrichedRecord
}

// RecommendedStop is one stop as the model answered it. Untrusted until parsed.
type RecommendedStop struct {
	Sno        string     `json:"sno"`
	StoreName  string     `json:"storeName"`
	Area       string     `json:"area,omitempty"`
	Address    string     `json:"address"`
	Menu       string     `json:"smenu,omitempty"`
	Time       string     `json:"time,omitempty"`
	Tel        string     `json:"tel,omitempty"`
	Latitude   Coordinate `json:"lat,omitempty"`
	Longitude  Coordinate `json:"lng,omitempty"`
	VisitOrder int        `json:"visitOrder"`
}

// CourseRecommendation is the validated course returned by the AI stage.
type CourseRecommendation struct {
	CourseName  string            `json:"courseName"`
	Description string            `json:"description"`
	StoreCount  int               `json:"storeCount"`
	Stops       []RecommendedStop `json:"stores"`
}

// CreateCourseRequest is the body accepted when saving a course.
type CreateCourseRequest struct {
	CourseName  string            `json:"courseName"`
	Description string            `json:"description"`
	StoreCount  int               `json:"storeCount,omitempty"`
	Stops       []RecommendedStop `json:"stores"`
}

// NewCourse is a validated course with resolved stores, ready to be written.
// Stores with a nil ID are created in the same transaction.
type NewCourse struct {
	OwnerID     uuid.UUID
	Name        string
	Description string
	Stops       []NewCourseStop
}

type NewCourseStop struct {
	Store      Store
	VisitOrder int
}

// Course is a persisted course with its stops ordered by visit order.
type Course struct {
	ID          uuid.UUID    `json:"courseId"`
	OwnerID     uuid.UUID    `json:"ownerId"`
	Name        string       `json:"courseName"`
	Description string       `json:"description"`
	StoreCount  int          `json:"storeCount"`
	Stops       []CourseStop `json:"stores"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type CourseStop struct {
	StoreID    uuid.UUID `json:"storeId"`
	Sno        string    `json:"sno"`
	StoreName  string    `json:"storeName"`
	Area       string    `json:"area"`
	Address    string    `json:"address"`
	Menu       string    `json:"smenu"`
	Time       string    `json:"time"`
	Tel        string    `json:"tel"`
	ImageURL   *string   `json:"storeImage,omitempty"`
	Latitude   *string   `json:"lat"`
	Longitude  *string   `json:"lng"`
	VisitOrder int       `json:"visitOrder"`
}

// CourseSummary is a course in the owner's list. Positions are the distinct
// areas its stops are in.
type CourseSummary struct {
	ID          uuid.UUID `json:"courseId"`
	Name        string    `json:"courseName"`
	Description string    `json:"description"`
	StoreCount  int       `json:"storeCount"`
	Positions   []string  `json:"positions"`
	CreatedAt   time.Time `json:"createdAt"`
}
