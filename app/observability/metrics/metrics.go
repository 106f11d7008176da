package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	RecommendationsTotal          metric.Int64Counter
	RecommendationDurationSeconds metric.Float64Histogram
	GeocodeFailuresTotal          metric.Int64Counter
	AIRequestDurationSeconds      metric.Float64Histogram
	AIResponseInvalidTotal        metric.Int64Counter
	CoursesCreatedTotal           metric.Int64Counter
	DbQueryErrorsTotal            metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("FoodCourse")
		var err error
		m := &AppMetrics{}

		m.RecommendationsTotal, err = meter.Int64Counter(
			"course_recommendations_total",
			metric.WithDescription("Total number of course recommendation requests by outcome"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create course_recommendations_total: %v", err)
		}

		m.RecommendationDurationSeconds, err = meter.Float64Histogram(
			"course_recommendation_duration_seconds",
			metric.WithDescription("End to end duration of course recommendations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create course_recommendation_duration_seconds: %v", err)
		}

		m.GeocodeFailuresTotal, err = meter.Int64Counter(
			"geocode_failures_total",
			metric.WithDescription("Records left without coordinates after geocoding"),
			metric.WithUnit("{record}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create geocode_failures_total: %v", err)
		}

		m.AIRequestDurationSeconds, err = meter.Float64Histogram(
			"ai_request_duration_seconds",
			metric.WithDescription("Duration of AI completion requests"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create ai_request_duration_seconds: %v", err)
		}

		m.AIResponseInvalidTotal, err = meter.Int64Counter(
			"ai_response_invalid_total",
			metric.WithDescription("AI responses rejected by the parser"),
			metric.WithUnit("{response}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create ai_response_invalid_total: %v", err)
		}

		m.CoursesCreatedTotal, err = meter.Int64Counter(
			"courses_created_total",
			metric.WithDescription("Courses persisted"),
			metric.WithUnit("{course}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create courses_created_total: %v", err)
		}

		m.DbQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initialising it against the current
// MeterProvider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
