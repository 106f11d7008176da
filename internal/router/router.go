package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/course"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/recommendation"
	"github.com/FACorreiaa/go-food-course-suggestions/internal/api/store"
)

// Config contains dependencies needed for the router setup
type Config struct {
	StoreHandler           *store.HandlerImpl
	CourseHandler          *course.HandlerImpl
	RecommendationHandler  *recommendation.HandlerImpl
	AuthenticateMiddleware func(http.Handler) http.Handler
	AllowedOrigins         []string
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Tokens are issued by the auth service; every route here needs one.
		r.Use(cfg.AuthenticateMiddleware)

		r.Route("/courses", func(r chi.Router) {
			r.Post("/recommendations", cfg.RecommendationHandler.RecommendCourse)
			r.Post("/", cfg.CourseHandler.CreateCourse)
			r.Get("/", cfg.CourseHandler.ListCourses)
			r.Get("/{courseID}", cfg.CourseHandler.GetCourse)
			r.Delete("/{courseID}", cfg.CourseHandler.DeleteCourse)
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/regions/{region}", cfg.StoreHandler.ListRegionStores)
			r.Get("/bookmarks", cfg.StoreHandler.ListBookmarks)
			r.Get("/{sno}", cfg.StoreHandler.GetStoreDetail)
			r.Post("/{sno}/bookmarks", cfg.StoreHandler.BookmarkStore)
			r.Delete("/{sno}/bookmarks", cfg.StoreHandler.RemoveBookmark)
		})
	})

	return r
}
