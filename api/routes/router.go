package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/minhvu-dev/courseloop-backend/api/controllers"
	webhookcontrollers "github.com/minhvu-dev/courseloop-backend/api/controllers/webhooks"
	"github.com/minhvu-dev/courseloop-backend/api/middleware"
	"github.com/minhvu-dev/courseloop-backend/internal/courses"
	"github.com/minhvu-dev/courseloop-backend/internal/enrollments"
	"github.com/minhvu-dev/courseloop-backend/internal/learning"
	momowebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/momo"
	vnpaywebhook "github.com/minhvu-dev/courseloop-backend/internal/webhooks/vnpay"
	"github.com/minhvu-dev/courseloop-backend/pkg/config"
	"github.com/minhvu-dev/courseloop-backend/pkg/db"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
	"github.com/minhvu-dev/courseloop-backend/pkg/redis"
)

type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	DBPinger        db.Pinger
	RedisClient     *redis.Client
	CoursesRepo     courses.Repository
	Enrollments     enrollments.Service
	Learning        learning.Service
	VNPayWebhook    *vnpaywebhook.Service
	MoMoWebhook     *momowebhook.Service
	MetricsGatherer prometheus.Gatherer
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	// Avoid typed-nil interfaces downstream when redis is not wired.
	var redisPinger redis.Pinger
	var idempotencyStore redis.IdempotencyStore
	if p.RedisClient != nil {
		redisPinger = p.RedisClient
		idempotencyStore = p.RedisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.URLs.FrontendBase),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, redisPinger))
	})

	if p.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	// Provider callbacks bypass auth, idempotency and the JSON envelope.
	r.Route("/payment", func(r chi.Router) {
		vnpayIPN := webhookcontrollers.VNPayIPN(p.VNPayWebhook, logg)
		r.Get("/vnpay/ipn", vnpayIPN)
		r.Post("/vnpay/ipn", vnpayIPN)
		r.Post("/momo/ipn", webhookcontrollers.MoMoIPN(p.MoMoWebhook, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/courses", controllers.CourseList(p.CoursesRepo, logg))
		r.Get("/courses/{courseId}", controllers.CourseDetail(p.CoursesRepo, logg))
		r.Get("/enrollment/order/{orderId}", controllers.EnrollmentByOrder(p.Enrollments, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Post("/courses/{courseId}/enroll", controllers.Enroll(p.Enrollments, logg))
			r.Get("/enrollments", controllers.MyEnrollments(p.Enrollments, logg))

			r.Route("/learning", func(r chi.Router) {
				r.Post("/lessons/{lessonId}/complete", controllers.LessonComplete(p.Learning, logg))
				r.Post("/lessons/{lessonId}/uncomplete", controllers.LessonUncomplete(p.Learning, logg))
				r.Get("/courses/{courseId}/progress", controllers.CourseProgress(p.Learning, logg))
			})
		})
	})

	return r
}
