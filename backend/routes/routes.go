package routes

import (
	"log"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/controllers"
	_ "learnhub/backend/docs"
	"learnhub/backend/middleware"
	"learnhub/backend/services"
	"learnhub/backend/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, assets storage.AssetStore, logger *log.Logger) {
	courseService := services.NewCourseService(db, assets, logger)
	lessonService := services.NewLessonService(db, assets, logger)
	userService := services.NewUserService(db)

	app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Auth routes
	authController := controllers.NewAuthController(userService, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
	}), authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware()

	// Catalog routes
	overviewController := controllers.NewOverviewController(courseService, lessonService)
	progressController := controllers.NewProgressController(services.NewEnrollmentService(db))
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", overviewController.SearchCourses)
	courses.Get("/:id", overviewController.GetCourseDetails)
	courses.Post("/:id/register", progressController.RegisterCourse)

	myCourses := app.Group("/api/my-courses", authMiddleware)
	myCourses.Get("/", progressController.MyCourses)
	myCourses.Post("/:id/complete", progressController.CompleteCourse)

	admin := app.Group("/api/admin", authMiddleware, adminMiddleware)

	analyticsController := controllers.NewAnalyticsController(services.NewDashboardService(db))
	admin.Get("/dashboard", analyticsController.GetDashboard)

	// Admin routes for courses
	coursesController := controllers.NewCoursesController(courseService)
	lessonsController := controllers.NewLessonsController(lessonService)
	admin.Get("/courses", coursesController.ListCourses)
	admin.Post("/courses", coursesController.CreateCourse)
	admin.Get("/courses/:id", coursesController.GetCourse)
	admin.Put("/courses/:id", coursesController.UpdateCourse)
	admin.Delete("/courses/:id", coursesController.DeleteCourse)
	admin.Get("/courses/:id/lessons", lessonsController.ListLessons)
	admin.Post("/courses/:id/lessons", lessonsController.AddLesson)
	admin.Get("/courses/:id/lessons/next-order", lessonsController.NextOrder)
	admin.Put("/lessons/:id", lessonsController.UpdateLesson)
	admin.Delete("/lessons/:id", lessonsController.DeleteLesson)

	// Admin routes for users
	userController := controllers.NewUserController(userService)
	admin.Get("/users", userController.ListUsers)
	admin.Post("/users", userController.CreateUser)
	admin.Get("/users/:id", userController.GetUser)
	admin.Put("/users/:id", userController.UpdateUser)
	admin.Delete("/users/:id", userController.DeleteUser)
}
