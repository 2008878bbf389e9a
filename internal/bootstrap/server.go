package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/MikeHotel0815/casa-belegung-app/api"
	"github.com/MikeHotel0815/casa-belegung-app/config"
	"github.com/MikeHotel0815/casa-belegung-app/internal/service/booking"
	"github.com/MikeHotel0815/casa-belegung-app/internal/service/users"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run starts the HTTP server and blocks until context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, bookingSvc booking.BookingUseCase, userSvc users.UserUseCase) error {
	router := NewRouter(cfg, logger, bookingSvc, userSvc)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, logger *slog.Logger, bookingSvc booking.BookingUseCase, userSvc users.UserUseCase) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestID(), api.StructuredLogger(logger), api.CORS())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Backend is healthy"})
	})

	authHandler := api.NewAuthHandler(userSvc)
	authHandler.Register(router.Group("/auth"))

	protected := router.Group("/api", api.Auth([]byte(cfg.Auth.JWTSecret)))

	bookingHandler := api.NewBookingHandler(bookingSvc)
	bookingHandler.Register(protected.Group("/bookings"))
	protected.GET("/availability", bookingHandler.Availability)

	calendarHandler := api.NewCalendarHandler(bookingSvc)
	protected.GET("/calendar/:year/:month", calendarHandler.Month)

	userHandler := api.NewUserHandler(userSvc)
	userHandler.Register(protected.Group("/users", api.AdminOnly()))

	if cfg.HTTP.SwaggerFile != "" {
		specRoute := "/swagger/" + filepath.Base(cfg.HTTP.SwaggerFile)
		router.StaticFile(specRoute, cfg.HTTP.SwaggerFile)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(specRoute))))
	}

	return router
}
