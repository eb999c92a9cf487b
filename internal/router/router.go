package router

import (
	"errors"
	"log"
	"net/http"

	"cloud.google.com/go/firestore"
	"firebase.google.com/go/v4/messaging"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/kissangram/engagement/internal/handlers"
	"github.com/kissangram/engagement/internal/middleware"
	"github.com/kissangram/engagement/internal/push"
	"github.com/kissangram/engagement/internal/reconcile"
	"github.com/kissangram/engagement/internal/repositories"
	"github.com/kissangram/engagement/internal/store"
	"github.com/kissangram/engagement/pkg/config"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, fsClient *firestore.Client, msgClient *messaging.Client) {
	// Health check - always accessible
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "engagement-pipeline",
		})
	})

	// --- Initialize store and repositories ---
	st := store.NewFirestoreStore(fsClient)
	postRepo := repositories.NewPostRepository(st)
	userRepo := repositories.NewUserRepository(st)
	followRepo := repositories.NewFollowRepository(st)
	feedRepo := repositories.NewFeedRepository(st, cfg.FanoutCommitConcurrency)
	notificationRepo := repositories.NewNotificationRepository(st)

	// --- Event handlers ---
	notifier := handlers.NewNotifier(notificationRepo, userRepo, push.NewFCMSender(msgClient))
	fanoutHandler := handlers.NewFanoutHandler(userRepo, followRepo, feedRepo)
	likeHandler := handlers.NewLikeHandler(postRepo, notifier)
	commentHandler := handlers.NewCommentHandler(postRepo, notifier)

	// --- Trigger delivery endpoint ---
	triggers := e.Group("/triggers")
	admin := e.Group("/admin")
	if cfg.TriggerAudience != "" {
		authMiddleware := middleware.TriggerAuthMiddleware(cfg.TriggerAudience)
		triggers.Use(authMiddleware)
		admin.Use(authMiddleware)
		log.Println("OIDC authentication middleware applied to trigger and admin groups.")
	} else {
		log.Println("TRIGGER_AUDIENCE not set, trigger endpoints are unauthenticated.")
	}

	d := newDispatcher(fanoutHandler, likeHandler, commentHandler)
	triggers.POST("/firestore", d.HandleDelivery)
	log.Println("Trigger routes configured.")

	// --- Admin routes ---
	reconciler := reconcile.NewReconciler(st)
	admin.POST("/posts/:post_id/reconcile", func(c echo.Context) error {
		result, err := reconciler.RecountPost(c.Request().Context(), c.Param("post_id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "Post not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, result)
	})
	log.Println("Admin routes configured.")
}
