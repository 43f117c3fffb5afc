package server

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"campusshare.app/api/internal/config"
	"campusshare.app/api/internal/middleware"
	"campusshare.app/api/pkg/storage"

	favoriteHttp "campusshare.app/api/internal/modules/favorite/delivery/http"
	favoriteRepo "campusshare.app/api/internal/modules/favorite/repository"
	favoriteService "campusshare.app/api/internal/modules/favorite/service"

	groupHttp "campusshare.app/api/internal/modules/group/delivery/http"
	groupRepo "campusshare.app/api/internal/modules/group/repository"
	groupService "campusshare.app/api/internal/modules/group/service"

	listingHttp "campusshare.app/api/internal/modules/listing/delivery/http"
	listingRepo "campusshare.app/api/internal/modules/listing/repository"
	listingService "campusshare.app/api/internal/modules/listing/service"

	notifHttp "campusshare.app/api/internal/modules/notification/delivery/http"
	notifRepo "campusshare.app/api/internal/modules/notification/repository"
	notifService "campusshare.app/api/internal/modules/notification/service"

	proposalHttp "campusshare.app/api/internal/modules/proposal/delivery/http"
	proposalRepo "campusshare.app/api/internal/modules/proposal/repository"
	proposalService "campusshare.app/api/internal/modules/proposal/service"

	searchService "campusshare.app/api/internal/modules/search/service"

	statHttp "campusshare.app/api/internal/modules/stat/delivery/http"
	statService "campusshare.app/api/internal/modules/stat/service"

	uploadHttp "campusshare.app/api/internal/modules/upload/delivery/http"
	uploadService "campusshare.app/api/internal/modules/upload/service"

	userHttp "campusshare.app/api/internal/modules/user/delivery/http"
	userRepo "campusshare.app/api/internal/modules/user/repository"
	userService "campusshare.app/api/internal/modules/user/service"

	viewService "campusshare.app/api/internal/modules/view/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	users := userRepo.NewUserRepository(db)
	listings := listingRepo.NewRepository(db)
	favorites := favoriteRepo.NewFavoriteRepository(db)
	proposals := proposalRepo.NewProposalRepository(db)
	groups := groupRepo.NewGroupRepository(db)
	notifications := notifRepo.NewNotificationRepository(db)

	var searchSvc searchService.SearchService
	if cfg.MeiliSearchHost != "" {
		meiliClient := meilisearch.New(cfg.MeiliSearchHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		searchSvc = searchService.NewSearchService(meiliClient)
	} else {
		log.Println("MEILISEARCH_HOST not set, falling back to SQL search")
	}

	imageStorage, err := storage.NewCloudinaryStorage()
	if err != nil {
		log.Printf("cloudinary unavailable, image uploads disabled: %v", err)
		imageStorage = nil
	}

	authSvc := userService.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	profileSvc := userService.NewProfileService(users)
	userHandler := userHttp.NewUserHandler(profileSvc)

	notificationSvc := notifService.NewNotificationService(notifications, redisClient)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, checkWSOrigin(cfg.AllowedOrigins))

	viewSvc := viewService.NewViewService(redisClient, listings)
	if redisClient != nil {
		go viewSvc.StartViewSyncWorker(context.Background())
	}

	listingSvc := listingService.NewService(listings, favorites, searchSvc, viewSvc, redisClient, cfg.RateLimitListing)
	listingHandler := listingHttp.NewListingHandler(listingSvc)

	proposalSvc := proposalService.NewService(proposals, listings, users, notificationSvc, redisClient, cfg.RateLimitProposal)
	proposalHandler := proposalHttp.NewProposalHandler(proposalSvc)

	groupSvc := groupService.NewService(groups, searchSvc)
	groupHandler := groupHttp.NewGroupHandler(groupSvc)

	favoriteSvc := favoriteService.NewService(favorites, listings)
	favoriteHandler := favoriteHttp.NewFavoriteHandler(favoriteSvc)

	statSvc := statService.NewService(users, listings, proposals, groups)
	statHandler := statHttp.NewStatHandler(statSvc)

	uploadSvc := uploadService.NewService(imageStorage, cfg.CloudinaryUploadFolder)
	uploadHandler := uploadHttp.NewUploadHandler(uploadSvc)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api.GET("/listings", listingHandler.GetAll)
	api.GET("/listings/trending", listingHandler.GetTrending)
	api.GET("/listings/:id", authMiddleware.OptionalAuth(), listingHandler.GetByID)
	api.GET("/groups", groupHandler.GetAll)
	api.GET("/groups/:id", groupHandler.GetByID)
	api.GET("/users/:id", userHandler.GetByID)
	api.GET("/stats/overview", statHandler.GetOverview)

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// User routes
		protected.GET("/users/me", userHandler.GetMe)
		protected.PUT("/users/me", userHandler.UpdateMe)

		// Listing routes
		protected.POST("/listings", listingHandler.Create)
		protected.GET("/listings/me", listingHandler.GetMine)
		protected.PUT("/listings/:id", listingHandler.Update)
		protected.DELETE("/listings/:id", listingHandler.Delete)
		protected.GET("/listings/:id/proposals", proposalHandler.GetByListing)

		// Proposal routes
		protected.POST("/proposals", proposalHandler.Create)
		protected.GET("/proposals/my-proposals", proposalHandler.GetMine)
		protected.GET("/proposals/received", proposalHandler.GetReceived)
		protected.GET("/proposals/:id", proposalHandler.GetByID)
		protected.PUT("/proposals/:id/status", proposalHandler.UpdateStatus)
		protected.DELETE("/proposals/:id", proposalHandler.Delete)

		// Study group routes
		protected.POST("/groups", groupHandler.Create)
		protected.GET("/groups/me/joined", groupHandler.GetMine)
		protected.PUT("/groups/:id", groupHandler.Update)
		protected.DELETE("/groups/:id", groupHandler.Delete)
		protected.POST("/groups/:id/join", groupHandler.Join)
		protected.POST("/groups/:id/leave", groupHandler.Leave)

		// Favorite routes
		protected.GET("/favorites", favoriteHandler.List)
		protected.POST("/favorites/:listingId", favoriteHandler.Add)
		protected.DELETE("/favorites/:listingId", favoriteHandler.Remove)
		protected.GET("/favorites/:listingId/status", favoriteHandler.Check)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetAll)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.GET("/notifications/ws", notificationHandler.Stream)

		// Upload routes
		protected.POST("/upload", uploadHandler.UploadImage)
		protected.DELETE("/upload", uploadHandler.DeleteImage)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	origins := splitOrigins(allowedOrigins)

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}

func splitOrigins(allowedOrigins string) []string {
	if allowedOrigins == "" {
		return []string{"http://localhost:3000"}
	}

	parts := strings.Split(allowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// checkWSOrigin validates WebSocket upgrade origins against the CORS
// allowlist. Requests without an Origin header (non-browser clients) pass.
func checkWSOrigin(allowedOrigins string) func(r *http.Request) bool {
	origins := splitOrigins(allowedOrigins)

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range origins {
			if allowed == "*" || strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}
