package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deckvault/deckvault/pkg/collection"
)

// Run boots the HTTP surface and blocks until ctx is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg Config, service *collection.Service, logger *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	handler := &httpHandler{
		logger:  logger,
		service: service,
		cfg:     cfg,
	}

	router := SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("deckvault listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// SetupRouter wires every route onto a fresh gin engine.
func SetupRouter(cfg Config, handler *httpHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(bearerAuth([]byte(cfg.SigningKey), cfg.TokenIssuer))

	api.POST("/inventory", handler.handleAddInventory)
	api.GET("/inventory", handler.handleListInventory)
	api.PUT("/inventory/:id", handler.handleUpdateInventory)
	api.POST("/inventory/:id/adjust", handler.handleAdjustInventory)
	api.POST("/inventory/:id/move", handler.handleMoveInventory)
	api.POST("/inventory/:id/sell", handler.handleSellCard)
	api.POST("/inventory/trash/purge", handler.handlePurgeTrash)
	api.GET("/folders", handler.handleFolderSummaries)

	api.POST("/decks", handler.handleCreateDeck)
	api.PUT("/decks/:id", handler.handleRenameDeck)
	api.DELETE("/decks/:id", handler.handleDeleteDeck)
	api.PUT("/decks/:id/slots", handler.handleSetDeckSlots)
	api.POST("/decks/:id/add-card", handler.handleAddCard)
	api.DELETE("/decks/:id/remove-card", handler.handleRemoveCard)
	api.POST("/decks/:id/auto-fill", handler.handleAutoFill)
	api.POST("/decks/:id/auto-fill-slot", handler.handleAutoFillSlot)
	api.POST("/decks/:id/reoptimize", handler.handleReoptimize)
	api.POST("/decks/:id/release", handler.handleRelease)
	api.POST("/decks/:id/sell", handler.handleSellDeck)
	api.POST("/decks/:id/move-card", handler.handleMoveCard)
	api.GET("/decks/:id/details", handler.handleDeckDetails)

	api.POST("/sales", handler.handleRecordSale)
	api.GET("/sales", handler.handleListSales)

	return router
}

// NewHandler builds the handler used by SetupRouter. Exposed for tests.
func NewHandler(cfg Config, service *collection.Service, logger *zap.Logger) *httpHandler {
	return &httpHandler{logger: logger, service: service, cfg: cfg}
}

type httpHandler struct {
	logger  *zap.Logger
	service *collection.Service
	cfg     Config
}

func (handler *httpHandler) owner(ctx *gin.Context) (collection.OwnerID, bool) {
	ownerID, err := collection.NewOwnerID(ownerFromContext(ctx))
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing owner"))
		return collection.OwnerID{}, false
	}
	return ownerID, true
}

func (handler *httpHandler) requestContext(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), handler.cfg.RequestTimeout)
}
