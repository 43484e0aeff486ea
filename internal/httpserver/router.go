package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Deps carries the services the routes call into. Limiter may be nil, which
// disables rate limiting. Forwarded client addresses are only honoured from
// TrustedProxies; with none set the peer address is the client IP.
type Deps struct {
	CartSvc    cartService
	UserSvc    userService
	ProductSvc productService
	FacetSvc   facetService
	Limiter    limiter
	ClientURL  string

	TrustedProxies []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.CartSvc == nil || deps.UserSvc == nil || deps.ProductSvc == nil || deps.FacetSvc == nil {
		return nil, errors.New("httpserver: cart, user, product and facet services are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.MaxMultipartMemory = 16 << 20
	if err := router.SetTrustedProxies(deps.TrustedProxies); err != nil {
		return nil, fmt.Errorf("httpserver: trusted proxies: %w", err)
	}
	router.Use(requestLogger(logger), recovery(logger))
	if deps.ClientURL != "" {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     []string{deps.ClientURL},
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	router.NoRoute(func(c *gin.Context) {
		abortWithMessage(c, http.StatusNotFound, "Route not found")
	})

	router.GET("/", bannerHandler)
	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	authed := isAuthenticated(deps.UserSvc, logger)
	limited := func(c *gin.Context) { c.Next() }
	if deps.Limiter != nil {
		limited = rateLimit(deps.Limiter, logger)
	}

	api := router.Group("/api/v1")

	carts := &cartHandlers{svc: deps.CartSvc, logger: logger}
	cartGroup := api.Group("/cart", authed)
	cartGroup.GET("", carts.get)
	cartGroup.POST("/add", carts.add)
	cartGroup.PUT("/update", carts.update)
	cartGroup.DELETE("/remove", carts.remove)

	users := &userHandlers{svc: deps.UserSvc, logger: logger}
	userGroup := api.Group("/user")
	userGroup.POST("/register", users.register)
	userGroup.GET("/verify", users.verify)
	userGroup.POST("/reverify", limited, users.reverify)
	userGroup.POST("/login", limited, users.login)
	userGroup.POST("/logout", authed, users.logout)
	userGroup.POST("/forgot-password", limited, users.forgotPassword)
	userGroup.POST("/verify-otp/:email", limited, users.verifyOTP)
	userGroup.POST("/change-password/:email", limited, users.changePassword)
	userGroup.GET("/get-user/:userId", users.getUser)
	userGroup.GET("/all-user", authed, isAdmin, users.listUsers)
	userGroup.PUT("/update/:id", authed, users.updateProfile)

	products := &productHandlers{svc: deps.ProductSvc, facets: deps.FacetSvc, logger: logger}
	productGroup := api.Group("/product")
	productGroup.GET("/getallproducts", products.list)
	productGroup.GET("/categories", products.facetList)
	productGroup.GET("/:productId", products.get)
	productGroup.POST("/add", authed, isAdmin, products.create)
	productGroup.PUT("/update/:productId", authed, isAdmin, products.update)
	productGroup.DELETE("/delete/:productId", authed, isAdmin, products.delete)

	return router, nil
}
