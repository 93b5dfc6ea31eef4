package api

import (
	"net/http"

	"parkease/internal/api/handler"
	"parkease/internal/api/middleware"
	"parkease/internal/domain"
	"parkease/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(
	as *service.AuthService,
	ps *service.ParkingService,
	bs *service.BookingService,
	ss *service.SearchService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	ownerHandler := handler.NewOwnerHandler(ps)
	customerHandler := handler.NewCustomerHandler(bs, ss)

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		ownerRoutes := v1.Group("/owner")
		ownerRoutes.Use(authMw.AuthorizeRole(domain.RoleOwner))
		{
			ownerRoutes.POST("/lots", ownerHandler.CreateLot)
			ownerRoutes.GET("/lots", ownerHandler.ListLots)
			ownerRoutes.GET("/lots/:id", ownerHandler.GetLot)
			ownerRoutes.PUT("/lots/:id", ownerHandler.UpdateLot)
			ownerRoutes.DELETE("/lots/:id", ownerHandler.DeleteLot)
			ownerRoutes.GET("/lots/:id/bookings", ownerHandler.ListLotBookings)
			ownerRoutes.GET("/lots/:id/analytics", ownerHandler.LotAnalytics)

			ownerRoutes.POST("/lots/:id/spots", ownerHandler.AddSpot)
			ownerRoutes.PUT("/spots/:spot_id", ownerHandler.UpdateSpot)
			ownerRoutes.DELETE("/spots/:spot_id", ownerHandler.DeleteSpot)
			ownerRoutes.GET("/spots/:spot_id/price-suggestion", ownerHandler.SuggestSpotPrice)
		}

		customerRoutes := v1.Group("/customer")
		customerRoutes.Use(authMw.AuthorizeRole(domain.RoleCustomer))
		{
			customerRoutes.GET("/lots/:id", customerHandler.BrowseLot)
			customerRoutes.POST("/search", customerHandler.Search)
			customerRoutes.POST("/bookings", customerHandler.BookSpot)
			customerRoutes.GET("/bookings", customerHandler.ListBookings)
		}

		// Route dùng chung cho cả customer và owner (owner override).
		v1.GET("/bookings/:id", customerHandler.GetBooking)
		v1.POST("/bookings/:id/end", customerHandler.EndBooking)
	}
	return r
}
