package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saldoya/internal/db"
	"saldoya/internal/events"
	"saldoya/internal/service"
)

// Server holds the HTTP surface of the platform.
type Server struct {
	svc    *service.Service
	events *events.Publisher
}

func NewServer(svc *service.Service, ev *events.Publisher) *Server {
	return &Server{svc: svc, events: ev}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Public.
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.GET("/announcement", s.handleAnnouncement)
	api.GET("/support", s.handleSupport)

	// Authenticated users.
	auth := api.Group("", s.authRequired())
	auth.POST("/logout", s.handleLogout)
	auth.GET("/me", s.handleDashboard)
	auth.GET("/me/stream", s.handleStream)
	auth.GET("/me/transactions", s.handleTransactions)
	auth.GET("/me/referrals", s.handleReferrals)
	auth.PUT("/me/withdrawal-info", s.handleSetWithdrawalInfo)

	auth.GET("/products", s.handleListProducts)
	auth.POST("/purchases", s.handlePurchase)

	auth.POST("/recharges", s.handleStartRecharge)
	auth.GET("/recharges/:reference", s.handleStagedRecharge)
	auth.POST("/recharges/:reference/confirm", s.handleConfirmRecharge)
	auth.GET("/recharge-info", s.handleRechargeInfo)

	auth.POST("/withdrawals", s.handleRequestWithdrawal)
	auth.GET("/withdrawals", s.handleUserWithdrawals)
	auth.GET("/withdrawal-settings", s.handleWithdrawalSettings)

	auth.POST("/gift-codes/redeem", s.handleRedeemGiftCode)

	// Admin console. Support staff get the read-only queues, admins the rest.
	queues := api.Group("/admin", s.authRequired(),
		roleRequired(db.RoleSupport, db.RoleAdmin, db.RoleSuperAdmin))
	queues.GET("/recharges", s.handleListRecharges)
	queues.GET("/withdrawals", s.handleListWithdrawals)
	queues.GET("/users", s.handleListUsers)

	admin := api.Group("/admin", s.authRequired(),
		roleRequired(db.RoleAdmin, db.RoleSuperAdmin))
	admin.POST("/recharges/:id/approve", s.handleApproveRecharge)
	admin.POST("/recharges/:id/reject", s.handleRejectRecharge)
	admin.POST("/withdrawals/:id/approve", s.handleApproveWithdrawal)
	admin.POST("/withdrawals/:id/reject", s.handleRejectWithdrawal)

	admin.POST("/users/:id/balance", s.handleAdjustBalance)
	admin.DELETE("/users/:id", s.handleDeleteUser)
	admin.GET("/users/:id/products", s.handleUserProducts)
	admin.DELETE("/users/:id/products/:productId", s.handleDeleteUserProduct)

	admin.POST("/products", s.handleCreateProduct)
	admin.PUT("/products/:id", s.handleUpdateProduct)
	admin.DELETE("/products/:id", s.handleDeleteProduct)

	admin.GET("/gift-codes", s.handleListGiftCodes)
	admin.POST("/gift-codes", s.handleCreateGiftCode)
	admin.DELETE("/gift-codes/:id", s.handleDeleteGiftCode)

	admin.GET("/settings/withdrawals", s.handleGetWithdrawalSettings)
	admin.PUT("/settings/withdrawals", s.handleUpdateWithdrawalSettings)
	admin.GET("/settings/referrals", s.handleGetReferralSettings)
	admin.PUT("/settings/referrals", s.handleUpdateReferralSettings)
	admin.GET("/settings/support", s.handleGetSupportSettings)
	admin.PUT("/settings/support", s.handleUpdateSupportSettings)
	admin.GET("/settings/qr", s.handleGetQRSettings)
	admin.PUT("/settings/qr", s.handleUpdateQRSettings)
	admin.GET("/settings/announcement", s.handleGetAnnouncement)
	admin.PUT("/settings/announcement", s.handleUpdateAnnouncement)

	return r
}
