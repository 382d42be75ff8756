package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saldoya/internal/db"
	"saldoya/internal/service"
)

func (s *Server) handleListRecharges(c *gin.Context) {
	requests, err := s.svc.ListRecharges(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recharges": requests})
}

func (s *Server) handleApproveRecharge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.ApproveRecharge(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleRejectRecharge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.RejectRecharge(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListWithdrawals(c *gin.Context) {
	requests, err := s.svc.ListWithdrawals(c.Request.Context(), c.Query("status"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": requests})
}

func (s *Server) handleApproveWithdrawal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.ApproveWithdrawal(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleRejectWithdrawal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.RejectWithdrawal(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type adjustBalanceRequest struct {
	Action      string  `json:"action"` // add, subtract, set
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (s *Server) handleAdjustBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req adjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := s.svc.AdjustBalance(c.Request.Context(), id, req.Action, req.Amount, req.Description); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleUserProducts(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	products, err := s.svc.UserProducts(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchasedProducts": products})
}

func (s *Server) handleDeleteUserProduct(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	if err := s.svc.DeleteUserProduct(c.Request.Context(), userID, productID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleCreateProduct(c *gin.Context) {
	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	product, err := s.svc.CreateProduct(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in service.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	product, err := s.svc.UpdateProduct(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s *Server) handleDeleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteProduct(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleListGiftCodes(c *gin.Context) {
	codes, err := s.svc.ListGiftCodes(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"giftCodes": codes})
}

type createGiftCodeRequest struct {
	Code             string  `json:"code"`
	Amount           float64 `json:"amount"`
	UsageLimit       int     `json:"usageLimit"`
	ExpiresInMinutes int     `json:"expiresInMinutes"`
}

func (s *Server) handleCreateGiftCode(c *gin.Context) {
	var req createGiftCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	code, err := s.svc.CreateGiftCode(c.Request.Context(), req.Code, req.Amount, req.UsageLimit, req.ExpiresInMinutes)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, code)
}

func (s *Server) handleDeleteGiftCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteGiftCode(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleGetWithdrawalSettings(c *gin.Context) {
	settings, err := s.svc.GetWithdrawalSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateWithdrawalSettings(c *gin.Context) {
	var in db.WithdrawalSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.UpdateWithdrawalSettings(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleGetReferralSettings(c *gin.Context) {
	settings, err := s.svc.GetReferralSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateReferralSettings(c *gin.Context) {
	var in db.ReferralSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.UpdateReferralSettings(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleGetSupportSettings(c *gin.Context) {
	settings, err := s.svc.GetSupportSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateSupportSettings(c *gin.Context) {
	var in db.SupportSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.UpdateSupportSettings(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleGetQRSettings(c *gin.Context) {
	settings, err := s.svc.GetQRSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateQRSettings(c *gin.Context) {
	var in db.QRSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.UpdateQRSettings(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleGetAnnouncement(c *gin.Context) {
	settings, err := s.svc.GetAnnouncement(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (s *Server) handleUpdateAnnouncement(c *gin.Context) {
	var in db.AnnouncementSettings
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.svc.UpdateAnnouncement(c.Request.Context(), in); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}
