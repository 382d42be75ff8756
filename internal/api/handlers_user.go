package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleDashboard(c *gin.Context) {
	dash, err := s.svc.Dashboard(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (s *Server) handleTransactions(c *gin.Context) {
	txs, err := s.svc.Transactions(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func (s *Server) handleAnnouncement(c *gin.Context) {
	ann, err := s.svc.GetAnnouncement(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ann)
}

func (s *Server) handleSupport(c *gin.Context) {
	sup, err := s.svc.GetSupportSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sup)
}

func (s *Server) handleListProducts(c *gin.Context) {
	products, err := s.svc.ListProducts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

type purchaseRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

func (s *Server) handlePurchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	bought, err := s.svc.Purchase(c.Request.Context(), currentUser(c).ID, req.ProductID, req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"purchasedProducts": bought})
}

type startRechargeRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleStartRecharge(c *gin.Context) {
	var req startRechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	staged, err := s.svc.StartRecharge(c.Request.Context(), currentUser(c).ID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, staged)
}

func (s *Server) handleStagedRecharge(c *gin.Context) {
	staged, err := s.svc.StagedRecharge(c.Request.Context(), currentUser(c).ID, c.Param("reference"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, staged)
}

type confirmRechargeRequest struct {
	PaymentReference string `json:"paymentReference"`
}

func (s *Server) handleConfirmRecharge(c *gin.Context) {
	var req confirmRechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	request, err := s.svc.ConfirmRecharge(c.Request.Context(), currentUser(c).ID,
		c.Param("reference"), req.PaymentReference)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

// handleRechargeInfo returns the payment QR users transfer to.
func (s *Server) handleRechargeInfo(c *gin.Context) {
	qr, err := s.svc.GetQRSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

type withdrawalRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) handleRequestWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	request, err := s.svc.RequestWithdrawal(c.Request.Context(), currentUser(c).ID, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, request)
}

func (s *Server) handleUserWithdrawals(c *gin.Context) {
	requests, err := s.svc.UserWithdrawals(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": requests})
}

func (s *Server) handleWithdrawalSettings(c *gin.Context) {
	settings, err := s.svc.GetWithdrawalSettings(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type redeemGiftCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeemGiftCode(c *gin.Context) {
	var req redeemGiftCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	amount, err := s.svc.RedeemGiftCode(c.Request.Context(), currentUser(c).ID, req.Code)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, fmt.Errorf("parámetro %q inválido", name))
		return 0, false
	}
	return uint(id), true
}
