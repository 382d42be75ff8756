package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saldoya/internal/db"
)

type registerRequest struct {
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, token, err := s.svc.Register(c.Request.Context(), req.Phone, req.Password, req.ReferralCode)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, token, err := s.svc.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.svc.Logout(c.Request.Context(), currentToken(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleReferrals(c *gin.Context) {
	overview, err := s.svc.Referrals(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

type withdrawalInfoRequest struct {
	NequiAccount string `json:"nequiAccount"`
	FullName     string `json:"fullName"`
	IDNumber     string `json:"idNumber"`
}

func (s *Server) handleSetWithdrawalInfo(c *gin.Context) {
	var req withdrawalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	info := db.WithdrawalInfo{
		NequiAccount: req.NequiAccount,
		FullName:     req.FullName,
		IDNumber:     req.IDNumber,
	}
	if err := s.svc.SetWithdrawalInfo(c.Request.Context(), currentUser(c).ID, info); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
