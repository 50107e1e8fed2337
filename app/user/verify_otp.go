package user

import (
	"errors"
	"net/http"

	"cobi/auth-api/internal"
	"cobi/auth-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type verifyOtpBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func UserVerifyOtp(c *gin.Context, d *internal.Deps) {
	requestID := c.MustGet("requestID").(string)

	var data verifyOtpBody
	if err := c.ShouldBind(&data); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid request body",
			"requestID": requestID,
		})

		zap.L().Debug("Can't bind request body", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	if data.Email == "" || data.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "Email and code are required",
			"requestID": requestID,
		})
		return
	}

	if err := d.Auth.VerifyCode(data.Email, data.Code); err != nil {
		var msg string

		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			msg = "User not found"
		case errors.Is(err, service.ErrNoCodeIssued):
			msg = "No OTP found for user"
		case errors.Is(err, service.ErrCodeMismatch):
			msg = "Invalid OTP"
		case errors.Is(err, service.ErrCodeExpired):
			msg = "OTP expired"
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":     "Internal server error",
				"requestID": requestID,
			})

			zap.L().Error("Failed to verify OTP", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.JSON(http.StatusBadRequest, gin.H{
			"message":   msg,
			"success":   false,
			"requestID": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "User verified successfully",
		"success":   true,
		"requestID": requestID,
	})
}
