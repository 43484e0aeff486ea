package httpserver

import (
	"context"
	"net/http"

	"storefront/internal/domain"
	usersvc "storefront/internal/service/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type userService interface {
	authenticator
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
	Verify(ctx context.Context, token string) error
	Reverify(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string) (*usersvc.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, otp string) error
	ChangePassword(ctx context.Context, email, newPassword, confirmPassword string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.User, targetID string, in usersvc.ProfileInput, image *domain.Upload) (*domain.User, error)
}

type userHandlers struct {
	svc    userService
	logger *zap.Logger
}

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

type changePasswordRequest struct {
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (h *userHandlers) register(c *gin.Context) {
	var req usersvc.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "User registered successfully. Verification email sent.",
		"user":    toUserView(u),
	})
}

func (h *userHandlers) verify(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		abortWithMessage(c, http.StatusBadRequest, "Authorization token is missing or invalid")
		return
	}
	if err := h.svc.Verify(c.Request.Context(), token); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Email verified successfully"})
}

func (h *userHandlers) reverify(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.Reverify(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Verification email sent again successfully"})
}

func (h *userHandlers) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Welcome back " + res.User.FirstName,
		"user":         toUserView(res.User),
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
	})
}

func (h *userHandlers) logout(c *gin.Context) {
	u, _ := currentUser(c)
	if err := h.svc.Logout(c.Request.Context(), u.ID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

func (h *userHandlers) forgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent to email successfully"})
}

func (h *userHandlers) verifyOTP(c *gin.Context) {
	var req otpRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.VerifyOTP(c.Request.Context(), c.Param("email"), req.OTP); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP verified successfully"})
}

func (h *userHandlers) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), c.Param("email"), req.NewPassword, req.ConfirmPassword); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed successfully"})
}

func (h *userHandlers) getUser(c *gin.Context) {
	u, err := h.svc.GetByID(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": toUserView(u)})
}

func (h *userHandlers) listUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, toUserView(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": views})
}

func (h *userHandlers) updateProfile(c *gin.Context) {
	actor, _ := currentUser(c)

	uploads, done, err := formUploads(c, "file", 1)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer done()

	var image *domain.Upload
	if len(uploads) == 1 {
		image = &uploads[0]
	}
	in := usersvc.ProfileInput{
		FirstName:   c.PostForm("firstName"),
		LastName:    c.PostForm("lastName"),
		Address:     c.PostForm("address"),
		City:        c.PostForm("city"),
		ZipCode:     c.PostForm("zipCode"),
		PhoneNumber: c.PostForm("phoneNumber"),
		Role:        c.PostForm("role"),
	}

	u, err := h.svc.UpdateProfile(c.Request.Context(), *actor, c.Param("id"), in, image)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User updated successfully",
		"user":    toUserView(u),
	})
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
