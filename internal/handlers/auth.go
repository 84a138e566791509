package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gittogether/api/internal/apperr"
	"gittogether/api/internal/models"
	"gittogether/api/internal/response"
	"gittogether/api/internal/security"
	"gittogether/api/internal/service"
	"gittogether/api/internal/validation"
)

const dateLayout = "2006-01-02"

type profileImageRequest struct {
	Key         string `json:"key" binding:"required,notblank,max=512"`
	ContentType string `json:"contentType" binding:"required,oneof=image/jpeg image/png"`
}

type signupRequest struct {
	FirstName    string               `json:"firstName" binding:"required,notblank,min=2,max=20"`
	LastName     string               `json:"lastName" binding:"required,notblank,max=20"`
	Email        string               `json:"email" binding:"required,email,max=254"`
	Password     string               `json:"password" binding:"required,strongpassword,max=128"`
	DateOfBirth  string               `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Gender       string               `json:"gender" binding:"omitempty,oneof=Man Woman Non-binary"`
	About        string               `json:"about" binding:"omitempty,max=500"`
	Skills       []string             `json:"skills" binding:"omitempty,max=20,dive,notblank,max=40"`
	ProfileImage *profileImageRequest `json:"profileImage"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, validation.ToAppError(err))
		return
	}

	input := service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Gender:    models.Gender(req.Gender),
		About:     req.About,
		Skills:    req.Skills,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, req.DateOfBirth)
		if err != nil {
			response.Error(c, h.log, apperr.Validation(apperr.CodeValidation, "Validation Error",
				apperr.FieldError{Field: "dateOfBirth", Message: "must be a date in YYYY-MM-DD format"}))
			return
		}
		input.DateOfBirth = &dob
	}
	if req.ProfileImage != nil {
		input.ImageKey = req.ProfileImage.Key
		input.ImageType = req.ProfileImage.ContentType
	}

	result, err := h.auth.Signup(c.Request.Context(), input)
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.OK(c, http.StatusCreated, "User created successfully", h.profile(c.Request.Context(), result.User))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, h.log, validation.ToAppError(err))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, h.log, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.ExpiresAt)
	response.OK(c, http.StatusOK, "User logged in successfully", h.profile(c.Request.Context(), result.User))
}

func (h HandlerSet) Logout(c *gin.Context) {
	h.setCookieMode(c)
	c.SetCookie(security.SessionCookie, "", -1, "/", "", h.cfg.Security.CookieSecure, true)
	response.OK(c, http.StatusOK, "Logged out successfully", nil)
}

func (h HandlerSet) ViewProfile(c *gin.Context) {
	user, ok := h.requireUser(c)
	if !ok {
		return
	}
	response.OK(c, http.StatusOK, "Profile Data", h.profile(c.Request.Context(), user))
}

func (h HandlerSet) setSessionCookie(c *gin.Context, token string, expires time.Time) {
	h.setCookieMode(c)
	maxAge := int(time.Until(expires).Seconds())
	c.SetCookie(security.SessionCookie, token, maxAge, "/", "", h.cfg.Security.CookieSecure, true)
}

// Cross-site frontends only get the cookie back with SameSite=None, which
// browsers accept on secure cookies only.
func (h HandlerSet) setCookieMode(c *gin.Context) {
	if h.cfg.Security.CookieSecure {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}
