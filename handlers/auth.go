package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/openshelf/backend/logger"
	"github.com/openshelf/backend/middleware"
	"github.com/openshelf/backend/models"
	"github.com/openshelf/backend/service"
	"github.com/openshelf/backend/store"
	"github.com/openshelf/backend/validator"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	loginTokenTTL  = 7 * 24 * time.Hour
	verifyTokenTTL = 48 * time.Hour
)

// verifyClaims is the short-lived token embedded in the verification link.
type verifyClaims struct {
	UserID  string `json:"userId"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

type AuthHandler struct {
	Users     store.UserStore
	Mailer    *service.Mailer
	Log       *logger.Logger
	JWTSecret string
	AppURL    string
	// Predefined credentials (from config); accepted while no account for
	// that email exists yet, so a fresh deployment can log in.
	DefaultEmail string
	DefaultPass  string
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// Register creates an unverified librarian account and mails the
// verification link.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}

	v := validator.New()
	v.Check(req.Email != "", "email", "The email is required.")
	if req.Email != "" {
		v.Check(validator.Matches(req.Email, validator.EmailRX), "email", "The email must be a valid email address.")
	}
	v.Check(len(req.Password) >= 8, "password", "The password must be at least 8 characters.")
	if !v.Valid() {
		validationFailed(w, v.Errors)
		return
	}

	existing, err := h.Users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Log.Error("user lookup", "err", err)
		errorJSON(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if existing != nil {
		errorJSON(w, http.StatusConflict, "this email is already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "registration failed")
		return
	}
	user := &models.User{
		Email:     req.Email,
		Password:  string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.Users.CreateUser(r.Context(), user); err != nil {
		h.Log.Error("user create", "err", err)
		errorJSON(w, http.StatusInternalServerError, "registration failed")
		return
	}

	if err := h.sendVerification(user); err != nil {
		// The account exists and the mail can be re-sent later, so log
		// rather than fail the request.
		h.Log.Error("verification mail", "err", err)
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "Account created. Check your email to verify your address.",
	})
}

func (h *AuthHandler) sendVerification(user *models.User) error {
	if h.Mailer == nil {
		h.Log.Warn("smtp not configured; verification mail skipped")
		return nil
	}
	claims := &verifyClaims{
		UserID:  user.ID.Hex(),
		Purpose: "verify-email",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(verifyTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.JWTSecret))
	if err != nil {
		return err
	}
	return h.Mailer.SendVerification(user.Email, h.AppURL+"/auth/verify?token="+token)
}

// Verify consumes the emailed token and marks the account verified.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		errorJSON(w, http.StatusBadRequest, "missing token")
		return
	}
	token, err := jwt.ParseWithClaims(raw, &verifyClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(h.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		errorJSON(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	claims, ok := token.Claims.(*verifyClaims)
	if !ok || claims.Purpose != "verify-email" {
		errorJSON(w, http.StatusBadRequest, "invalid token")
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid token")
		return
	}
	user, err := h.Users.UserByID(r.Context(), userID)
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid token")
		return
	}
	if err := h.Users.MarkUserVerified(r.Context(), user.ID); err != nil {
		h.Log.Error("mark verified", "err", err)
		errorJSON(w, http.StatusInternalServerError, "verification failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified. You can now manage the library.",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Email == "" || req.Password == "" {
		errorJSON(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.Users.UserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Log.Error("user lookup", "err", err)
		errorJSON(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil {
		// Bootstrap path: accept the predefined credentials and seed the
		// account so a fresh deployment has a working librarian login.
		if h.DefaultEmail == "" || req.Email != h.DefaultEmail || req.Password != h.DefaultPass {
			errorJSON(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		user, err = h.ensureDefaultUser(r)
		if err != nil {
			h.Log.Error("default user", "err", err)
			errorJSON(w, http.StatusInternalServerError, "login failed")
			return
		}
	} else if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		errorJSON(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.createToken(user)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "could not create token")
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, Email: user.Email, Verified: user.Verified})
}

func (h *AuthHandler) ensureDefaultUser(r *http.Request) (*models.User, error) {
	// Check again in case of a concurrent first login.
	user, err := h.Users.UserByEmail(r.Context(), h.DefaultEmail)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(h.DefaultPass), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	newUser := &models.User{
		Email:     h.DefaultEmail,
		Password:  string(hash),
		Verified:  true,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := h.Users.CreateUser(r.Context(), newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

func (h *AuthHandler) createToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		UserID:   user.ID.Hex(),
		Email:    user.Email,
		Verified: user.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(loginTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.JWTSecret))
}
