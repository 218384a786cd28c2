// Package auth issues and verifies the tokens the engine's authentication
// precondition runs against.
package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"

	"thangd/globals"
	"thangd/middleware"
	"thangd/models"
	"thangd/rdx"
	"thangd/store"
	"thangd/utils"
)

const tokenTTL = 12 * time.Hour

type Handler struct {
	users store.UserStore
}

func NewHandler(users store.UserStore) *Handler {
	return &Handler{users: users}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Timezone string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" || input.Email == "" {
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	if _, err := h.users.ByUsername(r.Context(), input.Username); err == nil {
		http.Error(w, "User already exists", http.StatusConflict)
		return
	} else if err != store.ErrNotFound {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password for user %s: %v", input.Username, err)
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	if input.Timezone == "" {
		input.Timezone = "UTC"
	}
	user := models.User{
		UserID:        "u" + utils.GenerateRandomDigitString(10),
		Username:      input.Username,
		Email:         input.Email,
		PasswordHash:  string(hashed),
		Timezone:      input.Timezone,
		EmailVerified: true,
		CreatedAt:     time.Now(),
	}

	if err := rdx.RdxSet("users:"+user.UserID, user.Username); err != nil {
		log.Printf("Failed to cache username: %v", err)
	}

	if err := h.users.Insert(r.Context(), &user); err != nil {
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"userid": user.UserID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid input", http.StatusBadRequest)
		return
	}

	user, err := h.users.ByUsername(r.Context(), input.Username)
	if err != nil || user.Deleted {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	tokenString, err := issueToken(user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	user.LastLogin = time.Now()
	if err := h.users.Update(r.Context(), user); err != nil {
		log.Printf("Failed to record last login for %s: %v", user.UserID, err)
	}
	if err := rdx.RdxHset("tokki", user.UserID, tokenString); err != nil {
		log.Printf("Redis token storage failed: %v", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"token":  tokenString,
		"userid": user.UserID,
	})
}

func issueToken(user *models.User) (string, error) {
	claims := &middleware.Claims{
		Username:      user.Username,
		UserID:        user.UserID,
		EmailVerified: user.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(globals.JwtSecret)
}
