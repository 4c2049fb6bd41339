package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type telegramAuthRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	User         models.UserResponse `json:"user"`
	IsNew        bool                `json:"is_new"`
}

// TelegramAuth авторизует пользователя по initData из Telegram WebApp.
// Если пользователь приходит впервые, создается запись без роли.
func TelegramAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req telegramAuthRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не переданы данные авторизации"})
			return
		}

		tgUser, err := utils.ValidateTelegramInitData(req.InitData, os.Getenv("BOT_TOKEN"), 24*time.Hour)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительные данные авторизации"})
			return
		}
		if tgUser.ID == 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительные данные авторизации"})
			return
		}

		telegramID := fmt.Sprintf("%d", tgUser.ID)

		var user models.User
		isNew := false
		err = db.Where("telegram_id = ?", telegramID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				TelegramID:   telegramID,
				FirstName:    tgUser.FirstName,
				LastName:     tgUser.LastName,
				Username:     tgUser.Username,
				LanguageCode: tgUser.LanguageCode,
				IsActive:     true,
			}
			if err := db.Create(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать пользователя"})
				return
			}
			isNew = true
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске пользователя"})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Аккаунт заблокирован"})
			return
		}

		now := time.Now()
		db.Model(&user).Update("last_login", now)

		access, err := utils.GenerateJWT(user.TelegramID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
			return
		}
		refresh, err := utils.GenerateRefreshJWT(user.TelegramID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
			return
		}

		c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			User:         user.ToResponse(),
			IsNew:        isNew,
		})
	}
}

type registerRequest struct {
	Role           models.UserRole `json:"role" binding:"required"`
	Type           models.UserType `json:"type"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	PhoneNumber    string          `json:"phone_number"`
	WhatsappNumber string          `json:"whatsapp_number"`
	CompanyName    string          `json:"company_name"`
	Position       string          `json:"position"`
}

var allowedRoles = map[models.UserRole]bool{
	models.RoleStudent:          true,
	models.RoleCarrier:          true,
	models.RoleCargoOwner:       true,
	models.RoleLogisticsCompany: true,
	models.RoleTransportCompany: true,
}

// Register завершает регистрацию: пользователь выбирает роль и заполняет профиль.
// Роли manager и logit-trans назначаются только администратором.
func Register(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные регистрации"})
			return
		}

		if !allowedRoles[req.Role] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимая роль"})
			return
		}

		var user models.User
		if err := db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}

		if user.Role != "" && user.Role != req.Role {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Роль уже выбрана"})
			return
		}

		user.Role = req.Role
		if req.Type != "" {
			user.Type = req.Type
		}
		if req.FirstName != "" {
			user.FirstName = req.FirstName
		}
		if req.LastName != "" {
			user.LastName = req.LastName
		}
		user.PhoneNumber = req.PhoneNumber
		user.WhatsappNumber = req.WhatsappNumber
		user.CompanyName = req.CompanyName
		user.Position = req.Position

		if err := db.Save(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить профиль"})
			return
		}

		// Токен перевыпускается с новой ролью
		access, err := utils.GenerateJWT(user.TelegramID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
			return
		}
		refresh, err := utils.GenerateRefreshJWT(user.TelegramID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
			return
		}

		c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			User:         user.ToResponse(),
		})
	}
}

// RefreshToken обменивает refresh-токен на новую пару токенов
func RefreshToken(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не передан refresh токен"})
			return
		}

		claims, err := utils.ValidateToken(req.RefreshToken)
		if err != nil || claims.TelegramID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Недействительный токен"})
			return
		}

		var user models.User
		if err := db.Where("telegram_id = ? AND is_active = ?", claims.TelegramID, true).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не найден"})
			return
		}

		access, err := utils.GenerateJWT(user.TelegramID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
			return
		}
		refresh, err := utils.GenerateRefreshJWT(user.TelegramID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
			return
		}

		c.JSON(http.StatusOK, tokenResponse{
			AccessToken:  access,
			RefreshToken: refresh,
			User:         user.ToResponse(),
		})
	}
}

// GetMe возвращает профиль текущего пользователя
func GetMe(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var user models.User
		if err := db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}

		c.JSON(http.StatusOK, user.ToResponse())
	}
}

type updateProfileRequest struct {
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	PhoneNumber       *string `json:"phone_number"`
	WhatsappNumber    *string `json:"whatsapp_number"`
	CompanyName       *string `json:"company_name"`
	Position          *string `json:"position"`
	PreferredLanguage *string `json:"preferred_language"`
}

// UpdateProfile обновляет переданные поля профиля
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные профиля"})
			return
		}

		var user models.User
		if err := db.Where("telegram_id = ?", telegramID).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}

		updates := map[string]interface{}{}
		if req.FirstName != nil {
			updates["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			updates["last_name"] = *req.LastName
		}
		if req.PhoneNumber != nil {
			updates["phone_number"] = *req.PhoneNumber
		}
		if req.WhatsappNumber != nil {
			updates["whatsapp_number"] = *req.WhatsappNumber
		}
		if req.CompanyName != nil {
			updates["company_name"] = *req.CompanyName
		}
		if req.Position != nil {
			updates["position"] = *req.Position
		}
		if req.PreferredLanguage != nil {
			updates["preferred_language"] = *req.PreferredLanguage
		}

		if len(updates) > 0 {
			if err := db.Model(&user).Updates(updates).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить профиль"})
				return
			}
		}

		c.JSON(http.StatusOK, user.ToResponse())
	}
}

// Logout фиксирует выход пользователя. Токены остаются валидны до
// истечения срока, клиент обязан удалить их на своей стороне.
func Logout(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		if telegramID != "" {
			db.Model(&models.User{}).Where("telegram_id = ?", telegramID).
				Update("last_login", time.Now())
		}
		c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
	}
}
