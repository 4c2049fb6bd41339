package handlers

import (
	"net/http"
	"time"

	"logit-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetUsers возвращает список пользователей с фильтрами по роли и верификации.
// Доступно только менеджерам.
func GetUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tx := db.Model(&models.User{})

		if role := c.Query("role"); role != "" {
			tx = tx.Where("role = ?", role)
		}
		if verified := c.Query("is_verified"); verified != "" {
			tx = tx.Where("is_verified = ?", verified == "true")
		}
		if active := c.Query("is_active"); active != "" {
			tx = tx.Where("is_active = ?", active == "true")
		}

		var users []models.User
		if err := tx.Order("date_joined DESC").Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить пользователей"})
			return
		}

		responses := make([]models.UserResponse, 0, len(users))
		for i := range users {
			responses = append(responses, users[i].ToResponse())
		}
		c.JSON(http.StatusOK, responses)
	}
}

// GetUser возвращает публичный профиль пользователя
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.User
		if err := db.Where("telegram_id = ?", c.Param("id")).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}
		c.JSON(http.StatusOK, user.ToResponse())
	}
}

type verifyUserRequest struct {
	Verified bool   `json:"verified"`
	Notes    string `json:"notes"`
}

// VerifyUser отмечает пользователя проверенным. Только для менеджеров.
func VerifyUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		managerID := c.GetString("telegram_id")

		var req verifyUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные"})
			return
		}

		var user models.User
		if err := db.Where("telegram_id = ?", c.Param("id")).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}

		now := time.Now()
		updates := map[string]interface{}{
			"is_verified":        req.Verified,
			"verification_date":  &now,
			"verification_notes": req.Notes,
		}
		if managerID != "" {
			updates["verified_by_id"] = managerID
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить пользователя"})
			return
		}

		c.JSON(http.StatusOK, user.ToResponse())
	}
}

type createUserDocumentRequest struct {
	Type  models.UserDocumentType `json:"type" binding:"required"`
	Title string                  `json:"title" binding:"required"`
	File  string                  `json:"file" binding:"required"`
	Notes string                  `json:"notes"`
}

// CreateUserDocument загружает документ текущего пользователя
func CreateUserDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var req createUserDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные документа"})
			return
		}

		doc := models.UserDocument{
			UserID: telegramID,
			Type:   req.Type,
			Title:  req.Title,
			File:   req.File,
			Notes:  req.Notes,
		}
		if err := db.Create(&doc).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить документ"})
			return
		}

		c.JSON(http.StatusCreated, doc)
	}
}

// GetUserDocuments возвращает документы текущего пользователя
func GetUserDocuments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var docs []models.UserDocument
		if err := db.Where("user_id = ?", telegramID).Order("uploaded_at DESC").Find(&docs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить документы"})
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}

// VerifyUserDocument отмечает документ проверенным. Только для менеджеров.
func VerifyUserDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		managerID := c.GetString("telegram_id")

		var doc models.UserDocument
		if err := db.First(&doc, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Документ не найден"})
			return
		}

		var req verifyUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные"})
			return
		}

		now := time.Now()
		updates := map[string]interface{}{
			"verified":    req.Verified,
			"verified_at": &now,
			"notes":       req.Notes,
		}
		if managerID != "" {
			updates["verified_by_id"] = managerID
		}
		if err := db.Model(&doc).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить документ"})
			return
		}

		c.JSON(http.StatusOK, doc)
	}
}
