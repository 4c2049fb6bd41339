package handlers

import (
	"net/http"

	"logit-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications возвращает уведомления текущего пользователя
func GetNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		tx := db.Where("user_id = ?", telegramID)
		if unread := c.Query("unread"); unread == "true" {
			tx = tx.Where("is_read = ?", false)
		}

		var notifications []models.Notification
		if err := tx.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить уведомления"})
			return
		}
		c.JSON(http.StatusOK, notifications)
	}
}

// MarkNotificationRead отмечает уведомление прочитанным
func MarkNotificationRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		result := db.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", c.Param("id"), telegramID).
			Update("is_read", true)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить уведомление"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Уведомление не найдено"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

// MarkAllNotificationsRead отмечает все уведомления пользователя прочитанными
func MarkAllNotificationsRead(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		if err := db.Model(&models.Notification{}).
			Where("user_id = ? AND is_read = ?", telegramID, false).
			Update("is_read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить уведомления"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

// DeleteAllNotifications удаляет все уведомления пользователя
func DeleteAllNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		if err := db.Where("user_id = ?", telegramID).
			Delete(&models.Notification{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить уведомления"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Уведомления удалены"})
	}
}

type favoriteBody struct {
	ContentType string `json:"content_type" binding:"required"`
	ObjectID    uint   `json:"object_id" binding:"required"`
}

// AddFavorite добавляет объект в избранное. Повторное добавление
// того же объекта не создает дубликат.
func AddFavorite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body favoriteBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные"})
			return
		}
		if body.ContentType != "cargo" && body.ContentType != "carrier_request" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый тип объекта"})
			return
		}

		favorite := models.Favorite{
			UserID:      telegramID,
			ContentType: body.ContentType,
			ObjectID:    body.ObjectID,
		}
		if err := db.Where(models.Favorite{
			UserID:      telegramID,
			ContentType: body.ContentType,
			ObjectID:    body.ObjectID,
		}).FirstOrCreate(&favorite).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось добавить в избранное"})
			return
		}
		c.JSON(http.StatusCreated, favorite)
	}
}

// GetFavorites возвращает избранное пользователя
func GetFavorites(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		tx := db.Where("user_id = ?", telegramID)
		if ct := c.Query("content_type"); ct != "" {
			tx = tx.Where("content_type = ?", ct)
		}

		var favorites []models.Favorite
		if err := tx.Order("created_at DESC").Find(&favorites).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить избранное"})
			return
		}
		c.JSON(http.StatusOK, favorites)
	}
}

// RemoveFavorite удаляет объект из избранного
func RemoveFavorite(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		result := db.Where("id = ? AND user_id = ?", c.Param("id"), telegramID).
			Delete(&models.Favorite{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Запись не найдена"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Удалено из избранного"})
	}
}

// ClearFavorites очищает избранное пользователя
func ClearFavorites(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		if err := db.Where("user_id = ?", telegramID).
			Delete(&models.Favorite{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось очистить избранное"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Избранное очищено"})
	}
}

type ratingBody struct {
	ToUserID string `json:"to_user_id" binding:"required"`
	CargoID  *uint  `json:"cargo_id"`
	Score    int    `json:"score" binding:"required"`
	Comment  string `json:"comment"`
}

// CreateRating сохраняет оценку пользователя. Средний рейтинг
// получателя пересчитывается автоматически.
func CreateRating(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body ratingBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные оценки"})
			return
		}
		if body.Score < 1 || body.Score > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Оценка должна быть от 1 до 5"})
			return
		}
		if body.ToUserID == telegramID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Нельзя оценить самого себя"})
			return
		}

		var target models.User
		if err := db.Where("telegram_id = ?", body.ToUserID).First(&target).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Пользователь не найден"})
			return
		}

		rating := models.Rating{
			FromUserID: telegramID,
			ToUserID:   body.ToUserID,
			CargoID:    body.CargoID,
			Score:      body.Score,
			Comment:    body.Comment,
		}
		if err := db.Create(&rating).Error; err != nil {
			if isUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Оценка уже поставлена"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить оценку"})
			return
		}
		c.JSON(http.StatusCreated, rating)
	}
}

// GetUserRatings возвращает оценки, полученные пользователем
func GetUserRatings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ratings []models.Rating
		if err := db.Preload("FromUser").
			Where("to_user_id = ?", c.Param("id")).
			Order("created_at DESC").Find(&ratings).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить оценки"})
			return
		}
		c.JSON(http.StatusOK, ratings)
	}
}

type searchFilterBody struct {
	Name        string `json:"name" binding:"required"`
	Filters     string `json:"filters" binding:"required"`
	NotifyOnNew bool   `json:"notify_on_new"`
}

// CreateSearchFilter сохраняет фильтр поиска пользователя
func CreateSearchFilter(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body searchFilterBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные фильтра"})
			return
		}

		filter := models.SearchFilter{
			UserID:      telegramID,
			Name:        body.Name,
			Filters:     body.Filters,
			NotifyOnNew: body.NotifyOnNew,
		}
		if err := db.Create(&filter).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить фильтр"})
			return
		}
		c.JSON(http.StatusCreated, filter)
	}
}

// GetSearchFilters возвращает сохраненные фильтры пользователя
func GetSearchFilters(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var filters []models.SearchFilter
		if err := db.Where("user_id = ?", telegramID).
			Order("created_at DESC").Find(&filters).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить фильтры"})
			return
		}
		c.JSON(http.StatusOK, filters)
	}
}

// ToggleSearchFilterNotifications переключает уведомления по фильтру
func ToggleSearchFilterNotifications(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var filter models.SearchFilter
		if err := db.Where("id = ? AND user_id = ?", c.Param("id"), telegramID).
			First(&filter).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Фильтр не найден"})
			return
		}

		filter.NotifyOnNew = !filter.NotifyOnNew
		if err := db.Model(&filter).Update("notify_on_new", filter.NotifyOnNew).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить фильтр"})
			return
		}
		c.JSON(http.StatusOK, filter)
	}
}

// DeleteSearchFilter удаляет сохраненный фильтр
func DeleteSearchFilter(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		result := db.Where("id = ? AND user_id = ?", c.Param("id"), telegramID).
			Delete(&models.SearchFilter{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить фильтр"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Фильтр не найден"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Фильтр удален"})
	}
}
