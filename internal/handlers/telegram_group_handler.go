package handlers

import (
	"net/http"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetTelegramGroups возвращает список отслеживаемых групп
func GetTelegramGroups(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var groups []models.TelegramGroup
		if err := db.Order("created_at DESC").Find(&groups).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить группы"})
			return
		}
		c.JSON(http.StatusOK, groups)
	}
}

type telegramGroupBody struct {
	ChatID string `json:"chat_id" binding:"required"`
	Title  string `json:"title"`
}

// CreateTelegramGroup добавляет группу в список отслеживаемых
func CreateTelegramGroup(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body telegramGroupBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные группы"})
			return
		}

		group := models.TelegramGroup{
			ChatID:   body.ChatID,
			Title:    body.Title,
			IsActive: true,
		}
		if err := db.Create(&group).Error; err != nil {
			if isUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Группа уже добавлена"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить группу"})
			return
		}
		c.JSON(http.StatusCreated, group)
	}
}

// SyncTelegramGroups обновляет названия отслеживаемых групп по данным Telegram
func SyncTelegramGroups(db *gorm.DB, telegram *services.TelegramService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if telegram == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Telegram бот не настроен"})
			return
		}

		var groups []models.TelegramGroup
		if err := db.Where("is_active = ?", true).Find(&groups).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить группы"})
			return
		}

		synced := 0
		failed := 0
		for i := range groups {
			group := &groups[i]
			title, err := telegram.ChatTitle(c.Request.Context(), group.ChatID)
			if err != nil {
				failed++
				continue
			}
			if title != "" && title != group.Title {
				db.Model(group).Update("title", title)
			}
			synced++
		}

		c.JSON(http.StatusOK, gin.H{
			"total":  len(groups),
			"synced": synced,
			"failed": failed,
		})
	}
}

type telegramMessageBody struct {
	MessageID string `json:"message_id" binding:"required"`
	Sender    string `json:"sender"`
	Text      string `json:"text" binding:"required"`
}

// CreateTelegramMessage сохраняет сообщение из группы для последующего разбора
func CreateTelegramMessage(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var group models.TelegramGroup
		if err := db.First(&group, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Группа не найдена"})
			return
		}

		var body telegramMessageBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные сообщения"})
			return
		}

		message := models.TelegramMessage{
			GroupID:   group.ID,
			MessageID: body.MessageID,
			Sender:    body.Sender,
			Text:      body.Text,
		}
		if err := db.Create(&message).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить сообщение"})
			return
		}
		c.JSON(http.StatusCreated, message)
	}
}

type processMessageBody struct {
	Title          string    `json:"title" binding:"required"`
	LoadingPoint   string    `json:"loading_point" binding:"required"`
	UnloadingPoint string    `json:"unloading_point" binding:"required"`
	LoadingDate    time.Time `json:"loading_date" binding:"required" time_format:"2006-01-02"`
	Weight         *float64  `json:"weight"`
	Price          *float64  `json:"price"`
}

// ProcessTelegramMessage превращает разобранное сообщение в груз
// на проверке у менеджера
func ProcessTelegramMessage(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var message models.TelegramMessage
		if err := db.First(&message, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Сообщение не найдено"})
			return
		}
		if message.Processed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Сообщение уже обработано"})
			return
		}

		var body processMessageBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные груза"})
			return
		}

		cargo := models.Cargo{
			Title:          body.Title,
			Description:    message.Text,
			Status:         models.CargoStatusPendingApproval,
			LoadingPoint:   body.LoadingPoint,
			UnloadingPoint: body.UnloadingPoint,
			LoadingDate:    body.LoadingDate,
			Weight:         body.Weight,
			Price:          body.Price,
			SourceType:     models.SourceTelegram,
			SourceID:       message.MessageID,
		}
		if err := db.Create(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать груз"})
			return
		}

		db.Model(&message).Updates(map[string]interface{}{
			"processed": true,
			"cargo_id":  cargo.ID,
		})

		recordStatusChange(db, &cargo, cargo.Status, telegramID, "Создан из сообщения Telegram")
		notifier.CargoCreated(&cargo)

		c.JSON(http.StatusCreated, cargo)
	}
}

// GetUnprocessedMessages возвращает сообщения, ожидающие разбора
func GetUnprocessedMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var messages []models.TelegramMessage
		if err := db.Where("processed = ?", false).
			Order("created_at").Limit(100).Find(&messages).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить сообщения"})
			return
		}
		c.JSON(http.StatusOK, messages)
	}
}
