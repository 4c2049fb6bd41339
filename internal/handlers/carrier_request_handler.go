package handlers

import (
	"net/http"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func requestQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&models.CarrierRequest{}).
		Preload("Carrier").
		Preload("Vehicle").
		Preload("AssignedBy")
}

// GetCarrierRequests возвращает список заявок перевозчиков.
// Перевозчик видит только свои заявки, логисты и менеджеры видят все.
func GetCarrierRequests(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := models.UserRole(c.GetString("role"))

		tx := requestQuery(db)
		if role == models.RoleCarrier || role == models.RoleTransportCompany {
			tx = tx.Where("carrier_id = ?", telegramID)
		}

		if status := c.Query("status"); status != "" {
			tx = tx.Where("status = ?", status)
		}
		if from := c.Query("loading_point"); from != "" {
			tx = tx.Where("LOWER(loading_point) LIKE LOWER(?)", "%"+from+"%")
		}
		if to := c.Query("unloading_point"); to != "" {
			tx = tx.Where("LOWER(unloading_point) LIKE LOWER(?)", "%"+to+"%")
		}

		var requests []models.CarrierRequest
		if err := tx.Order("created_at DESC").Find(&requests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить заявки"})
			return
		}
		c.JSON(http.StatusOK, requests)
	}
}

// GetCarrierRequest возвращает заявку по ID
func GetCarrierRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.CarrierRequest
		if err := requestQuery(db).Preload("AssignedCargo").
			First(&request, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

type carrierRequestBody struct {
	VehicleID           *uint     `json:"vehicle_id"`
	LoadingPoint        string    `json:"loading_point" binding:"required"`
	UnloadingPoint      string    `json:"unloading_point" binding:"required"`
	LoadingLocationID   *uint     `json:"loading_location_id"`
	UnloadingLocationID *uint     `json:"unloading_location_id"`
	ReadyDate           time.Time `json:"ready_date" binding:"required" time_format:"2006-01-02"`
	VehicleCount        uint      `json:"vehicle_count"`
	PriceExpectation    *float64  `json:"price_expectation"`
	PaymentTerms        string    `json:"payment_terms"`
	Notes               string    `json:"notes"`
}

// CreateCarrierRequest создает заявку о свободном транспорте.
// Только для перевозчиков.
func CreateCarrierRequest(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body carrierRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные заявки"})
			return
		}

		if body.VehicleID != nil {
			var vehicle models.Vehicle
			if err := db.Where("id = ? AND owner_id = ?", *body.VehicleID, telegramID).
				First(&vehicle).Error; err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Транспорт не найден"})
				return
			}
		}

		vehicleCount := body.VehicleCount
		if vehicleCount == 0 {
			vehicleCount = 1
		}

		request := models.CarrierRequest{
			CarrierID:           telegramID,
			VehicleID:           body.VehicleID,
			LoadingPoint:        body.LoadingPoint,
			UnloadingPoint:      body.UnloadingPoint,
			LoadingLocationID:   body.LoadingLocationID,
			UnloadingLocationID: body.UnloadingLocationID,
			ReadyDate:           body.ReadyDate,
			VehicleCount:        vehicleCount,
			PriceExpectation:    body.PriceExpectation,
			PaymentTerms:        body.PaymentTerms,
			Notes:               body.Notes,
			Status:              models.CarrierRequestPending,
		}
		if err := db.Create(&request).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать заявку"})
			return
		}

		notifier.RequestCreated(&request)

		c.JSON(http.StatusCreated, request)
	}
}

// UpdateCarrierRequest обновляет свободную заявку. Назначенную заявку
// редактировать нельзя.
func UpdateCarrierRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var request models.CarrierRequest
		if err := db.First(&request, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}

		if request.CarrierID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на редактирование заявки"})
			return
		}
		if request.Status != models.CarrierRequestPending {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Редактировать можно только свободные заявки"})
			return
		}

		var body carrierRequestBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные заявки"})
			return
		}

		request.VehicleID = body.VehicleID
		request.LoadingPoint = body.LoadingPoint
		request.UnloadingPoint = body.UnloadingPoint
		request.LoadingLocationID = body.LoadingLocationID
		request.UnloadingLocationID = body.UnloadingLocationID
		request.ReadyDate = body.ReadyDate
		if body.VehicleCount > 0 {
			request.VehicleCount = body.VehicleCount
		}
		request.PriceExpectation = body.PriceExpectation
		request.PaymentTerms = body.PaymentTerms
		request.Notes = body.Notes

		if err := db.Save(&request).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить заявку"})
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

type requestStatusBody struct {
	Status models.CarrierRequestStatus `json:"status" binding:"required"`
}

// UpdateCarrierRequestStatus меняет статус заявки по таблице переходов.
// Назначение и подтверждение идут через операции груза, здесь доступны
// отмена и повторная активация.
func UpdateCarrierRequestStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		var request models.CarrierRequest
		if err := db.First(&request, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}

		isManager := role == "admin" || models.UserRole(role) == models.RoleManager
		if request.CarrierID != telegramID && !isManager {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на изменение заявки"})
			return
		}

		var body requestStatusBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан статус"})
			return
		}

		if err := request.ValidateStatusChange(body.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := map[string]interface{}{"status": body.Status}
		// Возврат в pending освобождает заявку от старого назначения
		if body.Status == models.CarrierRequestPending {
			updates["assigned_cargo_id"] = nil
			updates["assigned_by_id"] = nil
			updates["assigned_at"] = nil
		}
		if err := db.Model(&request).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить статус"})
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

// DeleteCarrierRequest удаляет свободную заявку перевозчика
func DeleteCarrierRequest(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var request models.CarrierRequest
		if err := db.First(&request, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}

		if request.CarrierID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на удаление заявки"})
			return
		}
		if request.Status == models.CarrierRequestAssigned || request.Status == models.CarrierRequestAccepted {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Нельзя удалить заявку с назначенным грузом"})
			return
		}

		if err := db.Delete(&request).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить заявку"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Заявка удалена"})
	}
}
