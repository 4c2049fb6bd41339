package handlers

import (
	"errors"
	"net/http"
	"time"

	"logit-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetVehicles возвращает транспорт: перевозчик видит свой,
// менеджер видит весь парк
func GetVehicles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		tx := db.Model(&models.Vehicle{}).Preload("Owner").Preload("Documents")
		if role != "admin" && models.UserRole(role) != models.RoleManager {
			tx = tx.Where("owner_id = ?", telegramID)
		}
		if verified := c.Query("is_verified"); verified != "" {
			tx = tx.Where("is_verified = ?", verified == "true")
		}

		var vehicles []models.Vehicle
		if err := tx.Order("created_at DESC").Find(&vehicles).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить транспорт"})
			return
		}
		c.JSON(http.StatusOK, vehicles)
	}
}

// GetVehicle возвращает транспорт по ID
func GetVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var vehicle models.Vehicle
		if err := db.Preload("Owner").Preload("Documents").Preload("Availability").
			Preload("Inspections").First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

type vehicleBody struct {
	RegistrationNumber  string                 `json:"registration_number" binding:"required"`
	Brand               string                 `json:"brand"`
	Model               string                 `json:"model"`
	Year                *uint                  `json:"year"`
	BodyType            models.VehicleBodyType `json:"body_type"`
	Capacity            *float64               `json:"capacity"`
	Volume              *float64               `json:"volume"`
	Length              *float64               `json:"length"`
	Width               *float64               `json:"width"`
	Height              *float64               `json:"height"`
	LoadingType         models.LoadingType     `json:"loading_type"`
	HasGPS              bool                   `json:"has_gps"`
	HasRefrigerator     bool                   `json:"has_refrigerator"`
	HasHydroboard       bool                   `json:"has_hydroboard"`
	RegistrationCountry string                 `json:"registration_country"`
	LicenseNumber       string                 `json:"license_number"`
	HasADR              bool                   `json:"has_adr"`
	HasDozvol           bool                   `json:"has_dozvol"`
	HasTIR              bool                   `json:"has_tir"`
}

// isUniqueViolation распознает нарушение уникальности.
// Требует TranslateError в конфигурации gorm.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// CreateVehicle регистрирует транспорт перевозчика
func CreateVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body vehicleBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные транспорта"})
			return
		}

		vehicle := models.Vehicle{
			OwnerID:             telegramID,
			RegistrationNumber:  body.RegistrationNumber,
			Brand:               body.Brand,
			Model:               body.Model,
			Year:                body.Year,
			BodyType:            body.BodyType,
			Capacity:            body.Capacity,
			Volume:              body.Volume,
			Length:              body.Length,
			Width:               body.Width,
			Height:              body.Height,
			LoadingType:         body.LoadingType,
			HasGPS:              body.HasGPS,
			HasRefrigerator:     body.HasRefrigerator,
			HasHydroboard:       body.HasHydroboard,
			RegistrationCountry: body.RegistrationCountry,
			LicenseNumber:       body.LicenseNumber,
			HasADR:              body.HasADR,
			HasDozvol:           body.HasDozvol,
			HasTIR:              body.HasTIR,
			IsActive:            true,
		}
		if err := db.Create(&vehicle).Error; err != nil {
			if isUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Транспорт с таким номером уже зарегистрирован"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить транспорт"})
			return
		}
		c.JSON(http.StatusCreated, vehicle)
	}
}

// UpdateVehicle обновляет данные транспорта. Верификация при этом сбрасывается.
func UpdateVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}
		if vehicle.OwnerID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на редактирование транспорта"})
			return
		}

		var body vehicleBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные транспорта"})
			return
		}

		vehicle.RegistrationNumber = body.RegistrationNumber
		vehicle.Brand = body.Brand
		vehicle.Model = body.Model
		vehicle.Year = body.Year
		vehicle.BodyType = body.BodyType
		vehicle.Capacity = body.Capacity
		vehicle.Volume = body.Volume
		vehicle.Length = body.Length
		vehicle.Width = body.Width
		vehicle.Height = body.Height
		vehicle.LoadingType = body.LoadingType
		vehicle.HasGPS = body.HasGPS
		vehicle.HasRefrigerator = body.HasRefrigerator
		vehicle.HasHydroboard = body.HasHydroboard
		vehicle.RegistrationCountry = body.RegistrationCountry
		vehicle.LicenseNumber = body.LicenseNumber
		vehicle.HasADR = body.HasADR
		vehicle.HasDozvol = body.HasDozvol
		vehicle.HasTIR = body.HasTIR
		vehicle.IsVerified = false
		vehicle.VerifiedByID = nil
		vehicle.VerifiedAt = nil

		if err := db.Save(&vehicle).Error; err != nil {
			if isUniqueViolation(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "Транспорт с таким номером уже зарегистрирован"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить транспорт"})
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

// DeleteVehicle деактивирует транспорт
func DeleteVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}
		if vehicle.OwnerID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на удаление транспорта"})
			return
		}

		if err := db.Model(&vehicle).Update("is_active", false).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить транспорт"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Транспорт удален"})
	}
}

// VerifyVehicle отмечает транспорт проверенным. Только для менеджеров.
func VerifyVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		managerID := c.GetString("telegram_id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}

		now := time.Now()
		updates := map[string]interface{}{
			"is_verified": true,
			"verified_at": &now,
		}
		if managerID != "" {
			updates["verified_by_id"] = managerID
		}
		if err := db.Model(&vehicle).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить транспорт"})
			return
		}
		c.JSON(http.StatusOK, vehicle)
	}
}

type vehicleDocumentBody struct {
	Type       models.VehicleDocumentType `json:"type" binding:"required"`
	File       string                     `json:"file" binding:"required"`
	Number     string                     `json:"number"`
	IssueDate  *time.Time                 `json:"issue_date" time_format:"2006-01-02"`
	ExpiryDate *time.Time                 `json:"expiry_date" time_format:"2006-01-02"`
}

// CreateVehicleDocument прикрепляет документ к транспорту
func CreateVehicleDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}
		if vehicle.OwnerID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на добавление документов"})
			return
		}

		var body vehicleDocumentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные документа"})
			return
		}

		doc := models.VehicleDocument{
			VehicleID:  vehicle.ID,
			Type:       body.Type,
			File:       body.File,
			Number:     body.Number,
			IssueDate:  body.IssueDate,
			ExpiryDate: body.ExpiryDate,
		}
		if err := db.Create(&doc).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить документ"})
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

type availabilityBody struct {
	Location string    `json:"location" binding:"required"`
	DateFrom time.Time `json:"date_from" binding:"required" time_format:"2006-01-02"`
	DateTo   time.Time `json:"date_to" binding:"required" time_format:"2006-01-02"`
	Notes    string    `json:"notes"`
}

// CreateVehicleAvailability добавляет окно доступности транспорта
func CreateVehicleAvailability(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}
		if vehicle.OwnerID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав"})
			return
		}

		var body availabilityBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные"})
			return
		}
		if body.DateTo.Before(body.DateFrom) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Дата окончания раньше даты начала"})
			return
		}

		availability := models.VehicleAvailability{
			VehicleID: vehicle.ID,
			Location:  body.Location,
			DateFrom:  body.DateFrom,
			DateTo:    body.DateTo,
			Notes:     body.Notes,
		}
		if err := db.Create(&availability).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить"})
			return
		}
		c.JSON(http.StatusCreated, availability)
	}
}

// GetVehicleInspections возвращает историю техосмотров транспорта
func GetVehicleInspections(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}

		var inspections []models.VehicleInspection
		if err := db.Where("vehicle_id = ?", vehicle.ID).
			Order("inspection_date DESC").Find(&inspections).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить техосмотры"})
			return
		}
		c.JSON(http.StatusOK, inspections)
	}
}

type inspectionBody struct {
	InspectionDate time.Time  `json:"inspection_date" binding:"required" time_format:"2006-01-02"`
	NextDate       *time.Time `json:"next_date" time_format:"2006-01-02"`
	Passed         bool       `json:"passed"`
	Notes          string     `json:"notes"`
}

// CreateVehicleInspection добавляет запись техосмотра
func CreateVehicleInspection(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var vehicle models.Vehicle
		if err := db.First(&vehicle, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Транспорт не найден"})
			return
		}
		if vehicle.OwnerID != telegramID && c.GetString("role") != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав"})
			return
		}

		var body inspectionBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные"})
			return
		}

		inspection := models.VehicleInspection{
			VehicleID:      vehicle.ID,
			InspectionDate: body.InspectionDate,
			NextDate:       body.NextDate,
			Passed:         body.Passed,
			Notes:          body.Notes,
		}
		if err := db.Create(&inspection).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить"})
			return
		}
		c.JSON(http.StatusCreated, inspection)
	}
}
