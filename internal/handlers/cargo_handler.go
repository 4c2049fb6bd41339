package handlers

import (
	"net/http"
	"strconv"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/services"
	"logit-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func cargoQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Cargo{}).
		Preload("Owner").
		Preload("AssignedTo").
		Preload("LoadingLocation").
		Preload("UnloadingLocation")
}

// visibleCargos ограничивает выборку грузов по роли пользователя.
// Студентам на тарифе VIP дополнительно видны одобренные менеджером грузы.
func visibleCargos(db, tx *gorm.DB, telegramID, role string) *gorm.DB {
	switch models.UserRole(role) {
	case models.RoleManager:
		return tx
	case models.RoleLogitTrans:
		return tx.Where("status IN ? OR managed_by_id = ?", []models.CargoStatus{
			models.CargoStatusManagerApproved,
			models.CargoStatusPending,
			models.CargoStatusAssigned,
			models.CargoStatusInProgress,
		}, telegramID)
	case models.RoleStudent:
		statuses := []models.CargoStatus{
			models.CargoStatusPending,
			models.CargoStatusAssigned,
			models.CargoStatusInProgress,
		}
		var u models.User
		if err := db.Select("tariff").Where("telegram_id = ?", telegramID).
			First(&u).Error; err == nil && u.Tariff == models.TariffVIP {
			statuses = append(statuses, models.CargoStatusManagerApproved)
		}
		return tx.Where("status IN ? OR managed_by_id = ? OR owner_id = ?",
			statuses, telegramID, telegramID)
	case models.RoleCarrier, models.RoleTransportCompany:
		return tx.Where("status = ? OR assigned_to_id = ?", models.CargoStatusPending, telegramID)
	default:
		if role == "admin" {
			return tx
		}
		return tx.Where("owner_id = ?", telegramID)
	}
}

// GetCargos возвращает список грузов, доступных пользователю
func GetCargos(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		tx := visibleCargos(db, cargoQuery(db), telegramID, role)

		if status := c.Query("status"); status != "" {
			tx = tx.Where("status = ?", status)
		}
		if source := c.Query("source_type"); source != "" {
			tx = tx.Where("source_type = ?", source)
		}

		var cargos []models.Cargo
		if err := tx.Order("created_at DESC").Find(&cargos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить грузы"})
			return
		}
		c.JSON(http.StatusOK, cargos)
	}
}

// GetCargo возвращает груз по ID
func GetCargo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cargo models.Cargo
		if err := cargoQuery(db).Preload("Documents").Preload("StatusHistory").
			First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}
		c.JSON(http.StatusOK, cargo)
	}
}

type cargoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`

	Weight *float64 `json:"weight"`
	Length *float64 `json:"length"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`

	LoadingPoint        string `json:"loading_point" binding:"required"`
	UnloadingPoint      string `json:"unloading_point" binding:"required"`
	LoadingLocationID   *uint  `json:"loading_location_id"`
	UnloadingLocationID *uint  `json:"unloading_location_id"`
	AdditionalPoints    string `json:"additional_points"`

	LoadingDate time.Time `json:"loading_date" binding:"required" time_format:"2006-01-02"`
	IsConstant  bool      `json:"is_constant"`
	IsReady     bool      `json:"is_ready"`

	VehicleType models.VehicleBodyType `json:"vehicle_type"`
	LoadingType models.LoadingType     `json:"loading_type"`

	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	Price          *float64             `json:"price"`
	PaymentDetails string               `json:"payment_details"`
}

// initialCargoStatus выбирает начальный статус груза по роли создателя
func initialCargoStatus(role models.UserRole) models.CargoStatus {
	switch role {
	case models.RoleCargoOwner:
		return models.CargoStatusPendingApproval
	case models.RoleLogisticsCompany, models.RoleLogitTrans:
		return models.CargoStatusPending
	case models.RoleManager:
		return models.CargoStatusManagerApproved
	default:
		return models.CargoStatusDraft
	}
}

// CreateCargo создает груз. Начальный статус зависит от роли:
// грузы владельцев попадают на проверку менеджеру, грузы логистических
// компаний публикуются сразу, грузы менеджеров считаются одобренными.
func CreateCargo(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := models.UserRole(c.GetString("role"))

		var req cargoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные груза"})
			return
		}

		cargo := models.Cargo{
			Title:               req.Title,
			Description:         req.Description,
			Status:              initialCargoStatus(role),
			Weight:              req.Weight,
			Length:              req.Length,
			Width:               req.Width,
			Height:              req.Height,
			LoadingPoint:        req.LoadingPoint,
			UnloadingPoint:      req.UnloadingPoint,
			LoadingLocationID:   req.LoadingLocationID,
			UnloadingLocationID: req.UnloadingLocationID,
			AdditionalPoints:    req.AdditionalPoints,
			LoadingDate:         req.LoadingDate,
			IsConstant:          req.IsConstant,
			IsReady:             req.IsReady,
			VehicleType:         req.VehicleType,
			LoadingType:         req.LoadingType,
			PaymentMethod:       req.PaymentMethod,
			Price:               req.Price,
			PaymentDetails:      req.PaymentDetails,
			SourceType:          models.SourceManual,
		}
		if telegramID != "" {
			cargo.OwnerID = &telegramID
		}
		if role == models.RoleManager && telegramID != "" {
			cargo.ApprovedByID = &telegramID
		}

		if err := db.Create(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать груз"})
			return
		}

		recordStatusChange(db, &cargo, cargo.Status, telegramID, "Груз создан")
		notifier.CargoCreated(&cargo)

		c.JSON(http.StatusCreated, cargo)
	}
}

func recordStatusChange(db *gorm.DB, cargo *models.Cargo, status models.CargoStatus, actorID, comment string) {
	entry := models.CargoStatusHistory{
		CargoID: cargo.ID,
		Status:  status,
		Comment: comment,
	}
	if actorID != "" {
		entry.ChangedByID = &actorID
	}
	db.Create(&entry)
}

// canManageCargo проверяет, может ли пользователь редактировать груз
func canManageCargo(cargo *models.Cargo, telegramID, role string) bool {
	if role == "admin" || models.UserRole(role) == models.RoleManager {
		return true
	}
	if cargo.OwnerID != nil && *cargo.OwnerID == telegramID {
		return true
	}
	if cargo.ManagedByID != nil && *cargo.ManagedByID == telegramID {
		return true
	}
	return false
}

// UpdateCargo обновляет данные груза. Статус через этот обработчик не меняется.
func UpdateCargo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		if !canManageCargo(&cargo, telegramID, role) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на редактирование груза"})
			return
		}

		var req cargoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные груза"})
			return
		}

		cargo.Title = req.Title
		cargo.Description = req.Description
		cargo.Weight = req.Weight
		cargo.Length = req.Length
		cargo.Width = req.Width
		cargo.Height = req.Height
		cargo.LoadingPoint = req.LoadingPoint
		cargo.UnloadingPoint = req.UnloadingPoint
		cargo.LoadingLocationID = req.LoadingLocationID
		cargo.UnloadingLocationID = req.UnloadingLocationID
		cargo.AdditionalPoints = req.AdditionalPoints
		cargo.LoadingDate = req.LoadingDate
		cargo.IsConstant = req.IsConstant
		cargo.IsReady = req.IsReady
		cargo.VehicleType = req.VehicleType
		cargo.LoadingType = req.LoadingType
		cargo.PaymentMethod = req.PaymentMethod
		cargo.Price = req.Price
		cargo.PaymentDetails = req.PaymentDetails

		if err := db.Save(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить груз"})
			return
		}
		c.JSON(http.StatusOK, cargo)
	}
}

type statusChangeRequest struct {
	Status  models.CargoStatus `json:"status" binding:"required"`
	Comment string             `json:"comment"`
}

// UpdateCargoStatus меняет статус груза с проверкой таблицы переходов
// и роли инициатора
func UpdateCargoStatus(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		var req statusChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан статус"})
			return
		}

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		var actor *models.User
		if telegramID != "" {
			var u models.User
			if err := db.Where("telegram_id = ?", telegramID).First(&u).Error; err == nil {
				actor = &u
			}
		}

		isAssignedCarrier := cargo.AssignedToID != nil && *cargo.AssignedToID == telegramID
		if !canManageCargo(&cargo, telegramID, role) && !isAssignedCarrier {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на изменение статуса"})
			return
		}

		if err := cargo.ValidateStatusChange(req.Status, actor); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		previous := cargo.Status
		cargo.Status = req.Status
		if err := db.Save(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить статус"})
			return
		}

		recordStatusChange(db, &cargo, req.Status, telegramID, req.Comment)
		notifier.CargoStatusChanged(&cargo)

		if cargo.AssignedToID != nil {
			websocket.SendCargoStatusUpdate(*cargo.AssignedToID, cargo.ID, string(cargo.Status))
		}

		switch cargo.Status {
		case models.CargoStatusCompleted, models.CargoStatusCancelled:
			notifier.CargoFinished(&cargo)
			finishLinkedRequest(db, notifier, &cargo)
		case models.CargoStatusPending:
			if previous == models.CargoStatusDraft {
				notifier.CargoCreated(&cargo)
			}
		}

		c.JSON(http.StatusOK, cargo)
	}
}

// finishLinkedRequest завершает связанную заявку перевозчика при
// завершении или отмене груза
func finishLinkedRequest(db *gorm.DB, notifier *services.Notifier, cargo *models.Cargo) {
	var req models.CarrierRequest
	if err := db.Where("assigned_cargo_id = ? AND status = ?", cargo.ID, models.CarrierRequestAccepted).
		First(&req).Error; err != nil {
		return
	}

	next := models.CarrierRequestCompleted
	if cargo.Status == models.CargoStatusCancelled {
		next = models.CarrierRequestCancelled
	}
	db.Model(&req).Update("status", next)

	if next == models.CarrierRequestCompleted {
		notifier.RequestCompleted(&req, cargo)
	}
}

// DeleteCargo удаляет груз. Разрешено владельцу для черновиков
// и менеджеру для любого груза.
func DeleteCargo(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		isManager := role == "admin" || models.UserRole(role) == models.RoleManager
		isOwner := cargo.OwnerID != nil && *cargo.OwnerID == telegramID
		if !isManager {
			if !isOwner {
				c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на удаление груза"})
				return
			}
			if cargo.Status != models.CargoStatusDraft && cargo.Status != models.CargoStatusPendingApproval {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Удалять можно только неопубликованные грузы"})
				return
			}
		}

		if err := db.Delete(&cargo).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить груз"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Груз удален"})
	}
}

// expandLocationRadius возвращает ID локаций в радиусе от заданной.
// При нулевом радиусе остается только сама локация.
func expandLocationRadius(c *gin.Context, db *gorm.DB, locations *services.LocationService, locationID string, radiusKm float64) ([]uint, error) {
	var loc models.Location
	if err := db.First(&loc, locationID).Error; err != nil {
		return nil, err
	}
	ids := []uint{loc.ID}
	if radiusKm <= 0 || loc.Latitude == nil || loc.Longitude == nil {
		return ids, nil
	}

	nearby, err := locations.FindLocationsInRadius(c.Request.Context(), *loc.Latitude, *loc.Longitude, radiusKm)
	if err != nil {
		return nil, err
	}
	for _, n := range nearby {
		if n.Location.ID != loc.ID {
			ids = append(ids, n.Location.ID)
		}
	}
	return ids, nil
}

// SearchCargos ищет грузы по маршруту, датам и параметрам.
// Точки маршрута сопоставляются по подстроке без учета регистра,
// фильтр по локации может расширяться радиусом в километрах.
func SearchCargos(db *gorm.DB, locations *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		tx := visibleCargos(db, cargoQuery(db), telegramID, role)

		radiusKm := 0.0
		if raw := c.Query("radius"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный радиус"})
				return
			}
			radiusKm = parsed
		}
		if locID := c.Query("loading_location_id"); locID != "" {
			ids, err := expandLocationRadius(c, db, locations, locID, radiusKm)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Локация погрузки не найдена"})
				return
			}
			tx = tx.Where("loading_location_id IN ?", ids)
		}
		if locID := c.Query("unloading_location_id"); locID != "" {
			ids, err := expandLocationRadius(c, db, locations, locID, radiusKm)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Локация выгрузки не найдена"})
				return
			}
			tx = tx.Where("unloading_location_id IN ?", ids)
		}

		if q := c.Query("q"); q != "" {
			tx = tx.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", "%"+q+"%", "%"+q+"%")
		}
		if from := c.Query("loading_point"); from != "" {
			tx = tx.Where("LOWER(loading_point) LIKE LOWER(?)", "%"+from+"%")
		}
		if to := c.Query("unloading_point"); to != "" {
			tx = tx.Where("LOWER(unloading_point) LIKE LOWER(?)", "%"+to+"%")
		}
		if dateFrom := c.Query("date_from"); dateFrom != "" {
			tx = tx.Where("loading_date >= ?", dateFrom)
		}
		if dateTo := c.Query("date_to"); dateTo != "" {
			tx = tx.Where("loading_date <= ?", dateTo)
		}
		if weightMin := c.Query("weight_min"); weightMin != "" {
			tx = tx.Where("weight >= ?", weightMin)
		}
		if weightMax := c.Query("weight_max"); weightMax != "" {
			tx = tx.Where("weight <= ?", weightMax)
		}
		if vt := c.Query("vehicle_type"); vt != "" {
			tx = tx.Where("vehicle_type = ?", vt)
		}
		if pm := c.Query("payment_method"); pm != "" {
			tx = tx.Where("payment_method = ?", pm)
		}

		var cargos []models.Cargo
		if err := tx.Order("loading_date, created_at DESC").Find(&cargos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка поиска"})
			return
		}
		c.JSON(http.StatusOK, cargos)
	}
}

// GetCargoStatistics возвращает сводку по грузам, видимым пользователю:
// счетчики по статусам и срезы, зависящие от роли
func GetCargoStatistics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		visible := func() *gorm.DB {
			return visibleCargos(db, db.Model(&models.Cargo{}), telegramID, role)
		}
		count := func(tx *gorm.DB) int64 {
			var n int64
			tx.Count(&n)
			return n
		}

		stats := gin.H{
			"total_active":      count(visible().Where("status = ?", models.CargoStatusPending)),
			"total_in_progress": count(visible().Where("status = ?", models.CargoStatusInProgress)),
			"total_completed":   count(visible().Where("status = ?", models.CargoStatusCompleted)),
		}

		switch models.UserRole(role) {
		case models.RoleCarrier, models.RoleTransportCompany:
			stats["assigned_to_me"] = count(visible().Where("assigned_to_id = ?", telegramID))
			stats["completed_by_me"] = count(visible().
				Where("assigned_to_id = ? AND status = ?", telegramID, models.CargoStatusCompleted))
		case models.RoleStudent, models.RoleLogitTrans:
			stats["managed_by_me"] = count(visible().Where("managed_by_id = ?", telegramID))
			stats["pending_assignment"] = count(visible().
				Where("status = ? AND managed_by_id IS NULL", models.CargoStatusPending))
		case models.RoleCargoOwner, models.RoleLogisticsCompany:
			stats["my_active"] = count(visible().
				Where("owner_id = ? AND status IN ?", telegramID, []models.CargoStatus{
					models.CargoStatusPending,
					models.CargoStatusInProgress,
				}))
			stats["my_completed"] = count(visible().
				Where("owner_id = ? AND status = ?", telegramID, models.CargoStatusCompleted))
		}

		c.JSON(http.StatusOK, stats)
	}
}

// IncrementCargoViews увеличивает счетчик просмотров груза
func IncrementCargoViews(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Model(&models.Cargo{}).
			Where("id = ?", c.Param("id")).
			Update("views_count", gorm.Expr("views_count + 1"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить счетчик"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "ok"})
	}
}

type createCargoDocumentRequest struct {
	Type  models.CargoDocumentType `json:"type"`
	Title string                   `json:"title" binding:"required"`
	File  string                   `json:"file" binding:"required"`
	Notes string                   `json:"notes"`
}

// CreateCargoDocument прикрепляет документ к грузу
func CreateCargoDocument(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")
		role := c.GetString("role")

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		isCarrier := cargo.AssignedToID != nil && *cargo.AssignedToID == telegramID
		if !canManageCargo(&cargo, telegramID, role) && !isCarrier {
			c.JSON(http.StatusForbidden, gin.H{"error": "Нет прав на добавление документов"})
			return
		}

		var req createCargoDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные документа"})
			return
		}

		doc := models.CargoDocument{
			CargoID: cargo.ID,
			Type:    req.Type,
			Title:   req.Title,
			File:    req.File,
			Notes:   req.Notes,
		}
		if err := db.Create(&doc).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить документ"})
			return
		}
		c.JSON(http.StatusCreated, doc)
	}
}

// GetCargoDocuments возвращает документы груза
func GetCargoDocuments(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var docs []models.CargoDocument
		if err := db.Where("cargo_id = ?", c.Param("id")).
			Order("uploaded_at DESC").Find(&docs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить документы"})
			return
		}
		c.JSON(http.StatusOK, docs)
	}
}
