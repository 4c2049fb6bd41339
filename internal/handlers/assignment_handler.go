package handlers

import (
	"net/http"
	"strings"
	"time"

	"logit-backend/internal/models"
	"logit-backend/internal/services"
	"logit-backend/internal/websocket"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// pointsMatch сравнивает точки маршрута по подстроке без учета регистра
// в обе стороны
func pointsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// requestMatchesCargo проверяет совместимость заявки перевозчика с грузом:
// маршрут совпадает и транспорт готов не позже даты загрузки
func requestMatchesCargo(req *models.CarrierRequest, cargo *models.Cargo) bool {
	if !pointsMatch(req.LoadingPoint, cargo.LoadingPoint) {
		return false
	}
	if !pointsMatch(req.UnloadingPoint, cargo.UnloadingPoint) {
		return false
	}
	return !req.ReadyDate.After(cargo.LoadingDate)
}

// GetMatchingCarriers возвращает свободные заявки перевозчиков,
// подходящие грузу по маршруту и дате
func GetMatchingCarriers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		var requests []models.CarrierRequest
		if err := db.Preload("Carrier").Preload("Vehicle").
			Where("status = ? AND assigned_cargo_id IS NULL", models.CarrierRequestPending).
			Find(&requests).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить заявки"})
			return
		}

		matched := make([]models.CarrierRequest, 0)
		for i := range requests {
			if requestMatchesCargo(&requests[i], &cargo) {
				matched = append(matched, requests[i])
			}
		}
		c.JSON(http.StatusOK, matched)
	}
}

// GetMatchingCargos возвращает грузы, подходящие заявке перевозчика
func GetMatchingCargos(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CarrierRequest
		if err := db.First(&req, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}

		var cargos []models.Cargo
		if err := db.Preload("Owner").
			Where("status IN ?", []models.CargoStatus{
				models.CargoStatusManagerApproved,
				models.CargoStatusPending,
			}).
			Find(&cargos).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить грузы"})
			return
		}

		matched := make([]models.Cargo, 0)
		for i := range cargos {
			if requestMatchesCargo(&req, &cargos[i]) {
				matched = append(matched, cargos[i])
			}
		}
		c.JSON(http.StatusOK, matched)
	}
}

type assignCarrierRequest struct {
	RequestID uint `json:"request_id" binding:"required"`
}

// AssignCarrier связывает груз со свободной заявкой перевозчика.
// Заявка захватывается условным UPDATE, чтобы два логиста не могли
// назначить одну заявку одновременно.
func AssignCarrier(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body assignCarrierRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указана заявка перевозчика"})
			return
		}

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		if cargo.Status != models.CargoStatusPending && cargo.Status != models.CargoStatusManagerApproved {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Груз недоступен для назначения"})
			return
		}

		var request models.CarrierRequest
		if err := db.First(&request, body.RequestID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}

		now := time.Now()
		err := db.Transaction(func(tx *gorm.DB) error {
			// Захватываем заявку: только свободную и только в статусе pending
			result := tx.Model(&models.CarrierRequest{}).
				Where("id = ? AND status = ? AND assigned_cargo_id IS NULL",
					request.ID, models.CarrierRequestPending).
				Updates(map[string]interface{}{
					"status":            models.CarrierRequestAssigned,
					"assigned_cargo_id": cargo.ID,
					"assigned_by_id":    telegramID,
					"assigned_at":       &now,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrInvalidTransaction
			}

			return tx.Model(&models.Cargo{}).
				Where("id = ?", cargo.ID).
				Updates(map[string]interface{}{
					"status":         models.CargoStatusAssigned,
					"assigned_to_id": request.CarrierID,
					"managed_by_id":  telegramID,
				}).Error
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Заявка уже занята или недоступна"})
			return
		}

		if err := db.First(&cargo, cargo.ID).Error; err == nil {
			recordStatusChange(db, &cargo, models.CargoStatusAssigned, telegramID, "Назначен перевозчик")
			notifier.CargoAssigned(&cargo)
		}

		c.JSON(http.StatusOK, gin.H{"message": "Перевозчик назначен", "cargo": cargo})
	}
}

type acceptAssignmentRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

// AcceptAssignment обрабатывает ответ перевозчика на назначение.
// При подтверждении груз переходит в работу, при отказе возвращается
// в пул ожидающих, а заявка освобождается.
func AcceptAssignment(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		telegramID := c.GetString("telegram_id")

		var body acceptAssignmentRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные"})
			return
		}

		var cargo models.Cargo
		if err := db.First(&cargo, c.Param("id")).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Груз не найден"})
			return
		}

		if cargo.Status != models.CargoStatusAssigned {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Груз не ожидает подтверждения"})
			return
		}
		if cargo.AssignedToID == nil || *cargo.AssignedToID != telegramID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Груз назначен другому перевозчику"})
			return
		}

		var request models.CarrierRequest
		reqFound := db.Where("assigned_cargo_id = ? AND carrier_id = ? AND status = ?",
			cargo.ID, telegramID, models.CarrierRequestAssigned).
			First(&request).Error == nil

		if body.Accept {
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.Cargo{}).
					Where("id = ?", cargo.ID).
					Update("status", models.CargoStatusInProgress).Error; err != nil {
					return err
				}
				if reqFound {
					return tx.Model(&request).
						Update("status", models.CarrierRequestAccepted).Error
				}
				return nil
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось подтвердить назначение"})
				return
			}

			cargo.Status = models.CargoStatusInProgress
			recordStatusChange(db, &cargo, cargo.Status, telegramID, "Перевозчик подтвердил назначение")
			if reqFound {
				notifier.RequestAccepted(&request, &cargo)
			}
		} else {
			err := db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.Cargo{}).
					Where("id = ?", cargo.ID).
					Updates(map[string]interface{}{
						"status":         models.CargoStatusPending,
						"assigned_to_id": nil,
					}).Error; err != nil {
					return err
				}
				if reqFound {
					// Заявка освобождается и отмечается отклоненной
					return tx.Model(&request).
						Updates(map[string]interface{}{
							"status":            models.CarrierRequestRejected,
							"assigned_cargo_id": nil,
						}).Error
				}
				return nil
			})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось отклонить назначение"})
				return
			}

			cargo.Status = models.CargoStatusPending
			cargo.AssignedToID = nil
			recordStatusChange(db, &cargo, cargo.Status, telegramID, "Перевозчик отклонил назначение")
			if reqFound {
				notifier.RequestRejected(&request, &cargo, body.Reason)
			}
		}

		if request.AssignedByID != nil {
			websocket.SendRequestStatusUpdate(*request.AssignedByID, request.ID, string(request.Status))
		}

		c.JSON(http.StatusOK, cargo)
	}
}
