package handlers

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"logit-backend/internal/middleware"
	"logit-backend/internal/models"
	"logit-backend/internal/services"
	"logit-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type externalCargoItem struct {
	ExternalID     string   `json:"external_id" binding:"required"`
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	LoadingPoint   string   `json:"loading_point" binding:"required"`
	UnloadingPoint string   `json:"unloading_point" binding:"required"`
	LoadingDate    string   `json:"loading_date" binding:"required"`
	Weight         *float64 `json:"weight"`
	Price          *float64 `json:"price"`
	VehicleType    string   `json:"vehicle_type"`
	PaymentMethod  string   `json:"payment_method"`
}

type externalCargoBatch struct {
	APIKey    string              `json:"api_key" binding:"required"`
	CreatedAt string              `json:"created_at" binding:"required"`
	Hash      string              `json:"hash" binding:"required"`
	Cargos    []externalCargoItem `json:"cargos" binding:"required"`
}

type externalItemResult struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	CargoID    uint   `json:"cargo_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// IngestExternalCargos принимает пакет грузов от внешней системы.
// Пакет подписан MD5(private_key + api_key + created_at); при неверной
// подписи отклоняется целиком, иначе грузы обрабатываются по одному
// и ошибки отдельных позиций не прерывают пакет.
func IngestExternalCargos(db *gorm.DB, notifier *services.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var batch externalCargoBatch
		if err := c.ShouldBindJSON(&batch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат пакета"})
			return
		}

		apiKey := os.Getenv("EXTERNAL_API_KEY")
		privateKey := os.Getenv("EXTERNAL_PRIVATE_KEY")
		if apiKey == "" || batch.APIKey != apiKey ||
			!utils.VerifyExternalHash(privateKey, batch.APIKey, batch.CreatedAt, batch.Hash) {
			middleware.ExternalCargosTotal.WithLabelValues("api", "unauthorized").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверная подпись запроса"})
			return
		}

		results := make([]externalItemResult, 0, len(batch.Cargos))
		created := 0
		for _, item := range batch.Cargos {
			res := ingestCargoItem(db, notifier, item)
			if res.Status == "created" {
				created++
				middleware.ExternalCargosTotal.WithLabelValues("api", "created").Inc()
			} else {
				middleware.ExternalCargosTotal.WithLabelValues("api", res.Status).Inc()
			}
			results = append(results, res)
		}

		c.JSON(http.StatusCreated, gin.H{
			"total":   len(batch.Cargos),
			"created": created,
			"results": results,
		})
	}
}

func ingestCargoItem(db *gorm.DB, notifier *services.Notifier, item externalCargoItem) externalItemResult {
	res := externalItemResult{ExternalID: item.ExternalID}

	// Повторная отправка того же груза не создает дубликат
	var existing models.Cargo
	if err := db.Where("source_type = ? AND source_id = ?", models.SourceAPI, item.ExternalID).
		First(&existing).Error; err == nil {
		res.Status = "duplicate"
		res.CargoID = existing.ID
		return res
	}

	loadingDate, err := time.Parse("2006-01-02", item.LoadingDate)
	if err != nil {
		res.Status = "error"
		res.Error = fmt.Sprintf("неверная дата загрузки: %s", item.LoadingDate)
		return res
	}

	// Внешние грузы публикуются сразу, минуя модерацию
	cargo := models.Cargo{
		Title:          item.Title,
		Description:    item.Description,
		Status:         models.CargoStatusPending,
		LoadingPoint:   item.LoadingPoint,
		UnloadingPoint: item.UnloadingPoint,
		LoadingDate:    loadingDate,
		Weight:         item.Weight,
		Price:          item.Price,
		VehicleType:    models.VehicleBodyType(item.VehicleType),
		PaymentMethod:  models.PaymentMethod(item.PaymentMethod),
		SourceType:     models.SourceAPI,
		SourceID:       item.ExternalID,
	}
	if err := db.Create(&cargo).Error; err != nil {
		res.Status = "error"
		res.Error = "не удалось сохранить груз"
		return res
	}

	recordStatusChange(db, &cargo, cargo.Status, "", "Импортирован из внешней системы")
	notifier.CargoCreated(&cargo)

	res.Status = "created"
	res.CargoID = cargo.ID
	return res
}
