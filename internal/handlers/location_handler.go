package handlers

import (
	"net/http"
	"strconv"

	"logit-backend/internal/models"
	"logit-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SearchLocations ищет локации по подстроке имени
func SearchLocations(locationService *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q")
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан поисковый запрос"})
			return
		}

		level, _ := strconv.Atoi(c.Query("level"))
		limit, _ := strconv.Atoi(c.Query("limit"))

		locations, err := locationService.SearchLocations(c.Request.Context(), query, level, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка поиска локаций"})
			return
		}
		c.JSON(http.StatusOK, locations)
	}
}

// GetLocationsInRadius возвращает города в радиусе от точки
func GetLocationsInRadius(locationService *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
		if errLat != nil || errLon != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные координаты"})
			return
		}

		radius, err := strconv.ParseFloat(c.Query("radius"), 64)
		if err != nil || radius <= 0 {
			radius = 100
		}
		if radius > 1000 {
			radius = 1000
		}

		result, err := locationService.FindLocationsInRadius(c.Request.Context(), lat, lon, radius)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка поиска локаций"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// GetLocationDistance возвращает расстояние между двумя локациями
func GetLocationDistance(locationService *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromID, errFrom := strconv.ParseUint(c.Query("from"), 10, 32)
		toID, errTo := strconv.ParseUint(c.Query("to"), 10, 32)
		if errFrom != nil || errTo != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите локации from и to"})
			return
		}

		distance, err := locationService.DistanceBetween(uint(fromID), uint(toID))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"from":        fromID,
			"to":          toID,
			"distance_km": distance,
		})
	}
}

// GetCountries возвращает активные страны
func GetCountries(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var countries []models.Location
		if err := db.Where("level = ? AND is_active = ?", models.LocationLevelCountry, true).
			Order("name").Find(&countries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить страны"})
			return
		}
		c.JSON(http.StatusOK, countries)
	}
}

// GetLocationChildren возвращает дочерние локации: регионы страны
// или города региона
func GetLocationChildren(locationService *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		parentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный ID локации"})
			return
		}

		locations, err := locationService.GetChildren(c.Request.Context(), uint(parentID))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить локации"})
			return
		}
		c.JSON(http.StatusOK, locations)
	}
}

type locationBody struct {
	Name      string   `json:"name" binding:"required"`
	Level     int      `json:"level" binding:"required"`
	ParentID  *uint    `json:"parent_id"`
	CountryID *uint    `json:"country_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// CreateLocation добавляет локацию в справочник. Только для менеджеров.
func CreateLocation(db *gorm.DB, locationService *services.LocationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body locationBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные локации"})
			return
		}
		if body.Level < models.LocationLevelCountry || body.Level > models.LocationLevelCity {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Недопустимый уровень локации"})
			return
		}
		if body.Level > models.LocationLevelCountry && body.ParentID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Не указана родительская локация"})
			return
		}

		location := models.Location{
			Name:      body.Name,
			Level:     body.Level,
			ParentID:  body.ParentID,
			CountryID: body.CountryID,
			Latitude:  body.Latitude,
			Longitude: body.Longitude,
			IsActive:  true,
		}
		if err := db.Create(&location).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить локацию"})
			return
		}

		locationService.InvalidateCache(c.Request.Context())

		c.JSON(http.StatusCreated, location)
	}
}
