package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"logit-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	earthRadiusKm    = 6371.0
	locationCacheTTL = 24 * time.Hour
)

// LocationService отвечает за поиск и кэширование справочника локаций
type LocationService struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewLocationService(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *LocationService {
	return &LocationService{db: db, redis: redisClient, logger: logger}
}

// Haversine возвращает расстояние между двумя точками в километрах
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// LocationDistance содержит локацию и расстояние до точки поиска
type LocationDistance struct {
	Location models.Location `json:"location"`
	Distance float64         `json:"distance_km"`
}

// FindLocationsInRadius возвращает города в радиусе от точки,
// отсортированные по возрастанию расстояния
func (s *LocationService) FindLocationsInRadius(ctx context.Context, lat, lon, radiusKm float64) ([]LocationDistance, error) {
	cacheKey := fmt.Sprintf("locations:radius:%.4f:%.4f:%.0f", lat, lon, radiusKm)
	if cached := s.getCached(ctx, cacheKey); cached != nil {
		var result []LocationDistance
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	var cities []models.Location
	if err := s.db.Where("level = ? AND is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL",
		models.LocationLevelCity, true).Find(&cities).Error; err != nil {
		return nil, err
	}

	result := make([]LocationDistance, 0)
	for _, city := range cities {
		d := Haversine(lat, lon, *city.Latitude, *city.Longitude)
		if d <= radiusKm {
			result = append(result, LocationDistance{Location: city, Distance: d})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Distance < result[j].Distance
	})

	s.setCached(ctx, cacheKey, result)
	return result, nil
}

// DistanceBetween возвращает расстояние в километрах между двумя
// локациями справочника
func (s *LocationService) DistanceBetween(fromID, toID uint) (float64, error) {
	var from, to models.Location
	if err := s.db.First(&from, fromID).Error; err != nil {
		return 0, fmt.Errorf("локация %d не найдена", fromID)
	}
	if err := s.db.First(&to, toID).Error; err != nil {
		return 0, fmt.Errorf("локация %d не найдена", toID)
	}
	if from.Latitude == nil || from.Longitude == nil || to.Latitude == nil || to.Longitude == nil {
		return 0, fmt.Errorf("для локации не заданы координаты")
	}
	return Haversine(*from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude), nil
}

// SearchLocations ищет локации по подстроке имени без учета регистра
func (s *LocationService) SearchLocations(ctx context.Context, query string, level int, limit int) ([]models.Location, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("locations:search:%d:%s", level, query)
	if cached := s.getCached(ctx, cacheKey); cached != nil {
		var result []models.Location
		if err := json.Unmarshal(cached, &result); err == nil {
			return result, nil
		}
	}

	tx := s.db.Where("is_active = ?", true).
		Where("LOWER(name) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?)", "%"+query+"%", "%"+query+"%")
	if level > 0 {
		tx = tx.Where("level = ?", level)
	}

	var locations []models.Location
	if err := tx.Order("level, name").Limit(limit).Find(&locations).Error; err != nil {
		return nil, err
	}

	s.setCached(ctx, cacheKey, locations)
	return locations, nil
}

// GetChildren возвращает дочерние локации: регионы страны или города региона
func (s *LocationService) GetChildren(ctx context.Context, parentID uint) ([]models.Location, error) {
	var locations []models.Location
	err := s.db.Where("parent_id = ? AND is_active = ?", parentID, true).
		Order("name").Find(&locations).Error
	return locations, err
}

// ValidateLocationPath проверяет, что город принадлежит заявленной
// цепочке регион → страна
func (s *LocationService) ValidateLocationPath(cityID uint, regionID, countryID *uint) error {
	var city models.Location
	if err := s.db.First(&city, cityID).Error; err != nil {
		return fmt.Errorf("локация не найдена")
	}
	if city.Level != models.LocationLevelCity {
		return fmt.Errorf("ожидается город (уровень %d)", models.LocationLevelCity)
	}
	if regionID != nil && (city.ParentID == nil || *city.ParentID != *regionID) {
		return fmt.Errorf("город не принадлежит указанному региону")
	}
	if countryID != nil && (city.CountryID == nil || *city.CountryID != *countryID) {
		return fmt.Errorf("город не принадлежит указанной стране")
	}
	return nil
}

func (s *LocationService) getCached(ctx context.Context, key string) []byte {
	if s.redis == nil {
		return nil
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug("ошибка чтения кэша локаций", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	return data
}

func (s *LocationService) setCached(ctx context.Context, key string, value interface{}) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, locationCacheTTL).Err(); err != nil {
		s.logger.Debug("ошибка записи кэша локаций", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateCache сбрасывает кэш локаций после изменения справочника
func (s *LocationService) InvalidateCache(ctx context.Context) {
	if s.redis == nil {
		return
	}
	iter := s.redis.Scan(ctx, 0, "locations:*", 0).Iterator()
	for iter.Next(ctx) {
		s.redis.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.Warn("ошибка сброса кэша локаций", zap.Error(err))
	}
}
