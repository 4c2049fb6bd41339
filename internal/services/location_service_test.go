package services

import (
	"context"
	"testing"

	"logit-backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestHaversineZeroDistance(t *testing.T) {
	assert.InDelta(t, 0, Haversine(43.238949, 76.889709, 43.238949, 76.889709), 1e-9)
}

func TestHaversineSymmetry(t *testing.T) {
	d1 := Haversine(43.238949, 76.889709, 51.169392, 71.449074)
	d2 := Haversine(51.169392, 71.449074, 43.238949, 76.889709)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Алматы - Астана, около 970 км по прямой
	d := Haversine(43.238949, 76.889709, 51.169392, 71.449074)
	assert.InDelta(t, 970, d, 30)
}

func locationTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Location{}))
	return db
}

func seedCity(t *testing.T, db *gorm.DB, name string, lat, lon float64) models.Location {
	t.Helper()
	city := models.Location{
		Name:      name,
		Level:     models.LocationLevelCity,
		Latitude:  &lat,
		Longitude: &lon,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&city).Error)
	return city
}

func TestFindLocationsInRadius(t *testing.T) {
	db := locationTestDB(t)
	svc := NewLocationService(db, nil, zap.NewNop())

	seedCity(t, db, "Almaty", 43.238949, 76.889709)
	seedCity(t, db, "Taldykorgan", 45.017837, 78.381714)
	seedCity(t, db, "Astana", 51.169392, 71.449074)

	// Радиус 300 км от Алматы: сам город и Талдыкорган, Астана за пределами
	result, err := svc.FindLocationsInRadius(context.Background(), 43.238949, 76.889709, 300)
	require.NoError(t, err)
	require.Len(t, result, 2)

	// Результат отсортирован по возрастанию расстояния
	assert.Equal(t, "Almaty", result[0].Location.Name)
	assert.Equal(t, "Taldykorgan", result[1].Location.Name)
	assert.Less(t, result[0].Distance, result[1].Distance)
}

func TestSearchLocationsSubstring(t *testing.T) {
	db := locationTestDB(t)
	svc := NewLocationService(db, nil, zap.NewNop())

	seedCity(t, db, "Almaty", 43.24, 76.89)
	seedCity(t, db, "Astana", 51.17, 71.45)

	found, err := svc.SearchLocations(context.Background(), "alma", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Almaty", found[0].Name)

	// Неактивные локации не попадают в выдачу
	require.NoError(t, db.Model(&models.Location{}).
		Where("name = ?", "Almaty").Update("is_active", false).Error)
	found, err = svc.SearchLocations(context.Background(), "alma", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestLocationFullName(t *testing.T) {
	db := locationTestDB(t)

	country := models.Location{Name: "Kazakhstan", Level: models.LocationLevelCountry, IsActive: true}
	require.NoError(t, db.Create(&country).Error)

	region := models.Location{
		Name: "Almaty Region", Level: models.LocationLevelRegion,
		ParentID: &country.ID, CountryID: &country.ID, IsActive: true,
	}
	require.NoError(t, db.Create(&region).Error)

	city := models.Location{
		Name: "Taldykorgan", Level: models.LocationLevelCity,
		ParentID: &region.ID, CountryID: &country.ID, IsActive: true,
	}
	require.NoError(t, db.Create(&city).Error)

	assert.Equal(t, "Kazakhstan, Almaty Region, Taldykorgan", city.FullName)
}

func TestValidateLocationPath(t *testing.T) {
	db := locationTestDB(t)
	svc := NewLocationService(db, nil, zap.NewNop())

	country := models.Location{Name: "Kazakhstan", Level: models.LocationLevelCountry, IsActive: true}
	require.NoError(t, db.Create(&country).Error)
	region := models.Location{
		Name: "Almaty Region", Level: models.LocationLevelRegion,
		ParentID: &country.ID, CountryID: &country.ID, IsActive: true,
	}
	require.NoError(t, db.Create(&region).Error)
	otherRegion := models.Location{
		Name: "Akmola Region", Level: models.LocationLevelRegion,
		ParentID: &country.ID, CountryID: &country.ID, IsActive: true,
	}
	require.NoError(t, db.Create(&otherRegion).Error)
	city := models.Location{
		Name: "Taldykorgan", Level: models.LocationLevelCity,
		ParentID: &region.ID, CountryID: &country.ID, IsActive: true,
	}
	require.NoError(t, db.Create(&city).Error)

	assert.NoError(t, svc.ValidateLocationPath(city.ID, &region.ID, &country.ID))
	assert.Error(t, svc.ValidateLocationPath(city.ID, &otherRegion.ID, nil))
	assert.Error(t, svc.ValidateLocationPath(region.ID, nil, nil))
}

func TestDistanceBetweenLocations(t *testing.T) {
	db := locationTestDB(t)
	svc := NewLocationService(db, nil, zap.NewNop())

	almaty := seedCity(t, db, "Almaty", 43.238949, 76.889709)
	astana := seedCity(t, db, "Astana", 51.169392, 71.449074)

	d, err := svc.DistanceBetween(almaty.ID, astana.ID)
	require.NoError(t, err)
	assert.InDelta(t, 970, d, 30)

	// Локация без координат
	blank := models.Location{Name: "Nowhere", Level: models.LocationLevelCity, IsActive: true}
	require.NoError(t, db.Create(&blank).Error)
	_, err = svc.DistanceBetween(almaty.ID, blank.ID)
	assert.Error(t, err)

	// Несуществующая локация
	_, err = svc.DistanceBetween(almaty.ID, 9999)
	assert.Error(t, err)
}
