package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

const (
	LocationLevelCountry = 1
	LocationLevelRegion  = 2
	LocationLevelCity    = 3
)

// Location представляет элемент справочника географии: страну, регион или город
type Location struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Name      string `json:"name" gorm:"column:name;not null;type:varchar(255);index"`
	Level     int    `json:"level" gorm:"column:level;not null;index"`
	ParentID  *uint  `json:"parent_id,omitempty" gorm:"column:parent_id;index"`
	CountryID *uint  `json:"country_id,omitempty" gorm:"column:country_id;index"`

	Latitude  *float64 `json:"latitude,omitempty" gorm:"column:latitude"`
	Longitude *float64 `json:"longitude,omitempty" gorm:"column:longitude"`

	// FullName имеет вид "Страна, Регион, Город", пересчитывается при сохранении
	FullName string `json:"full_name" gorm:"column:full_name;type:varchar(500);index"`

	AdditionalData string `json:"additional_data,omitempty" gorm:"column:additional_data;type:text"`

	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Parent   *Location  `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	Country  *Location  `json:"-" gorm:"foreignKey:CountryID"`
	Children []Location `json:"children,omitempty" gorm:"foreignKey:ParentID"`
}

// BeforeSave собирает полное имя по цепочке родителей
func (l *Location) BeforeSave(tx *gorm.DB) error {
	parts := []string{}
	parentID := l.ParentID
	for parentID != nil {
		var parent Location
		if err := tx.Select("id", "name", "parent_id").First(&parent, *parentID).Error; err != nil {
			break
		}
		parts = append([]string{parent.Name}, parts...)
		parentID = parent.ParentID
	}
	parts = append(parts, l.Name)
	l.FullName = strings.Join(parts, ", ")
	return nil
}
