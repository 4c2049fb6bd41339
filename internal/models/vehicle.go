package models

import "time"

type VehicleDocumentType string

const (
	VehicleDocRegistration VehicleDocumentType = "registration" // Свидетельство о регистрации
	VehicleDocInsurance    VehicleDocumentType = "insurance"    // Страховка
	VehicleDocTechPassport VehicleDocumentType = "tech_passport" // Техпаспорт
	VehicleDocPermit       VehicleDocumentType = "permit"        // Разрешение на перевозку
	VehicleDocADR          VehicleDocumentType = "adr_cert"      // Сертификат ADR
	VehicleDocDozvol       VehicleDocumentType = "dozvol"        // Дозвол
	VehicleDocTIR          VehicleDocumentType = "tir"           // Карнет TIR
	VehicleDocOther        VehicleDocumentType = "other"         // Прочее
)

// Vehicle представляет транспортное средство перевозчика
type Vehicle struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	OwnerID string `json:"owner_id" gorm:"column:owner_id;not null;type:varchar(100);index"`

	RegistrationNumber string          `json:"registration_number" gorm:"column:registration_number;not null;type:varchar(20);uniqueIndex"`
	Brand              string          `json:"brand" gorm:"column:brand;type:varchar(100)"`
	Model              string          `json:"model" gorm:"column:model;type:varchar(100)"`
	Year               *uint           `json:"year,omitempty" gorm:"column:year"`
	BodyType           VehicleBodyType `json:"body_type" gorm:"column:body_type;type:varchar(20)"`

	// Грузоподъемность и габариты
	Capacity *float64 `json:"capacity,omitempty" gorm:"column:capacity"`
	Volume   *float64 `json:"volume,omitempty" gorm:"column:volume"`
	Length   *float64 `json:"length,omitempty" gorm:"column:length"`
	Width    *float64 `json:"width,omitempty" gorm:"column:width"`
	Height   *float64 `json:"height,omitempty" gorm:"column:height"`

	LoadingType LoadingType `json:"loading_type,omitempty" gorm:"column:loading_type;type:varchar(20)"`

	// GPS и спецоборудование
	HasGPS          bool `json:"has_gps" gorm:"column:has_gps;default:false"`
	HasRefrigerator bool `json:"has_refrigerator" gorm:"column:has_refrigerator;default:false"`
	HasHydroboard   bool `json:"has_hydroboard" gorm:"column:has_hydroboard;default:false"`

	// Допуски для международных перевозок
	RegistrationCountry string `json:"registration_country,omitempty" gorm:"column:registration_country;type:varchar(100)"`
	LicenseNumber       string `json:"license_number,omitempty" gorm:"column:license_number;type:varchar(100)"`
	HasADR              bool   `json:"has_adr" gorm:"column:has_adr;default:false"`
	HasDozvol           bool   `json:"has_dozvol" gorm:"column:has_dozvol;default:false"`
	HasTIR              bool   `json:"has_tir" gorm:"column:has_tir;default:false"`

	IsVerified   bool       `json:"is_verified" gorm:"column:is_verified;default:false"`
	VerifiedByID *string    `json:"verified_by_id,omitempty" gorm:"column:verified_by_id;type:varchar(100)"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty" gorm:"column:verified_at"`

	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Owner        User                  `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:TelegramID;constraint:OnDelete:CASCADE"`
	VerifiedBy   *User                 `json:"verified_by,omitempty" gorm:"foreignKey:VerifiedByID;references:TelegramID"`
	Documents    []VehicleDocument     `json:"documents,omitempty" gorm:"foreignKey:VehicleID"`
	Availability []VehicleAvailability `json:"availability,omitempty" gorm:"foreignKey:VehicleID"`
	Inspections  []VehicleInspection   `json:"inspections,omitempty" gorm:"foreignKey:VehicleID"`
}

// VehicleDocument представляет документ транспортного средства со сроком действия
type VehicleDocument struct {
	ID         uint                `json:"id" gorm:"primaryKey"`
	VehicleID  uint                `json:"vehicle_id" gorm:"column:vehicle_id;not null;index"`
	Type       VehicleDocumentType `json:"type" gorm:"column:type;type:varchar(20);not null"`
	File       string              `json:"file" gorm:"column:file;not null;type:varchar(255)"`
	Number     string              `json:"number,omitempty" gorm:"column:number;type:varchar(100)"`
	IssueDate  *time.Time          `json:"issue_date,omitempty" gorm:"column:issue_date;type:date"`
	ExpiryDate *time.Time          `json:"expiry_date,omitempty" gorm:"column:expiry_date;type:date;index"`

	IsVerified   bool       `json:"is_verified" gorm:"column:is_verified;default:false"`
	VerifiedByID *string    `json:"verified_by_id,omitempty" gorm:"column:verified_by_id;type:varchar(100)"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty" gorm:"column:verified_at"`

	CreatedAt time.Time `json:"created_at"`

	Vehicle    Vehicle `json:"-" gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
	VerifiedBy *User   `json:"verified_by,omitempty" gorm:"foreignKey:VerifiedByID;references:TelegramID"`
}

// VehicleAvailability представляет окно доступности транспорта в заданном городе
type VehicleAvailability struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	VehicleID uint      `json:"vehicle_id" gorm:"column:vehicle_id;not null;index"`
	Location  string    `json:"location" gorm:"column:location;not null;type:varchar(255)"`
	DateFrom  time.Time `json:"date_from" gorm:"column:date_from;type:date;not null"`
	DateTo    time.Time `json:"date_to" gorm:"column:date_to;type:date;not null"`
	Notes     string    `json:"notes,omitempty" gorm:"column:notes;type:text"`
	CreatedAt time.Time `json:"created_at"`

	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
}

// VehicleInspection представляет запись техосмотра
type VehicleInspection struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	VehicleID      uint       `json:"vehicle_id" gorm:"column:vehicle_id;not null;index"`
	InspectionDate time.Time  `json:"inspection_date" gorm:"column:inspection_date;type:date;not null"`
	NextDate       *time.Time `json:"next_date,omitempty" gorm:"column:next_date;type:date"`
	Passed         bool       `json:"passed" gorm:"column:passed;default:true"`
	Notes          string     `json:"notes,omitempty" gorm:"column:notes;type:text"`
	CreatedAt      time.Time  `json:"created_at"`

	Vehicle Vehicle `json:"-" gorm:"foreignKey:VehicleID;constraint:OnDelete:CASCADE"`
}
