package models

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent          UserRole = "student"           // Студент-диспетчер
	RoleCarrier          UserRole = "carrier"           // Перевозчик
	RoleCargoOwner       UserRole = "cargo-owner"       // Грузовладелец
	RoleLogisticsCompany UserRole = "logistics-company" // Логистическая компания
	RoleTransportCompany UserRole = "transport-company" // Транспортная компания
	RoleLogitTrans       UserRole = "logit-trans"       // Logit Trans
	RoleManager          UserRole = "manager"           // Менеджер
)

type UserType string

const (
	UserTypeIndividual UserType = "individual" // Физическое лицо
	UserTypeLegal      UserType = "legal"      // Юридическое лицо
)

type StudentTariff string

const (
	TariffStandard StudentTariff = "standard" // Standard Pro
	TariffVIP      StudentTariff = "vip"      // VIP Pro
)

// User представляет пользователя, идентифицируемого по Telegram ID
type User struct {
	TelegramID   string `json:"telegram_id" gorm:"primaryKey;column:telegram_id;type:varchar(100)"`
	FirstName    string `json:"first_name" gorm:"column:first_name;not null;type:varchar(255)"`
	LastName     string `json:"last_name" gorm:"column:last_name;type:varchar(255)"`
	Username     string `json:"username" gorm:"column:username;type:varchar(255)"`
	LanguageCode string `json:"language_code" gorm:"column:language_code;type:varchar(10)"`

	// Системные поля
	IsActive   bool `json:"is_active" gorm:"column:is_active;default:true"`
	IsStaff    bool `json:"is_staff" gorm:"column:is_staff;default:false"`
	IsVerified bool `json:"is_verified" gorm:"column:is_verified;default:false"`

	// Профиль
	Type              UserType      `json:"type,omitempty" gorm:"column:type;type:varchar(20)"`
	Role              UserRole      `json:"role,omitempty" gorm:"column:role;type:varchar(20);index"`
	PreferredLanguage string        `json:"preferred_language" gorm:"column:preferred_language;type:varchar(2);default:'ru'"`
	Tariff            StudentTariff `json:"tariff,omitempty" gorm:"column:tariff;type:varchar(20)"`

	// Контакты
	PhoneNumber    string `json:"phone_number,omitempty" gorm:"column:phone_number;type:varchar(20)"`
	WhatsappNumber string `json:"whatsapp_number,omitempty" gorm:"column:whatsapp_number;type:varchar(20)"`

	// Данные компании
	CompanyName             string `json:"company_name,omitempty" gorm:"column:company_name;type:varchar(255)"`
	Position                string `json:"position,omitempty" gorm:"column:position;type:varchar(100)"`
	RegistrationCertificate string `json:"registration_certificate,omitempty" gorm:"column:registration_certificate;type:text"`

	// Данные студента
	StudentID     string     `json:"student_id,omitempty" gorm:"column:student_id;type:varchar(50)"`
	GroupName     string     `json:"group_name,omitempty" gorm:"column:group_name;type:varchar(100)"`
	StudyLanguage string     `json:"study_language,omitempty" gorm:"column:study_language;type:varchar(50)"`
	CuratorName   string     `json:"curator_name,omitempty" gorm:"column:curator_name;type:varchar(100)"`
	EndDate       *time.Time `json:"end_date,omitempty" gorm:"column:end_date;type:date"`

	// Верификация
	VerificationDate   *time.Time `json:"verification_date,omitempty" gorm:"column:verification_date"`
	VerificationStatus string     `json:"verification_status,omitempty" gorm:"column:verification_status;type:varchar(50)"`
	VerificationNotes  string     `json:"verification_notes,omitempty" gorm:"column:verification_notes;type:text"`
	VerifiedByID       *string    `json:"verified_by,omitempty" gorm:"column:verified_by_id;type:varchar(100)"`

	// Рейтинг считается как среднее полученных оценок, пересчитывается при сохранении Rating
	Rating float64 `json:"rating" gorm:"column:rating;default:0"`

	DateJoined time.Time  `json:"date_joined" gorm:"column:date_joined;autoCreateTime"`
	LastLogin  *time.Time `json:"last_login,omitempty" gorm:"column:last_login"`

	VerifiedBy *User `json:"-" gorm:"foreignKey:VerifiedByID;references:TelegramID"`
}

// GetFullName возвращает имя и фамилию через пробел
func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type UserDocumentType string

const (
	UserDocDriverLicense      UserDocumentType = "driver_license"
	UserDocPassport           UserDocumentType = "passport"
	UserDocCompanyCertificate UserDocumentType = "company_certificate"
	UserDocOther              UserDocumentType = "other"
)

// UserDocument представляет документ пользователя (лицензии, сертификаты и т.д.)
type UserDocument struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	UserID       string           `json:"user_id" gorm:"column:user_id;not null;type:varchar(100);index"`
	Type         UserDocumentType `json:"type" gorm:"column:type;type:varchar(50)"`
	Title        string           `json:"title" gorm:"column:title;not null;type:varchar(255)"`
	File         string           `json:"file" gorm:"column:file;type:text"`
	UploadedAt   time.Time        `json:"uploaded_at" gorm:"column:uploaded_at;autoCreateTime"`
	Verified     bool             `json:"verified" gorm:"column:verified;default:false;index"`
	VerifiedAt   *time.Time       `json:"verified_at,omitempty" gorm:"column:verified_at"`
	VerifiedByID *string          `json:"verified_by,omitempty" gorm:"column:verified_by_id;type:varchar(100)"`
	Notes        string           `json:"notes,omitempty" gorm:"column:notes;type:text"`

	User       User  `json:"-" gorm:"foreignKey:UserID;references:TelegramID;constraint:OnDelete:CASCADE"`
	VerifiedBy *User `json:"-" gorm:"foreignKey:VerifiedByID;references:TelegramID"`
}

// UserResponse представляет ответ API с профилем пользователя
type UserResponse struct {
	TelegramID        string        `json:"telegram_id"`
	FirstName         string        `json:"first_name"`
	LastName          string        `json:"last_name"`
	Username          string        `json:"username"`
	Role              UserRole      `json:"role,omitempty"`
	Type              UserType      `json:"type,omitempty"`
	Tariff            StudentTariff `json:"tariff,omitempty"`
	PreferredLanguage string        `json:"preferred_language"`
	PhoneNumber       string        `json:"phone_number,omitempty"`
	WhatsappNumber    string        `json:"whatsapp_number,omitempty"`
	CompanyName       string        `json:"company_name,omitempty"`
	IsVerified        bool          `json:"is_verified"`
	Rating            float64       `json:"rating"`
	DateJoined        time.Time     `json:"date_joined"`
}

// ToResponse формирует публичный профиль пользователя
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		TelegramID:        u.TelegramID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Username:          u.Username,
		Role:              u.Role,
		Type:              u.Type,
		Tariff:            u.Tariff,
		PreferredLanguage: u.PreferredLanguage,
		PhoneNumber:       u.PhoneNumber,
		WhatsappNumber:    u.WhatsappNumber,
		CompanyName:       u.CompanyName,
		IsVerified:        u.IsVerified,
		Rating:            u.Rating,
		DateJoined:        u.DateJoined,
	}
}
