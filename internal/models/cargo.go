package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type CargoStatus string

const (
	CargoStatusDraft           CargoStatus = "draft"            // Черновик
	CargoStatusPendingApproval CargoStatus = "pending_approval" // Ожидает проверки менеджером
	CargoStatusManagerApproved CargoStatus = "manager_approved" // Одобрен менеджером
	CargoStatusPending         CargoStatus = "pending"          // Ожидает назначения перевозчика
	CargoStatusAssigned        CargoStatus = "assigned"         // Назначен перевозчику
	CargoStatusInProgress      CargoStatus = "in_progress"      // В пути
	CargoStatusCompleted       CargoStatus = "completed"        // Завершен
	CargoStatusCancelled       CargoStatus = "cancelled"        // Отменен
	CargoStatusRejected        CargoStatus = "rejected"         // Отклонен менеджером
	CargoStatusExpired         CargoStatus = "expired"          // Просрочен
)

var cargoStatusNames = map[CargoStatus]string{
	CargoStatusDraft:           "Черновик",
	CargoStatusPendingApproval: "Ожидает проверки",
	CargoStatusManagerApproved: "Одобрен менеджером",
	CargoStatusPending:         "Ожидает назначения",
	CargoStatusAssigned:        "Назначен перевозчику",
	CargoStatusInProgress:      "В пути",
	CargoStatusCompleted:       "Завершен",
	CargoStatusCancelled:       "Отменен",
	CargoStatusRejected:        "Отклонен",
	CargoStatusExpired:         "Просрочен",
}

// Display возвращает человекочитаемое название статуса
func (s CargoStatus) Display() string {
	if name, ok := cargoStatusNames[s]; ok {
		return name
	}
	return string(s)
}

// Таблица допустимых переходов статуса груза. Статусы pending_approval,
// manager_approved и rejected меняются только через операции approve/reject
// и назначение перевозчика, поэтому в таблице отсутствуют.
var cargoStatusTransitions = map[CargoStatus][]CargoStatus{
	CargoStatusDraft:      {CargoStatusPending, CargoStatusCancelled},
	CargoStatusPending:    {CargoStatusAssigned, CargoStatusCancelled},
	CargoStatusAssigned:   {CargoStatusInProgress, CargoStatusCancelled},
	CargoStatusInProgress: {CargoStatusCompleted, CargoStatusCancelled},
	CargoStatusCompleted:  {},
	CargoStatusCancelled:  {CargoStatusDraft}, // Повторная активация
	CargoStatusExpired:    {CargoStatusDraft}, // Повторная активация
}

// CanTransitionTo проверяет допустимость перехода по таблице статусов
func (s CargoStatus) CanTransitionTo(next CargoStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range cargoStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"     // Наличные
	PaymentCard     PaymentMethod = "card"     // Карта
	PaymentTransfer PaymentMethod = "transfer" // Банковский перевод
	PaymentAdvance  PaymentMethod = "advance"  // Аванс
)

type VehicleBodyType string

const (
	BodyTent         VehicleBodyType = "tent"
	BodyRefrigerator VehicleBodyType = "refrigerator"
	BodyIsothermal   VehicleBodyType = "isothermal"
	BodyContainer    VehicleBodyType = "container"
	BodyCarCarrier   VehicleBodyType = "car_carrier"
	BodyBoard        VehicleBodyType = "board"
)

type LoadingType string

const (
	LoadingRamps      LoadingType = "ramps"
	LoadingNoDoors    LoadingType = "no_doors"
	LoadingSide       LoadingType = "side"
	LoadingTop        LoadingType = "top"
	LoadingHydroBoard LoadingType = "hydro_board"
)

type SourceType string

const (
	SourceTelegram SourceType = "telegram" // Из Telegram-группы
	SourceAPI      SourceType = "api"      // Внешний API
	SourceManual   SourceType = "manual"   // Ручной ввод
	SourceWebsite  SourceType = "website"  // Сайт
)

// Cargo представляет груз, требующий перевозки
type Cargo struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"column:title;not null;type:varchar(255)"`
	Description string      `json:"description" gorm:"column:description;type:text"`
	Status      CargoStatus `json:"status" gorm:"column:status;type:varchar(20);default:'draft';index"`

	// Габариты и вес. Объем пересчитывается из длины×ширины×высоты при сохранении.
	Weight *float64 `json:"weight" gorm:"column:weight"`
	Volume *float64 `json:"volume,omitempty" gorm:"column:volume"`
	Length *float64 `json:"length,omitempty" gorm:"column:length"`
	Width  *float64 `json:"width,omitempty" gorm:"column:width"`
	Height *float64 `json:"height,omitempty" gorm:"column:height"`

	// Маршрут: текстовые точки и ссылки на справочник локаций
	LoadingPoint        string  `json:"loading_point" gorm:"column:loading_point;type:varchar(255);index"`
	UnloadingPoint      string  `json:"unloading_point" gorm:"column:unloading_point;type:varchar(255);index"`
	LoadingLocationID   *uint   `json:"loading_location_id,omitempty" gorm:"column:loading_location_id;index"`
	UnloadingLocationID *uint   `json:"unloading_location_id,omitempty" gorm:"column:unloading_location_id;index"`
	AdditionalPoints    string  `json:"additional_points,omitempty" gorm:"column:additional_points;type:text"`

	// Сроки
	LoadingDate time.Time `json:"loading_date" gorm:"column:loading_date;type:date;index"`
	IsConstant  bool      `json:"is_constant" gorm:"column:is_constant;default:false"`
	IsReady     bool      `json:"is_ready" gorm:"column:is_ready;default:false"`

	// Требования к транспорту
	VehicleType VehicleBodyType `json:"vehicle_type" gorm:"column:vehicle_type;type:varchar(20);index"`
	LoadingType LoadingType     `json:"loading_type" gorm:"column:loading_type;type:varchar(20)"`

	// Оплата
	PaymentMethod  PaymentMethod `json:"payment_method" gorm:"column:payment_method;type:varchar(20)"`
	Price          *float64      `json:"price,omitempty" gorm:"column:price"`
	PaymentDetails string        `json:"payment_details,omitempty" gorm:"column:payment_details;type:text"`

	// Владелец и участники
	OwnerID      *string `json:"owner_id,omitempty" gorm:"column:owner_id;type:varchar(100);index"`
	AssignedToID *string `json:"assigned_to_id,omitempty" gorm:"column:assigned_to_id;type:varchar(100);index"`
	ManagedByID  *string `json:"managed_by_id,omitempty" gorm:"column:managed_by_id;type:varchar(100);index"`

	// Проверка менеджером
	ApprovedByID  *string    `json:"approved_by_id,omitempty" gorm:"column:approved_by_id;type:varchar(100)"`
	ApprovalDate  *time.Time `json:"approval_date,omitempty" gorm:"column:approval_date"`
	ApprovalNotes string     `json:"approval_notes,omitempty" gorm:"column:approval_notes;type:text"`

	// Учет
	ViewsCount uint       `json:"views_count" gorm:"column:views_count;default:0"`
	SourceType SourceType `json:"source_type" gorm:"column:source_type;type:varchar(20);default:'manual';index"`
	SourceID   string     `json:"source_id,omitempty" gorm:"column:source_id;type:varchar(255);index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Owner             *User     `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:TelegramID;constraint:OnDelete:CASCADE"`
	AssignedTo        *User     `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID;references:TelegramID"`
	ManagedBy         *User     `json:"managed_by,omitempty" gorm:"foreignKey:ManagedByID;references:TelegramID"`
	ApprovedBy        *User     `json:"approved_by,omitempty" gorm:"foreignKey:ApprovedByID;references:TelegramID"`
	LoadingLocation   *Location `json:"loading_location,omitempty" gorm:"foreignKey:LoadingLocationID"`
	UnloadingLocation *Location `json:"unloading_location,omitempty" gorm:"foreignKey:UnloadingLocationID"`

	Documents       []CargoDocument      `json:"-" gorm:"foreignKey:CargoID;constraint:OnDelete:CASCADE"`
	StatusHistory   []CargoStatusHistory `json:"-" gorm:"foreignKey:CargoID;constraint:OnDelete:CASCADE"`
	CarrierRequests []CarrierRequest     `json:"-" gorm:"foreignKey:AssignedCargoID"`
}

// BeforeSave пересчитывает объем, если заданы все три габарита, и проставляет
// дату одобрения при первом появлении проверяющего менеджера
func (c *Cargo) BeforeSave(tx *gorm.DB) error {
	if c.Length != nil && c.Width != nil && c.Height != nil {
		v := *c.Length * *c.Width * *c.Height
		c.Volume = &v
	}
	if c.ApprovedByID != nil && c.ApprovalDate == nil {
		now := time.Now().UTC()
		c.ApprovalDate = &now
	}
	return nil
}

// ValidateStatusChange проверяет переход статуса с учетом роли инициатора
func (c *Cargo) ValidateStatusChange(next CargoStatus, actor *User) error {
	if actor != nil {
		switch actor.Role {
		case RoleCarrier:
			// Перевозчик меняет статус только назначенных ему грузов
			if c.AssignedToID == nil || *c.AssignedToID != actor.TelegramID {
				return fmt.Errorf("можно менять статус только назначенных вам грузов")
			}
			if next != CargoStatusInProgress && next != CargoStatusCompleted {
				return fmt.Errorf("недопустимый статус для перевозчика")
			}
		case RoleStudent:
			// Студент не может назначить груз без перевозчика
			if c.Status == CargoStatusPending && next == CargoStatusAssigned && c.AssignedToID == nil {
				return fmt.Errorf("нельзя отметить груз назначенным без перевозчика")
			}
		}
	}

	if !c.Status.CanTransitionTo(next) {
		return fmt.Errorf("невозможен переход из %s в %s", c.Status, next)
	}
	return nil
}

type CargoDocumentType string

const (
	CargoDocInvoice     CargoDocumentType = "invoice"
	CargoDocCMR         CargoDocumentType = "cmr"
	CargoDocPackingList CargoDocumentType = "packing_list"
	CargoDocOther       CargoDocumentType = "other"
)

// CargoDocument представляет документ, привязанный к грузу. Записи только добавляются.
type CargoDocument struct {
	ID         uint              `json:"id" gorm:"primaryKey"`
	CargoID    uint              `json:"cargo_id" gorm:"column:cargo_id;not null;index"`
	Type       CargoDocumentType `json:"type" gorm:"column:type;type:varchar(20)"`
	Title      string            `json:"title" gorm:"column:title;not null;type:varchar(255)"`
	File       string            `json:"file" gorm:"column:file;type:text"`
	Notes      string            `json:"notes,omitempty" gorm:"column:notes;type:text"`
	UploadedAt time.Time         `json:"uploaded_at" gorm:"column:uploaded_at;autoCreateTime"`

	Cargo Cargo `json:"-" gorm:"foreignKey:CargoID;constraint:OnDelete:CASCADE"`
}

// CargoStatusHistory представляет журнал смен статуса груза. Записи не изменяются.
type CargoStatusHistory struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	CargoID     uint        `json:"cargo_id" gorm:"column:cargo_id;not null;index"`
	Status      CargoStatus `json:"status" gorm:"column:status;type:varchar(20)"`
	ChangedByID *string     `json:"changed_by,omitempty" gorm:"column:changed_by_id;type:varchar(100)"`
	ChangedAt   time.Time   `json:"changed_at" gorm:"column:changed_at;autoCreateTime"`
	Comment     string      `json:"comment,omitempty" gorm:"column:comment;type:text"`

	Cargo     Cargo `json:"-" gorm:"foreignKey:CargoID;constraint:OnDelete:CASCADE"`
	ChangedBy *User `json:"-" gorm:"foreignKey:ChangedByID;references:TelegramID"`
}
