package models

import (
	"fmt"
	"time"
)

type CarrierRequestStatus string

const (
	CarrierRequestPending   CarrierRequestStatus = "pending"   // Ожидает назначения
	CarrierRequestAssigned  CarrierRequestStatus = "assigned"  // Назначен груз
	CarrierRequestAccepted  CarrierRequestStatus = "accepted"  // Принят перевозчиком
	CarrierRequestRejected  CarrierRequestStatus = "rejected"  // Отклонен перевозчиком
	CarrierRequestCompleted CarrierRequestStatus = "completed" // Завершен
	CarrierRequestCancelled CarrierRequestStatus = "cancelled" // Отменен
)

var carrierRequestStatusNames = map[CarrierRequestStatus]string{
	CarrierRequestPending:   "Ожидает назначения",
	CarrierRequestAssigned:  "Назначен груз",
	CarrierRequestAccepted:  "Принят перевозчиком",
	CarrierRequestRejected:  "Отклонен перевозчиком",
	CarrierRequestCompleted: "Завершен",
	CarrierRequestCancelled: "Отменен",
}

// Display возвращает человекочитаемое название статуса
func (s CarrierRequestStatus) Display() string {
	if name, ok := carrierRequestStatusNames[s]; ok {
		return name
	}
	return string(s)
}

var carrierRequestTransitions = map[CarrierRequestStatus][]CarrierRequestStatus{
	CarrierRequestPending:   {CarrierRequestCancelled},
	CarrierRequestAssigned:  {CarrierRequestAccepted, CarrierRequestRejected},
	CarrierRequestAccepted:  {CarrierRequestCompleted, CarrierRequestCancelled},
	CarrierRequestRejected:  {CarrierRequestPending}, // Повторная попытка
	CarrierRequestCompleted: {},
	CarrierRequestCancelled: {CarrierRequestPending}, // Повторная активация
}

// CanTransitionTo проверяет допустимость перехода по таблице статусов
func (s CarrierRequestStatus) CanTransitionTo(next CarrierRequestStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range carrierRequestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CarrierRequest представляет заявку перевозчика о свободном транспорте
type CarrierRequest struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	CarrierID string `json:"carrier_id" gorm:"column:carrier_id;not null;type:varchar(100);index"`
	VehicleID *uint  `json:"vehicle_id,omitempty" gorm:"column:vehicle_id"`

	// Маршрут
	LoadingPoint        string `json:"loading_point" gorm:"column:loading_point;not null;type:varchar(255);index"`
	UnloadingPoint      string `json:"unloading_point" gorm:"column:unloading_point;not null;type:varchar(255);index"`
	LoadingLocationID   *uint  `json:"loading_location_id,omitempty" gorm:"column:loading_location_id"`
	UnloadingLocationID *uint  `json:"unloading_location_id,omitempty" gorm:"column:unloading_location_id"`

	ReadyDate    time.Time `json:"ready_date" gorm:"column:ready_date;type:date;not null;index"`
	VehicleCount uint      `json:"vehicle_count" gorm:"column:vehicle_count;default:1"`

	// Оплата и примечания
	PriceExpectation *float64 `json:"price_expectation,omitempty" gorm:"column:price_expectation"`
	PaymentTerms     string   `json:"payment_terms,omitempty" gorm:"column:payment_terms;type:varchar(255)"`
	Notes            string   `json:"notes,omitempty" gorm:"column:notes;type:text"`

	Status    CarrierRequestStatus `json:"status" gorm:"column:status;type:varchar(20);default:'pending';index"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`

	// Назначение логистом
	AssignedCargoID *uint      `json:"assigned_cargo_id,omitempty" gorm:"column:assigned_cargo_id;index"`
	AssignedByID    *string    `json:"assigned_by_id,omitempty" gorm:"column:assigned_by_id;type:varchar(100)"`
	AssignedAt      *time.Time `json:"assigned_at,omitempty" gorm:"column:assigned_at"`

	Carrier           User      `json:"carrier,omitempty" gorm:"foreignKey:CarrierID;references:TelegramID;constraint:OnDelete:CASCADE"`
	Vehicle           *Vehicle  `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	AssignedCargo     *Cargo    `json:"-" gorm:"foreignKey:AssignedCargoID"`
	AssignedBy        *User     `json:"assigned_by,omitempty" gorm:"foreignKey:AssignedByID;references:TelegramID"`
	LoadingLocation   *Location `json:"loading_location,omitempty" gorm:"foreignKey:LoadingLocationID"`
	UnloadingLocation *Location `json:"unloading_location,omitempty" gorm:"foreignKey:UnloadingLocationID"`
}

// ValidateStatusChange проверяет переход статуса заявки
func (r *CarrierRequest) ValidateStatusChange(next CarrierRequestStatus) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("невозможен переход из %s в %s", r.Status, next)
	}
	return nil
}
