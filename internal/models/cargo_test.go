package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCargoStatusTransitions(t *testing.T) {
	cases := []struct {
		from    CargoStatus
		to      CargoStatus
		allowed bool
	}{
		{CargoStatusDraft, CargoStatusPending, true},
		{CargoStatusDraft, CargoStatusCancelled, true},
		{CargoStatusDraft, CargoStatusCompleted, false},
		{CargoStatusPending, CargoStatusAssigned, true},
		{CargoStatusPending, CargoStatusInProgress, false},
		{CargoStatusAssigned, CargoStatusInProgress, true},
		{CargoStatusAssigned, CargoStatusCancelled, true},
		{CargoStatusInProgress, CargoStatusCompleted, true},
		{CargoStatusCompleted, CargoStatusCancelled, false},
		{CargoStatusCancelled, CargoStatusDraft, true},
		{CargoStatusExpired, CargoStatusDraft, true},
		{CargoStatusExpired, CargoStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"переход %s -> %s", tc.from, tc.to)
	}
}

func TestCargoStatusTransitionToSelf(t *testing.T) {
	assert.True(t, CargoStatusPending.CanTransitionTo(CargoStatusPending))
	assert.True(t, CargoStatusCompleted.CanTransitionTo(CargoStatusCompleted))
}

func TestValidateStatusChangeCarrier(t *testing.T) {
	carrier := &User{TelegramID: "100", Role: RoleCarrier}
	other := "200"
	own := "100"

	// Чужой груз недоступен перевозчику
	cargo := &Cargo{Status: CargoStatusAssigned, AssignedToID: &other}
	assert.Error(t, cargo.ValidateStatusChange(CargoStatusInProgress, carrier))

	// Свой груз можно взять в работу и завершить
	cargo = &Cargo{Status: CargoStatusAssigned, AssignedToID: &own}
	assert.NoError(t, cargo.ValidateStatusChange(CargoStatusInProgress, carrier))

	cargo = &Cargo{Status: CargoStatusInProgress, AssignedToID: &own}
	assert.NoError(t, cargo.ValidateStatusChange(CargoStatusCompleted, carrier))

	// Отмена перевозчику недоступна
	cargo = &Cargo{Status: CargoStatusAssigned, AssignedToID: &own}
	assert.Error(t, cargo.ValidateStatusChange(CargoStatusCancelled, carrier))
}

func TestValidateStatusChangeStudent(t *testing.T) {
	student := &User{TelegramID: "300", Role: RoleStudent}

	// Нельзя отметить назначенным груз без перевозчика
	cargo := &Cargo{Status: CargoStatusPending}
	assert.Error(t, cargo.ValidateStatusChange(CargoStatusAssigned, student))

	carrier := "100"
	cargo = &Cargo{Status: CargoStatusPending, AssignedToID: &carrier}
	assert.NoError(t, cargo.ValidateStatusChange(CargoStatusAssigned, student))
}

func TestCargoBeforeSaveVolume(t *testing.T) {
	l, w, h := 2.0, 3.0, 1.5
	cargo := &Cargo{Length: &l, Width: &w, Height: &h}

	require.NoError(t, cargo.BeforeSave(nil))
	require.NotNil(t, cargo.Volume)
	assert.InDelta(t, 9.0, *cargo.Volume, 1e-9)

	// Без полного набора габаритов объем не трогаем
	preset := 5.0
	cargo = &Cargo{Length: &l, Volume: &preset}
	require.NoError(t, cargo.BeforeSave(nil))
	assert.Equal(t, 5.0, *cargo.Volume)
}

func TestCargoBeforeSaveApprovalDate(t *testing.T) {
	manager := "500"
	cargo := &Cargo{ApprovedByID: &manager}

	require.NoError(t, cargo.BeforeSave(nil))
	require.NotNil(t, cargo.ApprovalDate)

	// Уже проставленная дата не перезаписывается
	stamp := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cargo = &Cargo{ApprovedByID: &manager, ApprovalDate: &stamp}
	require.NoError(t, cargo.BeforeSave(nil))
	assert.Equal(t, stamp, *cargo.ApprovalDate)
}

func TestCarrierRequestTransitions(t *testing.T) {
	cases := []struct {
		from    CarrierRequestStatus
		to      CarrierRequestStatus
		allowed bool
	}{
		{CarrierRequestPending, CarrierRequestCancelled, true},
		{CarrierRequestPending, CarrierRequestAccepted, false},
		{CarrierRequestAssigned, CarrierRequestAccepted, true},
		{CarrierRequestAssigned, CarrierRequestRejected, true},
		{CarrierRequestAccepted, CarrierRequestCompleted, true},
		{CarrierRequestAccepted, CarrierRequestCancelled, true},
		{CarrierRequestRejected, CarrierRequestPending, true},
		{CarrierRequestCompleted, CarrierRequestPending, false},
		{CarrierRequestCancelled, CarrierRequestPending, true},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"переход %s -> %s", tc.from, tc.to)
	}
}

func TestStatusDisplay(t *testing.T) {
	assert.Equal(t, "В пути", CargoStatusInProgress.Display())
	assert.Equal(t, "unknown", CargoStatus("unknown").Display())
	assert.Equal(t, "Назначен груз", CarrierRequestAssigned.Display())
}
