package service

import (
	"slices"

	"lodge/internal/domains/payment/model"
	"lodge/internal/domains/payment/model/dto"
	"lodge/internal/lifecycle"
)

// PlanSweep lists the corrections that bring payments in line with the
// status of the entity they belong to:
//
//   - approved or checked-out: pending/failed payments become completed
//   - rejected or cancelled: anything not failed becomes failed
//
// Entities without a payment are left alone.
func PlanSweep(subjects []dto.Subject, payments []model.Payment) []dto.Correction {
	corrections := []dto.Correction{}

	for _, payment := range payments {
		idx := slices.IndexFunc(subjects, func(subject dto.Subject) bool {
			return subject.Type == payment.Type && slices.Contains(subject.IDs, payment.BookingID)
		})
		if idx == -1 {
			continue
		}

		target, ok := sweepTarget(subjects[idx].Status, payment.Status)
		if !ok {
			continue
		}

		corrections = append(corrections, dto.Correction{
			PaymentID: payment.ID,
			From:      payment.Status,
			To:        target,
		})
	}

	return corrections
}

func sweepTarget(status lifecycle.Status, current lifecycle.PaymentStatus) (lifecycle.PaymentStatus, bool) {
	switch status {
	case lifecycle.StatusApproved, lifecycle.StatusCheckedOut:
		if current == lifecycle.PaymentPending || current == lifecycle.PaymentFailed {
			return lifecycle.PaymentCompleted, true
		}
	case lifecycle.StatusRejected, lifecycle.StatusCancelled:
		if current != lifecycle.PaymentFailed {
			return lifecycle.PaymentFailed, true
		}
	}

	return current, false
}
