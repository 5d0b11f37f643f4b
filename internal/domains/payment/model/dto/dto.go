package dto

import (
	"slices"

	"lodge/internal/domains/payment/model"
	"lodge/internal/lifecycle"
	"lodge/shared"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"

	"github.com/google/uuid"
)

// ReconcileRequest asks for the single payment of an entity to be brought to
// Status. Nil Amount and Method leave the stored values untouched; a newly
// created record takes FallbackAmount.
type ReconcileRequest struct {
	EntityID       string
	AltIDs         []string
	Type           model.Type
	Status         lifecycle.PaymentStatus
	Amount         *int64
	Method         *string
	FallbackAmount int64
}

// IDs lists every id the entity may be referenced by, canonical id first.
func (r ReconcileRequest) IDs() []string {
	ids := []string{r.EntityID}

	for _, id := range r.AltIDs {
		if id != constant.Empty && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}

	return ids
}

func (r ReconcileRequest) ToModel(user string) model.Payment {
	amount := r.FallbackAmount
	if r.Amount != nil {
		amount = *r.Amount
	}

	method := constant.Empty
	if r.Method != nil {
		method = *r.Method
	}

	now := timezone.Now()

	return model.Payment{
		ID:        uuid.NewString(),
		BookingID: r.EntityID,
		Type:      r.Type,
		Amount:    amount,
		Method:    method,
		Status:    r.Status,
		Date:      now,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

// Fields is the merge-update applied to an existing record.
func (r ReconcileRequest) Fields(user string) map[string]any {
	fields := map[string]any{
		model.FieldBookingID:     r.EntityID,
		model.FieldStatus:        r.Status,
		model.FieldDate:          timezone.Now(),
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if r.Amount != nil {
		fields[model.FieldAmount] = *r.Amount
	}

	if r.Method != nil {
		fields[model.FieldMethod] = *r.Method
	}

	return fields
}

// Merge returns existing with the request applied, mirroring Fields.
func (r ReconcileRequest) Merge(existing model.Payment, user string) model.Payment {
	existing.BookingID = r.EntityID
	existing.Status = r.Status
	existing.Date = timezone.Now()
	existing.ModifiedAt = existing.Date
	existing.ModifiedBy = user

	if r.Amount != nil {
		existing.Amount = *r.Amount
	}

	if r.Method != nil {
		existing.Method = *r.Method
	}

	return existing
}

type UpdatePaymentRequest struct {
	Amount *int64 `db:"amount" json:"amount" validate:"omitempty,min=0"`
	Method string `db:"method" json:"method" validate:"omitempty,oneof=card cash mpesa"`
	Status string `db:"status" json:"status" validate:"omitempty,oneof=pending completed failed"`
}

func (u UpdatePaymentRequest) IsEmpty() bool {
	return u.Amount == nil && u.Method == constant.Empty && u.Status == constant.Empty
}

type PaymentResponse struct {
	ID        string `json:"id"`
	BookingID string `json:"booking_id"`
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	Date      string `json:"date"`
	gDto.Metadata
}

func (r *PaymentResponse) FromModel(model model.Payment) {
	r.ID = model.ID
	r.BookingID = model.BookingID
	r.Type = string(model.Type)
	r.Amount = model.Amount
	r.Method = model.Method
	r.Status = model.Status.String()
	r.Date = timezone.Format(model.Date, constant.DateFormat)
	r.Metadata.FromModel(model.Metadata)
}

type GetPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetPaymentsResponse) FromModels(models []model.Payment, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Payments = make([]PaymentResponse, len(models))
	for i, mod := range models {
		r.Payments[i].FromModel(mod)
	}
}

// Subject is an entity whose lifecycle status drives its payment during a
// sweep.
type Subject struct {
	IDs    []string
	Type   model.Type
	Status lifecycle.Status
}

type Correction struct {
	PaymentID string
	From      lifecycle.PaymentStatus
	To        lifecycle.PaymentStatus
}
