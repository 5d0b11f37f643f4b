package dto

import (
	"time"

	"lodge/internal/domains/notification/model"
	"lodge/shared"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	gModel "lodge/shared/model"
	"lodge/shared/timezone"

	"github.com/google/uuid"
)

type SendPushRequest struct {
	Title string     `json:"title" validate:"required,max=100"`
	Body  string     `json:"body"  validate:"required,max=500"`
	Role  string     `json:"role"  validate:"omitempty,oneof=superadmin admin staff"`
	Kind  model.Kind `json:"-"`
}

func (r SendPushRequest) ToMessage(now time.Time) PushMessage {
	kind := r.Kind
	if kind == constant.Empty {
		kind = model.KindManual
	}

	return PushMessage{
		ID:     uuid.NewString(),
		Title:  r.Title,
		Body:   r.Body,
		Role:   r.Role,
		Kind:   kind,
		SentAt: now,
	}
}

// PushMessage is the value written to the push topic.
type PushMessage struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Body   string     `json:"body"`
	Role   string     `json:"role,omitempty"`
	Kind   model.Kind `json:"kind"`
	SentAt time.Time  `json:"sent_at"`
}

func (m PushMessage) ToModel() model.Notification {
	id := m.ID
	if id == constant.Empty {
		id = uuid.NewString()
	}

	sentAt := m.SentAt
	if sentAt.IsZero() {
		sentAt = timezone.Now()
	}

	return model.Notification{
		ID:    id,
		Title: m.Title,
		Body:  m.Body,
		Role:  m.Role,
		Kind:  m.Kind,
		Metadata: gModel.Metadata{
			CreatedAt:  sentAt,
			ModifiedAt: sentAt,
			CreatedBy:  constant.ContextSystem,
			ModifiedBy: constant.ContextSystem,
		},
	}
}

type NotificationResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Role   string `json:"role,omitempty"`
	Kind   string `json:"kind"`
	Read   bool   `json:"read"`
	ReadAt string `json:"read_at,omitempty"`
	gDto.Metadata
}

func (r *NotificationResponse) FromModel(notification model.Notification) {
	r.ID = notification.ID
	r.Title = notification.Title
	r.Body = notification.Body
	r.Role = notification.Role
	r.Kind = string(notification.Kind)
	r.Read = notification.ReadAt != nil

	if notification.ReadAt != nil {
		r.ReadAt = timezone.Format(*notification.ReadAt, constant.DateFormat)
	}

	r.Metadata.FromModel(notification.Metadata)
}

type GetNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	TotalPage     int                    `json:"total_page"`
	TotalData     int                    `json:"total_data"`
}

func (r *GetNotificationsResponse) FromModels(models []model.Notification, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Notifications = make([]NotificationResponse, len(models))
	for i, mod := range models {
		r.Notifications[i].FromModel(mod)
	}
}

type MarkReadRequest struct {
	ReadAt time.Time `db:"read_at"`
}

// BadgeResponse counts the items waiting on an admin.
type BadgeResponse struct {
	PendingBookings int    `json:"pending_bookings"`
	PendingEvents   int    `json:"pending_events"`
	OverdueStays    int    `json:"overdue_stays"`
	Total           int    `json:"total"`
	UpdatedAt       string `json:"updated_at"`
}

func NewBadge(pendingBookings, pendingEvents, overdueStays int, now time.Time) BadgeResponse {
	return BadgeResponse{
		PendingBookings: pendingBookings,
		PendingEvents:   pendingEvents,
		OverdueStays:    overdueStays,
		Total:           pendingBookings + pendingEvents + overdueStays,
		UpdatedAt:       timezone.Format(now, constant.DateFormat),
	}
}
