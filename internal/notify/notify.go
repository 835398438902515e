// Package notify carries booking domain events to the outside world. Delivery
// (email, push) is somebody else's problem; a failed dispatch is logged and
// never rolls back the booking it describes.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicops/scheduling/internal/schedule"
)

const (
	EventBookingCreated     = "booking_created"
	EventBookingRescheduled = "booking_rescheduled"
	EventStatusChanged      = "status_changed"
	EventBookingReminder    = "booking_reminder"
)

type Event struct {
	Type           string             `json:"type"`
	BookingID      uuid.UUID          `json:"booking_id"`
	PractitionerID uuid.UUID          `json:"practitioner_id"`
	PatientID      uuid.UUID          `json:"patient_id"`
	Date           schedule.Date      `json:"date"`
	Start          schedule.TimeOfDay `json:"start_time"`
	End            schedule.TimeOfDay `json:"end_time"`
	NewStatus      string             `json:"new_status,omitempty"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// RedisDispatcher publishes events on a Redis channel for downstream
// consumers (mailers, push gateways, the reminder pipeline).
type RedisDispatcher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisDispatcher(client *redis.Client, channel string, logger *zap.Logger) *RedisDispatcher {
	return &RedisDispatcher{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("marshal event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	if err := d.client.Publish(ctx, d.channel, payload).Err(); err != nil {
		d.logger.Error("publish event",
			zap.String("type", ev.Type),
			zap.String("booking_id", ev.BookingID.String()),
			zap.Error(err))
	}
}

// LogDispatcher just logs events. Useful when no broker is wired up.
type LogDispatcher struct {
	logger *zap.Logger
}

func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Dispatch(_ context.Context, ev Event) {
	d.logger.Info("booking event",
		zap.String("type", ev.Type),
		zap.String("booking_id", ev.BookingID.String()),
		zap.String("date", ev.Date.String()),
		zap.String("range", fmt.Sprintf("%s-%s", ev.Start, ev.End)),
		zap.String("new_status", ev.NewStatus))
}
