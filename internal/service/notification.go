package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"busbooking/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationCatalogDegraded  NotificationType = "CATALOG_DEGRADED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // Rider identifier, or "ops" for operator alerts
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct{}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyBookingConfirmed tells the rider their seats are booked.
func (s *NotificationService) NotifyBookingConfirmed(ctx context.Context, record *domain.BookingRecord) error {
	seats := make([]string, len(record.Seats))
	for i, seat := range record.Seats {
		seats[i] = fmt.Sprint(int(seat))
	}

	notification := Notification{
		Type:        NotificationBookingConfirmed,
		RecipientID: record.RiderIdentifier,
		Title:       "Booking Confirmed",
		Message: fmt.Sprintf("Booking %s: seats %s on bus %s, %s -> %s at %s. Total %d",
			record.ID, strings.Join(seats, ","), record.Leg.BusID,
			record.BoardingPoint, record.Leg.Destination, record.Leg.DepartureTime, record.TotalPrice),
		Data: map[string]interface{}{
			"booking_id":  record.ID,
			"leg_id":      record.Leg.ID,
			"seats":       record.Seats,
			"total_price": record.TotalPrice,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyCatalogDegraded alerts operators that the catalog store is failing.
func (s *NotificationService) NotifyCatalogDegraded(ctx context.Context, cause error) error {
	notification := Notification{
		Type:        NotificationCatalogDegraded,
		RecipientID: "ops",
		Title:       "Catalog Degraded",
		Message:     fmt.Sprintf("Route catalog store unavailable, serving last snapshot: %v", cause),
		CreatedAt:   time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (log-backed).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
