package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parkit/internal/config"
	"parkit/internal/db"
	"parkit/internal/repository"
)

// NotifyService delivers reservation status changes to the booking user by
// email and SMS. Delivery runs fire-and-forget in a goroutine so lifecycle
// transitions never wait on SendGrid or Twilio.
type NotifyService struct {
	store repository.Store
	cfg   *config.Config
	log   zerolog.Logger
}

func NewNotifyService(store repository.Store, cfg *config.Config, log zerolog.Logger) *NotifyService {
	return &NotifyService{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "notify").Logger(),
	}
}

func (s *NotifyService) ReservationEvent(res *db.Reservation, event string) {
	go s.deliver(res, event)
}

func (s *NotifyService) deliver(res *db.Reservation, event string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	user, err := s.store.FindUser(ctx, res.UserID)
	if err != nil || user == nil {
		s.log.Warn().Err(err).Int64("user_id", res.UserID).Str("code", res.Code).
			Msg("cannot resolve user for notification")
		return
	}

	subject := fmt.Sprintf("Your ParkIt reservation %s is %s", res.Code, event)
	body := fmt.Sprintf(
		"Hello %s,\n\nYour parking reservation is %s.\n\n"+
			"Reservation code: %s\n"+
			"Vehicle plate: %s\n"+
			"From: %s\n"+
			"To: %s\n\n"+
			"Thank you for choosing ParkIt.",
		user.Name, event, res.Code, res.VehiclePlate,
		res.StartTime.Format("02 Jan 2006 15:04 MST"),
		res.EndTime.Format("02 Jan 2006 15:04 MST"),
	)
	if err := SendEmailWithSendGrid(s.cfg, user.Email, user.Name, subject, body); err != nil {
		s.log.Warn().Err(err).Str("code", res.Code).Msg("email notification failed")
	}

	sms := fmt.Sprintf("ParkIt: reservation %s is %s. From %s.",
		res.Code, event, res.StartTime.Format("02/01 15:04"))
	if err := SendSMS(s.cfg, user.Phone, sms); err != nil {
		s.log.Warn().Err(err).Str("code", res.Code).Msg("sms notification failed")
	}
}
