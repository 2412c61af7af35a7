package notification

import (
	"context"

	"go.uber.org/zap"
)

// DefaultSupportEmail is shown in every booking email unless overridden.
const DefaultSupportEmail = "manmitra25@gmail.com"

// DefaultNotificationService renders booking emails and hands them to an
// EmailSender, one message per party.
type DefaultNotificationService struct {
	Sender       EmailSender
	AppName      string
	SupportEmail string
	Logger       *zap.Logger
}

func NewDefaultNotificationService(sender EmailSender, supportEmail string, logger *zap.Logger) *DefaultNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if supportEmail == "" {
		supportEmail = DefaultSupportEmail
	}
	return &DefaultNotificationService{
		Sender:       sender,
		AppName:      "Counselling",
		SupportEmail: supportEmail,
		Logger:       logger,
	}
}

func (s *DefaultNotificationService) SendBookingConfirmation(ctx context.Context, notice BookingNotice) DeliveryReport {
	return s.dispatch(ctx, kindConfirmation, notice)
}

func (s *DefaultNotificationService) SendSessionReminder(ctx context.Context, notice BookingNotice) DeliveryReport {
	return s.dispatch(ctx, kindReminder, notice)
}

func (s *DefaultNotificationService) dispatch(ctx context.Context, kind string, notice BookingNotice) DeliveryReport {
	var report DeliveryReport
	recipients := []struct{ role, email string }{
		{RecipientStudent, notice.StudentEmail},
		{RecipientTherapist, notice.TherapistEmail},
	}
	for _, r := range recipients {
		if r.email == "" {
			continue
		}
		report.Attempted++

		msg, err := buildEmail(kind, r.role, notice, s.AppName, s.SupportEmail)
		if err == nil {
			if s.Sender == nil {
				err = errNoSender
			} else {
				err = s.Sender.Send(ctx, msg)
			}
		}
		if err != nil {
			s.Logger.Warn("booking email not delivered",
				zap.String("kind", kind),
				zap.String("role", r.role),
				zap.String("to", r.email),
				zap.Error(err))
			report.Failures = append(report.Failures, DeliveryFailure{Recipient: r.email, Reason: err.Error()})
			continue
		}
		report.Delivered++
	}
	return report
}
