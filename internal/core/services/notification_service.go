package services

import (
	"context"
	"fmt"
	"log"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/mailer"
)

// NotificationService sends the membership e-mails enabled in the notification settings.
// Delivery is best effort: failures are logged and never fail the calling operation.
type NotificationService struct {
	settings *SettingsService
	mailer   mailer.Mailer
}

// NewNotificationService creates a new notification service
func NewNotificationService(settings *SettingsService, m mailer.Mailer) *NotificationService {
	return &NotificationService{settings: settings, mailer: m}
}

// send delivers msg when the account is configured and the toggle is on
func (s *NotificationService) send(ctx context.Context, enabled func(*models.NotificationSettings) bool, msg mailer.Message) bool {
	rt, err := s.settings.Current(ctx)
	if err != nil {
		log.Printf("⚠️ Notification skipped, settings unavailable: %v", err)
		return false
	}
	if !enabled(&rt.Notifications) || !rt.Email.Configured() || len(msg.To) == 0 {
		return false
	}

	if err := s.mailer.Send(ctx, rt.MailAccount(), msg); err != nil {
		log.Printf("⚠️ Failed to send notification %q: %v", msg.Subject, err)
		return false
	}
	return true
}

func recipients(addresses ...string) []string {
	var to []string
	for _, a := range addresses {
		if a != "" {
			to = append(to, a)
		}
	}
	return to
}

// NotifyNewMember tells the organization mailbox that a member was registered
func (s *NotificationService) NotifyNewMember(ctx context.Context, member *models.Member) {
	rt, err := s.settings.Current(ctx)
	if err != nil {
		return
	}
	s.send(ctx, func(n *models.NotificationSettings) bool { return n.EnableNewMember }, mailer.Message{
		To:      recipients(rt.System.Email),
		Subject: "عضو جديد: " + member.FullName,
		Body: fmt.Sprintf("تم تسجيل عضو جديد.\nالاسم: %s\nالإقليم: %s\nرقم البطاقة: %s",
			member.FullName, member.Province, member.CardNumber),
	})
}

// NotifyPaymentReceived confirms a submitted payment to the paying member
func (s *NotificationService) NotifyPaymentReceived(ctx context.Context, entry *models.IncomeEntry, member *models.Member) {
	if member == nil {
		return
	}
	s.send(ctx, func(n *models.NotificationSettings) bool { return n.EnablePaymentReceived }, mailer.Message{
		To:      recipients(member.Email),
		Subject: "استلام دفعة",
		Body: fmt.Sprintf("تم استلام دفعتكم بمبلغ %.2f درهم (%s) بتاريخ %s.",
			entry.Amount, entry.EntryType, entry.PostingDate.Format(dateutil.Layout)),
	})
}

// SendExpiryReminders warns the holders of cards about to expire and
// returns how many reminders were delivered
func (s *NotificationService) SendExpiryReminders(ctx context.Context, cards []models.MembershipCard) int {
	sent := 0
	for _, card := range cards {
		if card.Member == nil {
			continue
		}
		ok := s.send(ctx, func(n *models.NotificationSettings) bool { return n.EnableMembershipExpiry }, mailer.Message{
			To:      recipients(card.Member.Email),
			Subject: "تنبيه انتهاء العضوية",
			Body: fmt.Sprintf("السيد(ة) %s، تنتهي صلاحية بطاقة العضوية رقم %s بتاريخ %s. يرجى تجديد العضوية.",
				card.Member.FullName, card.CardNumber, card.ExpiryDate.Format(dateutil.Layout)),
		})
		if ok {
			sent++
		}
	}
	return sent
}
