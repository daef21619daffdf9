package scheduler

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civicfix/complaint-api/databases"
	"github.com/civicfix/complaint-api/models"
	templates "github.com/civicfix/complaint-api/templates/html"
)

// Scheduler handles the portal's periodic background jobs
type Scheduler struct {
	cron *cron.Cron
	ODB  databases.OTPDatabase
	CDB  databases.ComplaintDatabase
	UDB  databases.UserDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(odb databases.OTPDatabase, cdb databases.ComplaintDatabase, udb databases.UserDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		ODB:  odb,
		CDB:  cdb,
		UDB:  udb,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Purge expired signup codes hourly
	_, err := s.cron.AddFunc("0 * * * *", s.purgeExpiredOTPs)
	if err != nil {
		zap.S().Errorw("failed to register otp purge job", "error", err)
	}

	// Email the unresolved-work digest to admins daily at 6 AM UTC
	_, err = s.cron.AddFunc("0 6 * * *", s.sendAdminDigest)
	if err != nil {
		zap.S().Errorw("failed to register admin digest job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Background scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Background scheduler stopped")
}

// purgeExpiredOTPs clears verification codes past their expiry so abandoned
// signups do not pile up
func (s *Scheduler) purgeExpiredOTPs() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	filter := bson.M{"expiresAt": bson.M{"$lt": primitive.NewDateTimeFromTime(time.Now())}}
	deleted, err := s.ODB.DeleteMany(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to purge expired otps", "error", err)
		return
	}
	if deleted > 0 {
		zap.S().Infow("Purged expired signup codes", "count", deleted)
	}
}

// sendAdminDigest mails every administrator the morning queue summary
func (s *Scheduler) sendAdminDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	newCount, err := s.CDB.CountDocuments(ctx, bson.M{"status": models.StatusNew})
	if err != nil {
		zap.S().Errorw("failed to count new complaints", "error", err)
		return
	}
	inProgressCount, err := s.CDB.CountDocuments(ctx, bson.M{"status": models.StatusInProgress})
	if err != nil {
		zap.S().Errorw("failed to count in progress complaints", "error", err)
		return
	}
	if newCount == 0 && inProgressCount == 0 {
		zap.S().Debug("Queue is clear, skipping admin digest")
		return
	}

	admins, err := s.UDB.Find(ctx, bson.M{"isAdmin": true})
	if err != nil {
		zap.S().Errorw("failed to find admins for digest", "error", err)
		return
	}

	subject := "CivicFix daily complaint digest"
	html := templates.RenderAdminDigestEmail(newCount, inProgressCount)
	plain := "Unresolved complaints this morning. Log in to the dashboard to triage."

	sent := 0
	for _, admin := range admins {
		if admin.Email == "" {
			continue
		}
		if err := s.sendEmail(admin.Email, admin.FullName, subject, html, plain); err != nil {
			zap.S().Errorw("failed to send digest email", "userId", admin.ID.Hex(), "error", err)
			continue
		}
		sent++
	}

	zap.S().Infow("Admin digest sent",
		"new", newCount,
		"inProgress", inProgressCount,
		"recipients", sent,
	)
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("CivicFix", "no-reply@civicfix.app")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
