// Package digest e-mails every user a weekly summary of their income,
// expenses and balance.
package digest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/finance-service/internal/models"
)

// Period is the number of days a digest covers, today included.
const Period = 7

// UserLister lists every registered user.
type UserLister interface {
	ListUsers(ctx context.Context) ([]models.User, error)
}

// Summarizer returns a user's filtered transactions with totals.
type Summarizer interface {
	FindAll(ctx context.Context, userID string, filters models.TransactionFilters) (*models.TransactionSummary, error)
}

// Sender delivers a plain-text message.
type Sender interface {
	Send(to, subject, body string) error
}

// Job builds and sends one digest per user.
type Job struct {
	users     UserLister
	summaries Summarizer
	sender    Sender
	logger    *logrus.Logger
	now       func() time.Time
}

// NewJob builds a digest job that reads from users and summaries and
// delivers through sender.
func NewJob(users UserLister, summaries Summarizer, sender Sender, logger *logrus.Logger) *Job {
	return &Job{
		users:     users,
		summaries: summaries,
		sender:    sender,
		logger:    logger,
		now:       time.Now,
	}
}

// Run sends the digest for the last Period days to every user and returns how
// many were sent. A failure for one user is logged and does not stop the run.
func (j *Job) Run(ctx context.Context) (int, error) {
	users, err := j.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	end := models.DateOf(j.now())
	start := end.AddDays(-(Period - 1))
	filters := models.TransactionFilters{StartDate: &start, EndDate: &end}

	sent := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		log := j.logger.WithField("user_id", user.ID)

		summary, err := j.summaries.FindAll(ctx, user.ID, filters)
		if err != nil {
			log.Errorf("Failed to build digest: %v", err)
			continue
		}
		subject, body := render(user, start, end, summary)
		if err := j.sender.Send(user.Email, subject, body); err != nil {
			log.Errorf("Failed to send digest: %v", err)
			continue
		}
		sent++
	}

	j.logger.WithFields(logrus.Fields{
		"users": len(users),
		"sent":  sent,
		"from":  start.String(),
		"to":    end.String(),
	}).Info("Weekly digest finished")
	return sent, nil
}

func render(user models.User, start, end models.Date, summary *models.TransactionSummary) (string, string) {
	subject := fmt.Sprintf("Your finances from %s to %s", start, end)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Name)
	if len(summary.Transactions) == 0 {
		fmt.Fprintf(&b, "You recorded no transactions between %s and %s.\n", start, end)
	} else {
		fmt.Fprintf(&b, "Here is your summary for %s to %s.\n\n", start, end)
		fmt.Fprintf(&b, "Income:       %s\n", summary.TotalIncome)
		fmt.Fprintf(&b, "Expenses:     %s\n", summary.TotalExpense)
		fmt.Fprintf(&b, "Balance:      %s\n", summary.Balance)
		fmt.Fprintf(&b, "Transactions: %d\n", len(summary.Transactions))
	}
	b.WriteString("\nBest regards,\nFinance Service")
	return subject, b.String()
}
