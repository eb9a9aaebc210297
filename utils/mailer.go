package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/sirupsen/logrus"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Mailer sends plain-text email through SES. Without a sender address it
// only logs, which keeps local development free of AWS.
type Mailer struct {
	client sesAPI
	from   string
	log    *logrus.Entry
}

func NewMailer(ctx context.Context, region, from string, log *logrus.Logger) (*Mailer, error) {
	m := &Mailer{from: from, log: log.WithField("component", "mailer")}
	if from == "" {
		return m, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for SES: %w", err)
	}
	m.client = ses.NewFromConfig(cfg)
	return m, nil
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.client == nil {
		m.log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("email not sent: SES_EMAIL not configured")
		return nil
	}

	_, err := m.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(m.from),
	})
	if err != nil {
		m.log.WithError(err).WithField("to", to).Error("SES send failed")
		return fmt.Errorf("email send failed: %w", err)
	}
	return nil
}

func (m *Mailer) SendResetCode(ctx context.Context, to, code string) error {
	body := fmt.Sprintf("Your password reset code is: %s\n\nIt expires in 15 minutes. Use it in the app to set a new password.", code)
	return m.send(ctx, to, "Password Reset Code", body)
}

// Digest is last week's summary for the weekly email.
type Digest struct {
	Name          string
	From, To      string
	DaysLogged    int
	AvgCalories   float64
	GoalCalories  float64
	AvgProtein    float64
	AvgWaterMl    float64
	Adherence     float64
	CurrentStreak int
	TopFoods      []string
}

func (m *Mailer) SendWeeklyDigest(ctx context.Context, to string, d Digest) error {
	return m.send(ctx, to, "Your week in Carbculator", DigestBody(d))
}

func DigestBody(d Digest) string {
	var b strings.Builder
	name := d.Name
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nHere is your week from %s to %s.\n\n", name, d.From, d.To)
	if d.DaysLogged == 0 {
		b.WriteString("You didn't log any meals last week. Snap a photo of your next meal to get back on track.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Days logged: %d of 7\n", d.DaysLogged)
	if d.GoalCalories > 0 {
		fmt.Fprintf(&b, "Average calories: %.0f kcal (goal %.0f kcal)\n", d.AvgCalories, d.GoalCalories)
	} else {
		fmt.Fprintf(&b, "Average calories: %.0f kcal\n", d.AvgCalories)
	}
	fmt.Fprintf(&b, "Average protein: %.0f g\n", d.AvgProtein)
	fmt.Fprintf(&b, "Average water: %.0f ml\n", d.AvgWaterMl)
	fmt.Fprintf(&b, "Days on track: %.0f%%\n", d.Adherence)
	if d.CurrentStreak > 0 {
		fmt.Fprintf(&b, "Current streak: %d days\n", d.CurrentStreak)
	}
	if len(d.TopFoods) > 0 {
		fmt.Fprintf(&b, "Most logged: %s\n", strings.Join(d.TopFoods, ", "))
	}
	return b.String()
}
