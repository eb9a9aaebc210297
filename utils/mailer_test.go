package utils

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct{ sent []*ses.SendEmailInput }

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.sent = append(f.sent, in)
	return &ses.SendEmailOutput{}, nil
}

func TestMailerSendResetCode(t *testing.T) {
	fake := &fakeSES{}
	m := &Mailer{client: fake, from: "noreply@example.com", log: logrus.NewEntry(logrus.New())}

	require.NoError(t, m.SendResetCode(context.Background(), "ana@example.com", "123456"))
	require.Len(t, fake.sent, 1)
	in := fake.sent[0]
	assert.Equal(t, []string{"ana@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "noreply@example.com", aws.ToString(in.Source))
	assert.Contains(t, aws.ToString(in.Message.Body.Text.Data), "123456")
}

func TestMailerWithoutSenderOnlyLogs(t *testing.T) {
	m, err := NewMailer(context.Background(), "us-east-1", "", logrus.New())
	require.NoError(t, err)
	assert.NoError(t, m.SendResetCode(context.Background(), "ana@example.com", "123456"))
}

func TestDigestBody(t *testing.T) {
	body := DigestBody(Digest{
		Name: "Ana", From: "2024-01-01", To: "2024-01-07",
		DaysLogged: 5, AvgCalories: 1890.4, GoalCalories: 2000, AvgProtein: 96,
		AvgWaterMl: 1800, Adherence: 80, CurrentStreak: 3, TopFoods: []string{"Oatmeal", "Salad"},
	})
	assert.Contains(t, body, "Hi Ana")
	assert.Contains(t, body, "Days logged: 5 of 7")
	assert.Contains(t, body, "Average calories: 1890 kcal (goal 2000 kcal)")
	assert.Contains(t, body, "Days on track: 80%")
	assert.Contains(t, body, "Most logged: Oatmeal, Salad")

	empty := DigestBody(Digest{From: "2024-01-01", To: "2024-01-07"})
	assert.Contains(t, empty, "Hi there")
	assert.Contains(t, empty, "didn't log any meals")
}
