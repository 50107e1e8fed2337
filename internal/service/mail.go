package service

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type otpMail struct {
	To   string
	Code string
}

// MailQueue is the outbound channel for verification mail. Enqueue
// never blocks the request that triggered it: jobs go into a buffered
// channel and a small worker pool drains it over SMTP. A full queue or
// a failed send is logged and dropped, the code is already durable and
// the user can always ask for a resend
type MailQueue struct {
	jobs    chan otpMail
	workers int
}

// NewMailQueue initializes the queue and limits how many undelivered
// mails may pile up before new ones are dropped
func NewMailQueue() *MailQueue {
	workers := viper.GetInt("mail.workers")
	if workers <= 0 {
		workers = 2
	}

	return &MailQueue{
		jobs:    make(chan otpMail, 64),
		workers: workers,
	}
}

func (q *MailQueue) StartWorkerPool() {
	for range q.workers {
		go q.worker()
	}
}

func (q *MailQueue) worker() {
	for job := range q.jobs {
		if err := sendOtpMail(job.To, job.Code); err != nil {
			zap.L().Error("Failed to send verification mail", zap.Error(err))
			continue
		}

		zap.L().Debug("Verification mail sent")
	}
}

// Enqueue hands a verification code off for delivery and returns
// immediately
func (q *MailQueue) Enqueue(to, code string) {
	select {
	case q.jobs <- otpMail{To: to, Code: code}:
	default:
		zap.L().Warn("Mail queue full, dropping verification mail")
	}
}

func sendOtpMail(to, code string) error {
	from := viper.GetString("mail.sender")
	if to == from {
		return fmt.Errorf("invalid recipient address")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Your Cobi verification code")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Your verification code is:</p><h1>%v</h1><p>This code will expire in 10 minutes.</p>"+
			"<p>If you didn't request this code, please ignore this email.</p>", code))

	d := gomail.NewDialer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		from,
		viper.GetString("mail.password"),
	)

	return d.DialAndSend(m)
}
