package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"path/filepath"

	"github.com/electromart/electromart-api/models"
)

type ReceiptData struct {
	Name          string
	Amount        float64
	TransactionID string
	CardLast4     string
}

func SendEmail(emailTo string, emailSubject string, data any, templatePath string) error {
	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var body bytes.Buffer
	err = tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	message := fmt.Sprintf(
		"From: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		os.Getenv("FROM_EMAIL"),
		emailSubject,
		body.String(),
	)

	auth := smtp.PlainAuth(
		"",
		os.Getenv("FROM_EMAIL"),
		os.Getenv("FROM_EMAIL_PASSWORD"),
		os.Getenv("FROM_EMAIL_SMTP"),
	)

	err = smtp.SendMail(os.Getenv("SMTP_ADDRESS"), auth, os.Getenv("FROM_EMAIL"), []string{emailTo}, []byte(message))
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func SendPaymentReceipt(emailTo string, name string, payment models.Payment) error {
	payment.Redact()
	data := ReceiptData{
		Name:          name,
		Amount:        payment.Amount,
		TransactionID: payment.TransactionID,
		CardLast4:     payment.CardLast4,
	}
	templatePath := filepath.Join("templates", "payment_receipt.html")
	return SendEmail(emailTo, "Your ElectroMart Payment Receipt", data, templatePath)
}
