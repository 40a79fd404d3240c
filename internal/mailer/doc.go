// Package mailer delivers the generated report by e-mail.
//
// SMTPSender opens one authenticated SMTP session per message and never
// retries. Callers decide whether a failed delivery matters; the pipeline
// logs it and keeps the run successful.
package mailer
