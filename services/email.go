package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	baseURL      string

	templates map[string]*template.Template
}

const EMAIL_SVC = "email_svc"

const appName = "Plano de Vida"

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	svc.smtpHost = os.Getenv("SMTP_HOST")
	svc.smtpPort = os.Getenv("SMTP_PORT")
	svc.smtpUsername = os.Getenv("SMTP_USERNAME")
	svc.smtpPassword = os.Getenv("SMTP_PASSWORD")
	svc.fromEmail = os.Getenv("FROM_EMAIL")
	svc.fromName = os.Getenv("FROM_NAME")
	svc.baseURL = os.Getenv("BASE_URL")

	if svc.smtpPort == "" {
		svc.smtpPort = "587"
	}
	if svc.fromName == "" {
		svc.fromName = appName
	}
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:8000"
	}

	svc.templates = make(map[string]*template.Template)

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	err := svc.loadTemplates()
	if err != nil {
		log.WithError(err).Error("Failed to load email templates")
		// Don't fail startup, just log the error
	}

	return nil
}

const verificationEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Confirme seu email - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2563EB; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; background-color: white; border-radius: 5px; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Bem-vindo ao {{.AppName}}!</h1>
        </div>
        <div class="content">
            <h2>Olá {{.Username}},</h2>
            <p>Obrigado por se cadastrar no {{.AppName}}. Use o código abaixo para confirmar seu endereço de email:</p>
            <div class="code">{{.Code}}</div>
            <p>Este código expira em 15 minutos.</p>
            <p>Se você não criou uma conta no {{.AppName}}, pode ignorar este email.</p>
        </div>
        <div class="footer">
            <p>&copy; 2025 {{.AppName}}. Todos os direitos reservados.</p>
        </div>
    </div>
</body>
</html>
`

const passwordResetEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Redefinir senha - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #DC2626; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .button { display: inline-block; padding: 12px 24px; background-color: #DC2626; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
        .warning { background-color: #FEF2F2; border-left: 4px solid #DC2626; padding: 10px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Redefinição de senha</h1>
        </div>
        <div class="content">
            <h2>Olá {{.Username}},</h2>
            <p>Recebemos uma solicitação para redefinir a senha da sua conta no {{.AppName}}.</p>
            <a href="{{.ResetURL}}" class="button">Redefinir senha</a>
            <p>Se o botão não funcionar, copie e cole este link no seu navegador:</p>
            <p><a href="{{.ResetURL}}">{{.ResetURL}}</a></p>
            <div class="warning">
                <strong>Importante:</strong> este link expira em 1 hora.
            </div>
            <p>Se você não solicitou a redefinição, ignore este email. Sua senha permanecerá a mesma.</p>
        </div>
        <div class="footer">
            <p>&copy; 2025 {{.AppName}}. Todos os direitos reservados.</p>
        </div>
    </div>
</body>
</html>
`

const achievementEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Conquista desbloqueada - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #D97706; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .badge { background-color: #FFFBEB; border-left: 4px solid #D97706; padding: 15px; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🏆 Conquista desbloqueada!</h1>
        </div>
        <div class="content">
            <h2>Parabéns, {{.Username}}!</h2>
            <p>Você acaba de desbloquear uma nova conquista no seu plano de vida:</p>
            <div class="badge">
                <strong>{{.AchievementName}}</strong><br>
                {{.AchievementDescription}}
            </div>
            <p>Continue assim! Acesse o {{.AppName}} para ver seu progresso.</p>
        </div>
        <div class="footer">
            <p>&copy; 2025 {{.AppName}}. Todos os direitos reservados.</p>
        </div>
    </div>
</body>
</html>
`

const reminderEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Suas metas de {{.Year}} - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #059669; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .goal { background-color: white; padding: 12px; border-radius: 5px; margin: 8px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Lembrete do seu plano de vida</h1>
        </div>
        <div class="content">
            <h2>Olá {{.Username}},</h2>
            <p>Você tem {{.PendingCount}} meta(s) pendente(s) para {{.Year}}:</p>
            {{range .Goals}}<div class="goal">{{.}}</div>
            {{end}}
            <p>Acesse o {{.AppName}} e registre seu progresso. Cada meta concluída conta para sua sequência!</p>
        </div>
        <div class="footer">
            <p>Você recebe este email porque os lembretes estão ativados no seu perfil.</p>
            <p>&copy; 2025 {{.AppName}}. Todos os direitos reservados.</p>
        </div>
    </div>
</body>
</html>
`

type VerificationEmailData struct {
	AppName  string
	Username string
	Code     string
}

type PasswordResetEmailData struct {
	AppName  string
	Username string
	ResetURL string
}

type AchievementEmailData struct {
	AppName                string
	Username               string
	AchievementName        string
	AchievementDescription string
}

type ReminderEmailData struct {
	AppName      string
	Username     string
	Year         int
	PendingCount int
	Goals        []string
}

func (svc *EmailService) loadTemplates() error {
	var err error

	svc.templates["verification"], err = template.New("verification").Parse(verificationEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse verification email template: %v", err)
	}

	svc.templates["password_reset"], err = template.New("password_reset").Parse(passwordResetEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse password reset email template: %v", err)
	}

	svc.templates["achievement"], err = template.New("achievement").Parse(achievementEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse achievement email template: %v", err)
	}

	svc.templates["reminder"], err = template.New("reminder").Parse(reminderEmailHTML)
	if err != nil {
		return fmt.Errorf("failed to parse reminder email template: %v", err)
	}

	return nil
}

func (svc *EmailService) SendVerificationEmail(email, username, code string) error {
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, skipping verification email")
		return nil
	}

	data := VerificationEmailData{
		AppName:  appName,
		Username: username,
		Code:     code,
	}

	subject := fmt.Sprintf("Confirme seu email - %s", appName)
	return svc.sendTemplateEmail(email, subject, "verification", data)
}

func (svc *EmailService) SendPasswordResetEmail(email, username, token string) error {
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, skipping password reset email")
		return nil
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", svc.baseURL, token)

	data := PasswordResetEmailData{
		AppName:  appName,
		Username: username,
		ResetURL: resetURL,
	}

	subject := fmt.Sprintf("Redefinir senha - %s", appName)
	return svc.sendTemplateEmail(email, subject, "password_reset", data)
}

func (svc *EmailService) SendAchievementEmail(email, username, achievementName, achievementDescription string) error {
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, skipping achievement email")
		return nil
	}

	data := AchievementEmailData{
		AppName:                appName,
		Username:               username,
		AchievementName:        achievementName,
		AchievementDescription: achievementDescription,
	}

	subject := fmt.Sprintf("🏆 Conquista desbloqueada - %s", appName)
	return svc.sendTemplateEmail(email, subject, "achievement", data)
}

func (svc *EmailService) SendReminderEmail(email, username string, year int, goals []string) error {
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, skipping reminder email")
		return nil
	}

	data := ReminderEmailData{
		AppName:      appName,
		Username:     username,
		Year:         year,
		PendingCount: len(goals),
		Goals:        goals,
	}

	subject := fmt.Sprintf("Suas metas de %d - %s", year, appName)
	return svc.sendTemplateEmail(email, subject, "reminder", data)
}

func (svc *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	tmpl, exists := svc.templates[templateName]
	if !exists {
		return fmt.Errorf("template %s not found", templateName)
	}

	var body bytes.Buffer
	err := tmpl.Execute(&body, data)
	if err != nil {
		return fmt.Errorf("failed to execute template: %v", err)
	}

	return svc.sendEmail(to, subject, body.String())
}

func (svc *EmailService) sendEmail(to, subject, body string) error {
	if svc.smtpHost == "" {
		return fmt.Errorf("SMTP not configured")
	}

	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		svc.fromName, svc.fromEmail, to, subject, body))

	err := smtp.SendMail(
		svc.smtpHost+":"+svc.smtpPort,
		auth,
		svc.fromEmail,
		[]string{to},
		msg,
	)

	if err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email sent successfully")
	return nil
}

func (svc *EmailService) TestEmailConfig() error {
	if svc.smtpHost == "" {
		return fmt.Errorf("SMTP host not configured")
	}

	testEmail := svc.fromEmail
	if testEmail == "" {
		return fmt.Errorf("from email not configured")
	}

	subject := fmt.Sprintf("Test Email Configuration - %s", appName)
	body := "This is a test email to verify SMTP configuration."

	return svc.SendPlainEmail(testEmail, subject, body)
}

func (svc *EmailService) SendPlainEmail(to, subject, body string) error {
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, skipping email")
		return nil
	}

	auth := smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		svc.fromName, svc.fromEmail, to, subject, body))

	err := smtp.SendMail(
		svc.smtpHost+":"+svc.smtpPort,
		auth,
		svc.fromEmail,
		[]string{to},
		msg,
	)

	if err != nil {
		log.WithError(err).WithFields(log.Fields{"to": to, "subject": subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": to, "subject": subject}).Info("Email sent successfully")
	return nil
}
