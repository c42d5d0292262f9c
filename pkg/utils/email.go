package utils

import (
	"fmt"
	"log"
	"net/smtp"
	"os"
	"strings"
)

const companyName = "UniRide"

type mailConfig struct {
	from     string
	password string
	host     string
	port     string
}

// loadMailConfig reads the SMTP settings at send time rather than at
// package init, which runs before godotenv loads the .env file.
func loadMailConfig() mailConfig {
	return mailConfig{
		from:     os.Getenv("EMAIL_FROM"),
		password: os.Getenv("EMAIL_PASSWORD"),
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
	}
}

func (m mailConfig) configured() bool {
	return m.from != "" && m.password != "" && m.host != "" && m.port != ""
}

func appBaseURL() string {
	return os.Getenv("BASE_URL")
}

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<!-- <img src="%s/static/images/logo.png" alt="UniRide" style="width: 200px; height: auto;"> -->
			<h2 style="color: #4CAF50; margin: 0;">UniRide</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
			<p>© 2025 UniRide. All rights reserved.</p>
		</div>
	</div>
</body>
</html>
`

func sendEmail(to []string, subject, body string) error {
	cfg := loadMailConfig()
	if !cfg.configured() {
		return fmt.Errorf("email configuration not set")
	}

	// Headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", companyName, cfg.from)
	headers["To"] = strings.Join(to, ",")
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"
	headers["X-Mailer"] = "UniRide-Mailer"
	headers["List-Unsubscribe"] = fmt.Sprintf("<%s>", cfg.from)

	// Build message
	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + body

	// Authentication
	auth := smtp.PlainAuth("", cfg.from, cfg.password, cfg.host)

	// Send email
	err := smtp.SendMail(cfg.host+":"+cfg.port, auth, cfg.from, to, []byte(message))
	if err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Successfully sent email to recipients: %v", to)
	return nil
}

func SendBookingCreatedEmailToDriver(driverEmail, riderName, destination string, seats int) error {
	subject := "New Seat Booking - UniRide"
	baseURL := appBaseURL()
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">New Seat Booking</h1>
					<p>Hello,</p>
					<p><strong>%s</strong> booked <strong>%d</strong> seat(s) on your ride to <strong>%s</strong>.</p>
					<p>Open your UniRide account to see your passenger list.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/login" style="background-color: #4CAF50; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Open UniRide</a>
					</div>
					<p>Best regards,<br>The UniRide Team</p>
				</div>`+emailFooter,
		baseURL, riderName, seats, destination, baseURL)

	return sendEmail([]string{driverEmail}, subject, body)
}

func SendBookingCancelledEmailToDriver(driverEmail, riderName, destination string) error {
	subject := "Booking Cancelled - UniRide"
	baseURL := appBaseURL()
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Booking Cancelled</h1>
					<p>Hello,</p>
					<p><strong>%s</strong> cancelled their booking on your ride to <strong>%s</strong>. The seats are available again.</p>
					<p>Best regards,<br>The UniRide Team</p>
				</div>`+emailFooter,
		baseURL, riderName, destination)

	return sendEmail([]string{driverEmail}, subject, body)
}

func SendRideCancelledEmailToRider(riderEmail, pickup, destination string) error {
	subject := "Ride Cancelled - UniRide"
	baseURL := appBaseURL()
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Ride Cancelled</h1>
					<p>Hello,</p>
					<p>Unfortunately, the ride from <strong>%s</strong> to <strong>%s</strong> you booked was cancelled by the driver.</p>
					<p>Don't worry! You can book a seat on another available ride.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/rides" style="background-color: #4CAF50; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Find Another Ride</a>
					</div>
					<p>Best regards,<br>The UniRide Team</p>
				</div>`+emailFooter,
		baseURL, pickup, destination, baseURL)

	return sendEmail([]string{riderEmail}, subject, body)
}

func SendRideCompletedEmailToRider(riderEmail, destination string) error {
	subject := "Ride Completed - UniRide"
	baseURL := appBaseURL()
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Ride Completed</h1>
					<p>Hello,</p>
					<p>Your ride to <strong>%s</strong> is complete. Thanks for sharing the trip!</p>
					<p>Take a moment to rate your driver so other riders know what to expect.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/activity" style="background-color: #4CAF50; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Rate Your Driver</a>
					</div>
					<p>Best regards,<br>The UniRide Team</p>
				</div>`+emailFooter,
		baseURL, destination, baseURL)

	return sendEmail([]string{riderEmail}, subject, body)
}
