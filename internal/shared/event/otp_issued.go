package event

import "time"

const OTPIssuedDestination string = "auth.otp.issued"
const OTPIssuedConsumerNotification string = "auth.otp.issued.notification"

// OTPIssuedMessage asks the notification module to email a login passcode.
type OTPIssuedMessage struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}
