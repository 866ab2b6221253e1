package notify

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmailNotifier delivers notifications as email through the messaging service
type EmailNotifier struct {
	messagingURL  string
	senderName    string
	senderAddress string
	client        *http.Client
}

// EmailRequest is the messaging service's email payload
type EmailRequest struct {
	Sender       EmailSender `json:"sender"`
	EmailAddress string      `json:"email_address"`
	Subject      string      `json:"subject"`
	HTMLMessage  string      `json:"html_message"` // base64
}

// EmailSender identifies the sending party
type EmailSender struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type emailResponse struct {
	MessageID string `json:"message_id"`
}

// NewEmailNotifier creates a notifier posting to the messaging service
func NewEmailNotifier(messagingURL, senderName, senderAddress string) *EmailNotifier {
	return &EmailNotifier{
		messagingURL:  messagingURL,
		senderName:    senderName,
		senderAddress: senderAddress,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ToJSON converts the request to JSON
func (r *EmailRequest) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// Send sends a notification as email
func (e *EmailNotifier) Send(n Notification) error {
	if e.messagingURL == "" {
		return nil // Disabled
	}

	msg := EmailRequest{
		Sender: EmailSender{
			Name:    e.senderName,
			Address: e.senderAddress,
		},
		EmailAddress: n.Recipient,
		Subject:      n.Subject,
		HTMLMessage:  base64.StdEncoding.EncodeToString([]byte(n.HTMLBody)),
	}

	payload, err := msg.ToJSON()
	if err != nil {
		return err
	}

	resp, err := e.client.Post(e.messagingURL+"/email", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("messaging returned %d", resp.StatusCode)
	}

	var body emailResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	if body.MessageID == "" {
		return fmt.Errorf("messaging accepted the email but returned no message id")
	}

	return nil
}
