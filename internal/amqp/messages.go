package amqp

import (
	"encoding/json"
	"time"
)

// PaymentRecordedMessage announces that a payment was appended to a
// subscription's history. It carries the snapshot fields so consumers do not
// need a database round trip to build a notification.
type PaymentRecordedMessage struct {
	PaymentID      int64     `json:"paymentId"`
	SubscriptionID int64     `json:"subscriptionId"`
	Name           string    `json:"name"`
	AmountCents    int64     `json:"amountCents"`
	Currency       string    `json:"currency"`
	PaymentDate    string    `json:"paymentDate"`
	Timestamp      time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *PaymentRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentRecordedMessageFromJSON creates a message from JSON bytes
func PaymentRecordedMessageFromJSON(data []byte) (*PaymentRecordedMessage, error) {
	var msg PaymentRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
