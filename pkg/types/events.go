package types

import "time"

// BinStatusReported is sent by the bin sensors when a compartment changes state.
type BinStatusReported struct {
	BinID     string `json:"id"`
	Field     string `json:"field"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

type BinStatusUpdated struct {
	BinID     string    `json:"id"`
	Field     string    `json:"field"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (b *BinStatusUpdated) ContentType() string {
	return "application/json"
}
func (b *BinStatusUpdated) TopicName() string {
	return "bin.statusUpdated"
}

type BinCreated struct {
	BinID     string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (b *BinCreated) ContentType() string {
	return "application/json"
}
func (b *BinCreated) TopicName() string {
	return "bin.created"
}
