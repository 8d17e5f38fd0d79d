package domain

// Webhook attributes out-of-band flag submissions (the /:webhookId
// exfiltration route, §4.6) to a known (exploit, player) pair. ID is random
// and path-unguessable — it doubles as the URL path segment.
type Webhook struct {
	ID       string `gorm:"primaryKey"`
	Exploit  string
	Player   string
	Disabled bool
}

func (Webhook) TableName() string { return "webhooks" }
