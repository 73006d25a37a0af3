package pushsubscription

import "time"

// Subscription is one browser's push endpoint registered for a user. A user
// may have several, one per browser profile.
type Subscription struct {
	ID             string     `yaml:"id" bson:"_id"`
	Email          string     `yaml:"email" bson:"email"`
	Endpoint       string     `yaml:"endpoint" bson:"endpoint"`
	P256dhKey      string     `yaml:"p256dh_key" bson:"p256dh_key"`
	AuthKey        string     `yaml:"auth_key" bson:"auth_key"`
	ExpirationTime *time.Time `yaml:"expiration_time,omitempty" bson:"expiration_time,omitempty"`
	CreatedAt      time.Time  `yaml:"created_at" bson:"created_at"`
	UpdatedAt      time.Time  `yaml:"updated_at" bson:"updated_at"`
}

// Expired reports whether the push service has announced that the
// subscription stops working before now.
func (s *Subscription) Expired(now time.Time) bool {
	return s.ExpirationTime != nil && !s.ExpirationTime.After(now)
}
