package entity

import (
	"time"

	"github.com/google/uuid"
)

// DemoNotice is shown with every plan produced by the synthetic source.
const DemoNotice = "Demo city generated! (Backend not connected - this is simulated data)"

// PlanSession holds one successful plan result and everything the download
// and share actions need afterwards.
type PlanSession struct {
	ID        string            `json:"id" bson:"id"`
	ClientID  string            `json:"client_id" bson:"client_id"`
	Variant   Variant           `json:"variant" bson:"variant"`
	Form      PlanForm          `json:"form" bson:"form"`
	Response  *CityPlanResponse `json:"response" bson:"-"`
	Source    string            `json:"source" bson:"source"`
	Simulated bool              `json:"simulated" bson:"simulated"`
	Notice    string            `json:"notice,omitempty" bson:"notice,omitempty"`
	Issues    []PlanIssue       `json:"issues,omitempty" bson:"issues,omitempty"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time         `json:"expires_at" bson:"expires_at"`
}

func NewPlanSession(clientID string, v Variant, form PlanForm, resp *CityPlanResponse, source string, ttl time.Duration) *PlanSession {
	now := time.Now().UTC()
	return &PlanSession{
		ID:        uuid.New().String(),
		ClientID:  clientID,
		Variant:   v,
		Form:      form,
		Response:  resp,
		Source:    source,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// MarkSimulated flags the session as produced by the demo source.
func (s *PlanSession) MarkSimulated() {
	s.Simulated = true
	s.Notice = DemoNotice
}

func (s *PlanSession) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// MapFileName is the download name for the session's map.
func (s *PlanSession) MapFileName() string {
	name := s.Form.Name
	if name == "" {
		name = "TerraNova_City"
	}
	return name + "_map.png"
}
