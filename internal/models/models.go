package models

import "time"

// Status is the fulfillment stage of a prescription
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusDelivered  Status = "delivered"
)

var statusOrder = map[Status]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusReady:      2,
	StatusDelivered:  3,
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// CanTransitionTo reports whether a prescription in status s may move to next.
// Moves only go forward along pending -> processing -> ready -> delivered,
// one step at a time. processing -> processing is allowed so a patient can
// switch pharmacy before the order is ready.
func (s Status) CanTransitionTo(next Status) bool {
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	if s == StatusProcessing && next == StatusProcessing {
		return true
	}
	return to == from+1
}

// NotificationKind is the severity of a notification
type NotificationKind string

const (
	KindInfo    NotificationKind = "info"
	KindSuccess NotificationKind = "success"
	KindWarning NotificationKind = "warning"
	KindError   NotificationKind = "error"
)

// User represents an authenticated patient session
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Pharmacy is static reference data for a fulfillment location
type Pharmacy struct {
	ID       string   `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Address  string   `json:"address" yaml:"address"`
	Phone    string   `json:"phone" yaml:"phone"`
	Distance *string  `json:"distance,omitempty" yaml:"distance,omitempty"`
	Rating   *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
}

// Medication is a single drug line on a prescription
type Medication struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Dosage           string `json:"dosage"`
	Instructions     string `json:"instructions"`
	Refillable       bool   `json:"refillable"`
	RemainingRefills *int   `json:"remaining_refills,omitempty"`
}

// Prescription represents one uploaded prescription image and its lifecycle
type Prescription struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	ImageURL     string       `json:"image_url"`
	Status       Status       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	PharmacyID   *string      `json:"pharmacy_id,omitempty"`
	Pharmacy     *Pharmacy    `json:"pharmacy,omitempty"`
	DeliveryDate *time.Time   `json:"delivery_date,omitempty"`
	Medications  []Medication `json:"medications,omitempty"`
}

// Clone returns a deep copy so callers never share memory with the store
func (p *Prescription) Clone() *Prescription {
	c := *p
	if p.PharmacyID != nil {
		id := *p.PharmacyID
		c.PharmacyID = &id
	}
	if p.Pharmacy != nil {
		ph := p.Pharmacy.Clone()
		c.Pharmacy = &ph
	}
	if p.DeliveryDate != nil {
		d := *p.DeliveryDate
		c.DeliveryDate = &d
	}
	if p.Medications != nil {
		c.Medications = make([]Medication, len(p.Medications))
		for i, m := range p.Medications {
			if m.RemainingRefills != nil {
				n := *m.RemainingRefills
				m.RemainingRefills = &n
			}
			c.Medications[i] = m
		}
	}
	return &c
}

// Clone returns a deep copy of the pharmacy
func (p Pharmacy) Clone() Pharmacy {
	if p.Distance != nil {
		d := *p.Distance
		p.Distance = &d
	}
	if p.Rating != nil {
		r := *p.Rating
		p.Rating = &r
	}
	return p
}

// Notification is a dismissible message reflecting a state change
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
	Kind      NotificationKind `json:"type"`
	Link      *string          `json:"link,omitempty"`
}
