package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusProcessing, true},
		{StatusProcessing, StatusReady, true},
		{StatusReady, StatusDelivered, true},
		{StatusPending, StatusReady, false},
		{StatusPending, StatusDelivered, false},
		{StatusReady, StatusProcessing, false},
		{StatusDelivered, StatusProcessing, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusPending, StatusPending, false},
		{Status("lost"), StatusProcessing, false},
		{StatusPending, Status("lost"), false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusDelivered.Valid())
	assert.False(t, Status("").Valid())
}

func TestPrescriptionCloneIsDeep(t *testing.T) {
	pharmacyID := "1"
	distance := "0.8 miles"
	rating := 4.7
	refills := 2
	due := time.Now().Add(48 * time.Hour)

	orig := &Prescription{
		ID:           "rx-1",
		Status:       StatusProcessing,
		PharmacyID:   &pharmacyID,
		Pharmacy:     &Pharmacy{ID: "1", Name: "MediCare Pharmacy", Distance: &distance, Rating: &rating},
		DeliveryDate: &due,
		Medications:  []Medication{{ID: "m1", Name: "Amoxicillin", RemainingRefills: &refills}},
	}

	c := orig.Clone()
	*c.PharmacyID = "2"
	c.Pharmacy.Name = "changed"
	*c.Pharmacy.Rating = 1
	*c.DeliveryDate = time.Time{}
	c.Medications[0].Name = "changed"
	*c.Medications[0].RemainingRefills = 0

	require.Equal(t, "1", *orig.PharmacyID)
	assert.Equal(t, "MediCare Pharmacy", orig.Pharmacy.Name)
	assert.Equal(t, 4.7, *orig.Pharmacy.Rating)
	assert.Equal(t, due, *orig.DeliveryDate)
	assert.Equal(t, "Amoxicillin", orig.Medications[0].Name)
	assert.Equal(t, 2, *orig.Medications[0].RemainingRefills)
}
