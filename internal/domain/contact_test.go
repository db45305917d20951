package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimestamp_UsesMillisecondUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := NewTimestamp(time.Date(2024, 5, 1, 4, 30, 0, 123456789, loc))
	assert.Equal(t, Timestamp("2024-05-01T09:30:00.123Z"), ts)

	parsed, err := ts.Time()
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2024, 5, 1, 9, 30, 0, 123000000, time.UTC)))
}

func TestTimestamp_Time(t *testing.T) {
	tests := []struct {
		name    string
		ts      Timestamp
		wantErr bool
	}{
		{"millis", "2024-01-02T03:04:05.000Z", false},
		{"no fraction", "2024-01-02T03:04:05Z", false},
		{"offset", "2024-01-02T03:04:05+02:00", false},
		{"padded", "  2024-01-02T03:04:05Z ", false},
		{"empty", "", true},
		{"garbage", "yesterday", true},
		{"date only", "2024-01-02", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.ts.Time()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestContactUpdate_ApplyKeepsUnsetFields(t *testing.T) {
	rec := ContactRecord{
		Email:              "jane@co.com",
		Name:               "Jane",
		Message:            "interested",
		SubmittedAt:        "2024-01-01T00:00:00.000Z",
		ConfirmationSent:   FlagYes,
		ConfirmationSentAt: "2024-01-01T00:00:01.000Z",
		Status:             StatusConfirmed,
		RowIndex:           7,
	}

	yes := FlagYes
	got := ContactUpdate{ResendSent: &yes}.Apply(rec)

	want := rec
	want.ResendSent = FlagYes
	assert.Equal(t, want, got)
}

func TestResendCompleted(t *testing.T) {
	now := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	got := ResendCompleted(now).Apply(ContactRecord{Status: StatusConfirmed, ConfirmationSent: FlagYes})

	assert.Equal(t, FlagYes, got.ResendSent)
	assert.Equal(t, Timestamp("2024-03-04T05:06:07.000Z"), got.ResendSentAt)
	assert.Equal(t, StatusResent, got.Status)
	assert.Equal(t, FlagYes, got.ConfirmationSent)
}

func TestContactUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ContactUpdate{}.IsEmpty())
	s := StatusReplied
	assert.False(t, ContactUpdate{Status: &s}.IsEmpty())
}

func TestPilotRequest_Message(t *testing.T) {
	p := PilotRequest{Company: " Acme ", WorkerCount: "250", Phone: "555-0100", Industry: "Logistics"}
	assert.False(t, p.IsEmpty())
	assert.Equal(t,
		"Company: Acme\nWorker Count: 250\nPhone: 555-0100\nIndustry: Logistics\n\nRequest for pilot proposal.",
		p.Message())
	assert.True(t, PilotRequest{Phone: "  "}.IsEmpty())
}
