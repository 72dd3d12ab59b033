package mapper

import (
	"math"

	"booking-insights/modules/booking/dto"
)

// ToMeeting defaults every collection and the description of a raw booking.
func ToMeeting(b dto.RawBooking) dto.MeetingRecord {
	m := dto.MeetingRecord{
		ID:                     b.ID,
		UID:                    b.UID,
		Title:                  b.Title,
		Hosts:                  b.Hosts,
		Status:                 b.Status,
		CancellationReason:     b.CancellationReason,
		CancelledByEmail:       b.CancelledByEmail,
		ReschedulingReason:     b.ReschedulingReason,
		RescheduledByEmail:     b.RescheduledByEmail,
		RescheduledFromUID:     b.RescheduledFromUID,
		RescheduledToUID:       b.RescheduledToUID,
		Start:                  b.Start,
		End:                    b.End,
		Duration:               b.Duration,
		EventTypeID:            b.EventTypeID,
		EventType:              b.EventType,
		MeetingURL:             b.MeetingURL,
		Location:               b.Location,
		AbsentHost:             b.AbsentHost,
		CreatedAt:              b.CreatedAt,
		UpdatedAt:              b.UpdatedAt,
		Metadata:               b.Metadata,
		Rating:                 b.Rating,
		IcsUID:                 b.IcsUID,
		Guests:                 b.Guests,
		BookingFieldsResponses: b.BookingFieldsResponses,
	}
	if b.Description != nil {
		m.Description = *b.Description
	}
	if m.Hosts == nil {
		m.Hosts = []dto.Host{}
	}
	if m.Guests == nil {
		m.Guests = []string{}
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	if m.BookingFieldsResponses == nil {
		m.BookingFieldsResponses = map[string]any{}
	}

	m.Attendees = make([]dto.Attendee, 0, len(b.Attendees))
	for _, a := range b.Attendees {
		m.Attendees = append(m.Attendees, dto.Attendee{
			Name:        a.Name,
			Email:       a.Email,
			TimeZone:    a.TimeZone,
			Language:    a.Language,
			Absent:      a.Absent != nil && *a.Absent,
			PhoneNumber: a.PhoneNumber,
		})
	}
	return m
}

func ToMeetings(items []dto.RawBooking) []dto.MeetingRecord {
	out := make([]dto.MeetingRecord, 0, len(items))
	for _, b := range items {
		out = append(out, ToMeeting(b))
	}
	return out
}

// Summarize totals the returned meetings for the dashboard.
func Summarize(meetings []dto.MeetingRecord) dto.Statistics {
	stats := dto.Statistics{ByStatus: map[dto.BookingStatus]int{}}
	for _, m := range meetings {
		stats.TotalEvents++
		stats.TotalDurationMinutes += m.Duration
		stats.ByStatus[m.Status]++
	}
	// Rounded to two decimals.
	stats.TotalDurationHours = math.Round(float64(stats.TotalDurationMinutes)/60*100) / 100
	return stats
}
