package dto

import (
	"encoding/json"

	"booking-insights/core/errors"
)

type BookingStatus string

const (
	StatusAccepted     BookingStatus = "accepted"
	StatusPending      BookingStatus = "pending"
	StatusCancelled    BookingStatus = "cancelled"
	StatusRejected     BookingStatus = "rejected"
	StatusAwaitingHost BookingStatus = "awaiting_host"
	StatusUpcoming     BookingStatus = "upcoming"
	StatusRecurring    BookingStatus = "recurring"
	StatusPast         BookingStatus = "past"
	StatusUnconfirmed  BookingStatus = "unconfirmed"
)

// BookingStatuses lists every status the upstream may report, in a stable order.
var BookingStatuses = []BookingStatus{
	StatusAccepted, StatusPending, StatusCancelled, StatusRejected, StatusAwaitingHost,
	StatusUpcoming, StatusRecurring, StatusPast, StatusUnconfirmed,
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// BookingQuery is the filter, sort and paging input for a bookings listing.
// Zero values mean "not set".
type BookingQuery struct {
	Status          []BookingStatus `json:"status,omitempty" validate:"omitempty,min=1,dive,oneof=accepted pending cancelled rejected awaiting_host upcoming recurring past unconfirmed"`
	AttendeeEmail   string          `json:"attendeeEmail,omitempty" validate:"omitempty,email"`
	AttendeeName    string          `json:"attendeeName,omitempty" validate:"omitempty,max=255"`
	BookingUID      string          `json:"bookingUid,omitempty" validate:"omitempty,max=255"`
	EventTypeID     *int            `json:"eventTypeId,omitempty" validate:"omitempty,gt=0"`
	EventTypeIDs    []int           `json:"eventTypeIds,omitempty" validate:"omitempty,min=1,dive,gt=0"`
	TeamID          *int            `json:"teamId,omitempty" validate:"omitempty,gt=0"`
	TeamIDs         []int           `json:"teamIds,omitempty" validate:"omitempty,min=1,dive,gt=0"`
	AfterStart      string          `json:"afterStart,omitempty" validate:"omitempty,iso8601"`
	BeforeEnd       string          `json:"beforeEnd,omitempty" validate:"omitempty,iso8601"`
	AfterCreatedAt  string          `json:"afterCreatedAt,omitempty" validate:"omitempty,iso8601"`
	BeforeCreatedAt string          `json:"beforeCreatedAt,omitempty" validate:"omitempty,iso8601"`
	AfterUpdatedAt  string          `json:"afterUpdatedAt,omitempty" validate:"omitempty,iso8601"`
	BeforeUpdatedAt string          `json:"beforeUpdatedAt,omitempty" validate:"omitempty,iso8601"`
	SortStart       SortOrder       `json:"sortStart,omitempty" validate:"omitempty,oneof=asc desc"`
	SortEnd         SortOrder       `json:"sortEnd,omitempty" validate:"omitempty,oneof=asc desc"`
	SortCreated     SortOrder       `json:"sortCreated,omitempty" validate:"omitempty,oneof=asc desc"`
	SortUpdatedAt   SortOrder       `json:"sortUpdatedAt,omitempty" validate:"omitempty,oneof=asc desc"`
	Take            *int            `json:"take,omitempty" validate:"omitempty,min=1,max=500"`
	Skip            *int            `json:"skip,omitempty" validate:"omitempty,min=0"`
}

type Host struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
	TimeZone string  `json:"timeZone"`
}

type RawAttendee struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	TimeZone    string  `json:"timeZone"`
	Language    *string `json:"language"`
	Absent      *bool   `json:"absent"`
	PhoneNumber *string `json:"phoneNumber"`
}

type Attendee struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	TimeZone    string  `json:"timeZone"`
	Language    *string `json:"language"`
	Absent      bool    `json:"absent"`
	PhoneNumber *string `json:"phoneNumber"`
}

type EventTypeRef struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
}

// RawBooking is one booking as the upstream API returns it.
type RawBooking struct {
	ID                     int64          `json:"id"`
	UID                    string         `json:"uid"`
	Title                  string         `json:"title"`
	Description            *string        `json:"description"`
	Hosts                  []Host         `json:"hosts"`
	Status                 BookingStatus  `json:"status"`
	CancellationReason     *string        `json:"cancellationReason"`
	CancelledByEmail       *string        `json:"cancelledByEmail"`
	ReschedulingReason     *string        `json:"reschedulingReason"`
	RescheduledByEmail     *string        `json:"rescheduledByEmail"`
	RescheduledFromUID     *string        `json:"rescheduledFromUid"`
	RescheduledToUID       *string        `json:"rescheduledToUid"`
	Start                  string         `json:"start"`
	End                    string         `json:"end"`
	Duration               int            `json:"duration"`
	EventTypeID            *int64         `json:"eventTypeId"`
	EventType              *EventTypeRef  `json:"eventType"`
	MeetingURL             *string        `json:"meetingUrl"`
	Location               *string        `json:"location"`
	AbsentHost             *bool          `json:"absentHost"`
	CreatedAt              string         `json:"createdAt"`
	UpdatedAt              *string        `json:"updatedAt"`
	Metadata               map[string]any `json:"metadata"`
	Rating                 *float64       `json:"rating"`
	IcsUID                 *string        `json:"icsUid"`
	Attendees              []RawAttendee  `json:"attendees"`
	Guests                 []string       `json:"guests"`
	BookingFieldsResponses map[string]any `json:"bookingFieldsResponses"`
}

// MeetingRecord is RawBooking with every collection and the description
// defaulted. Remaining nullable fields serialize as null.
type MeetingRecord struct {
	ID                     int64          `json:"id"`
	UID                    string         `json:"uid"`
	Title                  string         `json:"title"`
	Description            string         `json:"description"`
	Hosts                  []Host         `json:"hosts"`
	Status                 BookingStatus  `json:"status"`
	CancellationReason     *string        `json:"cancellationReason"`
	CancelledByEmail       *string        `json:"cancelledByEmail"`
	ReschedulingReason     *string        `json:"reschedulingReason"`
	RescheduledByEmail     *string        `json:"rescheduledByEmail"`
	RescheduledFromUID     *string        `json:"rescheduledFromUid"`
	RescheduledToUID       *string        `json:"rescheduledToUid"`
	Start                  string         `json:"start"`
	End                    string         `json:"end"`
	Duration               int            `json:"duration"`
	EventTypeID            *int64         `json:"eventTypeId"`
	EventType              *EventTypeRef  `json:"eventType"`
	MeetingURL             *string        `json:"meetingUrl"`
	Location               *string        `json:"location"`
	AbsentHost             *bool          `json:"absentHost"`
	CreatedAt              string         `json:"createdAt"`
	UpdatedAt              *string        `json:"updatedAt"`
	Metadata               map[string]any `json:"metadata"`
	Rating                 *float64       `json:"rating"`
	IcsUID                 *string        `json:"icsUid"`
	Attendees              []Attendee     `json:"attendees"`
	Guests                 []string       `json:"guests"`
	BookingFieldsResponses map[string]any `json:"bookingFieldsResponses"`
}

// NormalizedResponse is any recognized upstream envelope reduced to one shape.
type NormalizedResponse struct {
	Items      []RawBooking    `json:"items"`
	TotalCount *int            `json:"totalCount"`
	NextCursor any             `json:"nextCursor"`
	PrevCursor any             `json:"prevCursor"`
	Raw        json.RawMessage `json:"-"`
}

type Pagination struct {
	TotalItems      int  `json:"totalItems"`
	RemainingItems  int  `json:"remainingItems"`
	ReturnedItems   int  `json:"returnedItems"`
	ItemsPerPage    int  `json:"itemsPerPage"`
	CurrentPage     int  `json:"currentPage"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

type MeetingsResponse struct {
	Data       []MeetingRecord `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

// TopUpdatedResult never travels as an error value; callers must check Error.
type TopUpdatedResult struct {
	Data       []MeetingRecord  `json:"data"`
	TotalItems int              `json:"totalItems"`
	Error      *errors.AppError `json:"error,omitempty"`
}

// Statistics summarizes the meetings in a dashboard response.
type Statistics struct {
	TotalEvents          int                   `json:"totalEvents"`
	TotalDurationMinutes int                   `json:"totalDurationMinutes"`
	TotalDurationHours   float64               `json:"totalDurationHours"`
	ByStatus             map[BookingStatus]int `json:"byStatus"`
}

type DashboardResponse struct {
	Data          []MeetingRecord  `json:"data"`
	Pagination    Pagination       `json:"pagination"`
	Statistics    Statistics       `json:"statistics"`
	Fallback      bool             `json:"fallback"`
	FallbackError *errors.AppError `json:"fallbackError,omitempty"`
}
