package query

import (
	"net/url"
	"strings"
	"testing"

	"booking-insights/core/constants"
	"booking-insights/core/errors"
	"booking-insights/modules/booking/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func fieldNames(appErr *errors.AppError) []string {
	var names []string
	for _, f := range appErr.FieldErrors() {
		names = append(names, f.Field)
	}
	return names
}

func TestEncode_EmptyQuery(t *testing.T) {
	c := NewCodec()

	qs, appErr := c.Encode(nil)
	require.Nil(t, appErr)
	assert.Equal(t, "", qs)

	qs, appErr = c.Encode(&dto.BookingQuery{})
	require.Nil(t, appErr)
	assert.Equal(t, "", qs)
}

func TestEncode_SerializesSetFieldsOnly(t *testing.T) {
	qs, appErr := NewCodec().Encode(&dto.BookingQuery{
		Status:        []dto.BookingStatus{dto.StatusAccepted, dto.StatusPending},
		AttendeeEmail: "ann@example.com",
		EventTypeIDs:  []int{3, 4},
		SortUpdatedAt: dto.SortDesc,
		Take:          intPtr(100),
		Skip:          intPtr(0),
	})

	require.Nil(t, appErr)
	assert.True(t, strings.HasPrefix(qs, "?"))

	values, err := url.ParseQuery(strings.TrimPrefix(qs, "?"))
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"status":        {"accepted,pending"},
		"attendeeEmail": {"ann@example.com"},
		"eventTypeIds":  {"3,4"},
		"sortUpdatedAt": {"desc"},
		"take":          {"100"},
		"skip":          {"0"},
	}, values)
}

func TestEncode_KeysAreSorted(t *testing.T) {
	qs, appErr := NewCodec().Encode(&dto.BookingQuery{Take: intPtr(5), AfterStart: "2024-01-01T00:00:00Z"})

	require.Nil(t, appErr)
	assert.Equal(t, "?afterStart=2024-01-01T00%3A00%3A00Z&take=5", qs)
}

func TestEncode_RejectsInvalidQuery(t *testing.T) {
	_, appErr := NewCodec().Encode(&dto.BookingQuery{
		Take:          intPtr(501),
		AttendeeEmail: "not-an-email",
		Status:        []dto.BookingStatus{dto.StatusAccepted, "bogus"},
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	assert.ElementsMatch(t, []string{"take", "attendeeEmail", "status[1]"}, fieldNames(appErr))
}

func TestValidate_Bounds(t *testing.T) {
	c := NewCodec()

	assert.NotNil(t, c.Validate(&dto.BookingQuery{Take: intPtr(0)}))
	assert.Nil(t, c.Validate(&dto.BookingQuery{Take: intPtr(1)}))
	assert.Nil(t, c.Validate(&dto.BookingQuery{Take: intPtr(500)}))
	assert.NotNil(t, c.Validate(&dto.BookingQuery{Skip: intPtr(-1)}))
	assert.Nil(t, c.Validate(&dto.BookingQuery{Skip: intPtr(0)}))
	assert.NotNil(t, c.Validate(&dto.BookingQuery{SortStart: "up"}))
	assert.NotNil(t, c.Validate(&dto.BookingQuery{AfterStart: "yesterday"}))
	assert.Nil(t, c.Validate(&dto.BookingQuery{AfterStart: "2024-05-01"}))
	assert.Nil(t, c.Validate(&dto.BookingQuery{BeforeEnd: "2024-05-01T10:00:00.000Z"}))
}

func TestValidate_AcceptsEveryStatus(t *testing.T) {
	assert.Nil(t, NewCodec().Validate(&dto.BookingQuery{Status: dto.BookingStatuses}))
}

func TestParse_NothingSurvives(t *testing.T) {
	q, appErr := NewCodec().Parse(url.Values{
		"status":  {"  ", ","},
		"take":    {""},
		"unknown": {"x"},
	})

	require.Nil(t, appErr)
	assert.Nil(t, q)
}

func TestParse_TrimsAndCollapses(t *testing.T) {
	q, appErr := NewCodec().Parse(url.Values{
		"status":        {"accepted", " pending , cancelled "},
		"teamIds":       {"1,2", "3"},
		"attendeeName":  {"  Ann  "},
		"sortUpdatedAt": {"desc"},
		"take":          {" 10 "},
		"skip":          {"20"},
	})

	require.Nil(t, appErr)
	require.NotNil(t, q)
	assert.Equal(t, []dto.BookingStatus{dto.StatusAccepted, dto.StatusPending, dto.StatusCancelled}, q.Status)
	assert.Equal(t, []int{1, 2, 3}, q.TeamIDs)
	assert.Equal(t, "Ann", q.AttendeeName)
	assert.Equal(t, dto.SortDesc, q.SortUpdatedAt)
	assert.Equal(t, 10, *q.Take)
	assert.Equal(t, 20, *q.Skip)
}

func TestParse_ReportsFieldErrors(t *testing.T) {
	_, appErr := NewCodec().Parse(url.Values{
		"take":         {"many"},
		"eventTypeIds": {"1,x"},
		"bookingUid":   {"a", "b"},
	})

	require.NotNil(t, appErr)
	assert.Equal(t, errors.ErrInvalidInput, appErr.Code)
	assert.ElementsMatch(t, []string{"take", "eventTypeIds[1]", "bookingUid"}, fieldNames(appErr))
}

func TestParse_ValidatesAfterDecoding(t *testing.T) {
	_, appErr := NewCodec().Parse(url.Values{"take": {"1000"}})

	require.NotNil(t, appErr)
	assert.Equal(t, []string{"take"}, fieldNames(appErr))
	assert.Equal(t, "must be at most 500", appErr.FieldErrors()[0].Message)
}

func TestRoundTrip(t *testing.T) {
	c := NewCodec()
	queries := []*dto.BookingQuery{
		{Status: []dto.BookingStatus{dto.StatusAccepted}, Take: intPtr(100), SortUpdatedAt: dto.SortDesc},
		{
			Status:          []dto.BookingStatus{dto.StatusUpcoming, dto.StatusAwaitingHost},
			AttendeeEmail:   "a@b.co",
			AttendeeName:    "Ann Lee",
			BookingUID:      "uid-1",
			EventTypeID:     intPtr(7),
			EventTypeIDs:    []int{1, 2},
			TeamID:          intPtr(9),
			TeamIDs:         []int{4},
			AfterStart:      "2024-01-01T00:00:00Z",
			BeforeEnd:       "2024-02-01T00:00:00Z",
			AfterCreatedAt:  "2023-01-01",
			BeforeCreatedAt: "2024-01-01",
			AfterUpdatedAt:  "2023-06-01T12:00:00+02:00",
			BeforeUpdatedAt: "2024-06-01T12:00:00Z",
			SortStart:       dto.SortAsc,
			SortEnd:         dto.SortDesc,
			SortCreated:     dto.SortAsc,
			SortUpdatedAt:   dto.SortDesc,
			Take:            intPtr(500),
			Skip:            intPtr(0),
		},
		{Skip: intPtr(40)},
	}

	for _, q := range queries {
		qs, appErr := c.Encode(q)
		require.Nil(t, appErr)

		values, err := url.ParseQuery(strings.TrimPrefix(qs, "?"))
		require.NoError(t, err)
		decoded, appErr := c.Parse(values)
		require.Nil(t, appErr)
		assert.Equal(t, q, decoded)

		again, appErr := c.Encode(decoded)
		require.Nil(t, appErr)
		assert.Equal(t, qs, again)
	}
}

func TestValidate_TakeLimitMatchesMaxTake(t *testing.T) {
	c := NewCodec()

	assert.Nil(t, c.Validate(&dto.BookingQuery{Take: intPtr(constants.MaxTake)}))

	appErr := c.Validate(&dto.BookingQuery{Take: intPtr(constants.MaxTake + 1)})
	require.NotNil(t, appErr)
	assert.Equal(t, []string{"take"}, fieldNames(appErr))
}
