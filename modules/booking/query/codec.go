package query

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"booking-insights/core/errors"
	"booking-insights/modules/booking/dto"

	"github.com/go-playground/validator/v10"
)

// Codec converts BookingQuery to and from the upstream query string.
type Codec struct {
	validate *validator.Validate
}

func NewCodec() *Codec {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("iso8601", isISO8601)
	return &Codec{validate: v}
}

func isISO8601(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// Validate checks q and returns an INVALID_INPUT error listing every bad field.
func (c *Codec) Validate(q *dto.BookingQuery) *errors.AppError {
	if q == nil {
		return nil
	}
	err := c.validate.Struct(q)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.NewAppError(errors.ErrInvalidInput, "invalid booking query", err)
	}
	fields := make([]errors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, errors.FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return errors.NewValidationError("invalid booking query", fields)
}

// fieldPath drops the struct name: "BookingQuery.status[1]" becomes "status[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "must be a valid email address"
	case "iso8601":
		return "must be an ISO 8601 date or timestamp"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must not be empty"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "is invalid"
	}
}

// Encode validates q and renders it as "?key=value&..." with keys sorted.
// Unset fields are omitted; a nil or empty query yields "".
func (c *Codec) Encode(q *dto.BookingQuery) (string, *errors.AppError) {
	if q == nil {
		return "", nil
	}
	if appErr := c.Validate(q); appErr != nil {
		return "", appErr
	}

	v := url.Values{}
	statuses := make([]string, len(q.Status))
	for i, s := range q.Status {
		statuses[i] = string(s)
	}
	setList(v, "status", statuses)
	setString(v, "attendeeEmail", q.AttendeeEmail)
	setString(v, "attendeeName", q.AttendeeName)
	setString(v, "bookingUid", q.BookingUID)
	setInt(v, "eventTypeId", q.EventTypeID)
	setList(v, "eventTypeIds", itoa(q.EventTypeIDs))
	setInt(v, "teamId", q.TeamID)
	setList(v, "teamIds", itoa(q.TeamIDs))
	setString(v, "afterStart", q.AfterStart)
	setString(v, "beforeEnd", q.BeforeEnd)
	setString(v, "afterCreatedAt", q.AfterCreatedAt)
	setString(v, "beforeCreatedAt", q.BeforeCreatedAt)
	setString(v, "afterUpdatedAt", q.AfterUpdatedAt)
	setString(v, "beforeUpdatedAt", q.BeforeUpdatedAt)
	setString(v, "sortStart", string(q.SortStart))
	setString(v, "sortEnd", string(q.SortEnd))
	setString(v, "sortCreated", string(q.SortCreated))
	setString(v, "sortUpdatedAt", string(q.SortUpdatedAt))
	setInt(v, "take", q.Take)
	setInt(v, "skip", q.Skip)

	if len(v) == 0 {
		return "", nil
	}
	return "?" + v.Encode(), nil
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setInt(v url.Values, key string, value *int) {
	if value != nil {
		v.Set(key, strconv.Itoa(*value))
	}
}

func setList(v url.Values, key string, values []string) {
	if len(values) > 0 {
		v.Set(key, strings.Join(values, ","))
	}
}

func itoa(in []int) []string {
	out := make([]string, len(in))
	for i, n := range in {
		out[i] = strconv.Itoa(n)
	}
	return out
}

type fieldKind int

const (
	scalarString fieldKind = iota
	scalarInt
	listString
	listInt
)

var fieldKinds = map[string]fieldKind{
	"status":          listString,
	"attendeeEmail":   scalarString,
	"attendeeName":    scalarString,
	"bookingUid":      scalarString,
	"eventTypeId":     scalarInt,
	"eventTypeIds":    listInt,
	"teamId":          scalarInt,
	"teamIds":         listInt,
	"afterStart":      scalarString,
	"beforeEnd":       scalarString,
	"afterCreatedAt":  scalarString,
	"beforeCreatedAt": scalarString,
	"afterUpdatedAt":  scalarString,
	"beforeUpdatedAt": scalarString,
	"sortStart":       scalarString,
	"sortEnd":         scalarString,
	"sortCreated":     scalarString,
	"sortUpdatedAt":   scalarString,
	"take":            scalarInt,
	"skip":            scalarInt,
}

// Parse builds a BookingQuery from inbound URL parameters. Values are trimmed
// and empties dropped; list fields accept repeated keys and comma lists.
// Unknown keys are ignored. It returns nil when no known key survives.
func (c *Codec) Parse(values url.Values) (*dto.BookingQuery, *errors.AppError) {
	cleaned := make(map[string][]string)
	for key, raw := range values {
		kind, known := fieldKinds[key]
		if !known {
			continue
		}
		var kept []string
		for _, value := range raw {
			if kind == listString || kind == listInt {
				for _, part := range strings.Split(value, ",") {
					if part = strings.TrimSpace(part); part != "" {
						kept = append(kept, part)
					}
				}
				continue
			}
			if value = strings.TrimSpace(value); value != "" {
				kept = append(kept, value)
			}
		}
		if len(kept) > 0 {
			cleaned[key] = kept
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(cleaned))
	for key := range cleaned {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	q := &dto.BookingQuery{}
	var problems []errors.FieldError
	for _, key := range keys {
		vals := cleaned[key]
		kind := fieldKinds[key]
		if (kind == scalarString || kind == scalarInt) && len(vals) > 1 {
			problems = append(problems, errors.FieldError{Field: key, Message: "expects a single value"})
			continue
		}
		switch kind {
		case scalarString:
			assignString(q, key, vals[0])
		case scalarInt:
			n, err := strconv.Atoi(vals[0])
			if err != nil {
				problems = append(problems, errors.FieldError{Field: key, Message: "must be an integer"})
				continue
			}
			assignInt(q, key, n)
		case listString:
			for _, s := range vals {
				q.Status = append(q.Status, dto.BookingStatus(s))
			}
		case listInt:
			ints := make([]int, 0, len(vals))
			for i, s := range vals {
				n, err := strconv.Atoi(s)
				if err != nil {
					problems = append(problems, errors.FieldError{Field: fmt.Sprintf("%s[%d]", key, i), Message: "must be an integer"})
					continue
				}
				ints = append(ints, n)
			}
			assignInts(q, key, ints)
		}
	}
	if len(problems) > 0 {
		return nil, errors.NewValidationError("invalid booking query", problems)
	}

	if appErr := c.Validate(q); appErr != nil {
		return nil, appErr
	}
	return q, nil
}

func assignString(q *dto.BookingQuery, key, value string) {
	switch key {
	case "attendeeEmail":
		q.AttendeeEmail = value
	case "attendeeName":
		q.AttendeeName = value
	case "bookingUid":
		q.BookingUID = value
	case "afterStart":
		q.AfterStart = value
	case "beforeEnd":
		q.BeforeEnd = value
	case "afterCreatedAt":
		q.AfterCreatedAt = value
	case "beforeCreatedAt":
		q.BeforeCreatedAt = value
	case "afterUpdatedAt":
		q.AfterUpdatedAt = value
	case "beforeUpdatedAt":
		q.BeforeUpdatedAt = value
	case "sortStart":
		q.SortStart = dto.SortOrder(value)
	case "sortEnd":
		q.SortEnd = dto.SortOrder(value)
	case "sortCreated":
		q.SortCreated = dto.SortOrder(value)
	case "sortUpdatedAt":
		q.SortUpdatedAt = dto.SortOrder(value)
	}
}

func assignInt(q *dto.BookingQuery, key string, n int) {
	switch key {
	case "eventTypeId":
		q.EventTypeID = &n
	case "teamId":
		q.TeamID = &n
	case "take":
		q.Take = &n
	case "skip":
		q.Skip = &n
	}
}

func assignInts(q *dto.BookingQuery, key string, ns []int) {
	if len(ns) == 0 {
		return
	}
	switch key {
	case "eventTypeIds":
		q.EventTypeIDs = ns
	case "teamIds":
		q.TeamIDs = ns
	}
}
