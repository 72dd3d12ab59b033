package client

// bookingsEnvelopeSchema is the contract the bookings endpoint must honor
// before a payload is handed to the normalizer.
const bookingsEnvelopeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"definitions": {
		"nullableString": {"type": ["string", "null"]},
		"host": {
			"type": "object",
			"properties": {
				"id": {"type": "integer"},
				"name": {"type": ["string", "null"]},
				"email": {"type": ["string", "null"]},
				"username": {"type": ["string", "null"]},
				"timeZone": {"type": ["string", "null"]}
			}
		},
		"attendee": {
			"type": "object",
			"properties": {
				"name": {"type": ["string", "null"]},
				"email": {"type": ["string", "null"]},
				"timeZone": {"type": ["string", "null"]},
				"language": {"type": ["string", "null"]},
				"absent": {"type": ["boolean", "null"]},
				"phoneNumber": {"type": ["string", "null"]}
			}
		},
		"booking": {
			"type": "object",
			"required": ["id", "uid", "title", "status", "start", "end"],
			"properties": {
				"id": {"type": "integer"},
				"uid": {"type": "string"},
				"title": {"type": "string"},
				"description": {"$ref": "#/definitions/nullableString"},
				"hosts": {"type": ["array", "null"], "items": {"$ref": "#/definitions/host"}},
				"status": {"enum": ["accepted", "pending", "cancelled", "rejected", "awaiting_host", "upcoming", "recurring", "past", "unconfirmed"]},
				"cancellationReason": {"$ref": "#/definitions/nullableString"},
				"cancelledByEmail": {"$ref": "#/definitions/nullableString"},
				"reschedulingReason": {"$ref": "#/definitions/nullableString"},
				"rescheduledByEmail": {"$ref": "#/definitions/nullableString"},
				"rescheduledFromUid": {"$ref": "#/definitions/nullableString"},
				"rescheduledToUid": {"$ref": "#/definitions/nullableString"},
				"start": {"type": "string"},
				"end": {"type": "string"},
				"duration": {"type": ["integer", "null"]},
				"eventTypeId": {"type": ["integer", "null"]},
				"eventType": {
					"type": ["object", "null"],
					"properties": {"id": {"type": "integer"}, "slug": {"type": ["string", "null"]}}
				},
				"meetingUrl": {"$ref": "#/definitions/nullableString"},
				"location": {"$ref": "#/definitions/nullableString"},
				"absentHost": {"type": ["boolean", "null"]},
				"createdAt": {"$ref": "#/definitions/nullableString"},
				"updatedAt": {"$ref": "#/definitions/nullableString"},
				"metadata": {"type": ["object", "null"]},
				"rating": {"type": ["number", "null"]},
				"icsUid": {"$ref": "#/definitions/nullableString"},
				"attendees": {"type": ["array", "null"], "items": {"$ref": "#/definitions/attendee"}},
				"guests": {"type": ["array", "null"], "items": {"type": "string"}},
				"bookingFieldsResponses": {"type": ["object", "null"]}
			}
		},
		"bookings": {"type": "array", "items": {"$ref": "#/definitions/booking"}}
	},
	"anyOf": [
		{"$ref": "#/definitions/bookings"},
		{"type": "object", "required": ["data"], "properties": {"data": {"$ref": "#/definitions/bookings"}}},
		{"type": "object", "required": ["bookings"], "properties": {"bookings": {"$ref": "#/definitions/bookings"}}}
	]
}`
