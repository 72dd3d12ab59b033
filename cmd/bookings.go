package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"

	"booking-insights/core/constants"
	"booking-insights/core/server"
	"booking-insights/modules/booking"
	"booking-insights/modules/booking/query"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// queryFlags maps CLI flags onto bookings query parameters.
var queryFlags = []struct{ flag, key, usage string }{
	{"status", "status", "comma separated statuses"},
	{"attendee-email", "attendeeEmail", "attendee email"},
	{"attendee-name", "attendeeName", "attendee name"},
	{"booking-uid", "bookingUid", "booking uid"},
	{"event-type-id", "eventTypeId", "event type id"},
	{"event-type-ids", "eventTypeIds", "comma separated event type ids"},
	{"team-id", "teamId", "team id"},
	{"team-ids", "teamIds", "comma separated team ids"},
	{"after-start", "afterStart", "ISO-8601 lower bound on start"},
	{"before-end", "beforeEnd", "ISO-8601 upper bound on end"},
	{"after-created-at", "afterCreatedAt", "ISO-8601 lower bound on creation"},
	{"before-created-at", "beforeCreatedAt", "ISO-8601 upper bound on creation"},
	{"after-updated-at", "afterUpdatedAt", "ISO-8601 lower bound on last update"},
	{"before-updated-at", "beforeUpdatedAt", "ISO-8601 upper bound on last update"},
	{"sort-start", "sortStart", "asc or desc"},
	{"sort-end", "sortEnd", "asc or desc"},
	{"sort-created", "sortCreated", "asc or desc"},
	{"sort-updated-at", "sortUpdatedAt", "asc or desc"},
	{"take", "take", fmt.Sprintf("page size (1-%d)", constants.MaxTake)},
	{"skip", "skip", "offset"},
}

var (
	bookingsUser      string
	bookingsDashboard bool
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Read a user's bookings",
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookings for a user as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		userID, err := uuid.Parse(bookingsUser)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}

		values := url.Values{}
		for _, f := range queryFlags {
			if cmd.Flags().Changed(f.flag) {
				v, _ := cmd.Flags().GetString(f.flag)
				values.Set(f.key, v)
			}
		}
		q, appErr := query.NewCodec().Parse(values)
		if appErr != nil {
			return appErr
		}

		app, err := server.Bootstrap(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		svc, err := booking.NewService(cfg, app.Credential.TokenService, log)
		if err != nil {
			return err
		}

		var result any
		if bookingsDashboard {
			res, appErr := svc.Dashboard(cmd.Context(), userID, q)
			if appErr != nil {
				return appErr
			}
			result = res
		} else {
			res, appErr := svc.ListMeetings(cmd.Context(), userID, q)
			if appErr != nil {
				return appErr
			}
			result = res
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	bookingsListCmd.Flags().StringVar(&bookingsUser, "user", "", "user id (UUID)")
	_ = bookingsListCmd.MarkFlagRequired("user")
	bookingsListCmd.Flags().BoolVar(&bookingsDashboard, "dashboard", false, "include statistics and the recently updated fallback")
	for _, f := range queryFlags {
		bookingsListCmd.Flags().String(f.flag, "", f.usage)
	}

	bookingsCmd.AddCommand(bookingsListCmd)
	rootCmd.AddCommand(bookingsCmd)
}
