package service

import (
	"context"

	"booking-insights/core/constants"
	"booking-insights/core/errors"
	"booking-insights/core/logger"
	"booking-insights/modules/booking/dto"
	"booking-insights/modules/booking/mapper"
	"booking-insights/modules/booking/normalizer"
	"booking-insights/modules/booking/query"
	credentialservice "booking-insights/modules/credential/service"

	"github.com/google/uuid"
)

// BookingFetcher retrieves a raw bookings payload from the upstream API.
type BookingFetcher interface {
	ListBookings(ctx context.Context, accessToken, queryString string) ([]byte, *errors.AppError)
}

type BookingService interface {
	ListMeetings(ctx context.Context, userID uuid.UUID, q *dto.BookingQuery) (*dto.MeetingsResponse, *errors.AppError)
	FetchTopUpdated(ctx context.Context, userID uuid.UUID, take int) dto.TopUpdatedResult
	Dashboard(ctx context.Context, userID uuid.UUID, q *dto.BookingQuery) (*dto.DashboardResponse, *errors.AppError)
}

type bookingService struct {
	tokens         credentialservice.TokenServiceInterface
	fetcher        BookingFetcher
	codec          *query.Codec
	topUpdatedTake int
	log            *logger.Logger
}

func NewBookingService(
	tokens credentialservice.TokenServiceInterface,
	fetcher BookingFetcher,
	codec *query.Codec,
	topUpdatedTake int,
	log *logger.Logger,
) BookingService {
	if topUpdatedTake <= 0 {
		topUpdatedTake = constants.DefaultTopUpdatedTake
	}
	return &bookingService{
		tokens:         tokens,
		fetcher:        fetcher,
		codec:          codec,
		topUpdatedTake: topUpdatedTake,
		log:            logger.OrDefault(log),
	}
}

// ListMeetings runs one bookings query for the user and returns the mapped
// meetings with pagination recomputed from take/skip.
func (s *bookingService) ListMeetings(ctx context.Context, userID uuid.UUID, q *dto.BookingQuery) (*dto.MeetingsResponse, *errors.AppError) {
	s.log.Info("BookingService:ListMeetings:Start", "user_id", userID)

	qs, appErr := s.codec.Encode(q)
	if appErr != nil {
		s.log.Warn("BookingService:ListMeetings:Encode:Invalid", "user_id", userID, "error", appErr)
		return nil, appErr
	}

	accessToken, appErr := s.tokens.GetValidAccessToken(ctx, userID)
	if appErr != nil {
		s.log.Error("BookingService:ListMeetings:GetValidAccessToken:Error", "user_id", userID, "error", appErr)
		return nil, appErr
	}

	payload, appErr := s.fetcher.ListBookings(ctx, accessToken, qs)
	if appErr != nil {
		s.log.Error("BookingService:ListMeetings:ListBookings:Error", "user_id", userID, "error", appErr)
		return nil, appErr
	}

	normalized, appErr := normalizer.Normalize(payload)
	if appErr != nil {
		s.log.Error("BookingService:ListMeetings:Normalize:Error", "user_id", userID, "error", appErr)
		return nil, appErr
	}

	meetings := mapper.ToMeetings(normalized.Items)
	total := len(meetings)
	if normalized.TotalCount != nil {
		total = *normalized.TotalCount
	}

	s.log.Info("BookingService:ListMeetings:Success", "user_id", userID, "returned", len(meetings), "total", total)
	return &dto.MeetingsResponse{
		Data:       meetings,
		Pagination: mapper.ComputePagination(total, len(meetings), q),
	}, nil
}

// FetchTopUpdated returns the most recently updated bookings. Failures are
// reported through the Error field, never as a second return value.
func (s *bookingService) FetchTopUpdated(ctx context.Context, userID uuid.UUID, take int) dto.TopUpdatedResult {
	if take <= 0 {
		take = s.topUpdatedTake
	}
	q := &dto.BookingQuery{SortUpdatedAt: dto.SortDesc, Take: &take}

	res, appErr := s.ListMeetings(ctx, userID, q)
	if appErr != nil {
		s.log.Warn("BookingService:FetchTopUpdated:Error", "user_id", userID, "error", appErr)
		return dto.TopUpdatedResult{Data: []dto.MeetingRecord{}, Error: appErr}
	}
	return dto.TopUpdatedResult{Data: res.Data, TotalItems: res.Pagination.TotalItems}
}

// Dashboard lists meetings for q with summary statistics. When q matches
// nothing, the most recently updated bookings are shown instead.
func (s *bookingService) Dashboard(ctx context.Context, userID uuid.UUID, q *dto.BookingQuery) (*dto.DashboardResponse, *errors.AppError) {
	res, appErr := s.ListMeetings(ctx, userID, q)
	if appErr != nil {
		return nil, appErr
	}

	out := &dto.DashboardResponse{Data: res.Data, Pagination: res.Pagination}
	if len(res.Data) == 0 {
		s.log.Info("BookingService:Dashboard:Fallback", "user_id", userID)
		top := s.FetchTopUpdated(ctx, userID, s.topUpdatedTake)
		out.Fallback = true
		out.FallbackError = top.Error
		if top.Error == nil {
			out.Data = top.Data
			out.Pagination = mapper.ComputePagination(top.TotalItems, len(top.Data), &dto.BookingQuery{Take: &s.topUpdatedTake})
		}
	}
	out.Statistics = mapper.Summarize(out.Data)
	return out, nil
}
