package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/luxsuv-hotel/internal/http/response"
	"github.com/diagnosis/luxsuv-hotel/pkg/auth"
	"github.com/diagnosis/luxsuv-hotel/pkg/logger"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/service"
)

type Handlers struct {
	hotel     service.HotelService
	auth      service.AuthService
	jwtSecret string
}

func New(hotel service.HotelService, authService service.AuthService, jwtSecret string) *Handlers {
	return &Handlers{
		hotel:     hotel,
		auth:      authService,
		jwtSecret: jwtSecret,
	}
}

// RouteMiddleware lets the caller plug infrastructure into individual routes.
// Nil entries are skipped.
type RouteMiddleware struct {
	Login             func(http.Handler) http.Handler
	CreateReservation func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

// Routes builds the /v1 API.
func (h *Handlers) Routes(mw RouteMiddleware) chi.Router {
	if mw.Login == nil {
		mw.Login = passthrough
	}
	if mw.CreateReservation == nil {
		mw.CreateReservation = passthrough
	}

	r := chi.NewRouter()
	r.With(mw.Login).Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireEmployee)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Get("/available", h.AvailableRooms)
			r.Get("/{number}", h.GetRoom)
			r.Get("/{number}/availability", h.RoomAvailability)
			r.With(h.RequireCapability(domain.CanManageRooms)).Post("/", h.CreateRoom)
			r.With(h.RequireCapability(domain.CanManageRooms)).Delete("/{number}", h.DeleteRoom)
		})

		r.Route("/guests", func(r chi.Router) {
			r.Post("/", h.CreateGuest)
			r.Get("/{id}", h.GetGuest)
			r.Get("/{id}/reservations", h.ListGuestReservations)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.With(mw.CreateReservation).Post("/", h.CreateReservation)
			r.With(h.RequireCapability(domain.CanViewAllReservations)).Get("/", h.ListReservations)
			r.Get("/{id}", h.GetReservation)
			r.Post("/{id}/confirm", h.ConfirmReservation)
			r.Post("/{id}/cancel", h.CancelReservation)
		})
	})
	return r
}

type ctxKey struct{}

// RequireEmployee authenticates the bearer token and stores the employee it
// describes in the request context.
func (h *Handlers) RequireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(w, "Missing or invalid authorization header")
			return
		}

		claims, err := auth.Parse(strings.TrimPrefix(authHeader, "Bearer "), h.jwtSecret)
		if err != nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		emp := service.EmployeeFromClaims(claims)
		ctx := context.WithValue(r.Context(), ctxKey{}, emp)
		ctx = context.WithValue(ctx, logger.EmployeeIDKey, emp.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireCapability rejects callers lacking c. It must run after
// RequireEmployee.
func (h *Handlers) RequireCapability(c domain.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			emp, ok := employeeFrom(r)
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if err := h.auth.Authorize(emp, c); err != nil {
				logger.WarnContext(r.Context(), "Capability check failed", "capability", string(c))
				response.Forbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func employeeFrom(r *http.Request) (domain.Employee, bool) {
	emp, ok := r.Context().Value(ctxKey{}).(domain.Employee)
	return emp, ok
}

// writeServiceError maps core errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange):
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidDateRange)
	case errors.Is(err, domain.ErrInvalidRoom), errors.Is(err, domain.ErrInvalidGuest):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrGuestNotFound),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrEmployeeNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrDuplicateRoom), errors.Is(err, domain.ErrDuplicateGuest):
		response.Conflict(w, err.Error())
	case errors.Is(err, domain.ErrRoomInUse):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeRoomInUse)
	case errors.Is(err, domain.ErrRoomUnavailable):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeRoomUnavailable)
	case errors.Is(err, domain.ErrAlreadyCancelled):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeAlreadyCancelled)
	case errors.Is(err, domain.ErrInvalidTransition):
		response.WriteError(w, http.StatusConflict, err.Error(), response.CodeInvalidTransition)
	case errors.Is(err, domain.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid username or password")
	case errors.Is(err, domain.ErrForbidden):
		response.WriteErrorWithDetails(w, http.StatusForbidden, "Insufficient permissions", response.CodeForbidden, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logger.WarnContext(r.Context(), "Request abandoned", "error", err)
		response.WriteError(w, http.StatusServiceUnavailable, "Request timed out", response.CodeTimeout)
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		response.InternalError(w, "Internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseRoomNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	return n, err == nil && n > 0
}

func parseReservationID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// parseStay reads check_in and check_out (YYYY-MM-DD) from the query string.
func parseStay(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	checkIn, err := domain.ParseDate(q.Get("check_in"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := domain.ParseDate(q.Get("check_out"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}
