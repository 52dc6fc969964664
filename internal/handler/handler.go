package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// envelope is the body of every successful response.
type envelope struct {
	Success    bool              `json:"success"`
	Data       any               `json:"data"`
	Pagination *model.Pagination `json:"pagination,omitempty"`
}

// WriteJSON writes a success envelope with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

func writeList(w http.ResponseWriter, data any, pagination model.Pagination) {
	write(w, http.StatusOK, envelope{Success: true, Data: data, Pagination: &pagination})
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already sent; an encoding failure can only be dropped.
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError maps err to a failure envelope. Domain errors carry their own code
// and message; anything else is logged and answered with a generic 500.
func WriteError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Msg("request failed")
		write(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "An unexpected error occurred",
		})
		return
	}

	status := statusFor(de.Kind)
	logger.Debug().Str("code", de.Code).Int("status", status).Msg(de.Message)
	write(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation, model.KindInvalidState:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decoder reads and validates JSON request bodies.
type decoder struct {
	validate *validator.Validate
}

func newDecoder() decoder {
	return decoder{validate: validation.New()}
}

// decode fills dst from the request body and runs its schema. An empty body is
// decoded as an empty object.
func (d decoder) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "Request body is not valid JSON")
	}

	if err := d.validate.Struct(dst); err != nil {
		return model.NewValidationError(validation.Describe(err))
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, model.NewValidationError(name + " must be a valid UUID")
	}
	return id, nil
}

// paging reads limit and offset; absent values are left to the service defaults.
func paging(r *http.Request) (limit, offset int, err error) {
	if limit, err = queryInt(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(name + " must be an integer")
	}
	return v, nil
}

func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, model.NewValidationError(name + " must be a number")
	}
	return &v, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, model.NewValidationError(name + " must be true or false")
	}
	return &v, nil
}

// principal returns the authenticated caller. Routes that call it are wrapped
// by the authentication middleware.
func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Principal{}, model.ErrUnauthorised
	}
	return p, nil
}
