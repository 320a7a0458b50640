package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/campuspay/fee-engine/internal/domain"
	"github.com/campuspay/fee-engine/internal/service"
	customError "github.com/campuspay/fee-engine/pkg/errors"
	"github.com/campuspay/fee-engine/pkg/response"
)

type BillingHandler struct {
	service   *service.PaymentService
	validator *validator.Validate
}

func NewBillingHandler(service *service.PaymentService) *BillingHandler {
	return &BillingHandler{
		service:   service,
		validator: newValidator(),
	}
}

// CreateFeeStructure registers a cohort's fee structure.
// POST /api/v1/cohorts/{cohortId}/fee-structure
func (h *BillingHandler) CreateFeeStructure(w http.ResponseWriter, r *http.Request) {
	cohortID := mux.Vars(r)["cohortId"]

	var request domain.CreateFeeStructureRequest
	if !h.decode(w, r, &request) {
		return
	}

	fs, err := h.service.CreateFeeStructure(r.Context(), cohortID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, fs)
}

// UpsertScholarship sets a student's scholarship grant.
// PUT /api/v1/students/{studentId}/scholarship
func (h *BillingHandler) UpsertScholarship(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	var request domain.UpsertScholarshipRequest
	if !h.decode(w, r, &request) {
		return
	}

	grant, err := h.service.UpsertScholarship(r.Context(), studentID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, grant)
}

// ListInstallmentTransactions returns the payment log for one installment.
// GET /api/v1/students/{studentId}/installments/{installmentNumber}/transactions
func (h *BillingHandler) ListInstallmentTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	studentID := vars["studentId"]

	installmentNumber, err := strconv.Atoi(vars["installmentNumber"])
	if err != nil {
		response.BadRequest(w, "Installment number must be an integer", err)
		return
	}

	transactions, err := h.service.ListInstallmentTransactions(r.Context(), studentID, installmentNumber)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, transactions)
}

// GenerateSchedule computes and persists a student's payment schedule.
// POST /api/v1/students/{studentId}/schedule
func (h *BillingHandler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	var request domain.GenerateScheduleRequest
	if !h.decode(w, r, &request) {
		return
	}

	resp, err := h.service.GenerateSchedule(r.Context(), studentID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, resp)
}

// GetSchedule returns the schedule with statuses re-derived from the
// transaction log.
// GET /api/v1/students/{studentId}/schedule
func (h *BillingHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	resp, err := h.service.GetSchedule(r.Context(), studentID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// GetAggregateStatus returns the single most urgent status for a student.
// GET /api/v1/students/{studentId}/status
func (h *BillingHandler) GetAggregateStatus(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	resp, err := h.service.GetAggregateStatus(r.Context(), studentID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// RecordPayment submits a payment for verification.
// POST /api/v1/students/{studentId}/payments
func (h *BillingHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	studentID := mux.Vars(r)["studentId"]

	var request domain.RecordPaymentRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), studentID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, &domain.TransactionResponse{Transaction: payment})
}

// ReviewTransaction approves or rejects a submitted payment.
// POST /api/v1/transactions/{transactionId}/review
func (h *BillingHandler) ReviewTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := mux.Vars(r)["transactionId"]

	var request domain.ReviewTransactionRequest
	if !h.decode(w, r, &request) {
		return
	}

	payment, err := h.service.ReviewTransaction(r.Context(), transactionID, &request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, &domain.TransactionResponse{Transaction: payment})
}

// PreviewDiscount shows the combined scholarship effect before committing.
// POST /api/v1/discounts/preview
func (h *BillingHandler) PreviewDiscount(w http.ResponseWriter, r *http.Request) {
	var request domain.DiscountPreviewRequest
	if !h.decode(w, r, &request) {
		return
	}

	resp, err := h.service.PreviewDiscount(&request)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Success(w, resp)
}

// decode unmarshals and validates the request body, writing the 400 itself
// when either step fails.
func (h *BillingHandler) decode(w http.ResponseWriter, r *http.Request, request interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return false
	}

	if err := h.validator.Struct(request); err != nil {
		response.BadRequest(w, "Request validation failed", err)
		return false
	}

	return true
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *BillingHandler) writeError(w http.ResponseWriter, err error) {
	var validationErr *customError.ValidationError
	var configurationErr *customError.ConfigurationError
	var consistencyErr *customError.ArithmeticConsistencyError
	var businessErr *customError.BusinessError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &configurationErr):
		response.BadRequest(w, err.Error(), err)
	case errors.As(err, &consistencyErr):
		response.InternalServerError(w, err.Error(), err)
	case errors.As(err, &businessErr):
		switch businessErr.Code {
		case customError.ErrCodeScheduleNotFound,
			customError.ErrCodeFeeStructureNotFound,
			customError.ErrCodeTransactionNotFound:
			response.NotFound(w, businessErr.Message)
		case customError.ErrCodeFeeStructureExists,
			customError.ErrCodeTransactionReviewed:
			response.Conflict(w, businessErr.Message)
		case customError.ErrCodeInvalidInstallment:
			response.BadRequest(w, businessErr.Message, nil)
		default:
			response.InternalServerError(w, businessErr.Message, businessErr.Err)
		}
	default:
		response.InternalServerError(w, "Unexpected error", err)
	}
}
