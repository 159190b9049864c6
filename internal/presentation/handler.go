package presentation

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bookverse/order-intake/internal/application"
	"github.com/bookverse/order-intake/internal/domain"
	"github.com/bookverse/order-intake/internal/presentation/helpers"
)

type OrdersHandler struct {
	svc *application.IntakeService
}

func NewOrdersHandler(svc *application.IntakeService) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.SubmitOrder)
	r.Get("/orders/{uuid}", h.GetOrder)
}

// SubmitOrder accepts two content types:
// - application/x-www-form-urlencoded: the checkout form; the browser is
//   redirected to the confirmation or failure page.
// - application/json: the body is a domain.OrderInput; the response is the
//   decided result plus its redirect target.
func (h *OrdersHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	mediatype, _, _ := mime.ParseMediaType(ct)

	var in domain.OrderInput
	var readErr error
	isForm := false

	switch mediatype {
	case "application/json":
		readErr = helpers.DecodeJSON(r.Body, &in)

	case "application/x-www-form-urlencoded":
		isForm = true
		if err := r.ParseForm(); err != nil {
			readErr = err
			break
		}
		in = inputFromForm(r)

	default:
		helpers.HttpError(w, http.StatusUnsupportedMediaType, "unsupported content-type")
		return
	}

	if readErr != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid request body: "+readErr.Error())
		return
	}

	res, err := h.svc.Submit(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrResourceRequired),
			errors.Is(err, domain.ErrCustomerNameRequired):
			if isForm {
				http.Redirect(w, r, domain.RedirectFailure, http.StatusSeeOther)
				return
			}
			helpers.HttpError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrUnknownResource):
			if isForm {
				http.Redirect(w, r, domain.RedirectFailure, http.StatusSeeOther)
				return
			}
			helpers.HttpError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, domain.ErrInventoryUnavailable):
			if isForm {
				http.Redirect(w, r, domain.RedirectFailure, http.StatusSeeOther)
				return
			}
			helpers.HttpError(w, http.StatusServiceUnavailable, "temporary failure, retry later")
		default:
			helpers.HttpError(w, http.StatusInternalServerError, "failed to submit order")
		}
		return
	}

	if isForm {
		http.Redirect(w, r, res.RedirectTarget()+"?order="+res.OrderID.String(), http.StatusSeeOther)
		return
	}

	helpers.WriteJSON(w, http.StatusCreated, map[string]any{
		"order_id":        res.OrderID,
		"final_status":    res.FinalStatus,
		"redirect_target": res.RedirectTarget(),
	})
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "uuid")
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.HttpError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	res, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		helpers.HttpError(w, http.StatusInternalServerError, "failed to get order")
		return
	}
	if res == nil {
		helpers.HttpError(w, http.StatusNotFound, "order not found")
		return
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// inputFromForm maps the checkout form fields onto an OrderInput. Field
// names follow the checkout page, quirks included ("creditCardNumbe" is
// the form's actual id).
func inputFromForm(r *http.Request) domain.OrderInput {
	get := func(key string) string {
		return strings.TrimSpace(r.PostFormValue(key))
	}
	return domain.OrderInput{
		ResourceID: get("bookId"),
		Customer: domain.Customer{
			Name:    get("name"),
			Contact: get("contact"),
		},
		Billing: domain.BillingAddress{
			Street:  get("street"),
			City:    get("city"),
			State:   get("state"),
			Zip:     get("zip"),
			Country: get("country"),
		},
		Payment: domain.PaymentCard{
			Number:     get("creditCardNumbe"),
			Expiration: get("creditCardExpirationDate"),
			CVV:        get("creditCardCVV"),
		},
		ShippingMethod: get("shippingMethod"),
	}
}
