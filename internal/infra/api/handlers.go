package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"course-access-platform/internal/domain"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/infra/i18n"
	"course-access-platform/internal/infra/logging"
	"course-access-platform/internal/infra/metrics"
	"course-access-platform/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 16

var messages = i18n.MustDefault()

func translatorFor(r *http.Request) *i18n.Translator {
	return messages.For(r.Header.Get("Accept-Language"))
}

// apiError builds the error body for code in the caller's language.
func apiError(r *http.Request, code string) errorBody {
	return errorBody{Error: code, Message: translatorFor(r).T("error." + code)}
}

// ===== Request / response bodies =====

type sessionRequest struct {
	ProviderID string `json:"provider_id" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Name       string `json:"name" validate:"max=200"`
}

type scopeBody struct {
	Kind     string `json:"kind" validate:"required,oneof=single bundle"`
	CourseID string `json:"course_id" validate:"required_if=Kind single,excluded_if=Kind bundle,max=100"`
	Category string `json:"category" validate:"required,max=64"`
}

type orderRequest struct {
	scopeBody
}

type verifyRequest struct {
	OrderRef   string `json:"order_ref" validate:"required,max=100"`
	PaymentRef string `json:"payment_ref" validate:"required,max=100"`
	Signature  string `json:"signature" validate:"required,max=128"`
	scopeBody
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type userView struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name,omitempty"`
	IsAdmin           bool   `json:"is_admin"`
	IsProfileComplete bool   `json:"is_profile_complete"`
}

type scopeView struct {
	Kind     string `json:"kind"`
	CourseID string `json:"course_id,omitempty"`
	Category string `json:"category"`
}

type entitlementView struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Category    string    `json:"category"`
	Scope       string    `json:"scope"`
	PurchasedAt time.Time `json:"purchased_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
}

func toUserView(u *model.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, IsAdmin: u.IsAdmin, IsProfileComplete: u.IsProfileComplete}
}

func toScopeView(s model.PurchaseScope) scopeView {
	return scopeView{Kind: string(s.Kind), CourseID: s.CourseID, Category: string(s.Category)}
}

func toEntitlementViews(list []*model.Entitlement) []entitlementView {
	out := make([]entitlementView, 0, len(list))
	for _, e := range list {
		out = append(out, entitlementView{
			ID:          e.ID,
			CourseID:    e.CourseID,
			Category:    string(e.Category),
			Scope:       string(e.Scope),
			PurchasedAt: e.PurchasedAt,
			ExpiresAt:   e.ExpiresAt,
			Amount:      e.Amount,
			Status:      string(e.Status),
		})
	}
	return out
}

// ===== Decoding / validation =====

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.NewValidationError("body", "malformed JSON")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
		for _, fe := range verrs {
			msg := fe.Tag()
			if fe.Param() != "" {
				msg += "=" + fe.Param()
			}
			out.Fields[fe.Field()] = msg
		}
		return out
	}
	return nil
}

func (b scopeBody) toScope() (model.PurchaseScope, error) {
	cat, err := model.ParseCategory(b.Category)
	if err != nil {
		return model.PurchaseScope{}, err
	}
	if model.ScopeKind(b.Kind) == model.ScopeBundle {
		return model.BundleScope(cat), nil
	}
	return model.SingleScope(b.CourseID, cat), nil
}

// ===== Encoding =====

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// errorStatus maps domain errors to HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSignatureMismatch):
		return http.StatusBadRequest, "signature_mismatch"
	case errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest, "invalid_category"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrOrderMismatch):
		return http.StatusBadRequest, "order_mismatch"
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "order_not_found"
	case errors.Is(err, domain.ErrOrderConsumed):
		return http.StatusConflict, "order_already_used"
	case errors.Is(err, domain.ErrEmptyCategory):
		return http.StatusNotFound, "empty_category"
	case errors.Is(err, domain.ErrCourseNotFound):
		return http.StatusNotFound, "course_not_found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrVerificationInProgress):
		return http.StatusConflict, "verification_in_progress"
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadGateway, "gateway_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body := apiError(r, "validation_failed")
		body.Fields = verr.Fields
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	status, code := errorStatus(err)
	l := logging.With(r.Context(), s.log)
	if status >= 500 {
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	writeJSON(w, status, apiError(r, code))
}

func itoa(n int) string { return strconv.Itoa(n) }

// ===== Handlers =====

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSession is called by the identity provider after its handshake.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.users.Authenticate(r.Context(), model.Identity{ProviderID: req.ProviderID, Email: req.Email, Name: req.Name})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	token, exp, err := s.auth.Mint(w, u)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("mint session: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": exp.UTC(),
		"user":       toUserView(u),
	})
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	scope, err := req.toScope()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.pricing.CreateOrder(r.Context(), userIDFrom(r.Context()), scope)
	if err != nil {
		metrics.IncOrder(string(scope.Kind), "error")
		s.writeError(w, r, err)
		return
	}
	metrics.IncOrder(string(scope.Kind), "created")
	writeJSON(w, http.StatusCreated, map[string]any{
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"receipt":  order.Receipt,
		"provider": order.Provider,
		"key_id":   s.opts.PublicKeyID,
		"scope":    toScopeView(order.Scope),
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req verifyRequest
	if err := s.decode(w, r, &req); err != nil {
		metrics.ObserveVerify("rejected", "validation", time.Since(start).Seconds())
		s.writeError(w, r, err)
		return
	}
	scope, err := req.toScope()
	if err != nil {
		metrics.ObserveVerify("rejected", "invalid_category", time.Since(start).Seconds())
		s.writeError(w, r, err)
		return
	}

	ctx := logging.WithOrderRef(r.Context(), req.OrderRef)
	out, err := s.verifier.VerifyAndRecord(ctx, userIDFrom(ctx), usecase.VerifyRequest{
		OrderRef:   req.OrderRef,
		PaymentRef: req.PaymentRef,
		Signature:  req.Signature,
		Scope:      scope,
	})
	if err != nil {
		status, code := errorStatus(err)
		result := "rejected"
		if status >= 500 {
			result = "error"
		}
		metrics.ObserveVerify(result, code, time.Since(start).Seconds())
		s.writeError(w, r.WithContext(ctx), err)
		return
	}
	metrics.ObserveVerify("ok", "", time.Since(start).Seconds())
	s.recordOutcome(out)

	n := out.Total()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":        translatorFor(r).N("courses_unlocked", n),
		"unlocked":       len(out.Unlocked),
		"already_active": len(out.AlreadyActive),
		"consumed":       len(out.Consumed),
		"scope":          toScopeView(out.Scope),
		"entitlements":   toEntitlementViews(append(append([]*model.Entitlement{}, out.Unlocked...), out.AlreadyActive...)),
	})
}

// recordOutcome counts revenue once per purchase: a bundle's records all
// carry the bundle price.
func (s *Server) recordOutcome(out *model.EntitlementOutcome) {
	kind := string(out.Scope.Kind)
	for _, e := range out.Unlocked {
		metrics.IncEntitlementCreated(string(e.Category), kind)
	}
	for _, e := range out.AlreadyActive {
		metrics.IncEntitlementAlreadyActive(string(e.Category), kind)
	}
	if len(out.Unlocked) > 0 {
		metrics.AddEntitlementRevenue(s.opts.Currency, out.Unlocked[0].Amount)
	}
}

func (s *Server) handleCourseAccess(w http.ResponseWriter, r *http.Request) {
	cat, err := model.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	courseID := chi.URLParam(r, "courseID")
	e, err := s.access.CourseAccess(r.Context(), userIDFrom(r.Context()), courseID, cat)
	if err != nil {
		metrics.IncAccessCheck("course", "error")
		s.writeError(w, r, err)
		return
	}
	body := map[string]any{
		"course_id":  courseID,
		"category":   string(cat),
		"has_access": e != nil,
	}
	if e != nil {
		body["expires_at"] = e.ExpiresAt
		metrics.IncAccessCheck("course", "granted")
	} else {
		metrics.IncAccessCheck("course", "denied")
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleBundleAccess(w http.ResponseWriter, r *http.Request) {
	cat, err := model.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.access.HasBundleAccess(r.Context(), userIDFrom(r.Context()), cat)
	if err != nil {
		metrics.IncAccessCheck("bundle", "error")
		s.writeError(w, r, err)
		return
	}
	result := "denied"
	if ok {
		result = "granted"
	}
	metrics.IncAccessCheck("bundle", result)
	writeJSON(w, http.StatusOK, map[string]any{"category": string(cat), "has_access": ok})
}

func (s *Server) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	list, err := s.access.ListForUser(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": toEntitlementViews(list)})
}
