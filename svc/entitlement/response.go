package entitlement

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bizkit-fr/entitlements/pkg/plans"
)

// Envelope is the body of every API response.
type Envelope struct {
	Code  string       `json:"code"`
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned by the API.
const (
	CodeOK              = "ok"
	CodeUnauthenticated = "unauthenticated"
	CodeUnavailable     = "entitlement_unavailable"
	CodeUpgradeRequired = "upgrade_required"
	CodeLimitExceeded   = "limit_exceeded"
	CodeDowngradeDenied = "downgrade_not_possible"
	CodeNotFound        = "not_found"
	CodeBadRequest      = "bad_request"
	CodeInternal        = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Envelope{Code: CodeOK, Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, Envelope{Code: code, Error: &ErrorDetail{Code: code, Message: msg}})
}

// errorStatus maps service errors to HTTP statuses. Data-access failures
// answer 503 so clients can tell "unknown" from "denied".
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, CodeUnauthenticated
	case errors.Is(err, ErrFeatureNotAvailable):
		return http.StatusPaymentRequired, CodeUpgradeRequired
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusPaymentRequired, CodeLimitExceeded
	case errors.Is(err, ErrDowngradeNotPossible):
		return http.StatusConflict, CodeDowngradeDenied
	case errors.Is(err, ErrPlanNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, plans.ErrUnknownResource), errors.Is(err, plans.ErrUnknownFeature):
		return http.StatusBadRequest, CodeBadRequest
	case IsUnavailable(err):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// quota renders a limit for JSON clients: nil means unlimited.
func quota(limit int64) *int64 {
	if limit == plans.Unlimited {
		return nil
	}
	return &limit
}

type planView struct {
	Name        string            `json:"name"`
	Rank        int               `json:"rank"`
	Description string            `json:"description,omitempty"`
	Price       plans.Money       `json:"price"`
	Interval    string            `json:"interval"`
	Free        bool              `json:"free"`
	Features    []plans.Feature   `json:"features"`
	Limits      map[string]*int64 `json:"limits"`
}

func newPlanView(p plans.Plan, free bool) planView {
	v := planView{
		Name:        p.Name,
		Rank:        p.Rank,
		Description: p.Description,
		Price:       p.Price,
		Interval:    string(p.Interval),
		Free:        free,
		Features:    p.Features,
		Limits:      make(map[string]*int64, len(p.Limits)),
	}
	for res, limit := range p.Limits {
		v.Limits[string(res)] = quota(limit)
	}
	return v
}

type snapshotView struct {
	Plan     string            `json:"plan"`
	Status   string            `json:"status,omitempty"`
	Active   bool              `json:"active"`
	Features []plans.Feature   `json:"features"`
	Limits   map[string]*int64 `json:"limits"`
}

type featureView struct {
	Feature string `json:"feature"`
	Allowed bool   `json:"allowed"`
}

type resourceView struct {
	Resource string `json:"resource"`
	Allowed  bool   `json:"allowed"`
	Used     *int64 `json:"used,omitempty"`
	Limit    *int64 `json:"limit"`
}

type usageView struct {
	Used    int64  `json:"used"`
	Limit   *int64 `json:"limit"`
	Percent int    `json:"percent"`
}

func newUsageView(u UsageInfo) usageView {
	v := usageView{Used: u.Current, Limit: quota(u.Limit), Percent: -1}
	if !u.Unlimited() {
		v.Percent = 100
		if u.Limit > 0 {
			v.Percent = int(min(u.Current*100/u.Limit, 100))
		}
	}
	return v
}

type downgradeView struct {
	Plan    string `json:"plan"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
