package validation

import (
	"net/url"
	"slices"
	"strings"

	apperrors "go-inspection-service/internal/errors"
)

var fetchableSchemes = []string{"http", "https"}

// URLValidator decides whether a resource URL may be fetched. With no
// allowed hosts configured every host is accepted.
type URLValidator struct {
	allowedHosts []string
}

// NewURLValidator accepts http and https URLs whose host appears in
// allowedHosts. An entry of the form "*.example.com" matches any subdomain
// of example.com.
func NewURLValidator(allowedHosts ...string) *URLValidator {
	hosts := make([]string, 0, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts = append(hosts, h)
		}
	}
	return &URLValidator{allowedHosts: hosts}
}

// ValidateResourceURL checks a URL after backend rewriting, before any
// request is made.
func (v *URLValidator) ValidateResourceURL(resourceURL string) error {
	if strings.TrimSpace(resourceURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsed, err := url.Parse(resourceURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}
	if !slices.Contains(fetchableSchemes, strings.ToLower(parsed.Scheme)) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	if !v.hostAllowed(host) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}
	return nil
}

func (v *URLValidator) hostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if suffix, ok := strings.CutPrefix(allowed, "*"); ok {
			if strings.HasSuffix(host, suffix) {
				return true
			}
			continue
		}
		if host == allowed {
			return true
		}
	}
	return false
}
