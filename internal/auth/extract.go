package auth

import "strings"

// ExtractBearer pulls the token out of an Authorization header value.  The
// header must hold exactly two whitespace-separated parts, the first being
// "bearer" in any case.
func ExtractBearer(header string) (string, error) {
	parts := strings.Fields(header)
	if len(parts) == 0 {
		return "", ErrMissingHeader
	}
	if !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedScheme
	}
	switch {
	case len(parts) == 1:
		return "", ErrMissingToken
	case len(parts) > 2:
		return "", ErrExtraTokenParts
	}
	return parts[1], nil
}
