package marvelcdb

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"marvelcdc/internal/errs"
)

// ParseDecklistURL extracts the decklist id from a MarvelCDB share URL such
// as https://marvelcdb.com/decklist/view/12345/slug. The id is the path
// segment following "view".
func ParseDecklistURL(raw string) (int64, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return 0, fmt.Errorf("%w: invalid URL", errs.ErrValidation)
	}
	if !strings.Contains(u.Host, "marvelcdb.com") {
		return 0, fmt.Errorf("%w: URL must be from marvelcdb.com", errs.ErrValidation)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, part := range parts {
		if part != "view" || i+1 >= len(parts) {
			continue
		}
		id, err := strconv.ParseInt(parts[i+1], 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("%w: invalid MarvelCDB URL format", errs.ErrValidation)
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: invalid MarvelCDB URL format", errs.ErrValidation)
}
