package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Nick-McCarthy/M-Stash-sub001/internal/library"
	"github.com/Nick-McCarthy/M-Stash-sub001/internal/services"
)

// listOptionsFromQuery reads limit/offset/q parameters. Invalid values fall
// back to defaults; the store clamps ranges.
func listOptionsFromQuery(r *http.Request) library.ListOptions {
	query := r.URL.Query()
	opts := library.ListOptions{Query: strings.TrimSpace(query.Get("q"))}
	if v, err := strconv.Atoi(query.Get("limit")); err == nil {
		opts.Limit = v
	}
	if v, err := strconv.Atoi(query.Get("offset")); err == nil {
		opts.Offset = v
	}
	return opts
}

// itemPath splits an /api/{collection}/... request into the numeric id and
// the remaining subresource segment ("" for the bare item).
func itemPath(r *http.Request, prefix string) (int64, string, error) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if rest == "" {
		return 0, "", services.Wrap(services.ErrInvalidID, "server", "route", "missing id", nil)
	}
	idPart, sub, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", services.Wrap(services.ErrInvalidID, "server", "route", fmt.Sprintf("invalid id %q", idPart), nil)
	}
	return id, sub, nil
}
