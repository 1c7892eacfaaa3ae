package commands

import (
	"context"
	"fmt"
	"strings"

	"todo/internal/service"
)

// resolveList finds a list by exact name, then by a case-insensitive
// match when exactly one list matches.
func resolveList(ctx context.Context, svc service.Service, name string) (service.List, error) {
	l, err := svc.List(ctx, name)
	if err == nil {
		return l, nil
	}
	if service.KindOf(err) != service.ErrListNotFound {
		return service.List{}, err
	}

	lists, lerr := svc.Lists(ctx)
	if lerr != nil {
		return service.List{}, lerr
	}
	var matches []service.List
	for _, l := range lists {
		if strings.EqualFold(l.Name, name) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return service.List{}, err
	case 1:
		return matches[0], nil
	default:
		return service.List{}, service.InvalidInput(fmt.Sprintf("ambiguous list name: %s", name))
	}
}

// listName joins positional args into a list name.
func listName(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
