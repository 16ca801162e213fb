package services

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tupyy/artifact-collector/internal/models"
)

var clientIDPattern = regexp.MustCompile(`(?i)^c\.[0-9a-f]{16}$`)

// IsClientID reports whether s is already a canonical client id.
func IsClientID(s string) bool {
	return clientIDPattern.MatchString(s)
}

// Resolver turns a host name into the id of the GRR client that last checked in under that name.
type Resolver struct {
	client Grr
	clock  clockwork.Clock
	log    *zap.SugaredLogger
}

func NewResolver(client Grr, clock clockwork.Clock) *Resolver {
	return &Resolver{
		client: client,
		clock:  clock,
		log:    zap.S().Named("resolver"),
	}
}

func (r *Resolver) Resolve(ctx context.Context, host string) (string, error) {
	if IsClientID(host) {
		return host, nil
	}

	r.log.Debugw("searching for client", "host", host)

	clients, err := r.client.SearchClients(ctx, host)
	if err != nil {
		return "", err
	}

	needle := strings.ToLower(host)
	matches := make([]models.Endpoint, 0, len(clients))
	for _, c := range clients {
		if strings.Contains(strings.ToLower(c.OSInfo.FQDN), needle) {
			matches = append(matches, c.ToModel())
		}
	}

	if len(matches) == 0 {
		return "", &models.ResolutionError{Host: host}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].LastSeenAt.Equal(matches[j].LastSeenAt) {
			return matches[i].LastSeenAt.After(matches[j].LastSeenAt)
		}
		return matches[i].ID < matches[j].ID
	})

	chosen := matches[0]
	now := r.clock.Now()
	r.log.Infow("found active client",
		"host", host,
		"client_id", chosen.ID,
		"fqdn", chosen.FQDN,
		"minutes_ago", int(now.Sub(chosen.LastSeenAt).Minutes()),
		"last_seen", humanize.RelTime(chosen.LastSeenAt, now, "ago", "from now"),
		"candidates", len(matches),
	)

	return chosen.ID, nil
}
