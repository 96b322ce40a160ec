package directory

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/tartampluch/go-quickevent/internal/config"
	"golang.org/x/sync/errgroup"
)

// Aggregator is the contact directory service. It fans out to its sources,
// merges their results with fixed priority, and persists the merged set in
// a time-stamped cache envelope.
//
// Both public operations are total: every failure mode degrades to an empty
// (or partial) result and is only reported through the logs. Contact lookup
// is a convenience feature and must never block or break event creation, so
// callers cannot distinguish "no contacts exist" from "every source failed"
// at this interface.
type Aggregator struct {
	Tokens   TokenProvider
	Store    Store
	Sources  []Source // priority order; first writer wins on email collisions
	Searcher Searcher
	Clock    Clock

	// TTL overrides the cache freshness window; zero means the default.
	TTL time.Duration
}

// sourceOutcome is the tagged result of one source fetch. Keeping the error
// alongside the list lets the merge and the logs distinguish "source
// returned nothing" from "source failed", even though the public surface
// only ever exposes the merged list.
type sourceOutcome struct {
	name     string
	contacts []Contact
	err      error
}

func (a *Aggregator) ttl() time.Duration {
	if a.TTL > 0 {
		return a.TTL
	}
	return config.ContactCacheTTL
}

// GetContacts returns the merged directory. With forceRefresh=false a fresh
// cache envelope is served without any network access; otherwise the three
// sources are fetched concurrently, merged by email with first-writer-wins
// priority, persisted, and returned.
func (a *Aggregator) GetContacts(ctx context.Context, forceRefresh bool) []Contact {
	start := time.Now()
	log := slog.With(config.LogKeyComponent, config.CompDirectory)
	now := a.Clock.Now()

	if !forceRefresh {
		if env, err := a.Store.Load(); err == nil && env != nil && isFresh(env.Timestamp, now, a.ttl()) {
			log.DebugContext(ctx, config.MsgCacheHit,
				config.LogKeyCount, len(env.Data),
				config.LogKeyAge, now.Sub(time.UnixMilli(env.Timestamp)).String(),
			)
			return env.Data
		} else if err != nil {
			// A corrupt envelope is treated like an absent one.
			log.Warn(config.ErrCacheDecode, config.LogKeyError, err)
		}
	}
	log.InfoContext(ctx, config.MsgCacheStale, config.LogKeyForce, forceRefresh)

	token, err := a.Tokens.Token(ctx, false)
	if err != nil {
		log.InfoContext(ctx, config.MsgTokenMissing, config.LogKeyError, err)
		return []Contact{}
	}

	// Fan-out/join: one goroutine per source, all outcomes collected.
	// Faults are normalized inside each branch so a failing source never
	// cancels its siblings.
	outcomes := make([]sourceOutcome, len(a.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.Sources {
		g.Go(func() error {
			list, fetchErr := src.Fetch(gctx, token)
			outcomes[i] = sourceOutcome{name: src.Name(), contacts: list, err: fetchErr}
			return nil
		})
	}
	_ = g.Wait()

	lists := make([][]Contact, 0, len(outcomes))
	for _, out := range outcomes {
		if out.err != nil {
			log.Warn(config.MsgSourceFailed,
				config.LogKeySource, out.name,
				config.LogKeyError, out.err,
			)
			continue
		}
		log.Debug(config.MsgSourceFetched,
			config.LogKeySource, out.name,
			config.LogKeyCount, len(out.contacts),
		)
		lists = append(lists, out.contacts)
	}

	merged := mergeByEmail(lists...)
	capped := capContacts(merged, config.MaxCachedContacts)
	if len(capped) < len(merged) {
		log.Warn(config.MsgCacheTruncated,
			config.LogKeyCount, len(capped),
			config.LogKeyDropped, len(merged)-len(capped),
		)
	}

	env := &Envelope{Data: capped, Timestamp: now.UnixMilli()}
	if err := a.Store.Save(env); err != nil {
		// Persisting is best effort; the fetched result is still served.
		log.Warn(config.ErrCacheEncode, config.LogKeyError, err)
	} else {
		log.Debug(config.MsgCacheSaved, config.LogKeyCount, len(capped))
	}

	log.Info(config.MsgRefreshDone,
		config.LogKeyCount, len(capped),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return capped
}

// SearchContacts runs the on-demand fuzzy search. Queries shorter than the
// configured minimum return an empty list without touching the network; the
// guard is cost control, not an error. Results are additive: callers merge
// them into the set they already hold (see MergeAdditive), never replacing
// the cached directory.
func (a *Aggregator) SearchContacts(ctx context.Context, query string) []Contact {
	log := slog.With(config.LogKeyComponent, config.CompDirectory)

	if utf8.RuneCountInString(query) < config.MinSearchQueryLen {
		log.Debug(config.MsgSearchSkipped, config.LogKeyQuery, utf8.RuneCountInString(query))
		return []Contact{}
	}

	token, err := a.Tokens.Token(ctx, false)
	if err != nil {
		log.InfoContext(ctx, config.MsgTokenMissing, config.LogKeyError, err)
		return []Contact{}
	}

	results, err := a.Searcher.Search(ctx, token, query)
	if err != nil {
		log.Warn(config.MsgSourceFailed,
			config.LogKeySource, config.SourceOtherContacts,
			config.LogKeyError, err,
		)
		return []Contact{}
	}

	log.Debug(config.MsgSearchDone,
		config.LogKeyQuery, utf8.RuneCountInString(query),
		config.LogKeyCount, len(results),
	)
	return results
}

// mergeByEmail merges the given lists with fixed priority: lists are
// consumed in order and an email already claimed by an earlier list is
// never overwritten. The result preserves insertion order and contains
// each email exactly once.
func mergeByEmail(lists ...[]Contact) []Contact {
	seen := make(map[string]struct{})
	var merged []Contact
	for _, list := range lists {
		for _, c := range list {
			if c.Email == "" {
				continue
			}
			if _, ok := seen[c.Email]; ok {
				continue
			}
			seen[c.Email] = struct{}{}
			merged = append(merged, c)
		}
	}
	return merged
}

// MergeAdditive appends to 'held' every entry of 'extra' whose email is not
// already present. It is the helper callers use to fold search results into
// the contact set they display, per the additive search contract.
func MergeAdditive(held, extra []Contact) []Contact {
	return mergeByEmail(held, extra)
}
