// Package collector resolves a playlist URL into every playlist it
// references: a media playlist on its own, or a master playlist together
// with all of its variant media playlists, fetched concurrently.
package collector

import (
	"context"
	"fmt"

	"github.com/agleyzer/m3u8kit/internal/fetch"
	"github.com/agleyzer/m3u8kit/internal/metrics"
	"github.com/agleyzer/m3u8kit/internal/parser"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/variant"
	"github.com/agleyzer/m3u8kit/pkg/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrNoVariants is returned when a master playlist lists no variants.
var ErrNoVariants = fmt.Errorf("%w: master playlist contains no variants", playlist.ErrMalformed)

// Result is the outcome of a collection.
type Result struct {
	// Media holds every media playlist, in variant order for a master
	Media []*playlist.MediaPlaylist

	// Masters holds the master playlist, if any, followed by variant URLs
	// that turned out to be master playlists themselves
	Masters []*playlist.MasterPlaylist
}

// Collector fetches and parses playlists through a Fetcher.
type Collector struct {
	fetcher fetch.Fetcher
	logger  *logger.Logger
}

// New creates a Collector.
func New(fetcher fetch.Fetcher, log *logger.Logger) *Collector {
	if log == nil {
		log = logger.Nop()
	}
	return &Collector{
		fetcher: fetcher,
		logger:  log,
	}
}

// Load fetches and parses a single playlist.
func (c *Collector) Load(ctx context.Context, url string) (playlist.Playlist, error) {
	text, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	pl, err := parser.Parse(text, url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playlist %s: %w", url, err)
	}

	return pl, nil
}

// Collect loads url. A media playlist is returned on its own. For a master
// playlist every variant is fetched concurrently; the first failure is
// returned as soon as it is observed and the results of fetches still in
// flight are discarded.
func (c *Collector) Collect(ctx context.Context, url string) (*Result, error) {
	log := c.logger.WithFields("collection", uuid.NewString(), "url", url)

	res, err := c.collect(ctx, url, log)
	metrics.CollectTotal.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		log.WithError(err).Warnw("collection failed")
		return nil, err
	}

	log.Infow("collection complete", "media", len(res.Media), "masters", len(res.Masters))
	return res, nil
}

func (c *Collector) collect(ctx context.Context, url string, log *logger.Logger) (*Result, error) {
	log.Debugw("fetching playlist")

	pl, err := c.Load(ctx, url)
	if err != nil {
		return nil, err
	}

	switch p := pl.(type) {
	case *playlist.MediaPlaylist:
		log.Debugw("parsed media playlist", "kind", p.Kind, "segments", len(p.Segments))
		return &Result{Media: []*playlist.MediaPlaylist{p}}, nil
	case *playlist.MasterPlaylist:
		log.Debugw("parsed master playlist", "variants", len(p.Variants))
		if len(p.Variants) == 0 {
			return nil, ErrNoVariants
		}
		return c.collectVariants(ctx, p, log)
	default:
		return nil, fmt.Errorf("unexpected playlist type %T", pl)
	}
}

// outcome is one completed variant fetch.
type outcome struct {
	index    int
	playlist playlist.Playlist
	err      error
}

// collectVariants fans out one fetch per variant and joins on a pending
// counter. The calling goroutine is the only writer of the result slices.
func (c *Collector) collectVariants(ctx context.Context, master *playlist.MasterPlaylist, log *logger.Logger) (*Result, error) {
	urls := lo.Map(master.Variants, func(v variant.Variant, _ int) string { return v.URL })

	// Buffered so abandoned fetches can always deliver and exit.
	done := make(chan outcome, len(urls))
	for i, u := range urls {
		go func(i int, u string) {
			pl, err := c.Load(ctx, u)
			done <- outcome{index: i, playlist: pl, err: err}
		}(i, u)
	}

	loaded := make([]playlist.Playlist, len(urls))
	for pending := len(urls); pending > 0; pending-- {
		o := <-done
		if o.err != nil {
			return nil, fmt.Errorf("failed to load variant %d: %w", o.index, o.err)
		}
		log.Debugw("variant loaded", "index", o.index, "remaining", pending-1)
		loaded[o.index] = o.playlist
	}

	res := &Result{Masters: []*playlist.MasterPlaylist{master}}
	for _, pl := range loaded {
		switch p := pl.(type) {
		case *playlist.MediaPlaylist:
			res.Media = append(res.Media, p)
		case *playlist.MasterPlaylist:
			res.Masters = append(res.Masters, p)
		}
	}

	return res, nil
}
