package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/agleyzer/m3u8kit/internal/collector"
	"github.com/agleyzer/m3u8kit/internal/config"
	"github.com/agleyzer/m3u8kit/internal/fetch"
	"github.com/agleyzer/m3u8kit/internal/playlist"
	"github.com/agleyzer/m3u8kit/internal/segment"
	"github.com/agleyzer/m3u8kit/internal/variant"
	"github.com/agleyzer/m3u8kit/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaOf(kind playlist.Kind, durations ...int64) *playlist.MediaPlaylist {
	p := &playlist.MediaPlaylist{URL: "http://example.com/index.m3u8", Kind: kind, TargetDuration: 10000}
	var start int64
	for i, d := range durations {
		p.Segments = append(p.Segments, segment.Segment{
			ID:       int64(100 + i),
			URL:      "seg" + string(rune('0'+i)) + ".ts",
			Duration: d,
			Range:    segment.Range{Start: start, End: start + d},
		})
		start += d
	}
	return p
}

func TestLoopSubset(t *testing.T) {
	tests := []struct {
		name        string
		durations   []int64
		maxDuration time.Duration
		wantCount   int
		wantTotal   int64
	}{
		{
			name:        "zero duration returns all segments",
			durations:   []int64{10000, 10000, 10000},
			maxDuration: 0,
			wantCount:   3,
			wantTotal:   30000,
		},
		{
			name:        "empty segments returns empty",
			durations:   nil,
			maxDuration: 10 * time.Second,
			wantCount:   0,
			wantTotal:   0,
		},
		{
			name:        "first segment longer than duration returns first segment",
			durations:   []int64{15000, 10000},
			maxDuration: 10 * time.Second,
			wantCount:   1,
			wantTotal:   15000,
		},
		{
			name:        "includes segment within 50% threshold",
			durations:   []int64{10000, 4000},
			maxDuration: 10 * time.Second,
			wantCount:   2,
			wantTotal:   14000,
		},
		{
			name:        "boundary case at exactly 50% threshold",
			durations:   []int64{10000, 5000},
			maxDuration: 10 * time.Second,
			wantCount:   2,
			wantTotal:   15000,
		},
		{
			name:        "excludes segment exceeding 50% threshold",
			durations:   []int64{10000, 6000},
			maxDuration: 10 * time.Second,
			wantCount:   1,
			wantTotal:   10000,
		},
		{
			name:        "multiple segments within threshold",
			durations:   []int64{2000, 2000, 2000, 2000, 2000, 2000},
			maxDuration: 10 * time.Second,
			wantCount:   6,
			wantTotal:   12000,
		},
		{
			name:        "real-world case with 30 second limit",
			durations:   []int64{9900, 10000, 10100, 10000, 10000},
			maxDuration: 30 * time.Second,
			wantCount:   4,
			wantTotal:   40000,
		},
		{
			name:        "stops when next segment would exceed by more than 50%",
			durations:   []int64{8000, 8000, 8000},
			maxDuration: 10 * time.Second,
			wantCount:   1,
			wantTotal:   8000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mediaOf(playlist.KindVOD, tt.durations...)
			result := loopSubset(src, tt.maxDuration)

			if len(result.Segments) != tt.wantCount {
				t.Errorf("loopSubset() returned %d segments, want %d", len(result.Segments), tt.wantCount)
			}
			if got := result.Duration(); got != tt.wantTotal {
				t.Errorf("loopSubset() total duration = %d, want %d", got, tt.wantTotal)
			}
			if tt.maxDuration > 0 && result.TotalDuration != tt.wantTotal {
				t.Errorf("TotalDuration = %d, want %d", result.TotalDuration, tt.wantTotal)
			}

			for i, seg := range result.Segments {
				if seg != src.Segments[i] {
					t.Errorf("segment[%d] = %+v, want %+v", i, seg, src.Segments[i])
				}
			}

			if len(src.Segments) != len(tt.durations) {
				t.Error("loopSubset() modified its input")
			}
		})
	}
}

func TestPickMedia(t *testing.T) {
	_, err := pickMedia(nil)
	assert.Error(t, err)

	_, err = pickMedia(&collector.Result{})
	assert.Error(t, err)

	first := mediaOf(playlist.KindVOD, 1000)
	second := mediaOf(playlist.KindLive, 1000)
	got, err := pickMedia(&collector.Result{Media: []*playlist.MediaPlaylist{first, second}})
	require.NoError(t, err)
	assert.Same(t, first, got)
}

func TestPredicates(t *testing.T) {
	variants := []variant.Variant{
		{URL: "main.m3u8"},
		{URL: "base.m3u8"},
	}
	variants[0].Video.Profile = "Main"
	variants[0].Audio.Profile = "AAC-LC"
	variants[1].Video.Profile = "Base"
	variants[1].Audio.Profile = "HE-AAC"

	video, audio := predicates(config.SelectConfig{})
	assert.Equal(t, 1, variant.Select(variants, video, audio))

	video, audio = predicates(config.SelectConfig{Video: "^Main$", Audio: "LC"})
	assert.Equal(t, 0, variant.Select(variants, video, audio))

	video, audio = predicates(config.SelectConfig{Video: "High"})
	assert.Equal(t, variant.NoMatch, variant.Select(variants, video, audio))
}

const (
	masterBody = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-STREAM-INF:BANDWIDTH=800000,CODECS="avc1.42e01e,mp4a.40.2",RESOLUTION=640x360
low/index.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=2500000,CODECS="avc1.4d401f,mp4a.40.2",RESOLUTION=1280x720
high/index.m3u8
`
	mediaBody = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:4
#EXTINF:4.000,
seg0.ts
#EXTINF:4.000,
seg1.ts
#EXTINF:4.000,
seg2.ts
#EXT-X-ENDLIST
`
)

func newOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/master.m3u8", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, masterBody)
	})
	mux.HandleFunc("/low/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, mediaBody)
	})
	mux.HandleFunc("/high/index.m3u8", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, mediaBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

func TestInspectCommand(t *testing.T) {
	origin := newOrigin(t)

	out, err := execute(t, "inspect", "--verify", origin.URL+"/master.m3u8")
	require.NoError(t, err)

	assert.Contains(t, out, "master "+origin.URL+"/master.m3u8 (2 variants)")
	assert.Contains(t, out, "Base@3.0")
	assert.Contains(t, out, "Main@3.1")
	assert.Contains(t, out, "AAC-LC")
	assert.Contains(t, out, "levels: [360p 720p]")
	assert.Contains(t, out, "media "+origin.URL+"/low/index.m3u8")
	assert.Contains(t, out, "kind=VOD segments=3 duration=12.000s")
	assert.Equal(t, 3, strings.Count(out, "verified "))
}

func TestInspectCommand_NotFound(t *testing.T) {
	origin := newOrigin(t)

	_, err := execute(t, "inspect", origin.URL+"/missing.m3u8")
	assert.Error(t, err)
}

func TestSelectCommand(t *testing.T) {
	origin := newOrigin(t)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "default predicates",
			args: []string{"select", origin.URL + "/master.m3u8"},
			want: "0\t" + origin.URL + "/low/index.m3u8\n",
		},
		{
			name: "video pattern",
			args: []string{"select", "--video", "^Main$", origin.URL + "/master.m3u8"},
			want: "1\t" + origin.URL + "/high/index.m3u8\n",
		},
		{
			name:    "no match",
			args:    []string{"select", "--video", "High", origin.URL + "/master.m3u8"},
			wantErr: true,
		},
		{
			name:    "invalid pattern",
			args:    []string{"select", "--audio", "(", origin.URL + "/master.m3u8"},
			wantErr: true,
		},
		{
			name:    "media playlist",
			args:    []string{"select", origin.URL + "/low/index.m3u8"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestTrimCommand(t *testing.T) {
	origin := newOrigin(t)

	out, err := execute(t, "trim", "--start", "5s", "--max", "1", origin.URL+"/master.m3u8")
	require.NoError(t, err)

	assert.Contains(t, out, "#EXT-X-MEDIA-SEQUENCE:1")
	assert.Contains(t, out, origin.URL+"/low/seg1.ts")
	assert.NotContains(t, out, "seg0.ts")
	assert.NotContains(t, out, "seg2.ts")
	assert.Contains(t, out, "#EXT-X-ENDLIST")
}

func TestTrimCommand_NegativeStart(t *testing.T) {
	origin := newOrigin(t)

	_, err := execute(t, "trim", "--start", "-1s", origin.URL+"/low/index.m3u8")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "m3u8kit v"+version))
}

func TestInvalidConfig(t *testing.T) {
	_, err := execute(t, "--timeout", "0s", "inspect", "http://example.com/x.m3u8")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadSource(t *testing.T) {
	origin := newOrigin(t)
	log := logger.Nop()
	a := &app{
		cfg:       &config.Config{},
		logger:    log,
		collector: collector.New(fetch.NewHTTPFetcher(), log),
	}

	media, err := a.loadSource(context.Background(), origin.URL+"/master.m3u8")
	require.NoError(t, err)
	assert.Equal(t, origin.URL+"/low/index.m3u8", media.URL)
	assert.Len(t, media.Segments, 3)

	a.cfg.Select.Video = "^Main$"
	media, err = a.loadSource(context.Background(), origin.URL+"/master.m3u8")
	require.NoError(t, err)
	assert.Equal(t, origin.URL+"/high/index.m3u8", media.URL)

	// No match falls back to the first variant.
	a.cfg.Select.Video = "High"
	media, err = a.loadSource(context.Background(), origin.URL+"/master.m3u8")
	require.NoError(t, err)
	assert.Equal(t, origin.URL+"/low/index.m3u8", media.URL)

	_, err = a.loadSource(context.Background(), origin.URL+"/missing.m3u8")
	assert.Error(t, err)
}

func TestServeCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping serve test in short mode")
	}

	origin := newOrigin(t)
	chdir(t, t.TempDir())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"serve", "--port", strconv.Itoa(port), "--window", "2", origin.URL + "/master.m3u8"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/playlist.m3u8", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	assert.True(t, strings.HasPrefix(body, "#EXTM3U"))
	assert.Contains(t, body, origin.URL+"/low/seg0.ts")
	assert.Contains(t, body, origin.URL+"/low/seg1.ts")
	assert.NotContains(t, body, "seg2.ts")
	assert.NotContains(t, body, "#EXT-X-ENDLIST")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}
