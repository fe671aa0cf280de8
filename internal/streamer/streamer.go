package streamer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/types"
	"github.com/babupakkakivellu/File-To-Link/internal/utils"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// ChunkSize is the fixed upload.getFile window. Telegram requires the
// offset to be aligned to the limit, so every download starts at the
// chunk boundary at or before the first requested byte.
const ChunkSize int64 = 1024 * 1024

const (
	chunkTimeout    = 15 * time.Second
	chunkRetries    = 3
	chunkRetryDelay = time.Second
)

// Geometry maps an inclusive byte range [Start, End] onto aligned
// chunk-fetch parameters.
type Geometry struct {
	Start int64
	End   int64

	// Offset is Start rounded down to the chunk boundary.
	Offset int64
	// FirstPartCut is how many leading bytes of the first chunk precede
	// Start and must be discarded.
	FirstPartCut int64
	// LastPartCut is the number of bytes of the last chunk to keep.
	LastPartCut int64
	// PartCount is the number of chunks the range spans.
	PartCount int64
}

// GeometryFor computes the fetch geometry for the inclusive byte range
// [start, end].
func GeometryFor(start, end int64) Geometry {
	offset := start - (start % ChunkSize)
	return Geometry{
		Start:        start,
		End:          end,
		Offset:       offset,
		FirstPartCut: start - offset,
		LastPartCut:  end%ChunkSize + 1,
		PartCount:    end/ChunkSize + 1 - offset/ChunkSize,
	}
}

// Length returns the number of bytes the range covers.
func (g Geometry) Length() int64 {
	return g.End - g.Start + 1
}

// messageFetcher resolves a message from the archive channel.
type messageFetcher func(ctx context.Context, channelID int64, messageID int) (*tg.Message, error)

// chunkFetcher fetches one aligned chunk. offset must be a multiple of
// ChunkSize and limit a power of two that divides it.
type chunkFetcher func(ctx context.Context, api *tg.Client, location tg.InputFileLocationClass, offset int64, limit int) ([]byte, error)

// ByteStreamer streams file bytes through one worker bot. It owns the
// worker's per-DC media sessions and its slice of the properties cache.
type ByteStreamer struct {
	worker   *bot.Worker
	sessions *sessionPool
	log      *zap.Logger

	fetchMessage messageFetcher
	fetchChunk   chunkFetcher
}

var streamers sync.Map // worker ID -> *ByteStreamer

// ForWorker returns the streamer bound to a worker, creating it on
// first use. Streamers are kept for the life of the process so media
// sessions are dialed once per DC per worker.
func ForWorker(w *bot.Worker) *ByteStreamer {
	if existing, ok := streamers.Load(w.ID); ok {
		return existing.(*ByteStreamer)
	}
	log := utils.Logger.Named("Streamer").With(zap.Int("worker", w.ID))
	s := &ByteStreamer{
		worker:     w,
		sessions:   newSessionPool(w.Client, log),
		log:        log,
		fetchChunk: fetchChunk,
	}
	s.fetchMessage = func(ctx context.Context, channelID int64, messageID int) (*tg.Message, error) {
		return utils.GetMessage(ctx, w.Client, channelID, messageID)
	}
	actual, _ := streamers.LoadOrStore(w.ID, s)
	return actual.(*ByteStreamer)
}

// CloseAll tears down every cached media session. Called on shutdown.
func CloseAll() {
	streamers.Range(func(key, value any) bool {
		value.(*ByteStreamer).sessions.close()
		streamers.Delete(key)
		return true
	})
}

// Worker returns the worker this streamer is bound to.
func (s *ByteStreamer) Worker() *bot.Worker {
	return s.worker
}

// NewReader opens a reader over the byte range described by geo. The
// worker's stream counter is held until Close.
func (s *ByteStreamer) NewReader(ctx context.Context, file *types.FileIdentity, geo Geometry) (io.ReadCloser, error) {
	location, err := Location(file)
	if err != nil {
		return nil, err
	}
	api, err := s.sessions.api(ctx, file.DCID)
	if err != nil {
		return nil, err
	}

	s.worker.AcquireStream()
	s.log.Debug("Opened stream",
		zap.Int64("start", geo.Start),
		zap.Int64("end", geo.End),
		zap.Int64("parts", geo.PartCount))

	return &streamReader{
		ctx:      ctx,
		streamer: s,
		api:      api,
		location: location,
		geo:      geo,
		offset:   geo.Offset,
	}, nil
}

// streamReader walks the chunk sequence lazily, trimming the first and
// last chunks to the requested range. It is not safe for concurrent use;
// an HTTP response writer is the only consumer.
type streamReader struct {
	ctx      context.Context
	streamer *ByteStreamer
	api      *tg.Client
	location tg.InputFileLocationClass
	geo      Geometry

	buf    []byte
	part   int64
	offset int64

	failed bool
	closed bool
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.part >= r.geo.PartCount {
			return 0, io.EOF
		}
		if err := r.fetchNext(); err != nil {
			r.failed = true
			return 0, err
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// fetchNext pulls the next chunk and trims it to the range. A short or
// empty chunk means the upstream file ended; the reader reports EOF on
// the following Read.
func (r *streamReader) fetchNext() error {
	chunk, err := r.streamer.fetchChunk(r.ctx, r.api, r.location, r.offset, int(ChunkSize))
	if err != nil {
		return err
	}
	if len(chunk) == 0 {
		r.part = r.geo.PartCount
		return nil
	}

	first := r.part == 0
	last := r.part == r.geo.PartCount-1
	switch {
	case first && last:
		end := r.geo.LastPartCut
		if end > int64(len(chunk)) {
			end = int64(len(chunk))
		}
		if r.geo.FirstPartCut >= end {
			chunk = nil
		} else {
			chunk = chunk[r.geo.FirstPartCut:end]
		}
	case first:
		if r.geo.FirstPartCut >= int64(len(chunk)) {
			chunk = nil
		} else {
			chunk = chunk[r.geo.FirstPartCut:]
		}
	case last:
		if r.geo.LastPartCut < int64(len(chunk)) {
			chunk = chunk[:r.geo.LastPartCut]
		}
	}

	r.buf = chunk
	r.part++
	r.offset += ChunkSize
	return nil
}

// Close releases the worker's stream slot. Safe to call more than once;
// only the first call counts.
func (r *streamReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.streamer.worker.ReleaseStream(r.failed)
	return nil
}

// fetchChunk performs one upload.getFile call with a per-attempt
// deadline. Timeouts are retried; any other error aborts immediately so
// FILE_REFERENCE_EXPIRED and friends surface to the caller.
func fetchChunk(ctx context.Context, api *tg.Client, location tg.InputFileLocationClass, offset int64, limit int) ([]byte, error) {
	req := &tg.UploadGetFileRequest{
		Location: location,
		Offset:   offset,
		Limit:    limit,
	}
	req.SetPrecise(true)

	var lastErr error
	for attempt := 1; attempt <= chunkRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, chunkTimeout)
		res, err := api.UploadGetFile(attemptCtx, req)
		cancel()
		if err == nil {
			file, ok := res.(*tg.UploadFile)
			if !ok {
				return nil, fmt.Errorf("unexpected upload.getFile result: %T", res)
			}
			return file.Bytes, nil
		}
		if ctx.Err() != nil {
			// Client went away; not an upstream problem.
			return nil, ctx.Err()
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
		if attempt < chunkRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(chunkRetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("%w: offset %d: %v", ErrUpstreamTimeout, offset, lastErr)
}
