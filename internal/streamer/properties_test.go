package streamer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/babupakkakivellu/File-To-Link/internal/cache"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

var cacheOnce sync.Once

func initTestCache() {
	cacheOnce.Do(func() {
		cache.InitCache(zap.NewNop())
	})
}

func testMessage() *tg.Message {
	media := &tg.MessageMediaDocument{}
	media.SetDocument(testDocument(&tg.DocumentAttributeFilename{FileName: "movie.mkv"}))
	msg := &tg.Message{ID: 42}
	msg.SetMedia(media)
	return msg
}

func TestFilePropertiesCaching(t *testing.T) {
	initTestCache()
	cache.GetCache().Flush()

	fetches := 0
	s := &ByteStreamer{
		worker: &bot.Worker{ID: 3},
		log:    zap.NewNop(),
		fetchMessage: func(context.Context, int64, int) (*tg.Message, error) {
			fetches++
			return testMessage(), nil
		},
	}

	ctx := context.Background()
	first, err := s.FileProperties(ctx, 1234567890, 42)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.FileProperties(ctx, 1234567890, 42)
	if err != nil {
		t.Fatal(err)
	}
	if fetches != 1 {
		t.Errorf("upstream fetches = %d, want 1", fetches)
	}
	if first.Name != "movie.mkv" || second.Name != "movie.mkv" {
		t.Errorf("Name = %q / %q, want movie.mkv", first.Name, second.Name)
	}
	if first.UniqueID != second.UniqueID {
		t.Errorf("UniqueID changed across cache hit: %q vs %q", first.UniqueID, second.UniqueID)
	}

	// A sweep forces exactly one refetch.
	cache.GetCache().Flush()
	if _, err := s.FileProperties(ctx, 1234567890, 42); err != nil {
		t.Fatal(err)
	}
	if fetches != 2 {
		t.Errorf("upstream fetches after flush = %d, want 2", fetches)
	}
}

func TestFilePropertiesPerWorkerEntries(t *testing.T) {
	initTestCache()
	cache.GetCache().Flush()

	newStreamer := func(id int, fetches *int) *ByteStreamer {
		return &ByteStreamer{
			worker: &bot.Worker{ID: id},
			log:    zap.NewNop(),
			fetchMessage: func(context.Context, int64, int) (*tg.Message, error) {
				*fetches++
				return testMessage(), nil
			},
		}
	}

	ctx := context.Background()
	var fetchesA, fetchesB int
	a := newStreamer(1, &fetchesA)
	b := newStreamer(2, &fetchesB)

	if _, err := a.FileProperties(ctx, 1234567890, 42); err != nil {
		t.Fatal(err)
	}
	if _, err := b.FileProperties(ctx, 1234567890, 42); err != nil {
		t.Fatal(err)
	}
	// Workers do not share entries; file references are session-bound.
	if fetchesA != 1 || fetchesB != 1 {
		t.Errorf("fetches = %d/%d, want 1/1", fetchesA, fetchesB)
	}
}

func TestFilePropertiesFetchError(t *testing.T) {
	initTestCache()
	cache.GetCache().Flush()

	fetchErr := errors.New("message not found in channel")
	s := &ByteStreamer{
		worker: &bot.Worker{ID: 4},
		log:    zap.NewNop(),
		fetchMessage: func(context.Context, int64, int) (*tg.Message, error) {
			return nil, fetchErr
		},
	}
	if _, err := s.FileProperties(context.Background(), 1234567890, 7); !errors.Is(err, fetchErr) {
		t.Errorf("error = %v, want %v", err, fetchErr)
	}
}

func TestFilePropertiesNoMedia(t *testing.T) {
	initTestCache()
	cache.GetCache().Flush()

	s := &ByteStreamer{
		worker: &bot.Worker{ID: 5},
		log:    zap.NewNop(),
		fetchMessage: func(context.Context, int64, int) (*tg.Message, error) {
			return &tg.Message{ID: 9}, nil
		},
	}
	if _, err := s.FileProperties(context.Background(), 1234567890, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
