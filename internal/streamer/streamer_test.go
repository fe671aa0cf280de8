package streamer

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/babupakkakivellu/File-To-Link/internal/bot"
	"github.com/gotd/td/tg"
)

func TestGeometryFor(t *testing.T) {
	cases := []struct {
		name         string
		start, end   int64
		offset       int64
		firstPartCut int64
		lastPartCut  int64
		partCount    int64
	}{
		{"full small file", 0, 999, 0, 0, 1000, 1},
		{"exactly one chunk", 0, ChunkSize - 1, 0, 0, ChunkSize, 1},
		{"one byte past a chunk", 0, ChunkSize, 0, 0, 1, 2},
		{"aligned second chunk", ChunkSize, 2*ChunkSize - 1, ChunkSize, 0, ChunkSize, 1},
		{"unaligned straddle", 500000, 1500000, 0, 500000, 451425, 2},
		{"mid-file seek", 3*ChunkSize + 100, 5*ChunkSize + 50, 3 * ChunkSize, 100, 51, 3},
		{"single byte", 42, 42, 0, 42, 43, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			geo := GeometryFor(tc.start, tc.end)
			if geo.Offset != tc.offset {
				t.Errorf("Offset = %d, want %d", geo.Offset, tc.offset)
			}
			if geo.FirstPartCut != tc.firstPartCut {
				t.Errorf("FirstPartCut = %d, want %d", geo.FirstPartCut, tc.firstPartCut)
			}
			if geo.LastPartCut != tc.lastPartCut {
				t.Errorf("LastPartCut = %d, want %d", geo.LastPartCut, tc.lastPartCut)
			}
			if geo.PartCount != tc.partCount {
				t.Errorf("PartCount = %d, want %d", geo.PartCount, tc.partCount)
			}
			if got, want := geo.Length(), tc.end-tc.start+1; got != want {
				t.Errorf("Length = %d, want %d", got, want)
			}
		})
	}
}

// fakeFile serves aligned chunks out of a deterministic in-memory byte
// pattern, counting upstream calls.
type fakeFile struct {
	size  int64
	calls int
}

func (f *fakeFile) at(i int64) byte {
	return byte(i % 251)
}

func (f *fakeFile) fetch(_ context.Context, _ *tg.Client, _ tg.InputFileLocationClass, offset int64, limit int) ([]byte, error) {
	f.calls++
	if offset%ChunkSize != 0 {
		return nil, errors.New("unaligned offset")
	}
	if offset >= f.size {
		return nil, nil
	}
	end := offset + int64(limit)
	if end > f.size {
		end = f.size
	}
	chunk := make([]byte, end-offset)
	for i := range chunk {
		chunk[i] = f.at(offset + int64(i))
	}
	return chunk, nil
}

func newTestReader(file *fakeFile, start, end int64) (*streamReader, *bot.Worker) {
	worker := &bot.Worker{ID: 1}
	worker.AcquireStream()
	geo := GeometryFor(start, end)
	return &streamReader{
		ctx:      context.Background(),
		streamer: &ByteStreamer{worker: worker, fetchChunk: file.fetch},
		geo:      geo,
		offset:   geo.Offset,
	}, worker
}

func TestStreamReaderRanges(t *testing.T) {
	file := &fakeFile{size: 5_000_000}
	cases := []struct {
		name      string
		start     int64
		end       int64
		wantCalls int
	}{
		{"full file", 0, file.size - 1, 5},
		{"aligned prefix", 0, ChunkSize - 1, 1},
		{"unaligned straddle", 500000, 1500000, 2},
		{"tail", file.size - 10, file.size - 1, 1},
		{"single byte", 1_048_576, 1_048_576, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			file.calls = 0
			reader, worker := newTestReader(file, tc.start, tc.end)
			body, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if int64(len(body)) != tc.end-tc.start+1 {
				t.Fatalf("read %d bytes, want %d", len(body), tc.end-tc.start+1)
			}
			for i, b := range body {
				if want := file.at(tc.start + int64(i)); b != want {
					t.Fatalf("byte %d = %d, want %d", i, b, want)
				}
			}
			if file.calls != tc.wantCalls {
				t.Errorf("upstream calls = %d, want %d", file.calls, tc.wantCalls)
			}
			if err := reader.Close(); err != nil {
				t.Fatal(err)
			}
			if worker.Load() != 0 {
				t.Errorf("worker load = %d after close, want 0", worker.Load())
			}
		})
	}
}

func TestStreamReaderShortFile(t *testing.T) {
	// Requesting past EOF on a file shorter than the range is a normal
	// termination, not an error.
	file := &fakeFile{size: 100}
	reader, _ := newTestReader(file, 0, 2*ChunkSize-1)
	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(body) != 100 {
		t.Errorf("read %d bytes, want 100", len(body))
	}
	reader.Close()
}

func TestStreamReaderCloseIsIdempotent(t *testing.T) {
	file := &fakeFile{size: 10}
	reader, worker := newTestReader(file, 0, 9)
	reader.Close()
	reader.Close()
	if worker.Load() != 0 {
		t.Errorf("worker load = %d, want 0 after double close", worker.Load())
	}
}

func TestStreamReaderFetchErrorMarksFailure(t *testing.T) {
	worker := &bot.Worker{ID: 2}
	worker.AcquireStream()
	fetchErr := errors.New("boom")
	geo := GeometryFor(0, ChunkSize-1)
	reader := &streamReader{
		ctx: context.Background(),
		streamer: &ByteStreamer{
			worker: worker,
			fetchChunk: func(context.Context, *tg.Client, tg.InputFileLocationClass, int64, int) ([]byte, error) {
				return nil, fetchErr
			},
		},
		geo:    geo,
		offset: geo.Offset,
	}
	if _, err := io.ReadAll(reader); !errors.Is(err, fetchErr) {
		t.Fatalf("ReadAll error = %v, want %v", err, fetchErr)
	}
	reader.Close()
	if worker.FailedRequests() != 1 {
		t.Errorf("failed requests = %d, want 1", worker.FailedRequests())
	}
}
