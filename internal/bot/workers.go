package bot

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/babupakkakivellu/File-To-Link/config"
	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// Worker is one bot identity in the streaming pool. The stream counter
// tracks in-flight downloads routed through it and drives dispatch.
type Worker struct {
	ID     int
	Client *gotgproto.Client
	Self   *tg.User

	log            *zap.Logger
	activeStreams  int32
	totalRequests  int64
	failedRequests int64
	startTime      time.Time
}

func (w *Worker) String() string {
	return fmt.Sprintf("{Worker (%d|@%s)}", w.ID, w.Self.Username)
}

// AcquireStream marks a new in-flight stream on this worker.
func (w *Worker) AcquireStream() {
	atomic.AddInt32(&w.activeStreams, 1)
	atomic.AddInt64(&w.totalRequests, 1)
}

// ReleaseStream ends an in-flight stream. Must run on every exit path,
// normal or not, exactly once per AcquireStream.
func (w *Worker) ReleaseStream(failed bool) {
	atomic.AddInt32(&w.activeStreams, -1)
	if failed {
		atomic.AddInt64(&w.failedRequests, 1)
	}
}

// Load returns the number of in-flight streams.
func (w *Worker) Load() int32 {
	return atomic.LoadInt32(&w.activeStreams)
}

func (w *Worker) TotalRequests() int64 {
	return atomic.LoadInt64(&w.totalRequests)
}

func (w *Worker) FailedRequests() int64 {
	return atomic.LoadInt64(&w.failedRequests)
}

func (w *Worker) StartTime() time.Time {
	return w.startTime
}

type BotWorkers struct {
	Bots []*Worker
	mut  sync.Mutex
	next int
	log  *zap.Logger
}

var Workers = newBotWorkers()

// newBotWorkers builds an empty registry. ID 0 is reserved for the
// primary bot; worker bots are handed IDs from 1 up, so registration
// order does not matter.
func newBotWorkers() *BotWorkers {
	return &BotWorkers{
		Bots: make([]*Worker, 0),
		next: 1,
	}
}

func (w *BotWorkers) Init(log *zap.Logger) {
	w.log = log.Named("Workers")
}

// AddDefaultClient registers the primary bot as worker 0.
func (w *BotWorkers) AddDefaultClient(client *gotgproto.Client, self *tg.User) {
	worker := &Worker{
		ID:        0,
		Client:    client,
		Self:      self,
		log:       w.log,
		startTime: time.Now(),
	}
	w.mut.Lock()
	w.Bots = append(w.Bots, worker)
	w.mut.Unlock()
	w.log.Sugar().Infof("Primary bot loaded as Worker #0: @%s", self.Username)
}

// allocateID hands out the next worker-bot ID, never 0.
func (w *BotWorkers) allocateID() int {
	w.mut.Lock()
	defer w.mut.Unlock()
	id := w.next
	w.next++
	return id
}

func (w *BotWorkers) add(token string) error {
	id := w.allocateID()

	client, err := startWorker(w.log, token, id)
	if err != nil {
		return err
	}
	worker := &Worker{
		ID:        id,
		Client:    client,
		Self:      client.Self,
		log:       w.log,
		startTime: time.Now(),
	}
	w.mut.Lock()
	w.Bots = append(w.Bots, worker)
	w.mut.Unlock()
	w.log.Sugar().Infof("Worker #%d loaded: @%s", id, client.Self.Username)
	return nil
}

// GetNextWorker returns the worker with the fewest in-flight streams;
// ties go to the lowest index. Returns nil when the pool is empty.
// Selection is a snapshot, not a transaction; it never blocks a stream.
func GetNextWorker() *Worker {
	Workers.mut.Lock()
	defer Workers.mut.Unlock()

	var selected *Worker
	for _, worker := range Workers.Bots {
		if selected == nil ||
			worker.Load() < selected.Load() ||
			(worker.Load() == selected.Load() && worker.ID < selected.ID) {
			selected = worker
		}
	}
	return selected
}

// GetDefaultWorker returns the primary bot (worker 0), used for message
// existence checks and archive operations that need channel access.
func GetDefaultWorker() *Worker {
	Workers.mut.Lock()
	defer Workers.mut.Unlock()
	for _, worker := range Workers.Bots {
		if worker.ID == 0 {
			return worker
		}
	}
	return nil
}

// StartWorkers starts every configured worker bot concurrently. Workers
// that fail to start are logged and excluded; the pool runs with
// whatever subset came up.
func StartWorkers(log *zap.Logger) (*BotWorkers, error) {
	Workers.Init(log)

	tokens := config.ValueOf.WorkerTokens()
	if len(tokens) == 0 {
		Workers.log.Sugar().Info("No worker bot tokens provided, streaming with the primary bot only")
		return Workers, nil
	}

	if config.ValueOf.UseSessionFile {
		Workers.log.Sugar().Info("Using session files for workers")
		if err := os.MkdirAll(filepath.Join(".", "sessions"), os.ModePerm); err != nil {
			Workers.log.Error("Failed to create sessions directory", zap.Error(err))
			return nil, err
		}
	}

	Workers.log.Sugar().Infof("Starting %d workers", len(tokens))

	// Cap simultaneous dials so a large pool doesn't hammer Telegram
	// during startup.
	const maxConcurrent = 3
	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var started int32

	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if err := Workers.add(token); err != nil {
				Workers.log.Error("Failed to start worker", zap.Error(err))
				return
			}
			atomic.AddInt32(&started, 1)
		}(token)
	}
	wg.Wait()

	Workers.log.Sugar().Infof("Successfully started %d/%d worker bots", started, len(tokens))
	return Workers, nil
}

func startWorker(l *zap.Logger, botToken string, index int) (*gotgproto.Client, error) {
	log := l.Named("Worker").Sugar()
	log.Infof("Starting worker with index - %d", index)
	var sessionType sessionMaker.SessionConstructor
	if config.ValueOf.UseSessionFile {
		sessionType = sessionMaker.SqlSession(sqlite.Open(fmt.Sprintf("sessions/worker-%d.session", index)))
	} else {
		sessionType = sessionMaker.SimpleSession()
	}
	return gotgproto.NewClient(
		int(config.ValueOf.ApiID),
		config.ValueOf.ApiHash,
		gotgproto.ClientTypeBot(botToken),
		&gotgproto.ClientOpts{
			Session:          sessionType,
			DisableCopyright: true,
			Middlewares:      GetFloodMiddleware(log.Desugar()),
		},
	)
}
