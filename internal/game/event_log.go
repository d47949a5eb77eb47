package game

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	EventBufferSize    = 1024                   // Circular buffer size
	MaxEventsPerSec    = 5000                   // Global rate limit
	MaxEventsPerGame   = 200                    // Per-game rate limit per second
	BatchFlushSize     = 64                     // Events per batch write
	BatchFlushInterval = 100 * time.Millisecond // How often to flush
	GameLimiterCleanup = 5 * time.Minute        // Cleanup interval for game limiters
)

// EventLog is a bounded, rate-limited log of gameplay events shared by every
// session of an engine. Events are kept in a circular buffer, written to disk
// as newline-delimited JSON and can be read back per game for inspection.
type EventLog struct {
	mu        sync.Mutex
	buffer    [EventBufferSize]Event
	writeHead uint64 // next sequence to assign
	readHead  uint64 // oldest sequence not yet flushed to disk

	// Rate limiting so one runaway game cannot flood the log
	globalLimiter *rate.Limiter
	gameLimiters  sync.Map // map[string]*gameLimiterEntry

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	filePath string
	file     *os.File
	fileMu   sync.Mutex

	droppedCount uint64 // atomic
	totalCount   uint64 // atomic
}

type gameLimiterEntry struct {
	limiter  *rate.Limiter
	lastUsed atomic.Int64 // unix nano
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer goroutine. An empty path keeps events in
// memory only.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	el.filePath = filePath
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(2)
	go el.writerLoop()
	go el.cleanupLoop()

	return nil
}

// Stop flushes pending events and closes the file
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
		}
		el.fileMu.Unlock()
	})
}

// Emit adds an event. Returns false if rate limited or the log is stopped.
// A full buffer overwrites the oldest event.
func (el *EventLog) Emit(event Event) bool {
	if el == nil || !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}
	if event.GameID != "" && !el.gameLimiter(event.GameID).Allow() {
		atomic.AddUint64(&el.droppedCount, 1)
		return false
	}

	el.mu.Lock()
	el.writeHead++
	if el.writeHead-el.readHead > EventBufferSize {
		el.readHead = el.writeHead - EventBufferSize
		atomic.AddUint64(&el.droppedCount, 1)
	}
	event.Sequence = el.writeHead
	el.buffer[el.writeHead%EventBufferSize] = event
	el.mu.Unlock()

	atomic.AddUint64(&el.totalCount, 1)
	return true
}

// EmitSimple creates and emits an event
func (el *EventLog) EmitSimple(eventType EventType, frame uint64, gameID string, payload interface{}) bool {
	if el == nil {
		return false
	}
	return el.Emit(NewEvent(eventType, frame, gameID, payload))
}

// Recent returns up to n of the newest buffered events for one game, oldest
// first. An empty gameID matches every game.
func (el *EventLog) Recent(gameID string, n int) []Event {
	if el == nil || n <= 0 {
		return nil
	}

	el.mu.Lock()
	defer el.mu.Unlock()

	oldest := uint64(1)
	if el.writeHead > EventBufferSize {
		oldest = el.writeHead - EventBufferSize + 1
	}
	out := make([]Event, 0, n)
	for seq := el.writeHead; seq >= oldest && seq > 0 && len(out) < n; seq-- {
		ev := el.buffer[seq%EventBufferSize]
		if gameID == "" || ev.GameID == gameID {
			out = append(out, ev)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (el *EventLog) gameLimiter(gameID string) *rate.Limiter {
	now := time.Now().UnixNano()
	if entry, ok := el.gameLimiters.Load(gameID); ok {
		e := entry.(*gameLimiterEntry)
		e.lastUsed.Store(now)
		return e.limiter
	}

	entry := &gameLimiterEntry{limiter: rate.NewLimiter(MaxEventsPerGame, MaxEventsPerGame/4)}
	entry.lastUsed.Store(now)
	actual, _ := el.gameLimiters.LoadOrStore(gameID, entry)
	return actual.(*gameLimiterEntry).limiter
}

// Forget drops the rate limiter of a finished game
func (el *EventLog) Forget(gameID string) {
	if el == nil {
		return
	}
	el.gameLimiters.Delete(gameID)
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)
	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) cleanupLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(GameLimiterCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-el.stopChan:
			return
		case <-ticker.C:
			el.cleanupGameLimiters()
		}
	}
}

func (el *EventLog) cleanupGameLimiters() {
	cutoff := time.Now().Add(-GameLimiterCleanup).UnixNano()
	el.gameLimiters.Range(func(key, value interface{}) bool {
		if value.(*gameLimiterEntry).lastUsed.Load() < cutoff {
			el.gameLimiters.Delete(key)
		}
		return true
	})
}

// collectBatch copies unflushed events out of the buffer
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	for el.readHead < el.writeHead && len(batch) < BatchFlushSize {
		el.readHead++
		batch = append(batch, el.buffer[el.readHead%EventBufferSize])
	}
	return batch
}

// flushBatch writes events to disk (append-only, newline-delimited JSON)
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	if el.file == nil {
		return
	}

	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		el.file.Write(data)
		el.file.Write([]byte("\n"))
	}
}

// GetStats returns log counters for the stats endpoint
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.writeHead - el.readHead
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   atomic.LoadUint64(&el.totalCount),
		"dropped": atomic.LoadUint64(&el.droppedCount),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return atomic.LoadUint64(&el.droppedCount)
}

// GetTotalCount returns the total number of events processed
func (el *EventLog) GetTotalCount() uint64 {
	return atomic.LoadUint64(&el.totalCount)
}
