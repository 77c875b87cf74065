package coreaudio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shaban/coreaudio/hal"
)

// DeviceChange reports one polling cycle that observed device arrivals or
// removals.
type DeviceChange struct {
	Added     []*Device
	Removed   []RemovedDevice
	Timestamp time.Time
}

// RemovedDevice describes a device that disappeared. Name and UID come from
// the wrapper's construction-time cache, since the hardware object no longer
// answers live queries.
type RemovedDevice struct {
	ID   hal.ObjectID
	UID  string
	Name string
}

// ChangeCallback receives hotplug notifications.
type ChangeCallback func(DeviceChange)

// Monitor polls the HAL device list and reports arrivals and removals. It
// retains a wrapper for every attached device, so wrappers keep observing
// property changes for as long as the hardware stays connected.
type Monitor struct {
	sys *System

	mu           sync.RWMutex
	isRunning    bool
	pollInterval time.Duration
	known        map[hal.ObjectID]*Device
	callbacks    []ChangeCallback

	changes chan DeviceChange
	ctx     context.Context
	cancel  context.CancelFunc

	checkCount int64
}

// NewMonitor creates a device monitor with a 50ms polling interval.
func NewMonitor(sys *System) *Monitor {
	return &Monitor{
		sys:          sys,
		pollInterval: 50 * time.Millisecond,
		known:        make(map[hal.ObjectID]*Device),
		changes:      make(chan DeviceChange, 10),
	}
}

// SetPollInterval updates the polling interval (minimum 10ms).
func (m *Monitor) SetPollInterval(interval time.Duration) error {
	if interval < 10*time.Millisecond {
		return fmt.Errorf("polling interval cannot be less than 10ms")
	}
	m.mu.Lock()
	m.pollInterval = interval
	m.mu.Unlock()
	return nil
}

// OnChange registers a callback for hotplug events.
func (m *Monitor) OnChange(cb ChangeCallback) {
	m.mu.Lock()
	m.callbacks = append(m.callbacks, cb)
	m.mu.Unlock()
}

// Changes returns the buffered change feed. Notifications are dropped when
// the buffer is full.
func (m *Monitor) Changes() <-chan DeviceChange {
	return m.changes
}

// IsRunning reports whether monitoring is active.
func (m *Monitor) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}

// Start takes an initial device snapshot (not reported as arrivals) and
// begins polling.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("device monitor is already running")
	}

	initial, err := m.sys.Devices()
	if err != nil {
		return fmt.Errorf("initial device snapshot: %w", err)
	}
	for _, d := range initial {
		m.known[d.ID()] = d
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.isRunning = true
	go m.monitorLoop()
	return nil
}

// Stop halts polling and releases every wrapper the monitor retained.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return nil
	}
	m.isRunning = false
	m.cancel()
	known := m.known
	m.known = make(map[hal.ObjectID]*Device)
	m.mu.Unlock()

	for _, d := range known {
		_ = d.Close()
	}
	return nil
}

func (m *Monitor) monitorLoop() {
	m.mu.RLock()
	currentInterval := m.pollInterval
	m.mu.RUnlock()

	ticker := time.NewTicker(currentInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			newInterval := m.pollInterval
			m.mu.RUnlock()

			if newInterval != currentInterval {
				ticker.Reset(newInterval)
				currentInterval = newInterval
			}

			m.checkDevices()
		}
	}
}

// checkDevices diffs the HAL device list against the known set.
func (m *Monitor) checkDevices() {
	ids, err := m.sys.Service().DeviceIDs()
	if err != nil {
		m.sys.log.Warn("device list poll failed", zap.Error(err))
		return
	}

	attached := make(map[hal.ObjectID]bool, len(ids))
	for _, id := range ids {
		attached[id] = true
	}

	var change DeviceChange

	m.mu.Lock()
	m.checkCount++
	if !m.isRunning {
		m.mu.Unlock()
		return
	}

	var gone []*Device
	for id, d := range m.known {
		if !attached[id] {
			gone = append(gone, d)
			delete(m.known, id)
		}
	}

	for _, id := range ids {
		if m.known[id] != nil {
			continue
		}
		if d, ok := m.sys.LookupByID(id); ok {
			m.known[id] = d
			change.Added = append(change.Added, d)
		}
	}
	callbacks := make([]ChangeCallback, len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.Unlock()

	// Capture removed-device details from the wrappers' caches before the
	// final release destroys them.
	for _, d := range gone {
		change.Removed = append(change.Removed, RemovedDevice{
			ID:   d.ID(),
			UID:  d.UID(),
			Name: d.Name(),
		})
		_ = d.Close()
	}

	if len(change.Added) == 0 && len(change.Removed) == 0 {
		return
	}
	change.Timestamp = time.Now()

	for _, cb := range callbacks {
		cb(change)
	}

	select {
	case m.changes <- change:
	default:
		// Feed full; drop rather than stall the poll loop.
	}
}

// CheckCount reports how many polling cycles have completed.
func (m *Monitor) CheckCount() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkCount
}

// ForceCheck triggers an immediate device check (useful for testing).
func (m *Monitor) ForceCheck() {
	if m.IsRunning() {
		m.checkDevices()
	}
}
