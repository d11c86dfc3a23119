package robot

import (
	"context"
	"sync"
	"time"

	"github.com/zurustar/blockstep/pkg/logger"
)

// FakeDriver simulates a robot. Every movement takes one step time.
type FakeDriver struct {
	mu           sync.Mutex
	connected    bool
	moves        []string
	onDisconnect func()

	// ConnectErr, when set, makes Connect fail.
	ConnectErr error
}

// Connect implements Driver.
func (f *FakeDriver) Connect(ctx context.Context, onDisconnect func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.onDisconnect = onDisconnect
	return nil
}

// Disconnect implements Driver.
func (f *FakeDriver) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
	return nil
}

// Forward implements Driver.
func (f *FakeDriver) Forward(ctx context.Context, stepTime time.Duration) error {
	return f.move(ctx, "forward", stepTime)
}

// Left implements Driver.
func (f *FakeDriver) Left(ctx context.Context, stepTime time.Duration) error {
	return f.move(ctx, "left", stepTime)
}

// Right implements Driver.
func (f *FakeDriver) Right(ctx context.Context, stepTime time.Duration) error {
	return f.move(ctx, "right", stepTime)
}

// Moves returns the movements performed so far.
func (f *FakeDriver) Moves() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.moves...)
}

// Drop simulates the robot going away.
func (f *FakeDriver) Drop() {
	f.mu.Lock()
	f.connected = false
	onDisconnect := f.onDisconnect
	f.mu.Unlock()

	if onDisconnect != nil {
		onDisconnect()
	}
}

func (f *FakeDriver) move(ctx context.Context, name string, stepTime time.Duration) error {
	f.mu.Lock()
	f.moves = append(f.moves, name)
	f.mu.Unlock()
	logger.GetLogger().Debug("Fake robot move", "move", name)

	timer := time.NewTimer(stepTime)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
