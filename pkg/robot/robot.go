// Package robot connects a physical or simulated robot to the interpreter so
// that it mirrors the character's movements.
package robot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zurustar/blockstep/pkg/interpreter"
	"github.com/zurustar/blockstep/pkg/logger"
)

// Source is the handler source of the robot handlers.
const Source = "robot"

// Driver moves a robot. Each movement returns once the robot has finished it.
type Driver interface {
	// Connect connects to the robot. onDisconnect is called if the robot
	// disconnects on its own later.
	Connect(ctx context.Context, onDisconnect func()) error
	Disconnect() error
	Forward(ctx context.Context, stepTime time.Duration) error
	Left(ctx context.Context, stepTime time.Duration) error
	Right(ctx context.Context, stepTime time.Duration) error
}

// Status is the connection status of a robot.
type Status string

const (
	NotConnected Status = "notConnected"
	Connecting   Status = "connecting"
	Connected    Status = "connected"
)

// Connection binds a Driver to an interpreter while the robot is connected.
type Connection struct {
	mu     sync.Mutex
	driver Driver
	in     *interpreter.Interpreter
	status Status
	log    *slog.Logger
}

// NewConnection creates a disconnected Connection.
func NewConnection(driver Driver, in *interpreter.Interpreter) *Connection {
	return &Connection{
		driver: driver,
		in:     in,
		status: NotConnected,
		log:    logger.GetLogger(),
	}
}

// Status returns the current connection status.
func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect connects the robot and registers its handlers for forward1,
// left45 and right45.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.status != NotConnected {
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("robot is %s", status)
	}
	c.status = Connecting
	c.mu.Unlock()

	if err := c.driver.Connect(ctx, c.disconnected); err != nil {
		c.setStatus(NotConnected)
		return fmt.Errorf("failed to connect robot: %w", err)
	}

	c.in.AddCommandHandler("forward1", Source, c.driver.Forward)
	c.in.AddCommandHandler("left45", Source, c.driver.Left)
	c.in.AddCommandHandler("right45", Source, c.driver.Right)
	c.setStatus(Connected)
	c.log.Info("Robot connected")
	return nil
}

// Disconnect disconnects the robot and removes its handlers.
func (c *Connection) Disconnect() error {
	if c.Status() != Connected {
		return nil
	}
	err := c.driver.Disconnect()
	c.disconnected()
	return err
}

func (c *Connection) disconnected() {
	removed := c.in.Registry().RemoveSource(Source)
	c.setStatus(NotConnected)
	c.log.Info("Robot disconnected", "handlers_removed", removed)
}

func (c *Connection) setStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}
