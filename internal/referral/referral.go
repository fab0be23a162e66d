// internal/referral/referral.go
package referral

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stayease/internal/common/logger"
	"stayease/internal/task"
)

// Referral statuses.
const (
	StatusCompleted = "Completed"
	StatusPending   = "Pending"
)

// Clipboard receives copied text.
type Clipboard interface {
	Write(ctx context.Context, text string) error
}

// MemoryClipboard records the last text written to it.
type MemoryClipboard struct {
	mu     sync.Mutex
	last   string
	writes int
}

func (c *MemoryClipboard) Write(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = text
	c.writes++
	return nil
}

func (c *MemoryClipboard) Last() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *MemoryClipboard) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

type Entry struct {
	Name   string `json:"name"`
	Date   string `json:"date"`
	Status string `json:"status"`
	Amount int    `json:"amount"`
}

// History is the fixed referral history.
var History = []Entry{
	{Name: "Aditya Singh", Date: "12 Oct, 2024", Status: StatusCompleted, Amount: 500},
	{Name: "Priya Verma", Date: "05 Nov, 2024", Status: StatusPending, Amount: 0},
}

type View struct {
	Code        string  `json:"code"`
	Reward      int     `json:"reward"`
	Headline    string  `json:"headline"`
	History     []Entry `json:"history"`
	TotalEarned int     `json:"totalEarned"`
	Pending     int     `json:"pending"`
	Copied      bool    `json:"copied"`
}

// Program is the refer-and-earn screen model.
type Program struct {
	code       string
	reward     int
	clipboard  Clipboard
	resetDelay time.Duration
	log        logger.Logger

	mu     sync.Mutex
	copied bool
	reset  *task.Task[struct{}]
}

func New(code string, reward int, clipboard Clipboard, resetDelay time.Duration, log logger.Logger) *Program {
	return &Program{
		code:       code,
		reward:     reward,
		clipboard:  clipboard,
		resetDelay: resetDelay,
		log:        log.WithFields(map[string]interface{}{"component": "referral"}),
	}
}

// Copy writes the code to the clipboard and shows the copied mark until
// the reset delay elapses. Copying again restarts the delay.
func (p *Program) Copy(ctx context.Context, g *task.Group) error {
	if err := p.clipboard.Write(ctx, p.code); err != nil {
		return fmt.Errorf("copy referral code: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reset != nil {
		p.reset.Cancel()
	}
	p.copied = true

	var t *task.Task[struct{}]
	t = task.Go(g, p.resetDelay, func(ctx context.Context) (struct{}, error) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.reset == t {
			p.copied = false
			p.reset = nil
		}
		return struct{}{}, nil
	})
	p.reset = t

	p.log.Debug("referral code copied", nil)
	return nil
}

func (p *Program) Copied() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copied
}

func (p *Program) View() View {
	v := View{
		Code:     p.code,
		Reward:   p.reward,
		Headline: fmt.Sprintf("Get ₹%d for every friend who books their stay with StayEase. Your friend also gets ₹%d off on their first month!", p.reward, p.reward),
		History:  History,
		Copied:   p.Copied(),
	}
	for _, e := range History {
		switch e.Status {
		case StatusCompleted:
			v.TotalEarned += e.Amount
		case StatusPending:
			v.Pending += p.reward
		}
	}
	return v
}
