// Package directory caches the Slack workspace's users and channels so
// lookup tools answer from memory instead of hitting the Slack API on every
// call. The cache refreshes on demand (update_slack_* tools) and optionally
// on a cron schedule.
package directory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// User is one workspace member.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Channel is one conversation.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Topic       string `json:"topic,omitempty"`
	IsPrivate   bool   `json:"is_private,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
}

// Lister is the workspace-facing collaborator, implemented by the Slack
// adapter.
type Lister interface {
	ListUsers(ctx context.Context) ([]User, error)
	ListChannels(ctx context.Context) ([]Channel, error)
}

// Directory is the in-memory cache. Safe for concurrent use.
type Directory struct {
	lister Lister
	log    zerolog.Logger

	mu          sync.RWMutex
	users       []User
	channels    []Channel
	usersAt     time.Time
	channelsAt  time.Time
	cron        *cron.Cron
}

// New builds an empty directory over lister.
func New(lister Lister, log zerolog.Logger) *Directory {
	return &Directory{lister: lister, log: log.With().Str("component", "directory").Logger()}
}

// RefreshUsers replaces the cached user list from the workspace.
func (d *Directory) RefreshUsers(ctx context.Context) (int, error) {
	users, err := d.lister.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh users: %w", err)
	}
	d.mu.Lock()
	d.users = users
	d.usersAt = time.Now().UTC()
	d.mu.Unlock()
	return len(users), nil
}

// RefreshChannels replaces the cached channel list from the workspace.
func (d *Directory) RefreshChannels(ctx context.Context) (int, error) {
	channels, err := d.lister.ListChannels(ctx)
	if err != nil {
		return 0, fmt.Errorf("refresh channels: %w", err)
	}
	d.mu.Lock()
	d.channels = channels
	d.channelsAt = time.Now().UTC()
	d.mu.Unlock()
	return len(channels), nil
}

// Users returns the cached users, or just the one matching id when non-empty.
func (d *Directory) Users(id string) []User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id == "" {
		return append([]User(nil), d.users...)
	}
	for _, u := range d.users {
		if u.ID == id {
			return []User{u}
		}
	}
	return []User{}
}

// Channels returns the cached channels, or just the one matching id.
func (d *Directory) Channels(id string) []Channel {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if id == "" {
		return append([]Channel(nil), d.channels...)
	}
	for _, c := range d.channels {
		if c.ID == id {
			return []Channel{c}
		}
	}
	return []Channel{}
}

// StartRefreshing schedules periodic refreshes of both caches. An empty
// schedule is a no-op. Refresh failures are logged and retried at the next
// tick; they never take the process down.
func (d *Directory) StartRefreshing(schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if n, err := d.RefreshUsers(ctx); err != nil {
			d.log.Warn().Err(err).Msg("scheduled user refresh failed")
		} else {
			d.log.Info().Int("users", n).Msg("user directory refreshed")
		}
		if n, err := d.RefreshChannels(ctx); err != nil {
			d.log.Warn().Err(err).Msg("scheduled channel refresh failed")
		} else {
			d.log.Info().Int("channels", n).Msg("channel directory refreshed")
		}
	})
	if err != nil {
		return fmt.Errorf("directory schedule: %w", err)
	}
	c.Start()
	d.cron = c
	return nil
}

// Stop halts the refresh schedule, waiting for an in-flight refresh.
func (d *Directory) Stop() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
}
