package services

import (
	"chat-sync/repositories"
	"log/slog"
	"sync"
)

// Preferences holds the display preferences of the session, persisted on change.
type Preferences struct {
	mu       sync.Mutex
	log      *slog.Logger
	repo     repositories.IPreferenceRepository
	darkMode bool
	apply    func(darkMode bool)
}

// NewPreferences loads the stored flag and applies it once.
// apply may be nil when there is nothing to render.
func NewPreferences(log *slog.Logger, repo repositories.IPreferenceRepository, apply func(darkMode bool)) *Preferences {
	p := &Preferences{log: log, repo: repo, darkMode: repo.LoadDarkMode(), apply: apply}
	p.render()
	return p
}

func (p *Preferences) DarkMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.darkMode
}

// Toggle flips the dark mode flag and returns the new value.
func (p *Preferences) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.darkMode = !p.darkMode
	if err := p.repo.SaveDarkMode(p.darkMode); err != nil {
		p.log.Warn("Dark mode not persisted", "error", err)
	}
	p.render()
	return p.darkMode
}

func (p *Preferences) render() {
	if p.apply != nil {
		p.apply(p.darkMode)
	}
}
