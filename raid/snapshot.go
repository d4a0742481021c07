package raid

import (
	"encoding/json"
	"os"
)

// Save writes the full guild state snapshot atomically: marshal to a temp
// file, rotate the previous snapshot to .bak, rename into place.
func (b *Bot) Save(path string) error {
	b.mut.Lock()
	m, err := json.Marshal(b)
	b.mut.Unlock()
	if err != nil {
		return err
	}

	tmpPath := path + "_tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	if _, err := f.Write(m); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		os.Remove(path + ".bak")
		os.Rename(path, path+".bak")
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return err
	}
	b.log.Info("saved state snapshot", "path", path)
	return nil
}

// Load restores guild state from the snapshot, falling back to the rotated
// backup if the primary is unreadable.
func (b *Bot) Load(path string) error {
	err := b.loadFile(path)
	if err == nil {
		return nil
	}
	b.log.Warn("snapshot unreadable, trying backup", "path", path, "err", err)
	return b.loadFile(path + ".bak")
}

func (b *Bot) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(b); err != nil {
		return err
	}
	// fix up maps a hand-edited or older snapshot may lack
	for _, g := range b.Guilds {
		if g.Raids == nil {
			g.Raids = make(map[string]*RaidChannel)
		}
		if g.Posts == nil {
			g.Posts = make(map[string]*TimedPost)
		}
		if g.Listings == nil {
			g.Listings = make(map[string][]string)
		}
		if g.Settings.ReportChannels == nil {
			g.Settings.ReportChannels = make(map[string]string)
		}
		if g.Settings.ListingChannels == nil {
			g.Settings.ListingChannels = make(map[string]string)
		}
		for chID, r := range g.Raids {
			if r.Trainers == nil {
				r.Trainers = make(map[string]*TrainerStatus)
			}
			r.ChannelID = chID
		}
	}
	b.log.Info("loaded state snapshot", "path", path, "guilds", len(b.Guilds))
	return nil
}

// SaveIfDirty is the cron flush: persist only when something changed since
// the last save.
func (b *Bot) SaveIfDirty() {
	b.mut.Lock()
	dirty := b.dirty
	b.dirty = false
	b.mut.Unlock()
	if !dirty {
		return
	}
	if err := b.Save(b.snapshotPath); err != nil {
		b.log.Error("snapshot save failed", "err", err)
		b.mut.Lock()
		b.dirty = true
		b.mut.Unlock()
	}
}
