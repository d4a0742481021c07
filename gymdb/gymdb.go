// Package gymdb is the relational store for raid gyms and pokéstops, with
// fuzzy name matching so reports can reference locations by free-form text.
package gymdb

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/schollz/closestmatch"
	"gorm.io/gorm"
)

type Gym struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	Name       string  `gorm:"uniqueIndex" json:"name"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Region     string  `json:"region"`
	ExEligible bool    `json:"ex_eligible"`
	Note       string  `json:"note"`
}

func (g *Gym) String() string {
	return fmt.Sprintf("[gym %d] %s (%f,%f)", g.ID, g.Name, g.Latitude, g.Longitude)
}

// MapURL returns a google maps link for the gym's coordinates.
func (g *Gym) MapURL() string {
	return fmt.Sprintf("https://www.google.com/maps/?q=%f,%f", g.Latitude, g.Longitude)
}

type Pokestop struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"uniqueIndex" json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Region    string  `json:"region"`
	Note      string  `json:"note"`
}

func (p *Pokestop) String() string {
	return fmt.Sprintf("[stop %d] %s (%f,%f)", p.ID, p.Name, p.Latitude, p.Longitude)
}

func (p *Pokestop) MapURL() string {
	return fmt.Sprintf("https://www.google.com/maps/?q=%f,%f", p.Latitude, p.Longitude)
}

// Store wraps the ORM with in-memory fuzzy matchers. The matchers are
// rebuilt whenever a location is added, renamed or removed.
type Store struct {
	db  *gorm.DB
	log log15.Logger

	mut         sync.Mutex
	gymMatcher  *closestmatch.ClosestMatch
	stopMatcher *closestmatch.ClosestMatch
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Gym{}, &Pokestop{}); err != nil {
		return nil, err
	}
	s := &Store{
		db:  db,
		log: log15.New("module", "gymdb"),
	}
	if err := s.rebuildMatchers(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) rebuildMatchers() error {
	var gymNames, stopNames []string
	if err := s.db.Model(&Gym{}).Pluck("name", &gymNames).Error; err != nil {
		return err
	}
	if err := s.db.Model(&Pokestop{}).Pluck("name", &stopNames).Error; err != nil {
		return err
	}
	s.mut.Lock()
	s.gymMatcher = closestmatch.New(lowerAll(gymNames), []int{2, 3, 4})
	s.stopMatcher = closestmatch.New(lowerAll(stopNames), []int{2, 3, 4})
	s.mut.Unlock()
	s.log.Debug("rebuilt matchers", "gyms", len(gymNames), "stops", len(stopNames))
	return nil
}

func lowerAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	return out
}

// MatchGyms returns up to max gyms whose names resemble the query, best
// first, with similarity scores in [0,1]. An exact (case-insensitive) name
// match short-circuits to a single result.
func (s *Store) MatchGyms(query string, max int) ([]Gym, []float64, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil, nil
	}

	var exact Gym
	err := s.db.Where("lower(name) = ?", query).First(&exact).Error
	if err == nil {
		return []Gym{exact}, []float64{1.0}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	s.mut.Lock()
	names := s.gymMatcher.ClosestN(query, max)
	s.mut.Unlock()

	var gyms []Gym
	var scores []float64
	for _, name := range names {
		if name == "" {
			continue
		}
		score := trigramSimilarity(query, name)
		if score < minMatchScore {
			continue
		}
		var g Gym
		if err := s.db.Where("lower(name) = ?", name).First(&g).Error; err != nil {
			continue
		}
		gyms = append(gyms, g)
		scores = append(scores, score)
	}
	sortByScore(len(gyms), scores, func(i, j int) {
		gyms[i], gyms[j] = gyms[j], gyms[i]
	})
	return gyms, scores, nil
}

// MatchStops is MatchGyms for pokéstops.
func (s *Store) MatchStops(query string, max int) ([]Pokestop, []float64, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil, nil
	}

	var exact Pokestop
	err := s.db.Where("lower(name) = ?", query).First(&exact).Error
	if err == nil {
		return []Pokestop{exact}, []float64{1.0}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	s.mut.Lock()
	names := s.stopMatcher.ClosestN(query, max)
	s.mut.Unlock()

	var stops []Pokestop
	var scores []float64
	for _, name := range names {
		if name == "" {
			continue
		}
		score := trigramSimilarity(query, name)
		if score < minMatchScore {
			continue
		}
		var p Pokestop
		if err := s.db.Where("lower(name) = ?", name).First(&p).Error; err != nil {
			continue
		}
		stops = append(stops, p)
		scores = append(scores, score)
	}
	sortByScore(len(stops), scores, func(i, j int) {
		stops[i], stops[j] = stops[j], stops[i]
	})
	return stops, scores, nil
}

func (s *Store) GymByID(id uint) (*Gym, error) {
	var g Gym
	if err := s.db.First(&g, id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) AddGym(name string, lat, lon float64, region string) (*Gym, error) {
	g := &Gym{Name: name, Latitude: lat, Longitude: lon, Region: region}
	if err := s.db.Create(g).Error; err != nil {
		return nil, err
	}
	s.log.Info("gym added", "name", name, "region", region)
	return g, s.rebuildMatchers()
}

func (s *Store) RenameGym(g *Gym, newName string) error {
	g.Name = newName
	if err := s.db.Save(g).Error; err != nil {
		return err
	}
	return s.rebuildMatchers()
}

func (s *Store) MoveGym(g *Gym, lat, lon float64) error {
	g.Latitude, g.Longitude = lat, lon
	return s.db.Save(g).Error
}

func (s *Store) SetGymEx(g *Gym, ex bool) error {
	g.ExEligible = ex
	return s.db.Save(g).Error
}

func (s *Store) SetGymNote(g *Gym, note string) error {
	g.Note = note
	return s.db.Save(g).Error
}

func (s *Store) RemoveGym(g *Gym) error {
	if err := s.db.Delete(g).Error; err != nil {
		return err
	}
	s.log.Info("gym removed", "name", g.Name)
	return s.rebuildMatchers()
}

func (s *Store) AddStop(name string, lat, lon float64, region string) (*Pokestop, error) {
	p := &Pokestop{Name: name, Latitude: lat, Longitude: lon, Region: region}
	if err := s.db.Create(p).Error; err != nil {
		return nil, err
	}
	s.log.Info("pokestop added", "name", name, "region", region)
	return p, s.rebuildMatchers()
}

func (s *Store) RemoveStop(p *Pokestop) error {
	if err := s.db.Delete(p).Error; err != nil {
		return err
	}
	return s.rebuildMatchers()
}

// Regions returns the distinct region names known to the store.
func (s *Store) Regions() ([]string, error) {
	var regions []string
	err := s.db.Model(&Gym{}).Distinct().Pluck("region", &regions).Error
	return regions, err
}
