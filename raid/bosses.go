package raid

import "strings"

// Boss rotation per egg level. Rotations change with in-game events; the
// defaults below can be replaced per guild with !configure bosses.
var defaultBosses = map[string][]string{
	"1":  {"magikarp", "bagon", "shinx", "klink"},
	"2":  {"mawile", "sneasel", "sableye", "feebas"},
	"3":  {"machamp", "alakazam", "gengar", "granbull"},
	"4":  {"tyranitar", "lapras", "snorlax", "togetic"},
	"5":  {"dragonite", "mewtwo", "rayquaza", "giratina"},
	"EX": {"deoxys"},
}

var eggLevels = []string{"1", "2", "3", "4", "5", "EX"}

func validEggLevel(level string) bool {
	for _, l := range eggLevels {
		if l == level {
			return true
		}
	}
	return false
}

func normBoss(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// bossList returns the configured boss rotation for an egg level, falling
// back to the defaults when the guild has no override.
func (g *GuildState) bossList(level string) []string {
	if g != nil && g.Settings.Bosses != nil {
		if list, ok := g.Settings.Bosses[level]; ok {
			return list
		}
	}
	return defaultBosses[level]
}

func (g *GuildState) isBoss(level, name string) bool {
	name = normBoss(name)
	for _, b := range g.bossList(level) {
		if b == name {
			return true
		}
	}
	return false
}

// levelForBoss finds the egg level a boss belongs to, for direct
// already-hatched reports ("!raid dragonite ...").
func (g *GuildState) levelForBoss(name string) (string, bool) {
	name = normBoss(name)
	for _, level := range eggLevels {
		for _, b := range g.bossList(level) {
			if b == name {
				return level, true
			}
		}
	}
	return "", false
}
