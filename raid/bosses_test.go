package raid

import "testing"

func TestLevelForBoss(t *testing.T) {
	g := testGuild()
	if level, ok := g.levelForBoss("Dragonite"); !ok || level != "5" {
		t.Errorf("levelForBoss(Dragonite) = %q, %v", level, ok)
	}
	if _, ok := g.levelForBoss("pidgey"); ok {
		t.Error("pidgey is not a boss")
	}

	g.Settings.Bosses = map[string][]string{"3": {"pidgey"}}
	if level, ok := g.levelForBoss("pidgey"); !ok || level != "3" {
		t.Errorf("override levelForBoss = %q, %v", level, ok)
	}
}

func TestValidEggLevel(t *testing.T) {
	for _, l := range []string{"1", "5", "EX"} {
		if !validEggLevel(l) {
			t.Errorf("%s should be valid", l)
		}
	}
	for _, l := range []string{"0", "6", "ex", ""} {
		if validEggLevel(l) {
			t.Errorf("%s should be invalid", l)
		}
	}
}
