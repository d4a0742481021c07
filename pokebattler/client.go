// Package pokebattler calls the Pokebattler raid simulation API for
// recommended counters against a raid boss.
package pokebattler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/inconshreveable/log15"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     log15.Logger
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log15.New("module", "pokebattler"),
	}
}

// Counter is one recommended attacker.
type Counter struct {
	Pokemon    string
	FastMove   string
	ChargeMove string

	// Estimator is pokebattler's expected number of attackers needed; lower
	// is better.
	Estimator float64
}

type rankingResponse struct {
	Attackers []struct {
		RandMove struct {
			Defenders []struct {
				Pokemon  string `json:"pokemonId"`
				ByMove   []struct {
					Move1  string `json:"move1"`
					Move2  string `json:"move2"`
					Result struct {
						Estimator float64 `json:"estimator"`
					} `json:"result"`
				} `json:"byMove"`
			} `json:"defenders"`
		} `json:"randomMove"`
	} `json:"attackers"`
}

// Counters fetches the best attackers against a boss at the given raid tier
// for level-30 attackers, best first.
func (c *Client) Counters(ctx context.Context, boss string, tier string) ([]Counter, error) {
	bossID := apiName(boss)
	url := fmt.Sprintf(
		"%s/raids/defenders/%s/levels/RAID_LEVEL_%s/attackers/levels/30/strategies/CINEMATIC_ATTACK_WHEN_POSSIBLE/DEFENSE_RANDOM_MC?sort=ESTIMATOR",
		c.baseURL, bossID, tier)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pokebattler request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pokebattler returned status %d for %s", resp.StatusCode, bossID)
	}

	var data rankingResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("pokebattler response malformed: %w", err)
	}

	var counters []Counter
	for _, atk := range data.Attackers {
		for _, def := range atk.RandMove.Defenders {
			// defenders come worst-first with the best moveset last
			if len(def.ByMove) == 0 {
				continue
			}
			best := def.ByMove[len(def.ByMove)-1]
			counters = append(counters, Counter{
				Pokemon:    displayName(def.Pokemon),
				FastMove:   displayName(best.Move1),
				ChargeMove: displayName(best.Move2),
				Estimator:  best.Result.Estimator,
			})
		}
	}
	sort.Slice(counters, func(i, j int) bool {
		return counters[i].Estimator < counters[j].Estimator
	})
	if len(counters) > 6 {
		counters = counters[:6]
	}
	c.log.Debug("fetched counters", "boss", boss, "count", len(counters))
	return counters, nil
}

// apiName converts "Mewtwo" to the MEWTWO form pokebattler expects.
func apiName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, "'", "")
	return strings.ToUpper(name)
}

// displayName converts MACHAMP / KARATE_CHOP_FAST back to readable text.
func displayName(id string) string {
	id = strings.TrimSuffix(id, "_FAST")
	parts := strings.Split(strings.ToLower(id), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
