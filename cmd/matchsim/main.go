package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// matchsim drives a server-monitor instance with a synthetic match: roster
// churn, drifting counters and a team score, plus an optional stub dashboard
// endpoint that prints every report the monitor delivers.

var playerNames = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
}

const steamIDBase uint64 = 76561197960265728

type simPlayer struct {
	slot      int
	steamID64 uint64
	name      string
	kills     int
	deaths    int
	assists   int
	headshots int
	connected bool
}

func main() {
	monitor := flag.String("monitor", "http://localhost:8172", "Base URL of the server-monitor admin API")
	players := flag.Int("players", 8, "Number of simulated players")
	tick := flag.Duration("tick", 2*time.Second, "Stat drift interval")
	churn := flag.Float64("churn", 0.05, "Per-tick probability of a disconnect/reconnect")
	dashboard := flag.String("dashboard", "", "Addr for a stub dashboard endpoint (empty = disabled)")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *players < 1 || *players > len(playerNames) {
		log.Fatalf("players must be between 1 and %d", len(playerNames))
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Monitor:   %s\n", *monitor)
	fmt.Printf("  Players:   %d\n", *players)
	fmt.Printf("  Tick:      %s\n", *tick)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	var reportCount int64
	if *dashboard != "" {
		go serveDashboard(*dashboard, &reportCount)
		fmt.Printf("Stub dashboard listening on %s\n", *dashboard)
	}

	client := &http.Client{Timeout: 5 * time.Second}

	roster := make([]*simPlayer, *players)
	for i := range roster {
		roster[i] = &simPlayer{
			slot:      i,
			steamID64: steamIDBase + uint64(rand.Intn(2_000_000)),
			name:      fmt.Sprintf("%s%d", playerNames[i%len(playerNames)], i+1),
		}
		connect(client, *monitor, roster[i])
	}
	fmt.Printf("✓ Connected %d players\n\n", *players)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*tick)
	defer ticker.Stop()

	statsTicker := time.NewTicker(10 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	ct, t := 0, 0

	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\nDuration reached, shutting down...")
				return
			}

			// Roster churn
			if rand.Float64() < *churn {
				p := roster[rand.Intn(len(roster))]
				if p.connected {
					disconnect(client, *monitor, p)
				} else {
					connect(client, *monitor, p)
				}
			}

			// Stat drift for one random connected player
			p := roster[rand.Intn(len(roster))]
			if p.connected {
				p.kills += rand.Intn(3)
				if rand.Intn(4) == 0 {
					p.deaths++
				}
				if rand.Intn(3) == 0 {
					p.assists++
				}
				if rand.Intn(5) == 0 {
					p.headshots++
				}
				putStats(client, *monitor, p)
			}

			// Round end now and then
			if rand.Intn(10) == 0 {
				if rand.Intn(2) == 0 {
					ct++
				} else {
					t++
				}
				putScores(client, *monitor, ct, t)
			}

		case <-statsTicker.C:
			fmt.Printf("[%s] Reports received: %d | Score: %d-%d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&reportCount),
				ct, t,
			)
		}
	}
}

func post(client *http.Client, method, url string, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("marshal: %v", err)
		return
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		log.Printf("request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("%s %s: %v", method, url, err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("%s %s: status %d", method, url, resp.StatusCode)
	}
}

func connect(client *http.Client, monitor string, p *simPlayer) {
	post(client, http.MethodPost, monitor+"/api/v1/host/players", map[string]any{
		"slot":      p.slot,
		"steamid64": p.steamID64,
		"name":      p.name,
	})
	p.connected = true
}

func disconnect(client *http.Client, monitor string, p *simPlayer) {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/v1/host/players/%d", monitor, p.slot), nil)
	if err != nil {
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("disconnect slot %d: %v", p.slot, err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	p.connected = false
	p.kills, p.deaths, p.assists, p.headshots = 0, 0, 0, 0
}

func putStats(client *http.Client, monitor string, p *simPlayer) {
	post(client, http.MethodPut, fmt.Sprintf("%s/api/v1/host/players/%d/stats", monitor, p.slot), map[string]any{
		"name":      p.name,
		"kills":     p.kills,
		"deaths":    p.deaths,
		"assists":   p.assists,
		"headshots": p.headshots,
	})
}

func putScores(client *http.Client, monitor string, ct, t int) {
	post(client, http.MethodPut, monitor+"/api/v1/host/scores", map[string]any{
		"score_ct": ct,
		"score_t":  t,
	})
}

// serveDashboard accepts monitor reports on the real ingest path and prints
// a one-line summary per report.
func serveDashboard(addr string, count *int64) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		atomic.AddInt64(count, 1)

		var rep struct {
			ScoreCT int `json:"score_ct"`
			ScoreT  int `json:"score_t"`
			Players []struct {
				Name     string `json:"name"`
				Kills    int    `json:"kills"`
				Rank     int    `json:"rank"`
				Playtime int    `json:"playtime"`
			} `json:"players"`
		}
		if err := json.Unmarshal(body, &rep); err == nil {
			for _, p := range rep.Players {
				fmt.Printf("  ← report server=%s %s kills=%d rank=%d playtime=%ds score=%d-%d\n",
					r.URL.Query().Get("server"), p.Name, p.Kills, p.Rank, p.Playtime, rep.ScoreCT, rep.ScoreT)
			}
			if len(rep.Players) == 0 {
				fmt.Printf("  ← report server=%s (empty roster) score=%d-%d\n",
					r.URL.Query().Get("server"), rep.ScoreCT, rep.ScoreT)
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("stub dashboard: %v", err)
	}
}
