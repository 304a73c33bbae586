package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ksred/breeze-gateway/internal/broker"
	"github.com/ksred/breeze-gateway/internal/trading"
	"github.com/ksred/breeze-gateway/internal/types"
)

const (
	numBatches = 20
	numWorkers = 3
)

var stockCodes = []string{"NIFTY", "CNXBAN", "SENSEX"}

// init configures pretty logging for the simulation run.
func init() {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// opStats tracks latency and failure counts for one operation type.
type opStats struct {
	mu        sync.Mutex
	name      string
	durations []time.Duration
	failures  int
}

func (s *opStats) add(d time.Duration, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, d)
	if failed {
		s.failures++
	}
}

// calculate computes min, max, mean, median and p95 over recorded samples.
func (s *opStats) calculate() (min, max, mean, median, p95 time.Duration) {
	if len(s.durations) == 0 {
		return 0, 0, 0, 0, 0
	}

	sort.Slice(s.durations, func(i, j int) bool {
		return s.durations[i] < s.durations[j]
	})

	min = s.durations[0]
	max = s.durations[len(s.durations)-1]

	var sum time.Duration
	for _, d := range s.durations {
		sum += d
	}
	mean = sum / time.Duration(len(s.durations))
	median = s.durations[len(s.durations)/2]

	p95idx := int(math.Ceil(float64(len(s.durations))*0.95)) - 1
	p95 = s.durations[p95idx]

	return
}

// randomStraddle builds a two-leg short straddle, the bread and butter
// strategy the engine is sized for.
func randomStraddle() []types.OrderLeg {
	stock := stockCodes[rand.Intn(len(stockCodes))]
	strike := 24500.0 + float64(rand.Intn(10))*50
	expiry := time.Now().AddDate(0, 0, 7).Format("02-Jan-2006")

	leg := types.OrderLeg{
		StockCode:    stock,
		ExchangeCode: "NFO",
		Product:      "options",
		Action:       types.ActionSell,
		OrderType:    "market",
		Quantity:     75,
		ExpiryDate:   expiry,
		StrikePrice:  strike,
	}

	call, put := leg, leg
	call.Right = types.RightCall
	put.Right = types.RightPut
	return []types.OrderLeg{call, put}
}

// main runs multi-leg batches through the paper broker and reports latency
// statistics. No network, no real broker: this is a harness for eyeballing
// engine behaviour under concurrent load.
func main() {
	store := broker.NewSessionStore()
	gate := broker.NewGate()
	paper := broker.NewPaper(store, gate)
	engine := trading.NewEngine(paper, store, trading.NewJournal(nil))

	ctx := context.Background()
	if _, err := paper.Authenticate(ctx, types.Credentials{
		APIKey:       "sim-key",
		APISecret:    "sim-secret",
		SessionToken: "sim-token",
	}); err != nil {
		log.Fatal().Err(err).Msg("paper connect failed")
	}
	log.Info().Msg("connected to paper broker")

	submitStats := &opStats{name: "Strategy Submit"}
	squareoffStats := &opStats{name: "Square Off"}

	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range work {
				legs := randomStraddle()

				start := time.Now()
				results, err := engine.Submit(ctx, legs)
				failed := err != nil
				for _, r := range results {
					if !r.Success {
						failed = true
					}
				}
				submitStats.add(time.Since(start), failed)
				if err != nil {
					log.Error().Err(err).Msg("submit failed")
					continue
				}
				log.Info().Int("legs", len(results)).Msg("batch done")

				// Square off the first leg of every other batch.
				if rand.Intn(2) == 0 {
					start = time.Now()
					res, _, err := engine.SquareOff(ctx, legs[0])
					squareoffStats.add(time.Since(start), err != nil || !res.Success)
				}
			}
		}()
	}

	for i := 0; i < numBatches; i++ {
		work <- i
	}
	close(work)
	wg.Wait()

	printStats(submitStats)
	printStats(squareoffStats)
}

func printStats(s *opStats) {
	min, max, mean, median, p95 := s.calculate()
	fmt.Printf("\n%s: %d calls, %d failures\n", s.name, len(s.durations), s.failures)
	fmt.Printf("  min %v  max %v  mean %v  median %v  p95 %v\n", min, max, mean, median, p95)
}
