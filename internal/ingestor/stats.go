package ingestor

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"

	"trade-ingestor-go/internal/models"
)

type InstrumentStats struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

type Snapshot struct {
	Ticks         int                        `json:"ticks"`
	Published     int                        `json:"published"`
	FailedBatches int                        `json:"failed_batches"`
	LastError     string                     `json:"last_error,omitempty"`
	LastTickAt    time.Time                  `json:"last_tick_at"`
	Instruments   map[string]InstrumentStats `json:"instruments"`
}

// Stats is read by the status endpoint while the loop writes it.
type Stats struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewStats() *Stats {
	return &Stats{snap: Snapshot{Instruments: make(map[string]InstrumentStats)}}
}

func (s *Stats) Record(batch models.Batch, ack models.Ack) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Ticks++
	s.snap.LastTickAt = time.Now()
	if ack.Success {
		s.snap.Published += len(batch)
	} else {
		s.snap.FailedBatches++
		s.snap.LastError = ack.Message
	}

	for _, trade := range batch {
		st := s.snap.Instruments[trade.Instrument]
		if ack.Success {
			st.Published++
		} else {
			st.Failed++
		}
		s.snap.Instruments[trade.Instrument] = st
	}
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.snap
	out.Instruments = make(map[string]InstrumentStats, len(s.snap.Instruments))
	for k, v := range s.snap.Instruments {
		out.Instruments[k] = v
	}
	return out
}

// WriteReport renders the per-instrument totals as a table.
func (s *Stats) WriteReport(w io.Writer) {
	snap := s.Snapshot()

	symbols := make([]string, 0, len(snap.Instruments))
	for symbol := range snap.Instruments {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Instrument", "Published", "Failed"})
	for _, symbol := range symbols {
		st := snap.Instruments[symbol]
		table.Append([]string{symbol, fmt.Sprint(st.Published), fmt.Sprint(st.Failed)})
	}
	table.SetFooter([]string{
		fmt.Sprintf("%d ticks", snap.Ticks),
		fmt.Sprint(snap.Published),
		fmt.Sprintf("%d batches", snap.FailedBatches),
	})
	table.Render()
}
