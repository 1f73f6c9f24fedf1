// Command tsdemux-probe reads a transport stream from a file or a
// multicast UDP address and prints the decoded SI/PSI model as JSON once,
// when the input ends or the run is interrupted. With -follow the file is
// tailed as it grows, so the model is printed only on interrupt.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/asticode/go-astikit"
	"github.com/pkg/profile"

	"github.com/mpegdemux/tsdemux"
	"github.com/mpegdemux/tsdemux/source"
)

func main() {
	var (
		input    = flag.String("i", "", "input: path to a file, or udp://addr:port for multicast")
		follow   = flag.Bool("follow", false, "tail the input file as it grows instead of stopping at EOF")
		strict   = flag.Bool("strict", false, "treat CRC failures as fatal errors")
		cpuProf  = flag.Bool("cpuprofile", false, "enable CPU profiling via github.com/pkg/profile")
		memProf  = flag.Bool("memprofile", false, "enable memory profiling via github.com/pkg/profile")
		pidsOnly = astikit.NewFlagStrings()
	)
	flag.Var(pidsOnly, "pid", "restrict decoding to this PID (repeatable)")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "tsdemux-probe: -i is required")
		os.Exit(2)
	}

	if *cpuProf {
		defer profile.Start(profile.CPUProfile).Stop()
	} else if *memProf {
		defer profile.Start(profile.MemProfile).Stop()
	}

	l := astikit.AdaptStdLogger(log.Default())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, closeFn, err := openInput(ctx, *input, *follow, l)
	if err != nil {
		l.Errorf("tsdemux-probe: %s", err)
		os.Exit(1)
	}
	defer closeFn()

	var opts []tsdemux.DemuxerOpt
	opts = append(opts, tsdemux.DemuxerOptLogger(l), tsdemux.DemuxerOptHidePacketSeen())
	if *strict {
		opts = append(opts, tsdemux.DemuxerOptStrict())
	}
	if len(pidsOnly.Map) > 0 {
		pids := make([]uint16, 0, len(pidsOnly.Map))
		for s := range pidsOnly.Map {
			var v uint16
			if _, err := fmt.Sscanf(s, "0x%x", &v); err != nil {
				if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
					l.Errorf("tsdemux-probe: invalid -pid %q", s)
					continue
				}
			}
			pids = append(pids, v)
		}
		opts = append(opts, tsdemux.DemuxerOptTargetPIDs(pids...))
	}

	d := tsdemux.NewDemuxer(r, opts...)

	for ctx.Err() == nil {
		ev, err := d.NextEvent()
		if err != nil {
			if err != io.EOF {
				l.Errorf("tsdemux-probe: %s", err)
			}
			break
		}
		switch ev.Kind {
		case tsdemux.EventPATUpdated, tsdemux.EventPMTUpdated, tsdemux.EventSDTUpdated,
			tsdemux.EventTDTUpdated, tsdemux.EventTOTUpdated, tsdemux.EventCRCFailure,
			tsdemux.EventContinuityDiscontinuity, tsdemux.EventDesynchronized:
			l.Debugf("tsdemux-probe: %s on PID 0x%04x", ev.Kind, ev.PID)
		}
	}

	printModel(d.Model())
}

func openInput(ctx context.Context, input string, follow bool, l astikit.CompleteLogger) (io.ReadCloser, func(), error) {
	if len(input) > len("udp://") && input[:len("udp://")] == "udp://" {
		rc, err := source.UDP(source.UDPConfig{Addr: input[len("udp://"):]}, l)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { rc.Close() }, nil
	}

	if follow {
		rc, err := source.Tail(ctx, input, l)
		if err != nil {
			return nil, nil, err
		}
		return rc, func() { rc.Close() }, nil
	}

	rc, err := source.File(input)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() { rc.Close() }, nil
}

// modelSummary is a JSON-friendly flattening of tsdemux.Model, since the
// Model's own maps are keyed by PID (not directly JSON-serializable as
// useful keys without a pass like this).
type modelSummary struct {
	Programs []programSummary `json:"programs"`
	Services []serviceSummary `json:"services"`
}

type programSummary struct {
	ProgramNumber uint16            `json:"program_number"`
	PMTPID        uint16            `json:"pmt_pid"`
	PCRPID        uint16            `json:"pcr_pid,omitempty"`
	Streams       []streamSummary   `json:"streams,omitempty"`
}

type streamSummary struct {
	PID        uint16 `json:"pid"`
	StreamType uint8  `json:"stream_type"`
}

type serviceSummary struct {
	ServiceID uint16 `json:"service_id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
}

func printModel(m *tsdemux.Model) {
	var summary modelSummary

	for _, pat := range m.PAT {
		for _, prog := range pat.Programs {
			ps := programSummary{ProgramNumber: prog.ProgramNumber, PMTPID: prog.PID}
			if pmt, ok := m.PMT[prog.PID]; ok {
				ps.PCRPID = pmt.PCRPID
				for _, es := range pmt.ElementaryStreams {
					ps.Streams = append(ps.Streams, streamSummary{PID: es.PID, StreamType: es.StreamType})
				}
			}
			summary.Programs = append(summary.Programs, ps)
		}
	}
	sort.Slice(summary.Programs, func(i, j int) bool {
		return summary.Programs[i].ProgramNumber < summary.Programs[j].ProgramNumber
	})

	for _, sdt := range m.SDT {
		for _, svc := range sdt.Services {
			ss := serviceSummary{ServiceID: svc.ServiceID}
			for _, d := range svc.Descriptors {
				if d.Service != nil {
					ss.Name = d.Service.Name
					ss.Provider = d.Service.ProviderName
				}
			}
			summary.Services = append(summary.Services, ss)
		}
	}
	sort.Slice(summary.Services, func(i, j int) bool {
		return summary.Services[i].ServiceID < summary.Services[j].ServiceID
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(summary)
}
